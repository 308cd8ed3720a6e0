// Package main contains the CLI implementation of the tool. It uses the
// cobra package for CLI implementation, the same way the teacher's
// cmd/smf/main.go does.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	"github.com/spf13/cobra"

	"dbsnap/internal/config"
	"dbsnap/internal/core"
	"dbsnap/internal/datastore"
	"dbsnap/internal/datastore/local"
	"dbsnap/internal/dump"
	"dbsnap/internal/introspect"
	_ "dbsnap/internal/introspect/mysql"
	_ "dbsnap/internal/introspect/postgres"
	"dbsnap/internal/planner"
	"dbsnap/internal/restore"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "dbsnap",
		Short: "Anonymized database snapshot and restore tool",
	}

	rootCmd.AddCommand(dumpCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func dumpCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dump",
		Short: "Create, list, delete, and restore snapshots",
	}
	cmd.AddCommand(dumpCreateCmd())
	cmd.AddCommand(dumpListCmd())
	cmd.AddCommand(dumpDeleteCmd())
	cmd.AddCommand(dumpRestoreCmd())
	cmd.AddCommand(dumpRestoreLocalCmd())
	return cmd
}

type createFlags struct {
	configPath      string
	datastoreDir    string
	encryptionKey   string
	schemaDumperBin string
	clientBin       string
	timeout         int
}

func dumpCreateCmd() *cobra.Command {
	flags := &createFlags{}
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Capture a new anonymized snapshot from a source database",
		RunE: func(_ *cobra.Command, _ []string) error {
			return runCreate(flags)
		},
	}
	cmd.Flags().StringVarP(&flags.configPath, "config", "c", "", "Path to the source configuration YAML file (required)")
	cmd.Flags().StringVar(&flags.datastoreDir, "datastore", "./dumps", "Local datastore directory")
	cmd.Flags().StringVar(&flags.encryptionKey, "encryption-key", "", "Optional passphrase to encrypt the dump at rest")
	cmd.Flags().StringVar(&flags.schemaDumperBin, "schema-dumper", "", "Schema-dump binary override (default pg_dump)")
	cmd.Flags().StringVar(&flags.clientBin, "client", "", "Bulk-export client binary override (default psql)")
	cmd.Flags().IntVar(&flags.timeout, "timeout", 3600, "Dump timeout in seconds")
	return cmd
}

func runCreate(flags *createFlags) error {
	if flags.configPath == "" {
		return fmt.Errorf("--config is required")
	}

	data, err := os.ReadFile(flags.configPath)
	if err != nil {
		return fmt.Errorf("reading source configuration: %w", err)
	}
	cfg, err := config.ParseSourceConfig(data)
	if err != nil {
		return err
	}

	options, err := planner.New(cfg)
	if err != nil {
		return err
	}

	uri, err := core.ParseConnectionURI(cfg.ConnectionURI)
	if err != nil {
		return err
	}

	schemaDumperBin, clientBin := flags.schemaDumperBin, flags.clientBin
	if schemaDumperBin == "" {
		schemaDumperBin = "pg_dump"
	}
	if clientBin == "" {
		clientBin = "psql"
	}
	if err := dump.CheckBinaries(schemaDumperBin, clientBin); err != nil {
		return err
	}

	introspecter, err := introspect.New(uri.Family)
	if err != nil {
		return err
	}

	db, err := sql.Open(driverName(uri.Family), dsn(uri))
	if err != nil {
		return fmt.Errorf("opening source connection: %w", err)
	}
	defer db.Close()

	store, err := local.New(flags.datastoreDir)
	if err != nil {
		return err
	}

	writer, err := store.NewDump(cfg.Compression)
	if err != nil {
		return err
	}
	if flags.encryptionKey != "" {
		if err := writer.SetEncryptionKey([]byte(flags.encryptionKey)); err != nil {
			return err
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(flags.timeout)*time.Second)
	defer cancel()

	driver := dump.New(dump.Config{
		URI:             uri,
		Options:         options,
		Store:           writer,
		Introspecter:    introspecter,
		Out:             os.Stdout,
		SchemaDumperBin: schemaDumperBin,
		ClientBin:       clientBin,
	})

	_, err = driver.Run(ctx, db)
	return err
}

type listFlags struct {
	datastoreDir string
}

func dumpListCmd() *cobra.Command {
	flags := &listFlags{}
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List snapshots in the datastore",
		RunE: func(_ *cobra.Command, _ []string) error {
			return runList(flags)
		},
	}
	cmd.Flags().StringVar(&flags.datastoreDir, "datastore", "./dumps", "Local datastore directory")
	return cmd
}

func runList(flags *listFlags) error {
	store, err := local.New(flags.datastoreDir)
	if err != nil {
		return err
	}
	entries, err := store.Index()
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("no dumps found")
		return nil
	}
	for _, e := range entries {
		fmt.Printf("%s\t%d bytes\tcompressed=%t\tencrypted=%t\n", e.Directory, e.SizeBytes, e.Compressed, e.Encrypted)
	}
	return nil
}

type deleteFlags struct {
	datastoreDir string
	name         string
}

func dumpDeleteCmd() *cobra.Command {
	flags := &deleteFlags{}
	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete a snapshot from the datastore",
		RunE: func(_ *cobra.Command, _ []string) error {
			return runDelete(flags)
		},
	}
	cmd.Flags().StringVar(&flags.datastoreDir, "datastore", "./dumps", "Local datastore directory")
	cmd.Flags().StringVarP(&flags.name, "name", "n", "", "Dump directory name to delete (required)")
	return cmd
}

func runDelete(flags *deleteFlags) error {
	if flags.name == "" {
		return fmt.Errorf("--name is required")
	}
	store, err := local.New(flags.datastoreDir)
	if err != nil {
		return err
	}
	return store.Delete(flags.name)
}

type restoreFlags struct {
	datastoreDir string
	name         string
	latest       bool
	dsn          string
	family       string
}

func dumpRestoreCmd() *cobra.Command {
	flags := &restoreFlags{}
	cmd := &cobra.Command{
		Use:   "restore",
		Short: "Replay a snapshot into stdout or a live database",
		RunE: func(_ *cobra.Command, _ []string) error {
			return runRestore(flags)
		},
	}
	cmd.Flags().StringVar(&flags.datastoreDir, "datastore", "./dumps", "Local datastore directory")
	cmd.Flags().StringVarP(&flags.name, "name", "n", "", "Dump name to restore (default: latest)")
	cmd.Flags().BoolVar(&flags.latest, "latest", true, "Restore the most recent dump")
	cmd.Flags().StringVar(&flags.dsn, "dsn", "", "Destination connection URI; omit to print to stdout")
	cmd.Flags().StringVar(&flags.family, "family", "postgres", "Destination family: postgres or mysql")
	return cmd
}

func runRestore(flags *restoreFlags) error {
	store, err := local.New(flags.datastoreDir)
	if err != nil {
		return err
	}

	dest, cleanup, err := resolveDestination(flags.dsn, flags.family)
	if err != nil {
		return err
	}
	defer cleanup()

	driver := restore.New(store, os.Stdout)
	return driver.Run(context.Background(), selector(flags.name, flags.latest), dest)
}

func resolveDestination(dsnURI, family string) (restore.Destination, func(), error) {
	if dsnURI == "" {
		return restore.NewStdoutDestination(os.Stdout), func() {}, nil
	}
	uri, err := core.ParseConnectionURI(dsnURI)
	if err != nil {
		return nil, nil, err
	}
	db, err := sql.Open(driverName(uri.Family), dsn(uri))
	if err != nil {
		return nil, nil, fmt.Errorf("opening destination connection: %w", err)
	}
	return restore.NewSQLDestination(db, uri.Family), func() { _ = db.Close() }, nil
}

func selector(name string, latest bool) datastore.ReadSelector {
	if name != "" {
		return datastore.Named(name)
	}
	_ = latest
	return datastore.Latest()
}

type restoreLocalFlags struct {
	datastoreDir string
	name         string
	family       string
	image        string
}

func dumpRestoreLocalCmd() *cobra.Command {
	flags := &restoreLocalFlags{}
	cmd := &cobra.Command{
		Use:   "restore-local",
		Short: "Replay a snapshot into a disposable local container",
		RunE: func(_ *cobra.Command, _ []string) error {
			return runRestoreLocal(flags)
		},
	}
	cmd.Flags().StringVar(&flags.datastoreDir, "datastore", "./dumps", "Local datastore directory")
	cmd.Flags().StringVarP(&flags.name, "name", "n", "", "Dump name to restore (default: latest)")
	cmd.Flags().StringVar(&flags.family, "family", "postgres", "Container family: postgres or mysql")
	cmd.Flags().StringVar(&flags.image, "image", "", "Container image tag override")
	return cmd
}

func runRestoreLocal(flags *restoreLocalFlags) error {
	store, err := local.New(flags.datastoreDir)
	if err != nil {
		return err
	}

	ctx := context.Background()
	var container *restore.ContainerDestination
	switch flags.family {
	case "mysql":
		image := flags.image
		if image == "" {
			image = "mysql:8.0"
		}
		container, err = restore.NewMySQLContainer(ctx, image)
	case "postgres":
		image := flags.image
		if image == "" {
			image = "postgres:16-alpine"
		}
		container, err = restore.NewPostgresContainer(ctx, image)
	default:
		return fmt.Errorf("unsupported container family %q", flags.family)
	}
	if err != nil {
		return err
	}

	driver := restore.New(store, os.Stdout)
	if err := driver.Run(ctx, selector(flags.name, true), container); err != nil {
		_ = container.AwaitShutdown(ctx)
		return err
	}

	fmt.Println("restore complete; waiting for shutdown signal to tear down the container")
	return container.AwaitShutdown(ctx)
}

func driverName(family core.Family) string {
	if family == core.FamilyMySQL {
		return "mysql"
	}
	return "postgres"
}

func dsn(uri core.ConnectionURI) string {
	if uri.Family == core.FamilyPostgres && uri.Raw != "" {
		return uri.Raw
	}
	if uri.Family == core.FamilyMySQL {
		return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s", uri.Username, uri.Password, uri.Host, uri.Port, uri.Database)
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s", uri.Username, uri.Password, uri.Host, uri.Port, uri.Database)
}
