package core

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
)

var lookupEnv envLookup = os.LookupEnv

// Family identifies which database family a ConnectionURI addresses.
type Family string

const (
	FamilyPostgres Family = "postgres"
	FamilyMySQL    Family = "mysql"
)

// ConnectionURI is the parsed sum type over a connection string for a
// supported database family (spec.md §3, §6, §8). Raw holds a re-encoded
// URI for Postgres because the schema-dump and bulk-export utilities are
// invoked with a URI string, not individual flags — its username and
// password must be percent-escaped so a literal '@' or ':' in either one
// can't be mistaken for a field separator by the external utility's own
// URI parser.
type ConnectionURI struct {
	Family   Family
	Raw      string // only populated for FamilyPostgres; see above
	Host     string
	Port     int
	Username string
	Password string
	Database string
}

// ParseConnectionURI parses a connection string of the form
// scheme://user:pw@host[:port]/db, substituting a leading "$NAME" env-var
// reference first (spec.md §6). scheme must be one of postgres, postgresql,
// or mysql.
func ParseConnectionURI(uri string) (ConnectionURI, error) {
	substituted, err := SubstituteEnvVar(uri)
	if err != nil {
		return ConnectionURI{}, err
	}

	u, err := url.Parse(substituted)
	if err != nil {
		return ConnectionURI{}, fmt.Errorf("invalid connection uri: %w", err)
	}

	scheme := strings.ToLower(u.Scheme)
	switch scheme {
	case "postgres", "postgresql":
		return parsePostgres(u)
	case "mysql":
		return parseMySQL(u)
	default:
		return ConnectionURI{}, fmt.Errorf("'%s' not supported", u.Scheme)
	}
}

func parsePostgres(u *url.URL) (ConnectionURI, error) {
	host, err := requireHost(u)
	if err != nil {
		return ConnectionURI{}, err
	}
	port, err := portOrDefault(u, 5432)
	if err != nil {
		return ConnectionURI{}, err
	}
	username, err := requireUsername(u)
	if err != nil {
		return ConnectionURI{}, err
	}
	db := databaseOrDefault(u, "public")
	if db == "" {
		return ConnectionURI{}, fmt.Errorf("missing <database> property from connection uri")
	}

	return ConnectionURI{
		Family:   FamilyPostgres,
		Raw:      u.String(),
		Host:     host,
		Port:     port,
		Username: username,
		Password: passwordOrEmpty(u),
		Database: db,
	}, nil
}

func parseMySQL(u *url.URL) (ConnectionURI, error) {
	host, err := requireHost(u)
	if err != nil {
		return ConnectionURI{}, err
	}
	port, err := portOrDefault(u, 3306)
	if err != nil {
		return ConnectionURI{}, err
	}
	username, err := requireUsername(u)
	if err != nil {
		return ConnectionURI{}, err
	}
	db := databaseOrDefault(u, "")
	if db == "" {
		return ConnectionURI{}, fmt.Errorf("missing <database> property from connection uri")
	}

	return ConnectionURI{
		Family:   FamilyMySQL,
		Host:     host,
		Port:     port,
		Username: username,
		Password: passwordOrEmpty(u),
		Database: db,
	}, nil
}

func requireHost(u *url.URL) (string, error) {
	if u.Hostname() == "" {
		return "", fmt.Errorf("missing <host> property from connection uri")
	}
	return u.Hostname(), nil
}

func portOrDefault(u *url.URL, def int) (int, error) {
	p := u.Port()
	if p == "" {
		return def, nil
	}
	n, err := strconv.Atoi(p)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("<port> from connection uri must be a number greater than 0")
	}
	return n, nil
}

func requireUsername(u *url.URL) (string, error) {
	if u.User == nil || u.User.Username() == "" {
		return "", fmt.Errorf("missing <username> property from connection uri")
	}
	return u.User.Username(), nil
}

func passwordOrEmpty(u *url.URL) string {
	if u.User == nil {
		return ""
	}
	pw, _ := u.User.Password()
	return pw
}

func databaseOrDefault(u *url.URL, def string) string {
	path := strings.TrimPrefix(u.Path, "/")
	if path == "" {
		return def
	}
	// Only the first path segment is the database name; anything after a
	// further '/' is ignored, matching the original implementation.
	if idx := strings.Index(path, "/"); idx >= 0 {
		path = path[:idx]
	}
	return path
}

// SubstituteEnvVar implements the "$NAME" environment-variable reference
// rule from spec.md §6: "" passes through as "", a string without a leading
// "$" passes through literally, and "$NAME" resolves against the process
// environment or fails fatally if NAME is unset.
func SubstituteEnvVar(s string) (string, error) {
	return substituteEnvVar(s, lookupEnv)
}

type envLookup func(string) (string, bool)

func substituteEnvVar(s string, lookup envLookup) (string, error) {
	if s == "" {
		return "", nil
	}
	if strings.HasPrefix(s, "$") && len(s) > 1 {
		name := s[1:]
		v, ok := lookup(name)
		if !ok {
			return "", fmt.Errorf("environment variable '%s' is missing", name)
		}
		return v, nil
	}
	return s, nil
}
