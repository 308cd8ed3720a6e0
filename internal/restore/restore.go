// Package restore implements the restore driver (spec.md §4.7): it reads
// ordered blocks back out of a datastore.Reader and feeds each one to a
// Destination, oblivious to whether a block is schema DDL or a bulk-copy
// data block — exactly as spec.md §4.7 specifies ("Destination choice is
// the caller's responsibility; the restore driver is oblivious").
package restore

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"dbsnap/internal/datastore"
)

// Destination is the uniform "write one query" contract spec.md §4.7
// describes: a generic stdout sink, a live database client, or an
// ephemeral-container client all satisfy it identically.
type Destination interface {
	WriteQuery(ctx context.Context, block string) error
}

// Driver replays a dump from a datastore.Reader into a Destination.
type Driver struct {
	store datastore.Reader
	out   io.Writer
}

// New returns a Driver reading from store; out receives progress lines and
// defaults to io.Discard, mirroring the teacher's io.Discard default for
// Applier.out.
func New(store datastore.Reader, out io.Writer) *Driver {
	if out == nil {
		out = io.Discard
	}
	return &Driver{store: store, out: out}
}

// Run reads the dump selected by selector and feeds every block it contains
// to dest, in the order the dump driver wrote them (spec.md §5's ordering
// guarantee: schema phase before data phase, tables in plan order, rows in
// source order).
func (d *Driver) Run(ctx context.Context, selector datastore.ReadSelector, dest Destination) error {
	rc, err := d.store.Open(selector)
	if err != nil {
		return fmt.Errorf("opening dump: %w", err)
	}
	defer rc.Close()

	content, err := io.ReadAll(rc)
	if err != nil {
		return fmt.Errorf("reading dump: %w", err)
	}

	blocks := splitBlocks(string(content))
	for i, block := range blocks {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("restore canceled after %d/%d blocks: %w", i, len(blocks), err)
		}
		if err := dest.WriteQuery(ctx, block); err != nil {
			return fmt.Errorf("applying block %d/%d: %w", i+1, len(blocks), err)
		}
	}
	fmt.Fprintf(d.out, "restore complete: %d blocks applied\n", len(blocks))
	return nil
}

// splitBlocks divides a dump's byte stream into the units the dump driver
// wrote it in: a statement (accumulated up to a line ending in ";") or a
// \COPY ... FROM stdin block (accumulated from its header line up to the
// terminating "\." line). Semicolons inside copy data never end a block —
// the inCopy flag gates that, since row payloads may contain literal ';'
// bytes.
func splitBlocks(content string) []string {
	scanner := bufio.NewScanner(strings.NewReader(content))
	scanner.Buffer(make([]byte, 0, 64*1024), 10*1024*1024)

	var blocks []string
	var cur []string
	inCopy := false

	flush := func() {
		if len(cur) > 0 {
			blocks = append(blocks, strings.Join(cur, "\n"))
			cur = nil
		}
	}

	for scanner.Scan() {
		line := scanner.Text()
		trimmed := strings.TrimSpace(line)
		if trimmed == "" && len(cur) == 0 {
			continue
		}
		cur = append(cur, line)

		if inCopy {
			if trimmed == `\.` {
				flush()
				inCopy = false
			}
			continue
		}
		if strings.HasPrefix(trimmed, `\COPY`) {
			inCopy = true
			continue
		}
		if strings.HasSuffix(trimmed, ";") {
			flush()
		}
	}
	flush()
	return blocks
}
