package core

// DumpIndexEntry describes one completed dump in the datastore's index
// (spec.md §3). The core only ever produces these; it never rewrites an
// existing entry, and the datastore owns persisting and listing them.
type DumpIndexEntry struct {
	Directory   string
	SizeBytes   int64
	CreatedAtMS int64
	Compressed  bool
	Encrypted   bool
}
