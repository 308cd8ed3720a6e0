// Package local implements a filesystem-backed datastore: each
// dump is a directory holding one (optionally gzip-compressed,
// optionally encrypted) byte-stream file, and the datastore's index is a
// small TOML document listing every dump's metadata — the same format
// BurntSushi/toml gives the teacher's TOML schema input
// (internal/parser/toml), a natural fit for a file a human may want to
// read directly.
package local

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/BurntSushi/toml"
	"golang.org/x/crypto/nacl/secretbox"

	"dbsnap/internal/core"
	"dbsnap/internal/datastore"
)

const indexFileName = "index.toml"

// Local is a local-filesystem datastore rooted at a base directory. It
// implements datastore.Reader; writes go through the datastore.Writer that
// NewDump returns for each dump, so *Local itself is not a
// datastore.Datastore.
type Local struct {
	baseDir string
	encKey  *[32]byte
}

// Option configures a Local datastore at construction.
type Option func(*Local)

// WithEncryptionKey derives a 32-byte secretbox key from passphrase and
// arms it for every dump written or read through this Local instance,
// unless a given dumpWriter's SetEncryptionKey overrides it.
func WithEncryptionKey(passphrase string) Option {
	return func(l *Local) {
		key := sha256.Sum256([]byte(passphrase))
		l.encKey = &key
	}
}

// New returns a Local datastore rooted at baseDir, creating it if absent.
func New(baseDir string, opts ...Option) (*Local, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating datastore directory %q: %w", baseDir, err)
	}
	l := &Local{baseDir: baseDir}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

type indexDocument struct {
	Dumps []indexEntry `toml:"dumps"`
}

type indexEntry struct {
	Directory   string `toml:"directory"`
	SizeBytes   int64  `toml:"size_bytes"`
	CreatedAtMS int64  `toml:"created_at_ms"`
	Compressed  bool   `toml:"compressed"`
	Encrypted   bool   `toml:"encrypted"`
}

func (e indexEntry) toCore() core.DumpIndexEntry {
	return core.DumpIndexEntry{
		Directory:   e.Directory,
		SizeBytes:   e.SizeBytes,
		CreatedAtMS: e.CreatedAtMS,
		Compressed:  e.Compressed,
		Encrypted:   e.Encrypted,
	}
}

func (l *Local) indexPath() string {
	return filepath.Join(l.baseDir, indexFileName)
}

func (l *Local) readIndex() (indexDocument, error) {
	var doc indexDocument
	_, err := toml.DecodeFile(l.indexPath(), &doc)
	if err != nil && !os.IsNotExist(err) {
		return indexDocument{}, fmt.Errorf("reading datastore index: %w", err)
	}
	return doc, nil
}

func (l *Local) writeIndex(doc indexDocument) error {
	f, err := os.Create(l.indexPath())
	if err != nil {
		return fmt.Errorf("writing datastore index: %w", err)
	}
	defer f.Close()
	return toml.NewEncoder(f).Encode(doc)
}

// Index returns every dump's metadata (spec.md §4.8's index_file).
func (l *Local) Index() ([]core.DumpIndexEntry, error) {
	doc, err := l.readIndex()
	if err != nil {
		return nil, err
	}
	out := make([]core.DumpIndexEntry, len(doc.Dumps))
	for i, e := range doc.Dumps {
		out[i] = e.toCore()
	}
	return out, nil
}

// Delete removes a dump directory and its index entry.
func (l *Local) Delete(name string) error {
	doc, err := l.readIndex()
	if err != nil {
		return err
	}
	kept := doc.Dumps[:0]
	found := false
	for _, e := range doc.Dumps {
		if e.Directory == name {
			found = true
			continue
		}
		kept = append(kept, e)
	}
	if !found {
		return fmt.Errorf("dump %q not found", name)
	}
	if err := os.RemoveAll(filepath.Join(l.baseDir, name)); err != nil {
		return fmt.Errorf("deleting dump %q: %w", name, err)
	}
	return l.writeIndex(indexDocument{Dumps: kept})
}

// Open returns the selected dump's byte stream, transparently
// decompressing and/or decrypting it (spec.md §4.8's read_options).
func (l *Local) Open(selector datastore.ReadSelector) (io.ReadCloser, error) {
	doc, err := l.readIndex()
	if err != nil {
		return nil, err
	}
	if len(doc.Dumps) == 0 {
		return nil, fmt.Errorf("no dumps available")
	}

	var entry indexEntry
	if selector.Latest {
		sorted := append([]indexEntry(nil), doc.Dumps...)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i].CreatedAtMS < sorted[j].CreatedAtMS })
		entry = sorted[len(sorted)-1]
	} else {
		found := false
		for _, e := range doc.Dumps {
			if e.Directory == selector.Name {
				entry = e
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("dump %q not found", selector.Name)
		}
	}

	f, err := os.Open(filepath.Join(l.baseDir, entry.Directory, "dump"))
	if err != nil {
		return nil, fmt.Errorf("opening dump %q: %w", entry.Directory, err)
	}

	var r io.Reader = f
	if entry.Encrypted {
		if l.encKey == nil {
			f.Close()
			return nil, fmt.Errorf("dump %q is encrypted but no encryption key is configured", entry.Directory)
		}
		r = newDecryptReader(r, l.encKey)
	}
	if entry.Compressed {
		gz, err := gzip.NewReader(r)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("opening dump %q: %w", entry.Directory, err)
		}
		return &readCloser{Reader: gz, closers: []io.Closer{gz, f}}, nil
	}
	return &readCloser{Reader: r, closers: []io.Closer{f}}, nil
}

type readCloser struct {
	io.Reader
	closers []io.Closer
}

func (rc *readCloser) Close() error {
	var first error
	for _, c := range rc.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// NewDump starts a new dump, returning a datastore.Writer scoped to it.
// The dump is written to a staging directory and only renamed into place
// (visible to Index/Open) by a successful Finalize, so a dump aborted
// mid-write — or one whose process crashes — never appears in the index
// (spec.md §5's cancellation guarantee).
func (l *Local) NewDump(compress bool) (datastore.Writer, error) {
	name := fmt.Sprintf("dump-%d", time.Now().UnixMilli())
	stagingDir := filepath.Join(l.baseDir, ".staging-"+name)
	if err := os.MkdirAll(stagingDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating dump directory: %w", err)
	}

	f, err := os.Create(filepath.Join(stagingDir, "dump"))
	if err != nil {
		return nil, fmt.Errorf("creating dump file: %w", err)
	}

	w := &dumpWriter{
		local:      l,
		name:       name,
		stagingDir: stagingDir,
		file:       f,
		compress:   compress,
		encKey:     l.encKey,
	}
	w.buf = bufio.NewWriter(f)
	if compress {
		w.gzBuf = new(bytes.Buffer)
		w.gz = gzip.NewWriter(w.gzBuf)
	}
	return w, nil
}

// dumpWriter compresses then encrypts each batch, in that order, so the
// on-disk byte stream is exactly what Open expects to decrypt and then
// gunzip: compression always runs on plaintext first, and an encryption
// key (set at construction or armed later by SetEncryptionKey) always
// wraps the result — plaintext, or already-compressed bytes when both
// features are active — never the other way around.
type dumpWriter struct {
	local      *Local
	name       string
	stagingDir string
	file       *os.File
	buf        *bufio.Writer
	gz         *gzip.Writer
	gzBuf      *bytes.Buffer
	compress   bool
	encKey     *[32]byte
	size       int64
}

func (w *dumpWriter) SetEncryptionKey(key []byte) error {
	if len(key) == 0 {
		return fmt.Errorf("encryption key must not be empty")
	}
	derived := sha256.Sum256(key)
	w.encKey = &derived
	return nil
}

func (w *dumpWriter) WriteBatch(_, transformed []byte) error {
	chunk := transformed
	if w.compress {
		w.gzBuf.Reset()
		if _, err := w.gz.Write(transformed); err != nil {
			return fmt.Errorf("compressing dump batch: %w", err)
		}
		if err := w.gz.Flush(); err != nil {
			return fmt.Errorf("compressing dump batch: %w", err)
		}
		chunk = append([]byte(nil), w.gzBuf.Bytes()...)
	}

	if w.encKey != nil {
		frame, err := encryptFrame(chunk, w.encKey)
		if err != nil {
			return fmt.Errorf("encrypting dump batch: %w", err)
		}
		chunk = frame
	}

	n, err := w.buf.Write(chunk)
	w.size += int64(n)
	if err != nil {
		return fmt.Errorf("writing dump batch: %w", err)
	}
	return nil
}

func (w *dumpWriter) Finalize() (core.DumpIndexEntry, error) {
	if w.gz != nil {
		w.gzBuf.Reset()
		if err := w.gz.Close(); err != nil {
			return core.DumpIndexEntry{}, fmt.Errorf("finalizing dump: %w", err)
		}
		if trailer := w.gzBuf.Bytes(); len(trailer) > 0 {
			chunk := append([]byte(nil), trailer...)
			if w.encKey != nil {
				frame, err := encryptFrame(chunk, w.encKey)
				if err != nil {
					return core.DumpIndexEntry{}, fmt.Errorf("finalizing dump: %w", err)
				}
				chunk = frame
			}
			if _, err := w.buf.Write(chunk); err != nil {
				return core.DumpIndexEntry{}, fmt.Errorf("finalizing dump: %w", err)
			}
		}
	}
	if err := w.buf.Flush(); err != nil {
		return core.DumpIndexEntry{}, fmt.Errorf("finalizing dump: %w", err)
	}
	if err := w.file.Close(); err != nil {
		return core.DumpIndexEntry{}, fmt.Errorf("finalizing dump: %w", err)
	}

	info, err := os.Stat(filepath.Join(w.stagingDir, "dump"))
	if err != nil {
		return core.DumpIndexEntry{}, fmt.Errorf("finalizing dump: %w", err)
	}

	finalDir := filepath.Join(w.local.baseDir, w.name)
	if err := os.Rename(w.stagingDir, finalDir); err != nil {
		return core.DumpIndexEntry{}, fmt.Errorf("finalizing dump: %w", err)
	}

	entry := indexEntry{
		Directory:   w.name,
		SizeBytes:   info.Size(),
		CreatedAtMS: time.Now().UnixMilli(),
		Compressed:  w.compress,
		Encrypted:   w.encKey != nil,
	}

	doc, err := w.local.readIndex()
	if err != nil {
		return core.DumpIndexEntry{}, err
	}
	doc.Dumps = append(doc.Dumps, entry)
	if err := w.local.writeIndex(doc); err != nil {
		return core.DumpIndexEntry{}, err
	}
	return entry.toCore(), nil
}

// Abort discards the staging directory. The dump never touches the index.
func (w *dumpWriter) Abort() error {
	_ = w.file.Close()
	return os.RemoveAll(w.stagingDir)
}

// encryptFrame wraps chunk as [24-byte nonce][4-byte big-endian
// ciphertext length][ciphertext], so WriteBatch can encrypt one batch at a
// time without buffering the whole dump.
func encryptFrame(chunk []byte, key *[32]byte) ([]byte, error) {
	var nonce [24]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return nil, err
	}
	sealed := secretbox.Seal(nil, chunk, &nonce, key)

	frame := make([]byte, 24+4+len(sealed))
	copy(frame, nonce[:])
	binary.BigEndian.PutUint32(frame[24:28], uint32(len(sealed)))
	copy(frame[28:], sealed)
	return frame, nil
}

type decryptReader struct {
	r      io.Reader
	key    *[32]byte
	plain  []byte
	offset int
}

func newDecryptReader(r io.Reader, key *[32]byte) *decryptReader {
	return &decryptReader{r: r, key: key}
}

func (d *decryptReader) Read(p []byte) (int, error) {
	if d.offset >= len(d.plain) {
		if err := d.fill(); err != nil {
			return 0, err
		}
	}
	n := copy(p, d.plain[d.offset:])
	d.offset += n
	return n, nil
}

func (d *decryptReader) fill() error {
	var header [28]byte
	if _, err := io.ReadFull(d.r, header[:]); err != nil {
		return err
	}
	var nonce [24]byte
	copy(nonce[:], header[:24])
	length := binary.BigEndian.Uint32(header[24:28])

	sealed := make([]byte, length)
	if _, err := io.ReadFull(d.r, sealed); err != nil {
		return fmt.Errorf("reading encrypted frame: %w", err)
	}

	plain, ok := secretbox.Open(nil, sealed, &nonce, d.key)
	if !ok {
		return fmt.Errorf("decrypting dump: authentication failed")
	}
	d.plain = plain
	d.offset = 0
	return nil
}
