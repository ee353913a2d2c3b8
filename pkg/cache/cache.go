// Package cache implements Home's content-addressed incremental
// compilation cache, per spec.md §4.8/§6: a directory of artifacts keyed
// by a composite hash of the source, its transitive import closure, the
// compiler version and the target triple. Grounded on go-corset's
// pkg/binfile.Header fixed-layout envelope pattern (magic/version/metadata
// fields written with a hand-rolled encoding rather than a general-purpose
// serializer), adapted here to a metadata *file* alongside each entry
// rather than a prefix within one file, since spec.md §6 specifies the two
// as sibling files on disk.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Key identifies one cached compilation unit.
type Key struct {
	SourceHash      string
	ImportHashes    []string // hex-encoded, in any order; Hash sorts a copy
	CompilerVersion string
	Target          string
}

// Hash computes the composite key: SHA-256(source_hash ‖ sorted import
// hashes ‖ compiler version ‖ target), per spec.md §4.8. The returned
// string is the hex-encoded directory/file name for this unit's entry.
func (k Key) Hash() string {
	imports := append([]string(nil), k.ImportHashes...)
	sort.Strings(imports)

	h := sha256.New()
	h.Write([]byte(k.SourceHash))

	for _, imp := range imports {
		h.Write([]byte(imp))
	}

	h.Write([]byte(k.CompilerVersion))
	h.Write([]byte(k.Target))

	return hex.EncodeToString(h.Sum(nil))
}

// SourceHash returns the hex-encoded SHA-256 of a compilation unit's raw
// source bytes, per spec.md §4.8's "H = SHA-256(source bytes)".
func SourceHash(source []byte) string {
	sum := sha256.Sum256(source)
	return hex.EncodeToString(sum[:])
}

// Cache is a directory of cached build artifacts. It never evicts on its
// own, per spec.md §4.8: deleting any entry is always correctness
// preserving and at worst forces a rebuild.
type Cache struct {
	Dir string
}

// Open returns a Cache rooted at dir, creating it if absent. The default
// directory per spec.md §6 is ".home-cache"; callers pass whatever the
// build driver configured.
func Open(dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cache: creating %s: %w", dir, err)
	}

	return &Cache{Dir: dir}, nil
}

func (c *Cache) artifactPath(key string) string { return filepath.Join(c.Dir, key) }
func (c *Cache) metaPath(key string) string     { return filepath.Join(c.Dir, key+".meta") }

// Lookup probes the cache for key. A miss is reported whenever the
// artifact is absent, the metadata is absent, or the metadata fails to
// parse — corruption is treated as a miss, per spec.md §7's I/O error
// taxonomy ("cache corruption (treated as miss)"), never as a hard error.
func (c *Cache) Lookup(k Key) ([]byte, bool) {
	key := k.Hash()

	artifact, err := os.ReadFile(c.artifactPath(key))
	if err != nil {
		return nil, false
	}

	meta, err := os.ReadFile(c.metaPath(key))
	if err != nil {
		return nil, false
	}

	if _, ok := parseMetadata(string(meta)); !ok {
		return nil, false
	}

	return artifact, true
}

// Store writes artifact and k's metadata into the cache under k.Hash(),
// using a temp-file-then-rename for both files so that a writer crashing
// mid-write leaves only a stray temp file behind, never a half-written
// entry visible under its real name (spec.md §4.8/§5).
func (c *Cache) Store(k Key, artifact []byte) error {
	key := k.Hash()

	if err := writeAtomic(c.artifactPath(key), artifact); err != nil {
		return fmt.Errorf("cache: writing artifact: %w", err)
	}

	if err := writeAtomic(c.metaPath(key), []byte(renderMetadata(k))); err != nil {
		return fmt.Errorf("cache: writing metadata: %w", err)
	}

	return nil
}

func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}

	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}

	return os.Rename(tmpName, path)
}

// renderMetadata formats k as the newline-delimited "field: value" lines
// spec.md §6 specifies.
func renderMetadata(k Key) string {
	var b strings.Builder

	fmt.Fprintf(&b, "source_hash: %s\n", k.SourceHash)
	fmt.Fprintf(&b, "import_hashes: %s\n", strings.Join(k.ImportHashes, ","))
	fmt.Fprintf(&b, "compiler_version: %s\n", k.CompilerVersion)
	fmt.Fprintf(&b, "target: %s\n", k.Target)

	return b.String()
}

func parseMetadata(s string) (Key, bool) {
	fields := map[string]string{}

	for _, line := range strings.Split(strings.TrimRight(s, "\n"), "\n") {
		if line == "" {
			continue
		}

		parts := strings.SplitN(line, ": ", 2)
		if len(parts) != 2 {
			return Key{}, false
		}

		fields[parts[0]] = parts[1]
	}

	required := []string{"source_hash", "import_hashes", "compiler_version", "target"}
	for _, f := range required {
		if _, ok := fields[f]; !ok {
			return Key{}, false
		}
	}

	var imports []string
	if fields["import_hashes"] != "" {
		imports = strings.Split(fields["import_hashes"], ",")
	}

	return Key{
		SourceHash:      fields["source_hash"],
		ImportHashes:    imports,
		CompilerVersion: fields["compiler_version"],
		Target:          fields["target"],
	}, true
}
