package rag

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/gofrs/flock"
)

// Manifest fingerprints the document corpus an on-disk cache was built from.
// A cache is valid only when every artifact file exists and DataHash matches
// a freshly computed hash over the data directory.
type Manifest struct {
	DataHash   string `json:"data_hash"`
	DocCount   int    `json:"doc_count"`
	ChunkCount int    `json:"chunk_count"`
}

// Cache artifact file names. All five must exist and agree for a cache to be
// considered valid; a crash mid-save leaves a partial set, which reads as a
// cache miss on the next load.
const (
	manifestFile  = "manifest.json"
	indexFile     = "index.json"
	docStoreFile  = "docstore.json"
	summariesFile = "summaries.json"
	docIDsFile    = "docids.json"
	lockFile      = "cache.lock"
)

// artifactFiles lists every file a valid cache must contain.
var artifactFiles = []string{manifestFile, indexFile, docStoreFile, summariesFile, docIDsFile}

// computeDataHash hashes every .txt file in dataDir: path, modification time
// and full content, in sorted path order. Deterministic for unchanged input;
// any content edit or mtime touch changes the result.
func computeDataHash(dataDir string) (string, error) {
	paths, err := filepath.Glob(filepath.Join(dataDir, "*.txt"))
	if err != nil {
		return "", fmt.Errorf("globbing data directory: %w", err)
	}
	sort.Strings(paths)

	h := sha256.New()
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return "", fmt.Errorf("stat %s: %w", path, err)
		}

		h.Write([]byte(path))
		h.Write([]byte(strconv.FormatInt(info.ModTime().UnixNano(), 10)))

		f, err := os.Open(path)
		if err != nil {
			return "", fmt.Errorf("open %s: %w", path, err)
		}
		if _, err := io.Copy(h, f); err != nil {
			_ = f.Close()
			return "", fmt.Errorf("hash %s: %w", path, err)
		}
		_ = f.Close()
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

// isCacheValid reports whether the cache at cacheDir matches the current
// state of dataDir. Any missing artifact or hash mismatch invalidates it;
// errors read as invalid, never as failures.
func isCacheValid(cacheDir, dataDir string) bool {
	for _, name := range artifactFiles {
		if _, err := os.Stat(filepath.Join(cacheDir, name)); err != nil {
			return false
		}
	}

	data, err := os.ReadFile(filepath.Join(cacheDir, manifestFile))
	if err != nil {
		return false
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return false
	}

	current, err := computeDataHash(dataDir)
	if err != nil {
		return false
	}
	return m.DataHash == current
}

// writeFileAtomic writes data to path via a temp file and rename, so a
// concurrent loader never observes a partially written artifact.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

// writeArtifactJSON marshals v and writes it atomically into cacheDir.
func writeArtifactJSON(cacheDir, name string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshaling %s: %w", name, err)
	}
	if err := writeFileAtomic(filepath.Join(cacheDir, name), data); err != nil {
		return fmt.Errorf("persisting %s: %w", name, err)
	}
	return nil
}

// readArtifactJSON reads and unmarshals one artifact from cacheDir.
func readArtifactJSON(cacheDir, name string, v any) error {
	data, err := os.ReadFile(filepath.Join(cacheDir, name))
	if err != nil {
		return fmt.Errorf("reading %s: %w", name, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parsing %s: %w", name, err)
	}
	return nil
}

// newCacheLock returns the advisory file lock guarding cache writes.
// The lock is scoped to a save or load and released on all exit paths.
func newCacheLock(cacheDir string) *flock.Flock {
	return flock.New(filepath.Join(cacheDir, lockFile))
}
