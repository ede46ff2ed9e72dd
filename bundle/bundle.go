// Package bundle packs rule sets for distribution: a gzipped tarball holding
// a manifest.json plus the ruleset and schema files, each digest-pinned so an
// unpack can verify what it received.
package bundle

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// ManifestName is the manifest's path inside the archive.
const ManifestName = "manifest.json"

// FileEntry pins one bundled file.
type FileEntry struct {
	Path   string `json:"path"`
	SHA256 string `json:"sha256"`
	Size   int64  `json:"size"`
}

// Manifest describes a bundle's identity and contents.
type Manifest struct {
	Name        string      `json:"name"`
	Version     string      `json:"version"`
	Description string      `json:"description,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
	Files       []FileEntry `json:"files"`
}

// bundledExtensions are the file types a Pack picks up from the source
// directory.
var bundledExtensions = map[string]bool{
	".yaml": true,
	".yml":  true,
	".json": true,
}

// Pack archives the ruleset and schema files under dir into w. Files are
// added in sorted path order so packing is deterministic apart from the
// manifest timestamp.
func Pack(dir, name, version string, w io.Writer) (*Manifest, error) {
	manifest := &Manifest{Name: name, Version: version, CreatedAt: time.Now().UTC()}

	var paths []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || !bundledExtensions[strings.ToLower(filepath.Ext(path))] {
			return nil
		}
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", dir, err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no ruleset or schema files under %s", dir)
	}
	sort.Strings(paths)

	contents := make(map[string][]byte, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return nil, err
		}
		rel = filepath.ToSlash(rel)
		digest := sha256.Sum256(data)
		manifest.Files = append(manifest.Files, FileEntry{
			Path:   rel,
			SHA256: hex.EncodeToString(digest[:]),
			Size:   int64(len(data)),
		})
		contents[rel] = data
	}

	gz := gzip.NewWriter(w)
	tw := tar.NewWriter(gz)

	manifestData, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding manifest: %w", err)
	}
	if err := writeTarFile(tw, ManifestName, manifestData); err != nil {
		return nil, err
	}
	for _, entry := range manifest.Files {
		if err := writeTarFile(tw, entry.Path, contents[entry.Path]); err != nil {
			return nil, err
		}
	}

	if err := tw.Close(); err != nil {
		return nil, fmt.Errorf("closing archive: %w", err)
	}
	if err := gz.Close(); err != nil {
		return nil, fmt.Errorf("closing archive: %w", err)
	}
	return manifest, nil
}

func writeTarFile(tw *tar.Writer, name string, data []byte) error {
	hdr := &tar.Header{
		Name: name,
		Mode: 0o644,
		Size: int64(len(data)),
	}
	if err := tw.WriteHeader(hdr); err != nil {
		return fmt.Errorf("writing %s header: %w", name, err)
	}
	if _, err := tw.Write(data); err != nil {
		return fmt.Errorf("writing %s: %w", name, err)
	}
	return nil
}

// Unpack extracts a bundle into dir, verifying every file against the
// manifest digests. Entries escaping dir are rejected.
func Unpack(r io.Reader, dir string) (*Manifest, error) {
	manifest, files, err := read(r)
	if err != nil {
		return nil, err
	}

	for _, entry := range manifest.Files {
		data, ok := files[entry.Path]
		if !ok {
			return nil, fmt.Errorf("bundle is missing %s", entry.Path)
		}
		digest := sha256.Sum256(data)
		if hex.EncodeToString(digest[:]) != entry.SHA256 {
			return nil, fmt.Errorf("%s: digest mismatch", entry.Path)
		}

		target := filepath.Join(dir, filepath.FromSlash(entry.Path))
		if !strings.HasPrefix(target, filepath.Clean(dir)+string(os.PathSeparator)) {
			return nil, fmt.Errorf("%s: escapes target directory", entry.Path)
		}
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return nil, err
		}
		if err := os.WriteFile(target, data, 0o644); err != nil {
			return nil, fmt.Errorf("writing %s: %w", target, err)
		}
	}
	return manifest, nil
}

// Inspect returns the manifest without extracting anything.
func Inspect(r io.Reader) (*Manifest, error) {
	manifest, _, err := read(r)
	return manifest, err
}

func read(r io.Reader) (*Manifest, map[string][]byte, error) {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return nil, nil, fmt.Errorf("opening bundle: %w", err)
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	var manifest *Manifest
	files := make(map[string][]byte)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("reading bundle: %w", err)
		}
		var buf bytes.Buffer
		if _, err := io.Copy(&buf, tr); err != nil {
			return nil, nil, fmt.Errorf("reading %s: %w", hdr.Name, err)
		}
		if hdr.Name == ManifestName {
			manifest = &Manifest{}
			if err := json.Unmarshal(buf.Bytes(), manifest); err != nil {
				return nil, nil, fmt.Errorf("parsing manifest: %w", err)
			}
			continue
		}
		files[hdr.Name] = buf.Bytes()
	}
	if manifest == nil {
		return nil, nil, fmt.Errorf("bundle has no %s", ManifestName)
	}
	return manifest, files, nil
}
