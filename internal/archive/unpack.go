// Package archive reads the gzip-tar bundles distributed by the prediction center.
package archive

import (
	"archive/tar"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// LigandExtensions are the members extracted from a ligand tarball.
var LigandExtensions = []string{".smi", ".sdf", ".txt", ".tsv", ".csv"}

// HasExtension reports whether `name` ends with one of `exts`, ignoring case.
func HasExtension(name string, exts []string) bool {
	lower := strings.ToLower(name)
	for _, ext := range exts {
		if strings.HasSuffix(lower, strings.ToLower(ext)) {
			return true
		}
	}
	return false
}

// IsWithin reports whether `target` is `root` itself or a descendant of it.
func IsWithin(root, target string) bool {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return false
	}
	absTarget, err := filepath.Abs(target)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(absRoot, absTarget)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

// memberPath resolves an archive member name inside `dest`, absolute names are
// rejected outright since they never belong under the extraction root.
func memberPath(dest, name string) (string, bool) {
	if filepath.IsAbs(name) || strings.HasPrefix(name, "/") {
		return "", false
	}
	out := filepath.Join(dest, filepath.FromSlash(name))
	if out == filepath.Clean(dest) || !IsWithin(dest, out) {
		return "", false
	}
	return out, true
}

// Walk calls `visit` for every regular file member of the gzip-tar at `path`.
// The reader passed to `visit` is only valid for the duration of the call.
func Walk(path string, visit func(header *tar.Header, r io.Reader) error) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return fmt.Errorf("open gzip %s: %w", path, err)
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	for {
		header, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		// with GODEBUG=tarinsecurepath=0 the header is still returned, containment is checked by callers
		if err != nil && !errors.Is(err, tar.ErrInsecurePath) {
			return fmt.Errorf("read tar %s: %w", path, err)
		}
		if header.Typeflag != tar.TypeReg {
			continue
		}
		err = visit(header, tr)
		if err != nil {
			return err
		}
	}
}

// Unpacked lists what Unpack did with the matching members of an archive.
type Unpacked struct {
	Written []string
	// Rejected holds member names that would have landed outside of the extraction root.
	Rejected []string
}

// Unpack extracts the regular file members of the gzip-tar at `path` whose names end with
// one of `exts` into `dest`. Members that would land outside of `dest` are skipped.
func Unpack(path, dest string, exts []string) (Unpacked, error) {
	var result Unpacked
	err := Walk(path, func(header *tar.Header, r io.Reader) error {
		if !HasExtension(header.Name, exts) {
			return nil
		}
		out, ok := memberPath(dest, header.Name)
		if !ok {
			result.Rejected = append(result.Rejected, header.Name)
			return nil
		}
		err := writeMember(out, r)
		if err != nil {
			return fmt.Errorf("extract %s: %w", header.Name, err)
		}
		result.Written = append(result.Written, out)
		return nil
	})
	return result, err
}

// writeMember ignores the member's own mode so that a re-run can always overwrite it.
func writeMember(out string, r io.Reader) error {
	err := os.MkdirAll(filepath.Dir(out), 0777)
	if err != nil {
		return err
	}
	f, err := os.OpenFile(out, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = io.Copy(f, r)
	if err != nil {
		return err
	}
	return f.Close()
}
