package archive

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

type member struct {
	name     string
	contents string
	typeflag byte
	linkname string
}

func file(name, contents string) member {
	return member{name: name, contents: contents, typeflag: tar.TypeReg}
}

func writeTarGz(t *testing.T, path string, members ...member) {
	t.Helper()

	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)
	for _, m := range members {
		header := &tar.Header{
			Name:     m.name,
			Mode:     0444,
			Typeflag: m.typeflag,
			Linkname: m.linkname,
		}
		if m.typeflag == tar.TypeReg {
			header.Size = int64(len(m.contents))
		}
		if m.typeflag == tar.TypeDir {
			header.Mode = 0755
		}
		require.NoError(t, tw.WriteHeader(header))
		if m.typeflag == tar.TypeReg {
			_, err := tw.Write([]byte(m.contents))
			require.NoError(t, err)
		}
	}
	require.NoError(t, tw.Close())
	require.NoError(t, gz.Close())
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0644))
}

func listFiles(t *testing.T, root string) []string {
	t.Helper()
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	require.NoError(t, err)
	sort.Strings(files)
	return files
}

func TestHasExtension(t *testing.T) {
	cases := []struct {
		name     string
		expected bool
	}{
		{name: "ligands/T1124.smi", expected: true},
		{name: "ligands/T1124.SDF", expected: true},
		{name: "ligands/README.Txt", expected: true},
		{name: "ligands/T1124.pdb", expected: false},
		{name: "ligands/smi", expected: false},
	}
	for _, test := range cases {
		require.Equal(t, test.expected, HasExtension(test.name, LigandExtensions), test.name)
	}
}

func TestIsWithin(t *testing.T) {
	root := filepath.Join(t.TempDir(), "ligands_tarball")
	cases := []struct {
		target   string
		expected bool
	}{
		{target: root, expected: true},
		{target: filepath.Join(root, "a", "b.smi"), expected: true},
		{target: filepath.Join(root, "..", "escaped.smi"), expected: false},
		{target: root + "_sibling", expected: false},
		{target: filepath.Join(root, "..dots.smi"), expected: true},
	}
	for _, test := range cases {
		require.Equal(t, test.expected, IsWithin(root, test.target), test.target)
	}
}

func TestUnpack(t *testing.T) {
	dir := t.TempDir()
	tarPath := filepath.Join(dir, "casp15.targets.ligands.tar.gz")
	writeTarGz(t, tarPath,
		member{name: "ligands/", typeflag: tar.TypeDir},
		file("ligands/T1124.smi", "CCO\n"),
		file("ligands/T1127.SDF", "sdf\n"),
		file("ligands/T1124.pdb", "ATOM\n"),
		file("ligands/list.tsv", "id\tsmiles\n"),
		member{name: "ligands/link.smi", typeflag: tar.TypeSymlink, linkname: "/etc/passwd"},
		file("../escape.smi", "evil\n"),
		file("ligands/../../escape2.csv", "evil\n"),
		file("/abs/escape3.txt", "evil\n"),
	)

	dest := filepath.Join(dir, "out")
	result, err := Unpack(tarPath, dest, LigandExtensions)
	require.NoError(t, err)

	require.Equal(t, []string{
		"ligands/T1124.smi",
		"ligands/T1127.SDF",
		"ligands/list.tsv",
	}, listFiles(t, dest))
	require.Len(t, result.Written, 3)
	require.Equal(t, []string{
		"../escape.smi",
		"ligands/../../escape2.csv",
		"/abs/escape3.txt",
	}, result.Rejected)

	// nothing escaped next to the extraction root
	require.Equal(t, []string{
		"casp15.targets.ligands.tar.gz",
		"out/ligands/T1124.smi",
		"out/ligands/T1127.SDF",
		"out/ligands/list.tsv",
	}, listFiles(t, dir))

	contents, err := os.ReadFile(filepath.Join(dest, "ligands", "T1124.smi"))
	require.NoError(t, err)
	require.Equal(t, "CCO\n", string(contents))

	// read-only members can be extracted again over themselves
	_, err = Unpack(tarPath, dest, LigandExtensions)
	require.NoError(t, err)
}

func TestUnpackNotGzip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.tar.gz")
	require.NoError(t, os.WriteFile(path, []byte("<html>not found</html>"), 0644))

	_, err := Unpack(path, t.TempDir(), LigandExtensions)
	require.Error(t, err)
}

func TestLabel(t *testing.T) {
	require.Equal(t, "L1000", Label("L1000.SMILES.tar.gz"))
	require.Equal(t, "L3000", Label(filepath.Join("casp16", "pharma_smiles", "L3000.SMILES.tar.gz")))
	require.Equal(t, "noext", Label("noext"))
}

func TestTableCombiner(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "L1000.SMILES.tar.gz")
	second := filepath.Join(dir, "L2000.SMILES.tar.gz")
	writeTarGz(t, first, file("L1000/smiles.tsv", "name\tvalue\na\t1\n"))
	writeTarGz(t, second,
		file("L2000/smiles.tsv", "name\tvalue\nb\t2\n"),
		file("L2000/notes.txt", "ignored\n"),
		file("L2000/empty.tsv", ""),
	)

	combiner := NewTableCombiner("supertarget", "source_file")
	require.True(t, combiner.Empty())
	require.NoError(t, combiner.AddArchive(Label(first), first))
	require.NoError(t, combiner.AddArchive(Label(second), second))
	require.False(t, combiner.Empty())

	diff := cmp.Diff([][]string{
		{"L1000", "L1000/smiles.tsv", "a", "1"},
		{"L2000", "L2000/smiles.tsv", "b", "2"},
	}, combiner.Rows())
	if diff != "" {
		t.Fatal(diff)
	}

	out := filepath.Join(dir, "combined", "CASP16_pharma_SMILES_combined.tsv")
	require.NoError(t, combiner.WriteFile(out))
	written, err := os.ReadFile(out)
	require.NoError(t, err)
	require.Equal(t, strings.Join([]string{
		"supertarget\tsource_file\tname\tvalue",
		"L1000\tL1000/smiles.tsv\ta\t1",
		"L2000\tL2000/smiles.tsv\tb\t2",
		"",
	}, "\n"), string(written))
}

func TestTableCombinerKeepsFirstHeader(t *testing.T) {
	combiner := NewTableCombiner("supertarget", "source_file")
	require.NoError(t, combiner.AddTable("L1000", "a.tsv", strings.NewReader("x\ty\n1\t2\n")))
	require.NoError(t, combiner.AddTable("L2000", "b.tsv", strings.NewReader("p\tq\tr\n3\t4\t5\n")))

	require.Equal(t, []string{"supertarget", "source_file", "x", "y"}, combiner.Header())
	require.Equal(t, [][]string{
		{"L1000", "a.tsv", "1", "2"},
		{"L2000", "b.tsv", "3", "4", "5"},
	}, combiner.Rows())
}
