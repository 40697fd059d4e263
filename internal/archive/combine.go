package archive

import (
	"archive/tar"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Label is the archive file name up to its first dot, ex. "L1000.SMILES.tar.gz" -> "L1000".
func Label(path string) string {
	name := filepath.Base(path)
	label, _, _ := strings.Cut(name, ".")
	return label
}

// TableCombiner concatenates tab delimited tables from several archives into one table.
// Every row is prefixed with two provenance fields: the archive label and the member path.
// The header of the first table seen is kept, later headers are dropped without being
// compared to it, as are differences in column counts.
type TableCombiner struct {
	provenance []string
	header     []string
	rows       [][]string
}

// NewTableCombiner creates a combiner, `labelColumn` and `memberColumn` name the provenance columns.
func NewTableCombiner(labelColumn, memberColumn string) *TableCombiner {
	return &TableCombiner{provenance: []string{labelColumn, memberColumn}}
}

func newTsvReader(r io.Reader) *csv.Reader {
	reader := csv.NewReader(r)
	reader.Comma = '\t'
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1
	return reader
}

// AddTable appends the rows of the table read from `r`. An empty table adds nothing.
func (c *TableCombiner) AddTable(label, member string, r io.Reader) error {
	reader := newTsvReader(r)

	header, err := reader.Read()
	if err == io.EOF {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read header of %s: %w", member, err)
	}
	if c.header == nil {
		c.header = append(append([]string{}, c.provenance...), header...)
	}

	for {
		row, err := reader.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read %s: %w", member, err)
		}
		c.rows = append(c.rows, append([]string{label, member}, row...))
	}
}

// AddArchive appends every `.tsv` member of the gzip-tar at `path` under `label`.
func (c *TableCombiner) AddArchive(label, path string) error {
	return Walk(path, func(header *tar.Header, r io.Reader) error {
		if !HasExtension(header.Name, []string{".tsv"}) {
			return nil
		}
		return c.AddTable(label, header.Name, r)
	})
}

// Empty is true until a table with a header has been added.
func (c *TableCombiner) Empty() bool {
	return c.header == nil
}

func (c *TableCombiner) Header() []string {
	return c.header
}

func (c *TableCombiner) Rows() [][]string {
	return c.rows
}

// Write writes the combined header and rows as tab delimited text.
func (c *TableCombiner) Write(w io.Writer) error {
	writer := csv.NewWriter(w)
	writer.Comma = '\t'
	err := writer.Write(c.header)
	if err != nil {
		return err
	}
	err = writer.WriteAll(c.rows)
	if err != nil {
		return err
	}
	return writer.Error()
}

// WriteFile writes the combined table to `path`, replacing it.
func (c *TableCombiner) WriteFile(path string) error {
	err := os.MkdirAll(filepath.Dir(path), 0777)
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	err = c.Write(f)
	if err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}
