package predictioncenter

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/url"
	"regexp"
	"slices"
	"strings"
)

var ErrNoTargetColumn = errors.New("target list has no Target column")

// Target is one row of a CASP target list.
type Target struct {
	ID   string
	Type string
}

// SequencePath is the per-target plain text sequence endpoint, relative to the base url.
func SequencePath(casp, target string) string {
	query := url.Values{}
	query.Set("target", target)
	query.Set("view", "sequence")
	return fmt.Sprintf("%s/target.cgi?%s", casp, query.Encode())
}

// TargetListCsvPath is the semicolon delimited target list, relative to the base url.
func TargetListCsvPath(casp string) string {
	return fmt.Sprintf("%s/targetlist.cgi?type=csv", casp)
}

// LigandTargetListPath is the html target list filtered to ligand targets, relative to the base url.
func LigandTargetListPath(casp string) string {
	return fmt.Sprintf("%s/targetlist.cgi?view=ligand", casp)
}

// FetchSequence returns the raw body of the sequence endpoint for `target`.
func (c *Client) FetchSequence(ctx context.Context, casp, target string) (string, error) {
	link, err := c.Resolve(SequencePath(casp, target))
	if err != nil {
		return "", err
	}
	body, err := c.getText(ctx, link, c.timeouts.Sequence)
	if err != nil {
		c.tel.ReportBroken(report_client_fetch_sequence, err, target)
		return "", fmt.Errorf("fetch sequence %s: %w", target, err)
	}
	return string(body), nil
}

// FetchTargetListCsv returns the raw bytes of the target list csv.
func (c *Client) FetchTargetListCsv(ctx context.Context, casp string) ([]byte, error) {
	link, err := c.Resolve(TargetListCsvPath(casp))
	if err != nil {
		return nil, err
	}
	body, err := c.getText(ctx, link, c.timeouts.TargetList)
	if err != nil {
		c.tel.ReportBroken(report_client_fetch_target_list, err, casp)
		return nil, fmt.Errorf("fetch target list: %w", err)
	}
	return body, nil
}

// FetchLigandTargetIDs loads the ligand view of the target list and returns the target ids on it.
func (c *Client) FetchLigandTargetIDs(ctx context.Context, casp string) ([]string, error) {
	link, err := c.Resolve(LigandTargetListPath(casp))
	if err != nil {
		return nil, err
	}
	body, err := c.getText(ctx, link, c.timeouts.LigandTargetList)
	if err != nil {
		c.tel.ReportBroken(report_client_fetch_ligand_target_list, err, casp)
		return nil, fmt.Errorf("fetch ligand target list: %w", err)
	}
	return ParseLigandTargetIDs(string(body)), nil
}

// ParseTargetListCsv reads the semicolon delimited target list, rows without a target id are skipped.
func ParseTargetListCsv(r io.Reader) ([]Target, error) {
	reader := csv.NewReader(r)
	reader.Comma = ';'
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, ErrNoTargetColumn
	}
	if err != nil {
		return nil, fmt.Errorf("read target list header: %w", err)
	}

	idCol, typeCol := -1, -1
	for i, name := range header {
		switch strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")) {
		case "Target":
			idCol = i
		case "Type":
			typeCol = i
		}
	}
	if idCol < 0 {
		return nil, ErrNoTargetColumn
	}

	var targets []Target
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read target list: %w", err)
		}
		if idCol >= len(row) {
			continue
		}
		id := strings.TrimSpace(row[idCol])
		if id == "" {
			continue
		}
		target := Target{ID: id}
		if typeCol >= 0 && typeCol < len(row) {
			target.Type = strings.TrimSpace(row[typeCol])
		}
		targets = append(targets, target)
	}
	return targets, nil
}

// ParseTargetListCsvBytes is ParseTargetListCsv over an in-memory csv.
func ParseTargetListCsvBytes(contents []byte) ([]Target, error) {
	return ParseTargetListCsv(bytes.NewReader(contents))
}

// target ids appear as the text of table cells / links: >T1152<, >H1135<, >R1136<, >T1187v2<
var ligandTargetRegex = regexp.MustCompile(`>([THR]\d{4,5}v?\d*)<`)

// ParseLigandTargetIDs returns the sorted, deduplicated target ids found in the ligand target list page.
func ParseLigandTargetIDs(page string) []string {
	var ids []string
	for _, match := range ligandTargetRegex.FindAllStringSubmatch(page, -1) {
		ids = append(ids, match[1])
	}
	slices.Sort(ids)
	return slices.Compact(ids)
}
