// Package pipelines holds the fetch stages of the two programs. Each stage is a straight
// line of fetch-then-write steps whose only branch is whether the destination already exists.
package pipelines

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"

	"caspfetch/internal/components/telemetry"
)

const (
	report_pipeline_download_entries = "pipeline.download-entries"
	report_pipeline_fetch_sequences  = "pipeline.fetch-sequences"
	report_pipeline_unpack           = "pipeline.unpack"
)

// SequenceSource serves the per-target sequence endpoint.
type SequenceSource interface {
	FetchSequence(ctx context.Context, casp, target string) (string, error)
}

// Source is everything the stages need from the prediction center.
type Source interface {
	SequenceSource
	Resolve(refs ...string) (string, error)
	ListIndex(ctx context.Context, dir string) ([]string, error)
	Download(ctx context.Context, link, dest string) error
	FetchTargetListCsv(ctx context.Context, casp string) ([]byte, error)
	FetchLigandTargetIDs(ctx context.Context, casp string) ([]string, error)
}

func exists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}

// localName is the file name an index entry is saved under: the last segment of the href
// as written, still escaped, without query or fragment.
func localName(entry string) string {
	parsed, err := url.Parse(entry)
	if err != nil {
		return path.Base(entry)
	}
	return path.Base(parsed.EscapedPath())
}

// downloadEntries downloads each index entry of `dir` into `destDir`, skipping entries
// whose file already exists. The first failed download aborts the stage.
func downloadEntries(
	ctx context.Context,
	src Source,
	tel telemetry.API,
	stage, dir string,
	entries []string,
	destDir string,
) ([]Result, error) {
	err := os.MkdirAll(destDir, 0777)
	if err != nil {
		return nil, err
	}

	var results []Result
	for _, entry := range entries {
		name := localName(entry)
		dest := filepath.Join(destDir, name)
		if exists(dest) {
			tel.ReportInfo("exists", "file", name)
			results = append(results, Result{Stage: stage, Item: name, Status: StatusSkipped, Path: dest})
			continue
		}

		link, err := src.Resolve(dir, entry)
		if err != nil {
			return results, err
		}
		tel.ReportInfo("downloading", "file", name)
		err = src.Download(ctx, link, dest)
		if err != nil {
			tel.ReportBroken(report_pipeline_download_entries, err, name)
			results = append(results, Result{Stage: stage, Item: name, Status: StatusFailed, Path: dest, Err: err})
			return results, fmt.Errorf("%s: %w", name, err)
		}
		results = append(results, Result{Stage: stage, Item: name, Status: StatusFetched, Path: dest})
	}
	return results, nil
}

type SequenceOptions struct {
	// Strict rejects responses that do not start with a FASTA header.
	Strict bool
}
