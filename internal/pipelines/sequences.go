package pipelines

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"caspfetch/internal/components/telemetry"
	"caspfetch/internal/fasta"
)

// SequencePath is where the sequence of `id` is written inside `dir`.
func SequencePath(dir, id string) string {
	return filepath.Join(dir, id+".fasta")
}

// FetchSequences writes `<dir>/<id>.fasta` for every id whose file does not exist yet.
// A failure for one id is recorded in its result and the loop moves on to the next id,
// only cancellation of `ctx` stops it early.
func FetchSequences(
	ctx context.Context,
	src SequenceSource,
	tel telemetry.API,
	stage, casp string,
	ids []string,
	dir string,
	opts SequenceOptions,
) ([]Result, error) {
	err := os.MkdirAll(dir, 0777)
	if err != nil {
		return nil, err
	}

	var results []Result
	for _, id := range ids {
		if ctx.Err() != nil {
			return results, ctx.Err()
		}

		dest := SequencePath(dir, id)
		if exists(dest) {
			tel.ReportInfo("exists", "file", filepath.Base(dest))
			results = append(results, Result{Stage: stage, Item: id, Status: StatusSkipped, Path: dest})
			continue
		}

		tel.ReportInfo("sequence", "target", id)
		err := fetchSequence(ctx, src, casp, id, dest, opts)
		if err != nil {
			tel.ReportWarning(report_pipeline_fetch_sequences, id, err)
			results = append(results, Result{Stage: stage, Item: id, Status: StatusFailed, Path: dest, Err: err})
			continue
		}
		results = append(results, Result{Stage: stage, Item: id, Status: StatusFetched, Path: dest})
	}

	tel.ReportCount(stage+".sequences", int64(len(results)))
	return results, nil
}

func fetchSequence(ctx context.Context, src SequenceSource, casp, id, dest string, opts SequenceOptions) error {
	text, err := src.FetchSequence(ctx, casp, id)
	if err != nil {
		return err
	}
	if opts.Strict {
		err = fasta.Check(text)
		if err != nil {
			return fmt.Errorf("%s: %w", id, err)
		}
	}
	return os.WriteFile(dest, []byte(fasta.Normalize(text)), 0644)
}
