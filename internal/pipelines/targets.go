package pipelines

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"caspfetch/internal/archive"
	"caspfetch/internal/components/telemetry"
	"caspfetch/internal/scrapers/predictioncenter"
)

const (
	DefaultTargetsOutDir  = "casp15_original_inputs"
	DefaultLigandsTarball = "download_area/CASP15/targets/casp15.targets.ligands.ALL_09.18.2025.tar.gz"

	TargetListName = "casp15_targetlist.csv"
)

const (
	StageTargetList     = "target-list"
	StageTargetFastas   = "target-fastas"
	StageLigandsTarball = "ligands-tarball"
	StageUnpack         = "unpack"
)

type TargetOptions struct {
	// OutDir defaults to DefaultTargetsOutDir.
	OutDir string
	// Casp defaults to casp15.
	Casp string
	// LigandsTarball is relative to the base url and defaults to DefaultLigandsTarball.
	LigandsTarball string
}

// Targets collects the original inputs of a CASP round: the target list, a sequence per
// target and the ligand definitions shipped in the ligands tarball.
type Targets struct {
	src  Source
	tel  telemetry.API
	opts TargetOptions
}

func NewTargets(src Source, tel telemetry.API, opts TargetOptions) Targets {
	if opts.OutDir == "" {
		opts.OutDir = DefaultTargetsOutDir
	}
	if opts.Casp == "" {
		opts.Casp = "casp15"
	}
	if opts.LigandsTarball == "" {
		opts.LigandsTarball = DefaultLigandsTarball
	}
	return Targets{
		src:  src,
		tel:  telemetry.NewScopedAPI("targets", tel),
		opts: opts,
	}
}

func (t Targets) OutDir() string {
	return t.opts.OutDir
}

// Run executes every step in order, the first step error aborts the run.
func (t Targets) Run(ctx context.Context) (Report, error) {
	var report Report

	err := os.MkdirAll(t.opts.OutDir, 0777)
	if err != nil {
		return report, err
	}

	targets, res, err := t.TargetList(ctx)
	report.Add(res)
	if err != nil {
		return report, fmt.Errorf("%s: %w", StageTargetList, err)
	}
	t.tel.ReportInfo("target list", "targets", len(targets))

	ids := make([]string, len(targets))
	for i, target := range targets {
		ids[i] = target.ID
	}
	results, err := FetchSequences(
		ctx, t.src, t.tel,
		StageTargetFastas, t.opts.Casp, ids,
		filepath.Join(t.opts.OutDir, "fasta"),
		SequenceOptions{Strict: true},
	)
	report.Add(results...)
	if err != nil {
		return report, fmt.Errorf("%s: %w", StageTargetFastas, err)
	}

	tarball, results, err := t.LigandsTarball(ctx)
	report.Add(results...)
	if err != nil {
		return report, fmt.Errorf("%s: %w", StageLigandsTarball, err)
	}

	results, err = t.Unpack(tarball)
	report.Add(results...)
	if err != nil {
		return report, fmt.Errorf("%s: %w", StageUnpack, err)
	}
	return report, nil
}

// TargetList returns the parsed target list. The raw csv is kept next to the other
// outputs and is read back instead of fetched when it is already there.
func (t Targets) TargetList(ctx context.Context) ([]predictioncenter.Target, Result, error) {
	dest := filepath.Join(t.opts.OutDir, TargetListName)
	res := Result{Stage: StageTargetList, Item: TargetListName, Path: dest}

	var contents []byte
	if exists(dest) {
		t.tel.ReportInfo("exists", "file", TargetListName)
		read, err := os.ReadFile(dest)
		if err != nil {
			res.Status, res.Err = StatusFailed, err
			return nil, res, err
		}
		contents = read
		res.Status = StatusSkipped
	} else {
		t.tel.ReportInfo("fetching target list", "casp", t.opts.Casp)
		fetched, err := t.src.FetchTargetListCsv(ctx, t.opts.Casp)
		if err != nil {
			res.Status, res.Err = StatusFailed, err
			return nil, res, err
		}
		err = os.WriteFile(dest, fetched, 0644)
		if err != nil {
			res.Status, res.Err = StatusFailed, err
			return nil, res, err
		}
		contents = fetched
		res.Status = StatusFetched
	}

	targets, err := predictioncenter.ParseTargetListCsvBytes(contents)
	if err != nil {
		res.Status, res.Err = StatusFailed, err
		return nil, res, err
	}
	return targets, res, nil
}

// LigandsTarball downloads the ligands tarball unless it is already present and returns
// its local path.
func (t Targets) LigandsTarball(ctx context.Context) (string, []Result, error) {
	dir := filepath.Join(t.opts.OutDir, "ligands_tarball")
	results, err := downloadEntries(ctx, t.src, t.tel, StageLigandsTarball, "", []string{t.opts.LigandsTarball}, dir)
	if err != nil {
		return "", results, err
	}
	return filepath.Join(dir, localName(t.opts.LigandsTarball)), results, nil
}

// Unpack extracts the ligand definition files of `tarball` next to it.
func (t Targets) Unpack(tarball string) ([]Result, error) {
	dir := filepath.Dir(tarball)
	unpacked, err := archive.Unpack(tarball, dir, archive.LigandExtensions)
	for _, name := range unpacked.Rejected {
		t.tel.ReportWarning(report_pipeline_unpack, "member escapes extraction root", name)
	}

	var results []Result
	for _, out := range unpacked.Written {
		results = append(results, Result{Stage: StageUnpack, Item: filepath.Base(out), Status: StatusWritten, Path: out})
	}
	if err != nil {
		t.tel.ReportBroken(report_pipeline_unpack, err, tarball)
		results = append(results, Result{Stage: StageUnpack, Item: filepath.Base(tarball), Status: StatusFailed, Path: tarball, Err: err})
		return results, err
	}
	t.tel.ReportInfo("extracted", "files", len(unpacked.Written), "into", dir)
	return results, nil
}
