package pipelines

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"caspfetch/internal/archive"
	"caspfetch/internal/components/telemetry"
)

const (
	Casp16PharmaDir            = "download_area/CASP16/targets/pharma_ligands/"
	Casp16ResultsLigandDir     = "download_area/CASP16/results/ligands/"
	Casp15PredictionsLigandDir = "download_area/CASP15/predictions/ligands/"

	CombinedSmilesName = "CASP16_pharma_SMILES_combined.tsv"
)

const (
	StageCasp16Smiles      = "casp16-smiles"
	StageCasp16Fastas      = "casp16-fastas"
	StageCasp16Results     = "casp16-results"
	StageCasp15Fastas      = "casp15-fastas"
	StageCasp15Predictions = "casp15-predictions"
)

const (
	report_ligand_pharma_smiles  = "ligand.pharma-smiles"
	report_ligand_results        = "ligand.results"
	report_ligand_casp15_targets = "ligand.casp15-targets"
)

// DefaultSupertargets are the CASP16 pharma ligand sets.
var DefaultSupertargets = []string{"L1000", "L2000", "L3000", "L4000"}

type LigandOptions struct {
	OutDir string

	SkipCasp16Smiles      bool
	SkipCasp16Fastas      bool
	WithCasp16Results     bool
	SkipCasp15Fastas      bool
	WithCasp15Predictions bool

	// Supertargets defaults to DefaultSupertargets when empty.
	Supertargets []string
}

// Ligand downloads the CASP16 pharma ligand sets and the CASP15 ligand targets.
type Ligand struct {
	src  Source
	tel  telemetry.API
	opts LigandOptions
}

func NewLigand(src Source, tel telemetry.API, opts LigandOptions) Ligand {
	if len(opts.Supertargets) == 0 {
		opts.Supertargets = DefaultSupertargets
	}
	return Ligand{src: src, tel: tel, opts: opts}
}

type stage struct {
	name    string
	enabled bool
	run     func(ctx context.Context) ([]Result, error)
}

// Run executes the enabled stages in their fixed order. The first stage error aborts the
// run and is returned together with the results gathered up to that point.
func (l Ligand) Run(ctx context.Context) (Report, error) {
	stages := []stage{
		{name: StageCasp16Smiles, enabled: !l.opts.SkipCasp16Smiles, run: l.Casp16PharmaSmiles},
		{name: StageCasp16Fastas, enabled: !l.opts.SkipCasp16Fastas, run: l.Casp16Sequences},
		{name: StageCasp16Results, enabled: l.opts.WithCasp16Results, run: l.Casp16Results},
		{name: StageCasp15Fastas, enabled: !l.opts.SkipCasp15Fastas, run: l.Casp15LigandSequences},
		{name: StageCasp15Predictions, enabled: l.opts.WithCasp15Predictions, run: l.Casp15Predictions},
	}

	var report Report
	for _, s := range stages {
		if !s.enabled {
			continue
		}
		results, err := s.run(ctx)
		report.Add(results...)
		if err != nil {
			return report, fmt.Errorf("%s: %w", s.name, err)
		}
	}
	return report, nil
}

func (l Ligand) scoped(namespace string) telemetry.API {
	return telemetry.NewScopedAPI(namespace, l.tel)
}

// Casp16PharmaSmiles downloads the `*.SMILES.tar.gz` supertarget bundles and combines
// the tsv tables inside them into CombinedSmilesName.
func (l Ligand) Casp16PharmaSmiles(ctx context.Context) ([]Result, error) {
	tel := l.scoped("CASP16")

	entries, err := l.src.ListIndex(ctx, Casp16PharmaDir)
	if err != nil {
		return nil, err
	}
	var tars []string
	for _, e := range entries {
		if strings.HasSuffix(strings.ToUpper(e), ".SMILES.TAR.GZ") {
			tars = append(tars, e)
		}
	}
	if len(tars) == 0 {
		tel.ReportWarning(report_ligand_pharma_smiles, "no SMILES tarballs found", Casp16PharmaDir)
		return nil, nil
	}

	smilesDir := filepath.Join(l.opts.OutDir, "casp16", "pharma_smiles")
	results, err := downloadEntries(ctx, l.src, tel, StageCasp16Smiles, Casp16PharmaDir, tars, smilesDir)
	if err != nil {
		return results, err
	}

	combiner := archive.NewTableCombiner("supertarget", "source_file")
	for _, res := range results {
		err = combiner.AddArchive(archive.Label(res.Item), res.Path)
		if err != nil {
			tel.ReportBroken(report_ligand_pharma_smiles, err, res.Path)
			return results, fmt.Errorf("combine %s: %w", res.Item, err)
		}
	}
	if combiner.Empty() {
		return results, nil
	}

	out := filepath.Join(smilesDir, CombinedSmilesName)
	err = combiner.WriteFile(out)
	if err != nil {
		return results, err
	}
	tel.ReportInfo("wrote", "file", out, "rows", len(combiner.Rows()))
	results = append(results, Result{Stage: StageCasp16Smiles, Item: CombinedSmilesName, Status: StatusWritten, Path: out})
	return results, nil
}

// Casp16Sequences fetches the FASTA of each pharma supertarget.
func (l Ligand) Casp16Sequences(ctx context.Context) ([]Result, error) {
	dir := filepath.Join(l.opts.OutDir, "casp16", "fastas")
	return FetchSequences(ctx, l.src, l.scoped("CASP16"), StageCasp16Fastas, "casp16", l.opts.Supertargets, dir, SequenceOptions{})
}

// Casp16Results downloads the ligand pose summary csvs.
func (l Ligand) Casp16Results(ctx context.Context) ([]Result, error) {
	tel := l.scoped("CASP16")

	entries, err := l.src.ListIndex(ctx, Casp16ResultsLigandDir)
	if err != nil {
		return nil, err
	}
	var keep []string
	for _, e := range entries {
		if strings.HasSuffix(e, ".csv") {
			keep = append(keep, e)
		}
	}
	if len(keep) == 0 {
		tel.ReportWarning(report_ligand_results, "no results csvs found", Casp16ResultsLigandDir)
		return nil, nil
	}

	resultsDir := filepath.Join(l.opts.OutDir, "casp16", "results")
	return downloadEntries(ctx, l.src, tel, StageCasp16Results, Casp16ResultsLigandDir, keep, resultsDir)
}

// Casp15LigandSequences fetches the FASTA of every target on the CASP15 ligand target list.
func (l Ligand) Casp15LigandSequences(ctx context.Context) ([]Result, error) {
	tel := l.scoped("CASP15")

	tel.ReportInfo("loading ligand target list")
	ids, err := l.src.FetchLigandTargetIDs(ctx, "casp15")
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		tel.ReportWarning(report_ligand_casp15_targets, "no targets parsed from ligand list, page layout may have changed")
	}

	dir := filepath.Join(l.opts.OutDir, "casp15", "fastas")
	return FetchSequences(ctx, l.src, tel, StageCasp15Fastas, "casp15", ids, dir, SequenceOptions{})
}

// Casp15Predictions downloads every ligand prediction tarball.
func (l Ligand) Casp15Predictions(ctx context.Context) ([]Result, error) {
	tel := l.scoped("CASP15")

	entries, err := l.src.ListIndex(ctx, Casp15PredictionsLigandDir)
	if err != nil {
		return nil, err
	}
	var tars []string
	for _, e := range entries {
		if strings.HasSuffix(strings.ToLower(e), ".tar.gz") {
			tars = append(tars, e)
		}
	}

	predDir := filepath.Join(l.opts.OutDir, "casp15", "predictions")
	return downloadEntries(ctx, l.src, tel, StageCasp15Predictions, Casp15PredictionsLigandDir, tars, predDir)
}
