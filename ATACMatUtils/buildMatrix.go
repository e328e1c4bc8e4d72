package atacmatutils

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/jinzhu/copier"

	utils "gitlab.com/Grouumf/ATACFragMatrix/ATACFragUtils"
)

/*Output file names inside the output directory */
const (
	MATRIXFILE   = "matrix.mtx.gz"
	FEATURESFILE = "features.tsv"
	BARCODESFILE = "barcodes.tsv"
)

/*Report summary of one BuildMatrix run */
type Report struct {
	RunID              string
	Rows               int
	Columns            int
	NonZero            int
	ObservedCells      int
	RegionsRetained    int
	RegionsSkipped     int
	OverlappingRegions int
	FragmentLines      int64
	Counted            int64
	UnknownBarcodes    int64
	ShortLines         int64
	Malformed          int64
	UnknownChroms      int64
	Unsorted           int64
	Endpoints          int64
	DuplicateBarcodes  int
	MatrixFile         string
	FeaturesFile       string
	BarcodesFile       string
	Duration           time.Duration
}

/*OutputPaths the three files written for config */
func OutputPaths(config Config) (matrix, features, barcodes string) {
	matrix = filepath.Join(config.OutDir, MATRIXFILE)
	features = filepath.Join(config.OutDir, FEATURESFILE)

	switch {
	case config.PlainFeatures || config.FeaturesCompression == NOCOMPRESSION:
	case config.FeaturesCompression == "":
		features += ".gz"
	default:
		features += "." + config.FeaturesCompression
	}

	barcodes = filepath.Join(config.OutDir, BARCODESFILE) + utils.CompressedExt(config.BarcodeFile)

	return matrix, features, barcodes
}

/*BuildMatrix feature x cell matrix from a fragment file: index the regions, aggregate the
fragments of the listed barcodes and write matrix, features and barcodes to config.OutDir */
func BuildMatrix(ctx context.Context, config Config) (*Report, error) {
	tStart := time.Now()
	runID := uuid.NewString()
	log := utils.L().With().Str("run_id", runID).Logger()

	if err := config.Validate(); err != nil {
		return nil, err
	}

	matrixPath, featuresPath, barcodesPath := OutputPaths(config)

	if err := utils.PrepareOutputDir(config.OutDir); err != nil {
		return nil, err
	}

	log.Info().
		Str("fragments", config.FragmentFile).
		Str("bed", config.RegionFile).
		Str("cells", config.BarcodeFile).
		Str("outdir", config.OutDir).
		Int("group_column", int(config.Features.GroupColumn)).
		Int("weight_column", int(config.Features.WeightColumn)).
		Int("threads", config.Threads).
		Str("features", featuresPath).
		Msg("load indexes...")

	barcodes, err := utils.LoadBarcodeRegistry(utils.Filename(config.BarcodeFile))

	if err != nil {
		return nil, err
	}

	if barcodes.Duplicates > 0 {
		log.Warn().Int("duplicates", barcodes.Duplicates).Msg("repeated barcodes are counted in the column of their last line")
	}

	index, err := buildIndexToFile(config, featuresPath)

	if err != nil {
		return nil, err
	}

	fragments, closer, err := utils.OpenFragments(config.FragmentFile, config.Threads)

	if err != nil {
		return nil, err
	}

	defer closer.Close()

	aggregator := NewAggregator(index, barcodes)

	if err = aggregator.Run(ctx, fragments); err != nil {
		return nil, err
	}

	if err = WriteMatrixFile(matrixPath, aggregator.Matrix(), barcodes.Len(), index.Weighted(), config.Threads); err != nil {
		return nil, err
	}

	nbBytes, err := utils.CopyFile(config.BarcodeFile, barcodesPath)

	if err != nil {
		return nil, err
	}

	log.Debug().Int64("bytes", nbBytes).Str("file", barcodesPath).Msg("barcodes copied")

	report := &Report{RunID: runID}

	if err = copier.Copy(report, &index.Stats); err != nil {
		return nil, fmt.Errorf("report: %w", err)
	}

	if err = copier.Copy(report, &aggregator.Stats); err != nil {
		return nil, fmt.Errorf("report: %w", err)
	}

	report.Columns = barcodes.Len()
	report.NonZero = aggregator.Matrix().NNZ()
	report.ObservedCells = aggregator.ObservedCells()
	report.DuplicateBarcodes = barcodes.Duplicates
	report.MatrixFile = matrixPath
	report.FeaturesFile = featuresPath
	report.BarcodesFile = barcodesPath
	report.Duration = time.Since(tStart)

	if config.MetricsFile != "" {
		if err = WriteMetrics(config.MetricsFile, report); err != nil {
			return nil, err
		}
	}

	log.Info().
		Int("rows", report.Rows).
		Int("columns", report.Columns).
		Int("nonzero", report.NonZero).
		Int("observed_cells", report.ObservedCells).
		Msgf("done in time: %f s", report.Duration.Seconds())

	return report, nil
}

func buildIndexToFile(config Config, featuresPath string) (*FeatureIndex, error) {
	labels, err := utils.ReturnWriter(featuresPath, config.Threads)

	if err != nil {
		return nil, err
	}

	index, err := LoadFeatureIndex(utils.Filename(config.RegionFile), config.Features, labels)

	if err != nil {
		labels.Close()
		return nil, err
	}

	if err = labels.Close(); err != nil {
		return nil, fmt.Errorf("close %s: %w", featuresPath, err)
	}

	return index, nil
}
