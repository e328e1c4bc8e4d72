/* Build a feature x cell count matrix (Matrix Market) from a fragment file, a region file and a barcode list */

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	utils "gitlab.com/Grouumf/ATACFragMatrix/ATACFragUtils"
	matutils "gitlab.com/Grouumf/ATACFragMatrix/ATACMatUtils"
)

/*FRAGMENTFILE fragment file name (input) */
var FRAGMENTFILE utils.Filename

/*BEDFILENAME region file name (input) */
var BEDFILENAME utils.Filename

/*CELLSIDFNAME file with ordered cell IDs (one ID per line) */
var CELLSIDFNAME utils.Filename

/*OUTDIR output directory */
var OUTDIR string

/*CONFIGFILE optional YAML configuration */
var CONFIGFILE string

/*THREADNB number of compression / decompression workers */
var THREADNB int

/*GROUPCOLUMN region column collapsing regions into named rows */
var GROUPCOLUMN int

/*WEIGHTCOLUMN region column holding the value added per fragment end */
var WEIGHTCOLUMN int

/*PLAINFEATURES write features.tsv uncompressed */
var PLAINFEATURES bool

/*FEATURESCOMPRESSION codec of features.tsv: gz, bz2, zst, lz4 or none */
var FEATURESCOMPRESSION string

/*METRICSFILE optional Prometheus textfile written at the end of the run */
var METRICSFILE string

/*DEBUG ... */
var DEBUG bool

/*HUMAN console formatted logs */
var HUMAN bool

var rootCmd = &cobra.Command{
	Use:   "ATACFragMatrix",
	Short: "Count fragment ends of single cell ATAC-seq data per feature and per cell",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		utils.InitLogger(DEBUG, HUMAN)
	},
}

var matrixCmd = &cobra.Command{
	Use:   "matrix",
	Short: "Create matrix.mtx.gz, features.tsv[.gz] and barcodes.tsv",
	Long: `Count, for every cell of the barcode list, the fragment ends falling into each region.
A fragment contained in a region counts twice for it.
USAGE: ATACFragMatrix matrix -f <fragments.tsv.gz> -b <regions.bed> -c <barcodes.tsv> -o <outdir> [-t 4] [--group <col>] [--weight <col>] [--features-compression zst]`,
	Args: cobra.NoArgs,
	RunE: runMatrix,
}

func init() {
	flags := matrixCmd.Flags()

	flags.VarP(&FRAGMENTFILE, "fragments", "f", "fragment file (chr, start, end, barcode, ...), plain or compressed (.gz, .bz2, .zst, .lz4)")
	flags.VarP(&BEDFILENAME, "bed", "b", "region file (chr, start, end, ...)")
	flags.VarP(&CELLSIDFNAME, "cells", "c", "ordered list of cell barcodes, one per line")
	flags.StringVarP(&OUTDIR, "outdir", "o", "", "output directory")
	flags.IntVarP(&THREADNB, "threads", "t", 4, "number of threads used to compress and decompress")
	flags.IntVar(&GROUPCOLUMN, "group", int(matutils.NoColumn), "0-based region column used as row name, regions sharing it are merged")
	flags.IntVar(&WEIGHTCOLUMN, "weight", int(matutils.NoColumn), "0-based region column used as the value of each fragment end")
	flags.BoolVar(&PLAINFEATURES, "plain-features", false, "write features.tsv instead of features.tsv.gz")
	flags.StringVar(&FEATURESCOMPRESSION, "features-compression", "gz", "features.tsv codec and suffix: gz, bz2, zst, lz4 or none")
	flags.StringVar(&METRICSFILE, "metrics-file", "", "write run counters to this file in the Prometheus text format")
	flags.StringVar(&CONFIGFILE, "config", "", "YAML configuration, explicit flags take precedence")

	rootCmd.PersistentFlags().BoolVar(&DEBUG, "debug", false, "debug logs")
	rootCmd.PersistentFlags().BoolVar(&HUMAN, "human", false, "console formatted logs")

	rootCmd.AddCommand(matrixCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runMatrix(cmd *cobra.Command, args []string) error {
	config, err := configFromFlags(cmd)

	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd.SilenceUsage = true
	cmd.SilenceErrors = true

	if _, err = matutils.BuildMatrix(ctx, config); err != nil {
		utils.L().Error().Err(err).Msg("matrix creation failed")
		return err
	}

	return nil
}

// configFromFlags load --config if given then apply the flags set on the command line
func configFromFlags(cmd *cobra.Command) (matutils.Config, error) {
	config := matutils.DefaultConfig()

	if CONFIGFILE != "" {
		var err error

		if config, err = matutils.LoadConfigFile(CONFIGFILE); err != nil {
			return config, err
		}
	}

	flags := cmd.Flags()

	override := func(name string, apply func()) {
		if CONFIGFILE == "" || flags.Changed(name) {
			apply()
		}
	}

	override("fragments", func() { config.FragmentFile = FRAGMENTFILE.String() })
	override("bed", func() { config.RegionFile = BEDFILENAME.String() })
	override("cells", func() { config.BarcodeFile = CELLSIDFNAME.String() })
	override("outdir", func() { config.OutDir = OUTDIR })
	override("threads", func() { config.Threads = THREADNB })
	override("group", func() { config.Features.GroupColumn = matutils.Column(GROUPCOLUMN) })
	override("weight", func() { config.Features.WeightColumn = matutils.Column(WEIGHTCOLUMN) })
	override("plain-features", func() { config.PlainFeatures = PLAINFEATURES })
	override("features-compression", func() { config.FeaturesCompression = FEATURESCOMPRESSION })
	override("metrics-file", func() { config.MetricsFile = METRICSFILE })

	return config, config.Validate()
}
