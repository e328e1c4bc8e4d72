package atacmatutils

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "atacfragmatrix"

/*WriteMetrics write the counters of report to fname in the Prometheus text format,
as read by the node_exporter textfile collector */
func WriteMetrics(fname string, report *Report) error {
	registry := prometheus.NewRegistry()
	labels := prometheus.Labels{"run_id": report.RunID}

	gauge := func(name, help string, value float64) {
		g := prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   metricsNamespace,
			Name:        name,
			Help:        help,
			ConstLabels: labels,
		})

		g.Set(value)
		registry.MustRegister(g)
	}

	gauge("rows", "Number of matrix rows (features)", float64(report.Rows))
	gauge("columns", "Number of matrix columns (barcodes)", float64(report.Columns))
	gauge("nonzero", "Number of nonzero matrix entries", float64(report.NonZero))
	gauge("observed_cells", "Number of barcodes with at least one counted fragment end", float64(report.ObservedCells))
	gauge("regions", "Number of indexed regions", float64(report.RegionsRetained))
	gauge("overlapping_regions", "Number of regions overlapping an earlier region", float64(report.OverlappingRegions))
	gauge("endpoints", "Number of fragment ends added to the matrix", float64(report.Endpoints))
	gauge("duration_seconds", "Run duration in seconds", report.Duration.Seconds())

	lines := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace:   metricsNamespace,
		Name:        "fragment_lines",
		Help:        "Fragment lines by outcome",
		ConstLabels: labels,
	}, []string{"outcome"})

	registry.MustRegister(lines)

	lines.WithLabelValues("counted").Set(float64(report.Counted))
	lines.WithLabelValues("unknown_barcode").Set(float64(report.UnknownBarcodes))
	lines.WithLabelValues("short").Set(float64(report.ShortLines))
	lines.WithLabelValues("malformed").Set(float64(report.Malformed))
	lines.WithLabelValues("unknown_chrom").Set(float64(report.UnknownChroms))
	lines.WithLabelValues("unsorted").Set(float64(report.Unsorted))

	if err := prometheus.WriteToTextfile(fname, registry); err != nil {
		return fmt.Errorf("write metrics %s: %w", fname, err)
	}

	return nil
}
