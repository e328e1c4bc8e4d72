package atacmatutils

import (
	"github.com/RoaringBitmap/roaring/v2"
	"github.com/rs/zerolog"

	utils "gitlab.com/Grouumf/ATACFragMatrix/ATACFragUtils"
)

/*ProgressInterval number of fragment lines between two progress messages */
const ProgressInterval = 10000000

/*AggregateStats counters of one fragment stream scan */
type AggregateStats struct {
	FragmentLines   int64
	CommentLines    int64
	Counted         int64
	UnknownBarcodes int64
	ShortLines      int64
	Malformed       int64
	UnknownChroms   int64
	Unsorted        int64
	Endpoints       int64
}

/*Aggregator resolve fragment ends against a FeatureIndex and accumulate a SparseMatrix.
An Aggregator is owned by a single goroutine */
type Aggregator struct {
	index    *FeatureIndex
	barcodes *utils.BarcodeRegistry
	matrix   *SparseMatrix
	observed *roaring.Bitmap
	Stats    AggregateStats

	chrom     string
	chromSeen bool
	current   *ChromIndex
	cursor    Cursor
	lastStart uint32

	fields [fragmentFields][]byte
	hits   []Interval

	log    zerolog.Logger
	rowLog zerolog.Logger
}

/*NewAggregator ... */
func NewAggregator(index *FeatureIndex, barcodes *utils.BarcodeRegistry) *Aggregator {
	log := utils.WithPhase("aggregate")

	return &Aggregator{
		index:    index,
		barcodes: barcodes,
		matrix:   NewSparseMatrix(index.NbRows()),
		observed: roaring.New(),
		hits:     make([]Interval, 0, 16),
		log:      log,
		rowLog:   utils.RowLogger(log, 100),
	}
}

/*Matrix the accumulated counts */
func (a *Aggregator) Matrix() *SparseMatrix {
	return a.matrix
}

/*ObservedCells number of columns with at least one counted fragment end */
func (a *Aggregator) ObservedCells() int {
	return int(a.observed.GetCardinality())
}

/*ProcessLine process one fragment line: chr, start, end, barcode, [ignored fields] */
func (a *Aggregator) ProcessLine(line []byte) {
	if len(line) > 0 && line[len(line)-1] == '\r' {
		line = line[:len(line)-1]
	}

	if len(line) > 0 && line[0] == '#' {
		a.Stats.CommentLines++
		return
	}

	a.Stats.FragmentLines++

	if a.Stats.FragmentLines%ProgressInterval == 0 {
		a.log.Info().Msgf("Processed %d M fragments", a.Stats.FragmentLines/1000000)
	}

	if !splitFragment(line, &a.fields) {
		a.Stats.ShortLines++
		a.rowLog.Warn().Int64("line", a.Stats.FragmentLines).Msg("fragment with less than four fields skipped")
		return
	}

	col, isInside := a.barcodes.Index(a.fields[3])

	if !isInside {
		a.Stats.UnknownBarcodes++
		return
	}

	if !a.chromSeen || string(a.fields[0]) != a.chrom {
		a.chrom = string(a.fields[0])
		a.chromSeen = true
		a.current = a.index.Chrom(a.chrom)
		a.cursor = 0
		a.lastStart = 0
	}

	start, err := parseCoord(a.fields[1])

	if err != nil {
		a.Stats.Malformed++
		a.rowLog.Warn().Int64("line", a.Stats.FragmentLines).Msg("failed to parse start position")
		return
	}

	end, err := parseCoord(a.fields[2])

	if err != nil {
		a.Stats.Malformed++
		a.rowLog.Warn().Int64("line", a.Stats.FragmentLines).Msg("failed to parse end position")
		return
	}

	if end < start {
		a.Stats.Malformed++
		a.rowLog.Warn().Int64("line", a.Stats.FragmentLines).Msg("end position before start position")
		return
	}

	if start < a.lastStart {
		if a.Stats.Unsorted == 0 {
			a.log.Warn().
				Int64("line", a.Stats.FragmentLines).
				Str("chrom", a.chrom).
				Msg("fragments are not sorted by start position, falling back to full searches for unsorted lines")
		}

		a.Stats.Unsorted++
		a.cursor = 0
	}

	a.lastStart = start

	if a.current == nil {
		a.Stats.UnknownChroms++
		return
	}

	a.Stats.Counted++

	endpoints := a.Stats.Endpoints
	a.countEndpoints(start, end, col)

	if a.Stats.Endpoints > endpoints {
		a.observed.Add(col)
	}
}

// countEndpoints add the weight of a feature once per fragment end it contains.
// A feature containing start and ending after end holds both ends.
// The end query works on a copy of the cursor: only starts move it forward
func (a *Aggregator) countEndpoints(start, end, col uint32) {
	var rw RowWeight

	checkEnd := true

	a.hits = a.current.Seek(start, start+1, &a.cursor, a.hits[:0])

	for _, itv := range a.hits {
		rw = a.index.Resolve(itv)
		a.matrix.Add(rw.Row, col, rw.Weight)
		a.Stats.Endpoints++

		if end < itv.Stop {
			checkEnd = false
			a.matrix.Add(rw.Row, col, rw.Weight)
			a.Stats.Endpoints++
		}
	}

	if !checkEnd {
		return
	}

	endCursor := a.cursor
	a.hits = a.current.Seek(end, end+1, &endCursor, a.hits[:0])

	for _, itv := range a.hits {
		rw = a.index.Resolve(itv)
		a.matrix.Add(rw.Row, col, rw.Weight)
		a.Stats.Endpoints++
	}
}
