package atacmatutils

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	utils "gitlab.com/Grouumf/ATACFragMatrix/ATACFragUtils"
)

/*ErrIndexInvariant the interval indexes and the row lookup table disagree */
var ErrIndexInvariant = errors.New("interval count does not match row lookup size")

/*RowWeight matrix row and contribution of one indexed region */
type RowWeight struct {
	Row    uint32
	Weight float32
}

/*BuildStats counters of one region file scan */
type BuildStats struct {
	RegionLines        int
	RegionsRetained    int
	RegionsSkipped     int
	OverlappingRegions int
	Rows               int
	Chromosomes        int
}

/*FeatureIndex frozen per chromosome interval indexes and the lookup table built with them */
type FeatureIndex struct {
	chroms   map[string]*ChromIndex
	lookup   []RowWeight
	nbRows   int
	weighted bool
	Stats    BuildStats
}

/*Chrom return the index of chr or nil */
func (f *FeatureIndex) Chrom(chr string) *ChromIndex {
	return f.chroms[chr]
}

/*Resolve row and weight of an indexed interval */
func (f *FeatureIndex) Resolve(itv Interval) RowWeight {
	return f.lookup[itv.ID]
}

/*NbRows number of matrix rows */
func (f *FeatureIndex) NbRows() int {
	return f.nbRows
}

/*Weighted true when row values come from a weight column */
func (f *FeatureIndex) Weighted() bool {
	return f.weighted
}

type featureBuilder struct {
	options   FeatureOptions
	labels    *bufio.Writer
	intervals map[string][]Interval
	lookup    []RowWeight
	groups    map[string]uint32
	nbRows    uint32
	stats     BuildStats
}

/*BuildFeatureIndex scan a region file (chr, start, end, [group], [weight]) and build the
feature index. One row label per line is written to labels, in row order */
func BuildFeatureIndex(reader io.Reader, options FeatureOptions, labels io.Writer) (*FeatureIndex, error) {
	log := utils.WithPhase("index")
	rowLog := utils.RowLogger(log, 100)
	tStart := time.Now()

	builder := &featureBuilder{
		options:   options,
		labels:    bufio.NewWriterSize(labels, utils.BUFFERSIZE),
		intervals: make(map[string][]Interval),
		groups:    make(map[string]uint32),
	}

	scanner := utils.NewScanner(reader)
	lineNb := 0

	for scanner.Scan() {
		lineNb++
		line := scanner.Text()

		if len(line) == 0 || line[0] == '#' {
			continue
		}

		builder.stats.RegionLines++

		if err := builder.addLine(line); err != nil {
			var rowErr *rowError

			if !errors.As(err, &rowErr) {
				return nil, err
			}

			builder.stats.RegionsSkipped++
			rowLog.Warn().Int("line", lineNb).Str("reason", rowErr.reason).Msg("region skipped")
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read regions: %w", err)
	}

	if err := builder.labels.Flush(); err != nil {
		return nil, fmt.Errorf("write feature labels: %w", err)
	}

	index, err := builder.freeze()

	if err != nil {
		return nil, err
	}

	if index.Stats.OverlappingRegions > 0 {
		log.Warn().
			Int("overlapping", index.Stats.OverlappingRegions).
			Msg("regions overlap earlier regions on the same chromosome")
	}

	log.Info().
		Int("rows", index.nbRows).
		Int("regions", index.Stats.RegionsRetained).
		Int("skipped", index.Stats.RegionsSkipped).
		Int("chromosomes", index.Stats.Chromosomes).
		Msgf("Create peak index done in time: %f s", time.Since(tStart).Seconds())

	return index, nil
}

/*LoadFeatureIndex BuildFeatureIndex for a region file name */
func LoadFeatureIndex(fname utils.Filename, options FeatureOptions, labels io.Writer) (*FeatureIndex, error) {
	reader, file, err := utils.OpenDecompressed(fname.String())

	if err != nil {
		return nil, err
	}

	defer file.Close()

	return BuildFeatureIndex(reader, options, labels)
}

func (b *featureBuilder) addLine(line string) error {
	var row uint32
	var isInside bool

	split := strings.Split(line, "\t")

	if len(split) < 3 {
		return newRowError("less than three fields")
	}

	start, err := parseCoord([]byte(split[1]))

	if err != nil {
		return newRowError("failed to parse start position")
	}

	end, err := parseCoord([]byte(split[2]))

	if err != nil {
		return newRowError("failed to parse end position")
	}

	if end < start {
		return newRowError("end position before start position")
	}

	weight := float32(1.0)

	if col := int(b.options.WeightColumn); b.options.WeightColumn.Enabled() && len(split) > col {
		value, err := strconv.ParseFloat(strings.TrimSpace(split[col]), 32)

		if err != nil || math.IsInf(value, 0) || math.IsNaN(value) {
			return newRowError("failed to parse weight value")
		}

		weight = float32(value)
	}

	switch {
	case b.options.GroupColumn.Enabled():
		col := int(b.options.GroupColumn)

		if len(split) <= col {
			return newRowError("group column not found")
		}

		group := strings.TrimSpace(split[col])

		if group == "" {
			return newRowError("failed to parse group information")
		}

		if row, isInside = b.groups[group]; !isInside {
			row = b.nbRows
			b.groups[group] = row
			b.nbRows++

			if err = b.writeLabel(group); err != nil {
				return err
			}
		}

	default:
		row = b.nbRows
		b.nbRows++

		if err = b.writeLabel(fmt.Sprintf("%s-%d-%d", split[0], start, end)); err != nil {
			return err
		}
	}

	b.intervals[split[0]] = append(b.intervals[split[0]], Interval{Start: start, Stop: end, ID: uint32(len(b.lookup))})
	b.lookup = append(b.lookup, RowWeight{Row: row, Weight: weight})
	b.stats.RegionsRetained++

	return nil
}

func (b *featureBuilder) writeLabel(label string) error {
	if _, err := b.labels.WriteString(label); err != nil {
		return fmt.Errorf("write feature labels: %w", err)
	}

	if err := b.labels.WriteByte('\n'); err != nil {
		return fmt.Errorf("write feature labels: %w", err)
	}

	return nil
}

func (b *featureBuilder) freeze() (*FeatureIndex, error) {
	index := &FeatureIndex{
		chroms:   make(map[string]*ChromIndex, len(b.intervals)),
		lookup:   b.lookup,
		nbRows:   int(b.nbRows),
		weighted: b.options.WeightColumn.Enabled(),
	}

	overlaps := utils.NewOverlapCounter()
	total := 0

	for chr, intervals := range b.intervals {
		chrIndex := newChromIndex(intervals)
		index.chroms[chr] = chrIndex
		total += chrIndex.Len()

		for _, itv := range chrIndex.intervals {
			nb, err := overlaps.Add(chr, int(itv.Start), int(itv.Stop), uintptr(itv.ID))

			if err != nil {
				return nil, err
			}

			if nb > 0 {
				b.stats.OverlappingRegions++
			}
		}
	}

	if total != len(index.lookup) || total != b.stats.RegionsRetained {
		return nil, fmt.Errorf("%w: %d intervals, %d lookup entries", ErrIndexInvariant, total, len(index.lookup))
	}

	b.stats.Rows = index.nbRows
	b.stats.Chromosomes = len(index.chroms)
	index.Stats = b.stats

	return index, nil
}

type rowError struct {
	reason string
}

func newRowError(reason string) *rowError {
	return &rowError{reason: reason}
}

func (e *rowError) Error() string {
	return e.reason
}
