package atacmatutils

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	utils "gitlab.com/Grouumf/ATACFragMatrix/ATACFragUtils"
)

func noColumns() FeatureOptions {
	return FeatureOptions{GroupColumn: NoColumn, WeightColumn: NoColumn}
}

func buildIndex(t *testing.T, regions string, options FeatureOptions) (*FeatureIndex, string) {
	t.Helper()

	var labels bytes.Buffer

	index, err := BuildFeatureIndex(strings.NewReader(regions), options, &labels)
	require.NoError(t, err)

	return index, labels.String()
}

func rowsAt(index *FeatureIndex, chr string, pos uint32) []uint32 {
	var cursor Cursor
	var rows []uint32

	chrIndex := index.Chrom(chr)

	if chrIndex == nil {
		return nil
	}

	for _, itv := range chrIndex.Seek(pos, pos+1, &cursor, nil) {
		rows = append(rows, index.Resolve(itv).Row)
	}

	return rows
}

func TestFeatureIndexUngrouped(t *testing.T) {
	regions := "chr1\t100\t200\n" +
		"chr1\t150\t250\n" +
		"# comment\n" +
		"\n" +
		"chr2\t10\t20\n" +
		"chr1\tabc\t300\n" +
		"chr1\t300\t290\n" +
		"short\n" +
		"chr2\t30\t40\textra\tcolumns\n"

	index, labels := buildIndex(t, regions, noColumns())

	assert.Equal(t, "chr1-100-200\nchr1-150-250\nchr2-10-20\nchr2-30-40\n", labels)
	assert.Equal(t, 4, index.NbRows())
	assert.False(t, index.Weighted())

	assert.Equal(t, BuildStats{
		RegionLines:        7,
		RegionsRetained:    4,
		RegionsSkipped:     3,
		OverlappingRegions: 1,
		Rows:               4,
		Chromosomes:        2,
	}, index.Stats)

	assert.ElementsMatch(t, []uint32{0, 1}, rowsAt(index, "chr1", 160))
	assert.ElementsMatch(t, []uint32{1}, rowsAt(index, "chr1", 220))
	assert.ElementsMatch(t, []uint32{2}, rowsAt(index, "chr2", 10))
	assert.ElementsMatch(t, []uint32{3}, rowsAt(index, "chr2", 35))
	assert.Empty(t, rowsAt(index, "chr2", 20))
	assert.Nil(t, index.Chrom("chrX"))
}

func TestFeatureIndexGrouped(t *testing.T) {
	regions := "chr1\t100\t200\tgeneA\n" +
		"chr1\t300\t400\tgeneB\n" +
		"chr2\t50\t60\tgeneA\n" +
		"chr2\t70\t80\t \n" +
		"chr2\t90\t95\n" +
		"chr3\t1\t5\tgeneC\n"

	index, labels := buildIndex(t, regions, FeatureOptions{GroupColumn: 3, WeightColumn: NoColumn})

	assert.Equal(t, "geneA\ngeneB\ngeneC\n", labels)
	assert.Equal(t, 3, index.NbRows())
	assert.Equal(t, 4, index.Stats.RegionsRetained)
	assert.Equal(t, 2, index.Stats.RegionsSkipped)

	assert.Equal(t, []uint32{0}, rowsAt(index, "chr1", 150))
	assert.Equal(t, []uint32{1}, rowsAt(index, "chr1", 350))
	assert.Equal(t, []uint32{0}, rowsAt(index, "chr2", 55))
	assert.Equal(t, []uint32{2}, rowsAt(index, "chr3", 2))
	assert.Empty(t, rowsAt(index, "chr2", 75))
}

func TestFeatureIndexWeighted(t *testing.T) {
	regions := "chr1\t100\t200\t2.5\n" +
		"chr1\t300\t400\n" +
		"chr1\t500\t600\tnan\n" +
		"chr1\t700\t800\tx\n" +
		"chr1\t900\t1000\t+Inf\n"

	index, labels := buildIndex(t, regions, FeatureOptions{GroupColumn: NoColumn, WeightColumn: 3})

	assert.Equal(t, "chr1-100-200\nchr1-300-400\n", labels)
	assert.True(t, index.Weighted())
	assert.Equal(t, 3, index.Stats.RegionsSkipped)

	var cursor Cursor

	hits := index.Chrom("chr1").Seek(150, 151, &cursor, nil)
	require.Len(t, hits, 1)
	assert.Equal(t, RowWeight{Row: 0, Weight: 2.5}, index.Resolve(hits[0]))

	cursor = 0
	hits = index.Chrom("chr1").Seek(350, 351, &cursor, nil)
	require.Len(t, hits, 1)
	assert.Equal(t, RowWeight{Row: 1, Weight: 1}, index.Resolve(hits[0]))
}

func TestFeatureIndexGroupedAndWeighted(t *testing.T) {
	regions := "chr1\t100\t200\tgeneA\t0.5\n" +
		"chr1\t300\t400\tgeneA\t3\n"

	index, labels := buildIndex(t, regions, FeatureOptions{GroupColumn: 3, WeightColumn: 4})

	assert.Equal(t, "geneA\n", labels)
	assert.Equal(t, 1, index.NbRows())

	var cursor Cursor

	hits := index.Chrom("chr1").Seek(350, 351, &cursor, nil)
	require.Len(t, hits, 1)
	assert.Equal(t, RowWeight{Row: 0, Weight: 3}, index.Resolve(hits[0]))
}

func TestFeatureIndexEmpty(t *testing.T) {
	index, labels := buildIndex(t, "# only a comment\n", noColumns())

	assert.Empty(t, labels)
	assert.Equal(t, 0, index.NbRows())
	assert.Equal(t, 0, index.Stats.Chromosomes)
}

func TestLoadFeatureIndexGzip(t *testing.T) {
	fname := filepath.Join(t.TempDir(), "regions.bed.gz")

	writer, err := utils.ReturnWriter(fname, 2)
	require.NoError(t, err)

	_, err = writer.Write([]byte("chr1\t10\t20\nchr1\t30\t40\n"))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	var labels bytes.Buffer

	index, err := LoadFeatureIndex(utils.Filename(fname), noColumns(), &labels)
	require.NoError(t, err)

	assert.Equal(t, 2, index.NbRows())
	assert.Equal(t, "chr1-10-20\nchr1-30-40\n", labels.String())
}

func TestLoadFeatureIndexMissingFile(t *testing.T) {
	_, err := LoadFeatureIndex(utils.Filename(filepath.Join(t.TempDir(), "missing.bed")), noColumns(), &bytes.Buffer{})

	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestFeatureIndexWarnsOnOverlaps(t *testing.T) {
	var buffer bytes.Buffer

	previous := *utils.L()
	utils.SetLogger(zerolog.New(&buffer))
	t.Cleanup(func() { utils.SetLogger(previous) })

	index, _ := buildIndex(t, "chr1\t100\t300\nchr1\t150\t200\nchr1\t400\t500\n", noColumns())

	assert.Equal(t, 1, index.Stats.OverlappingRegions)
	assert.Contains(t, buffer.String(), `"level":"warn"`)
	assert.Contains(t, buffer.String(), `"phase":"index"`)
	assert.Contains(t, buffer.String(), `"overlapping":1`)
}
