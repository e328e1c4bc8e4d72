package atacmatutils

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fastrand"
)

func bruteForce(c *ChromIndex, start, stop uint32) []Interval {
	var hits []Interval

	for _, itv := range c.intervals {
		if itv.Start < stop && itv.Stop > start {
			hits = append(hits, itv)
		}
	}

	return hits
}

func randomChromIndex(nb int, span, maxWidth uint32) *ChromIndex {
	intervals := make([]Interval, nb)

	for i := range intervals {
		start := fastrand.Uint32n(span)
		intervals[i] = Interval{Start: start, Stop: start + fastrand.Uint32n(maxWidth), ID: uint32(i)}
	}

	return newChromIndex(intervals)
}

func TestChromIndexSorted(t *testing.T) {
	index := newChromIndex([]Interval{
		{Start: 50, Stop: 60, ID: 0},
		{Start: 10, Stop: 30, ID: 1},
		{Start: 10, Stop: 20, ID: 2},
		{Start: 10, Stop: 20, ID: 3},
	})

	require.Equal(t, 4, index.Len())
	assert.Equal(t, Interval{Start: 10, Stop: 20, ID: 2}, index.At(0))
	assert.Equal(t, Interval{Start: 10, Stop: 20, ID: 3}, index.At(1))
	assert.Equal(t, Interval{Start: 10, Stop: 30, ID: 1}, index.At(2))
	assert.Equal(t, Interval{Start: 50, Stop: 60, ID: 0}, index.At(3))
	assert.Equal(t, uint32(20), index.maxLen)
}

func TestSeekHalfOpen(t *testing.T) {
	index := newChromIndex([]Interval{
		{Start: 100, Stop: 200, ID: 0},
		{Start: 200, Stop: 300, ID: 1},
	})

	var cursor Cursor

	hits := index.Seek(199, 200, &cursor, nil)
	require.Len(t, hits, 1)
	assert.Equal(t, uint32(0), hits[0].ID)

	hits = index.Seek(200, 201, &cursor, hits[:0])
	require.Len(t, hits, 1)
	assert.Equal(t, uint32(1), hits[0].ID)

	hits = index.Seek(300, 301, &cursor, hits[:0])
	assert.Empty(t, hits)
}

func TestSeekEmptyIndex(t *testing.T) {
	var cursor Cursor

	index := newChromIndex(nil)

	assert.Empty(t, index.Seek(10, 11, &cursor, nil))
	assert.Equal(t, Cursor(0), cursor)
}

func TestSeekSortedQueriesMatchBruteForce(t *testing.T) {
	index := randomChromIndex(2000, 100000, 800)

	queries := make([]uint32, 5000)

	for i := range queries {
		queries[i] = fastrand.Uint32n(101000)
	}

	sort.Slice(queries, func(i, j int) bool { return queries[i] < queries[j] })

	var cursor Cursor
	var hits []Interval

	for _, query := range queries {
		hits = index.Seek(query, query+1, &cursor, hits[:0])
		assert.ElementsMatch(t, bruteForce(index, query, query+1), hits, "query %d", query)
	}
}

func TestSeekEndQueriesOnCursorCopy(t *testing.T) {
	index := randomChromIndex(1000, 50000, 1500)

	starts := make([]uint32, 3000)

	for i := range starts {
		starts[i] = fastrand.Uint32n(50000)
	}

	sort.Slice(starts, func(i, j int) bool { return starts[i] < starts[j] })

	var cursor Cursor
	var hits []Interval

	for _, start := range starts {
		end := start + fastrand.Uint32n(3000)

		hits = index.Seek(start, start+1, &cursor, hits[:0])
		assert.ElementsMatch(t, bruteForce(index, start, start+1), hits)

		endCursor := cursor
		hits = index.Seek(end, end+1, &endCursor, hits[:0])
		assert.ElementsMatch(t, bruteForce(index, end, end+1), hits)
	}
}

func TestSeekResetCursor(t *testing.T) {
	index := randomChromIndex(500, 20000, 300)

	var cursor Cursor
	var hits []Interval

	hits = index.Seek(15000, 15001, &cursor, hits[:0])
	assert.ElementsMatch(t, bruteForce(index, 15000, 15001), hits)

	cursor = 0
	hits = index.Seek(100, 101, &cursor, hits[:0])
	assert.ElementsMatch(t, bruteForce(index, 100, 101), hits)
}
