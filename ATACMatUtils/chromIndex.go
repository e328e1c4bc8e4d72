package atacmatutils

import (
	"sort"
)

/*Interval half-open region [Start, Stop) of one chromosome. ID indexes the RowWeight lookup */
type Interval struct {
	Start, Stop uint32
	ID          uint32
}

/*Cursor position into a chromosome's sorted intervals.
Zero forces a fresh binary search on the next Seek */
type Cursor int

/*ChromIndex frozen intervals of one chromosome sorted by start */
type ChromIndex struct {
	intervals []Interval
	maxLen    uint32
}

func newChromIndex(intervals []Interval) *ChromIndex {
	var maxLen uint32

	sort.Slice(intervals, func(i, j int) bool {
		a, b := intervals[i], intervals[j]

		switch {
		case a.Start != b.Start:
			return a.Start < b.Start
		case a.Stop != b.Stop:
			return a.Stop < b.Stop
		default:
			return a.ID < b.ID
		}
	})

	for _, itv := range intervals {
		if itv.Stop-itv.Start > maxLen {
			maxLen = itv.Stop - itv.Start
		}
	}

	return &ChromIndex{intervals: intervals, maxLen: maxLen}
}

/*Len ... */
func (c *ChromIndex) Len() int {
	return len(c.intervals)
}

/*At ... */
func (c *ChromIndex) At(i int) Interval {
	return c.intervals[i]
}

func (c *ChromIndex) lowerBound(start uint32) int {
	return sort.Search(len(c.intervals), func(i int) bool {
		return c.intervals[i].Start >= start
	})
}

/*Seek append to hits the intervals overlapping [start, stop) and return it.
cursor is advanced for the next call. For increasing starts between two resets
the cost is amortised to the intervals actually passed */
func (c *ChromIndex) Seek(start, stop uint32, cursor *Cursor, hits []Interval) []Interval {
	intervals := c.intervals

	if len(intervals) == 0 {
		return hits
	}

	var floor uint32

	if start > c.maxLen {
		floor = start - c.maxLen
	}

	pos := int(*cursor)

	if pos == 0 || pos >= len(intervals) || intervals[pos].Start > start {
		pos = c.lowerBound(floor)
	}

	for pos+1 < len(intervals) && intervals[pos+1].Start < floor {
		pos++
	}

	*cursor = Cursor(pos)

	for ; pos < len(intervals) && intervals[pos].Start < stop; pos++ {
		if intervals[pos].Stop > start {
			hits = append(hits, intervals[pos])
		}
	}

	return hits
}
