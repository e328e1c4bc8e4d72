package atacfragutils

import (
	"fmt"

	"github.com/biogo/store/interval"
)

//IntInterval Integer-specific half-open intervals [Start, End)
type IntInterval struct {
	Start, End int
	UID        uintptr
}

//Overlap rule for two half-open Interval
func (i IntInterval) Overlap(b interval.IntRange) bool {
	return i.Start < b.End && i.End > b.Start
}

//ID Return the ID of Interval
func (i IntInterval) ID() uintptr {
	return i.UID
}

//Range Return the range of Interval
func (i IntInterval) Range() interval.IntRange {
	return interval.IntRange{Start: i.Start, End: i.End}
}

//String Return the string rep of Interval
func (i IntInterval) String() string {
	return fmt.Sprintf("[%d, %d) id: %d", i.Start, i.End, i.ID())
}

/*OverlapCounter count intervals overlapping previously added ones on the same chromosome */
type OverlapCounter struct {
	trees map[string]*interval.IntTree
}

/*NewOverlapCounter ...*/
func NewOverlapCounter() *OverlapCounter {
	return &OverlapCounter{trees: make(map[string]*interval.IntTree)}
}

/*Add insert [start, end) on chr and return how many earlier intervals it overlaps.
Empty intervals overlap nothing and are not inserted */
func (c *OverlapCounter) Add(chr string, start, end int, uid uintptr) (int, error) {
	var isInside bool
	var tree *interval.IntTree

	if end <= start {
		return 0, nil
	}

	if tree, isInside = c.trees[chr]; !isInside {
		tree = &interval.IntTree{}
		c.trees[chr] = tree
	}

	itv := IntInterval{Start: start, End: end, UID: uid}
	overlaps := len(tree.Get(itv))

	if err := tree.Insert(itv, false); err != nil {
		return overlaps, fmt.Errorf("interval tree insert %s %s: %w", chr, itv, err)
	}

	return overlaps, nil
}
