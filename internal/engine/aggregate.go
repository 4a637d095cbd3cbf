package engine

import "github.com/roach88/storefront/internal/ir"

// Counts is the result of Aggregate.
type Counts struct {
	Total    int
	ByStatus map[string]int
	ByGroup  map[string]int
}

// Aggregate counts records by status and by a grouping field in a single
// pass. Only the listed status and group values are counted; every listed
// value is present in the result, zero when unseen. Records with other
// values still count toward Total.
func Aggregate(recs []ir.IRObject, statusField string, statuses []string, groupField string, groups []string) Counts {
	c := Counts{
		Total:    len(recs),
		ByStatus: zeroCounts(statuses),
		ByGroup:  zeroCounts(groups),
	}

	for _, rec := range recs {
		if s, ok := rec[statusField].(ir.IRString); ok {
			if _, listed := c.ByStatus[string(s)]; listed {
				c.ByStatus[string(s)]++
			}
		}
		if g, ok := rec[groupField].(ir.IRString); ok {
			if _, listed := c.ByGroup[string(g)]; listed {
				c.ByGroup[string(g)]++
			}
		}
	}

	return c
}

func zeroCounts(keys []string) map[string]int {
	m := make(map[string]int, len(keys))
	for _, k := range keys {
		m[k] = 0
	}
	return m
}
