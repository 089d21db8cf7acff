package models

import (
	"github.com/RoaringBitmap/roaring/v2/roaring64"
)

// SeriesIndex maps a series name to the ids of its data points.
// It is not safe for concurrent use; the owner serializes access.
type SeriesIndex struct {
	bySeries map[string]*roaring64.Bitmap
}

func NewSeriesIndex() *SeriesIndex {
	return &SeriesIndex{bySeries: make(map[string]*roaring64.Bitmap)}
}

func BuildSeriesIndex(points []DataPoint) *SeriesIndex {
	idx := NewSeriesIndex()
	for _, p := range points {
		idx.Add(p.Series, p.ID)
	}
	return idx
}

func (i *SeriesIndex) Add(series string, id int64) {
	if id < 0 {
		return
	}
	bm, ok := i.bySeries[series]
	if !ok {
		bm = roaring64.New()
		i.bySeries[series] = bm
	}
	bm.Add(uint64(id))
}

func (i *SeriesIndex) Remove(series string, id int64) {
	bm, ok := i.bySeries[series]
	if !ok || id < 0 {
		return
	}
	bm.Remove(uint64(id))
	if bm.IsEmpty() {
		delete(i.bySeries, series)
	}
}

// Move re-files id from one series to another.
func (i *SeriesIndex) Move(from, to string, id int64) {
	if from == to {
		return
	}
	i.Remove(from, id)
	i.Add(to, id)
}

func (i *SeriesIndex) Contains(series string, id int64) bool {
	bm, ok := i.bySeries[series]
	if !ok || id < 0 {
		return false
	}
	return bm.Contains(uint64(id))
}

func (i *SeriesIndex) Count(series string) int {
	bm, ok := i.bySeries[series]
	if !ok {
		return 0
	}
	return int(bm.GetCardinality())
}

// IDs returns the ids of series in ascending order.
func (i *SeriesIndex) IDs(series string) []int64 {
	bm, ok := i.bySeries[series]
	if !ok {
		return nil
	}
	raw := bm.ToArray()
	ids := make([]int64, len(raw))
	for n, id := range raw {
		ids[n] = int64(id)
	}
	return ids
}

// Rename moves every id filed under from to to, merging when to already exists.
func (i *SeriesIndex) Rename(from, to string) {
	bm, ok := i.bySeries[from]
	if !ok || from == to {
		return
	}
	delete(i.bySeries, from)
	if existing, ok := i.bySeries[to]; ok {
		existing.Or(bm)
		return
	}
	i.bySeries[to] = bm
}

// Drop forgets series and returns the ids that were filed under it.
func (i *SeriesIndex) Drop(series string) []int64 {
	ids := i.IDs(series)
	delete(i.bySeries, series)
	return ids
}

// Union returns the set of ids belonging to any of the given series.
func (i *SeriesIndex) Union(series []string) *roaring64.Bitmap {
	out := roaring64.New()
	for _, s := range series {
		if bm, ok := i.bySeries[s]; ok {
			out.Or(bm)
		}
	}
	return out
}

func (i *SeriesIndex) Series() []string {
	out := make([]string, 0, len(i.bySeries))
	for s := range i.bySeries {
		out = append(out, s)
	}
	return out
}
