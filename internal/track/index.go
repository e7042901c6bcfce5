package track

import (
	"flatlands/internal/common"

	"gonum.org/v1/gonum/spatial/kdtree"
)

// index is a 2-d tree over the projected path. It is built once and only
// read afterwards, so concurrent queries are safe.
type index struct {
	tree *kdtree.Tree
}

func newIndex(path []common.Vec2) *index {
	pts := make(indexedPoints, len(path))
	for i, p := range path {
		pts[i] = indexedPoint{x: p.X, y: p.Y, idx: i}
	}
	return &index{tree: kdtree.New(pts, false)}
}

// nearest returns the path index closest to p.
func (ix *index) nearest(p common.Vec2) int {
	got, _ := ix.tree.Nearest(indexedPoint{x: p.X, y: p.Y, idx: -1})
	return got.(indexedPoint).idx
}

// indexedPoint is a path point that remembers its position in the path.
type indexedPoint struct {
	x, y float64
	idx  int
}

func (p indexedPoint) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	q := c.(indexedPoint)
	if d == 0 {
		return p.x - q.x
	}
	return p.y - q.y
}

func (p indexedPoint) Dims() int { return 2 }

// Distance is the squared Euclidean distance, as kdtree expects.
func (p indexedPoint) Distance(c kdtree.Comparable) float64 {
	q := c.(indexedPoint)
	dx, dy := p.x-q.x, p.y-q.y
	return dx*dx + dy*dy
}

type indexedPoints []indexedPoint

func (p indexedPoints) Index(i int) kdtree.Comparable { return p[i] }
func (p indexedPoints) Len() int                      { return len(p) }
func (p indexedPoints) Slice(start, end int) kdtree.Interface {
	return p[start:end]
}

func (p indexedPoints) Pivot(d kdtree.Dim) int {
	pl := plane{points: p, dim: d}
	return kdtree.Partition(pl, kdtree.MedianOfMedians(pl))
}

// plane sorts indexedPoints along one dimension.
type plane struct {
	points indexedPoints
	dim    kdtree.Dim
}

func (p plane) Len() int { return len(p.points) }

func (p plane) Less(i, j int) bool {
	if p.dim == 0 {
		return p.points[i].x < p.points[j].x
	}
	return p.points[i].y < p.points[j].y
}

func (p plane) Swap(i, j int) { p.points[i], p.points[j] = p.points[j], p.points[i] }

func (p plane) Slice(start, end int) kdtree.SortSlicer {
	return plane{points: p.points[start:end], dim: p.dim}
}
