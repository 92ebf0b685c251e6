// Package octree is an adaptive point octree. Leaves split into eight
// equal children once they hold more than maxItems, up to maxDepth.
// Nodes are never merged back.
package octree

import (
	"github.com/go-gl/mathgl/mgl32"
)

const (
	DefaultExtent   = 100000
	DefaultMaxItems = 8
	DefaultMaxDepth = 8
)

// Box is an axis aligned box. Containment is inclusive on both ends.
type Box struct {
	Min, Max mgl32.Vec3
}

// BoxAround returns the cube of half-size r centred on c.
func BoxAround(c mgl32.Vec3, r float32) Box {
	d := mgl32.Vec3{r, r, r}
	return Box{Min: c.Sub(d), Max: c.Add(d)}
}

func (b Box) Contains(p mgl32.Vec3) bool {
	return p.X() >= b.Min.X() && p.X() <= b.Max.X() &&
		p.Y() >= b.Min.Y() && p.Y() <= b.Max.Y() &&
		p.Z() >= b.Min.Z() && p.Z() <= b.Max.Z()
}

func (b Box) Intersects(o Box) bool {
	return b.Min.X() <= o.Max.X() && b.Max.X() >= o.Min.X() &&
		b.Min.Y() <= o.Max.Y() && b.Max.Y() >= o.Min.Y() &&
		b.Min.Z() <= o.Max.Z() && b.Max.Z() >= o.Min.Z()
}

func (b Box) Center() mgl32.Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

// Item is a point sample with its payload.
type Item[T any] struct {
	Position mgl32.Vec3
	Data     T
}

type node[T any] struct {
	bounds   Box
	depth    int
	items    []Item[T]
	children []*node[T]
}

func (n *node[T]) leaf() bool {
	return n.children == nil
}

// Octree indexes point samples. It is not safe for concurrent use.
type Octree[T any] struct {
	root     *node[T]
	maxItems int
	maxDepth int
	count    int
}

func New[T any](bounds Box, maxItems, maxDepth int) *Octree[T] {
	if maxItems < 1 {
		maxItems = 1
	}
	if maxDepth < 0 {
		maxDepth = 0
	}
	return &Octree[T]{
		root:     &node[T]{bounds: bounds},
		maxItems: maxItems,
		maxDepth: maxDepth,
	}
}

// NewDefault returns an octree spanning ±DefaultExtent on every axis.
func NewDefault[T any]() *Octree[T] {
	e := float32(DefaultExtent)
	return New[T](Box{Min: mgl32.Vec3{-e, -e, -e}, Max: mgl32.Vec3{e, e, e}}, DefaultMaxItems, DefaultMaxDepth)
}

func (t *Octree[T]) Bounds() Box {
	return t.root.bounds
}

// Len returns the number of stored items.
func (t *Octree[T]) Len() int {
	return t.count
}

// Insert adds a sample. It returns false when pos lies outside the root box.
func (t *Octree[T]) Insert(pos mgl32.Vec3, data T) bool {
	if !t.insert(t.root, Item[T]{Position: pos, Data: data}) {
		return false
	}
	t.count++
	return true
}

func (t *Octree[T]) insert(n *node[T], it Item[T]) bool {
	if !n.bounds.Contains(it.Position) {
		return false
	}
	if n.leaf() {
		if len(n.items) < t.maxItems || n.depth >= t.maxDepth {
			n.items = append(n.items, it)
			return true
		}
		t.subdivide(n)
	}
	for _, c := range n.children {
		if t.insert(c, it) {
			return true
		}
	}
	// only reachable through float rounding at the split plane
	n.items = append(n.items, it)
	return true
}

// subdivide splits n into eight children and moves its items down. Each
// item goes to the first child that contains it.
func (t *Octree[T]) subdivide(n *node[T]) {
	min, max := n.bounds.Min, n.bounds.Max
	mid := n.bounds.Center()
	xs := [2][2]float32{{min.X(), mid.X()}, {mid.X(), max.X()}}
	ys := [2][2]float32{{min.Y(), mid.Y()}, {mid.Y(), max.Y()}}
	zs := [2][2]float32{{min.Z(), mid.Z()}, {mid.Z(), max.Z()}}

	n.children = make([]*node[T], 0, 8)
	for yi := 0; yi < 2; yi++ {
		for zi := 0; zi < 2; zi++ {
			for xi := 0; xi < 2; xi++ {
				n.children = append(n.children, &node[T]{
					bounds: Box{
						Min: mgl32.Vec3{xs[xi][0], ys[yi][0], zs[zi][0]},
						Max: mgl32.Vec3{xs[xi][1], ys[yi][1], zs[zi][1]},
					},
					depth: n.depth + 1,
				})
			}
		}
	}

	items := n.items
	n.items = nil
	for _, it := range items {
		placed := false
		for _, c := range n.children {
			if t.insert(c, it) {
				placed = true
				break
			}
		}
		if !placed {
			n.items = append(n.items, it)
		}
	}
}

// Query returns every item inside box.
func (t *Octree[T]) Query(box Box) []Item[T] {
	var out []Item[T]
	t.query(t.root, box, func(it Item[T]) {
		out = append(out, it)
	})
	return out
}

func (t *Octree[T]) query(n *node[T], box Box, f func(Item[T])) {
	if !n.bounds.Intersects(box) {
		return
	}
	for _, it := range n.items {
		if box.Contains(it.Position) {
			f(it)
		}
	}
	for _, c := range n.children {
		t.query(c, box, f)
	}
}

// QueryRadius returns every item within r of center.
func (t *Octree[T]) QueryRadius(center mgl32.Vec3, r float32) []Item[T] {
	var out []Item[T]
	r2 := r * r
	t.query(t.root, BoxAround(center, r), func(it Item[T]) {
		d := it.Position.Sub(center)
		if d.Dot(d) <= r2 {
			out = append(out, it)
		}
	})
	return out
}

// Remove deletes the first item at exactly pos whose payload satisfies
// match. Children are searched in order and the search stops at the first
// removal.
func (t *Octree[T]) Remove(pos mgl32.Vec3, match func(T) bool) bool {
	if t.remove(t.root, pos, match) {
		t.count--
		return true
	}
	return false
}

func (t *Octree[T]) remove(n *node[T], pos mgl32.Vec3, match func(T) bool) bool {
	if !n.bounds.Contains(pos) {
		return false
	}
	for i, it := range n.items {
		if it.Position == pos && (match == nil || match(it.Data)) {
			n.items = append(n.items[:i], n.items[i+1:]...)
			return true
		}
	}
	for _, c := range n.children {
		if t.remove(c, pos, match) {
			return true
		}
	}
	return false
}

// Clear drops every item and node, keeping the root bounds.
func (t *Octree[T]) Clear() {
	t.root = &node[T]{bounds: t.root.bounds}
	t.count = 0
}

// Walk calls f for every stored item.
func (t *Octree[T]) Walk(f func(Item[T])) {
	var walk func(n *node[T])
	walk = func(n *node[T]) {
		for _, it := range n.items {
			f(it)
		}
		for _, c := range n.children {
			walk(c)
		}
	}
	walk(t.root)
}

type Stats struct {
	TotalNodes          int
	LeafNodes           int
	TotalItems          int
	MaxDepth            int
	AverageItemsPerLeaf float64
}

func (t *Octree[T]) Stats() Stats {
	var s Stats
	var walk func(n *node[T])
	walk = func(n *node[T]) {
		s.TotalNodes++
		s.TotalItems += len(n.items)
		if n.depth > s.MaxDepth {
			s.MaxDepth = n.depth
		}
		if n.leaf() {
			s.LeafNodes++
		}
		for _, c := range n.children {
			walk(c)
		}
	}
	walk(t.root)
	if s.LeafNodes > 0 {
		s.AverageItemsPerLeaf = float64(s.TotalItems) / float64(s.LeafNodes)
	}
	return s
}
