package search

import (
	"container/heap"

	"github.com/sequorlabs/sequor/internal/model"
)

// node is a search frontier entry.
type node struct {
	state model.State
	fp    string // state fingerprint (visited key)
	path  model.Sequence
	g     float64 // cost so far
	h     float64 // heuristic estimate
	depth int
	seq   int64 // insertion counter; final, stable tie-break
}

// frontier abstracts the per-strategy open set.
type frontier interface {
	push(*node)
	pop() (*node, bool)
	len() int
}

// fifoFrontier is the BFS frontier.
//
// Pre-allocated and slot-nilled on pop so the backing array does not retain
// popped nodes' states under steady expansion.
type fifoFrontier struct {
	nodes []*node
}

func newFIFOFrontier() *fifoFrontier {
	return &fifoFrontier{nodes: make([]*node, 0, 64)}
}

func (f *fifoFrontier) push(n *node) {
	f.nodes = append(f.nodes, n)
}

func (f *fifoFrontier) pop() (*node, bool) {
	if len(f.nodes) == 0 {
		return nil, false
	}
	n := f.nodes[0]
	f.nodes[0] = nil
	f.nodes = f.nodes[1:]
	if len(f.nodes) == 0 {
		f.nodes = f.nodes[:0]
	}
	return n, true
}

func (f *fifoFrontier) len() int {
	return len(f.nodes)
}

// lifoFrontier is the DFS frontier.
type lifoFrontier struct {
	nodes []*node
}

func newLIFOFrontier() *lifoFrontier {
	return &lifoFrontier{nodes: make([]*node, 0, 64)}
}

func (f *lifoFrontier) push(n *node) {
	f.nodes = append(f.nodes, n)
}

func (f *lifoFrontier) pop() (*node, bool) {
	if len(f.nodes) == 0 {
		return nil, false
	}
	last := len(f.nodes) - 1
	n := f.nodes[last]
	f.nodes[last] = nil
	f.nodes = f.nodes[:last]
	return n, true
}

func (f *lifoFrontier) len() int {
	return len(f.nodes)
}

// priorityFrontier is the AStar/Greedy frontier: a min-heap ordered by a
// strategy-specific less function with the insertion counter as the final
// tie-break, so ordering is stable and deterministic.
type priorityFrontier struct {
	h nodeHeap
}

// lessFunc orders two nodes; the frontier falls back to seq on ties.
type lessFunc func(a, b *node) bool

func newPriorityFrontier(less lessFunc) *priorityFrontier {
	f := &priorityFrontier{h: nodeHeap{less: less}}
	heap.Init(&f.h)
	return f
}

func (f *priorityFrontier) push(n *node) {
	heap.Push(&f.h, n)
}

func (f *priorityFrontier) pop() (*node, bool) {
	if f.h.Len() == 0 {
		return nil, false
	}
	return heap.Pop(&f.h).(*node), true
}

func (f *priorityFrontier) len() int {
	return f.h.Len()
}

// astarLess orders by f = g + h, ties broken by lower g (prefer
// cheaper-so-far nodes).
func astarLess(a, b *node) bool {
	fa, fb := a.g+a.h, b.g+b.h
	if fa != fb {
		return fa < fb
	}
	return a.g < b.g
}

// greedyLess orders by h alone.
func greedyLess(a, b *node) bool {
	return a.h < b.h
}

// nodeHeap implements heap.Interface.
type nodeHeap struct {
	nodes []*node
	less  lessFunc
}

func (h *nodeHeap) Len() int { return len(h.nodes) }

func (h *nodeHeap) Less(i, j int) bool {
	a, b := h.nodes[i], h.nodes[j]
	if h.less(a, b) {
		return true
	}
	if h.less(b, a) {
		return false
	}
	return a.seq < b.seq
}

func (h *nodeHeap) Swap(i, j int) {
	h.nodes[i], h.nodes[j] = h.nodes[j], h.nodes[i]
}

func (h *nodeHeap) Push(x any) {
	h.nodes = append(h.nodes, x.(*node))
}

func (h *nodeHeap) Pop() any {
	last := len(h.nodes) - 1
	n := h.nodes[last]
	h.nodes[last] = nil
	h.nodes = h.nodes[:last]
	return n
}
