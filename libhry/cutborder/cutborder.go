// Package cutborder implements the moving boundary between the encoded
// and not-yet-encoded regions of a polygonal mesh. The boundary is a set
// of cyclic doubly-linked parts over a preallocated element pool; every
// public operation corresponds to one boundary-mutation opcode of the
// compressed stream.
package cutborder

import (
	"github.com/bubnikv/harry/hry"
)

// Data is an element payload: the vertex on the boundary plus the
// attachment the encoder uses to locate the gate face. The cut border
// itself never interprets the attachment.
type Data struct {
	Vtx  hry.VtxIdx
	Edge hry.FEPair
}

// UndefData marks a payload with no vertex.
func UndefData() Data {
	return Data{Vtx: hry.VtxUndef}
}

// IsUndefined reports whether the payload names no vertex.
func (d Data) IsUndefined() bool {
	return d.Vtx < 0
}

// Element is a node on the cyclic boundary of one part. The same
// prev/next links thread the free list when the element is not live.
type Element struct {
	prev, next *Element

	Data        Data
	IsEdgeBegin bool
}

// Next returns the successor on the boundary cycle.
func (e *Element) Next() *Element {
	return e.next
}

// Prev returns the predecessor on the boundary cycle.
func (e *Element) Prev() *Element {
	return e.prev
}

func (e *Element) setPrev(p *Element) {
	e.prev = p
	p.next = e
}

func (e *Element) setNext(n *Element) {
	e.next = n
	n.prev = e
}

// Part is one connected boundary cycle under traversal.
type Part struct {
	root       *Element
	nrVertices int
	nrEdges    int
}

// NrVertices returns the part's live element count.
func (p *Part) NrVertices() int {
	return p.nrVertices
}

// NrEdges returns the part's open edge count.
func (p *Part) NrEdges() int {
	return p.nrEdges
}

// CutBorder is the traversal boundary: a LIFO stack of parts, an element
// pool with a free list threaded through the element links, a cursor,
// and a per-vertex use counter.
type CutBorder struct {
	parts []Part
	part  int // index of the current part, -1 when none

	elements  []Element
	element   *Element // cursor: the current boundary edge runs element -> element.next
	free      *Element
	liveElems int

	maxElems int
	maxParts int

	// Last points at the payload of the most recently added element.
	Last *Data

	swapped  int
	haveSwap bool

	// vertices[v] counts live elements whose payload vertex is v.
	vertices []int32

	// MaxLiveElems and MaxLiveParts track high-water usage.
	MaxLiveElems int
	MaxLiveParts int
}

// New builds a cut border with fixed pool capacities. vertHint presizes
// the vertex use counters.
func New(maxParts, maxElems, vertHint int) *CutBorder {
	cb := &CutBorder{
		parts:    make([]Part, maxParts),
		elements: make([]Element, maxElems+1),
		maxElems: maxElems,
		maxParts: maxParts,
		part:     -1,
		vertices: make([]int32, vertHint),
	}
	cb.threadFreeList()
	return cb
}

func (cb *CutBorder) threadFreeList() {
	for i := range cb.elements {
		if i+1 < len(cb.elements) {
			cb.elements[i].next = &cb.elements[i+1]
		} else {
			cb.elements[i].next = nil
		}
		if i > 0 {
			cb.elements[i].prev = &cb.elements[i-1]
		} else {
			cb.elements[i].prev = nil
		}
	}
	cb.free = &cb.elements[0]
	cb.liveElems = 0
	cb.element = nil
}

// Reset discards all boundary state. Used by the decoder when a new
// component seed implies the previous component's trailing border run
// was elided.
func (cb *CutBorder) Reset() {
	cb.threadFreeList()
	for i := range cb.parts {
		cb.parts[i] = Part{}
	}
	cb.part = -1
	cb.haveSwap = false
	for i := range cb.vertices {
		cb.vertices[i] = 0
	}
}

// AtEnd reports whether every part has been closed.
func (cb *CutBorder) AtEnd() bool {
	return cb.part < 0 && cb.element == nil
}

// Cur returns the cursor element.
func (cb *CutBorder) Cur() *Element {
	return cb.element
}

// PartCount returns the number of live parts.
func (cb *CutBorder) PartCount() int {
	return cb.part + 1
}

// CurPart returns the current part, or nil when the traversal ended.
func (cb *CutBorder) CurPart() *Part {
	if cb.part < 0 {
		return nil
	}
	return &cb.parts[cb.part]
}

// VertexUses returns the number of live elements naming v.
func (cb *CutBorder) VertexUses(v hry.VtxIdx) int {
	if int(v) >= len(cb.vertices) {
		return 0
	}
	return int(cb.vertices[v])
}

// TraverseStep reads the current boundary edge.
func (cb *CutBorder) TraverseStep() (v0, v1 Data) {
	return cb.element.Data, cb.element.next.Data
}

// The canonical cursor policy is DFS: of the two advance candidates the
// depth-first one wins, then the cursor settles on the first edge whose
// IsEdgeBegin still holds.
func traversalOrder(bfs, dfs *Element) *Element {
	_ = bfs
	return dfs
}

func (cb *CutBorder) advance(bfs, dfs *Element) {
	nxt := traversalOrder(bfs, dfs)
	beg := nxt
	for !nxt.IsEdgeBegin {
		nxt = nxt.next
		if nxt == beg {
			panic(hry.ErrInternal)
		}
	}
	cb.element = nxt
}

func (cb *CutBorder) activateVertex(v hry.VtxIdx) {
	for int(v) >= len(cb.vertices) {
		cb.vertices = append(cb.vertices, 0)
	}
	cb.vertices[v]++
}

func (cb *CutBorder) deactivateVertex(v hry.VtxIdx) {
	cb.vertices[v]--
}

func (cb *CutBorder) newElement(v Data) *Element {
	cb.activateVertex(v.Vtx)
	if cb.liveElems >= cb.maxElems {
		panic(hry.ErrPoolExhausted)
	}
	e := cb.free
	cb.free = cb.free.next
	cb.liveElems++
	e.Data = v
	e.IsEdgeBegin = true
	part := &cb.parts[cb.part]
	part.nrVertices++
	if cb.liveElems > cb.MaxLiveElems {
		cb.MaxLiveElems = cb.liveElems
	}
	return e
}

// delElement returns n elements to the free list, following the cycle's
// next links, without splicing the cycle. Callers splice.
func (cb *CutBorder) delElement(e *Element, n int) {
	part := &cb.parts[cb.part]
	for ; n > 0; n-- {
		cb.deactivateVertex(e.Data.Vtx)
		nxt := e.next
		cb.free.setPrev(e) // e.next = old head
		cb.free = e
		cb.liveElems--
		part.nrVertices--
		if part.nrVertices < 0 {
			panic(hry.ErrInternal)
		}
		e = nxt
	}
}

// getElement resolves a signed within-part offset (and part offset p) to
// an element, counting the edge-begins crossed on the way.
func (cb *CutBorder) getElement(i, p int) (e *Element, edgecnt int) {
	if p != 0 {
		e = cb.parts[cb.part-p].root
	} else {
		e = cb.element
	}

	if i > 0 {
		for j := 0; j < i; j++ {
			if j != 0 && e.IsEdgeBegin {
				edgecnt++
			}
			e = e.next
		}
	} else {
		for j := 0; j < -i; j++ {
			if e.prev.IsEdgeBegin {
				edgecnt++
			}
			e = e.prev
		}
	}
	return e, edgecnt
}

// findElement locates vertex v on the boundary, probing bidirectionally
// from the cursor and falling back to earlier parts. It returns a signed
// within-part index i and the part offset p.
func (cb *CutBorder) findElement(v hry.VtxIdx) (i, p int) {
	l := cb.element
	r := cb.element.next

	for {
		if r.Data.Vtx == v {
			return i + 1, p
		}
		if l.Data.Vtx == v {
			return -i, p
		}

		if l == r || l.prev == r {
			p++
			if cb.part-p < 0 {
				panic(hry.ErrInternal)
			}
			i = 0
			l = cb.parts[cb.part-p].root
			r = l.next
		} else {
			l = l.prev
			r = r.next
			i++
		}
	}
}

func (cb *CutBorder) newPart(root *Element) {
	cb.part++
	if cb.part >= cb.maxParts {
		panic(hry.ErrPartsExhausted)
	}
	cb.parts[cb.part] = Part{root: root}
	if cb.part+1 > cb.MaxLiveParts {
		cb.MaxLiveParts = cb.part + 1
	}
}

func (cb *CutBorder) delPart() {
	if cb.parts[cb.part].nrVertices != 0 {
		panic(hry.ErrInternal)
	}
	if cb.part != 0 {
		cb.part--
		root := cb.parts[cb.part].root
		cb.advance(root, root)
	} else {
		cb.part = -1
		cb.element = nil
	}
}

// Initial seeds the traversal with a triangle. Subsequent seed-face
// vertices are added through NewVertex.
func (cb *CutBorder) Initial(v0, v1, v2 Data) {
	cb.part = 0
	cb.parts[0] = Part{}
	if cb.MaxLiveParts == 0 {
		cb.MaxLiveParts = 1
	}
	e0 := cb.newElement(v0)
	e1 := cb.newElement(v1)
	e2 := cb.newElement(v2)
	e0.setNext(e1)
	e1.setNext(e2)
	e2.setNext(e0)

	cb.parts[0].nrEdges = 3

	cb.advance(e0, e2)
	cb.parts[0].root = cb.element
}

// NewVertex inserts a fresh boundary vertex between the cursor and its
// successor and advances onto it.
func (cb *CutBorder) NewVertex(v Data) *Element {
	v0 := cb.element
	v1 := cb.newElement(v)
	cb.Last = &v1.Data
	v2 := cb.element.next

	cb.parts[cb.part].nrEdges++ // -1 closed + 2 new

	v0.setNext(v1)
	v2.setPrev(v1)

	cb.advance(v2, v1)
	return v1
}

func (cb *CutBorder) isTri() bool {
	part := &cb.parts[cb.part]
	return part.nrEdges == 3 && part.nrVertices == 3
}

// ConnectForward closes the current edge against the forward boundary
// neighbor. When only one triangle remains the part is destroyed and the
// meta op CloseFwd is reported.
func (cb *CutBorder) ConnectForward() (d Data, op hry.Op) {
	if cb.element.next.IsEdgeBegin {
		d = cb.element.next.next.Data
	} else {
		d = UndefData()
	}
	if cb.isTri() {
		cb.delElement(cb.element, 3)
		cb.parts[cb.part].nrEdges = 0
		cb.delPart()
		return d, hry.OpCloseFwd
	}

	cb.element.IsEdgeBegin = cb.element.next.IsEdgeBegin
	e0 := cb.element
	e1 := cb.element.next.next
	cb.parts[cb.part].nrEdges-- // -2 + 1
	cb.delElement(cb.element.next, 1)
	e0.setNext(e1)

	cb.advance(e1, e0)
	return d, hry.OpConnFwd
}

// ConnectBackward closes the current edge against the backward boundary
// neighbor. Payloads are swapped so the surviving cursor stays on the
// same physical slot.
func (cb *CutBorder) ConnectBackward() (d Data, op hry.Op) {
	if cb.element.prev.IsEdgeBegin {
		d = cb.element.prev.Data
	} else {
		d = UndefData()
	}
	if cb.isTri() {
		cb.delElement(cb.element, 3)
		cb.parts[cb.part].nrEdges = 0
		cb.delPart()
		return d, hry.OpCloseBwd
	}

	cb.element.Data, cb.element.prev.Data = cb.element.prev.Data, cb.element.Data
	cb.element.IsEdgeBegin = cb.element.prev.IsEdgeBegin
	e0 := cb.element.prev.prev
	e1 := cb.element
	cb.parts[cb.part].nrEdges-- // -2 + 1
	cb.delElement(cb.element.prev, 1)
	e0.setNext(e1)

	cb.advance(e1.next, e1)
	return d, hry.OpConnBwd
}

// Border advances past the current edge without new geometry. A vertex
// whose neighboring edge was already closed is promoted to the matching
// connect operation; a vertex with both sides closed collapses through.
func (cb *CutBorder) Border() hry.Op {
	part := &cb.parts[cb.part]
	part.nrEdges--
	if part.nrEdges == 0 {
		cb.element.IsEdgeBegin = false
		cb.delElement(cb.element, part.nrVertices)
		cb.delPart()
		return hry.OpBorder
	}

	if part.nrVertices >= 1 && (part.nrVertices < 2 || cb.element.prev.IsEdgeBegin != cb.element.next.IsEdgeBegin) {
		part.nrEdges++
		if !cb.element.prev.IsEdgeBegin {
			cb.ConnectBackward()
			return hry.OpConnBwd
		} else if !cb.element.next.IsEdgeBegin {
			cb.ConnectForward()
			return hry.OpConnFwd
		}
	} else if part.nrVertices >= 2 && !cb.element.prev.IsEdgeBegin && !cb.element.next.IsEdgeBegin {
		cb.element.IsEdgeBegin = false
		n := cb.element.next.next
		cb.element.prev.setNext(n)
		cb.delElement(cb.element, 2)
		cb.element = n
	} else {
		cb.element.IsEdgeBegin = false
	}

	cb.advance(cb.element.next, cb.element.next)
	return hry.OpBorder
}

// PreserveOrder consumes a deferred part swap left by SplitCutBorder so
// the part stack is processed in canonical traversal order. Called once
// before each traversal step.
func (cb *CutBorder) PreserveOrder() {
	if !cb.haveSwap {
		return
	}
	if cb.swapped < cb.part {
		cb.parts[cb.part].root = cb.element
		cb.parts[cb.part], cb.parts[cb.swapped] = cb.parts[cb.swapped], cb.parts[cb.part]
		root := cb.parts[cb.part].root
		cb.advance(root, root)
	}
	cb.haveSwap = false
}

// SplitCutBorder handles a vertex that is already on the current part's
// boundary at signed offset i: the cycle is split in two and a fresh
// element duplicating the payload joins one of the halves. A split
// behind the cursor defers a part swap for PreserveOrder.
func (cb *CutBorder) SplitCutBorder(i int) (*Element, Data) {
	e1, edgecnt := cb.getElement(i, 0)
	e0 := cb.element
	found := e1.Data

	newroot := e0.next
	newtail := e1.prev
	e0.setNext(e1)

	split := cb.newElement(found)
	cb.Last = &split.Data
	newtail.setNext(split)
	split.setNext(newroot)

	if i > 0 {
		i--
		cb.parts[cb.part].root = traversalOrder(e1, e0)
		cb.parts[cb.part].nrVertices -= i + 1
		cb.parts[cb.part].nrEdges -= edgecnt
		cb.newPart(newroot)
		cb.parts[cb.part].nrVertices += i + 1
		cb.parts[cb.part].nrEdges += edgecnt + 1

		cb.advance(newroot, split)
	} else {
		i = -i

		cb.parts[cb.part].root = traversalOrder(newroot, split)
		cb.parts[cb.part].nrVertices -= i + 1
		cb.parts[cb.part].nrEdges -= edgecnt
		cb.newPart(traversalOrder(e1, e0))
		cb.parts[cb.part].nrVertices += i + 1
		cb.parts[cb.part].nrEdges += edgecnt + 1

		cb.parts[cb.part], cb.parts[cb.part-1] = cb.parts[cb.part-1], cb.parts[cb.part]
		cb.swapped = cb.part - 1
		cb.haveSwap = true

		cb.advance(newroot, split)
	}

	return split, found
}

// CutBorderUnion merges the current part with earlier part offset p at
// within-part offset i. The merged cycle lives on the earlier part; the
// current part is deleted.
func (cb *CutBorder) CutBorderUnion(i, p int) (*Element, Data) {
	e1, _ := cb.getElement(i, p)
	e0 := cb.element
	found := e1.Data

	newroot := cb.element.next
	newtail := e1.prev

	e0.setNext(e1)

	un := cb.newElement(found)
	cb.Last = &un.Data
	newtail.setNext(un)
	un.setNext(newroot)

	tgt := &cb.parts[cb.part-p]
	cur := &cb.parts[cb.part]
	tgt.nrVertices += cur.nrVertices
	cur.nrVertices = 0
	tgt.nrEdges += cur.nrEdges + 1
	cur.nrEdges = 0
	tgt.root = traversalOrder(newroot, un)
	cb.parts[cb.part-p], cb.parts[cb.part-1] = cb.parts[cb.part-1], cb.parts[cb.part-p]
	cb.delPart()

	return un, found
}

// MoveTo repositions the cursor onto e. The traversal uses it to resume
// polygon-face insertion after a union.
func (cb *CutBorder) MoveTo(e *Element) {
	cb.element = e
}

// OnCutBorder reports whether vertex v currently lies on any part.
func (cb *CutBorder) OnCutBorder(v hry.VtxIdx) bool {
	return cb.VertexUses(v) != 0
}

// FindElement locates vertex v on the boundary. The caller must have
// checked OnCutBorder first.
func (cb *CutBorder) FindElement(v hry.VtxIdx) (i, p int) {
	return cb.findElement(v)
}

// FindAndUpdate dispatches a re-encountered vertex to the right
// primitive: union when it sits on an earlier part, a connect when it is
// ring-adjacent, a split otherwise. found is false when the vertex is
// not on the cut border at all (the caller then adds it). elem is the
// freshly allocated element for splits and unions, nil for connects.
func (cb *CutBorder) FindAndUpdate(v Data) (op hry.Op, i, p int, elem *Element, found bool) {
	if !cb.OnCutBorder(v.Vtx) {
		return 0, 0, 0, nil, false
	}
	i, p = cb.findElement(v.Vtx)

	if p > 0 {
		elem, res := cb.CutBorderUnion(i, p)
		if res.Vtx != v.Vtx {
			panic(hry.ErrInternal)
		}
		return hry.OpUnion, i, p, elem, true
	}

	if cb.element.next.IsEdgeBegin && cb.element.next.next.Data.Vtx == v.Vtx {
		_, op = cb.ConnectForward()
		return op, i, p, nil, true
	}
	if cb.element.prev.IsEdgeBegin && cb.element.prev.Data.Vtx == v.Vtx {
		_, op = cb.ConnectBackward()
		return op, i, p, nil, true
	}
	if i == 0 {
		panic(hry.ErrInternal)
	}

	elem, res := cb.SplitCutBorder(i)
	if res.Vtx != v.Vtx {
		panic(hry.ErrInternal)
	}
	return hry.OpSplit, i, p, elem, true
}
