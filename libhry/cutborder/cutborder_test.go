package cutborder_test

import (
	"testing"

	"github.com/bubnikv/harry/hry"
	"github.com/bubnikv/harry/libhry/cutborder"
)

func data(v int) cutborder.Data {
	return cutborder.Data{Vtx: hry.VtxIdx(v)}
}

// checkRing walks the current part's cycle both ways and verifies the
// links are mutual inverses.
func checkRing(t *testing.T, cb *cutborder.CutBorder) {
	t.Helper()
	start := cb.Cur()
	if start == nil {
		return
	}
	n := 0
	for e := start; ; {
		if e.Next().Prev() != e {
			t.Fatal("next/prev are not mutual inverses")
		}
		e = e.Next()
		n++
		if e == start {
			break
		}
		if n > 1024 {
			t.Fatal("ring does not close")
		}
	}
	if part := cb.CurPart(); part != nil && part.NrVertices() != n {
		t.Fatalf("part reports %d vertices, ring has %d", part.NrVertices(), n)
	}
}

func seedRing(t *testing.T, cb *cutborder.CutBorder, verts ...int) {
	t.Helper()
	cb.Initial(data(verts[0]), data(verts[1]), data(verts[2]))
	for _, v := range verts[3:] {
		cb.NewVertex(data(v))
	}
	checkRing(t, cb)
}

func TestSingleTriangleDrain(t *testing.T) {
	cb := cutborder.New(4, 16, 3)
	cb.Initial(data(0), data(1), data(2))

	if cb.AtEnd() {
		t.Fatal("not at end after Initial")
	}
	if got := cb.CurPart().NrEdges(); got != 3 {
		t.Fatalf("seed part has %d edges", got)
	}

	var ops []hry.Op
	for !cb.AtEnd() {
		ops = append(ops, cb.Border())
	}

	// Three boundary edges: a plain border, a promotion, a closing border.
	want := []hry.Op{hry.OpBorder, hry.OpConnBwd, hry.OpBorder}
	if len(ops) != len(want) {
		t.Fatalf("got ops %v", ops)
	}
	for i := range want {
		if ops[i] != want[i] {
			t.Fatalf("op %d = %s, want %s", i, ops[i], want[i])
		}
	}

	for v := hry.VtxIdx(0); v < 3; v++ {
		if cb.VertexUses(v) != 0 {
			t.Fatalf("vertex %d still counted after drain", v)
		}
	}
	if cb.PartCount() != 0 {
		t.Fatal("parts remain after drain")
	}
}

func TestNewVertexCounts(t *testing.T) {
	cb := cutborder.New(4, 16, 8)
	seedRing(t, cb, 0, 1, 2, 3, 4, 5)

	part := cb.CurPart()
	if part.NrVertices() != 6 || part.NrEdges() != 6 {
		t.Fatalf("ring has %d vertices, %d edges", part.NrVertices(), part.NrEdges())
	}
	for v := hry.VtxIdx(0); v < 6; v++ {
		if cb.VertexUses(v) != 1 {
			t.Fatalf("vertex %d counted %d times", v, cb.VertexUses(v))
		}
	}
}

func TestSplit(t *testing.T) {
	cb := cutborder.New(4, 32, 8)
	seedRing(t, cb, 0, 1, 2, 3, 4, 5)

	op, i, p, elem, found := cb.FindAndUpdate(data(2))
	if !found {
		t.Fatal("vertex 2 not found on border")
	}
	if op != hry.OpSplit {
		t.Fatalf("op = %s, want SPLIT", op)
	}
	if i != 3 || p != 0 {
		t.Fatalf("split at i=%d p=%d, want i=3 p=0", i, p)
	}
	if elem == nil || elem.Data.Vtx != 2 {
		t.Fatal("split element does not carry the found vertex")
	}
	if cb.PartCount() != 2 {
		t.Fatalf("part count = %d after split", cb.PartCount())
	}
	if cb.VertexUses(2) != 2 {
		t.Fatalf("vertex 2 counted %d times after split", cb.VertexUses(2))
	}
	checkRing(t, cb)
}

func TestUnion(t *testing.T) {
	cb := cutborder.New(4, 32, 8)
	seedRing(t, cb, 0, 1, 2, 3, 4, 5)

	if _, _, _, _, found := cb.FindAndUpdate(data(2)); !found {
		t.Fatal("split setup failed")
	}

	op, i, p, elem, found := cb.FindAndUpdate(data(4))
	if !found {
		t.Fatal("vertex 4 not found")
	}
	if op != hry.OpUnion {
		t.Fatalf("op = %s, want UNION", op)
	}
	if p != 1 {
		t.Fatalf("union part offset = %d, want 1", p)
	}
	_ = i
	if elem == nil || elem.Data.Vtx != 4 {
		t.Fatal("union element does not carry the found vertex")
	}
	if cb.PartCount() != 1 {
		t.Fatalf("part count = %d after union", cb.PartCount())
	}
	if cb.VertexUses(4) != 2 {
		t.Fatalf("vertex 4 counted %d times after union", cb.VertexUses(4))
	}
	// 4 edges on the old part, 3 on the split part, plus the new shared edge.
	if got := cb.CurPart().NrEdges(); got != 8 {
		t.Fatalf("merged part has %d edges, want 8", got)
	}
	checkRing(t, cb)
}

func TestConnectForwardClosesTriangle(t *testing.T) {
	cb := cutborder.New(4, 16, 4)
	cb.Initial(data(0), data(1), data(2))

	_, op := cb.ConnectForward()
	if op != hry.OpCloseFwd {
		t.Fatalf("op = %s, want CLOSEFWD", op)
	}
	if !cb.AtEnd() {
		t.Fatal("not at end after closing the only triangle")
	}
	if op.Transmit() != hry.OpConnFwd {
		t.Fatal("meta close must transmit as CONNFWD")
	}
}

func TestPoolExhaustion(t *testing.T) {
	cb := cutborder.New(2, 3, 4)
	cb.Initial(data(0), data(1), data(2))

	defer func() {
		if r := recover(); r != hry.ErrPoolExhausted {
			t.Fatalf("recovered %v, want ErrPoolExhausted", r)
		}
	}()
	cb.NewVertex(data(3))
	t.Fatal("pool overflow not detected")
}

func TestSplitBehindCursorSwapsParts(t *testing.T) {
	cb := cutborder.New(4, 32, 10)
	seedRing(t, cb, 0, 1, 2, 3, 4, 5, 6, 7)

	// Vertex 5 sits closer through the prev chain: negative offset.
	op, i, _, _, found := cb.FindAndUpdate(data(5))
	if !found || op != hry.OpSplit {
		t.Fatalf("op = %s found=%v", op, found)
	}
	if i >= 0 {
		t.Fatalf("expected a negative split offset, got %d", i)
	}
	cb.PreserveOrder()
	checkRing(t, cb)
	if cb.PartCount() != 2 {
		t.Fatalf("part count = %d", cb.PartCount())
	}
}
