package attrcode_test

import (
	"testing"

	"github.com/bubnikv/harry/hry"
	"github.com/bubnikv/harry/libhry/attrcode"
	"github.com/bubnikv/harry/libhry/mesh"
	"github.com/bubnikv/harry/libhry/meshtext"
	"github.com/bubnikv/harry/libhry/mixing"
)

func loadMesh(t *testing.T, src string) *mesh.Mesh {
	t.Helper()
	m, err := meshtext.LoadString(src)
	if err != nil {
		t.Fatal(err)
	}
	return m
}

// Two triangles sharing an edge: the fourth vertex gets a one-candidate
// parallelogram prediction from the first triangle.
func TestParallelogramAcrossSharedEdge(t *testing.T) {
	m := loadMesh(t, `
list int:1
region vtx 0
v 0 10
v 0 20
v 0 30
v 0 100
f 0 0 1 2
f 0 2 1 3
`)
	pc := attrcode.NewPredictor(m)
	pc.Vtx(0, 0)
	pc.Vtx(0, 1)
	pc.Vtx(0, 2)
	// Vertex 3 is the origin of local edge 2 of face 1.
	pc.Vtx(1, 2)

	pred := m.Attrs.List(0).Accu()[0]
	if pred.I != 40 { // 20 + 30 - 10
		t.Fatalf("prediction = %d, want 40", pred.I)
	}
}

// A quad contributes exactly one parallelogram for its own fourth
// vertex: far corner against the two adjacent ones.
func TestQuadParallelogram(t *testing.T) {
	m := loadMesh(t, `
list int:1
region vtx 0
v 0 10
v 0 20
v 0 30
v 0 77
f 0 0 1 2 3
`)
	pc := attrcode.NewPredictor(m)
	pc.Vtx(0, 0)
	pc.Vtx(0, 1)
	pc.Vtx(0, 2)
	pc.Vtx(0, 3)

	pred := m.Attrs.List(0).Accu()[0]
	if pred.I != 20 { // 10 + 30 - 20
		t.Fatalf("prediction = %d, want 20", pred.I)
	}
}

// A pentagon contributes two parallelograms; the integer prediction is
// their rounded mean.
func TestPentagonTwoParallelograms(t *testing.T) {
	m := loadMesh(t, `
list int:1
region vtx 0
v 0 10
v 0 20
v 0 30
v 0 100
v 0 0
f 0 0 1 2 3 4
`)
	pc := attrcode.NewPredictor(m)
	pc.Vtx(0, 0)
	pc.Vtx(0, 1)
	pc.Vtx(0, 2)
	pc.Vtx(0, 3)
	pc.Vtx(0, 4)

	// Candidates: 10+100-20 = 90 and 10+100-30 = 80; mean 85.
	pred := m.Attrs.List(0).Accu()[0]
	if pred.I != 85 {
		t.Fatalf("prediction = %d, want 85", pred.I)
	}
}

// With no encoded neighbors the prediction is zero.
func TestNoCandidatesPredictsZero(t *testing.T) {
	m := loadMesh(t, `
list int:1
region vtx 0
v 0 10
v 0 20
v 0 30
f 0 0 1 2
`)
	pc := attrcode.NewPredictor(m)
	pc.Vtx(0, 0)

	pred := m.Attrs.List(0).Accu()[0]
	if pred.I != 0 {
		t.Fatalf("prediction = %d, want 0", pred.I)
	}
}

// recWriter records the attribute symbol stream.
type recWriter struct {
	syms []string
	data []int64
	hist []hry.AttrIdx
}

func (w *recWriter) RegVtx(r hry.RegIdx)  { w.syms = append(w.syms, "regv") }
func (w *recWriter) RegFace(r hry.RegIdx) { w.syms = append(w.syms, "regf") }

func (w *recWriter) AttrData(v mixing.View, l hry.ListIdx) {
	w.syms = append(w.syms, "data")
	w.data = append(w.data, v[0].I)
}

func (w *recWriter) AttrGHist(off hry.AttrIdx, l hry.ListIdx) {
	w.syms = append(w.syms, "hist")
	w.hist = append(w.hist, off)
}

// Two vertices sharing one attribute slot: the second emission is a
// history hit at offset zero.
func TestHistoryHit(t *testing.T) {
	m := loadMesh(t, `
list int:1
region vtx 0
v 0 10
v 0 10
v 0 30
f 0 0 1 2
`)
	wr := &recWriter{}
	ac := attrcode.NewCoder(m, wr)
	ac.Vtx(0, 0)
	ac.Vtx(0, 1)
	ac.Vtx(0, 2)
	ac.Encode(hry.NopProgress{})

	want := []string{"regv", "data", "regv", "hist", "regv", "data"}
	if len(wr.syms) != len(want) {
		t.Fatalf("symbols = %v", wr.syms)
	}
	for i := range want {
		if wr.syms[i] != want[i] {
			t.Fatalf("symbol %d = %s, want %s", i, wr.syms[i], want[i])
		}
	}
	if wr.hist[0] != 0 {
		t.Fatalf("history offset = %d, want 0", wr.hist[0])
	}
	// First DATA carries the raw value: nothing was encoded before it.
	if wr.data[0] != 10 {
		t.Fatalf("first residual = %d, want 10", wr.data[0])
	}
}
