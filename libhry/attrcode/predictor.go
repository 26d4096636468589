package attrcode

import (
	"github.com/bubnikv/harry/hry"
	"github.com/bubnikv/harry/libhry/mesh"
	"github.com/bubnikv/harry/libhry/mixing"
)

// Predictor is the prediction state shared by the encoder and decoder:
// which vertices and faces have been emitted so far, and the candidate
// counters of the current prediction round. Candidates accumulate in the
// per-list cache cells; the selected prediction lands in the list's accu
// cell.
type Predictor struct {
	mesh *mesh.Mesh

	vtxEncoded  []bool
	faceEncoded []bool

	curParal int
	curNeigh int
	curHist  int
}

// NewPredictor sizes the encoded flags from the mesh's attribute store.
func NewPredictor(m *mesh.Mesh) *Predictor {
	return &Predictor{
		mesh:        m,
		vtxEncoded:  make([]bool, m.Attrs.NumVtx()),
		faceEncoded: make([]bool, m.Attrs.NumFace()),
	}
}

// tfan walks the triangle fan around the origin of ein: forward along
// ENext(Twin(e)); when a boundary stops the sweep, it restarts backward
// from EPrev(ein).
func (pc *Predictor) tfan(ein hry.FEPair, r hry.RegIdx, cb func(e hry.FEPair, r hry.RegIdx)) {
	conn := &pc.mesh.Conn

	e := ein
	for {
		cb(e, r)
		t := conn.Twin(e)
		if t == e {
			break
		}
		e = conn.ENext(t)
		if e == ein {
			return
		}
	}

	e = conn.EPrev(ein)
	t := conn.Twin(e)
	if e == t {
		return
	}
	e = t
	for {
		cb(e, r)
		e = conn.EPrev(e)
		t = conn.Twin(e)
		if e == t {
			break
		}
		e = t
		if e == ein {
			break
		}
	}
}

// useParal adds one parallelogram candidate (v0 + v1 - vo) for every
// vertex list bound to region r, provided all three sources are encoded
// and share the region.
func (pc *Predictor) useParal(v0, v1, vo hry.VtxIdx, r hry.RegIdx) {
	if !pc.vtxEncoded[v0] || !pc.vtxEncoded[v1] || !pc.vtxEncoded[vo] {
		return
	}
	at := &pc.mesh.Attrs
	if at.Vtx2Reg(v0) != r || at.Vtx2Reg(v1) != r || at.Vtx2Reg(vo) != r {
		return
	}

	for a := 0; a < at.NumBindingsVtxReg(r); a++ {
		l := at.BindingRegVtxList(r, a)
		list := at.List(l)
		d0 := list.View(at.BindingVtxAttr(v0, a))
		d1 := list.View(at.BindingVtxAttr(v1, a))
		dop := list.View(at.BindingVtxAttr(vo, a))
		q := list.Quant
		list.Cache(pc.curParal).Set3(func(a, b, c mixing.Value) mixing.Value {
			return Predict(a, b, c, q)
		}, d0, d1, dop)
	}
	pc.curParal++
}

// paral extracts the parallelogram candidates one face contributes for
// the vertex at the origin of ein: the opposing parallelogram for a
// triangle (through its twin), the far corner for a quad, and two
// candidates for pentagons and larger.
func (pc *Predictor) paral(ein hry.FEPair, r hry.RegIdx) {
	conn := &pc.mesh.Conn
	if conn.NumEdges(ein.F) == 3 {
		e := conn.ENext(ein)
		t := conn.Twin(e)
		if t == e {
			return
		}
		e = conn.ENext(conn.ENext(t))
		pc.useParal(conn.Org(t), conn.Dest(t), conn.Org(e), r)
		return
	}
	e0 := conn.ENext(ein)
	e1 := conn.EPrev(ein)
	pc.useParal(conn.Org(e0), conn.Org(e1), conn.Dest(e0), r)
	if conn.NumEdges(ein.F) > 4 {
		pc.useParal(conn.Org(e0), conn.Org(e1), conn.Org(conn.EPrev(e1)), r)
	}
}

// useCorner adds the corner attribute bound at e as a candidate for
// every corner list of region r, if e's face was already emitted.
func (pc *Predictor) useCorner(e hry.FEPair, r hry.RegIdx) {
	f := e.F
	if !pc.faceEncoded[f] {
		return
	}
	at := &pc.mesh.Attrs
	if at.Face2Reg(f) != r {
		return
	}

	for a := 0; a < at.NumBindingsCornerReg(r); a++ {
		l := at.BindingRegCornerList(r, a)
		list := at.List(l)
		d0 := list.View(at.BindingCornerAttr(f, e.E, a))
		q := list.Quant
		list.Cache(pc.curHist).Set1(func(v mixing.Value) mixing.Value {
			return PredictFace(v, q)
		}, d0)
	}
	pc.curHist++
}

// useNeigh adds face f's attribute as a candidate for every face list of
// region r, if f was already emitted.
func (pc *Predictor) useNeigh(f hry.FaceIdx, r hry.RegIdx) {
	if !pc.faceEncoded[f] {
		return
	}
	at := &pc.mesh.Attrs
	if at.Face2Reg(f) != r {
		return
	}

	for a := 0; a < at.NumBindingsFaceReg(r); a++ {
		l := at.BindingRegFaceList(r, a)
		list := at.List(l)
		d0 := list.View(at.BindingFaceAttr(f, a))
		q := list.Quant
		list.Cache(pc.curNeigh).Set1(func(v mixing.Value) mixing.Value {
			return PredictFace(v, q)
		}, d0)
	}
	pc.curNeigh++
}

// neighs walks e's face cycle and gathers each real neighbor face.
func (pc *Predictor) neighs(e hry.FEPair, r hry.RegIdx) {
	conn := &pc.mesh.Conn
	cur := e
	for {
		n := conn.Twin(cur)
		if n != cur {
			pc.useNeigh(n.F, r)
		}
		cur = conn.ENext(cur)
		if cur == e {
			return
		}
	}
}

// getPrediction folds the n gathered candidates of list l into the accu
// cell: the component-wise mean, except that floating components under
// active quantization snap to the candidate closest to the mean (first
// seen wins ties). No candidates predict zero.
func (pc *Predictor) getPrediction(l hry.ListIdx, n int) {
	list := pc.mesh.Attrs.List(l)

	avg := list.Big()
	avg.SetZero()
	for i := 0; i < n; i++ {
		avg.Set2(func(a, b mixing.Value) mixing.Value { return a.Add(b) }, avg, list.Cache(i))
	}
	if n > 0 {
		avg.Set1(func(a mixing.Value) mixing.Value { return a.DivRound(int64(n)) }, avg)
	}

	res := list.Accu()
	if n == 0 {
		res.SetZero()
		return
	}
	res.Assign(avg)

	if list.Quant > 0 {
		for c := range res {
			if !res[c].K.IsFloat() {
				continue
			}
			best := list.Cache(0)[c]
			bestDiff := best.AbsDiff(avg[c])
			for i := 1; i < n; i++ {
				cand := list.Cache(i)[c]
				if d := cand.AbsDiff(avg[c]); d < bestDiff {
					best, bestDiff = cand, d
				}
			}
			res[c] = best
		}
	}
}

// Vtx gathers the parallelogram predictions for the vertex at the origin
// of (f, le), marks it encoded, and selects one prediction per bound
// vertex list.
func (pc *Predictor) Vtx(f hry.FaceIdx, le hry.LEdgeIdx) {
	e := hry.FEPair{F: f, E: le}
	v := pc.mesh.Conn.Org(e)
	r := pc.mesh.Attrs.Vtx2Reg(v)

	pc.curParal = 0
	pc.tfan(e, r, pc.paral)
	pc.vtxEncoded[v] = true
	n := pc.curParal

	at := &pc.mesh.Attrs
	for a := 0; a < at.NumBindingsVtxReg(r); a++ {
		pc.getPrediction(at.BindingRegVtxList(r, a), n)
	}
}

// Face gathers the face-neighborhood predictions for f, marks it
// encoded, and selects one prediction per bound face list.
func (pc *Predictor) Face(f hry.FaceIdx, le hry.LEdgeIdx) {
	r := pc.mesh.Attrs.Face2Reg(f)
	e := hry.FEPair{F: f, E: le}

	pc.curNeigh = 0
	pc.neighs(e, r)
	pc.faceEncoded[f] = true
	n := pc.curNeigh

	at := &pc.mesh.Attrs
	for a := 0; a < at.NumBindingsFaceReg(r); a++ {
		pc.getPrediction(at.BindingRegFaceList(r, a), n)
	}
}

// Corner gathers the corner-fan predictions for corner (f, le). Must run
// after Face for the same face; the face is unflagged for the duration
// of the walk so only earlier faces contribute.
func (pc *Predictor) Corner(f hry.FaceIdx, le hry.LEdgeIdx) {
	r := pc.mesh.Attrs.Face2Reg(f)
	e := hry.FEPair{F: f, E: le}

	pc.curHist = 0
	if !pc.faceEncoded[f] {
		panic(hry.ErrInternal)
	}
	pc.faceEncoded[f] = false
	pc.tfan(e, r, pc.useCorner)
	pc.faceEncoded[f] = true
	n := pc.curHist

	at := &pc.mesh.Attrs
	for a := 0; a < at.NumBindingsCornerReg(r); a++ {
		pc.getPrediction(at.BindingRegCornerList(r, a), n)
	}
}
