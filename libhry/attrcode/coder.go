// Package attrcode encodes and decodes mesh attributes along the
// emission order produced by the cut-border traversal: each attribute
// binding becomes either a quantized residual against a spatial
// prediction or a back-reference into the list's global history.
package attrcode

import (
	"github.com/bubnikv/harry/hry"
	"github.com/bubnikv/harry/libhry/mesh"
	"github.com/bubnikv/harry/libhry/mixing"
)

// Writer receives the attribute symbol stream.
type Writer interface {
	RegVtx(r hry.RegIdx)
	RegFace(r hry.RegIdx)
	AttrData(v mixing.View, l hry.ListIdx)
	AttrGHist(off hry.AttrIdx, l hry.ListIdx)
}

// Coder runs the two-phase attribute encode: the traversal feeds the
// vertex and face emission order through Vtx/Face, then Encode replays
// the order, predicts each element from its already-emitted neighbors,
// and writes DATA or HIST symbols.
type Coder struct {
	pred *Predictor

	mesh *mesh.Mesh
	wr   Writer

	ghist  []GlobalHistory
	order  []hry.FEPair
	orderF []hry.FEPair
}

// NewCoder sizes one global history per attribute list.
func NewCoder(m *mesh.Mesh, wr Writer) *Coder {
	ac := &Coder{
		pred:  NewPredictor(m),
		mesh:  m,
		wr:    wr,
		ghist: make([]GlobalHistory, m.Attrs.Size()),
	}
	for i := range ac.ghist {
		ac.ghist[i].Resize(m.Attrs.List(hry.ListIdx(i)).Size())
	}
	return ac
}

// Vtx records a vertex emission: the half-edge whose origin is the
// newly reached vertex.
func (ac *Coder) Vtx(f hry.FaceIdx, le hry.LEdgeIdx) {
	ac.order = append(ac.order, hry.FEPair{F: f, E: le})
}

// Face records a face emission at its gate half-edge.
func (ac *Coder) Face(f hry.FaceIdx, le hry.LEdgeIdx) {
	ac.orderF = append(ac.orderF, hry.FEPair{F: f, E: le})
}

// emit writes one binding: DATA with the residual against the prediction
// sitting in the list's accu cell, or HIST with the history offset.
func (ac *Coder) emit(l hry.ListIdx, idx hry.AttrIdx) {
	tidx := ac.ghist[l].LGetSet(idx)
	if tidx == hry.AttrUnset {
		list := ac.mesh.Attrs.List(l)
		q := list.Quant
		res := list.Accu()
		res.Set2(func(raw, pred mixing.Value) mixing.Value {
			return EncodeDelta(raw, pred, q)
		}, list.View(idx), res)
		ac.wr.AttrData(res, l)
	} else {
		ac.wr.AttrGHist(tidx, l)
	}
}

func (ac *Coder) vtxPost(f hry.FaceIdx, le hry.LEdgeIdx) {
	e := hry.FEPair{F: f, E: le}
	v := ac.mesh.Conn.Org(e)
	r := ac.mesh.Attrs.Vtx2Reg(v)

	ac.pred.Vtx(f, le)
	ac.wr.RegVtx(r)

	at := &ac.mesh.Attrs
	for a := 0; a < at.NumBindingsVtxReg(r); a++ {
		ac.emit(at.BindingRegVtxList(r, a), at.BindingVtxAttr(v, a))
	}
}

func (ac *Coder) facePost(f hry.FaceIdx, le hry.LEdgeIdx) {
	r := ac.mesh.Attrs.Face2Reg(f)

	ac.pred.Face(f, le)
	ac.wr.RegFace(r)

	at := &ac.mesh.Attrs
	for a := 0; a < at.NumBindingsFaceReg(r); a++ {
		ac.emit(at.BindingRegFaceList(r, a), at.BindingFaceAttr(f, a))
	}
}

func (ac *Coder) cornerPost(f hry.FaceIdx, le hry.LEdgeIdx) {
	r := ac.mesh.Attrs.Face2Reg(f)

	ac.pred.Corner(f, le)

	at := &ac.mesh.Attrs
	for a := 0; a < at.NumBindingsCornerReg(r); a++ {
		ac.emit(at.BindingRegCornerList(r, a), at.BindingCornerAttr(f, le, a))
	}
}

// Encode replays the captured orders: vertices first, then faces, each
// face followed by its corners in cyclic order from the gate edge.
func (ac *Coder) Encode(prog hry.Progress) {
	prog.Start(len(ac.order))
	for i, e := range ac.order {
		ac.vtxPost(e.F, e.E)
		prog.Tick(i)
	}
	for _, e := range ac.orderF {
		ac.facePost(e.F, e.E)
		ne := ac.mesh.Conn.NumEdges(e.F)
		c := e.E
		for {
			ac.cornerPost(e.F, c)
			c++
			if int(c) == ne {
				c = 0
			}
			if c == e.E {
				break
			}
		}
	}
	prog.End()
}
