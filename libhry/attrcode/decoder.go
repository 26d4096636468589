package attrcode

import (
	"github.com/bubnikv/harry/hry"
	"github.com/bubnikv/harry/libhry/mesh"
	"github.com/bubnikv/harry/libhry/mixing"
)

// Reader supplies the attribute symbol stream.
type Reader interface {
	RegVtx() hry.RegIdx
	RegFace() hry.RegIdx
	AttrType(l hry.ListIdx) hry.AttrSym
	AttrData(v mixing.View, l hry.ListIdx)
	AttrGHist(l hry.ListIdx) hry.AttrIdx
}

// Decoder mirrors Coder: the connectivity decode feeds the vertex
// emission order through Vtx, then Decode reads one symbol per binding,
// reconstructs values from residuals, and resolves history
// back-references. Face order is implicit: faces are discovered in
// 0..numFaces-1 order with the gate at local edge 0.
type Decoder struct {
	pred *Predictor

	builder *mesh.Builder
	rd      Reader

	curIdx []hry.AttrIdx
	order  []hry.FEPair
}

// NewDecoder wires a builder whose mesh already carries the attribute
// lists and region schemas from the container header.
func NewDecoder(b *mesh.Builder, rd Reader) *Decoder {
	return &Decoder{
		pred:    NewPredictor(b.Mesh),
		builder: b,
		rd:      rd,
		curIdx:  make([]hry.AttrIdx, b.Mesh.Attrs.Size()),
	}
}

// Vtx records a vertex emission during the connectivity decode.
func (ad *Decoder) Vtx(f hry.FaceIdx, le hry.LEdgeIdx) {
	ad.order = append(ad.order, hry.FEPair{F: f, E: le})
}

// fetch resolves one binding symbol: DATA allocates the next slot of the
// list and reconstructs the value from the residual and the prediction
// in the accu cell; HIST resolves the relative back-reference. LHIST is
// reserved and rejected.
func (ad *Decoder) fetch(l hry.ListIdx) hry.AttrIdx {
	at := &ad.builder.Mesh.Attrs
	switch ad.rd.AttrType(l) {
	case hry.SymData:
		idx := ad.curIdx[l]
		ad.curIdx[l]++
		list := at.List(l)
		cell := list.View(idx)
		ad.rd.AttrData(cell, l)
		q := list.Quant
		cell.Set2(func(delta, pred mixing.Value) mixing.Value {
			return DecodeDelta(delta, pred, q)
		}, cell, list.Accu())
		return idx
	case hry.SymHist:
		return ad.curIdx[l] - 1 - ad.rd.AttrGHist(l)
	}
	panic(hry.ErrDataFormat)
}

func (ad *Decoder) vtxPost(f hry.FaceIdx, le hry.LEdgeIdx) {
	e := hry.FEPair{F: f, E: le}
	v := ad.builder.Mesh.Conn.Org(e)
	r := ad.rd.RegVtx()
	ad.builder.VtxReg(v, r)

	ad.pred.Vtx(f, le)

	at := &ad.builder.Mesh.Attrs
	for a := 0; a < at.NumBindingsVtxReg(r); a++ {
		ad.builder.BindVtxAttr(v, a, ad.fetch(at.BindingRegVtxList(r, a)))
	}
}

func (ad *Decoder) facePost(f hry.FaceIdx, le hry.LEdgeIdx) {
	r := ad.rd.RegFace()
	ad.builder.FaceReg(f, r)

	ad.pred.Face(f, le)

	at := &ad.builder.Mesh.Attrs
	for a := 0; a < at.NumBindingsFaceReg(r); a++ {
		ad.builder.BindFaceAttr(f, a, ad.fetch(at.BindingRegFaceList(r, a)))
	}
}

func (ad *Decoder) cornerPost(f hry.FaceIdx, le hry.LEdgeIdx) {
	r := ad.builder.Mesh.Attrs.Face2Reg(f) // already read by facePost

	ad.pred.Corner(f, le)

	at := &ad.builder.Mesh.Attrs
	for a := 0; a < at.NumBindingsCornerReg(r); a++ {
		ad.builder.BindCornerAttr(f, le, a, ad.fetch(at.BindingRegCornerList(r, a)))
	}
}

// Decode replays the captured vertex order, then every face with its
// corners in local-edge order.
func (ad *Decoder) Decode(prog hry.Progress) {
	prog.Start(len(ad.order))
	for i, e := range ad.order {
		ad.vtxPost(e.F, e.E)
		prog.Tick(i)
	}
	nf := ad.builder.Mesh.Attrs.NumFace()
	for f := 0; f < nf; f++ {
		ad.facePost(hry.FaceIdx(f), 0)
		ne := ad.builder.Mesh.Conn.NumEdges(hry.FaceIdx(f))
		for c := 0; c < ne; c++ {
			ad.cornerPost(hry.FaceIdx(f), hry.LEdgeIdx(c))
		}
	}
	prog.End()
}
