package libhry

import (
	"bytes"
	"io"
	"runtime"

	"github.com/pkg/errors"

	"github.com/bubnikv/harry/hry"
	"github.com/bubnikv/harry/libhry/attrcode"
	"github.com/bubnikv/harry/libhry/cutborder"
	"github.com/bubnikv/harry/libhry/mesh"
	"github.com/bubnikv/harry/libhry/wire"
)

// EncodeOpts bounds the traversal pools. Zero values pick defaults
// derived from the vertex count; exceeding a bound is a hard error.
type EncodeOpts struct {
	MaxParts int
	MaxElems int
}

func (o EncodeOpts) withDefaults(nv int) EncodeOpts {
	if o.MaxElems == 0 {
		o.MaxElems = 2*nv + 16
	}
	if o.MaxParts == 0 {
		o.MaxParts = nv/2 + 8
	}
	return o
}

// Encoder walks a mesh in canonical traversal order, emits the
// boundary opcode stream, and drives the attribute coder.
type Encoder struct {
	mesh *mesh.Mesh
	opts EncodeOpts

	wr *wire.Writer
	cb *cutborder.CutBorder
	ac *attrcode.Coder

	faceDone []bool
	vtxOrd   []int32 // emission-order index per vertex, -1 before first sight
	nextOrd  int32
	pending  int // buffered BORDER ops; dropped when a component ends
}

// NewEncoder prepares an encoder for m. The mesh is exclusively owned
// by the encoder until Encode returns.
func NewEncoder(m *mesh.Mesh, opts EncodeOpts) *Encoder {
	enc := &Encoder{
		mesh:     m,
		opts:     opts.withDefaults(m.Conn.NumVtx()),
		faceDone: make([]bool, m.Conn.NumFaces()),
		vtxOrd:   make([]int32, m.Conn.NumVtx()),
	}
	for i := range enc.vtxOrd {
		enc.vtxOrd[i] = -1
	}
	return enc
}

func recoverCodec(err *error) {
	r := recover()
	if r == nil {
		return
	}
	if re, ok := r.(runtime.Error); ok {
		*err = errors.Wrap(hry.ErrDataFormat, re.Error())
		return
	}
	if e, ok := r.(error); ok {
		*err = e
		return
	}
	panic(r)
}

// Encode writes the container header, the opcode stream, and the
// attribute symbols for the whole mesh to w. The stream is assembled in
// memory first, so a failed encode writes nothing to w.
func (enc *Encoder) Encode(w io.Writer, prog hry.Progress) (err error) {
	defer recoverCodec(&err)
	if prog == nil {
		prog = hry.NopProgress{}
	}
	if err := enc.mesh.Conn.Build(); err != nil {
		return err
	}

	enc.cb = cutborder.New(enc.opts.MaxParts, enc.opts.MaxElems, enc.mesh.Conn.NumVtx())
	var body bytes.Buffer
	enc.wr = wire.NewWriter(&body)
	enc.wr.SetLists(listInfos(enc.mesh))
	enc.ac = attrcode.NewCoder(enc.mesh, enc.wr)

	enc.wr.Raw(appendHeader(nil, enc.mesh))

	for f := 0; f < enc.mesh.Conn.NumFaces(); f++ {
		if !enc.faceDone[f] {
			enc.encodeComponent(hry.FaceIdx(f))
		}
	}
	if int(enc.nextOrd) != enc.mesh.Conn.NumVtx() {
		return errors.Wrap(hry.ErrBadMesh, "mesh has vertices no face references")
	}
	enc.pending = 0
	enc.wr.IOp(hry.IOpEOM)

	enc.ac.Encode(prog)
	if err := enc.wr.Flush(); err != nil {
		return err
	}
	_, err = w.Write(body.Bytes())
	return err
}

func (enc *Encoder) flushBorders() {
	for ; enc.pending > 0; enc.pending-- {
		enc.wr.Op(hry.OpBorder)
	}
}

func (enc *Encoder) heAt(g hry.FEPair, k int) hry.FEPair {
	d := enc.mesh.Conn.NumEdges(g.F)
	return hry.FEPair{F: g.F, E: hry.LEdgeIdx((int(g.E) + k) % d)}
}

func (enc *Encoder) encodeComponent(seed hry.FaceIdx) {
	conn := &enc.mesh.Conn
	enc.pending = 0 // trailing borders of the previous component are elided

	d := conn.NumEdges(seed)
	vs := conn.FaceVtx(seed)
	mask := 0
	for k := 0; k < 3; k++ {
		if enc.vtxOrd[vs[k]] >= 0 {
			mask |= 1 << k
		}
	}
	enc.wr.IOp(hry.InitOpForMask(mask))
	enc.wr.FaceDegree(d)
	for k := 0; k < 3; k++ {
		if mask&(1<<k) != 0 {
			enc.wr.VtxRef(int(enc.vtxOrd[vs[k]]))
		} else {
			enc.vtxOrd[vs[k]] = enc.nextOrd
			enc.nextOrd++
			enc.ac.Vtx(seed, hry.LEdgeIdx(k))
		}
	}
	enc.cb.Initial(
		cutborder.Data{Vtx: vs[0], Edge: hry.FEPair{F: seed, E: 0}},
		cutborder.Data{Vtx: vs[1], Edge: hry.FEPair{F: seed, E: 1}},
		cutborder.Data{Vtx: vs[2], Edge: hry.FEPair{F: seed, E: 2}},
	)
	for k := 3; k < d; k++ {
		v := vs[k]
		if enc.cb.OnCutBorder(v) {
			panic(errors.Wrap(hry.ErrBadMesh, "seed face repeats a vertex"))
		}
		if enc.vtxOrd[v] >= 0 {
			enc.wr.Op(hry.OpNM)
			enc.wr.VtxRef(int(enc.vtxOrd[v]))
		} else {
			enc.wr.Op(hry.OpAddVtx)
			enc.vtxOrd[v] = enc.nextOrd
			enc.nextOrd++
			enc.ac.Vtx(seed, hry.LEdgeIdx(k))
		}
		enc.cb.NewVertex(cutborder.Data{Vtx: v, Edge: hry.FEPair{F: seed, E: hry.LEdgeIdx(k)}})
	}
	enc.ac.Face(seed, 0)
	enc.faceDone[seed] = true

	for !enc.cb.AtEnd() {
		enc.cb.PreserveOrder()
		cur := enc.cb.Cur()
		h := cur.Data.Edge
		g := conn.Twin(h)
		if g == h || enc.faceDone[g.F] {
			// mesh boundary, non-manifold edge, or a face reached twice
			enc.pending++
			enc.cb.Border()
			continue
		}
		enc.flushBorders()
		enc.encodeFace(g)
	}
}

// encodeFace consumes the gate face across g: one opcode per face
// vertex beyond the gate edge, with the face degree written after the
// first of them.
func (enc *Encoder) encodeFace(g hry.FEPair) {
	conn := &enc.mesh.Conn
	fg := g.F
	d := conn.NumEdges(fg)
	first := true

	for i := 1; i <= d-2; i++ {
		orgHE := enc.heAt(g, i+1) // half-edge whose origin is the vertex
		inHE := enc.heAt(g, i)
		outHE := enc.heAt(g, d-1)
		enc.encodeFaceVertex(fg, d, conn.Org(orgHE), orgHE, inHE, outHE, &first)
	}

	enc.ac.Face(fg, g.E)
	enc.faceDone[fg] = true
}

func (enc *Encoder) encodeFaceVertex(fg hry.FaceIdx, d int, wi hry.VtxIdx, orgHE, inHE, outHE hry.FEPair, first *bool) {
	cb := enc.cb
	curBefore := cb.Cur()
	dd := cutborder.Data{Vtx: wi, Edge: outHE}

	writeOp := func(op hry.Op) {
		enc.wr.Op(op)
		if *first {
			enc.wr.FaceDegree(d)
			*first = false
		}
	}

	if !cb.OnCutBorder(wi) {
		if enc.vtxOrd[wi] >= 0 {
			writeOp(hry.OpNM)
			enc.wr.VtxRef(int(enc.vtxOrd[wi]))
		} else {
			writeOp(hry.OpAddVtx)
			enc.vtxOrd[wi] = enc.nextOrd
			enc.nextOrd++
			enc.ac.Vtx(fg, orgHE.E)
		}
		cb.NewVertex(dd)
		curBefore.Data.Edge = inHE
		return
	}

	if d == 3 {
		op, i, p, elem, found := cb.FindAndUpdate(dd)
		if !found {
			panic(hry.ErrInternal)
		}
		writeOp(op)
		switch op {
		case hry.OpConnFwd:
			cb.Cur().Data.Edge = inHE
		case hry.OpConnBwd:
			cb.Cur().Data.Edge = outHE
		case hry.OpCloseFwd, hry.OpCloseBwd:
			// part destroyed, nothing to attach
		case hry.OpSplit:
			enc.wr.SplitOffset(i)
			curBefore.Data.Edge = inHE
			elem.Data.Edge = outHE
		case hry.OpUnion:
			enc.wr.UnionRef(p, i)
			curBefore.Data.Edge = inHE
			elem.Data.Edge = outHE
		default:
			panic(hry.ErrInternal)
		}
		return
	}

	// Polygonal gate faces re-enter the border only through splits and
	// unions; the connect shortcuts are triangle geometry.
	i, p := cb.FindElement(wi)
	if p > 0 {
		elem, res := cb.CutBorderUnion(i, p)
		if res.Vtx != wi {
			panic(hry.ErrInternal)
		}
		writeOp(hry.OpUnion)
		enc.wr.UnionRef(p, i)
		curBefore.Data.Edge = inHE
		elem.Data.Edge = outHE
		cb.MoveTo(elem)
		return
	}
	if i == 0 {
		panic(hry.ErrInternal)
	}
	elem, res := cb.SplitCutBorder(i)
	if res.Vtx != wi {
		panic(hry.ErrInternal)
	}
	writeOp(hry.OpSplit)
	enc.wr.SplitOffset(i)
	curBefore.Data.Edge = inHE
	elem.Data.Edge = outHE
}
