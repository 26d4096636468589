package libhry

import (
	"io"

	"github.com/pkg/errors"

	"github.com/bubnikv/harry/hry"
	"github.com/bubnikv/harry/libhry/attrcode"
	"github.com/bubnikv/harry/libhry/cutborder"
	"github.com/bubnikv/harry/libhry/mesh"
	"github.com/bubnikv/harry/libhry/wire"
)

// Decoder mirrors the encoder: it replays the opcode stream against its
// own cut border to rebuild connectivity, then runs the attribute
// decoder over the captured emission order.
type Decoder struct {
	rd      *wire.Reader
	builder *mesh.Builder
	cb      *cutborder.CutBorder
	ad      *attrcode.Decoder

	nextVtx hry.VtxIdx
	nv, nf  int
}

// Decode reads one encoded mesh from r.
func Decode(r io.Reader, prog hry.Progress) (m *mesh.Mesh, err error) {
	defer recoverCodec(&err)
	if prog == nil {
		prog = hry.NopProgress{}
	}

	rd := wire.NewReader(r)
	builder, infos, nv, nf, err := decodeHeader(rd)
	if err != nil {
		return nil, err
	}
	rd.SetLists(infos)

	pool := EncodeOpts{}.withDefaults(nv)
	dec := &Decoder{
		rd:      rd,
		builder: builder,
		cb:      cutborder.New(pool.MaxParts, pool.MaxElems, nv),
		nv:      nv,
		nf:      nf,
	}
	dec.ad = attrcode.NewDecoder(builder, rd)

	for {
		isInit, op, iop := dec.rd.NextSym()
		if dec.rd.Err() != nil {
			return nil, dec.rd.Err()
		}
		if isInit {
			if iop == hry.IOpEOM {
				break
			}
			dec.seed(iop)
			continue
		}
		if dec.cb.AtEnd() {
			return nil, errors.Wrap(hry.ErrDataFormat, "op with no open part")
		}
		// One transmitted top-level op corresponds to one encoder
		// traversal step, which consumes any deferred part swap first.
		dec.cb.PreserveOrder()
		if op == hry.OpBorder {
			dec.cb.Border()
			continue
		}
		dec.face(op)
	}

	if int(dec.nextVtx) != nv || builder.Mesh.Conn.NumFaces() != nf {
		return nil, errors.Wrap(hry.ErrDataFormat, "element counts disagree with header")
	}
	if err := builder.Mesh.Conn.Build(); err != nil {
		return nil, err
	}

	dec.ad.Decode(prog)
	if dec.rd.Err() != nil {
		return nil, dec.rd.Err()
	}
	return builder.Mesh, nil
}

// nextOp reads an opcode that must not start a new component.
func (dec *Decoder) nextOp() hry.Op {
	isInit, op, _ := dec.rd.NextSym()
	if isInit {
		panic(errors.Wrap(hry.ErrDataFormat, "seed op inside a face run"))
	}
	return op
}

// seed rebuilds a component seed face. Any boundary state left from the
// previous component corresponds to its elided trailing border run and
// is discarded wholesale.
func (dec *Decoder) seed(iop hry.InitOp) {
	dec.cb.Reset()

	deg := dec.faceDegree()
	mask := iop.Mask()
	cycle := make([]hry.VtxIdx, 0, deg)
	var newLEs []hry.LEdgeIdx

	for k := 0; k < 3; k++ {
		if mask&(1<<k) != 0 {
			cycle = append(cycle, dec.vtxRef())
		} else {
			cycle = append(cycle, dec.nextVtx)
			newLEs = append(newLEs, hry.LEdgeIdx(k))
			dec.nextVtx++
		}
	}
	dec.cb.Initial(
		cutborder.Data{Vtx: cycle[0]},
		cutborder.Data{Vtx: cycle[1]},
		cutborder.Data{Vtx: cycle[2]},
	)

	for k := 3; k < deg; k++ {
		var v hry.VtxIdx
		switch op := dec.nextOp(); op {
		case hry.OpAddVtx:
			v = dec.nextVtx
			dec.nextVtx++
			newLEs = append(newLEs, hry.LEdgeIdx(k))
		case hry.OpNM:
			v = dec.vtxRef()
		default:
			panic(errors.Wrapf(hry.ErrDataFormat, "op %s in a seed face", op))
		}
		cycle = append(cycle, v)
		dec.cb.NewVertex(cutborder.Data{Vtx: v})
	}

	f := dec.builder.AddFace(cycle)
	for _, le := range newLEs {
		dec.ad.Vtx(f, le)
	}
}

// face rebuilds one gate face from its opcode run. The cursor edge
// provides the gate vertices; the face cycle starts at the gate so
// local edge 0 matches the encoder's gate half-edge.
func (dec *Decoder) face(op1 hry.Op) {
	deg := dec.faceDegree()
	v0, v1 := dec.cb.TraverseStep()
	cycle := make([]hry.VtxIdx, 0, deg)
	cycle = append(cycle, v1.Vtx, v0.Vtx)
	var newLEs []hry.LEdgeIdx

	op := op1
	for i := 1; i <= deg-2; i++ {
		if i > 1 {
			op = dec.nextOp()
		}
		var v hry.VtxIdx
		switch op {
		case hry.OpAddVtx:
			v = dec.nextVtx
			dec.nextVtx++
			newLEs = append(newLEs, hry.LEdgeIdx(i+1))
			dec.cb.NewVertex(cutborder.Data{Vtx: v})
		case hry.OpNM:
			v = dec.vtxRef()
			dec.cb.NewVertex(cutborder.Data{Vtx: v})
		case hry.OpConnFwd:
			v = dec.cb.Cur().Next().Next().Data.Vtx
			dec.cb.ConnectForward()
		case hry.OpConnBwd:
			v = dec.cb.Cur().Prev().Data.Vtx
			dec.cb.ConnectBackward()
		case hry.OpSplit:
			off := dec.rd.SplitOffset()
			_, res := dec.cb.SplitCutBorder(off)
			v = res.Vtx
		case hry.OpUnion:
			p, off := dec.rd.UnionRef()
			elem, res := dec.cb.CutBorderUnion(off, p)
			v = res.Vtx
			if deg > 3 {
				dec.cb.MoveTo(elem)
			}
		default:
			panic(errors.Wrapf(hry.ErrDataFormat, "op %s in a face run", op))
		}
		cycle = append(cycle, v)
	}

	f := dec.builder.AddFace(cycle)
	for _, le := range newLEs {
		dec.ad.Vtx(f, le)
	}
}

func (dec *Decoder) faceDegree() int {
	deg := dec.rd.FaceDegree()
	if deg < 3 || deg > dec.nv {
		panic(errors.Wrap(hry.ErrDataFormat, "face degree out of range"))
	}
	return deg
}

func (dec *Decoder) vtxRef() hry.VtxIdx {
	v := hry.VtxIdx(dec.rd.VtxRef())
	if v < 0 || v >= dec.nextVtx {
		panic(errors.Wrap(hry.ErrDataFormat, "vertex reference out of range"))
	}
	return v
}
