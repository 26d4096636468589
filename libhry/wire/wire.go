// Package wire packs the codec's symbol streams into bytes: opcodes as
// single byte codes, integers as varints (zigzag for signed), residual
// cells component-wise by numeric kind. The layout is deliberately
// simple; an entropy coder can replace this package behind the same
// symbol interfaces.
package wire

import (
	"bufio"
	"encoding/binary"
	"io"
	"math"

	"github.com/bubnikv/harry/hry"
	"github.com/bubnikv/harry/libhry/mixing"
)

// ListInfo carries what the wire layer needs to know about one
// attribute list: the cell layout and whether residuals are quantized.
type ListInfo struct {
	Format mixing.Format
	Quant  float64
}

const initOpBase = 16 // byte codes 16.. are InitOps, below are Ops

func zigzag(i int64) uint64 {
	return uint64(i<<1) ^ uint64(i>>63)
}

func unzigzag(u uint64) int64 {
	return int64(u>>1) ^ -int64(u&1)
}

// Writer emits the symbol stream. Errors are sticky: symbol methods
// never fail individually, the first underlying error is reported by
// Err and Flush.
type Writer struct {
	w     *bufio.Writer
	lists []ListInfo
	err   error
}

// NewWriter buffers output on w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w)}
}

// SetLists declares the attribute list layouts before any attribute
// symbol is written.
func (wr *Writer) SetLists(lists []ListInfo) {
	wr.lists = lists
}

// Err returns the first underlying write error.
func (wr *Writer) Err() error {
	return wr.err
}

// Flush drains the buffer and reports any sticky error.
func (wr *Writer) Flush() error {
	if wr.err != nil {
		return wr.err
	}
	return wr.w.Flush()
}

func (wr *Writer) byte1(b byte) {
	if wr.err != nil {
		return
	}
	wr.err = wr.w.WriteByte(b)
}

func (wr *Writer) uvarint(u uint64) {
	var buf [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(buf[:], u)
	wr.Raw(buf[:n])
}

func (wr *Writer) svarint(i int64) {
	wr.uvarint(zigzag(i))
}

// Raw writes p verbatim (used for the container header).
func (wr *Writer) Raw(p []byte) {
	if wr.err != nil {
		return
	}
	_, wr.err = wr.w.Write(p)
}

// Op writes a boundary opcode.
func (wr *Writer) Op(op hry.Op) {
	wr.byte1(byte(op.Transmit()))
}

// IOp writes a seed opcode or EOM.
func (wr *Writer) IOp(op hry.InitOp) {
	wr.byte1(initOpBase + byte(op))
}

// FaceDegree writes the degree of the face being consumed.
func (wr *Writer) FaceDegree(n int) {
	wr.uvarint(uint64(n - 3))
}

// SplitOffset writes the signed within-part offset of a split.
func (wr *Writer) SplitOffset(i int) {
	wr.svarint(int64(i))
}

// UnionRef writes the part offset and signed within-part offset of a
// union.
func (wr *Writer) UnionRef(p, i int) {
	wr.uvarint(uint64(p))
	wr.svarint(int64(i))
}

// VtxRef writes a back-reference to an already-emitted vertex, in
// emission order numbering.
func (wr *Writer) VtxRef(v int) {
	wr.uvarint(uint64(v))
}

// RegVtx writes a vertex region id.
func (wr *Writer) RegVtx(r hry.RegIdx) {
	wr.uvarint(uint64(r))
}

// RegFace writes a face region id.
func (wr *Writer) RegFace(r hry.RegIdx) {
	wr.uvarint(uint64(r))
}

// AttrData writes a DATA symbol: the residual cell component-wise.
// Integral components are zigzag varints; floating components are
// integer-valued deltas under quantization, raw IEEE bits otherwise.
func (wr *Writer) AttrData(v mixing.View, l hry.ListIdx) {
	wr.byte1(byte(hry.SymData))
	info := wr.lists[l]
	for _, c := range v {
		switch {
		case !c.K.IsFloat():
			wr.svarint(c.I)
		case info.Quant > 0:
			wr.svarint(int64(c.F))
		case c.K == mixing.Float:
			var buf [4]byte
			binary.LittleEndian.PutUint32(buf[:], math.Float32bits(float32(c.F)))
			wr.Raw(buf[:])
		default:
			var buf [8]byte
			binary.LittleEndian.PutUint64(buf[:], math.Float64bits(c.F))
			wr.Raw(buf[:])
		}
	}
}

// AttrGHist writes a HIST symbol with its relative offset.
func (wr *Writer) AttrGHist(off hry.AttrIdx, l hry.ListIdx) {
	wr.byte1(byte(hry.SymHist))
	wr.uvarint(uint64(off))
}

// Reader consumes the symbol stream written by Writer. Errors are
// sticky; a short read surfaces as io.ErrUnexpectedEOF through Err.
type Reader struct {
	r     *bufio.Reader
	lists []ListInfo
	err   error
}

// NewReader buffers input from r.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: bufio.NewReader(r)}
}

// SetLists declares the attribute list layouts before any attribute
// symbol is read.
func (rd *Reader) SetLists(lists []ListInfo) {
	rd.lists = lists
}

// Err returns the first underlying read error.
func (rd *Reader) Err() error {
	return rd.err
}

func (rd *Reader) fail(err error) {
	if rd.err == nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		rd.err = err
	}
}

func (rd *Reader) byte1() byte {
	if rd.err != nil {
		return 0
	}
	b, err := rd.r.ReadByte()
	if err != nil {
		rd.fail(err)
		return 0
	}
	return b
}

func (rd *Reader) uvarint() uint64 {
	if rd.err != nil {
		return 0
	}
	u, err := binary.ReadUvarint(rd.r)
	if err != nil {
		rd.fail(err)
		return 0
	}
	return u
}

// Uvarint reads one unsigned varint (used for the container header).
func (rd *Reader) Uvarint() uint64 {
	return rd.uvarint()
}

func (rd *Reader) svarint() int64 {
	return unzigzag(rd.uvarint())
}

// Bytes reads exactly n bytes (used for the container header).
func (rd *Reader) Bytes(n int) []byte {
	buf := make([]byte, n)
	if rd.err != nil {
		return buf
	}
	if _, err := io.ReadFull(rd.r, buf); err != nil {
		rd.fail(err)
	}
	return buf
}

// NextSym reads one opcode from the unified op/seed alphabet.
func (rd *Reader) NextSym() (isInit bool, op hry.Op, iop hry.InitOp) {
	b := rd.byte1()
	if b >= initOpBase {
		iop = hry.InitOp(b - initOpBase)
		if iop > hry.IOpLast {
			rd.fail(hry.ErrDataFormat)
			iop = hry.IOpEOM
		}
		return true, 0, iop
	}
	op = hry.Op(b)
	if op > hry.OpLast {
		rd.fail(hry.ErrDataFormat)
		op = hry.OpBorder
	}
	return false, op, 0
}

// FaceDegree reads a face degree.
func (rd *Reader) FaceDegree() int {
	return int(rd.uvarint()) + 3
}

// SplitOffset reads a split's signed within-part offset.
func (rd *Reader) SplitOffset() int {
	return int(rd.svarint())
}

// UnionRef reads a union's part offset and signed within-part offset.
func (rd *Reader) UnionRef() (p, i int) {
	p = int(rd.uvarint())
	i = int(rd.svarint())
	return p, i
}

// VtxRef reads a vertex back-reference.
func (rd *Reader) VtxRef() int {
	return int(rd.uvarint())
}

// RegVtx reads a vertex region id.
func (rd *Reader) RegVtx() hry.RegIdx {
	return hry.RegIdx(rd.uvarint())
}

// RegFace reads a face region id.
func (rd *Reader) RegFace() hry.RegIdx {
	return hry.RegIdx(rd.uvarint())
}

// AttrType reads the symbol kind of the next binding on list l.
func (rd *Reader) AttrType(l hry.ListIdx) hry.AttrSym {
	s := hry.AttrSym(rd.byte1())
	if s < hry.SymData || s > hry.SymLHist {
		rd.fail(hry.ErrDataFormat)
		return hry.SymLHist
	}
	return s
}

// AttrData reads a residual cell component-wise into v.
func (rd *Reader) AttrData(v mixing.View, l hry.ListIdx) {
	info := rd.lists[l]
	for i := range v {
		switch {
		case !v[i].K.IsFloat():
			v[i].I = rd.svarint()
			v[i] = v[i].Norm()
		case info.Quant > 0:
			v[i].F = float64(rd.svarint())
		case v[i].K == mixing.Float:
			buf := rd.Bytes(4)
			v[i].F = float64(math.Float32frombits(binary.LittleEndian.Uint32(buf)))
		default:
			buf := rd.Bytes(8)
			v[i].F = math.Float64frombits(binary.LittleEndian.Uint64(buf))
		}
	}
}

// AttrGHist reads a HIST offset.
func (rd *Reader) AttrGHist(l hry.ListIdx) hry.AttrIdx {
	return hry.AttrIdx(rd.uvarint())
}
