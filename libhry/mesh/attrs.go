package mesh

import (
	"github.com/bubnikv/harry/hry"
	"github.com/bubnikv/harry/libhry/mixing"
)

// List is one attribute list: a slab of typed value cells plus the
// scratch cells the prediction machinery works in. Quant is the list's
// quantization step; zero disables quantization.
type List struct {
	Quant float64

	data  mixing.Data
	cache mixing.Data // one cell per gathered prediction candidate
	accu  mixing.Data // single cell: prediction, then residual
	big   mixing.Data // single cell: running mean
}

// NewList creates a list with n value slots.
func NewList(fmt mixing.Format, n int, quant float64) *List {
	return &List{
		Quant: quant,
		data:  mixing.NewData(fmt, n),
		accu:  mixing.NewData(fmt, 1),
		big:   mixing.NewData(fmt, 1),
		cache: mixing.NewData(fmt, 0),
	}
}

// Format returns the cell layout.
func (l *List) Format() mixing.Format {
	return l.data.Format()
}

// Size is the number of value slots.
func (l *List) Size() int {
	return l.data.Len()
}

// View returns the value cell at idx.
func (l *List) View(idx hry.AttrIdx) mixing.View {
	return l.data.View(int(idx))
}

// Cache returns scratch cell i, growing the cache slab as needed.
func (l *List) Cache(i int) mixing.View {
	l.cache.Grow(i + 1)
	return l.cache.View(i)
}

// Accu returns the single residual scratch cell.
func (l *List) Accu() mixing.View {
	return l.accu.View(0)
}

// Big returns the single running-mean scratch cell.
func (l *List) Big() mixing.View {
	return l.big.View(0)
}

// Region holds one region's binding schema: which attribute lists its
// vertices, faces, and corners bind to, in slot order.
type Region struct {
	VtxLists    []hry.ListIdx
	FaceLists   []hry.ListIdx
	CornerLists []hry.ListIdx
}

// Attrs is the attribute store: lists, regions, and the per-element
// binding tables resolving (element, slot) to a value index.
type Attrs struct {
	lists []*List
	regs  []*Region

	vtxReg  []hry.RegIdx
	faceReg []hry.RegIdx

	vtxAttr    [][]hry.AttrIdx   // [v][slot]
	faceAttr   [][]hry.AttrIdx   // [f][slot]
	cornerAttr [][][]hry.AttrIdx // [f][le][slot]
}

// Init sizes the per-element tables for nv vertices and nf faces.
func (at *Attrs) Init(nv, nf int) {
	at.vtxReg = make([]hry.RegIdx, nv)
	at.faceReg = make([]hry.RegIdx, nf)
	at.vtxAttr = make([][]hry.AttrIdx, nv)
	at.faceAttr = make([][]hry.AttrIdx, nf)
	at.cornerAttr = make([][][]hry.AttrIdx, nf)
}

// AddList appends a list and returns its index.
func (at *Attrs) AddList(l *List) hry.ListIdx {
	at.lists = append(at.lists, l)
	return hry.ListIdx(len(at.lists) - 1)
}

// AddRegion appends a region schema and returns its index.
func (at *Attrs) AddRegion(r *Region) hry.RegIdx {
	at.regs = append(at.regs, r)
	return hry.RegIdx(len(at.regs) - 1)
}

// Size is the attribute list count.
func (at *Attrs) Size() int {
	return len(at.lists)
}

// List returns list l.
func (at *Attrs) List(l hry.ListIdx) *List {
	return at.lists[l]
}

// NumRegions returns the region count.
func (at *Attrs) NumRegions() int {
	return len(at.regs)
}

// Region returns region r's schema.
func (at *Attrs) Region(r hry.RegIdx) *Region {
	return at.regs[r]
}

// NumVtx returns the vertex count the store was sized for.
func (at *Attrs) NumVtx() int {
	return len(at.vtxReg)
}

// NumFace returns the face count the store was sized for.
func (at *Attrs) NumFace() int {
	return len(at.faceReg)
}

// Vtx2Reg returns vertex v's region.
func (at *Attrs) Vtx2Reg(v hry.VtxIdx) hry.RegIdx {
	return at.vtxReg[v]
}

// Face2Reg returns face f's region.
func (at *Attrs) Face2Reg(f hry.FaceIdx) hry.RegIdx {
	return at.faceReg[f]
}

func (at *Attrs) NumBindingsVtxReg(r hry.RegIdx) int {
	return len(at.regs[r].VtxLists)
}

func (at *Attrs) NumBindingsFaceReg(r hry.RegIdx) int {
	return len(at.regs[r].FaceLists)
}

func (at *Attrs) NumBindingsCornerReg(r hry.RegIdx) int {
	return len(at.regs[r].CornerLists)
}

func (at *Attrs) BindingRegVtxList(r hry.RegIdx, a int) hry.ListIdx {
	return at.regs[r].VtxLists[a]
}

func (at *Attrs) BindingRegFaceList(r hry.RegIdx, a int) hry.ListIdx {
	return at.regs[r].FaceLists[a]
}

func (at *Attrs) BindingRegCornerList(r hry.RegIdx, a int) hry.ListIdx {
	return at.regs[r].CornerLists[a]
}

func (at *Attrs) BindingVtxAttr(v hry.VtxIdx, a int) hry.AttrIdx {
	return at.vtxAttr[v][a]
}

func (at *Attrs) BindingFaceAttr(f hry.FaceIdx, a int) hry.AttrIdx {
	return at.faceAttr[f][a]
}

func (at *Attrs) BindingCornerAttr(f hry.FaceIdx, le hry.LEdgeIdx, a int) hry.AttrIdx {
	return at.cornerAttr[f][le][a]
}

// SetVtxReg assigns vertex v to region r and sizes its binding row.
func (at *Attrs) SetVtxReg(v hry.VtxIdx, r hry.RegIdx) {
	at.vtxReg[v] = r
	if n := len(at.regs[r].VtxLists); len(at.vtxAttr[v]) != n {
		at.vtxAttr[v] = make([]hry.AttrIdx, n)
	}
}

// SetFaceReg assigns face f to region r and sizes its binding rows for
// deg corners.
func (at *Attrs) SetFaceReg(f hry.FaceIdx, r hry.RegIdx, deg int) {
	at.faceReg[f] = r
	if n := len(at.regs[r].FaceLists); len(at.faceAttr[f]) != n {
		at.faceAttr[f] = make([]hry.AttrIdx, n)
	}
	nc := len(at.regs[r].CornerLists)
	if len(at.cornerAttr[f]) != deg {
		at.cornerAttr[f] = make([][]hry.AttrIdx, deg)
	}
	for le := 0; le < deg; le++ {
		if len(at.cornerAttr[f][le]) != nc {
			at.cornerAttr[f][le] = make([]hry.AttrIdx, nc)
		}
	}
}

// SetVtxAttr binds vertex v's slot a to value idx.
func (at *Attrs) SetVtxAttr(v hry.VtxIdx, a int, idx hry.AttrIdx) {
	at.vtxAttr[v][a] = idx
}

// SetFaceAttr binds face f's slot a to value idx.
func (at *Attrs) SetFaceAttr(f hry.FaceIdx, a int, idx hry.AttrIdx) {
	at.faceAttr[f][a] = idx
}

// SetCornerAttr binds corner (f, le) slot a to value idx.
func (at *Attrs) SetCornerAttr(f hry.FaceIdx, le hry.LEdgeIdx, a int, idx hry.AttrIdx) {
	at.cornerAttr[f][le][a] = idx
}
