// Package meshtext loads and stores a small line-oriented text format
// for attributed polygonal meshes, used by the CLI and tests.
//
//	list int:3            # attribute list: kind, component count
//	list float:2 q 0.5    # optional quantization step
//	region vtx 0          # binding schema: channels vtx/face/corner -> list ids
//	v 0 10 20 30          # vertex: region, one cell per bound vertex list
//	f 0 0 1 2             # face: region, vertex cycle
//	fa 7                  # face cells for the last face
//	ca 1 2 1 2 1 2        # corner cells for the last face, one per corner
//
// Identical cells of one list collapse onto one attribute slot, so
// repeated values decode through the history channel.
package meshtext

import (
	"io"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
	"github.com/pkg/errors"

	"github.com/bubnikv/harry/hry"
	"github.com/bubnikv/harry/libhry/mesh"
	"github.com/bubnikv/harry/libhry/mixing"
)

type astFile struct {
	Stmts []*astStmt `parser:"@@*"`
}

type astStmt struct {
	List   *astList   `parser:"  @@"`
	Region *astRegion `parser:"| @@"`
	Vertex *astRow    `parser:"| 'v' @@"`
	Face   *astRow    `parser:"| 'f' @@"`
	FaceA  *astCells  `parser:"| 'fa' @@"`
	CornA  *astCells  `parser:"| 'ca' @@"`
}

type astList struct {
	Kind  string  `parser:"'list' @Ident"`
	Width int     `parser:"':' @Number"`
	Quant float64 `parser:"( 'q' @Number )?"`
}

type astRegion struct {
	Channels []*astChannel `parser:"'region' @@*"`
}

type astChannel struct {
	Kind  string   `parser:"@( 'vtx' | 'face' | 'corner' )"`
	Lists []uint32 `parser:"@Number+"`
}

type astRow struct {
	Reg    int      `parser:"@Number"`
	Values []string `parser:"@Number*"`
}

type astCells struct {
	Values []string `parser:"@Number+"`
}

var meshLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "comment", Pattern: `#[^\n]*`},
	{Name: "Number", Pattern: `[-+]?\d+(\.\d+)?([eE][-+]?\d+)?`},
	{Name: "Ident", Pattern: `[A-Za-z_]+`},
	{Name: "Punct", Pattern: `[:]`},
	{Name: "whitespace", Pattern: `[ \t\r\n]+`},
})

var meshParser = participle.MustBuild[astFile](
	participle.Lexer(meshLexer),
)

var kindNames = map[string]mixing.Kind{
	"int":    mixing.Int,
	"uint":   mixing.UInt,
	"long":   mixing.Long,
	"ulong":  mixing.ULong,
	"float":  mixing.Float,
	"double": mixing.Double,
}

// listAccum collects one list's cells, collapsing identical cells onto
// one slot.
type listAccum struct {
	fmt   mixing.Format
	quant float64
	cells [][]mixing.Value
	index map[string]hry.AttrIdx
}

func (la *listAccum) add(vals []mixing.Value) hry.AttrIdx {
	key := cellKey(vals)
	if idx, ok := la.index[key]; ok {
		return idx
	}
	idx := hry.AttrIdx(len(la.cells))
	la.cells = append(la.cells, vals)
	la.index[key] = idx
	return idx
}

func cellKey(vals []mixing.Value) string {
	var b strings.Builder
	for _, v := range vals {
		if v.K.IsFloat() {
			b.WriteString(strconv.FormatFloat(v.F, 'g', -1, 64))
		} else {
			b.WriteString(strconv.FormatInt(v.I, 10))
		}
		b.WriteByte(',')
	}
	return b.String()
}

func parseCell(fmt mixing.Format, raw []string) ([]mixing.Value, error) {
	cell := make([]mixing.Value, len(fmt))
	for i, k := range fmt {
		cell[i].K = k
		if k.IsFloat() {
			f, err := strconv.ParseFloat(raw[i], 64)
			if err != nil {
				return nil, err
			}
			cell[i].F = f
		} else {
			n, err := strconv.ParseInt(raw[i], 10, 64)
			if err != nil {
				return nil, err
			}
			cell[i].I = n
		}
		cell[i] = cell[i].Norm()
	}
	return cell, nil
}

type loader struct {
	lists []*listAccum
	regs  []*mesh.Region

	vtxReg  []hry.RegIdx
	vtxIdx  [][]hry.AttrIdx
	faceReg []hry.RegIdx
	faces   [][]hry.VtxIdx
	faceIdx [][]hry.AttrIdx
	cornIdx [][][]hry.AttrIdx
}

// Load parses the text format and assembles a mesh.
func Load(r io.Reader) (*mesh.Mesh, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	ast, err := meshParser.ParseBytes("", src)
	if err != nil {
		return nil, err
	}

	ld := &loader{}
	for _, st := range ast.Stmts {
		switch {
		case st.List != nil:
			if err := ld.addList(st.List); err != nil {
				return nil, err
			}
		case st.Region != nil:
			if err := ld.addRegion(st.Region); err != nil {
				return nil, err
			}
		case st.Vertex != nil:
			if err := ld.addVertex(st.Vertex); err != nil {
				return nil, err
			}
		case st.Face != nil:
			if err := ld.addFace(st.Face); err != nil {
				return nil, err
			}
		case st.FaceA != nil:
			if err := ld.addFaceAttrs(st.FaceA); err != nil {
				return nil, err
			}
		case st.CornA != nil:
			if err := ld.addCornerAttrs(st.CornA); err != nil {
				return nil, err
			}
		}
	}
	return ld.assemble()
}

func (ld *loader) addList(st *astList) error {
	kind, ok := kindNames[st.Kind]
	if !ok {
		return errors.Errorf("unknown attribute kind %q", st.Kind)
	}
	if st.Width < 1 {
		return errors.Errorf("bad list width %d", st.Width)
	}
	fmt := make(mixing.Format, st.Width)
	for i := range fmt {
		fmt[i] = kind
	}
	ld.lists = append(ld.lists, &listAccum{
		fmt:   fmt,
		quant: st.Quant,
		index: make(map[string]hry.AttrIdx),
	})
	return nil
}

func (ld *loader) addRegion(st *astRegion) error {
	reg := &mesh.Region{}
	for _, ch := range st.Channels {
		var dst *[]hry.ListIdx
		switch ch.Kind {
		case "vtx":
			dst = &reg.VtxLists
		case "face":
			dst = &reg.FaceLists
		case "corner":
			dst = &reg.CornerLists
		}
		for _, l := range ch.Lists {
			if int(l) >= len(ld.lists) {
				return errors.Errorf("region binds unknown list %d", l)
			}
			*dst = append(*dst, hry.ListIdx(l))
		}
	}
	ld.regs = append(ld.regs, reg)
	return nil
}

// bindCells splits a flat value row into one cell per bound list and
// records each cell, returning the bound slot indices.
func (ld *loader) bindCells(lists []hry.ListIdx, raw []string) ([]hry.AttrIdx, []string, error) {
	idxs := make([]hry.AttrIdx, 0, len(lists))
	for _, l := range lists {
		la := ld.lists[l]
		w := la.fmt.Width()
		if len(raw) < w {
			return nil, nil, errors.New("attribute row too short")
		}
		cell, err := parseCell(la.fmt, raw[:w])
		if err != nil {
			return nil, nil, err
		}
		idxs = append(idxs, la.add(cell))
		raw = raw[w:]
	}
	return idxs, raw, nil
}

func (ld *loader) addVertex(st *astRow) error {
	if st.Reg >= len(ld.regs) {
		return errors.Errorf("vertex names unknown region %d", st.Reg)
	}
	idxs, rest, err := ld.bindCells(ld.regs[st.Reg].VtxLists, st.Values)
	if err != nil {
		return err
	}
	if len(rest) != 0 {
		return errors.New("trailing values on vertex row")
	}
	ld.vtxReg = append(ld.vtxReg, hry.RegIdx(st.Reg))
	ld.vtxIdx = append(ld.vtxIdx, idxs)
	return nil
}

func (ld *loader) addFace(st *astRow) error {
	if st.Reg >= len(ld.regs) {
		return errors.Errorf("face names unknown region %d", st.Reg)
	}
	if len(st.Values) < 3 {
		return errors.New("face needs at least three vertices")
	}
	cycle := make([]hry.VtxIdx, len(st.Values))
	for i, s := range st.Values {
		n, err := strconv.ParseInt(s, 10, 32)
		if err != nil || n < 0 || int(n) >= len(ld.vtxReg) {
			return errors.Errorf("bad face vertex %q", s)
		}
		cycle[i] = hry.VtxIdx(n)
	}
	ld.faceReg = append(ld.faceReg, hry.RegIdx(st.Reg))
	ld.faces = append(ld.faces, cycle)
	ld.faceIdx = append(ld.faceIdx, nil)
	ld.cornIdx = append(ld.cornIdx, nil)
	return nil
}

func (ld *loader) addFaceAttrs(st *astCells) error {
	f := len(ld.faces) - 1
	if f < 0 {
		return errors.New("fa row before any face")
	}
	idxs, rest, err := ld.bindCells(ld.regs[ld.faceReg[f]].FaceLists, st.Values)
	if err != nil {
		return err
	}
	if len(rest) != 0 {
		return errors.New("trailing values on fa row")
	}
	ld.faceIdx[f] = idxs
	return nil
}

func (ld *loader) addCornerAttrs(st *astCells) error {
	f := len(ld.faces) - 1
	if f < 0 {
		return errors.New("ca row before any face")
	}
	raw := st.Values
	deg := len(ld.faces[f])
	corns := make([][]hry.AttrIdx, deg)
	for le := 0; le < deg; le++ {
		idxs, rest, err := ld.bindCells(ld.regs[ld.faceReg[f]].CornerLists, raw)
		if err != nil {
			return err
		}
		corns[le] = idxs
		raw = rest
	}
	if len(raw) != 0 {
		return errors.New("trailing values on ca row")
	}
	ld.cornIdx[f] = corns
	return nil
}

func (ld *loader) assemble() (*mesh.Mesh, error) {
	m := &mesh.Mesh{}
	m.Conn.SetNumVtx(len(ld.vtxReg))
	for _, cycle := range ld.faces {
		m.Conn.AddFace(cycle)
	}
	if err := m.Conn.Build(); err != nil {
		return nil, err
	}

	at := &m.Attrs
	at.Init(len(ld.vtxReg), len(ld.faces))
	for _, la := range ld.lists {
		list := mesh.NewList(la.fmt, len(la.cells), la.quant)
		for i, cell := range la.cells {
			list.View(hry.AttrIdx(i)).Assign(cell)
		}
		at.AddList(list)
	}
	for _, reg := range ld.regs {
		at.AddRegion(reg)
	}

	for v, r := range ld.vtxReg {
		at.SetVtxReg(hry.VtxIdx(v), r)
		for a, idx := range ld.vtxIdx[v] {
			at.SetVtxAttr(hry.VtxIdx(v), a, idx)
		}
	}
	for f, r := range ld.faceReg {
		deg := len(ld.faces[f])
		at.SetFaceReg(hry.FaceIdx(f), r, deg)
		reg := ld.regs[r]
		if len(reg.FaceLists) > 0 && ld.faceIdx[f] == nil {
			return nil, errors.Errorf("face %d misses its fa row", f)
		}
		for a, idx := range ld.faceIdx[f] {
			at.SetFaceAttr(hry.FaceIdx(f), a, idx)
		}
		if len(reg.CornerLists) > 0 && ld.cornIdx[f] == nil {
			return nil, errors.Errorf("face %d misses its ca row", f)
		}
		for le, idxs := range ld.cornIdx[f] {
			for a, idx := range idxs {
				at.SetCornerAttr(hry.FaceIdx(f), hry.LEdgeIdx(le), a, idx)
			}
		}
	}
	return m, nil
}

// LoadString parses the text format from a string.
func LoadString(src string) (*mesh.Mesh, error) {
	return Load(strings.NewReader(src))
}
