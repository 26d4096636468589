package meshtext

import (
	"bufio"
	"fmt"
	"io"
	"strconv"

	"github.com/pkg/errors"

	"github.com/bubnikv/harry/hry"
	"github.com/bubnikv/harry/libhry/mesh"
	"github.com/bubnikv/harry/libhry/mixing"
)

func kindName(k mixing.Kind) string {
	return k.String()
}

func appendCell(b []byte, cell mixing.View) []byte {
	for _, v := range cell {
		b = append(b, ' ')
		if v.K.IsFloat() {
			b = strconv.AppendFloat(b, v.F, 'g', -1, 64)
		} else {
			b = strconv.AppendInt(b, v.I, 10)
		}
	}
	return b
}

// Store writes m in the text format Load understands. Lists with mixed
// component kinds cannot be expressed and are rejected.
func Store(w io.Writer, m *mesh.Mesh) error {
	out := bufio.NewWriter(w)
	at := &m.Attrs

	for l := 0; l < at.Size(); l++ {
		list := at.List(hry.ListIdx(l))
		f := list.Format()
		for _, k := range f {
			if k != f[0] {
				return errors.New("mixed-kind list cannot be stored as text")
			}
		}
		fmt.Fprintf(out, "list %s:%d", kindName(f[0]), f.Width())
		if list.Quant > 0 {
			fmt.Fprintf(out, " q %s", strconv.FormatFloat(list.Quant, 'g', -1, 64))
		}
		out.WriteByte('\n')
	}

	for r := 0; r < at.NumRegions(); r++ {
		reg := at.Region(hry.RegIdx(r))
		out.WriteString("region")
		for _, ch := range []struct {
			name  string
			lists []hry.ListIdx
		}{{"vtx", reg.VtxLists}, {"face", reg.FaceLists}, {"corner", reg.CornerLists}} {
			if len(ch.lists) == 0 {
				continue
			}
			fmt.Fprintf(out, " %s", ch.name)
			for _, l := range ch.lists {
				fmt.Fprintf(out, " %d", l)
			}
		}
		out.WriteByte('\n')
	}

	var buf []byte
	for v := 0; v < at.NumVtx(); v++ {
		r := at.Vtx2Reg(hry.VtxIdx(v))
		buf = buf[:0]
		buf = append(buf, 'v')
		buf = strconv.AppendInt(append(buf, ' '), int64(r), 10)
		for a := 0; a < at.NumBindingsVtxReg(r); a++ {
			list := at.List(at.BindingRegVtxList(r, a))
			buf = appendCell(buf, list.View(at.BindingVtxAttr(hry.VtxIdx(v), a)))
		}
		out.Write(append(buf, '\n'))
	}

	for f := 0; f < m.Conn.NumFaces(); f++ {
		fi := hry.FaceIdx(f)
		r := at.Face2Reg(fi)
		buf = buf[:0]
		buf = append(buf, 'f')
		buf = strconv.AppendInt(append(buf, ' '), int64(r), 10)
		for _, v := range m.Conn.FaceVtx(fi) {
			buf = strconv.AppendInt(append(buf, ' '), int64(v), 10)
		}
		out.Write(append(buf, '\n'))

		if at.NumBindingsFaceReg(r) > 0 {
			buf = append(buf[:0], "fa"...)
			for a := 0; a < at.NumBindingsFaceReg(r); a++ {
				list := at.List(at.BindingRegFaceList(r, a))
				buf = appendCell(buf, list.View(at.BindingFaceAttr(fi, a)))
			}
			out.Write(append(buf, '\n'))
		}
		if at.NumBindingsCornerReg(r) > 0 {
			buf = append(buf[:0], "ca"...)
			for le := 0; le < m.Conn.NumEdges(fi); le++ {
				for a := 0; a < at.NumBindingsCornerReg(r); a++ {
					list := at.List(at.BindingRegCornerList(r, a))
					buf = appendCell(buf, list.View(at.BindingCornerAttr(fi, hry.LEdgeIdx(le), a)))
				}
			}
			out.Write(append(buf, '\n'))
		}
	}

	return out.Flush()
}
