// Package libhry composes the codec: the cut-border traversal over a
// mesh, the attribute coder, and the wire layer, behind a one-call
// Encode/Decode pair.
package libhry

import (
	"encoding/binary"
	"math"

	"github.com/pkg/errors"

	"github.com/bubnikv/harry/hry"
	"github.com/bubnikv/harry/libhry/mesh"
	"github.com/bubnikv/harry/libhry/mixing"
	"github.com/bubnikv/harry/libhry/wire"
)

var headerMagic = []byte("HRY1")

// appendHeader serializes everything the decoder must know up front:
// counts, attribute list layouts with quantization steps and value
// counts, and the region binding schemas.
func appendHeader(buf []byte, m *mesh.Mesh) []byte {
	buf = append(buf, headerMagic...)
	buf = binary.AppendUvarint(buf, uint64(m.Conn.NumVtx()))
	buf = binary.AppendUvarint(buf, uint64(m.Conn.NumFaces()))

	at := &m.Attrs
	buf = binary.AppendUvarint(buf, uint64(at.Size()))
	for l := 0; l < at.Size(); l++ {
		list := at.List(hry.ListIdx(l))
		fmt := list.Format()
		buf = binary.AppendUvarint(buf, uint64(fmt.Width()))
		for _, k := range fmt {
			buf = append(buf, byte(k))
		}
		var qbits [8]byte
		binary.LittleEndian.PutUint64(qbits[:], math.Float64bits(list.Quant))
		buf = append(buf, qbits[:]...)
		buf = binary.AppendUvarint(buf, uint64(list.Size()))
	}

	buf = binary.AppendUvarint(buf, uint64(at.NumRegions()))
	for r := 0; r < at.NumRegions(); r++ {
		reg := at.Region(hry.RegIdx(r))
		for _, lists := range [][]hry.ListIdx{reg.VtxLists, reg.FaceLists, reg.CornerLists} {
			buf = binary.AppendUvarint(buf, uint64(len(lists)))
			for _, l := range lists {
				buf = binary.AppendUvarint(buf, uint64(l))
			}
		}
	}
	return buf
}

// decodeHeader builds the decode-side mesh skeleton from the header.
func decodeHeader(rd *wire.Reader) (b *mesh.Builder, infos []wire.ListInfo, nv, nf int, err error) {
	magic := rd.Bytes(len(headerMagic))
	if rd.Err() != nil {
		return nil, nil, 0, 0, rd.Err()
	}
	if string(magic) != string(headerMagic) {
		return nil, nil, 0, 0, hry.ErrBadMagic
	}

	nv = int(rd.Uvarint())
	nf = int(rd.Uvarint())
	b = mesh.NewBuilder(nv, nf)
	at := &b.Mesh.Attrs

	nLists := int(rd.Uvarint())
	infos = make([]wire.ListInfo, 0, nLists)
	for l := 0; l < nLists; l++ {
		width := int(rd.Uvarint())
		fmt := make(mixing.Format, width)
		for c := 0; c < width; c++ {
			k := mixing.Kind(rd.Bytes(1)[0])
			if k > mixing.Double {
				return nil, nil, 0, 0, errors.Wrap(hry.ErrDataFormat, "bad component kind")
			}
			fmt[c] = k
		}
		quant := math.Float64frombits(binary.LittleEndian.Uint64(rd.Bytes(8)))
		size := int(rd.Uvarint())
		if rd.Err() != nil {
			return nil, nil, 0, 0, rd.Err()
		}
		at.AddList(mesh.NewList(fmt, size, quant))
		infos = append(infos, wire.ListInfo{Format: fmt, Quant: quant})
	}

	nRegs := int(rd.Uvarint())
	for r := 0; r < nRegs; r++ {
		reg := &mesh.Region{}
		for _, dst := range []*[]hry.ListIdx{&reg.VtxLists, &reg.FaceLists, &reg.CornerLists} {
			n := int(rd.Uvarint())
			for j := 0; j < n; j++ {
				l := hry.ListIdx(rd.Uvarint())
				if int(l) >= nLists {
					return nil, nil, 0, 0, errors.Wrap(hry.ErrDataFormat, "region binds unknown list")
				}
				*dst = append(*dst, l)
			}
		}
		at.AddRegion(reg)
	}
	if rd.Err() != nil {
		return nil, nil, 0, 0, rd.Err()
	}
	return b, infos, nv, nf, nil
}

func listInfos(m *mesh.Mesh) []wire.ListInfo {
	infos := make([]wire.ListInfo, m.Attrs.Size())
	for l := range infos {
		list := m.Attrs.List(hry.ListIdx(l))
		infos[l] = wire.ListInfo{Format: list.Format(), Quant: list.Quant}
	}
	return infos
}
