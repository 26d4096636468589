// Package mesh holds the polygonal mesh container the codec operates
// on: a connectivity query layer over a face table and an attribute
// store binding regions, lists, and per-element value slots.
package mesh

import (
	"github.com/bubnikv/harry/hry"
)

// Mesh couples connectivity with attribute storage. One coder instance
// owns the mesh exclusively for its lifetime.
type Mesh struct {
	Conn  Conn
	Attrs Attrs
}

// Builder populates a mesh on the decode side: faces arrive in
// traversal order, vertices in emission order, bindings as the
// attribute decoder resolves them.
type Builder struct {
	Mesh *Mesh
}

// NewBuilder wraps an empty mesh sized for nv vertices and nf faces.
func NewBuilder(nv, nf int) *Builder {
	m := &Mesh{}
	m.Conn.SetNumVtx(nv)
	m.Attrs.Init(nv, nf)
	return &Builder{Mesh: m}
}

// AddFace appends a face cycle.
func (b *Builder) AddFace(cycle []hry.VtxIdx) hry.FaceIdx {
	return b.Mesh.Conn.AddFace(cycle)
}

// VtxReg assigns vertex v to region r.
func (b *Builder) VtxReg(v hry.VtxIdx, r hry.RegIdx) {
	b.Mesh.Attrs.SetVtxReg(v, r)
}

// FaceReg assigns face f to region r.
func (b *Builder) FaceReg(f hry.FaceIdx, r hry.RegIdx) {
	b.Mesh.Attrs.SetFaceReg(f, r, b.Mesh.Conn.NumEdges(f))
}

// BindVtxAttr binds vertex v's slot a to value idx.
func (b *Builder) BindVtxAttr(v hry.VtxIdx, a int, idx hry.AttrIdx) {
	b.Mesh.Attrs.SetVtxAttr(v, a, idx)
}

// BindFaceAttr binds face f's slot a to value idx.
func (b *Builder) BindFaceAttr(f hry.FaceIdx, a int, idx hry.AttrIdx) {
	b.Mesh.Attrs.SetFaceAttr(f, a, idx)
}

// BindCornerAttr binds corner (f, le) slot a to value idx.
func (b *Builder) BindCornerAttr(f hry.FaceIdx, le hry.LEdgeIdx, a int, idx hry.AttrIdx) {
	b.Mesh.Attrs.SetCornerAttr(f, le, a, idx)
}
