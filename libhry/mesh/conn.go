package mesh

import (
	"github.com/bubnikv/harry/hry"
)

// Conn answers connectivity queries over a polygonal face table. Faces
// are vertex cycles; the directed half-edge (f, e) runs from the face
// vertex at e to the vertex at e+1. Twin links are derived once by Build.
type Conn struct {
	faces  [][]hry.VtxIdx
	twins  [][]hry.FEPair
	numVtx int
	built  bool
}

// NumVtx returns the vertex count.
func (c *Conn) NumVtx() int {
	return c.numVtx
}

// NumFaces returns the face count.
func (c *Conn) NumFaces() int {
	return len(c.faces)
}

// NumEdges returns the degree of face f.
func (c *Conn) NumEdges(f hry.FaceIdx) int {
	return len(c.faces[f])
}

// Org returns the origin vertex of half-edge e.
func (c *Conn) Org(e hry.FEPair) hry.VtxIdx {
	return c.faces[e.F][e.E]
}

// Dest returns the destination vertex of half-edge e.
func (c *Conn) Dest(e hry.FEPair) hry.VtxIdx {
	f := c.faces[e.F]
	return f[(int(e.E)+1)%len(f)]
}

// ENext returns the next half-edge in e's face cycle.
func (c *Conn) ENext(e hry.FEPair) hry.FEPair {
	e.E = hry.LEdgeIdx((int(e.E) + 1) % len(c.faces[e.F]))
	return e
}

// EPrev returns the previous half-edge in e's face cycle.
func (c *Conn) EPrev(e hry.FEPair) hry.FEPair {
	n := len(c.faces[e.F])
	e.E = hry.LEdgeIdx((int(e.E) + n - 1) % n)
	return e
}

// Twin returns the opposing half-edge, or e itself when the edge is a
// mesh boundary or is used by more than two faces.
func (c *Conn) Twin(e hry.FEPair) hry.FEPair {
	return c.twins[e.F][e.E]
}

// FaceVtx returns the vertex cycle of face f. The slice aliases the
// face table and must not be modified.
func (c *Conn) FaceVtx(f hry.FaceIdx) []hry.VtxIdx {
	return c.faces[f]
}

// SetNumVtx declares the vertex count. Face vertex indices must stay
// below it.
func (c *Conn) SetNumVtx(n int) {
	c.numVtx = n
}

// AddFace appends a face given as a vertex cycle and returns its index.
// Invalidates any previously built twin links.
func (c *Conn) AddFace(cycle []hry.VtxIdx) hry.FaceIdx {
	f := hry.FaceIdx(len(c.faces))
	own := make([]hry.VtxIdx, len(cycle))
	copy(own, cycle)
	c.faces = append(c.faces, own)
	for _, v := range own {
		if int(v) >= c.numVtx {
			c.numVtx = int(v) + 1
		}
	}
	c.built = false
	return f
}

// Build derives twin links from the face table. Edges used by exactly
// two faces in opposite directions become twins; everything else (mesh
// boundary, non-manifold fans) stays self-paired.
func (c *Conn) Build() error {
	type vpair struct{ a, b hry.VtxIdx }
	uses := make(map[vpair][]hry.FEPair, c.numVtx*3)

	c.twins = make([][]hry.FEPair, len(c.faces))
	for fi := range c.faces {
		f := hry.FaceIdx(fi)
		deg := len(c.faces[fi])
		c.twins[fi] = make([]hry.FEPair, deg)
		for ei := 0; ei < deg; ei++ {
			e := hry.FEPair{F: f, E: hry.LEdgeIdx(ei)}
			c.twins[fi][ei] = e
			a, b := c.Org(e), c.Dest(e)
			if a > b {
				a, b = b, a
			}
			key := vpair{a, b}
			uses[key] = append(uses[key], e)
		}
	}

	for _, es := range uses {
		if len(es) != 2 {
			continue // boundary or non-manifold fan: twins stay self
		}
		e0, e1 := es[0], es[1]
		if c.Org(e0) != c.Dest(e1) || c.Dest(e0) != c.Org(e1) {
			continue // same direction twice: inconsistent orientation
		}
		c.twins[e0.F][e0.E] = e1
		c.twins[e1.F][e1.E] = e0
	}
	c.built = true
	return nil
}
