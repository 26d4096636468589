package mesh_test

import (
	"testing"

	"github.com/bubnikv/harry/hry"
	"github.com/bubnikv/harry/libhry/mesh"
)

func TestTwinLinks(t *testing.T) {
	var c mesh.Conn
	c.AddFace([]hry.VtxIdx{0, 1, 2})
	c.AddFace([]hry.VtxIdx{2, 1, 3})
	if err := c.Build(); err != nil {
		t.Fatal(err)
	}

	// The shared edge pairs up in opposite directions.
	e := hry.FEPair{F: 0, E: 1} // 1 -> 2
	tw := c.Twin(e)
	if tw == e {
		t.Fatal("shared edge reported as boundary")
	}
	if c.Org(tw) != 2 || c.Dest(tw) != 1 {
		t.Fatalf("twin runs %d -> %d", c.Org(tw), c.Dest(tw))
	}
	if c.Twin(tw) != e {
		t.Fatal("twin links must be mutual")
	}

	// Boundary edges are self-paired.
	b := hry.FEPair{F: 0, E: 0}
	if c.Twin(b) != b {
		t.Fatal("boundary edge must twin itself")
	}
}

func TestEdgeCycle(t *testing.T) {
	var c mesh.Conn
	c.AddFace([]hry.VtxIdx{4, 5, 6, 7})
	if err := c.Build(); err != nil {
		t.Fatal(err)
	}

	e := hry.FEPair{F: 0, E: 3}
	if c.Org(e) != 7 || c.Dest(e) != 4 {
		t.Fatalf("edge 3 runs %d -> %d", c.Org(e), c.Dest(e))
	}
	if c.ENext(e) != (hry.FEPair{F: 0, E: 0}) {
		t.Fatal("ENext must wrap")
	}
	if c.EPrev(hry.FEPair{F: 0, E: 0}) != e {
		t.Fatal("EPrev must wrap")
	}
	if c.NumEdges(0) != 4 {
		t.Fatalf("degree = %d", c.NumEdges(0))
	}
}

func TestNonManifoldEdgeStaysBoundary(t *testing.T) {
	var c mesh.Conn
	c.AddFace([]hry.VtxIdx{0, 1, 2})
	c.AddFace([]hry.VtxIdx{2, 1, 3})
	c.AddFace([]hry.VtxIdx{1, 2, 4}) // third face on edge {1,2}
	if err := c.Build(); err != nil {
		t.Fatal(err)
	}
	e := hry.FEPair{F: 0, E: 1}
	if c.Twin(e) != e {
		t.Fatal("edge used three times must twin itself")
	}
}
