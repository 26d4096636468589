package meshtext_test

import (
	"bytes"
	"testing"

	"github.com/bubnikv/harry/hry"
	"github.com/bubnikv/harry/libhry/meshtext"
)

const sample = `
# two triangles, positions + a face material id + corner uvs
list int:3
list int:1
list int:2
region vtx 0 face 1 corner 2
v 0 0 0 0
v 0 10 0 0
v 0 0 10 0
v 0 10 10 0
f 0 0 1 2
fa 7
ca 0 0 1 0 0 1
f 0 2 1 3
fa 7
ca 0 1 1 0 1 1
`

func TestLoadSample(t *testing.T) {
	m, err := meshtext.LoadString(sample)
	if err != nil {
		t.Fatal(err)
	}

	if m.Conn.NumVtx() != 4 || m.Conn.NumFaces() != 2 {
		t.Fatalf("loaded %d vertices, %d faces", m.Conn.NumVtx(), m.Conn.NumFaces())
	}
	if m.Attrs.Size() != 3 {
		t.Fatalf("loaded %d lists", m.Attrs.Size())
	}

	// Both faces share the material cell "7".
	if m.Attrs.BindingFaceAttr(0, 0) != m.Attrs.BindingFaceAttr(1, 0) {
		t.Fatal("identical face cells must collapse onto one slot")
	}
	if m.Attrs.List(1).Size() != 1 {
		t.Fatalf("material list has %d slots", m.Attrs.List(1).Size())
	}

	// Corner cells dedupe too: only (0,0), (1,0), (0,1), (1,1).
	if m.Attrs.List(2).Size() != 4 {
		t.Fatalf("uv list has %d slots", m.Attrs.List(2).Size())
	}

	v1 := m.Attrs.List(0).View(m.Attrs.BindingVtxAttr(1, 0))
	if v1[0].I != 10 || v1[1].I != 0 {
		t.Fatalf("vertex 1 position = %v", v1)
	}
}

func TestStoreLoadRoundTrip(t *testing.T) {
	m, err := meshtext.LoadString(sample)
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := meshtext.Store(&buf, m); err != nil {
		t.Fatal(err)
	}
	m2, err := meshtext.LoadString(buf.String())
	if err != nil {
		t.Fatalf("%v\n%s", err, buf.String())
	}

	if m2.Conn.NumVtx() != m.Conn.NumVtx() || m2.Conn.NumFaces() != m.Conn.NumFaces() {
		t.Fatal("counts changed across store/load")
	}
	for v := 0; v < m.Conn.NumVtx(); v++ {
		a := m.Attrs.List(0).View(m.Attrs.BindingVtxAttr(hry.VtxIdx(v), 0))
		b := m2.Attrs.List(0).View(m2.Attrs.BindingVtxAttr(hry.VtxIdx(v), 0))
		if !a.Equal(b) {
			t.Fatalf("vertex %d changed across store/load", v)
		}
	}
}

func TestQuantStep(t *testing.T) {
	m, err := meshtext.LoadString(`
list double:1 q 0.5
region vtx 0
v 0 1.25
v 0 2.5
v 0 -0.5
f 0 0 1 2
`)
	if err != nil {
		t.Fatal(err)
	}
	if m.Attrs.List(0).Quant != 0.5 {
		t.Fatalf("quant = %g", m.Attrs.List(0).Quant)
	}
}
