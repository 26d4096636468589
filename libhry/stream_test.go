package libhry_test

import (
	"os"
	"path"
	"testing"

	"github.com/bubnikv/harry/libhry"
	"github.com/bubnikv/harry/libhry/catalog"
)

const streamFixture = `
list int:1
region vtx 0
v 0 10
v 0 20
v 0 30
f 0 0 1 2
`

func TestStreamEncodeToCatalog(t *testing.T) {
	dir, err := os.MkdirTemp("", "junk*")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)

	p1 := path.Join(dir, "a.mesh")
	p2 := path.Join(dir, "b.mesh")
	if err := os.WriteFile(p1, []byte(streamFixture), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(p2, []byte(streamFixture), 0o644); err != nil {
		t.Fatal(err)
	}

	cat, err := catalog.Open(catalog.Opts{})
	if err != nil {
		t.Fatal(err)
	}
	defer cat.Close()

	// Identical meshes encode identically: the second one is a dupe.
	added := libhry.LoadFiles(p1, p2).
		EncodeTo(cat, libhry.EncodeOpts{}).
		PullAll()
	if added != 1 {
		t.Fatalf("added %d meshes, want 1", added)
	}
	if cat.NumMeshes() != 1 {
		t.Fatalf("catalog holds %d", cat.NumMeshes())
	}
}
