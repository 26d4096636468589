package catalog_test

import (
	"os"
	"path"
	"testing"

	"github.com/bubnikv/harry/libhry/catalog"
)

func TestBasics(t *testing.T) {
	dir, err := os.MkdirTemp("", "junk*")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)

	opts := catalog.Opts{
		DbPathName: path.Join(dir, "TestBasics"),
	}
	cat, err := catalog.Open(opts)
	if err != nil {
		t.Fatal(err)
	}
	defer cat.Close()

	encs := [][]byte{
		[]byte("mesh-one"),
		[]byte("mesh-two"),
		[]byte("mesh-three"),
	}
	for _, enc := range encs {
		added, err := cat.TryAddMesh(enc, catalog.MeshInfo{NumVtx: 3, NumFace: 1})
		if err != nil {
			t.Fatal(err)
		}
		if !added {
			t.Fatal("nope")
		}
		added, err = cat.TryAddMesh(enc, catalog.MeshInfo{NumVtx: 3, NumFace: 1})
		if err != nil {
			t.Fatal(err)
		}
		if added {
			t.Fatal("nope")
		}
	}

	if cat.NumMeshes() != int64(len(encs)) {
		t.Fatalf("NumMeshes = %d", cat.NumMeshes())
	}

	got, found, err := cat.Lookup(catalog.Hash(encs[1]))
	if err != nil {
		t.Fatal(err)
	}
	if !found || string(got) != "mesh-two" {
		t.Fatalf("lookup = %q found=%v", got, found)
	}

	if _, found, _ := cat.Lookup(catalog.Hash([]byte("absent"))); found {
		t.Fatal("phantom entry")
	}

	n := 0
	cat.Range(func(hash []byte, info catalog.MeshInfo) bool {
		n++
		return true
	})
	if n != len(encs) {
		t.Fatalf("index walks %d entries", n)
	}
}

func TestInMemory(t *testing.T) {
	cat, err := catalog.Open(catalog.Opts{})
	if err != nil {
		t.Fatal(err)
	}
	defer cat.Close()

	added, err := cat.TryAddMesh([]byte("x"), catalog.MeshInfo{})
	if err != nil || !added {
		t.Fatalf("added=%v err=%v", added, err)
	}
}

func TestReopenKeepsEntries(t *testing.T) {
	dir, err := os.MkdirTemp("", "junk*")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)

	opts := catalog.Opts{DbPathName: path.Join(dir, "db")}
	cat, err := catalog.Open(opts)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := cat.TryAddMesh([]byte("persisted"), catalog.MeshInfo{}); err != nil {
		t.Fatal(err)
	}
	if err := cat.Close(); err != nil {
		t.Fatal(err)
	}

	cat, err = catalog.Open(opts)
	if err != nil {
		t.Fatal(err)
	}
	defer cat.Close()
	if cat.NumMeshes() != 1 {
		t.Fatalf("NumMeshes after reopen = %d", cat.NumMeshes())
	}
	added, err := cat.TryAddMesh([]byte("persisted"), catalog.MeshInfo{})
	if err != nil {
		t.Fatal(err)
	}
	if added {
		t.Fatal("reopened catalog re-added a stored mesh")
	}
}
