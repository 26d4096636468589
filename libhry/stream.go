package libhry

import (
	"bytes"
	"os"

	"github.com/plan-systems/klog"

	"github.com/bubnikv/harry/libhry/catalog"
	"github.com/bubnikv/harry/libhry/mesh"
	"github.com/bubnikv/harry/libhry/meshtext"
)

// MeshAdder receives encoded meshes, typically a catalog.
type MeshAdder interface {
	TryAddMesh(enc []byte, info catalog.MeshInfo) (bool, error)
}

// MeshStream is a chainable pipeline stage passing meshes through a
// channel. Each stage owns a goroutine and closes its outlet when the
// upstream drains.
type MeshStream struct {
	Outlet chan *mesh.Mesh
}

func NewMeshStream() *MeshStream {
	return &MeshStream{
		Outlet: make(chan *mesh.Mesh, 1),
	}
}

func (stream *MeshStream) Close() {
	if stream.Outlet != nil {
		close(stream.Outlet)
	}
}

func (stream *MeshStream) PushMesh(m *mesh.Mesh) {
	stream.Outlet <- m
}

func (stream *MeshStream) PullMesh() *mesh.Mesh {
	return <-stream.Outlet
}

// PullAll drains the stream and returns the number of meshes seen.
func (stream *MeshStream) PullAll() int {
	count := 0
	for range stream.Outlet {
		count++
	}
	return count
}

// LoadFiles streams the meshes parsed from the given text files.
// Unreadable files are logged and skipped.
func LoadFiles(paths ...string) *MeshStream {
	next := NewMeshStream()

	go func() {
		for _, path := range paths {
			in, err := os.Open(path)
			if err != nil {
				klog.Errorf("%s: %v", path, err)
				continue
			}
			m, err := meshtext.Load(in)
			in.Close()
			if err != nil {
				klog.Errorf("%s: %v", path, err)
				continue
			}
			next.Outlet <- m
		}
		next.Close()
	}()

	return next
}

// EncodeTo encodes every mesh on the stream and hands the encodings to
// target. Only meshes that target reports as newly added travel on;
// encode failures and duplicates are dropped.
func (stream *MeshStream) EncodeTo(target MeshAdder, opts EncodeOpts) *MeshStream {
	next := NewMeshStream()

	go func() {
		for m := range stream.Outlet {
			var buf bytes.Buffer
			if err := NewEncoder(m, opts).Encode(&buf, nil); err != nil {
				klog.Errorf("encode: %v", err)
				continue
			}
			wasAdded, err := target.TryAddMesh(buf.Bytes(), catalog.MeshInfo{
				NumVtx:  uint32(m.Conn.NumVtx()),
				NumFace: uint32(m.Conn.NumFaces()),
			})
			if err != nil {
				klog.Errorf("catalog add: %v", err)
				continue
			}
			if wasAdded {
				next.Outlet <- m
			}
		}
		next.Close()
	}()

	return next
}
