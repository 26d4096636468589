package main

import (
	"bytes"
	"flag"
	"fmt"
	"os"

	"github.com/plan-systems/klog"

	"github.com/bubnikv/harry/libhry"
	"github.com/bubnikv/harry/libhry/catalog"
	"github.com/bubnikv/harry/libhry/meshtext"
)

func main() {

	flag.Set("logtostderr", "true")
	flag.Set("v", "2")

	fset := flag.NewFlagSet("", flag.ContinueOnError)
	klog.InitFlags(fset)
	fset.Set("logtostderr", "true")
	fset.Set("v", "2")
	klog.SetFormatter(&klog.FmtConstWidth{
		FileNameCharWidth: 16,
		UseColor:          true,
	})

	decode := flag.Bool("decode", false, "decode a .hry container back to mesh text")
	outPath := flag.String("o", "", "output file (default: stdout)")
	catPath := flag.String("catalog", "", "also record encodings in a catalog db at this path")
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "usage: hry [-decode] [-o out] [-catalog db] input...")
		os.Exit(2)
	}

	var err error
	if flag.NArg() > 1 {
		err = runBatch(flag.Args(), *catPath, *decode)
	} else {
		err = run(flag.Arg(0), *outPath, *catPath, *decode)
	}
	klog.Flush()
	if err != nil {
		fmt.Fprintln(os.Stderr, "hry:", err)
		os.Exit(1)
	}
}

// runBatch streams several mesh files into a catalog.
func runBatch(paths []string, catPath string, decode bool) error {
	if decode {
		return fmt.Errorf("batch mode only encodes")
	}
	if catPath == "" {
		return fmt.Errorf("batch mode needs -catalog")
	}
	cat, err := catalog.Open(catalog.Opts{DbPathName: catPath})
	if err != nil {
		return err
	}
	defer cat.Close()

	added := libhry.LoadFiles(paths...).
		EncodeTo(cat, libhry.EncodeOpts{}).
		PullAll()
	klog.V(2).Infof("catalog: added %d of %d, total %d", added, len(paths), cat.NumMeshes())
	return nil
}

func run(inPath, outPath, catPath string, decode bool) error {
	in, err := os.Open(inPath)
	if err != nil {
		return err
	}
	defer in.Close()

	out := os.Stdout
	if outPath != "" {
		out, err = os.Create(outPath)
		if err != nil {
			return err
		}
		defer out.Close()
	}

	if decode {
		m, err := libhry.Decode(in, &libhry.LogProgress{Label: "decode"})
		if err != nil {
			return err
		}
		klog.V(2).Infof("decoded %d vertices, %d faces", m.Conn.NumVtx(), m.Conn.NumFaces())
		return meshtext.Store(out, m)
	}

	m, err := meshtext.Load(in)
	if err != nil {
		return err
	}
	enc := libhry.NewEncoder(m, libhry.EncodeOpts{})

	if catPath == "" {
		return enc.Encode(out, &libhry.LogProgress{Label: "encode"})
	}

	var buf bytes.Buffer
	if err := enc.Encode(&buf, &libhry.LogProgress{Label: "encode"}); err != nil {
		return err
	}
	if _, err := out.Write(buf.Bytes()); err != nil {
		return err
	}

	cat, err := catalog.Open(catalog.Opts{DbPathName: catPath})
	if err != nil {
		return err
	}
	defer cat.Close()
	added, err := cat.TryAddMesh(buf.Bytes(), catalog.MeshInfo{
		NumVtx:  uint32(m.Conn.NumVtx()),
		NumFace: uint32(m.Conn.NumFaces()),
	})
	if err != nil {
		return err
	}
	klog.V(2).Infof("catalog: added=%v meshes=%d", added, cat.NumMeshes())
	return nil
}
