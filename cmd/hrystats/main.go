// hrystats sweeps the quantization step of every float attribute list
// in a mesh and charts the encoded size at each step.
package main

import (
	"bytes"
	"flag"
	"fmt"
	"os"

	"github.com/plan-systems/klog"
	"github.com/wcharczuk/go-chart/v2"

	"github.com/bubnikv/harry/hry"
	"github.com/bubnikv/harry/libhry"
	"github.com/bubnikv/harry/libhry/meshtext"
)

func main() {

	flag.Set("logtostderr", "true")
	flag.Set("v", "2")

	fset := flag.NewFlagSet("", flag.ContinueOnError)
	klog.InitFlags(fset)
	fset.Set("logtostderr", "true")
	klog.SetFormatter(&klog.FmtConstWidth{
		FileNameCharWidth: 16,
		UseColor:          true,
	})

	outPath := flag.String("o", "hrystats.svg", "chart output path")
	steps := flag.Int("steps", 8, "number of quantization steps to sweep")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: hrystats [-o chart.svg] [-steps n] input")
		os.Exit(2)
	}

	err := run(flag.Arg(0), *outPath, *steps)
	klog.Flush()
	if err != nil {
		fmt.Fprintln(os.Stderr, "hrystats:", err)
		os.Exit(1)
	}
}

func encodedSize(inPath string, quant float64) (int, error) {
	in, err := os.Open(inPath)
	if err != nil {
		return 0, err
	}
	defer in.Close()
	m, err := meshtext.Load(in)
	if err != nil {
		return 0, err
	}
	for l := 0; l < m.Attrs.Size(); l++ {
		list := m.Attrs.List(hry.ListIdx(l))
		if list.Format().HasFloat() && quant > 0 {
			list.Quant = quant
		}
	}
	var buf bytes.Buffer
	if err := libhry.NewEncoder(m, libhry.EncodeOpts{}).Encode(&buf, nil); err != nil {
		return 0, err
	}
	return buf.Len(), nil
}

func run(inPath, outPath string, steps int) error {
	xvals := make([]float64, 0, steps)
	yvals := make([]float64, 0, steps)

	q := 1.0
	for i := 0; i < steps; i++ {
		size, err := encodedSize(inPath, q)
		if err != nil {
			return err
		}
		klog.V(2).Infof("q=%g size=%d", q, size)
		xvals = append(xvals, q)
		yvals = append(yvals, float64(size))
		q /= 2
	}

	graph := chart.Chart{
		XAxis: chart.XAxis{Name: "quantization step"},
		YAxis: chart.YAxis{Name: "encoded bytes"},
		Series: []chart.Series{
			chart.ContinuousSeries{
				Style: chart.Style{
					DotWidth: 3,
				},
				XValues: xvals,
				YValues: yvals,
			},
		},
	}

	fh, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer fh.Close()
	return graph.Render(chart.SVG, fh)
}
