package attrcode_test

import (
	"math"
	"testing"

	"github.com/bubnikv/harry/libhry/attrcode"
	"github.com/bubnikv/harry/libhry/mixing"
)

func iv(i int64) mixing.Value {
	return mixing.Value{K: mixing.Long, I: i}
}

func dv(f float64) mixing.Value {
	return mixing.Value{K: mixing.Double, F: f}
}

func TestPredictParallelogram(t *testing.T) {
	got := attrcode.Predict(iv(20), iv(30), iv(10), 0)
	if got.I != 40 {
		t.Fatalf("predict = %d, want 40", got.I)
	}

	// Floats snap onto the quantization lattice.
	got = attrcode.Predict(dv(1.0), dv(2.1), dv(0.4), 0.5)
	if got.F != 2.5 {
		t.Fatalf("predict = %g, want 2.5", got.F)
	}
}

func TestDeltaRoundTripInt(t *testing.T) {
	for _, tc := range []struct{ raw, pred int64 }{
		{100, 40}, {-5, 12}, {0, 0}, {7, 7},
	} {
		delta := attrcode.EncodeDelta(iv(tc.raw), iv(tc.pred), 0)
		back := attrcode.DecodeDelta(delta, iv(tc.pred), 0)
		if back.I != tc.raw {
			t.Fatalf("round trip %d -> %d", tc.raw, back.I)
		}
	}
}

func TestDeltaFloatQuantized(t *testing.T) {
	const q = 0.25
	raw, pred := dv(3.37), dv(1.0)
	delta := attrcode.EncodeDelta(raw, pred, q)
	if delta.F != math.Round(delta.F) {
		t.Fatalf("quantized delta %g is not integral", delta.F)
	}
	back := attrcode.DecodeDelta(delta, pred, q)
	if diff := math.Abs(back.F - raw.F); diff > q/2 {
		t.Fatalf("|%g - %g| = %g exceeds q/2", back.F, raw.F, diff)
	}
}

func TestDeltaFloatLossless(t *testing.T) {
	raw, pred := dv(3.375), dv(-1.5)
	delta := attrcode.EncodeDelta(raw, pred, 0)
	back := attrcode.DecodeDelta(delta, pred, 0)
	if back.F != raw.F {
		t.Fatalf("unquantized float round trip %g -> %g", raw.F, back.F)
	}
}

func TestDivRoundHalfAwayFromZero(t *testing.T) {
	for _, tc := range []struct{ a, n, want int64 }{
		{5, 2, 3}, {-5, 2, -3}, {4, 2, 2}, {7, 3, 2}, {-7, 3, -2},
	} {
		if got := iv(tc.a).DivRound(tc.n); got.I != tc.want {
			t.Fatalf("divround(%d, %d) = %d, want %d", tc.a, tc.n, got.I, tc.want)
		}
	}
}
