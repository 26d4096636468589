package attrcode

import (
	"math"

	"github.com/bubnikv/harry/libhry/mixing"
)

// Parallelogram and passthrough predictors plus the residual transforms,
// per numeric kind, parameterized by the list's quantization step q.
// q == 0 disables quantization; integral kinds treat any q below 2 as
// the identity lattice.

// Predict is the parallelogram prediction d0 + d1 - dop, rounded onto
// the quantization lattice for floating kinds when q > 0.
func Predict(d0, d1, dop mixing.Value, q float64) mixing.Value {
	r := d0.Add(d1).Sub(dop)
	if r.K.IsFloat() && q > 0 {
		r.F = math.Round(r.F/q) * q
		r = r.Norm()
	}
	return r
}

// PredictFace is the single-neighbor passthrough prediction.
func PredictFace(d0 mixing.Value, q float64) mixing.Value {
	_ = q
	return d0
}

// EncodeDelta maps a raw value and its prediction to the transmitted
// residual: round((raw-pred)/q) under quantization, raw-pred otherwise.
func EncodeDelta(raw, pred mixing.Value, q float64) mixing.Value {
	d := raw.Sub(pred)
	if d.K.IsFloat() {
		if q > 0 {
			d.F = math.Round(d.F / q)
		}
		return d.Norm()
	}
	if step := int64(q); step >= 2 {
		return d.DivRound(step)
	}
	return d
}

// DecodeDelta inverts EncodeDelta: pred + delta*q.
func DecodeDelta(delta, pred mixing.Value, q float64) mixing.Value {
	if delta.K.IsFloat() {
		if q > 0 {
			delta.F *= q
		}
		return pred.Add(delta)
	}
	if step := int64(q); step >= 2 {
		delta.I *= step
		delta = delta.Norm()
	}
	return pred.Add(delta)
}
