// Package mixing provides runtime-typed numeric cells for attribute
// storage. A cell is a fixed-width sequence of components; each component
// carries a kind tag so arithmetic can dispatch on the numeric domain
// without the caller knowing the attribute's concrete type.
package mixing

import "math"

// Kind tags the numeric domain of one component.
type Kind uint8

const (
	Int Kind = iota
	UInt
	Long
	ULong
	Float
	Double
)

func (k Kind) String() string {
	return [...]string{"int", "uint", "long", "ulong", "float", "double"}[k]
}

// IsFloat reports whether the kind lives in a floating-point domain.
func (k Kind) IsFloat() bool {
	return k == Float || k == Double
}

// Value is one numeric component. Integral kinds use I; floating kinds
// use F. The kind tag travels with the value.
type Value struct {
	K Kind
	I int64
	F float64
}

// Norm clamps the value back into its kind's domain: 32-bit integral
// kinds wrap, Float rounds through float32 precision.
func (v Value) Norm() Value {
	switch v.K {
	case Int:
		v.I = int64(int32(v.I))
	case UInt:
		v.I = int64(uint32(v.I))
	case Float:
		v.F = float64(float32(v.F))
	}
	return v
}

// Zero returns the additive identity of v's kind.
func (v Value) Zero() Value {
	return Value{K: v.K}
}

// Equal compares two components of the same kind.
func (v Value) Equal(o Value) bool {
	if v.K.IsFloat() {
		return v.F == o.F
	}
	return v.I == o.I
}

// Add returns v + o in v's domain, wrapping integrals.
func (v Value) Add(o Value) Value {
	if v.K.IsFloat() {
		v.F += o.F
	} else {
		v.I = int64(uint64(v.I) + uint64(o.I))
	}
	return v.Norm()
}

// Sub returns v - o in v's domain, wrapping integrals.
func (v Value) Sub(o Value) Value {
	if v.K.IsFloat() {
		v.F -= o.F
	} else {
		v.I = int64(uint64(v.I) - uint64(o.I))
	}
	return v.Norm()
}

// DivRound divides by n rounding to nearest, half away from zero.
func (v Value) DivRound(n int64) Value {
	if n == 0 {
		return v
	}
	if v.K.IsFloat() {
		v.F /= float64(n)
		return v.Norm()
	}
	v.I = divRound(v.I, n)
	return v.Norm()
}

func divRound(a, n int64) int64 {
	if n < 0 {
		a, n = -a, -n
	}
	if a >= 0 {
		return (a + n/2) / n
	}
	return -((-a + n/2) / n)
}

// AbsDiff returns |v - o| as a float64, used by the prediction selection
// rule for floating kinds.
func (v Value) AbsDiff(o Value) float64 {
	var d float64
	if v.K.IsFloat() {
		d = v.F - o.F
	} else {
		d = float64(v.I - o.I)
	}
	return math.Abs(d)
}

// Format describes the component kinds of one attribute list's cells.
type Format []Kind

// Width is the number of components per cell.
func (fmt Format) Width() int {
	return len(fmt)
}

// HasFloat reports whether any component is floating-point.
func (fmt Format) HasFloat() bool {
	for _, k := range fmt {
		if k.IsFloat() {
			return true
		}
	}
	return false
}

// View is one cell: a window of Format.Width() components into a Data
// slab. Views alias their backing storage.
type View []Value

// SetZero clears every component to its kind's zero.
func (v View) SetZero() {
	for i := range v {
		v[i] = v[i].Zero()
	}
}

// Assign copies src's components into v.
func (v View) Assign(src View) {
	copy(v, src)
}

// Equal compares two cells component-wise.
func (v View) Equal(o View) bool {
	if len(v) != len(o) {
		return false
	}
	for i := range v {
		if !v[i].Equal(o[i]) {
			return false
		}
	}
	return true
}

// Set1 applies fn component-wise: v[i] = fn(a[i]).
func (v View) Set1(fn func(Value) Value, a View) {
	for i := range v {
		v[i] = fn(a[i])
	}
}

// Set2 applies fn component-wise: v[i] = fn(a[i], b[i]).
func (v View) Set2(fn func(a, b Value) Value, a, b View) {
	for i := range v {
		v[i] = fn(a[i], b[i])
	}
}

// Set3 applies fn component-wise: v[i] = fn(a[i], b[i], c[i]).
func (v View) Set3(fn func(a, b, c Value) Value, a, b, c View) {
	for i := range v {
		v[i] = fn(a[i], b[i], c[i])
	}
}

// Data is a slab of cells sharing one Format.
type Data struct {
	fmt  Format
	vals []Value
}

// NewData allocates a slab of n cells, all components zeroed to their
// kinds.
func NewData(fmt Format, n int) Data {
	d := Data{
		fmt:  fmt,
		vals: make([]Value, n*fmt.Width()),
	}
	w := fmt.Width()
	for i := range d.vals {
		d.vals[i].K = fmt[i%w]
	}
	return d
}

// Len is the number of cells.
func (d *Data) Len() int {
	w := d.fmt.Width()
	if w == 0 {
		return 0
	}
	return len(d.vals) / w
}

// Format returns the slab's component layout.
func (d *Data) Format() Format {
	return d.fmt
}

// View returns cell i.
func (d *Data) View(i int) View {
	w := d.fmt.Width()
	return View(d.vals[i*w : (i+1)*w])
}

// Grow appends zeroed cells until the slab holds at least n of them.
func (d *Data) Grow(n int) {
	w := d.fmt.Width()
	for d.Len() < n {
		for c := 0; c < w; c++ {
			d.vals = append(d.vals, Value{K: d.fmt[c]})
		}
	}
}
