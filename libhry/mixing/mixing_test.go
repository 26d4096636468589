package mixing_test

import (
	"testing"

	"github.com/bubnikv/harry/libhry/mixing"
)

func TestValueArithmetic(t *testing.T) {
	a := mixing.Value{K: mixing.Long, I: 7}
	b := mixing.Value{K: mixing.Long, I: -12}
	if got := a.Add(b); got.I != -5 {
		t.Fatalf("7 + -12 = %d", got.I)
	}
	if got := a.Sub(b); got.I != 19 {
		t.Fatalf("7 - -12 = %d", got.I)
	}

	// 32-bit kinds wrap through Norm.
	c := mixing.Value{K: mixing.Int, I: 1<<31 - 1}
	one := mixing.Value{K: mixing.Int, I: 1}
	if got := c.Add(one); got.I != -(1 << 31) {
		t.Fatalf("int32 wrap = %d", got.I)
	}

	u := mixing.Value{K: mixing.UInt, I: 0}
	if got := u.Sub(one); got.I != int64(^uint32(0)) {
		t.Fatalf("uint32 wrap = %d", got.I)
	}
}

func TestFloatNorm(t *testing.T) {
	v := mixing.Value{K: mixing.Float, F: 1.00000001}
	n := v.Norm()
	if n.F != float64(float32(1.00000001)) {
		t.Fatal("Float kind must round through float32")
	}
}

func TestDataViews(t *testing.T) {
	fmt := mixing.Format{mixing.Long, mixing.Long, mixing.Long}
	d := mixing.NewData(fmt, 2)
	if d.Len() != 2 {
		t.Fatalf("len = %d", d.Len())
	}
	v0 := d.View(0)
	v0[1].I = 42
	if d.View(0)[1].I != 42 {
		t.Fatal("views must alias the slab")
	}
	if d.View(1)[1].I != 0 {
		t.Fatal("cells must not overlap")
	}

	v1 := d.View(1)
	v1.Assign(v0)
	if !d.View(1).Equal(v0) {
		t.Fatal("assign/equal broken")
	}

	d.Grow(5)
	if d.Len() != 5 {
		t.Fatalf("grown len = %d", d.Len())
	}
	if d.View(4)[0].K != mixing.Long {
		t.Fatal("grown cells must carry the format kinds")
	}
}
