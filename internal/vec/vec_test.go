package vec

import (
	"math"
	"testing"
)

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestNormalize(t *testing.T) {
	tests := []struct {
		name   string
		in     Vec2
		want   Vec2
		length float64
	}{
		{"unit x", V(3, 0), V(1, 0), 3},
		{"diagonal", V(3, 4), V(0.6, 0.8), 5},
		{"zero", V(0, 0), V(0, 0), 0},
		{"tiny", V(1e-20, 0), V(0, 0), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, length := tt.in.Normalize()
			if !approx(got.X, tt.want.X) || !approx(got.Y, tt.want.Y) {
				t.Errorf("Normalize(%v) = %v, want %v", tt.in, got, tt.want)
			}
			if !approx(length, tt.length) {
				t.Errorf("length = %f, want %f", length, tt.length)
			}
		})
	}
}

func TestCross(t *testing.T) {
	a, b := V(1, 0), V(0, 1)
	if Cross(a, b) != 1 {
		t.Errorf("expected 1, got %f", Cross(a, b))
	}
	if got := CrossVS(a, 1); got != V(0, -1) {
		t.Errorf("CrossVS = %v", got)
	}
	if got := CrossSV(1, a); got != V(0, 1) {
		t.Errorf("CrossSV = %v", got)
	}
}

func TestRotation(t *testing.T) {
	r := Rotation(math.Pi / 2)
	got := Mul(r, V(1, 0))
	if !approx(got.X, 0) || !approx(got.Y, 1) {
		t.Errorf("rotate x by 90deg = %v", got)
	}

	back := MulT(r, got)
	if !approx(back.X, 1) || !approx(back.Y, 0) {
		t.Errorf("inverse rotate = %v", back)
	}
}

func TestSolveAndInvert(t *testing.T) {
	m := Rows(V(4, 1), V(2, 3))
	b := V(1, 2)

	x := m.Solve(b)
	check := Mul(m, x)
	if !approx(check.X, b.X) || !approx(check.Y, b.Y) {
		t.Errorf("m*Solve(b) = %v, want %v", check, b)
	}

	inv := m.Invert()
	id := MulMM(m, inv)
	if !approx(id.Col1.X, 1) || !approx(id.Col2.Y, 1) || !approx(id.Col1.Y, 0) || !approx(id.Col2.X, 0) {
		t.Errorf("m*inv = %v", id)
	}
}

func TestSingular(t *testing.T) {
	tests := []struct {
		name string
		m    Mat22
	}{
		{"exact", Rows(V(1, 2), V(2, 4))},
		{"below epsilon", Rows(V(1e-9, 0), V(0, 1e-9))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.m.Solve(V(1, 1)); got != (Vec2{}) {
				t.Errorf("singular solve should be zero, got %v", got)
			}
			if got := tt.m.Invert(); got != (Mat22{}) {
				t.Errorf("singular invert should be zero, got %v", got)
			}
		})
	}
}

func TestTransform(t *testing.T) {
	xf := NewTransform(V(1, 2), math.Pi)
	p := xf.Apply(V(1, 0))
	if !approx(p.X, 0) || !approx(p.Y, 2) {
		t.Errorf("Apply = %v", p)
	}
	l := xf.ApplyT(p)
	if !approx(l.X, 1) || !approx(l.Y, 0) {
		t.Errorf("ApplyT = %v", l)
	}
}
