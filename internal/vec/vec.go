// Package vec provides the 2D vector and matrix primitives used by the
// collision and dynamics packages. All types are plain values.
package vec

import "math"

// Epsilon guards divisions by derived lengths and determinants.
const Epsilon = 2.220446049250313e-16

// Vec2 is a 2D column vector.
type Vec2 struct {
	X, Y float64
}

// V is shorthand for Vec2{x, y}.
func V(x, y float64) Vec2 { return Vec2{X: x, Y: y} }

func (a Vec2) Add(b Vec2) Vec2        { return Vec2{a.X + b.X, a.Y + b.Y} }
func (a Vec2) Sub(b Vec2) Vec2        { return Vec2{a.X - b.X, a.Y - b.Y} }
func (a Vec2) Scale(s float64) Vec2   { return Vec2{s * a.X, s * a.Y} }
func (a Vec2) Neg() Vec2              { return Vec2{-a.X, -a.Y} }
func (a Vec2) Dot(b Vec2) float64     { return a.X*b.X + a.Y*b.Y }
func (a Vec2) Length() float64        { return math.Sqrt(a.X*a.X + a.Y*a.Y) }
func (a Vec2) LengthSquared() float64 { return a.X*a.X + a.Y*a.Y }

// IsValid reports whether both components are finite.
func (a Vec2) IsValid() bool {
	return !math.IsNaN(a.X) && !math.IsNaN(a.Y) && !math.IsInf(a.X, 0) && !math.IsInf(a.Y, 0)
}

// Normalize returns the unit vector along a and the original length. A
// vector shorter than Epsilon yields the zero vector and length 0.
func (a Vec2) Normalize() (Vec2, float64) {
	length := a.Length()
	if length < Epsilon {
		return Vec2{}, 0
	}
	inv := 1 / length
	return Vec2{a.X * inv, a.Y * inv}, length
}

// Dot returns a·b.
func Dot(a, b Vec2) float64 { return a.X*b.X + a.Y*b.Y }

// Cross returns the scalar z component of a×b.
func Cross(a, b Vec2) float64 { return a.X*b.Y - a.Y*b.X }

// CrossVS returns a×s, a vector perpendicular to a (clockwise for s > 0).
func CrossVS(a Vec2, s float64) Vec2 { return Vec2{s * a.Y, -s * a.X} }

// CrossSV returns s×a, a vector perpendicular to a (counter-clockwise for s > 0).
func CrossSV(s float64, a Vec2) Vec2 { return Vec2{-s * a.Y, s * a.X} }

// Distance returns |a-b|.
func Distance(a, b Vec2) float64 { return a.Sub(b).Length() }

func Min(a, b Vec2) Vec2 { return Vec2{math.Min(a.X, b.X), math.Min(a.Y, b.Y)} }
func Max(a, b Vec2) Vec2 { return Vec2{math.Max(a.X, b.X), math.Max(a.Y, b.Y)} }
func Abs(a Vec2) Vec2    { return Vec2{math.Abs(a.X), math.Abs(a.Y)} }

// Lerp returns (1-t)*a + t*b.
func Lerp(a, b Vec2, t float64) Vec2 {
	return a.Scale(1 - t).Add(b.Scale(t))
}

// Clamp limits x to [lo, hi].
func Clamp(x, lo, hi float64) float64 {
	return math.Max(lo, math.Min(x, hi))
}

// Mat22 is a 2x2 matrix stored as two columns.
type Mat22 struct {
	Col1, Col2 Vec2
}

// Identity returns the identity matrix.
func Identity() Mat22 {
	return Mat22{Col1: Vec2{1, 0}, Col2: Vec2{0, 1}}
}

// Rotation returns the rotation matrix for angle radians.
func Rotation(angle float64) Mat22 {
	c, s := math.Cos(angle), math.Sin(angle)
	return Mat22{Col1: Vec2{c, s}, Col2: Vec2{-s, c}}
}

// Rows builds a matrix from its two rows.
func Rows(r1, r2 Vec2) Mat22 {
	return Mat22{Col1: Vec2{r1.X, r2.X}, Col2: Vec2{r1.Y, r2.Y}}
}

func (m Mat22) Add(n Mat22) Mat22 {
	return Mat22{Col1: m.Col1.Add(n.Col1), Col2: m.Col2.Add(n.Col2)}
}

// Transpose returns mᵀ.
func (m Mat22) Transpose() Mat22 {
	return Mat22{Col1: Vec2{m.Col1.X, m.Col2.X}, Col2: Vec2{m.Col1.Y, m.Col2.Y}}
}

// Abs returns the element-wise absolute value.
func (m Mat22) Abs() Mat22 {
	return Mat22{Col1: Abs(m.Col1), Col2: Abs(m.Col2)}
}

// Determinant of m.
func (m Mat22) Determinant() float64 {
	return m.Col1.X*m.Col2.Y - m.Col2.X*m.Col1.Y
}

// Invert returns m⁻¹. A matrix whose determinant is within Epsilon of zero
// inverts to the zero matrix.
func (m Mat22) Invert() Mat22 {
	a, b := m.Col1.X, m.Col2.X
	c, d := m.Col1.Y, m.Col2.Y
	det := a*d - b*c
	if math.Abs(det) <= Epsilon {
		return Mat22{}
	}
	det = 1 / det
	return Mat22{
		Col1: Vec2{det * d, -det * c},
		Col2: Vec2{-det * b, det * a},
	}
}

// Solve returns x such that m*x = b without forming the inverse. A
// determinant within Epsilon of zero yields the zero vector.
func (m Mat22) Solve(b Vec2) Vec2 {
	a11, a12 := m.Col1.X, m.Col2.X
	a21, a22 := m.Col1.Y, m.Col2.Y
	det := a11*a22 - a12*a21
	if math.Abs(det) <= Epsilon {
		return Vec2{}
	}
	det = 1 / det
	return Vec2{
		X: det * (a22*b.X - a12*b.Y),
		Y: det * (a11*b.Y - a21*b.X),
	}
}

// Mul returns m*v.
func Mul(m Mat22, v Vec2) Vec2 {
	return Vec2{
		X: m.Col1.X*v.X + m.Col2.X*v.Y,
		Y: m.Col1.Y*v.X + m.Col2.Y*v.Y,
	}
}

// MulT returns mᵀ*v.
func MulT(m Mat22, v Vec2) Vec2 {
	return Vec2{Dot(v, m.Col1), Dot(v, m.Col2)}
}

// MulMM returns a*b.
func MulMM(a, b Mat22) Mat22 {
	return Mat22{Col1: Mul(a, b.Col1), Col2: Mul(a, b.Col2)}
}

// MulTMM returns aᵀ*b.
func MulTMM(a, b Mat22) Mat22 {
	return Mat22{
		Col1: Vec2{Dot(a.Col1, b.Col1), Dot(a.Col2, b.Col1)},
		Col2: Vec2{Dot(a.Col1, b.Col2), Dot(a.Col2, b.Col2)},
	}
}

// Transform is a rigid transform: a translation and a rotation matrix.
type Transform struct {
	P Vec2
	R Mat22
}

// NewTransform builds a transform from a position and an angle.
func NewTransform(p Vec2, angle float64) Transform {
	return Transform{P: p, R: Rotation(angle)}
}

// Apply maps a local point to world space.
func (xf Transform) Apply(v Vec2) Vec2 { return xf.P.Add(Mul(xf.R, v)) }

// ApplyT maps a world point to local space.
func (xf Transform) ApplyT(v Vec2) Vec2 { return MulT(xf.R, v.Sub(xf.P)) }
