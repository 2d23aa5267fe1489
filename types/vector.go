package types

import (
	"math"

	"golang.org/x/image/math/f64"
)

type Vec3 f64.Vec3
type Vec4 f64.Vec4
type Mat3 f64.Mat3

const floatCmpEpsilon = 1e-12

// Define a 3 component vector.
func XYZ(x, y, z float64) Vec3 {
	return Vec3{x, y, z}
}

// Expand a 3 component vector to a Vec4.
func (v Vec3) Vec4(w float64) Vec4 {
	return Vec4{v[0], v[1], v[2], w}
}

// Reduce a 4 component vector to a Vec3.
func (v Vec4) Vec3() Vec3 {
	return Vec3{v[0], v[1], v[2]}
}

// Add a vector.
func (v Vec3) Add(v2 Vec3) Vec3 {
	return Vec3{v[0] + v2[0], v[1] + v2[1], v[2] + v2[2]}
}

// Subtract a vector.
func (v Vec3) Sub(v2 Vec3) Vec3 {
	return Vec3{v[0] - v2[0], v[1] - v2[1], v[2] - v2[2]}
}

// Multiply a 3 component vector with a scalar.
func (v Vec3) Mul(s float64) Vec3 {
	return Vec3{v[0] * s, v[1] * s, v[2] * s}
}

// Get 3 component vector length.
func (v Vec3) Len() float64 {
	return math.Sqrt(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])
}

// Normalize 3 component vector.
func (v Vec3) Normalize() Vec3 {
	l := v.Len()
	if l < floatCmpEpsilon {
		return Vec3{}
	}
	return v.Mul(1.0 / l)
}

// Calculate dot product of 2 vectors
func (v Vec3) Dot(v2 Vec3) float64 {
	return v[0]*v2[0] + v[1]*v2[1] + v[2]*v2[2]
}

// Calculate cross product of 2 vectors.
func (v Vec3) Cross(v2 Vec3) Vec3 {
	return Vec3{v[1]*v2[2] - v[2]*v2[1], v[2]*v2[0] - v[0]*v2[2], v[0]*v2[1] - v[1]*v2[0]}
}

// Calc min component from two vectors
func MinVec3(v1, v2 Vec3) Vec3 {
	out := v1
	for i := 0; i < 3; i++ {
		if v2[i] < out[i] {
			out[i] = v2[i]
		}
	}
	return out
}

// Calc max component from two vectors
func MaxVec3(v1, v2 Vec3) Vec3 {
	out := v1
	for i := 0; i < 3; i++ {
		if v2[i] > out[i] {
			out[i] = v2[i]
		}
	}
	return out
}

// Convert an angle triple from degrees to radians.
func (v Vec3) Radians() Vec3 {
	return Vec3{Deg2Rad(v[0]), Deg2Rad(v[1]), Deg2Rad(v[2])}
}

// Convert an angle triple from radians to degrees.
func (v Vec3) Degrees() Vec3 {
	return Vec3{Rad2Deg(v[0]), Rad2Deg(v[1]), Rad2Deg(v[2])}
}

// Conversion factors are computed in float64 arithmetic, not as exact
// constants, so they round the same way numpy's deg2rad does.
var (
	pi       = math.Pi
	degToRad = pi / 180.0
	radToDeg = 180.0 / pi
)

// Convert degrees to radians.
func Deg2Rad(deg float64) float64 {
	return deg * degToRad
}

// Convert radians to degrees.
func Rad2Deg(rad float64) float64 {
	return rad * radToDeg
}
