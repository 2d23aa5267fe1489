package types

import "math"

// Create a 3x3 identity matrix.
func Ident3() Mat3 {
	return Mat3{
		1, 0, 0,
		0, 1, 0,
		0, 0, 1,
	}
}

// Create a rotation matrix for an XYZ euler angle triple (radians). The
// rotations are applied in X, Y, Z order so the returned matrix equals
// Rz * Ry * Rx. The matrix is stored in row-major order.
func EulerXYZ(angles Vec3) Mat3 {
	sx, cx := math.Sincos(angles[0])
	sy, cy := math.Sincos(angles[1])
	sz, cz := math.Sincos(angles[2])

	return Mat3{
		cy * cz, sx*sy*cz - cx*sz, cx*sy*cz + sx*sz,
		cy * sz, sx*sy*sz + cx*cz, cx*sy*sz - sx*cz,
		-sy, sx * cy, cx * cy,
	}
}

// Multiply two 3x3 matrices.
func (m Mat3) Mul3(m2 Mat3) Mat3 {
	var out Mat3
	for row := 0; row < 3; row++ {
		for col := 0; col < 3; col++ {
			out[row*3+col] = m[row*3]*m2[col] + m[row*3+1]*m2[3+col] + m[row*3+2]*m2[6+col]
		}
	}
	return out
}

// Multiply matrix with a column vector.
func (m Mat3) Mul3x1(v Vec3) Vec3 {
	return Vec3{
		m[0]*v[0] + m[1]*v[1] + m[2]*v[2],
		m[3]*v[0] + m[4]*v[1] + m[5]*v[2],
		m[6]*v[0] + m[7]*v[1] + m[8]*v[2],
	}
}

// Transpose matrix. For rotation matrices this is also the inverse.
func (m Mat3) Transpose() Mat3 {
	return Mat3{
		m[0], m[3], m[6],
		m[1], m[4], m[7],
		m[2], m[5], m[8],
	}
}

// Return the matrix as a row slice.
func (m Mat3) Rows() [3][3]float64 {
	return [3][3]float64{
		{m[0], m[1], m[2]},
		{m[3], m[4], m[5]},
		{m[6], m[7], m[8]},
	}
}
