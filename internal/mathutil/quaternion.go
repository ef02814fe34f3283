package mathutil

import "math"

// Quat is a unit quaternion stored as (x, y, z, w), the glTF node layout.
type Quat [4]float64

func axisQuat(axis int, deg float64) Quat {
	s, c := math.Sincos(deg * math.Pi / 360)
	var q Quat
	q[axis] = s
	q[3] = c
	return q
}

// mul returns the rotation q applied after r.
func (q Quat) mul(r Quat) Quat {
	return Quat{
		q[3]*r[0] + q[0]*r[3] + q[1]*r[2] - q[2]*r[1],
		q[3]*r[1] - q[0]*r[2] + q[1]*r[3] + q[2]*r[0],
		q[3]*r[2] + q[0]*r[1] - q[1]*r[0] + q[2]*r[3],
		q[3]*r[3] - q[0]*r[0] - q[1]*r[1] - q[2]*r[2],
	}
}
