package mathutil

// EulerDeg builds the rotation for Euler angles in degrees applied X, then Y, then Z
// (R = Rz · Ry · Rx).
func EulerDeg(x, y, z float64) Mat3 {
	return Mat3Mul(Mat3Mul(axisRotation(2, z), axisRotation(1, y)), axisRotation(0, x))
}

// EulerDegToQuat is EulerDeg expressed as a unit quaternion.
func EulerDegToQuat(x, y, z float64) Quat {
	return axisQuat(2, z).mul(axisQuat(1, y)).mul(axisQuat(0, x))
}

// TRS composes scale, then rotation (degrees), then translation into one point transform.
func TRS(t, rotDeg, s Vec3) func(Vec3) Vec3 {
	r := EulerDeg(rotDeg[0], rotDeg[1], rotDeg[2])
	return func(p Vec3) Vec3 {
		return r.MulVec3(p.Mul(s)).Add(t)
	}
}
