// Package pose implements component C3 (spec.md §4.3): head pose
// matrix reconstruction and the live<->texture landmark UV
// correspondence used for face-replacement mapping.
package pose

import (
	"math"

	"github.com/anoncam/core/internal/model"
)

// Vec3 is a plain 3-component vector, matched to the small hand-rolled
// transform-math idiom the GPU-facing code in the pack uses for
// uniform values rather than a full linear-algebra library.
type Vec3 struct{ X, Y, Z float64 }

func mulMat4(a, b model.Mat4) model.Mat4 {
	var out model.Mat4
	for col := 0; col < 4; col++ {
		for row := 0; row < 4; row++ {
			var sum float64
			for k := 0; k < 4; k++ {
				sum += a[k*4+row] * b[col*4+k]
			}
			out[col*4+row] = sum
		}
	}
	return out
}

func translate(v Vec3) model.Mat4 {
	m := model.Identity4()
	m[12] = v.X
	m[13] = v.Y
	m[14] = v.Z
	return m
}

func scaleMat(v Vec3) model.Mat4 {
	m := model.Identity4()
	m[0] = v.X
	m[5] = v.Y
	m[10] = v.Z
	return m
}

func uniformScale(s float64) model.Mat4 {
	return scaleMat(Vec3{s, s, s})
}

// rotateX/Y/Z build the standard right-handed rotation matrices around
// each axis; RotationMatrix composes them as R = Rz * Ry * Rx, per
// spec.md §4.3.
func rotateX(theta float64) model.Mat4 {
	m := model.Identity4()
	c, s := math.Cos(theta), math.Sin(theta)
	m[5] = c
	m[6] = s
	m[9] = -s
	m[10] = c
	return m
}

func rotateY(theta float64) model.Mat4 {
	m := model.Identity4()
	c, s := math.Cos(theta), math.Sin(theta)
	m[0] = c
	m[2] = -s
	m[8] = s
	m[10] = c
	return m
}

func rotateZ(theta float64) model.Mat4 {
	m := model.Identity4()
	c, s := math.Cos(theta), math.Sin(theta)
	m[0] = c
	m[1] = s
	m[4] = -s
	m[5] = c
	return m
}

// RotationMatrix builds R = Rz . Ry . Rx from euler angles, per
// spec.md §4.3.
func RotationMatrix(e model.Euler) model.Mat4 {
	rx := rotateX(e.Pitch)
	ry := rotateY(e.Yaw)
	rz := rotateZ(e.Roll)
	return mulMat4(rz, mulMat4(ry, rx))
}

// perspective builds a right-handed perspective projection matrix
// with the given vertical FOV (radians), aspect ratio, and near/far
// planes, per spec.md §4.3 (near=0.1, far=100).
func perspective(fovY, aspect, near, far float64) model.Mat4 {
	f := 1 / math.Tan(fovY/2)
	var m model.Mat4
	m[0] = f / aspect
	m[5] = f
	m[10] = (far + near) / (near - far)
	m[11] = -1
	m[14] = (2 * far * near) / (near - far)
	return m
}
