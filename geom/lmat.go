package geom

import "github.com/go-gl/mathgl/mgl32"

// LVec is an exact integer vector used for mass-weighted sums.
type LVec [3]int64

func (v LVec) Add(o LVec) LVec {
	return LVec{v[0] + o[0], v[1] + o[1], v[2] + o[2]}
}

func (v LVec) Scale(s int64) LVec {
	return LVec{v[0] * s, v[1] * s, v[2] * s}
}

func (v LVec) Dot(o LVec) int64 {
	return v[0]*o[0] + v[1]*o[1] + v[2]*o[2]
}

func (v LVec) Vec3() mgl32.Vec3 {
	return mgl32.Vec3{float32(v[0]), float32(v[1]), float32(v[2])}
}

// LMat is an exact 3x3 integer matrix stored row-major.
type LMat [3][3]int64

func LIdent() LMat {
	return LMat{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
}

func (m LMat) Add(o LMat) LMat {
	var r LMat
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			r[i][j] = m[i][j] + o[i][j]
		}
	}
	return r
}

func (m LMat) Sub(o LMat) LMat {
	var r LMat
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			r[i][j] = m[i][j] - o[i][j]
		}
	}
	return r
}

func (m LMat) Scale(s int64) LMat {
	var r LMat
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			r[i][j] = m[i][j] * s
		}
	}
	return r
}

// Outer returns a * b^T.
func Outer(a, b LVec) LMat {
	var r LMat
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			r[i][j] = a[i] * b[j]
		}
	}
	return r
}
