package physics

import (
	"math"

	"github.com/gekko3d/voxphys/geom"
	"github.com/go-gl/mathgl/mgl32"
)

// rankTolerance is the fraction of the tensor trace below which a principal
// moment counts as zero.
const rankTolerance = 1e-9

type sym3 [3][3]float64

// inertiaAboutCOM applies the parallel axis shift in float64:
// I_com = I_origin - (|s|^2 I - s s^T) / m, where s is the mass-weighted
// position sum.
func inertiaAboutCOM(origin geom.LMat, s geom.LVec, m int64) sym3 {
	shift := geom.LIdent().Scale(s.Dot(s)).Sub(geom.Outer(s, s))
	var r sym3
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			r[i][j] = float64(origin[i][j]) - float64(shift[i][j])/float64(m)
		}
	}
	return r
}

// eigen diagonalizes a symmetric matrix with cyclic Jacobi rotations. The
// columns of vecs are the eigenvectors matching vals.
func (a sym3) eigen() (vals [3]float64, vecs sym3) {
	vecs = sym3{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
	var scale float64
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			scale += a[i][j] * a[i][j]
		}
	}
	for sweep := 0; sweep < 50 && scale > 0; sweep++ {
		off := a[0][1]*a[0][1] + a[0][2]*a[0][2] + a[1][2]*a[1][2]
		if off <= 1e-30*scale {
			break
		}
		for _, pq := range [3][2]int{{0, 1}, {0, 2}, {1, 2}} {
			p, q := pq[0], pq[1]
			if a[p][q] == 0 {
				continue
			}
			theta := (a[q][q] - a[p][p]) / (2 * a[p][q])
			t := 1 / (math.Abs(theta) + math.Sqrt(theta*theta+1))
			if theta < 0 {
				t = -t
			}
			c := 1 / math.Sqrt(t*t+1)
			s := t * c
			for k := 0; k < 3; k++ {
				akp, akq := a[k][p], a[k][q]
				a[k][p] = c*akp - s*akq
				a[k][q] = s*akp + c*akq
			}
			for k := 0; k < 3; k++ {
				apk, aqk := a[p][k], a[q][k]
				a[p][k] = c*apk - s*aqk
				a[q][k] = s*apk + c*aqk
			}
			for k := 0; k < 3; k++ {
				vkp, vkq := vecs[k][p], vecs[k][q]
				vecs[k][p] = c*vkp - s*vkq
				vecs[k][q] = s*vkp + c*vkq
			}
		}
	}
	return [3]float64{a[0][0], a[1][1], a[2][2]}, vecs
}

// pseudoInverse inverts a positive semi-definite tensor on its range.
// Principal moments below rankTolerance times the trace map to zero, so a
// point never rotates and a line never spins about its own axis.
func (a sym3) pseudoInverse() sym3 {
	vals, vecs := a.eigen()
	limit := rankTolerance * (vals[0] + vals[1] + vals[2])
	var r sym3
	if limit <= 0 {
		return r
	}
	for k := 0; k < 3; k++ {
		if vals[k] <= limit {
			continue
		}
		inv := 1 / vals[k]
		for i := 0; i < 3; i++ {
			for j := 0; j < 3; j++ {
				r[i][j] += inv * vecs[i][k] * vecs[j][k]
			}
		}
	}
	return r
}

// mat3 converts to a column-major mgl32 matrix.
func (a sym3) mat3() mgl32.Mat3 {
	var r mgl32.Mat3
	for row := 0; row < 3; row++ {
		for col := 0; col < 3; col++ {
			r[col*3+row] = float32(a[row][col])
		}
	}
	return r
}
