package volume

import (
	"iter"

	"github.com/gekko3d/voxphys/geom"
)

// Storage maps lattice positions to voxels. Positions that were never written
// read back as the ambient voxel.
type Storage interface {
	// Get returns the voxel at p, or the ambient voxel.
	Get(p geom.IVec) Voxel
	// Modify runs fn with a handle to the voxel at p. The backing memory for p
	// exists before fn runs.
	Modify(p geom.IVec, fn func(v *Voxel))
	// Contains reports whether the backing memory for p is materialized.
	Contains(p geom.IVec) bool
	// ForEach visits every non-ambient voxel. Returning false stops the walk.
	ForEach(fn func(p geom.IVec, v Voxel) bool)
	// Bounds returns the inclusive extent of non-ambient voxels.
	Bounds() (lo, hi geom.IVec, ok bool)
	Ambient() Voxel
}

// Set writes v at p.
func Set(s Storage, p geom.IVec, v Voxel) {
	s.Modify(p, func(cur *Voxel) { *cur = v })
}

// FillBox writes v into every position of the inclusive box [lo, hi].
func FillBox(s Storage, lo, hi geom.IVec, v Voxel) {
	for x := lo[0]; x <= hi[0]; x++ {
		for y := lo[1]; y <= hi[1]; y++ {
			for z := lo[2]; z <= hi[2]; z++ {
				Set(s, geom.IVec{x, y, z}, v)
			}
		}
	}
}

// Cube fills a solid cube of the given radius around center, inclusive.
func Cube(s Storage, center geom.IVec, radius int, v Voxel) {
	r := geom.IVec{radius, radius, radius}
	FillBox(s, center.Sub(r), center.Add(r), v)
}

// Masses yields (position, mass) for every voxel with non-zero mass.
func Masses(s Storage) iter.Seq2[geom.IVec, int64] {
	return func(yield func(geom.IVec, int64) bool) {
		s.ForEach(func(p geom.IVec, v Voxel) bool {
			if m := v.Mass(); m != 0 {
				return yield(p, m)
			}
			return true
		})
	}
}
