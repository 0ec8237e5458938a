package volume

import (
	"fmt"

	"github.com/gekko3d/voxphys/geom"
)

// DenseStorage is a fixed box of voxels backed by one flat array. Reads
// outside the box return the ambient voxel; writes outside it panic.
type DenseStorage struct {
	Min     geom.IVec
	Shape   geom.IVec
	Payload []Voxel

	ambient Voxel
}

func NewDenseStorage(min, shape geom.IVec, ambient Voxel) *DenseStorage {
	if shape[0] < 0 || shape[1] < 0 || shape[2] < 0 {
		panic(fmt.Sprintf("dense storage shape must be non-negative, got %v", shape))
	}
	d := &DenseStorage{
		Min:     min,
		Shape:   shape,
		Payload: make([]Voxel, shape[0]*shape[1]*shape[2]),
		ambient: ambient,
	}
	if ambient != 0 {
		for i := range d.Payload {
			d.Payload[i] = ambient
		}
	}
	return d
}

// CopyFrom copies every non-ambient voxel of src that lies inside d.
func (d *DenseStorage) CopyFrom(src Storage) {
	src.ForEach(func(p geom.IVec, v Voxel) bool {
		if idx, ok := d.index(p); ok {
			d.Payload[idx] = v
		}
		return true
	})
}

func (d *DenseStorage) index(p geom.IVec) (int, bool) {
	l := p.Sub(d.Min)
	for i := 0; i < 3; i++ {
		if l[i] < 0 || l[i] >= d.Shape[i] {
			return 0, false
		}
	}
	return l[0] + l[1]*d.Shape[0] + l[2]*d.Shape[0]*d.Shape[1], true
}

func (d *DenseStorage) Ambient() Voxel {
	return d.ambient
}

func (d *DenseStorage) Get(p geom.IVec) Voxel {
	idx, ok := d.index(p)
	if !ok {
		return d.ambient
	}
	return d.Payload[idx]
}

func (d *DenseStorage) Modify(p geom.IVec, fn func(v *Voxel)) {
	idx, ok := d.index(p)
	if !ok {
		panic(fmt.Sprintf("position %v outside dense storage [%v, %v)", p, d.Min, d.Min.Add(d.Shape)))
	}
	fn(&d.Payload[idx])
}

func (d *DenseStorage) Contains(p geom.IVec) bool {
	_, ok := d.index(p)
	return ok
}

func (d *DenseStorage) ForEach(fn func(p geom.IVec, v Voxel) bool) {
	sx, sy := d.Shape[0], d.Shape[1]
	for i, v := range d.Payload {
		if v == d.ambient {
			continue
		}
		local := geom.IVec{i % sx, (i / sx) % sy, i / (sx * sy)}
		if !fn(d.Min.Add(local), v) {
			return
		}
	}
}

func (d *DenseStorage) Bounds() (geom.IVec, geom.IVec, bool) {
	var lo, hi geom.IVec
	ok := false
	d.ForEach(func(p geom.IVec, _ Voxel) bool {
		if !ok {
			lo, hi, ok = p, p, true
		} else {
			lo, hi = lo.Min(p), hi.Max(p)
		}
		return true
	})
	return lo, hi, ok
}
