package volume

import "fmt"

// Voxel is the kind of material stored at a lattice position. The set of
// kinds is closed; behaviour is looked up in the tables below.
type Voxel uint8

const (
	Vacuum Voxel = iota
	Solid
	Frame

	voxelKinds
)

var voxelCollidable = [voxelKinds]bool{
	Vacuum: false,
	Solid:  true,
	Frame:  true,
}

var voxelMass = [voxelKinds]int64{
	Vacuum: 0,
	Solid:  1,
	Frame:  2,
}

var voxelNames = [voxelKinds]string{
	Vacuum: "Vacuum",
	Solid:  "Solid",
	Frame:  "Frame",
}

func (v Voxel) valid() bool {
	return v < voxelKinds
}

// Collidable reports whether the voxel occupies space.
func (v Voxel) Collidable() bool {
	if !v.valid() {
		return false
	}
	return voxelCollidable[v]
}

// Mass is the integer point mass the voxel contributes to a body.
func (v Voxel) Mass() int64 {
	if !v.valid() {
		return 0
	}
	return voxelMass[v]
}

func (v Voxel) String() string {
	if !v.valid() {
		return fmt.Sprintf("Voxel(%d)", uint8(v))
	}
	return voxelNames[v]
}
