package world

import "github.com/go-gl/mathgl/mgl32"

// Voxel is a single cell of a chunk. Type 0 is air; any other type is solid.
// Material is a texture index for the renderer and is not persisted.
type Voxel struct {
	Color    mgl32.Vec4
	Type     uint8
	Material uint8
}

const (
	TypeAir   uint8 = 0
	TypeSolid uint8 = 1
)

// Air is the default cell: white, type 0.
var Air = Voxel{Color: mgl32.Vec4{1, 1, 1, 1}}

// NewVoxel returns a solid voxel of the given colour.
func NewVoxel(color mgl32.Vec4, typ uint8) Voxel {
	return Voxel{Color: color, Type: typ}
}

func (v Voxel) IsSolid() bool {
	return v.Type != TypeAir
}

// VoxelInfo places a voxel at a world position. Structure generators
// produce lists of these.
type VoxelInfo struct {
	Position mgl32.Vec3
	Voxel    Voxel
}

// PhysicsVoxel is the spatial index sample for one surface voxel.
type PhysicsVoxel struct {
	Position mgl32.Vec3
	Size     float32
	Type     uint8
}
