package world

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Vec3 is an integer grid coordinate. It names a chunk (ChunkCoord) or a
// voxel, depending on context.
type Vec3 struct {
	X, Y, Z int
}

// ChunkCoord identifies a chunk in the chunk grid.
type ChunkCoord = Vec3

func (v Vec3) Left() Vec3 {
	return Vec3{v.X - 1, v.Y, v.Z}
}
func (v Vec3) Right() Vec3 {
	return Vec3{v.X + 1, v.Y, v.Z}
}
func (v Vec3) Up() Vec3 {
	return Vec3{v.X, v.Y + 1, v.Z}
}
func (v Vec3) Down() Vec3 {
	return Vec3{v.X, v.Y - 1, v.Z}
}
func (v Vec3) Front() Vec3 {
	return Vec3{v.X, v.Y, v.Z + 1}
}
func (v Vec3) Back() Vec3 {
	return Vec3{v.X, v.Y, v.Z - 1}
}

// Neighbors returns the six face neighbours in mesh face order:
// up, down, right, left, front, back.
func (v Vec3) Neighbors() [6]Vec3 {
	return [6]Vec3{v.Up(), v.Down(), v.Right(), v.Left(), v.Front(), v.Back()}
}

func (v Vec3) Add(o Vec3) Vec3 {
	return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z}
}

func (v Vec3) Sub(o Vec3) Vec3 {
	return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z}
}

// Less orders coordinates lexicographically by x, then y, then z.
func (v Vec3) Less(o Vec3) bool {
	if v.X != o.X {
		return v.X < o.X
	}
	if v.Y != o.Y {
		return v.Y < o.Y
	}
	return v.Z < o.Z
}

// Dist returns the euclidean distance between two grid coordinates.
func (v Vec3) Dist(o Vec3) float64 {
	d := v.Sub(o)
	return math.Sqrt(float64(d.X*d.X + d.Y*d.Y + d.Z*d.Z))
}

func (v Vec3) Vec3f() mgl32.Vec3 {
	return mgl32.Vec3{float32(v.X), float32(v.Y), float32(v.Z)}
}

func (v Vec3) String() string {
	return fmt.Sprintf("(%d,%d,%d)", v.X, v.Y, v.Z)
}

// Chunkid returns the chunk containing the voxel v.
func (v Vec3) Chunkid() ChunkCoord {
	return ChunkCoord{
		floorDiv(v.X, ChunkSize),
		floorDiv(v.Y, ChunkSize),
		floorDiv(v.Z, ChunkSize),
	}
}

// Local returns v's offset inside its chunk, each component in [0, ChunkSize).
func (v Vec3) Local() Vec3 {
	return Vec3{floorMod(v.X, ChunkSize), floorMod(v.Y, ChunkSize), floorMod(v.Z, ChunkSize)}
}

// VoxelAt returns the voxel cell containing the world position pos.
func VoxelAt(pos mgl32.Vec3) Vec3 {
	return Vec3{
		int(math.Floor(float64(pos.X() / VoxelSize))),
		int(math.Floor(float64(pos.Y() / VoxelSize))),
		int(math.Floor(float64(pos.Z() / VoxelSize))),
	}
}

// WorldToChunkCoord maps a world position to the chunk containing it.
func WorldToChunkCoord(pos mgl32.Vec3) ChunkCoord {
	return VoxelAt(pos).Chunkid()
}

// WorldToLocalVoxel maps a world position to the voxel offset inside its
// chunk.
func WorldToLocalVoxel(pos mgl32.Vec3) Vec3 {
	return VoxelAt(pos).Local()
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func floorMod(a, b int) int {
	m := a % b
	if m < 0 {
		m += b
	}
	return m
}
