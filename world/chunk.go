package world

import (
	"github.com/go-gl/mathgl/mgl32"
)

const (
	ChunkSize = 32
	VoxelSize = 1

	chunkVolume = ChunkSize * ChunkSize * ChunkSize
)

// Chunk is a ChunkSize³ block of voxels with a cached surface mesh.
//
// dirty is set by every mutation and by a successful decode. It is cleared
// only by the mesh consumer once it has picked up the rebuilt mesh.
// empty starts true and becomes false the first time a solid voxel is set;
// it is not recomputed when voxels are cleared again.
type Chunk struct {
	id     ChunkCoord
	voxels []Voxel
	dirty  bool
	empty  bool

	vertices []Vertex
	indices  []uint32
}

func NewChunk(id ChunkCoord) *Chunk {
	c := &Chunk{
		id:     id,
		voxels: make([]Voxel, chunkVolume),
		dirty:  true,
		empty:  true,
	}
	c.reset()
	return c
}

func (c *Chunk) Id() ChunkCoord {
	return c.id
}

func (c *Chunk) reset() {
	for i := range c.voxels {
		c.voxels[i] = Air
	}
}

func inChunk(x, y, z int) bool {
	return x >= 0 && x < ChunkSize && y >= 0 && y < ChunkSize && z >= 0 && z < ChunkSize
}

func index(x, y, z int) int {
	return x + y*ChunkSize + z*ChunkSize*ChunkSize
}

// SetVoxel stores v at the local position. Out-of-range positions are
// ignored and reported by returning false.
func (c *Chunk) SetVoxel(x, y, z int, v Voxel) bool {
	if !inChunk(x, y, z) {
		return false
	}
	c.voxels[index(x, y, z)] = v
	c.dirty = true
	if v.IsSolid() {
		c.empty = false
	}
	return true
}

// Voxel returns the cell at the local position, or Air when out of range.
func (c *Chunk) Voxel(x, y, z int) Voxel {
	if !inChunk(x, y, z) {
		return Air
	}
	return c.voxels[index(x, y, z)]
}

func (c *Chunk) IsSolid(x, y, z int) bool {
	return c.Voxel(x, y, z).IsSolid()
}

// IsSurfaceVoxel reports whether the voxel is solid and at least one face
// neighbour is not. Neighbours outside the chunk count as air.
func (c *Chunk) IsSurfaceVoxel(x, y, z int) bool {
	if !c.IsSolid(x, y, z) {
		return false
	}
	p := Vec3{x, y, z}
	for _, n := range p.Neighbors() {
		if !c.IsSolid(n.X, n.Y, n.Z) {
			return true
		}
	}
	return false
}

// Fill sets every cell to v.
func (c *Chunk) Fill(v Voxel) {
	for i := range c.voxels {
		c.voxels[i] = v
	}
	c.dirty = true
	if v.IsSolid() {
		c.empty = false
	}
}

// WorldPosition returns the world-space origin of the chunk.
func (c *Chunk) WorldPosition() mgl32.Vec3 {
	return mgl32.Vec3{
		float32(c.id.X * ChunkSize * VoxelSize),
		float32(c.id.Y * ChunkSize * VoxelSize),
		float32(c.id.Z * ChunkSize * VoxelSize),
	}
}

// VoxelWorldPosition returns the world-space minimum corner of a local voxel.
func (c *Chunk) VoxelWorldPosition(x, y, z int) mgl32.Vec3 {
	return c.WorldPosition().Add(mgl32.Vec3{float32(x), float32(y), float32(z)}.Mul(VoxelSize))
}

// SurfaceVoxels returns an index sample for every surface voxel, in x, y, z
// loop order.
func (c *Chunk) SurfaceVoxels() []PhysicsVoxel {
	if c.empty {
		return nil
	}
	var out []PhysicsVoxel
	for x := 0; x < ChunkSize; x++ {
		for y := 0; y < ChunkSize; y++ {
			for z := 0; z < ChunkSize; z++ {
				if pv, ok := c.surfaceSample(x, y, z); ok {
					out = append(out, pv)
				}
			}
		}
	}
	return out
}

func (c *Chunk) surfaceSample(x, y, z int) (PhysicsVoxel, bool) {
	if !c.IsSurfaceVoxel(x, y, z) {
		return PhysicsVoxel{}, false
	}
	return PhysicsVoxel{
		Position: c.VoxelWorldPosition(x, y, z),
		Size:     VoxelSize,
		Type:     c.Voxel(x, y, z).Type,
	}, true
}

// SolidCount returns the number of solid cells.
func (c *Chunk) SolidCount() int {
	n := 0
	for _, v := range c.voxels {
		if v.IsSolid() {
			n++
		}
	}
	return n
}

func (c *Chunk) Dirty() bool {
	return c.dirty
}

func (c *Chunk) MarkDirty() {
	c.dirty = true
}

// ClearDirty is called by the mesh consumer after it has taken the mesh.
func (c *Chunk) ClearDirty() {
	c.dirty = false
}

func (c *Chunk) Empty() bool {
	return c.empty
}
