package world

import "github.com/go-gl/mathgl/mgl32"

// ObjectTypeVoxel tags vertices that belong to solid voxel geometry.
const ObjectTypeVoxel = 6

// Vertex is one corner of a mesh quad as handed to the renderer.
type Vertex struct {
	Position   mgl32.Vec3
	TexCoord   mgl32.Vec2
	Color      mgl32.Vec4
	Gradient   mgl32.Vec2
	ObjectType float32
	Normal     mgl32.Vec3
}

const (
	sup = iota
	sdown
	sright
	sleft
	sfront
	sback
)

var faceNormals = [6]mgl32.Vec3{
	sup:    {0, 1, 0},
	sdown:  {0, -1, 0},
	sright: {1, 0, 0},
	sleft:  {-1, 0, 0},
	sfront: {0, 0, 1},
	sback:  {0, 0, -1},
}

// corners of each face relative to the voxel minimum corner, counter
// clockwise seen from outside.
var faceCorners = [6][4]mgl32.Vec3{
	sup:    {{0, 1, 0}, {0, 1, 1}, {1, 1, 1}, {1, 1, 0}},
	sdown:  {{0, 0, 0}, {1, 0, 0}, {1, 0, 1}, {0, 0, 1}},
	sright: {{1, 0, 0}, {1, 1, 0}, {1, 1, 1}, {1, 0, 1}},
	sleft:  {{0, 0, 0}, {0, 0, 1}, {0, 1, 1}, {0, 1, 0}},
	sfront: {{0, 0, 1}, {1, 0, 1}, {1, 1, 1}, {0, 1, 1}},
	sback:  {{0, 0, 0}, {0, 1, 0}, {1, 1, 0}, {1, 0, 0}},
}

var faceIndices = [6]uint32{0, 1, 2, 0, 2, 3}

// RebuildMesh regenerates the cached surface mesh when the chunk is dirty.
// The dirty flag is left set for the mesh consumer to clear.
func (c *Chunk) RebuildMesh() {
	if !c.dirty {
		return
	}
	c.vertices = nil
	c.indices = nil
	if c.empty {
		return
	}

	origin := c.WorldPosition()
	for x := 0; x < ChunkSize; x++ {
		for y := 0; y < ChunkSize; y++ {
			for z := 0; z < ChunkSize; z++ {
				if !c.IsSolid(x, y, z) {
					continue
				}
				v := c.Voxel(x, y, z)
				pos := origin.Add(mgl32.Vec3{float32(x), float32(y), float32(z)}.Mul(VoxelSize))
				p := Vec3{x, y, z}
				var show [6]bool
				for i, n := range p.Neighbors() {
					show[i] = !c.IsSolid(n.X, n.Y, n.Z)
				}
				c.addCube(pos, v.Color, show)
			}
		}
	}
}

// show: up, down, right, left, front, back
func (c *Chunk) addCube(pos mgl32.Vec3, color mgl32.Vec4, show [6]bool) {
	for face := sup; face <= sback; face++ {
		if !show[face] {
			continue
		}
		base := uint32(len(c.vertices))
		for _, corner := range faceCorners[face] {
			c.vertices = append(c.vertices, Vertex{
				Position:   pos.Add(corner.Mul(VoxelSize)),
				Color:      color,
				ObjectType: ObjectTypeVoxel,
				Normal:     faceNormals[face],
			})
		}
		for _, i := range faceIndices {
			c.indices = append(c.indices, base+i)
		}
	}
}

// Vertices returns the cached mesh vertices. The slice is owned by the chunk.
func (c *Chunk) Vertices() []Vertex {
	return c.vertices
}

// Indices returns the cached triangle list.
func (c *Chunk) Indices() []uint32 {
	return c.indices
}
