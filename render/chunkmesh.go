// Package render is the renderer side of the chunk mesh contract: it picks
// up rebuilt chunk meshes, hands them to an uploader and clears the
// chunk's dirty flag. It also exports meshes and previews to files.
package render

import (
	"go.uber.org/zap"

	"github.com/humboldt-xie/voxelworld/world"
)

type Vec3 = world.Vec3

// Uploader receives chunk meshes, typically copying them into GPU buffers.
type Uploader interface {
	Upload(id Vec3, vertices []world.Vertex, indices []uint32) error
	Release(id Vec3)
}

// ChunkSource is the read side of the chunk store.
type ChunkSource interface {
	ForEachChunk(f func(c *world.Chunk))
	IsLoaded(id world.ChunkCoord) bool
}

// ChunkMesh records what was last uploaded for a chunk.
type ChunkMesh struct {
	Id       Vec3
	Vertices int
	Indices  int
	Version  int64
}

// MeshCache tracks uploaded chunk meshes.
type MeshCache struct {
	up     Uploader
	log    *zap.Logger
	meshes map[Vec3]*ChunkMesh
}

func NewMeshCache(up Uploader, log *zap.Logger) *MeshCache {
	if log == nil {
		log = zap.NewNop()
	}
	return &MeshCache{up: up, log: log, meshes: make(map[Vec3]*ChunkMesh)}
}

// Sync uploads the mesh of every dirty chunk, clearing its dirty flag once
// the upload succeeded, and releases meshes of chunks no longer loaded.
// Meshes must already be rebuilt.
func (m *MeshCache) Sync(src ChunkSource) (uploaded, released int) {
	src.ForEachChunk(func(c *world.Chunk) {
		if !c.Dirty() {
			return
		}
		if err := m.up.Upload(c.Id(), c.Vertices(), c.Indices()); err != nil {
			m.log.Error("upload chunk mesh", zap.Stringer("chunk", c.Id()), zap.Error(err))
			return
		}
		cm, ok := m.meshes[c.Id()]
		if !ok {
			cm = &ChunkMesh{Id: c.Id()}
			m.meshes[c.Id()] = cm
		}
		cm.Vertices = len(c.Vertices())
		cm.Indices = len(c.Indices())
		cm.Version++
		c.ClearDirty()
		uploaded++
	})
	for id := range m.meshes {
		if src.IsLoaded(id) {
			continue
		}
		m.up.Release(id)
		delete(m.meshes, id)
		released++
	}
	return uploaded, released
}

func (m *MeshCache) Mesh(id Vec3) *ChunkMesh {
	return m.meshes[id]
}

func (m *MeshCache) Len() int {
	return len(m.meshes)
}

// Close releases every uploaded mesh.
func (m *MeshCache) Close() {
	for id := range m.meshes {
		m.up.Release(id)
	}
	m.meshes = make(map[Vec3]*ChunkMesh)
}

// MemoryMesh is a CPU side copy of a chunk mesh.
type MemoryMesh struct {
	Vertices []world.Vertex
	Indices  []uint32
}

// MemoryUploader keeps copies of uploaded meshes in memory.
type MemoryUploader struct {
	Meshes map[Vec3]*MemoryMesh
}

func NewMemoryUploader() *MemoryUploader {
	return &MemoryUploader{Meshes: make(map[Vec3]*MemoryMesh)}
}

func (u *MemoryUploader) Upload(id Vec3, vertices []world.Vertex, indices []uint32) error {
	u.Meshes[id] = &MemoryMesh{
		Vertices: append([]world.Vertex(nil), vertices...),
		Indices:  append([]uint32(nil), indices...),
	}
	return nil
}

func (u *MemoryUploader) Release(id Vec3) {
	delete(u.Meshes, id)
}
