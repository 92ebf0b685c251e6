package world

import (
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl32"
	lru "github.com/hashicorp/golang-lru"
	"go.uber.org/zap"

	"github.com/humboldt-xie/voxelworld/octree"
)

const (
	DefaultLoadRadius   = 3
	DefaultUnloadRadius = 5
	DefaultMissingCache = 4096
)

// ChunkFiller fills a chunk's voxels in place, for example from a noise
// field. It never touches the spatial index.
type ChunkFiller interface {
	GenerateChunk(c *Chunk)
}

// Index is the spatial index holding one sample per loaded surface voxel.
type Index = octree.Octree[PhysicsVoxel]

// ChunkStore owns the loaded chunks and keeps the spatial index in step
// with them. It is single threaded: every call runs to completion and no
// method may be called concurrently.
type ChunkStore struct {
	storage  Storage
	log      *zap.Logger
	index    *Index
	chunks   map[ChunkCoord]*Chunk
	modified map[ChunkCoord]struct{}
	missing  *lru.Cache

	loadRadius   int
	unloadRadius int
	missingSize  int
}

type Option func(s *ChunkStore)

func WithLoadRadius(r int) Option {
	return func(s *ChunkStore) { s.loadRadius = r }
}

func WithUnloadRadius(r int) Option {
	return func(s *ChunkStore) { s.unloadRadius = r }
}

func WithLogger(l *zap.Logger) Option {
	return func(s *ChunkStore) { s.log = l }
}

func WithIndex(idx *Index) Option {
	return func(s *ChunkStore) { s.index = idx }
}

// WithMissingCacheSize bounds how many absent coordinates are remembered.
// Forgotten coordinates are simply probed again.
func WithMissingCacheSize(n int) Option {
	return func(s *ChunkStore) { s.missingSize = n }
}

func NewChunkStore(storage Storage, opts ...Option) (*ChunkStore, error) {
	s := &ChunkStore{
		storage:      storage,
		chunks:       make(map[ChunkCoord]*Chunk),
		modified:     make(map[ChunkCoord]struct{}),
		loadRadius:   DefaultLoadRadius,
		unloadRadius: DefaultUnloadRadius,
		missingSize:  DefaultMissingCache,
	}
	for _, o := range opts {
		o(s)
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	if s.index == nil {
		s.index = octree.NewDefault[PhysicsVoxel]()
	}
	if s.missingSize <= 0 {
		s.missingSize = DefaultMissingCache
	}
	if s.unloadRadius < s.loadRadius {
		s.unloadRadius = s.loadRadius
	}
	var err error
	s.missing, err = lru.New(s.missingSize)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (s *ChunkStore) Index() *Index {
	return s.index
}

func (s *ChunkStore) Storage() Storage {
	return s.storage
}

func (s *ChunkStore) LoadRadius() int { return s.loadRadius }
func (s *ChunkStore) UnloadRadius() int { return s.unloadRadius }

// SetLoadRadius changes the load radius, raising the unload radius with it
// when needed.
func (s *ChunkStore) SetLoadRadius(r int) {
	s.loadRadius = r
	if s.unloadRadius < r {
		s.unloadRadius = r
	}
}

// SetUnloadRadius changes the unload radius. Values below the load radius
// are clamped to it.
func (s *ChunkStore) SetUnloadRadius(r int) {
	if r < s.loadRadius {
		r = s.loadRadius
	}
	s.unloadRadius = r
}

// Chunk returns a loaded chunk or nil.
func (s *ChunkStore) Chunk(id ChunkCoord) *Chunk {
	return s.chunks[id]
}

// ChunkAt returns the loaded chunk containing the world position or nil.
func (s *ChunkStore) ChunkAt(pos mgl32.Vec3) *Chunk {
	return s.chunks[WorldToChunkCoord(pos)]
}

func (s *ChunkStore) IsLoaded(id ChunkCoord) bool {
	_, ok := s.chunks[id]
	return ok
}

func (s *ChunkStore) IsMissing(id ChunkCoord) bool {
	return s.missing.Contains(id)
}

func (s *ChunkStore) IsModified(id ChunkCoord) bool {
	_, ok := s.modified[id]
	return ok
}

// LoadedChunks returns the loaded coordinates in ascending order.
func (s *ChunkStore) LoadedChunks() []ChunkCoord {
	ids := make([]ChunkCoord, 0, len(s.chunks))
	for id := range s.chunks {
		ids = append(ids, id)
	}
	sortCoords(ids)
	return ids
}

// ForEachChunk visits loaded chunks in coordinate order.
func (s *ChunkStore) ForEachChunk(f func(c *Chunk)) {
	for _, id := range s.LoadedChunks() {
		f(s.chunks[id])
	}
}

func sortCoords(ids []ChunkCoord) {
	sort.Slice(ids, func(i, j int) bool { return ids[i].Less(ids[j]) })
}

// UpdateLoadedChunks streams chunks around viewpoint: every coordinate
// inside the load sphere that is neither loaded nor known missing is
// loaded, then every loaded chunk beyond the unload radius is unloaded.
func (s *ChunkStore) UpdateLoadedChunks(viewpoint mgl32.Vec3) {
	center := WorldToChunkCoord(viewpoint)
	r := s.loadRadius
	var toLoad []ChunkCoord
	for x := -r; x <= r; x++ {
		for y := -r; y <= r; y++ {
			for z := -r; z <= r; z++ {
				if math.Sqrt(float64(x*x+y*y+z*z)) > float64(r) {
					continue
				}
				id := center.Add(Vec3{x, y, z})
				if s.IsLoaded(id) || s.IsMissing(id) {
					continue
				}
				toLoad = append(toLoad, id)
			}
		}
	}
	for _, id := range toLoad {
		s.Load(id)
	}

	var toUnload []ChunkCoord
	for id := range s.chunks {
		if id.Dist(center) > float64(s.unloadRadius) {
			toUnload = append(toUnload, id)
		}
	}
	sortCoords(toUnload)
	for _, id := range toUnload {
		s.Unload(id)
	}
	if len(toLoad) > 0 || len(toUnload) > 0 {
		s.log.Debug("update loaded chunks",
			zap.Stringer("center", center),
			zap.Int("requested", len(toLoad)),
			zap.Int("unloaded", len(toUnload)),
			zap.Int("loaded", len(s.chunks)))
	}
}

// Load returns the chunk at id, reading it from storage when it is not
// loaded yet. A chunk that is absent or cannot be decoded is remembered as
// missing and nil is returned. Load never generates terrain.
func (s *ChunkStore) Load(id ChunkCoord) *Chunk {
	if c, ok := s.chunks[id]; ok {
		return c
	}
	data, err := s.storage.Read(id)
	if err != nil {
		if !IsNotExist(err) {
			s.log.Error("read chunk", zap.Stringer("chunk", id), zap.Error(err))
		}
		s.missing.Add(id, struct{}{})
		return nil
	}
	c, err := DecodeChunk(data)
	if err != nil {
		s.log.Error("decode chunk", zap.String("path", s.storage.Path(id)), zap.Error(err))
		s.missing.Add(id, struct{}{})
		return nil
	}
	if c.Id() != id {
		s.log.Error("chunk coordinate mismatch",
			zap.String("path", s.storage.Path(id)), zap.Stringer("stored", c.Id()))
		s.missing.Add(id, struct{}{})
		return nil
	}
	s.indexChunk(c)
	s.chunks[id] = c
	s.missing.Remove(id)
	return c
}

// Unload persists the chunk if it was modified, removes its samples from
// the index and drops it.
func (s *ChunkStore) Unload(id ChunkCoord) {
	c, ok := s.chunks[id]
	if !ok {
		return
	}
	if s.IsModified(id) {
		s.save(c)
		delete(s.modified, id)
	}
	s.unindexChunk(c)
	delete(s.chunks, id)
}

func (s *ChunkStore) indexChunk(c *Chunk) {
	for _, pv := range c.SurfaceVoxels() {
		if !s.index.Insert(pv.Position, pv) {
			s.log.Warn("voxel outside index bounds", zap.Stringer("chunk", c.Id()))
		}
	}
}

func (s *ChunkStore) unindexChunk(c *Chunk) {
	for _, pv := range c.SurfaceVoxels() {
		s.index.Remove(pv.Position, samePhysicsVoxel(pv))
	}
}

func samePhysicsVoxel(pv PhysicsVoxel) func(PhysicsVoxel) bool {
	return func(o PhysicsVoxel) bool {
		return o.Position == pv.Position && o.Type == pv.Type
	}
}

func (s *ChunkStore) createEmptyChunk(id ChunkCoord) *Chunk {
	c := NewChunk(id)
	s.chunks[id] = c
	s.modified[id] = struct{}{}
	s.missing.Remove(id)
	return c
}

// VoxelWorld returns the voxel at a world position, or Air when its chunk
// is not loaded.
func (s *ChunkStore) VoxelWorld(pos mgl32.Vec3) Voxel {
	c := s.chunks[WorldToChunkCoord(pos)]
	if c == nil {
		return Air
	}
	l := WorldToLocalVoxel(pos)
	return c.Voxel(l.X, l.Y, l.Z)
}

// SetVoxelWorld writes a voxel at a world position. The owning chunk is
// loaded, or created empty when nothing is stored for it, and marked
// modified. Index samples around the edited voxel are refreshed.
func (s *ChunkStore) SetVoxelWorld(pos mgl32.Vec3, v Voxel) {
	id := WorldToChunkCoord(pos)
	c := s.Load(id)
	if c == nil {
		c = s.createEmptyChunk(id)
	}
	l := WorldToLocalVoxel(pos)
	nb := l.Neighbors()
	affected := append([]Vec3{l}, nb[:]...)
	for _, p := range affected {
		if pv, ok := c.surfaceSample(p.X, p.Y, p.Z); ok {
			s.index.Remove(pv.Position, samePhysicsVoxel(pv))
		}
	}
	c.SetVoxel(l.X, l.Y, l.Z, v)
	for _, p := range affected {
		if pv, ok := c.surfaceSample(p.X, p.Y, p.Z); ok {
			s.index.Insert(pv.Position, pv)
		}
	}
	s.modified[id] = struct{}{}
}

// PlaceVoxels writes a batch of voxels, such as a generated structure.
func (s *ChunkStore) PlaceVoxels(voxels []VoxelInfo) {
	for _, vi := range voxels {
		s.SetVoxelWorld(vi.Position, vi.Voxel)
	}
}

func (s *ChunkStore) save(c *Chunk) bool {
	data, err := c.MarshalBinary()
	if err == nil {
		err = s.storage.Write(c.Id(), data)
	}
	if err != nil {
		s.log.Error("save chunk", zap.String("path", s.storage.Path(c.Id())), zap.Error(err))
		return false
	}
	return true
}

// SaveModifiedChunks persists every modified chunk and clears the modified
// set. Failures are logged.
func (s *ChunkStore) SaveModifiedChunks() {
	ids := make([]ChunkCoord, 0, len(s.modified))
	for id := range s.modified {
		ids = append(ids, id)
	}
	sortCoords(ids)
	saved := 0
	for _, id := range ids {
		if c := s.chunks[id]; c != nil && s.save(c) {
			saved++
		}
	}
	s.modified = make(map[ChunkCoord]struct{})
	s.log.Info("saved modified chunks", zap.Int("count", saved))
}

// SaveAllChunks persists every loaded chunk.
func (s *ChunkStore) SaveAllChunks() {
	saved := 0
	s.ForEachChunk(func(c *Chunk) {
		if s.save(c) {
			saved++
		}
	})
	s.log.Info("saved all chunks", zap.Int("count", saved))
}

// RebuildDirtyChunks rebuilds the mesh of every dirty loaded chunk and
// returns how many were rebuilt.
func (s *ChunkStore) RebuildDirtyChunks() int {
	n := 0
	for _, c := range s.chunks {
		if c.Dirty() {
			c.RebuildMesh()
			n++
		}
	}
	return n
}

// ClearWorld drops every chunk without saving, empties the index and the
// bookkeeping sets, and deletes everything persisted.
func (s *ChunkStore) ClearWorld() error {
	s.chunks = make(map[ChunkCoord]*Chunk)
	s.modified = make(map[ChunkCoord]struct{})
	s.missing.Purge()
	s.index.Clear()
	return s.storage.Clear()
}

// GenerateWorld clears the world and writes nx×ny×nz generated chunks
// starting at chunk (0,0,0). Generated chunks are saved, not loaded.
func (s *ChunkStore) GenerateWorld(gen ChunkFiller, nx, ny, nz int) error {
	if err := s.ClearWorld(); err != nil {
		return err
	}
	n := 0
	for x := 0; x < nx; x++ {
		for y := 0; y < ny; y++ {
			for z := 0; z < nz; z++ {
				c := NewChunk(ChunkCoord{x, y, z})
				gen.GenerateChunk(c)
				if s.save(c) {
					n++
				}
			}
		}
	}
	s.log.Info("generated world", zap.Int("chunks", n))
	return nil
}

type Stats struct {
	Loaded   int
	Modified int
	Missing  int
	Index    octree.Stats
}

func (s *ChunkStore) Stats() Stats {
	return Stats{
		Loaded:   len(s.chunks),
		Modified: len(s.modified),
		Missing:  s.missing.Len(),
		Index:    s.index.Stats(),
	}
}

// Close saves modified chunks and closes the storage.
func (s *ChunkStore) Close() error {
	s.SaveModifiedChunks()
	return s.storage.Close()
}
