package world

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/humboldt-xie/voxelworld/octree"
)

func newTestStore(t *testing.T, opts ...Option) (*ChunkStore, *FileStorage) {
	t.Helper()
	fs, err := NewFileStorage(filepath.Join(t.TempDir(), "world_data"), nil)
	if err != nil {
		t.Fatal(err)
	}
	s, err := NewChunkStore(fs, opts...)
	if err != nil {
		t.Fatal(err)
	}
	return s, fs
}

// floorFiller makes a flat solid slab in the lowest two layers.
type floorFiller struct{}

func (floorFiller) GenerateChunk(c *Chunk) {
	for x := 0; x < ChunkSize; x++ {
		for z := 0; z < ChunkSize; z++ {
			c.SetVoxel(x, 0, z, red)
			c.SetVoxel(x, 1, z, red)
		}
	}
}

func writeChunk(t *testing.T, fs *FileStorage, c *Chunk) {
	t.Helper()
	data, err := c.MarshalBinary()
	if err != nil {
		t.Fatal(err)
	}
	if err := fs.Write(c.Id(), data); err != nil {
		t.Fatal(err)
	}
}

func indexCount(s *ChunkStore) int {
	return len(s.Index().Query(s.Index().Bounds()))
}

func expectedSamples(s *ChunkStore) int {
	n := 0
	s.ForEachChunk(func(c *Chunk) { n += len(c.SurfaceVoxels()) })
	return n
}

func TestCoordinateMapping(t *testing.T) {
	for _, id := range []ChunkCoord{{0, 0, 0}, {-1, -1, -1}, {3, -7, 12}, {-40, 2, 0}} {
		c := NewChunk(id)
		if got := WorldToChunkCoord(c.WorldPosition()); got != id {
			t.Fatalf("WorldToChunkCoord(origin of %v)=%v", id, got)
		}
		for _, off := range []mgl32.Vec3{{0.1, 0.1, 0.1}, {31.9, 0.5, 16}, {15.5, 31.99, 31.5}} {
			p := c.WorldPosition().Add(off)
			if got := WorldToChunkCoord(p); got != id {
				t.Fatalf("WorldToChunkCoord(%v)=%v want %v", p, got, id)
			}
			l := WorldToLocalVoxel(p)
			if l.X < 0 || l.X >= ChunkSize || l.Y < 0 || l.Y >= ChunkSize || l.Z < 0 || l.Z >= ChunkSize {
				t.Fatalf("WorldToLocalVoxel(%v)=%v out of range", p, l)
			}
			want := Vec3{int(off.X()), int(off.Y()), int(off.Z())}
			if l != want {
				t.Fatalf("WorldToLocalVoxel(%v)=%v want %v", p, l, want)
			}
		}
	}
	if got := WorldToLocalVoxel(mgl32.Vec3{-0.5, -32, -33}); got != (Vec3{31, 0, 31}) {
		t.Fatalf("negative local=%v", got)
	}
}

func TestLoadMissing(t *testing.T) {
	s, _ := newTestStore(t)
	if c := s.Load(ChunkCoord{1, 2, 3}); c != nil {
		t.Fatalf("load of absent chunk returned %v", c.Id())
	}
	if !s.IsMissing(ChunkCoord{1, 2, 3}) {
		t.Fatalf("absent chunk not marked missing")
	}
	if s.IsLoaded(ChunkCoord{1, 2, 3}) {
		t.Fatalf("absent chunk loaded")
	}
}

func TestLoadCorrupt(t *testing.T) {
	s, fs := newTestStore(t)
	id := ChunkCoord{0, 0, 0}
	if err := os.WriteFile(fs.Path(id), []byte{1, 2, 3}, 0644); err != nil {
		t.Fatal(err)
	}
	if c := s.Load(id); c != nil {
		t.Fatalf("corrupt chunk loaded")
	}
	if !s.IsMissing(id) {
		t.Fatalf("corrupt chunk not marked missing")
	}
}

func TestLoadIndexesSurface(t *testing.T) {
	s, fs := newTestStore(t)
	c := NewChunk(ChunkCoord{0, 0, 0})
	floorFiller{}.GenerateChunk(c)
	writeChunk(t, fs, c)

	if s.Load(c.Id()) == nil {
		t.Fatalf("load failed")
	}
	want := 2 * ChunkSize * ChunkSize
	if got := indexCount(s); got != want {
		t.Fatalf("index=%d want %d", got, want)
	}
	s.Unload(c.Id())
	if got := indexCount(s); got != 0 {
		t.Fatalf("index after unload=%d want 0", got)
	}
	if s.IsLoaded(c.Id()) {
		t.Fatalf("chunk still loaded")
	}
}

// Scenario: writing into a chunk with no backing file creates it, and the
// saved file holds the voxel.
func TestSetVoxelWorldCreatesChunk(t *testing.T) {
	s, fs := newTestStore(t)
	pos := mgl32.Vec3{-10.5, 40.2, 3}
	id := WorldToChunkCoord(pos)

	s.SetVoxelWorld(pos, red)
	if !s.IsLoaded(id) || !s.IsModified(id) {
		t.Fatalf("loaded=%v modified=%v", s.IsLoaded(id), s.IsModified(id))
	}
	if got := s.VoxelWorld(pos); got.Type != red.Type {
		t.Fatalf("VoxelWorld=%v", got)
	}
	s.SaveModifiedChunks()
	if s.IsModified(id) {
		t.Fatalf("modified set not cleared")
	}
	if _, err := os.Stat(fs.Path(id)); err != nil {
		t.Fatalf("chunk file: %v", err)
	}

	s2, err := NewChunkStore(fs)
	if err != nil {
		t.Fatal(err)
	}
	if s2.Load(id) == nil {
		t.Fatalf("reload failed")
	}
	if got := s2.VoxelWorld(pos); got.Type != red.Type || got.Color != red.Color {
		t.Fatalf("reloaded voxel=%v want %v", got, red)
	}
}

func TestVoxelWorldUnloaded(t *testing.T) {
	s, _ := newTestStore(t)
	if got := s.VoxelWorld(mgl32.Vec3{1, 1, 1}); got != Air {
		t.Fatalf("VoxelWorld of unloaded chunk=%v", got)
	}
	if s.IsLoaded(ChunkCoord{}) {
		t.Fatalf("read loaded a chunk")
	}
}

func TestSetVoxelWorldKeepsIndex(t *testing.T) {
	s, _ := newTestStore(t)
	for x := 0; x < 3; x++ {
		for y := 0; y < 3; y++ {
			for z := 0; z < 3; z++ {
				s.SetVoxelWorld(mgl32.Vec3{float32(x), float32(y), float32(z)}, red)
			}
		}
	}
	if got := indexCount(s); got != 26 {
		t.Fatalf("index=%d want 26", got)
	}
	s.SetVoxelWorld(mgl32.Vec3{1, 2, 1}, Air)
	if got, want := indexCount(s), expectedSamples(s); got != want || got != 26 {
		t.Fatalf("index=%d want %d (26)", got, want)
	}
	s.SetVoxelWorld(mgl32.Vec3{1, 1, 1}, Air)
	if got, want := indexCount(s), expectedSamples(s); got != want {
		t.Fatalf("index=%d want %d", got, want)
	}
	s.Unload(ChunkCoord{})
	if got := indexCount(s); got != 0 {
		t.Fatalf("index after unload=%d", got)
	}
}

func TestUnloadSavesModified(t *testing.T) {
	s, fs := newTestStore(t)
	s.SetVoxelWorld(mgl32.Vec3{1, 1, 1}, red)
	s.Unload(ChunkCoord{})
	if _, err := os.Stat(fs.Path(ChunkCoord{})); err != nil {
		t.Fatalf("unload did not save: %v", err)
	}
	if s.IsModified(ChunkCoord{}) {
		t.Fatalf("modified mark kept")
	}
}

func TestStreamingInvariant(t *testing.T) {
	idx := octree.New[PhysicsVoxel](octree.BoxAround(mgl32.Vec3{}, 2048), 8, 12)
	s, fs := newTestStore(t, WithLoadRadius(2), WithUnloadRadius(3), WithIndex(idx))
	for x := -6; x <= 6; x++ {
		for y := -2; y <= 2; y++ {
			for z := -2; z <= 2; z++ {
				c := NewChunk(ChunkCoord{x, y, z})
				if y == 0 {
					floorFiller{}.GenerateChunk(c)
				}
				writeChunk(t, fs, c)
			}
		}
	}

	path := []mgl32.Vec3{{0, 0, 0}, {40, 5, 0}, {100, 5, 0}, {-150, 0, 10}, {16, 16, 16}}
	for _, v := range path {
		s.UpdateLoadedChunks(v)
		center := WorldToChunkCoord(v)
		for _, id := range s.LoadedChunks() {
			if id.Dist(center) > float64(s.UnloadRadius()) {
				t.Fatalf("at %v: chunk %v beyond unload radius", v, id)
			}
		}
		for x := -2; x <= 2; x++ {
			for y := -2; y <= 2; y++ {
				for z := -2; z <= 2; z++ {
					id := center.Add(Vec3{x, y, z})
					if id.Dist(center) > 2 || id.X < -6 || id.X > 6 || id.Y < -2 || id.Y > 2 || id.Z < -2 || id.Z > 2 {
						continue
					}
					if !s.IsLoaded(id) {
						t.Fatalf("at %v: chunk %v not loaded", v, id)
					}
				}
			}
		}
		if got, want := indexCount(s), expectedSamples(s); got != want {
			t.Fatalf("at %v: index=%d want %d", v, got, want)
		}
	}

	// far outside the stored area everything is missing and nothing loads
	s.UpdateLoadedChunks(mgl32.Vec3{10000, 0, 0})
	if n := len(s.LoadedChunks()); n != 0 {
		t.Fatalf("loaded=%d want 0", n)
	}
	if !s.IsMissing(WorldToChunkCoord(mgl32.Vec3{10000, 0, 0})) {
		t.Fatalf("center not marked missing")
	}
}

func TestRadiusClamp(t *testing.T) {
	s, _ := newTestStore(t, WithLoadRadius(4), WithUnloadRadius(2))
	if s.UnloadRadius() != 4 {
		t.Fatalf("unload=%d want 4", s.UnloadRadius())
	}
	s.SetUnloadRadius(1)
	if s.UnloadRadius() != 4 {
		t.Fatalf("unload=%d want 4", s.UnloadRadius())
	}
	s.SetLoadRadius(6)
	if s.UnloadRadius() != 6 {
		t.Fatalf("unload=%d want 6", s.UnloadRadius())
	}
}

func TestGenerateAndClearWorld(t *testing.T) {
	s, fs := newTestStore(t)
	s.SetVoxelWorld(mgl32.Vec3{500, 0, 0}, red)
	if err := s.GenerateWorld(floorFiller{}, 2, 1, 2); err != nil {
		t.Fatal(err)
	}
	if len(s.LoadedChunks()) != 0 || indexCount(s) != 0 {
		t.Fatalf("generate left chunks loaded")
	}
	files, _ := filepath.Glob(filepath.Join(fs.Dir(), "*.dat"))
	if len(files) != 4 {
		t.Fatalf("files=%d want 4", len(files))
	}

	s.UpdateLoadedChunks(mgl32.Vec3{16, 16, 16})
	if !s.IsLoaded(ChunkCoord{1, 0, 1}) {
		t.Fatalf("generated chunk not streamed in")
	}
	if n := s.RebuildDirtyChunks(); n != 4 {
		t.Fatalf("rebuilt=%d want 4", n)
	}

	if err := s.ClearWorld(); err != nil {
		t.Fatal(err)
	}
	files, _ = filepath.Glob(filepath.Join(fs.Dir(), "*.dat"))
	if len(files) != 0 || len(s.LoadedChunks()) != 0 || indexCount(s) != 0 {
		t.Fatalf("clear left files=%d loaded=%d", len(files), len(s.LoadedChunks()))
	}
}

func TestSaveAllChunks(t *testing.T) {
	s, fs := newTestStore(t)
	s.SetVoxelWorld(mgl32.Vec3{1, 1, 1}, red)
	s.SetVoxelWorld(mgl32.Vec3{40, 1, 1}, red)
	s.SaveAllChunks()
	for _, id := range []ChunkCoord{{0, 0, 0}, {1, 0, 0}} {
		if _, err := os.Stat(fs.Path(id)); err != nil {
			t.Fatalf("chunk %v not saved: %v", id, err)
		}
	}
}

func TestBoltStorage(t *testing.T) {
	bs, err := NewBoltStorage(filepath.Join(t.TempDir(), "world.db"), nil)
	if err != nil {
		t.Fatal(err)
	}
	s, err := NewChunkStore(bs)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := bs.Read(ChunkCoord{}); !IsNotExist(err) {
		t.Fatalf("read of absent chunk err=%v", err)
	}
	s.SetVoxelWorld(mgl32.Vec3{3, 4, 5}, red)
	s.SaveModifiedChunks()

	s2, _ := NewChunkStore(bs)
	if s2.Load(ChunkCoord{}) == nil {
		t.Fatalf("bolt reload failed")
	}
	if got := s2.VoxelWorld(mgl32.Vec3{3, 4, 5}); got.Type != red.Type {
		t.Fatalf("voxel=%v", got)
	}
	if err := bs.Clear(); err != nil {
		t.Fatal(err)
	}
	if _, err := bs.Read(ChunkCoord{}); !IsNotExist(err) {
		t.Fatalf("read after clear err=%v", err)
	}
	if err := bs.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestBoltKeys(t *testing.T) {
	want := []byte{1, 0, 0, 0, 0xff, 0xff, 0xff, 0xff, 0xfe, 0xff, 0xff, 0xff}
	if got := encodeVec3(Vec3{1, -1, -2}); !bytes.Equal(got, want) {
		t.Fatalf("key=%v want %v", got, want)
	}

	bs, err := NewBoltStorage(filepath.Join(t.TempDir(), "world.db"), nil)
	if err != nil {
		t.Fatal(err)
	}
	defer bs.Close()
	ids := []ChunkCoord{{0, 0, 0}, {-1, 0, 0}, {0, -1, 0}, {1, -1, -2}}
	for i, id := range ids {
		if err := bs.Write(id, []byte{byte(i)}); err != nil {
			t.Fatal(err)
		}
	}
	for i, id := range ids {
		data, err := bs.Read(id)
		if err != nil {
			t.Fatalf("%v: %v", id, err)
		}
		if len(data) != 1 || data[0] != byte(i) {
			t.Fatalf("%v: data=%v want [%d]", id, data, i)
		}
	}
}
