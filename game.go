package main

import (
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/humboldt-xie/voxelworld/octree"
	"github.com/humboldt-xie/voxelworld/physics"
	"github.com/humboldt-xie/voxelworld/render"
	"github.com/humboldt-xie/voxelworld/terrain"
	"github.com/humboldt-xie/voxelworld/world"
)

// Game drives one world update at a time: stream chunks, rebuild meshes,
// hand meshes to the renderer, then refresh physics bodies.
type Game struct {
	cfg *Config
	log *zap.Logger

	store     *world.ChunkStore
	gen       *terrain.Generator
	uploader  *render.MemoryUploader
	meshes    *render.MeshCache
	bodies    *bodyTable
	activator *physics.Activator

	ticks TickStats
}

func NewGame(cfg *Config, log *zap.Logger) (*Game, error) {
	storage, err := openStorage(cfg, log)
	if err != nil {
		return nil, err
	}
	store, err := world.NewChunkStore(storage,
		world.WithLoadRadius(cfg.World.LoadRadius),
		world.WithUnloadRadius(cfg.World.UnloadRadius),
		world.WithMissingCacheSize(cfg.World.MissingCache),
		world.WithLogger(log.Named("chunks")),
		world.WithIndex(octree.NewDefault[world.PhysicsVoxel]()),
	)
	if err != nil {
		storage.Close()
		return nil, err
	}
	g := &Game{
		cfg:      cfg,
		log:      log,
		store:    store,
		gen:      terrain.NewGenerator(cfg.TerrainConfig()),
		uploader: render.NewMemoryUploader(),
		bodies:   newBodyTable(),
	}
	g.meshes = render.NewMeshCache(g.uploader, log.Named("render"))
	g.activator = physics.NewActivator(store.Index(), g.bodies, cfg.Physics.ActivationRadius, log.Named("physics"))
	return g, nil
}

func openStorage(cfg *Config, log *zap.Logger) (world.Storage, error) {
	switch cfg.Storage.Backend {
	case "bolt":
		return world.NewBoltStorage(cfg.Storage.BoltPath, log.Named("bolt"))
	case "file":
		return world.NewFileStorage(cfg.World.Dir, log.Named("files"))
	}
	return nil, errors.Errorf("unknown storage backend %q", cfg.Storage.Backend)
}

// UpdateResult summarises one world update.
type UpdateResult struct {
	Rebuilt   int
	Uploaded  int
	Released  int
	Created   int
	Destroyed int
	Spend     time.Duration
}

// Update runs one world update for the viewpoint.
func (g *Game) Update(viewpoint mgl32.Vec3) UpdateResult {
	start := time.Now()
	var r UpdateResult
	g.store.UpdateLoadedChunks(viewpoint)
	r.Rebuilt = g.store.RebuildDirtyChunks()
	r.Uploaded, r.Released = g.meshes.Sync(g.store)
	r.Created, r.Destroyed = g.activator.Step(viewpoint)
	r.Spend = time.Since(start)
	g.ticks.Update(r.Spend)
	return r
}

// Generate writes a fresh nx×ny×nz world of terrain chunks.
func (g *Game) Generate(nx, ny, nz int) error {
	g.activator.Reset()
	g.meshes.Close()
	return g.store.GenerateWorld(g.gen, nx, ny, nz)
}

func (g *Game) Close() error {
	g.activator.Reset()
	g.meshes.Close()
	return g.store.Close()
}

// TickStats keeps a running view of update cost.
type TickStats struct {
	count int
	total time.Duration
	max   time.Duration
}

func (t *TickStats) Update(d time.Duration) {
	t.count++
	t.total += d
	if d > t.max {
		t.max = d
	}
}

func (t *TickStats) Count() int {
	return t.count
}

func (t *TickStats) Avg() time.Duration {
	if t.count == 0 {
		return 0
	}
	return t.total / time.Duration(t.count)
}

func (t *TickStats) Max() time.Duration {
	return t.max
}

// bodyTable stands in for a rigid body engine when running headless. It
// only remembers which boxes exist.
type bodyTable struct {
	next   physics.BodyID
	bodies map[physics.BodyID]mgl32.Vec3
}

func newBodyTable() *bodyTable {
	return &bodyTable{bodies: make(map[physics.BodyID]mgl32.Vec3)}
}

func (b *bodyTable) CreateBox(center, halfExtent mgl32.Vec3) (physics.BodyID, error) {
	b.next++
	b.bodies[b.next] = center
	return b.next, nil
}

func (b *bodyTable) DestroyBody(id physics.BodyID) {
	delete(b.bodies, id)
}

func (b *bodyTable) Len() int {
	return len(b.bodies)
}
