// Package physics keeps rigid bodies alive for the surface voxels near a
// viewpoint. The rigid body engine itself sits behind BodyFactory.
package physics

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/humboldt-xie/voxelworld/octree"
	"github.com/humboldt-xie/voxelworld/world"
)

const DefaultActivationRadius = 10

// BodyID identifies a body created by a BodyFactory.
type BodyID uint64

// BodyFactory creates and destroys static box bodies in the physics engine.
type BodyFactory interface {
	CreateBox(center mgl32.Vec3, halfExtent mgl32.Vec3) (BodyID, error)
	DestroyBody(id BodyID)
}

// Querier is the read side of the spatial index.
type Querier interface {
	QueryRadius(center mgl32.Vec3, r float32) []octree.Item[world.PhysicsVoxel]
}

// Activator mirrors the index samples within Radius of the viewpoint as
// static bodies. It only reads the index.
type Activator struct {
	Radius float32

	index   Querier
	factory BodyFactory
	log     *zap.Logger
	active  map[mgl32.Vec3]BodyID
}

func NewActivator(index Querier, factory BodyFactory, radius float32, log *zap.Logger) *Activator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Activator{
		Radius:  radius,
		index:   index,
		factory: factory,
		log:     log,
		active:  make(map[mgl32.Vec3]BodyID),
	}
}

// Step creates bodies for samples that came into range and destroys the
// ones that left it.
func (a *Activator) Step(viewpoint mgl32.Vec3) (created, destroyed int) {
	items := a.index.QueryRadius(viewpoint, a.Radius)
	want := make(map[mgl32.Vec3]struct{}, len(items))
	for _, it := range items {
		want[it.Position] = struct{}{}
		if _, ok := a.active[it.Position]; ok {
			continue
		}
		half := it.Data.Size / 2
		center := it.Position.Add(mgl32.Vec3{half, half, half})
		id, err := a.factory.CreateBox(center, mgl32.Vec3{half, half, half})
		if err != nil {
			a.log.Warn("create body", zap.Error(errors.Wrapf(err, "voxel at %v", it.Position)))
			continue
		}
		a.active[it.Position] = id
		created++
	}
	for pos, id := range a.active {
		if _, ok := want[pos]; ok {
			continue
		}
		a.factory.DestroyBody(id)
		delete(a.active, pos)
		destroyed++
	}
	return created, destroyed
}

// Active returns the number of live bodies.
func (a *Activator) Active() int {
	return len(a.active)
}

// Reset destroys every live body.
func (a *Activator) Reset() {
	for pos, id := range a.active {
		a.factory.DestroyBody(id)
		delete(a.active, pos)
	}
}
