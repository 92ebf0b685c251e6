package physics

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"

	"github.com/humboldt-xie/voxelworld/octree"
	"github.com/humboldt-xie/voxelworld/world"
)

type fakeFactory struct {
	next   BodyID
	bodies map[BodyID]mgl32.Vec3
	fail   bool
}

func newFakeFactory() *fakeFactory {
	return &fakeFactory{bodies: make(map[BodyID]mgl32.Vec3)}
}

func (f *fakeFactory) CreateBox(center, half mgl32.Vec3) (BodyID, error) {
	if f.fail {
		return 0, errors.New("engine full")
	}
	f.next++
	f.bodies[f.next] = center
	return f.next, nil
}

func (f *fakeFactory) DestroyBody(id BodyID) {
	delete(f.bodies, id)
}

func line() *octree.Octree[world.PhysicsVoxel] {
	idx := octree.NewDefault[world.PhysicsVoxel]()
	for x := 0; x < 30; x++ {
		p := mgl32.Vec3{float32(x), 0, 0}
		idx.Insert(p, world.PhysicsVoxel{Position: p, Size: 1, Type: 1})
	}
	return idx
}

func TestActivatorStep(t *testing.T) {
	f := newFakeFactory()
	a := NewActivator(line(), f, 5, nil)

	created, destroyed := a.Step(mgl32.Vec3{0, 0, 0})
	if created != 6 || destroyed != 0 || a.Active() != 6 {
		t.Fatalf("created=%d destroyed=%d active=%d", created, destroyed, a.Active())
	}
	found := false
	for _, c := range f.bodies {
		if c == (mgl32.Vec3{0.5, 0.5, 0.5}) {
			found = true
		}
	}
	if !found {
		t.Fatalf("no body centred on voxel 0: %v", f.bodies)
	}

	created, destroyed = a.Step(mgl32.Vec3{0, 0, 0})
	if created != 0 || destroyed != 0 {
		t.Fatalf("repeat step created=%d destroyed=%d", created, destroyed)
	}

	created, destroyed = a.Step(mgl32.Vec3{3, 0, 0})
	if created != 3 || destroyed != 0 || a.Active() != 9 {
		t.Fatalf("created=%d destroyed=%d active=%d", created, destroyed, a.Active())
	}

	created, destroyed = a.Step(mgl32.Vec3{20, 0, 0})
	if created != 11 || destroyed != 9 || len(f.bodies) != 11 {
		t.Fatalf("created=%d destroyed=%d bodies=%d", created, destroyed, len(f.bodies))
	}

	a.Reset()
	if a.Active() != 0 || len(f.bodies) != 0 {
		t.Fatalf("reset left %d bodies", len(f.bodies))
	}
}

func TestActivatorCreateFailure(t *testing.T) {
	f := newFakeFactory()
	f.fail = true
	a := NewActivator(line(), f, 2, nil)
	if created, _ := a.Step(mgl32.Vec3{}); created != 0 || a.Active() != 0 {
		t.Fatalf("created=%d active=%d", created, a.Active())
	}
	f.fail = false
	if created, _ := a.Step(mgl32.Vec3{}); created != 3 {
		t.Fatalf("retry created=%d want 3", created)
	}
}
