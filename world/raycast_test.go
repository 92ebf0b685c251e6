package world

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func approx(a, b float32) bool {
	d := a - b
	return d < 1e-4 && d > -1e-4
}

// A single voxel at the origin cell hit from straight above.
func TestCastRayHitFromAbove(t *testing.T) {
	s, _ := newTestStore(t)
	s.SetVoxelWorld(mgl32.Vec3{0, 0, 0}, red)

	hit := s.CastRay(mgl32.Vec3{0.5, 5, 0.5}, mgl32.Vec3{0, -1, 0})
	if !hit.Hit {
		t.Fatalf("no hit")
	}
	if !hit.Normal.ApproxEqual(mgl32.Vec3{0, 1, 0}) {
		t.Fatalf("normal=%v want (0,1,0)", hit.Normal)
	}
	if !approx(hit.Position.Y(), 1) || !approx(hit.Distance, 4) {
		t.Fatalf("position=%v distance=%v", hit.Position, hit.Distance)
	}
	if hit.Voxel != (Vec3{0, 0, 0}) {
		t.Fatalf("voxel=%v", hit.Voxel)
	}
}

func TestCastRayFaces(t *testing.T) {
	s, _ := newTestStore(t)
	target := mgl32.Vec3{-3, 2, 7}
	s.SetVoxelWorld(target, red)
	center := target.Add(mgl32.Vec3{0.5, 0.5, 0.5})

	for _, n := range []mgl32.Vec3{{1, 0, 0}, {-1, 0, 0}, {0, 1, 0}, {0, -1, 0}, {0, 0, 1}, {0, 0, -1}} {
		origin := center.Add(n.Mul(10))
		hit := s.CastRay(origin, n.Mul(-1))
		if !hit.Hit {
			t.Fatalf("from %v: no hit", n)
		}
		if !hit.Normal.ApproxEqual(n) {
			t.Fatalf("from %v: normal=%v", n, hit.Normal)
		}
		if !approx(hit.Distance, 9.5) {
			t.Fatalf("from %v: distance=%v want 9.5", n, hit.Distance)
		}
	}
}

func TestCastRayDiagonal(t *testing.T) {
	s, _ := newTestStore(t)
	s.SetVoxelWorld(mgl32.Vec3{40, 40, 40}, red)
	hit := s.CastRay(mgl32.Vec3{0.5, 0.5, 0.5}, mgl32.Vec3{1, 1, 1})
	if !hit.Hit || hit.Voxel != (Vec3{40, 40, 40}) {
		t.Fatalf("hit=%+v", hit)
	}
	if hit.Position.Sub(mgl32.Vec3{40, 40, 40}).Len() > 1e-3 {
		t.Fatalf("position=%v", hit.Position)
	}
}

func TestCastRayMiss(t *testing.T) {
	s, _ := newTestStore(t)
	s.SetVoxelWorld(mgl32.Vec3{0, 0, 0}, red)

	if hit := s.CastRay(mgl32.Vec3{0.5, 5, 0.5}, mgl32.Vec3{0, 1, 0}); hit.Hit {
		t.Fatalf("hit pointing away: %+v", hit)
	}
	if hit := s.CastRay(mgl32.Vec3{0.5, 5, 0.5}, mgl32.Vec3{}); hit.Hit {
		t.Fatalf("hit with zero direction")
	}
	// beyond the maximum distance
	s.SetVoxelWorld(mgl32.Vec3{5, -200, 0}, red)
	if hit := s.CastRay(mgl32.Vec3{5.5, 5, 0.5}, mgl32.Vec3{0, -1, 0}); hit.Hit {
		t.Fatalf("hit beyond max distance: %+v", hit)
	}
	if hit := s.CastRayDistance(mgl32.Vec3{5.5, -150, 0.5}, mgl32.Vec3{0, -1, 0}, 60); !hit.Hit {
		t.Fatalf("no hit within custom distance")
	}
}

func TestIntersectRayAABB(t *testing.T) {
	min, max := mgl32.Vec3{0, 0, 0}, mgl32.Vec3{1, 1, 1}

	tt, n, ok := IntersectRayAABB(mgl32.Vec3{-2, 0.5, 0.5}, mgl32.Vec3{1, 0, 0}, min, max)
	if !ok || !approx(tt, 2) || n != (mgl32.Vec3{-1, 0, 0}) {
		t.Fatalf("t=%v n=%v ok=%v", tt, n, ok)
	}
	if _, _, ok := IntersectRayAABB(mgl32.Vec3{-2, 2, 0.5}, mgl32.Vec3{1, 0, 0}, min, max); ok {
		t.Fatalf("parallel ray outside slab hit")
	}
	if _, _, ok := IntersectRayAABB(mgl32.Vec3{3, 0.5, 0.5}, mgl32.Vec3{1, 0, 0}, min, max); ok {
		t.Fatalf("box behind ray hit")
	}
	tt, _, ok = IntersectRayAABB(mgl32.Vec3{0.5, 0.5, 0.5}, mgl32.Vec3{0, 0, 1}, min, max)
	if !ok || tt != 0 {
		t.Fatalf("inside origin t=%v ok=%v", tt, ok)
	}
}
