package world

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// MaxRayDistance is how far CastRay travels before giving up.
const MaxRayDistance = 100

// RayHit is the result of a voxel raycast. Position, Normal, Voxel and
// Distance are only meaningful when Hit is true.
type RayHit struct {
	Hit      bool
	Position mgl32.Vec3
	Normal   mgl32.Vec3
	Voxel    Vec3
	Distance float32
}

// CastRay walks the voxel grid from origin along direction and returns the
// first solid voxel of a loaded chunk within MaxRayDistance.
func (s *ChunkStore) CastRay(origin, direction mgl32.Vec3) RayHit {
	return s.CastRayDistance(origin, direction, MaxRayDistance)
}

// CastRayDistance is CastRay with a custom maximum distance.
func (s *ChunkStore) CastRayDistance(origin, direction mgl32.Vec3, maxDist float32) RayHit {
	if direction.Len() == 0 {
		return RayHit{}
	}
	dir := direction.Normalize()
	inf := float32(math.Inf(1))

	cell := VoxelAt(origin)
	pos := [3]int{cell.X, cell.Y, cell.Z}
	var step [3]int
	var tMax, tDelta [3]float32
	for i := 0; i < 3; i++ {
		switch {
		case dir[i] > 0:
			step[i] = 1
			tMax[i] = (float32(pos[i]+1)*VoxelSize - origin[i]) / dir[i]
			tDelta[i] = VoxelSize / dir[i]
		case dir[i] < 0:
			step[i] = -1
			tMax[i] = (float32(pos[i])*VoxelSize - origin[i]) / dir[i]
			tDelta[i] = -VoxelSize / dir[i]
		default:
			tMax[i] = inf
			tDelta[i] = inf
		}
	}

	var dist float32
	for dist <= maxDist {
		v := Vec3{pos[0], pos[1], pos[2]}
		if c := s.chunks[v.Chunkid()]; c != nil {
			l := v.Local()
			if c.IsSolid(l.X, l.Y, l.Z) {
				min := v.Vec3f().Mul(VoxelSize)
				max := min.Add(mgl32.Vec3{VoxelSize, VoxelSize, VoxelSize})
				if t, n, ok := IntersectRayAABB(origin, dir, min, max); ok {
					return RayHit{
						Hit:      true,
						Position: origin.Add(dir.Mul(t)),
						Normal:   n,
						Voxel:    v,
						Distance: t,
					}
				}
			}
		}

		axis := 2
		if tMax[0] < tMax[1] && tMax[0] < tMax[2] {
			axis = 0
		} else if tMax[1] < tMax[2] {
			axis = 1
		}
		pos[axis] += step[axis]
		dist = tMax[axis]
		tMax[axis] += tDelta[axis]
	}
	return RayHit{}
}

// IntersectRayAABB intersects a ray with the box [min, max]. It returns the
// entry distance (0 when origin is inside) and the normal of the entered
// face, which points against the ray on the axis that determined entry.
func IntersectRayAABB(origin, dir, min, max mgl32.Vec3) (float32, mgl32.Vec3, bool) {
	inf := float32(math.Inf(1))
	tEnter, tExit := -inf, inf
	axis := -1
	for i := 0; i < 3; i++ {
		if dir[i] == 0 {
			if origin[i] < min[i] || origin[i] > max[i] {
				return 0, mgl32.Vec3{}, false
			}
			continue
		}
		inv := 1 / dir[i]
		t1 := (min[i] - origin[i]) * inv
		t2 := (max[i] - origin[i]) * inv
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		if t1 > tEnter {
			tEnter = t1
			axis = i
		}
		if t2 < tExit {
			tExit = t2
		}
	}
	if axis < 0 || tEnter > tExit || tExit < 0 {
		return 0, mgl32.Vec3{}, false
	}
	var normal mgl32.Vec3
	if dir[axis] > 0 {
		normal[axis] = -1
	} else {
		normal[axis] = 1
	}
	if tEnter < 0 {
		tEnter = 0
	}
	return tEnter, normal, true
}
