package terrain

import (
	"math"
	"math/rand"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/humboldt-xie/voxelworld/world"
)

var (
	metalColor    = mgl32.Vec4{0.5, 0.5, 0.55, 1}
	scorchedColor = mgl32.Vec4{0.2, 0.2, 0.2, 1}
	domeDebris    = mgl32.Vec4{0.3, 0.25, 0.25, 1}
	concreteColor = mgl32.Vec4{0.65, 0.65, 0.68, 1}
	ashColor      = mgl32.Vec4{0.25, 0.25, 0.28, 1}
	crackedColor  = mgl32.Vec4{0.55, 0.55, 0.6, 1}
	stoneWall     = mgl32.Vec4{0.55, 0.55, 0.58, 1}
	rubbleColor   = mgl32.Vec4{0.45, 0.42, 0.4, 1}
	crackColor    = mgl32.Vec4{0.35, 0.35, 0.38, 1}
)

// damaged rolls whether a voxel is knocked out. damage 0 keeps everything.
func damaged(rng *rand.Rand, damage float32) bool {
	hole := damage * (0.5 + rng.Float32())
	return rng.Float32() < hole
}

// debris drops a cube of up to 3³ voxels at pos, skipping skip percent of
// them.
func debris(rng *rand.Rand, out []world.VoxelInfo, pos mgl32.Vec3, skip int, color mgl32.Vec4) []world.VoxelInfo {
	size := 1 + rng.Intn(3)
	for dx := 0; dx < size; dx++ {
		for dy := 0; dy < size; dy++ {
			for dz := 0; dz < size; dz++ {
				if skip > 0 && rng.Intn(100) < skip {
					continue
				}
				out = append(out, place(pos, dx, dy, dz, color, MaterialRubble))
			}
		}
	}
	return out
}

func ring(center mgl32.Vec3, angle, dist, height float32) mgl32.Vec3 {
	a := float64(angle)
	return center.Add(mgl32.Vec3{
		float32(math.Cos(a)) * dist,
		height,
		float32(math.Sin(a)) * dist,
	})
}

// Dome is a shot up half sphere shell with debris scattered around it.
type Dome struct {
	Base   mgl32.Vec3
	Radius float32
	Damage float32 // 0 pristine, 1 nearly gone
	Debris int
}

func NewDome(base mgl32.Vec3) Dome {
	return Dome{Base: base, Radius: 6, Damage: 0.25, Debris: 50}
}

func (d Dome) Generate(rng *rand.Rand) []world.VoxelInfo {
	var out []world.VoxelInfo
	r := int(d.Radius)
	shell := d.Radius * 0.15
	if shell < 1 {
		shell = 1
	} else if shell > 3 {
		shell = 3
	}
	for x := -r; x <= r; x++ {
		for y := 0; y <= r; y++ {
			for z := -r; z <= r; z++ {
				dist := float32(math.Sqrt(float64(x*x + y*y + z*z)))
				if dist < d.Radius-shell || dist > d.Radius {
					continue
				}
				if damaged(rng, d.Damage) {
					continue
				}
				color := metalColor
				if rng.Intn(100) < 15 {
					color = scorchedColor
				}
				out = append(out, place(d.Base, x, y, z, color, MaterialMetal))
			}
		}
	}

	for i := 0; i < d.Debris; i++ {
		angle := rng.Float32() * 2 * math.Pi
		dist := d.Radius + rng.Float32()*d.Radius*0.8
		h := rng.Float32() * d.Radius * 0.3
		out = debris(rng, out, ring(d.Base, angle, dist, h), 0, domeDebris)
	}
	return out
}

// CoolingTower is a hollow hyperboloid concrete shell with a rim at the
// top, damage holes and a debris field.
type CoolingTower struct {
	Base       mgl32.Vec3
	BaseRadius float32
	Height     int
	Damage     float32
	Debris     int
}

func NewCoolingTower(base mgl32.Vec3) CoolingTower {
	return CoolingTower{Base: base, BaseRadius: 10, Height: 32, Damage: 0.25, Debris: 200}
}

// RadiusAt narrows linearly from the base to a neck at half height, then
// widens again towards the top.
func (ct CoolingTower) RadiusAt(y int) float32 {
	t := float32(y) / float32(ct.Height)
	bottom, neck, top := ct.BaseRadius, ct.BaseRadius*0.55, ct.BaseRadius*0.85
	if t < 0.5 {
		return bottom + (neck-bottom)*(t/0.5)
	}
	return neck + (top-neck)*((t-0.5)/0.5)
}

func (ct CoolingTower) Generate(rng *rand.Rand) []world.VoxelInfo {
	var out []world.VoxelInfo
	for y := 0; y < ct.Height; y++ {
		r := ct.RadiusAt(y)
		n := int(r) + 1
		for x := -n; x <= n; x++ {
			for z := -n; z <= n; z++ {
				dist := float32(math.Sqrt(float64(x*x + z*z)))
				if dist > r || dist < r-2 {
					continue
				}
				if damaged(rng, ct.Damage) {
					continue
				}
				color := concreteColor
				switch roll := rng.Intn(100); {
				case roll < 10:
					color = ashColor
				case roll < 25:
					color = crackedColor
				}
				out = append(out, place(ct.Base, x, y, z, color, MaterialConcrete))
			}
		}
	}

	if ct.Height > 0 {
		lipY := ct.Height - 1
		lipR := ct.RadiusAt(lipY) + 1.2
		n := int(lipR) + 1
		for x := -n; x <= n; x++ {
			for z := -n; z <= n; z++ {
				dist := float32(math.Sqrt(float64(x*x + z*z)))
				if dist > lipR || dist < lipR-1.5 {
					continue
				}
				if rng.Float32() < ct.Damage*0.4 {
					continue
				}
				out = append(out, place(ct.Base, x, lipY, z, concreteColor, MaterialConcrete))
			}
		}
	}

	for i := 0; i < ct.Debris; i++ {
		angle := rng.Float32() * 2 * math.Pi
		dist := ct.BaseRadius + 3 + rng.Float32()*ct.BaseRadius*2
		h := rng.Float32() * 2
		out = debris(rng, out, ring(ct.Base, angle, dist, h), 30, rubbleColor)
	}
	return out
}

// Wall is a straight fortification segment from Start to End with optional
// crenellations on top.
type Wall struct {
	Start, End  mgl32.Vec3
	Height      int
	Thickness   int
	Damage      float32
	Battlements bool
	Debris      int
}

func NewWall(start, end mgl32.Vec3) Wall {
	return Wall{Start: start, End: end, Height: 10, Thickness: 2, Damage: 0.2, Battlements: true, Debris: 80}
}

func (w Wall) Generate(rng *rand.Rand) []world.VoxelInfo {
	var out []world.VoxelInfo
	span := w.End.Sub(w.Start)
	steps := int(span.Len() / world.VoxelSize)
	// sideways across the wall; a vertical span falls back to x
	right := mgl32.Vec3{1, 0, 0}
	if side := span.Cross(mgl32.Vec3{0, 1, 0}); side.Len() > 1e-6 {
		right = side.Normalize()
	}
	at := func(i int) mgl32.Vec3 {
		if steps == 0 {
			return w.Start
		}
		return w.Start.Add(span.Mul(float32(i) / float32(steps)))
	}

	for i := 0; i <= steps; i++ {
		mid := at(i)
		for y := 0; y < w.Height; y++ {
			for s := -w.Thickness; s <= w.Thickness; s++ {
				if damaged(rng, w.Damage) {
					continue
				}
				color, material := stoneWall, MaterialStone
				switch roll := rng.Intn(100); {
				case roll < 15:
					color = crackColor
				case roll < 30:
					color, material = rubbleColor, MaterialRubble
				}
				pos := mid.Add(right.Mul(float32(s) * world.VoxelSize))
				out = append(out, place(pos, 0, y, 0, color, material))
			}
		}
	}

	if w.Battlements {
		for i := 1; i <= steps; i += 2 {
			mid := at(i)
			for s := -w.Thickness; s <= w.Thickness; s++ {
				if rng.Float32() < w.Damage*0.3 {
					continue
				}
				pos := mid.Add(right.Mul(float32(s) * world.VoxelSize))
				out = append(out, place(pos, 0, w.Height, 0, stoneWall, MaterialStone))
			}
		}
	}

	for i := 0; i < w.Debris; i++ {
		p := w.Start.Add(span.Mul(rng.Float32()))
		angle := rng.Float32() * 2 * math.Pi
		t := float32(w.Thickness)
		dist := t*4 + rng.Float32()*t*10
		out = debris(rng, out, ring(p, angle, dist, 0), 40, rubbleColor)
	}
	return out
}
