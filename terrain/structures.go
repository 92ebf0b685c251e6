package terrain

import (
	"math/rand"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/humboldt-xie/voxelworld/world"
)

var (
	trunkColor  = mgl32.Vec4{0.5, 0.35, 0.05, 1}
	roofColor   = mgl32.Vec4{0.4, 0.1, 0.05, 1}
	doorColor   = mgl32.Vec4{0.3, 0.2, 0.1, 1}
	windowColor = mgl32.Vec4{0.3, 0.5, 0.8, 1}
)

// Structure produces voxels to stamp into the world.
type Structure interface {
	Generate(rng *rand.Rand) []world.VoxelInfo
}

// Tree is a straight trunk with a spherical canopy. Size scales both with
// the requested voxel count.
type Tree struct {
	Base       mgl32.Vec3
	VoxelCount int
}

func (t Tree) TrunkHeight() int {
	return 5 + t.VoxelCount/20
}

func (t Tree) CanopyRadius() int {
	return 2 + t.VoxelCount/40
}

func (t Tree) Generate(rng *rand.Rand) []world.VoxelInfo {
	var out []world.VoxelInfo
	trunk := t.TrunkHeight()
	for i := 0; i < trunk; i++ {
		out = append(out, place(t.Base, 0, i, 0, trunkColor, MaterialWood))
	}

	r := t.CanopyRadius()
	top := t.Base.Add(mgl32.Vec3{0, float32(trunk * world.VoxelSize), 0})
	for x := -r; x <= r; x++ {
		for y := -r; y <= r; y++ {
			for z := -r; z <= r; z++ {
				if x*x+y*y+z*z > r*r {
					continue
				}
				leaf := mgl32.Vec4{0, 0.4 + rng.Float32()*0.4, 0, 1}
				out = append(out, place(top, x, y, z, leaf, MaterialLeaves))
			}
		}
	}
	return out
}

// House is a hollow box with a door, windows and a flat or stepped roof.
// Width, depth and height vary slightly per generation.
type House struct {
	Base   mgl32.Vec3
	Width  int
	Depth  int
	Height int
}

func NewHouse(base mgl32.Vec3) House {
	return House{Base: base, Width: 6, Depth: 6, Height: 4}
}

func (hs House) Generate(rng *rand.Rand) []world.VoxelInfo {
	var out []world.VoxelInfo
	w := hs.Width + rng.Intn(3) - 1
	d := hs.Depth + rng.Intn(3) - 1
	h := hs.Height + rng.Intn(2)
	wall := mgl32.Vec4{0.7 + float32(rng.Intn(30))/100, 0.7, 0.6, 1}

	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			for z := 0; z < d; z++ {
				if x != 0 && x != w-1 && z != 0 && z != d-1 {
					continue
				}
				door := z == 0 && y < 2 && x == w/2
				window := !door && y == 2 && (x == 1 || x == w-2) && (z == 0 || z == d-1)
				switch {
				case door:
					out = append(out, place(hs.Base, x, y, z, doorColor, MaterialDoor))
				case !window:
					out = append(out, place(hs.Base, x, y, z, wall, MaterialWall))
				}
			}
		}
	}

	roof := 1
	if rng.Intn(2) == 0 {
		roof = 2
	}
	for y := 0; y < roof; y++ {
		for x := 0; x < w; x++ {
			for z := 0; z < d; z++ {
				out = append(out, place(hs.Base, x, h+y, z, roofColor, MaterialRoof))
			}
		}
	}

	for x := 1; x < w-1; x++ {
		for z := 1; z < d-1; z++ {
			if rng.Intn(10) < 2 {
				out = append(out, place(hs.Base, x, 2, z, windowColor, MaterialWindow))
			}
		}
	}
	return out
}

func place(base mgl32.Vec3, x, y, z int, color mgl32.Vec4, material uint8) world.VoxelInfo {
	return world.VoxelInfo{
		Position: base.Add(mgl32.Vec3{float32(x), float32(y), float32(z)}.Mul(world.VoxelSize)),
		Voxel:    world.Voxel{Color: color, Type: world.TypeSolid, Material: material},
	}
}
