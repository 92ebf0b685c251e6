// Package terrain fills chunks from a noise height field and builds small
// decorative structures.
package terrain

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/ojrac/opensimplex-go"

	"github.com/humboldt-xie/voxelworld/world"
)

const (
	DefaultSeed      = 1337
	DefaultFrequency = 0.02
	DefaultOctaves   = 4
	DefaultHeight    = 8
)

// material ids handed to the renderer
const (
	MaterialStone uint8 = iota + 1
	MaterialDirt
	MaterialGrass
	MaterialWood
	MaterialLeaves
	MaterialWall
	MaterialRoof
	MaterialDoor
	MaterialWindow
	MaterialMetal
	MaterialConcrete
	MaterialRubble
)

var (
	stoneColor = mgl32.Vec4{0.5, 0.5, 0.5, 1}
	dirtColor  = mgl32.Vec4{0.45, 0.3, 0.15, 1}
	grassColor = mgl32.Vec4{0.3, 0.65, 0.2, 1}
)

type Config struct {
	Seed      int64
	Frequency float64
	Octaves   int

	// Height is the amplitude of the height field in voxels.
	Height int

	// BaseY is the world height of the lowest terrain surface.
	BaseY int
}

func DefaultConfig() Config {
	return Config{
		Seed:      DefaultSeed,
		Frequency: DefaultFrequency,
		Octaves:   DefaultOctaves,
		Height:    DefaultHeight,
	}
}

// Generator fills chunks with layered stone, dirt and grass columns whose
// height follows fractal simplex noise.
type Generator struct {
	cfg   Config
	noise *opensimplex.Noise
}

func NewGenerator(cfg Config) *Generator {
	if cfg.Octaves < 1 {
		cfg.Octaves = 1
	}
	return &Generator{cfg: cfg, noise: opensimplex.NewWithSeed(cfg.Seed)}
}

func (g *Generator) Config() Config {
	return g.cfg
}

// noise2 is fractal brownian motion over simplex noise, normalised to
// [-1, 1].
func (g *Generator) noise2(x, y float64, octaves int, persistence, lacunarity float64) float64 {
	var sum, norm float64
	amp, freq := 1.0, 1.0
	for i := 0; i < octaves; i++ {
		sum += g.noise.Eval2(x*freq, y*freq) * amp
		norm += amp
		amp *= persistence
		freq *= lacunarity
	}
	return sum / norm
}

// HeightAt returns the terrain surface height for a world column. Voxels
// with y below the height are solid.
func (g *Generator) HeightAt(x, z int) int {
	n := g.noise2(float64(x)*g.cfg.Frequency, float64(z)*g.cfg.Frequency, g.cfg.Octaves, 0.5, 2)
	if n < -1 {
		n = -1
	} else if n > 1 {
		n = 1
	}
	return g.cfg.BaseY + int((n+1)*0.5*float64(g.cfg.Height))
}

// GenerateChunk fills c in place. It only writes solid voxels, so a chunk
// entirely above the surface stays empty.
func (g *Generator) GenerateChunk(c *world.Chunk) {
	origin := c.Id()
	for x := 0; x < world.ChunkSize; x++ {
		for z := 0; z < world.ChunkSize; z++ {
			wx := origin.X*world.ChunkSize + x
			wz := origin.Z*world.ChunkSize + z
			h := g.HeightAt(wx, wz)
			for y := 0; y < world.ChunkSize; y++ {
				wy := origin.Y*world.ChunkSize + y
				if wy >= h {
					break
				}
				c.SetVoxel(x, y, z, layerVoxel(wy, h))
			}
		}
	}
}

func layerVoxel(y, h int) world.Voxel {
	switch {
	case y < h-5:
		return world.Voxel{Color: stoneColor, Type: world.TypeSolid, Material: MaterialStone}
	case y < h-1:
		return world.Voxel{Color: dirtColor, Type: world.TypeSolid, Material: MaterialDirt}
	default:
		return world.Voxel{Color: grassColor, Type: world.TypeSolid, Material: MaterialGrass}
	}
}
