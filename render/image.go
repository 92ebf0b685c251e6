package render

import (
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"

	"github.com/humboldt-xie/voxelworld/world"
)

type column struct {
	y     int
	color color.NRGBA
}

// TopDown renders the highest solid voxel of every loaded column as one
// pixel, scaled up by scale. North (-Z) is at the top. It returns nil when
// no chunk is loaded.
func TopDown(src ChunkSource, scale int) *image.NRGBA {
	if scale < 1 {
		scale = 1
	}
	top := make(map[[2]int]column)
	minX, minZ := math.MaxInt32, math.MaxInt32
	maxX, maxZ := math.MinInt32, math.MinInt32
	loaded := false
	src.ForEachChunk(func(c *world.Chunk) {
		loaded = true
		id := c.Id()
		x0, z0 := id.X*world.ChunkSize, id.Z*world.ChunkSize
		if x0 < minX {
			minX = x0
		}
		if z0 < minZ {
			minZ = z0
		}
		if x0+world.ChunkSize > maxX {
			maxX = x0 + world.ChunkSize
		}
		if z0+world.ChunkSize > maxZ {
			maxZ = z0 + world.ChunkSize
		}
		if c.Empty() {
			return
		}
		for x := 0; x < world.ChunkSize; x++ {
			for z := 0; z < world.ChunkSize; z++ {
				for y := world.ChunkSize - 1; y >= 0; y-- {
					v := c.Voxel(x, y, z)
					if !v.IsSolid() {
						continue
					}
					wy := id.Y*world.ChunkSize + y
					key := [2]int{x0 + x, z0 + z}
					if old, ok := top[key]; !ok || wy > old.y {
						top[key] = column{y: wy, color: toNRGBA(v.Color)}
					}
					break
				}
			}
		}
	})
	if !loaded {
		return nil
	}

	img := imaging.New(maxX-minX, maxZ-minZ, color.NRGBA{0, 0, 0, 255})
	for key, col := range top {
		img.SetNRGBA(key[0]-minX, key[1]-minZ, col.color)
	}
	if scale == 1 {
		return img
	}
	return imaging.Resize(img, img.Bounds().Dx()*scale, img.Bounds().Dy()*scale, imaging.NearestNeighbor)
}

// SaveTopDown writes the TopDown preview to path. The format follows the
// file extension.
func SaveTopDown(src ChunkSource, path string, scale int) error {
	img := TopDown(src, scale)
	if img == nil {
		return ErrNoGeometry
	}
	return errors.Wrapf(imaging.Save(img, path), "save %s", path)
}

func toNRGBA(c [4]float32) color.NRGBA {
	ch := func(f float32) uint8 {
		if f <= 0 {
			return 0
		}
		if f >= 1 {
			return 255
		}
		return uint8(f*255 + 0.5)
	}
	return color.NRGBA{ch(c[0]), ch(c[1]), ch(c[2]), ch(c[3])}
}
