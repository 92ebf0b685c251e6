package world

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"io"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
)

// On-disk layout, little-endian, no version header:
//
//	int32 x, int32 y, int32 z
//	uint8 empty (0 or 1)
//	ChunkSize³ × { float32 r, g, b, a; uint8 type }   only when empty == 0
type chunkHeader struct {
	X, Y, Z int32
	Empty   bool
}

type diskVoxel struct {
	R, G, B, A float32
	Type       uint8
}

const (
	headerSize    = 13
	diskVoxelSize = 17

	// EncodedSize is the length of a non-empty chunk record.
	EncodedSize = headerSize + chunkVolume*diskVoxelSize
)

// WriteTo encodes the chunk to w.
func (c *Chunk) WriteTo(w io.Writer) (int64, error) {
	bw := bufio.NewWriter(w)
	h := chunkHeader{int32(c.id.X), int32(c.id.Y), int32(c.id.Z), c.empty}
	if err := binary.Write(bw, binary.LittleEndian, &h); err != nil {
		return 0, errors.Wrap(err, "write chunk header")
	}
	n := int64(headerSize)
	if !c.empty {
		disk := make([]diskVoxel, len(c.voxels))
		for i, v := range c.voxels {
			disk[i] = diskVoxel{v.Color[0], v.Color[1], v.Color[2], v.Color[3], v.Type}
		}
		if err := binary.Write(bw, binary.LittleEndian, disk); err != nil {
			return n, errors.Wrap(err, "write chunk voxels")
		}
		n += int64(len(disk) * diskVoxelSize)
	}
	return n, errors.Wrap(bw.Flush(), "flush chunk")
}

// ReadFrom decodes a chunk from r. On failure the chunk is left all air and
// marked empty; on success it is marked dirty.
func (c *Chunk) ReadFrom(r io.Reader) (int64, error) {
	var h chunkHeader
	if err := binary.Read(r, binary.LittleEndian, &h); err != nil {
		c.resetEmpty()
		return 0, errors.Wrap(err, "read chunk header")
	}
	n := int64(headerSize)
	c.id = ChunkCoord{int(h.X), int(h.Y), int(h.Z)}
	c.empty = h.Empty
	if h.Empty {
		c.reset()
		c.dirty = true
		return n, nil
	}
	disk := make([]diskVoxel, chunkVolume)
	if err := binary.Read(r, binary.LittleEndian, disk); err != nil {
		c.resetEmpty()
		return n, errors.Wrap(err, "read chunk voxels")
	}
	for i, d := range disk {
		c.voxels[i] = Voxel{Color: mgl32.Vec4{d.R, d.G, d.B, d.A}, Type: d.Type}
	}
	c.dirty = true
	return n + int64(chunkVolume*diskVoxelSize), nil
}

func (c *Chunk) resetEmpty() {
	c.reset()
	c.empty = true
}

func (c *Chunk) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(EncodedSize)
	if _, err := c.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (c *Chunk) UnmarshalBinary(data []byte) error {
	_, err := c.ReadFrom(bytes.NewReader(data))
	return err
}

// DecodeChunk decodes a chunk record.
func DecodeChunk(data []byte) (*Chunk, error) {
	c := NewChunk(ChunkCoord{})
	if err := c.UnmarshalBinary(data); err != nil {
		return c, err
	}
	return c, nil
}
