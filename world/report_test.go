package world

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestChunkReport(t *testing.T) {
	c := NewChunk(ChunkCoord{2, -1, 0})
	c.SetVoxel(1, 2, 3, Voxel{Color: mgl32.Vec4{0.5, 0.25, 1, 1}, Type: 3})
	c.SetVoxel(4, 0, 0, red)
	data, _ := c.MarshalBinary()

	var buf bytes.Buffer
	if err := WriteChunkReport(&buf, "chunk.dat", data); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{
		"[HEADER] Coordinate: (2, -1, 0)",
		"[HEADER] Is Empty: FALSE",
		"( 1, 2, 3) Type: 3, Color: (0.5000, 0.2500, 1.0000, 1.0000)",
		"( 4, 0, 0) Type: 1, Color: (1.0000, 0.0000, 0.0000, 1.0000)",
		"Total solid voxels read: 2",
		"END OF REPORT",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("report missing %q:\n%s", want, out)
		}
	}
}

func TestChunkReportTruncated(t *testing.T) {
	c := NewChunk(ChunkCoord{})
	c.SetVoxel(0, 0, 0, red)
	data, _ := c.MarshalBinary()

	var buf bytes.Buffer
	WriteChunkReport(&buf, "x", data[:headerSize+diskVoxelSize*10])
	if !strings.Contains(buf.String(), "truncated after 10 voxels") {
		t.Fatalf("report:\n%s", buf.String())
	}

	buf.Reset()
	WriteChunkReport(&buf, "x", data[:4])
	if !strings.Contains(buf.String(), "Could not read chunk coordinate") {
		t.Fatalf("report:\n%s", buf.String())
	}
}

func TestExportChunkReport(t *testing.T) {
	dir := t.TempDir()
	fs, err := NewFileStorage(dir, nil)
	if err != nil {
		t.Fatal(err)
	}
	c := NewChunk(ChunkCoord{0, 0, 0})
	data, _ := c.MarshalBinary()
	fs.Write(c.Id(), data)

	out := filepath.Join(dir, "report.txt")
	if err := ExportChunkReport(fs.Path(c.Id()), out); err != nil {
		t.Fatal(err)
	}
	b, _ := os.ReadFile(out)
	if !strings.Contains(string(b), "Is Empty: TRUE") {
		t.Fatalf("report:\n%s", b)
	}
}
