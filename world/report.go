package world

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/cespare/xxhash/v2"
	"github.com/pkg/errors"
)

// WriteChunkReport writes a human readable dump of an encoded chunk record.
// Truncated records are reported in the text, not as an error; the error
// only reflects failures writing to w.
func WriteChunkReport(w io.Writer, source string, data []byte) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, "--- CHUNK DATA INSPECTION REPORT ---")
	fmt.Fprintf(bw, "Source Binary: %s\n", source)
	fmt.Fprintf(bw, "Size: %d bytes, xxhash: %016x\n", len(data), xxhash.Sum64(data))
	fmt.Fprintln(bw, "-----------------------------------")

	writeReportBody(bw, bytes.NewReader(data))

	fmt.Fprintln(bw, "----------------- END OF REPORT -----------------")
	return bw.Flush()
}

func writeReportBody(w io.Writer, r io.Reader) {
	var coord [3]int32
	if err := binary.Read(r, binary.LittleEndian, &coord); err != nil {
		fmt.Fprintln(w, "ERROR: Could not read chunk coordinate. File might be truncated.")
		return
	}
	fmt.Fprintf(w, "  [HEADER] Coordinate: (%d, %d, %d)\n", coord[0], coord[1], coord[2])

	var empty bool
	if err := binary.Read(r, binary.LittleEndian, &empty); err != nil {
		fmt.Fprintln(w, "ERROR: Could not read empty flag.")
		return
	}
	flag := "FALSE"
	if empty {
		flag = "TRUE"
	}
	fmt.Fprintf(w, "  [HEADER] Is Empty: %s\n", flag)
	if empty {
		return
	}

	fmt.Fprintf(w, "  [DATA] Voxel data present. Size: %d^3 voxels.\n", ChunkSize)
	solid := 0
	for i := 0; i < chunkVolume; i++ {
		var d diskVoxel
		if err := binary.Read(r, binary.LittleEndian, &d); err != nil {
			fmt.Fprintf(w, "ERROR: Failed to read all voxel data. File truncated after %d voxels.\n", i)
			break
		}
		if d.Type == TypeAir {
			continue
		}
		solid++
		x := i % ChunkSize
		y := (i / ChunkSize) % ChunkSize
		z := i / (ChunkSize * ChunkSize)
		fmt.Fprintf(w, "    (%2d,%2d,%2d) Type: %d, Color: (%.4f, %.4f, %.4f, %.4f)\n",
			x, y, z, d.Type, d.R, d.G, d.B, d.A)
	}
	fmt.Fprintf(w, "  [SUMMARY] Total solid voxels read: %d\n", solid)
}

// ExportChunkReport reads the chunk file at binPath and writes its report
// to textPath.
func ExportChunkReport(binPath, textPath string) error {
	data, err := os.ReadFile(binPath)
	if err != nil {
		return errors.Wrapf(err, "read %s", binPath)
	}
	f, err := os.Create(textPath)
	if err != nil {
		return errors.Wrapf(err, "create %s", textPath)
	}
	if err := WriteChunkReport(f, binPath, data); err != nil {
		f.Close()
		return errors.Wrapf(err, "write %s", textPath)
	}
	return f.Close()
}
