package render

import (
	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/humboldt-xie/voxelworld/world"
)

// ErrNoGeometry is returned when there is nothing to export.
var ErrNoGeometry = errors.New("no chunk geometry to export")

// BuildDocument merges the current meshes of all loaded chunks into one
// glTF primitive with per vertex colour and flat normals.
func BuildDocument(src ChunkSource) (*gltf.Document, error) {
	var (
		positions [][3]float32
		normals   [][3]float32
		colors    [][4]float32
		indices   []uint32
	)
	src.ForEachChunk(func(c *world.Chunk) {
		base := uint32(len(positions))
		for _, v := range c.Vertices() {
			positions = append(positions, v.Position)
			normals = append(normals, v.Normal)
			colors = append(colors, v.Color)
		}
		for _, i := range c.Indices() {
			indices = append(indices, base+i)
		}
	})
	if len(indices) == 0 {
		return nil, ErrNoGeometry
	}

	doc := gltf.NewDocument()
	doc.Asset.Generator = "voxelworld"

	posAccessor := modeler.WritePosition(doc, positions)
	normalAccessor := modeler.WriteNormal(doc, normals)
	colorAccessor := modeler.WriteColor(doc, colors)
	indicesAccessor := modeler.WriteIndices(doc, indices)

	prim := &gltf.Primitive{
		Attributes: map[string]int{
			gltf.POSITION: posAccessor,
			gltf.NORMAL:   normalAccessor,
			gltf.COLOR_0:  colorAccessor,
		},
		Indices:  gltf.Index(indicesAccessor),
		Material: gltf.Index(0),
	}
	doc.Materials = []*gltf.Material{{
		Name:      "voxel",
		AlphaMode: gltf.AlphaOpaque,
		PBRMetallicRoughness: &gltf.PBRMetallicRoughness{
			MetallicFactor:  gltf.Float(0),
			RoughnessFactor: gltf.Float(1),
		},
	}}
	doc.Meshes = []*gltf.Mesh{{Name: "World", Primitives: []*gltf.Primitive{prim}}}
	doc.Nodes = []*gltf.Node{{Name: "World", Mesh: gltf.Index(0)}}
	doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, 0)
	return doc, nil
}

// ExportGLB writes the loaded chunk meshes to a binary glTF file.
func ExportGLB(src ChunkSource, path string) error {
	doc, err := BuildDocument(src)
	if err != nil {
		return err
	}
	return errors.Wrapf(gltf.SaveBinary(doc, path), "save %s", path)
}
