package store

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/achilleasa/raygun/scene"
	"github.com/achilleasa/raygun/types"
	"github.com/olekukonko/tablewriter"
)

// Tables bundles the CPU-side mirrors of every scene buffer.
type Tables struct {
	StaticTriangles  *Triangles
	DynamicTriangles *Triangles
	StaticMappings   *Mappings
	DynamicMappings  *Mappings
	Materials        *Materials
	Lights           *Lights
}

// Allocate an empty set of tables.
func NewTables() *Tables {
	return &Tables{
		StaticTriangles:  NewStaticTriangles(),
		DynamicTriangles: NewDynamicTriangles(),
		StaticMappings:   NewMappings(MaxStaticTriangles),
		DynamicMappings:  NewMappings(MaxDynamicTriangles),
		Materials:        NewMaterials(),
		Lights:           NewLights(),
	}
}

// Triangles returns the triangle table for a provenance.
func (t *Tables) Triangles(kind scene.Provenance) *Triangles {
	if kind == scene.Dynamic {
		return t.DynamicTriangles
	}
	return t.StaticTriangles
}

// Mappings returns the mapping table for a provenance.
func (t *Tables) Mappings(kind scene.Provenance) *Mappings {
	if kind == scene.Dynamic {
		return t.DynamicMappings
	}
	return t.StaticMappings
}

// Stats renders a table with slot usage and packed buffer sizes.
func (t *Tables) Stats() string {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoFormatHeaders(false)
	table.SetHeader([]string{"Table", "Used", "Capacity", "Size"})

	staticTris := t.StaticTriangles.Pack()
	dynamicTris := t.DynamicTriangles.Pack()
	staticMaps := t.StaticMappings.Pack()
	dynamicMaps := t.DynamicMappings.Pack()
	materials := t.Materials.Pack()
	lights := t.Lights.Pack()

	table.Append([]string{"Static triangles", fmt.Sprint(t.StaticTriangles.Len()), fmt.Sprint(t.StaticTriangles.Cap()), fmtSize(staticTris)})
	table.Append([]string{"Static UV mappings", fmt.Sprint(t.StaticTriangles.Len()), fmt.Sprint(t.StaticMappings.Cap()), fmtSize(staticMaps)})
	table.Append([]string{"Dynamic triangles", fmt.Sprint(t.DynamicTriangles.Len()), fmt.Sprint(t.DynamicTriangles.Cap()), fmtSize(dynamicTris)})
	table.Append([]string{"Dynamic UV mappings", fmt.Sprint(t.DynamicTriangles.Len()), fmt.Sprint(t.DynamicMappings.Cap()), fmtSize(dynamicMaps)})
	table.Append([]string{"Materials", fmt.Sprint(t.Materials.Len()), fmt.Sprint(MaxMaterials), fmtSize(materials)})
	table.Append([]string{"Lights", fmt.Sprint(t.Lights.Len()), fmt.Sprint(MaxLights), fmtSize(lights)})
	table.SetFooter([]string{"Total", " ", " ", strings.TrimLeft(fmtSize(staticTris, staticMaps, dynamicTris, dynamicMaps, materials, lights), " ")})

	table.Render()
	return buf.String()
}

// Sum the space used by a set of packed buffers and return back a formatted
// value with the appropriate byte/kb unit.
func fmtSize(buffers ...[]types.Vec4) string {
	totalBytes := 0
	for _, b := range buffers {
		totalBytes += len(b) * vec4Bytes
	}

	if totalBytes < 1e3 {
		return fmt.Sprintf("%3d bytes", totalBytes)
	}
	return fmt.Sprintf("%3.1f kb", float32(totalBytes)/1e3)
}
