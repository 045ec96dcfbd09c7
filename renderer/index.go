package renderer

import (
	"bytes"
	"fmt"
	"time"

	"github.com/achilleasa/raygun/bvh"
	"github.com/achilleasa/raygun/scene"
	"github.com/achilleasa/raygun/store"
	"github.com/olekukonko/tablewriter"
)

// IndexStats describes a geometry index build.
type IndexStats struct {
	Triangles int
	Nodes     int
	Leaves    int
	BuildTime time.Duration

	// Triangles left out because a vertex is NaN or infinite.
	Skipped int
}

// Table renders the stats together with the index occupancy.
func (s IndexStats) Table() string {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetHeader([]string{"Triangles", "Nodes", "Leaves", "Skipped", "Used", "Build time"})
	table.Append([]string{
		fmt.Sprint(s.Triangles),
		fmt.Sprint(s.Nodes),
		fmt.Sprint(s.Leaves),
		fmt.Sprint(s.Skipped),
		fmt.Sprintf("%02.1f %%", 100*float32(s.Nodes)/float32(bvh.MaxIndexNodes)),
		fmt.Sprint(s.BuildTime),
	})
	table.Render()
	return buf.String()
}

// BuildIndex builds the geometry index over the occupied slots of a static
// triangle table. Leaves reference slot indices. An empty table produces an
// all-zero index. Triangles with non-finite vertices are not indexed; a single
// NaN bound would otherwise spread through every box and split score.
func BuildIndex(tris *store.Triangles) (*bvh.Index, IndexStats, error) {
	start := time.Now()

	var volumes []bvh.BoundedVolume
	var slots []uint32
	skipped := 0
	tris.Each(func(id scene.TriangleID, tri scene.Triangle) {
		if !tri.IsFinite() {
			skipped++
			return
		}
		volumes = append(volumes, tri)
		slots = append(slots, id.Index)
	})

	stats := IndexStats{Triangles: len(volumes), Skipped: skipped}
	if len(volumes) == 0 {
		stats.BuildTime = time.Since(start)
		return &bvh.Index{}, stats, nil
	}

	lt := bvh.Linearize(bvh.Build(volumes))
	index, err := bvh.Serialize(lt, func(item int) uint32 { return slots[item] })
	if err != nil {
		return nil, stats, err
	}

	stats.Nodes = len(lt.Nodes)
	for _, node := range lt.Nodes {
		if node.Leaf {
			stats.Leaves++
		}
	}
	stats.BuildTime = time.Since(start)
	return index, stats, nil
}
