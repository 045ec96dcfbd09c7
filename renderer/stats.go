package renderer

import (
	"bytes"
	"fmt"
	"time"

	"github.com/olekukonko/tablewriter"
)

type FrameStats struct {
	// Number of frames submitted and dropped so far.
	Frames        uint64
	DroppedFrames uint64

	// Time spent applying entity changes and rebuilding the geometry index.
	SyncTime  time.Duration
	IndexTime time.Duration

	// Bytes uploaded and the time it took.
	UploadBytes int
	UploadTime  time.Duration

	// Draw call submission time.
	RenderTime time.Duration

	// Table usage.
	IndexNodes       int
	StaticTriangles  int
	DynamicTriangles int
	Materials        int
	Lights           int
}

// Table renders the stats.
func (s FrameStats) Table() string {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"Stage", "Time", "Details"})
	table.Append([]string{"sync", fmt.Sprint(s.SyncTime), fmt.Sprintf("%d static, %d dynamic triangles; %d materials; %d lights", s.StaticTriangles, s.DynamicTriangles, s.Materials, s.Lights)})
	table.Append([]string{"index", fmt.Sprint(s.IndexTime), fmt.Sprintf("%d nodes", s.IndexNodes)})
	table.Append([]string{"upload", fmt.Sprint(s.UploadTime), fmt.Sprintf("%d bytes", s.UploadBytes)})
	table.Append([]string{"render", fmt.Sprint(s.RenderTime), fmt.Sprintf("%d frames, %d dropped", s.Frames, s.DroppedFrames)})
	table.SetFooter([]string{"TOTAL", fmt.Sprint(s.SyncTime + s.IndexTime + s.UploadTime + s.RenderTime), ""})
	table.Render()
	return buf.String()
}
