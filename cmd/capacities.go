package cmd

import (
	"bytes"
	"fmt"

	"github.com/achilleasa/raygun/shader"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli"
)

// List the fixed capacities of the uniform blocks.
func ListCapacities(ctx *cli.Context) error {
	setupLogging(ctx)

	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetHeader([]string{"Block", "Binding", "Vec4s", "Size"})
	total := 0
	for _, block := range shader.Blocks {
		table.Append([]string{
			block.Name,
			fmt.Sprint(block.Binding),
			fmt.Sprint(block.Vec4s),
			fmt.Sprintf("%d bytes", block.Bytes()),
		})
		total += block.Bytes()
	}
	table.SetFooter([]string{"", "", "TOTAL", fmt.Sprintf("%d bytes", total)})
	table.Render()

	logger.Noticef("uniform blocks\n%s", buf.String())
	return nil
}
