package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/achilleasa/pixelpoint/asset/mesh"
	"github.com/achilleasa/pixelpoint/types"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli"
)

// Display the objects contained in one or more obj files.
func InspectMesh(ctx *cli.Context) error {
	if err := setupLogging(ctx); err != nil {
		return exitError(err)
	}

	if ctx.NArg() == 0 {
		return exitError(errors.New("missing mesh file argument"))
	}

	for _, meshFile := range ctx.Args() {
		m, err := mesh.ReadFile(meshFile)
		if err != nil {
			return exitError(err)
		}
		logger.Noticef("mesh information for %s\n%s", meshFile, meshStats(m))
	}

	return nil
}

func meshStats(m *mesh.Mesh) string {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"Object", "Triangles", "Groups", "Materials", "Center", "Size"})

	var totalFaces int
	for _, obj := range m.Objects {
		totalFaces += len(obj.Faces)
		table.Append([]string{
			obj.Name,
			fmt.Sprintf("%d", len(obj.Faces)),
			strings.Join(obj.Groups, ", "),
			strings.Join(obj.Materials, ", "),
			fmtVec3(obj.Center()),
			fmtVec3(obj.Size()),
		})
	}
	table.SetFooter([]string{
		fmt.Sprintf("%d object(s)", len(m.Objects)),
		fmt.Sprintf("%d", totalFaces),
		"", "",
		"VERTICES",
		fmt.Sprintf("%d", len(m.Vertices)),
	})

	table.Render()
	return buf.String()
}

func fmtVec3(v types.Vec3) string {
	return fmt.Sprintf("(%.3f, %.3f, %.3f)", v[0], v[1], v[2])
}
