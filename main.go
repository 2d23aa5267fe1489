package main

import (
	"os"

	"github.com/achilleasa/pixelpoint/cmd"
	"github.com/urfave/cli"
)

func main() {
	cli.VersionFlag = cli.BoolFlag{
		Name:  "version",
		Usage: "print only the version",
	}

	app := cli.NewApp()
	app.Name = "pixelpoint"
	app.Usage = "render stereo image pairs of 3D meshes using blender"
	app.Version = "0.1.0"
	app.Flags = cmd.GlobalFlags
	app.Commands = []cli.Command{
		{
			Name:  "render",
			Usage: "render stereo pairs of a mesh",
			Description: `
Launch blender in background mode and render a sequence of stereo image pairs
of a single mesh. Each pair is written to its own pair_N sub-directory of the
output dir as <mesh name>_1.png and <mesh name>_2.png.

Both cameras of a pair share the same orientation and are placed symmetrically
around a base point whose elevation, distance and baseline are jittered using a
seeded random stream, so the same seed always reproduces the same dataset.`,
			Flags:  cmd.RenderFlags,
			Action: cmd.RenderPairs,
		},
		{
			Name:      "pairs",
			Usage:     "render stereo pairs using positional arguments",
			ArgsUsage: "-- object_path output_dir distance_between_cameras distance_from_object [num_pairs]",
			Flags:     cmd.PairsFlags,
			Action:    cmd.RenderPositional,
		},
		{
			Name:      "inspect",
			Usage:     "list the objects contained in wavefront obj files",
			ArgsUsage: "mesh_file1.obj mesh_file2.obj ...",
			Action:    cmd.InspectMesh,
		},
	}

	if err := app.Run(os.Args); err != nil {
		os.Exit(1)
	}
}
