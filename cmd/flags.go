package cmd

import (
	"github.com/achilleasa/pixelpoint/config"
	"github.com/urfave/cli"
)

// Flags shared by all commands.
var GlobalFlags = []cli.Flag{
	cli.BoolFlag{
		Name:  "v",
		Usage: "enable verbose logging",
	},
	cli.BoolFlag{
		Name:  "vv",
		Usage: "enable even more verbose logging",
	},
	cli.StringFlag{
		Name:  "log-level",
		Usage: "set log level (debug, info, notice, warning, error)",
	},
	cli.StringFlag{
		Name:  "config, c",
		Usage: "load settings from a TOML or YAML file",
	},
}

// Flags for selecting and configuring the scene host.
var hostFlags = []cli.Flag{
	cli.StringFlag{
		Name:  "host",
		Value: config.HostBlender,
		Usage: "scene host to render with (blender or sketch)",
	},
	cli.StringFlag{
		Name:  "blender-path",
		Usage: "path to the blender executable",
	},
	cli.StringFlag{
		Name:  "blender-args",
		Usage: "extra arguments passed to blender (shell quoted)",
	},
	cli.UintFlag{
		Name:  "seed",
		Value: uint(config.Default().Seed),
		Usage: "seed for the camera jitter stream",
	},
	cli.StringFlag{
		Name:  "manifest",
		Usage: "write a JSON manifest describing the rendered pairs to this file",
	},
}

// Flags for the render command.
var RenderFlags = append([]cli.Flag{
	cli.StringFlag{
		Name:  "object-path",
		Usage: "path or URL of the mesh to render",
	},
	cli.StringFlag{
		Name:  "output-dir",
		Usage: "directory to save the rendered images",
	},
	cli.Float64Flag{
		Name:  "distance-between-cameras",
		Value: config.Default().DistanceBetweenCameras,
		Usage: "distance between the two cameras of a pair",
	},
	cli.Float64Flag{
		Name:  "distance-from-object",
		Value: config.Default().DistanceFromObject,
		Usage: "distance of the camera pair from the object",
	},
	cli.IntFlag{
		Name:  "num-pairs",
		Value: config.Default().NumPairs,
		Usage: "number of image pairs to render",
	},
}, hostFlags...)

// Flags for the pairs command.
var PairsFlags = hostFlags
