package cmd

import (
	"fmt"
	"math"

	"github.com/achilleasa/pixelpoint/config"
	"github.com/mitchellh/go-homedir"
	"github.com/urfave/cli"
)

// Load the settings file (if one was specified) and apply any explicitly
// set command flags on top.
func loadSettings(ctx *cli.Context) (config.Settings, error) {
	settings := config.Default()

	if cfgFile := ctx.GlobalString("config"); cfgFile != "" {
		path, err := homedir.Expand(cfgFile)
		if err != nil {
			return settings, err
		}

		if settings, err = config.Load(path); err != nil {
			return settings, err
		}
		logger.Infof("loaded settings from %s", path)
	}

	if ctx.IsSet("host") {
		settings.Host = ctx.String("host")
	}
	if ctx.IsSet("blender-path") {
		settings.BlenderPath = ctx.String("blender-path")
	}
	if ctx.IsSet("blender-args") {
		settings.BlenderArgs = ctx.String("blender-args")
	}
	if ctx.IsSet("seed") {
		seed := ctx.Uint("seed")
		if uint64(seed) > math.MaxUint32 {
			return settings, fmt.Errorf("%w: seed %d must be between 0 and %d", config.ErrInvalidSettings, seed, uint64(math.MaxUint32))
		}
		settings.Seed = uint32(seed)
	}
	if ctx.IsSet("num-pairs") {
		settings.NumPairs = ctx.Int("num-pairs")
	}
	if ctx.IsSet("distance-between-cameras") {
		settings.DistanceBetweenCameras = ctx.Float64("distance-between-cameras")
	}
	if ctx.IsSet("distance-from-object") {
		settings.DistanceFromObject = ctx.Float64("distance-from-object")
	}

	return settings, settings.Validate()
}
