package renderer

import (
	"github.com/achilleasa/pixelpoint/placement"
	"github.com/achilleasa/pixelpoint/scene"
	"github.com/achilleasa/pixelpoint/types"
)

// Options controls how the scene for each pair is assembled.
type Options struct {
	// Camera angle model and jitter ranges.
	Model placement.Model

	// Host renderer settings (engine, samples, resolution).
	Render scene.RenderSettings

	// The light added to each scene.
	Light scene.Light

	// World background color.
	WorldColor types.Vec3

	// Base color of the diffuse material attached to the mesh.
	BaseColor types.Vec4

	// Check that each rendered file exists and is a png image.
	VerifyOutput bool
}

// Create the default options.
func DefaultOptions() Options {
	return Options{
		Model: placement.DefaultModel(),
		Render: scene.RenderSettings{
			Engine:      "CYCLES",
			Samples:     128,
			ResolutionX: 1920,
			ResolutionY: 1080,
		},
		Light: scene.Light{
			Type:     scene.PointLight,
			Location: types.Vec3{12, -8, 10},
			Energy:   2000,
		},
		WorldColor:   types.Vec3{0.05, 0.05, 0.05},
		BaseColor:    types.Vec4{0.8, 0.8, 0.8, 1},
		VerifyOutput: true,
	}
}
