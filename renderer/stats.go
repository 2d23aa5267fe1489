package renderer

import "time"

type CameraStat struct {
	// Path to the rendered image.
	Path string

	// Render time for this camera.
	RenderTime time.Duration
}

type PairStats struct {
	// Time spent preparing the scene before rendering.
	SetupTime time.Duration

	// Per camera render stats.
	Cameras [2]CameraStat

	// Total time for the pair.
	TotalTime time.Duration
}
