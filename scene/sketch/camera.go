package sketch

import (
	"math"

	"github.com/achilleasa/pixelpoint/types"
)

// Blender camera defaults.
const (
	defaultLensMM   = 50.0
	defaultSensorMM = 36.0

	nearPlane = 0.01
)

// The camera type projects world space points onto the image plane. Like
// Blender cameras it looks down its local -Z axis with +Y pointing up.
type camera struct {
	Position types.Vec3

	// World to camera space rotation.
	ViewMat types.Mat3

	// Focal length in pixels and frame dimensions.
	Focal  float64
	FrameW float64
	FrameH float64
}

// Create a camera for an object transform and a frame size. The sensor is
// fitted to the larger frame dimension.
func newCamera(position, rotation types.Vec3, frameW, frameH uint32) *camera {
	fit := math.Max(float64(frameW), float64(frameH))
	return &camera{
		Position: position,
		ViewMat:  types.EulerXYZ(rotation).Transpose(),
		Focal:    defaultLensMM / defaultSensorMM * fit,
		FrameW:   float64(frameW),
		FrameH:   float64(frameH),
	}
}

// Project a world space point into pixel coordinates. The second return
// value is false if the point lies behind the camera.
func (c *camera) Project(p types.Vec3) (types.Vec3, bool) {
	v := c.ViewMat.Mul3x1(p.Sub(c.Position))
	depth := -v[2]
	if depth < nearPlane {
		return types.Vec3{}, false
	}

	return types.Vec3{
		c.FrameW/2 + c.Focal*v[0]/depth,
		c.FrameH/2 - c.Focal*v[1]/depth,
		depth,
	}, true
}
