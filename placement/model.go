package placement

import (
	"errors"
	"fmt"
	"math"

	"github.com/achilleasa/pixelpoint/types"
)

var ErrInvalidModel = errors.New("placement: invalid camera model")

// Range is a closed interval used for uniform jitter draws.
type Range struct {
	Min float64 `toml:"min" yaml:"min" json:"min"`
	Max float64 `toml:"max" yaml:"max" json:"max"`
}

// Model describes the camera angle model and the jitter applied to each pair.
// Angles are expressed in degrees.
type Model struct {
	// Camera elevation (rotation about X) and the symmetric jitter
	// applied to it for each pair.
	Elevation       float64 `toml:"elevation" yaml:"elevation" json:"elevation"`
	ElevationJitter float64 `toml:"elevation_jitter" yaml:"elevation_jitter" json:"elevation_jitter"`

	// Rotation about the camera's Y axis.
	Roll float64 `toml:"roll" yaml:"roll" json:"roll"`

	// Camera azimuth (rotation about Z).
	Azimuth float64 `toml:"azimuth" yaml:"azimuth" json:"azimuth"`

	// Scalers for the distance from the object and the camera baseline.
	DistanceJitter Range `toml:"distance_jitter" yaml:"distance_jitter" json:"distance_jitter"`
	BaselineJitter Range `toml:"baseline_jitter" yaml:"baseline_jitter" json:"baseline_jitter"`
}

// Create the default camera model.
func DefaultModel() Model {
	return Model{
		Elevation:       63,
		ElevationJitter: 5,
		Roll:            0,
		Azimuth:         45,
		DistanceJitter:  Range{0.8, 1.2},
		BaselineJitter:  Range{0.8, 1.2},
	}
}

// Validate the model parameters.
func (m Model) Validate() error {
	if m.ElevationJitter < 0 {
		return fmt.Errorf("%w: negative elevation jitter %v", ErrInvalidModel, m.ElevationJitter)
	}
	if m.DistanceJitter.Min > m.DistanceJitter.Max {
		return fmt.Errorf("%w: inverted distance jitter range [%v, %v]", ErrInvalidModel, m.DistanceJitter.Min, m.DistanceJitter.Max)
	}
	if m.BaselineJitter.Min > m.BaselineJitter.Max {
		return fmt.Errorf("%w: inverted baseline jitter range [%v, %v]", ErrInvalidModel, m.BaselineJitter.Min, m.BaselineJitter.Max)
	}
	return nil
}

// Camera is the transform of a single camera.
type Camera struct {
	Position types.Vec3

	// XYZ euler angles in radians.
	Rotation types.Vec3
}

// Get the camera-to-world rotation matrix.
func (c Camera) Matrix() types.Mat3 {
	return types.EulerXYZ(c.Rotation)
}

// Jitter stores the random draws that produced a pair.
type Jitter struct {
	Elevation float64 `json:"elevation"`
	Distance  float64 `json:"distance"`
	Baseline  float64 `json:"baseline"`
}

// Pair holds the two camera placements of a stereo pair.
type Pair struct {
	Cameras [2]Camera

	// The point the two cameras are symmetric about and the offset of
	// the first camera from it.
	Base  types.Vec3
	Shift types.Vec3

	Jitter Jitter
}

// Place computes the camera placements for a single pair. Exactly three
// values are drawn from the stream, in order: the elevation jitter, the
// distance jitter and the baseline jitter.
func (m Model) Place(distanceBetweenCameras, distanceFromObject float64, stream *Stream) Pair {
	var jitter Jitter
	jitter.Elevation = stream.Uniform(-m.ElevationJitter, m.ElevationJitter)
	angles := types.Vec3{m.Elevation + jitter.Elevation, m.Roll, m.Azimuth}.Radians()

	jitter.Distance = stream.Uniform(m.DistanceJitter.Min, m.DistanceJitter.Max)
	dir := types.Vec3{math.Sin(angles[2]), -math.Cos(angles[2]), math.Cos(angles[0])}
	base := dir.Mul(distanceFromObject).Mul(jitter.Distance)

	jitter.Baseline = stream.Uniform(m.BaselineJitter.Min, m.BaselineJitter.Max)
	diag := math.Sqrt(2) / 2
	shift := types.Vec3{diag, diag, 0}.Mul(distanceBetweenCameras / 2).Mul(jitter.Baseline)

	return Pair{
		Cameras: [2]Camera{
			{Position: base.Add(shift), Rotation: angles},
			{Position: base.Sub(shift), Rotation: angles},
		},
		Base:   base,
		Shift:  shift,
		Jitter: jitter,
	}
}
