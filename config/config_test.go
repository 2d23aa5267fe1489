package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/achilleasa/pixelpoint/placement"
	"github.com/achilleasa/pixelpoint/renderer"
	"github.com/achilleasa/pixelpoint/scene"
	"github.com/achilleasa/pixelpoint/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, name, payload string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(payload), 0644))
	return path
}

func TestDefaults(t *testing.T) {
	s := Default()
	require.NoError(t, s.Validate())

	assert.Equal(t, uint32(42), s.Seed)
	assert.Equal(t, 10, s.NumPairs)
	assert.Equal(t, 5.0, s.DistanceBetweenCameras)
	assert.Equal(t, 15.0, s.DistanceFromObject)
	assert.Equal(t, HostBlender, s.Host)

	assert.Equal(t, 63.0, s.Camera.Elevation)
	assert.Equal(t, 5.0, s.Camera.ElevationJitter)
	assert.Equal(t, 0.0, s.Camera.Roll)
	assert.Equal(t, 45.0, s.Camera.Azimuth)
	assert.Equal(t, placement.Range{Min: 0.8, Max: 1.2}, s.Camera.DistanceJitter)
	assert.Equal(t, placement.Range{Min: 0.8, Max: 1.2}, s.Camera.BaselineJitter)

	assert.Equal(t, "POINT", s.Light.Type)
	assert.Equal(t, types.Vec3{12, -8, 10}, s.Light.Location)
	assert.Equal(t, 2000.0, s.Light.Energy)
	assert.Equal(t, types.Vec3{0.05, 0.05, 0.05}, s.World.Color)
	assert.Equal(t, types.Vec4{0.8, 0.8, 0.8, 1}, s.Material.BaseColor)
	assert.Equal(t, Render{Engine: "CYCLES", Samples: 128, ResolutionX: 1920, ResolutionY: 1080}, s.Render)

	assert.Equal(t, renderer.DefaultOptions(), s.RendererOptions())
}

func TestLoadTOML(t *testing.T) {
	path := writeConfig(t, "pixelpoint.toml", `
seed = 7
num_pairs = 3
host = "sketch"

[camera]
elevation = 70.0
distance_jitter = { min = 0.9, max = 1.1 }

[light]
type = "SUN"
location = [1.0, 2.0, 3.0]

[render]
engine = "BLENDER_EEVEE"
samples = 16
resolution_x = 640
resolution_y = 480
`)

	s, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, uint32(7), s.Seed)
	assert.Equal(t, 3, s.NumPairs)
	assert.Equal(t, HostSketch, s.Host)
	assert.Equal(t, 70.0, s.Camera.Elevation)
	assert.Equal(t, 5.0, s.Camera.ElevationJitter, "unset values keep their defaults")
	assert.Equal(t, placement.Range{Min: 0.9, Max: 1.1}, s.Camera.DistanceJitter)
	assert.Equal(t, types.Vec3{1, 2, 3}, s.Light.Location)
	assert.Equal(t, 2000.0, s.Light.Energy)

	opts := s.RendererOptions()
	assert.Equal(t, scene.SunLight, opts.Light.Type)
	assert.Equal(t, scene.RenderSettings{Engine: "BLENDER_EEVEE", Samples: 16, ResolutionX: 640, ResolutionY: 480}, opts.Render)
	assert.True(t, opts.VerifyOutput)
}

func TestLoadYAML(t *testing.T) {
	path := writeConfig(t, "pixelpoint.yml", `
distance_between_cameras: 2.5
blender_path: /opt/blender/blender
blender_args: "--threads 4"
camera:
  azimuth: 30
  baseline_jitter:
    min: 1
    max: 1
world:
  color: [0.1, 0.2, 0.3]
material:
  base_color: [1, 0, 0, 1]
`)

	s, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 2.5, s.DistanceBetweenCameras)
	assert.Equal(t, "/opt/blender/blender", s.BlenderPath)
	assert.Equal(t, "--threads 4", s.BlenderArgs)
	assert.Equal(t, 30.0, s.Camera.Azimuth)
	assert.Equal(t, placement.Range{Min: 1, Max: 1}, s.Camera.BaselineJitter)
	assert.Equal(t, types.Vec3{0.1, 0.2, 0.3}, s.World.Color)
	assert.Equal(t, types.Vec4{1, 0, 0, 1}, s.Material.BaseColor)
}

func TestLoadEmptyYAML(t *testing.T) {
	s, err := Load(writeConfig(t, "empty.yaml", ""))
	require.NoError(t, err)
	assert.Equal(t, Default(), s)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(writeConfig(t, "pixelpoint.json", "{}"))
	assert.ErrorIs(t, err, ErrUnsupportedConfigFormat)

	_, err = Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.ErrorContains(t, err, "config: read")

	_, err = Load(writeConfig(t, "typo.toml", "sed = 3\n"))
	assert.ErrorContains(t, err, "config: parse")

	_, err = Load(writeConfig(t, "typo.yaml", "num_pair: 3\n"))
	assert.ErrorContains(t, err, "config: parse")

	_, err = Load(writeConfig(t, "host.toml", `host = "maya"`))
	assert.ErrorIs(t, err, ErrInvalidSettings)

	_, err = Load(writeConfig(t, "range.yaml", "camera:\n  distance_jitter: {min: 2, max: 1}\n"))
	assert.ErrorIs(t, err, placement.ErrInvalidModel)
}

func TestValidate(t *testing.T) {
	for name, mutate := range map[string]func(*Settings){
		"negative pairs": func(s *Settings) { s.NumPairs = -1 },
		"zero width":     func(s *Settings) { s.Render.ResolutionX = 0 },
		"zero samples":   func(s *Settings) { s.Render.Samples = 0 },
		"no engine":      func(s *Settings) { s.Render.Engine = "" },
		"light type":     func(s *Settings) { s.Light.Type = "LASER" },
	} {
		s := Default()
		mutate(&s)
		assert.ErrorIs(t, s.Validate(), ErrInvalidSettings, name)
	}
}
