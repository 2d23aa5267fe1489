// Package config defines the settings that control a render batch. Settings
// start from defaults, are optionally overlaid with a TOML or YAML file and
// finally with command line flags.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/achilleasa/pixelpoint/placement"
	"github.com/achilleasa/pixelpoint/renderer"
	"github.com/achilleasa/pixelpoint/scene"
	"github.com/achilleasa/pixelpoint/types"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Supported scene hosts.
const (
	HostBlender = "blender"
	HostSketch  = "sketch"
)

var (
	ErrUnsupportedConfigFormat = errors.New("config: unsupported config file format")
	ErrInvalidSettings         = errors.New("config: invalid settings")
)

// Settings holds all configurable batch parameters.
type Settings struct {
	Seed                   uint32  `toml:"seed" yaml:"seed"`
	NumPairs               int     `toml:"num_pairs" yaml:"num_pairs"`
	DistanceBetweenCameras float64 `toml:"distance_between_cameras" yaml:"distance_between_cameras"`
	DistanceFromObject     float64 `toml:"distance_from_object" yaml:"distance_from_object"`

	// Scene host selection and blender launcher settings.
	Host        string `toml:"host" yaml:"host"`
	BlenderPath string `toml:"blender_path" yaml:"blender_path"`
	BlenderArgs string `toml:"blender_args" yaml:"blender_args"`

	Camera   placement.Model `toml:"camera" yaml:"camera"`
	Light    Light           `toml:"light" yaml:"light"`
	World    World           `toml:"world" yaml:"world"`
	Material Material        `toml:"material" yaml:"material"`
	Render   Render          `toml:"render" yaml:"render"`
}

type Light struct {
	Type     string     `toml:"type" yaml:"type"`
	Location types.Vec3 `toml:"location" yaml:"location"`
	Energy   float64    `toml:"energy" yaml:"energy"`
}

type World struct {
	Color types.Vec3 `toml:"color" yaml:"color"`
}

type Material struct {
	BaseColor types.Vec4 `toml:"base_color" yaml:"base_color"`
}

type Render struct {
	Engine      string `toml:"engine" yaml:"engine"`
	Samples     uint32 `toml:"samples" yaml:"samples"`
	ResolutionX uint32 `toml:"resolution_x" yaml:"resolution_x"`
	ResolutionY uint32 `toml:"resolution_y" yaml:"resolution_y"`
}

// Get the default settings.
func Default() Settings {
	opts := renderer.DefaultOptions()
	return Settings{
		Seed:                   placement.DefaultSeed,
		NumPairs:               10,
		DistanceBetweenCameras: 5.0,
		DistanceFromObject:     15.0,
		Host:                   HostBlender,
		Camera:                 opts.Model,
		Light: Light{
			Type:     string(opts.Light.Type),
			Location: opts.Light.Location,
			Energy:   opts.Light.Energy,
		},
		World:    World{Color: opts.WorldColor},
		Material: Material{BaseColor: opts.BaseColor},
		Render: Render{
			Engine:      opts.Render.Engine,
			Samples:     opts.Render.Samples,
			ResolutionX: opts.Render.ResolutionX,
			ResolutionY: opts.Render.ResolutionY,
		},
	}
}

// Load settings from a TOML or YAML file. Values missing from the file keep
// their defaults; unknown keys are rejected.
func Load(path string) (Settings, error) {
	s := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return s, fmt.Errorf("config: read %s: %w", path, err)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		err = toml.NewDecoder(bytes.NewReader(data)).DisallowUnknownFields().Decode(&s)
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err = dec.Decode(&s); err == io.EOF {
			err = nil
		}
	default:
		return s, fmt.Errorf("%w: %q", ErrUnsupportedConfigFormat, ext)
	}

	if err != nil {
		return s, fmt.Errorf("config: parse %s: %w", path, err)
	}

	return s, s.Validate()
}

// Validate the settings.
func (s Settings) Validate() error {
	if err := s.Camera.Validate(); err != nil {
		return err
	}

	switch {
	case s.Host != HostBlender && s.Host != HostSketch:
		return fmt.Errorf("%w: unknown host %q", ErrInvalidSettings, s.Host)
	case s.NumPairs < 0:
		return fmt.Errorf("%w: negative number of pairs %d", ErrInvalidSettings, s.NumPairs)
	case s.Render.ResolutionX == 0 || s.Render.ResolutionY == 0:
		return fmt.Errorf("%w: invalid resolution %dx%d", ErrInvalidSettings, s.Render.ResolutionX, s.Render.ResolutionY)
	case s.Render.Samples == 0:
		return fmt.Errorf("%w: sample count must be positive", ErrInvalidSettings)
	case s.Render.Engine == "":
		return fmt.Errorf("%w: missing render engine", ErrInvalidSettings)
	}

	switch scene.LightType(s.Light.Type) {
	case scene.PointLight, scene.SunLight, scene.SpotLight, scene.AreaLight:
	default:
		return fmt.Errorf("%w: unknown light type %q", ErrInvalidSettings, s.Light.Type)
	}

	return nil
}

// Convert the settings into pair renderer options.
func (s Settings) RendererOptions() renderer.Options {
	opts := renderer.DefaultOptions()
	opts.Model = s.Camera
	opts.Render = scene.RenderSettings{
		Engine:      s.Render.Engine,
		Samples:     s.Render.Samples,
		ResolutionX: s.Render.ResolutionX,
		ResolutionY: s.Render.ResolutionY,
	}
	opts.Light = scene.Light{
		Type:     scene.LightType(s.Light.Type),
		Location: s.Light.Location,
		Energy:   s.Light.Energy,
	}
	opts.WorldColor = s.World.Color
	opts.BaseColor = s.Material.BaseColor
	return opts
}
