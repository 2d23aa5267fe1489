package renderer

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/achilleasa/pixelpoint/log"
	"github.com/achilleasa/pixelpoint/placement"
	"github.com/achilleasa/pixelpoint/scene"
	"github.com/achilleasa/pixelpoint/types"
	"github.com/h2non/filetype"
)

// Names of the objects created for each pair.
const (
	camera1Name  = "Camera1"
	camera2Name  = "Camera2"
	lightName    = "Light"
	materialName = "Material"
)

// PairRequest describes a single pair render.
type PairRequest struct {
	ObjectPath string
	OutputDir  string

	// Output image names are derived from this value. If empty, the
	// base name of ObjectPath without its extension is used.
	Stem string

	DistanceBetweenCameras float64
	DistanceFromObject     float64
}

// PairOutput describes the result of rendering a pair.
type PairOutput struct {
	// Paths to the images rendered by each camera.
	Paths [2]string

	// Camera placements used for the pair.
	Placement placement.Pair

	Stats PairStats
}

// PairRenderer drives a host scene through the steps needed to render a
// stereo pair of a mesh.
type PairRenderer struct {
	logger log.Logger
	scene  scene.Scene
	stream *placement.Stream
	opts   Options
}

// Create a new pair renderer. Camera jitter values are drawn from stream.
func NewPairRenderer(sc scene.Scene, stream *placement.Stream, opts Options) *PairRenderer {
	return &PairRenderer{
		logger: log.New("renderer"),
		scene:  sc,
		stream: stream,
		opts:   opts,
	}
}

// Image paths for a pair request.
func OutputPaths(req PairRequest) [2]string {
	stem := req.Stem
	if stem == "" {
		base := filepath.Base(req.ObjectPath)
		stem = strings.TrimSuffix(base, filepath.Ext(base))
	}
	return [2]string{
		filepath.Join(req.OutputDir, stem+"_1.png"),
		filepath.Join(req.OutputDir, stem+"_2.png"),
	}
}

// Render a stereo pair. The scene is reset before anything else so no state
// is carried over from previous pairs.
func (r *PairRenderer) RenderPair(req PairRequest) (*PairOutput, error) {
	start := time.Now()
	sc := r.scene

	if err := sc.Reset(); err != nil {
		return nil, fmt.Errorf("renderer: could not reset scene: %w", err)
	}

	obj, err := r.importMesh(req.ObjectPath)
	if err != nil {
		return nil, err
	}

	pair := r.opts.Model.Place(req.DistanceBetweenCameras, req.DistanceFromObject, r.stream)
	r.logger.Debugf(
		"camera placement: base %v, shift %v, rotation %v (jitter %+v)",
		pair.Base, pair.Shift, pair.Cameras[0].Rotation, pair.Jitter,
	)

	var cameras [2]scene.ObjectID
	for index, name := range []string{camera1Name, camera2Name} {
		cam := pair.Cameras[index]
		if cameras[index], err = sc.AddCamera(name, scene.LocRot(cam.Position, cam.Rotation)); err != nil {
			return nil, fmt.Errorf("renderer: could not add camera %q: %w", name, err)
		}
	}

	if _, err = sc.AddLight(lightName, r.opts.Light); err != nil {
		return nil, fmt.Errorf("renderer: could not add light: %w", err)
	}

	if err = sc.SetWorldColor(r.opts.WorldColor); err != nil {
		return nil, fmt.Errorf("renderer: could not set world color: %w", err)
	}

	if err = sc.AttachMaterial(obj, scene.Material{Name: materialName, BaseColor: r.opts.BaseColor}); err != nil {
		return nil, fmt.Errorf("renderer: could not attach material: %w", err)
	}

	if err = sc.Configure(r.opts.Render); err != nil {
		return nil, fmt.Errorf("renderer: could not configure renderer: %w", err)
	}

	if err = os.MkdirAll(req.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("renderer: could not create output dir: %w", err)
	}

	out := &PairOutput{
		Paths:     OutputPaths(req),
		Placement: pair,
	}
	out.Stats.SetupTime = time.Since(start)

	for index, cam := range cameras {
		renderStart := time.Now()
		if err = r.renderCamera(cam, out.Paths[index]); err != nil {
			return nil, err
		}
		out.Stats.Cameras[index] = CameraStat{
			Path:       out.Paths[index],
			RenderTime: time.Since(renderStart),
		}
		r.logger.Infof("rendered %s in %d ms", out.Paths[index], out.Stats.Cameras[index].RenderTime.Nanoseconds()/1e6)
	}

	out.Stats.TotalTime = time.Since(start)
	return out, nil
}

// Import the mesh and normalize its transformation. The import must yield
// exactly one top-level object.
func (r *PairRenderer) importMesh(objectPath string) (scene.ObjectID, error) {
	sc := r.scene

	objects, err := sc.ImportMesh(objectPath)
	if err != nil {
		return "", fmt.Errorf("renderer: could not import %q: %w", objectPath, err)
	}

	switch len(objects) {
	case 0:
		return "", fmt.Errorf("%w: %s", ErrNothingImported, objectPath)
	case 1:
	default:
		names := make([]string, len(objects))
		for index, obj := range objects {
			names[index] = string(obj)
		}
		return "", fmt.Errorf("%w: %s contains %s", ErrMultipleObjects, objectPath, strings.Join(names, ", "))
	}

	obj := objects[0]
	if err = sc.CenterOrigin(obj); err != nil {
		return "", fmt.Errorf("renderer: could not center origin of %q: %w", obj, err)
	}

	origin, unitScale := types.Vec3{0, 0, 0}, types.Vec3{1, 1, 1}
	if err = sc.SetTransform(obj, scene.Transform{Location: &origin, Scale: &unitScale}); err != nil {
		return "", fmt.Errorf("renderer: could not reset transform of %q: %w", obj, err)
	}

	return obj, nil
}

// Render the view of a camera into path.
func (r *PairRenderer) renderCamera(cam scene.ObjectID, path string) error {
	if err := r.scene.SetActiveCamera(cam); err != nil {
		return fmt.Errorf("renderer: could not activate camera %q: %w", cam, err)
	}

	if err := r.scene.RenderToFile(path); err != nil {
		return fmt.Errorf("renderer: could not render %q: %w", path, err)
	}

	if r.opts.VerifyOutput {
		return verifyPNG(path)
	}
	return nil
}

// Ensure that path exists and contains a png image.
func verifyPNG(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidOutput, err)
	}
	defer f.Close()

	head := make([]byte, 261)
	n, _ := f.Read(head)
	if !filetype.Is(head[:n], "png") {
		return fmt.Errorf("%w: %s", ErrInvalidOutput, path)
	}
	return nil
}
