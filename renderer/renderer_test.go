package renderer

import (
	"bytes"
	"errors"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/achilleasa/pixelpoint/placement"
	"github.com/achilleasa/pixelpoint/scene"
	"github.com/achilleasa/pixelpoint/scene/sketch"
	"github.com/achilleasa/pixelpoint/types"
)

// A scene that records the calls made to it and writes a tiny png image
// for every render request.
type recordingScene struct {
	ops []string

	imported  []scene.ObjectID
	outBytes  []byte
	cameras   map[scene.ObjectID]scene.Transform
	active    scene.ObjectID
	rendered  map[string]scene.ObjectID
	materials []scene.Material
	settings  scene.RenderSettings
}

func newRecordingScene(t *testing.T, imported ...scene.ObjectID) *recordingScene {
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 2, 2))); err != nil {
		t.Fatal(err)
	}
	return &recordingScene{
		imported: imported,
		outBytes: buf.Bytes(),
		cameras:  make(map[scene.ObjectID]scene.Transform),
		rendered: make(map[string]scene.ObjectID),
	}
}

func (s *recordingScene) Reset() error {
	s.ops = append(s.ops, "Reset")
	return nil
}

func (s *recordingScene) ImportMesh(path string) ([]scene.ObjectID, error) {
	s.ops = append(s.ops, "ImportMesh")
	return s.imported, nil
}

func (s *recordingScene) CenterOrigin(scene.ObjectID) error {
	s.ops = append(s.ops, "CenterOrigin")
	return nil
}

func (s *recordingScene) SetTransform(scene.ObjectID, scene.Transform) error {
	s.ops = append(s.ops, "SetTransform")
	return nil
}

func (s *recordingScene) AddCamera(name string, t scene.Transform) (scene.ObjectID, error) {
	s.ops = append(s.ops, "AddCamera")
	s.cameras[scene.ObjectID(name)] = t
	return scene.ObjectID(name), nil
}

func (s *recordingScene) AddLight(name string, l scene.Light) (scene.ObjectID, error) {
	s.ops = append(s.ops, "AddLight")
	return scene.ObjectID(name), nil
}

func (s *recordingScene) SetWorldColor(types.Vec3) error {
	s.ops = append(s.ops, "SetWorldColor")
	return nil
}

func (s *recordingScene) AttachMaterial(obj scene.ObjectID, m scene.Material) error {
	s.ops = append(s.ops, "AttachMaterial")
	s.materials = append(s.materials, m)
	return nil
}

func (s *recordingScene) Configure(settings scene.RenderSettings) error {
	s.ops = append(s.ops, "Configure")
	s.settings = settings
	return nil
}

func (s *recordingScene) SetActiveCamera(cam scene.ObjectID) error {
	s.ops = append(s.ops, "SetActiveCamera")
	s.active = cam
	return nil
}

func (s *recordingScene) RenderToFile(path string) error {
	s.ops = append(s.ops, "RenderToFile")
	s.rendered[path] = s.active
	return os.WriteFile(path, s.outBytes, 0644)
}

func (s *recordingScene) Close() error {
	return nil
}

func TestOutputPaths(t *testing.T) {
	type spec struct {
		req    PairRequest
		expOut [2]string
	}
	specs := []spec{
		{
			PairRequest{ObjectPath: "/models/chair.obj", OutputDir: "out"},
			[2]string{filepath.Join("out", "chair_1.png"), filepath.Join("out", "chair_2.png")},
		},
		{
			PairRequest{ObjectPath: "/models/chair.tar.obj", OutputDir: "out"},
			[2]string{filepath.Join("out", "chair.tar_1.png"), filepath.Join("out", "chair.tar_2.png")},
		},
		{
			PairRequest{ObjectPath: "/models/chair.obj", OutputDir: "out", Stem: "pair"},
			[2]string{filepath.Join("out", "pair_1.png"), filepath.Join("out", "pair_2.png")},
		},
	}

	for specIndex, spec := range specs {
		out := OutputPaths(spec.req)
		if out != spec.expOut {
			t.Errorf("[spec %d] expected paths %v; got %v", specIndex, spec.expOut, out)
		}
	}
}

func TestRenderPair(t *testing.T) {
	outDir := filepath.Join(t.TempDir(), "pair_0")
	if err := os.MkdirAll(outDir, 0755); err != nil {
		t.Fatal(err)
	}
	unrelated := filepath.Join(outDir, "notes.txt")
	if err := os.WriteFile(unrelated, []byte("keep me"), 0644); err != nil {
		t.Fatal(err)
	}

	sc := newRecordingScene(t, "chair")
	r := NewPairRenderer(sc, placement.NewStream(placement.DefaultSeed), DefaultOptions())

	out, err := r.RenderPair(PairRequest{
		ObjectPath:             "/models/chair.obj",
		OutputDir:              outDir,
		DistanceBetweenCameras: 5,
		DistanceFromObject:     15,
	})
	if err != nil {
		t.Fatal(err)
	}

	expOps := []string{
		"Reset", "ImportMesh", "CenterOrigin", "SetTransform",
		"AddCamera", "AddCamera", "AddLight", "SetWorldColor",
		"AttachMaterial", "Configure",
		"SetActiveCamera", "RenderToFile",
		"SetActiveCamera", "RenderToFile",
	}
	if strings.Join(sc.ops, ",") != strings.Join(expOps, ",") {
		t.Fatalf("expected ops:\n%v\ngot:\n%v", expOps, sc.ops)
	}

	expPaths := [2]string{filepath.Join(outDir, "chair_1.png"), filepath.Join(outDir, "chair_2.png")}
	if out.Paths != expPaths {
		t.Fatalf("expected output paths %v; got %v", expPaths, out.Paths)
	}

	// Each image must come from the matching camera
	if sc.rendered[expPaths[0]] != "Camera1" || sc.rendered[expPaths[1]] != "Camera2" {
		t.Fatalf("unexpected camera to image mapping: %v", sc.rendered)
	}

	// Cameras must match the placement
	for index, name := range []scene.ObjectID{"Camera1", "Camera2"} {
		tr := sc.cameras[name]
		if tr.Location == nil || *tr.Location != out.Placement.Cameras[index].Position {
			t.Fatalf("expected %s location to match the placement", name)
		}
		if tr.Rotation == nil || *tr.Rotation != out.Placement.Cameras[index].Rotation {
			t.Fatalf("expected %s rotation to match the placement", name)
		}
	}

	// First pair of the default stream
	expJitter := placement.Jitter{Elevation: -1.254598811526375, Distance: 1.1802857225639665, Baseline: 1.092797576724562}
	if out.Placement.Jitter != expJitter {
		t.Fatalf("expected jitter %+v; got %+v", expJitter, out.Placement.Jitter)
	}

	if len(sc.materials) != 1 || sc.materials[0].BaseColor != (types.Vec4{0.8, 0.8, 0.8, 1}) {
		t.Fatalf("unexpected materials: %v", sc.materials)
	}
	if sc.settings.Engine != "CYCLES" || sc.settings.Samples != 128 {
		t.Fatalf("unexpected render settings: %+v", sc.settings)
	}

	entries, err := os.ReadDir(outDir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected output dir to contain 3 entries; got %d", len(entries))
	}
	if data, err := os.ReadFile(unrelated); err != nil || string(data) != "keep me" {
		t.Fatalf("expected unrelated file to be left untouched; got %q, %v", data, err)
	}

	if out.Stats.Cameras[1].Path != expPaths[1] {
		t.Fatalf("expected stats for %s; got %+v", expPaths[1], out.Stats.Cameras[1])
	}
}

func TestRenderPairCreatesOutputDir(t *testing.T) {
	outDir := filepath.Join(t.TempDir(), "nested", "pair_3")
	r := NewPairRenderer(newRecordingScene(t, "chair"), placement.NewStream(1), DefaultOptions())

	if _, err := r.RenderPair(PairRequest{ObjectPath: "chair.obj", OutputDir: outDir, DistanceBetweenCameras: 1, DistanceFromObject: 2}); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(outDir, "chair_2.png")); err != nil {
		t.Fatal(err)
	}
}

func TestRenderPairImportErrors(t *testing.T) {
	type spec struct {
		imported []scene.ObjectID
		expErr   error
	}
	specs := []spec{
		{nil, ErrNothingImported},
		{[]scene.ObjectID{"seat", "legs"}, ErrMultipleObjects},
	}

	for specIndex, spec := range specs {
		sc := newRecordingScene(t, spec.imported...)
		stream := placement.NewStream(placement.DefaultSeed)
		r := NewPairRenderer(sc, stream, DefaultOptions())

		_, err := r.RenderPair(PairRequest{ObjectPath: "chair.obj", OutputDir: t.TempDir(), DistanceBetweenCameras: 5, DistanceFromObject: 15})
		if !errors.Is(err, spec.expErr) {
			t.Errorf("[spec %d] expected error %v; got %v", specIndex, spec.expErr, err)
			continue
		}
		if len(sc.rendered) != 0 {
			t.Errorf("[spec %d] expected no images to be rendered", specIndex)
		}
		if stream.Draws() != 0 {
			t.Errorf("[spec %d] expected no values to be drawn; got %d", specIndex, stream.Draws())
		}
	}
}

func TestRenderPairInvalidOutput(t *testing.T) {
	sc := newRecordingScene(t, "chair")
	sc.outBytes = []byte("not an image")

	r := NewPairRenderer(sc, placement.NewStream(placement.DefaultSeed), DefaultOptions())
	_, err := r.RenderPair(PairRequest{ObjectPath: "chair.obj", OutputDir: t.TempDir(), DistanceBetweenCameras: 5, DistanceFromObject: 15})
	if !errors.Is(err, ErrInvalidOutput) {
		t.Fatalf("expected ErrInvalidOutput; got %v", err)
	}

	opts := DefaultOptions()
	opts.VerifyOutput = false
	r = NewPairRenderer(newRecordingScene(t, "chair"), placement.NewStream(placement.DefaultSeed), opts)
	sc = r.scene.(*recordingScene)
	sc.outBytes = []byte("not an image")
	if _, err = r.RenderPair(PairRequest{ObjectPath: "chair.obj", OutputDir: t.TempDir(), DistanceBetweenCameras: 5, DistanceFromObject: 15}); err != nil {
		t.Fatalf("expected verification to be skipped; got %v", err)
	}
}

func TestRenderPairWithSketchHost(t *testing.T) {
	objPath := filepath.Join(t.TempDir(), "box.obj")
	payload := "v -1 -1 -1\nv 1 -1 -1\nv 1 1 -1\nv -1 1 -1\nv -1 -1 1\nv 1 -1 1\nv 1 1 1\nv -1 1 1\n" +
		"f 1 2 3 4\nf 5 6 7 8\nf 1 2 6 5\nf 2 3 7 6\nf 3 4 8 7\nf 4 1 5 8\n"
	if err := os.WriteFile(objPath, []byte(payload), 0644); err != nil {
		t.Fatal(err)
	}

	opts := DefaultOptions()
	opts.Render.ResolutionX = 32
	opts.Render.ResolutionY = 24

	sc := sketch.New()
	r := NewPairRenderer(sc, placement.NewStream(placement.DefaultSeed), opts)

	outDir := t.TempDir()
	for pass := 0; pass < 2; pass++ {
		out, err := r.RenderPair(PairRequest{ObjectPath: objPath, OutputDir: outDir, DistanceBetweenCameras: 5, DistanceFromObject: 15})
		if err != nil {
			t.Fatalf("[pass %d] %v", pass, err)
		}
		for _, path := range out.Paths {
			if _, err = os.Stat(path); err != nil {
				t.Fatalf("[pass %d] %v", pass, err)
			}
		}

		// Reset must clear the previous pair
		if got := len(sc.Objects()); got != 4 {
			t.Fatalf("[pass %d] expected 4 scene objects; got %d: %v", pass, got, sc.Objects())
		}
	}

	if sc.Renders() != 4 {
		t.Fatalf("expected 4 renders; got %d", sc.Renders())
	}
}
