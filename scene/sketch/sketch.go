// Package sketch implements an in-process scene host. It keeps its own scene
// graph and renders wireframe previews instead of path traced images, which
// makes it suitable for dry runs and tests.
package sketch

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"

	"github.com/achilleasa/pixelpoint/asset/mesh"
	"github.com/achilleasa/pixelpoint/log"
	"github.com/achilleasa/pixelpoint/scene"
	"github.com/achilleasa/pixelpoint/types"
)

type objectKind uint8

const (
	meshObject objectKind = iota
	cameraObject
	lightObject
)

type object struct {
	Kind objectKind

	Location types.Vec3
	Rotation types.Vec3
	Scale    types.Vec3

	// Mesh data in object space.
	Vertices []types.Vec3
	Faces    [][3]int

	Materials []scene.Material
	Light     scene.Light
}

// Map a point from object space to world space.
func (o *object) toWorld(v types.Vec3) types.Vec3 {
	scaled := types.Vec3{v[0] * o.Scale[0], v[1] * o.Scale[1], v[2] * o.Scale[2]}
	return types.EulerXYZ(o.Rotation).Mul3x1(scaled).Add(o.Location)
}

var _ scene.Scene = (*Scene)(nil)

// Scene is an in-memory scene.Scene implementation.
type Scene struct {
	logger log.Logger

	objects map[scene.ObjectID]*object
	order   []scene.ObjectID

	activeCamera scene.ObjectID
	worldColor   types.Vec3
	settings     scene.RenderSettings

	// Number of images written since the scene was created.
	renders int
}

// Create a new empty scene.
func New() *Scene {
	s := &Scene{logger: log.New("sketch")}
	s.Reset()
	return s
}

// Clear the scene to an empty state.
func (s *Scene) Reset() error {
	s.objects = make(map[scene.ObjectID]*object)
	s.order = nil
	s.activeCamera = ""
	s.worldColor = types.Vec3{0.05, 0.05, 0.05}
	s.settings = scene.RenderSettings{ResolutionX: 1920, ResolutionY: 1080}
	return nil
}

// Import a wavefront obj file. Every object in the file becomes a scene
// object. Coordinates are converted from the Y-up obj convention to Z-up.
func (s *Scene) ImportMesh(path string) ([]scene.ObjectID, error) {
	if format := scene.MeshFormat(path); format != "obj" {
		return nil, fmt.Errorf("%w: %q", scene.ErrUnsupportedFormat, format)
	}

	m, err := mesh.ReadFile(path)
	if err != nil {
		return nil, err
	}

	ids := make([]scene.ObjectID, 0, len(m.Objects))
	for _, src := range m.Objects {
		obj := &object{Kind: meshObject, Scale: types.Vec3{1, 1, 1}}

		// Copy the referenced vertices into object space
		remap := make(map[int]int)
		for _, face := range src.Faces {
			var local [3]int
			for i, index := range face {
				localIndex, seen := remap[index]
				if !seen {
					v := m.Vertices[index]
					obj.Vertices = append(obj.Vertices, types.Vec3{v[0], -v[2], v[1]})
					localIndex = len(obj.Vertices) - 1
					remap[index] = localIndex
				}
				local[i] = localIndex
			}
			obj.Faces = append(obj.Faces, local)
		}

		ids = append(ids, s.link(src.Name, obj))
	}

	s.logger.Debugf("imported %d object(s) from %s", len(ids), path)
	return ids, nil
}

// Move the origin of a mesh object to the center of its bounding box while
// keeping its geometry in place.
func (s *Scene) CenterOrigin(id scene.ObjectID) error {
	obj, err := s.lookup(id)
	if err != nil {
		return err
	}

	if obj.Kind != meshObject || len(obj.Vertices) == 0 {
		return nil
	}

	lo, hi := obj.Vertices[0], obj.Vertices[0]
	for _, v := range obj.Vertices[1:] {
		lo = types.MinVec3(lo, v)
		hi = types.MaxVec3(hi, v)
	}
	center := lo.Add(hi).Mul(0.5)

	for index, v := range obj.Vertices {
		obj.Vertices[index] = v.Sub(center)
	}
	obj.Location = obj.toWorld(center)
	return nil
}

// Apply a transformation to an object.
func (s *Scene) SetTransform(id scene.ObjectID, t scene.Transform) error {
	obj, err := s.lookup(id)
	if err != nil {
		return err
	}

	if t.Location != nil {
		obj.Location = *t.Location
	}
	if t.Rotation != nil {
		obj.Rotation = *t.Rotation
	}
	if t.Scale != nil {
		obj.Scale = *t.Scale
	}
	return nil
}

// Create a camera.
func (s *Scene) AddCamera(name string, t scene.Transform) (scene.ObjectID, error) {
	id := s.link(name, &object{Kind: cameraObject, Scale: types.Vec3{1, 1, 1}})
	return id, s.SetTransform(id, t)
}

// Create a light.
func (s *Scene) AddLight(name string, l scene.Light) (scene.ObjectID, error) {
	return s.link(name, &object{
		Kind:     lightObject,
		Location: l.Location,
		Scale:    types.Vec3{1, 1, 1},
		Light:    l,
	}), nil
}

// Set the world background color.
func (s *Scene) SetWorldColor(c types.Vec3) error {
	s.worldColor = c
	return nil
}

// Append a material to the object's material slots.
func (s *Scene) AttachMaterial(id scene.ObjectID, m scene.Material) error {
	obj, err := s.lookup(id)
	if err != nil {
		return err
	}
	obj.Materials = append(obj.Materials, m)
	return nil
}

// Configure the renderer. The engine and sample count are recorded but have
// no effect on the generated previews.
func (s *Scene) Configure(settings scene.RenderSettings) error {
	if settings.ResolutionX == 0 || settings.ResolutionY == 0 {
		return fmt.Errorf("sketch: invalid resolution %dx%d", settings.ResolutionX, settings.ResolutionY)
	}
	s.settings = settings
	return nil
}

// Select the camera used for rendering.
func (s *Scene) SetActiveCamera(id scene.ObjectID) error {
	obj, err := s.lookup(id)
	if err != nil {
		return err
	}
	if obj.Kind != cameraObject {
		return fmt.Errorf("%w: %q", scene.ErrNotACamera, id)
	}
	s.activeCamera = id
	return nil
}

// Render a wireframe view of the scene meshes from the active camera and
// write it to path as a png image.
func (s *Scene) RenderToFile(path string) error {
	if s.activeCamera == "" {
		return scene.ErrNoActiveCamera
	}

	camObj := s.objects[s.activeCamera]
	cam := newCamera(camObj.Location, camObj.Rotation, s.settings.ResolutionX, s.settings.ResolutionY)

	img := image.NewRGBA(image.Rect(0, 0, int(s.settings.ResolutionX), int(s.settings.ResolutionY)))
	fill(img, toRGBA(s.worldColor.Vec4(1)))

	for _, id := range s.order {
		obj := s.objects[id]
		if obj.Kind != meshObject {
			continue
		}
		drawWireframe(img, cam, obj, toRGBA(meshColor(obj)))
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err = png.Encode(f, img); err != nil {
		return err
	}

	s.renders++
	return nil
}

// Close the scene.
func (s *Scene) Close() error {
	return nil
}

// Number of images rendered by this scene.
func (s *Scene) Renders() int {
	return s.renders
}

// Object names in creation order.
func (s *Scene) Objects() []scene.ObjectID {
	return append([]scene.ObjectID(nil), s.order...)
}

// Get the world space location of an object.
func (s *Scene) Location(id scene.ObjectID) (types.Vec3, error) {
	obj, err := s.lookup(id)
	if err != nil {
		return types.Vec3{}, err
	}
	return obj.Location, nil
}

func (s *Scene) lookup(id scene.ObjectID) (*object, error) {
	obj, exists := s.objects[id]
	if !exists {
		return nil, fmt.Errorf("%w: %q", scene.ErrUnknownObject, id)
	}
	return obj, nil
}

// Add an object to the scene under a unique name. Name clashes are resolved
// by appending a numeric suffix.
func (s *Scene) link(name string, obj *object) scene.ObjectID {
	id := scene.ObjectID(name)
	for suffix := 1; ; suffix++ {
		if _, exists := s.objects[id]; !exists {
			break
		}
		id = scene.ObjectID(fmt.Sprintf("%s.%03d", name, suffix))
	}

	s.objects[id] = obj
	s.order = append(s.order, id)
	return id
}

// Select the color used for drawing a mesh.
func meshColor(obj *object) types.Vec4 {
	if len(obj.Materials) == 0 {
		return types.Vec4{0.8, 0.8, 0.8, 1}
	}
	return obj.Materials[len(obj.Materials)-1].BaseColor
}

func toRGBA(c types.Vec4) color.RGBA {
	return color.RGBA{
		R: toByte(c[0]),
		G: toByte(c[1]),
		B: toByte(c[2]),
		A: toByte(c[3]),
	}
}

func toByte(v float64) uint8 {
	switch {
	case v <= 0:
		return 0
	case v >= 1:
		return 255
	}
	return uint8(v*255 + 0.5)
}
