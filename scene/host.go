package scene

import (
	"path/filepath"
	"strings"

	"github.com/achilleasa/pixelpoint/types"
)

// ObjectID identifies an object inside a host scene.
type ObjectID string

// Transform describes an object transformation. Nil fields are left
// unchanged by SetTransform.
type Transform struct {
	Location *types.Vec3

	// XYZ euler angles in radians.
	Rotation *types.Vec3

	Scale *types.Vec3
}

// Create a transform that sets location and rotation.
func LocRot(location, rotation types.Vec3) Transform {
	return Transform{Location: &location, Rotation: &rotation}
}

// LightType selects the kind of light added to the scene.
type LightType string

const (
	PointLight LightType = "POINT"
	SunLight   LightType = "SUN"
	SpotLight  LightType = "SPOT"
	AreaLight  LightType = "AREA"
)

// Light describes a scene light.
type Light struct {
	Type     LightType
	Location types.Vec3

	// Light power in watts.
	Energy float64
}

// Material describes the uniform diffuse material attached to the mesh.
type Material struct {
	Name string

	// RGBA base color.
	BaseColor types.Vec4
}

// RenderSettings controls the host renderer.
type RenderSettings struct {
	// Render engine identifier (e.g. CYCLES).
	Engine string

	// Number of samples per pixel.
	Samples uint32

	// Output resolution in pixels.
	ResolutionX uint32
	ResolutionY uint32
}

// The Scene interface is an explicit handle to a host scene graph. All
// methods are synchronous; RenderToFile blocks until the image has been
// written.
type Scene interface {
	// Clear the scene to an empty state.
	Reset() error

	// Import a mesh file and return the top-level objects it produced.
	ImportMesh(path string) ([]ObjectID, error)

	// Move the origin of an object to the center of its bounding box.
	CenterOrigin(obj ObjectID) error

	// Apply a transformation to an object.
	SetTransform(obj ObjectID, t Transform) error

	// Create a camera and link it to the scene.
	AddCamera(name string, t Transform) (ObjectID, error)

	// Create a light and link it to the scene.
	AddLight(name string, l Light) (ObjectID, error)

	// Set the world background color.
	SetWorldColor(color types.Vec3) error

	// Append a material to the object's material slots.
	AttachMaterial(obj ObjectID, m Material) error

	// Configure the renderer.
	Configure(settings RenderSettings) error

	// Select the camera used by RenderToFile.
	SetActiveCamera(cam ObjectID) error

	// Render the active camera view to a file.
	RenderToFile(path string) error

	// Release any resources held by the scene.
	Close() error
}

// Return the lower-case extension of a mesh file without the leading dot.
func MeshFormat(path string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
}
