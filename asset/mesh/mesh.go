package mesh

import (
	"fmt"
	"strings"

	"github.com/achilleasa/pixelpoint/asset"
	"github.com/achilleasa/pixelpoint/types"
)

// Mesh is the result of inspecting a mesh file.
type Mesh struct {
	// Mesh name derived from the file name.
	Name string

	// Vertex list shared by all objects.
	Vertices []types.Vec3

	// Top-level objects in declaration order.
	Objects []*Object
}

// Object is a named set of triangles.
type Object struct {
	Name string

	// Triangles as indices into the mesh vertex list.
	Faces [][3]int

	// Groups and materials referenced by the object's faces.
	Groups    []string
	Materials []string

	bbox    [2]types.Vec3
	hasBBox bool
}

func newObject(name string) *Object {
	return &Object{Name: name}
}

func (o *Object) addFaces(faces [][3]int, vertices []types.Vec3) {
	for _, face := range faces {
		for _, index := range face {
			v := vertices[index]
			if !o.hasBBox {
				o.bbox = [2]types.Vec3{v, v}
				o.hasBBox = true
				continue
			}
			o.bbox[0] = types.MinVec3(o.bbox[0], v)
			o.bbox[1] = types.MaxVec3(o.bbox[1], v)
		}
	}
	o.Faces = append(o.Faces, faces...)
}

func (o *Object) addGroup(name string) {
	o.Groups = appendUnique(o.Groups, name)
}

func (o *Object) addMaterial(name string) {
	o.Materials = appendUnique(o.Materials, name)
}

// Get the object AABB.
func (o *Object) BBox() [2]types.Vec3 {
	return o.bbox
}

// Get the center of the object AABB.
func (o *Object) Center() types.Vec3 {
	return o.bbox[0].Add(o.bbox[1]).Mul(0.5)
}

// Get the object AABB dimensions.
func (o *Object) Size() types.Vec3 {
	return o.bbox[1].Sub(o.bbox[0])
}

// Return the names of all top-level objects.
func (m *Mesh) ObjectNames() []string {
	names := make([]string, len(m.Objects))
	for index, obj := range m.Objects {
		names[index] = obj.Name
	}
	return names
}

// Look up an object by name.
func (m *Mesh) Object(name string) *Object {
	for _, obj := range m.Objects {
		if obj.Name == name {
			return obj
		}
	}
	return nil
}

// Read a mesh from a resource. Only the wavefront obj format is supported.
func Read(res *asset.Resource) (*Mesh, error) {
	if !strings.HasSuffix(strings.ToLower(res.RemotePath()), ".obj") {
		return nil, fmt.Errorf("mesh: unsupported file format for %s", res.Path())
	}
	return newWavefrontReader().Read(res)
}

// Read mesh from a local path or URL.
func ReadFile(filename string) (*Mesh, error) {
	res, err := asset.NewResource(filename, nil)
	if err != nil {
		return nil, err
	}
	defer res.Close()

	return Read(res)
}

func appendUnique(list []string, value string) []string {
	if value == "" {
		return list
	}
	for _, v := range list {
		if v == value {
			return list
		}
	}
	return append(list, value)
}
