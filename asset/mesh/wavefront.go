package mesh

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/achilleasa/pixelpoint/asset"
	"github.com/achilleasa/pixelpoint/log"
	"github.com/achilleasa/pixelpoint/types"
)

type wavefrontReader struct {
	logger log.Logger

	// The parsed mesh.
	mesh *Mesh

	// Object that receives parsed faces.
	curObject *Object

	// Active group and material names.
	curGroup    string
	curMaterial string
}

// Create a new wavefront mesh reader.
func newWavefrontReader() *wavefrontReader {
	return &wavefrontReader{
		logger: log.New("wavefront reader"),
	}
}

// Read mesh definition.
func (r *wavefrontReader) Read(res *asset.Resource) (*Mesh, error) {
	r.logger.Infof(`parsing mesh from "%s"`, res.Path())
	start := time.Now()

	r.mesh = &Mesh{Name: res.Stem()}
	if err := r.parse(res); err != nil {
		return nil, err
	}

	r.logger.Infof(
		"parsed %d object(s), %d vertices in %d ms",
		len(r.mesh.Objects), len(r.mesh.Vertices), time.Since(start).Nanoseconds()/1e6,
	)
	return r.mesh, nil
}

// Generate an error message annotated with the file and line number.
func (r *wavefrontReader) emitError(file string, line int, msgFormat string, args ...interface{}) error {
	msg := fmt.Sprintf(msgFormat, args...)
	return fmt.Errorf("[%s: %d] error: %s", file, line, msg)
}

// Parse wavefront object format.
func (r *wavefrontReader) parse(res *asset.Resource) error {
	var lineNum int = 0

	scanner := bufio.NewScanner(res)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		lineNum++
		lineTokens := strings.Fields(scanner.Text())
		if len(lineTokens) == 0 || strings.HasPrefix(lineTokens[0], "#") {
			continue
		}

		switch lineTokens[0] {
		case "v":
			v, err := parseVec3(lineTokens)
			if err != nil {
				return r.emitError(res.Path(), lineNum, "%s", err.Error())
			}
			r.mesh.Vertices = append(r.mesh.Vertices, v)
		case "o":
			if len(lineTokens) < 2 {
				return r.emitError(res.Path(), lineNum, `unsupported syntax for "o"; expected 1 argument for object name; got %d`, len(lineTokens)-1)
			}

			r.verifyLastParsedObject()
			r.curObject = newObject(strings.Join(lineTokens[1:], " "))
			r.mesh.Objects = append(r.mesh.Objects, r.curObject)
			r.curGroup = ""
		case "g":
			if len(lineTokens) < 2 {
				r.curGroup = ""
				continue
			}
			r.curGroup = strings.Join(lineTokens[1:], " ")
		case "usemtl":
			if len(lineTokens) != 2 {
				return r.emitError(res.Path(), lineNum, `unsupported syntax for "usemtl"; expected 1 argument; got %d`, len(lineTokens)-1)
			}
			r.curMaterial = lineTokens[1]
		case "f":
			faces, err := r.parseFace(lineTokens)
			if err != nil {
				return r.emitError(res.Path(), lineNum, "%s", err.Error())
			}

			// Faces that precede any object statement belong to an
			// object named after the mesh file
			if r.curObject == nil {
				r.curObject = newObject(r.mesh.Name)
				r.mesh.Objects = append(r.mesh.Objects, r.curObject)
			}

			r.curObject.addFaces(faces, r.mesh.Vertices)
			r.curObject.addGroup(r.curGroup)
			r.curObject.addMaterial(r.curMaterial)
		}
	}

	if err := scanner.Err(); err != nil {
		return r.emitError(res.Path(), lineNum, "%s", err.Error())
	}

	r.verifyLastParsedObject()
	return nil
}

// Drop the last parsed object if it contains no faces.
func (r *wavefrontReader) verifyLastParsedObject() {
	lastIndex := len(r.mesh.Objects) - 1
	if lastIndex >= 0 && len(r.mesh.Objects[lastIndex].Faces) == 0 {
		r.logger.Warningf(`dropping object "%s" as it contains no polygons`, r.mesh.Objects[lastIndex].Name)
		r.mesh.Objects = r.mesh.Objects[:lastIndex]
	}
	r.curObject = nil
}

// Parse face definition. Each vertex argument may use one of the formats
// v, v/vt, v//vn or v/vt/vn; only the vertex index is used. Indices start
// from 1 and may be negative to reference vertices from the end of the
// vertex list. Polygons with more than 3 vertices are split into a
// triangle fan.
func (r *wavefrontReader) parseFace(lineTokens []string) ([][3]int, error) {
	if len(lineTokens) < 4 {
		return nil, fmt.Errorf(`unsupported syntax for "f"; expected at least 3 arguments; got %d`, len(lineTokens)-1)
	}

	indices := make([]int, 0, len(lineTokens)-1)
	for arg := 1; arg < len(lineTokens); arg++ {
		vTokens := strings.Split(lineTokens[arg], "/")
		if vTokens[0] == "" {
			return nil, fmt.Errorf("face argument %d does not include a vertex index", arg-1)
		}

		index, err := selectFaceCoordIndex(vTokens[0], len(r.mesh.Vertices))
		if err != nil {
			return nil, fmt.Errorf("could not parse vertex coord for face argument %d: %s", arg-1, err.Error())
		}
		indices = append(indices, index)
	}

	faces := make([][3]int, 0, len(indices)-2)
	for i := 1; i < len(indices)-1; i++ {
		faces = append(faces, [3]int{indices[0], indices[i], indices[i+1]})
	}
	return faces, nil
}

// Given a vertex index token calculate the offset into the vertex list.
// Wavefront format can also use negative indices to reference elements
// from the end of the list.
func selectFaceCoordIndex(indexToken string, coordListLen int) (int, error) {
	index, err := strconv.ParseInt(indexToken, 10, 32)
	if err != nil {
		return -1, err
	}

	var vOffset int = 0
	if index < 0 {
		vOffset = coordListLen + int(index)
	} else {
		vOffset = int(index - 1)
	}
	if vOffset < 0 || vOffset >= coordListLen {
		return -1, fmt.Errorf("index out of bounds")
	}
	return vOffset, nil
}

// Parse a Vec3 row. Any additional components (e.g. vertex weights or
// colors) are ignored.
func parseVec3(lineTokens []string) (types.Vec3, error) {
	if len(lineTokens) < 4 {
		return types.Vec3{}, fmt.Errorf(`unsupported syntax for "%s"; expected 3 arguments; got %d`, lineTokens[0], len(lineTokens)-1)
	}

	v := types.Vec3{}
	for tokIdx := 1; tokIdx <= 3; tokIdx++ {
		coord, err := strconv.ParseFloat(lineTokens[tokIdx], 64)
		if err != nil {
			return v, err
		}
		v[tokIdx-1] = coord
	}
	return v, nil
}
