package batch

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/achilleasa/pixelpoint/placement"
	"github.com/achilleasa/pixelpoint/types"
)

// Manifest describes the pairs produced by a batch.
type Manifest struct {
	Request Request         `json:"request"`
	Model   placement.Model `json:"model"`
	Pairs   []ManifestPair  `json:"pairs"`
}

// ManifestPair describes a single pair.
type ManifestPair struct {
	Index   int               `json:"index"`
	Dir     string            `json:"dir"`
	Jitter  placement.Jitter  `json:"jitter"`
	Cameras [2]ManifestCamera `json:"cameras"`
}

// ManifestCamera holds the image rendered by a camera and the camera
// extrinsics. The rotation matrix maps camera space to world space.
type ManifestCamera struct {
	Image          string        `json:"image"`
	Position       types.Vec3    `json:"position"`
	RotationEuler  types.Vec3    `json:"rotation_euler"`
	RotationMatrix [3][3]float64 `json:"rotation_matrix"`
}

// Build the manifest for a batch result. Paths are relative to the batch
// output dir.
func NewManifest(res *Result, model placement.Model) *Manifest {
	m := &Manifest{
		Request: res.Request,
		Model:   model,
		Pairs:   make([]ManifestPair, len(res.Pairs)),
	}

	for index, out := range res.Pairs {
		pair := ManifestPair{
			Index:  index,
			Dir:    relPath(res.Request.OutputDir, PairDir(res.Request.OutputDir, index)),
			Jitter: out.Placement.Jitter,
		}
		for camIndex, cam := range out.Placement.Cameras {
			pair.Cameras[camIndex] = ManifestCamera{
				Image:          relPath(res.Request.OutputDir, out.Paths[camIndex]),
				Position:       cam.Position,
				RotationEuler:  cam.Rotation,
				RotationMatrix: cam.Matrix().Rows(),
			}
		}
		m.Pairs[index] = pair
	}

	return m
}

func relPath(base, path string) string {
	rel, err := filepath.Rel(base, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}

// WriteManifest writes the manifest as indented JSON.
func WriteManifest(path string, m *Manifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}

	if err = os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ReadManifest loads a manifest written by WriteManifest.
func ReadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var m Manifest
	if err = json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("batch: could not parse manifest %s: %w", path, err)
	}
	return &m, nil
}
