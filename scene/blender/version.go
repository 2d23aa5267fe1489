package blender

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/achilleasa/pixelpoint/scene"
)

// Oldest supported blender release.
const MinVersion = "2.80"

var (
	versionRegex   = regexp.MustCompile(`Blender\s+(\d+\.\d+(?:\.\d+)?)`)
	minVersionCons = mustConstraint(">= " + MinVersion)
)

// An importer maps a mesh format to the blender operator that imports it for
// a range of blender versions.
type importer struct {
	format     string
	constraint *semver.Constraints
	operator   string
}

var importers = []importer{
	{"obj", mustConstraint("< 3.2"), "import_scene.obj"},
	{"obj", mustConstraint(">= 3.2"), "wm.obj_import"},
	{"ply", mustConstraint("< 4.0"), "import_mesh.ply"},
	{"ply", mustConstraint(">= 4.0"), "wm.ply_import"},
	{"stl", mustConstraint("< 4.1"), "import_mesh.stl"},
	{"stl", mustConstraint(">= 4.1"), "wm.stl_import"},
	{"fbx", mustConstraint("*"), "import_scene.fbx"},
	{"gltf", mustConstraint("*"), "import_scene.gltf"},
	{"glb", mustConstraint("*"), "import_scene.gltf"},
}

func mustConstraint(c string) *semver.Constraints {
	cons, err := semver.NewConstraint(c)
	if err != nil {
		panic(err)
	}
	return cons
}

// Extract the blender version from the output of "blender --version".
func ParseVersion(output string) (*semver.Version, error) {
	match := versionRegex.FindStringSubmatch(output)
	if match == nil {
		firstLine := strings.SplitN(strings.TrimSpace(output), "\n", 2)[0]
		return nil, fmt.Errorf("%w: could not detect version in %q", ErrProtocol, firstLine)
	}

	return semver.NewVersion(match[1])
}

// Check that a blender version is supported.
func CheckVersion(v *semver.Version) error {
	if !minVersionCons.Check(v) {
		return fmt.Errorf("%w: %s; need %s or later", ErrUnsupportedVersion, v, MinVersion)
	}
	return nil
}

// Run "blender --version" and return the detected version if it is supported.
func ProbeVersion(ctx context.Context, blenderPath string) (*semver.Version, error) {
	out, err := exec.CommandContext(ctx, blenderPath, "--version").Output()
	if err != nil {
		return nil, fmt.Errorf("blender: could not run %q: %w", blenderPath, err)
	}

	v, err := ParseVersion(string(out))
	if err != nil {
		return nil, err
	}
	return v, CheckVersion(v)
}

// Select the operator that imports the mesh at path.
func ImportOperator(path string, v *semver.Version) (string, error) {
	format := scene.MeshFormat(path)
	for _, imp := range importers {
		if imp.format == format && imp.constraint.Check(v) {
			return imp.operator, nil
		}
	}
	return "", fmt.Errorf("%w: %q (%s)", scene.ErrUnsupportedFormat, format, filepath.Base(path))
}
