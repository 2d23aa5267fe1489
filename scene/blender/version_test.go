package blender

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/Masterminds/semver/v3"
	"github.com/achilleasa/pixelpoint/scene"
)

func TestParseVersion(t *testing.T) {
	type spec struct {
		output string
		exp    string
		expErr bool
	}
	specs := []spec{
		{"Blender 4.1.0\n\tbuild date: 2024-03-25\n", "4.1.0", false},
		{"Blender 2.93.18 (hash 1f6ac9e8c3b2 built 2023-03-14)\n", "2.93.18", false},
		{"Blender 2.79 (sub 7)\n", "2.79.0", false},
		{"Read prefs: /home/user/.config/blender/3.6/config/userpref.blend\nBlender 3.6.5\n", "3.6.5", false},
		{"command not found", "", true},
	}

	for specIndex, spec := range specs {
		v, err := ParseVersion(spec.output)
		if spec.expErr {
			if !errors.Is(err, ErrProtocol) {
				t.Errorf("[spec %d] expected ErrProtocol; got %v", specIndex, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("[spec %d] unexpected error: %v", specIndex, err)
			continue
		}
		if v.String() != spec.exp {
			t.Errorf("[spec %d] expected version %s; got %s", specIndex, spec.exp, v)
		}
	}
}

func TestCheckVersion(t *testing.T) {
	type spec struct {
		version string
		expOK   bool
	}
	specs := []spec{
		{"2.79.0", false},
		{"2.80.0", true},
		{"2.83.20", true},
		{"4.2.1", true},
	}

	for specIndex, spec := range specs {
		err := CheckVersion(semver.MustParse(spec.version))
		if spec.expOK && err != nil {
			t.Errorf("[spec %d] unexpected error: %v", specIndex, err)
		} else if !spec.expOK && !errors.Is(err, ErrUnsupportedVersion) {
			t.Errorf("[spec %d] expected ErrUnsupportedVersion; got %v", specIndex, err)
		}
	}
}

func TestImportOperator(t *testing.T) {
	type spec struct {
		path    string
		version string
		exp     string
	}
	specs := []spec{
		{"chair.obj", "2.93.0", "import_scene.obj"},
		{"chair.OBJ", "3.1.2", "import_scene.obj"},
		{"chair.obj", "3.2.0", "wm.obj_import"},
		{"chair.obj", "4.2.0", "wm.obj_import"},
		{"chair.ply", "3.6.0", "import_mesh.ply"},
		{"chair.ply", "4.0.0", "wm.ply_import"},
		{"chair.stl", "4.0.2", "import_mesh.stl"},
		{"chair.stl", "4.1.0", "wm.stl_import"},
		{"chair.fbx", "2.80.0", "import_scene.fbx"},
		{"chair.gltf", "3.0.0", "import_scene.gltf"},
		{"chair.glb", "4.1.0", "import_scene.gltf"},
	}

	for specIndex, spec := range specs {
		op, err := ImportOperator(spec.path, semver.MustParse(spec.version))
		if err != nil {
			t.Errorf("[spec %d] unexpected error: %v", specIndex, err)
			continue
		}
		if op != spec.exp {
			t.Errorf("[spec %d] expected operator %q; got %q", specIndex, spec.exp, op)
		}
	}

	_, err := ImportOperator("chair.blend", semver.MustParse("4.1.0"))
	if !errors.Is(err, scene.ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat; got %v", err)
	}
}

func fakeBlender(t *testing.T, script string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("test requires a posix shell")
	}

	path := filepath.Join(t.TempDir(), "blender")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+script+"\n"), 0755); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestProbeVersion(t *testing.T) {
	v, err := ProbeVersion(context.Background(), fakeBlender(t, `echo "Blender 3.6.5"`))
	if err != nil {
		t.Fatal(err)
	}
	if v.String() != "3.6.5" {
		t.Fatalf("expected version 3.6.5; got %s", v)
	}

	_, err = ProbeVersion(context.Background(), fakeBlender(t, `echo "Blender 2.79 (sub 7)"`))
	if !errors.Is(err, ErrUnsupportedVersion) {
		t.Fatalf("expected ErrUnsupportedVersion; got %v", err)
	}

	_, err = ProbeVersion(context.Background(), filepath.Join(t.TempDir(), "missing"))
	if err == nil {
		t.Fatal("expected an error for a missing executable")
	}
}
