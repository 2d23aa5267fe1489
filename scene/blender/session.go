// Package blender implements scene.Scene by driving a blender process.
//
// The launcher spawns blender in background mode and runs an embedded python
// bridge inside it. Each scene command is sent to the bridge as a JSON line
// on stdin and the bridge answers with a marker prefixed JSON line on
// stdout. Everything else blender prints is forwarded to the debug log.
package blender

import (
	"bufio"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"

	"github.com/Masterminds/semver/v3"
	"github.com/achilleasa/pixelpoint/log"
	"github.com/achilleasa/pixelpoint/scene"
	"github.com/achilleasa/pixelpoint/types"
	"github.com/mattn/go-shellwords"
)

// Prefix of bridge reply lines.
const Marker = "@@pixelpoint@@"

//go:embed bridge.py
var bridgeScript []byte

// Options configures the blender launcher.
type Options struct {
	// Path to the blender executable.
	BlenderPath string

	// Extra arguments passed to blender before the bridge script. The value
	// is split using shell quoting rules.
	ExtraArgs string
}

type request struct {
	ID   int64       `json:"id"`
	Op   string      `json:"op"`
	Args interface{} `json:"args,omitempty"`
}

type reply struct {
	ID     int64           `json:"id"`
	OK     bool            `json:"ok"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  string          `json:"error,omitempty"`
}

var _ scene.Scene = (*Session)(nil)

// Session is a scene.Scene backed by a running blender process. A session
// is not safe for concurrent use.
type Session struct {
	logger  log.Logger
	ctx     context.Context
	version *semver.Version

	stdin   io.WriteCloser
	encoder *json.Encoder
	replies <-chan reply
	lastID  int64

	waitFn   func() error
	waitOnce sync.Once
	waitErr  error

	cleanup func()
	closed  bool
}

// Build the blender command line for running the bridge script.
func buildArgs(bridgePath string, extraArgs []string) []string {
	args := []string{"--background", "--factory-startup"}
	args = append(args, extraArgs...)
	return append(args,
		"--python-exit-code", "1",
		"--python", bridgePath,
		"--",
		"--marker", Marker,
	)
}

// Start a blender process and wait for the bridge to report that it is
// ready. The process is killed when ctx is cancelled.
func Start(ctx context.Context, opts Options) (*Session, error) {
	logger := log.New("blender")

	version, err := ProbeVersion(ctx, opts.BlenderPath)
	if err != nil {
		return nil, err
	}

	extraArgs, err := shellwords.Parse(opts.ExtraArgs)
	if err != nil {
		return nil, fmt.Errorf("blender: could not parse extra arguments %q: %w", opts.ExtraArgs, err)
	}

	bridgeDir, err := os.MkdirTemp("", "pixelpoint-bridge-")
	if err != nil {
		return nil, err
	}
	bridgePath := filepath.Join(bridgeDir, "bridge.py")
	if err = os.WriteFile(bridgePath, bridgeScript, 0644); err != nil {
		os.RemoveAll(bridgeDir)
		return nil, err
	}

	args := buildArgs(bridgePath, extraArgs)
	logger.Debugf("launching %s %s", opts.BlenderPath, strings.Join(args, " "))

	stderr := log.NewLineWriter(logger, "stderr: ")
	cmd := exec.CommandContext(ctx, opts.BlenderPath, args...)
	cmd.Stderr = stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		os.RemoveAll(bridgeDir)
		return nil, err
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		os.RemoveAll(bridgeDir)
		return nil, err
	}
	if err = cmd.Start(); err != nil {
		os.RemoveAll(bridgeDir)
		return nil, fmt.Errorf("blender: could not start %q: %w", opts.BlenderPath, err)
	}

	s := newSession(ctx, stdin, stdout, cmd.Wait)
	s.version = version
	s.cleanup = func() {
		stderr.Flush()
		os.RemoveAll(bridgeDir)
	}

	if err = s.handshake(); err != nil {
		s.kill(cmd)
		return nil, err
	}

	logger.Noticef("blender %s ready (pid %d)", version, cmd.Process.Pid)
	return s, nil
}

// Create a session that talks to a bridge over the supplied streams. The
// wait function blocks until the host process exits.
func newSession(ctx context.Context, stdin io.WriteCloser, stdout io.Reader, wait func() error) *Session {
	logger := log.New("blender")
	replies := make(chan reply)

	go func() {
		defer close(replies)

		scanner := bufio.NewScanner(stdout)
		scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)
		for scanner.Scan() {
			line := scanner.Text()
			payload := strings.TrimPrefix(line, Marker+" ")
			if payload == line {
				logger.Debugf("stdout: %s", line)
				continue
			}

			var r reply
			if err := json.Unmarshal([]byte(payload), &r); err != nil {
				logger.Warningf("ignoring malformed reply %q: %v", payload, err)
				continue
			}

			select {
			case replies <- r:
			case <-ctx.Done():
				return
			}
		}
	}()

	return &Session{
		logger:  logger,
		ctx:     ctx,
		stdin:   stdin,
		encoder: json.NewEncoder(stdin),
		replies: replies,
		waitFn:  wait,
		cleanup: func() {},
	}
}

// Wait for the ready message that the bridge sends on startup.
func (s *Session) handshake() error {
	var hello struct {
		Version string `json:"version"`
	}
	if err := s.await("handshake", 0, &hello); err != nil {
		return err
	}
	s.logger.Debugf("bridge reports blender version %q", hello.Version)
	return nil
}

// Kill the process after a failed startup.
func (s *Session) kill(cmd *exec.Cmd) {
	_ = cmd.Process.Kill()
	s.stdin.Close()
	for range s.replies {
	}
	s.wait()
	s.cleanup()
	s.closed = true
}

// Blender version detected at startup.
func (s *Session) Version() *semver.Version {
	return s.version
}

// Send a command to the bridge and decode its result into result (which may
// be nil).
func (s *Session) call(op string, args interface{}, result interface{}) error {
	if s.closed {
		return fmt.Errorf("%w: session closed", ErrHostExited)
	}

	s.lastID++
	if err := s.encoder.Encode(request{ID: s.lastID, Op: op, Args: args}); err != nil {
		// The host closed its end of the pipe; wait for it to exit
		for range s.replies {
		}
		return fmt.Errorf("blender: could not send %q: %w", op, s.hostExitError())
	}

	return s.await(op, s.lastID, result)
}

// Wait for the reply with the given id.
func (s *Session) await(op string, id int64, result interface{}) error {
	for {
		select {
		case <-s.ctx.Done():
			return s.ctx.Err()
		case r, ok := <-s.replies:
			if !ok {
				return fmt.Errorf("blender: %s: %w", op, s.hostExitError())
			}

			if r.ID != id {
				s.logger.Warningf("ignoring reply for request %d while waiting for %d", r.ID, id)
				continue
			}

			if !r.OK {
				return &CommandError{Op: op, Msg: r.Error}
			}

			if result == nil || len(r.Result) == 0 {
				return nil
			}
			if err := json.Unmarshal(r.Result, result); err != nil {
				return fmt.Errorf("%w: could not decode %s result: %v", ErrProtocol, op, err)
			}
			return nil
		}
	}
}

// Wait for the host process to exit and translate its exit status.
func (s *Session) wait() error {
	s.waitOnce.Do(func() {
		err := s.waitFn()

		var exitErr *exec.ExitError
		switch {
		case err == nil:
		case errors.As(err, &exitErr):
			s.waitErr = &ExitError{Code: exitErr.ExitCode()}
		default:
			s.waitErr = fmt.Errorf("%w: %v", ErrHostExited, err)
		}
	})
	return s.waitErr
}

// Get the error describing an unexpected host exit.
func (s *Session) hostExitError() error {
	if err := s.wait(); err != nil {
		return err
	}
	return &ExitError{Code: 0}
}

// Clear the scene to the factory default state with no objects.
func (s *Session) Reset() error {
	return s.call("reset", nil, nil)
}

// Import a mesh and return the names of the created top-level objects.
func (s *Session) ImportMesh(path string) ([]scene.ObjectID, error) {
	operator, err := ImportOperator(path, s.version)
	if err != nil {
		return nil, err
	}

	var res struct {
		Objects []scene.ObjectID `json:"objects"`
	}
	args := map[string]string{"path": path, "operator": operator}
	if err = s.call("import_mesh", args, &res); err != nil {
		return nil, err
	}
	return res.Objects, nil
}

// Move the object origin to the center of its bounding box.
func (s *Session) CenterOrigin(obj scene.ObjectID) error {
	return s.call("center_origin", map[string]scene.ObjectID{"object": obj}, nil)
}

type transformArgs struct {
	Object   scene.ObjectID `json:"object,omitempty"`
	Name     string         `json:"name,omitempty"`
	Location *types.Vec3    `json:"location,omitempty"`
	Rotation *types.Vec3    `json:"rotation,omitempty"`
	Scale    *types.Vec3    `json:"scale,omitempty"`
}

// Apply a transformation to an object.
func (s *Session) SetTransform(obj scene.ObjectID, t scene.Transform) error {
	return s.call("set_transform", transformArgs{
		Object:   obj,
		Location: t.Location,
		Rotation: t.Rotation,
		Scale:    t.Scale,
	}, nil)
}

// Create a camera object.
func (s *Session) AddCamera(name string, t scene.Transform) (scene.ObjectID, error) {
	var res struct {
		Object scene.ObjectID `json:"object"`
	}
	err := s.call("add_camera", transformArgs{
		Name:     name,
		Location: t.Location,
		Rotation: t.Rotation,
		Scale:    t.Scale,
	}, &res)
	return res.Object, err
}

// Create a light object.
func (s *Session) AddLight(name string, l scene.Light) (scene.ObjectID, error) {
	var res struct {
		Object scene.ObjectID `json:"object"`
	}
	err := s.call("add_light", map[string]interface{}{
		"name":     name,
		"type":     l.Type,
		"location": l.Location,
		"energy":   l.Energy,
	}, &res)
	return res.Object, err
}

// Set the world background color, creating a world if the scene has none.
func (s *Session) SetWorldColor(c types.Vec3) error {
	return s.call("set_world_color", map[string]types.Vec3{"color": c}, nil)
}

// Create a node based material and append it to the object's material slots.
func (s *Session) AttachMaterial(obj scene.ObjectID, m scene.Material) error {
	return s.call("attach_material", map[string]interface{}{
		"object":     obj,
		"name":       m.Name,
		"base_color": m.BaseColor,
	}, nil)
}

// Select the render engine, sample count and output resolution.
func (s *Session) Configure(settings scene.RenderSettings) error {
	return s.call("configure", map[string]interface{}{
		"engine":       settings.Engine,
		"samples":      settings.Samples,
		"resolution_x": settings.ResolutionX,
		"resolution_y": settings.ResolutionY,
	}, nil)
}

// Make cam the scene camera.
func (s *Session) SetActiveCamera(cam scene.ObjectID) error {
	return s.call("set_active_camera", map[string]scene.ObjectID{"object": cam}, nil)
}

// Render a still from the active camera. Blocks until blender has written
// the image.
func (s *Session) RenderToFile(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	return s.call("render", map[string]string{"path": abs}, nil)
}

// Ask the bridge to exit and wait for the process to terminate. A non-zero
// exit status is reported as an *ExitError.
func (s *Session) Close() error {
	if s.closed {
		return nil
	}

	// The host may already be gone; its exit status is reported below
	if err := s.call("quit", nil, nil); err != nil {
		s.logger.Debugf("quit request failed: %v", err)
	}
	s.closed = true
	s.stdin.Close()

	// Drain any remaining output so the process can exit
	for range s.replies {
	}

	err := s.wait()
	s.cleanup()
	return err
}
