package cmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/achilleasa/pixelpoint/asset"
	"github.com/achilleasa/pixelpoint/asset/mesh"
	"github.com/achilleasa/pixelpoint/batch"
	"github.com/achilleasa/pixelpoint/config"
	"github.com/achilleasa/pixelpoint/renderer"
	"github.com/achilleasa/pixelpoint/scene"
	"github.com/achilleasa/pixelpoint/scene/blender"
	"github.com/achilleasa/pixelpoint/scene/sketch"
	"github.com/mitchellh/go-homedir"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli"
)

// Render stereo pairs of a mesh using named flags.
func RenderPairs(ctx *cli.Context) error {
	if err := setupLogging(ctx); err != nil {
		return exitError(err)
	}

	settings, err := loadSettings(ctx)
	if err != nil {
		return exitError(err)
	}

	req := batch.Request{
		ObjectPath:             ctx.String("object-path"),
		OutputDir:              ctx.String("output-dir"),
		DistanceBetweenCameras: settings.DistanceBetweenCameras,
		DistanceFromObject:     settings.DistanceFromObject,
		NumPairs:               settings.NumPairs,
		Seed:                   settings.Seed,
	}
	if req.ObjectPath == "" {
		return exitError(errors.New("missing --object-path"))
	}
	if req.OutputDir == "" {
		return exitError(errors.New("missing --output-dir"))
	}

	return exitError(runBatch(settings, req, ctx.String("manifest")))
}

// Render stereo pairs of a mesh using positional arguments:
// OBJECT OUTPUT DISTANCE_BETWEEN_CAMERAS DISTANCE_FROM_OBJECT [NUM_PAIRS].
func RenderPositional(ctx *cli.Context) error {
	if err := setupLogging(ctx); err != nil {
		return exitError(err)
	}

	settings, err := loadSettings(ctx)
	if err != nil {
		return exitError(err)
	}

	req, err := parsePositional(ctx.Args(), settings)
	if err != nil {
		return exitError(err)
	}

	return exitError(runBatch(settings, req, ctx.String("manifest")))
}

// Build a batch request from positional arguments. The number of pairs is
// optional and defaults to the configured value.
func parsePositional(args []string, settings config.Settings) (batch.Request, error) {
	if len(args) > 0 && args[0] == "--" {
		args = args[1:]
	}
	if len(args) < 4 || len(args) > 5 {
		return batch.Request{}, fmt.Errorf("expected 4 or 5 arguments; got %d", len(args))
	}

	req := batch.Request{
		ObjectPath: args[0],
		OutputDir:  args[1],
		NumPairs:   settings.NumPairs,
		Seed:       settings.Seed,
	}

	var err error
	if req.DistanceBetweenCameras, err = strconv.ParseFloat(args[2], 64); err != nil {
		return req, fmt.Errorf("invalid distance between cameras %q: %w", args[2], err)
	}
	if req.DistanceFromObject, err = strconv.ParseFloat(args[3], 64); err != nil {
		return req, fmt.Errorf("invalid distance from object %q: %w", args[3], err)
	}
	if len(args) == 5 {
		if req.NumPairs, err = strconv.Atoi(args[4]); err != nil {
			return req, fmt.Errorf("invalid number of pairs %q: %w", args[4], err)
		}
	}

	return req, nil
}

// Run a batch against the configured scene host.
func runBatch(settings config.Settings, req batch.Request, manifestPath string) (err error) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if req.OutputDir, err = homedir.Expand(req.OutputDir); err != nil {
		return err
	}
	if manifestPath, err = homedir.Expand(manifestPath); err != nil {
		return err
	}
	objectPath, err := homedir.Expand(req.ObjectPath)
	if err != nil {
		return err
	}

	// Remote meshes are downloaded so the host can read them
	workDir, err := os.MkdirTemp("", "pixelpoint-")
	if err != nil {
		return err
	}
	defer os.RemoveAll(workDir)

	if req.ObjectPath, err = asset.Materialize(objectPath, workDir); err != nil {
		return err
	}

	if err = preflight(req.ObjectPath); err != nil {
		return err
	}

	sc, err := openScene(ctx, settings)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := sc.Close(); err == nil {
			err = closeErr
		}
	}()

	driver := batch.NewDriver(sc, batch.Options{
		Renderer:     settings.RendererOptions(),
		ManifestPath: manifestPath,
	})
	res, err := driver.Run(ctx, req)
	if err != nil {
		return err
	}

	displayBatchStats(res)
	return nil
}

// Create the scene host selected by the settings.
func openScene(ctx context.Context, settings config.Settings) (scene.Scene, error) {
	switch settings.Host {
	case config.HostSketch:
		return sketch.New(), nil
	case config.HostBlender:
		if settings.BlenderPath == "" {
			return nil, errors.New("missing --blender-path")
		}

		blenderPath, err := homedir.Expand(settings.BlenderPath)
		if err != nil {
			return nil, err
		}
		return blender.Start(ctx, blender.Options{
			BlenderPath: blenderPath,
			ExtraArgs:   settings.BlenderArgs,
		})
	}
	return nil, fmt.Errorf("unknown scene host %q", settings.Host)
}

// Check obj files before starting the host. Other formats are left to the
// host importer.
func preflight(objectPath string) error {
	if scene.MeshFormat(objectPath) != "obj" {
		return nil
	}

	m, err := mesh.ReadFile(objectPath)
	if err != nil {
		return err
	}

	switch len(m.Objects) {
	case 0:
		return fmt.Errorf("%w: %s", renderer.ErrNothingImported, objectPath)
	case 1:
	default:
		logger.Warningf("%s contains %d objects (%v); the import may not yield a single object", objectPath, len(m.Objects), m.ObjectNames())
	}
	return nil
}

// Translate an error into a cli exit error. Blender exit codes are passed
// through; all other errors exit with status 1.
func exitError(err error) error {
	if err == nil {
		return nil
	}

	logger.Errorf("error: %s", err.Error())

	code := 1
	var hostExit *blender.ExitError
	if errors.As(err, &hostExit) && hostExit.Code > 0 {
		code = hostExit.Code
	}
	return cli.NewExitError("", code)
}

func displayBatchStats(res *batch.Result) {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"Pair", "Image 1", "Image 2", "Setup time", "Render time 1", "Render time 2", "Total time"})
	for index, out := range res.Pairs {
		table.Append([]string{
			fmt.Sprintf("%d", index),
			out.Paths[0],
			out.Paths[1],
			out.Stats.SetupTime.String(),
			out.Stats.Cameras[0].RenderTime.String(),
			out.Stats.Cameras[1].RenderTime.String(),
			out.Stats.TotalTime.String(),
		})
	}
	table.SetFooter([]string{"", "", "", "", "", "TOTAL", res.TotalTime.String()})

	table.Render()
	logger.Noticef("batch statistics\n%s", buf.String())
}
