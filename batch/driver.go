// Package batch renders a sequence of stereo pairs of a single mesh.
package batch

import (
	"context"
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"strconv"
	"time"

	"github.com/achilleasa/pixelpoint/log"
	"github.com/achilleasa/pixelpoint/placement"
	"github.com/achilleasa/pixelpoint/renderer"
	"github.com/achilleasa/pixelpoint/scene"
)

var ErrInvalidRequest = errors.New("batch: invalid request")

// Request describes a batch of pair renders.
type Request struct {
	ObjectPath string `json:"object_path"`
	OutputDir  string `json:"output_dir"`

	// Output image names are derived from this value. If empty, the
	// base name of ObjectPath without its extension is used.
	Stem string `json:"stem,omitempty"`

	DistanceBetweenCameras float64 `json:"distance_between_cameras"`
	DistanceFromObject     float64 `json:"distance_from_object"`
	NumPairs               int     `json:"num_pairs"`

	// Seed for the jitter stream. The stream is seeded once per batch.
	Seed uint32 `json:"seed"`
}

// Validate the request parameters.
func (r Request) Validate() error {
	switch {
	case r.ObjectPath == "":
		return fmt.Errorf("%w: missing object path", ErrInvalidRequest)
	case r.OutputDir == "":
		return fmt.Errorf("%w: missing output dir", ErrInvalidRequest)
	case r.NumPairs < 0:
		return fmt.Errorf("%w: negative number of pairs %d", ErrInvalidRequest, r.NumPairs)
	case !validDistance(r.DistanceBetweenCameras):
		return fmt.Errorf("%w: invalid distance between cameras %v", ErrInvalidRequest, r.DistanceBetweenCameras)
	case !validDistance(r.DistanceFromObject):
		return fmt.Errorf("%w: invalid distance from object %v", ErrInvalidRequest, r.DistanceFromObject)
	}
	return nil
}

func validDistance(d float64) bool {
	return d >= 0 && !math.IsInf(d, 0) && !math.IsNaN(d)
}

// Options configures a batch driver.
type Options struct {
	Renderer renderer.Options

	// If set, a JSON manifest describing the batch is written to this
	// path once all pairs have been rendered.
	ManifestPath string
}

// Result holds the outputs of a completed batch.
type Result struct {
	Request Request
	Pairs   []*renderer.PairOutput

	TotalTime time.Duration
}

// Driver renders pairs sequentially using a single host scene.
type Driver struct {
	logger log.Logger
	scene  scene.Scene
	opts   Options
}

// Create a new batch driver.
func NewDriver(sc scene.Scene, opts Options) *Driver {
	return &Driver{
		logger: log.New("batch"),
		scene:  sc,
		opts:   opts,
	}
}

// Get the output dir for the pair with the given index.
func PairDir(outputDir string, index int) string {
	return filepath.Join(outputDir, "pair_"+strconv.Itoa(index))
}

// Render all pairs of a request. Pairs are rendered in index order and the
// first failing pair aborts the batch. Cancelling ctx stops the batch
// before the next pair starts.
func (d *Driver) Run(ctx context.Context, req Request) (*Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if err := d.opts.Renderer.Model.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	stream := placement.NewStream(req.Seed)
	pr := renderer.NewPairRenderer(d.scene, stream, d.opts.Renderer)

	d.logger.Noticef("rendering %d pair(s) of %s (seed %d)", req.NumPairs, req.ObjectPath, req.Seed)

	res := &Result{
		Request: req,
		Pairs:   make([]*renderer.PairOutput, 0, req.NumPairs),
	}
	for index := 0; index < req.NumPairs; index++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("batch: interrupted before pair %d: %w", index, err)
		}

		out, err := pr.RenderPair(renderer.PairRequest{
			ObjectPath:             req.ObjectPath,
			OutputDir:              PairDir(req.OutputDir, index),
			Stem:                   req.Stem,
			DistanceBetweenCameras: req.DistanceBetweenCameras,
			DistanceFromObject:     req.DistanceFromObject,
		})
		if err != nil {
			return nil, fmt.Errorf("batch: pair %d: %w", index, err)
		}

		d.logger.Infof("pair %d/%d done in %d ms", index+1, req.NumPairs, out.Stats.TotalTime.Nanoseconds()/1e6)
		res.Pairs = append(res.Pairs, out)
	}
	res.TotalTime = time.Since(start)

	if d.opts.ManifestPath != "" {
		if err := WriteManifest(d.opts.ManifestPath, NewManifest(res, d.opts.Renderer.Model)); err != nil {
			return nil, fmt.Errorf("batch: could not write manifest: %w", err)
		}
		d.logger.Infof("wrote manifest to %s", d.opts.ManifestPath)
	}

	return res, nil
}
