package sketch

import (
	"image"
	"image/color"
	"math"

	"github.com/achilleasa/pixelpoint/types"
)

func fill(img *image.RGBA, c color.RGBA) {
	for offset := 0; offset < len(img.Pix); offset += 4 {
		img.Pix[offset+0] = c.R
		img.Pix[offset+1] = c.G
		img.Pix[offset+2] = c.B
		img.Pix[offset+3] = c.A
	}
}

// Draw the edges of all object triangles.
func drawWireframe(img *image.RGBA, cam *camera, obj *object, c color.RGBA) {
	projected := make([]types.Vec3, len(obj.Vertices))
	visible := make([]bool, len(obj.Vertices))
	for index, v := range obj.Vertices {
		projected[index], visible[index] = cam.Project(obj.toWorld(v))
	}

	for _, face := range obj.Faces {
		for edge := 0; edge < 3; edge++ {
			from, to := face[edge], face[(edge+1)%3]
			if !visible[from] || !visible[to] {
				continue
			}
			drawLine(img, projected[from], projected[to], c)
		}
	}
}

// Draw a line by stepping along its major axis.
func drawLine(img *image.RGBA, from, to types.Vec3, c color.RGBA) {
	bounds := img.Bounds()

	// Skip lines that are fully outside the frame
	if (from[0] < 0 && to[0] < 0) || (from[1] < 0 && to[1] < 0) ||
		(from[0] >= float64(bounds.Max.X) && to[0] >= float64(bounds.Max.X)) ||
		(from[1] >= float64(bounds.Max.Y) && to[1] >= float64(bounds.Max.Y)) {
		return
	}

	dx, dy := to[0]-from[0], to[1]-from[1]
	steps := math.Ceil(math.Max(math.Abs(dx), math.Abs(dy)))
	if steps < 1 {
		steps = 1
	}

	// Guard against degenerate projections
	if steps > 4*float64(bounds.Dx()+bounds.Dy()) {
		steps = 4 * float64(bounds.Dx()+bounds.Dy())
	}

	for step := 0.0; step <= steps; step++ {
		t := step / steps
		x := int(math.Floor(from[0] + dx*t))
		y := int(math.Floor(from[1] + dy*t))
		if x < bounds.Min.X || y < bounds.Min.Y || x >= bounds.Max.X || y >= bounds.Max.Y {
			continue
		}
		img.SetRGBA(x, y, c)
	}
}
