package export

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/san-kum/orbiter/internal/body"
	"github.com/san-kum/orbiter/internal/quadtree"
	"github.com/san-kum/orbiter/internal/solver"
)

// Scene is the solver state a snapshot reads.
type Scene interface {
	Bodies() []body.Body
	Constraint() solver.Constraint
	Tree() *quadtree.Tree
}

type SVGOptions struct {
	// Width is the image width in pixels; height follows the aspect ratio.
	Width int
	// Leaves outlines every quadtree leaf.
	Leaves     bool
	Background string
}

func DefaultSVGOptions() SVGOptions {
	return SVGOptions{Width: 1024, Background: "#0a0a0a"}
}

// SceneToSVG draws the constraint, the bodies and optionally the quadtree
// leaves in world coordinates framed around the constraint.
func SceneToSVG(w io.Writer, s Scene, opts SVGOptions) error {
	if opts.Width <= 0 {
		opts.Width = DefaultSVGOptions().Width
	}
	if opts.Background == "" {
		opts.Background = DefaultSVGOptions().Background
	}

	c := s.Constraint()
	half := c.Radius * 1.05
	minX, minY := c.Center.X-half, c.Center.Y-half
	size := 2 * half
	stroke := size / float64(opts.Width)

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="%.2f %.2f %.2f %.2f">
<rect x="%.2f" y="%.2f" width="%.2f" height="%.2f" fill="%s"/>
`, opts.Width, opts.Width, minX, minY, size, size, minX, minY, size, size, opts.Background)

	fmt.Fprintf(&sb, `<circle cx="%.2f" cy="%.2f" r="%.2f" fill="none" stroke="%s" stroke-width="%.2f"/>
`, c.Center.X, c.Center.Y, c.Radius, c.Color.Hex(), 2*stroke)

	if opts.Leaves && s.Tree() != nil {
		sb.WriteString(`<g fill="none" stroke="#3a3a3a">` + "\n")
		t := s.Tree()
		for _, id := range t.Leaves() {
			r := t.Node(id).Region
			lo := r.Min()
			fmt.Fprintf(&sb, `<rect x="%.2f" y="%.2f" width="%.2f" height="%.2f" stroke-width="%.2f"/>
`, lo.X, lo.Y, r.Width, r.Width, stroke)
		}
		sb.WriteString("</g>\n")
	}

	bodies := s.Bodies()
	for i := range bodies {
		b := &bodies[i]
		if !b.Finite() || math.IsNaN(b.Radius) {
			continue
		}
		fmt.Fprintf(&sb, `<circle cx="%.2f" cy="%.2f" r="%.2f" fill="%s"/>
`, b.Position.X, b.Position.Y, b.Radius, b.Color.Hex())
	}

	sb.WriteString("</svg>\n")
	_, err := io.WriteString(w, sb.String())
	return err
}

// SeriesToSVG plots a telemetry column as a polyline.
func SeriesToSVG(values []float64, width, height int, strokeColor string) string {
	points := make([]struct{ X, Y float64 }, 0, len(values))
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		points = append(points, struct{ X, Y float64 }{float64(i), v})
	}
	if len(points) < 2 {
		return ""
	}

	minX, maxX := points[0].X, points[len(points)-1].X
	minY, maxY := points[0].Y, points[0].Y
	for _, p := range points {
		minY = math.Min(minY, p.Y)
		maxY = math.Max(maxY, p.Y)
	}

	rangeX := maxX - minX
	rangeY := maxY - minY
	if rangeY == 0 {
		rangeY = 1
	}
	minY -= rangeY * 0.1
	rangeY *= 1.2

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
<path fill="none" stroke="%s" stroke-width="1.5" d="M`,
		width, height, width, height, strokeColor)

	for i, p := range points {
		x := (p.X - minX) / rangeX * float64(width)
		y := float64(height) - (p.Y-minY)/rangeY*float64(height)
		if i == 0 {
			fmt.Fprintf(&sb, "%.1f,%.1f", x, y)
		} else {
			fmt.Fprintf(&sb, " L%.1f,%.1f", x, y)
		}
	}

	sb.WriteString(`"/>
</svg>`)
	return sb.String()
}
