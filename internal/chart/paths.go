package chart

import (
	"math"

	"github.com/gogpu/gg"

	"spacetime-chart/internal/picking"
	"spacetime-chart/internal/pipeline"
	"spacetime-chart/internal/scale"
	"spacetime-chart/pkg/geometry"
)

type segmentKind int

const (
	segmentMove segmentKind = iota
	// segmentStop is a dwell: same position, time running.
	segmentStop
	// segmentPause is an instantaneous stop: same time, position changing. It is
	// drawn as a dashed vertical marker.
	segmentPause
	// segmentCrossing joins the two edges of a flat step the path passes through
	// without stopping.
	segmentCrossing
)

// pathSegment is a drawable piece of a path in pixels. Index is the path vertex
// the piece starts at.
type pathSegment struct {
	a, b  geometry.Point2D
	kind  segmentKind
	index int
}

// edgeSides returns, for each segment of pts, whether its start and its end are
// read from the end edge of a flat step. A path moving toward increasing positions
// leaves a step from its end edge and enters the next one at its start edge; the
// other direction is the mirror. A stop keeps the side it arrived on and moves to
// the side it will leave from.
func edgeSides(pts []scale.DataPoint) (from, to []bool) {
	n := len(pts) - 1
	if n <= 0 {
		return nil, nil
	}
	dirs := make([]float64, n)
	next := make([]float64, n+1)
	for i := 0; i < n; i++ {
		dirs[i] = sign(pts[i+1].Position - pts[i].Position)
	}
	for i := n - 1; i >= 0; i-- {
		next[i] = dirs[i]
		if dirs[i] == 0 {
			next[i] = next[i+1]
		}
	}

	from, to = make([]bool, n), make([]bool, n)
	arrived := next[0] > 0
	for i := 0; i < n; i++ {
		switch {
		case dirs[i] > 0:
			from[i], to[i] = true, false
		case dirs[i] < 0:
			from[i], to[i] = false, true
		default:
			from[i] = arrived
			to[i] = arrived
			if next[i] != 0 {
				to[i] = next[i] > 0
			}
		}
		arrived = to[i]
	}
	return from, to
}

func sign(v float64) float64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}

func finite(p scale.DataPoint) bool {
	return !math.IsNaN(p.Time) && !math.IsInf(p.Time, 0) &&
		!math.IsNaN(p.Position) && !math.IsInf(p.Position, 0)
}

// pathSegments resolves the pixel geometry of a path, including the crossings of
// flat steps between consecutive segments. Segments touching a non-finite point
// are left out.
func pathSegments(tr *scale.Transform, pts []scale.DataPoint) []pathSegment {
	from, to := edgeSides(pts)
	segs := make([]pathSegment, 0, len(from)+2)
	for i := range from {
		p, q := pts[i], pts[i+1]
		if !finite(p) || !finite(q) {
			continue
		}
		a := tr.PixelAt(p, from[i])
		if i > 0 && from[i] != to[i-1] {
			prev := tr.PixelAt(p, to[i-1])
			if prev != a {
				segs = append(segs, pathSegment{a: prev, b: a, kind: segmentCrossing, index: i})
			}
		}
		kind := segmentMove
		switch {
		case p.Position == q.Position && p.Time != q.Time:
			kind = segmentStop
		case p.Time == q.Time && p.Position != q.Position:
			kind = segmentPause
		}
		segs = append(segs, pathSegment{a: a, b: tr.PixelAt(q, to[i]), kind: kind, index: i})
	}
	return segs
}

// vertexSide returns the flat-step edge vertex i is drawn on: the side its
// outgoing segment starts from, or for the last vertex the side the path arrives on.
func vertexSide(from, to []bool, i int) bool {
	switch {
	case i < len(from):
		return from[i]
	case i > 0 && i-1 < len(to):
		return to[i-1]
	}
	return false
}

func (c *Chart) segmentWidth(kind segmentKind) float64 {
	if kind == segmentStop || kind == segmentPause {
		return c.palette.PauseWidth
	}
	return c.palette.PathWidth
}

func (c *Chart) drawPaths(dc *pipeline.DrawContext) error {
	c.clipBody(dc)
	cv := dc.Canvas
	cv.SetLineCap(gg.LineCapRound)
	for _, p := range c.paths {
		if len(p.Points) == 0 {
			continue
		}
		hovered := dc.Pointer.HasHover && dc.Pointer.Hovered.PathID == p.ID
		col, extra := p.color, 0.0
		if hovered {
			col, extra = c.palette.Hover, 1
		}
		cv.SetColor(col)

		segs := pathSegments(dc.Transform, p.Points)
		for _, s := range segs {
			w := c.segmentWidth(s.kind) + extra
			if !dc.Transform.SegmentVisible(s.a, s.b, w) {
				continue
			}
			cv.SetLineWidth(w)
			if s.kind == segmentPause {
				cv.SetDash(w, w)
			}
			cv.MoveTo(s.a.X, s.a.Y)
			cv.LineTo(s.b.X, s.b.Y)
			err := cv.Stroke()
			if s.kind == segmentPause {
				cv.ClearDash()
			}
			if err != nil {
				return err
			}
		}
		if hovered && dc.Pointer.Hovered.Kind == picking.KindPoint {
			if err := c.drawVertex(dc, p, dc.Pointer.Hovered.Index); err != nil {
				return err
			}
		}
		if err := c.drawEndMarkers(dc, p, segs); err != nil {
			return err
		}
		c.drawPathLabel(dc, p, segs)
	}
	return nil
}

func (c *Chart) drawVertex(dc *pipeline.DrawContext, p styledPath, index int) error {
	if index < 0 || index >= len(p.Points) || !finite(p.Points[index]) {
		return nil
	}
	from, to := edgeSides(p.Points)
	pt := dc.Transform.PixelAt(p.Points[index], vertexSide(from, to, index))
	dc.Canvas.DrawCircle(pt.X, pt.Y, c.cfg.Picking.PointRadius)
	return dc.Canvas.Fill()
}

const markerSize = 6.0

func (c *Chart) drawEndMarkers(dc *pipeline.DrawContext, p styledPath, segs []pathSegment) error {
	if len(segs) == 0 {
		return nil
	}
	first, last := segs[0], segs[len(segs)-1]
	if err := c.drawMarker(dc, p.FromEnd, first.a, first.b.Sub(first.a), true); err != nil {
		return err
	}
	return c.drawMarker(dc, p.ToEnd, last.b, last.b.Sub(last.a), false)
}

// drawMarker draws an end marker at tip. dir is the direction of travel there; a
// start marker points backward.
func (c *Chart) drawMarker(dc *pipeline.DrawContext, m EndMarker, tip, dir geometry.Point2D, start bool) error {
	if m == EndNone {
		return nil
	}
	length := math.Hypot(dir.X, dir.Y)
	if length == 0 {
		dir, length = geometry.NewPoint2D(1, 0), 1
	}
	ux, uy := dir.X/length, dir.Y/length
	if start {
		ux, uy = -ux, -uy
	}
	nx, ny := -uy, ux
	cv := dc.Canvas

	switch m {
	case EndArrow:
		cv.MoveTo(tip.X+ux*markerSize, tip.Y+uy*markerSize)
		cv.LineTo(tip.X+nx*markerSize/2, tip.Y+ny*markerSize/2)
		cv.LineTo(tip.X-nx*markerSize/2, tip.Y-ny*markerSize/2)
		cv.ClosePath()
		return cv.Fill()
	case EndBlunt:
		cv.SetLineWidth(c.palette.PathWidth)
		cv.MoveTo(tip.X+nx*markerSize/2, tip.Y+ny*markerSize/2)
		cv.LineTo(tip.X-nx*markerSize/2, tip.Y-ny*markerSize/2)
		return cv.Stroke()
	}
	return nil
}

// drawPathLabel writes the label next to the first visible move of the path.
func (c *Chart) drawPathLabel(dc *pipeline.DrawContext, p styledPath, segs []pathSegment) {
	if p.Label == "" || dc.Font == nil {
		return
	}
	for _, s := range segs {
		if s.kind != segmentMove || !dc.Transform.SegmentVisible(s.a, s.b, 0) {
			continue
		}
		x := geometry.Clamp(s.a.X, 0, float64(dc.Width))
		y := s.a.Y
		if s.b.X != s.a.X {
			y = s.a.Y + (x-s.a.X)*(s.b.Y-s.a.Y)/(s.b.X-s.a.X)
		}
		dc.Canvas.SetFont(dc.Font)
		dc.Canvas.DrawString(p.Label, x+4, y-4)
		return
	}
}

// pickPaths draws segments widened by the tolerance, then vertices on top so a
// point wins over the segments meeting at it.
func (c *Chart) pickPaths(pc *pipeline.PickingContext) error {
	for _, p := range c.paths {
		segs := pathSegments(pc.Transform, p.Points)
		for _, s := range segs {
			w := pc.LineWidth(c.segmentWidth(s.kind))
			if !pc.Transform.SegmentVisible(s.a, s.b, w) {
				continue
			}
			el := picking.SegmentOf(p.ID, s.index)
			if s.kind == segmentCrossing {
				el = picking.PointOf(p.ID, s.index)
			}
			pc.Buffer.DrawLine(s.a.X, s.a.Y, s.b.X, s.b.Y, w, pc.Register(el))
		}
	}
	radius := c.cfg.Picking.PointRadius
	if radius <= 0 {
		return nil
	}
	for _, p := range c.paths {
		from, to := edgeSides(p.Points)
		for i, pt := range p.Points {
			if !finite(pt) {
				continue
			}
			px := pc.Transform.PixelAt(pt, vertexSide(from, to, i))
			if !pc.Transform.SegmentVisible(px, px, radius) {
				continue
			}
			pc.Buffer.FillCircle(px.X, px.Y, radius, pc.Register(picking.PointOf(p.ID, i)))
		}
	}
	return nil
}
