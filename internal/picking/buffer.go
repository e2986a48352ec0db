package picking

import (
	"image"
	"image/color"
	"math"
	"sort"

	"spacetime-chart/pkg/geometry"
)

// Buffer is the off-screen picking canvas. All primitives are drawn hard-edged:
// a blended edge pixel would decode to an unrelated index.
type Buffer struct {
	img *image.RGBA
}

// NewBuffer creates a cleared buffer of the given size.
func NewBuffer(width, height int) *Buffer {
	return &Buffer{img: image.NewRGBA(image.Rect(0, 0, max(width, 0), max(height, 0)))}
}

// Resize reallocates the buffer when the size changed and clears it.
func (b *Buffer) Resize(width, height int) {
	width, height = max(width, 0), max(height, 0)
	if b.img.Bounds().Dx() != width || b.img.Bounds().Dy() != height {
		b.img = image.NewRGBA(image.Rect(0, 0, width, height))
		return
	}
	b.Clear()
}

// Clear resets every pixel to transparent (no hit).
func (b *Buffer) Clear() {
	clear(b.img.Pix)
}

// Image exposes the underlying image, mostly for debugging dumps.
func (b *Buffer) Image() *image.RGBA {
	return b.img
}

// Width returns the buffer width in pixels.
func (b *Buffer) Width() int { return b.img.Bounds().Dx() }

// Height returns the buffer height in pixels.
func (b *Buffer) Height() int { return b.img.Bounds().Dy() }

// At returns the color at (x, y), transparent when out of bounds.
func (b *Buffer) At(x, y int) color.RGBA {
	if !(image.Point{X: x, Y: y}.In(b.img.Rect)) {
		return color.RGBA{}
	}
	return b.img.RGBAAt(x, y)
}

func (b *Buffer) set(x, y int, col color.RGBA) {
	if x < 0 || y < 0 || x >= b.img.Rect.Max.X || y >= b.img.Rect.Max.Y {
		return
	}
	i := b.img.PixOffset(x, y)
	p := b.img.Pix[i : i+4 : i+4]
	p[0], p[1], p[2], p[3] = col.R, col.G, col.B, col.A
}

// DrawLine draws a line of the given width with a square brush using
// Bresenham's algorithm. The segment is clipped to the buffer first so far
// off-screen endpoints cost nothing.
func (b *Buffer) DrawLine(x1, y1, x2, y2, width float64, col color.RGBA) {
	thickness := int(math.Round(width))
	if thickness < 1 {
		thickness = 1
	}
	half := thickness / 2
	pad := float64(half + 1)

	cx1, cy1, cx2, cy2, ok := clipSegment(x1, y1, x2, y2,
		-pad, -pad, float64(b.Width())+pad, float64(b.Height())+pad)
	if !ok {
		return
	}

	ix1, iy1 := int(math.Round(cx1)), int(math.Round(cy1))
	ix2, iy2 := int(math.Round(cx2)), int(math.Round(cy2))

	dx := ix2 - ix1
	dy := iy2 - iy1
	if dx < 0 {
		dx = -dx
	}
	if dy < 0 {
		dy = -dy
	}

	sx := 1
	if ix1 > ix2 {
		sx = -1
	}
	sy := 1
	if iy1 > iy2 {
		sy = -1
	}

	err := dx - dy

	for {
		for t := -half; t <= half; t++ {
			for s := -half; s <= half; s++ {
				b.set(ix1+s, iy1+t, col)
			}
		}

		if ix1 == ix2 && iy1 == iy2 {
			break
		}

		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			ix1 += sx
		}
		if e2 < dx {
			err += dx
			iy1 += sy
		}
	}
}

// FillPolygon fills a polygon with the even-odd scanline rule.
func (b *Buffer) FillPolygon(points []geometry.Point2D, col color.RGBA) {
	if len(points) < 3 {
		return
	}

	bbox := bounds(points)
	minY := max(int(math.Floor(bbox.Y)), 0)
	maxY := min(int(math.Ceil(bbox.Y+bbox.Height)), b.Height()-1)

	xs := make([]float64, 0, 8)
	n := len(points)
	for y := minY; y <= maxY; y++ {
		sample := float64(y) + 0.5
		xs = xs[:0]
		for i := 0; i < n; i++ {
			p1 := points[i]
			p2 := points[(i+1)%n]
			if (p1.Y <= sample && p2.Y > sample) || (p2.Y <= sample && p1.Y > sample) {
				t := (sample - p1.Y) / (p2.Y - p1.Y)
				xs = append(xs, p1.X+t*(p2.X-p1.X))
			}
		}
		sort.Float64s(xs)

		for i := 0; i+1 < len(xs); i += 2 {
			xa := max(int(math.Round(xs[i])), 0)
			xb := min(int(math.Round(xs[i+1])), b.Width()-1)
			for x := xa; x <= xb; x++ {
				b.set(x, y, col)
			}
		}
	}
}

// FillRect fills the axis-aligned rectangle spanned by r.
func (b *Buffer) FillRect(r geometry.Rect, col color.RGBA) {
	x1 := max(int(math.Round(r.X)), 0)
	y1 := max(int(math.Round(r.Y)), 0)
	x2 := min(int(math.Round(r.X+r.Width)), b.Width()-1)
	y2 := min(int(math.Round(r.Y+r.Height)), b.Height()-1)
	for y := y1; y <= y2; y++ {
		for x := x1; x <= x2; x++ {
			b.set(x, y, col)
		}
	}
}

// FillCircle fills a disc of radius r around (cx, cy).
func (b *Buffer) FillCircle(cx, cy, r float64, col color.RGBA) {
	if r <= 0 || math.IsNaN(cx) || math.IsNaN(cy) {
		return
	}
	minX := max(int(cx-r-1), 0)
	maxX := min(int(cx+r+1), b.Width()-1)
	minY := max(int(cy-r-1), 0)
	maxY := min(int(cy+r+1), b.Height()-1)

	r2 := r * r
	for y := minY; y <= maxY; y++ {
		for x := minX; x <= maxX; x++ {
			dx := float64(x) - cx
			dy := float64(y) - cy
			if dx*dx+dy*dy <= r2 {
				b.set(x, y, col)
			}
		}
	}
}

func bounds(points []geometry.Point2D) geometry.Rect {
	minX, minY := points[0].X, points[0].Y
	maxX, maxY := minX, minY
	for _, p := range points[1:] {
		minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
		minY, maxY = math.Min(minY, p.Y), math.Max(maxY, p.Y)
	}
	return geometry.Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}

// clipSegment clips a segment to a rectangle (Liang-Barsky).
func clipSegment(x1, y1, x2, y2, minX, minY, maxX, maxY float64) (float64, float64, float64, float64, bool) {
	for _, v := range [4]float64{x1, y1, x2, y2} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, 0, 0, 0, false
		}
	}
	t0, t1 := 0.0, 1.0
	dx, dy := x2-x1, y2-y1
	edges := [4][2]float64{
		{-dx, x1 - minX},
		{dx, maxX - x1},
		{-dy, y1 - minY},
		{dy, maxY - y1},
	}
	for _, e := range edges {
		p, q := e[0], e[1]
		if p == 0 {
			if q < 0 {
				return 0, 0, 0, 0, false
			}
			continue
		}
		r := q / p
		if p < 0 {
			if r > t1 {
				return 0, 0, 0, 0, false
			}
			if r > t0 {
				t0 = r
			}
		} else {
			if r < t0 {
				return 0, 0, 0, 0, false
			}
			if r < t1 {
				t1 = r
			}
		}
	}
	return x1 + t0*dx, y1 + t0*dy, x1 + t1*dx, y1 + t1*dy, true
}
