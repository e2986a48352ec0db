package pipeline

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"log/slog"
	"slices"

	"github.com/gogpu/gg"
	"github.com/gogpu/gg/text"
	"golang.org/x/image/font/gofont/goregular"

	"spacetime-chart/internal/config"
	"spacetime-chart/internal/picking"
	"spacetime-chart/internal/scale"
	"spacetime-chart/pkg/geometry"
)

// ErrEmptyFrame is returned when a frame has no pixels to draw.
var ErrEmptyFrame = errors.New("frame has zero size")

// DrawFunc paints one drawable onto the visible canvas.
type DrawFunc func(dc *DrawContext) error

// PickFunc paints one drawable into the picking buffer.
type PickFunc func(pc *PickingContext) error

// Pointer is the pointer state handed to drawables.
type Pointer struct {
	Position geometry.Point2D
	Inside   bool
	Hovered  picking.Element
	HasHover bool
}

// Frame is the input of one render pass.
type Frame struct {
	Width, Height int
	Transform     *scale.Transform
	Palette       config.Palette
	Pointer       Pointer

	// Tolerance widens pickable lines beyond their visible width.
	Tolerance   float64
	SkipPicking bool
}

// DrawContext is passed to layer drawables.
type DrawContext struct {
	Canvas    *gg.Context
	Transform *scale.Transform
	Palette   config.Palette
	Width     int
	Height    int
	Pointer   Pointer
	Font      text.Face
	Layer     Layer
}

// PickingContext is passed to picking drawables.
type PickingContext struct {
	Buffer    *picking.Buffer
	Registry  *picking.Registry
	Transform *scale.Transform
	Tolerance float64
	Width     int
	Height    int
}

// Register stores el in this pass's registry and returns the color to draw it with.
func (pc *PickingContext) Register(el picking.Element) color.RGBA {
	return picking.IndexToColor(pc.Registry.Register(el))
}

// LineWidth returns the pickable width of a line drawn visibleWidth wide.
func (pc *PickingContext) LineWidth(visibleWidth float64) float64 {
	return visibleWidth + pc.Tolerance
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger used for per-frame diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithFontSource replaces the default caption font.
func WithFontSource(src *text.FontSource) Option {
	return func(p *Pipeline) {
		if src != nil {
			p.fontSource = src
		}
	}
}

// Pipeline owns the registered drawables, the visible canvas and the picking
// buffer of one chart. It is not safe for concurrent use.
type Pipeline struct {
	layers  [layerCount]layerState
	picking []pickEntry
	nextID  uint64

	canvas   *gg.Context
	buffer   *picking.Buffer
	registry *picking.Registry

	fontSource *text.FontSource
	face       text.Face
	faceSize   float64

	logger *slog.Logger
}

// New creates a pipeline with every layer visible and fully opaque.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		buffer:   picking.NewBuffer(0, 0),
		registry: picking.NewRegistry(),
		logger:   slog.New(slog.DiscardHandler),
	}
	for i := range p.layers {
		p.layers[i].visible = true
		p.layers[i].opacity = 1.0
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// RegisterLayerDrawable adds fn to layer. Drawables of a layer run in registration
// order. The returned function removes the drawable; calling it twice is a no-op.
func (p *Pipeline) RegisterLayerDrawable(layer Layer, fn DrawFunc) (unregister func()) {
	if !layer.Valid() || fn == nil {
		return func() {}
	}
	p.nextID++
	id := p.nextID
	p.layers[layer].drawables = append(p.layers[layer].drawables, drawEntry{id: id, fn: fn})
	return func() {
		p.layers[layer].drawables = slices.DeleteFunc(p.layers[layer].drawables, func(e drawEntry) bool {
			return e.id == id
		})
	}
}

// RegisterPickingDrawable adds fn to the picking pass.
func (p *Pipeline) RegisterPickingDrawable(fn PickFunc) (unregister func()) {
	if fn == nil {
		return func() {}
	}
	p.nextID++
	id := p.nextID
	p.picking = append(p.picking, pickEntry{id: id, fn: fn})
	return func() {
		p.picking = slices.DeleteFunc(p.picking, func(e pickEntry) bool {
			return e.id == id
		})
	}
}

// SetLayerVisible shows or hides a whole layer.
func (p *Pipeline) SetLayerVisible(layer Layer, visible bool) {
	if layer.Valid() {
		p.layers[layer].visible = visible
	}
}

// SetLayerOpacity sets the opacity a layer is composited with, clamped to [0, 1].
func (p *Pipeline) SetLayerOpacity(layer Layer, opacity float64) {
	if layer.Valid() {
		p.layers[layer].opacity = geometry.Clamp(opacity, 0, 1)
	}
}

// DrawableCount returns the number of drawables registered on layer.
func (p *Pipeline) DrawableCount(layer Layer) int {
	if !layer.Valid() {
		return 0
	}
	return len(p.layers[layer].drawables)
}

// RenderFrame runs one synchronous pass: every visible layer is drawn into the
// canvas, back to front, then the picking buffer is rebuilt with a fresh registry.
// A failing drawable does not stop the pass; all errors are joined.
func (p *Pipeline) RenderFrame(frame Frame) (*image.RGBA, error) {
	if frame.Width <= 0 || frame.Height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrEmptyFrame, frame.Width, frame.Height)
	}

	var errs []error
	p.prepareCanvas(frame.Width, frame.Height)
	face, err := p.captionFace(frame.Palette.CaptionFontSize)
	if err != nil {
		errs = append(errs, err)
	}

	dc := &DrawContext{
		Canvas:    p.canvas,
		Transform: frame.Transform,
		Palette:   frame.Palette,
		Width:     frame.Width,
		Height:    frame.Height,
		Pointer:   frame.Pointer,
		Font:      face,
	}
	for _, layer := range Layers() {
		state := &p.layers[layer]
		if !state.visible || len(state.drawables) == 0 {
			continue
		}
		dc.Layer = layer
		p.canvas.PushLayer(gg.BlendNormal, state.opacity)
		for _, d := range state.drawables {
			p.canvas.Push()
			if err := d.fn(dc); err != nil {
				errs = append(errs, fmt.Errorf("%s layer: %w", layer, err))
			}
			p.canvas.Pop()
			p.canvas.ClearPath()
		}
		p.canvas.PopLayer()
	}

	p.buffer.Resize(frame.Width, frame.Height)
	p.registry.Reset()
	if !frame.SkipPicking {
		pc := &PickingContext{
			Buffer:    p.buffer,
			Registry:  p.registry,
			Transform: frame.Transform,
			Tolerance: frame.Tolerance,
			Width:     frame.Width,
			Height:    frame.Height,
		}
		for _, d := range p.picking {
			if err := d.fn(pc); err != nil {
				errs = append(errs, fmt.Errorf("picking: %w", err))
			}
		}
	}

	p.logger.Debug("frame rendered",
		"width", frame.Width,
		"height", frame.Height,
		"pickable", p.registry.Len(),
		"errors", len(errs))

	return toRGBA(p.canvas.Image()), errors.Join(errs...)
}

// Pick resolves the element under (x, y) against the last rendered frame.
func (p *Pipeline) Pick(x, y int) (picking.Element, bool) {
	return p.registry.Pick(p.buffer, x, y)
}

// Registry returns the registry of the last rendered frame.
func (p *Pipeline) Registry() *picking.Registry {
	return p.registry
}

// Buffer returns the picking buffer of the last rendered frame.
func (p *Pipeline) Buffer() *picking.Buffer {
	return p.buffer
}

// Close releases the canvas.
func (p *Pipeline) Close() error {
	if p.canvas == nil {
		return nil
	}
	err := p.canvas.Close()
	p.canvas = nil
	return err
}

func (p *Pipeline) prepareCanvas(width, height int) {
	if p.canvas != nil && p.canvas.Width() == width && p.canvas.Height() == height {
		p.canvas.Clear()
		p.canvas.Identity()
		p.canvas.ResetClip()
		p.canvas.ClearDash()
		p.canvas.ClearPath()
		return
	}
	if p.canvas != nil {
		_ = p.canvas.Close()
	}
	p.canvas = gg.NewContext(width, height)
}

func (p *Pipeline) captionFace(size float64) (text.Face, error) {
	if size <= 0 {
		size = 11
	}
	if p.face != nil && p.faceSize == size {
		return p.face, nil
	}
	if p.fontSource == nil {
		src, err := text.NewFontSource(goregular.TTF)
		if err != nil {
			return nil, fmt.Errorf("load caption font: %w", err)
		}
		p.fontSource = src
	}
	p.face = p.fontSource.Face(size)
	p.faceSize = size
	return p.face, nil
}

func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok {
		return rgba
	}
	b := img.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), img, b.Min, draw.Src)
	return out
}
