// Package pipeline renders a chart frame: registered drawables paint five ordered
// layers onto a gg canvas, then registered picking drawables fill the off-screen
// picking buffer in the same synchronous pass.
package pipeline

// Layer is a drawing layer. Layers are composited back to front in declaration order.
type Layer int

const (
	LayerGraduations Layer = iota
	LayerBackground
	LayerPaths
	LayerOverlay
	LayerCaptions

	layerCount
)

func (l Layer) String() string {
	switch l {
	case LayerGraduations:
		return "graduations"
	case LayerBackground:
		return "background"
	case LayerPaths:
		return "paths"
	case LayerOverlay:
		return "overlay"
	case LayerCaptions:
		return "captions"
	default:
		return "unknown"
	}
}

// Valid reports whether l is one of the pipeline layers.
func (l Layer) Valid() bool {
	return l >= 0 && l < layerCount
}

// Layers returns every layer in compositing order.
func Layers() []Layer {
	out := make([]Layer, 0, layerCount)
	for l := Layer(0); l < layerCount; l++ {
		out = append(out, l)
	}
	return out
}

// layerState holds the drawables of one layer and its compositing settings.
type layerState struct {
	drawables []drawEntry
	visible   bool
	opacity   float64 // 0.0 - 1.0
}

type drawEntry struct {
	id uint64
	fn DrawFunc
}

type pickEntry struct {
	id uint64
	fn PickFunc
}
