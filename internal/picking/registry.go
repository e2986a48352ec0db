package picking

import "image/color"

// MaxIndex is the largest index a 24-bit RGB color can carry.
const MaxIndex = 1<<24 - 1

// IndexToColor encodes a registry index as an opaque RGB color.
// Index 0 and out-of-range indices map to transparent, which decodes to no hit.
func IndexToColor(index int) color.RGBA {
	if index <= 0 || index > MaxIndex {
		return color.RGBA{}
	}
	return color.RGBA{
		R: uint8(index >> 16),
		G: uint8(index >> 8),
		B: uint8(index),
		A: 255,
	}
}

// ColorToIndex decodes a picking color. Anything not fully opaque is background.
func ColorToIndex(c color.RGBA) int {
	if c.A != 255 {
		return 0
	}
	return int(c.R)<<16 | int(c.G)<<8 | int(c.B)
}

// Registry assigns dense indices to the elements drawn in one picking pass.
// Index 0 is reserved for "no hit". A registry is only valid for the pass that
// filled it; Reset before every render.
type Registry struct {
	elements []Element
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{elements: make([]Element, 1, 256)}
}

// Reset drops all registrations, keeping the backing array.
func (r *Registry) Reset() {
	r.elements = r.elements[:1]
}

// Register stores el and returns its index. It returns 0 once the color space is
// exhausted; such elements are simply not pickable.
func (r *Registry) Register(el Element) int {
	if len(r.elements) == 0 {
		r.elements = append(r.elements, Element{})
	}
	if len(r.elements) > MaxIndex {
		return 0
	}
	r.elements = append(r.elements, el)
	return len(r.elements) - 1
}

// Len returns the number of registered elements.
func (r *Registry) Len() int {
	if len(r.elements) == 0 {
		return 0
	}
	return len(r.elements) - 1
}

// Lookup returns the element at index. Index 0 and unknown indices are no hit.
func (r *Registry) Lookup(index int) (Element, bool) {
	if index <= 0 || index >= len(r.elements) {
		return Element{}, false
	}
	return r.elements[index], true
}

// Pick reads the buffer pixel at (x, y) and resolves it against the registry.
func (r *Registry) Pick(buf *Buffer, x, y int) (Element, bool) {
	if buf == nil {
		return Element{}, false
	}
	return r.Lookup(ColorToIndex(buf.At(x, y)))
}
