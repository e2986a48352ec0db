package scale

import (
	"math"

	"spacetime-chart/internal/config"
)

// TimeScale is the affine time axis: Origin (ms) is drawn at pixel Offset and
// every pixel covers MsPerPx milliseconds.
type TimeScale struct {
	Origin  float64
	MsPerPx float64
	Offset  float64
}

func (s TimeScale) msPerPx() float64 {
	if s.MsPerPx <= 0 || math.IsNaN(s.MsPerPx) {
		return 1
	}
	return s.MsPerPx
}

// TimeToPixel returns the x pixel of time t (ms).
func (s TimeScale) TimeToPixel(t float64) float64 {
	return (t-s.Origin)/s.msPerPx() + s.Offset
}

// PixelToTime returns the time (ms) drawn at x pixel.
func (s TimeScale) PixelToTime(x float64) float64 {
	return (x-s.Offset)*s.msPerPx() + s.Origin
}

// ZoomLimits bounds the horizontal zoom. The slider range [MinZoomX, MaxZoomX]
// maps logarithmically onto [MinZoomMsPerPx, MaxZoomMsPerPx]; MinZoomMsPerPx is
// the zoomed-out end and therefore the larger value.
type ZoomLimits struct {
	MinZoomX       float64
	MaxZoomX       float64
	MinZoomMsPerPx float64
	MaxZoomMsPerPx float64
}

// NewZoomLimits extracts the time zoom limits from a chart configuration.
func NewZoomLimits(z config.ZoomConfig) ZoomLimits {
	return ZoomLimits{
		MinZoomX:       z.MinZoomX,
		MaxZoomX:       z.MaxZoomX,
		MinZoomMsPerPx: z.MinZoomMsPerPx,
		MaxZoomMsPerPx: z.MaxZoomMsPerPx,
	}
}

// ClampTimeScale limits ms/px to [MaxZoomMsPerPx, MinZoomMsPerPx].
func (l ZoomLimits) ClampTimeScale(msPerPx float64) float64 {
	if math.IsNaN(msPerPx) {
		return l.MinZoomMsPerPx
	}
	return math.Min(math.Max(msPerPx, l.MaxZoomMsPerPx), l.MinZoomMsPerPx)
}

// ClampZoomValue limits a slider value to [MinZoomX, MaxZoomX].
func (l ZoomLimits) ClampZoomValue(v float64) float64 {
	if math.IsNaN(v) {
		return l.MinZoomX
	}
	return math.Min(math.Max(v, l.MinZoomX), l.MaxZoomX)
}

// ZoomValueToTimeScale converts a slider value into ms/px.
func (l ZoomLimits) ZoomValueToTimeScale(v float64) float64 {
	v = l.ClampZoomValue(v)
	frac := (v - l.MinZoomX) / (l.MaxZoomX - l.MinZoomX)
	return l.ClampTimeScale(l.MinZoomMsPerPx * math.Pow(l.MaxZoomMsPerPx/l.MinZoomMsPerPx, frac))
}

// TimeScaleToZoomValue is the inverse of ZoomValueToTimeScale.
func (l ZoomLimits) TimeScaleToZoomValue(msPerPx float64) float64 {
	msPerPx = l.ClampTimeScale(msPerPx)
	frac := math.Log(msPerPx/l.MinZoomMsPerPx) / math.Log(l.MaxZoomMsPerPx/l.MinZoomMsPerPx)
	return l.ClampZoomValue(l.MinZoomX + frac*(l.MaxZoomX-l.MinZoomX))
}
