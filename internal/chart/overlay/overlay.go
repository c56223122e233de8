// Package overlay turns strategy signals into chart artifacts. Each
// strategy is a Style record; the rules that read those records are shared.
package overlay

import "LiveChart/internal/domain/models"

// Input is everything one render consumes.
type Input struct {
	Signals []models.Signal
	Volume  []models.VolumePoint
}

// VolumePane is the bottom-anchored volume study of Volume-Surprise.
type VolumePane struct {
	ScaleID       string
	Margins       models.ScaleMargins
	Bars          []models.HistogramBar
	Expected      []models.LinePoint
	ExpectedColor string
}

// Overlay is the full set of artifacts of one render.
type Overlay struct {
	Markers []models.Marker
	Lines   []models.PriceLine
	Volume  *VolumePane
}

// Renderer draws one strategy.
type Renderer interface {
	Strategy() models.Strategy
	// NeedsVolume reports whether the volume indicator must be fetched too.
	NeedsVolume() bool
	Render(in Input) Overlay
}

type renderer struct {
	style Style
}

func (r renderer) Strategy() models.Strategy { return r.style.Strategy }

func (r renderer) NeedsVolume() bool { return r.style.Volume != nil }

func (r renderer) Render(in Input) Overlay {
	ov := Overlay{
		Markers: make([]models.Marker, 0, len(in.Signals)),
		Lines:   []models.PriceLine{},
	}
	for _, sig := range in.Signals {
		ov.Markers = append(ov.Markers, r.style.Marker.marker(sig))
	}
	if r.style.Lines != nil {
		ov.Lines = append(ov.Lines, r.style.Lines(in.Signals)...)
	}
	if r.style.Volume != nil && len(in.Volume) > 0 {
		ov.Volume = r.style.Volume.pane(in.Volume)
	}
	return ov
}

var registry = func() map[models.Strategy]Renderer {
	m := make(map[models.Strategy]Renderer, len(Styles))
	for _, st := range Styles {
		m[st.Strategy] = renderer{style: st}
	}
	return m
}()

// For returns the renderer of a strategy. NONE and unknown strategies have none.
func For(s models.Strategy) (Renderer, bool) {
	r, ok := registry[s]
	return r, ok
}
