package overlay

import (
	"LiveChart/internal/chart"
	"LiveChart/internal/domain/models"
)

// Series ids of the volume pane.
const (
	VolumeSeriesID   = "volume"
	ExpectedSeriesID = "expected_volume"
)

// Drawing remembers what the last render put on a chart so the next one
// can discard it. Overlays are replaced wholesale, never diffed.
type Drawing struct {
	lines  []chart.PriceLineID
	series []string
}

// Apply clears the previous render and draws ov.
func (d *Drawing) Apply(surface chart.Surface, series chart.CandleSeries, ov Overlay) {
	d.Clear(surface, series)

	markers := ov.Markers
	if markers == nil {
		markers = []models.Marker{}
	}
	series.SetMarkers(markers)
	for _, l := range ov.Lines {
		d.lines = append(d.lines, series.CreatePriceLine(l))
	}

	if ov.Volume == nil {
		return
	}
	v := ov.Volume
	hist := surface.AddHistogramSeries(VolumeSeriesID, chart.SeriesOptions{
		PriceScaleID: v.ScaleID,
		Margins:      v.Margins,
	})
	hist.SetData(v.Bars)
	line := surface.AddLineSeries(ExpectedSeriesID, chart.SeriesOptions{
		PriceScaleID: v.ScaleID,
		Margins:      v.Margins,
		Color:        v.ExpectedColor,
	})
	line.SetData(v.Expected)
	d.series = append(d.series, VolumeSeriesID, ExpectedSeriesID)
}

// Clear removes every marker, price line and pane series drawn so far.
func (d *Drawing) Clear(surface chart.Surface, series chart.CandleSeries) {
	for _, id := range d.lines {
		series.RemovePriceLine(id)
	}
	for _, id := range d.series {
		surface.RemoveSeries(id)
	}
	series.SetMarkers([]models.Marker{})
	d.lines = nil
	d.series = nil
}

// LineCount is the number of price lines currently drawn.
func (d *Drawing) LineCount() int { return len(d.lines) }
