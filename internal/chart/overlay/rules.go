package overlay

import (
	"fmt"
	"strconv"

	"LiveChart/internal/domain/models"
)

func (r MarkerRule) marker(sig models.Signal) models.Marker {
	st := r.pick(sig.Type)
	if r.Label != nil {
		if text, ok := r.Label(sig); ok {
			st.Text = text
		}
	}
	return models.Marker{
		Time:     sig.Unix(),
		Position: st.Position,
		Color:    st.Color,
		Shape:    st.Shape,
		Text:     st.Text,
	}
}

func (r MarkerRule) pick(signalType string) MarkerStyle {
	if r.Fixed != nil {
		return *r.Fixed
	}
	switch signalType {
	case models.SignalBullish:
		return r.Bullish
	case models.SignalBearish:
		return r.Bearish
	default:
		return r.Neutral
	}
}

func ratioLabel(sig models.Signal) (string, bool) {
	ratio, ok := sig.VolumeRatio()
	if !ok {
		return "", false
	}
	return "x" + strconv.FormatFloat(ratio, 'f', -1, 64), true
}

type ladderPalette struct {
	LongEntry  string
	LongTP     string
	ShortEntry string
	ShortTP    string
}

// popGunLines draws the dashed target ladder of the most recent signal.
func popGunLines(signals []models.Signal, p ladderPalette) []models.PriceLine {
	if len(signals) == 0 {
		return nil
	}
	targets, ok := signals[len(signals)-1].PopGunTargets()
	if !ok {
		return nil
	}

	var lines []models.PriceLine
	add := func(price *float64, color, title string) {
		if price == nil {
			return
		}
		lines = append(lines, models.PriceLine{
			Price:            *price,
			Color:            color,
			LineWidth:        1,
			LineStyle:        models.LineDashed,
			AxisLabelVisible: true,
			Title:            title,
		})
	}
	if l := targets.Long; l != nil {
		add(l.Entry, p.LongEntry, "Long Entry")
		add(l.TP1, p.LongTP, "L TP1")
		add(l.TP2, p.LongTP, "L TP2")
		add(l.TP3, p.LongTP, "L TP3")
	}
	if s := targets.Short; s != nil {
		add(s.Entry, p.ShortEntry, "Short Entry")
		add(s.TP1, p.ShortTP, "S TP1")
		add(s.TP2, p.ShortTP, "S TP2")
		add(s.TP3, p.ShortTP, "S TP3")
	}
	return lines
}

// fvgBands draws top/bottom lines for the last n signals. The newest band
// is opaque, older ones are faded.
func fvgBands(signals []models.Signal, rgb string, n int) []models.PriceLine {
	recent := signals
	if len(recent) > n {
		recent = recent[len(recent)-n:]
	}

	var lines []models.PriceLine
	for idx, sig := range recent {
		zone, ok := sig.FVGZone()
		if !ok {
			continue
		}
		opacity := 0.5
		if idx == len(recent)-1 {
			opacity = 1
		}
		color := fmt.Sprintf("rgba(%s, %g)", rgb, opacity)
		lines = append(lines,
			solidLine(*zone.Top, color, fmt.Sprintf("FVG Top %d", idx+1)),
			solidLine(*zone.Bottom, color, fmt.Sprintf("FVG Bot %d", idx+1)),
		)
	}
	return lines
}

// riskLines draws SL, TP and entry of the most recent signal. Missing or
// zero levels are skipped.
func riskLines(signals []models.Signal, p RiskPalette) []models.PriceLine {
	if len(signals) == 0 {
		return nil
	}
	last := signals[len(signals)-1]

	var lines []models.PriceLine
	if lv, ok := last.RiskLevels(); ok {
		if lv.SL != nil && *lv.SL != 0 {
			lines = append(lines, solidLine(*lv.SL, p.SL, "SL"))
		}
		if lv.TP != nil && *lv.TP != 0 {
			lines = append(lines, solidLine(*lv.TP, p.TP, "TP"))
		}
	}
	if last.Price != 0 {
		lines = append(lines, solidLine(last.Price, p.Entry, "Entry"))
	}
	return lines
}

func solidLine(price float64, color, title string) models.PriceLine {
	return models.PriceLine{
		Price:            price,
		Color:            color,
		LineWidth:        1,
		LineStyle:        models.LineSolid,
		AxisLabelVisible: true,
		Title:            title,
	}
}

// pane colors each volume bar by surprise and direction and plots the
// expected volume as a line.
func (v *VolumeStyle) pane(points []models.VolumePoint) *VolumePane {
	p := &VolumePane{
		ScaleID:       v.ScaleID,
		Margins:       v.Margins,
		Bars:          make([]models.HistogramBar, 0, len(points)),
		Expected:      make([]models.LinePoint, 0, len(points)),
		ExpectedColor: v.ExpectedColor,
	}
	for _, pt := range points {
		p.Bars = append(p.Bars, models.HistogramBar{Time: pt.Time, Value: pt.Volume, Color: v.barColor(pt)})
		p.Expected = append(p.Expected, models.LinePoint{Time: pt.Time, Value: pt.ExpectedVolume})
	}
	return p
}

func (v *VolumeStyle) barColor(pt models.VolumePoint) string {
	switch {
	case pt.IsSurprise() && pt.IsBullish:
		return v.SurpriseUp
	case pt.IsSurprise():
		return v.SurpriseDown
	case pt.IsBullish:
		return v.NormalUp
	default:
		return v.NormalDown
	}
}
