package overlay

import "LiveChart/internal/domain/models"

// MarkerStyle is how one side of a marker rule looks.
type MarkerStyle struct {
	Position string
	Shape    string
	Color    string
	Text     string
}

// MarkerRule picks a marker per signal. Fixed rules ignore direction.
type MarkerRule struct {
	Fixed   *MarkerStyle
	Bullish MarkerStyle
	Bearish MarkerStyle
	Neutral MarkerStyle
	// Label overrides Text when it returns ok.
	Label func(sig models.Signal) (string, bool)
}

// RiskPalette colors the stop-loss, take-profit and entry lines.
type RiskPalette struct {
	SL    string
	TP    string
	Entry string
}

// VolumeStyle configures the Volume-Surprise pane.
type VolumeStyle struct {
	ScaleID       string
	Margins       models.ScaleMargins
	SurpriseUp    string
	SurpriseDown  string
	NormalUp      string
	NormalDown    string
	ExpectedColor string
}

// Style is the data that distinguishes one strategy overlay from another.
type Style struct {
	Strategy models.Strategy
	Marker   MarkerRule
	Lines    func(signals []models.Signal) []models.PriceLine
	Volume   *VolumeStyle
}

var (
	popGunLadder = ladderPalette{
		LongEntry:  "blue",
		LongTP:     "green",
		ShortEntry: "orange",
		ShortTP:    "red",
	}

	fvgRGB = "0, 188, 212"

	rbdPalette  = RiskPalette{SL: "#ef5350", TP: "#26a69a", Entry: "#2962ff"}
	auraPalette = RiskPalette{SL: "#ff5252", TP: "#00e676", Entry: "#7e57c2"}
	vsPalette   = RiskPalette{SL: "#f44336", TP: "#4caf50", Entry: "#ff9800"}
)

// Styles holds one entry per drawable strategy.
var Styles = []Style{
	{
		Strategy: models.StrategyPopGun,
		Marker: MarkerRule{Fixed: &MarkerStyle{
			Position: models.PositionAboveBar, Shape: models.ShapeArrowDown, Color: "#e91e63", Text: "PG",
		}},
		Lines: func(signals []models.Signal) []models.PriceLine {
			return popGunLines(signals, popGunLadder)
		},
	},
	{
		Strategy: models.StrategyFVG,
		Marker: MarkerRule{Fixed: &MarkerStyle{
			Position: models.PositionBelowBar, Shape: models.ShapeArrowUp, Color: "#00bcd4", Text: "FVG",
		}},
		Lines: func(signals []models.Signal) []models.PriceLine {
			return fvgBands(signals, fvgRGB, 3)
		},
	},
	{
		Strategy: models.StrategyRBD,
		Marker: MarkerRule{
			Bullish: MarkerStyle{Position: models.PositionBelowBar, Shape: models.ShapeArrowUp, Color: "#26a69a", Text: "RBR"},
			Bearish: MarkerStyle{Position: models.PositionAboveBar, Shape: models.ShapeArrowDown, Color: "#ef5350", Text: "DBD"},
			Neutral: MarkerStyle{Position: models.PositionInBar, Shape: models.ShapeCircle, Color: "#9e9e9e", Text: "RBD"},
		},
		Lines: func(signals []models.Signal) []models.PriceLine {
			return riskLines(signals, rbdPalette)
		},
	},
	{
		Strategy: models.StrategyAura,
		Marker: MarkerRule{
			Bullish: MarkerStyle{Position: models.PositionBelowBar, Shape: models.ShapeArrowUp, Color: "#00e676", Text: "AURA ▲"},
			Bearish: MarkerStyle{Position: models.PositionAboveBar, Shape: models.ShapeArrowDown, Color: "#ff4081", Text: "AURA ▼"},
			Neutral: MarkerStyle{Position: models.PositionInBar, Shape: models.ShapeCircle, Color: "#b388ff", Text: "AURA"},
		},
		Lines: func(signals []models.Signal) []models.PriceLine {
			return riskLines(signals, auraPalette)
		},
	},
	{
		Strategy: models.StrategyVolumeSurprise,
		Marker: MarkerRule{
			Bullish: MarkerStyle{Position: models.PositionBelowBar, Shape: models.ShapeArrowUp, Color: "#26a69a", Text: "VS"},
			Bearish: MarkerStyle{Position: models.PositionAboveBar, Shape: models.ShapeArrowDown, Color: "#ef5350", Text: "VS"},
			Neutral: MarkerStyle{Position: models.PositionInBar, Shape: models.ShapeCircle, Color: "#ff9800", Text: "VS"},
			Label:   ratioLabel,
		},
		Lines: func(signals []models.Signal) []models.PriceLine {
			return riskLines(signals, vsPalette)
		},
		Volume: &VolumeStyle{
			ScaleID:       "volume",
			Margins:       models.ScaleMargins{Top: 0.75, Bottom: 0},
			SurpriseUp:    "#26a69a",
			SurpriseDown:  "#ef5350",
			NormalUp:      "rgba(38, 166, 154, 0.35)",
			NormalDown:    "rgba(239, 83, 80, 0.35)",
			ExpectedColor: "#ff9800",
		},
	},
}
