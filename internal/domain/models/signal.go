package models

import (
	"encoding/json"
	"strings"
	"time"
)

// Directional signal types emitted by the strategy endpoints.
const (
	SignalBullish = "BULLISH"
	SignalBearish = "BEARISH"
	SignalNeutral = "NEUTRAL"
)

// Strategy identifies which overlay endpoint and renderer a chart uses.
type Strategy string

const (
	StrategyNone           Strategy = "NONE"
	StrategyPopGun         Strategy = "POPGUN"
	StrategyFVG            Strategy = "FVG"
	StrategyRBD            Strategy = "RBD"
	StrategyAura           Strategy = "AURA"
	StrategyVolumeSurprise Strategy = "VOLUME_SURPRISE"
)

// ParseStrategy normalizes a user supplied token. Unknown tokens map to NONE.
func ParseStrategy(s string) Strategy {
	switch st := Strategy(strings.ToUpper(strings.TrimSpace(s))); st {
	case StrategyPopGun, StrategyFVG, StrategyRBD, StrategyAura, StrategyVolumeSurprise:
		return st
	default:
		return StrategyNone
	}
}

// Slug returns the path segment of /api/strategy/{slug}/{symbol}.
func (s Strategy) Slug() string {
	switch s {
	case StrategyPopGun:
		return "popgun"
	case StrategyFVG:
		return "fvg"
	case StrategyRBD:
		return "rbd"
	case StrategyAura:
		return "aura"
	case StrategyVolumeSurprise:
		return "volume_surprise"
	default:
		return ""
	}
}

// Enabled reports whether the strategy draws overlays at all.
func (s Strategy) Enabled() bool { return s.Slug() != "" }

// Signal is one strategy signal as returned by /api/strategy.
// Metadata is kept raw; its shape depends on the producing strategy.
type Signal struct {
	Name      string          `json:"name"`
	Timestamp time.Time       `json:"timestamp"`
	Type      string          `json:"type"`
	Price     float64         `json:"price"`
	Metadata  json.RawMessage `json:"metadata,omitempty"`
}

// Unix returns the signal time in chart seconds.
func (s Signal) Unix() int64 { return s.Timestamp.Unix() }

// TargetLevels is one side of a PopGun target ladder.
type TargetLevels struct {
	Entry *float64 `json:"entry"`
	TP1   *float64 `json:"tp1"`
	TP2   *float64 `json:"tp2"`
	TP3   *float64 `json:"tp3"`
}

// PopGunTargets holds the long and short ladders of a PopGun signal.
type PopGunTargets struct {
	Long  *TargetLevels `json:"long"`
	Short *TargetLevels `json:"short"`
}

// FVGZone is the gap band of a fair value gap signal.
type FVGZone struct {
	Top    *float64 `json:"fvg_top"`
	Bottom *float64 `json:"fvg_bottom"`
}

// RiskLevels are the stop-loss / take-profit levels of RBD, Aura and
// Volume-Surprise signals.
type RiskLevels struct {
	SL *float64 `json:"sl"`
	TP *float64 `json:"tp"`
}

// PopGunTargets decodes the PopGun metadata variant.
func (s Signal) PopGunTargets() (PopGunTargets, bool) {
	var m struct {
		Targets *PopGunTargets `json:"targets"`
	}
	if !s.decode(&m) || m.Targets == nil {
		return PopGunTargets{}, false
	}
	return *m.Targets, true
}

// FVGZone decodes the FVG metadata variant. Both edges must be present.
func (s Signal) FVGZone() (FVGZone, bool) {
	var z FVGZone
	if !s.decode(&z) || z.Top == nil || z.Bottom == nil {
		return FVGZone{}, false
	}
	return z, true
}

// RiskLevels decodes the sl/tp metadata variant. Either level may be absent.
func (s Signal) RiskLevels() (RiskLevels, bool) {
	var r RiskLevels
	if !s.decode(&r) {
		return RiskLevels{}, false
	}
	return r, true
}

// VolumeRatio decodes volume_ratio from Volume-Surprise metadata.
func (s Signal) VolumeRatio() (float64, bool) {
	var m struct {
		VolumeRatio *float64 `json:"volume_ratio"`
	}
	if !s.decode(&m) || m.VolumeRatio == nil {
		return 0, false
	}
	return *m.VolumeRatio, true
}

func (s Signal) decode(dest interface{}) bool {
	if len(s.Metadata) == 0 || string(s.Metadata) == "null" {
		return false
	}
	return json.Unmarshal(s.Metadata, dest) == nil
}

// SurpriseMultiple is the volume/expected ratio above which a bar is a surprise.
const SurpriseMultiple = 2.0

// VolumePoint is one row of /api/indicator/volume_surprise.
type VolumePoint struct {
	Time           int64   `json:"time"`
	Volume         float64 `json:"volume"`
	ExpectedVolume float64 `json:"expected_volume"`
	IsBullish      bool    `json:"is_bullish"`
}

// IsSurprise reports volume > 2 x expected volume.
func (p VolumePoint) IsSurprise() bool {
	return p.Volume > SurpriseMultiple*p.ExpectedVolume
}
