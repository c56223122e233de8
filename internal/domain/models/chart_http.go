package models

import "strings"

// Requests for chart HTTP endpoints. Defined in domain for consistency and reuse.

// Interval, source and period are passed to the market API verbatim, so they
// are only checked to be plain tokens.
type SessionRequest struct {
	Symbol   string `query:"symbol" json:"symbol" validate:"required,max=32"`
	Interval string `query:"interval" json:"interval" default:"1d" validate:"required,token"`
	Source   string `query:"source" json:"source" default:"YAHOO" validate:"required,token"`
	Strategy string `query:"strategy" json:"strategy" default:"NONE"`
	Period   string `query:"period" json:"period" default:"1y" validate:"required,token"`
}

// Identity converts the request into a session identity.
func (r *SessionRequest) Identity() Identity {
	return Identity{
		Symbol:   strings.TrimSpace(r.Symbol),
		Interval: r.Interval,
		Source:   r.Source,
		Strategy: ParseStrategy(r.Strategy),
		Period:   r.Period,
	}
}

// TooltipRequest.Time is a pointer so an omitted time is told apart from 0.
type TooltipRequest struct {
	Time *float64 `query:"time" json:"time" validate:"required,gte=0"`
}

type ResizeRequest struct {
	Width int `query:"width" json:"width" validate:"gt=0,lte=16384"`
}
