// Package models defines the core data structures shared by the API,
// the dataset accessor and the chat router.
package models

// Bar is a single daily price bar for an index.
type Bar struct {
	Index    string   `json:"index"`
	Date     string   `json:"date"` // YYYY-MM-DD
	Open     float64  `json:"open"`
	High     float64  `json:"high"`
	Low      float64  `json:"low"`
	Close    float64  `json:"close"`
	AdjClose float64  `json:"adj_close"`
	Volume   float64  `json:"volume"`
	CloseUSD *float64 `json:"close_usd,omitempty"` // processed bars only
}

// HasUSD reports whether the bar carries a USD-converted close.
func (b Bar) HasUSD() bool {
	return b.CloseUSD != nil
}
