package rate

import "github.com/shopspring/decimal"

// Ticker is a primary price index snapshot. Missing or non-positive fields are treated as absent.
type Ticker struct {
	Last   decimal.NullDecimal `json:"last"`
	Bid    decimal.NullDecimal `json:"bid"`
	Ask    decimal.NullDecimal `json:"ask"`
	Avg24h decimal.NullDecimal `json:"24h_avg"`
}

func present(v decimal.NullDecimal) bool {
	return v.Valid && v.Decimal.IsPositive()
}

// Realtime is the last trade price.
func (t Ticker) Realtime() (decimal.Decimal, bool) {
	if !present(t.Last) {
		return decimal.Decimal{}, false
	}
	return t.Last.Decimal, true
}

// VWAP is the 24h average, else the mean of last, ask and bid, else last.
func (t Ticker) VWAP() (decimal.Decimal, bool) {
	if present(t.Avg24h) {
		return t.Avg24h.Decimal, true
	}
	if present(t.Last) && present(t.Ask) && present(t.Bid) {
		return decimal.Avg(t.Last.Decimal, t.Ask.Decimal, t.Bid.Decimal), true
	}
	return t.Realtime()
}

// Select returns the price for mode. Best rate is the lower of VWAP and last.
func (t Ticker) Select(mode Mode) (decimal.Decimal, bool) {
	switch mode {
	case ModeRealtime:
		return t.Realtime()
	case ModeVWAP:
		return t.VWAP()
	default:
		vwap, okV := t.VWAP()
		last, okL := t.Realtime()
		switch {
		case okV && okL:
			return decimal.Min(vwap, last), true
		case okV:
			return vwap, true
		default:
			return last, okL
		}
	}
}
