package eodhd

import "time"

// IntradayData represents a single intraday bar.
// Price fields are pointers because the API reports gaps as null.
type IntradayData struct {
	Time      time.Time `json:"-"`
	Timestamp int64     `json:"timestamp"`
	GMTOffset int       `json:"gmtoffset"`
	Datetime  string    `json:"datetime"`
	Open      *float64  `json:"open"`
	High      *float64  `json:"high"`
	Low       *float64  `json:"low"`
	Close     *float64  `json:"close"`
	Volume    *float64  `json:"volume"`
}

// IntradayResponse is a slice of IntradayData.
type IntradayResponse []IntradayData

// Closes returns the close series with matching timestamps.
func (r IntradayResponse) Closes() ([]time.Time, []float64) {
	times := make([]time.Time, 0, len(r))
	closes := make([]float64, 0, len(r))
	for _, bar := range r {
		if bar.Close == nil {
			continue
		}
		times = append(times, bar.Time)
		closes = append(closes, *bar.Close)
	}
	return times, closes
}
