// Package quality rescales dBm readings to a 0-100 quality score for display.
package quality

import "wifisurvey/internal/modules/survey/types"

// Reference points in dBm.
const (
	SignalFloor = -90.0
	SignalPeak  = -30.0

	// Interference is inverted: a quiet channel scores 100.
	InterferenceQuiet = -95.0
	InterferenceLoud  = -20.0
)

// Normalize maps dbm linearly so that zeroAt scores 0 and fullAt scores 100,
// clamping outside that range. zeroAt may be greater than fullAt for scales
// where a lower reading is better.
func Normalize(dbm, zeroAt, fullAt float64) float64 {
	if zeroAt == fullAt {
		if dbm >= fullAt {
			return 100
		}
		return 0
	}
	q := (dbm - zeroAt) / (fullAt - zeroAt) * 100
	switch {
	case q < 0:
		return 0
	case q > 100:
		return 100
	default:
		return q
	}
}

// SignalQuality scores a received signal strength: -90 dBm or weaker is 0,
// -30 dBm or stronger is 100.
func SignalQuality(dbm float64) float64 {
	return Normalize(dbm, SignalFloor, SignalPeak)
}

// InterferenceQuality scores interference power: -95 dBm or quieter is 100,
// -20 dBm or louder is 0.
func InterferenceQuality(dbm float64) float64 {
	return Normalize(dbm, InterferenceLoud, InterferenceQuiet)
}

// Reading keeps the raw dBm value next to its score.
type Reading struct {
	DBm     float64 `json:"dbm"`
	Quality float64 `json:"quality"`
}

// LocationQuality is one dashboard row with normalized signal and
// interference scores. Speeds are passed through in Mbps.
type LocationQuality struct {
	LocationName string  `json:"locationName"`
	Signal24     Reading `json:"signal_2_4"`
	Signal5      Reading `json:"signal_5"`
	Interference Reading `json:"interference"`
	Speed24      float64 `json:"speed_2_4"`
	Speed5       float64 `json:"speed_5"`
}

// FromAverages normalizes aggregated rows, preserving their order.
func FromAverages(rows []types.LocationAverages) []LocationQuality {
	out := make([]LocationQuality, 0, len(rows))
	for _, r := range rows {
		out = append(out, LocationQuality{
			LocationName: r.LocationName,
			Signal24:     Reading{DBm: r.AvgSignal24, Quality: SignalQuality(r.AvgSignal24)},
			Signal5:      Reading{DBm: r.AvgSignal5, Quality: SignalQuality(r.AvgSignal5)},
			Interference: Reading{DBm: r.AvgInterference, Quality: InterferenceQuality(r.AvgInterference)},
			Speed24:      r.AvgSpeed24,
			Speed5:       r.AvgSpeed5,
		})
	}
	return out
}
