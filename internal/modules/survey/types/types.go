package types

import "time"

type Client struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Address string `json:"address"`
	Contact string `json:"contact,omitempty"`
}

type Location struct {
	ID       int64  `json:"id"`
	ClientID int64  `json:"clientId"`
	Name     string `json:"name"`
}

// LocationWithClient is a location joined with the name of its owning client.
type LocationWithClient struct {
	Location
	ClientName string `json:"clientName"`
}

// Metrics are the five values recorded per measurement. Signal and
// interference are in dBm, speeds in Mbps.
type Metrics struct {
	Signal24     int     `json:"signal_2_4ghz"`
	Signal5      int     `json:"signal_5ghz"`
	Speed24      float64 `json:"speed_2_4ghz"`
	Speed5       float64 `json:"speed_5ghz"`
	Interference int     `json:"interference"`
}

type Measurement struct {
	ID         int64 `json:"id"`
	LocationID int64 `json:"locationId"`
	Metrics
	Timestamp time.Time `json:"timestamp"`
	// FormattedTimestamp is the store-rendered dd/mm/YYYY HH:MM display string.
	FormattedTimestamp string `json:"formattedTimestamp"`
}

// LocationAverages is one row of the dashboard aggregation: the unweighted
// mean of every metric across all measurements taken at a location.
type LocationAverages struct {
	LocationName    string  `json:"locationName"`
	AvgSignal24     float64 `json:"avg_signal_2_4"`
	AvgSignal5      float64 `json:"avg_signal_5"`
	AvgSpeed24      float64 `json:"avg_speed_2_4"`
	AvgSpeed5       float64 `json:"avg_speed_5"`
	AvgInterference float64 `json:"avg_interference"`
}

// Telemetry is a measurement published by a survey probe over MQTT.
type Telemetry struct {
	LocationID   int64     `json:"location_id"`
	Timestamp    time.Time `json:"timestamp"`
	Signal24     *int      `json:"signal_2_4ghz"`
	Signal5      *int      `json:"signal_5ghz"`
	Speed24      *float64  `json:"speed_2_4ghz"`
	Speed5       *float64  `json:"speed_5ghz"`
	Interference *int      `json:"interference"`
}
