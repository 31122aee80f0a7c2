package weather

import (
	"strconv"
	"time"
)

// Table sentinels for cities without usable data.
const (
	NoData       = "No data"
	ErrorMessage = "Error"
)

// Headers are the column titles of a weather table.
var Headers = []string{"City", "Temperature (C)", "Humidity (%)", "Description"}

// Location is a provider-specific place identifier resolved from a city name.
type Location struct {
	Key     string `json:"key"`
	Name    string `json:"name"`
	Country string `json:"country,omitempty"`
}

// Conditions are the current weather conditions at a location.
type Conditions struct {
	TemperatureC float64   `json:"temperature_c"`
	HumidityPct  int       `json:"humidity_pct"`
	Description  string    `json:"description"`
	ObservedAt   time.Time `json:"observed_at,omitempty"`
}

// ReportStatus says whether a report carries conditions.
type ReportStatus int

const (
	StatusOK     ReportStatus = iota // Conditions resolved
	StatusNoData                     // City or conditions unknown to the provider
	StatusError                      // Transport or HTTP failure
)

func (s ReportStatus) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusNoData:
		return "no_data"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// ParseReportStatus is the inverse of ReportStatus.String.
func ParseReportStatus(s string) ReportStatus {
	switch s {
	case "ok":
		return StatusOK
	case "no_data":
		return StatusNoData
	default:
		return StatusError
	}
}

// Report is the outcome of resolving one city.
type Report struct {
	City       string
	Conditions Conditions
	Status     ReportStatus
	Err        error
	FetchedAt  time.Time
}

// Row returns the report as (city, temperature, humidity, description).
// Reports without conditions carry the matching sentinel in every value column.
func (r Report) Row() []string {
	switch r.Status {
	case StatusOK:
		return []string{
			r.City,
			strconv.FormatFloat(r.Conditions.TemperatureC, 'f', -1, 64),
			strconv.Itoa(r.Conditions.HumidityPct),
			r.Conditions.Description,
		}
	case StatusNoData:
		return []string{r.City, NoData, NoData, NoData}
	default:
		return []string{r.City, ErrorMessage, ErrorMessage, ErrorMessage}
	}
}
