package types

import (
	"strings"
	"time"
)

const (
	CommsTypeCellular = "cellular"
	CommsTypeRadio    = "radio"
	CommsTypeEthernet = "ethernet"
	CommsTypeOther    = "other"
)

func KnownCommsType(s string) bool {
	switch s {
	case CommsTypeCellular, CommsTypeRadio, CommsTypeEthernet, CommsTypeOther:
		return true
	}
	return false
}

// Station is the canonical lift station shape used throughout the module,
// independent of which backend field-naming variant produced it.
type Station struct {
	ID   string `json:"id"`
	Code string `json:"code"`
	Name string `json:"name"`

	AddressLine1 *string `json:"addressLine1,omitempty"`
	City         *string `json:"city,omitempty"`
	State        *string `json:"state,omitempty"`
	Zip          *string `json:"zip,omitempty"`

	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`

	CommsType      *string  `json:"commsType,omitempty"`
	PumpsCount     *int     `json:"pumpsCount,omitempty"`
	WetWellDepthFt *float64 `json:"wetWellDepthFt,omitempty"`
	ServiceArea    *string  `json:"serviceArea,omitempty"`
	Notes          *string  `json:"notes,omitempty"`

	MapLinks
}

// MapLinks are the navigation deep links for a station, either supplied by
// the server or derived from name and coordinates.
type MapLinks struct {
	GoogleMaps          *string `json:"googleMaps,omitempty"`
	GoogleDirections    *string `json:"googleDirections,omitempty"`
	AppleMapsPin        *string `json:"appleMapsPin,omitempty"`
	AppleMapsDirections *string `json:"appleMapsDirections,omitempty"`
	AndroidGeoURI       *string `json:"androidGeoUri,omitempty"`
}

type StationSummary struct {
	ID         string   `json:"id"`
	Code       string   `json:"code"`
	Name       string   `json:"name"`
	CommsType  *string  `json:"commsType,omitempty"`
	PumpsCount *int     `json:"pumpsCount,omitempty"`
	Latitude   *float64 `json:"latitude,omitempty"`
	Longitude  *float64 `json:"longitude,omitempty"`
	Address    *string  `json:"address,omitempty"`
}

type Alarm struct {
	ID          string  `json:"id"`
	StationID   *string `json:"stationId,omitempty"`
	StationCode *string `json:"stationCode,omitempty"`
	StationName *string `json:"stationName,omitempty"`

	Severity string    `json:"severity"`
	Message  string    `json:"message"`
	RaisedAt time.Time `json:"raisedAt"`

	AcknowledgedAt *time.Time `json:"acknowledgedAt,omitempty"`
	AcknowledgedBy *string    `json:"acknowledgedBy,omitempty"`
}

func (a Alarm) Acknowledged() bool {
	return a.AcknowledgedAt != nil
}

// SeverityRank orders severities for display, highest urgency first.
// Unknown severities sort last.
func SeverityRank(severity string) int {
	switch strings.ToLower(severity) {
	case "critical", "high", "hh", "urgent":
		return 0
	case "warning", "medium", "moderate":
		return 1
	case "info", "low", "notice":
		return 2
	}
	return 3
}

type Plant struct {
	ID      string   `json:"id" yaml:"id"`
	Name    string   `json:"name" yaml:"name"`
	Devices []Device `json:"devices" yaml:"devices"`
}

// Device identity is its human-meaningful tag, unique within the owning
// plant. It never changes across create/update.
type Device struct {
	ID     string `json:"id" yaml:"id"`
	Name   string `json:"name" yaml:"name"`
	Type   string `json:"type" yaml:"type"`
	System string `json:"system" yaml:"system"`

	Area Area      `json:"area" yaml:"area"`
	Loc  Location  `json:"loc" yaml:"loc"`
	Scan *ScanInfo `json:"scan,omitempty" yaml:"scan,omitempty"`

	Tags []string `json:"tags" yaml:"tags"`
	Docs []Doc    `json:"docs" yaml:"docs"`
}

type Area struct {
	ID    string `json:"id" yaml:"id"`
	Name  string `json:"name" yaml:"name"`
	Level string `json:"level" yaml:"level"`
}

type Location struct {
	Panel   string `json:"panel" yaml:"panel"`
	Bucket  string `json:"bucket" yaml:"bucket"`
	Aisle   string `json:"aisle" yaml:"aisle"`
	NavText string `json:"navText" yaml:"navText"`
}

type ScanInfo struct {
	QR string `json:"qr" yaml:"qr"`
}

type Doc struct {
	ID    string `json:"id" yaml:"id"`
	Kind  string `json:"kind" yaml:"kind"`
	Title string `json:"title" yaml:"title"`
}

// Page mirrors the server's page envelope for list endpoints.
type Page[T any] struct {
	Content       []T   `json:"content"`
	TotalPages    int   `json:"totalPages"`
	TotalElements int64 `json:"totalElements"`
	Number        int   `json:"number"`
	Size          int   `json:"size"`
	First         bool  `json:"first"`
	Last          bool  `json:"last"`
}
