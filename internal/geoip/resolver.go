package geoip

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"
)

// Status classifies the outcome of a lookup so callers can tell "no location"
// apart from "lookup failed".
type Status int

const (
	// StatusResolved means the location came from the demo table or the
	// external service.
	StatusResolved Status = iota
	// StatusLocal means the IP was a loopback/local address.
	StatusLocal
	// StatusUnavailable means the external lookup failed; the location
	// fields carry no information.
	StatusUnavailable
)

// Location is a resolved geographic position. Missing fields are empty
// strings / nil coordinates.
type Location struct {
	City      string   `json:"city"`
	Region    string   `json:"region"`
	Country   string   `json:"country"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

// Resolution is the result of resolving one IP. Raw holds the provider
// response body when the external service was consulted.
type Resolution struct {
	Location
	Status Status
	Raw    []byte
}

// Resolved reports whether the resolution carries usable location data
func (r Resolution) Resolved() bool {
	return r.Status != StatusUnavailable
}

// Unknown is the degraded placeholder recorded when a lookup is unavailable
func Unknown() Location {
	return Location{City: "Unknown", Region: "Unknown", Country: "Unknown"}
}

// localPlaceholder is recorded for loopback addresses
func localPlaceholder() Location {
	zero := 0.0
	return Location{City: "Local", Region: "Local", Country: "Local", Latitude: &zero, Longitude: &zero}
}

// ForRecord renders the resolution for persistence: unavailable lookups
// degrade to the Unknown tuple rather than surfacing an error.
func (r Resolution) ForRecord() Location {
	if r.Status == StatusUnavailable {
		return Unknown()
	}
	return r.Location
}

// Resolver maps IP addresses to locations. Demo addresses and loopback are
// answered locally; everything else goes to the external geolocation service
// with a bounded timeout. Each call is independent: no retry, no caching.
type Resolver struct {
	baseURL string
	client  *http.Client
}

// NewResolver creates a resolver against the given geolocation service base
// URL (e.g. https://ipapi.co)
func NewResolver(baseURL string, timeout time.Duration) *Resolver {
	return &Resolver{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// apiResponse mirrors the fields of the geolocation service response we use
type apiResponse struct {
	City      string   `json:"city"`
	Region    string   `json:"region"`
	Country   string   `json:"country_name"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

// Resolve maps an IP address to a location. It never returns an error:
// failures of the external service yield StatusUnavailable.
func (r *Resolver) Resolve(ctx context.Context, ipAddress string) Resolution {
	if loc, ok := lookupDemo(ipAddress); ok {
		return Resolution{Location: loc, Status: StatusResolved}
	}

	if isLocal(ipAddress) {
		return Resolution{Location: localPlaceholder(), Status: StatusLocal}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/%s/json/", r.baseURL, ipAddress), nil)
	if err != nil {
		log.Printf("geoip: building lookup request for %s: %v", ipAddress, err)
		return Resolution{Status: StatusUnavailable}
	}

	resp, err := r.client.Do(req)
	if err != nil {
		log.Printf("geoip: lookup for %s failed: %v", ipAddress, err)
		return Resolution{Status: StatusUnavailable}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Printf("geoip: lookup for %s returned status %d", ipAddress, resp.StatusCode)
		return Resolution{Status: StatusUnavailable}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Printf("geoip: reading lookup response for %s: %v", ipAddress, err)
		return Resolution{Status: StatusUnavailable}
	}

	var data apiResponse
	if err := json.Unmarshal(body, &data); err != nil {
		log.Printf("geoip: decoding lookup response for %s: %v", ipAddress, err)
		return Resolution{Status: StatusUnavailable}
	}

	return Resolution{
		Location: Location{
			City:      data.City,
			Region:    data.Region,
			Country:   data.Country,
			Latitude:  data.Latitude,
			Longitude: data.Longitude,
		},
		Status: StatusResolved,
		Raw:    body,
	}
}

// isLocal reports whether the address is a loopback/local literal
func isLocal(ip string) bool {
	switch ip {
	case "127.0.0.1", "::1", "localhost":
		return true
	}
	return false
}

// ClientIP extracts the originating client IP: the first entry of
// X-Forwarded-For when present, else the remote address.
func ClientIP(forwardedFor, remoteAddr string) string {
	if forwardedFor != "" {
		if i := strings.Index(forwardedFor, ","); i >= 0 {
			return strings.TrimSpace(forwardedFor[:i])
		}
		return strings.TrimSpace(forwardedFor)
	}
	return remoteAddr
}
