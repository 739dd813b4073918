package geoip

import "sync"

// DemoEntry is a pre-seeded IP with a fixed location, used for deterministic
// demos and tests without network calls.
type DemoEntry struct {
	IP       string
	Location Location
}

// DemoEntries are the known demo addresses. Lookups for these IPs short-circuit
// the external geolocation service.
var DemoEntries = []DemoEntry{
	{
		IP: "195.154.122.113",
		Location: Location{
			City:      "Paris",
			Region:    "Île-de-France",
			Country:   "France",
			Latitude:  ptr(48.8566),
			Longitude: ptr(2.3522),
		},
	},
	{
		IP: "81.2.69.142",
		Location: Location{
			City:      "London",
			Region:    "England",
			Country:   "United Kingdom",
			Latitude:  ptr(51.5074),
			Longitude: ptr(-0.1278),
		},
	},
	{
		IP: "90.119.169.42",
		Location: Location{
			City:      "Bordeaux",
			Region:    "Nouvelle-Aquitaine",
			Country:   "France",
			Latitude:  ptr(44.8378),
			Longitude: ptr(-0.5792),
		},
	},
	{
		IP: "87.98.154.146",
		Location: Location{
			City:      "Lyon",
			Region:    "Auvergne-Rhône-Alpes",
			Country:   "France",
			Latitude:  ptr(45.7640),
			Longitude: ptr(4.8357),
		},
	},
}

func ptr(f float64) *float64 {
	return &f
}

// lookupDemo returns the fixed location for a demo IP, if seeded
func lookupDemo(ip string) (Location, bool) {
	for _, e := range DemoEntries {
		if e.IP == ip {
			return e.Location, true
		}
	}
	return Location{}, false
}

// Rotation hands out demo IPs round-robin. It replaces ad-hoc global counters
// with an object whose reset semantics are explicit: after Reset the next call
// returns the first demo IP again.
type Rotation struct {
	mu   sync.Mutex
	next int
}

// NewRotation creates a rotation positioned at the first demo IP
func NewRotation() *Rotation {
	return &Rotation{}
}

// NextIP returns the next demo IP in round-robin order
func (r *Rotation) NextIP() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	ip := DemoEntries[r.next%len(DemoEntries)].IP
	r.next++
	return ip
}

// Reset rewinds the rotation to the first demo IP
func (r *Rotation) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.next = 0
}
