package geoip

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveDemoIP(t *testing.T) {
	// Unreachable base URL proves demo addresses never touch the network
	r := NewResolver("http://127.0.0.1:1", time.Second)

	res := r.Resolve(context.Background(), "195.154.122.113")
	assert.Equal(t, StatusResolved, res.Status)
	assert.Equal(t, "Paris", res.City)
	assert.Equal(t, "France", res.Country)
	require.NotNil(t, res.Latitude)
	assert.InDelta(t, 48.8566, *res.Latitude, 0.001)
}

func TestResolveLoopback(t *testing.T) {
	r := NewResolver("http://127.0.0.1:1", time.Second)

	for _, ip := range []string{"127.0.0.1", "::1", "localhost"} {
		res := r.Resolve(context.Background(), ip)
		assert.Equal(t, StatusLocal, res.Status, ip)
		assert.Equal(t, "Local", res.City, ip)
		assert.True(t, res.Resolved(), ip)
	}
}

func TestResolveExternal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		assert.Equal(t, "/8.8.8.8/json/", req.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"city":"Mountain View","region":"California","country_name":"United States","latitude":37.4056,"longitude":-122.0775}`))
	}))
	defer srv.Close()

	r := NewResolver(srv.URL, time.Second)
	res := r.Resolve(context.Background(), "8.8.8.8")

	assert.Equal(t, StatusResolved, res.Status)
	assert.Equal(t, "Mountain View", res.City)
	assert.Equal(t, "United States", res.Country)
	assert.NotEmpty(t, res.Raw, "raw provider payload should be retained")
}

func TestResolveFailureDegradesToUnavailable(t *testing.T) {
	t.Run("unreachable service", func(t *testing.T) {
		r := NewResolver("http://127.0.0.1:1", 100*time.Millisecond)
		res := r.Resolve(context.Background(), "8.8.8.8")
		assert.Equal(t, StatusUnavailable, res.Status)
		assert.False(t, res.Resolved())
	})

	t.Run("non-200 response", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		}))
		defer srv.Close()

		r := NewResolver(srv.URL, time.Second)
		res := r.Resolve(context.Background(), "8.8.8.8")
		assert.Equal(t, StatusUnavailable, res.Status)
	})

	t.Run("malformed body", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("not json"))
		}))
		defer srv.Close()

		r := NewResolver(srv.URL, time.Second)
		res := r.Resolve(context.Background(), "8.8.8.8")
		assert.Equal(t, StatusUnavailable, res.Status)
	})
}

func TestForRecordUnavailableYieldsUnknown(t *testing.T) {
	res := Resolution{Status: StatusUnavailable}
	loc := res.ForRecord()
	assert.Equal(t, "Unknown", loc.City)
	assert.Equal(t, "Unknown", loc.Region)
	assert.Equal(t, "Unknown", loc.Country)
	assert.Nil(t, loc.Latitude)
	assert.Nil(t, loc.Longitude)
}

func TestClientIP(t *testing.T) {
	assert.Equal(t, "1.2.3.4", ClientIP("1.2.3.4", "9.9.9.9"))
	assert.Equal(t, "1.2.3.4", ClientIP("1.2.3.4, 10.0.0.1, 10.0.0.2", "9.9.9.9"))
	assert.Equal(t, "1.2.3.4", ClientIP(" 1.2.3.4 ", "9.9.9.9"))
	assert.Equal(t, "9.9.9.9", ClientIP("", "9.9.9.9"))
}

func TestRotationRoundRobin(t *testing.T) {
	r := NewRotation()

	var first []string
	for range DemoEntries {
		first = append(first, r.NextIP())
	}

	// Full cycle visits each demo IP exactly once
	seen := map[string]bool{}
	for _, ip := range first {
		assert.False(t, seen[ip], "IP %s repeated within one cycle", ip)
		seen[ip] = true
		_, ok := lookupDemo(ip)
		assert.True(t, ok, "rotation returned non-demo IP %s", ip)
	}

	// Next cycle starts over in the same order
	assert.Equal(t, first[0], r.NextIP())

	r.Reset()
	assert.Equal(t, first[0], r.NextIP())
}
