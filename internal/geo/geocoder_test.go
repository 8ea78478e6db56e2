package geo

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithDefaultRegion(t *testing.T) {
	assert.Equal(t, "Griffith Park, Los Angeles, CA", WithDefaultRegion("Griffith Park", "Los Angeles, CA"))
	assert.Equal(t, "123 Main St, Pasadena", WithDefaultRegion("123 Main St, Pasadena", "Los Angeles, CA"))
	assert.Equal(t, "Griffith Park", WithDefaultRegion(" Griffith Park ", ""))
}

func TestGoogleGeocoder_OK(t *testing.T) {
	var gotAddress string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAddress = r.URL.Query().Get("address")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"OK","results":[{"formatted_address":"Griffith Park, Los Angeles, CA 90027, USA","geometry":{"location":{"lat":34.1365,"lng":-118.2942}}}]}`))
	}))
	defer srv.Close()

	g := NewGoogleGeocoder(srv.URL, "key", "Los Angeles, CA", time.Second)
	res, err := g.Geocode(context.Background(), "Griffith Park")
	require.NoError(t, err)
	assert.Equal(t, "Griffith Park, Los Angeles, CA", gotAddress)
	assert.Equal(t, "Griffith Park, Los Angeles, CA 90027, USA", res.FormattedAddress)
	assert.InDelta(t, 34.1365, res.Location.Lat, 1e-9)
	assert.InDelta(t, -118.2942, res.Location.Lng, 1e-9)
}

func TestGoogleGeocoder_ZeroResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"ZERO_RESULTS","results":[]}`))
	}))
	defer srv.Close()

	g := NewGoogleGeocoder(srv.URL, "key", "", time.Second)
	_, err := g.Geocode(context.Background(), "nowhere at all")
	assert.ErrorIs(t, err, ErrNoResult)
}

func TestGoogleGeocoder_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	g := NewGoogleGeocoder(srv.URL, "key", "", time.Second)
	_, err := g.Geocode(context.Background(), "somewhere")
	assert.Error(t, err)
}

type countingGeocoder struct {
	calls  int
	result *Result
	err    error
}

func (c *countingGeocoder) Geocode(ctx context.Context, address string) (*Result, error) {
	c.calls++
	return c.result, c.err
}

func TestCachedGeocoder_CachesSuccess(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer func() { _ = rdb.Close() }()

	inner := &countingGeocoder{result: &Result{FormattedAddress: "Court 1", Location: Coordinates{Lat: 1, Lng: 2}}}
	g := NewCachedGeocoder(inner, rdb, time.Hour)

	for i := 0; i < 3; i++ {
		res, err := g.Geocode(context.Background(), "Court  1")
		require.NoError(t, err)
		assert.Equal(t, "Court 1", res.FormattedAddress)
	}
	assert.Equal(t, 1, inner.calls)
	assert.True(t, mr.Exists(CacheKey("court 1")))
}

func TestCachedGeocoder_DoesNotCacheFailure(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer func() { _ = rdb.Close() }()

	inner := &countingGeocoder{err: errors.New("unreachable")}
	g := NewCachedGeocoder(inner, rdb, time.Hour)

	_, err = g.Geocode(context.Background(), "somewhere")
	assert.Error(t, err)
	_, err = g.Geocode(context.Background(), "somewhere")
	assert.Error(t, err)
	assert.Equal(t, 2, inner.calls)
}

func TestCachedGeocoder_NilClient(t *testing.T) {
	inner := &countingGeocoder{result: &Result{FormattedAddress: "x"}}
	g := NewCachedGeocoder(inner, nil, time.Hour)
	_, err := g.Geocode(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, 1, inner.calls)
}
