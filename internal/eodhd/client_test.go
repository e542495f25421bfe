package eodhd

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetIntraday_QueryAndNullBars(t *testing.T) {
	from := time.Date(2026, 10, 12, 0, 0, 0, 0, time.UTC)
	to := from.Add(5 * 24 * time.Hour)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/intraday/AAPL.US", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "1h", q.Get("interval"))
		assert.Equal(t, "1791763200", q.Get("from"))
		assert.Equal(t, "1792195200", q.Get("to"))
		assert.Equal(t, "demo", q.Get("api_token"))
		assert.Equal(t, "json", q.Get("fmt"))

		w.Write([]byte(`[
			{"timestamp": 1791799200, "gmtoffset": 0, "datetime": "2026-10-12 10:00:00", "open": 1, "high": 2, "low": 0.5, "close": 1.5, "volume": 100},
			{"timestamp": 1791802800, "gmtoffset": 0, "datetime": "2026-10-12 11:00:00", "open": null, "high": null, "low": null, "close": null, "volume": null},
			{"timestamp": 1791806400, "gmtoffset": 0, "datetime": "2026-10-12 12:00:00", "open": 1.5, "high": 2.5, "low": 1.2, "close": 2.2, "volume": 80}
		]`))
	}))
	defer srv.Close()

	client := NewClient("demo", WithBaseURL(srv.URL))
	bars, err := client.GetIntraday(context.Background(), "AAPL.US", WithInterval("1h"), WithDateRange(from, to))
	require.NoError(t, err)
	require.Len(t, bars, 2)

	times, closes := bars.Closes()
	assert.Equal(t, []float64{1.5, 2.2}, closes)
	assert.Equal(t, time.Unix(1791799200, 0).UTC(), times[0])
}

func TestGetIntraday_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte("Ticker Not Found."))
	}))
	defer srv.Close()

	client := NewClient("demo", WithBaseURL(srv.URL))
	_, err := client.GetIntraday(context.Background(), "NOPE.US")

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Contains(t, apiErr.Error(), "Ticker Not Found.")
}
