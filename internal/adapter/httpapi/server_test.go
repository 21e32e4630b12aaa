package httpapi

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/floatchat/argo-data-service/internal/config"
	"github.com/floatchat/argo-data-service/internal/domain"
	"github.com/floatchat/argo-data-service/internal/store"
)

type fakeProfileStore struct {
	pingErr  error
	profiles []domain.Profile
	floats   []domain.Float
	stats    store.Stats
	lastQ    store.ProfileQuery
	listErr  error
}

func (f *fakeProfileStore) Ping(ctx context.Context) error { return f.pingErr }

func (f *fakeProfileStore) GetProfile(ctx context.Context, id int64) (domain.Profile, error) {
	for _, p := range f.profiles {
		if p.ID == id {
			return p, nil
		}
	}
	return domain.Profile{}, store.ErrNotFound
}

func (f *fakeProfileStore) ListProfiles(ctx context.Context, q store.ProfileQuery) ([]domain.Profile, error) {
	f.lastQ = q
	return f.profiles, f.listErr
}

func (f *fakeProfileStore) ListFloats(ctx context.Context, platformNumber string, limit int) ([]domain.Float, error) {
	return f.floats, nil
}

func (f *fakeProfileStore) CountStats(ctx context.Context) (store.Stats, error) {
	return f.stats, nil
}

type fakeMeasurements struct {
	rows  []domain.Measurement
	err   error
	calls int
}

func (f *fakeMeasurements) MeasurementsForProfile(ctx context.Context, profileID int64) ([]domain.Measurement, error) {
	f.calls++
	return f.rows, f.err
}

func newTestServer(st *fakeProfileStore, m *fakeMeasurements) *Server {
	cfg := config.Config{HTTPAddr: ":0", CORSOrigins: "*", ShutdownTimeout: time.Second}
	return New(cfg, st, m, slog.Default())
}

func doRequest(t *testing.T, s *Server, method, target string, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	w := httptest.NewRecorder()
	s.Engine().ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	t.Run("ok when storage answers", func(t *testing.T) {
		w := doRequest(t, newTestServer(&fakeProfileStore{}, &fakeMeasurements{}), http.MethodGet, "/api/health", "")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
	})

	t.Run("degraded when storage is unreachable", func(t *testing.T) {
		st := &fakeProfileStore{pingErr: assert.AnError}
		w := doRequest(t, newTestServer(st, &fakeMeasurements{}), http.MethodGet, "/api/health", "")
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})
}

func TestListProfiles(t *testing.T) {
	date := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	region := "indian"
	st := &fakeProfileStore{profiles: []domain.Profile{
		{ID: 1, PlatformNumber: "5900001", CycleNumber: 1, ProfileDate: &date, Latitude: 10, Longitude: 70, OceanRegion: &region},
	}}
	srv := newTestServer(st, &fakeMeasurements{})

	t.Run("defaults cover the globe", func(t *testing.T) {
		w := doRequest(t, srv, http.MethodGet, "/api/argo/profiles", "")
		require.Equal(t, http.StatusOK, w.Code)

		assert.Equal(t, -90.0, st.lastQ.LatMin)
		assert.Equal(t, 90.0, st.lastQ.LatMax)
		assert.Equal(t, -180.0, st.lastQ.LonMin)
		assert.Equal(t, 180.0, st.lastQ.LonMax)
		assert.Equal(t, 100, st.lastQ.Limit)

		var got []domain.Profile
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		require.Len(t, got, 1)
		assert.Equal(t, "5900001", got[0].PlatformNumber)
	})

	t.Run("filters are forwarded and the limit is clamped", func(t *testing.T) {
		w := doRequest(t, srv, http.MethodGet,
			"/api/argo/profiles?lat_min=-10&lat_max=30&lon_min=40&lon_max=100&start_date=2024-01-01&end_date=2024-12-31&ocean_region=indian&limit=99999", "")
		require.Equal(t, http.StatusOK, w.Code)

		assert.Equal(t, -10.0, st.lastQ.LatMin)
		assert.Equal(t, 30.0, st.lastQ.LatMax)
		assert.Equal(t, "indian", st.lastQ.OceanRegion)
		require.NotNil(t, st.lastQ.Start)
		require.NotNil(t, st.lastQ.End)
		assert.Equal(t, 1000, st.lastQ.Limit)
	})

	t.Run("bad parameters are rejected", func(t *testing.T) {
		for _, target := range []string{
			"/api/argo/profiles?lat_min=bogus",
			"/api/argo/profiles?start_date=bogus",
			"/api/argo/profiles?limit=-3",
		} {
			w := doRequest(t, srv, http.MethodGet, target, "")
			assert.Equal(t, http.StatusBadRequest, w.Code, target)
		}
	})
}

func TestProfileMeasurements(t *testing.T) {
	st := &fakeProfileStore{profiles: []domain.Profile{{ID: 1, PlatformNumber: "5900001"}}}

	t.Run("serves rows for an existing profile", func(t *testing.T) {
		pressure := 5.0
		m := &fakeMeasurements{rows: []domain.Measurement{{ProfileID: 1, Pressure: &pressure, Level: 0}}}
		w := doRequest(t, newTestServer(st, m), http.MethodGet, "/api/argo/profiles/1/measurements", "")

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, 1, m.calls)

		var got struct {
			ProfileID    int64                `json:"profile_id"`
			Count        int                  `json:"count"`
			Measurements []domain.Measurement `json:"measurements"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		assert.Equal(t, int64(1), got.ProfileID)
		assert.Equal(t, 1, got.Count)
		require.Len(t, got.Measurements, 1)
	})

	t.Run("unknown profile is 404 and triggers no fetch", func(t *testing.T) {
		m := &fakeMeasurements{}
		w := doRequest(t, newTestServer(st, m), http.MethodGet, "/api/argo/profiles/42/measurements", "")
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Zero(t, m.calls)
	})

	t.Run("non-numeric id is 400", func(t *testing.T) {
		w := doRequest(t, newTestServer(st, &fakeMeasurements{}), http.MethodGet, "/api/argo/profiles/abc/measurements", "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestExportCSV(t *testing.T) {
	date := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	region := "indian"
	st := &fakeProfileStore{profiles: []domain.Profile{
		{ID: 1, PlatformNumber: "5900001", CycleNumber: 1, ProfileDate: &date, Latitude: 10, Longitude: 70, OceanRegion: &region},
		{ID: 2, PlatformNumber: "5900002", CycleNumber: 1, Latitude: -5.5, Longitude: 80.25},
	}}
	srv := newTestServer(st, &fakeMeasurements{})

	w := doRequest(t, srv, http.MethodGet, "/api/argo/export", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "attachment")
	assert.Equal(t, 1000, st.lastQ.Limit)

	lines := strings.Split(strings.TrimSpace(w.Body.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "platform_number,cycle_number,profile_date,latitude,longitude,ocean_region", lines[0])
	assert.Equal(t, "5900001,1,2024-06-01T00:00:00Z,10,70,indian", lines[1])
	assert.Equal(t, "5900002,1,,-5.5,80.25,", lines[2])
}

func TestChatQuery(t *testing.T) {
	srv := newTestServer(&fakeProfileStore{}, &fakeMeasurements{})

	t.Run("echoes the question with a canned query", func(t *testing.T) {
		w := doRequest(t, srv, http.MethodPost, "/api/chat/query", `{"message":"show me floats"}`)
		require.Equal(t, http.StatusOK, w.Code)

		var got chatResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		assert.Contains(t, got.Message, "show me floats")
		assert.Equal(t, "SELECT * FROM argo_profiles LIMIT 10;", got.SQLQuery)
	})

	t.Run("empty body is 400", func(t *testing.T) {
		w := doRequest(t, srv, http.MethodPost, "/api/chat/query", `{}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestCORS(t *testing.T) {
	srv := newTestServer(&fakeProfileStore{}, &fakeMeasurements{})

	w := doRequest(t, srv, http.MethodOptions, "/api/argo/profiles", "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestStats(t *testing.T) {
	st := &fakeProfileStore{stats: store.Stats{Profiles: 3, Floats: 2, Measurements: 40}}
	w := doRequest(t, newTestServer(st, &fakeMeasurements{}), http.MethodGet, "/api/argo/stats", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"profiles":3,"floats":2,"measurements":40}`, w.Body.String())
}
