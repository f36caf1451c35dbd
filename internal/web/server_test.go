package web

import (
	"bytes"
	"context"
	"errors"
	"html"
	"io"
	"io/fs"
	"math/rand/v2"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"testing/fstest"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/justestif/neurosense/internal/insights"
	"github.com/justestif/neurosense/internal/journal"
	"github.com/justestif/neurosense/internal/mood"
	"github.com/justestif/neurosense/internal/playlist"
	webfs "github.com/justestif/neurosense/web"
)

// testTemplates renders just enough of each page to assert on.
var testTemplates = fstest.MapFS{
	"layouts/base.html":   {Data: []byte(`{{define "base"}}{{template "flash" .Flash}}|{{template "content" .}}{{end}}`)},
	"partials/flash.html": {Data: []byte(`{{define "flash"}}{{if .}}[{{.Type}}] {{.Message}}{{end}}{{end}}`)},
	"pages/home.html":     {Data: []byte(`{{define "content"}}greeting={{.Greeting}}{{end}}`)},
	"pages/mood.html":     {Data: []byte(`{{define "content"}}configured={{.Configured}} response={{.Response}} advice={{.Advice}} recent={{len .Recent}}{{end}}`)},
	"pages/music.html":    {Data: []byte(`{{define "content"}}{{with .Playlist}}url={{.URL}}{{end}}{{end}}`)},
	"pages/journal.html":  {Data: []byte(`{{define "content"}}prompt={{.Prompt}} entries={{len .Entries}}{{end}}`)},
	"pages/predict.html":  {Data: []byte(`{{define "content"}}{{with .Prediction}}prediction={{formatScore .}}{{end}}{{end}}`)},
	"pages/insights.html": {Data: []byte(`{{define "content"}}{{with .Result}}days={{.TotalDays}} profiles={{len .Profiles}}{{end}}{{end}}`)},
	"pages/data.html":     {Data: []byte(`{{define "content"}}moods={{.MoodCount}} journal={{.JournalCount}}{{end}}`)},
}

type fakeForecaster struct {
	score float64
	err   error

	mu   sync.Mutex
	last mood.FeatureVector
}

func (f *fakeForecaster) Forecast(_ context.Context, v mood.FeatureVector) (float64, error) {
	f.mu.Lock()
	f.last = v
	f.mu.Unlock()
	return f.score, f.err
}

type fakeEmpathizer struct {
	reply string
	err   error
}

func (f fakeEmpathizer) Respond(_ context.Context, _ string) (string, error) {
	return f.reply, f.err
}

type fakeFinder struct {
	playlist playlist.Playlist
	err      error
}

func (f fakeFinder) Find(_ context.Context, _ string) (playlist.Playlist, error) {
	return f.playlist, f.err
}

type fakeProfiles struct {
	result *insights.Result
	err    error
}

func (f fakeProfiles) Profiles(_ context.Context) (*insights.Result, error) {
	return f.result, f.err
}

func defaultDeps() Dependencies {
	return Dependencies{
		Forecaster: &fakeForecaster{score: 6.5},
		Empathizer: fakeEmpathizer{reply: "That sounds hard."},
		Playlists:  fakeFinder{playlist: playlist.Playlist{Title: "Calm", URL: "https://example.com/calm"}},
		Profiles:   fakeProfiles{result: &insights.Result{TotalDays: 4}},
	}
}

// testClient wraps a test server with a cookie jar so sessions persist
// across requests.
type testClient struct {
	t      *testing.T
	server *httptest.Server
	client *http.Client
}

func newTestClient(t *testing.T, deps Dependencies) *testClient {
	t.Helper()

	srv, err := NewServer(ServerConfig{
		TemplatesFS:        testTemplates,
		RateLimitPerMinute: 1000,
		Dependencies:       deps,
	})
	require.NoError(t, err)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)

	client := ts.Client()
	client.Jar = jar
	return &testClient{t: t, server: ts, client: client}
}

func (c *testClient) get(path string) (int, string) {
	c.t.Helper()
	resp, err := c.client.Get(c.server.URL + path)
	require.NoError(c.t, err)
	return readResponse(c.t, resp)
}

func (c *testClient) post(path string, form url.Values) (int, string) {
	c.t.Helper()
	resp, err := c.client.PostForm(c.server.URL+path, form)
	require.NoError(c.t, err)
	return readResponse(c.t, resp)
}

func readResponse(t *testing.T, resp *http.Response) (int, string) {
	t.Helper()
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func TestNewServer_RequiresDependencies(t *testing.T) {
	_, err := NewServer(ServerConfig{TemplatesFS: testTemplates})
	assert.Error(t, err)
}

func TestHealthz(t *testing.T) {
	c := newTestClient(t, defaultDeps())

	status, body := c.get("/healthz")
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"status":"ok"}`, body)
}

func TestMetrics(t *testing.T) {
	c := newTestClient(t, defaultDeps())

	status, body := c.get("/metrics")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "go_goroutines")
}

func TestSetName(t *testing.T) {
	c := newTestClient(t, defaultDeps())

	status, body := c.post("/name", url.Values{"name": {"Ana"}})
	require.Equal(t, http.StatusOK, status) // after redirect
	assert.Contains(t, body, "Ana")

	status, body = c.post("/name", url.Values{"name": {"   "}})
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Contains(t, body, "[warning]")
}

func TestSubmitMood(t *testing.T) {
	c := newTestClient(t, defaultDeps())

	status, body := c.post("/mood", url.Values{"feeling": {"tired and anxious"}})
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "response=That sounds hard.")
	assert.Contains(t, body, "recent=1")

	var found bool
	for _, a := range journal.Advice {
		if strings.Contains(body, "advice="+html.EscapeString(a)) {
			found = true
		}
	}
	assert.True(t, found, "advice should come from the advice list: %s", body)

	_, body = c.get("/data")
	assert.Contains(t, body, "moods=1 journal=0")
}

func TestSubmitMood_Failures(t *testing.T) {
	tests := []struct {
		name       string
		empathizer Empathizer
		feeling    string
		wantStatus int
	}{
		{"empty text", fakeEmpathizer{reply: "ok"}, "  ", http.StatusUnprocessableEntity},
		{"not configured", nil, "sad", http.StatusServiceUnavailable},
		{"upstream failure", fakeEmpathizer{err: errors.New("boom")}, "sad", http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			deps := defaultDeps()
			deps.Empathizer = tt.empathizer
			c := newTestClient(t, deps)

			status, body := c.post("/mood", url.Values{"feeling": {tt.feeling}})
			assert.Equal(t, tt.wantStatus, status)
			assert.Contains(t, body, "recent=0")

			// The session survives and nothing was stored.
			_, body = c.get("/data")
			assert.Contains(t, body, "moods=0")
		})
	}
}

func TestFindMusic(t *testing.T) {
	c := newTestClient(t, defaultDeps())

	status, body := c.post("/music", url.Values{"mood": {"Calm"}})
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "url=https://example.com/calm")

	status, _ = c.post("/music", url.Values{"mood": {"Bored"}})
	assert.Equal(t, http.StatusUnprocessableEntity, status)
}

func TestFindMusic_Failures(t *testing.T) {
	deps := defaultDeps()
	deps.Playlists = fakeFinder{err: playlist.ErrNotFound}
	c := newTestClient(t, deps)

	status, body := c.post("/music", url.Values{"mood": {"Sad"}})
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "[info]")

	deps.Playlists = fakeFinder{err: errors.New("quota exceeded")}
	c = newTestClient(t, deps)
	status, _ = c.post("/music", url.Values{"mood": {"Sad"}})
	assert.Equal(t, http.StatusBadGateway, status)

	deps.Playlists = nil
	c = newTestClient(t, deps)
	status, _ = c.post("/music", url.Values{"mood": {"Sad"}})
	assert.Equal(t, http.StatusServiceUnavailable, status)
}

func TestJournal(t *testing.T) {
	deps := defaultDeps()
	deps.Picker = journal.NewPicker(rand.NewPCG(3, 3))
	twin := journal.NewPicker(rand.NewPCG(3, 3))
	first, next := twin.Prompt(), twin.Prompt()

	c := newTestClient(t, deps)

	status, body := c.get("/journal")
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "prompt="+html.EscapeString(first))

	status, body = c.post("/journal", url.Values{"entry": {"Today was fine."}})
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "[success]")
	assert.Contains(t, body, "entries=1")
	// Saving draws the prompt for the next entry.
	assert.Contains(t, body, "prompt="+html.EscapeString(next))

	_, csv := c.get("/data/journal.csv")
	assert.Contains(t, csv, first+",Today was fine.")

	status, body = c.post("/journal", url.Values{"entry": {""}})
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Contains(t, body, "entries=1")
	assert.Contains(t, body, "prompt="+html.EscapeString(next))

	status, _ = c.post("/journal", url.Values{"action": {"new-prompt"}})
	assert.Equal(t, http.StatusOK, status)
}

func TestSessionsAreIsolated(t *testing.T) {
	deps := defaultDeps()
	a := newTestClient(t, deps)

	a.post("/journal", url.Values{"entry": {"mine"}})

	// A second client against the same server has no cookie.
	resp, err := http.Get(a.server.URL + "/data")
	require.NoError(t, err)
	_, body := readResponse(t, resp)
	assert.Contains(t, body, "journal=0")

	_, body = a.get("/data")
	assert.Contains(t, body, "journal=1")
}

func TestSubmitPredict(t *testing.T) {
	forecaster := &fakeForecaster{score: 6.5}
	deps := defaultDeps()
	deps.Forecaster = forecaster
	c := newTestClient(t, deps)

	status, body := c.post("/predict", url.Values{
		"sleep_hours": {"7.5"},
		"steps":       {"4000"},
		"meditated":   {"on"},
	})
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "prediction=6.50")
	assert.Equal(t, mood.FeatureVector{SleepHours: 7.5, Steps: 4000, Meditated: true}, forecaster.last)
}

func TestSubmitPredict_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		form  url.Values
		label string
	}{
		{"sleep too high", url.Values{"sleep_hours": {"25"}, "steps": {"100"}}, "Sleep hours"},
		{"negative steps", url.Values{"sleep_hours": {"7"}, "steps": {"-5"}}, "Steps"},
		{"not a number", url.Values{"sleep_hours": {"lots"}, "steps": {"100"}}, "Sleep hours"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, defaultDeps())

			status, body := c.post("/predict", tt.form)
			assert.Equal(t, http.StatusUnprocessableEntity, status)
			assert.Contains(t, body, tt.label)
			assert.NotContains(t, body, "prediction=")
		})
	}
}

func TestSubmitPredict_PredictorErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"data error", &mood.DataError{Op: "read observations", Err: mood.ErrMissingColumn}, http.StatusUnprocessableEntity},
		{"model error", &mood.ModelError{Op: "predict", Err: mood.ErrNotTrained}, http.StatusUnprocessableEntity},
		{"other error", errors.New("disk on fire"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			deps := defaultDeps()
			deps.Forecaster = &fakeForecaster{err: tt.err}
			c := newTestClient(t, deps)

			status, body := c.post("/predict", url.Values{"sleep_hours": {"7"}, "steps": {"100"}})
			assert.Equal(t, tt.wantStatus, status)
			assert.Contains(t, body, "[error]")

			// Session still usable afterwards.
			status, _ = c.get("/predict")
			assert.Equal(t, http.StatusOK, status)
		})
	}
}

func postJSON(t *testing.T, c *testClient, body string) (int, map[string]any) {
	t.Helper()
	resp, err := c.client.Post(c.server.URL+"/api/predict", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	status, raw := readResponse(t, resp)

	var out map[string]any
	require.NoError(t, json.Unmarshal([]byte(raw), &out), raw)
	return status, out
}

func TestAPIPredict(t *testing.T) {
	c := newTestClient(t, defaultDeps())

	status, out := postJSON(t, c, `{"sleep_hours":7,"steps":4000,"meditated":true,"journaled":false}`)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, 6.5, out["mood"])

	// Zero values are valid inputs.
	status, _ = postJSON(t, c, `{"sleep_hours":0,"steps":0,"meditated":false,"journaled":false}`)
	assert.Equal(t, http.StatusOK, status)
}

func TestAPIPredict_Errors(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		forecast   error
		wantStatus int
	}{
		{"malformed", `{"sleep_hours":`, nil, http.StatusBadRequest},
		{"missing steps", `{"sleep_hours":7,"meditated":true,"journaled":true}`, nil, http.StatusBadRequest},
		{"unknown field", `{"sleep_hours":7,"steps":1,"meditated":true,"journaled":true,"caffeine":3}`, nil, http.StatusBadRequest},
		{"out of range", `{"sleep_hours":30,"steps":1,"meditated":true,"journaled":true}`, nil, http.StatusBadRequest},
		{"model error", `{"sleep_hours":7,"steps":1,"meditated":true,"journaled":true}`, &mood.ModelError{Op: "predict", Err: mood.ErrNotTrained}, http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			deps := defaultDeps()
			deps.Forecaster = &fakeForecaster{score: 5, err: tt.forecast}
			c := newTestClient(t, deps)

			status, out := postJSON(t, c, tt.body)
			assert.Equal(t, tt.wantStatus, status)
			assert.NotEmpty(t, out["error"])
		})
	}
}

func TestInsights(t *testing.T) {
	c := newTestClient(t, defaultDeps())

	status, body := c.get("/insights")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "days=4 profiles=0")

	deps := defaultDeps()
	deps.Profiles = fakeProfiles{err: &mood.DataError{Op: "open source", Err: mood.ErrNoObservations}}
	c = newTestClient(t, deps)

	status, body = c.get("/insights")
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Contains(t, body, "[error]")
}

func TestExports(t *testing.T) {
	c := newTestClient(t, defaultDeps())
	c.post("/mood", url.Values{"feeling": {"calm"}})
	c.post("/journal", url.Values{"entry": {"A good day."}})

	tests := []struct {
		path        string
		contentType string
		prefix      string
	}{
		{"/data/moods.csv", "text/csv; charset=utf-8", "Date,Mood,AI Response,Advice"},
		{"/data/journal.csv", "text/csv; charset=utf-8", "Date,Prompt,Entry"},
		{"/data/history.xlsx", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", "PK"},
		{"/data/report.pdf", "application/pdf", "%PDF-"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp, err := c.client.Get(c.server.URL + tt.path)
			require.NoError(t, err)
			assert.Equal(t, tt.contentType, resp.Header.Get("Content-Type"))
			assert.Contains(t, resp.Header.Get("Content-Disposition"), "attachment")

			status, body := readResponse(t, resp)
			assert.Equal(t, http.StatusOK, status)
			assert.True(t, strings.HasPrefix(body, tt.prefix), "body starts with %q", body[:min(len(body), 20)])
		})
	}
}

func uploadFile(t *testing.T, c *testClient, filename string, content []byte) (int, string) {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	resp, err := c.client.Post(c.server.URL+"/data/import", mw.FormDataContentType(), &buf)
	require.NoError(t, err)
	return readResponse(t, resp)
}

func TestImport(t *testing.T) {
	c := newTestClient(t, defaultDeps())

	csv := "Date,Mood,AI Response,Advice\n" +
		"2024-03-01 08:00:00,hopeful,Glad to hear it.,Take a walk.\n" +
		"2024-03-02 08:00:00,tired,Rest well.,Drink water.\n"

	status, body := uploadFile(t, c, "my_moods.csv", []byte(csv))
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "[success]")
	assert.Contains(t, body, "moods=2 journal=0")

	var wb bytes.Buffer
	h := journal.NewHistory()
	h.AddJournal("Prompt", "Entry")
	require.NoError(t, journal.WriteWorkbook(&wb, nil, h.Journal()))

	status, body = uploadFile(t, c, "history.xlsx", wb.Bytes())
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "moods=2 journal=1")
}

func TestImport_Errors(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		content  string
	}{
		{"bad date", "moods.csv", "Date,Mood,AI Response,Advice\nlast week,ok,fine,none\n"},
		{"unknown columns", "data.csv", "sleep_hours,steps\n8,3000\n"},
		{"unsupported type", "notes.txt", "hello"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, defaultDeps())

			status, body := uploadFile(t, c, tt.filename, []byte(tt.content))
			assert.Equal(t, http.StatusUnprocessableEntity, status)
			assert.Contains(t, body, "[error] Import failed")
			assert.Contains(t, body, "moods=0 journal=0")
		})
	}
}

func TestRateLimit(t *testing.T) {
	srv, err := NewServer(ServerConfig{
		TemplatesFS:        testTemplates,
		RateLimitPerMinute: 2,
		Dependencies:       defaultDeps(),
	})
	require.NoError(t, err)

	var codes []int
	for range 3 {
		req := httptest.NewRequest(http.MethodPost, "/api/predict",
			strings.NewReader(`{"sleep_hours":7,"steps":1,"meditated":true,"journaled":true}`))
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	// GET pages are not limited.
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestEmbeddedTemplatesRender(t *testing.T) {
	templatesFS, err := fs.Sub(webfs.TemplatesFS, "templates")
	require.NoError(t, err)
	staticFS, err := fs.Sub(webfs.StaticFS, "static")
	require.NoError(t, err)

	deps := defaultDeps()
	deps.Profiles = fakeProfiles{result: &insights.Result{
		TotalDays:    3,
		OutlierCount: 1,
		Profiles: []insights.Profile{{
			Name:         "Well-Rested",
			Observations: []mood.Observation{{SleepHours: 8, Mood: 7}, {SleepHours: 9, Mood: 8}},
			AverageMood:  7.5,
			AverageSleep: 8.5,
		}},
	}}

	srv, err := NewServer(ServerConfig{
		TemplatesFS:        templatesFS,
		StaticFS:           staticFS,
		RateLimitPerMinute: 1000,
		Dependencies:       deps,
	})
	require.NoError(t, err)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	c := &testClient{t: t, server: ts, client: ts.Client()}
	c.client.Jar = jar

	c.post("/name", url.Values{"name": {"Ana"}})
	c.post("/mood", url.Values{"feeling": {"calm"}})
	c.post("/journal", url.Values{"entry": {"Fine."}})

	for _, path := range []string{"/", "/mood", "/music", "/journal", "/predict", "/insights", "/data", "/static/style.css"} {
		status, body := c.get(path)
		assert.Equal(t, http.StatusOK, status, path)
		assert.NotEmpty(t, body, path)
	}

	status, body := c.post("/predict", url.Values{"sleep_hours": {"7"}, "steps": {"4000"}})
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "6.50 / 10")

	status, body = c.post("/music", url.Values{"mood": {"Calm"}})
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "https://example.com/calm")

	_, body = c.get("/insights")
	assert.Contains(t, body, "Well-Rested")
	assert.Contains(t, body, "1 didn't fit a profile")
}
