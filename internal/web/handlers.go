package web

import (
	"context"
	"errors"
	"net/http"
	"slices"
	"strings"

	"github.com/rs/zerolog"

	"github.com/justestif/neurosense/internal/insights"
	"github.com/justestif/neurosense/internal/journal"
	"github.com/justestif/neurosense/internal/mood"
	"github.com/justestif/neurosense/internal/observability"
	"github.com/justestif/neurosense/internal/playlist"
)

const appTitle = "NeuroSense: Your AI Mood Journal"

// Forecaster predicts a mood score from one day of lifestyle features.
type Forecaster interface {
	Forecast(ctx context.Context, v mood.FeatureVector) (float64, error)
}

// Empathizer writes a supportive reply to a described feeling.
type Empathizer interface {
	Respond(ctx context.Context, feeling string) (string, error)
}

// ProfileSource groups observed days into lifestyle profiles.
type ProfileSource interface {
	Profiles(ctx context.Context) (*insights.Result, error)
}

// Dependencies are the services handlers call. A nil Empathizer or
// Playlists leaves that feature shown as not configured.
type Dependencies struct {
	Forecaster Forecaster
	Empathizer Empathizer
	Playlists  playlist.Finder
	Profiles   ProfileSource
	Picker     *journal.Picker
}

// Handlers contains HTTP handlers for the web application.
type Handlers struct {
	sessions  *SessionStore
	templates *Templates
	deps      Dependencies
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(sessions *SessionStore, templates *Templates, deps Dependencies) *Handlers {
	if deps.Picker == nil {
		deps.Picker = journal.NewPicker(nil)
	}
	return &Handlers{
		sessions:  sessions,
		templates: templates,
		deps:      deps,
	}
}

// withSession resolves the visitor's session and passes it to fn.
func (h *Handlers) withSession(fn func(http.ResponseWriter, *http.Request, *Session)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, err := h.sessions.Ensure(w, r)
		if err != nil {
			zerolog.Ctx(r.Context()).Error().Err(err).Msg("creating session")
			http.Error(w, "Failed to create session", http.StatusInternalServerError)
			return
		}
		fn(w, r, session)
	}
}

// page builds the data shared by every page.
func (h *Handlers) page(r *http.Request, session *Session, title string) PageData {
	return PageData{
		Title:       title,
		UserName:    session.UserName(),
		Greeting:    session.Greeting(),
		CurrentPath: r.URL.Path,
	}
}

// render writes a page with the given status code.
func (h *Handlers) render(w http.ResponseWriter, r *http.Request, status int, page string, data any) {
	body, err := h.templates.RenderBytes(page, data)
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Str("page", page).Msg("rendering template")
		http.Error(w, "Failed to render template", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func flash(kind, message string) *FlashMessage {
	return &FlashMessage{Type: kind, Message: message}
}

// Home handles the home page (GET /).
func (h *Handlers) Home(w http.ResponseWriter, r *http.Request, session *Session) {
	h.render(w, r, http.StatusOK, "home", HomePageData{
		PageData: h.page(r, session, appTitle),
	})
}

// SetName stores the visitor's name (POST /name).
func (h *Handlers) SetName(w http.ResponseWriter, r *http.Request, session *Session) {
	name := strings.TrimSpace(r.FormValue("name"))
	if name == "" {
		data := HomePageData{PageData: h.page(r, session, appTitle)}
		data.Flash = flash("warning", "Please enter your name.")
		h.render(w, r, http.StatusUnprocessableEntity, "home", data)
		return
	}

	session.SetUser(name, h.deps.Picker.Greeting(name))
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Mood shows the mood check-in form (GET /mood).
func (h *Handlers) Mood(w http.ResponseWriter, r *http.Request, session *Session) {
	h.render(w, r, http.StatusOK, "mood", h.moodPage(r, session))
}

func (h *Handlers) moodPage(r *http.Request, session *Session) MoodPageData {
	recent := session.History.Moods()
	slices.Reverse(recent)
	return MoodPageData{
		PageData:   h.page(r, session, "How are you feeling?"),
		Configured: h.deps.Empathizer != nil,
		Recent:     recent,
	}
}

// SubmitMood asks for an empathetic reply and records it (POST /mood).
func (h *Handlers) SubmitMood(w http.ResponseWriter, r *http.Request, session *Session) {
	data := h.moodPage(r, session)
	data.Feeling = strings.TrimSpace(r.FormValue("feeling"))

	if data.Feeling == "" {
		data.Flash = flash("warning", "Tell us a little about how you feel first.")
		h.render(w, r, http.StatusUnprocessableEntity, "mood", data)
		return
	}
	if h.deps.Empathizer == nil {
		data.Flash = flash("warning", "AI responses are not configured.")
		h.render(w, r, http.StatusServiceUnavailable, "mood", data)
		return
	}

	response, err := h.deps.Empathizer.Respond(r.Context(), data.Feeling)
	if err != nil {
		zerolog.Ctx(r.Context()).Warn().Err(err).Msg("empathetic response failed")
		data.Flash = flash("error", "We couldn't reach the AI right now. Please try again in a moment.")
		h.render(w, r, http.StatusBadGateway, "mood", data)
		return
	}

	entry := session.History.AddMood(data.Feeling, response, h.deps.Picker.Advice())
	observability.HistoryEntries.WithLabelValues("mood").Inc()

	data = h.moodPage(r, session)
	data.Feeling = entry.Mood
	data.Response = entry.AIResponse
	data.Advice = entry.Advice
	h.render(w, r, http.StatusOK, "mood", data)
}

// Music shows the playlist picker (GET /music).
func (h *Handlers) Music(w http.ResponseWriter, r *http.Request, session *Session) {
	h.render(w, r, http.StatusOK, "music", h.musicPage(r, session))
}

func (h *Handlers) musicPage(r *http.Request, session *Session) MusicPageData {
	return MusicPageData{
		PageData:   h.page(r, session, "Music for your mood"),
		Configured: h.deps.Playlists != nil,
		Moods:      playlist.Moods,
	}
}

// FindMusic looks up a playlist for the chosen mood (POST /music).
func (h *Handlers) FindMusic(w http.ResponseWriter, r *http.Request, session *Session) {
	data := h.musicPage(r, session)
	data.Selected = r.FormValue("mood")

	if !playlist.ValidMood(data.Selected) {
		data.Flash = flash("warning", "Please pick one of the listed moods.")
		h.render(w, r, http.StatusUnprocessableEntity, "music", data)
		return
	}
	if h.deps.Playlists == nil {
		data.Flash = flash("warning", "Playlist search is not configured.")
		h.render(w, r, http.StatusServiceUnavailable, "music", data)
		return
	}

	p, err := h.deps.Playlists.Find(r.Context(), data.Selected)
	switch {
	case errors.Is(err, playlist.ErrNotFound):
		data.Flash = flash("info", "No playlist found for that mood. Try another one.")
		h.render(w, r, http.StatusOK, "music", data)
		return
	case err != nil:
		zerolog.Ctx(r.Context()).Warn().Err(err).Str("mood", data.Selected).Msg("playlist search failed")
		data.Flash = flash("error", "Playlist search is unavailable right now.")
		h.render(w, r, http.StatusBadGateway, "music", data)
		return
	}

	data.Playlist = &p
	h.render(w, r, http.StatusOK, "music", data)
}

// Journal shows the current prompt and past entries (GET /journal).
func (h *Handlers) Journal(w http.ResponseWriter, r *http.Request, session *Session) {
	h.render(w, r, http.StatusOK, "journal", h.journalPage(r, session))
}

// currentPrompt returns the session's prompt, drawing one on first use.
func (h *Handlers) currentPrompt(session *Session) string {
	prompt := session.CurrentPrompt()
	if prompt == "" {
		prompt = h.deps.Picker.Prompt()
		session.SetPrompt(prompt)
	}
	return prompt
}

func (h *Handlers) journalPage(r *http.Request, session *Session) JournalPageData {
	prompt := h.currentPrompt(session)

	entries := session.History.Journal()
	slices.Reverse(entries)
	return JournalPageData{
		PageData: h.page(r, session, "Journal"),
		Prompt:   prompt,
		Entries:  entries,
	}
}

// SubmitJournal saves an entry or draws a new prompt (POST /journal).
func (h *Handlers) SubmitJournal(w http.ResponseWriter, r *http.Request, session *Session) {
	if r.FormValue("action") == "new-prompt" {
		session.SetPrompt(h.deps.Picker.Prompt())
		h.render(w, r, http.StatusOK, "journal", h.journalPage(r, session))
		return
	}

	text := strings.TrimSpace(r.FormValue("entry"))
	if text == "" {
		data := h.journalPage(r, session)
		data.Flash = flash("warning", "Your entry is empty.")
		h.render(w, r, http.StatusUnprocessableEntity, "journal", data)
		return
	}

	session.History.AddJournal(h.currentPrompt(session), text)
	observability.HistoryEntries.WithLabelValues("journal").Inc()
	session.SetPrompt(h.deps.Picker.Prompt())

	data := h.journalPage(r, session)
	data.Flash = flash("success", "Journal entry saved.")
	h.render(w, r, http.StatusOK, "journal", data)
}

// Insights shows lifestyle profiles found in the observations (GET /insights).
func (h *Handlers) Insights(w http.ResponseWriter, r *http.Request, session *Session) {
	data := InsightsPageData{PageData: h.page(r, session, "Your lifestyle profiles")}

	result, err := h.deps.Profiles.Profiles(r.Context())
	if err != nil {
		status, message := predictorErrorStatus(err)
		zerolog.Ctx(r.Context()).Warn().Err(err).Msg("profile detection failed")
		data.Flash = flash("error", message)
		h.render(w, r, status, "insights", data)
		return
	}

	data.Result = result
	h.render(w, r, http.StatusOK, "insights", data)
}

// Healthz reports liveness (GET /healthz).
func (h *Handlers) Healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// predictorErrorStatus maps a predictor error to a status code and a
// message safe to show the visitor.
func predictorErrorStatus(err error) (int, string) {
	var de *mood.DataError
	var me *mood.ModelError
	switch {
	case errors.As(err, &de):
		return http.StatusUnprocessableEntity, "The mood data could not be used: " + de.Error()
	case errors.As(err, &me):
		return http.StatusUnprocessableEntity, "The mood model could not score this input: " + me.Error()
	default:
		return http.StatusInternalServerError, "Something went wrong. Please try again."
	}
}
