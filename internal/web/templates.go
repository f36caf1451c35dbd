package web

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/justestif/neurosense/internal/insights"
	"github.com/justestif/neurosense/internal/journal"
	"github.com/justestif/neurosense/internal/playlist"
)

// Templates manages HTML template rendering.
type Templates struct {
	templates map[string]*template.Template
	funcs     template.FuncMap
}

// NewTemplates creates a new template manager by loading templates from the given filesystem.
func NewTemplates(templatesFS fs.FS) (*Templates, error) {
	t := &Templates{
		templates: make(map[string]*template.Template),
		funcs:     defaultFuncs(),
	}

	if err := t.load(templatesFS); err != nil {
		return nil, err
	}

	return t, nil
}

// Render renders a page template with the given data.
func (t *Templates) Render(w io.Writer, page string, data any) error {
	tmpl, ok := t.templates[page]
	if !ok {
		return fmt.Errorf("template %q not found", page)
	}

	// Execute the "base" template which includes the page content
	return tmpl.ExecuteTemplate(w, "base", data)
}

// RenderBytes renders a page into memory so a failure never leaves a
// half-written response.
func (t *Templates) RenderBytes(page string, data any) ([]byte, error) {
	var buf bytes.Buffer
	if err := t.Render(&buf, page, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// load parses all templates from the filesystem.
func (t *Templates) load(templatesFS fs.FS) error {
	layouts, err := fs.Glob(templatesFS, "layouts/*.html")
	if err != nil {
		return fmt.Errorf("finding layouts: %w", err)
	}

	partials, err := fs.Glob(templatesFS, "partials/*.html")
	if err != nil {
		return fmt.Errorf("finding partials: %w", err)
	}

	pages, err := fs.Glob(templatesFS, "pages/*.html")
	if err != nil {
		return fmt.Errorf("finding pages: %w", err)
	}
	if len(pages) == 0 {
		return fmt.Errorf("no page templates found")
	}

	// Common files to include with every page
	commonFiles := append(layouts, partials...)

	for _, page := range pages {
		name := strings.TrimSuffix(filepath.Base(page), ".html")

		files := append([]string{page}, commonFiles...)

		tmpl, err := template.New(name).Funcs(t.funcs).ParseFS(templatesFS, files...)
		if err != nil {
			return fmt.Errorf("parsing template %s: %w", name, err)
		}
		t.templates[name] = tmpl
	}

	return nil
}

// defaultFuncs returns the default template functions.
func defaultFuncs() template.FuncMap {
	return template.FuncMap{
		// moodColor maps a 0-10 mood score onto a red to green hue.
		"moodColor": func(score float64) string {
			score = max(0, min(10, score))
			return fmt.Sprintf("hsl(%.0f, 65%%, 45%%)", score*12)
		},

		// moodWidth converts a 0-10 mood score to a bar width percentage.
		"moodWidth": func(score float64) string {
			return fmt.Sprintf("%.0f%%", max(0, min(10, score))*10)
		},

		"percent": func(rate float64) string {
			return fmt.Sprintf("%.0f%%", rate*100)
		},

		"formatScore": func(score float64) string {
			return fmt.Sprintf("%.2f", score)
		},

		"formatTime": func(t time.Time) string {
			return t.Format(journal.DateFormat)
		},

		"describe": insights.Describe,

		// add adds two integers (for 1-based indexing in loops)
		"add": func(a, b int) int {
			return a + b
		},
	}
}

// PageData contains common data passed to all page templates.
type PageData struct {
	Title       string
	UserName    string
	Greeting    string
	Flash       *FlashMessage
	CurrentPath string
}

// FlashMessage represents a temporary notification message.
type FlashMessage struct {
	Type    string // "success", "error", "warning", "info"
	Message string
}

// HomePageData contains data for the home page template.
type HomePageData struct {
	PageData
}

// MoodPageData contains data for the mood check-in page.
type MoodPageData struct {
	PageData
	Configured bool
	Feeling    string
	Response   string
	Advice     string
	Recent     []journal.MoodEntry
}

// MusicPageData contains data for the playlist page.
type MusicPageData struct {
	PageData
	Configured bool
	Moods      []string
	Selected   string
	Playlist   *playlist.Playlist
}

// JournalPageData contains data for the journal page.
type JournalPageData struct {
	PageData
	Prompt  string
	Entry   string
	Entries []journal.JournalEntry
}

// PredictPageData contains data for the mood forecast page.
type PredictPageData struct {
	PageData
	Form       PredictForm
	Prediction *float64
}

// InsightsPageData contains data for the lifestyle profiles page.
type InsightsPageData struct {
	PageData
	Result *insights.Result
}

// DataPageData contains data for the export/import page.
type DataPageData struct {
	PageData
	MoodCount    int
	JournalCount int
	Timeline     []journal.TimelineItem
}
