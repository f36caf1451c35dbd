package web

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/justestif/neurosense/internal/journal"
	"github.com/justestif/neurosense/internal/observability"
)

// maxImportSize bounds uploaded history files.
const maxImportSize = 5 << 20

// Data shows the history timeline with export and import options (GET /data).
func (h *Handlers) Data(w http.ResponseWriter, r *http.Request, session *Session) {
	h.render(w, r, http.StatusOK, "data", h.dataPage(r, session))
}

func (h *Handlers) dataPage(r *http.Request, session *Session) DataPageData {
	return DataPageData{
		PageData:     h.page(r, session, "Your data"),
		MoodCount:    len(session.History.Moods()),
		JournalCount: len(session.History.Journal()),
		Timeline:     session.History.Timeline(),
	}
}

// ExportMoods downloads the mood history as CSV (GET /data/moods.csv).
func (h *Handlers) ExportMoods(w http.ResponseWriter, r *http.Request, session *Session) {
	h.download(w, r, "my_moods.csv", "text/csv; charset=utf-8", func(buf io.Writer) error {
		return journal.WriteMoodsCSV(buf, session.History.Moods())
	})
}

// ExportJournal downloads the journal history as CSV (GET /data/journal.csv).
func (h *Handlers) ExportJournal(w http.ResponseWriter, r *http.Request, session *Session) {
	h.download(w, r, "my_journal.csv", "text/csv; charset=utf-8", func(buf io.Writer) error {
		return journal.WriteJournalCSV(buf, session.History.Journal())
	})
}

// ExportWorkbook downloads both histories as one workbook (GET /data/history.xlsx).
func (h *Handlers) ExportWorkbook(w http.ResponseWriter, r *http.Request, session *Session) {
	const xlsx = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	h.download(w, r, "neurosense_history.xlsx", xlsx, func(buf io.Writer) error {
		return journal.WriteWorkbook(buf, session.History.Moods(), session.History.Journal())
	})
}

// ExportReport downloads the PDF journey report (GET /data/report.pdf).
func (h *Handlers) ExportReport(w http.ResponseWriter, r *http.Request, session *Session) {
	h.download(w, r, "neurosense_report.pdf", "application/pdf", func(buf io.Writer) error {
		return journal.WriteReport(buf, session.History.Timeline())
	})
}

// download renders an export in memory and sends it as an attachment.
func (h *Handlers) download(w http.ResponseWriter, r *http.Request, filename, contentType string, write func(io.Writer) error) {
	var buf bytes.Buffer
	if err := write(&buf); err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Str("file", filename).Msg("export failed")
		http.Error(w, "Failed to export data", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// Import merges an uploaded CSV or workbook export into the history
// (POST /data/import).
func (h *Handlers) Import(w http.ResponseWriter, r *http.Request, session *Session) {
	moods, entries, err := readUpload(w, r)
	if err != nil {
		data := h.dataPage(r, session)
		data.Flash = flash("error", "Import failed: "+err.Error())
		h.render(w, r, http.StatusUnprocessableEntity, "data", data)
		return
	}

	session.History.ImportMoods(moods)
	session.History.ImportJournal(entries)
	observability.HistoryEntries.WithLabelValues("mood").Add(float64(len(moods)))
	observability.HistoryEntries.WithLabelValues("journal").Add(float64(len(entries)))

	zerolog.Ctx(r.Context()).Info().
		Int("moods", len(moods)).
		Int("journal", len(entries)).
		Msg("imported history")

	data := h.dataPage(r, session)
	data.Flash = flash("success", fmt.Sprintf("Imported %d mood entries and %d journal entries.", len(moods), len(entries)))
	h.render(w, r, http.StatusOK, "data", data)
}

var errNoFile = errors.New("choose a file to upload")

func readUpload(w http.ResponseWriter, r *http.Request) ([]journal.MoodEntry, []journal.JournalEntry, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxImportSize)
	if err := r.ParseMultipartForm(maxImportSize); err != nil {
		return nil, nil, errNoFile
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, nil, errNoFile
	}
	defer file.Close()

	switch strings.ToLower(filepath.Ext(header.Filename)) {
	case ".xlsx":
		return journal.ReadWorkbook(file)
	case ".csv":
		return journal.ReadCSV(file)
	default:
		return nil, nil, fmt.Errorf("unsupported file type %q", filepath.Ext(header.Filename))
	}
}
