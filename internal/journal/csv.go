package journal

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Sentinel errors for reading exports.
var (
	ErrMissingColumn = errors.New("missing column")
	ErrMalformedDate = errors.New("malformed date")
	ErrEmptyFile     = errors.New("empty file")
	ErrUnknownFormat = errors.New("unrecognized export format")
)

var (
	moodHeader    = []string{"Date", "Mood", "AI Response", "Advice"}
	journalHeader = []string{"Date", "Prompt", "Entry"}
)

// MoodRow flattens a mood entry in export column order.
func MoodRow(e MoodEntry) []string {
	return []string{e.Date.Format(DateFormat), e.Mood, e.AIResponse, e.Advice}
}

// JournalRow flattens a journal entry in export column order.
func JournalRow(e JournalEntry) []string {
	return []string{e.Date.Format(DateFormat), e.Prompt, e.Entry}
}

// WriteMoodsCSV writes entries as CSV with a header row.
func WriteMoodsCSV(w io.Writer, entries []MoodEntry) error {
	rows := make([][]string, 0, len(entries)+1)
	rows = append(rows, moodHeader)
	for _, e := range entries {
		rows = append(rows, MoodRow(e))
	}
	return writeCSV(w, rows)
}

// WriteJournalCSV writes entries as CSV with a header row.
func WriteJournalCSV(w io.Writer, entries []JournalEntry) error {
	rows := make([][]string, 0, len(entries)+1)
	rows = append(rows, journalHeader)
	for _, e := range entries {
		rows = append(rows, JournalRow(e))
	}
	return writeCSV(w, rows)
}

func writeCSV(w io.Writer, rows [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("writing csv: %w", err)
	}
	return nil
}

// ReadMoodsCSV parses a mood export. Columns are matched by header name and
// every entry gets a fresh ID.
func ReadMoodsCSV(r io.Reader) ([]MoodEntry, error) {
	rows, err := readCSV(r)
	if err != nil {
		return nil, err
	}
	return moodsFromRows(rows)
}

// ReadJournalCSV parses a journal export.
func ReadJournalCSV(r io.Reader) ([]JournalEntry, error) {
	rows, err := readCSV(r)
	if err != nil {
		return nil, err
	}
	return journalFromRows(rows)
}

// DetectKind reports whether header belongs to a mood or journal export.
func DetectKind(header []string) (string, bool) {
	idx := indexHeader(header)
	if _, ok := idx["mood"]; ok {
		return "mood", true
	}
	if _, ok := idx["prompt"]; ok {
		return "journal", true
	}
	return "", false
}

// ReadCSV parses either kind of CSV export, telling them apart by header.
func ReadCSV(r io.Reader) ([]MoodEntry, []JournalEntry, error) {
	rows, err := readCSV(r)
	if err != nil {
		return nil, nil, err
	}

	kind, ok := DetectKind(rows[0])
	if !ok {
		return nil, nil, ErrUnknownFormat
	}
	if kind == "mood" {
		moods, err := moodsFromRows(rows)
		return moods, nil, err
	}
	journal, err := journalFromRows(rows)
	return nil, journal, err
}

func readCSV(r io.Reader) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading csv: %w", err)
	}
	if len(rows) == 0 {
		return nil, ErrEmptyFile
	}
	return rows, nil
}

func indexHeader(header []string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	return idx
}

// columns resolves the named columns in header order.
func columns(header []string, names []string) ([]int, error) {
	idx := indexHeader(header)
	cols := make([]int, len(names))
	for i, name := range names {
		c, ok := idx[strings.ToLower(name)]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, name)
		}
		cols[i] = c
	}
	return cols, nil
}

func cell(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}

func parseDate(s string, line int) (time.Time, error) {
	t, err := time.ParseInLocation(DateFormat, strings.TrimSpace(s), time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w on row %d: %q", ErrMalformedDate, line, s)
	}
	return t, nil
}

func moodsFromRows(rows [][]string) ([]MoodEntry, error) {
	cols, err := columns(rows[0], moodHeader)
	if err != nil {
		return nil, err
	}

	entries := make([]MoodEntry, 0, len(rows)-1)
	for i, row := range rows[1:] {
		date, err := parseDate(cell(row, cols[0]), i+2)
		if err != nil {
			return nil, err
		}
		entries = append(entries, MoodEntry{
			ID:         uuid.NewString(),
			Date:       date,
			Mood:       cell(row, cols[1]),
			AIResponse: cell(row, cols[2]),
			Advice:     cell(row, cols[3]),
		})
	}
	return entries, nil
}

func journalFromRows(rows [][]string) ([]JournalEntry, error) {
	cols, err := columns(rows[0], journalHeader)
	if err != nil {
		return nil, err
	}

	entries := make([]JournalEntry, 0, len(rows)-1)
	for i, row := range rows[1:] {
		date, err := parseDate(cell(row, cols[0]), i+2)
		if err != nil {
			return nil, err
		}
		entries = append(entries, JournalEntry{
			ID:     uuid.NewString(),
			Date:   date,
			Prompt: cell(row, cols[1]),
			Entry:  cell(row, cols[2]),
		})
	}
	return entries, nil
}
