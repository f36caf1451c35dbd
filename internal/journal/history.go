// Package journal holds a user's mood and journal history and renders it
// for export.
package journal

import (
	"cmp"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DateFormat is the layout used for entry timestamps everywhere they are
// shown or exported.
const DateFormat = "2006-01-02 15:04:05"

// MoodEntry records a described feeling and the replies it received.
type MoodEntry struct {
	ID         string
	Date       time.Time
	Mood       string
	AIResponse string
	Advice     string
}

// JournalEntry records a response to a writing prompt.
type JournalEntry struct {
	ID     string
	Date   time.Time
	Prompt string
	Entry  string
}

// Field is one labelled value of a timeline item.
type Field struct {
	Key   string
	Value string
}

// TimelineItem is a mood or journal entry flattened for display.
type TimelineItem struct {
	Kind   string // "mood" or "journal"
	Date   time.Time
	Fields []Field
}

// History is a concurrency-safe, in-memory record of one user's entries.
type History struct {
	mu      sync.RWMutex
	moods   []MoodEntry
	journal []JournalEntry
	now     func() time.Time
}

// NewHistory creates an empty history.
func NewHistory() *History {
	return &History{now: time.Now}
}

func (h *History) timestamp() time.Time {
	// Second precision, matching DateFormat, so exports round-trip.
	return h.now().Truncate(time.Second)
}

// AddMood appends a mood entry stamped with the current time.
func (h *History) AddMood(mood, response, advice string) MoodEntry {
	e := MoodEntry{
		ID:         uuid.NewString(),
		Date:       h.timestamp(),
		Mood:       mood,
		AIResponse: response,
		Advice:     advice,
	}

	h.mu.Lock()
	h.moods = append(h.moods, e)
	h.mu.Unlock()
	return e
}

// AddJournal appends a journal entry stamped with the current time.
func (h *History) AddJournal(prompt, entry string) JournalEntry {
	e := JournalEntry{
		ID:     uuid.NewString(),
		Date:   h.timestamp(),
		Prompt: prompt,
		Entry:  entry,
	}

	h.mu.Lock()
	h.journal = append(h.journal, e)
	h.mu.Unlock()
	return e
}

// ImportMoods appends entries read from an export.
func (h *History) ImportMoods(entries []MoodEntry) {
	h.mu.Lock()
	h.moods = append(h.moods, entries...)
	h.mu.Unlock()
}

// ImportJournal appends entries read from an export.
func (h *History) ImportJournal(entries []JournalEntry) {
	h.mu.Lock()
	h.journal = append(h.journal, entries...)
	h.mu.Unlock()
}

// Moods returns a copy of the mood entries in insertion order.
func (h *History) Moods() []MoodEntry {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return slices.Clone(h.moods)
}

// Journal returns a copy of the journal entries in insertion order.
func (h *History) Journal() []JournalEntry {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return slices.Clone(h.journal)
}

// Len returns the total number of entries.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.moods) + len(h.journal)
}

// Timeline merges both histories, newest first. Entries with equal
// timestamps keep mood entries ahead of journal entries.
func (h *History) Timeline() []TimelineItem {
	moods := h.Moods()
	journal := h.Journal()

	items := make([]TimelineItem, 0, len(moods)+len(journal))
	for _, m := range moods {
		items = append(items, TimelineItem{
			Kind: "mood",
			Date: m.Date,
			Fields: []Field{
				{"Date", m.Date.Format(DateFormat)},
				{"Mood", m.Mood},
				{"AI Response", m.AIResponse},
				{"Advice", m.Advice},
			},
		})
	}
	for _, j := range journal {
		items = append(items, TimelineItem{
			Kind: "journal",
			Date: j.Date,
			Fields: []Field{
				{"Date", j.Date.Format(DateFormat)},
				{"Prompt", j.Prompt},
				{"Entry", j.Entry},
			},
		})
	}

	slices.SortStableFunc(items, func(a, b TimelineItem) int {
		return cmp.Compare(b.Date.UnixNano(), a.Date.UnixNano())
	})
	return items
}
