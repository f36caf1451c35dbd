package journal

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

const (
	moodSheet    = "Moods"
	journalSheet = "Journal"
)

// WriteWorkbook writes both histories to an xlsx workbook with one sheet
// per history.
func WriteWorkbook(w io.Writer, moods []MoodEntry, journal []JournalEntry) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", moodSheet); err != nil {
		return fmt.Errorf("renaming sheet: %w", err)
	}
	if _, err := f.NewSheet(journalSheet); err != nil {
		return fmt.Errorf("creating sheet: %w", err)
	}

	moodRows := [][]string{moodHeader}
	for _, e := range moods {
		moodRows = append(moodRows, MoodRow(e))
	}
	if err := writeSheet(f, moodSheet, moodRows); err != nil {
		return err
	}

	journalRows := [][]string{journalHeader}
	for _, e := range journal {
		journalRows = append(journalRows, JournalRow(e))
	}
	if err := writeSheet(f, journalSheet, journalRows); err != nil {
		return err
	}

	if err := f.SetColWidth(moodSheet, "A", "A", 20); err != nil {
		return fmt.Errorf("sizing columns: %w", err)
	}
	if err := f.SetColWidth(journalSheet, "A", "A", 20); err != nil {
		return fmt.Errorf("sizing columns: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

func writeSheet(f *excelize.File, sheet string, rows [][]string) error {
	for i, row := range rows {
		cellRef, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		values := make([]any, len(row))
		for j, v := range row {
			values[j] = v
		}
		if err := f.SetSheetRow(sheet, cellRef, &values); err != nil {
			return fmt.Errorf("writing %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}

// ReadWorkbook reads a workbook produced by WriteWorkbook. Missing sheets
// are treated as empty.
func ReadWorkbook(r io.Reader) ([]MoodEntry, []JournalEntry, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, nil, fmt.Errorf("opening workbook: %w", err)
	}
	defer f.Close()

	var moods []MoodEntry
	if rows, err := f.GetRows(moodSheet); err == nil && len(rows) > 0 {
		if moods, err = moodsFromRows(rows); err != nil {
			return nil, nil, fmt.Errorf("sheet %s: %w", moodSheet, err)
		}
	}

	var journal []JournalEntry
	if rows, err := f.GetRows(journalSheet); err == nil && len(rows) > 0 {
		if journal, err = journalFromRows(rows); err != nil {
			return nil, nil, fmt.Errorf("sheet %s: %w", journalSheet, err)
		}
	}

	return moods, journal, nil
}
