package content

import (
	"fmt"
	"io"
	"strconv"

	"github.com/xuri/excelize/v2"
)

// Sheet names written by ExportXLSX.
const (
	SheetModules   = "Modules"
	SheetQuestions = "Questions"
)

var moduleHeader = []any{"ID", "Title", "Description", "Icon", "Status", "Sections", "Bars", "Questions"}

// ExportXLSX writes the catalog as a workbook for content review: one row
// per module and one row per question with the correct option marked.
func ExportXLSX(c *Catalog, w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetModules); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(SheetQuestions); err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}

	if err := writeRow(f, SheetModules, 1, moduleHeader); err != nil {
		return err
	}
	width := maxOptions(c)
	questionHeader := []any{"Module", "#", "Prompt"}
	for k := 0; k < width; k++ {
		questionHeader = append(questionHeader, "Option "+optionLetter(k))
	}
	questionHeader = append(questionHeader, "Correct", "Explanation")
	if err := writeRow(f, SheetQuestions, 1, questionHeader); err != nil {
		return err
	}
	if err := f.SetRowStyle(SheetModules, 1, 1, bold); err != nil {
		return fmt.Errorf("style header: %w", err)
	}
	if err := f.SetRowStyle(SheetQuestions, 1, 1, bold); err != nil {
		return fmt.Errorf("style header: %w", err)
	}

	qRow := 2
	for i, m := range c.Modules() {
		b, ok := c.Bundle(m.ID)
		status := "available"
		if !ok {
			status = "coming soon"
		}
		row := []any{m.ID, m.Title, m.Description, m.Icon, status, len(b.Learn), len(b.Visualize.Bars), len(b.Questions)}
		if err := writeRow(f, SheetModules, i+2, row); err != nil {
			return err
		}

		for n, q := range b.Questions {
			row := []any{m.ID, n + 1, q.Prompt}
			for k := 0; k < width; k++ {
				cell := ""
				if k < len(q.Options) {
					cell = q.Options[k].Text
				}
				row = append(row, cell)
			}
			row = append(row, optionLetter(q.CorrectIndex()), q.Explanation)
			if err := writeRow(f, SheetQuestions, qRow, row); err != nil {
				return err
			}
			qRow++
		}
	}

	if err := f.SetColWidth(SheetQuestions, "C", "C", 48); err != nil {
		return fmt.Errorf("set column width: %w", err)
	}
	explCol, err := excelize.ColumnNumberToName(width + 5)
	if err != nil {
		return err
	}
	if err := f.SetColWidth(SheetQuestions, explCol, explCol, 64); err != nil {
		return fmt.Errorf("set column width: %w", err)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func maxOptions(c *Catalog) int {
	n := 0
	for _, m := range c.Modules() {
		b, _ := c.Bundle(m.ID)
		for _, q := range b.Questions {
			n = max(n, len(q.Options))
		}
	}
	return n
}

func writeRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("write %s row %d: %w", sheet, row, err)
	}
	return nil
}

// optionLetter maps 0 to "A", 1 to "B" and so on. Out-of-range indexes are
// rendered as numbers.
func optionLetter(i int) string {
	if i < 0 || i >= 26 {
		return strconv.Itoa(i + 1)
	}
	return string(rune('A' + i))
}
