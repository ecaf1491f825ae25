package content_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/p-n-ai/f1-academy/internal/content"
)

func TestExportXLSX(t *testing.T) {
	catalog, err := content.NewCatalog([]content.Entry{
		{Module: content.Module{ID: 1, Title: "Basics", Icon: "car"}, Bundle: validBundle()},
		{Module: content.Module{ID: 2, Title: "Later", ComingSoon: true}},
	})
	if err != nil {
		t.Fatalf("NewCatalog() error = %v", err)
	}

	var buf bytes.Buffer
	if err := content.ExportXLSX(catalog, &buf); err != nil {
		t.Fatalf("ExportXLSX() error = %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("OpenReader() error = %v", err)
	}
	defer f.Close()

	modules, err := f.GetRows(content.SheetModules)
	if err != nil {
		t.Fatalf("GetRows(Modules) error = %v", err)
	}
	if len(modules) != 3 {
		t.Fatalf("Modules rows = %d, want header + 2", len(modules))
	}
	if modules[1][1] != "Basics" || modules[1][4] != "available" {
		t.Errorf("module row = %v", modules[1])
	}
	if modules[2][4] != "coming soon" {
		t.Errorf("coming-soon row = %v", modules[2])
	}

	questions, err := f.GetRows(content.SheetQuestions)
	if err != nil {
		t.Fatalf("GetRows(Questions) error = %v", err)
	}
	if len(questions) != 2 {
		t.Fatalf("Questions rows = %d, want header + 1", len(questions))
	}
	header := questions[0]
	if header[3] != "Option A" || header[4] != "Option B" || header[5] != "Correct" {
		t.Errorf("question header = %v", header)
	}
	if row := questions[1]; row[2] != "Fastest compound?" || row[5] != "A" {
		t.Errorf("question row = %v, want correct option A", row)
	}
}

func TestExportXLSX_EmbeddedContent(t *testing.T) {
	catalog, err := content.NewEmbeddedSource().Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	var buf bytes.Buffer
	if err := content.ExportXLSX(catalog, &buf); err != nil {
		t.Fatalf("ExportXLSX() error = %v", err)
	}
	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("OpenReader() error = %v", err)
	}
	defer f.Close()

	rows, _ := f.GetRows(content.SheetQuestions)
	if len(rows) != 10 {
		t.Errorf("Questions rows = %d, want header + 9", len(rows))
	}
}
