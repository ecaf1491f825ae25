package content_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/p-n-ai/f1-academy/internal/content"
)

const validModule = `
id: 7
title: Flags
description: Learn the flags
icon: flag
learn:
  - heading: Yellow
    body: Slow down.
visualize:
  title: Penalty seconds
  bars:
    - {label: Track limits, value: 5}
questions:
  - prompt: What does a yellow flag mean?
    options:
      - {text: Danger ahead, correct: true}
      - {text: Go faster, correct: false}
    explanation: Yellow means danger.
`

func TestEmbeddedSource_Load(t *testing.T) {
	catalog, err := content.NewEmbeddedSource().Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	modules := catalog.Modules()
	if len(modules) != 3 {
		t.Fatalf("Modules() = %d, want 3", len(modules))
	}
	for i, m := range modules {
		if m.ID != i+1 {
			t.Errorf("modules[%d].ID = %d, want %d", i, m.ID, i+1)
		}
		b, ok := catalog.Bundle(m.ID)
		if !ok {
			t.Errorf("module %d has no bundle", m.ID)
			continue
		}
		if len(b.Questions) != 3 {
			t.Errorf("module %d has %d questions, want 3", m.ID, len(b.Questions))
		}
	}

	first, _ := catalog.Module(1)
	if first.Title != "F1 Basics" {
		t.Errorf("module 1 title = %q, want F1 Basics", first.Title)
	}
	b, _ := catalog.Bundle(1)
	if b.Visualize.Scale() != 25 || len(b.Visualize.Bars) != 10 {
		t.Errorf("points chart = scale %v, %d bars", b.Visualize.Scale(), len(b.Visualize.Bars))
	}
	if got := b.Questions[0].CorrectIndex(); got != 1 {
		t.Errorf("Q1 correct index = %d, want 1 (Driver B)", got)
	}

	race, _ := catalog.Bundle(2)
	opt := race.Questions[1].Options[2]
	if !opt.Correct || opt.Text != "The rest of the field is slowed, so less track position is lost" {
		t.Errorf("module 2 Q2 option C = %+v, want the full comma-bearing answer", opt)
	}
}

func TestDirSource_Load(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "modules")
	os.MkdirAll(sub, 0o755)
	os.WriteFile(filepath.Join(sub, "07-flags.yaml"), []byte(validModule), 0o644)
	os.WriteFile(filepath.Join(sub, "08-wip.draft.yaml"), []byte("id: 8\ntitle: [broken"), 0o644)
	os.WriteFile(filepath.Join(sub, "README.md"), []byte("# notes"), 0o644)

	catalog, err := content.NewDirSource(dir).Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if catalog.Len() != 1 {
		t.Fatalf("Len() = %d, want 1 (drafts and markdown skipped)", catalog.Len())
	}
	m, ok := catalog.Module(7)
	if !ok || m.Title != "Flags" {
		t.Errorf("Module(7) = %+v, %v", m, ok)
	}
}

func TestDirSource_MissingDir(t *testing.T) {
	_, err := content.NewDirSource(filepath.Join(t.TempDir(), "nope")).Load(context.Background())
	if err == nil {
		t.Fatal("Load() should fail for a missing directory")
	}
}

func TestLoadFS_ComingSoon(t *testing.T) {
	fsys := fstest.MapFS{
		"01.yaml": {Data: []byte(validModule)},
		"02.yaml": {Data: []byte("id: 2\ntitle: The Race\ndescription: Soon\ncoming_soon: true\n")},
	}

	entries, err := content.LoadFS(fsys)
	if err != nil {
		t.Fatalf("LoadFS() error = %v", err)
	}
	catalog, err := content.NewCatalog(entries)
	if err != nil {
		t.Fatalf("NewCatalog() error = %v", err)
	}
	m, _ := catalog.Module(2)
	if !m.ComingSoon {
		t.Error("module 2 should be coming soon")
	}
	if _, ok := catalog.Bundle(2); ok {
		t.Error("coming-soon module should have no bundle")
	}
}

func TestLoadFS_SchemaViolations(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{
			name: "typo-in-correct",
			doc:  strings.Replace(validModule, "{text: Danger ahead, correct: true}", "{text: Danger ahead, corect: true}", 1),
			want: "corect",
		},
		{
			name: "string-id",
			doc:  strings.Replace(validModule, "id: 7", "id: seven", 1),
			want: "id",
		},
		{
			name: "empty-options",
			doc: `
id: 9
title: Broken
questions:
  - prompt: Anything?
    options: []
    explanation: none
`,
			want: "options",
		},
		{
			name: "not-yaml",
			doc:  "id: [1",
			want: "yaml",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := content.LoadFS(fstest.MapFS{"m.yaml": {Data: []byte(tt.doc)}})
			var verr *content.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("LoadFS() error = %v, want *ValidationError", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q should mention %q", err, tt.want)
			}
		})
	}
}

func TestLoadFS_NormalizesToNFC(t *testing.T) {
	decomposed := "Pe\u0301rez"
	doc := strings.Replace(validModule, "title: Flags", "title: "+decomposed, 1)

	entries, err := content.LoadFS(fstest.MapFS{"m.yaml": {Data: []byte(doc)}})
	if err != nil {
		t.Fatalf("LoadFS() error = %v", err)
	}
	if got := entries[0].Module.Title; got != "P\u00e9rez" {
		t.Errorf("Title = %q, want NFC form", got)
	}
}
