package content

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"strings"

	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"

	"github.com/p-n-ai/f1-academy/internal/content/defaults"
)

// FSSource loads module files from a filesystem.
type FSSource struct {
	FS   fs.FS
	Name string // used in log lines, e.g. the directory path
}

// NewDirSource returns a source reading *.yaml module files below dir.
func NewDirSource(dir string) *FSSource {
	return &FSSource{FS: os.DirFS(dir), Name: dir}
}

// NewEmbeddedSource returns a source serving the built-in F1 content set.
func NewEmbeddedSource() *FSSource {
	return &FSSource{FS: defaults.FS, Name: "embedded"}
}

// Load walks the filesystem, validates every module file and builds the
// catalog.
func (s *FSSource) Load(_ context.Context) (*Catalog, error) {
	entries, err := LoadFS(s.FS)
	if err != nil {
		return nil, fmt.Errorf("loading content from %s: %w", s.Name, err)
	}
	c, err := NewCatalog(entries)
	if err != nil {
		return nil, fmt.Errorf("loading content from %s: %w", s.Name, err)
	}
	slog.Info("content loaded", "source", s.Name, "modules", c.Len())
	return c, nil
}

// LoadFS reads every module file in fsys. Files ending in .draft.yaml are
// skipped. Schema violations of all files are collected into a single
// *ValidationError.
func LoadFS(fsys fs.FS) ([]Entry, error) {
	var (
		entries  []Entry
		problems []Problem
	)

	err := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !isModuleFile(p) {
			return nil
		}

		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			return err
		}
		entry, fileProblems, err := parseModule(p, data)
		if err != nil {
			return err
		}
		if len(fileProblems) > 0 {
			problems = append(problems, fileProblems...)
			return nil
		}
		entries = append(entries, entry)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if len(problems) > 0 {
		// Report semantic defects of the parseable files alongside the
		// schema failures so authors see everything in one pass.
		var verr *ValidationError
		if err := Validate(entries); errors.As(err, &verr) {
			problems = append(problems, verr.Problems...)
		}
		return nil, &ValidationError{Problems: problems}
	}
	return entries, nil
}

func isModuleFile(p string) bool {
	if strings.HasSuffix(p, ".draft.yaml") || strings.HasSuffix(p, ".draft.yml") {
		return false
	}
	ext := path.Ext(p)
	return ext == ".yaml" || ext == ".yml"
}

func parseModule(source string, data []byte) (Entry, []Problem, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Entry{}, []Problem{{Source: source, Message: err.Error()}}, nil
	}
	if doc == nil {
		return Entry{}, []Problem{{Source: source, Message: "file is empty"}}, nil
	}

	problems, err := checkSchema(source, doc)
	if err != nil {
		return Entry{}, nil, err
	}
	if len(problems) > 0 {
		return Entry{}, problems, nil
	}

	var mf moduleFile
	if err := yaml.Unmarshal(data, &mf); err != nil {
		return Entry{}, []Problem{{Source: source, Message: err.Error()}}, nil
	}
	normalize(&mf)

	entry := Entry{Module: mf.Module}
	if !mf.Bundle.empty() {
		b := mf.Bundle
		entry.Bundle = &b
	}
	return entry, nil, nil
}

// normalize rewrites every authored string to NFC so that identical text
// compares equal regardless of the editor that produced it.
func normalize(mf *moduleFile) {
	n := norm.NFC.String
	mf.Title = n(mf.Title)
	mf.Description = n(mf.Description)
	for i := range mf.Learn {
		s := &mf.Learn[i]
		s.Heading = n(s.Heading)
		s.Body = n(s.Body)
		for j := range s.Items {
			it := &s.Items[j]
			it.Label = n(it.Label)
			it.Title = n(it.Title)
			it.Text = n(it.Text)
		}
	}
	v := &mf.Visualize
	v.Title = n(v.Title)
	v.Intro = n(v.Intro)
	for i := range v.Bars {
		v.Bars[i].Label = n(v.Bars[i].Label)
	}
	if v.Callout != nil {
		v.Callout.Heading = n(v.Callout.Heading)
		v.Callout.Body = n(v.Callout.Body)
	}
	for i := range mf.Questions {
		q := &mf.Questions[i]
		q.Prompt = n(q.Prompt)
		q.Explanation = n(q.Explanation)
		for j := range q.Options {
			q.Options[j].Text = n(q.Options[j].Text)
		}
	}
}
