package content

import (
	"fmt"
	"strings"
)

// Problem is a single content defect.
type Problem struct {
	Source  string // file or row the module came from, if known
	Path    string // location inside the module, e.g. "questions[1].options"
	Message string
}

func (p Problem) String() string {
	var b strings.Builder
	if p.Source != "" {
		b.WriteString(p.Source)
		b.WriteString(": ")
	}
	if p.Path != "" {
		b.WriteString(p.Path)
		b.WriteString(": ")
	}
	b.WriteString(p.Message)
	return b.String()
}

// ValidationError lists every defect found in a content set.
type ValidationError struct {
	Problems []Problem
}

func (e *ValidationError) Error() string {
	if len(e.Problems) == 1 {
		return "invalid content: " + e.Problems[0].String()
	}
	lines := make([]string, 0, len(e.Problems))
	for _, p := range e.Problems {
		lines = append(lines, "  "+p.String())
	}
	return fmt.Sprintf("invalid content (%d problems):\n%s", len(e.Problems), strings.Join(lines, "\n"))
}

// Validate checks the invariants the quiz relies on: unique positive module
// IDs, and for every module with content at least one question, each with a
// prompt, a non-empty option list and exactly one correct option.
func Validate(entries []Entry) error {
	var problems []Problem
	add := func(m Module, path, format string, args ...any) {
		problems = append(problems, Problem{
			Source:  fmt.Sprintf("module %d", m.ID),
			Path:    path,
			Message: fmt.Sprintf(format, args...),
		})
	}

	seen := make(map[int]bool, len(entries))
	for _, e := range entries {
		m := e.Module
		if m.ID <= 0 {
			add(m, "id", "must be a positive integer")
		}
		if seen[m.ID] {
			add(m, "id", "duplicate module id")
		}
		seen[m.ID] = true
		if strings.TrimSpace(m.Title) == "" {
			add(m, "title", "is required")
		}

		if m.ComingSoon {
			if e.Bundle != nil && !e.Bundle.empty() {
				add(m, "", "coming_soon module must not define content")
			}
			continue
		}
		if e.Bundle == nil {
			add(m, "", "module has no content; mark it coming_soon")
			continue
		}
		problems = append(problems, validateBundle(m, *e.Bundle)...)
	}

	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

func validateBundle(m Module, b Bundle) []Problem {
	var problems []Problem
	add := func(path, format string, args ...any) {
		problems = append(problems, Problem{
			Source:  fmt.Sprintf("module %d", m.ID),
			Path:    path,
			Message: fmt.Sprintf(format, args...),
		})
	}

	if len(b.Learn) == 0 {
		add("learn", "at least one section is required")
	}
	for i, s := range b.Learn {
		if strings.TrimSpace(s.Heading) == "" {
			add(fmt.Sprintf("learn[%d].heading", i), "is required")
		}
	}

	if len(b.Visualize.Bars) == 0 {
		add("visualize.bars", "at least one bar is required")
	}
	for i, bar := range b.Visualize.Bars {
		if bar.Value < 0 {
			add(fmt.Sprintf("visualize.bars[%d].value", i), "must not be negative")
		}
	}
	if b.Visualize.Max < 0 {
		add("visualize.max", "must not be negative")
	}

	if len(b.Questions) == 0 {
		add("questions", "at least one question is required")
	}
	for i, q := range b.Questions {
		path := fmt.Sprintf("questions[%d]", i)
		if strings.TrimSpace(q.Prompt) == "" {
			add(path+".prompt", "is required")
		}
		if len(q.Options) == 0 {
			add(path+".options", "must not be empty")
			continue
		}
		correct := 0
		for j, o := range q.Options {
			if strings.TrimSpace(o.Text) == "" {
				add(fmt.Sprintf("%s.options[%d].text", path, j), "is required")
			}
			if o.Correct {
				correct++
			}
		}
		if correct != 1 {
			add(path+".options", "exactly one option must be correct, found %d", correct)
		}
	}
	return problems
}

func (b Bundle) empty() bool {
	return len(b.Learn) == 0 && len(b.Visualize.Bars) == 0 && len(b.Questions) == 0
}
