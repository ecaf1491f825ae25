package academy_test

import (
	"testing"
	"time"

	"github.com/p-n-ai/f1-academy/internal/content"
)

// threeQuestions has the correct answer at index 1, 0 and 2.
func threeQuestions() []content.Question {
	return []content.Question{
		{
			Prompt: "Q1",
			Options: []content.Option{
				{Text: "a"}, {Text: "b", Correct: true}, {Text: "c"},
			},
			Explanation: "E1",
		},
		{
			Prompt: "Q2",
			Options: []content.Option{
				{Text: "a", Correct: true}, {Text: "b"}, {Text: "c"},
			},
			Explanation: "E2",
		},
		{
			Prompt: "Q3",
			Options: []content.Option{
				{Text: "a"}, {Text: "b"}, {Text: "c", Correct: true},
			},
			Explanation: "E3",
		},
	}
}

func testBundle() *content.Bundle {
	return &content.Bundle{
		Learn: []content.Section{{Heading: "What is Formula 1?", Body: "Racing."}},
		Visualize: content.Visualization{
			Title: "Points",
			Max:   25,
			Bars:  []content.Bar{{Label: "1st", Value: 25}, {Label: "2nd", Value: 18}},
		},
		Questions: threeQuestions(),
	}
}

func testCatalog(t *testing.T) *content.Catalog {
	t.Helper()
	c, err := content.NewCatalog([]content.Entry{
		{Module: content.Module{ID: 1, Title: "F1 Basics"}, Bundle: testBundle()},
		{Module: content.Module{ID: 2, Title: "The Race"}, Bundle: testBundle()},
		{Module: content.Module{ID: 3, Title: "Race Strategy", ComingSoon: true}},
	})
	if err != nil {
		t.Fatalf("NewCatalog() error = %v", err)
	}
	return c
}

type scheduledTask struct {
	delay     time.Duration
	f         func()
	cancelled bool
}

// manualScheduler records scheduled callbacks and runs them on demand.
type manualScheduler struct {
	tasks []*scheduledTask
}

func (m *manualScheduler) AfterFunc(d time.Duration, f func()) func() {
	task := &scheduledTask{delay: d, f: f}
	m.tasks = append(m.tasks, task)
	return func() { task.cancelled = true }
}

// fire runs every pending callback that was not cancelled.
func (m *manualScheduler) fire() {
	tasks := m.tasks
	m.tasks = nil
	for _, task := range tasks {
		if !task.cancelled {
			task.f()
		}
	}
}

// fireAll runs every callback, including cancelled ones, the way a timer
// that already started firing would.
func (m *manualScheduler) fireAll() {
	tasks := m.tasks
	m.tasks = nil
	for _, task := range tasks {
		task.f()
	}
}
