package academy

import (
	"fmt"

	"github.com/p-n-ai/f1-academy/internal/content"
)

// Screen names the top-level view.
type Screen string

const (
	ScreenHome   Screen = "home"
	ScreenModule Screen = "module"
)

// View is the render tree derived from a Selector. Every surface (JSON,
// WebSocket, HTML, chat) draws from it.
type View struct {
	Screen   Screen       `json:"screen"`
	Progress Progress     `json:"progress"`
	Modules  []ModuleCard `json:"modules,omitempty"`
	Module   *ModuleView  `json:"module,omitempty"`
}

// Progress is the header's completed/total counter.
type Progress struct {
	Completed int `json:"completed"`
	Total     int `json:"total"`
}

// ModuleCard is one entry of the home screen grid.
type ModuleCard struct {
	ID          int    `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
	Completed   bool   `json:"completed"`
	ComingSoon  bool   `json:"coming_soon,omitempty"`
}

// ModuleView is an open module.
type ModuleView struct {
	ID        int               `json:"id"`
	Title     string            `json:"title"`
	Heading   string            `json:"heading"`
	Available bool              `json:"available"`
	Tab       Tab               `json:"tab,omitempty"`
	Tabs      []TabView         `json:"tabs,omitempty"`
	Learn     []content.Section `json:"learn,omitempty"`
	Visualize *VisualizeView    `json:"visualize,omitempty"`
	Quiz      *QuizView         `json:"quiz,omitempty"`
}

// TabView is one tab button.
type TabView struct {
	ID     Tab    `json:"id"`
	Label  string `json:"label"`
	Active bool   `json:"active"`
}

// VisualizeView is the Visualize tab.
type VisualizeView struct {
	Title    string           `json:"title"`
	Intro    string           `json:"intro,omitempty"`
	Unit     string           `json:"unit,omitempty"`
	Revealed bool             `json:"revealed"`
	Bars     []BarView        `json:"bars"`
	Callout  *content.Callout `json:"callout,omitempty"`
}

// BarView is one bar; Percent is its width relative to the chart scale.
type BarView struct {
	Label   string  `json:"label"`
	Value   float64 `json:"value"`
	Color   string  `json:"color,omitempty"`
	Percent float64 `json:"percent"`
}

// QuizView is the Try It tab.
type QuizView struct {
	Phase       Phase        `json:"phase"`
	Number      int          `json:"number"` // 1-based question number
	Total       int          `json:"total"`
	Score       int          `json:"score"`
	Prompt      string       `json:"prompt,omitempty"`
	Options     []OptionView `json:"options,omitempty"`
	Explanation string       `json:"explanation,omitempty"`
	NextLabel   string       `json:"next_label,omitempty"`
}

// OptionView is one answer button. Result is set only on the selected
// option once feedback is shown: "correct" or "incorrect".
type OptionView struct {
	Index    int    `json:"index"`
	Text     string `json:"text"`
	Selected bool   `json:"selected"`
	Result   string `json:"result,omitempty"`
	Disabled bool   `json:"disabled"`
}

// Render builds the view for the selector's current state.
func Render(s *Selector) View {
	done, total := s.Progress()
	v := View{
		Screen:   ScreenHome,
		Progress: Progress{Completed: done, Total: total},
	}

	c, ok := s.Active()
	if !ok {
		for _, m := range s.Modules() {
			v.Modules = append(v.Modules, ModuleCard{
				ID:          m.ID,
				Title:       m.Title,
				Description: m.Description,
				Icon:        m.Icon,
				Completed:   s.IsCompleted(m.ID),
				ComingSoon:  m.ComingSoon,
			})
		}
		return v
	}

	v.Screen = ScreenModule
	v.Module = renderModule(c)
	return v
}

func renderModule(c *Container) *ModuleView {
	m := c.Module()
	mv := &ModuleView{
		ID:        m.ID,
		Title:     m.Title,
		Heading:   fmt.Sprintf("Module %d: %s", m.ID, m.Title),
		Available: c.Available(),
	}
	if !c.Available() {
		return mv
	}

	mv.Tab = c.Tab()
	for _, t := range Tabs {
		mv.Tabs = append(mv.Tabs, TabView{ID: t, Label: t.Label(), Active: t == c.Tab()})
	}

	b := c.Bundle()
	switch c.Tab() {
	case TabLearn:
		mv.Learn = b.Learn
	case TabVisualize:
		mv.Visualize = renderVisualize(b.Visualize, c.Revealed())
	case TabTryIt:
		if q, ok := c.Quiz(); ok {
			mv.Quiz = renderQuiz(q)
		}
	}
	return mv
}

func renderVisualize(vz content.Visualization, revealed bool) *VisualizeView {
	vv := &VisualizeView{
		Title:    vz.Title,
		Intro:    vz.Intro,
		Unit:     vz.Unit,
		Revealed: revealed,
		Callout:  vz.Callout,
	}
	scale := vz.Scale()
	for _, bar := range vz.Bars {
		bv := BarView{Label: bar.Label, Value: bar.Value, Color: bar.Color}
		if scale > 0 {
			bv.Percent = bar.Value / scale * 100
		}
		vv.Bars = append(vv.Bars, bv)
	}
	return vv
}

func renderQuiz(q *Quiz) *QuizView {
	st := q.State()
	qv := &QuizView{
		Phase:  st.Phase,
		Number: st.Index + 1,
		Total:  st.Total,
		Score:  st.Score,
	}
	if st.Phase == PhaseCompleted {
		return qv
	}

	cur := q.Current()
	qv.Prompt = cur.Prompt
	for i, o := range cur.Options {
		ov := OptionView{
			Index:    i,
			Text:     o.Text,
			Selected: st.Selected == i,
			Disabled: st.FeedbackVisible,
		}
		if st.FeedbackVisible && ov.Selected {
			ov.Result = "incorrect"
			if o.Correct {
				ov.Result = "correct"
			}
		}
		qv.Options = append(qv.Options, ov)
	}
	if st.FeedbackVisible {
		qv.Explanation = cur.Explanation
		qv.NextLabel = "Next Question"
		if st.Index == st.Total-1 {
			qv.NextLabel = "Complete Module"
		}
	}
	return qv
}
