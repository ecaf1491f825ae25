package agent

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/p-n-ai/f1-academy/internal/academy"
	"github.com/p-n-ai/f1-academy/internal/chat"
)

const barWidth = 12

// renderView draws v as chat text plus inline buttons. Button data is the
// command the press stands for.
func renderView(v academy.View) (string, [][]chat.Button) {
	if v.Screen != academy.ScreenModule || v.Module == nil {
		return renderHome(v)
	}
	return renderModule(v.Module)
}

func renderProgress(v academy.View) string {
	return fmt.Sprintf("%d / %d modules completed", v.Progress.Completed, v.Progress.Total)
}

func renderHome(v academy.View) (string, [][]chat.Button) {
	var b strings.Builder
	b.WriteString("F1 Academy | " + renderProgress(v) + "\n")

	var rows [][]chat.Button
	for _, m := range v.Modules {
		status := ""
		switch {
		case m.Completed:
			status = " ✅"
		case m.ComingSoon:
			status = " (coming soon)"
		}
		fmt.Fprintf(&b, "\n%d. %s%s\n", m.ID, m.Title, status)
		if m.Description != "" {
			fmt.Fprintf(&b, "   %s\n", m.Description)
		}
		rows = append(rows, []chat.Button{{
			Text: fmt.Sprintf("%d. %s", m.ID, m.Title),
			Data: "/module " + strconv.Itoa(m.ID),
		}})
	}
	b.WriteString("\nSend a module number to start.")
	return b.String(), rows
}

func renderModule(m *academy.ModuleView) (string, [][]chat.Button) {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", m.Heading)

	home := []chat.Button{{Text: "⬅ Modules", Data: "/home"}}
	if !m.Available {
		b.WriteString("\nThis module is coming soon.")
		return b.String(), [][]chat.Button{home}
	}

	var tabs []chat.Button
	for _, t := range m.Tabs {
		label := t.Label
		if t.Active {
			label = "• " + label
		}
		tabs = append(tabs, chat.Button{Text: label, Data: tabCommand(t.ID)})
	}

	var extra [][]chat.Button
	switch {
	case m.Learn != nil:
		writeLearn(&b, m)
	case m.Visualize != nil:
		writeVisualize(&b, m.Visualize)
	case m.Quiz != nil:
		extra = writeQuiz(&b, m.Quiz)
	}

	rows := append(extra, tabs, home)
	return strings.TrimRight(b.String(), "\n"), rows
}

func tabCommand(t academy.Tab) string {
	if t == academy.TabTryIt {
		return "/tryit"
	}
	return "/" + string(t)
}

func writeLearn(b *strings.Builder, m *academy.ModuleView) {
	for _, s := range m.Learn {
		fmt.Fprintf(b, "\n%s\n", strings.ToUpper(s.Heading))
		if s.Body != "" {
			fmt.Fprintf(b, "%s\n", s.Body)
		}
		for _, it := range s.Items {
			b.WriteString("• ")
			if it.Label != "" {
				b.WriteString(it.Label + ": ")
			}
			b.WriteString(it.Title)
			if it.Text != "" {
				b.WriteString(". " + it.Text)
			}
			b.WriteString("\n")
		}
	}
}

// writeVisualize draws the chart at full height. Chat replies are static, so
// the reveal delay does not apply.
func writeVisualize(b *strings.Builder, vz *academy.VisualizeView) {
	fmt.Fprintf(b, "\n%s\n", vz.Title)
	if vz.Intro != "" {
		fmt.Fprintf(b, "%s\n", vz.Intro)
	}
	b.WriteString("\n")

	width := 0
	for _, bar := range vz.Bars {
		width = max(width, len([]rune(bar.Label)))
	}
	for _, bar := range vz.Bars {
		fmt.Fprintf(b, "%-*s %s %s\n", width, bar.Label, drawBar(bar.Percent), formatValue(bar.Value, vz.Unit))
	}
	if vz.Callout != nil {
		fmt.Fprintf(b, "\n💡 %s\n%s\n", vz.Callout.Heading, vz.Callout.Body)
	}
}

func drawBar(percent float64) string {
	filled := int(math.Round(percent / 100 * barWidth))
	filled = min(max(filled, 0), barWidth)
	return strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)
}

func formatValue(v float64, unit string) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if unit != "" {
		s += " " + unit
	}
	return s
}

func writeQuiz(b *strings.Builder, q *academy.QuizView) [][]chat.Button {
	if q.Phase == academy.PhaseCompleted {
		fmt.Fprintf(b, "\n🏁 Quiz complete!\nYou scored %d out of %d.\n", q.Score, q.Total)
		return [][]chat.Button{{{Text: "Retake Quiz", Data: "/retake"}}}
	}

	fmt.Fprintf(b, "\nQuestion %d of %d | Score %d\n\n%s\n\n", q.Number, q.Total, q.Score, q.Prompt)

	var answers []chat.Button
	for _, o := range q.Options {
		letter := optionLetter(o.Index)
		mark := ""
		switch o.Result {
		case "correct":
			mark = " ✅"
		case "incorrect":
			mark = " ❌"
		}
		fmt.Fprintf(b, "%s. %s%s\n", letter, o.Text, mark)
		answers = append(answers, chat.Button{Text: letter, Data: fmt.Sprintf("/answer %d %s", q.Number, letter)})
	}

	if q.NextLabel == "" {
		return [][]chat.Button{answers}
	}
	if q.Explanation != "" {
		fmt.Fprintf(b, "\n%s\n", q.Explanation)
	}
	return [][]chat.Button{{{Text: q.NextLabel, Data: "/next"}}}
}

func optionLetter(i int) string {
	if i < 0 || i >= 26 {
		return strconv.Itoa(i + 1)
	}
	return string(rune('A' + i))
}
