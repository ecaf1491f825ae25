package academy

import (
	"fmt"

	"github.com/p-n-ai/f1-academy/internal/content"
)

// Phase is the state of the quiz state machine.
type Phase int

const (
	// PhaseAnswering: no answer chosen yet for the current question.
	PhaseAnswering Phase = iota
	// PhaseFeedback: answer chosen, explanation and next control shown.
	PhaseFeedback
	// PhaseCompleted: the last question was advanced past; final score shown.
	PhaseCompleted
)

func (p Phase) String() string {
	switch p {
	case PhaseAnswering:
		return "answering"
	case PhaseFeedback:
		return "feedback"
	case PhaseCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

// MarshalText encodes the phase by name.
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText decodes a phase name written by MarshalText.
func (p *Phase) UnmarshalText(text []byte) error {
	for _, c := range []Phase{PhaseAnswering, PhaseFeedback, PhaseCompleted} {
		if string(text) == c.String() {
			*p = c
			return nil
		}
	}
	return fmt.Errorf("unknown quiz phase %q", text)
}

// noAnswer marks QuizState.Selected when nothing is chosen.
const noAnswer = -1

// QuizState is a read-only snapshot of a quiz.
type QuizState struct {
	Phase           Phase `json:"phase"`
	Index           int   `json:"index"`
	Selected        int   `json:"selected"` // -1 when no answer is chosen
	FeedbackVisible bool  `json:"feedback_visible"`
	Score           int   `json:"score"`
	Total           int   `json:"total"`
}

// HasSelection reports whether an answer is chosen for the current question.
func (s QuizState) HasSelection() bool {
	return s.Selected != noAnswer
}

// Quiz drives one question at a time through answer selection, feedback and
// advancement. It is not safe for concurrent use.
type Quiz struct {
	questions  []content.Question
	onComplete func()

	index     int
	selected  int
	feedback  bool
	completed bool
	score     int
}

// NewQuiz creates a quiz in Answering(0). questions must be non-empty and
// validated; onComplete may be nil.
func NewQuiz(questions []content.Question, onComplete func()) *Quiz {
	if len(questions) == 0 {
		panic("academy: quiz needs at least one question")
	}
	return &Quiz{
		questions:  questions,
		onComplete: onComplete,
		selected:   noAnswer,
	}
}

// Phase returns the current state.
func (q *Quiz) Phase() Phase {
	switch {
	case q.completed:
		return PhaseCompleted
	case q.feedback:
		return PhaseFeedback
	default:
		return PhaseAnswering
	}
}

// Current returns the question at the current index.
func (q *Quiz) Current() content.Question {
	return q.questions[q.index]
}

// Total returns the number of questions.
func (q *Quiz) Total() int {
	return len(q.questions)
}

// Score returns the number of questions answered correctly so far.
func (q *Quiz) Score() int {
	return q.score
}

// State returns a snapshot of the quiz.
func (q *Quiz) State() QuizState {
	return QuizState{
		Phase:           q.Phase(),
		Index:           q.index,
		Selected:        q.selected,
		FeedbackVisible: q.feedback,
		Score:           q.score,
		Total:           len(q.questions),
	}
}

// SelectAnswer answers the current question with option k and shows
// feedback. The answer is scored once; outside Answering the call is inert.
func (q *Quiz) SelectAnswer(k int) error {
	if q.Phase() != PhaseAnswering {
		return nil
	}
	options := q.questions[q.index].Options
	if k < 0 || k >= len(options) {
		return fmt.Errorf("%w: option %d, question %d has %d options", ErrOptionOutOfRange, k, q.index, len(options))
	}

	q.selected = k
	q.feedback = true
	if options[k].Correct {
		q.score++
	}
	return nil
}

// Advance moves from Feedback to the next question, or on the last question
// reports completion and enters Completed. Outside Feedback it is inert.
func (q *Quiz) Advance() {
	if q.Phase() != PhaseFeedback {
		return
	}
	if q.index < len(q.questions)-1 {
		q.index++
		q.selected = noAnswer
		q.feedback = false
		return
	}

	if q.onComplete != nil {
		q.onComplete()
	}
	q.completed = true
}

// Retake restarts the quiz from the first question with a zero score,
// whatever the current state.
func (q *Quiz) Retake() {
	q.index = 0
	q.selected = noAnswer
	q.feedback = false
	q.completed = false
	q.score = 0
}
