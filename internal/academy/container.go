package academy

import (
	"fmt"
	"time"

	"github.com/p-n-ai/f1-academy/internal/content"
)

// Tab is one of the three views inside a module.
type Tab string

const (
	TabLearn     Tab = "learn"
	TabVisualize Tab = "visualize"
	TabTryIt     Tab = "try_it"
)

// Tabs lists the tabs in display order.
var Tabs = []Tab{TabLearn, TabVisualize, TabTryIt}

// Label returns the tab caption.
func (t Tab) Label() string {
	switch t {
	case TabLearn:
		return "Learn"
	case TabVisualize:
		return "Visualize"
	case TabTryIt:
		return "Try It"
	default:
		return string(t)
	}
}

// ParseTab converts a tab name into a Tab.
func ParseTab(s string) (Tab, error) {
	switch Tab(s) {
	case TabLearn, TabVisualize, TabTryIt:
		return Tab(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownTab, s)
	}
}

// ContainerOptions configures a Container.
type ContainerOptions struct {
	// RevealDelay postpones the "bars revealed" display swap after the
	// Visualize tab mounts. Zero reveals immediately.
	RevealDelay time.Duration
	// Scheduler runs the reveal. Required when RevealDelay > 0.
	Scheduler Scheduler
}

// Container renders one module through the shared Learn / Visualize / Try It
// template. It owns the active tab and the module's quiz.
type Container struct {
	module         content.Module
	bundle         content.Bundle
	available      bool
	reportComplete func()

	tab  Tab
	quiz *Quiz

	sched        Scheduler
	revealDelay  time.Duration
	revealed     bool
	revealSeq    uint64
	cancelReveal func()
	closed       bool
}

// NewContainer mounts a module. bundle is nil for coming-soon modules.
// reportComplete is invoked once per completed traversal of the quiz.
func NewContainer(m content.Module, bundle *content.Bundle, reportComplete func(), opts ContainerOptions) *Container {
	c := &Container{
		module:         m,
		reportComplete: reportComplete,
		tab:            TabLearn,
		sched:          opts.Scheduler,
		revealDelay:    opts.RevealDelay,
	}
	if bundle != nil && !m.ComingSoon {
		c.bundle = *bundle
		c.available = true
	}
	return c
}

// Module returns the module header.
func (c *Container) Module() content.Module { return c.module }

// Bundle returns the static content.
func (c *Container) Bundle() content.Bundle { return c.bundle }

// Available reports whether the module has content. Coming-soon modules
// render a placeholder and accept no tab operations.
func (c *Container) Available() bool { return c.available }

// Tab returns the active tab.
func (c *Container) Tab() Tab { return c.tab }

// Revealed reports whether the Visualize bars are shown at full size.
func (c *Container) Revealed() bool { return c.revealed }

// Quiz returns the quiz, which exists once the Try It tab has been opened.
func (c *Container) Quiz() (*Quiz, bool) {
	return c.quiz, c.quiz != nil
}

// Score returns the in-progress quiz score for this module instance.
func (c *Container) Score() int {
	if c.quiz == nil {
		return 0
	}
	return c.quiz.Score()
}

// SelectTab switches the active tab. It never touches the score.
func (c *Container) SelectTab(t Tab) error {
	if _, err := ParseTab(string(t)); err != nil {
		return err
	}
	if !c.available {
		return fmt.Errorf("%w: module %d", ErrModuleUnavailable, c.module.ID)
	}
	if t == c.tab {
		return nil
	}

	if c.tab == TabVisualize {
		c.unmountVisualize()
	}
	c.tab = t
	switch t {
	case TabVisualize:
		c.mountVisualize()
	case TabTryIt:
		if c.quiz == nil {
			c.quiz = NewQuiz(c.bundle.Questions, c.complete)
		}
	}
	return nil
}

// SelectAnswer forwards to the quiz on the Try It tab.
func (c *Container) SelectAnswer(k int) error {
	q, err := c.shownQuiz()
	if err != nil {
		return err
	}
	return q.SelectAnswer(k)
}

// Advance forwards to the quiz on the Try It tab.
func (c *Container) Advance() error {
	q, err := c.shownQuiz()
	if err != nil {
		return err
	}
	q.Advance()
	return nil
}

// Retake forwards to the quiz on the Try It tab.
func (c *Container) Retake() error {
	q, err := c.shownQuiz()
	if err != nil {
		return err
	}
	q.Retake()
	return nil
}

// Close unmounts the container and cancels pending display timers.
func (c *Container) Close() {
	if c.closed {
		return
	}
	c.unmountVisualize()
	c.closed = true
}

func (c *Container) shownQuiz() (*Quiz, error) {
	if !c.available {
		return nil, fmt.Errorf("%w: module %d", ErrModuleUnavailable, c.module.ID)
	}
	if c.tab != TabTryIt || c.quiz == nil {
		return nil, fmt.Errorf("%w: open the %s tab first", ErrQuizNotShown, TabTryIt.Label())
	}
	return c.quiz, nil
}

func (c *Container) complete() {
	if c.reportComplete != nil {
		c.reportComplete()
	}
}

func (c *Container) mountVisualize() {
	c.revealed = false
	if c.revealDelay <= 0 || c.sched == nil {
		c.revealed = true
		return
	}
	c.revealSeq++
	seq := c.revealSeq
	c.cancelReveal = c.sched.AfterFunc(c.revealDelay, func() { c.reveal(seq) })
}

// reveal runs from the scheduler. A callback that lost the race against
// unmount or a later remount finds a newer sequence number and does nothing.
func (c *Container) reveal(seq uint64) {
	if c.closed || seq != c.revealSeq || c.tab != TabVisualize {
		return
	}
	c.revealed = true
	c.cancelReveal = nil
}

func (c *Container) unmountVisualize() {
	if c.cancelReveal != nil {
		c.cancelReveal()
		c.cancelReveal = nil
	}
	c.revealSeq++
	c.revealed = false
}
