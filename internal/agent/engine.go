// Package agent drives viewer sessions from chat messages. Each chat
// conversation owns one session; commands become session actions and the
// resulting view is rendered as text with inline buttons.
package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/p-n-ai/f1-academy/internal/academy"
	"github.com/p-n-ai/f1-academy/internal/chat"
	"github.com/p-n-ai/f1-academy/internal/session"
)

// EngineConfig holds dependencies for the chat engine.
type EngineConfig struct {
	Registry *session.Registry
}

// Engine is the chat command processor.
type Engine struct {
	registry *session.Registry
}

// NewEngine creates a new chat engine.
func NewEngine(cfg EngineConfig) (*Engine, error) {
	if cfg.Registry == nil {
		return nil, fmt.Errorf("agent: session registry is required")
	}
	return &Engine{registry: cfg.Registry}, nil
}

// Commands returns the bot command menu.
func Commands() []chat.BotCommand {
	return []chat.BotCommand{
		{Command: "start", Description: "Start over and list the modules"},
		{Command: "home", Description: "Back to the module list"},
		{Command: "module", Description: "Open a module, e.g. /module 2"},
		{Command: "learn", Description: "Show the Learn tab"},
		{Command: "visualize", Description: "Show the Visualize tab"},
		{Command: "tryit", Description: "Take the quiz"},
		{Command: "next", Description: "Next question"},
		{Command: "retake", Description: "Retake the quiz"},
		{Command: "progress", Description: "Show completed modules"},
		{Command: "help", Description: "List commands"},
	}
}

const helpText = `Commands:
/start - start over
/home - module list
/module N - open module N
/learn, /visualize, /tryit - switch tab
/answer A - answer the current question (or just send A, B, 1, 2...)
/next - next question
/retake - retake the quiz
/progress - completed modules`

// SessionKey returns the registry ID used for a chat conversation.
func SessionKey(msg chat.InboundMessage) string {
	return msg.Channel + ":" + msg.UserID
}

// ProcessMessage handles an incoming message and returns the reply.
func (e *Engine) ProcessMessage(_ context.Context, msg chat.InboundMessage) (chat.OutboundMessage, error) {
	slog.Info("processing message",
		"channel", msg.Channel,
		"user_id", msg.UserID,
		"button", msg.IsButton(),
	)

	reply := chat.OutboundMessage{Channel: msg.Channel, UserID: msg.UserID}
	key := SessionKey(msg)
	cmd, arg := parseCommand(msg.Text)

	switch cmd {
	case "start":
		if err := e.registry.Delete(key); err != nil && !errors.Is(err, session.ErrNotFound) {
			return reply, fmt.Errorf("resetting chat session: %w", err)
		}
		s, _ := e.registry.GetOrCreate(key)
		reply.Text, reply.Buttons = renderView(s.View())
		reply.Text = greeting(msg) + "\n\n" + reply.Text
		return reply, nil
	case "help":
		reply.Text = helpText
		return reply, nil
	}

	s, created := e.registry.GetOrCreate(key)
	if created {
		slog.Debug("chat session created", "session_id", key)
	}

	if cmd == "progress" {
		reply.Text = renderProgress(s.View())
		return reply, nil
	}

	action, err := toAction(cmd, arg, s.View())
	if err != nil {
		reply.Text = err.Error() + "\n\nSend /help for the list of commands."
		return reply, nil
	}

	v, err := s.Apply(action)
	if errors.Is(err, session.ErrClosed) {
		// Expired between lookup and apply; retry once on a fresh session.
		s, _ = e.registry.GetOrCreate(key)
		v, err = s.Apply(action)
	}
	text, buttons := renderView(v)
	reply.Text, reply.Buttons = text, buttons
	if err != nil {
		note, ok := userError(err)
		if !ok {
			return reply, fmt.Errorf("applying %s: %w", action.Type, err)
		}
		reply.Text = note + "\n\n" + text
	}
	return reply, nil
}

// parseCommand splits "/cmd@bot arg" into its lower-cased command and
// argument. Plain text yields an empty command and the trimmed text.
func parseCommand(text string) (cmd, arg string) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return "", text
	}
	head, rest, _ := strings.Cut(text[1:], " ")
	head, _, _ = strings.Cut(head, "@")
	return strings.ToLower(head), strings.TrimSpace(rest)
}

// hint is a reply shown to the user for input that maps to no action.
type hint string

func (h hint) Error() string { return string(h) }

// toAction maps a command to a session action. Bare text is read against the
// current screen: a module number on the home screen, an answer in the quiz.
func toAction(cmd, arg string, v academy.View) (session.Action, error) {
	switch cmd {
	case "home":
		return session.Action{Type: session.ActionGoHome}, nil
	case "module":
		id, err := strconv.Atoi(arg)
		if err != nil {
			return session.Action{}, hint("Usage: /module N")
		}
		return session.Action{Type: session.ActionSelectModule, Module: id}, nil
	case "learn":
		return session.Action{Type: session.ActionSelectTab, Tab: string(academy.TabLearn)}, nil
	case "visualize":
		return session.Action{Type: session.ActionSelectTab, Tab: string(academy.TabVisualize)}, nil
	case "tryit", "try_it", "quiz":
		return session.Action{Type: session.ActionSelectTab, Tab: string(academy.TabTryIt)}, nil
	case "answer":
		return answerAction(arg, v)
	case "next":
		return session.Action{Type: session.ActionAdvance}, nil
	case "retake":
		return session.Action{Type: session.ActionRetake}, nil
	case "":
	default:
		return session.Action{}, hint("Unknown command: /" + cmd)
	}

	if v.Screen == academy.ScreenHome {
		if id, err := strconv.Atoi(arg); err == nil {
			return session.Action{Type: session.ActionSelectModule, Module: id}, nil
		}
		return session.Action{}, hint("Send a module number to start.")
	}
	if v.Module != nil && v.Module.Quiz != nil {
		if k, ok := parseOption(arg); ok {
			return session.Answer(k), nil
		}
	}
	return session.Action{}, hint(fmt.Sprintf("I didn't understand %q.", arg))
}

// answerAction reads "/answer A" as typed by the user, or "/answer N A" as
// sent by an answer button, where N is the 1-based question the button was
// drawn for. A button for any question other than the one awaiting an answer
// is rejected so that old messages cannot score the current question.
func answerAction(arg string, v academy.View) (session.Action, error) {
	fields := strings.Fields(arg)
	if len(fields) == 2 {
		n, err := strconv.Atoi(fields[0])
		if err != nil {
			return session.Action{}, hint("Usage: /answer A")
		}
		q := currentQuiz(v)
		if q == nil || q.Number != n || q.Phase != academy.PhaseAnswering {
			return session.Action{}, hint("That question is no longer active.")
		}
		arg = fields[1]
	}
	k, ok := parseOption(arg)
	if !ok {
		return session.Action{}, hint("Usage: /answer A")
	}
	return session.Answer(k), nil
}

func currentQuiz(v academy.View) *academy.QuizView {
	if v.Screen != academy.ScreenModule || v.Module == nil {
		return nil
	}
	return v.Module.Quiz
}

// parseOption reads a 1-based number or a letter into a 0-based option index.
func parseOption(s string) (int, bool) {
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "."))
	if n, err := strconv.Atoi(s); err == nil {
		return n - 1, n > 0
	}
	if len(s) == 1 {
		c := s[0] | 0x20 // lower-case ASCII
		if c >= 'a' && c <= 'z' {
			return int(c - 'a'), true
		}
	}
	return 0, false
}

// userError turns a session precondition failure into a chat reply.
func userError(err error) (string, bool) {
	switch {
	case errors.Is(err, academy.ErrUnknownModule):
		return "There is no such module.", true
	case errors.Is(err, academy.ErrModuleUnavailable):
		return "This module is coming soon.", true
	case errors.Is(err, academy.ErrNoActiveModule):
		return "Open a module first.", true
	case errors.Is(err, academy.ErrQuizNotShown):
		return "Open the Try It tab first with /tryit.", true
	case errors.Is(err, academy.ErrOptionOutOfRange):
		return "That option does not exist.", true
	case errors.Is(err, academy.ErrUnknownTab), errors.Is(err, session.ErrUnknownAction):
		return "I didn't understand that.", true
	}
	return "", false
}

func greeting(msg chat.InboundMessage) string {
	name := msg.FirstName
	if name == "" {
		name = msg.Username
	}
	if name == "" {
		name = "there"
	}
	return fmt.Sprintf("Hi %s! Welcome to F1 Academy.", name)
}
