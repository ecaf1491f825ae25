package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	telegramMaxMessageLen = 4096
	telegramAPIBase       = "https://api.telegram.org"
)

// BotCommand is one entry of the bot's command menu.
type BotCommand struct {
	Command     string `json:"command"`
	Description string `json:"description"`
}

// TelegramChannel implements the Channel interface for Telegram Bot API.
type TelegramChannel struct {
	token    string
	baseURL  string
	client   *http.Client
	offset   int
	stop     chan struct{}
	stopOnce sync.Once
	commands []BotCommand
}

// TelegramOption customizes a TelegramChannel.
type TelegramOption func(*TelegramChannel)

// WithAPIBase points the channel at another Bot API server.
func WithAPIBase(base string) TelegramOption {
	return func(t *TelegramChannel) {
		t.baseURL = strings.TrimRight(base, "/") + "/bot" + t.token
	}
}

// WithCommands sets the command menu published on Start.
func WithCommands(cmds []BotCommand) TelegramOption {
	return func(t *TelegramChannel) { t.commands = cmds }
}

// NewTelegramChannel creates a Telegram channel adapter.
func NewTelegramChannel(token string, opts ...TelegramOption) (*TelegramChannel, error) {
	if token == "" {
		return nil, fmt.Errorf("telegram bot token is required (ACADEMY_TELEGRAM_BOT_TOKEN)")
	}
	t := &TelegramChannel{
		token:   token,
		baseURL: telegramAPIBase + "/bot" + token,
		client: &http.Client{
			Timeout: 60 * time.Second,
		},
		stop: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

func (t *TelegramChannel) SendTyping(ctx context.Context, userID string) error {
	params := url.Values{
		"chat_id": {userID},
		"action":  {"typing"},
	}
	resp, err := t.postForm(ctx, "/sendChatAction", params)
	if err != nil {
		return fmt.Errorf("sending typing indicator: %w", err)
	}
	_ = resp.Body.Close()
	return nil
}

// SendMessage sends msg, split to fit Telegram's length limit. Buttons are
// attached to the last part.
func (t *TelegramChannel) SendMessage(ctx context.Context, userID string, msg OutboundMessage) error {
	parts := SplitMessage(msg.Text, telegramMaxMessageLen)

	for i, part := range parts {
		req := tgSendMessage{
			ChatID:    userID,
			Text:      part,
			ParseMode: msg.ParseMode,
		}
		if i == len(parts)-1 && len(msg.Buttons) > 0 {
			req.ReplyMarkup = inlineKeyboard(msg.Buttons)
		}

		status, err := t.postJSON(ctx, "/sendMessage", req)
		if err != nil {
			return fmt.Errorf("sending Telegram message: %w", err)
		}
		if status == http.StatusOK {
			continue
		}
		// If Markdown parsing fails, retry without parse mode
		if req.ParseMode != "" && status == http.StatusBadRequest {
			slog.Warn("Telegram markdown parse failed, retrying plain")
			req.ParseMode = ""
			status, err = t.postJSON(ctx, "/sendMessage", req)
			if err != nil {
				return fmt.Errorf("sending Telegram message (retry): %w", err)
			}
			if status != http.StatusOK {
				return fmt.Errorf("telegram API error %d on retry", status)
			}
			continue
		}
		return fmt.Errorf("telegram API error %d", status)
	}

	return nil
}

func (t *TelegramChannel) Start(ctx context.Context, handler func(InboundMessage)) error {
	if len(t.commands) > 0 {
		if err := t.syncCommands(); err != nil {
			slog.Warn("Telegram setMyCommands failed", "error", err)
		}
	}
	go t.pollLoop(ctx, handler)
	return nil
}

func (t *TelegramChannel) Stop() error {
	t.stopOnce.Do(func() { close(t.stop) })
	return nil
}

func (t *TelegramChannel) pollLoop(ctx context.Context, handler func(InboundMessage)) {
	slog.Info("Telegram long-polling started")
	queue := newChatQueue(handler)
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.stop:
			return
		default:
			updates, err := t.getUpdates(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				slog.Error("Telegram getUpdates error", "error", err)
				select {
				case <-time.After(5 * time.Second):
				case <-ctx.Done():
					return
				case <-t.stop:
					return
				}
				continue
			}

			for _, u := range updates {
				t.offset = u.UpdateID + 1
				msg, ok := mapTelegramInbound(u)
				if !ok {
					continue
				}
				if msg.IsButton() {
					t.answerCallback(ctx, msg.CallbackID)
				}
				queue.push(msg)
			}
		}
	}
}

func (t *TelegramChannel) getUpdates(ctx context.Context) ([]tgUpdate, error) {
	params := url.Values{
		"offset":          {strconv.Itoa(t.offset)},
		"timeout":         {"30"},
		"allowed_updates": {`["message","callback_query"]`},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.baseURL+"/getUpdates?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var result struct {
		OK     bool       `json:"ok"`
		Result []tgUpdate `json:"result"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, err
	}

	if !result.OK {
		return nil, fmt.Errorf("telegram API returned ok=false")
	}

	return result.Result, nil
}

// answerCallback stops the client's loading spinner on a pressed button.
func (t *TelegramChannel) answerCallback(ctx context.Context, id string) {
	resp, err := t.postForm(ctx, "/answerCallbackQuery", url.Values{"callback_query_id": {id}})
	if err != nil {
		slog.Debug("Telegram answerCallbackQuery failed", "error", err)
		return
	}
	_ = resp.Body.Close()
}

// syncCommands publishes the command menu shown by Telegram clients.
func (t *TelegramChannel) syncCommands() error {
	payload, err := json.Marshal(t.commands)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	resp, err := t.postForm(ctx, "/setMyCommands", url.Values{"commands": {string(payload)}})
	if err != nil {
		return fmt.Errorf("telegram setMyCommands: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram API error %d", resp.StatusCode)
	}
	return nil
}

func (t *TelegramChannel) postForm(ctx context.Context, method string, params url.Values) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+method, strings.NewReader(params.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return t.client.Do(req)
}

func (t *TelegramChannel) postJSON(ctx context.Context, method string, v any) (int, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return 0, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+method, bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := t.client.Do(req)
	if err != nil {
		return 0, err
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
	return resp.StatusCode, nil
}

// Telegram API types (minimal)
type tgUpdate struct {
	UpdateID      int              `json:"update_id"`
	Message       *tgMessage       `json:"message"`
	CallbackQuery *tgCallbackQuery `json:"callback_query"`
}

type tgMessage struct {
	Text string `json:"text"`
	Chat tgChat `json:"chat"`
	From tgUser `json:"from"`
}

type tgCallbackQuery struct {
	ID      string     `json:"id"`
	From    tgUser     `json:"from"`
	Message *tgMessage `json:"message"`
	Data    string     `json:"data"`
}

type tgChat struct {
	ID int64 `json:"id"`
}

type tgUser struct {
	ID           int64  `json:"id"`
	Username     string `json:"username"`
	FirstName    string `json:"first_name"`
	LanguageCode string `json:"language_code"`
}

type tgSendMessage struct {
	ChatID      string                  `json:"chat_id"`
	Text        string                  `json:"text"`
	ParseMode   string                  `json:"parse_mode,omitempty"`
	ReplyMarkup *tgInlineKeyboardMarkup `json:"reply_markup,omitempty"`
}

type tgInlineKeyboardMarkup struct {
	InlineKeyboard [][]tgInlineButton `json:"inline_keyboard"`
}

type tgInlineButton struct {
	Text         string `json:"text"`
	CallbackData string `json:"callback_data"`
}

func inlineKeyboard(rows [][]Button) *tgInlineKeyboardMarkup {
	kb := &tgInlineKeyboardMarkup{}
	for _, row := range rows {
		var out []tgInlineButton
		for _, b := range row {
			out = append(out, tgInlineButton{Text: b.Text, CallbackData: b.Data})
		}
		if len(out) > 0 {
			kb.InlineKeyboard = append(kb.InlineKeyboard, out)
		}
	}
	return kb
}

// SplitMessage splits text into chunks that fit Telegram's max message length.
func SplitMessage(text string, maxLen int) []string {
	if text == "" {
		return nil
	}
	if len(text) <= maxLen {
		return []string{text}
	}

	var parts []string
	for len(text) > 0 {
		if len(text) <= maxLen {
			parts = append(parts, text)
			break
		}
		// Find last newline or space within limit
		cutAt := maxLen
		if idx := strings.LastIndex(text[:maxLen], "\n"); idx > 0 {
			cutAt = idx + 1
		} else if idx := strings.LastIndex(text[:maxLen], " "); idx > 0 {
			cutAt = idx + 1
		}
		parts = append(parts, text[:cutAt])
		text = text[cutAt:]
	}
	return parts
}

func mapTelegramInbound(u tgUpdate) (InboundMessage, bool) {
	if cq := u.CallbackQuery; cq != nil {
		if cq.Data == "" || cq.Message == nil {
			return InboundMessage{}, false
		}
		return InboundMessage{
			Channel:    "telegram",
			UserID:     strconv.FormatInt(cq.Message.Chat.ID, 10),
			ExternalID: strconv.FormatInt(cq.From.ID, 10),
			Text:       cq.Data,
			CallbackID: cq.ID,
			Username:   cq.From.Username,
			FirstName:  cq.From.FirstName,
			Language:   cq.From.LanguageCode,
		}, true
	}

	if u.Message == nil {
		return InboundMessage{}, false
	}
	text := strings.TrimSpace(u.Message.Text)
	if text == "" {
		return InboundMessage{}, false
	}

	return InboundMessage{
		Channel:    "telegram",
		UserID:     strconv.FormatInt(u.Message.Chat.ID, 10),
		ExternalID: strconv.FormatInt(u.Message.From.ID, 10),
		Text:       text,
		Username:   u.Message.From.Username,
		FirstName:  u.Message.From.FirstName,
		Language:   u.Message.From.LanguageCode,
	}, true
}
