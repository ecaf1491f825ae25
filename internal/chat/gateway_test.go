package chat_test

import (
	"context"
	"testing"

	"github.com/p-n-ai/f1-academy/internal/chat"
)

func TestNewGateway(t *testing.T) {
	gw := chat.NewGateway()
	if gw == nil {
		t.Fatal("NewGateway() returned nil")
	}
}

func TestGateway_RegisterChannel(t *testing.T) {
	gw := chat.NewGateway()
	mock := &chat.MockChannel{}

	gw.Register("telegram", mock)

	if !gw.HasChannel("telegram") {
		t.Error("HasChannel(telegram) should be true after Register")
	}
}

func TestGateway_HasChannel_NotRegistered(t *testing.T) {
	gw := chat.NewGateway()

	if gw.HasChannel("whatsapp") {
		t.Error("HasChannel(whatsapp) should be false when not registered")
	}
}

func TestGateway_SendMessage(t *testing.T) {
	gw := chat.NewGateway()
	mock := &chat.MockChannel{}
	gw.Register("telegram", mock)

	err := gw.Send(context.Background(), chat.OutboundMessage{
		Channel: "telegram",
		UserID:  "123",
		Text:    "Pick a module",
		Buttons: [][]chat.Button{{{Text: "F1 Basics", Data: "/module 1"}}},
	})
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	sent := mock.Sent()
	if len(sent) != 1 {
		t.Fatalf("SentMessages = %d, want 1", len(sent))
	}
	if len(sent[0].Buttons) != 1 || sent[0].Buttons[0][0].Data != "/module 1" {
		t.Errorf("Buttons = %+v", sent[0].Buttons)
	}
}

func TestGateway_SendMessage_UnknownChannel(t *testing.T) {
	gw := chat.NewGateway()

	err := gw.Send(context.Background(), chat.OutboundMessage{
		Channel: "unknown",
		UserID:  "123",
		Text:    "Hello!",
	})
	if err == nil {
		t.Error("Send() should error for unknown channel")
	}
}

func TestGateway_StopAll(t *testing.T) {
	gw := chat.NewGateway()
	a, b := &chat.MockChannel{}, &chat.MockChannel{}
	gw.Register("a", a)
	gw.Register("b", b)

	gw.StopAll()

	if !a.Stopped || !b.Stopped {
		t.Error("StopAll() should stop every channel")
	}
}

func TestInboundMessage_IsButton(t *testing.T) {
	if (chat.InboundMessage{Text: "/next"}).IsButton() {
		t.Error("typed message should not be a button press")
	}
	if !(chat.InboundMessage{Text: "/next", CallbackID: "cb1"}).IsButton() {
		t.Error("message with a callback ID should be a button press")
	}
}
