package chat

import "testing"

func TestMapTelegramInbound_TextMessage(t *testing.T) {
	msg, ok := mapTelegramInbound(tgUpdate{
		UpdateID: 1,
		Message: &tgMessage{
			Text: "  /module 2 ",
			Chat: tgChat{ID: 123},
			From: tgUser{ID: 456, Username: "u1", FirstName: "Lewis"},
		},
	})
	if !ok {
		t.Fatal("expected text update to map")
	}
	if msg.Text != "/module 2" {
		t.Fatalf("Text = %q, want /module 2", msg.Text)
	}
	if msg.UserID != "123" || msg.ExternalID != "456" {
		t.Fatalf("UserID/ExternalID = %q/%q", msg.UserID, msg.ExternalID)
	}
	if msg.IsButton() {
		t.Fatal("text message should not be a button press")
	}
}

func TestMapTelegramInbound_CallbackQuery(t *testing.T) {
	msg, ok := mapTelegramInbound(tgUpdate{
		UpdateID: 2,
		CallbackQuery: &tgCallbackQuery{
			ID:      "cb-7",
			Data:    "/answer 1",
			From:    tgUser{ID: 456},
			Message: &tgMessage{Chat: tgChat{ID: 123}},
		},
	})
	if !ok {
		t.Fatal("expected callback update to map")
	}
	if msg.Text != "/answer 1" || msg.CallbackID != "cb-7" || msg.UserID != "123" {
		t.Fatalf("msg = %+v", msg)
	}
}

func TestMapTelegramInbound_Ignored(t *testing.T) {
	tests := []struct {
		name string
		u    tgUpdate
	}{
		{"no-message", tgUpdate{UpdateID: 3}},
		{"blank-text", tgUpdate{UpdateID: 4, Message: &tgMessage{Text: "   ", Chat: tgChat{ID: 1}}}},
		{"callback-without-data", tgUpdate{UpdateID: 5, CallbackQuery: &tgCallbackQuery{ID: "x", Message: &tgMessage{}}}},
		{"callback-without-message", tgUpdate{UpdateID: 6, CallbackQuery: &tgCallbackQuery{ID: "x", Data: "/next"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, ok := mapTelegramInbound(tt.u); ok {
				t.Error("update should be ignored")
			}
		})
	}
}
