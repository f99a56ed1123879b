package webhook

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shyabid/rolevia/internal/domain"
)

func TestSendPostsPayloadAndReturnsMessageID(t *testing.T) {
	var got map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("expected json content type, got %q", ct)
		}
		if r.URL.Query().Get("wait") != "true" {
			t.Errorf("expected wait=true query")
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"123456"}`))
	}))
	defer server.Close()

	client := NewClient()
	messageID, err := client.Send(context.Background(), server.URL,
		domain.Embed{Title: "Quiz Available!", Description: "desc", Color: 0x3498db, ImageURL: "https://img.example/x.png"},
		"Guild", "https://icon.example/g.png",
		[]domain.Control{{Label: "Start Quiz", Tag: "start_quiz_7"}})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if messageID != 123456 {
		t.Fatalf("expected message id 123456, got %d", messageID)
	}

	if got["username"] != "Guild" || got["avatar_url"] != "https://icon.example/g.png" {
		t.Fatalf("impersonation fields missing: %+v", got)
	}
	embeds, ok := got["embeds"].([]any)
	if !ok || len(embeds) != 1 {
		t.Fatalf("expected one embed, got %+v", got["embeds"])
	}
	embed := embeds[0].(map[string]any)
	if embed["title"] != "Quiz Available!" {
		t.Fatalf("unexpected embed: %+v", embed)
	}
	if embed["image"].(map[string]any)["url"] != "https://img.example/x.png" {
		t.Fatalf("image missing: %+v", embed)
	}
	rows := got["components"].([]any)
	button := rows[0].(map[string]any)["components"].([]any)[0].(map[string]any)
	if button["custom_id"] != "start_quiz_7" || button["label"] != "Start Quiz" {
		t.Fatalf("launch control missing: %+v", button)
	}
}

func TestSendReportsHTTPFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer server.Close()

	client := NewClient()
	_, err := client.Send(context.Background(), server.URL, domain.Embed{Title: "t"}, "", "", nil)
	if err == nil {
		t.Fatalf("expected error on 403")
	}
}
