package telegram_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"medibot-afrika/internal/platform/telegram"
)

func TestSendMessage(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/botTOKEN/sendMessage" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	c := telegram.NewClientWithURL("TOKEN", srv.URL)
	if err := c.SendMessage(42, "Referral: Amina"); err != nil {
		t.Fatalf("SendMessage failed: %v", err)
	}
	if got["text"] != "Referral: Amina" || got["chat_id"] != float64(42) {
		t.Fatalf("unexpected payload %#v", got)
	}
}

func TestSendDocument(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/botTOKEN/sendDocument" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("bad multipart body: %v", err)
			return
		}
		if r.FormValue("chat_id") != "42" {
			t.Errorf("unexpected chat_id %q", r.FormValue("chat_id"))
		}
		f, hdr, err := r.FormFile("document")
		if err != nil {
			t.Errorf("missing document: %v", err)
			return
		}
		defer f.Close()
		data, _ := io.ReadAll(f)
		if hdr.Filename != "referral.pdf" || string(data) != "%PDF-1.4" {
			t.Errorf("unexpected document %s %q", hdr.Filename, data)
		}
	}))
	defer srv.Close()

	c := telegram.NewClientWithURL("TOKEN", srv.URL)
	if err := c.SendDocument(42, []byte("%PDF-1.4"), "referral.pdf"); err != nil {
		t.Fatalf("SendDocument failed: %v", err)
	}
}

func TestErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"ok":false,"description":"chat not found"}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	c := telegram.NewClientWithURL("TOKEN", srv.URL)
	err := c.SendMessage(1, "hi")
	if err == nil || !strings.Contains(err.Error(), "chat not found") {
		t.Fatalf("expected telegram error, got %v", err)
	}
}
