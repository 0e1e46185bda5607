package ocr

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRecognize_ReturnsText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/recognize" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer key" {
			t.Errorf("unexpected auth header %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"text":"  Лабораторная работа\n"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "key")
	got, err := c.Recognize(context.Background(), []byte{0x89, 0x50}, "image/png")
	if err != nil {
		t.Fatal(err)
	}
	if got != "Лабораторная работа" {
		t.Errorf("got %q", got)
	}
}

func TestRecognize_NonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")
	if _, err := c.Recognize(context.Background(), nil, ""); err == nil {
		t.Error("expected error on 503")
	}
}

func TestRecognize_EmptyTextIsNotAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"text":""}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")
	got, err := c.Recognize(context.Background(), nil, "image/jpeg")
	if err != nil {
		t.Fatal(err)
	}
	if got != "" {
		t.Errorf("got %q, want empty", got)
	}
}
