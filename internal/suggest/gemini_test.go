package suggest

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func geminiReply(text string) string {
	b, _ := json.Marshal(map[string]any{
		"candidates": []map[string]any{
			{"content": map[string]any{"parts": []map[string]string{{"text": text}}}},
		},
	})
	return string(b)
}

func TestGenerateBio(t *testing.T) {
	var gotPath, gotKey string
	var gotBody geminiRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("x-goog-api-key")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request: %v", err)
		}
		io.WriteString(w, geminiReply("  A seasoned designer who ships.  "))
	}))
	defer srv.Close()

	g := NewGeminiSuggester("test-key", "", srv.URL, testLogger())
	bio, err := g.GenerateBio(context.Background(), "Alex Morgan", "Designer", "Creative Flow", ToneFriendly)
	if err != nil {
		t.Fatalf("GenerateBio failed: %v", err)
	}
	if bio != "A seasoned designer who ships." {
		t.Errorf("bio = %q, want trimmed text", bio)
	}
	if !strings.Contains(gotPath, "gemini-2.5-flash:generateContent") {
		t.Errorf("unexpected path %q", gotPath)
	}
	if gotKey != "test-key" {
		t.Errorf("api key header = %q", gotKey)
	}
	prompt := gotBody.Contents[0].Parts[0].Text
	for _, want := range []string{"Alex Morgan", "Designer", "Creative Flow", "friendly"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestGenerateBioUpstreamFailureReturnsPlaceholder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	g := NewGeminiSuggester("test-key", "", srv.URL, testLogger())
	bio, err := g.GenerateBio(context.Background(), "A", "B", "C", ToneProfessional)
	if err != nil {
		t.Fatalf("upstream failure should not be an error: %v", err)
	}
	if bio != FailedBioMessage {
		t.Errorf("bio = %q, want placeholder", bio)
	}
}

func TestGenerateBioInvalidToneDefaultsToProfessional(t *testing.T) {
	var gotBody geminiRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&gotBody)
		io.WriteString(w, geminiReply("ok"))
	}))
	defer srv.Close()

	g := NewGeminiSuggester("test-key", "", srv.URL, testLogger())
	if _, err := g.GenerateBio(context.Background(), "A", "B", "C", "sarcastic"); err != nil {
		t.Fatalf("GenerateBio failed: %v", err)
	}
	if !strings.Contains(gotBody.Contents[0].Parts[0].Text, "professional") {
		t.Error("invalid tone did not fall back to professional")
	}
}

func TestGenerateServices(t *testing.T) {
	var gotBody geminiRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&gotBody)
		io.WriteString(w, geminiReply(`[{"title":"Consulting","desc":"Strategy advice"},{"title":"Audits","desc":"Design reviews"}]`))
	}))
	defer srv.Close()

	g := NewGeminiSuggester("test-key", "", srv.URL, testLogger())
	items, err := g.GenerateServices(context.Background(), "Designer", "Studio")
	if err != nil {
		t.Fatalf("GenerateServices failed: %v", err)
	}
	if len(items) != 2 || items[0].Title != "Consulting" || items[1].Desc != "Design reviews" {
		t.Errorf("unexpected suggestions: %+v", items)
	}
	if gotBody.Config == nil || gotBody.Config.ResponseMIMEType != "application/json" {
		t.Error("services request did not ask for JSON output")
	}
}

func TestGenerateServicesFailuresReturnEmptyList(t *testing.T) {
	cases := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"upstream error", func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		}},
		{"malformed json", func(w http.ResponseWriter, r *http.Request) {
			io.WriteString(w, geminiReply("not json at all"))
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(tc.handler)
			defer srv.Close()

			g := NewGeminiSuggester("test-key", "", srv.URL, testLogger())
			items, err := g.GenerateServices(context.Background(), "Designer", "Studio")
			if err != nil {
				t.Fatalf("failure should not be an error: %v", err)
			}
			if items == nil || len(items) != 0 {
				t.Errorf("items = %v, want empty non-nil list", items)
			}
		})
	}
}

func TestMissingAPIKeyIsTolerated(t *testing.T) {
	g := NewGeminiSuggester("", "", "http://127.0.0.1:0", testLogger())

	bio, err := g.GenerateBio(context.Background(), "A", "B", "C", ToneProfessional)
	if err != nil || bio != FailedBioMessage {
		t.Errorf("bio = %q, err = %v; want placeholder and nil error", bio, err)
	}

	items, err := g.GenerateServices(context.Background(), "B", "C")
	if err != nil || len(items) != 0 {
		t.Errorf("items = %v, err = %v; want empty and nil error", items, err)
	}
}

func TestCanceledContextSurfacesError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, geminiReply("ok"))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	g := NewGeminiSuggester("test-key", "", srv.URL, testLogger())
	if _, err := g.GenerateBio(ctx, "A", "B", "C", ToneProfessional); err == nil {
		t.Fatal("expected context cancellation error")
	}
}
