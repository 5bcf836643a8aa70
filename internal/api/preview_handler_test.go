package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"bizcard/internal/card"
	"bizcard/internal/errcode"
)

func TestPreviewCardRendersHTML(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db)
	row := seedCard(t, db, user.ID, card.DefaultCard())
	h := newCardTestHandler(db, newFakeStorage(), 10)

	w, c := testRequest(t, http.MethodGet, "/v1/cards/1/preview", nil, cardParams(row.ID), user.ID)
	h.PreviewCard(c)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d body=%s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Fatalf("expected html content type, got %q", ct)
	}
	if !strings.Contains(w.Body.String(), card.DefaultCard().PersonalInfo.FullName) {
		t.Fatal("expected rendered card to contain the full name")
	}
}

func TestPreviewCardTemplateOverride(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db)
	row := seedCard(t, db, user.ID, card.DefaultCard())
	h := newCardTestHandler(db, newFakeStorage(), 10)

	w, c := testRequest(t, http.MethodGet, "/v1/cards/1/preview?template=vintage", nil, cardParams(row.ID), user.ID)
	h.PreviewCard(c)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d body=%s", w.Code, w.Body.String())
	}
}

func TestGetPrintCardDataResolvesAssets(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db)

	doc := card.DefaultCard()
	doc.PersonalInfo.AvatarURL = "user-assets/1/avatar.png"
	doc.PersonalInfo.CoverURL = "https://cdn.example.com/cover.jpg"
	row := seedCard(t, db, user.ID, doc)

	store := newFakeStorage()
	store.uploaded["user-assets/1/avatar.png"] = []byte("png")
	store.contentTypes["user-assets/1/avatar.png"] = "image/png"
	h := newCardTestHandler(db, store, 10)

	w, c := testRequest(t, http.MethodGet, "/v1/cards/print/1", nil, cardParams(row.ID), 0)
	h.GetPrintCardData(c)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d body=%s", w.Code, w.Body.String())
	}

	var resp printCardResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Card.PersonalInfo.AvatarURL != "data:image/png;base64,cG5n" {
		t.Fatalf("expected inlined avatar data uri, got %q", resp.Card.PersonalInfo.AvatarURL)
	}
	if resp.Card.PersonalInfo.CoverURL != "https://cdn.example.com/cover.jpg" {
		t.Fatalf("expected external cover url untouched, got %q", resp.Card.PersonalInfo.CoverURL)
	}
	if len(resp.Meta.Warnings) != 0 {
		t.Fatalf("expected no warnings, got %v", resp.Meta.Warnings)
	}
}

func TestGetPrintCardDataFlagsMissingAssets(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db)

	doc := card.DefaultCard()
	doc.PersonalInfo.AvatarURL = "user-assets/1/gone.png"
	row := seedCard(t, db, user.ID, doc)

	h := newCardTestHandler(db, newFakeStorage(), 10)

	w, c := testRequest(t, http.MethodGet, "/v1/cards/print/1", nil, cardParams(row.ID), 0)
	h.GetPrintCardData(c)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d body=%s", w.Code, w.Body.String())
	}

	var resp printCardResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Card.PersonalInfo.AvatarURL != "" {
		t.Fatalf("expected missing avatar blanked, got %q", resp.Card.PersonalInfo.AvatarURL)
	}
	if len(resp.Meta.Warnings) != 1 {
		t.Fatalf("expected one warning, got %v", resp.Meta.Warnings)
	}
	warning := resp.Meta.Warnings[0]
	if warning.Code != errcode.ResourceMissing {
		t.Fatalf("expected resource missing code, got %d", warning.Code)
	}
	if len(warning.MissingKeys) != 1 || warning.MissingKeys[0] != "user-assets/1/gone.png" {
		t.Fatalf("unexpected missing keys %v", warning.MissingKeys)
	}
}
