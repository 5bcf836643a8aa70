package api

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"bizcard/internal/card"
	"bizcard/internal/suggest"
)

type fakeSuggester struct {
	bio      string
	bioErr   error
	items    []suggest.ServiceSuggestion
	itemsErr error

	lastName  string
	lastTitle string
	lastTone  suggest.BioTone
}

func (s *fakeSuggester) GenerateBio(_ context.Context, name, title, _ string, tone suggest.BioTone) (string, error) {
	s.lastName = name
	s.lastTitle = title
	s.lastTone = tone
	return s.bio, s.bioErr
}

func (s *fakeSuggester) GenerateServices(_ context.Context, title, _ string) ([]suggest.ServiceSuggestion, error) {
	s.lastTitle = title
	return s.items, s.itemsErr
}

// 守卫用的 redis 不可达时直接放行，单测里用一个连不上的客户端。
func newSuggestTestHandler(t *testing.T, suggester suggest.ContentSuggester) (*SuggestHandler, *CardHandler, uint, uint) {
	t.Helper()
	db := newTestDB(t)
	user := seedUser(t, db)
	row := seedCard(t, db, user.ID, card.DefaultCard())
	cards := newCardTestHandler(db, newFakeStorage(), 10)
	redisClient := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
	return NewSuggestHandler(cards, suggester, redisClient, nil), cards, user.ID, row.ID
}

type suggestBioResponse struct {
	Bio     string        `json:"bio"`
	Content card.CardData `json:"content"`
}

type suggestServicesResponse struct {
	Items   []suggest.ServiceSuggestion `json:"items"`
	Content card.CardData               `json:"content"`
}

func TestSuggestBioDefaultsToneAndForwardsProfile(t *testing.T) {
	fake := &fakeSuggester{bio: "A short professional bio."}
	h, _, userID, cardID := newSuggestTestHandler(t, fake)

	w, c := testRequest(t, http.MethodPost, "/v1/cards/1/suggest/bio", nil, cardParams(cardID), userID)
	h.SuggestBio(c)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d body=%s", w.Code, w.Body.String())
	}
	if fake.lastTone != suggest.ToneProfessional {
		t.Fatalf("expected default tone professional, got %q", fake.lastTone)
	}
	defaults := card.DefaultCard().PersonalInfo
	if fake.lastName != defaults.FullName || fake.lastTitle != defaults.Title {
		t.Fatalf("expected profile forwarded, got name=%q title=%q", fake.lastName, fake.lastTitle)
	}

	var resp suggestBioResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Bio != "A short professional bio." {
		t.Fatalf("unexpected bio %q", resp.Bio)
	}
}

func TestSuggestBioWritesAboutSection(t *testing.T) {
	fake := &fakeSuggester{bio: "A freshly generated introduction."}
	h, cards, userID, cardID := newSuggestTestHandler(t, fake)

	w, c := testRequest(t, http.MethodPost, "/v1/cards/1/suggest/bio", nil, cardParams(cardID), userID)
	h.SuggestBio(c)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d body=%s", w.Code, w.Body.String())
	}

	var resp suggestBioResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	idx := resp.Content.FindSectionByType(card.SectionAbout)
	if idx < 0 || resp.Content.Sections[idx].Content != fake.bio {
		t.Fatalf("expected bio written into about section of the response document")
	}

	stored := loadStoredDocument(t, cards, cardID)
	idx = stored.FindSectionByType(card.SectionAbout)
	if idx < 0 {
		t.Fatal("stored document lost its about section")
	}
	if stored.Sections[idx].Content != fake.bio {
		t.Fatalf("expected bio persisted into about section, got %q", stored.Sections[idx].Content)
	}
}

func TestSuggestBioRejectsUnknownTone(t *testing.T) {
	h, _, userID, cardID := newSuggestTestHandler(t, &fakeSuggester{})

	w, c := testRequest(t, http.MethodPost, "/v1/cards/1/suggest/bio",
		gin.H{"tone": "sarcastic"}, cardParams(cardID), userID)
	h.SuggestBio(c)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d body=%s", w.Code, w.Body.String())
	}
}

func TestSuggestBioSentinelPassesThrough(t *testing.T) {
	fake := &fakeSuggester{bio: suggest.FailedBioMessage}
	h, _, userID, cardID := newSuggestTestHandler(t, fake)

	w, c := testRequest(t, http.MethodPost, "/v1/cards/1/suggest/bio", nil, cardParams(cardID), userID)
	h.SuggestBio(c)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d body=%s", w.Code, w.Body.String())
	}
	var resp suggestBioResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Bio != suggest.FailedBioMessage {
		t.Fatalf("expected sentinel message, got %q", resp.Bio)
	}
}

func TestSuggestServicesAppendsToDocument(t *testing.T) {
	fake := &fakeSuggester{items: []suggest.ServiceSuggestion{
		{Title: "Design Audits", Desc: "Reviewing existing products for usability gaps."},
	}}
	h, cards, userID, cardID := newSuggestTestHandler(t, fake)

	before := card.DefaultCard()
	beforeIdx := before.FindSectionByType(card.SectionServices)
	beforeItems := before.Sections[beforeIdx].Items

	w, c := testRequest(t, http.MethodPost, "/v1/cards/1/suggest/services", nil, cardParams(cardID), userID)
	h.SuggestServices(c)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d body=%s", w.Code, w.Body.String())
	}

	stored := loadStoredDocument(t, cards, cardID)
	idx := stored.FindSectionByType(card.SectionServices)
	if idx < 0 {
		t.Fatal("stored document lost its services section")
	}
	items := stored.Sections[idx].Items
	if len(items) != len(beforeItems)+1 {
		t.Fatalf("expected %d items after append, got %d", len(beforeItems)+1, len(items))
	}
	for i, item := range beforeItems {
		if items[i] != item {
			t.Fatalf("existing item %d changed: %+v", i, items[i])
		}
	}
	appended := items[len(items)-1]
	if appended.Title != "Design Audits" || appended.ID == "" {
		t.Fatalf("unexpected appended item %+v", appended)
	}
}

func TestSuggestServicesEmptyListOnFailure(t *testing.T) {
	fake := &fakeSuggester{items: []suggest.ServiceSuggestion{}}
	h, cards, userID, cardID := newSuggestTestHandler(t, fake)

	w, c := testRequest(t, http.MethodPost, "/v1/cards/1/suggest/services", nil, cardParams(cardID), userID)
	h.SuggestServices(c)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d body=%s", w.Code, w.Body.String())
	}
	var resp suggestServicesResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Items == nil || len(resp.Items) != 0 {
		t.Fatalf("expected empty non-nil items, got %v", resp.Items)
	}

	stored := loadStoredDocument(t, cards, cardID)
	idx := stored.FindSectionByType(card.SectionServices)
	if got, want := len(stored.Sections[idx].Items), 3; got != want {
		t.Fatalf("expected document untouched with %d items, got %d", want, got)
	}
}

func TestSuggestUnknownCard(t *testing.T) {
	h, _, userID, _ := newSuggestTestHandler(t, &fakeSuggester{})

	w, c := testRequest(t, http.MethodPost, "/v1/cards/999/suggest/bio", nil, cardParams(999), userID)
	h.SuggestBio(c)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d body=%s", w.Code, w.Body.String())
	}
}
