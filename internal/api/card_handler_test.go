package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/minio/minio-go/v7"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"bizcard/internal/card"
	"bizcard/internal/database"
)

type fakeStorage struct {
	uploaded     map[string][]byte
	contentTypes map[string]string
	deleted      []string
	presign      map[string]string
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{
		uploaded:     map[string][]byte{},
		contentTypes: map[string]string{},
		presign:      map[string]string{},
	}
}

func (s *fakeStorage) UploadFile(_ context.Context, objectName string, reader io.Reader, _ int64, contentType string) (*minio.UploadInfo, error) {
	b, _ := io.ReadAll(reader)
	s.uploaded[objectName] = b
	s.contentTypes[objectName] = contentType
	return &minio.UploadInfo{}, nil
}

func (s *fakeStorage) ReadObject(_ context.Context, objectKey string) ([]byte, string, error) {
	b, ok := s.uploaded[objectKey]
	if !ok {
		return nil, "", errors.New("object not found: " + objectKey)
	}
	contentType := s.contentTypes[objectKey]
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return b, contentType, nil
}

func (s *fakeStorage) ObjectExists(_ context.Context, objectKey string) (bool, error) {
	_, ok := s.uploaded[objectKey]
	return ok, nil
}

func (s *fakeStorage) GeneratePresignedURL(_ context.Context, objectKey string, _ time.Duration) (string, error) {
	if v, ok := s.presign[objectKey]; ok {
		return v, nil
	}
	return "https://example.invalid/" + objectKey, nil
}

func (s *fakeStorage) DeleteObject(_ context.Context, objectKey string) error {
	s.deleted = append(s.deleted, objectKey)
	delete(s.uploaded, objectKey)
	return nil
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&database.User{}, &database.Card{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func seedUser(t *testing.T, db *gorm.DB) database.User {
	t.Helper()
	user := database.User{Username: "tester", PasswordHash: "irrelevant"}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return user
}

func seedCard(t *testing.T, db *gorm.DB, userID uint, doc card.CardData) database.Card {
	t.Helper()
	content, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("marshal document: %v", err)
	}
	row := database.Card{
		Title:   "Seeded Card",
		Content: datatypes.JSON(content),
		UserID:  userID,
	}
	if err := db.Create(&row).Error; err != nil {
		t.Fatalf("seed card: %v", err)
	}
	return row
}

func newCardTestHandler(db *gorm.DB, store ObjectStore, maxCards int) *CardHandler {
	return NewCardHandler(db, nil, store, maxCards)
}

// testRequest 构造带 userID 的测试上下文。
func testRequest(t *testing.T, method, target string, body any, params gin.Params, userID uint) (*httptest.ResponseRecorder, *gin.Context) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req
	c.Params = params
	c.Set("userID", userID)
	return w, c
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]json.RawMessage {
	t.Helper()
	var body map[string]json.RawMessage
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v (body=%s)", err, w.Body.String())
	}
	return body
}

func cardParams(id uint) gin.Params {
	return gin.Params{{Key: "id", Value: strconv.FormatUint(uint64(id), 10)}}
}

func TestCreateCardUsesDefaultDocument(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db)
	h := newCardTestHandler(db, newFakeStorage(), 10)

	w, c := testRequest(t, http.MethodPost, "/v1/cards", gin.H{"title": "First Card"}, nil, user.ID)
	h.CreateCard(c)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d body=%s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "About Me") {
		t.Fatalf("expected default document sections in response, got %s", w.Body.String())
	}

	var stored database.User
	if err := db.First(&stored, user.ID).Error; err != nil {
		t.Fatalf("reload user: %v", err)
	}
	if stored.ActiveCardID == nil {
		t.Fatal("expected new card to become active")
	}
}

func TestCreateCardEnforcesLimit(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db)
	seedCard(t, db, user.ID, card.DefaultCard())
	h := newCardTestHandler(db, newFakeStorage(), 1)

	w, c := testRequest(t, http.MethodPost, "/v1/cards", gin.H{"title": "One Too Many"}, nil, user.ID)
	h.CreateCard(c)

	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d body=%s", w.Code, w.Body.String())
	}
}

func TestCreateCardSanitizesRichText(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db)
	h := newCardTestHandler(db, newFakeStorage(), 10)

	doc := card.DefaultCard()
	for i, s := range doc.Sections {
		if s.Type == card.SectionRichText {
			doc.Sections[i].Content = `<p>ok</p><script>alert("x")</script>`
		}
	}
	content, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("marshal document: %v", err)
	}

	w, c := testRequest(t, http.MethodPost, "/v1/cards", gin.H{"title": "Card", "content": json.RawMessage(content)}, nil, user.ID)
	h.CreateCard(c)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d body=%s", w.Code, w.Body.String())
	}
	if strings.Contains(w.Body.String(), "<script>") {
		t.Fatalf("expected script tags stripped, got %s", w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "<p>ok</p>") {
		t.Fatalf("expected safe markup preserved, got %s", w.Body.String())
	}
}

func TestCreateCardRejectsInvalidDocument(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db)
	h := newCardTestHandler(db, newFakeStorage(), 10)

	doc := card.DefaultCard()
	doc.Template = "vintage"
	content, _ := json.Marshal(doc)

	w, c := testRequest(t, http.MethodPost, "/v1/cards", gin.H{"title": "Card", "content": json.RawMessage(content)}, nil, user.ID)
	h.CreateCard(c)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d body=%s", w.Code, w.Body.String())
	}
}

func TestGetLatestCardFallsBackToDefault(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db)
	h := newCardTestHandler(db, newFakeStorage(), 10)

	w, c := testRequest(t, http.MethodGet, "/v1/cards/latest", nil, nil, user.ID)
	h.GetLatestCard(c)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d body=%s", w.Code, w.Body.String())
	}
	var resp cardResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.ID != 0 || resp.Title != defaultCardTitle {
		t.Fatalf("expected default card response, got id=%d title=%q", resp.ID, resp.Title)
	}
	if !strings.Contains(string(resp.Content), "About Me") {
		t.Fatal("expected default document content")
	}
}

func TestGetLatestCardCorruptDocumentFallsBack(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db)
	row := database.Card{
		Title:   "Broken",
		Content: datatypes.JSON([]byte(`{"template":"vintage"}`)),
		UserID:  user.ID,
	}
	if err := db.Create(&row).Error; err != nil {
		t.Fatalf("seed card: %v", err)
	}
	h := newCardTestHandler(db, newFakeStorage(), 10)

	w, c := testRequest(t, http.MethodGet, "/v1/cards/latest", nil, nil, user.ID)
	h.GetLatestCard(c)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d body=%s", w.Code, w.Body.String())
	}
	var resp cardResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.ID != 0 {
		t.Fatalf("expected default fallback, got card id=%d", resp.ID)
	}
}

func TestGetCardCorruptDocumentFallsBack(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db)
	row := database.Card{
		Title:   "Broken",
		Content: datatypes.JSON([]byte(`{"template":"vintage"}`)),
		UserID:  user.ID,
	}
	if err := db.Create(&row).Error; err != nil {
		t.Fatalf("seed card: %v", err)
	}
	h := newCardTestHandler(db, newFakeStorage(), 10)

	w, c := testRequest(t, http.MethodGet, "/v1/cards/"+strconv.Itoa(int(row.ID)), nil, cardParams(row.ID), user.ID)
	h.GetCard(c)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d body=%s", w.Code, w.Body.String())
	}
	var resp cardResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.ID != row.ID || resp.Title != "Broken" {
		t.Fatalf("expected the stored row identity, got id=%d title=%q", resp.ID, resp.Title)
	}
	var doc card.CardData
	if err := json.Unmarshal(resp.Content, &doc); err != nil {
		t.Fatalf("decode document: %v", err)
	}
	if err := card.Validate(doc); err != nil {
		t.Fatalf("expected default fallback document, got invalid one: %v", err)
	}
	if doc.Template != card.TemplateModern {
		t.Fatalf("expected default template, got %q", doc.Template)
	}
}

func TestGetDesignOptions(t *testing.T) {
	h := newCardTestHandler(newTestDB(t), newFakeStorage(), 10)

	w, c := testRequest(t, http.MethodGet, "/v1/cards/design-options", nil, nil, 1)
	h.GetDesignOptions(c)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d body=%s", w.Code, w.Body.String())
	}
	var resp struct {
		Templates []card.TemplateType `json:"templates"`
		Colors    []string            `json:"colors"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Templates) != len(card.AvailableTemplates) {
		t.Fatalf("expected %d templates, got %v", len(card.AvailableTemplates), resp.Templates)
	}
	if len(resp.Colors) != len(card.AvailableColors) || resp.Colors[0] != "#4f46e5" {
		t.Fatalf("unexpected colors %v", resp.Colors)
	}
}

func TestGetCardMarksActive(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db)
	first := seedCard(t, db, user.ID, card.DefaultCard())
	second := seedCard(t, db, user.ID, card.DefaultCard())
	h := newCardTestHandler(db, newFakeStorage(), 10)

	w, c := testRequest(t, http.MethodGet, "/v1/cards/"+strconv.Itoa(int(first.ID)), nil, cardParams(first.ID), user.ID)
	h.GetCard(c)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d body=%s", w.Code, w.Body.String())
	}

	var stored database.User
	if err := db.First(&stored, user.ID).Error; err != nil {
		t.Fatalf("reload user: %v", err)
	}
	if stored.ActiveCardID == nil || *stored.ActiveCardID != first.ID {
		t.Fatalf("expected active card %d, got %v (other card %d)", first.ID, stored.ActiveCardID, second.ID)
	}
}

func TestGetCardOfAnotherUserNotFound(t *testing.T) {
	db := newTestDB(t)
	owner := seedUser(t, db)
	row := seedCard(t, db, owner.ID, card.DefaultCard())

	other := database.User{Username: "intruder", PasswordHash: "irrelevant"}
	if err := db.Create(&other).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}

	h := newCardTestHandler(db, newFakeStorage(), 10)
	w, c := testRequest(t, http.MethodGet, "/v1/cards/"+strconv.Itoa(int(row.ID)), nil, cardParams(row.ID), other.ID)
	h.GetCard(c)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d body=%s", w.Code, w.Body.String())
	}
}

func TestUpdateCardRejectsMalformedDocument(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db)
	row := seedCard(t, db, user.ID, card.DefaultCard())
	h := newCardTestHandler(db, newFakeStorage(), 10)

	w, c := testRequest(t, http.MethodPut, "/v1/cards/"+strconv.Itoa(int(row.ID)),
		gin.H{"title": "Card", "content": json.RawMessage(`"not an object"`)}, cardParams(row.ID), user.ID)
	h.UpdateCard(c)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d body=%s", w.Code, w.Body.String())
	}
}

func TestDeleteCardRemovesObjectsAndReassignsActive(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db)
	keep := seedCard(t, db, user.ID, card.DefaultCard())
	doomed := seedCard(t, db, user.ID, card.DefaultCard())
	if err := db.Model(&database.Card{}).Where("id = ?", doomed.ID).Updates(map[string]any{
		"pdf_url":            "generated-cards/1/export.pdf",
		"preview_object_key": "thumbnails/card/2/preview.jpg",
	}).Error; err != nil {
		t.Fatalf("seed object keys: %v", err)
	}

	store := newFakeStorage()
	h := newCardTestHandler(db, store, 10)

	w, c := testRequest(t, http.MethodDelete, "/v1/cards/"+strconv.Itoa(int(doomed.ID)), nil, cardParams(doomed.ID), user.ID)
	h.DeleteCard(c)
	c.Writer.WriteHeaderNow()

	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204 got %d body=%s", w.Code, w.Body.String())
	}
	if len(store.deleted) != 2 {
		t.Fatalf("expected pdf and preview objects deleted, got %v", store.deleted)
	}

	var stored database.User
	if err := db.First(&stored, user.ID).Error; err != nil {
		t.Fatalf("reload user: %v", err)
	}
	if stored.ActiveCardID == nil || *stored.ActiveCardID != keep.ID {
		t.Fatalf("expected remaining card %d to become active, got %v", keep.ID, stored.ActiveCardID)
	}
}

func TestExportCardRejectsUnknownTemplate(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db)
	row := seedCard(t, db, user.ID, card.DefaultCard())
	h := newCardTestHandler(db, newFakeStorage(), 10)

	w, c := testRequest(t, http.MethodPost, "/v1/cards/"+strconv.Itoa(int(row.ID))+"/export?template=vintage", nil, cardParams(row.ID), user.ID)
	h.ExportCard(c)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d body=%s", w.Code, w.Body.String())
	}
}

func TestGetDownloadLinkBeforeExport(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db)
	row := seedCard(t, db, user.ID, card.DefaultCard())
	h := newCardTestHandler(db, newFakeStorage(), 10)

	w, c := testRequest(t, http.MethodGet, "/v1/cards/"+strconv.Itoa(int(row.ID))+"/download-link", nil, cardParams(row.ID), user.ID)
	h.GetDownloadLink(c)

	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d body=%s", w.Code, w.Body.String())
	}
}

func TestGetDownloadLinkSignsPdfKey(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db)
	row := seedCard(t, db, user.ID, card.DefaultCard())
	if err := db.Model(&database.Card{}).Where("id = ?", row.ID).
		Update("pdf_url", "generated-cards/1/export.pdf").Error; err != nil {
		t.Fatalf("seed pdf key: %v", err)
	}

	store := newFakeStorage()
	store.presign["generated-cards/1/export.pdf"] = "https://signed.example/card.pdf"
	h := newCardTestHandler(db, store, 10)

	w, c := testRequest(t, http.MethodGet, "/v1/cards/"+strconv.Itoa(int(row.ID))+"/download-link", nil, cardParams(row.ID), user.ID)
	h.GetDownloadLink(c)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d body=%s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "https://signed.example/card.pdf") {
		t.Fatalf("expected signed url in response, got %s", w.Body.String())
	}
}
