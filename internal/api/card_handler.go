package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"bizcard/internal/api/middleware"
	"bizcard/internal/card"
	"bizcard/internal/database"
	"bizcard/internal/tasks"
)

// CardHandler 负责名片文档的增删改查与导出入队。
type CardHandler struct {
	db          *gorm.DB
	asynqClient *asynq.Client
	storage     ObjectStore
	maxCards    int
}

// NewCardHandler 构造 CardHandler。
func NewCardHandler(db *gorm.DB, asynqClient *asynq.Client, store ObjectStore, maxCards int) *CardHandler {
	return &CardHandler{
		db:          db,
		asynqClient: asynqClient,
		storage:     store,
		maxCards:    maxCards,
	}
}

var errInvalidCardID = errors.New("invalid card id")

type createCardRequest struct {
	Title   string          `json:"title" binding:"required"`
	Content json.RawMessage `json:"content"`
}

type cardListItem struct {
	ID              uint      `json:"id"`
	Title           string    `json:"title"`
	PreviewImageURL string    `json:"preview_image_url,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

type cardResponse struct {
	ID              uint           `json:"id"`
	Title           string         `json:"title"`
	Content         datatypes.JSON `json:"content"`
	PreviewImageURL string         `json:"preview_image_url,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

// CreateCard 保存一张新名片，超过限额则提示升级。
// 请求不带 content 时使用内置默认文档。
func (h *CardHandler) CreateCard(c *gin.Context) {
	var req createCardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	var doc card.CardData
	if len(req.Content) == 0 {
		doc = card.DefaultCard()
	} else {
		if err := json.Unmarshal(req.Content, &doc); err != nil {
			BadRequest(c, "malformed card document")
			return
		}
		if err := card.Validate(doc); err != nil {
			BadRequest(c, err.Error())
			return
		}
		doc = sanitizeDocument(doc)
	}

	ctx := c.Request.Context()

	var count int64
	if err := h.db.WithContext(ctx).
		Model(&database.Card{}).
		Where("user_id = ?", userID).
		Count(&count).Error; err != nil {
		Internal(c, "failed to count cards")
		return
	}

	if h.maxCards > 0 && count >= int64(h.maxCards) {
		Forbidden(c, "card limit reached")
		return
	}

	content, err := json.Marshal(doc)
	if err != nil {
		Internal(c, "failed to encode card document")
		return
	}

	cardRow := database.Card{
		Title:   req.Title,
		Content: datatypes.JSON(content),
		UserID:  userID,
	}

	if err := h.db.WithContext(ctx).Create(&cardRow).Error; err != nil {
		Internal(c, "failed to create card")
		return
	}

	if err := h.setActiveCardID(ctx, userID, &cardRow.ID); err != nil {
		Internal(c, "failed to mark active card")
		return
	}

	c.JSON(http.StatusCreated, newCardResponse(cardRow))
}

// GetLatestCard 返回用户当前正在编辑的名片；没有时返回默认文档。
// 存量文档损坏（无法通过校验）时同样回落到默认文档，编辑器不会因此打不开。
func (h *CardHandler) GetLatestCard(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	ctx := c.Request.Context()
	cardRow, err := h.findActiveOrLatestCard(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusOK, defaultCardResponse())
			return
		}
		Internal(c, "failed to query latest card")
		return
	}

	if _, valid := documentOrDefault(cardRow.Content); !valid {
		c.JSON(http.StatusOK, defaultCardResponse())
		return
	}

	c.JSON(http.StatusOK, newCardResponse(*cardRow))
}

// ListCards 列出用户全部名片。
func (h *CardHandler) ListCards(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	ctx := c.Request.Context()
	var cards []database.Card
	if err := h.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&cards).Error; err != nil {
		Internal(c, "failed to list cards")
		return
	}

	items := make([]cardListItem, 0, len(cards))
	for _, row := range cards {
		items = append(items, cardListItem{
			ID:              row.ID,
			Title:           row.Title,
			PreviewImageURL: row.PreviewImageURL,
			CreatedAt:       row.CreatedAt,
		})
	}

	c.JSON(http.StatusOK, items)
}

// GetCard 返回指定 ID 的名片并标记为当前正在编辑。
// 存量文档损坏时在响应中回落到默认文档，行本身保持不动。
func (h *CardHandler) GetCard(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	cardRow, err := h.getCardForUser(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		respondCardLookupError(c, err)
		return
	}

	if doc, valid := documentOrDefault(cardRow.Content); !valid {
		content, err := json.Marshal(doc)
		if err != nil {
			Internal(c, "failed to encode card document")
			return
		}
		cardRow.Content = datatypes.JSON(content)
	}

	if err := h.setActiveCardID(c.Request.Context(), userID, &cardRow.ID); err != nil {
		Internal(c, "failed to mark active card")
		return
	}

	c.JSON(http.StatusOK, newCardResponse(*cardRow))
}

type updateCardRequest struct {
	Title   string          `json:"title" binding:"required"`
	Content json.RawMessage `json:"content" binding:"required"`
}

// UpdateCard 覆盖整份名片文档。
func (h *CardHandler) UpdateCard(c *gin.Context) {
	var req updateCardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	var doc card.CardData
	if err := json.Unmarshal(req.Content, &doc); err != nil {
		BadRequest(c, "malformed card document")
		return
	}
	if err := card.Validate(doc); err != nil {
		BadRequest(c, err.Error())
		return
	}
	doc = sanitizeDocument(doc)

	cardRow, err := h.getCardForUser(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		respondCardLookupError(c, err)
		return
	}

	content, err := json.Marshal(doc)
	if err != nil {
		Internal(c, "failed to encode card document")
		return
	}

	ctx := c.Request.Context()
	updates := map[string]any{
		"title":   req.Title,
		"content": datatypes.JSON(content),
	}
	if err := h.db.WithContext(ctx).Model(cardRow).Updates(updates).Error; err != nil {
		Internal(c, "failed to update card")
		return
	}

	if err := h.db.WithContext(ctx).First(cardRow, cardRow.ID).Error; err != nil {
		Internal(c, "failed to reload card")
		return
	}

	if err := h.setActiveCardID(ctx, userID, &cardRow.ID); err != nil {
		Internal(c, "failed to mark active card")
		return
	}

	c.JSON(http.StatusOK, newCardResponse(*cardRow))
}

// DeleteCard 删除指定名片，并尝试回落到最近一张。
func (h *CardHandler) DeleteCard(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	cardRow, err := h.getCardForUser(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		respondCardLookupError(c, err)
		return
	}

	ctx := c.Request.Context()
	if err := h.db.WithContext(ctx).Delete(&database.Card{}, cardRow.ID).Error; err != nil {
		Internal(c, "failed to delete card")
		return
	}

	if cardRow.PdfUrl != "" {
		_ = h.storage.DeleteObject(ctx, cardRow.PdfUrl)
	}
	if cardRow.PreviewObjectKey != "" {
		_ = h.storage.DeleteObject(ctx, cardRow.PreviewObjectKey)
	}

	if err := h.assignLatestCardAsActive(ctx, userID); err != nil {
		Internal(c, "failed to update active card")
		return
	}

	c.Status(http.StatusNoContent)
}

// ExportCard 将导出任务入队并立即返回 202。
func (h *CardHandler) ExportCard(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	cardRow, err := h.getCardForUser(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		respondCardLookupError(c, err)
		return
	}

	template := card.TemplateType(c.Query("template"))
	if template != "" && !card.ValidTemplate(template) {
		BadRequest(c, "unknown template")
		return
	}

	correlationID := middleware.GetCorrelationID(c)
	task, err := tasks.NewCardExportTask(cardRow.ID, template, correlationID)
	if err != nil {
		Internal(c, "failed to create task")
		return
	}

	if err := h.db.WithContext(c.Request.Context()).
		Model(cardRow).
		Update("status", "exporting").Error; err != nil {
		Internal(c, "failed to mark card exporting")
		return
	}

	info, err := h.asynqClient.Enqueue(task, asynq.MaxRetry(5))
	if err != nil {
		Internal(c, "failed to enqueue card export")
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"message": "card export request accepted",
		"task_id": info.ID,
	})
}

// GetDesignOptions 返回设计面板可选的模板与主题色样本。
func (h *CardHandler) GetDesignOptions(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"templates": card.AvailableTemplates,
		"colors":    card.AvailableColors,
	})
}

// GetDownloadLink 生成名片 PDF 的预签名下载链接。
func (h *CardHandler) GetDownloadLink(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	cardRow, err := h.getCardForUser(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		respondCardLookupError(c, err)
		return
	}

	if cardRow.PdfUrl == "" {
		Conflict(c, "pdf not ready")
		return
	}

	signedURL, err := h.storage.GeneratePresignedURL(c.Request.Context(), cardRow.PdfUrl, 5*time.Minute)
	if err != nil {
		Internal(c, "failed to generate download link")
		return
	}

	c.JSON(http.StatusOK, gin.H{"url": signedURL})
}

func (h *CardHandler) setActiveCardID(ctx context.Context, userID uint, cardID *uint) error {
	var value any
	if cardID != nil {
		value = *cardID
	} else {
		value = nil
	}
	return h.db.WithContext(ctx).Model(&database.User{}).
		Where("id = ?", userID).
		Update("active_card_id", value).Error
}

func (h *CardHandler) assignLatestCardAsActive(ctx context.Context, userID uint) error {
	var cardRow database.Card
	err := h.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("updated_at desc").
		First(&cardRow).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return h.setActiveCardID(ctx, userID, nil)
	case err != nil:
		return err
	default:
		return h.setActiveCardID(ctx, userID, &cardRow.ID)
	}
}

func (h *CardHandler) findActiveOrLatestCard(ctx context.Context, userID uint) (*database.Card, error) {
	var user database.User
	if err := h.db.WithContext(ctx).
		Select("id", "active_card_id").
		First(&user, userID).Error; err != nil {
		return nil, err
	}

	if user.ActiveCardID != nil {
		var cardRow database.Card
		if err := h.db.WithContext(ctx).
			Where("id = ? AND user_id = ?", *user.ActiveCardID, userID).
			First(&cardRow).Error; err == nil {
			return &cardRow, nil
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}

	var latest database.Card
	err := h.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("updated_at desc").
		First(&latest).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			_ = h.setActiveCardID(ctx, userID, nil)
		}
		return nil, err
	}

	if err := h.setActiveCardID(ctx, userID, &latest.ID); err != nil {
		return nil, err
	}
	return &latest, nil
}

func (h *CardHandler) getCardForUser(ctx context.Context, idParam string, userID uint) (*database.Card, error) {
	cardID, err := strconv.ParseUint(idParam, 10, 64)
	if err != nil {
		return nil, errInvalidCardID
	}

	var cardRow database.Card
	if err := h.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", uint(cardID), userID).
		First(&cardRow).Error; err != nil {
		return nil, err
	}

	return &cardRow, nil
}

func respondCardLookupError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, errInvalidCardID):
		BadRequest(c, "invalid card id")
	case errors.Is(err, gorm.ErrRecordNotFound):
		NotFound(c, "card not found")
	default:
		Internal(c, "failed to query card")
	}
}

func userIDFromContext(c *gin.Context) (uint, bool) {
	value, exists := c.Get("userID")
	if !exists {
		return 0, false
	}

	switch v := value.(type) {
	case uint:
		return v, true
	case int:
		if v < 0 {
			return 0, false
		}
		return uint(v), true
	case uint64:
		return uint(v), true
	case int64:
		if v < 0 {
			return 0, false
		}
		return uint(v), true
	default:
		return 0, false
	}
}

// documentOrDefault 解析并校验存量文档，损坏时回落到默认文档。
// 第二个返回值指示存量文档是否可用。
func documentOrDefault(content datatypes.JSON) (card.CardData, bool) {
	var doc card.CardData
	if err := json.Unmarshal(content, &doc); err != nil {
		return card.DefaultCard(), false
	}
	if err := card.Validate(doc); err != nil {
		return card.DefaultCard(), false
	}
	return doc, true
}

const defaultCardTitle = "My Business Card"

func defaultCardResponse() cardResponse {
	doc := card.DefaultCard()
	content, err := json.Marshal(doc)
	if err != nil {
		content = []byte("{}")
	}
	return cardResponse{
		ID:      0,
		Title:   defaultCardTitle,
		Content: datatypes.JSON(content),
	}
}

func newCardResponse(cardRow database.Card) cardResponse {
	return cardResponse{
		ID:              cardRow.ID,
		Title:           cardRow.Title,
		Content:         cardRow.Content,
		PreviewImageURL: cardRow.PreviewImageURL,
		CreatedAt:       cardRow.CreatedAt,
		UpdatedAt:       cardRow.UpdatedAt,
	}
}
