package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"bizcard/internal/api/middleware"
	"bizcard/internal/card"
	"bizcard/internal/database"
	"bizcard/internal/suggest"
)

const suggestGuardTTL = time.Minute

// SuggestHandler 负责 AI 文案生成接口。
type SuggestHandler struct {
	cards     *CardHandler
	suggester suggest.ContentSuggester
	redis     redis.UniversalClient
	logger    *slog.Logger
}

// NewSuggestHandler 构造 SuggestHandler。
func NewSuggestHandler(cards *CardHandler, suggester suggest.ContentSuggester, redisClient redis.UniversalClient, logger *slog.Logger) *SuggestHandler {
	return &SuggestHandler{
		cards:     cards,
		suggester: suggester,
		redis:     redisClient,
		logger:    logger,
	}
}

type suggestBioRequest struct {
	Tone suggest.BioTone `json:"tone"`
}

// SuggestBio 根据名片的个人资料生成简介文案。
// 同一用户同一名片同时只允许一个生成请求在途。
func (h *SuggestHandler) SuggestBio(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	var req suggestBioRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		BadRequest(c, err.Error())
		return
	}
	if req.Tone == "" {
		req.Tone = suggest.ToneProfessional
	}
	if !suggest.ValidTone(req.Tone) {
		BadRequest(c, "unknown tone")
		return
	}

	cardRow, doc, ok := h.loadDocument(c, userID)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	guardKey := fmt.Sprintf("suggest:inflight:%d:%s:bio", userID, c.Param("id"))
	acquired, err := h.redis.SetNX(ctx, guardKey, "1", suggestGuardTTL).Result()
	if err == nil && !acquired {
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "generation already in progress"})
		return
	}
	defer h.redis.Del(ctx, guardKey)

	info := doc.PersonalInfo
	bio, err := h.suggester.GenerateBio(ctx, info.FullName, info.Title, info.Company, req.Tone)
	if err != nil {
		h.loggerFromContext(c).Warn("bio suggestion aborted", slog.Any("error", err))
		Internal(c, "failed to generate bio")
		return
	}

	// 生成结果直接写入 about 区块，占位文案同样照写，前端原样展示。
	updated := doc
	if idx := doc.FindSectionByType(card.SectionAbout); idx >= 0 {
		updated = card.UpdateSection(doc, doc.Sections[idx].ID, card.SectionUpdate{Content: &bio})
	}

	content, err := h.cards.saveDocument(ctx, cardRow.ID, updated)
	if err != nil {
		Internal(c, "failed to save card")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"bio":     bio,
		"content": json.RawMessage(content),
	})
}

// SuggestServices 根据职位与公司生成服务项文案。
// 生成失败时返回空列表，前端据此提示重试。
func (h *SuggestHandler) SuggestServices(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	cardRow, doc, ok := h.loadDocument(c, userID)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	guardKey := fmt.Sprintf("suggest:inflight:%d:%s:services", userID, c.Param("id"))
	acquired, err := h.redis.SetNX(ctx, guardKey, "1", suggestGuardTTL).Result()
	if err == nil && !acquired {
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "generation already in progress"})
		return
	}
	defer h.redis.Del(ctx, guardKey)

	info := doc.PersonalInfo
	items, err := h.suggester.GenerateServices(ctx, info.Title, info.Company)
	if err != nil {
		h.loggerFromContext(c).Warn("services suggestion aborted", slog.Any("error", err))
		Internal(c, "failed to generate services")
		return
	}

	// 非空结果追加到 services 区块末尾，已有条目不动；空结果不落库。
	updated := doc
	if len(items) > 0 {
		if idx := doc.FindSectionByType(card.SectionServices); idx >= 0 {
			adds := make([]card.ServiceItem, 0, len(items))
			for _, item := range items {
				adds = append(adds, card.ServiceItem{Title: item.Title, Desc: item.Desc})
			}
			updated = card.AppendServiceItems(doc, doc.Sections[idx].ID, adds)
		}
	}

	var content []byte
	if len(items) > 0 {
		content, err = h.cards.saveDocument(ctx, cardRow.ID, updated)
	} else {
		content, err = json.Marshal(updated)
	}
	if err != nil {
		Internal(c, "failed to save card")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"items":   items,
		"content": json.RawMessage(content),
	})
}

func (h *SuggestHandler) loadDocument(c *gin.Context, userID uint) (*database.Card, card.CardData, bool) {
	cardRow, err := h.cards.getCardForUser(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		respondCardLookupError(c, err)
		return nil, card.CardData{}, false
	}

	doc, _ := documentOrDefault(cardRow.Content)
	return cardRow, doc, true
}

func (h *SuggestHandler) loggerFromContext(c *gin.Context) *slog.Logger {
	if logger := middleware.LoggerFromContext(c); logger != nil {
		return logger
	}
	if h.logger != nil {
		return h.logger
	}
	return slog.Default()
}
