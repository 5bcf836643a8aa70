package api

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"bizcard/internal/card"
	"bizcard/internal/database"
	"bizcard/internal/errcode"
	"bizcard/internal/render"
)

// PreviewCard 服务端渲染名片 HTML，query 里的 template 可临时覆盖模板。
func (h *CardHandler) PreviewCard(c *gin.Context) {
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

	var doc card.CardData
	if err := json.Unmarshal(cardRow.Content, &doc); err != nil {
		Internal(c, "failed to decode card document")
		return
	}

	doc, _ = resolveDocumentAssets(c.Request.Context(), h.storage, cardRow.UserID, doc)

	html, err := render.Render(doc, render.Options{Template: template})
	if err != nil {
		Internal(c, "failed to render card")
		return
	}

	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(html))
}

// printCardResponse 是内部打印接口的响应。
type printCardResponse struct {
	Card card.CardData `json:"card"`
	Meta struct {
		Warnings []printCardWarning `json:"warnings,omitempty"`
	} `json:"meta"`
}

type printCardWarning struct {
	Code        int      `json:"code"`
	Message     string   `json:"message"`
	MissingKeys []string `json:"missing_keys,omitempty"`
}

// GetPrintCardData 返回导出 Worker 渲染所需的完整文档。
// 头像/封面若指向已删除的对象会被置空，并附带 4004 告警，导出流程照常继续。
func (h *CardHandler) GetPrintCardData(c *gin.Context) {
	cardID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		BadRequest(c, "invalid card id")
		return
	}

	var cardRow database.Card
	ctx := c.Request.Context()
	if err := h.db.WithContext(ctx).First(&cardRow, uint(cardID)).Error; err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			NotFound(c, "card not found")
		default:
			Internal(c, "failed to load card")
		}
		return
	}

	var doc card.CardData
	if err := json.Unmarshal(cardRow.Content, &doc); err != nil {
		Internal(c, "failed to decode card document")
		return
	}
	if err := card.Validate(doc); err != nil {
		Internal(c, "card document is invalid: "+err.Error())
		return
	}

	resolved, missingKeys := inlineDocumentAssets(ctx, h.storage, cardRow.UserID, doc)

	resp := printCardResponse{Card: resolved}
	if len(missingKeys) > 0 {
		resp.Meta.Warnings = append(resp.Meta.Warnings, printCardWarning{
			Code:        errcode.ResourceMissing,
			Message:     "some image assets are missing and were skipped",
			MissingKeys: missingKeys,
		})
	}

	c.JSON(http.StatusOK, resp)
}

// resolveAssetFields 在文档副本上解析头像/封面字段。
// resolve 返回空串或出错视为对象缺失：字段置空并记入返回值。
// 外链 URL 原样保留。
func resolveAssetFields(ownerID uint, doc card.CardData, resolve func(key string) (string, error)) (card.CardData, []string) {
	var missing []string

	apply := func(value string) string {
		key := strings.TrimSpace(value)
		if !strings.HasPrefix(key, "user-assets/") {
			return value
		}
		if !isValidUserAssetObjectKey(ownerID, key) {
			missing = append(missing, key)
			return ""
		}
		out, err := resolve(key)
		if err != nil || out == "" {
			missing = append(missing, key)
			return ""
		}
		return out
	}

	doc = doc.Clone()
	doc.PersonalInfo.AvatarURL = apply(doc.PersonalInfo.AvatarURL)
	doc.PersonalInfo.CoverURL = apply(doc.PersonalInfo.CoverURL)
	return doc, missing
}

// resolveDocumentAssets 将对象 Key 换成一小时有效的预签名 URL，预览页由浏览器直接拉取。
func resolveDocumentAssets(ctx context.Context, store ObjectStore, ownerID uint, doc card.CardData) (card.CardData, []string) {
	return resolveAssetFields(ownerID, doc, func(key string) (string, error) {
		exists, err := store.ObjectExists(ctx, key)
		if err != nil || !exists {
			return "", err
		}
		return store.GeneratePresignedURL(ctx, key, time.Hour)
	})
}

// inlineDocumentAssets 将对象读成 data URI，导出渲染端无需访问对象存储。
func inlineDocumentAssets(ctx context.Context, store ObjectStore, ownerID uint, doc card.CardData) (card.CardData, []string) {
	return resolveAssetFields(ownerID, doc, func(key string) (string, error) {
		exists, err := store.ObjectExists(ctx, key)
		if err != nil || !exists {
			return "", err
		}
		data, contentType, err := store.ReadObject(ctx, key)
		if err != nil || len(data) == 0 {
			return "", err
		}
		return fmt.Sprintf("data:%s;base64,%s", contentType, base64.StdEncoding.EncodeToString(data)), nil
	})
}
