package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"

	"bizcard/internal/card"
	"bizcard/internal/database"
)

// 编辑接口：每个操作对应编辑引擎的一个纯函数。
// 统一流程是 加载文档 -> 应用操作 -> 落库 -> 返回新文档。

// withDocument 加载名片、应用纯函数操作并保存结果。
// op 返回的 extra 会并入响应 JSON（例如新建区块的 id）。
func (h *CardHandler) withDocument(c *gin.Context, op func(doc card.CardData) (card.CardData, gin.H, error)) {
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

	doc, _ := documentOrDefault(cardRow.Content)

	updated, extra, err := op(doc)
	if err != nil {
		switch {
		case errors.Is(err, card.ErrSectionNotDeletable):
			Conflict(c, err.Error())
		case errors.Is(err, card.ErrUnknownSectionType):
			BadRequest(c, err.Error())
		default:
			BadRequest(c, err.Error())
		}
		return
	}

	content, err := h.saveDocument(c.Request.Context(), cardRow.ID, updated)
	if err != nil {
		Internal(c, "failed to save card")
		return
	}

	body := gin.H{"content": json.RawMessage(content)}
	for k, v := range extra {
		body[k] = v
	}
	c.JSON(http.StatusOK, body)
}

// saveDocument 序列化并落库一份名片文档，返回写入的 JSON。
func (h *CardHandler) saveDocument(ctx context.Context, cardID uint, doc card.CardData) ([]byte, error) {
	content, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	if err := h.db.WithContext(ctx).
		Model(&database.Card{}).
		Where("id = ?", cardID).
		Update("content", datatypes.JSON(content)).Error; err != nil {
		return nil, err
	}
	return content, nil
}

type reorderSectionsRequest struct {
	SectionID   string `json:"section_id" binding:"required"`
	TargetIndex int    `json:"target_index"`
}

// ReorderSections 移动区块到目标位置。
func (h *CardHandler) ReorderSections(c *gin.Context) {
	var req reorderSectionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	h.withDocument(c, func(doc card.CardData) (card.CardData, gin.H, error) {
		return card.ReorderSections(doc, req.SectionID, req.TargetIndex), nil, nil
	})
}

// ToggleSection 切换区块可见性。
func (h *CardHandler) ToggleSection(c *gin.Context) {
	sectionID := c.Param("sectionId")
	h.withDocument(c, func(doc card.CardData) (card.CardData, gin.H, error) {
		return card.ToggleSectionVisibility(doc, sectionID), nil, nil
	})
}

type addSectionRequest struct {
	Type card.SectionType `json:"type" binding:"required"`
}

// AddSection 按注册表默认值新增区块。
func (h *CardHandler) AddSection(c *gin.Context) {
	var req addSectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	h.withDocument(c, func(doc card.CardData) (card.CardData, gin.H, error) {
		updated, sectionID, err := card.AddSection(doc, req.Type)
		if err != nil {
			return doc, nil, err
		}
		return updated, gin.H{"section_id": sectionID}, nil
	})
}

// DeleteSection 删除区块；受保护区块返回 409。
func (h *CardHandler) DeleteSection(c *gin.Context) {
	sectionID := c.Param("sectionId")
	h.withDocument(c, func(doc card.CardData) (card.CardData, gin.H, error) {
		updated, err := card.DeleteSection(doc, sectionID)
		if err != nil {
			return doc, nil, err
		}
		return updated, nil, nil
	})
}

type updateSectionRequest struct {
	Title   *string             `json:"title"`
	Content *string             `json:"content"`
	Items   *[]card.ServiceItem `json:"items"`
}

// UpdateSection 部分更新区块字段，缺省字段保持不变。
func (h *CardHandler) UpdateSection(c *gin.Context) {
	var req updateSectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	sectionID := c.Param("sectionId")
	h.withDocument(c, func(doc card.CardData) (card.CardData, gin.H, error) {
		update := card.SectionUpdate{
			Title:   req.Title,
			Content: req.Content,
			Items:   req.Items,
		}
		if req.Content != nil {
			if idx := doc.FindSection(sectionID); idx >= 0 && doc.Sections[idx].Type == card.SectionRichText {
				clean := richTextPolicy.Sanitize(*req.Content)
				update.Content = &clean
			}
		}
		return card.UpdateSection(doc, sectionID, update), nil, nil
	})
}

type updatePersonalInfoRequest struct {
	FullName  *string `json:"fullName"`
	Title     *string `json:"title"`
	Company   *string `json:"company"`
	Email     *string `json:"email"`
	Phone     *string `json:"phone"`
	Location  *string `json:"location"`
	Website   *string `json:"website"`
	AvatarURL *string `json:"avatarUrl"`
	CoverURL  *string `json:"coverUrl"`
}

// UpdatePersonalInfo 部分更新个人资料。
func (h *CardHandler) UpdatePersonalInfo(c *gin.Context) {
	var req updatePersonalInfoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	h.withDocument(c, func(doc card.CardData) (card.CardData, gin.H, error) {
		return card.UpdatePersonalInfo(doc, card.PersonalInfoUpdate{
			FullName:  req.FullName,
			Title:     req.Title,
			Company:   req.Company,
			Email:     req.Email,
			Phone:     req.Phone,
			Location:  req.Location,
			Website:   req.Website,
			AvatarURL: req.AvatarURL,
			CoverURL:  req.CoverURL,
		}), nil, nil
	})
}

type setTemplateRequest struct {
	Template card.TemplateType `json:"template" binding:"required"`
}

// SetTemplate 切换模板；未知模板名返回 400。
func (h *CardHandler) SetTemplate(c *gin.Context) {
	var req setTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	if !card.ValidTemplate(req.Template) {
		BadRequest(c, "unknown template")
		return
	}
	h.withDocument(c, func(doc card.CardData) (card.CardData, gin.H, error) {
		return card.SetTemplate(doc, req.Template), nil, nil
	})
}

type setThemeColorRequest struct {
	Color string `json:"color" binding:"required"`
}

// SetThemeColor 更新主题色。
func (h *CardHandler) SetThemeColor(c *gin.Context) {
	var req setThemeColorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	h.withDocument(c, func(doc card.CardData) (card.CardData, gin.H, error) {
		return card.SetThemeColor(doc, req.Color), nil, nil
	})
}

type serviceItemRequest struct {
	Title string `json:"title"`
	Desc  string `json:"desc"`
}

// AddServiceItem 在服务区块追加一条服务。
func (h *CardHandler) AddServiceItem(c *gin.Context) {
	var req serviceItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	sectionID := c.Param("sectionId")
	h.withDocument(c, func(doc card.CardData) (card.CardData, gin.H, error) {
		updated, itemID := card.AddServiceItem(doc, sectionID, req.Title, req.Desc)
		extra := gin.H{}
		if itemID != "" {
			extra["item_id"] = itemID
		}
		return updated, extra, nil
	})
}

// UpdateServiceItem 更新一条服务。
func (h *CardHandler) UpdateServiceItem(c *gin.Context) {
	var req serviceItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	sectionID := c.Param("sectionId")
	itemID := c.Param("itemId")
	h.withDocument(c, func(doc card.CardData) (card.CardData, gin.H, error) {
		return card.UpdateServiceItem(doc, sectionID, itemID, req.Title, req.Desc), nil, nil
	})
}

// DeleteServiceItem 删除一条服务。
func (h *CardHandler) DeleteServiceItem(c *gin.Context) {
	sectionID := c.Param("sectionId")
	itemID := c.Param("itemId")
	h.withDocument(c, func(doc card.CardData) (card.CardData, gin.H, error) {
		return card.DeleteServiceItem(doc, sectionID, itemID), nil, nil
	})
}

type reorderItemRequest struct {
	ItemID      string `json:"item_id" binding:"required"`
	TargetIndex int    `json:"target_index"`
}

// ReorderServiceItems 调整服务顺序。
func (h *CardHandler) ReorderServiceItems(c *gin.Context) {
	var req reorderItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	sectionID := c.Param("sectionId")
	h.withDocument(c, func(doc card.CardData) (card.CardData, gin.H, error) {
		return card.ReorderServiceItems(doc, sectionID, req.ItemID, req.TargetIndex), nil, nil
	})
}

type socialLinkRequest struct {
	Platform card.Platform `json:"platform" binding:"required"`
	URL      string        `json:"url" binding:"required"`
}

// AddSocialLink 追加社交链接；平台非法返回 400。
func (h *CardHandler) AddSocialLink(c *gin.Context) {
	var req socialLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	if !card.ValidPlatform(req.Platform) {
		BadRequest(c, "unknown platform")
		return
	}
	h.withDocument(c, func(doc card.CardData) (card.CardData, gin.H, error) {
		updated, linkID := card.AddSocialLink(doc, req.Platform, req.URL)
		extra := gin.H{}
		if linkID != "" {
			extra["link_id"] = linkID
		}
		return updated, extra, nil
	})
}

// UpdateSocialLink 更新社交链接。
func (h *CardHandler) UpdateSocialLink(c *gin.Context) {
	var req socialLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	if !card.ValidPlatform(req.Platform) {
		BadRequest(c, "unknown platform")
		return
	}
	linkID := c.Param("linkId")
	h.withDocument(c, func(doc card.CardData) (card.CardData, gin.H, error) {
		return card.UpdateSocialLink(doc, linkID, req.Platform, req.URL), nil, nil
	})
}

// DeleteSocialLink 删除社交链接。
func (h *CardHandler) DeleteSocialLink(c *gin.Context) {
	linkID := c.Param("linkId")
	h.withDocument(c, func(doc card.CardData) (card.CardData, gin.H, error) {
		return card.DeleteSocialLink(doc, linkID), nil, nil
	})
}

type reorderLinkRequest struct {
	LinkID      string `json:"link_id" binding:"required"`
	TargetIndex int    `json:"target_index"`
}

// ReorderSocialLinks 调整社交链接顺序。
func (h *CardHandler) ReorderSocialLinks(c *gin.Context) {
	var req reorderLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	h.withDocument(c, func(doc card.CardData) (card.CardData, gin.H, error) {
		return card.ReorderSocialLinks(doc, req.LinkID, req.TargetIndex), nil, nil
	})
}
