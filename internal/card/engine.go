package card

import "errors"

// 编辑引擎：所有操作接收旧文档并返回新文档，旧值保持不变。
// 针对失效 ID 的操作是静默 no-op，与直接操纵式 UI 的宽容语义一致。

var (
	// ErrSectionNotDeletable 表示目标区块是结构性区块，不允许删除。
	ErrSectionNotDeletable = errors.New("card: section type is not deletable")
	// ErrUnknownSectionType 表示请求创建的区块类型不在注册表中。
	ErrUnknownSectionType = errors.New("card: unknown section type")
)

// SectionUpdate 描述对单个区块的部分更新，nil 字段保持不变。
type SectionUpdate struct {
	Title   *string
	Content *string
	Items   *[]ServiceItem
}

// PersonalInfoUpdate 描述对个人资料的部分更新，nil 字段保持不变。
type PersonalInfoUpdate struct {
	FullName  *string
	Title     *string
	Company   *string
	Email     *string
	Phone     *string
	Location  *string
	Website   *string
	AvatarURL *string
	CoverURL  *string
}

// ReorderSections 将指定区块移动到目标下标，下标越界时收敛到 [0, len-1]。
func ReorderSections(doc CardData, sectionID string, targetIndex int) CardData {
	from := doc.FindSection(sectionID)
	if from < 0 {
		return doc
	}
	to := clamp(targetIndex, len(doc.Sections))
	if from == to {
		return doc
	}
	out := doc.Clone()
	moved := out.Sections[from]
	out.Sections = append(out.Sections[:from], out.Sections[from+1:]...)
	out.Sections = insertSection(out.Sections, to, moved)
	return out
}

// ToggleSectionVisibility 翻转区块可见性；隐藏的区块保留在文档中，可随时恢复。
func ToggleSectionVisibility(doc CardData, sectionID string) CardData {
	idx := doc.FindSection(sectionID)
	if idx < 0 {
		return doc
	}
	out := doc.Clone()
	out.Sections[idx].IsVisible = !out.Sections[idx].IsVisible
	return out
}

// AddSection 按注册表默认值在末尾追加新区块，并返回新区块的 ID。
func AddSection(doc CardData, t SectionType) (CardData, string, error) {
	if !KnownSectionType(t) {
		return doc, "", ErrUnknownSectionType
	}
	out := doc.Clone()
	s := newSection(t)
	out.Sections = append(out.Sections, s)
	return out, s.ID, nil
}

// DeleteSection 删除指定区块；结构性区块返回 ErrSectionNotDeletable 且文档不变。
func DeleteSection(doc CardData, sectionID string) (CardData, error) {
	idx := doc.FindSection(sectionID)
	if idx < 0 {
		return doc, nil
	}
	if !Deletable(doc.Sections[idx].Type) {
		return doc, ErrSectionNotDeletable
	}
	out := doc.Clone()
	out.Sections = append(out.Sections[:idx], out.Sections[idx+1:]...)
	return out, nil
}

// UpdateSection 合并给定字段到指定区块，类型与 ID 不可变。
func UpdateSection(doc CardData, sectionID string, update SectionUpdate) CardData {
	idx := doc.FindSection(sectionID)
	if idx < 0 {
		return doc
	}
	out := doc.Clone()
	s := &out.Sections[idx]
	if update.Title != nil {
		s.Title = *update.Title
	}
	if update.Content != nil {
		s.Content = *update.Content
	}
	if update.Items != nil {
		s.Items = append([]ServiceItem(nil), (*update.Items)...)
	}
	return out
}

// UpdatePersonalInfo 合并给定字段到个人资料。
func UpdatePersonalInfo(doc CardData, update PersonalInfoUpdate) CardData {
	out := doc.Clone()
	info := &out.PersonalInfo
	if update.FullName != nil {
		info.FullName = *update.FullName
	}
	if update.Title != nil {
		info.Title = *update.Title
	}
	if update.Company != nil {
		info.Company = *update.Company
	}
	if update.Email != nil {
		info.Email = *update.Email
	}
	if update.Phone != nil {
		info.Phone = *update.Phone
	}
	if update.Location != nil {
		info.Location = *update.Location
	}
	if update.Website != nil {
		info.Website = *update.Website
	}
	if update.AvatarURL != nil {
		info.AvatarURL = *update.AvatarURL
	}
	if update.CoverURL != nil {
		info.CoverURL = *update.CoverURL
	}
	return out
}

// SetTemplate 切换渲染模板，非法取值是 no-op。
func SetTemplate(doc CardData, t TemplateType) CardData {
	if !ValidTemplate(t) {
		return doc
	}
	out := doc.Clone()
	out.Template = t
	return out
}

// SetThemeColor 更新主题色。
func SetThemeColor(doc CardData, color string) CardData {
	out := doc.Clone()
	out.ThemeColor = color
	return out
}

// AddServiceItem 在指定区块的条目列表末尾追加一条，并返回新条目的 ID。
func AddServiceItem(doc CardData, sectionID, title, desc string) (CardData, string) {
	idx := doc.FindSection(sectionID)
	if idx < 0 {
		return doc, ""
	}
	out := doc.Clone()
	item := ServiceItem{ID: NewID(), Title: title, Desc: desc}
	out.Sections[idx].Items = append(out.Sections[idx].Items, item)
	return out, item.ID
}

// AppendServiceItems 追加一组条目（例如 AI 建议的结果），已有条目不受影响。
func AppendServiceItems(doc CardData, sectionID string, items []ServiceItem) CardData {
	if len(items) == 0 {
		return doc
	}
	idx := doc.FindSection(sectionID)
	if idx < 0 {
		return doc
	}
	out := doc.Clone()
	for _, item := range items {
		if item.ID == "" {
			item.ID = NewID()
		}
		out.Sections[idx].Items = append(out.Sections[idx].Items, item)
	}
	return out
}

// UpdateServiceItem 更新指定条目的标题与描述。
func UpdateServiceItem(doc CardData, sectionID, itemID, title, desc string) CardData {
	sIdx := doc.FindSection(sectionID)
	if sIdx < 0 {
		return doc
	}
	iIdx := findItem(doc.Sections[sIdx].Items, itemID)
	if iIdx < 0 {
		return doc
	}
	out := doc.Clone()
	out.Sections[sIdx].Items[iIdx].Title = title
	out.Sections[sIdx].Items[iIdx].Desc = desc
	return out
}

// DeleteServiceItem 删除指定条目。
func DeleteServiceItem(doc CardData, sectionID, itemID string) CardData {
	sIdx := doc.FindSection(sectionID)
	if sIdx < 0 {
		return doc
	}
	iIdx := findItem(doc.Sections[sIdx].Items, itemID)
	if iIdx < 0 {
		return doc
	}
	out := doc.Clone()
	items := out.Sections[sIdx].Items
	out.Sections[sIdx].Items = append(items[:iIdx], items[iIdx+1:]...)
	return out
}

// ReorderServiceItems 将条目移动到目标下标，语义与 ReorderSections 一致。
func ReorderServiceItems(doc CardData, sectionID, itemID string, targetIndex int) CardData {
	sIdx := doc.FindSection(sectionID)
	if sIdx < 0 {
		return doc
	}
	items := doc.Sections[sIdx].Items
	from := findItem(items, itemID)
	if from < 0 {
		return doc
	}
	to := clamp(targetIndex, len(items))
	if from == to {
		return doc
	}
	out := doc.Clone()
	moved := out.Sections[sIdx].Items[from]
	rest := append(out.Sections[sIdx].Items[:from], out.Sections[sIdx].Items[from+1:]...)
	out.Sections[sIdx].Items = insertItem(rest, to, moved)
	return out
}

// AddSocialLink 追加一条社交链接，非法平台返回原文档。
func AddSocialLink(doc CardData, platform Platform, url string) (CardData, string) {
	if !ValidPlatform(platform) {
		return doc, ""
	}
	out := doc.Clone()
	link := SocialLink{ID: NewID(), Platform: platform, URL: url}
	out.SocialLinks = append(out.SocialLinks, link)
	return out, link.ID
}

// UpdateSocialLink 更新指定链接的平台与地址。
func UpdateSocialLink(doc CardData, linkID string, platform Platform, url string) CardData {
	idx := findLink(doc.SocialLinks, linkID)
	if idx < 0 || !ValidPlatform(platform) {
		return doc
	}
	out := doc.Clone()
	out.SocialLinks[idx].Platform = platform
	out.SocialLinks[idx].URL = url
	return out
}

// DeleteSocialLink 删除指定链接。
func DeleteSocialLink(doc CardData, linkID string) CardData {
	idx := findLink(doc.SocialLinks, linkID)
	if idx < 0 {
		return doc
	}
	out := doc.Clone()
	out.SocialLinks = append(out.SocialLinks[:idx], out.SocialLinks[idx+1:]...)
	return out
}

// ReorderSocialLinks 将链接移动到目标下标。
func ReorderSocialLinks(doc CardData, linkID string, targetIndex int) CardData {
	from := findLink(doc.SocialLinks, linkID)
	if from < 0 {
		return doc
	}
	to := clamp(targetIndex, len(doc.SocialLinks))
	if from == to {
		return doc
	}
	out := doc.Clone()
	moved := out.SocialLinks[from]
	rest := append(out.SocialLinks[:from], out.SocialLinks[from+1:]...)
	out.SocialLinks = insertLink(rest, to, moved)
	return out
}

func clamp(index, length int) int {
	if index < 0 {
		return 0
	}
	if index > length-1 {
		return length - 1
	}
	return index
}

func findItem(items []ServiceItem, id string) int {
	for i, item := range items {
		if item.ID == id {
			return i
		}
	}
	return -1
}

func findLink(links []SocialLink, id string) int {
	for i, link := range links {
		if link.ID == id {
			return i
		}
	}
	return -1
}

func insertSection(s []Section, at int, v Section) []Section {
	s = append(s, Section{})
	copy(s[at+1:], s[at:])
	s[at] = v
	return s
}

func insertItem(s []ServiceItem, at int, v ServiceItem) []ServiceItem {
	s = append(s, ServiceItem{})
	copy(s[at+1:], s[at:])
	s[at] = v
	return s
}

func insertLink(s []SocialLink, at int, v SocialLink) []SocialLink {
	s = append(s, SocialLink{})
	copy(s[at+1:], s[at:])
	s[at] = v
	return s
}
