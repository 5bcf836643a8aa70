package render

import (
	"bytes"
	"fmt"
	"html/template"

	"bizcard/internal/card"
)

// Options 控制单次渲染的可选参数。
type Options struct {
	// Template 覆盖文档自带的模板选择，留空表示使用文档的值。
	Template card.TemplateType
}

// Render 将名片文档渲染为完整的 HTML 页面。
// 纯函数：不修改文档，也不做任何 I/O；预览接口与导出 Worker 共用同一实现。
func Render(doc card.CardData, opts Options) (string, error) {
	tpl := doc.Template
	if opts.Template != "" {
		tpl = opts.Template
	}

	layout, ok := layouts[tpl]
	if !ok {
		return "", fmt.Errorf("render: unknown template %q", tpl)
	}

	page := buildPage(doc)

	var buf bytes.Buffer
	if err := layout.Execute(&buf, page); err != nil {
		return "", fmt.Errorf("execute %s template: %w", tpl, err)
	}
	return buf.String(), nil
}

// pageView 是模板的顶层数据。
type pageView struct {
	FullName   string
	JobTitle   string
	Company    string
	AvatarURL  string
	CoverURL   string
	ThemeColor string
	Sections   []sectionView
}

// sectionView 是单个可见区块的渲染数据，按类型只填充对应字段。
type sectionView struct {
	Kind       string
	Title      string
	ThemeColor string
	Text       string        // about：纯文本，换行由 CSS 保留
	HTML       template.HTML // rich-text：富文本原样注入，清洗在写入边界完成
	Items      []itemView    // services
	Contacts   []contactView // contact
	Links      []linkView    // social
}

type itemView struct {
	Title string
	Desc  string
}

type contactView struct {
	Label string
	Value string
	Href  string
}

type linkView struct {
	Platform card.Platform
	Label    string
	URL      string
}

var platformLabels = map[card.Platform]string{
	card.PlatformLinkedIn:  "in",
	card.PlatformTwitter:   "tw",
	card.PlatformGitHub:    "gh",
	card.PlatformInstagram: "ig",
	card.PlatformFacebook:  "fb",
	card.PlatformGlobe:     "www",
}

// buildPage 把文档投影为视图模型：先过滤不可见区块，再按类型分派。
func buildPage(doc card.CardData) pageView {
	page := pageView{
		FullName:   doc.PersonalInfo.FullName,
		JobTitle:   doc.PersonalInfo.Title,
		Company:    doc.PersonalInfo.Company,
		AvatarURL:  doc.PersonalInfo.AvatarURL,
		CoverURL:   doc.PersonalInfo.CoverURL,
		ThemeColor: doc.ThemeColor,
	}

	for _, s := range doc.Sections {
		if !s.IsVisible {
			continue
		}
		if view, ok := buildSection(doc, s); ok {
			page.Sections = append(page.Sections, view)
		}
	}
	return page
}

func buildSection(doc card.CardData, s card.Section) (sectionView, bool) {
	view := sectionView{Kind: string(s.Type), Title: s.Title, ThemeColor: doc.ThemeColor}

	switch s.Type {
	case card.SectionAbout:
		view.Text = s.Content
	case card.SectionRichText:
		view.HTML = template.HTML(s.Content)
	case card.SectionServices:
		for _, item := range s.Items {
			view.Items = append(view.Items, itemView{Title: item.Title, Desc: item.Desc})
		}
	case card.SectionContact:
		view.Contacts = buildContacts(doc.PersonalInfo)
	case card.SectionSocial:
		for _, link := range doc.SocialLinks {
			label, ok := platformLabels[link.Platform]
			if !ok {
				label = platformLabels[card.PlatformGlobe]
			}
			view.Links = append(view.Links, linkView{Platform: link.Platform, Label: label, URL: link.URL})
		}
	default:
		// 预留类型（testimonials）以及更新版本写入的未知类型：
		// 不渲染任何内容，也不报错。
		return sectionView{}, false
	}

	return view, true
}

// buildContacts 从 personalInfo 取联系方式，空字段逐个省略。
func buildContacts(info card.PersonalInfo) []contactView {
	contacts := make([]contactView, 0, 4)
	if info.Email != "" {
		contacts = append(contacts, contactView{Label: "Email", Value: info.Email, Href: "mailto:" + info.Email})
	}
	if info.Phone != "" {
		contacts = append(contacts, contactView{Label: "Phone", Value: info.Phone, Href: "tel:" + info.Phone})
	}
	if info.Website != "" {
		contacts = append(contacts, contactView{Label: "Website", Value: info.Website, Href: "https://" + info.Website})
	}
	if info.Location != "" {
		contacts = append(contacts, contactView{Label: "Location", Value: info.Location})
	}
	return contacts
}
