package card

// TemplateType 标识名片渲染所用的视觉模板。
type TemplateType string

const (
	TemplateModern   TemplateType = "modern"
	TemplateElegant  TemplateType = "elegant"
	TemplateCreative TemplateType = "creative"
)

// AvailableTemplates 是设计面板可选的模板列表。
var AvailableTemplates = []TemplateType{TemplateModern, TemplateElegant, TemplateCreative}

// ValidTemplate 判断模板取值是否合法。
func ValidTemplate(t TemplateType) bool {
	for _, v := range AvailableTemplates {
		if v == t {
			return true
		}
	}
	return false
}

// SectionType 标识区块的种类，决定渲染分支与可用的内容字段。
type SectionType string

const (
	SectionAbout        SectionType = "about"
	SectionRichText     SectionType = "rich-text"
	SectionServices     SectionType = "services"
	SectionContact      SectionType = "contact"
	SectionSocial       SectionType = "social"
	SectionTestimonials SectionType = "testimonials"
)

// Platform 标识社交链接所属的平台。
type Platform string

const (
	PlatformLinkedIn  Platform = "linkedin"
	PlatformTwitter   Platform = "twitter"
	PlatformGitHub    Platform = "github"
	PlatformInstagram Platform = "instagram"
	PlatformFacebook  Platform = "facebook"
	PlatformGlobe     Platform = "globe"
)

// ValidPlatform 判断平台取值是否合法。
func ValidPlatform(p Platform) bool {
	switch p {
	case PlatformLinkedIn, PlatformTwitter, PlatformGitHub, PlatformInstagram, PlatformFacebook, PlatformGlobe:
		return true
	}
	return false
}

// PersonalInfo 保存名片顶部的个人资料，全部字段允许为空字符串。
type PersonalInfo struct {
	FullName  string `json:"fullName"`
	Title     string `json:"title"`
	Company   string `json:"company"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Location  string `json:"location"`
	Website   string `json:"website"`
	AvatarURL string `json:"avatarUrl"`
	CoverURL  string `json:"coverUrl"`
}

// ServiceItem 表示 services 区块中的单个条目。
type ServiceItem struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Desc  string `json:"desc"`
}

// SocialLink 表示一条社交平台链接。
type SocialLink struct {
	ID       string   `json:"id"`
	Platform Platform `json:"platform"`
	URL      string   `json:"url"`
}

// Section 表示名片中一个有序的内容区块。
//
// Content 仅对 about/rich-text 有意义，Items 仅对 services 有意义。
// contact 与 social 不携带自身内容，只标记 personalInfo/socialLinks
// 在区块顺序中的展示位置；为了与既有序列化格式兼容，这两个字段
// 对所有类型统一保留。
type Section struct {
	ID        string        `json:"id"`
	Type      SectionType   `json:"type"`
	Title     string        `json:"title"`
	IsVisible bool          `json:"isVisible"`
	Content   string        `json:"content,omitempty"`
	Items     []ServiceItem `json:"items,omitempty"`
}

// CardData 是一张名片的完整文档，编辑引擎对它整体替换、从不原地修改。
type CardData struct {
	ID           string       `json:"id"`
	Template     TemplateType `json:"template"`
	ThemeColor   string       `json:"themeColor"`
	PersonalInfo PersonalInfo `json:"personalInfo"`
	Sections     []Section    `json:"sections"`
	SocialLinks  []SocialLink `json:"socialLinks"`
}

// Clone 返回文档的深拷贝，切片全部重新分配。
func (d CardData) Clone() CardData {
	out := d
	out.Sections = make([]Section, len(d.Sections))
	for i, s := range d.Sections {
		out.Sections[i] = s.clone()
	}
	out.SocialLinks = append([]SocialLink(nil), d.SocialLinks...)
	return out
}

func (s Section) clone() Section {
	out := s
	if s.Items != nil {
		out.Items = append([]ServiceItem(nil), s.Items...)
	}
	return out
}

// FindSection 返回指定 ID 的区块下标，不存在时返回 -1。
func (d CardData) FindSection(sectionID string) int {
	for i, s := range d.Sections {
		if s.ID == sectionID {
			return i
		}
	}
	return -1
}

// FindSectionByType 返回第一个指定类型区块的下标，不存在时返回 -1。
func (d CardData) FindSectionByType(t SectionType) int {
	for i, s := range d.Sections {
		if s.Type == t {
			return i
		}
	}
	return -1
}
