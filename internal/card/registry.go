package card

import "github.com/google/uuid"

// sectionSpec 描述某一类区块的创建默认值与结构约束。
type sectionSpec struct {
	DefaultTitle   string
	DefaultContent string
	// NewDefaultItems 为 nil 表示该类型不携带条目列表。
	NewDefaultItems func() []ServiceItem
	// Deletable 为 false 的类型是结构性区块，删除请求会被拒绝。
	Deletable bool
}

// sectionRegistry 是封闭的区块类型表，运行期不可变。
var sectionRegistry = map[SectionType]sectionSpec{
	SectionAbout: {
		DefaultTitle: "About Me",
		Deletable:    false,
	},
	SectionRichText: {
		DefaultTitle:   "New Content",
		DefaultContent: "<p>Start typing...</p>",
		Deletable:      true,
	},
	SectionServices: {
		DefaultTitle: "My Services",
		NewDefaultItems: func() []ServiceItem {
			return []ServiceItem{{ID: NewID(), Title: "Service 1", Desc: "Description"}}
		},
		Deletable: true,
	},
	SectionContact: {
		DefaultTitle: "Contact Info",
		Deletable:    false,
	},
	SectionSocial: {
		DefaultTitle: "Social Profiles",
		Deletable:    false,
	},
	SectionTestimonials: {
		DefaultTitle: "Testimonials",
		Deletable:    true,
	},
}

// lookupSection 返回类型对应的注册表条目。
func lookupSection(t SectionType) (sectionSpec, bool) {
	spec, ok := sectionRegistry[t]
	return spec, ok
}

// KnownSectionType 判断区块类型是否属于封闭集合。
func KnownSectionType(t SectionType) bool {
	_, ok := lookupSection(t)
	return ok
}

// Deletable 判断该类型的区块是否允许删除。
func Deletable(t SectionType) bool {
	spec, ok := lookupSection(t)
	return ok && spec.Deletable
}

// NewID 生成序列内唯一的不透明标识。
func NewID() string {
	return uuid.NewString()
}

// newSection 按注册表默认值创建一个新区块。
func newSection(t SectionType) Section {
	spec, _ := lookupSection(t)
	s := Section{
		ID:        NewID(),
		Type:      t,
		Title:     spec.DefaultTitle,
		IsVisible: true,
		Content:   spec.DefaultContent,
	}
	if spec.NewDefaultItems != nil {
		s.Items = spec.NewDefaultItems()
	}
	return s
}
