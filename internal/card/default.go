package card

// AvailableColors 是设计面板提供的主题色样本。
var AvailableColors = []string{
	"#4f46e5", // Indigo
	"#0ea5e9", // Sky
	"#10b981", // Emerald
	"#f59e0b", // Amber
	"#e11d48", // Rose
	"#1e293b", // Slate
	"#8b5cf6", // Violet
}

// DefaultCard 返回内置默认名片文档。
// 每次调用都返回独立副本，调用方可以放心修改。
func DefaultCard() CardData {
	return CardData{
		ID:         NewID(),
		Template:   TemplateModern,
		ThemeColor: "#4f46e5",
		PersonalInfo: PersonalInfo{
			FullName:  "Alex Morgan",
			Title:     "Senior Product Designer",
			Company:   "Creative Flow Studio",
			Email:     "alex.morgan@example.com",
			Phone:     "+1 (555) 123-4567",
			Location:  "San Francisco, CA",
			Website:   "www.alexmorgan.design",
			AvatarURL: "https://picsum.photos/200/200",
			CoverURL:  "https://picsum.photos/800/300",
		},
		Sections: []Section{
			{
				ID:        "bio",
				Type:      SectionAbout,
				Title:     "About Me",
				IsVisible: true,
				Content: "I am a passionate designer with over 8 years of experience in creating digital products " +
					"that people love to use. My approach combines user-centric design principles with modern " +
					"aesthetics to deliver impactful solutions.",
			},
			{
				ID:        "services",
				Type:      SectionServices,
				Title:     "My Services",
				IsVisible: true,
				Items: []ServiceItem{
					{ID: "s1", Title: "UI/UX Design", Desc: "Creating intuitive and beautiful interfaces."},
					{ID: "s2", Title: "Brand Identity", Desc: "Crafting unique visual languages for brands."},
					{ID: "s3", Title: "Web Development", Desc: "Building responsive and fast websites."},
				},
			},
			{
				ID:        "custom-text",
				Type:      SectionRichText,
				Title:     "Experience",
				IsVisible: true,
				Content: "<ul><li><strong>Senior Designer</strong> at TechCorp (2020-Present)</li>" +
					"<li><strong>UI Designer</strong> at WebFlow (2018-2020)</li></ul>" +
					"<p>Specializing in <em>design systems</em> and accessibility.</p>",
			},
			{
				ID:        "contact",
				Type:      SectionContact,
				Title:     "Contact Info",
				IsVisible: true,
			},
			{
				ID:        "social",
				Type:      SectionSocial,
				Title:     "Social Profiles",
				IsVisible: true,
			},
		},
		SocialLinks: []SocialLink{
			{ID: "1", Platform: PlatformLinkedIn, URL: "https://linkedin.com"},
			{ID: "2", Platform: PlatformTwitter, URL: "https://twitter.com"},
			{ID: "3", Platform: PlatformInstagram, URL: "https://instagram.com"},
		},
	}
}
