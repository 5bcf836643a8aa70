package render

import (
	"strings"
	"testing"

	"bizcard/internal/card"
)

func renderOrFail(t *testing.T, doc card.CardData, opts Options) string {
	t.Helper()
	html, err := Render(doc, opts)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	return html
}

func TestRenderAllTemplates(t *testing.T) {
	doc := card.DefaultCard()
	for _, tpl := range []card.TemplateType{card.TemplateModern, card.TemplateElegant, card.TemplateCreative} {
		doc.Template = tpl
		html := renderOrFail(t, doc, Options{})
		if !strings.Contains(html, doc.PersonalInfo.FullName) {
			t.Errorf("%s: full name missing from output", tpl)
		}
		if !strings.Contains(html, doc.ThemeColor) {
			t.Errorf("%s: theme color not applied", tpl)
		}
	}
}

func TestRenderUnknownTemplateFails(t *testing.T) {
	doc := card.DefaultCard()
	doc.Template = "vintage"
	if _, err := Render(doc, Options{}); err == nil {
		t.Fatal("expected error for unknown template")
	}
}

func TestRenderTemplateOverride(t *testing.T) {
	doc := card.DefaultCard()
	doc.Template = card.TemplateModern

	base := renderOrFail(t, doc, Options{})
	overridden := renderOrFail(t, doc, Options{Template: card.TemplateCreative})
	if base == overridden {
		t.Fatal("override did not change the rendered output")
	}
	// 覆盖是一次性的，文档本身不变。
	if doc.Template != card.TemplateModern {
		t.Fatalf("document template mutated to %q", doc.Template)
	}
}

func TestRenderSkipsInvisibleSections(t *testing.T) {
	doc := card.DefaultCard()
	for _, tpl := range []card.TemplateType{card.TemplateModern, card.TemplateElegant, card.TemplateCreative} {
		doc.Template = tpl

		visible := renderOrFail(t, doc, Options{})
		if !strings.Contains(visible, "About Me") {
			t.Fatalf("%s: visible section missing", tpl)
		}

		hidden := card.ToggleSectionVisibility(doc, "bio")
		html := renderOrFail(t, hidden, Options{})
		if strings.Contains(html, "About Me") {
			t.Errorf("%s: hidden section still rendered", tpl)
		}
	}
}

func TestRenderEmptyServicesPlaceholder(t *testing.T) {
	doc := card.DefaultCard()
	doc = card.UpdateSection(doc, "services", card.SectionUpdate{Items: &[]card.ServiceItem{}})

	for _, tpl := range []card.TemplateType{card.TemplateModern, card.TemplateElegant, card.TemplateCreative} {
		doc.Template = tpl
		html := renderOrFail(t, doc, Options{})
		if !strings.Contains(html, "No services added yet.") {
			t.Errorf("%s: empty services placeholder missing", tpl)
		}
	}
}

func TestRenderServiceItems(t *testing.T) {
	doc := card.DefaultCard()
	html := renderOrFail(t, doc, Options{})
	for _, want := range []string{"UI/UX Design", "Brand Identity", "Web Development"} {
		if !strings.Contains(html, want) {
			t.Errorf("service %q missing from output", want)
		}
	}
	if strings.Contains(html, "No services added yet.") {
		t.Error("placeholder shown despite items present")
	}
}

func TestRenderUnknownSectionTypeSilentlySkipped(t *testing.T) {
	doc := card.DefaultCard()
	doc.Sections = append(doc.Sections, card.Section{
		ID:        "t1",
		Type:      "testimonials",
		Title:     "What Clients Say",
		IsVisible: true,
	})

	html := renderOrFail(t, doc, Options{})
	if strings.Contains(html, "What Clients Say") {
		t.Error("unknown section type rendered a heading")
	}
}

func TestRenderContactOmitsEmptyFields(t *testing.T) {
	doc := card.DefaultCard()
	doc.PersonalInfo.Phone = ""
	doc.PersonalInfo.Website = ""

	html := renderOrFail(t, doc, Options{})
	if strings.Contains(html, "Phone") {
		t.Error("empty phone still rendered")
	}
	if strings.Contains(html, "Website") {
		t.Error("empty website still rendered")
	}
	if !strings.Contains(html, "mailto:"+doc.PersonalInfo.Email) {
		t.Error("email contact missing")
	}
	if !strings.Contains(html, doc.PersonalInfo.Location) {
		t.Error("location missing")
	}
}

func TestRenderSocialLinksFromDocument(t *testing.T) {
	doc := card.DefaultCard()
	html := renderOrFail(t, doc, Options{})
	for _, link := range doc.SocialLinks {
		if !strings.Contains(html, link.URL) {
			t.Errorf("social link %s missing from output", link.URL)
		}
	}

	doc, _ = card.AddSocialLink(doc, card.PlatformGitHub, "https://github.com/alexmorgan")
	html = renderOrFail(t, doc, Options{})
	if !strings.Contains(html, "https://github.com/alexmorgan") {
		t.Error("added social link missing from output")
	}
}

func TestRenderRichTextInjectedRaw(t *testing.T) {
	doc := card.DefaultCard()
	doc = card.UpdateSection(doc, "custom-text", card.SectionUpdate{Content: strPtr("<p>Hello <strong>world</strong></p>")})

	html := renderOrFail(t, doc, Options{})
	if !strings.Contains(html, "<strong>world</strong>") {
		t.Error("rich text was escaped instead of injected")
	}
}

func strPtr(s string) *string { return &s }
