package card

import "fmt"

// Validate 检查文档的结构完整性（well-formedness）。
// 校验只在 I/O 边界执行一次：反序列化失败或校验不通过的持久化文档
// 会被内置默认文档替换，之后引擎内部始终假定文档是完整的。
func Validate(doc CardData) error {
	if doc.ID == "" {
		return fmt.Errorf("card: document id is empty")
	}
	if !ValidTemplate(doc.Template) {
		return fmt.Errorf("card: invalid template %q", doc.Template)
	}

	sectionIDs := make(map[string]struct{}, len(doc.Sections))
	for _, s := range doc.Sections {
		if s.ID == "" {
			return fmt.Errorf("card: section with empty id")
		}
		if _, dup := sectionIDs[s.ID]; dup {
			return fmt.Errorf("card: duplicate section id %q", s.ID)
		}
		sectionIDs[s.ID] = struct{}{}

		if !KnownSectionType(s.Type) {
			return fmt.Errorf("card: section %q has unknown type %q", s.ID, s.Type)
		}

		itemIDs := make(map[string]struct{}, len(s.Items))
		for _, item := range s.Items {
			if item.ID == "" {
				return fmt.Errorf("card: section %q has item with empty id", s.ID)
			}
			if _, dup := itemIDs[item.ID]; dup {
				return fmt.Errorf("card: section %q has duplicate item id %q", s.ID, item.ID)
			}
			itemIDs[item.ID] = struct{}{}
		}
	}

	linkIDs := make(map[string]struct{}, len(doc.SocialLinks))
	for _, link := range doc.SocialLinks {
		if link.ID == "" {
			return fmt.Errorf("card: social link with empty id")
		}
		if _, dup := linkIDs[link.ID]; dup {
			return fmt.Errorf("card: duplicate social link id %q", link.ID)
		}
		linkIDs[link.ID] = struct{}{}
		if !ValidPlatform(link.Platform) {
			return fmt.Errorf("card: social link %q has unknown platform %q", link.ID, link.Platform)
		}
	}

	return nil
}
