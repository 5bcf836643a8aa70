package api

import (
	"github.com/microcosm-cc/bluemonday"

	"bizcard/internal/card"
)

// 富文本只在写入边界清洗一次，渲染时按已清洗内容原样注入。
var richTextPolicy = bluemonday.UGCPolicy()

// sanitizeDocument 清洗文档中所有富文本区块的 HTML。
func sanitizeDocument(doc card.CardData) card.CardData {
	doc = doc.Clone()
	for i := range doc.Sections {
		if doc.Sections[i].Type == card.SectionRichText {
			doc.Sections[i].Content = richTextPolicy.Sanitize(doc.Sections[i].Content)
		}
	}
	return doc
}
