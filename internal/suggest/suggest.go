// Package suggest 封装 AI 文案生成：根据名片的个人信息生成简介与服务列表。
package suggest

import "context"

// BioTone 控制简介文案的语气。
type BioTone string

const (
	ToneProfessional BioTone = "professional"
	ToneCreative     BioTone = "creative"
	ToneFriendly     BioTone = "friendly"
)

// ValidTone 判断语气取值是否合法。
func ValidTone(t BioTone) bool {
	switch t {
	case ToneProfessional, ToneCreative, ToneFriendly:
		return true
	}
	return false
}

// ServiceSuggestion 是一条生成的服务项文案，尚未分配 ID。
type ServiceSuggestion struct {
	Title string `json:"title"`
	Desc  string `json:"desc"`
}

// FailedBioMessage 是简介生成失败时返回给前端的占位文案。
// 失败对调用方不算错误：接口仍然返回 200，由前端原样展示。
const FailedBioMessage = "Failed to generate content. Please try again."

// ContentSuggester 生成名片文案。失败语义遵循编辑器的宽容约定：
// GenerateBio 失败时返回 FailedBioMessage 而非错误，
// GenerateServices 失败时返回空列表。只有请求被取消才返回 err。
type ContentSuggester interface {
	GenerateBio(ctx context.Context, name, title, company string, tone BioTone) (string, error)
	GenerateServices(ctx context.Context, title, company string) ([]ServiceSuggestion, error)
}
