package suggest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const defaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// GeminiSuggester 通过 Gemini generateContent REST 接口生成文案。
type GeminiSuggester struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

// NewGeminiSuggester 构造 Gemini 客户端。baseURL 留空时使用官方地址，
// 测试里可以指向 httptest 服务。
func NewGeminiSuggester(apiKey, model, baseURL string, logger *slog.Logger) *GeminiSuggester {
	if model == "" {
		model = "gemini-2.5-flash"
	}
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = defaultGeminiBaseURL
	}
	return &GeminiSuggester{
		apiKey:  strings.TrimSpace(apiKey),
		model:   model,
		baseURL: baseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
		logger:  logger.With(slog.String("component", "suggest")),
	}
}

// generateContent 请求体，只带用到的字段。
type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
	Config   *geminiConfig   `json:"generationConfig,omitempty"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiConfig struct {
	ResponseMIMEType string          `json:"responseMimeType,omitempty"`
	ResponseSchema   json.RawMessage `json:"responseSchema,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []geminiPart `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// servicesSchema 约束服务列表以 JSON 数组返回。
var servicesSchema = json.RawMessage(`{
	"type": "ARRAY",
	"items": {
		"type": "OBJECT",
		"properties": {
			"title": {"type": "STRING"},
			"desc": {"type": "STRING"}
		},
		"required": ["title", "desc"]
	}
}`)

// GenerateBio 生成一段简短的个人简介。上游失败时返回占位文案而非错误。
func (g *GeminiSuggester) GenerateBio(ctx context.Context, name, title, company string, tone BioTone) (string, error) {
	if !ValidTone(tone) {
		tone = ToneProfessional
	}

	prompt := fmt.Sprintf(
		"Write a short, engaging professional bio (max 60 words) for a digital business card.\n"+
			"Name: %s\nJob Title: %s\nCompany: %s\nTone: %s\n\n"+
			"Return only the bio text, no markdown formatting or quotes.",
		name, title, company, tone)

	text, err := g.generate(ctx, geminiRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: prompt}}}},
	})
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		g.logger.Warn("bio generation failed", slog.String("error", err.Error()))
		return FailedBioMessage, nil
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "Could not generate bio.", nil
	}
	return text, nil
}

// GenerateServices 生成三条服务项文案。上游失败时返回空列表而非错误。
func (g *GeminiSuggester) GenerateServices(ctx context.Context, title, company string) ([]ServiceSuggestion, error) {
	prompt := fmt.Sprintf(
		"List 3 professional services that a %s at %s might offer. Keep titles short and descriptions under 10 words.",
		title, company)

	text, err := g.generate(ctx, geminiRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: prompt}}}},
		Config: &geminiConfig{
			ResponseMIMEType: "application/json",
			ResponseSchema:   servicesSchema,
		},
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		g.logger.Warn("services generation failed", slog.String("error", err.Error()))
		return []ServiceSuggestion{}, nil
	}

	var suggestions []ServiceSuggestion
	if err := json.Unmarshal([]byte(text), &suggestions); err != nil {
		g.logger.Warn("services response not valid JSON", slog.String("error", err.Error()))
		return []ServiceSuggestion{}, nil
	}
	return suggestions, nil
}

func (g *GeminiSuggester) generate(ctx context.Context, reqBody geminiRequest) (string, error) {
	if g.apiKey == "" {
		return "", fmt.Errorf("gemini api key missing")
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal gemini request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", g.baseURL, g.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build gemini request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", g.apiKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("request gemini: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 8*1024))
		return "", fmt.Errorf("gemini status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var parsed geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode gemini response: %w", err)
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("gemini response empty")
	}
	return parsed.Candidates[0].Content.Parts[0].Text, nil
}
