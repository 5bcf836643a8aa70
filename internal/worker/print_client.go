package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"bizcard/internal/card"
	"bizcard/internal/errcode"
)

// printDocument 是内部打印接口的响应：完整的名片文档加上资源告警。
type printDocument struct {
	Card card.CardData `json:"card"`
	Meta struct {
		Warnings []printWarning `json:"warnings"`
	} `json:"meta"`
}

type printWarning struct {
	Code        int      `json:"code"`
	Message     string   `json:"message"`
	MissingKeys []string `json:"missing_keys"`
}

// fetchPrintDocument 从后端内部打印接口拉取名片文档。
// 只允许 Worker 通过 Header 携带 INTERNAL_API_SECRET 访问。
func fetchPrintDocument(ctx context.Context, baseURL string, cardID uint, secret, correlationID string) (*printDocument, error) {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return nil, fmt.Errorf("internal api secret missing")
	}

	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("internal api base url missing")
	}

	targetURL := fmt.Sprintf("%s/v1/cards/print/%d", baseURL, cardID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build internal request: %w", err)
	}
	req.Header.Set("X-Internal-Secret", secret)
	if correlationID != "" {
		req.Header.Set("X-Correlation-ID", correlationID)
	}

	client := &http.Client{Timeout: 15 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request print document: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 8*1024))
		return nil, fmt.Errorf("print document status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var doc printDocument
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode print document: %w", err)
	}

	return &doc, nil
}

// missingAssetKeys 汇总资源缺失类告警里的对象 Key（去重、去空白）。
func (d *printDocument) missingAssetKeys() (keys []string, hasWarning bool) {
	uniq := make(map[string]struct{})
	for _, w := range d.Meta.Warnings {
		if w.Code != errcode.ResourceMissing {
			continue
		}
		hasWarning = true
		for _, k := range w.MissingKeys {
			key := strings.TrimSpace(k)
			if key == "" {
				continue
			}
			if _, ok := uniq[key]; ok {
				continue
			}
			uniq[key] = struct{}{}
			keys = append(keys, key)
		}
	}
	return keys, hasWarning
}
