package tasks

import (
	"encoding/json"

	"github.com/hibiken/asynq"

	"bizcard/internal/card"
)

// 任务类型常量，确保队列生产者与消费者一致。
const (
	TypeCardExport = "card:export"
)

// CardExportPayload 描述导出名片 PDF 所需的最小信息。
// Template 非空时覆盖文档自带的模板。
type CardExportPayload struct {
	CardID        uint              `json:"card_id"`
	Template      card.TemplateType `json:"template,omitempty"`
	CorrelationID string            `json:"correlation_id"`
}

// NewCardExportTask 构造一个新的名片导出任务。
func NewCardExportTask(id uint, template card.TemplateType, correlationID string) (*asynq.Task, error) {
	payload, err := json.Marshal(CardExportPayload{
		CardID:        id,
		Template:      template,
		CorrelationID: correlationID,
	})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeCardExport, payload), nil
}
