package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"bizcard/internal/database"
	"bizcard/internal/errcode"
	"bizcard/internal/pdf"
	"bizcard/internal/render"
	"bizcard/internal/storage"
	"bizcard/internal/tasks"
)

// ExportTaskHandler 负责消费名片导出任务：
// 拉取文档、服务端渲染 HTML、生成 PDF 与预览图并上传。
type ExportTaskHandler struct {
	db             *gorm.DB
	storage        *storage.Client
	redisClient    *redis.Client
	generator      *pdf.Generator
	logger         *slog.Logger
	internalSecret string
	apiBaseURL     string
}

// NewExportTaskHandler 创建任务处理器。
func NewExportTaskHandler(
	db *gorm.DB,
	storage *storage.Client,
	redisClient *redis.Client,
	generator *pdf.Generator,
	logger *slog.Logger,
	internalSecret string,
	apiBaseURL string,
) *ExportTaskHandler {
	return &ExportTaskHandler{
		db:             db,
		storage:        storage,
		redisClient:    redisClient,
		generator:      generator,
		logger:         logger,
		internalSecret: internalSecret,
		apiBaseURL:     strings.TrimRight(strings.TrimSpace(apiBaseURL), "/"),
	}
}

// ProcessTask 实现 asynq.Handler。
func (h *ExportTaskHandler) ProcessTask(ctx context.Context, t *asynq.Task) (retErr error) {
	log := h.logger

	var payload tasks.CardExportPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		log.Error("unmarshal task payload failed", slog.Any("error", err))
		return err
	}

	log = log.With(
		slog.String("correlation_id", payload.CorrelationID),
		slog.Int("card_id", int(payload.CardID)),
	)
	log.Info("Starting card export task...")

	var cardRow database.Card
	if err := h.db.WithContext(ctx).First(&cardRow, payload.CardID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Warn("card not found, skipping task")
			return nil
		}
		log.Error("query card failed", slog.Any("error", err))
		return err
	}

	log = log.With(slog.Uint64("user_id", uint64(cardRow.UserID)))

	defer func() {
		if retErr == nil {
			return
		}
		if !isFinalAsynqAttempt(ctx) {
			return
		}

		notify := CardExportNotifyMessage{
			Status:        "error",
			CardID:        cardRow.ID,
			CorrelationID: payload.CorrelationID,
			ErrorCode:     errcode.SystemError,
			ErrorMessage:  strings.TrimSpace(retErr.Error()),
		}
		if err := h.publishExportNotify(ctx, cardRow.UserID, notify); err != nil {
			log.Error("publish export error notification failed", slog.Any("error", err))
		}
	}()

	printDoc, err := fetchPrintDocument(ctx, h.apiBaseURL, cardRow.ID, h.internalSecret, payload.CorrelationID)
	if err != nil {
		log.Error("fetch print document failed", slog.Any("error", err))
		return err
	}
	missingKeys, resourceMissing := printDoc.missingAssetKeys()

	html, err := render.Render(printDoc.Card, render.Options{Template: payload.Template})
	if err != nil {
		log.Error("render card html failed", slog.Any("error", err))
		return err
	}

	export, err := h.generator.ExportHTML(html)
	if err != nil {
		log.Error("generate pdf failed", slog.Any("error", err))
		return err
	}

	pdfKey := fmt.Sprintf("generated-cards/%d/%s.pdf", cardRow.UserID, uuid.NewString())
	if _, err := h.storage.UploadFile(ctx, pdfKey, bytes.NewReader(export.PDF), int64(len(export.PDF)), "application/pdf"); err != nil {
		log.Error("upload pdf to minio failed", slog.Any("error", err))
		return err
	}

	previewURL, previewKey, err := h.uploadPreview(ctx, cardRow.ID, export.Preview)
	if err != nil {
		// 预览图缺失不阻塞导出结果。
		log.Warn("upload card preview failed", slog.Any("error", err))
	}

	update := map[string]any{
		"pdf_url": pdfKey,
		"status":  "completed",
	}
	if previewKey != "" {
		update["preview_image_url"] = previewURL
		update["preview_object_key"] = previewKey
	}
	if err := h.db.WithContext(ctx).Model(&cardRow).Updates(update).Error; err != nil {
		log.Error("update card failed", slog.Any("error", err))
		return err
	}

	notify := CardExportNotifyMessage{
		Status:        "completed",
		CardID:        cardRow.ID,
		CorrelationID: payload.CorrelationID,
		ErrorCode:     errcode.OK,
	}
	if resourceMissing {
		notify.ErrorCode = errcode.ResourceMissing
		notify.ErrorMessage = "部分图片资源缺失/无效，已自动跳过并继续生成"
		notify.MissingKeys = missingKeys
		log.Warn("card exported with missing assets",
			slog.Int("missing_count", len(missingKeys)),
			slog.Any("missing_keys", missingKeys),
		)
	}
	if err := h.publishExportNotify(ctx, cardRow.UserID, notify); err != nil {
		log.Error("publish redis notification failed", slog.Any("error", err))
		return err
	}

	log.Info("Card export task completed successfully.")
	return nil
}

func (h *ExportTaskHandler) uploadPreview(ctx context.Context, cardID uint, previewBytes []byte) (presignedURL, objectKey string, err error) {
	const presignTTL = 7 * 24 * time.Hour

	if len(previewBytes) == 0 {
		return "", "", fmt.Errorf("empty preview image")
	}

	objectKey = fmt.Sprintf("thumbnails/card/%d/preview.jpg", cardID)
	reader := bytes.NewReader(previewBytes)
	if _, err := h.storage.UploadFile(ctx, objectKey, reader, int64(len(previewBytes)), "image/jpeg"); err != nil {
		return "", "", fmt.Errorf("upload preview image: %w", err)
	}

	presignedURL, err = h.storage.GeneratePresignedURL(ctx, objectKey, presignTTL)
	if err != nil {
		return "", "", fmt.Errorf("generate preview presigned url: %w", err)
	}

	return presignedURL, objectKey, nil
}

func (h *ExportTaskHandler) publishExportNotify(ctx context.Context, userID uint, notify CardExportNotifyMessage) error {
	data, err := json.Marshal(notify)
	if err != nil {
		return fmt.Errorf("marshal notification payload: %w", err)
	}
	channel := fmt.Sprintf("user_notify:%d", userID)
	if err := h.redisClient.Publish(ctx, channel, data).Err(); err != nil {
		return fmt.Errorf("publish redis notification to %q: %w", channel, err)
	}
	return nil
}

func isFinalAsynqAttempt(ctx context.Context) bool {
	retryCount, ok1 := asynq.GetRetryCount(ctx)
	maxRetry, ok2 := asynq.GetMaxRetry(ctx)
	if !ok1 || !ok2 {
		return false
	}
	return retryCount >= maxRetry
}
