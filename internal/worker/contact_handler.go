// Package worker 消费后台任务。
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"
	"gorm.io/gorm"

	"devfolio/internal/database"
	"devfolio/internal/mailer"
	"devfolio/internal/tasks"
)

// ContactNotifyHandler 负责消费联系表单通知任务。
type ContactNotifyHandler struct {
	db     *gorm.DB
	mailer *mailer.Mailer
	logger *slog.Logger
}

// NewContactNotifyHandler 创建任务处理器。
func NewContactNotifyHandler(db *gorm.DB, m *mailer.Mailer, logger *slog.Logger) *ContactNotifyHandler {
	return &ContactNotifyHandler{
		db:     db,
		mailer: m,
		logger: logger,
	}
}

// ProcessTask 实现 asynq.Handler。
func (h *ContactNotifyHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload tasks.ContactNotifyPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		h.logger.Error("unmarshal task payload failed", slog.Any("error", err))
		return fmt.Errorf("unmarshal payload: %w: %v", asynq.SkipRetry, err)
	}

	log := h.logger.With(
		slog.String("message_id", payload.MessageID),
		slog.String("correlation_id", payload.CorrelationID),
	)

	if !h.mailer.Enabled() {
		log.Info("smtp disabled, skipping contact notification")
		return nil
	}

	var message database.ContactMessage
	if err := h.db.WithContext(ctx).First(&message, "id = ?", payload.MessageID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// 留言已被删除，不再重试。
			log.Warn("contact message not found, dropping task")
			return fmt.Errorf("message %s not found: %w", payload.MessageID, asynq.SkipRetry)
		}
		log.Error("load contact message failed", slog.Any("error", err))
		return fmt.Errorf("load message: %w", err)
	}

	body := message.Message
	if message.Phone != "" {
		body += "\r\n\r\nPhone: " + message.Phone
	}
	if message.Company != "" {
		body += "\r\nCompany: " + message.Company
	}
	if message.Website != "" {
		body += "\r\nWebsite: " + message.Website
	}

	if err := h.mailer.Send(mailer.Message{
		FromName:  message.Name,
		FromEmail: message.Email,
		Subject:   message.Subject,
		Body:      body,
		SentAt:    message.CreatedAt,
	}); err != nil {
		log.Error("send contact notification failed", slog.Any("error", err))
		return fmt.Errorf("send mail: %w", err)
	}

	log.Info("contact notification sent")
	return nil
}
