package tasks

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

// 任务类型常量，确保队列生产者与消费者一致。
const (
	TypeContactNotify = "contact:notify"
)

// ContactNotifyPayload 描述联系表单通知邮件所需的最小信息。
type ContactNotifyPayload struct {
	MessageID     string `json:"message_id"`
	CorrelationID string `json:"correlation_id"`
}

// NewContactNotifyTask 构造一个联系表单通知任务。
func NewContactNotifyTask(messageID, correlationID string) (*asynq.Task, error) {
	payload, err := json.Marshal(ContactNotifyPayload{
		MessageID:     messageID,
		CorrelationID: correlationID,
	})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeContactNotify, payload), nil
}
