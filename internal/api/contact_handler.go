package api

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"devfolio/internal/api/middleware"
	"devfolio/internal/database"
	"devfolio/internal/query"
	"devfolio/internal/tasks"
)

// 每个 IP 每小时允许的联系表单提交次数。
const contactRateLimitPerHour = 5

var contactStatuses = map[string]bool{
	"pending":  true,
	"read":     true,
	"replied":  true,
	"archived": true,
}

// ContactHandler 负责联系表单的提交与后台查阅。
// 邮件通知经由任务队列异步发送，发送失败不影响留言写入。
type ContactHandler struct {
	db          *gorm.DB
	redis       redis.UniversalClient
	asynqClient *asynq.Client
	logger      *slog.Logger
}

// NewContactHandler 构造 ContactHandler。asynqClient 可以为 nil，
// 此时跳过邮件通知（例如本地开发环境）。
func NewContactHandler(db *gorm.DB, redisClient redis.UniversalClient, asynqClient *asynq.Client, logger *slog.Logger) *ContactHandler {
	return &ContactHandler{
		db:          db,
		redis:       redisClient,
		asynqClient: asynqClient,
		logger:      logger,
	}
}

type contactRequest struct {
	Name       string `json:"name" binding:"required"`
	Email      string `json:"email" binding:"required,email"`
	Subject    string `json:"subject" binding:"required"`
	Message    string `json:"message" binding:"required,min=10"`
	Phone      string `json:"phone"`
	Company    string `json:"company"`
	Website    string `json:"website" binding:"omitempty,url"`
	Newsletter bool   `json:"newsletter"`
	Source     string `json:"source"`
}

// Submit 保存联系表单留言并入队通知邮件。
func (h *ContactHandler) Submit(c *gin.Context) {
	var req contactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	ctx := c.Request.Context()
	logger := middleware.LoggerFromContext(c)
	ip := c.ClientIP()

	if h.redis != nil {
		rateKey := "rate:contact:" + ip + ":" + time.Now().UTC().Format("2006010215")
		count, err := incrWithTTL(ctx, h.redis, rateKey, time.Hour)
		if err != nil {
			// Redis 不可用时放行，留言功能优先于限流。
			logger.Error("contact rate limit check failed", slog.Any("error", err))
			count = 0
		}
		if count > contactRateLimitPerHour {
			TooManyRequests(c, "too many messages, please try again later")
			return
		}
	}

	message := database.ContactMessage{
		Name:       req.Name,
		Email:      req.Email,
		Subject:    req.Subject,
		Message:    req.Message,
		Phone:      req.Phone,
		Company:    req.Company,
		Website:    req.Website,
		Newsletter: req.Newsletter,
		Source:     req.Source,
		Status:     "pending",
		IP:         ip,
		UserAgent:  c.Request.UserAgent(),
	}

	if err := h.db.WithContext(ctx).Create(&message).Error; err != nil {
		logger.Error("save contact message failed", slog.Any("error", err))
		Internal(c, "failed to submit message, please try again later")
		return
	}

	h.enqueueNotify(c, message.ID)

	Created(c, gin.H{
		"id":      message.ID,
		"message": "your message has been sent successfully",
	})
}

// List 返回分页的留言列表，仅登录用户可见，可按 status 过滤。
func (h *ContactHandler) List(c *gin.Context) {
	params, err := query.Parse(c.Request.URL.Query(), query.DefaultLimit)
	if err != nil {
		BadRequest(c, err.Error())
		return
	}

	spec := query.Spec{}.
		OrderBy("created_at", params.Desc()).
		Search(params.Search, "name", "email", "subject")

	if status := c.Query("status"); status != "" {
		if !contactStatuses[status] {
			BadRequest(c, "status must be one of pending, read, replied, archived")
			return
		}
		spec = spec.Where("status = ?", status)
	}

	page, err := query.List[database.ContactMessage](h.db.WithContext(c.Request.Context()), spec, params)
	if err != nil {
		Internal(c, "failed to list contact messages")
		return
	}

	Respond(c, gin.H{"messages": page.Items, "pagination": page.Pagination})
}

type updateContactStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=pending read replied archived"`
}

// UpdateStatus 修改留言处理状态。
func (h *ContactHandler) UpdateStatus(c *gin.Context) {
	var req updateContactStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	ctx := c.Request.Context()

	var message database.ContactMessage
	if err := h.db.WithContext(ctx).First(&message, "id = ?", c.Param("id")).Error; err != nil {
		storeError(c, err, "contact message not found", "contact message already exists")
		return
	}

	if err := h.db.WithContext(ctx).Model(&message).Updates(map[string]any{
		"status":     req.Status,
		"updated_at": time.Now(),
	}).Error; err != nil {
		Internal(c, "failed to update contact message")
		return
	}

	message.Status = req.Status
	Respond(c, message)
}

// enqueueNotify 入队通知邮件；失败只记日志，留言已经落库。
func (h *ContactHandler) enqueueNotify(c *gin.Context, messageID string) {
	if h.asynqClient == nil {
		return
	}

	logger := middleware.LoggerFromContext(c)
	task, err := tasks.NewContactNotifyTask(messageID, middleware.GetCorrelationID(c))
	if err != nil {
		logger.Error("build contact notify task failed", slog.Any("error", err))
		return
	}
	if _, err := h.asynqClient.Enqueue(task, asynq.MaxRetry(5)); err != nil {
		logger.Error("enqueue contact notify failed", slog.Any("error", err))
	}
}
