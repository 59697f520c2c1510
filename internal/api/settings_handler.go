package api

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"devfolio/internal/api/middleware"
	"devfolio/internal/database"
	"devfolio/internal/storeerr"
)

const settingConflictMessage = "a setting with this key already exists"

// SettingsHandler 负责站点配置键值的维护。
type SettingsHandler struct {
	db *gorm.DB
}

// NewSettingsHandler 构造 SettingsHandler。
func NewSettingsHandler(db *gorm.DB) *SettingsHandler {
	return &SettingsHandler{db: db}
}

type createSettingRequest struct {
	Key         string `json:"key" binding:"required"`
	Value       string `json:"value" binding:"required"`
	Type        string `json:"type" binding:"omitempty,oneof=text number boolean json"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Public      bool   `json:"public"`
}

type updateSettingRequest struct {
	Value       *string `json:"value"`
	Type        *string `json:"type" binding:"omitempty,oneof=text number boolean json"`
	Description *string `json:"description"`
	Category    *string `json:"category"`
	Public      *bool   `json:"public"`
}

type settingValue struct {
	ID          string    `json:"id"`
	Value       string    `json:"value"`
	Type        string    `json:"type"`
	Description string    `json:"description,omitempty"`
	Category    string    `json:"category"`
	Public      bool      `json:"public"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// List 返回站点配置。匿名请求只能读取 public=true 的条目；
// 响应同时给出按 key 与按 category 组织的两种视图。
func (h *SettingsHandler) List(c *gin.Context) {
	ctx := c.Request.Context()

	tx := h.db.WithContext(ctx).Model(&database.SiteSetting{})

	if _, authed := middleware.UserID(c); !authed || c.Query("public") == "true" {
		tx = tx.Where("public = ?", true)
	}
	if category := c.Query("category"); category != "" {
		tx = tx.Where("category = ?", category)
	}
	if raw := c.Query("keys"); raw != "" {
		keys := make([]string, 0)
		for _, key := range strings.Split(raw, ",") {
			if key = strings.TrimSpace(key); key != "" {
				keys = append(keys, key)
			}
		}
		if len(keys) > 0 {
			tx = tx.Where("key IN ?", keys)
		}
	}

	var settings []database.SiteSetting
	if err := tx.Order("category ASC").Order("key ASC").Find(&settings).Error; err != nil {
		Internal(c, "failed to list settings")
		return
	}

	byKey := make(map[string]settingValue, len(settings))
	byCategory := make(map[string]map[string]settingValue)
	for _, s := range settings {
		value := settingValue{
			ID:          s.ID,
			Value:       s.Value,
			Type:        s.Type,
			Description: s.Description,
			Category:    s.Category,
			Public:      s.Public,
			UpdatedAt:   s.UpdatedAt,
		}
		byKey[s.Key] = value
		if byCategory[s.Category] == nil {
			byCategory[s.Category] = make(map[string]settingValue)
		}
		byCategory[s.Category][s.Key] = value
	}

	Respond(c, gin.H{
		"settings":          byKey,
		"groupedByCategory": byCategory,
		"list":              settings,
	})
}

// Create 新建配置项，key 冲突返回 409。
func (h *SettingsHandler) Create(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	var req createSettingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	setting := database.SiteSetting{
		Key:         req.Key,
		Value:       req.Value,
		Type:        req.Type,
		Description: req.Description,
		Category:    req.Category,
		Public:      req.Public,
		AuthorID:    userID,
	}
	if setting.Type == "" {
		setting.Type = "text"
	}
	if setting.Category == "" {
		setting.Category = "general"
	}

	if err := h.db.WithContext(c.Request.Context()).Create(&setting).Error; err != nil {
		if storeerr.IsDuplicate(err) {
			Conflict(c, settingConflictMessage)
			return
		}
		Internal(c, "failed to create setting")
		return
	}

	Created(c, setting)
}

// Update 按 key 部分更新配置项。
func (h *SettingsHandler) Update(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	key := c.Query("key")
	if key == "" {
		BadRequest(c, "key parameter is required")
		return
	}

	ctx := c.Request.Context()

	var setting database.SiteSetting
	if err := h.db.WithContext(ctx).First(&setting, "key = ?", key).Error; err != nil {
		storeError(c, err, "setting not found", settingConflictMessage)
		return
	}
	if setting.AuthorID != userID {
		Forbidden(c, "forbidden")
		return
	}

	var req updateSettingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	updates := map[string]any{}
	if req.Value != nil {
		updates["value"] = *req.Value
	}
	if req.Type != nil {
		updates["type"] = *req.Type
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Category != nil {
		updates["category"] = *req.Category
	}
	if req.Public != nil {
		updates["public"] = *req.Public
	}
	updates["updated_at"] = time.Now()

	if err := h.db.WithContext(ctx).Model(&setting).Updates(updates).Error; err != nil {
		Internal(c, "failed to update setting")
		return
	}

	if err := h.db.WithContext(ctx).First(&setting, "id = ?", setting.ID).Error; err != nil {
		Internal(c, "failed to reload setting")
		return
	}

	Respond(c, setting)
}

// Delete 按 key 删除配置项。
func (h *SettingsHandler) Delete(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	key := c.Query("key")
	if key == "" {
		BadRequest(c, "key parameter is required")
		return
	}

	ctx := c.Request.Context()

	var setting database.SiteSetting
	if err := h.db.WithContext(ctx).First(&setting, "key = ?", key).Error; err != nil {
		storeError(c, err, "setting not found", settingConflictMessage)
		return
	}
	if setting.AuthorID != userID {
		Forbidden(c, "forbidden")
		return
	}

	if err := h.db.WithContext(ctx).Delete(&setting).Error; err != nil {
		Internal(c, "failed to delete setting")
		return
	}

	Respond(c, gin.H{"success": true})
}
