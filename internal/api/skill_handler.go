package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"devfolio/internal/api/middleware"
	"devfolio/internal/database"
	"devfolio/internal/query"
	"devfolio/internal/storeerr"
)

const (
	skillConflictMessage = "a skill with this name already exists"
	// 技能列表通常整页展示，默认页大小放宽到 50。
	skillDefaultLimit = 50
)

// SkillHandler 负责技能条目的增删改查。
type SkillHandler struct {
	db *gorm.DB
}

// NewSkillHandler 构造 SkillHandler。
func NewSkillHandler(db *gorm.DB) *SkillHandler {
	return &SkillHandler{db: db}
}

type createSkillRequest struct {
	Name        string         `json:"name" binding:"required"`
	Category    string         `json:"category" binding:"required"`
	Proficiency int            `json:"proficiency" binding:"required,min=1,max=5"`
	Description string         `json:"description"`
	Icon        string         `json:"icon" binding:"omitempty,url"`
	Featured    bool           `json:"featured"`
	SortOrder   int            `json:"sortOrder" binding:"omitempty,min=0"`
	Tags        datatypes.JSON `json:"tags"`
}

type updateSkillRequest struct {
	Name        *string        `json:"name"`
	Category    *string        `json:"category"`
	Proficiency *int           `json:"proficiency" binding:"omitempty,min=1,max=5"`
	Description *string        `json:"description"`
	Icon        *string        `json:"icon" binding:"omitempty,url"`
	Featured    *bool          `json:"featured"`
	SortOrder   *int           `json:"sortOrder" binding:"omitempty,min=0"`
	Tags        datatypes.JSON `json:"tags"`
}

// List 返回分页的技能列表，可按 category 与 featured 过滤。
func (h *SkillHandler) List(c *gin.Context) {
	params, err := query.Parse(c.Request.URL.Query(), skillDefaultLimit)
	if err != nil {
		BadRequest(c, err.Error())
		return
	}

	spec := query.Spec{}.
		OrderBy("sort_order", params.Desc()).
		Search(params.Search, "name")

	if category := c.Query("category"); category != "" {
		spec = spec.Where("category = ?", category)
	}

	featured, err := boolQuery(c, "featured")
	if err != nil {
		BadRequest(c, err.Error())
		return
	}
	if featured != nil {
		spec = spec.Where("featured = ?", *featured)
	}

	page, err := query.List[database.Skill](h.db.WithContext(c.Request.Context()), spec, params)
	if err != nil {
		Internal(c, "failed to list skills")
		return
	}

	Respond(c, gin.H{"skills": page.Items, "pagination": page.Pagination})
}

// Get 返回指定技能。
func (h *SkillHandler) Get(c *gin.Context) {
	var skill database.Skill
	err := h.db.WithContext(c.Request.Context()).First(&skill, "id = ?", c.Param("id")).Error
	if err != nil {
		storeError(c, err, "skill not found", skillConflictMessage)
		return
	}
	Respond(c, skill)
}

// Create 新建技能，name 冲突返回 409。
func (h *SkillHandler) Create(c *gin.Context) {
	var req createSkillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	userID, ok := middleware.UserID(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	skill := database.Skill{
		Name:        req.Name,
		Category:    req.Category,
		Proficiency: req.Proficiency,
		Description: req.Description,
		Icon:        req.Icon,
		Featured:    req.Featured,
		SortOrder:   req.SortOrder,
		Tags:        req.Tags,
		AuthorID:    userID,
	}

	if err := h.db.WithContext(c.Request.Context()).Create(&skill).Error; err != nil {
		if storeerr.IsDuplicate(err) {
			Conflict(c, skillConflictMessage)
			return
		}
		Internal(c, "failed to create skill")
		return
	}

	Created(c, skill)
}

// Update 部分更新技能。
func (h *SkillHandler) Update(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	ctx := c.Request.Context()

	var skill database.Skill
	if err := h.db.WithContext(ctx).First(&skill, "id = ?", c.Param("id")).Error; err != nil {
		storeError(c, err, "skill not found", skillConflictMessage)
		return
	}
	if skill.AuthorID != userID {
		Forbidden(c, "forbidden")
		return
	}

	var req updateSkillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	updates := map[string]any{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Category != nil {
		updates["category"] = *req.Category
	}
	if req.Proficiency != nil {
		updates["proficiency"] = *req.Proficiency
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Icon != nil {
		updates["icon"] = *req.Icon
	}
	if req.Featured != nil {
		updates["featured"] = *req.Featured
	}
	if req.SortOrder != nil {
		updates["sort_order"] = *req.SortOrder
	}
	if req.Tags != nil {
		updates["tags"] = req.Tags
	}
	updates["updated_at"] = time.Now()

	if err := h.db.WithContext(ctx).Model(&skill).Updates(updates).Error; err != nil {
		if storeerr.IsDuplicate(err) {
			Conflict(c, skillConflictMessage)
			return
		}
		Internal(c, "failed to update skill")
		return
	}

	if err := h.db.WithContext(ctx).First(&skill, "id = ?", skill.ID).Error; err != nil {
		Internal(c, "failed to reload skill")
		return
	}

	Respond(c, skill)
}

// Delete 删除技能并清理其项目关联。
func (h *SkillHandler) Delete(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	ctx := c.Request.Context()

	var skill database.Skill
	if err := h.db.WithContext(ctx).First(&skill, "id = ?", c.Param("id")).Error; err != nil {
		storeError(c, err, "skill not found", skillConflictMessage)
		return
	}
	if skill.AuthorID != userID {
		Forbidden(c, "forbidden")
		return
	}

	err := h.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("skill_id = ?", skill.ID).Delete(&database.ProjectSkill{}).Error; err != nil {
			return err
		}
		return tx.Delete(&skill).Error
	})
	if err != nil {
		Internal(c, "failed to delete skill")
		return
	}

	Respond(c, gin.H{"success": true})
}
