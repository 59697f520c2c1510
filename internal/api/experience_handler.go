package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"devfolio/internal/api/middleware"
	"devfolio/internal/database"
	"devfolio/internal/query"
)

// ExperienceHandler 负责工作经历的增删改查。
type ExperienceHandler struct {
	db *gorm.DB
}

// NewExperienceHandler 构造 ExperienceHandler。
func NewExperienceHandler(db *gorm.DB) *ExperienceHandler {
	return &ExperienceHandler{db: db}
}

type createExperienceRequest struct {
	Company          string         `json:"company" binding:"required"`
	Position         string         `json:"position" binding:"required"`
	Location         string         `json:"location"`
	Description      string         `json:"description" binding:"required"`
	Responsibilities datatypes.JSON `json:"responsibilities"`
	Achievements     string         `json:"achievements"`
	CompanyLogo      string         `json:"companyLogo" binding:"omitempty,url"`
	CurrentJob       bool           `json:"currentJob"`
	SortOrder        int            `json:"sortOrder" binding:"omitempty,min=0"`
	StartDate        time.Time      `json:"startDate" binding:"required"`
	EndDate          *time.Time     `json:"endDate"`
}

type updateExperienceRequest struct {
	Company          *string        `json:"company"`
	Position         *string        `json:"position"`
	Location         *string        `json:"location"`
	Description      *string        `json:"description"`
	Responsibilities datatypes.JSON `json:"responsibilities"`
	Achievements     *string        `json:"achievements"`
	CompanyLogo      *string        `json:"companyLogo" binding:"omitempty,url"`
	CurrentJob       *bool          `json:"currentJob"`
	SortOrder        *int           `json:"sortOrder" binding:"omitempty,min=0"`
	StartDate        *time.Time     `json:"startDate"`
	EndDate          *time.Time     `json:"endDate"`
}

// endDate 与 currentJob 互斥：在职时不允许有结束时间，离职时必须有。
func validateTenure(currentJob bool, endDate *time.Time) string {
	if currentJob && endDate != nil {
		return "endDate must be empty for a current position"
	}
	if !currentJob && endDate == nil {
		return "endDate is required unless this is a current position"
	}
	return ""
}

// List 返回分页的工作经历，按 sortOrder 排序。
func (h *ExperienceHandler) List(c *gin.Context) {
	params, err := query.Parse(c.Request.URL.Query(), query.DefaultLimit)
	if err != nil {
		BadRequest(c, err.Error())
		return
	}

	spec := query.Spec{}.
		OrderBy("sort_order", params.Desc()).
		Search(params.Search, "company", "position")

	page, err := query.List[database.Experience](h.db.WithContext(c.Request.Context()), spec, params)
	if err != nil {
		Internal(c, "failed to list experience")
		return
	}

	Respond(c, gin.H{"experience": page.Items, "pagination": page.Pagination})
}

// Get 返回指定的工作经历。
func (h *ExperienceHandler) Get(c *gin.Context) {
	var exp database.Experience
	err := h.db.WithContext(c.Request.Context()).First(&exp, "id = ?", c.Param("id")).Error
	if err != nil {
		storeError(c, err, "experience not found", "experience already exists")
		return
	}
	Respond(c, exp)
}

// Create 新建工作经历。
func (h *ExperienceHandler) Create(c *gin.Context) {
	var req createExperienceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	if msg := validateTenure(req.CurrentJob, req.EndDate); msg != "" {
		BadRequest(c, msg)
		return
	}

	userID, ok := middleware.UserID(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	exp := database.Experience{
		Company:          req.Company,
		Position:         req.Position,
		Location:         req.Location,
		Description:      req.Description,
		Responsibilities: req.Responsibilities,
		Achievements:     req.Achievements,
		CompanyLogo:      req.CompanyLogo,
		CurrentJob:       req.CurrentJob,
		SortOrder:        req.SortOrder,
		StartDate:        req.StartDate,
		EndDate:          req.EndDate,
		AuthorID:         userID,
	}

	if err := h.db.WithContext(c.Request.Context()).Create(&exp).Error; err != nil {
		Internal(c, "failed to create experience")
		return
	}

	Created(c, exp)
}

// Update 部分更新工作经历，更新后的 currentJob/endDate 组合仍需满足互斥约束。
func (h *ExperienceHandler) Update(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	ctx := c.Request.Context()

	var exp database.Experience
	if err := h.db.WithContext(ctx).First(&exp, "id = ?", c.Param("id")).Error; err != nil {
		storeError(c, err, "experience not found", "experience already exists")
		return
	}
	if exp.AuthorID != userID {
		Forbidden(c, "forbidden")
		return
	}

	var req updateExperienceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	currentJob := exp.CurrentJob
	if req.CurrentJob != nil {
		currentJob = *req.CurrentJob
	}
	endDate := exp.EndDate
	if req.EndDate != nil {
		endDate = req.EndDate
	}
	if req.CurrentJob != nil && *req.CurrentJob {
		endDate = nil
	}
	if msg := validateTenure(currentJob, endDate); msg != "" {
		BadRequest(c, msg)
		return
	}

	updates := map[string]any{}
	if req.Company != nil {
		updates["company"] = *req.Company
	}
	if req.Position != nil {
		updates["position"] = *req.Position
	}
	if req.Location != nil {
		updates["location"] = *req.Location
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Responsibilities != nil {
		updates["responsibilities"] = req.Responsibilities
	}
	if req.Achievements != nil {
		updates["achievements"] = *req.Achievements
	}
	if req.CompanyLogo != nil {
		updates["company_logo"] = *req.CompanyLogo
	}
	if req.CurrentJob != nil {
		updates["current_job"] = *req.CurrentJob
	}
	if req.SortOrder != nil {
		updates["sort_order"] = *req.SortOrder
	}
	if req.StartDate != nil {
		updates["start_date"] = *req.StartDate
	}
	if req.CurrentJob != nil || req.EndDate != nil {
		updates["end_date"] = endDate
	}
	updates["updated_at"] = time.Now()

	if err := h.db.WithContext(ctx).Model(&exp).Updates(updates).Error; err != nil {
		Internal(c, "failed to update experience")
		return
	}

	if err := h.db.WithContext(ctx).First(&exp, "id = ?", exp.ID).Error; err != nil {
		Internal(c, "failed to reload experience")
		return
	}

	Respond(c, exp)
}

// Delete 删除工作经历。
func (h *ExperienceHandler) Delete(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	ctx := c.Request.Context()

	var exp database.Experience
	if err := h.db.WithContext(ctx).First(&exp, "id = ?", c.Param("id")).Error; err != nil {
		storeError(c, err, "experience not found", "experience already exists")
		return
	}
	if exp.AuthorID != userID {
		Forbidden(c, "forbidden")
		return
	}

	if err := h.db.WithContext(ctx).Delete(&exp).Error; err != nil {
		Internal(c, "failed to delete experience")
		return
	}

	Respond(c, gin.H{"success": true})
}
