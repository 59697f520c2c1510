package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"devfolio/internal/api/middleware"
	"devfolio/internal/database"
	"devfolio/internal/query"
)

// EducationHandler 负责教育经历的增删改查。
type EducationHandler struct {
	db *gorm.DB
}

// NewEducationHandler 构造 EducationHandler。
func NewEducationHandler(db *gorm.DB) *EducationHandler {
	return &EducationHandler{db: db}
}

type createEducationRequest struct {
	Institution     string     `json:"institution" binding:"required"`
	Degree          string     `json:"degree" binding:"required"`
	Field           string     `json:"field" binding:"required"`
	Location        string     `json:"location"`
	Description     string     `json:"description"`
	GPA             string     `json:"gpa"`
	Honors          string     `json:"honors"`
	InstitutionLogo string     `json:"institutionLogo" binding:"omitempty,url"`
	CurrentStudent  bool       `json:"currentStudent"`
	SortOrder       int        `json:"sortOrder" binding:"omitempty,min=0"`
	StartDate       time.Time  `json:"startDate" binding:"required"`
	EndDate         *time.Time `json:"endDate"`
}

type updateEducationRequest struct {
	Institution     *string    `json:"institution"`
	Degree          *string    `json:"degree"`
	Field           *string    `json:"field"`
	Location        *string    `json:"location"`
	Description     *string    `json:"description"`
	GPA             *string    `json:"gpa"`
	Honors          *string    `json:"honors"`
	InstitutionLogo *string    `json:"institutionLogo" binding:"omitempty,url"`
	CurrentStudent  *bool      `json:"currentStudent"`
	SortOrder       *int       `json:"sortOrder" binding:"omitempty,min=0"`
	StartDate       *time.Time `json:"startDate"`
	EndDate         *time.Time `json:"endDate"`
}

func validateEnrollment(currentStudent bool, endDate *time.Time) string {
	if currentStudent && endDate != nil {
		return "endDate must be empty while still enrolled"
	}
	if !currentStudent && endDate == nil {
		return "endDate is required unless still enrolled"
	}
	return ""
}

// List 返回分页的教育经历，按 sortOrder 排序。
func (h *EducationHandler) List(c *gin.Context) {
	params, err := query.Parse(c.Request.URL.Query(), query.DefaultLimit)
	if err != nil {
		BadRequest(c, err.Error())
		return
	}

	spec := query.Spec{}.
		OrderBy("sort_order", params.Desc()).
		Search(params.Search, "institution", "degree", "field")

	page, err := query.List[database.Education](h.db.WithContext(c.Request.Context()), spec, params)
	if err != nil {
		Internal(c, "failed to list education")
		return
	}

	Respond(c, gin.H{"education": page.Items, "pagination": page.Pagination})
}

// Get 返回指定的教育经历。
func (h *EducationHandler) Get(c *gin.Context) {
	var edu database.Education
	err := h.db.WithContext(c.Request.Context()).First(&edu, "id = ?", c.Param("id")).Error
	if err != nil {
		storeError(c, err, "education not found", "education already exists")
		return
	}
	Respond(c, edu)
}

// Create 新建教育经历。
func (h *EducationHandler) Create(c *gin.Context) {
	var req createEducationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	if msg := validateEnrollment(req.CurrentStudent, req.EndDate); msg != "" {
		BadRequest(c, msg)
		return
	}

	userID, ok := middleware.UserID(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	edu := database.Education{
		Institution:     req.Institution,
		Degree:          req.Degree,
		Field:           req.Field,
		Location:        req.Location,
		Description:     req.Description,
		GPA:             req.GPA,
		Honors:          req.Honors,
		InstitutionLogo: req.InstitutionLogo,
		CurrentStudent:  req.CurrentStudent,
		SortOrder:       req.SortOrder,
		StartDate:       req.StartDate,
		EndDate:         req.EndDate,
		AuthorID:        userID,
	}

	if err := h.db.WithContext(c.Request.Context()).Create(&edu).Error; err != nil {
		Internal(c, "failed to create education")
		return
	}

	Created(c, edu)
}

// Update 部分更新教育经历。
func (h *EducationHandler) Update(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	ctx := c.Request.Context()

	var edu database.Education
	if err := h.db.WithContext(ctx).First(&edu, "id = ?", c.Param("id")).Error; err != nil {
		storeError(c, err, "education not found", "education already exists")
		return
	}
	if edu.AuthorID != userID {
		Forbidden(c, "forbidden")
		return
	}

	var req updateEducationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	currentStudent := edu.CurrentStudent
	if req.CurrentStudent != nil {
		currentStudent = *req.CurrentStudent
	}
	endDate := edu.EndDate
	if req.EndDate != nil {
		endDate = req.EndDate
	}
	if req.CurrentStudent != nil && *req.CurrentStudent {
		endDate = nil
	}
	if msg := validateEnrollment(currentStudent, endDate); msg != "" {
		BadRequest(c, msg)
		return
	}

	updates := map[string]any{}
	if req.Institution != nil {
		updates["institution"] = *req.Institution
	}
	if req.Degree != nil {
		updates["degree"] = *req.Degree
	}
	if req.Field != nil {
		updates["field"] = *req.Field
	}
	if req.Location != nil {
		updates["location"] = *req.Location
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.GPA != nil {
		updates["gpa"] = *req.GPA
	}
	if req.Honors != nil {
		updates["honors"] = *req.Honors
	}
	if req.InstitutionLogo != nil {
		updates["institution_logo"] = *req.InstitutionLogo
	}
	if req.CurrentStudent != nil {
		updates["current_student"] = *req.CurrentStudent
	}
	if req.SortOrder != nil {
		updates["sort_order"] = *req.SortOrder
	}
	if req.StartDate != nil {
		updates["start_date"] = *req.StartDate
	}
	if req.CurrentStudent != nil || req.EndDate != nil {
		updates["end_date"] = endDate
	}
	updates["updated_at"] = time.Now()

	if err := h.db.WithContext(ctx).Model(&edu).Updates(updates).Error; err != nil {
		Internal(c, "failed to update education")
		return
	}

	if err := h.db.WithContext(ctx).First(&edu, "id = ?", edu.ID).Error; err != nil {
		Internal(c, "failed to reload education")
		return
	}

	Respond(c, edu)
}

// Delete 删除教育经历。
func (h *EducationHandler) Delete(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	ctx := c.Request.Context()

	var edu database.Education
	if err := h.db.WithContext(ctx).First(&edu, "id = ?", c.Param("id")).Error; err != nil {
		storeError(c, err, "education not found", "education already exists")
		return
	}
	if edu.AuthorID != userID {
		Forbidden(c, "forbidden")
		return
	}

	if err := h.db.WithContext(ctx).Delete(&edu).Error; err != nil {
		Internal(c, "failed to delete education")
		return
	}

	Respond(c, gin.H{"success": true})
}
