package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"devfolio/internal/api/middleware"
	"devfolio/internal/database"
	"devfolio/internal/storeerr"
)

const personalInfoConflictMessage = "personal information already exists, use PUT to update"

// PersonalInfoHandler 负责个人资料的读取与维护，每个用户至多一行。
type PersonalInfoHandler struct {
	db *gorm.DB
}

// NewPersonalInfoHandler 构造 PersonalInfoHandler。
func NewPersonalInfoHandler(db *gorm.DB) *PersonalInfoHandler {
	return &PersonalInfoHandler{db: db}
}

type personalInfoRequest struct {
	FirstName   string         `json:"firstName" binding:"required"`
	LastName    string         `json:"lastName" binding:"required"`
	Title       string         `json:"title"`
	Bio         string         `json:"bio"`
	Avatar      string         `json:"avatar" binding:"omitempty,url"`
	Location    string         `json:"location"`
	Phone       string         `json:"phone"`
	Email       string         `json:"email" binding:"omitempty,email"`
	Website     string         `json:"website" binding:"omitempty,url"`
	ResumeURL   string         `json:"resumeUrl" binding:"omitempty,url"`
	SocialLinks datatypes.JSON `json:"socialLinks"`
	Skills      string         `json:"skills"`
	Languages   datatypes.JSON `json:"languages"`
	Interests   string         `json:"interests"`
	IsPublic    *bool          `json:"isPublic"`
}

type updatePersonalInfoRequest struct {
	FirstName   *string        `json:"firstName"`
	LastName    *string        `json:"lastName"`
	Title       *string        `json:"title"`
	Bio         *string        `json:"bio"`
	Avatar      *string        `json:"avatar" binding:"omitempty,url"`
	Location    *string        `json:"location"`
	Phone       *string        `json:"phone"`
	Email       *string        `json:"email" binding:"omitempty,email"`
	Website     *string        `json:"website" binding:"omitempty,url"`
	ResumeURL   *string        `json:"resumeUrl" binding:"omitempty,url"`
	SocialLinks datatypes.JSON `json:"socialLinks"`
	Skills      *string        `json:"skills"`
	Languages   datatypes.JSON `json:"languages"`
	Interests   *string        `json:"interests"`
	IsPublic    *bool          `json:"isPublic"`
}

// personalInfoPublicView 是对外公开的资料视图，剥离 id、userId 与作者信息。
type personalInfoPublicView struct {
	FirstName   string         `json:"firstName"`
	LastName    string         `json:"lastName"`
	Title       string         `json:"title,omitempty"`
	Bio         string         `json:"bio,omitempty"`
	Avatar      string         `json:"avatar,omitempty"`
	Location    string         `json:"location,omitempty"`
	Phone       string         `json:"phone,omitempty"`
	Email       string         `json:"email,omitempty"`
	Website     string         `json:"website,omitempty"`
	ResumeURL   string         `json:"resumeUrl,omitempty"`
	SocialLinks datatypes.JSON `json:"socialLinks,omitempty"`
	Skills      string         `json:"skills,omitempty"`
	Languages   datatypes.JSON `json:"languages,omitempty"`
	Interests   string         `json:"interests,omitempty"`
	IsPublic    bool           `json:"isPublic"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
}

func newPublicView(info database.PersonalInfo) personalInfoPublicView {
	return personalInfoPublicView{
		FirstName:   info.FirstName,
		LastName:    info.LastName,
		Title:       info.Title,
		Bio:         info.Bio,
		Avatar:      info.Avatar,
		Location:    info.Location,
		Phone:       info.Phone,
		Email:       info.Email,
		Website:     info.Website,
		ResumeURL:   info.ResumeURL,
		SocialLinks: info.SocialLinks,
		Skills:      info.Skills,
		Languages:   info.Languages,
		Interests:   info.Interests,
		IsPublic:    info.IsPublic,
		CreatedAt:   info.CreatedAt,
		UpdatedAt:   info.UpdatedAt,
	}
}

// Get 返回个人资料。非拥有者只能看到公开资料，且响应剥离内部字段。
func (h *PersonalInfoHandler) Get(c *gin.Context) {
	ctx := c.Request.Context()
	publicOnly := c.Query("public") == "true"

	tx := h.db.WithContext(ctx).Model(&database.PersonalInfo{})
	uid, authed := middleware.UserID(c)
	if publicOnly || !authed {
		tx = tx.Where("is_public = ?", true)
	} else {
		tx = tx.Where("is_public = ? OR user_id = ?", true, uid)
	}

	var info database.PersonalInfo
	if err := tx.Order("created_at ASC").First(&info).Error; err != nil {
		storeError(c, err, "personal information not found", personalInfoConflictMessage)
		return
	}

	if publicOnly || !authed || info.UserID != uid {
		Respond(c, newPublicView(info))
		return
	}
	Respond(c, info)
}

// Create 为当前用户创建个人资料；已存在时返回 409。
func (h *PersonalInfoHandler) Create(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	var req personalInfoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	isPublic := true
	if req.IsPublic != nil {
		isPublic = *req.IsPublic
	}

	info := database.PersonalInfo{
		UserID:      userID,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Title:       req.Title,
		Bio:         req.Bio,
		Avatar:      req.Avatar,
		Location:    req.Location,
		Phone:       req.Phone,
		Email:       req.Email,
		Website:     req.Website,
		ResumeURL:   req.ResumeURL,
		SocialLinks: req.SocialLinks,
		Skills:      req.Skills,
		Languages:   req.Languages,
		Interests:   req.Interests,
		IsPublic:    isPublic,
	}

	// user_id 上的唯一索引保证每个用户至多一行。
	if err := h.db.WithContext(c.Request.Context()).Create(&info).Error; err != nil {
		if storeerr.IsDuplicate(err) {
			Conflict(c, personalInfoConflictMessage)
			return
		}
		Internal(c, "failed to create personal information")
		return
	}

	Created(c, info)
}

// Update 部分更新当前用户的个人资料。
func (h *PersonalInfoHandler) Update(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	ctx := c.Request.Context()

	var info database.PersonalInfo
	if err := h.db.WithContext(ctx).First(&info, "user_id = ?", userID).Error; err != nil {
		storeError(c, err, "personal information not found", personalInfoConflictMessage)
		return
	}

	var req updatePersonalInfoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	updates := map[string]any{}
	if req.FirstName != nil {
		updates["first_name"] = *req.FirstName
	}
	if req.LastName != nil {
		updates["last_name"] = *req.LastName
	}
	if req.Title != nil {
		updates["title"] = *req.Title
	}
	if req.Bio != nil {
		updates["bio"] = *req.Bio
	}
	if req.Avatar != nil {
		updates["avatar"] = *req.Avatar
	}
	if req.Location != nil {
		updates["location"] = *req.Location
	}
	if req.Phone != nil {
		updates["phone"] = *req.Phone
	}
	if req.Email != nil {
		updates["email"] = *req.Email
	}
	if req.Website != nil {
		updates["website"] = *req.Website
	}
	if req.ResumeURL != nil {
		updates["resume_url"] = *req.ResumeURL
	}
	if req.SocialLinks != nil {
		updates["social_links"] = req.SocialLinks
	}
	if req.Skills != nil {
		updates["skills"] = *req.Skills
	}
	if req.Languages != nil {
		updates["languages"] = req.Languages
	}
	if req.Interests != nil {
		updates["interests"] = *req.Interests
	}
	if req.IsPublic != nil {
		updates["is_public"] = *req.IsPublic
	}
	updates["updated_at"] = time.Now()

	if err := h.db.WithContext(ctx).Model(&info).Updates(updates).Error; err != nil {
		Internal(c, "failed to update personal information")
		return
	}

	if err := h.db.WithContext(ctx).First(&info, "id = ?", info.ID).Error; err != nil {
		Internal(c, "failed to reload personal information")
		return
	}

	Respond(c, info)
}
