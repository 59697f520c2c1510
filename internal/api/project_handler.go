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

const projectConflictMessage = "a project with this slug already exists"

// ProjectHandler 负责项目的增删改查与技能关联维护。
type ProjectHandler struct {
	db *gorm.DB
}

// NewProjectHandler 构造 ProjectHandler。
func NewProjectHandler(db *gorm.DB) *ProjectHandler {
	return &ProjectHandler{db: db}
}

type createProjectRequest struct {
	Title           string         `json:"title" binding:"required"`
	Slug            string         `json:"slug" binding:"required"`
	Description     string         `json:"description" binding:"required"`
	LongDescription string         `json:"longDescription"`
	ImageURL        string         `json:"imageUrl" binding:"omitempty,url"`
	Images          datatypes.JSON `json:"images"`
	Technologies    datatypes.JSON `json:"technologies"`
	ProjectURL      string         `json:"projectUrl" binding:"omitempty,url"`
	GithubURL       string         `json:"githubUrl" binding:"omitempty,url"`
	Featured        bool           `json:"featured"`
	Published       *bool          `json:"published"`
	SortOrder       int            `json:"sortOrder" binding:"omitempty,min=0"`
	SkillIDs        []string       `json:"skillIds"`
}

type updateProjectRequest struct {
	Title           *string        `json:"title"`
	Slug            *string        `json:"slug"`
	Description     *string        `json:"description"`
	LongDescription *string        `json:"longDescription"`
	ImageURL        *string        `json:"imageUrl" binding:"omitempty,url"`
	Images          datatypes.JSON `json:"images"`
	Technologies    datatypes.JSON `json:"technologies"`
	ProjectURL      *string        `json:"projectUrl" binding:"omitempty,url"`
	GithubURL       *string        `json:"githubUrl" binding:"omitempty,url"`
	Featured        *bool          `json:"featured"`
	Published       *bool          `json:"published"`
	SortOrder       *int           `json:"sortOrder" binding:"omitempty,min=0"`
	SkillIDs        []string       `json:"skillIds"`
}

type skillRef struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Category    string `json:"category"`
	Proficiency int    `json:"proficiency"`
}

type projectResponse struct {
	database.Project
	Author database.AuthorRef `json:"author"`
	Skills []skillRef         `json:"skills"`
}

func newProjectResponse(p database.Project) projectResponse {
	refs := make([]skillRef, 0, len(p.Skills))
	for _, s := range p.Skills {
		refs = append(refs, skillRef{ID: s.ID, Name: s.Name, Category: s.Category, Proficiency: s.Proficiency})
	}
	return projectResponse{Project: p, Author: p.Author.Ref(), Skills: refs}
}

// List 返回分页的项目列表，匿名请求只能看到已发布项目。
func (h *ProjectHandler) List(c *gin.Context) {
	params, err := query.Parse(c.Request.URL.Query(), query.DefaultLimit)
	if err != nil {
		BadRequest(c, err.Error())
		return
	}

	spec := publishedFloor(c, query.Spec{}).
		OrderBy("sort_order", params.Desc()).
		Search(params.Search, "title", "description")

	published, err := boolQuery(c, "published")
	if err != nil {
		BadRequest(c, err.Error())
		return
	}
	if published != nil {
		spec = spec.Where("published = ?", *published)
	}

	featured, err := boolQuery(c, "featured")
	if err != nil {
		BadRequest(c, err.Error())
		return
	}
	if featured != nil {
		spec = spec.Where("featured = ?", *featured)
	}

	page, err := query.List[database.Project](h.db.WithContext(c.Request.Context()), spec, params, "Author", "Skills")
	if err != nil {
		Internal(c, "failed to list projects")
		return
	}

	items := make([]projectResponse, 0, len(page.Items))
	for _, p := range page.Items {
		items = append(items, newProjectResponse(p))
	}

	Respond(c, gin.H{"projects": items, "pagination": page.Pagination})
}

// Get 返回指定项目；未发布项目仅作者可见，其他人得到 404。
func (h *ProjectHandler) Get(c *gin.Context) {
	ctx := c.Request.Context()

	var project database.Project
	err := h.db.WithContext(ctx).
		Preload("Author").
		Preload("Skills").
		First(&project, "id = ?", c.Param("id")).Error
	if err != nil {
		storeError(c, err, "project not found", projectConflictMessage)
		return
	}

	if !project.Published && !canViewUnpublished(c, project.AuthorID) {
		NotFound(c, "project not found")
		return
	}

	Respond(c, newProjectResponse(project))
}

// Create 新建项目，slug 冲突返回 409。项目与技能关联在同一事务内写入。
func (h *ProjectHandler) Create(c *gin.Context) {
	var req createProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	if !validSlug(req.Slug) {
		BadRequest(c, "slug must contain only lowercase letters, numbers, and hyphens")
		return
	}

	userID, ok := middleware.UserID(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	published := true
	if req.Published != nil {
		published = *req.Published
	}

	project := database.Project{
		Title:           req.Title,
		Slug:            req.Slug,
		Description:     req.Description,
		LongDescription: req.LongDescription,
		ImageURL:        req.ImageURL,
		Images:          req.Images,
		Technologies:    req.Technologies,
		ProjectURL:      req.ProjectURL,
		GithubURL:       req.GithubURL,
		Featured:        req.Featured,
		Published:       published,
		SortOrder:       req.SortOrder,
		AuthorID:        userID,
	}
	if published {
		now := time.Now()
		project.PublishedAt = &now
	}

	ctx := c.Request.Context()

	if !h.verifySkillIDs(c, req.SkillIDs) {
		return
	}

	err := h.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&project).Error; err != nil {
			return err
		}
		return replaceProjectSkills(tx, project.ID, req.SkillIDs)
	})
	if err != nil {
		if storeerr.IsDuplicate(err) {
			Conflict(c, projectConflictMessage)
			return
		}
		Internal(c, "failed to create project")
		return
	}

	if err := h.db.WithContext(ctx).Preload("Author").Preload("Skills").First(&project, "id = ?", project.ID).Error; err != nil {
		Internal(c, "failed to reload project")
		return
	}

	Created(c, newProjectResponse(project))
}

// Update 部分更新项目；skillIds 存在时整体替换技能关联。
func (h *ProjectHandler) Update(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	ctx := c.Request.Context()

	var project database.Project
	if err := h.db.WithContext(ctx).First(&project, "id = ?", c.Param("id")).Error; err != nil {
		storeError(c, err, "project not found", projectConflictMessage)
		return
	}
	if project.AuthorID != userID {
		Forbidden(c, "forbidden")
		return
	}

	var req updateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	if req.Slug != nil && !validSlug(*req.Slug) {
		BadRequest(c, "slug must contain only lowercase letters, numbers, and hyphens")
		return
	}

	updates := map[string]any{}
	if req.Title != nil {
		updates["title"] = *req.Title
	}
	if req.Slug != nil {
		updates["slug"] = *req.Slug
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.LongDescription != nil {
		updates["long_description"] = *req.LongDescription
	}
	if req.ImageURL != nil {
		updates["image_url"] = *req.ImageURL
	}
	if req.Images != nil {
		updates["images"] = req.Images
	}
	if req.Technologies != nil {
		updates["technologies"] = req.Technologies
	}
	if req.ProjectURL != nil {
		updates["project_url"] = *req.ProjectURL
	}
	if req.GithubURL != nil {
		updates["github_url"] = *req.GithubURL
	}
	if req.Featured != nil {
		updates["featured"] = *req.Featured
	}
	if req.SortOrder != nil {
		updates["sort_order"] = *req.SortOrder
	}
	if req.Published != nil {
		updates["published"] = *req.Published
		// 首次发布时落下发布时间，此后不再改写。
		if *req.Published && project.PublishedAt == nil {
			updates["published_at"] = time.Now()
		}
	}
	updates["updated_at"] = time.Now()

	if req.SkillIDs != nil && !h.verifySkillIDs(c, req.SkillIDs) {
		return
	}

	err := h.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&project).Updates(updates).Error; err != nil {
			return err
		}
		if req.SkillIDs != nil {
			if err := tx.Where("project_id = ?", project.ID).Delete(&database.ProjectSkill{}).Error; err != nil {
				return err
			}
			return replaceProjectSkills(tx, project.ID, req.SkillIDs)
		}
		return nil
	})
	if err != nil {
		if storeerr.IsDuplicate(err) {
			Conflict(c, projectConflictMessage)
			return
		}
		Internal(c, "failed to update project")
		return
	}

	if err := h.db.WithContext(ctx).Preload("Author").Preload("Skills").First(&project, "id = ?", project.ID).Error; err != nil {
		Internal(c, "failed to reload project")
		return
	}

	Respond(c, newProjectResponse(project))
}

// Delete 删除项目并清理其技能关联，不残留孤儿关联行。
func (h *ProjectHandler) Delete(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	ctx := c.Request.Context()

	var project database.Project
	if err := h.db.WithContext(ctx).First(&project, "id = ?", c.Param("id")).Error; err != nil {
		storeError(c, err, "project not found", projectConflictMessage)
		return
	}
	if project.AuthorID != userID {
		Forbidden(c, "forbidden")
		return
	}

	err := h.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("project_id = ?", project.ID).Delete(&database.ProjectSkill{}).Error; err != nil {
			return err
		}
		return tx.Delete(&project).Error
	})
	if err != nil {
		Internal(c, "failed to delete project")
		return
	}

	Respond(c, gin.H{"success": true})
}

// verifySkillIDs 校验传入的技能 ID 全部存在，否则写入 400 响应并返回 false。
func (h *ProjectHandler) verifySkillIDs(c *gin.Context, skillIDs []string) bool {
	if len(skillIDs) == 0 {
		return true
	}
	var count int64
	err := h.db.WithContext(c.Request.Context()).Model(&database.Skill{}).Where("id IN ?", skillIDs).Count(&count).Error
	if err != nil {
		Internal(c, "failed to verify skills")
		return false
	}
	if count != int64(len(skillIDs)) {
		BadRequest(c, "one or more skill ids are unknown")
		return false
	}
	return true
}

func replaceProjectSkills(tx *gorm.DB, projectID string, skillIDs []string) error {
	if len(skillIDs) == 0 {
		return nil
	}
	links := make([]database.ProjectSkill, 0, len(skillIDs))
	for _, skillID := range skillIDs {
		links = append(links, database.ProjectSkill{ProjectID: projectID, SkillID: skillID})
	}
	return tx.Create(&links).Error
}
