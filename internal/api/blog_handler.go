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

const blogConflictMessage = "a blog post with this slug already exists"

// BlogHandler 负责博客文章的增删改查与浏览计数。
type BlogHandler struct {
	db *gorm.DB
}

// NewBlogHandler 构造 BlogHandler。
func NewBlogHandler(db *gorm.DB) *BlogHandler {
	return &BlogHandler{db: db}
}

type createBlogPostRequest struct {
	Title           string         `json:"title" binding:"required"`
	Slug            string         `json:"slug" binding:"required"`
	Excerpt         string         `json:"excerpt"`
	Content         string         `json:"content" binding:"required"`
	FeaturedImage   string         `json:"featuredImage" binding:"omitempty,url"`
	Tags            datatypes.JSON `json:"tags"`
	Category        string         `json:"category"`
	ReadTime        int            `json:"readTime" binding:"omitempty,min=1"`
	Featured        bool           `json:"featured"`
	Published       bool           `json:"published"`
	MetaTitle       string         `json:"metaTitle"`
	MetaDescription string         `json:"metaDescription"`
	OgImage         string         `json:"ogImage" binding:"omitempty,url"`
}

type updateBlogPostRequest struct {
	Title           *string        `json:"title"`
	Slug            *string        `json:"slug"`
	Excerpt         *string        `json:"excerpt"`
	Content         *string        `json:"content"`
	FeaturedImage   *string        `json:"featuredImage" binding:"omitempty,url"`
	Tags            datatypes.JSON `json:"tags"`
	Category        *string        `json:"category"`
	ReadTime        *int           `json:"readTime" binding:"omitempty,min=1"`
	Featured        *bool          `json:"featured"`
	Published       *bool          `json:"published"`
	MetaTitle       *string        `json:"metaTitle"`
	MetaDescription *string        `json:"metaDescription"`
	OgImage         *string        `json:"ogImage" binding:"omitempty,url"`
}

type blogPostResponse struct {
	database.BlogPost
	Author database.AuthorRef `json:"author"`
}

func newBlogPostResponse(p database.BlogPost) blogPostResponse {
	return blogPostResponse{BlogPost: p, Author: p.Author.Ref()}
}

// List 返回分页的文章列表，匿名请求只能看到已发布文章。
func (h *BlogHandler) List(c *gin.Context) {
	params, err := query.Parse(c.Request.URL.Query(), query.DefaultLimit)
	if err != nil {
		BadRequest(c, err.Error())
		return
	}

	spec := publishedFloor(c, query.Spec{}).
		OrderBy("created_at", params.Desc()).
		Search(params.Search, "title", "excerpt", "slug")

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

	if category := c.Query("category"); category != "" {
		spec = spec.Where("category = ?", category)
	}

	page, err := query.List[database.BlogPost](h.db.WithContext(c.Request.Context()), spec, params, "Author")
	if err != nil {
		Internal(c, "failed to list blog posts")
		return
	}

	items := make([]blogPostResponse, 0, len(page.Items))
	for _, p := range page.Items {
		items = append(items, newBlogPostResponse(p))
	}

	Respond(c, gin.H{"posts": items, "pagination": page.Pagination})
}

// Get 返回指定文章。未发布文章仅作者可见；
// 匿名读取已发布文章时浏览计数加一（计数允许近似）。
func (h *BlogHandler) Get(c *gin.Context) {
	ctx := c.Request.Context()

	var post database.BlogPost
	err := h.db.WithContext(ctx).Preload("Author").First(&post, "id = ?", c.Param("id")).Error
	if err != nil {
		storeError(c, err, "blog post not found", blogConflictMessage)
		return
	}

	if !post.Published && !canViewUnpublished(c, post.AuthorID) {
		NotFound(c, "blog post not found")
		return
	}

	if _, authed := middleware.UserID(c); post.Published && !authed {
		// UpdateColumn 跳过回调，浏览计数不触发 updated_at 刷新。
		if err := h.db.WithContext(ctx).Model(&post).
			UpdateColumn("views", gorm.Expr("views + 1")).Error; err == nil {
			post.Views++
		}
	}

	Respond(c, newBlogPostResponse(post))
}

// Create 新建文章；published 为真时立即落下 publishedAt。
func (h *BlogHandler) Create(c *gin.Context) {
	var req createBlogPostRequest
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

	post := database.BlogPost{
		Title:           req.Title,
		Slug:            req.Slug,
		Excerpt:         req.Excerpt,
		Content:         req.Content,
		FeaturedImage:   req.FeaturedImage,
		Tags:            req.Tags,
		Category:        req.Category,
		ReadTime:        req.ReadTime,
		Featured:        req.Featured,
		Published:       req.Published,
		MetaTitle:       req.MetaTitle,
		MetaDescription: req.MetaDescription,
		OgImage:         req.OgImage,
		AuthorID:        userID,
	}
	if req.Published {
		now := time.Now()
		post.PublishedAt = &now
	}

	ctx := c.Request.Context()
	if err := h.db.WithContext(ctx).Create(&post).Error; err != nil {
		if storeerr.IsDuplicate(err) {
			Conflict(c, blogConflictMessage)
			return
		}
		Internal(c, "failed to create blog post")
		return
	}

	if err := h.db.WithContext(ctx).Preload("Author").First(&post, "id = ?", post.ID).Error; err != nil {
		Internal(c, "failed to reload blog post")
		return
	}

	Created(c, newBlogPostResponse(post))
}

// Update 部分更新文章。首次从草稿转为发布时落下 publishedAt，
// 此后的发布/撤稿都不再改写它。
func (h *BlogHandler) Update(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	ctx := c.Request.Context()

	var post database.BlogPost
	if err := h.db.WithContext(ctx).First(&post, "id = ?", c.Param("id")).Error; err != nil {
		storeError(c, err, "blog post not found", blogConflictMessage)
		return
	}
	if post.AuthorID != userID {
		Forbidden(c, "forbidden")
		return
	}

	var req updateBlogPostRequest
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
	if req.Excerpt != nil {
		updates["excerpt"] = *req.Excerpt
	}
	if req.Content != nil {
		updates["content"] = *req.Content
	}
	if req.FeaturedImage != nil {
		updates["featured_image"] = *req.FeaturedImage
	}
	if req.Tags != nil {
		updates["tags"] = req.Tags
	}
	if req.Category != nil {
		updates["category"] = *req.Category
	}
	if req.ReadTime != nil {
		updates["read_time"] = *req.ReadTime
	}
	if req.Featured != nil {
		updates["featured"] = *req.Featured
	}
	if req.MetaTitle != nil {
		updates["meta_title"] = *req.MetaTitle
	}
	if req.MetaDescription != nil {
		updates["meta_description"] = *req.MetaDescription
	}
	if req.OgImage != nil {
		updates["og_image"] = *req.OgImage
	}
	if req.Published != nil {
		updates["published"] = *req.Published
		if *req.Published && post.PublishedAt == nil {
			updates["published_at"] = time.Now()
		}
	}
	updates["updated_at"] = time.Now()

	if err := h.db.WithContext(ctx).Model(&post).Updates(updates).Error; err != nil {
		if storeerr.IsDuplicate(err) {
			Conflict(c, blogConflictMessage)
			return
		}
		Internal(c, "failed to update blog post")
		return
	}

	if err := h.db.WithContext(ctx).Preload("Author").First(&post, "id = ?", post.ID).Error; err != nil {
		Internal(c, "failed to reload blog post")
		return
	}

	Respond(c, newBlogPostResponse(post))
}

// Delete 删除文章。
func (h *BlogHandler) Delete(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	ctx := c.Request.Context()

	var post database.BlogPost
	if err := h.db.WithContext(ctx).First(&post, "id = ?", c.Param("id")).Error; err != nil {
		storeError(c, err, "blog post not found", blogConflictMessage)
		return
	}
	if post.AuthorID != userID {
		Forbidden(c, "forbidden")
		return
	}

	if err := h.db.WithContext(ctx).Delete(&post).Error; err != nil {
		Internal(c, "failed to delete blog post")
		return
	}

	Respond(c, gin.H{"success": true})
}
