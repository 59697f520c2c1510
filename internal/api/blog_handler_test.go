package api

import (
	"net/http"
	"testing"
	"time"

	"devfolio/internal/database"
)

func TestBlogPublishedAtStampedOnce(t *testing.T) {
	db := newTestDB(t)
	owner := seedUser(t, db, "owner@example.com")
	h := NewBlogHandler(db)

	post := database.BlogPost{
		Title:     "Draft Post",
		Slug:      "draft-post",
		Content:   "hello",
		Published: false,
		AuthorID:  owner.ID,
	}
	if err := db.Create(&post).Error; err != nil {
		t.Fatalf("seed post: %v", err)
	}

	// 首次发布落下 publishedAt。
	c, w := newTestContext(t, http.MethodPut, "/api/v1/blog/"+post.ID, map[string]any{
		"published": true,
	}, owner.ID)
	setParam(c, "id", post.ID)
	h.Update(c)
	requireStatus(t, w, http.StatusOK)

	var published database.BlogPost
	if err := db.First(&published, "id = ?", post.ID).Error; err != nil {
		t.Fatalf("reload post: %v", err)
	}
	if published.PublishedAt == nil {
		t.Fatal("first publish must stamp publishedAt")
	}
	firstStamp := *published.PublishedAt

	// 撤稿再发布，publishedAt 不变。
	for _, value := range []bool{false, true} {
		c, w = newTestContext(t, http.MethodPut, "/api/v1/blog/"+post.ID, map[string]any{
			"published": value,
		}, owner.ID)
		setParam(c, "id", post.ID)
		h.Update(c)
		requireStatus(t, w, http.StatusOK)
	}

	var republished database.BlogPost
	if err := db.First(&republished, "id = ?", post.ID).Error; err != nil {
		t.Fatalf("reload post: %v", err)
	}
	if republished.PublishedAt == nil || !republished.PublishedAt.Equal(firstStamp) {
		t.Fatalf("publishedAt must survive republish: first=%v now=%v", firstStamp, republished.PublishedAt)
	}
}

func TestBlogViewsIncrementOnlyForAnonymousReads(t *testing.T) {
	db := newTestDB(t)
	owner := seedUser(t, db, "owner@example.com")
	h := NewBlogHandler(db)

	now := time.Now()
	post := database.BlogPost{
		Title:       "Popular",
		Slug:        "popular",
		Content:     "hello",
		Published:   true,
		PublishedAt: &now,
		AuthorID:    owner.ID,
	}
	if err := db.Create(&post).Error; err != nil {
		t.Fatalf("seed post: %v", err)
	}

	// 两次匿名读取，计数加二。
	for i := 0; i < 2; i++ {
		c, w := newTestContext(t, http.MethodGet, "/api/v1/blog/"+post.ID, nil, "")
		setParam(c, "id", post.ID)
		h.Get(c)
		requireStatus(t, w, http.StatusOK)
	}

	// 登录读取不计数。
	c, w := newTestContext(t, http.MethodGet, "/api/v1/blog/"+post.ID, nil, owner.ID)
	setParam(c, "id", post.ID)
	h.Get(c)
	requireStatus(t, w, http.StatusOK)

	var reloaded database.BlogPost
	if err := db.First(&reloaded, "id = ?", post.ID).Error; err != nil {
		t.Fatalf("reload post: %v", err)
	}
	if reloaded.Views != 2 {
		t.Fatalf("expected 2 views, got %d", reloaded.Views)
	}
}

func TestBlogViewsNotCountedForDrafts(t *testing.T) {
	db := newTestDB(t)
	owner := seedUser(t, db, "owner@example.com")
	h := NewBlogHandler(db)

	post := database.BlogPost{
		Title:     "Hidden",
		Slug:      "hidden",
		Content:   "hello",
		Published: false,
		AuthorID:  owner.ID,
	}
	if err := db.Create(&post).Error; err != nil {
		t.Fatalf("seed post: %v", err)
	}

	// 作者读自己的草稿，不计浏览数。
	c, w := newTestContext(t, http.MethodGet, "/api/v1/blog/"+post.ID, nil, owner.ID)
	setParam(c, "id", post.ID)
	h.Get(c)
	requireStatus(t, w, http.StatusOK)

	var reloaded database.BlogPost
	if err := db.First(&reloaded, "id = ?", post.ID).Error; err != nil {
		t.Fatalf("reload post: %v", err)
	}
	if reloaded.Views != 0 {
		t.Fatalf("draft reads must not count views, got %d", reloaded.Views)
	}
}

func TestBlogCreateStampsPublishedAtWhenPublished(t *testing.T) {
	db := newTestDB(t)
	owner := seedUser(t, db, "owner@example.com")
	h := NewBlogHandler(db)

	c, w := newTestContext(t, http.MethodPost, "/api/v1/blog", map[string]any{
		"title":     "Launch",
		"slug":      "launch",
		"content":   "hello world",
		"published": true,
	}, owner.ID)
	h.Create(c)
	requireStatus(t, w, http.StatusCreated)
	if decodeData(t, w)["publishedAt"] == nil {
		t.Fatal("creating a published post must stamp publishedAt")
	}

	c, w = newTestContext(t, http.MethodPost, "/api/v1/blog", map[string]any{
		"title":   "Backlog",
		"slug":    "backlog",
		"content": "hello world",
	}, owner.ID)
	h.Create(c)
	requireStatus(t, w, http.StatusCreated)
	if decodeData(t, w)["publishedAt"] != nil {
		t.Fatal("a draft must not carry publishedAt")
	}
}

func TestBlogListCategoryFilter(t *testing.T) {
	db := newTestDB(t)
	owner := seedUser(t, db, "owner@example.com")
	h := NewBlogHandler(db)

	now := time.Now()
	rows := []database.BlogPost{
		{Title: "Go Tips", Slug: "go-tips", Content: "x", Category: "golang", Published: true, PublishedAt: &now, AuthorID: owner.ID},
		{Title: "K8s Intro", Slug: "k8s-intro", Content: "x", Category: "devops", Published: true, PublishedAt: &now, AuthorID: owner.ID},
	}
	for i := range rows {
		if err := db.Create(&rows[i]).Error; err != nil {
			t.Fatalf("seed post: %v", err)
		}
	}

	c, w := newTestContext(t, http.MethodGet, "/api/v1/blog?category=golang", nil, "")
	h.List(c)
	requireStatus(t, w, http.StatusOK)
	data := decodeData(t, w)
	posts := data["posts"].([]any)
	if len(posts) != 1 {
		t.Fatalf("expected 1 post in category, got %d", len(posts))
	}
	if posts[0].(map[string]any)["slug"] != "go-tips" {
		t.Fatalf("unexpected post: %v", posts[0])
	}
}
