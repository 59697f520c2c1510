package api

import (
	"net/http"
	"testing"

	"devfolio/internal/database"
)

func TestSettingsListVisibility(t *testing.T) {
	db := newTestDB(t)
	owner := seedUser(t, db, "owner@example.com")
	h := NewSettingsHandler(db)

	rows := []database.SiteSetting{
		{Key: "site_title", Value: "Devfolio", Type: "text", Category: "general", Public: true, AuthorID: owner.ID},
		{Key: "analytics_token", Value: "secret", Type: "text", Category: "integrations", Public: false, AuthorID: owner.ID},
	}
	for i := range rows {
		if err := db.Create(&rows[i]).Error; err != nil {
			t.Fatalf("seed setting: %v", err)
		}
	}

	// 匿名只能读到 public 的条目。
	c, w := newTestContext(t, http.MethodGet, "/api/v1/site-settings", nil, "")
	h.List(c)
	requireStatus(t, w, http.StatusOK)
	data := decodeData(t, w)
	settings := data["settings"].(map[string]any)
	if _, ok := settings["analytics_token"]; ok {
		t.Fatal("anonymous list must not expose private settings")
	}
	if _, ok := settings["site_title"]; !ok {
		t.Fatal("anonymous list should include public settings")
	}

	// 登录用户读到全部。
	c, w = newTestContext(t, http.MethodGet, "/api/v1/site-settings", nil, owner.ID)
	h.List(c)
	requireStatus(t, w, http.StatusOK)
	data = decodeData(t, w)
	settings = data["settings"].(map[string]any)
	if len(settings) != 2 {
		t.Fatalf("owner should see 2 settings, got %d", len(settings))
	}

	// 登录用户显式 public=true 也只拿公开条目。
	c, w = newTestContext(t, http.MethodGet, "/api/v1/site-settings?public=true", nil, owner.ID)
	h.List(c)
	requireStatus(t, w, http.StatusOK)
	data = decodeData(t, w)
	settings = data["settings"].(map[string]any)
	if len(settings) != 1 {
		t.Fatalf("public=true should narrow to 1 setting, got %d", len(settings))
	}
}

func TestSettingsListKeysAndCategoryFilters(t *testing.T) {
	db := newTestDB(t)
	owner := seedUser(t, db, "owner@example.com")
	h := NewSettingsHandler(db)

	rows := []database.SiteSetting{
		{Key: "site_title", Value: "Devfolio", Category: "general", Public: true, AuthorID: owner.ID},
		{Key: "site_tagline", Value: "hi", Category: "general", Public: true, AuthorID: owner.ID},
		{Key: "github_url", Value: "https://github.com/x", Category: "social", Public: true, AuthorID: owner.ID},
	}
	for i := range rows {
		if err := db.Create(&rows[i]).Error; err != nil {
			t.Fatalf("seed setting: %v", err)
		}
	}

	c, w := newTestContext(t, http.MethodGet, "/api/v1/site-settings?category=general", nil, "")
	h.List(c)
	requireStatus(t, w, http.StatusOK)
	if got := len(decodeData(t, w)["settings"].(map[string]any)); got != 2 {
		t.Fatalf("category filter should return 2 settings, got %d", got)
	}

	c, w = newTestContext(t, http.MethodGet, "/api/v1/site-settings?keys=site_title,%20github_url", nil, "")
	h.List(c)
	requireStatus(t, w, http.StatusOK)
	settings := decodeData(t, w)["settings"].(map[string]any)
	if len(settings) != 2 {
		t.Fatalf("keys filter should return 2 settings, got %d", len(settings))
	}
	if _, ok := settings["site_tagline"]; ok {
		t.Fatal("keys filter must exclude unlisted keys")
	}

	grouped := decodeData(t, w)["groupedByCategory"].(map[string]any)
	if _, ok := grouped["general"]; !ok {
		t.Fatal("grouped view missing general category")
	}
	if _, ok := grouped["social"]; !ok {
		t.Fatal("grouped view missing social category")
	}
}

func TestSettingsCreateDefaultsAndConflict(t *testing.T) {
	db := newTestDB(t)
	owner := seedUser(t, db, "owner@example.com")
	h := NewSettingsHandler(db)

	c, w := newTestContext(t, http.MethodPost, "/api/v1/site-settings", map[string]any{
		"key":   "site_title",
		"value": "Devfolio",
	}, owner.ID)
	h.Create(c)
	requireStatus(t, w, http.StatusCreated)
	data := decodeData(t, w)
	if data["type"] != "text" || data["category"] != "general" {
		t.Fatalf("expected defaulted type/category, got %v/%v", data["type"], data["category"])
	}

	c, w = newTestContext(t, http.MethodPost, "/api/v1/site-settings", map[string]any{
		"key":   "site_title",
		"value": "Again",
	}, owner.ID)
	h.Create(c)
	requireStatus(t, w, http.StatusConflict)
}

func TestSettingsUpdateAndDeleteByKey(t *testing.T) {
	db := newTestDB(t)
	owner := seedUser(t, db, "owner@example.com")
	intruder := seedUser(t, db, "intruder@example.com")
	h := NewSettingsHandler(db)

	setting := database.SiteSetting{Key: "site_title", Value: "Devfolio", Category: "general", Public: true, AuthorID: owner.ID}
	if err := db.Create(&setting).Error; err != nil {
		t.Fatalf("seed setting: %v", err)
	}

	// 非作者不能改。
	c, w := newTestContext(t, http.MethodPut, "/api/v1/site-settings?key=site_title", map[string]any{
		"value": "Hijacked",
	}, intruder.ID)
	h.Update(c)
	requireStatus(t, w, http.StatusForbidden)

	c, w = newTestContext(t, http.MethodPut, "/api/v1/site-settings?key=site_title", map[string]any{
		"value": "Renamed",
	}, owner.ID)
	h.Update(c)
	requireStatus(t, w, http.StatusOK)
	if decodeData(t, w)["value"] != "Renamed" {
		t.Fatalf("update did not apply: %s", w.Body.String())
	}

	// 缺 key 参数是 400。
	c, w = newTestContext(t, http.MethodDelete, "/api/v1/site-settings", nil, owner.ID)
	h.Delete(c)
	requireStatus(t, w, http.StatusBadRequest)

	c, w = newTestContext(t, http.MethodDelete, "/api/v1/site-settings?key=site_title", nil, owner.ID)
	h.Delete(c)
	requireStatus(t, w, http.StatusOK)

	var count int64
	if err := db.Model(&database.SiteSetting{}).Count(&count).Error; err != nil {
		t.Fatalf("count settings: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected no settings left, got %d", count)
	}
}
