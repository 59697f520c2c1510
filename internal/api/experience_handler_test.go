package api

import (
	"net/http"
	"testing"
	"time"

	"devfolio/internal/database"
)

func TestExperienceTenureValidation(t *testing.T) {
	db := newTestDB(t)
	owner := seedUser(t, db, "owner@example.com")
	h := NewExperienceHandler(db)

	start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)

	// 在职但带 endDate：拒绝。
	c, w := newTestContext(t, http.MethodPost, "/api/v1/experience", map[string]any{
		"company":     "Acme",
		"position":    "Engineer",
		"description": "built things",
		"currentJob":  true,
		"startDate":   start,
		"endDate":     end,
	}, owner.ID)
	h.Create(c)
	requireStatus(t, w, http.StatusBadRequest)

	// 离职但没有 endDate：拒绝。
	c, w = newTestContext(t, http.MethodPost, "/api/v1/experience", map[string]any{
		"company":     "Acme",
		"position":    "Engineer",
		"description": "built things",
		"currentJob":  false,
		"startDate":   start,
	}, owner.ID)
	h.Create(c)
	requireStatus(t, w, http.StatusBadRequest)

	// 在职且无 endDate：接受。
	c, w = newTestContext(t, http.MethodPost, "/api/v1/experience", map[string]any{
		"company":     "Acme",
		"position":    "Engineer",
		"description": "built things",
		"currentJob":  true,
		"startDate":   start,
	}, owner.ID)
	h.Create(c)
	requireStatus(t, w, http.StatusCreated)
}

func TestExperienceUpdateTogglesCurrentJob(t *testing.T) {
	db := newTestDB(t)
	owner := seedUser(t, db, "owner@example.com")
	h := NewExperienceHandler(db)

	exp := database.Experience{
		Company:     "Acme",
		Position:    "Engineer",
		Description: "built things",
		CurrentJob:  true,
		StartDate:   time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
		AuthorID:    owner.ID,
	}
	if err := db.Create(&exp).Error; err != nil {
		t.Fatalf("seed experience: %v", err)
	}

	// 标记离职必须同时补上 endDate。
	c, w := newTestContext(t, http.MethodPut, "/api/v1/experience/"+exp.ID, map[string]any{
		"currentJob": false,
	}, owner.ID)
	setParam(c, "id", exp.ID)
	h.Update(c)
	requireStatus(t, w, http.StatusBadRequest)

	end := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	c, w = newTestContext(t, http.MethodPut, "/api/v1/experience/"+exp.ID, map[string]any{
		"currentJob": false,
		"endDate":    end,
	}, owner.ID)
	setParam(c, "id", exp.ID)
	h.Update(c)
	requireStatus(t, w, http.StatusOK)

	// 回到在职状态时 endDate 被清空。
	c, w = newTestContext(t, http.MethodPut, "/api/v1/experience/"+exp.ID, map[string]any{
		"currentJob": true,
	}, owner.ID)
	setParam(c, "id", exp.ID)
	h.Update(c)
	requireStatus(t, w, http.StatusOK)

	var reloaded database.Experience
	if err := db.First(&reloaded, "id = ?", exp.ID).Error; err != nil {
		t.Fatalf("reload experience: %v", err)
	}
	if !reloaded.CurrentJob || reloaded.EndDate != nil {
		t.Fatalf("returning to a current position must clear endDate: %+v", reloaded)
	}
}

func TestExperienceListOrderedBySortOrder(t *testing.T) {
	db := newTestDB(t)
	owner := seedUser(t, db, "owner@example.com")
	h := NewExperienceHandler(db)

	end := time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)
	rows := []database.Experience{
		{Company: "First", Position: "p", Description: "x", SortOrder: 2, StartDate: end, EndDate: &end, AuthorID: owner.ID},
		{Company: "Second", Position: "p", Description: "x", SortOrder: 1, StartDate: end, EndDate: &end, AuthorID: owner.ID},
	}
	for i := range rows {
		if err := db.Create(&rows[i]).Error; err != nil {
			t.Fatalf("seed experience: %v", err)
		}
	}

	c, w := newTestContext(t, http.MethodGet, "/api/v1/experience?sort=asc", nil, "")
	h.List(c)
	requireStatus(t, w, http.StatusOK)
	items := decodeData(t, w)["experience"].([]any)
	if len(items) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(items))
	}
	if items[0].(map[string]any)["company"] != "Second" {
		t.Fatalf("expected sortOrder ascending, got %v first", items[0].(map[string]any)["company"])
	}
}
