package api

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/gin-gonic/gin"

	"devfolio/internal/api/middleware"
	"devfolio/internal/query"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9-]+$`)

func validSlug(s string) bool {
	return s != "" && slugPattern.MatchString(s)
}

// boolQuery 解析可选的布尔查询参数，缺省时返回 nil。
func boolQuery(c *gin.Context, name string) (*bool, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, fmt.Errorf("%s must be a boolean", name)
	}
	return &value, nil
}

// publishedFloor 给内容列表追加可见性下限：匿名请求只能看到已发布内容，
// 登录用户额外能看到自己的草稿。客户端过滤只能在此之上收窄。
func publishedFloor(c *gin.Context, spec query.Spec) query.Spec {
	if uid, ok := middleware.UserID(c); ok {
		return spec.Where("(published = ? OR author_id = ?)", true, uid)
	}
	return spec.Where("published = ?", true)
}

// canViewUnpublished 判断当前请求者是否是条目的作者。
func canViewUnpublished(c *gin.Context, authorID string) bool {
	uid, ok := middleware.UserID(c)
	return ok && uid == authorID
}
