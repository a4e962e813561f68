package handler

import (
	"context"
	"errors"
	"log"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/user/moviesearch/internal/controller"
	"github.com/user/moviesearch/internal/model"
	"github.com/user/moviesearch/internal/utils"
)

const maxPosterBytes = 10 << 20

var (
	posterPathPattern = regexp.MustCompile(`^/[A-Za-z0-9_\-]+\.(jpg|jpeg|png|webp|svg)$`)
	posterSizes       = map[string]bool{
		"w92": true, "w154": true, "w185": true, "w342": true,
		"w500": true, "w780": true, "w1280": true, "original": true,
	}
)

type movieQuery struct {
	Query string `form:"query" binding:"required"`
	Page  int    `form:"page,default=1" binding:"gte=1,lte=500"`
}

// SearchMovies JSON 搜索接口，与页面共用同一份查询缓存
func (h *Handler) SearchMovies(c *gin.Context) {
	var q movieQuery
	if err := c.ShouldBindQuery(&q); err != nil || strings.TrimSpace(q.Query) == "" {
		utils.BadRequest(c, controller.MsgEmptyQuery)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.Config.TMDBTimeout+time.Second)
	defer cancel()

	result, err := h.Controller.Load(ctx, model.QueryKey{Query: q.Query, Page: q.Page})
	switch {
	case err == nil:
		log.Printf("[API] 搜索 query=%q page=%d ip=%s", q.Query, q.Page, utils.HashIP(c.ClientIP()))
		utils.Success(c, result.Data)
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		utils.Error(c, http.StatusGatewayTimeout, controller.MsgFetchError)
	default:
		utils.Error(c, http.StatusBadGateway, controller.MsgFetchError)
	}
}

type cachedPoster struct {
	ContentType string
	Body        []byte
}

// ProxyPoster TMDB 图片代理，结果放进内存缓存
func (h *Handler) ProxyPoster(c *gin.Context) {
	path := c.Query("path")
	size := c.DefaultQuery("size", "w500")
	if !posterPathPattern.MatchString(path) || !posterSizes[size] {
		utils.BadRequest(c, "图片参数错误")
		return
	}

	cacheKey := "poster:" + size + path
	if v, ok := utils.CacheGet(cacheKey); ok {
		if p, ok := v.(cachedPoster); ok {
			h.writePoster(c, p)
			return
		}
	}

	poster, status, err := h.fetchPoster(c.Request.Context(), size, path)
	if err != nil {
		log.Printf("[Poster] 获取图片失败 (%s%s): %v", size, path, err)
		if status == 0 {
			status = http.StatusBadGateway
		}
		c.Status(status)
		return
	}

	utils.CacheSet(cacheKey, poster, time.Hour)
	h.writePoster(c, poster)
}

func (h *Handler) fetchPoster(ctx context.Context, size, path string) (cachedPoster, int, error) {
	url := strings.TrimRight(h.Config.TMDBImageURL, "/") + "/" + size + path
	body, contentType, err := h.imageClient.GetBytes(ctx, url, maxPosterBytes)
	if err != nil {
		var statusErr *utils.StatusError
		if errors.As(err, &statusErr) {
			return cachedPoster{}, statusErr.Code, err
		}
		return cachedPoster{}, 0, err
	}
	return cachedPoster{ContentType: contentType, Body: body}, http.StatusOK, nil
}

func (h *Handler) writePoster(c *gin.Context, p cachedPoster) {
	c.Header("Cache-Control", "public, max-age=86400")
	c.Data(http.StatusOK, p.ContentType, p.Body)
}

// ==================== 管理 ====================

// AdminCache 查询缓存统计
func (h *Handler) AdminCache(c *gin.Context) {
	utils.Success(c, h.Cache.Stats())
}

// AdminCacheClear 清空查询缓存
func (h *Handler) AdminCacheClear(c *gin.Context) {
	h.Cache.Clear()
	log.Println("[Admin] 查询缓存已清空")
	utils.SuccessWithMessage(c, "缓存已清空", h.Cache.Stats())
}
