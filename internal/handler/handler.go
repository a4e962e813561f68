package handler

import (
	"encoding/gob"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/user/moviesearch/internal/config"
	"github.com/user/moviesearch/internal/controller"
	"github.com/user/moviesearch/internal/model"
	"github.com/user/moviesearch/internal/service"
	"github.com/user/moviesearch/internal/utils"
	"github.com/user/moviesearch/internal/view"
)

const (
	stateKey = "ui_state"
	toastKey = "toast"
)

func init() {
	// 注册 Session 模型
	gob.Register(model.SessionState{})
	gob.Register(view.Toast{})
}

// Handler HTTP 处理器
type Handler struct {
	Config     *config.Config
	Cache      *service.QueryCache
	Controller *controller.Controller
	Images     view.Images

	imageClient *utils.HTTPClient
}

// NewHandler 创建处理器
func NewHandler(cfg *config.Config, searcher service.MovieSearcher) *Handler {
	cache := service.NewQueryCache(searcher, cfg.CacheSize, cfg.CacheTTL, cfg.TMDBTimeout)

	return &Handler{
		Config:     cfg,
		Cache:      cache,
		Controller: controller.New(cache),
		Images:     view.TMDBImages{ProxyPath: "/api/poster"},
		imageClient: utils.NewHTTPClient(15 * time.Second),
	}
}

// RenderData 统一封装公共渲染数据
func (h *Handler) RenderData(c *gin.Context, data gin.H) gin.H {
	res := gin.H{
		"SiteName": h.Config.SiteName,
		"Title":    h.Config.SiteName,
		"Path":     c.Request.URL.Path,
	}

	// 合并传入的数据
	for k, v := range data {
		res[k] = v
	}

	return res
}

// ==================== 页面 ====================

// Home 首页（完整页面）
func (h *Handler) Home(c *gin.Context) {
	h.render(c, h.loadState(c), h.popToasts(c), true)
}

// NotFound 404 页面
func (h *Handler) NotFound(c *gin.Context) {
	c.HTML(http.StatusNotFound, "404.html", h.RenderData(c, gin.H{
		"Title": "页面未找到 - " + h.Config.SiteName,
		"View":  view.Page{},
	}))
}

// ==================== htmx 交互 ====================

// Results 结果片段，结果未到时片段自身会继续轮询
func (h *Handler) Results(c *gin.Context) {
	h.render(c, h.loadState(c), nil, false)
}

// SubmitSearch 提交搜索
func (h *Handler) SubmitSearch(c *gin.Context) {
	var form struct {
		Query string `form:"query"`
	}
	if err := c.ShouldBind(&form); err != nil {
		utils.BadRequest(c, "参数错误")
		return
	}

	next, effects, err := h.Controller.Submit(h.loadState(c), form.Query)
	if err == nil {
		log.Printf("[Handler] 搜索 query=%q ip=%s", form.Query, utils.HashIP(c.ClientIP()))
	}
	h.respond(c, next, effects)
}

// ChangePage 翻页，selected 为分页控件的下标（从 0 开始）
func (h *Handler) ChangePage(c *gin.Context) {
	selected, err := strconv.Atoi(c.PostForm("selected"))
	if err != nil || selected < 0 {
		utils.BadRequest(c, "页码错误")
		return
	}

	next, effects := controller.ChangePage(h.loadState(c), controller.PageFromIndex(selected))
	h.respond(c, next, effects)
}

// SelectMovie 打开详情
func (h *Handler) SelectMovie(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "ID 错误")
		return
	}

	next, err := h.Controller.SelectMovieByID(h.loadState(c), id)
	if err != nil {
		utils.NotFound(c, "电影不在当前结果中")
		return
	}
	h.respond(c, next, nil)
}

// CloseDetail 关闭详情
func (h *Handler) CloseDetail(c *gin.Context) {
	next, effects := controller.CloseDetail(h.loadState(c))
	h.respond(c, next, effects)
}

// respond htmx 请求直接返回片段；普通表单提交则写入 Session 后重定向
func (h *Handler) respond(c *gin.Context, s model.UIState, effects []controller.Effect) {
	if isHTMX(c) {
		h.render(c, s, effects, false)
		return
	}

	h.pushToasts(c, effects)
	h.saveState(c, s)
	c.Redirect(http.StatusSeeOther, "/")
}

// render 观察当前查询结果并渲染
func (h *Handler) render(c *gin.Context, s model.UIState, effects []controller.Effect, full bool) {
	next, result, observed := h.Controller.Current(s)
	h.saveState(c, next)

	page := view.Build(next, result, append(effects, observed...), h.Images)

	title := h.Config.SiteName
	if next.Query != "" {
		title = next.Query + " - " + h.Config.SiteName
	}
	data := h.RenderData(c, gin.H{
		"Title": title,
		"View":  page,
	})

	if full {
		c.HTML(http.StatusOK, "home.html", data)
		return
	}
	c.HTML(http.StatusOK, "partials/results.html", data)
}

// ==================== Session ====================

func (h *Handler) loadState(c *gin.Context) model.UIState {
	session := sessions.Default(c)
	if ss, ok := session.Get(stateKey).(model.SessionState); ok {
		return h.Controller.Restore(ss)
	}
	return model.NewUIState()
}

func (h *Handler) saveState(c *gin.Context, s model.UIState) {
	session := sessions.Default(c)
	session.Set(stateKey, s.Session())
	if err := session.Save(); err != nil {
		log.Printf("[Handler] 保存 Session 失败: %v", err)
	}
}

func (h *Handler) pushToasts(c *gin.Context, effects []controller.Effect) {
	if len(effects) == 0 {
		return
	}
	session := sessions.Default(c)
	for _, e := range effects {
		session.AddFlash(view.Toast{Kind: string(e.Kind), Message: e.Message}, toastKey)
	}
}

func (h *Handler) popToasts(c *gin.Context) []controller.Effect {
	session := sessions.Default(c)
	var effects []controller.Effect
	for _, f := range session.Flashes(toastKey) {
		if t, ok := f.(view.Toast); ok {
			effects = append(effects, controller.Effect{Kind: controller.EffectKind(t.Kind), Message: t.Message})
		}
	}
	return effects
}

func isHTMX(c *gin.Context) bool {
	return c.GetHeader("HX-Request") == "true"
}
