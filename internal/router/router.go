package router

import (
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"path"

	"github.com/gin-contrib/gzip"
	"github.com/gin-contrib/multitemplate"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/user/moviesearch/internal/handler"
	"github.com/user/moviesearch/internal/middleware"
	"github.com/user/moviesearch/internal/utils"
	"github.com/user/moviesearch/web"
)

// NewEngine 组装 Gin：压缩、Session、模板、静态文件、中间件和路由
func NewEngine(h *handler.Handler, limiter *middleware.RateLimiter) *gin.Engine {
	if h.Config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.CustomRecovery(func(c *gin.Context, err any) {
		utils.InternalServerError(c, "")
	}))

	// 启用 gzip，默认压缩级别
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	// 界面状态保存在 Cookie Session 中
	store := cookie.NewStore([]byte(h.Config.AppSecret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7, // 7 天
		HttpOnly: true,
		Secure:   h.Config.IsProduction(),
		SameSite: http.SameSiteLaxMode,
	})
	r.Use(sessions.Sessions("moviesearch", store))

	// 加载模板（使用 multitemplate 解决继承问题）
	r.HTMLRender = LoadTemplates(web.Templates())

	// 静态文件
	r.StaticFS("/static", http.FS(web.Static()))

	// 中间件
	r.Use(middleware.Logger())
	r.Use(middleware.Security())

	RegisterRoutes(r, h, limiter)
	return r
}

// RegisterRoutes 注册所有路由；限流只作用于会请求 TMDB 搜索的路由，
// 海报和静态文件不受影响
func RegisterRoutes(r *gin.Engine, h *handler.Handler, limiter *middleware.RateLimiter) {
	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.NoRoute(h.NotFound)

	// ==================== 页面 ====================
	r.GET("/", h.Home)

	search := r.Group("")
	if limiter != nil {
		search.Use(limiter.Middleware())
	}

	// ==================== htmx 交互 ====================
	search.GET("/results", h.Results)
	search.POST("/search", h.SubmitSearch)
	search.POST("/page", h.ChangePage)
	r.POST("/movies/:id/select", h.SelectMovie)
	r.POST("/detail/close", h.CloseDetail)

	// ==================== JSON API ====================
	search.GET("/api/movies", h.SearchMovies)
	r.GET("/api/poster", h.ProxyPoster)

	// ==================== 管理 ====================
	admin := r.Group("/admin")
	admin.Use(middleware.RequireAdminToken(h.Config.AdminToken))
	{
		admin.GET("/cache", h.AdminCache)
		admin.POST("/cache/clear", h.AdminCacheClear)
	}
}

// LoadTemplates 使用 multitemplate 加载模板，解决模板继承问题
func LoadTemplates(templates fs.FS) multitemplate.Renderer {
	r := multitemplate.NewRenderer()

	// 获取布局和局部模板
	layouts, err := fs.Glob(templates, "layouts/*.html")
	if err != nil {
		panic(err)
	}

	partials, err := fs.Glob(templates, "partials/*.html")
	if err != nil {
		panic(err)
	}

	// 组装模板文件列表，第一个文件作为入口
	assemble := func(entry []string, view string) []string {
		files := make([]string, 0)
		files = append(files, entry...)
		files = append(files, partials...)
		if view != "" {
			files = append(files, view)
		}
		return files
	}

	// 模板函数
	funcMap := template.FuncMap{
		"dict": func(values ...interface{}) (map[string]interface{}, error) {
			if len(values)%2 != 0 {
				return nil, fmt.Errorf("invalid dict call")
			}
			dict := make(map[string]interface{}, len(values)/2)
			for i := 0; i < len(values); i += 2 {
				key, ok := values[i].(string)
				if !ok {
					return nil, fmt.Errorf("dict keys must be strings")
				}
				dict[key] = values[i+1]
			}
			return dict, nil
		},
		"default": func(defaultValue, value interface{}) interface{} {
			switch v := value.(type) {
			case string:
				if v == "" {
					return defaultValue
				}
			case int:
				if v == 0 {
					return defaultValue
				}
			case nil:
				return defaultValue
			}
			return value
		},
	}

	parse := func(files []string) *template.Template {
		return template.Must(template.New(path.Base(files[0])).Funcs(funcMap).ParseFS(templates, files...))
	}

	// 注册所有页面模板
	pages := []string{"home", "404"}
	for _, page := range pages {
		r.Add(page+".html", parse(assemble(layouts, "pages/"+page+".html")))
	}

	// htmx 片段
	fragments := []string{"results"}
	for _, fragment := range fragments {
		r.Add("partials/"+fragment+".html", parse(assemble([]string{"fragments/" + fragment + ".html"}, "")))
	}

	return r
}
