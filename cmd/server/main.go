package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata" // 确保在精简镜像中也能识别时区

	"github.com/joho/godotenv"
	"github.com/user/moviesearch/internal/config"
	"github.com/user/moviesearch/internal/handler"
	"github.com/user/moviesearch/internal/middleware"
	"github.com/user/moviesearch/internal/router"
	"github.com/user/moviesearch/internal/service"
	"github.com/user/moviesearch/internal/utils"
)

func main() {
	// 加载环境变量
	if err := godotenv.Load(); err != nil {
		log.Println("未找到 .env 文件，使用系统环境变量")
	}

	// 加载配置，缺少 TMDB 凭证直接退出
	cfg, err := config.Load()
	if err != nil {
		if errors.Is(err, config.ErrMissingToken) {
			log.Fatalf("配置错误: 请设置 TMDB_TOKEN 环境变量")
		}
		log.Fatalf("配置错误: %v", err)
	}

	// 初始化缓存
	utils.InitCache()

	tmdb, err := service.NewTMDBService(cfg)
	if err != nil {
		log.Fatalf("TMDB 客户端初始化失败: %v", err)
	}

	// 初始化 Handler
	h := handler.NewHandler(cfg, tmdb)

	done := make(chan struct{})
	limiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	limiter.Start(done)

	r := router.NewEngine(h, limiter)

	srv := &http.Server{
		Addr:           ":" + cfg.Port,
		Handler:        r,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   cfg.TMDBTimeout + 10*time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	// 在 goroutine 中启动服务器，这样我们就可以监听信号
	go func() {
		log.Printf("服务器启动于 http://localhost:%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("服务器启动失败: %v", err)
		}
	}()

	// 等待中断信号以优雅地关闭服务器
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("正在关闭服务器...")
	close(done)

	// 5 秒超时上下文用于关闭过程
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("服务器强制关闭:", err)
	}

	// 等待后台 TMDB 请求结束（受请求超时约束）
	h.Cache.Wait()

	log.Println("服务器已退出")
}
