package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/user/alldrama/internal/config"
	"github.com/user/alldrama/internal/handler"
	"github.com/user/alldrama/internal/logger"
	"github.com/user/alldrama/internal/middleware"
	"github.com/user/alldrama/internal/repository"
	"github.com/user/alldrama/internal/router"
	"github.com/user/alldrama/internal/service"
	"github.com/user/alldrama/internal/storage"
)

func newServeCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), a.cfg)
		},
	}
}

func runServe(ctx context.Context, cfg *config.Config) error {
	log := logger.Component("server")

	// 初始化数据库
	db, err := repository.InitDB(cfg.DB.DSN())
	if err != nil {
		return err
	}
	sqlDB, _ := db.DB()
	defer sqlDB.Close()

	if err := repository.Migrate(db); err != nil {
		return err
	}

	// 初始化仓库
	repos := repository.NewRepositories(db)

	// 对象存储未配置时只关闭 /aws 接口
	var blobs handler.BlobStore
	if cfg.Storage.Bucket != "" {
		gw, err := storage.NewS3Gateway(ctx, cfg.Storage, cfg.MaxUpload)
		if err != nil {
			return err
		}
		blobs = gw
	} else {
		log.Warn("AWS_S3_BUCKET 未设置，对象存储接口不可用")
	}

	// 初始化 Gin
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	tokens := middleware.NewTokens(cfg.AppSecret, cfg.TokenTTL())
	h := handler.NewHandler(cfg, repos, tokens, blobs)
	r := router.New(h)

	runCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 启动定时清理任务
	cleanup := service.NewCleanupService(10*time.Minute, map[string]service.Purger{
		"token_denylist": tokens.Denylist(),
	})
	cleanup.Start(runCtx)

	// 上传接口可能持续较久，写超时按最大上传量放宽
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      writeTimeout(cfg),
		MaxHeaderBytes:    1 << 20,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("服务器启动于 http://localhost:%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// 等待中断信号以优雅地关闭服务器
	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-runCtx.Done():
	}
	log.Info("正在关闭服务器...")

	// 5 秒超时上下文用于关闭过程
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	log.Info("服务器已退出")
	return nil
}

func writeTimeout(cfg *config.Config) time.Duration {
	timeout := cfg.Storage.BaseTimeout + 30*time.Second
	if cfg.Storage.MinThroughput > 0 && cfg.MaxUpload > 0 {
		timeout += time.Duration(cfg.MaxUpload/cfg.Storage.MinThroughput) * time.Second
	}
	return timeout
}

