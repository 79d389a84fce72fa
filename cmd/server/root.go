package main

import (
	"encoding/gob"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/user/alldrama/internal/config"
	"github.com/user/alldrama/internal/logger"
	"github.com/user/alldrama/internal/model"
	"github.com/user/alldrama/internal/repository"
	"gorm.io/gorm"
)

// app 各子命令共享的启动状态
type app struct {
	envFile string
	cfg     *config.Config
}

func newRootCommand() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:           "alldrama",
		Short:         "AllDrama streaming API server",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.bootstrap()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), a.cfg)
		},
	}

	rootCmd.PersistentFlags().StringVar(&a.envFile, "env-file", ".env", "Path to an optional .env file")

	rootCmd.AddCommand(newServeCommand(a))
	rootCmd.AddCommand(newMigrateCommand(a))
	rootCmd.AddCommand(newCreateAdminCommand(a))

	return rootCmd
}

func (a *app) bootstrap() error {
	// 注册 Session 模型
	gob.Register(model.SessionUser{})

	// 加载环境变量
	if err := godotenv.Load(a.envFile); err != nil {
		logger.Log.Debugf("未找到 %s 文件，使用系统环境变量", a.envFile)
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger.Init(cfg.LogLevel, cfg.LogFormat)
	a.cfg = cfg
	return nil
}

func (a *app) openDB() (*gorm.DB, error) {
	return repository.InitDB(a.cfg.DB.DSN())
}
