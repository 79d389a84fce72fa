package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/user/alldrama/internal/middleware"
	"github.com/user/alldrama/internal/repository"
	"github.com/user/alldrama/internal/service"
	"github.com/user/alldrama/internal/utils"
)

func newMigrateCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := a.openDB()
			if err != nil {
				return err
			}
			sqlDB, _ := db.DB()
			defer sqlDB.Close()
			return repository.Migrate(db)
		},
	}
}

// create-admin 用于初始化第一个管理员，register-admin 接口本身需要管理员身份
func newCreateAdminCommand(a *app) *cobra.Command {
	var fullName, email, password string

	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an admin account",
		RunE: func(cmd *cobra.Command, args []string) error {
			if email == "" || len(password) < 6 {
				return fmt.Errorf("--email and a --password of at least 6 characters are required")
			}
			db, err := a.openDB()
			if err != nil {
				return err
			}
			sqlDB, _ := db.DB()
			defer sqlDB.Close()

			if err := repository.Migrate(db); err != nil {
				return err
			}
			repos := repository.NewRepositories(db)
			tokens := middleware.NewTokens(a.cfg.AppSecret, a.cfg.TokenTTL())
			auth := service.NewAuthService(repos.User, tokens, utils.NewAttemptLimiter(0, 0))

			user, err := auth.RegisterAdmin(cmd.Context(), fullName, email, password)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "admin created: id=%d email=%s\n", user.ID, user.Email)
			return nil
		},
	}

	cmd.Flags().StringVar(&fullName, "name", "Administrator", "Full name")
	cmd.Flags().StringVar(&email, "email", "", "Admin email")
	cmd.Flags().StringVar(&password, "password", "", "Admin password")
	return cmd
}
