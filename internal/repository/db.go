package repository

import (
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/user/alldrama/internal/logger"
	"github.com/user/alldrama/internal/model"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// InitDB 初始化数据库连接，底层使用 lib/pq 驱动
func InitDB(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.New(postgres.Config{
		DriverName: "postgres",
		DSN:        dsn,
	}), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("无法连接数据库: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("获取连接池失败: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("数据库 ping 失败: %w", err)
	}

	// 设置连接池
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	return db, nil
}

// Migrate 自动迁移表结构
func Migrate(db *gorm.DB) error {
	log := logger.Component("migrate")
	log.Info("开始迁移数据库...")

	err := db.AutoMigrate(
		&model.User{},
		&model.Movie{},
		&model.Episode{},
		&model.Favorite{},
		&model.WatchHistory{},
		&model.Comment{},
	)
	if err != nil {
		log.WithError(err).Error("数据库迁移失败")
		return err
	}

	log.Info("数据库迁移完成")
	return nil
}

// Repositories 仓库集合
type Repositories struct {
	DB       *gorm.DB
	User     *UserRepository
	Movie    *MovieRepository
	Episode  *EpisodeRepository
	Favorite *FavoriteRepository
	History  *HistoryRepository
	Comment  *CommentRepository
}

// NewRepositories 创建仓库集合
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		DB:       db,
		User:     NewUserRepository(db),
		Movie:    NewMovieRepository(db),
		Episode:  NewEpisodeRepository(db),
		Favorite: NewFavoriteRepository(db),
		History:  NewHistoryRepository(db),
		Comment:  NewCommentRepository(db),
	}
}

// IsUniqueViolation 判断是否违反唯一约束（postgres 23505 或 gorm 翻译后的错误）
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
