package service

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/user/alldrama/internal/logger"
)

// Purger 可定期清理过期数据的组件
type Purger interface {
	PurgeExpired(now time.Time) int
}

// CleanupService 清理服务
type CleanupService struct {
	targets  map[string]Purger
	interval time.Duration
	log      *logrus.Entry
}

// NewCleanupService 创建清理服务，interval <= 0 时使用 10 分钟
func NewCleanupService(interval time.Duration, targets map[string]Purger) *CleanupService {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	return &CleanupService{
		targets:  targets,
		interval: interval,
		log:      logger.Component("cleanup"),
	}
}

// Start 启动定时清理任务，ctx 取消后退出
func (s *CleanupService) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				s.RunOnce(now)
			}
		}
	}()
}

// RunOnce 执行一次清理，返回总清理条数
func (s *CleanupService) RunOnce(now time.Time) int {
	total := 0
	for name, p := range s.targets {
		n := p.PurgeExpired(now)
		if n > 0 {
			s.log.WithFields(logrus.Fields{"target": name, "removed": n}).Info("已清理过期数据")
		}
		total += n
	}
	return total
}
