package service

import (
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sandeepshegane1/localtask-sub000/internal/repository"
	"github.com/sirupsen/logrus"
)

// CodeSweeper 定期清理过期完成码。
// 纯粹的存储卫生: 校验路径自己检查过期,正确性不依赖清理是否跑过
type CodeSweeper struct {
	codes    repository.CompletionCodeRepository
	cron     *cron.Cron
	schedule string
	log      *logrus.Logger
}

// NewCodeSweeper 创建完成码清理器
func NewCodeSweeper(codes repository.CompletionCodeRepository, schedule string, log *logrus.Logger) *CodeSweeper {
	if schedule == "" {
		schedule = "@hourly"
	}
	return &CodeSweeper{
		codes:    codes,
		cron:     cron.New(),
		schedule: schedule,
		log:      log,
	}
}

// Start 启动定时清理
func (s *CodeSweeper) Start() error {
	if _, err := s.cron.AddFunc(s.schedule, s.sweep); err != nil {
		return err
	}
	s.cron.Start()
	return nil
}

// Stop 停止定时清理
func (s *CodeSweeper) Stop() {
	s.cron.Stop()
}

// sweep 执行一次清理
func (s *CodeSweeper) sweep() {
	deleted, err := s.codes.DeleteExpired(time.Now())
	if err != nil {
		s.log.WithError(err).Warn("failed to sweep expired completion codes")
		return
	}
	if deleted > 0 {
		s.log.WithField("deleted", deleted).Info("swept expired completion codes")
	}
}
