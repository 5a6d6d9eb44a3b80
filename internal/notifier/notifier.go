// Package notifier 对接外部通知方(邮件/推送网关)。
// 投递是尽力而为的副作用: 入队失败、投递失败都只记日志,
// 绝不反向影响触发它的任务状态变更。
package notifier

import (
	"time"

	"github.com/sirupsen/logrus"
)

// Message 待投递的外部通知
type Message struct {
	ID          string    `json:"id"`
	RecipientID string    `json:"recipient_id"`
	TaskID      string    `json:"task_id"`
	Kind        string    `json:"kind"`
	Body        string    `json:"body"`
	CreatedAt   time.Time `json:"created_at"`
}

// Notifier 外部通知方接口
type Notifier interface {
	Notify(msg *Message)
	Stop()
}

// logNotifier 仅记日志的通知器,未配置 webhook 时使用
type logNotifier struct {
	log *logrus.Logger
}

// NewLogNotifier 创建日志通知器
func NewLogNotifier(log *logrus.Logger) Notifier {
	return &logNotifier{log: log}
}

// Notify 记录通知内容
func (n *logNotifier) Notify(msg *Message) {
	n.log.WithFields(logrus.Fields{
		"recipient": msg.RecipientID,
		"task_id":   msg.TaskID,
		"kind":      msg.Kind,
	}).Info("notification (log only)")
}

// Stop 无需清理
func (n *logNotifier) Stop() {}
