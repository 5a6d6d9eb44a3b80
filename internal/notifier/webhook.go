package notifier

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

// webhookNotifier 经 Webhook 推送通知的异步通知器
// 通知进入有界队列后由 worker 协程投递,队列满时丢弃并记日志
type webhookNotifier struct {
	url        string
	httpClient *http.Client
	queue      chan *Message
	stop       chan struct{}
	log        *logrus.Logger
}

// NewWebhookNotifier 创建 Webhook 通知器并启动 worker 协程
func NewWebhookNotifier(url string, workers, queueSize int, log *logrus.Logger) Notifier {
	if workers <= 0 {
		workers = 1
	}
	if queueSize <= 0 {
		queueSize = 1000
	}

	n := &webhookNotifier{
		url:        url,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		queue:      make(chan *Message, queueSize),
		stop:       make(chan struct{}),
		log:        log,
	}

	for i := 0; i < workers; i++ {
		go n.worker()
	}

	return n
}

// Notify 将通知入队,队列满时丢弃
func (n *webhookNotifier) Notify(msg *Message) {
	select {
	case n.queue <- msg:
	default:
		n.log.WithFields(logrus.Fields{
			"task_id":   msg.TaskID,
			"recipient": msg.RecipientID,
		}).Warn("notifier queue full, dropping message")
	}
}

// Stop 停止 worker 协程
func (n *webhookNotifier) Stop() {
	close(n.stop)
}

// worker 从队列取通知并推送
func (n *webhookNotifier) worker() {
	for {
		select {
		case msg := <-n.queue:
			if err := n.push(msg); err != nil {
				n.log.WithFields(logrus.Fields{
					"task_id":   msg.TaskID,
					"recipient": msg.RecipientID,
				}).WithError(err).Warn("failed to deliver notification")
			}
		case <-n.stop:
			return
		}
	}
}

// push 推送单条通知到 Webhook
func (n *webhookNotifier) push(msg *Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	resp, err := n.httpClient.Post(n.url, "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to post webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}
