package service

import (
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sandeepshegane1/localtask-sub000/internal/geo"
	"github.com/sandeepshegane1/localtask-sub000/internal/model"
	"github.com/sandeepshegane1/localtask-sub000/internal/notifier"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupTestDB 创建测试数据库
// 内存 sqlite 的每个连接是独立数据库,并发测试必须收敛到单连接
func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	err = db.AutoMigrate(
		&model.UserModel{},
		&model.TaskModel{},
		&model.NotificationModel{},
		&model.CompletionCodeModel{},
	)
	require.NoError(t, err)

	return db
}

// testLogger 静默日志记录器
func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

// captureNotifier 捕获投递消息的通知器
type captureNotifier struct {
	mu   sync.Mutex
	msgs []*notifier.Message
}

func (c *captureNotifier) Notify(msg *notifier.Message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.msgs = append(c.msgs, msg)
}

func (c *captureNotifier) Stop() {}

// messages 返回已捕获消息的快照
func (c *captureNotifier) messages() []*notifier.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*notifier.Message, len(c.msgs))
	copy(out, c.msgs)
	return out
}

// lastCode 从最近一条完成码通知里提取 6 位明文码
func (c *captureNotifier) lastCode(t *testing.T) string {
	msgs := c.messages()
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Kind != "completion_code" {
			continue
		}
		for _, word := range strings.Fields(msgs[i].Body) {
			trimmed := strings.TrimSuffix(word, ".")
			if len(trimmed) == 6 && strings.Trim(trimmed, "0123456789") == "" {
				return trimmed
			}
		}
	}
	t.Fatal("no completion code message captured")
	return ""
}

// seedUser 写入用户
func seedUser(t *testing.T, db *gorm.DB, id string, role model.Role, lat, lng float64, capabilities string) *model.UserModel {
	now := time.Now()
	u := &model.UserModel{
		ID:           id,
		Name:         "user " + id,
		Role:         role,
		Latitude:     lat,
		Longitude:    lng,
		Capabilities: capabilities,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, db.Create(u).Error)
	return u
}

// seedTaskModel 写入任务
func seedTaskModel(t *testing.T, db *gorm.DB, clientID string, status model.TaskStatus, assigneeID string) *model.TaskModel {
	now := time.Now()
	task := &model.TaskModel{
		ID:         uuid.New().String(),
		Title:      "Fix kitchen sink",
		Category:   "PLUMBING",
		Budget:     500,
		Latitude:   12.97,
		Longitude:  77.59,
		ClientID:   clientID,
		AssigneeID: assigneeID,
		Status:     status,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	require.NoError(t, db.Create(task).Error)
	return task
}

// validCreateRequest 班加罗尔坐标的合法创建请求
func validCreateRequest() *CreateTaskRequest {
	return &CreateTaskRequest{
		Title:    "Fix kitchen sink",
		Budget:   500,
		Category: "PLUMBING",
		Location: geo.Point{Latitude: 12.97, Longitude: 77.59},
	}
}
