package repository_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sandeepshegane1/localtask-sub000/internal/model"
	"github.com/sandeepshegane1/localtask-sub000/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestNotification(taskID, recipientID string) *model.NotificationModel {
	return &model.NotificationModel{
		ID:          uuid.New().String(),
		RecipientID: recipientID,
		TaskID:      taskID,
		Kind:        model.KindTaskAvailable,
		Message:     "New task available near you",
		CreatedAt:   time.Now(),
	}
}

// TestNotificationRepository_DeleteByTaskExcept 测试抢单落定后批量撤回
func TestNotificationRepository_DeleteByTaskExcept(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.NewNotificationRepository(db)

	require.NoError(t, repo.SaveBatch([]*model.NotificationModel{
		newTestNotification("task-1", "p-1"),
		newTestNotification("task-1", "p-2"),
		newTestNotification("task-1", "p-3"),
		newTestNotification("task-2", "p-2"),
	}))

	require.NoError(t, repo.DeleteByTaskExcept("task-1", "p-2"))

	remaining, err := repo.FindByTask("task-1")
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, "p-2", remaining[0].RecipientID)

	// 其他任务的通知不受影响
	others, err := repo.FindByTask("task-2")
	require.NoError(t, err)
	assert.Len(t, others, 1)

	// 幂等: 再次删除无副作用
	require.NoError(t, repo.DeleteByTaskExcept("task-1", "p-2"))
}

// TestNotificationRepository_MarkRead 测试只有收件人能标记已读
func TestNotificationRepository_MarkRead(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.NewNotificationRepository(db)

	n := newTestNotification("task-1", "p-1")
	require.NoError(t, repo.Save(n))

	ok, err := repo.MarkRead(n.ID, "p-2")
	require.NoError(t, err)
	assert.False(t, ok, "wrong recipient must not mark read")

	ok, err = repo.MarkRead(n.ID, "p-1")
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := repo.FindByID(n.ID)
	require.NoError(t, err)
	assert.True(t, got.Read)
}

// TestNotificationRepository_UpdateContent 测试赢家通知被改写为结果通知
func TestNotificationRepository_UpdateContent(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.NewNotificationRepository(db)

	n := newTestNotification("task-1", "p-1")
	n.Read = true
	require.NoError(t, repo.Save(n))

	require.NoError(t, repo.UpdateContent(n.ID, model.KindTaskOutcome, "You won the task"))

	got, err := repo.FindByID(n.ID)
	require.NoError(t, err)
	assert.Equal(t, model.KindTaskOutcome, got.Kind)
	assert.Equal(t, "You won the task", got.Message)
	assert.False(t, got.Read, "rewritten notification resets to unread")
}
