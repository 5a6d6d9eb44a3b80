package service

import (
	"testing"

	"github.com/sandeepshegane1/localtask-sub000/internal/model"
	"github.com/sandeepshegane1/localtask-sub000/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// newNotificationService 组装通知服务
func newNotificationService(t *testing.T, db *gorm.DB) (NotificationService, repository.NotificationRepository, *captureNotifier) {
	capture := &captureNotifier{}
	repo := repository.NewNotificationRepository(db)
	svc := NewNotificationService(repo, capture, testLogger())
	return svc, repo, capture
}

// TestNotificationService_Broadcast 测试广播为每个服务者建一条通知
func TestNotificationService_Broadcast(t *testing.T) {
	db := setupTestDB(t)
	svc, repo, capture := newNotificationService(t, db)
	task := seedTaskModel(t, db, "client-1", model.StatusPendingBroadcast, "")

	ns, err := svc.Broadcast(task, []string{"p-1", "p-2", "p-3"})
	require.NoError(t, err)
	assert.Len(t, ns, 3)
	assert.Len(t, capture.messages(), 3)

	stored, err := repo.FindByTask(task.ID)
	require.NoError(t, err)
	assert.Len(t, stored, 3)
	for _, n := range stored {
		assert.Equal(t, model.KindTaskAvailable, n.Kind)
		assert.False(t, n.Read)
	}
}

// TestNotificationService_Broadcast_Empty 测试无人可通知
func TestNotificationService_Broadcast_Empty(t *testing.T) {
	db := setupTestDB(t)
	svc, _, capture := newNotificationService(t, db)
	task := seedTaskModel(t, db, "client-1", model.StatusPendingBroadcast, "")

	ns, err := svc.Broadcast(task, nil)
	require.NoError(t, err)
	assert.Empty(t, ns)
	assert.Empty(t, capture.messages())
}

// TestNotificationService_Resolve 测试落定: 输家删除,赢家改写
func TestNotificationService_Resolve(t *testing.T) {
	db := setupTestDB(t)
	svc, repo, _ := newNotificationService(t, db)
	task := seedTaskModel(t, db, "client-1", model.StatusPendingBroadcast, "")

	_, err := svc.Broadcast(task, []string{"p-1", "p-2", "p-3"})
	require.NoError(t, err)

	require.NoError(t, svc.Resolve(task.ID, "p-2"))

	stored, err := repo.FindByTask(task.ID)
	require.NoError(t, err)
	require.Len(t, stored, 1, "losers' notifications are removed")
	assert.Equal(t, "p-2", stored[0].RecipientID)
	assert.Equal(t, model.KindTaskOutcome, stored[0].Kind)
}

// TestNotificationService_Resolve_Idempotent 测试重复落定得到同一终局
func TestNotificationService_Resolve_Idempotent(t *testing.T) {
	db := setupTestDB(t)
	svc, repo, _ := newNotificationService(t, db)
	task := seedTaskModel(t, db, "client-1", model.StatusPendingBroadcast, "")

	_, err := svc.Broadcast(task, []string{"p-1", "p-2"})
	require.NoError(t, err)

	require.NoError(t, svc.Resolve(task.ID, "p-1"))
	require.NoError(t, svc.Resolve(task.ID, "p-1"))

	stored, err := repo.FindByTask(task.ID)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, model.KindTaskOutcome, stored[0].Kind)
}

// TestNotificationService_Resolve_Directed 测试定向任务无广播通知时补结果通知
func TestNotificationService_Resolve_Directed(t *testing.T) {
	db := setupTestDB(t)
	svc, repo, _ := newNotificationService(t, db)
	task := seedTaskModel(t, db, "client-1", model.StatusOpen, "")

	require.NoError(t, svc.Resolve(task.ID, "p-1"))

	stored, err := repo.FindByTask(task.ID)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, "p-1", stored[0].RecipientID)
	assert.Equal(t, model.KindTaskOutcome, stored[0].Kind)
}

// TestNotificationService_MarkRead 测试已读标记的归属校验
func TestNotificationService_MarkRead(t *testing.T) {
	db := setupTestDB(t)
	svc, _, _ := newNotificationService(t, db)
	task := seedTaskModel(t, db, "client-1", model.StatusPendingBroadcast, "")

	ns, err := svc.Broadcast(task, []string{"p-1"})
	require.NoError(t, err)

	err = svc.MarkRead("p-2", ns[0].ID)
	assert.ErrorIs(t, err, ErrNotFound, "only the recipient can mark a notification read")

	require.NoError(t, svc.MarkRead("p-1", ns[0].ID))

	list, err := svc.ListForRecipient("p-1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.True(t, list[0].Read)
}
