package repository_test

import (
	"sync"
	"testing"
	"time"

	"github.com/sandeepshegane1/localtask-sub000/internal/geo"
	"github.com/sandeepshegane1/localtask-sub000/internal/model"
	"github.com/sandeepshegane1/localtask-sub000/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestTaskRepository_TryAccept 测试抢单成功写入状态与接单人
func TestTaskRepository_TryAccept(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.NewTaskRepository(db)
	task := seedTask(t, repo, newTestTask("client-1", model.StatusPendingBroadcast))

	won, err := repo.TryAccept(task.ID, "provider-1")
	require.NoError(t, err)
	assert.True(t, won)

	got, err := repo.FindByID(task.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusAssigned, got.Status)
	assert.Equal(t, "provider-1", got.AssigneeID)
}

// TestTaskRepository_TryAccept_AlreadyTaken 测试已认领任务不能再抢
func TestTaskRepository_TryAccept_AlreadyTaken(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.NewTaskRepository(db)
	task := seedTask(t, repo, newTestTask("client-1", model.StatusOpen))

	won, err := repo.TryAccept(task.ID, "provider-1")
	require.NoError(t, err)
	require.True(t, won)

	won, err = repo.TryAccept(task.ID, "provider-2")
	require.NoError(t, err)
	assert.False(t, won)

	got, err := repo.FindByID(task.ID)
	require.NoError(t, err)
	assert.Equal(t, "provider-1", got.AssigneeID, "first winner must not be overwritten")
}

// TestTaskRepository_TryAccept_TargetMismatch 测试定向任务只有目标服务者可接
func TestTaskRepository_TryAccept_TargetMismatch(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.NewTaskRepository(db)
	task := newTestTask("client-1", model.StatusOpen)
	task.TargetProvider = "provider-9"
	seedTask(t, repo, task)

	won, err := repo.TryAccept(task.ID, "provider-1")
	require.NoError(t, err)
	assert.False(t, won)

	won, err = repo.TryAccept(task.ID, "provider-9")
	require.NoError(t, err)
	assert.True(t, won)
}

// TestTaskRepository_TryAccept_TerminalState 测试终态任务不能被抢
func TestTaskRepository_TryAccept_TerminalState(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.NewTaskRepository(db)
	task := seedTask(t, repo, newTestTask("client-1", model.StatusRejected))

	won, err := repo.TryAccept(task.ID, "provider-1")
	require.NoError(t, err)
	assert.False(t, won)
}

// TestTaskRepository_TryAccept_Race 测试 N 个并发抢单恰好一个成功
func TestTaskRepository_TryAccept_Race(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.NewTaskRepository(db)
	task := seedTask(t, repo, newTestTask("client-1", model.StatusPendingBroadcast))

	const n = 20
	var wg sync.WaitGroup
	results := make([]bool, n)
	errs := make([]error, n)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = repo.TryAccept(task.ID, providerID(i))
		}(i)
	}
	wg.Wait()

	winners := 0
	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
		if results[i] {
			winners++
		}
	}
	assert.Equal(t, 1, winners, "exactly one concurrent accept must win")

	got, err := repo.FindByID(task.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusAssigned, got.Status)
	assert.NotEmpty(t, got.AssigneeID)
}

func providerID(i int) string {
	return "provider-" + string(rune('a'+i%26)) + string(rune('a'+i/26))
}

// TestTaskRepository_UpdateStatusIf 测试有条件状态更新
func TestTaskRepository_UpdateStatusIf(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.NewTaskRepository(db)
	task := newTestTask("client-1", model.StatusAssigned)
	task.AssigneeID = "provider-1"
	seedTask(t, repo, task)

	// 接单人不匹配时不更新
	ok, err := repo.UpdateStatusIf(task.ID, []model.TaskStatus{model.StatusAssigned},
		map[string]interface{}{"assignee_id": "provider-2"},
		map[string]interface{}{"status": model.StatusInProgress})
	require.NoError(t, err)
	assert.False(t, ok)

	// 条件满足时更新
	ok, err = repo.UpdateStatusIf(task.ID, []model.TaskStatus{model.StatusAssigned},
		map[string]interface{}{"assignee_id": "provider-1"},
		map[string]interface{}{"status": model.StatusInProgress, "updated_at": time.Now()})
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := repo.FindByID(task.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusInProgress, got.Status)

	// 状态已不在 allowed 集合,重复更新失败
	ok, err = repo.UpdateStatusIf(task.ID, []model.TaskStatus{model.StatusAssigned},
		map[string]interface{}{"assignee_id": "provider-1"},
		map[string]interface{}{"status": model.StatusInProgress})
	require.NoError(t, err)
	assert.False(t, ok)
}

// TestTaskRepository_FindByFilter 测试过滤查询
func TestTaskRepository_FindByFilter(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.NewTaskRepository(db)

	seedTask(t, repo, newTestTask("client-1", model.StatusOpen))
	seedTask(t, repo, newTestTask("client-1", model.StatusRejected))
	seedTask(t, repo, newTestTask("client-2", model.StatusOpen))

	clientID := "client-1"
	tasks, err := repo.FindByFilter(&repository.TaskFilter{ClientID: &clientID})
	require.NoError(t, err)
	assert.Len(t, tasks, 2)

	status := model.StatusOpen
	tasks, err = repo.FindByFilter(&repository.TaskFilter{ClientID: &clientID, Status: &status})
	require.NoError(t, err)
	assert.Len(t, tasks, 1)
}

// TestTaskRepository_FindBroadcastable 测试可抢单任务的包围盒查询
func TestTaskRepository_FindBroadcastable(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.NewTaskRepository(db)

	inside := seedTask(t, repo, newTestTask("client-1", model.StatusPendingBroadcast))

	far := newTestTask("client-1", model.StatusPendingBroadcast)
	far.Latitude, far.Longitude = 28.61, 77.20 // 德里,远超包围盒
	seedTask(t, repo, far)

	taken := newTestTask("client-1", model.StatusAssigned)
	taken.AssigneeID = "provider-1"
	seedTask(t, repo, taken)

	otherCategory := newTestTask("client-1", model.StatusOpen)
	otherCategory.Category = "ELECTRICAL"
	seedTask(t, repo, otherCategory)

	box := geo.BoundingBox(geo.Point{Latitude: 12.97, Longitude: 77.59}, 50000)
	tasks, err := repo.FindBroadcastable(box, []string{"PLUMBING"})
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, inside.ID, tasks[0].ID)

	// 不限类目时其他类目的任务也可见
	tasks, err = repo.FindBroadcastable(box, nil)
	require.NoError(t, err)
	assert.Len(t, tasks, 2)
}
