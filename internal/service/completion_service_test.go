package service

import (
	"context"
	"testing"
	"time"

	"github.com/sandeepshegane1/localtask-sub000/internal/model"
	"github.com/sandeepshegane1/localtask-sub000/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// newCompletionService 组装完成验证服务,返回具体类型以便注入时钟
func newCompletionService(t *testing.T, db *gorm.DB) (*completionService, *captureNotifier) {
	capture := &captureNotifier{}
	svc := NewCompletionService(
		repository.NewTaskRepository(db),
		repository.NewCompletionCodeRepository(db),
		capture,
		testLogger(),
	).(*completionService)
	return svc, capture
}

// TestCompletionService_RequestAndVerify 测试申请完成码并核销,任务进入 completed
func TestCompletionService_RequestAndVerify(t *testing.T) {
	db := setupTestDB(t)
	svc, capture := newCompletionService(t, db)
	task := seedTaskModel(t, db, "client-1", model.StatusInProgress, "provider-1")

	require.NoError(t, svc.RequestCode(context.Background(), "provider-1", task.ID))

	// 明文码只出现在发给客户的通知里
	msgs := capture.messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "client-1", msgs[0].RecipientID)
	code := capture.lastCode(t)
	require.Len(t, code, 6)

	got, err := svc.Verify(context.Background(), "provider-1", task.ID, code)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, got.Status)
	assert.Equal(t, "provider-1", got.AssigneeID)
}

// TestCompletionService_RequestCode_Authorization 测试申请码的权限与状态护栏
func TestCompletionService_RequestCode_Authorization(t *testing.T) {
	db := setupTestDB(t)
	svc, _ := newCompletionService(t, db)

	// 非接单人
	task := seedTaskModel(t, db, "client-1", model.StatusAssigned, "provider-1")
	err := svc.RequestCode(context.Background(), "provider-2", task.ID)
	assert.ErrorIs(t, err, ErrUnauthorized)

	// 任务未处于可完成状态
	done := seedTaskModel(t, db, "client-1", model.StatusCompleted, "provider-1")
	err = svc.RequestCode(context.Background(), "provider-1", done.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	// 任务不存在
	err = svc.RequestCode(context.Background(), "provider-1", "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

// TestCompletionService_Verify_WrongCode 测试码不匹配
func TestCompletionService_Verify_WrongCode(t *testing.T) {
	db := setupTestDB(t)
	svc, capture := newCompletionService(t, db)
	task := seedTaskModel(t, db, "client-1", model.StatusAssigned, "provider-1")

	require.NoError(t, svc.RequestCode(context.Background(), "provider-1", task.ID))
	code := capture.lastCode(t)

	wrong := "000000"
	if wrong == code {
		wrong = "000001"
	}
	_, err := svc.Verify(context.Background(), "provider-1", task.ID, wrong)
	assert.ErrorIs(t, err, ErrInvalidCode)

	// 任务状态不变,正确的码仍然可用
	got, err := svc.tasks.FindByID(task.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusAssigned, got.Status)

	_, err = svc.Verify(context.Background(), "provider-1", task.ID, code)
	assert.NoError(t, err)
}

// TestCompletionService_Verify_NoCode 测试从未申请过码
func TestCompletionService_Verify_NoCode(t *testing.T) {
	db := setupTestDB(t)
	svc, _ := newCompletionService(t, db)
	task := seedTaskModel(t, db, "client-1", model.StatusAssigned, "provider-1")

	_, err := svc.Verify(context.Background(), "provider-1", task.ID, "123456")
	assert.ErrorIs(t, err, ErrInvalidCode)
}

// TestCompletionService_Verify_SingleUse 测试完成码一次性:
// 核销成功后再次提交同一个码必然失败
func TestCompletionService_Verify_SingleUse(t *testing.T) {
	db := setupTestDB(t)
	svc, capture := newCompletionService(t, db)
	task := seedTaskModel(t, db, "client-1", model.StatusInProgress, "provider-1")

	require.NoError(t, svc.RequestCode(context.Background(), "provider-1", task.ID))
	code := capture.lastCode(t)

	_, err := svc.Verify(context.Background(), "provider-1", task.ID, code)
	require.NoError(t, err)

	_, err = svc.Verify(context.Background(), "provider-1", task.ID, code)
	assert.Error(t, err, "a consumed code must never verify again")
}

// TestCompletionService_Verify_Expiry 测试 5 分钟有效期边界
func TestCompletionService_Verify_Expiry(t *testing.T) {
	db := setupTestDB(t)
	svc, capture := newCompletionService(t, db)
	task := seedTaskModel(t, db, "client-1", model.StatusAssigned, "provider-1")

	issuedAt := time.Now()
	svc.now = func() time.Time { return issuedAt }
	require.NoError(t, svc.RequestCode(context.Background(), "provider-1", task.ID))
	code := capture.lastCode(t)

	// 过期后核销失败
	svc.now = func() time.Time { return issuedAt.Add(5*time.Minute + time.Second) }
	_, err := svc.Verify(context.Background(), "provider-1", task.ID, code)
	assert.ErrorIs(t, err, ErrCodeExpired)

	// 有效期最后一秒内仍可核销
	svc.now = func() time.Time { return issuedAt.Add(5*time.Minute - time.Second) }
	got, err := svc.Verify(context.Background(), "provider-1", task.ID, code)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, got.Status)
}

// TestCompletionService_Reissue 测试重新申请后旧码作废
func TestCompletionService_Reissue(t *testing.T) {
	db := setupTestDB(t)
	svc, capture := newCompletionService(t, db)
	task := seedTaskModel(t, db, "client-1", model.StatusAssigned, "provider-1")

	require.NoError(t, svc.RequestCode(context.Background(), "provider-1", task.ID))
	oldCode := capture.lastCode(t)

	require.NoError(t, svc.RequestCode(context.Background(), "provider-1", task.ID))
	newCode := capture.lastCode(t)

	if oldCode != newCode {
		_, err := svc.Verify(context.Background(), "provider-1", task.ID, oldCode)
		assert.ErrorIs(t, err, ErrInvalidCode, "reissue invalidates the previous code")
	}

	got, err := svc.Verify(context.Background(), "provider-1", task.ID, newCode)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, got.Status)
}
