package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestTaskModel_Validate 测试任务模型验证
func TestTaskModel_Validate(t *testing.T) {
	valid := TaskModel{
		ID:       "task-1",
		Title:    "Fix kitchen sink",
		Category: "PLUMBING",
		Budget:   500,
		ClientID: "client-1",
		Status:   StatusOpen,
	}
	assert.NoError(t, valid.Validate())

	cases := []struct {
		name   string
		mutate func(*TaskModel)
	}{
		{"missing id", func(tm *TaskModel) { tm.ID = "" }},
		{"missing title", func(tm *TaskModel) { tm.Title = "" }},
		{"missing category", func(tm *TaskModel) { tm.Category = "" }},
		{"negative budget", func(tm *TaskModel) { tm.Budget = -1 }},
		{"missing client", func(tm *TaskModel) { tm.ClientID = "" }},
		{"missing status", func(tm *TaskModel) { tm.Status = "" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tm := valid
			tc.mutate(&tm)
			assert.Error(t, tm.Validate())
		})
	}
}

// TestTaskModel_Terminal 测试终态判断
func TestTaskModel_Terminal(t *testing.T) {
	terminal := []TaskStatus{StatusCompleted, StatusCancelled, StatusRejected}
	for _, s := range terminal {
		assert.True(t, (&TaskModel{Status: s}).Terminal(), string(s))
	}

	active := []TaskStatus{StatusPendingBroadcast, StatusOpen, StatusAssigned, StatusInProgress}
	for _, s := range active {
		assert.False(t, (&TaskModel{Status: s}).Terminal(), string(s))
	}
}

// TestTaskModel_Acceptable 测试可接单判断
func TestTaskModel_Acceptable(t *testing.T) {
	assert.True(t, (&TaskModel{Status: StatusOpen}).Acceptable())
	assert.True(t, (&TaskModel{Status: StatusPendingBroadcast}).Acceptable())
	assert.False(t, (&TaskModel{Status: StatusAssigned}).Acceptable())
	assert.False(t, (&TaskModel{Status: StatusOpen, AssigneeID: "p-1"}).Acceptable(),
		"a task with an assignee is never acceptable")
}

// TestUserModel_Validate 测试用户模型验证
func TestUserModel_Validate(t *testing.T) {
	assert.NoError(t, (&UserModel{ID: "u-1", Role: RoleClient}).Validate())
	assert.NoError(t, (&UserModel{ID: "u-1", Role: RoleProvider}).Validate())
	assert.Error(t, (&UserModel{Role: RoleClient}).Validate())
	assert.Error(t, (&UserModel{ID: "u-1", Role: "admin"}).Validate())
}

// TestUserModel_Capabilities 测试能力标签解析
func TestUserModel_Capabilities(t *testing.T) {
	u := UserModel{Capabilities: "PLUMBING, electrical ,,"}

	assert.Equal(t, []string{"PLUMBING", "electrical"}, u.CapabilityList())
	assert.True(t, u.HasCapability("plumbing"), "capability match is case insensitive")
	assert.True(t, u.HasCapability("ELECTRICAL"))
	assert.False(t, u.HasCapability("CLEANING"))

	empty := UserModel{}
	assert.Nil(t, empty.CapabilityList())
	assert.False(t, empty.HasCapability("PLUMBING"))
}

// TestUserModel_SetCapabilities 测试能力标签写回
func TestUserModel_SetCapabilities(t *testing.T) {
	var u UserModel
	u.SetCapabilities([]string{"PLUMBING", "MOVING"})
	assert.Equal(t, "PLUMBING,MOVING", u.Capabilities)
	assert.Equal(t, []string{"PLUMBING", "MOVING"}, u.CapabilityList())
}
