// Package statemachine 定义任务状态图并校验状态迁移的合法性。
// 状态图是唯一事实来源: 任何不在边集中的 (状态, 事件) 组合都是非法迁移,
// 不存在回退到更早状态的边。
package statemachine

import (
	"github.com/sandeepshegane1/localtask-sub000/internal/model"
)

// Event 状态迁移事件
type Event string

const (
	// EventAccept 服务者接单(抢单)
	EventAccept Event = "accept"
	// EventReject 服务者拒单或客户删除未认领任务
	EventReject Event = "reject"
	// EventStart 接单服务者开始工作
	EventStart Event = "start"
	// EventComplete 完成码校验通过
	EventComplete Event = "complete"
	// EventCancel 接单服务者退出
	EventCancel Event = "cancel"
)

// transitions 合法迁移边集
var transitions = map[model.TaskStatus]map[Event]model.TaskStatus{
	model.StatusPendingBroadcast: {
		EventAccept: model.StatusAssigned,
		EventReject: model.StatusRejected,
	},
	model.StatusOpen: {
		EventAccept: model.StatusAssigned,
		EventReject: model.StatusRejected,
	},
	model.StatusAssigned: {
		EventStart:    model.StatusInProgress,
		EventComplete: model.StatusCompleted,
		EventCancel:   model.StatusCancelled,
	},
	model.StatusInProgress: {
		EventComplete: model.StatusCompleted,
		EventCancel:   model.StatusCancelled,
	},
}

// Initial 返回任务的初始状态
func Initial(quickService bool) model.TaskStatus {
	if quickService {
		return model.StatusPendingBroadcast
	}
	return model.StatusOpen
}

// Next 返回事件触发后的目标状态,边不存在时 ok 为 false
func Next(from model.TaskStatus, event Event) (model.TaskStatus, bool) {
	edges, ok := transitions[from]
	if !ok {
		return "", false
	}
	to, ok := edges[event]
	return to, ok
}

// CanTransition 判断从 from 到 to 是否存在合法边
func CanTransition(from, to model.TaskStatus) bool {
	for _, target := range transitions[from] {
		if target == to {
			return true
		}
	}
	return false
}

// IsTerminal 判断状态是否为终态
func IsTerminal(s model.TaskStatus) bool {
	return len(transitions[s]) == 0 && (s == model.StatusCompleted || s == model.StatusCancelled || s == model.StatusRejected)
}

// AcceptableStates 可被接单的前置状态
func AcceptableStates() []model.TaskStatus {
	return []model.TaskStatus{model.StatusOpen, model.StatusPendingBroadcast}
}

// CompletableStates 可触发完成的前置状态
func CompletableStates() []model.TaskStatus {
	return []model.TaskStatus{model.StatusAssigned, model.StatusInProgress}
}
