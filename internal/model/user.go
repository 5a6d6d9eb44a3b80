package model

import (
	"errors"
	"strings"
	"time"
)

// Role 用户角色
type Role string

const (
	// RoleClient 发布任务的客户
	RoleClient Role = "client"
	// RoleProvider 接单的服务者
	RoleProvider Role = "provider"
)

// UserModel 用户数据模型(仅保留调度逻辑关心的字段)
type UserModel struct {
	ID           string    `gorm:"primaryKey;type:varchar(64)" json:"id"`
	Name         string    `gorm:"type:varchar(255);not null" json:"name"`
	Email        string    `gorm:"type:varchar(255);index" json:"email"`
	Role         Role      `gorm:"type:varchar(16);not null;index" json:"role"`
	Latitude     float64   `gorm:"not null" json:"latitude"`
	Longitude    float64   `gorm:"not null" json:"longitude"`
	Capabilities string    `gorm:"type:text" json:"capabilities"` // 逗号分隔的能力标签,如 "PLUMBING,ELECTRICAL"
	CreatedAt    time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt    time.Time `gorm:"not null" json:"updated_at"`
}

// TableName 指定表名
func (UserModel) TableName() string {
	return "users"
}

// Validate 验证用户模型
func (um *UserModel) Validate() error {
	if um.ID == "" {
		return errors.New("user ID is required")
	}
	if um.Role != RoleClient && um.Role != RoleProvider {
		return errors.New("user role must be client or provider")
	}
	return nil
}

// CapabilityList 返回能力标签列表
func (um *UserModel) CapabilityList() []string {
	if um.Capabilities == "" {
		return nil
	}
	parts := strings.Split(um.Capabilities, ",")
	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			tags = append(tags, p)
		}
	}
	return tags
}

// HasCapability 判断用户是否具备指定能力标签(不区分大小写)
func (um *UserModel) HasCapability(tag string) bool {
	for _, c := range um.CapabilityList() {
		if strings.EqualFold(c, tag) {
			return true
		}
	}
	return false
}

// SetCapabilities 设置能力标签列表
func (um *UserModel) SetCapabilities(tags []string) {
	um.Capabilities = strings.Join(tags, ",")
}
