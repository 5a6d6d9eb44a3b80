package service

import (
	"context"
	"strings"

	"github.com/sandeepshegane1/localtask-sub000/internal/geo"
	"github.com/sandeepshegane1/localtask-sub000/internal/model"
	"github.com/sandeepshegane1/localtask-sub000/internal/repository"
	"github.com/sirupsen/logrus"
)

// ProviderService 服务者档案服务
type ProviderService interface {
	UpdateLocation(ctx context.Context, providerID string, req *UpdateLocationRequest) (*model.UserModel, error)
	Get(providerID string) (*model.UserModel, error)
}

// UpdateLocationRequest 更新位置与能力标签请求
// @Description 更新服务者位置与能力标签的请求参数
type UpdateLocationRequest struct {
	Location     geo.Point `json:"location" binding:"required"`                     // 当前位置
	Capabilities []string  `json:"capabilities" example:"PLUMBING,ELECTRICAL"` // 能力标签
}

// providerService 服务者档案服务实现
type providerService struct {
	users repository.UserRepository
	log   *logrus.Logger
}

// NewProviderService 创建服务者档案服务
func NewProviderService(users repository.UserRepository, log *logrus.Logger) ProviderService {
	return &providerService{users: users, log: log}
}

// UpdateLocation 更新服务者的位置与能力标签。
// 位置决定其可见的广播任务,能力标签决定其能收到哪些类目的通知
func (s *providerService) UpdateLocation(ctx context.Context, providerID string, req *UpdateLocationRequest) (*model.UserModel, error) {
	if err := req.Location.Validate(); err != nil {
		return nil, validationError("%v", err)
	}

	caps := make([]string, 0, len(req.Capabilities))
	for _, c := range req.Capabilities {
		c = strings.TrimSpace(c)
		if c == "" {
			return nil, validationError("capability must not be blank")
		}
		caps = append(caps, c)
	}

	user, err := s.users.FindByID(providerID)
	if err != nil {
		return nil, storageError(err)
	}
	if user.Role != model.RoleProvider {
		return nil, validationError("user %s is not a provider", providerID)
	}

	if err := s.users.UpdateLocation(providerID, req.Location, caps); err != nil {
		return nil, storageError(err)
	}

	s.log.WithFields(logrus.Fields{
		"provider_id":  providerID,
		"latitude":     req.Location.Latitude,
		"longitude":    req.Location.Longitude,
		"capabilities": caps,
	}).Info("provider location updated")

	return s.users.FindByID(providerID)
}

// Get 查询服务者档案
func (s *providerService) Get(providerID string) (*model.UserModel, error) {
	user, err := s.users.FindByID(providerID)
	if err != nil {
		return nil, storageError(err)
	}
	return user, nil
}
