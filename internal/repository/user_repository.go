package repository

import (
	"sort"
	"time"

	"github.com/sandeepshegane1/localtask-sub000/internal/geo"
	"github.com/sandeepshegane1/localtask-sub000/internal/model"
	"gorm.io/gorm"
)

// ProviderHit 地理查询命中的服务者及其与查询点的距离
type ProviderHit struct {
	Provider       *model.UserModel
	DistanceMeters float64
}

// UserRepository 用户仓储接口
// FindProvidersNear 即调度引擎的地理索引: 回答"P 点半径 R 内具备能力 C 的服务者"
type UserRepository interface {
	Save(user *model.UserModel) error
	FindByID(id string) (*model.UserModel, error)
	UpdateLocation(id string, point geo.Point, capabilities []string) error
	FindProvidersNear(point geo.Point, radiusMeters float64, capability string) ([]*ProviderHit, error)
}

// userRepository 用户仓储实现
type userRepository struct {
	db *gorm.DB
}

// NewUserRepository 创建用户仓储
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

// Save 保存用户
func (r *userRepository) Save(user *model.UserModel) error {
	return r.db.Save(user).Error
}

// FindByID 根据 ID 查找用户
func (r *userRepository) FindByID(id string) (*model.UserModel, error) {
	var user model.UserModel
	if err := r.db.Where("id = ?", id).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateLocation 更新服务者位置与能力标签
func (r *userRepository) UpdateLocation(id string, point geo.Point, capabilities []string) error {
	user := model.UserModel{}
	user.SetCapabilities(capabilities)
	return r.db.Model(&model.UserModel{}).Where("id = ?", id).Updates(map[string]interface{}{
		"latitude":     point.Latitude,
		"longitude":    point.Longitude,
		"capabilities": user.Capabilities,
		"updated_at":   time.Now(),
	}).Error
}

// FindProvidersNear 查找半径内具备指定能力的服务者,按距离升序,
// 距离相同时按 ID 升序保证确定性。空结果不是错误
func (r *userRepository) FindProvidersNear(point geo.Point, radiusMeters float64, capability string) ([]*ProviderHit, error) {
	box := geo.BoundingBox(point, radiusMeters)

	var users []*model.UserModel
	err := r.db.Model(&model.UserModel{}).
		Where("role = ?", model.RoleProvider).
		Where("latitude BETWEEN ? AND ?", box.MinLat, box.MaxLat).
		Where("longitude BETWEEN ? AND ?", box.MinLng, box.MaxLng).
		Find(&users).Error
	if err != nil {
		return nil, err
	}

	// 包围盒是方形预筛选,精确的圆形半径与能力匹配在进程内完成
	hits := make([]*ProviderHit, 0, len(users))
	for _, u := range users {
		if capability != "" && !u.HasCapability(capability) {
			continue
		}
		d := geo.Haversine(point, geo.Point{Latitude: u.Latitude, Longitude: u.Longitude})
		if d > radiusMeters {
			continue
		}
		hits = append(hits, &ProviderHit{Provider: u, DistanceMeters: d})
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].DistanceMeters != hits[j].DistanceMeters {
			return hits[i].DistanceMeters < hits[j].DistanceMeters
		}
		return hits[i].Provider.ID < hits[j].Provider.ID
	})

	return hits, nil
}
