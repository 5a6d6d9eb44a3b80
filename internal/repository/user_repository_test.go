package repository_test

import (
	"testing"

	"github.com/sandeepshegane1/localtask-sub000/internal/geo"
	"github.com/sandeepshegane1/localtask-sub000/internal/model"
	"github.com/sandeepshegane1/localtask-sub000/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestUserRepository_FindProvidersNear 测试地理索引查询:
// 半径内能力匹配的服务者命中,半径外或能力不符的被过滤
func TestUserRepository_FindProvidersNear(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.NewUserRepository(db)

	// 距查询点 (12.97, 77.59) 约 5 公里
	require.NoError(t, repo.Save(newTestProvider("p-near", 12.93, 77.61, "PLUMBING,ELECTRICAL")))
	// 约 30 公里,仍在 50 公里半径内
	require.NoError(t, repo.Save(newTestProvider("p-mid", 13.20, 77.70, "PLUMBING")))
	// 德里,远超半径
	require.NoError(t, repo.Save(newTestProvider("p-far", 28.61, 77.20, "PLUMBING")))
	// 半径内但能力不符
	require.NoError(t, repo.Save(newTestProvider("p-wrongcap", 12.95, 77.60, "CLEANING")))

	// 客户不是服务者,不应命中
	client := newTestProvider("c-1", 12.97, 77.59, "PLUMBING")
	client.Role = model.RoleClient
	require.NoError(t, repo.Save(client))

	hits, err := repo.FindProvidersNear(geo.Point{Latitude: 12.97, Longitude: 77.59}, 50000, "PLUMBING")
	require.NoError(t, err)
	require.Len(t, hits, 2)

	// 距离升序
	assert.Equal(t, "p-near", hits[0].Provider.ID)
	assert.Equal(t, "p-mid", hits[1].Provider.ID)
	assert.Less(t, hits[0].DistanceMeters, hits[1].DistanceMeters)
	assert.Less(t, hits[1].DistanceMeters, 50000.0)
}

// TestUserRepository_FindProvidersNear_CaseInsensitive 测试能力标签不区分大小写
func TestUserRepository_FindProvidersNear_CaseInsensitive(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.NewUserRepository(db)

	require.NoError(t, repo.Save(newTestProvider("p-1", 12.96, 77.60, "plumbing")))

	hits, err := repo.FindProvidersNear(geo.Point{Latitude: 12.97, Longitude: 77.59}, 50000, "PLUMBING")
	require.NoError(t, err)
	assert.Len(t, hits, 1)
}

// TestUserRepository_FindProvidersNear_Empty 测试空结果不是错误
func TestUserRepository_FindProvidersNear_Empty(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.NewUserRepository(db)

	hits, err := repo.FindProvidersNear(geo.Point{Latitude: 12.97, Longitude: 77.59}, 50000, "PLUMBING")
	require.NoError(t, err)
	assert.Empty(t, hits)
}

// TestUserRepository_UpdateLocation 测试位置与能力标签更新
func TestUserRepository_UpdateLocation(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.NewUserRepository(db)

	require.NoError(t, repo.Save(newTestProvider("p-1", 0, 0, "CLEANING")))

	err := repo.UpdateLocation("p-1", geo.Point{Latitude: 12.95, Longitude: 77.60}, []string{"PLUMBING", "ELECTRICAL"})
	require.NoError(t, err)

	got, err := repo.FindByID("p-1")
	require.NoError(t, err)
	assert.Equal(t, 12.95, got.Latitude)
	assert.Equal(t, 77.60, got.Longitude)
	assert.True(t, got.HasCapability("PLUMBING"))
	assert.True(t, got.HasCapability("ELECTRICAL"))
	assert.False(t, got.HasCapability("CLEANING"))
}
