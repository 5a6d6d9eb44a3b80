// Package geo 提供球面距离计算与坐标校验。
package geo

import (
	"errors"
	"math"
)

// EarthRadiusMeters 地球平均半径(米)
const EarthRadiusMeters = 6371000.0

// Point 地理坐标点
type Point struct {
	Latitude  float64 `json:"latitude" binding:"required"`
	Longitude float64 `json:"longitude" binding:"required"`
}

// Validate 校验坐标范围
func (p Point) Validate() error {
	if p.Latitude < -90 || p.Latitude > 90 {
		return errors.New("latitude must be between -90 and 90")
	}
	if p.Longitude < -180 || p.Longitude > 180 {
		return errors.New("longitude must be between -180 and 180")
	}
	return nil
}

// Haversine 计算两点间的球面距离(米)
func Haversine(a, b Point) float64 {
	lat1 := a.Latitude * math.Pi / 180
	lat2 := b.Latitude * math.Pi / 180
	dLat := (b.Latitude - a.Latitude) * math.Pi / 180
	dLng := (b.Longitude - a.Longitude) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * EarthRadiusMeters * math.Asin(math.Sqrt(h))
}

// Box 经纬度包围盒,用于 SQL 预筛选
type Box struct {
	MinLat float64
	MaxLat float64
	MinLng float64
	MaxLng float64
}

// BoundingBox 计算覆盖以 center 为圆心、radiusMeters 为半径的圆的包围盒。
// 高纬度地区经度跨度会被放大,极点附近直接放开经度范围。
func BoundingBox(center Point, radiusMeters float64) Box {
	dLat := radiusMeters / EarthRadiusMeters * 180 / math.Pi

	box := Box{
		MinLat: math.Max(center.Latitude-dLat, -90),
		MaxLat: math.Min(center.Latitude+dLat, 90),
	}

	cosLat := math.Cos(center.Latitude * math.Pi / 180)
	if cosLat < 1e-6 {
		box.MinLng = -180
		box.MaxLng = 180
		return box
	}

	dLng := dLat / cosLat
	if dLng >= 180 {
		box.MinLng = -180
		box.MaxLng = 180
		return box
	}
	box.MinLng = center.Longitude - dLng
	box.MaxLng = center.Longitude + dLng
	return box
}
