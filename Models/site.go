package Models

import (
	"gorm.io/gorm"
)

type MiningSite struct {
	gorm.Model
	Name     string `json:"name" gorm:"uniqueIndex;type:varchar(100);not null"`
	IsActive bool   `json:"is_active" gorm:"default:true"`

	LoadingPoints []LoadingPoint `json:"loading_points,omitempty" gorm:"foreignKey:MiningSiteID"`
	DumpingPoints []DumpingPoint `json:"dumping_points,omitempty" gorm:"foreignKey:MiningSiteID"`
	RoadSegments  []RoadSegment  `json:"road_segments,omitempty" gorm:"foreignKey:MiningSiteID"`
}

func (MiningSite) TableName() string {
	return "mining_sites"
}

type LoadingPoint struct {
	gorm.Model
	MiningSiteID uint   `json:"mining_site_id" gorm:"index;not null"`
	Name         string `json:"name" gorm:"type:varchar(100);not null"`
	IsActive     bool   `json:"is_active" gorm:"default:true"`
}

func (LoadingPoint) TableName() string {
	return "loading_points"
}

type DumpingPoint struct {
	gorm.Model
	MiningSiteID uint   `json:"mining_site_id" gorm:"index;not null"`
	Name         string `json:"name" gorm:"type:varchar(100);not null"`
	IsActive     bool   `json:"is_active" gorm:"default:true"`
}

func (DumpingPoint) TableName() string {
	return "dumping_points"
}

type RoadSegment struct {
	gorm.Model
	MiningSiteID   uint   `json:"mining_site_id" gorm:"index;not null"`
	Name           string `json:"name" gorm:"type:varchar(100);not null"`
	LoadingPointID *uint  `json:"loading_point_id"`
	DumpingPointID *uint  `json:"dumping_point_id"`

	// One-way distance in kilometers
	DistanceKm float64 `json:"distance_km"`
	IsActive   bool    `json:"is_active" gorm:"default:true"`
}

func (RoadSegment) TableName() string {
	return "road_segments"
}

// DelayReason is the lookup table referenced by delay entries on hauling
// activities (weather, breakdown, blasting, shift change...)
type DelayReason struct {
	gorm.Model
	Code     string `json:"code" gorm:"uniqueIndex;type:varchar(30);not null"`
	Name     string `json:"name" gorm:"type:varchar(100);not null"`
	IsActive bool   `json:"is_active" gorm:"default:true"`
}

func (DelayReason) TableName() string {
	return "delay_reasons"
}
