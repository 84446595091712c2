package Models

import (
	"gorm.io/gorm"
)

// Equipment operational statuses shared by trucks and excavators
const (
	StatusIdle        = "IDLE"
	StatusStandby     = "STANDBY"
	StatusLoading     = "LOADING"
	StatusHauling     = "HAULING"
	StatusDumping     = "DUMPING"
	StatusInQueue     = "IN_QUEUE"
	StatusActive      = "ACTIVE"
	StatusMaintenance = "MAINTENANCE"
)

// AvailableTruckStatuses are the statuses a truck may be in to be picked
// up by a new allocation
var AvailableTruckStatuses = []string{StatusStandby, StatusIdle}

// AvailableExcavatorStatuses additionally allow ACTIVE since one excavator
// can serve several trucks at the same loading point
var AvailableExcavatorStatuses = []string{StatusStandby, StatusIdle, StatusActive}

type Truck struct {
	gorm.Model
	Code  string `json:"code" gorm:"uniqueIndex;type:varchar(50);not null"`
	Brand string `json:"brand" gorm:"type:varchar(100)"`

	// Capacity in tons, fuel rate in liters per km
	Capacity      float64 `json:"capacity"`
	FuelRatePerKm float64 `json:"fuel_rate_per_km"`

	Status   string `json:"status" gorm:"default:'STANDBY';type:varchar(20)"`
	IsActive bool   `json:"is_active" gorm:"default:true"`

	CurrentOperatorID *uint     `json:"current_operator_id"`
	CurrentOperator   *Operator `json:"current_operator,omitempty" gorm:"foreignKey:CurrentOperatorID"`

	// Cumulative counters, incremented on cycle completion
	TotalHours    float64 `json:"total_hours"`
	TotalDistance float64 `json:"total_distance"`
}

func (Truck) TableName() string {
	return "trucks"
}

// IsAllocatable reports whether the truck can be claimed by a new activity
func (t *Truck) IsAllocatable() bool {
	if !t.IsActive {
		return false
	}
	for _, s := range AvailableTruckStatuses {
		if t.Status == s {
			return true
		}
	}
	return false
}

type Excavator struct {
	gorm.Model
	Code  string `json:"code" gorm:"uniqueIndex;type:varchar(50);not null"`
	Brand string `json:"brand" gorm:"type:varchar(100)"`

	// ProductionRate in tons per hour, fuel rate in liters per hour
	ProductionRate  float64 `json:"production_rate"`
	FuelRatePerHour float64 `json:"fuel_rate_per_hour"`

	Status   string `json:"status" gorm:"default:'STANDBY';type:varchar(20)"`
	IsActive bool   `json:"is_active" gorm:"default:true"`

	TotalHours float64 `json:"total_hours"`
}

func (Excavator) TableName() string {
	return "excavators"
}

func (e *Excavator) IsAllocatable() bool {
	if !e.IsActive {
		return false
	}
	for _, s := range AvailableExcavatorStatuses {
		if e.Status == s {
			return true
		}
	}
	return false
}
