package Models

import (
	"time"

	"gorm.io/gorm"
)

// Hauling activity lifecycle statuses. The linear happy path is
// IN_QUEUE -> LOADING -> HAULING -> DUMPING -> RETURNING -> COMPLETED.
// Delay is NOT a status: it is tracked by the IsDelayed/DelayMinutes
// fields so the activity never loses its position in the cycle.
const (
	ActivityInQueue   = "IN_QUEUE"
	ActivityLoading   = "LOADING"
	ActivityHauling   = "HAULING"
	ActivityDumping   = "DUMPING"
	ActivityReturning = "RETURNING"
	ActivityCompleted = "COMPLETED"
	ActivityCancelled = "CANCELLED"
)

// ActiveActivityStatuses are the non-terminal statuses. Exclusivity checks
// (no truck/excavator/operator on two live activities) query against this set.
var ActiveActivityStatuses = []string{
	ActivityInQueue,
	ActivityLoading,
	ActivityHauling,
	ActivityDumping,
	ActivityReturning,
}

type HaulingActivity struct {
	gorm.Model

	// Date-scoped sequence, format HA-YYYYMMDD-NNN
	ActivityNumber string `json:"activity_number" gorm:"uniqueIndex;type:varchar(30);not null"`

	TruckID    uint   `json:"truck_id" gorm:"index;not null"`
	Truck      *Truck `json:"truck,omitempty" gorm:"foreignKey:TruckID"`
	OperatorID uint   `json:"operator_id" gorm:"index;not null"`

	ExcavatorID         *uint      `json:"excavator_id" gorm:"index"`
	Excavator           *Excavator `json:"excavator,omitempty" gorm:"foreignKey:ExcavatorID"`
	ExcavatorOperatorID *uint      `json:"excavator_operator_id" gorm:"index"`

	SupervisorID *uint `json:"supervisor_id"`

	LoadingPointID uint  `json:"loading_point_id" gorm:"not null"`
	DumpingPointID uint  `json:"dumping_point_id" gorm:"not null"`
	RoadSegmentID  *uint `json:"road_segment_id"`

	Shift  string `json:"shift" gorm:"type:varchar(20)"`
	Status string `json:"status" gorm:"default:'IN_QUEUE';type:varchar(20);index"`

	// Phase boundary timestamps
	QueueStartTime   *time.Time `json:"queue_start_time"`
	QueueEndTime     *time.Time `json:"queue_end_time"`
	LoadingStartTime *time.Time `json:"loading_start_time"`
	LoadingEndTime   *time.Time `json:"loading_end_time"`
	HaulingStartTime *time.Time `json:"hauling_start_time"`
	HaulingEndTime   *time.Time `json:"hauling_end_time"`
	DumpingStartTime *time.Time `json:"dumping_start_time"`
	DumpingEndTime   *time.Time `json:"dumping_end_time"`
	ReturnStartTime  *time.Time `json:"return_start_time"`
	ReturnEndTime    *time.Time `json:"return_end_time"`

	// Derived durations in minutes
	QueueDuration   float64 `json:"queue_duration"`
	LoadingDuration float64 `json:"loading_duration"`
	HaulingDuration float64 `json:"hauling_duration"`
	DumpingDuration float64 `json:"dumping_duration"`
	ReturnDuration  float64 `json:"return_duration"`
	TotalCycleTime  float64 `json:"total_cycle_time"`

	// Tonnage
	LoadWeight     float64 `json:"load_weight"`
	TargetWeight   float64 `json:"target_weight"`
	LoadEfficiency float64 `json:"load_efficiency"`

	// Fuel estimate for the cycle, liters
	EstimatedFuel float64 `json:"estimated_fuel"`

	// Delay tracking, orthogonal to Status
	IsDelayed     bool  `json:"is_delayed" gorm:"default:false"`
	DelayMinutes  int   `json:"delay_minutes"`
	DelayReasonID *uint `json:"delay_reason_id"`
}

func (HaulingActivity) TableName() string {
	return "hauling_activities"
}

// IsTerminal reports whether the activity reached COMPLETED or CANCELLED.
// Terminal activities lock their equipment/route/shift fields.
func (a *HaulingActivity) IsTerminal() bool {
	return a.Status == ActivityCompleted || a.Status == ActivityCancelled
}
