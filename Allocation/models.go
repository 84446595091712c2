package Allocation

import (
	"errors"

	"Basalt/Hauling"
	"Basalt/Models"
)

// Recommendation is the externally computed allocation decision consumed
// by ApplyRecommendation. With ActivityID set it patches one existing
// activity; otherwise it creates one activity per truck ID.
type Recommendation struct {
	ActivityID *uint                `json:"activity_id"`
	Patch      *Hauling.UpdateInput `json:"patch"`

	TruckIDs     []uint `json:"truck_ids" validate:"required_without=ActivityID,dive,gt=0"`
	ExcavatorIDs []uint `json:"excavator_ids" validate:"omitempty,dive,gt=0"`
	OperatorIDs  []uint `json:"operator_ids" validate:"omitempty,dive,gt=0"`

	SupervisorID   *uint `json:"supervisor_id"`
	MiningSiteID   *uint `json:"mining_site_id"`
	LoadingPointID *uint `json:"loading_point_id"`
	DumpingPointID *uint `json:"dumping_point_id"`
	RoadSegmentID  *uint `json:"road_segment_id"`

	Shift string `json:"shift" validate:"omitempty,oneof=SHIFT_1 SHIFT_2 SHIFT_3"`

	// Batch-level tonnage target, split across trucks. TargetWeight is the
	// per-activity fallback when no batch total is given.
	TotalProductionTarget *float64 `json:"total_production_target" validate:"omitempty,gt=0"`
	TargetWeight          *float64 `json:"target_weight" validate:"omitempty,gt=0"`
}

// BatchResult is returned by a successful createBatch call
type BatchResult struct {
	CreatedCount      int                      `json:"created_count"`
	CreatedActivities []Models.HaulingActivity `json:"created_activities"`
	Warnings          []string                 `json:"warnings"`
}

var (
	// ErrNoTrucksAvailable means the availability filter ended with an
	// empty truck list even after substitution
	ErrNoTrucksAvailable = errors.New("no trucks available for allocation")

	// ErrNoExcavatorsAvailable means the availability filter ended with an
	// empty excavator list even after substitution
	ErrNoExcavatorsAvailable = errors.New("no excavators available for allocation")

	// ErrNotEnoughOperators means fewer unique truck drivers were found
	// than trucks to allocate
	ErrNotEnoughOperators = errors.New("not enough truck operators available")

	// ErrNoSiteResolved means no active mining site with usable
	// infrastructure could be found
	ErrNoSiteResolved = errors.New("no active mining site could be resolved")

	// ErrNoLoadingPoint / ErrNoDumpingPoint mean the resolved site has no
	// active point of the required kind
	ErrNoLoadingPoint = errors.New("no active loading point in resolved site")
	ErrNoDumpingPoint = errors.New("no active dumping point in resolved site")
)
