package Allocation

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"Basalt/Hauling"
	"Basalt/Models"
)

func setupAllocationTest(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	assert.NoError(t, err)

	err = db.AutoMigrate(
		&Models.Truck{},
		&Models.Excavator{},
		&Models.Operator{},
		&Models.MiningSite{},
		&Models.LoadingPoint{},
		&Models.DumpingPoint{},
		&Models.RoadSegment{},
		&Models.DelayReason{},
		&Models.HaulingActivity{},
		&Models.ProductionRecord{},
	)
	assert.NoError(t, err)

	site := Models.MiningSite{Name: "Pit A", IsActive: true}
	assert.NoError(t, db.Create(&site).Error)
	assert.NoError(t, db.Create(&Models.LoadingPoint{MiningSiteID: site.ID, Name: "LP-1", IsActive: true}).Error)
	assert.NoError(t, db.Create(&Models.DumpingPoint{MiningSiteID: site.ID, Name: "DP-1", IsActive: true}).Error)
	assert.NoError(t, db.Create(&Models.RoadSegment{MiningSiteID: site.ID, Name: "Haul Road 1", DistanceKm: 4, IsActive: true}).Error)

	return db
}

func seedTruck(t *testing.T, db *gorm.DB, code string, capacity float64, status string) Models.Truck {
	truck := Models.Truck{Code: code, Capacity: capacity, FuelRatePerKm: 0.5, Status: status, IsActive: true}
	assert.NoError(t, db.Create(&truck).Error)
	return truck
}

func seedExcavator(t *testing.T, db *gorm.DB, code string, rate float64, status string) Models.Excavator {
	excavator := Models.Excavator{Code: code, ProductionRate: rate, FuelRatePerHour: 30, Status: status, IsActive: true}
	assert.NoError(t, db.Create(&excavator).Error)
	return excavator
}

func seedOperator(t *testing.T, db *gorm.DB, code, license, shift string, rating float64) Models.Operator {
	operator := Models.Operator{Code: code, Name: "Operator " + code, LicenseType: license, Status: Models.OperatorActive, Shift: shift, Rating: rating}
	assert.NoError(t, db.Create(&operator).Error)
	return operator
}

func TestApplyRecommendationSplitsBatchTarget(t *testing.T) {
	db := setupAllocationTest(t)

	truck1 := seedTruck(t, db, "T-001", 20, Models.StatusStandby)
	truck2 := seedTruck(t, db, "T-002", 20, Models.StatusIdle)
	excavator := seedExcavator(t, db, "EX-001", 120, Models.StatusStandby)
	seedOperator(t, db, "OP-001", Models.LicenseTruck, Models.Shift1, 4.8)
	seedOperator(t, db, "OP-002", Models.LicenseTruckTrailer, Models.Shift1, 4.2)
	seedOperator(t, db, "OP-HE1", Models.LicenseHeavyEquipment, Models.Shift1, 4.0)

	total := 30.0
	result, err := ApplyRecommendation(db, Recommendation{
		TruckIDs:              []uint{truck1.ID, truck2.ID},
		ExcavatorIDs:          []uint{excavator.ID},
		Shift:                 Models.Shift1,
		TotalProductionTarget: &total,
	})
	assert.NoError(t, err)
	assert.Equal(t, 2, result.CreatedCount)

	prefix := "HA-" + time.Now().Format("20060102")
	for i, activity := range result.CreatedActivities {
		assert.Equal(t, fmt.Sprintf("%s-%03d", prefix, i+1), activity.ActivityNumber)
		assert.Equal(t, Models.ActivityLoading, activity.Status)
		assert.Equal(t, 15.0, activity.TargetWeight)
		assert.NotNil(t, activity.ExcavatorID)
		assert.Equal(t, excavator.ID, *activity.ExcavatorID)
		assert.NotNil(t, activity.LoadingStartTime)
	}

	// No driver sits on two trucks of the same batch
	assert.NotEqual(t, result.CreatedActivities[0].OperatorID, result.CreatedActivities[1].OperatorID)

	var claimed Models.Truck
	assert.NoError(t, db.First(&claimed, truck1.ID).Error)
	assert.Equal(t, Models.StatusLoading, claimed.Status)
	assert.NotNil(t, claimed.CurrentOperatorID)

	var shared Models.Excavator
	assert.NoError(t, db.First(&shared, excavator.ID).Error)
	assert.Equal(t, Models.StatusActive, shared.Status)
}

func TestApplyRecommendationSubstitutesBusyExcavator(t *testing.T) {
	db := setupAllocationTest(t)

	truck := seedTruck(t, db, "T-001", 20, Models.StatusStandby)
	broken := seedExcavator(t, db, "EX-DOWN", 150, Models.StatusMaintenance)
	substitute := seedExcavator(t, db, "EX-SUB", 100, Models.StatusStandby)
	seedOperator(t, db, "OP-001", Models.LicenseTruck, Models.Shift1, 4.5)
	seedOperator(t, db, "OP-HE1", Models.LicenseHeavyEquipment, Models.Shift1, 4.0)

	target := 18.0
	result, err := ApplyRecommendation(db, Recommendation{
		TruckIDs:     []uint{truck.ID},
		ExcavatorIDs: []uint{broken.ID},
		Shift:        Models.Shift1,
		TargetWeight: &target,
	})
	assert.NoError(t, err)
	assert.Equal(t, 1, result.CreatedCount)
	assert.Equal(t, substitute.ID, *result.CreatedActivities[0].ExcavatorID)

	foundSkip, foundSub := false, false
	for _, w := range result.Warnings {
		if w == "excavator EX-DOWN is MAINTENANCE, skipped" {
			foundSkip = true
		}
		if w == "excavator EX-SUB auto-substituted" {
			foundSub = true
		}
	}
	assert.True(t, foundSkip)
	assert.True(t, foundSub)
}

func TestApplyRecommendationFailsWithoutTrucks(t *testing.T) {
	db := setupAllocationTest(t)

	busy := seedTruck(t, db, "T-001", 20, Models.StatusHauling)
	seedExcavator(t, db, "EX-001", 100, Models.StatusStandby)
	seedOperator(t, db, "OP-001", Models.LicenseTruck, Models.Shift1, 4.5)

	target := 18.0
	_, err := ApplyRecommendation(db, Recommendation{
		TruckIDs:     []uint{busy.ID},
		Shift:        Models.Shift1,
		TargetWeight: &target,
	})
	assert.ErrorIs(t, err, ErrNoTrucksAvailable)

	var count int64
	assert.NoError(t, db.Model(&Models.HaulingActivity{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestBatchRollsBackWhenDriversRunOut(t *testing.T) {
	db := setupAllocationTest(t)

	trucks := []uint{
		seedTruck(t, db, "T-001", 20, Models.StatusStandby).ID,
		seedTruck(t, db, "T-002", 20, Models.StatusStandby).ID,
		seedTruck(t, db, "T-003", 20, Models.StatusStandby).ID,
	}
	seedExcavator(t, db, "EX-001", 100, Models.StatusStandby)
	seedOperator(t, db, "OP-001", Models.LicenseTruck, Models.Shift1, 4.5)
	seedOperator(t, db, "OP-002", Models.LicenseTruck, Models.Shift1, 4.0)
	// The third candidate cannot drive a truck
	seedOperator(t, db, "OP-HE1", Models.LicenseHeavyEquipment, Models.Shift1, 5.0)

	target := 18.0
	_, err := ApplyRecommendation(db, Recommendation{
		TruckIDs:     trucks,
		Shift:        Models.Shift1,
		TargetWeight: &target,
	})
	assert.ErrorIs(t, err, ErrNotEnoughOperators)

	// All-or-nothing: no activities, no claimed equipment
	var activityCount int64
	assert.NoError(t, db.Model(&Models.HaulingActivity{}).Count(&activityCount).Error)
	assert.Equal(t, int64(0), activityCount)

	var standbyTrucks int64
	assert.NoError(t, db.Model(&Models.Truck{}).Where("status = ?", Models.StatusStandby).Count(&standbyTrucks).Error)
	assert.Equal(t, int64(3), standbyTrucks)
}

func TestApplyRecommendationWithoutExcavatorOperator(t *testing.T) {
	db := setupAllocationTest(t)

	truck := seedTruck(t, db, "T-001", 20, Models.StatusStandby)
	seedExcavator(t, db, "EX-001", 100, Models.StatusStandby)
	seedOperator(t, db, "OP-001", Models.LicenseTruck, Models.Shift1, 4.5)
	// No heavy-equipment operator anywhere

	target := 18.0
	result, err := ApplyRecommendation(db, Recommendation{
		TruckIDs:     []uint{truck.ID},
		Shift:        Models.Shift1,
		TargetWeight: &target,
	})
	assert.NoError(t, err)
	assert.Equal(t, 1, result.CreatedCount)
	assert.Nil(t, result.CreatedActivities[0].ExcavatorID)
	assert.Nil(t, result.CreatedActivities[0].ExcavatorOperatorID)
	assert.NotEmpty(t, result.Warnings)

	// The excavator was never claimed
	var idle Models.Excavator
	assert.NoError(t, db.First(&idle, 1).Error)
	assert.Equal(t, Models.StatusStandby, idle.Status)
}

func TestApplyRecommendationEstimatesFuel(t *testing.T) {
	db := setupAllocationTest(t)

	truck := seedTruck(t, db, "T-001", 20, Models.StatusStandby)
	seedExcavator(t, db, "EX-001", 120, Models.StatusStandby)
	seedOperator(t, db, "OP-001", Models.LicenseTruck, Models.Shift1, 4.5)
	seedOperator(t, db, "OP-HE1", Models.LicenseHeavyEquipment, Models.Shift1, 4.0)

	target := 18.0
	result, err := ApplyRecommendation(db, Recommendation{
		TruckIDs:     []uint{truck.ID},
		Shift:        Models.Shift1,
		TargetWeight: &target,
	})
	assert.NoError(t, err)

	// Round trip on the 4 km segment plus the excavator loading window
	expected := 4*2*0.5 + (18.0/120/60)*30
	assert.InDelta(t, expected, result.CreatedActivities[0].EstimatedFuel, 0.001)
}

func TestApplyRecommendationUpdateMode(t *testing.T) {
	db := setupAllocationTest(t)

	truck := seedTruck(t, db, "T-001", 20, Models.StatusLoading)
	operator := seedOperator(t, db, "OP-001", Models.LicenseTruck, Models.Shift1, 4.5)

	activity := Models.HaulingActivity{
		ActivityNumber: "HA-20260830-001",
		TruckID:        truck.ID,
		OperatorID:     operator.ID,
		LoadingPointID: 1,
		DumpingPointID: 1,
		Status:         Models.ActivityLoading,
		TargetWeight:   20,
	}
	assert.NoError(t, db.Create(&activity).Error)

	newTarget := 25.0
	result, err := ApplyRecommendation(db, Recommendation{
		ActivityID: &activity.ID,
		Patch:      &Hauling.UpdateInput{TargetWeight: &newTarget},
	})
	assert.NoError(t, err)
	assert.Equal(t, 0, result.CreatedCount)
	assert.Equal(t, 25.0, result.CreatedActivities[0].TargetWeight)
}

func TestFilterAvailabilityPrefersHighestCapacitySubstitutes(t *testing.T) {
	db := setupAllocationTest(t)

	seedTruck(t, db, "T-SMALL", 15, Models.StatusStandby)
	big := seedTruck(t, db, "T-BIG", 40, Models.StatusStandby)
	seedExcavator(t, db, "EX-001", 100, Models.StatusStandby)

	result, err := FilterAvailability(db, nil, nil, 1, 1)
	assert.NoError(t, err)
	assert.Equal(t, []uint{big.ID}, result.TruckIDs)
}

func TestRankedOperatorsPreferShiftThenRating(t *testing.T) {
	db := setupAllocationTest(t)

	offShift := seedOperator(t, db, "OP-OFF", Models.LicenseTruck, Models.Shift2, 5.0)
	onShiftLow := seedOperator(t, db, "OP-ON-LOW", Models.LicenseTruck, Models.Shift1, 3.0)
	onShiftHigh := seedOperator(t, db, "OP-ON-HIGH", Models.LicenseTruck, Models.Shift1, 4.0)

	ranked, err := rankedOperators(db, Models.TruckLicenses, Models.Shift1, map[uint]bool{})
	assert.NoError(t, err)
	assert.Len(t, ranked, 3)
	assert.Equal(t, onShiftHigh.ID, ranked[0].ID)
	assert.Equal(t, onShiftLow.ID, ranked[1].ID)
	assert.Equal(t, offShift.ID, ranked[2].ID)
}

func TestPickBalancedSpreadsAssignments(t *testing.T) {
	pool := []uint{1, 2, 3}
	tally := map[uint]int{}

	for i := 0; i < 6; i++ {
		picked := pickBalanced(pool, tally)
		tally[picked]++
	}

	assert.Equal(t, 2, tally[1])
	assert.Equal(t, 2, tally[2])
	assert.Equal(t, 2, tally[3])
}

func TestResolveSiteContextFallsBackToUsableSite(t *testing.T) {
	db := setupAllocationTest(t)

	// A bare site with no infrastructure must be skipped by the fallback
	bare := Models.MiningSite{Name: "Pit B", IsActive: true}
	assert.NoError(t, db.Create(&bare).Error)

	ctx, err := ResolveSiteContext(db, nil, nil, nil, nil)
	assert.NoError(t, err)
	assert.Equal(t, uint(1), ctx.MiningSiteID)
	assert.NotZero(t, ctx.LoadingPointID)
	assert.NotZero(t, ctx.DumpingPointID)
	assert.NotNil(t, ctx.RoadSegmentID)
}
