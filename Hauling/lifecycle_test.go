package Hauling

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"Basalt/Models"
)

func setupLifecycleTest(t *testing.T) *gorm.DB {
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

	return db
}

func seedCycle(t *testing.T, db *gorm.DB) (Models.Truck, Models.Operator, Models.RoadSegment) {
	truck := Models.Truck{Code: "T-001", Capacity: 20, FuelRatePerKm: 0.5, Status: Models.StatusStandby, IsActive: true}
	assert.NoError(t, db.Create(&truck).Error)

	operator := Models.Operator{Code: "OP-001", Name: "Driver One", LicenseType: Models.LicenseTruck, Status: Models.OperatorActive, Shift: Models.Shift1, Rating: 4.5}
	assert.NoError(t, db.Create(&operator).Error)

	site := Models.MiningSite{Name: "Pit A", IsActive: true}
	assert.NoError(t, db.Create(&site).Error)
	loading := Models.LoadingPoint{MiningSiteID: site.ID, Name: "LP-1", IsActive: true}
	assert.NoError(t, db.Create(&loading).Error)
	dumping := Models.DumpingPoint{MiningSiteID: site.ID, Name: "DP-1", IsActive: true}
	assert.NoError(t, db.Create(&dumping).Error)
	segment := Models.RoadSegment{MiningSiteID: site.ID, Name: "Haul Road 1", DistanceKm: 4, IsActive: true}
	assert.NoError(t, db.Create(&segment).Error)

	return truck, operator, segment
}

func queuedActivity(t *testing.T, db *gorm.DB, truck Models.Truck, operator Models.Operator, segment Models.RoadSegment) Models.HaulingActivity {
	queueStart := time.Now().Add(-10 * time.Minute)
	activity := Models.HaulingActivity{
		ActivityNumber: "HA-20260830-001",
		TruckID:        truck.ID,
		OperatorID:     operator.ID,
		LoadingPointID: 1,
		DumpingPointID: 1,
		RoadSegmentID:  &segment.ID,
		Shift:          Models.Shift1,
		Status:         Models.ActivityInQueue,
		QueueStartTime: &queueStart,
		TargetWeight:   20,
	}
	assert.NoError(t, db.Create(&activity).Error)
	assert.NoError(t, db.Model(&Models.Truck{}).Where("id = ?", truck.ID).
		Update("status", Models.StatusInQueue).Error)
	return activity
}

func TestLifecycleHappyPath(t *testing.T) {
	db := setupLifecycleTest(t)
	truck, operator, segment := seedCycle(t, db)
	activity := queuedActivity(t, db, truck, operator, segment)

	// IN_QUEUE -> LOADING
	updated, err := StartLoading(db, activity.ID)
	assert.NoError(t, err)
	assert.Equal(t, Models.ActivityLoading, updated.Status)
	assert.NotNil(t, updated.QueueEndTime)
	assert.NotNil(t, updated.LoadingStartTime)
	assert.InDelta(t, 10, updated.QueueDuration, 0.5)

	var mirrored Models.Truck
	assert.NoError(t, db.First(&mirrored, truck.ID).Error)
	assert.Equal(t, Models.StatusLoading, mirrored.Status)

	// LOADING -> HAULING, with the scale ticket attached
	loadWeight := 18.0
	updated, err = CompleteLoading(db, activity.ID, CompleteLoadingInput{LoadWeight: &loadWeight})
	assert.NoError(t, err)
	assert.Equal(t, Models.ActivityHauling, updated.Status)
	assert.Equal(t, 18.0, updated.LoadWeight)
	assert.InDelta(t, 90, updated.LoadEfficiency, 0.01)
	assert.NotNil(t, updated.HaulingStartTime)

	assert.NoError(t, db.First(&mirrored, truck.ID).Error)
	assert.Equal(t, Models.StatusHauling, mirrored.Status)

	// HAULING -> RETURNING, dumping boundaries fall back to now
	updated, err = CompleteDumping(db, activity.ID)
	assert.NoError(t, err)
	assert.Equal(t, Models.ActivityReturning, updated.Status)
	assert.NotNil(t, updated.HaulingEndTime)
	assert.NotNil(t, updated.DumpingEndTime)
	assert.NotNil(t, updated.ReturnStartTime)

	// RETURNING -> COMPLETED
	updated, err = Complete(db, activity.ID, nil)
	assert.NoError(t, err)
	assert.Equal(t, Models.ActivityCompleted, updated.Status)
	assert.Greater(t, updated.TotalCycleTime, 0.0)

	assert.NoError(t, db.First(&mirrored, truck.ID).Error)
	assert.Equal(t, Models.StatusStandby, mirrored.Status)
	assert.Nil(t, mirrored.CurrentOperatorID)
	assert.InDelta(t, 8, mirrored.TotalDistance, 0.001) // 4 km each way
}

func TestStartLoadingRejectsNonQueued(t *testing.T) {
	db := setupLifecycleTest(t)
	truck, operator, segment := seedCycle(t, db)
	activity := queuedActivity(t, db, truck, operator, segment)

	_, err := StartLoading(db, activity.ID)
	assert.NoError(t, err)

	_, err = StartLoading(db, activity.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestCompleteDumpingRequiresHaulingPhase(t *testing.T) {
	db := setupLifecycleTest(t)
	truck, operator, segment := seedCycle(t, db)
	activity := queuedActivity(t, db, truck, operator, segment)

	_, err := CompleteDumping(db, activity.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestTerminalActivityLocksEverythingButWeights(t *testing.T) {
	db := setupLifecycleTest(t)
	truck, operator, segment := seedCycle(t, db)
	activity := queuedActivity(t, db, truck, operator, segment)

	_, err := Complete(db, activity.ID, nil)
	assert.NoError(t, err)

	shift := Models.Shift2
	_, err = Update(db, activity.ID, UpdateInput{Shift: &shift})
	assert.ErrorIs(t, err, ErrTerminalLocked)

	// Late scale ticket is the one allowed write
	lateWeight := 19.5
	updated, err := Update(db, activity.ID, UpdateInput{LoadWeight: &lateWeight})
	assert.NoError(t, err)
	assert.Equal(t, 19.5, updated.LoadWeight)
	assert.Equal(t, Models.ActivityCompleted, updated.Status)

	_, err = Cancel(db, activity.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = AddDelay(db, activity.ID, 15, nil)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestSharedExcavatorReleasedOnlyWhenLastHaulCloses(t *testing.T) {
	db := setupLifecycleTest(t)
	truck, operator, segment := seedCycle(t, db)

	excavator := Models.Excavator{Code: "EX-001", ProductionRate: 100, FuelRatePerHour: 30, Status: Models.StatusActive, IsActive: true}
	assert.NoError(t, db.Create(&excavator).Error)

	truck2 := Models.Truck{Code: "T-002", Capacity: 20, Status: Models.StatusStandby, IsActive: true}
	assert.NoError(t, db.Create(&truck2).Error)
	operator2 := Models.Operator{Code: "OP-002", Name: "Driver Two", LicenseType: Models.LicenseTruck, Status: Models.OperatorActive}
	assert.NoError(t, db.Create(&operator2).Error)

	first := queuedActivity(t, db, truck, operator, segment)
	assert.NoError(t, db.Model(&first).Update("excavator_id", excavator.ID).Error)

	second := Models.HaulingActivity{
		ActivityNumber: "HA-20260830-002",
		TruckID:        truck2.ID,
		OperatorID:     operator2.ID,
		ExcavatorID:    &excavator.ID,
		LoadingPointID: 1,
		DumpingPointID: 1,
		Status:         Models.ActivityLoading,
	}
	assert.NoError(t, db.Create(&second).Error)

	_, err := Complete(db, first.ID, nil)
	assert.NoError(t, err)

	var shared Models.Excavator
	assert.NoError(t, db.First(&shared, excavator.ID).Error)
	assert.Equal(t, Models.StatusActive, shared.Status)

	_, err = Complete(db, second.ID, nil)
	assert.NoError(t, err)

	assert.NoError(t, db.First(&shared, excavator.ID).Error)
	assert.Equal(t, Models.StatusStandby, shared.Status)
}

func TestAddDelayAccumulatesWithoutTouchingStatus(t *testing.T) {
	db := setupLifecycleTest(t)
	truck, operator, segment := seedCycle(t, db)
	activity := queuedActivity(t, db, truck, operator, segment)

	reason := Models.DelayReason{Code: "WEATHER", Name: "Weather hold", IsActive: true}
	assert.NoError(t, db.Create(&reason).Error)

	updated, err := AddDelay(db, activity.ID, 20, &reason.ID)
	assert.NoError(t, err)
	assert.True(t, updated.IsDelayed)
	assert.Equal(t, 20, updated.DelayMinutes)
	assert.Equal(t, Models.ActivityInQueue, updated.Status)

	updated, err = AddDelay(db, activity.ID, 10, nil)
	assert.NoError(t, err)
	assert.Equal(t, 30, updated.DelayMinutes)
	assert.Equal(t, reason.ID, *updated.DelayReasonID)

	missing := uint(999)
	_, err = AddDelay(db, activity.ID, 5, &missing)
	assert.Error(t, err)
}

func TestCancelReleasesTruckAndOperator(t *testing.T) {
	db := setupLifecycleTest(t)
	truck, operator, segment := seedCycle(t, db)
	activity := queuedActivity(t, db, truck, operator, segment)
	assert.NoError(t, db.Model(&Models.Truck{}).Where("id = ?", truck.ID).
		Update("current_operator_id", operator.ID).Error)

	cancelled, err := Cancel(db, activity.ID)
	assert.NoError(t, err)
	assert.Equal(t, Models.ActivityCancelled, cancelled.Status)

	var released Models.Truck
	assert.NoError(t, db.First(&released, truck.ID).Error)
	assert.Equal(t, Models.StatusStandby, released.Status)
	assert.Nil(t, released.CurrentOperatorID)
}

func TestUpdateRejectsBusyTruck(t *testing.T) {
	db := setupLifecycleTest(t)
	truck, operator, segment := seedCycle(t, db)
	activity := queuedActivity(t, db, truck, operator, segment)

	busyTruck := Models.Truck{Code: "T-BUSY", Status: Models.StatusHauling, IsActive: true}
	assert.NoError(t, db.Create(&busyTruck).Error)
	otherOperator := Models.Operator{Code: "OP-X", Name: "Other", LicenseType: Models.LicenseTruck, Status: Models.OperatorActive}
	assert.NoError(t, db.Create(&otherOperator).Error)
	other := Models.HaulingActivity{
		ActivityNumber: "HA-20260830-002",
		TruckID:        busyTruck.ID,
		OperatorID:     otherOperator.ID,
		LoadingPointID: 1,
		DumpingPointID: 1,
		Status:         Models.ActivityHauling,
	}
	assert.NoError(t, db.Create(&other).Error)

	_, err := Update(db, activity.ID, UpdateInput{TruckID: &busyTruck.ID})
	assert.ErrorIs(t, err, ErrTruckUnavailable)

	_, err = Update(db, activity.ID, UpdateInput{OperatorID: &otherOperator.ID})
	assert.ErrorIs(t, err, ErrOperatorUnavailable)
}

func TestUpdateRejectsLicenseMismatch(t *testing.T) {
	db := setupLifecycleTest(t)
	truck, operator, segment := seedCycle(t, db)
	activity := queuedActivity(t, db, truck, operator, segment)

	digger := Models.Operator{Code: "OP-HE", Name: "Digger", LicenseType: Models.LicenseHeavyEquipment, Status: Models.OperatorActive}
	assert.NoError(t, db.Create(&digger).Error)

	_, err := Update(db, activity.ID, UpdateInput{OperatorID: &digger.ID})
	assert.ErrorIs(t, err, ErrLicenseMismatch)
}

func TestUpdateStatusMirrorsTruck(t *testing.T) {
	db := setupLifecycleTest(t)
	truck, operator, segment := seedCycle(t, db)
	activity := queuedActivity(t, db, truck, operator, segment)

	status := Models.ActivityDumping
	updated, err := Update(db, activity.ID, UpdateInput{Status: &status})
	assert.NoError(t, err)
	assert.Equal(t, Models.ActivityDumping, updated.Status)

	var mirrored Models.Truck
	assert.NoError(t, db.First(&mirrored, truck.ID).Error)
	assert.Equal(t, Models.StatusDumping, mirrored.Status)
}

func TestNextActivityNumberPerDateSequence(t *testing.T) {
	db := setupLifecycleTest(t)
	truck, operator, segment := seedCycle(t, db)

	date := time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC)
	number, err := NextActivityNumber(db, date)
	assert.NoError(t, err)
	assert.Equal(t, "HA-20260830-001", number)

	queuedActivity(t, db, truck, operator, segment) // persists HA-20260830-001

	number, err = NextActivityNumber(db, date)
	assert.NoError(t, err)
	assert.Equal(t, "HA-20260830-002", number)

	// A different date starts its own sequence
	number, err = NextActivityNumber(db, date.AddDate(0, 0, 1))
	assert.NoError(t, err)
	assert.Equal(t, "HA-20260831-001", number)
}
