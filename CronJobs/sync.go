package CronJobs

import (
	"fmt"
	"log"

	"Basalt/Production"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

// ProductionSync runs the scheduled reconciliation sweep over all
// production records
type ProductionSync struct {
	cronScheduler  *cron.Cron
	db             *gorm.DB
	runImmediately bool
	jobID          cron.EntryID
}

// NewProductionSync creates a new sync job with the given configuration
func NewProductionSync(db *gorm.DB, runImmediately bool) *ProductionSync {
	return &ProductionSync{
		cronScheduler:  cron.New(cron.WithSeconds()),
		db:             db,
		runImmediately: runImmediately,
	}
}

// Start schedules the sync job. Format: "0 */30 * * * *" = every 30 minutes.
func (s *ProductionSync) Start(schedule string) error {
	if schedule == "" {
		schedule = "0 */30 * * * *"
	}

	var err error
	s.jobID, err = s.cronScheduler.AddFunc(schedule, func() {
		log.Println("Running scheduled production sync")
		s.runSync()
	})
	if err != nil {
		return fmt.Errorf("error scheduling cron job: %w", err)
	}

	s.cronScheduler.Start()
	log.Println("Production sync scheduler started")

	if s.runImmediately {
		log.Println("Running initial production sync")
		s.runSync()
	}
	return nil
}

// Stop terminates the sync job
func (s *ProductionSync) Stop() {
	if s.cronScheduler != nil {
		s.cronScheduler.Stop()
		log.Println("Production sync scheduler stopped")
	}
}

// UpdateSchedule changes the schedule of the sync job
func (s *ProductionSync) UpdateSchedule(schedule string) error {
	s.cronScheduler.Remove(s.jobID)

	var err error
	s.jobID, err = s.cronScheduler.AddFunc(schedule, func() {
		log.Println("Running scheduled production sync")
		s.runSync()
	})
	if err != nil {
		return fmt.Errorf("error rescheduling cron job: %w", err)
	}
	return nil
}

func (s *ProductionSync) runSync() {
	repaired, err := Production.SyncAll(s.db)
	if err != nil {
		log.Println("Production sync failed:", err)
		return
	}
	if repaired > 0 {
		log.Printf("Production sync repaired %d records", repaired)
	}
}
