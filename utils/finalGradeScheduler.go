package utils

import (
	"context"
	"log"

	"lms/services/finalgrade"

	"github.com/robfig/cron/v3"
)

// InitializeFinalGradeScheduler starts the periodic final grade reconcile.
// It picks up enrollments whose completion event was lost.
func InitializeFinalGradeScheduler(schedule string, agg *finalgrade.Aggregator) (*cron.Cron, error) {
	log.Println("[FINAL-GRADE-SCHEDULER] Initializing final grade scheduler...")

	c := cron.New()

	_, err := c.AddFunc(schedule, func() {
		log.Println("[FINAL-GRADE-SCHEDULER] Running final grade reconcile...")
		written, err := agg.Reconcile(context.Background())
		if err != nil {
			log.Printf("[FINAL-GRADE-SCHEDULER] Reconcile failed: %v", err)
			return
		}
		log.Printf("[FINAL-GRADE-SCHEDULER] Reconcile wrote %d final grades", written)
	})
	if err != nil {
		return nil, err
	}

	c.Start()
	log.Printf("[FINAL-GRADE-SCHEDULER] Final grade scheduler started - schedule %q", schedule)
	return c, nil
}
