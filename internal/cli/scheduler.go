package cli

import (
	"ledger/internal/config"
	"ledger/internal/services"
	"ledger/internal/storage"
	"ledger/internal/worker"
)

// NewRecurringScheduler builds the daily recurring-payment sweep from config.
func NewRecurringScheduler(cfg *config.Config, store storage.RecurringStore, publisher services.EventPublisher) (*worker.Scheduler, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	return worker.NewScheduler(services.NewRecurringProcessor(store, publisher), worker.SchedulerConfig{
		RunAt:        cfg.SchedulerRunAt,
		Location:     loc,
		RunOnStartup: cfg.SchedulerRunOnStartup,
	})
}
