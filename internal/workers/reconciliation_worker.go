package workers

import (
	"context"
	"time"

	"ngo_backend/internal/logger"
	"ngo_backend/internal/services/dto"

	"gorm.io/gorm"
)

const reconciliationWorkerName = "reconciliation"

// Reconciler - DonationService.ReconcilePending
type Reconciler interface {
	ReconcilePending(ctx context.Context, db *gorm.DB) (*dto.ReconcileResult, error)
}

// ReconciliationWorker догоняет заказы, по которым не пришли ни verify, ни вебхук.
type ReconciliationWorker struct {
	db         *gorm.DB
	reconciler Reconciler
	interval   time.Duration
	done       chan struct{}
}

func NewReconciliationWorker(db *gorm.DB, reconciler Reconciler, interval time.Duration) *ReconciliationWorker {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &ReconciliationWorker{
		db:         db,
		reconciler: reconciler,
		interval:   interval,
		done:       make(chan struct{}),
	}
}

// Start запускает сверку в фоне до отмены ctx
func (w *ReconciliationWorker) Start(ctx context.Context) {
	go w.loop(ctx)
}

// Done закрывается после остановки цикла
func (w *ReconciliationWorker) Done() <-chan struct{} {
	return w.done
}

func (w *ReconciliationWorker) loop(ctx context.Context) {
	defer close(w.done)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	logger.Info("Reconciliation worker started", "interval", w.interval)
	for {
		select {
		case <-ctx.Done():
			logger.Info("Reconciliation worker stopped")
			return
		case <-ticker.C:
			w.RunOnce(ctx)
		}
	}
}

// RunOnce - один проход; ошибки только логируются, следующий тик повторит
func (w *ReconciliationWorker) RunOnce(ctx context.Context) *dto.ReconcileResult {
	start := time.Now()
	result, err := w.reconciler.ReconcilePending(ctx, w.db.WithContext(ctx))
	if err != nil {
		logger.WorkerLog(reconciliationWorkerName, "sweep", err)
		return result
	}
	if result.Scanned > 0 {
		logger.WorkerLog(reconciliationWorkerName, "sweep", nil,
			"scanned", result.Scanned,
			"materialized", result.Materialized,
			"failed", result.Failed,
			"pending", result.Pending,
			"errors", result.Errors,
			"duration", time.Since(start),
		)
	}
	return result
}
