package workers

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"ngo_backend/internal/services/dto"
	"ngo_backend/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type countingReconciler struct {
	calls atomic.Int32
	err   error
}

func (r *countingReconciler) ReconcilePending(context.Context, *gorm.DB) (*dto.ReconcileResult, error) {
	r.calls.Add(1)
	if r.err != nil {
		return nil, r.err
	}
	return &dto.ReconcileResult{Scanned: 1, Materialized: 1}, nil
}

func TestWorkerTicksUntilCancelled(t *testing.T) {
	rec := &countingReconciler{}
	w := NewReconciliationWorker(testutil.NewTestDB(t), rec, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	w.Start(ctx)

	require.Eventually(t, func() bool { return rec.calls.Load() >= 2 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-w.Done():
	case <-time.After(time.Second):
		t.Fatal("worker did not stop")
	}
}

func TestRunOnceSurvivesErrors(t *testing.T) {
	rec := &countingReconciler{err: errors.New("db down")}
	w := NewReconciliationWorker(testutil.NewTestDB(t), rec, time.Minute)

	assert.Nil(t, w.RunOnce(context.Background()))
	assert.EqualValues(t, 1, rec.calls.Load())
}
