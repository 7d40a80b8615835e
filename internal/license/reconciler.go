package license

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/robfig/cron/v3"
)

type Expirer interface {
	ExpireLapsed(ctx context.Context) (int, error)
}

// Reconciler runs ExpireLapsed on a cron schedule. Runs never overlap.
type Reconciler struct {
	expirer Expirer
	cron    *cron.Cron
	logger  *slog.Logger

	mu      sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc
	entryID cron.EntryID
}

func NewReconciler(expirer Expirer, schedule string, logger *slog.Logger) (*Reconciler, error) {
	r := &Reconciler{
		expirer: expirer,
		cron:    cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		logger:  logger,
	}
	r.ctx, r.cancel = context.WithCancel(context.Background())

	id, err := r.cron.AddFunc(schedule, func() { r.RunOnce(r.ctx) })
	if err != nil {
		return nil, fmt.Errorf("invalid expiry schedule %q: %w", schedule, err)
	}
	r.entryID = id
	return r, nil
}

// RunOnce performs a single sweep and returns the number of licenses expired.
func (r *Reconciler) RunOnce(ctx context.Context) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n, err := r.expirer.ExpireLapsed(ctx)
	if err != nil {
		r.logger.Error("expiry sweep failed", "error", err)
		return 0
	}
	r.logger.Info("expiry sweep finished", "expired", n)
	return n
}

func (r *Reconciler) Start() {
	r.cron.Start()
	r.logger.Info("expiry reconciler started", "next_run", r.cron.Entry(r.entryID).Next)
}

// Stop cancels an in-flight sweep and waits for it to return.
func (r *Reconciler) Stop() {
	r.cancel()
	<-r.cron.Stop().Done()
	r.logger.Info("expiry reconciler stopped")
}
