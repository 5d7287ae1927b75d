package workflow

import (
	"context"
	"fmt"
	"sync"

	"github.com/mmdatafocus/rentals_backend/config"
	"github.com/mmdatafocus/rentals_backend/models"
	"github.com/mmdatafocus/rentals_backend/utils"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

var tracer = otel.Tracer("rentals-backend/workflow")

type ReconciliationScope string

const (
	ScopeLease ReconciliationScope = "lease"
	ScopeAll   ReconciliationScope = "all"
)

// Authorizer decides whether the caller identified in ctx may run a
// reconciliation for the requested scope. Implemented against the DB for the
// HTTP surface; scheduler entrypoints use SystemAuthorizer.
type Authorizer interface {
	AuthorizeRun(ctx context.Context, scope ReconciliationScope, leaseId int) error
}

// SystemAuthorizer allows everything. For cron/scheduler entrypoints that run
// with no caller identity.
type SystemAuthorizer struct{}

func (SystemAuthorizer) AuthorizeRun(ctx context.Context, scope ReconciliationScope, leaseId int) error {
	return nil
}

// DBAuthorizer checks the caller from context: admins may run any scope;
// owners may run single-lease scope for properties they own.
type DBAuthorizer struct{}

func (DBAuthorizer) AuthorizeRun(ctx context.Context, scope ReconciliationScope, leaseId int) error {
	role, _ := utils.GetUserRoleFromContext(ctx)
	if role == string(models.UserRoleAdmin) {
		return nil
	}
	if scope == ScopeAll {
		return fmt.Errorf("%w: scope 'all' requires administrator", utils.ErrorUnauthorized)
	}

	userId, ok := utils.GetUserIdFromContext(ctx)
	if !ok {
		return fmt.Errorf("%w: missing caller identity", utils.ErrorUnauthorized)
	}
	lease, err := models.GetLeaseById(ctx, leaseId)
	if err != nil {
		return err
	}
	if lease.Property == nil || lease.Property.OwnerUserId != userId {
		return fmt.Errorf("%w: caller does not own the lease's property", utils.ErrorUnauthorized)
	}
	return nil
}

type BatchError struct {
	LeaseId int    `json:"lease_id"`
	Error   string `json:"error"`
}

// BatchResult reports both what succeeded and what failed; a batch run is
// never all-or-nothing when partial success is possible.
type BatchResult struct {
	Records []*models.Reconciliation `json:"records"`
	Errors  []BatchError             `json:"errors"`
}

// BatchRunner runs the reconciliation engine across one lease or every active
// lease. Stateless between runs: re-invoking for the same (scope, year)
// recomputes and overwrites, it does not duplicate.
type BatchRunner struct {
	DB         *gorm.DB
	Logger     *logrus.Logger
	Authorizer Authorizer

	// Concurrency bounds the parallel per-lease loop so a batch cannot
	// overwhelm the backing store.
	Concurrency int

	// Collaborators below are swapped in tests.
	reconcile  func(ctx context.Context, leaseId int, year int) (*models.Reconciliation, error)
	listLeases func(ctx context.Context) ([]models.Lease, error)
}

func NewBatchRunner(db *gorm.DB, logger *logrus.Logger) *BatchRunner {
	b := &BatchRunner{
		DB:          db,
		Logger:      logger,
		Authorizer:  DBAuthorizer{},
		Concurrency: 4,
	}
	b.reconcile = func(ctx context.Context, leaseId int, year int) (*models.Reconciliation, error) {
		return ProcessLeaseReconciliation(ctx, b.DB, b.Logger, leaseId, year)
	}
	b.listLeases = models.GetActiveLeases
	return b
}

// Run executes the batch. Errors about the request itself (bad scope, no
// permission) abort before any work begins; per-lease failures are collected
// and the batch continues.
func (b *BatchRunner) Run(ctx context.Context, scope ReconciliationScope, year int, leaseId int) (*BatchResult, error) {
	ctx, span := tracer.Start(ctx, "reconciliation.batch")
	defer span.End()

	if scope != ScopeLease && scope != ScopeAll {
		return nil, fmt.Errorf("%w: invalid scope %q", utils.ErrorValidation, scope)
	}
	if scope == ScopeLease && leaseId <= 0 {
		return nil, fmt.Errorf("%w: scope 'lease' requires lease_id", utils.ErrorValidation)
	}
	if year <= 0 {
		return nil, fmt.Errorf("%w: year is required", utils.ErrorValidation)
	}
	if err := b.Authorizer.AuthorizeRun(ctx, scope, leaseId); err != nil {
		return nil, err
	}

	if scope == ScopeLease {
		rec, err := b.reconcile(ctx, leaseId, year)
		if err != nil {
			return nil, err
		}
		return &BatchResult{Records: []*models.Reconciliation{rec}}, nil
	}

	leases, err := b.listLeases(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: enumerating active leases: %v", utils.ErrorStorage, err)
	}

	result := &BatchResult{
		Records: make([]*models.Reconciliation, 0, len(leases)),
		Errors:  make([]BatchError, 0),
	}
	var mu sync.Mutex

	limit := b.Concurrency
	if limit <= 0 {
		limit = 1
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for _, lease := range leases {
		// Each lease writes a disjoint (lease_id, year) key; stopping
		// between iterations leaves no partial state.
		if gctx.Err() != nil {
			break
		}
		id := lease.ID
		g.Go(func() error {
			rec, err := b.reconcile(gctx, id, year)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				// One bad lease must never abort the batch.
				config.LogError(b.Logger, "batchWorkflow.go", "Run", fmt.Sprintf("reconcile lease %d year %d", id, year), nil, err)
				result.Errors = append(result.Errors, BatchError{LeaseId: id, Error: err.Error()})
				return nil
			}
			result.Records = append(result.Records, rec)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return result, err
	}
	return result, nil
}
