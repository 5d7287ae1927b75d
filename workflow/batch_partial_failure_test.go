package workflow

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"testing"

	"github.com/mmdatafocus/rentals_backend/config"
	"github.com/mmdatafocus/rentals_backend/models"
	"github.com/mmdatafocus/rentals_backend/utils"
)

// NOTE: These tests are intentionally DB-free. They validate the batch
// semantics (partial failure, validation, authorization) with fake
// collaborators; full DB integration tests need a MySQL environment.

func newTestRunner(leases []models.Lease, reconcile func(ctx context.Context, leaseId, year int) (*models.Reconciliation, error)) *BatchRunner {
	b := NewBatchRunner(nil, config.GetLogger())
	b.Authorizer = SystemAuthorizer{}
	b.listLeases = func(ctx context.Context) ([]models.Lease, error) {
		return leases, nil
	}
	b.reconcile = reconcile
	return b
}

func TestBatchRunPartialFailure(t *testing.T) {
	leases := []models.Lease{{ID: 1}, {ID: 2}, {ID: 3}}
	runner := newTestRunner(leases, func(ctx context.Context, leaseId, year int) (*models.Reconciliation, error) {
		if leaseId == 2 {
			return nil, fmt.Errorf("%w: lease 2", utils.ErrorRecordNotFound)
		}
		return &models.Reconciliation{LeaseId: leaseId, Year: year}, nil
	})

	result, err := runner.Run(context.Background(), ScopeAll, 2025, 0)
	if err != nil {
		t.Fatalf("batch must not abort on a per-lease failure: %v", err)
	}
	if len(result.Records) != 2 {
		t.Fatalf("expected 2 successful records, got %d", len(result.Records))
	}
	if len(result.Errors) != 1 {
		t.Fatalf("expected 1 collected error, got %d", len(result.Errors))
	}
	if result.Errors[0].LeaseId != 2 {
		t.Fatalf("expected failure reported for lease 2, got lease %d", result.Errors[0].LeaseId)
	}

	got := make([]int, 0, len(result.Records))
	for _, rec := range result.Records {
		got = append(got, rec.LeaseId)
	}
	sort.Ints(got)
	if got[0] != 1 || got[1] != 3 {
		t.Fatalf("expected records for leases 1 and 3, got %v", got)
	}
}

func TestBatchRunAllLeasesFail(t *testing.T) {
	leases := []models.Lease{{ID: 1}, {ID: 2}}
	runner := newTestRunner(leases, func(ctx context.Context, leaseId, year int) (*models.Reconciliation, error) {
		return nil, errors.New("storage down")
	})

	result, err := runner.Run(context.Background(), ScopeAll, 2025, 0)
	if err != nil {
		t.Fatalf("batch must complete even when every lease fails: %v", err)
	}
	if len(result.Records) != 0 || len(result.Errors) != 2 {
		t.Fatalf("expected 0 records and 2 errors, got %d/%d", len(result.Records), len(result.Errors))
	}
}

func TestBatchRunSingleLeaseErrorPropagates(t *testing.T) {
	runner := newTestRunner(nil, func(ctx context.Context, leaseId, year int) (*models.Reconciliation, error) {
		return nil, fmt.Errorf("%w: lease %d", utils.ErrorRecordNotFound, leaseId)
	})

	_, err := runner.Run(context.Background(), ScopeLease, 2025, 42)
	if !utils.IsNotFound(err) {
		t.Fatalf("single-lease scope must surface the error, got %v", err)
	}
}

func TestBatchRunValidation(t *testing.T) {
	runner := newTestRunner(nil, func(ctx context.Context, leaseId, year int) (*models.Reconciliation, error) {
		t.Fatal("reconcile must not run on an invalid request")
		return nil, nil
	})

	cases := []struct {
		name    string
		scope   ReconciliationScope
		year    int
		leaseId int
	}{
		{"bad scope", ReconciliationScope("portfolio"), 2025, 0},
		{"lease scope without lease id", ScopeLease, 2025, 0},
		{"missing year", ScopeAll, 0, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := runner.Run(context.Background(), tc.scope, tc.year, tc.leaseId)
			if !errors.Is(err, utils.ErrorValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestBatchRunAuthorization(t *testing.T) {
	runner := newTestRunner([]models.Lease{{ID: 1}}, func(ctx context.Context, leaseId, year int) (*models.Reconciliation, error) {
		return &models.Reconciliation{LeaseId: leaseId, Year: year}, nil
	})
	runner.Authorizer = DBAuthorizer{}

	// Whole-portfolio runs require the admin role.
	ownerCtx := utils.SetUserRoleInContext(context.Background(), string(models.UserRoleOwner))
	ownerCtx = utils.SetUserIdInContext(ownerCtx, 7)
	if _, err := runner.Run(ownerCtx, ScopeAll, 2025, 0); !errors.Is(err, utils.ErrorUnauthorized) {
		t.Fatalf("owner must not run scope 'all', got %v", err)
	}

	adminCtx := utils.SetUserRoleInContext(context.Background(), string(models.UserRoleAdmin))
	result, err := runner.Run(adminCtx, ScopeAll, 2025, 0)
	if err != nil {
		t.Fatalf("admin run failed: %v", err)
	}
	if len(result.Records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(result.Records))
	}
}

func TestBatchRunRespectsCancellation(t *testing.T) {
	leases := make([]models.Lease, 100)
	for i := range leases {
		leases[i] = models.Lease{ID: i + 1}
	}
	ctx, cancel := context.WithCancel(context.Background())

	var processed int
	runner := newTestRunner(leases, func(ctx context.Context, leaseId, year int) (*models.Reconciliation, error) {
		processed++
		if processed == 3 {
			cancel()
		}
		return &models.Reconciliation{LeaseId: leaseId, Year: year}, nil
	})
	runner.Concurrency = 1

	result, err := runner.Run(ctx, ScopeAll, 2025, 0)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if result == nil {
		t.Fatal("partial result must be returned on cancellation")
	}
	if len(result.Records) >= len(leases) {
		t.Fatalf("cancellation did not stop the batch: %d records", len(result.Records))
	}
}
