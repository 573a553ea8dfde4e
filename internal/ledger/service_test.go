package ledger

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecclesia-app/ecclesia/internal/lifecycle"
	"github.com/ecclesia-app/ecclesia/internal/shared"
)

// ============================================================================
// MOCK REPOSITORY
// ============================================================================

type mockRepository struct {
	mu        sync.Mutex
	offerings map[int64]*Offering
	dists     map[int64]*Distribution
	nextOffID int64
	nextDstID int64
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		offerings: make(map[int64]*Offering),
		dists:     make(map[int64]*Distribution),
		nextOffID: 1,
		nextDstID: 1,
	}
}

// WithTx serializes transactions with a single lock, standing in for the
// row lock taken by GetOfferingForUpdate. Writes buffer in the tx wrapper
// and apply only when fn succeeds.
func (m *mockRepository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	tx := &mockTxRepo{repo: m}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	tx.apply()
	return nil
}

func (m *mockRepository) CreateOffering(ctx context.Context, o *Offering) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextOffID
	m.nextOffID++
	cp := *o
	cp.ID = id
	cp.CreatedAt = time.Now()
	cp.UpdatedAt = cp.CreatedAt
	cp.IsActive = true
	m.offerings[id] = &cp
	return id, nil
}

func (m *mockRepository) GetOffering(ctx context.Context, id int64) (*Offering, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.offerings[id]
	if !ok || o.Deleted() {
		return nil, shared.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (m *mockRepository) GetOfferingIncludingDeleted(ctx context.Context, id int64) (*Offering, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.offerings[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (m *mockRepository) ListOfferings(ctx context.Context, opts lifecycle.ListOptions) ([]Offering, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Offering
	for _, o := range m.offerings {
		if o.Deleted() && !opts.IncludeDeleted {
			continue
		}
		out = append(out, *o)
	}
	return out, nil
}

func (m *mockRepository) GetDistribution(ctx context.Context, id int64) (*Distribution, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.dists[id]
	if !ok || d.Deleted() {
		return nil, shared.ErrNotFound
	}
	cp := *d
	return &cp, nil
}

func (m *mockRepository) ListDistributions(ctx context.Context, offeringID int64) ([]Distribution, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Distribution
	for _, d := range m.dists {
		if d.OfferingID == offeringID && !d.Deleted() {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (m *mockRepository) TotalDistributed(ctx context.Context, offeringID int64) (decimal.Decimal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sumLocked(offeringID), nil
}

func (m *mockRepository) RestoreOffering(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.offerings[id]
	if !ok {
		return shared.ErrNotFound
	}
	o.DeletedAt = nil
	o.IsActive = true
	return nil
}

func (m *mockRepository) HardDeleteOffering(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.offerings[id]; !ok {
		return shared.ErrNotFound
	}
	delete(m.offerings, id)
	for did, d := range m.dists {
		if d.OfferingID == id {
			delete(m.dists, did)
		}
	}
	return nil
}

func (m *mockRepository) sumLocked(offeringID int64) decimal.Decimal {
	total := decimal.Zero
	for _, d := range m.dists {
		if d.OfferingID == offeringID && !d.Deleted() {
			total = total.Add(d.Amount)
		}
	}
	return total
}

type mockTxRepo struct {
	repo        *mockRepository
	inserted    []*Distribution
	deletedDist []int64
	deletedOff  []int64
}

func (t *mockTxRepo) apply() {
	now := time.Now()
	for _, d := range t.inserted {
		t.repo.dists[d.ID] = d
	}
	for _, id := range t.deletedDist {
		if d, ok := t.repo.dists[id]; ok && !d.Deleted() {
			at := now
			d.DeletedAt = &at
			d.IsActive = false
		}
	}
	for _, id := range t.deletedOff {
		if o, ok := t.repo.offerings[id]; ok && !o.Deleted() {
			at := now
			o.DeletedAt = &at
			o.IsActive = false
		}
	}
}

func (t *mockTxRepo) GetOfferingForUpdate(ctx context.Context, id int64) (*Offering, error) {
	o, ok := t.repo.offerings[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (t *mockTxRepo) TotalDistributed(ctx context.Context, offeringID int64) (decimal.Decimal, error) {
	total := t.repo.sumLocked(offeringID)
	for _, d := range t.inserted {
		if d.OfferingID == offeringID {
			total = total.Add(d.Amount)
		}
	}
	return total, nil
}

func (t *mockTxRepo) InsertDistribution(ctx context.Context, d *Distribution) (int64, error) {
	id := t.repo.nextDstID
	t.repo.nextDstID++
	cp := *d
	cp.ID = id
	cp.CreatedAt = time.Now()
	cp.UpdatedAt = cp.CreatedAt
	cp.IsActive = true
	t.inserted = append(t.inserted, &cp)
	return id, nil
}

func (t *mockTxRepo) SoftDeleteDistribution(ctx context.Context, id int64) error {
	if _, ok := t.repo.dists[id]; !ok {
		return shared.ErrNotFound
	}
	t.deletedDist = append(t.deletedDist, id)
	return nil
}

func (t *mockTxRepo) GetDistribution(ctx context.Context, id int64) (*Distribution, error) {
	d, ok := t.repo.dists[id]
	if !ok || d.Deleted() {
		return nil, shared.ErrNotFound
	}
	cp := *d
	return &cp, nil
}

func (t *mockTxRepo) HasActiveDistributions(ctx context.Context, offeringID int64) (bool, error) {
	for _, d := range t.repo.dists {
		if d.OfferingID == offeringID && !d.Deleted() {
			return true, nil
		}
	}
	return false, nil
}

func (t *mockTxRepo) SoftDeleteDistributionsOf(ctx context.Context, offeringID int64) error {
	for id, d := range t.repo.dists {
		if d.OfferingID == offeringID && !d.Deleted() {
			t.deletedDist = append(t.deletedDist, id)
		}
	}
	return nil
}

func (t *mockTxRepo) SoftDeleteOffering(ctx context.Context, id int64) error {
	if _, ok := t.repo.offerings[id]; !ok {
		return shared.ErrNotFound
	}
	t.deletedOff = append(t.deletedOff, id)
	return nil
}

// ============================================================================
// FAKE PORTS
// ============================================================================

type fakeAudit struct {
	mu      sync.Mutex
	records []shared.AuditLog
}

func (a *fakeAudit) Record(ctx context.Context, log shared.AuditLog) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.records = append(a.records, log)
	return nil
}

type fakeMetrics struct {
	mu        sync.Mutex
	committed int
	rejected  int
}

func (m *fakeMetrics) DistributionCommitted() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.committed++
}

func (m *fakeMetrics) ConservationRejected() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rejected++
}

// ============================================================================
// HELPERS
// ============================================================================

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}

func newTestService(t *testing.T) (*Service, *mockRepository, *fakeAudit, *fakeMetrics) {
	t.Helper()
	repo := newMockRepository()
	audit := &fakeAudit{}
	metrics := &fakeMetrics{}
	svc := NewService(repo, audit, metrics)
	return svc, repo, audit, metrics
}

func mustOffering(t *testing.T, svc *Service, amount string) *Offering {
	t.Helper()
	off, err := svc.RecordOffering(context.Background(), OfferingInput{Amount: dec(t, amount)}, 1)
	require.NoError(t, err)
	return off
}

// ============================================================================
// TESTS
// ============================================================================

func TestRecordOfferingRejectsNonPositiveAmount(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.RecordOffering(ctx, OfferingInput{Amount: decimal.Zero}, 1)
	assert.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.RecordOffering(ctx, OfferingInput{Amount: dec(t, "-5.00")}, 1)
	assert.ErrorIs(t, err, shared.ErrValidation)
}

func TestAddDistributionWithinBalance(t *testing.T) {
	svc, _, audit, metrics := newTestService(t)
	ctx := context.Background()
	off := mustOffering(t, svc, "500.00")

	dist, err := svc.AddDistribution(ctx, DistributionInput{
		OfferingID:  off.ID,
		Destination: "missions fund",
		Amount:      dec(t, "200.00"),
	}, 1)
	require.NoError(t, err)
	assert.NotZero(t, dist.ID)
	assert.NotEqual(t, "00000000-0000-0000-0000-000000000000", dist.Reference.String())

	total, err := svc.TotalDistributed(ctx, off.ID)
	require.NoError(t, err)
	assert.True(t, total.Equal(dec(t, "200.00")))

	assert.Equal(t, 1, metrics.committed)
	require.NotEmpty(t, audit.records)
	assert.Equal(t, "distribution.add", audit.records[len(audit.records)-1].Action)
}

// Distributing an offering of 500 as 200 then 300 succeeds; nothing more fits.
func TestAddDistributionBoundaryEquality(t *testing.T) {
	svc, _, _, metrics := newTestService(t)
	ctx := context.Background()
	off := mustOffering(t, svc, "500.00")

	_, err := svc.AddDistribution(ctx, DistributionInput{OfferingID: off.ID, Destination: "a", Amount: dec(t, "200.00")}, 1)
	require.NoError(t, err)
	_, err = svc.AddDistribution(ctx, DistributionInput{OfferingID: off.ID, Destination: "b", Amount: dec(t, "300.00")}, 1)
	require.NoError(t, err)

	balance, err := svc.Balance(ctx, off.ID)
	require.NoError(t, err)
	assert.True(t, balance.Undistributed.IsZero())

	_, err = svc.AddDistribution(ctx, DistributionInput{OfferingID: off.ID, Destination: "c", Amount: dec(t, "0.01")}, 1)
	assert.ErrorIs(t, err, ErrConservation)
	assert.Equal(t, 1, metrics.rejected)
}

func TestAddDistributionRejectionLeavesTotalUnchanged(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	ctx := context.Background()
	off := mustOffering(t, svc, "100.00")

	_, err := svc.AddDistribution(ctx, DistributionInput{OfferingID: off.ID, Destination: "a", Amount: dec(t, "60.00")}, 1)
	require.NoError(t, err)

	_, err = svc.AddDistribution(ctx, DistributionInput{OfferingID: off.ID, Destination: "b", Amount: dec(t, "60.00")}, 1)
	require.ErrorIs(t, err, ErrConservation)

	total, err := svc.TotalDistributed(ctx, off.ID)
	require.NoError(t, err)
	assert.True(t, total.Equal(dec(t, "60.00")), "rejected distribution must not change the total, got %s", total)
}

func TestAddDistributionValidation(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	ctx := context.Background()
	off := mustOffering(t, svc, "100.00")

	_, err := svc.AddDistribution(ctx, DistributionInput{OfferingID: off.ID, Destination: "x", Amount: decimal.Zero}, 1)
	assert.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.AddDistribution(ctx, DistributionInput{OfferingID: off.ID, Destination: "", Amount: dec(t, "10.00")}, 1)
	assert.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.AddDistribution(ctx, DistributionInput{OfferingID: 999, Destination: "x", Amount: dec(t, "10.00")}, 1)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestAddDistributionAgainstDeletedOffering(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	ctx := context.Background()
	off := mustOffering(t, svc, "100.00")
	require.NoError(t, svc.DeleteOffering(ctx, off.ID, false, 1))

	_, err := svc.AddDistribution(ctx, DistributionInput{OfferingID: off.ID, Destination: "x", Amount: dec(t, "10.00")}, 1)
	assert.ErrorIs(t, err, ErrOfferingDeleted)
}

// Two racing distributions of 80 against a remaining balance of 100: exactly
// one commits.
func TestConcurrentDistributionsSerialize(t *testing.T) {
	svc, _, _, metrics := newTestService(t)
	ctx := context.Background()
	off := mustOffering(t, svc, "1000.00")

	_, err := svc.AddDistribution(ctx, DistributionInput{OfferingID: off.ID, Destination: "base", Amount: dec(t, "900.00")}, 1)
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.AddDistribution(ctx, DistributionInput{
				OfferingID:  off.ID,
				Destination: "racer",
				Amount:      dec(t, "80.00"),
			}, 1)
		}(i)
	}
	wg.Wait()

	var ok, conflict int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case assert.ErrorIs(t, err, ErrConservation):
			conflict++
		}
	}
	assert.Equal(t, 1, ok, "exactly one racer must commit")
	assert.Equal(t, 1, conflict, "exactly one racer must lose")

	total, err := svc.TotalDistributed(ctx, off.ID)
	require.NoError(t, err)
	assert.True(t, total.Equal(dec(t, "980.00")))
	assert.Equal(t, 1, metrics.rejected)
}

// A random mix of adds and removes must never push the distributed total
// past the collected amount, and every rejected add must leave the total
// exactly where it was.
func TestRandomDistributionSequenceKeepsConservation(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	ctx := context.Background()
	off := mustOffering(t, svc, "1000.00")

	rng := rand.New(rand.NewSource(42))
	var committed []int64
	for i := 0; i < 200; i++ {
		if len(committed) > 0 && rng.Intn(5) == 0 {
			idx := rng.Intn(len(committed))
			require.NoError(t, svc.RemoveDistribution(ctx, committed[idx], 1))
			committed = append(committed[:idx], committed[idx+1:]...)
		} else {
			amount := decimal.NewFromInt(int64(rng.Intn(300) + 1))
			before, err := svc.TotalDistributed(ctx, off.ID)
			require.NoError(t, err)
			dist, err := svc.AddDistribution(ctx, DistributionInput{OfferingID: off.ID, Destination: "fund", Amount: amount}, 1)
			switch {
			case err == nil:
				committed = append(committed, dist.ID)
			case errors.Is(err, ErrConservation):
				after, sumErr := svc.TotalDistributed(ctx, off.ID)
				require.NoError(t, sumErr)
				assert.True(t, after.Equal(before), "rejected add moved the total from %s to %s", before, after)
			default:
				t.Fatalf("unexpected error: %v", err)
			}
		}
		total, err := svc.TotalDistributed(ctx, off.ID)
		require.NoError(t, err)
		assert.True(t, total.LessThanOrEqual(off.Amount), "total %s exceeds collected %s", total, off.Amount)
	}
}

// Many writers hammering one offering with random amounts: the final total
// equals the sum of the accepted amounts and never exceeds the cap.
func TestRandomConcurrentDistributionsRespectCap(t *testing.T) {
	svc, _, _, metrics := newTestService(t)
	ctx := context.Background()
	off := mustOffering(t, svc, "1000.00")

	const workers = 8
	const perWorker = 25

	var wg sync.WaitGroup
	var mu sync.Mutex
	accepted := decimal.Zero
	rejected := 0
	var unexpected []error

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(seed))
			for i := 0; i < perWorker; i++ {
				amount := decimal.NewFromInt(int64(rng.Intn(251) + 50))
				_, err := svc.AddDistribution(ctx, DistributionInput{
					OfferingID:  off.ID,
					Destination: "fund",
					Amount:      amount,
				}, 1)
				mu.Lock()
				switch {
				case err == nil:
					accepted = accepted.Add(amount)
				case errors.Is(err, ErrConservation):
					rejected++
				default:
					unexpected = append(unexpected, err)
				}
				mu.Unlock()
			}
		}(int64(w + 1))
	}
	wg.Wait()

	require.Empty(t, unexpected)

	total, err := svc.TotalDistributed(ctx, off.ID)
	require.NoError(t, err)
	assert.True(t, total.LessThanOrEqual(off.Amount), "total %s exceeds collected %s", total, off.Amount)
	assert.True(t, total.Equal(accepted), "total %s does not match accepted sum %s", total, accepted)
	// 200 attempts of at least 50.00 cannot all fit into 1000.00.
	assert.Positive(t, rejected)
	assert.Equal(t, rejected, metrics.rejected)
}

func TestRemoveDistributionFreesBalance(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	ctx := context.Background()
	off := mustOffering(t, svc, "100.00")

	dist, err := svc.AddDistribution(ctx, DistributionInput{OfferingID: off.ID, Destination: "a", Amount: dec(t, "100.00")}, 1)
	require.NoError(t, err)

	_, err = svc.AddDistribution(ctx, DistributionInput{OfferingID: off.ID, Destination: "b", Amount: dec(t, "40.00")}, 1)
	require.ErrorIs(t, err, ErrConservation)

	require.NoError(t, svc.RemoveDistribution(ctx, dist.ID, 1))

	_, err = svc.AddDistribution(ctx, DistributionInput{OfferingID: off.ID, Destination: "b", Amount: dec(t, "40.00")}, 1)
	assert.NoError(t, err)
}

func TestDeleteOfferingBlockedByDistributions(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	ctx := context.Background()
	off := mustOffering(t, svc, "100.00")

	_, err := svc.AddDistribution(ctx, DistributionInput{OfferingID: off.ID, Destination: "a", Amount: dec(t, "30.00")}, 1)
	require.NoError(t, err)

	err = svc.DeleteOffering(ctx, off.ID, false, 1)
	assert.ErrorIs(t, err, shared.ErrReferenced)

	_, err = svc.GetOffering(ctx, off.ID)
	assert.NoError(t, err, "blocked delete must leave the offering in place")
}

func TestDeleteOfferingCascades(t *testing.T) {
	svc, repo, _, _ := newTestService(t)
	ctx := context.Background()
	off := mustOffering(t, svc, "100.00")

	dist, err := svc.AddDistribution(ctx, DistributionInput{OfferingID: off.ID, Destination: "a", Amount: dec(t, "30.00")}, 1)
	require.NoError(t, err)

	require.NoError(t, svc.DeleteOffering(ctx, off.ID, true, 1))

	_, err = svc.GetOffering(ctx, off.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
	_, err = svc.GetDistribution(ctx, dist.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	stored, err := repo.GetOfferingIncludingDeleted(ctx, off.ID)
	require.NoError(t, err)
	assert.True(t, stored.Deleted())
	assert.False(t, stored.IsActive)
}

func TestRestoreOfferingLeavesCascadedDistributionsDeleted(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	ctx := context.Background()
	off := mustOffering(t, svc, "100.00")

	dist, err := svc.AddDistribution(ctx, DistributionInput{OfferingID: off.ID, Destination: "a", Amount: dec(t, "30.00")}, 1)
	require.NoError(t, err)

	require.NoError(t, svc.DeleteOffering(ctx, off.ID, true, 1))

	restored, err := svc.RestoreOffering(ctx, off.ID, 1)
	require.NoError(t, err)
	assert.False(t, restored.Deleted())

	_, err = svc.GetDistribution(ctx, dist.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	// The freed balance is usable again.
	total, err := svc.TotalDistributed(ctx, off.ID)
	require.NoError(t, err)
	assert.True(t, total.IsZero())
}

func TestDeleteOfferingIsIdempotent(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	ctx := context.Background()
	off := mustOffering(t, svc, "100.00")

	require.NoError(t, svc.DeleteOffering(ctx, off.ID, false, 1))
	assert.NoError(t, svc.DeleteOffering(ctx, off.ID, false, 1))
}

func TestHardDeleteOffering(t *testing.T) {
	svc, repo, _, _ := newTestService(t)
	ctx := context.Background()
	off := mustOffering(t, svc, "100.00")

	require.NoError(t, svc.HardDeleteOffering(ctx, off.ID, 1))

	_, err := repo.GetOfferingIncludingDeleted(ctx, off.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestListOfferingsExcludesDeletedByDefault(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	ctx := context.Background()
	kept := mustOffering(t, svc, "10.00")
	gone := mustOffering(t, svc, "20.00")
	require.NoError(t, svc.DeleteOffering(ctx, gone.ID, false, 1))

	visible, err := svc.ListOfferings(ctx, lifecycle.ListOptions{})
	require.NoError(t, err)
	require.Len(t, visible, 1)
	assert.Equal(t, kept.ID, visible[0].ID)

	all, err := svc.ListOfferings(ctx, lifecycle.ListOptions{IncludeDeleted: true})
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
