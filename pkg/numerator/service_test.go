package numerator

import (
	"context"
	"errors"
	"sync"
	"testing"

	"backoffice/internal/core/apperror"
)

// mockStore simulates persisted numbers; taken lists numbers that exist even
// though MaxSequence does not report them (a concurrent insert).
type mockStore struct {
	mu      sync.Mutex
	max     int64
	taken   map[string]bool
	maxErr  error
	checked []string
}

func (m *mockStore) MaxSequence(ctx context.Context, datePrefix string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.max, m.maxErr
}

func (m *mockStore) Exists(ctx context.Context, number string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.checked = append(m.checked, number)
	return m.taken[number], nil
}

func TestService_Next_FromStoreMax(t *testing.T) {
	store := &mockStore{max: 4}
	svc := New(DefaultConfig(PrefixPurchaseOrder), store)

	num, err := svc.Next(context.Background(), jan15)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if num != "PO-20260115-0005" {
		t.Errorf("expected PO-20260115-0005, got %s", num)
	}
}

func TestService_Next_LocalCandidateAheadOfStore(t *testing.T) {
	store := &mockStore{}
	svc := New(DefaultConfig(PrefixTransfer), store)
	ctx := context.Background()

	first, _ := svc.Next(ctx, jan15)
	second, _ := svc.Next(ctx, jan15)

	// Nothing was persisted between calls, the local counter still advances.
	if first != "TRF-20260115-0001" || second != "TRF-20260115-0002" {
		t.Errorf("unexpected sequence: %s, %s", first, second)
	}
}

func TestService_Next_RetriesOnCollision(t *testing.T) {
	store := &mockStore{taken: map[string]bool{
		"RTN-20260115-0001": true,
		"RTN-20260115-0002": true,
	}}
	svc := New(DefaultConfig(PrefixReturn), store)

	num, err := svc.Next(context.Background(), jan15)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if num != "RTN-20260115-0003" {
		t.Errorf("expected RTN-20260115-0003, got %s", num)
	}
	if len(store.checked) != 3 {
		t.Errorf("expected 3 existence checks, got %d", len(store.checked))
	}
}

func TestService_Next_Exhausted(t *testing.T) {
	store := &mockStore{taken: map[string]bool{
		"PO-20260115-0001": true,
		"PO-20260115-0002": true,
		"PO-20260115-0003": true,
	}}
	svc := New(DefaultConfig(PrefixPurchaseOrder), store)

	_, err := svc.Next(context.Background(), jan15)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, ErrExhausted) {
		t.Errorf("expected ErrExhausted in chain, got %v", err)
	}
	appErr, ok := apperror.AsAppError(err)
	if !ok || appErr.Code != apperror.CodeIdentifierExhausted {
		t.Fatalf("expected IDENTIFIER_EXHAUSTED, got %v", err)
	}
	if appErr.Message != "could not generate unique identifier" {
		t.Errorf("unexpected message %q", appErr.Message)
	}
}

func TestService_Next_DayFull(t *testing.T) {
	store := &mockStore{max: 9999}
	svc := New(DefaultConfig(PrefixPurchaseOrder), store)

	num, err := svc.Next(context.Background(), jan15)
	if err == nil {
		t.Fatalf("expected error, got %s", num)
	}
	if !errors.Is(err, ErrExhausted) {
		t.Errorf("expected ErrExhausted in chain, got %v", err)
	}
	appErr, ok := apperror.AsAppError(err)
	if !ok || appErr.Code != apperror.CodeIdentifierExhausted {
		t.Fatalf("expected IDENTIFIER_EXHAUSTED, got %v", err)
	}
	if len(store.checked) != 0 {
		t.Errorf("expected no existence checks, got %v", store.checked)
	}
}

func TestService_Next_MaxRetriesOption(t *testing.T) {
	store := &mockStore{taken: map[string]bool{"PO-20260115-0001": true}}
	svc := New(DefaultConfig(PrefixPurchaseOrder), store, WithMaxRetries(1))

	if _, err := svc.Next(context.Background(), jan15); !errors.Is(err, ErrExhausted) {
		t.Errorf("expected exhaustion after one attempt, got %v", err)
	}
}

func TestService_Next_StoreError(t *testing.T) {
	store := &mockStore{maxErr: errors.New("connection refused")}
	svc := New(DefaultConfig(PrefixPurchaseOrder), store)

	_, err := svc.Next(context.Background(), jan15)
	if err == nil || errors.Is(err, ErrExhausted) {
		t.Errorf("expected opaque store error, got %v", err)
	}
}

func TestService_Next_Concurrent(t *testing.T) {
	store := &mockStore{}
	svc := New(DefaultConfig(PrefixPurchaseOrder), store)
	ctx := context.Background()

	var wg sync.WaitGroup
	var mu sync.Mutex
	results := map[string]bool{}
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			num, err := svc.Next(ctx, jan15)
			if err != nil {
				t.Errorf("unexpected error: %v", err)
				return
			}
			mu.Lock()
			results[num] = true
			mu.Unlock()
		}()
	}
	wg.Wait()

	if len(results) != 20 {
		t.Errorf("expected 20 distinct numbers, got %d", len(results))
	}
}
