package memory

import (
	"context"

	"backoffice/internal/core/apperror"
	"backoffice/internal/domain/documents/sales_return"
	"backoffice/internal/domain/policy"
)

var (
	_ sales_return.SaleReader  = (*SaleStore)(nil)
	_ sales_return.PolicyStore = (*PolicyStore)(nil)
)

// SaleStore holds completed sales.
type SaleStore struct {
	db *DB
}

// Sales returns the sale store.
func (db *DB) Sales() *SaleStore {
	return &SaleStore{db: db}
}

// Put stores sale, replacing any sale with the same ID.
func (s *SaleStore) Put(sale sales_return.Sale) {
	_ = s.db.write(func(st *state) error {
		sale.Items = append([]sales_return.SaleItem(nil), sale.Items...)
		st.sales[sale.ID] = sale
		return nil
	})
}

func (s *SaleStore) GetSale(ctx context.Context, transactionID string) (*sales_return.Sale, error) {
	var (
		sale  sales_return.Sale
		found bool
	)
	s.db.read(func(st *state) {
		sale, found = st.sales[transactionID]
	})
	if !found {
		return nil, apperror.NewNotFound("sale", transactionID)
	}
	sale.Items = append([]sales_return.SaleItem(nil), sale.Items...)
	return &sale, nil
}

// PolicyStore holds the active return policy.
type PolicyStore struct {
	db *DB
}

// Policies returns the policy store.
func (db *DB) Policies() *PolicyStore {
	return &PolicyStore{db: db}
}

// Set replaces the active policy; nil removes it.
func (s *PolicyStore) Set(p *policy.ReturnPolicy) {
	_ = s.db.write(func(st *state) error {
		st.policy = copyPolicy(p)
		return nil
	})
}

func (s *PolicyStore) ActivePolicy(ctx context.Context) (*policy.ReturnPolicy, error) {
	var p *policy.ReturnPolicy
	s.db.read(func(st *state) { p = copyPolicy(st.policy) })
	return p, nil
}

func copyPolicy(p *policy.ReturnPolicy) *policy.ReturnPolicy {
	if p == nil {
		return nil
	}
	out := *p
	out.NonReturnableCategories = append([]string(nil), p.NonReturnableCategories...)
	return &out
}
