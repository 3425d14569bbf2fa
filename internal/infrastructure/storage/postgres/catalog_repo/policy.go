package catalog_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"backoffice/internal/domain/documents/sales_return"
	"backoffice/internal/domain/policy"
	"backoffice/internal/infrastructure/storage/postgres"
)

const returnPoliciesTable = "cfg_return_policies"

var _ sales_return.PolicyStore = (*PolicyRepo)(nil)

// PolicyRepo reads return policy configuration.
type PolicyRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

// NewPolicyRepo creates a new policy reader.
func NewPolicyRepo(txManager *postgres.TxManager) *PolicyRepo {
	return &PolicyRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// ActivePolicy returns the most recently updated active policy, or nil if none is active.
func (r *PolicyRepo) ActivePolicy(ctx context.Context) (*policy.ReturnPolicy, error) {
	sql, args, err := r.builder.
		Select(postgres.ExtractDBColumns[policy.ReturnPolicy]()...).
		From(returnPoliciesTable).
		Where(squirrel.Eq{"is_active": true}).
		OrderBy("updated_at DESC").
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	p := &policy.ReturnPolicy{}
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), p, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get active policy: %w", err)
	}
	return p, nil
}
