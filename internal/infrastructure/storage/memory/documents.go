package memory

import (
	"cmp"
	"context"
	"maps"
	"slices"
	"strings"

	"backoffice/internal/core/apperror"
	"backoffice/internal/core/entity"
	"backoffice/internal/core/id"
	"backoffice/internal/domain"
)

type table[T any, I any] struct {
	entity string
	rows   map[id.ID]T
	items  map[id.ID][]I
}

func newTable[T any, I any](entity string) *table[T, I] {
	return &table[T, I]{
		entity: entity,
		rows:   make(map[id.ID]T),
		items:  make(map[id.ID][]I),
	}
}

func (t *table[T, I]) clone() *table[T, I] {
	return &table[T, I]{
		entity: t.entity,
		rows:   maps.Clone(t.rows),
		items:  maps.Clone(t.items),
	}
}

// docSchema tells docRepo how to read a document type.
type docSchema[T any] struct {
	doc     func(*T) *entity.Document
	clone   func(T) T
	status  func(*T) string
	outlets func(*T) []string
}

// docRepo implements the repository operations shared by every document type.
type docRepo[T any, I any] struct {
	db     *DB
	tab    func(*state) *table[T, I]
	schema docSchema[T]
}

func (r *docRepo[T, I]) Create(ctx context.Context, v *T) error {
	return r.db.write(func(s *state) error {
		t := r.tab(s)
		d := r.schema.doc(v)
		if _, ok := t.rows[d.ID]; ok {
			return apperror.NewDuplicate(t.entity, "id", d.ID.String())
		}
		for _, row := range t.rows {
			if r.schema.doc(&row).Number == d.Number {
				return apperror.NewDuplicate(t.entity, "number", d.Number)
			}
		}
		t.rows[d.ID] = r.schema.clone(*v)
		return nil
	})
}

func (r *docRepo[T, I]) GetByID(ctx context.Context, docID id.ID) (*T, error) {
	var (
		out   T
		found bool
	)
	r.db.read(func(s *state) {
		t := r.tab(s)
		var row T
		row, found = t.rows[docID]
		if found {
			out = r.schema.clone(row)
		}
	})
	if !found {
		return nil, apperror.NewNotFound(r.entity(), docID.String())
	}
	return &out, nil
}

// GetForUpdate is GetByID; transactions are already serialized.
func (r *docRepo[T, I]) GetForUpdate(ctx context.Context, docID id.ID) (*T, error) {
	return r.GetByID(ctx, docID)
}

func (r *docRepo[T, I]) Update(ctx context.Context, v *T) error {
	d := r.schema.doc(v)
	err := r.db.write(func(s *state) error {
		t := r.tab(s)
		stored, ok := t.rows[d.ID]
		if !ok {
			return apperror.NewNotFound(t.entity, d.ID.String())
		}
		if r.schema.doc(&stored).Version != d.Version {
			return apperror.NewConcurrentModification(t.entity, d.ID)
		}
		next := r.schema.clone(*v)
		r.schema.doc(&next).Version++
		t.rows[d.ID] = next
		return nil
	})
	if err != nil {
		return err
	}
	d.BumpVersion()
	return nil
}

func (r *docRepo[T, I]) GetItems(ctx context.Context, docID id.ID) ([]I, error) {
	var items []I
	r.db.read(func(s *state) {
		items = slices.Clone(r.tab(s).items[docID])
	})
	if items == nil {
		items = []I{}
	}
	return items, nil
}

func (r *docRepo[T, I]) SaveItems(ctx context.Context, docID id.ID, items []I) error {
	return r.db.write(func(s *state) error {
		r.tab(s).items[docID] = slices.Clone(items)
		return nil
	})
}

func (r *docRepo[T, I]) entity() string {
	var name string
	r.db.read(func(s *state) { name = r.tab(s).entity })
	return name
}

// list applies the common filter plus match, then sorts and pages.
func (r *docRepo[T, I]) list(filter domain.ListFilter, match func(*T) bool) (domain.ListResult[*T], error) {
	result := domain.ListResult[*T]{
		Items:  []*T{},
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}

	less, err := orderBy(filter)
	if err != nil {
		return result, err
	}

	var matched []*T
	r.db.read(func(s *state) {
		for _, row := range r.tab(s).rows {
			if !r.matches(&row, filter) || (match != nil && !match(&row)) {
				continue
			}
			c := r.schema.clone(row)
			matched = append(matched, &c)
		}
	})

	slices.SortFunc(matched, func(a, b *T) int {
		if c := less(r.schema.doc(a), r.schema.doc(b)); c != 0 {
			return c
		}
		return cmp.Compare(r.schema.doc(b).Number, r.schema.doc(a).Number)
	})

	result.TotalCount = int64(len(matched))
	if filter.Offset > 0 {
		matched = matched[min(filter.Offset, len(matched)):]
	}
	if filter.Limit > 0 && len(matched) > filter.Limit {
		matched = matched[:filter.Limit]
	}
	result.Items = append(result.Items, matched...)
	return result, nil
}

func (r *docRepo[T, I]) matches(row *T, filter domain.ListFilter) bool {
	d := r.schema.doc(row)
	if filter.Search != "" && !strings.Contains(strings.ToLower(d.Number), strings.ToLower(filter.Search)) {
		return false
	}
	if filter.Status != "" && r.schema.status(row) != filter.Status {
		return false
	}
	if filter.OutletID != "" && !slices.Contains(r.schema.outlets(row), filter.OutletID) {
		return false
	}
	if filter.DateFrom != nil && d.Date.Before(*filter.DateFrom) {
		return false
	}
	if filter.DateTo != nil && d.Date.After(*filter.DateTo) {
		return false
	}
	return true
}

func orderBy(filter domain.ListFilter) (func(a, b *entity.Document) int, error) {
	field := strings.TrimSpace(filter.OrderBy)
	desc := filter.Desc
	if field == "" {
		field, desc = "date", true
	}
	if rest, ok := strings.CutPrefix(field, "-"); ok {
		field, desc = rest, true
	}

	var cmpFn func(a, b *entity.Document) int
	switch field {
	case "date":
		cmpFn = func(a, b *entity.Document) int { return a.Date.Compare(b.Date) }
	case "number":
		cmpFn = func(a, b *entity.Document) int { return cmp.Compare(a.Number, b.Number) }
	case "created_at":
		cmpFn = func(a, b *entity.Document) int { return a.CreatedAt.Compare(b.CreatedAt) }
	case "updated_at":
		cmpFn = func(a, b *entity.Document) int { return a.UpdatedAt.Compare(b.UpdatedAt) }
	default:
		return nil, apperror.NewValidation("invalid orderBy").WithDetail("orderBy", filter.OrderBy)
	}

	if desc {
		return func(a, b *entity.Document) int { return cmpFn(b, a) }, nil
	}
	return cmpFn, nil
}
