package engine

import (
	"database/sql"
	"time"
)

// ============================================================================
// CLAIM VIEW — Zero-Copy Data Access Interface
// ============================================================================
// The engine never owns consumer data. It reads through this interface.
//
// Implementations:
//   SliceView     — wraps a Ledger (CSV ingestion, tests)
//   DomainView[T] — reads typed structs via accessor functions (zero-copy)
//   SubView       — filtered or reordered subset (indices into parent, zero-copy)
//
// Windows, anomalies and top contributors are all SubViews over the same
// snapshot, so a second run over the same view sees identical data.
// ============================================================================

// ClaimView provides indexed, read-only access to a claim set.
type ClaimView interface {
	Len() int
	Claim(index int) ClaimRecord
	Columns() []string // source header, in order
}

// ============================================================================
// SLICE VIEW — wraps a Ledger
// ============================================================================

// SliceView wraps an ingested Ledger as a ClaimView.
type SliceView struct {
	ledger *Ledger
}

// NewSliceView creates a ClaimView from a ledger. A nil ledger is an empty view.
func NewSliceView(ledger *Ledger) ClaimView {
	if ledger == nil {
		ledger = &Ledger{}
	}
	return &SliceView{ledger: ledger}
}

func (v *SliceView) Len() int { return len(v.ledger.Claims) }

func (v *SliceView) Claim(i int) ClaimRecord {
	if i < 0 || i >= len(v.ledger.Claims) {
		return ClaimRecord{}
	}
	return v.ledger.Claims[i]
}

func (v *SliceView) Columns() []string { return v.ledger.Columns }

// ============================================================================
// SUB VIEW — subset of a parent (zero-copy)
// ============================================================================

// SubView is a subset of a parent ClaimView.
// Holds indices into the parent; no data copy. Index order is view order.
type SubView struct {
	parent  ClaimView
	indices []int
}

func newSubView(parent ClaimView, indices []int) ClaimView {
	return &SubView{parent: parent, indices: indices}
}

func (v *SubView) Len() int { return len(v.indices) }

func (v *SubView) Claim(i int) ClaimRecord {
	if i < 0 || i >= len(v.indices) {
		return ClaimRecord{}
	}
	return v.parent.Claim(v.indices[i])
}

func (v *SubView) Columns() []string { return v.parent.Columns() }

// ParentIndex maps a position in the sub view back to the parent.
func (v *SubView) ParentIndex(i int) int {
	if i < 0 || i >= len(v.indices) {
		return -1
	}
	return v.indices[i]
}

// ============================================================================
// DOMAIN ADAPTER — Zero-copy typed struct access
// ============================================================================
//
// Usage:
//
//	adapter := engine.NewDomainAdapter[Claim]().
//	    AdmissionDate(func(c Claim) (time.Time, bool) { return c.Admitted, !c.Admitted.IsZero() }).
//	    ClaimCost(func(c Claim) (float64, bool) { return c.Cost, true }).
//	    Attribute("claim_id", func(c Claim) (string, bool) { return c.ID, c.ID != "" })
//
//	view := adapter.Bind(claims)
//	result, _ := engine.Run(ctx, view, today)
//
// ============================================================================

// DomainAdapter builds a ClaimView from typed structs.
// Declare once, bind many times.
type DomainAdapter[T any] struct {
	date    func(T) (time.Time, bool)
	cost    func(T) (float64, bool)
	attrs   map[string]func(T) (string, bool)
	columns []string
}

// NewDomainAdapter creates a new adapter for type T.
func NewDomainAdapter[T any]() *DomainAdapter[T] {
	return &DomainAdapter[T]{
		attrs: make(map[string]func(T) (string, bool)),
	}
}

// AdmissionDate registers the admission date accessor.
func (a *DomainAdapter[T]) AdmissionDate(fn func(T) (time.Time, bool)) *DomainAdapter[T] {
	if a.date == nil {
		a.columns = append(a.columns, ColumnAdmissionDate)
	}
	a.date = fn
	return a
}

// ClaimCost registers the claim cost accessor.
func (a *DomainAdapter[T]) ClaimCost(fn func(T) (float64, bool)) *DomainAdapter[T] {
	if a.cost == nil {
		a.columns = append(a.columns, ColumnClaimCost)
	}
	a.cost = fn
	return a
}

// Attribute registers a pass-through column accessor.
func (a *DomainAdapter[T]) Attribute(key string, fn func(T) (string, bool)) *DomainAdapter[T] {
	if _, exists := a.attrs[key]; !exists {
		a.columns = append(a.columns, key)
	}
	a.attrs[key] = fn
	return a
}

// Bind creates a ClaimView from a data slice. It holds the slice, no copy.
func (a *DomainAdapter[T]) Bind(data []T) ClaimView {
	return &DomainView[T]{
		data:    data,
		date:    a.date,
		cost:    a.cost,
		attrs:   a.attrs,
		columns: a.columns,
	}
}

// DomainView reads typed struct fields via registered accessor functions.
type DomainView[T any] struct {
	data    []T
	date    func(T) (time.Time, bool)
	cost    func(T) (float64, bool)
	attrs   map[string]func(T) (string, bool)
	columns []string
}

func (v *DomainView[T]) Len() int { return len(v.data) }

func (v *DomainView[T]) Claim(i int) ClaimRecord {
	if i < 0 || i >= len(v.data) {
		return ClaimRecord{}
	}
	item := v.data[i]

	var rec ClaimRecord
	if v.date != nil {
		if t, ok := v.date(item); ok {
			rec.AdmissionDate = sql.NullTime{Time: t, Valid: true}
		}
	}
	if v.cost != nil {
		if c, ok := v.cost(item); ok {
			rec.ClaimCost = sql.NullFloat64{Float64: c, Valid: true}
		}
	}
	if len(v.attrs) > 0 {
		rec.Attributes = make(map[string]string, len(v.attrs))
		for key, fn := range v.attrs {
			if val, ok := fn(item); ok {
				rec.Attributes[key] = val
			}
		}
	}
	return rec
}

func (v *DomainView[T]) Columns() []string { return v.columns }
