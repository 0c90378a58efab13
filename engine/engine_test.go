package engine

import (
	"database/sql"
	"time"
)

// Shared fixtures for the engine tests.

var refToday = time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC)

func day(offset int) time.Time { return refToday.AddDate(0, 0, offset) }

func claim(date time.Time, cost float64) ClaimRecord {
	return ClaimRecord{
		AdmissionDate: sql.NullTime{Time: date, Valid: true},
		ClaimCost:     sql.NullFloat64{Float64: cost, Valid: true},
	}
}

func nullDateClaim(cost float64) ClaimRecord {
	return ClaimRecord{ClaimCost: sql.NullFloat64{Float64: cost, Valid: true}}
}

func nullCostClaim(date time.Time) ClaimRecord {
	return ClaimRecord{AdmissionDate: sql.NullTime{Time: date, Valid: true}}
}

func withID(c ClaimRecord, id string) ClaimRecord {
	c.Attributes = map[string]string{"claim_id": id}
	return c
}

func ledgerOf(claims ...ClaimRecord) ClaimView {
	return NewSliceView(&Ledger{
		Columns: []string{ColumnAdmissionDate, ColumnClaimCost},
		Claims:  claims,
	})
}

func ledgerWithIDs(claims ...ClaimRecord) ClaimView {
	return NewSliceView(&Ledger{
		Columns: []string{"claim_id", ColumnAdmissionDate, ColumnClaimCost},
		Claims:  claims,
	})
}

// sameCost builds n claims admitted today with the given cost.
func sameCost(n int, cost float64) []ClaimRecord {
	out := make([]ClaimRecord, n)
	for i := range out {
		out[i] = claim(refToday, cost)
	}
	return out
}

// outlierLedger is 19 claims at 100 and one at 100000, the last one.
func outlierLedger() ClaimView {
	claims := sameCost(19, 100)
	claims = append(claims, withID(claim(day(-1), 100000), "OUTLIER"))
	return ledgerOf(claims...)
}

func costsOf(view ClaimView) []float64 {
	out := make([]float64, 0, view.Len())
	for i := 0; i < view.Len(); i++ {
		if c := view.Claim(i).ClaimCost; c.Valid {
			out = append(out, c.Float64)
		}
	}
	return out
}

func idsOf(view ClaimView) []string {
	out := make([]string, 0, view.Len())
	for i := 0; i < view.Len(); i++ {
		id, _ := view.Claim(i).Attribute("claim_id")
		out = append(out, id)
	}
	return out
}
