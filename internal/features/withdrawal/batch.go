// Package withdrawal — batch.go собирает итоги батча выплат.
package withdrawal

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// buildBatch строит новый батч из включённых заявок.
// Итоги — точные суммы по членам, поэтому батч никогда не расходится
// со своим составом.
func buildBatch(members []*Withdrawal) *Batch {
	b := &Batch{
		ID:         uuid.New(),
		Status:     BatchPending,
		Count:      len(members),
		TotalGross: decimal.Zero,
		TotalFee:   decimal.Zero,
		TotalNet:   decimal.Zero,
	}
	for _, w := range members {
		b.TotalGross = b.TotalGross.Add(w.GrossAmount)
		b.TotalFee = b.TotalFee.Add(w.FeeAmount)
		b.TotalNet = b.TotalNet.Add(w.NetAmount)
	}
	return b
}
