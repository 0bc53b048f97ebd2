package withdrawal

import (
	"testing"

	"github.com/shopspring/decimal"
)

func pendingWithdrawal(gross, pct string) *Withdrawal {
	g := decimal.RequireFromString(gross)
	fee, net := ComputeFee(g, decimal.RequireFromString(pct))
	return &Withdrawal{
		GrossAmount: g,
		FeeAmount:   fee,
		NetAmount:   net,
		Status:      StatusPending,
	}
}

func TestBuildBatchTotalsMatchMembers(t *testing.T) {
	members := []*Withdrawal{
		pendingWithdrawal("100", "5"),
		pendingWithdrawal("33.3333", "3"),
		pendingWithdrawal("12.345", "1"),
	}

	batch := buildBatch(members)

	if batch.Count != len(members) {
		t.Errorf("Count = %d, ожидалось %d", batch.Count, len(members))
	}

	gross, fee, net := decimal.Zero, decimal.Zero, decimal.Zero
	for _, w := range members {
		gross = gross.Add(w.GrossAmount)
		fee = fee.Add(w.FeeAmount)
		net = net.Add(w.NetAmount)
	}

	if !batch.TotalGross.Equal(gross) {
		t.Errorf("TotalGross = %s, сумма по членам %s", batch.TotalGross, gross)
	}
	if !batch.TotalFee.Equal(fee) {
		t.Errorf("TotalFee = %s, сумма по членам %s", batch.TotalFee, fee)
	}
	if !batch.TotalNet.Equal(net) {
		t.Errorf("TotalNet = %s, сумма по членам %s", batch.TotalNet, net)
	}

	// Каждая заявка сохраняет gross = fee + net, значит и батч целиком
	if !batch.TotalFee.Add(batch.TotalNet).Equal(batch.TotalGross) {
		t.Errorf("fee %s + net %s != gross %s",
			batch.TotalFee, batch.TotalNet, batch.TotalGross)
	}
}

func TestBuildBatchOnlyCountsGivenMembers(t *testing.T) {
	// Итоги считаются строго по переданному составу: заявка,
	// появившаяся после формирования списка, в батч не попадает
	members := []*Withdrawal{pendingWithdrawal("50", "10")}
	batch := buildBatch(members)

	if !batch.TotalGross.Equal(decimal.RequireFromString("50")) {
		t.Errorf("TotalGross = %s, ожидалось 50", batch.TotalGross)
	}
	if batch.Count != 1 {
		t.Errorf("Count = %d, ожидалось 1", batch.Count)
	}
}
