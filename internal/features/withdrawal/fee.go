// Package withdrawal — fee.go считает комиссию вывода.
package withdrawal

import "github.com/shopspring/decimal"

// feePrecision — точность сумм комиссии (знаков после запятой).
const feePrecision = 4

// ComputeFee возвращает комиссию и сумму к выплате.
//
//	fee = round(gross * percent / 100, 4)  — округление half-up
//	net = gross - fee
//
// Списывается с баланса при этом ПОЛНАЯ сумма gross: комиссия — учётная
// величина внутри заявки, а не дополнительное списание.
func ComputeFee(gross, percent decimal.Decimal) (fee, net decimal.Decimal) {
	fee = gross.Mul(percent).Div(decimal.NewFromInt(100)).Round(feePrecision)
	net = gross.Sub(fee)
	return fee, net
}
