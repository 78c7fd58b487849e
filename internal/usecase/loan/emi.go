package loan

import (
	domain "loanflow-backend/internal/domain/loan"

	"github.com/shopspring/decimal"
)

// computeEMI amortises principal over months at an annual percentage rate.
// A zero rate splits the principal evenly.
func computeEMI(principal float64, annualRate float64, months int) domain.EMI {
	p := decimal.NewFromFloat(principal)
	n := decimal.NewFromInt(int64(months))

	var emi decimal.Decimal
	if annualRate <= 0 {
		emi = p.Div(n)
	} else {
		r := decimal.NewFromFloat(annualRate).Div(decimal.NewFromInt(1200))
		growth := r.Add(decimal.NewFromInt(1)).Pow(n)
		emi = p.Mul(r).Mul(growth).Div(growth.Sub(decimal.NewFromInt(1)))
	}
	emi = emi.Round(2)
	total := emi.Mul(n).Round(2)

	return domain.EMI{
		TenureMonths:  months,
		InterestRate:  annualRate,
		Amount:        emi.InexactFloat64(),
		TotalAmount:   total.InexactFloat64(),
		TotalInterest: total.Sub(p).Round(2).InexactFloat64(),
	}
}
