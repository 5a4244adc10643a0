package orders

import (
	"github.com/Toite-app/api-sub001/pkg/db/models"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// deriveLineAmounts resolves the percent fields of a line into per-unit
// amounts and the per-unit final price:
//
//	finalPrice = price + surchargeAmount - discountAmount
//
// Percent fields win over pre-set amounts when non-zero; all results are
// rounded to cents.
func deriveLineAmounts(line *models.OrderDish) {
	if line.SurchargePercent.IsPositive() {
		line.SurchargeAmount = line.Price.Mul(line.SurchargePercent).Div(hundred).Round(2)
	}
	if line.DiscountPercent.IsPositive() {
		line.DiscountAmount = line.Price.Mul(line.DiscountPercent).Div(hundred).Round(2)
	}
	line.FinalPrice = line.Price.Add(line.SurchargeAmount).Sub(line.DiscountAmount).Round(2)
}

// sumTotals folds live lines into the order's four money fields. Quantity
// multiplies every component; returned quantity does not reduce totals, a
// return is surfaced separately on the bill.
func sumTotals(lines []models.OrderDish) OrderTotals {
	totals := OrderTotals{
		Subtotal:        decimal.Zero,
		SurchargeAmount: decimal.Zero,
		DiscountAmount:  decimal.Zero,
		Total:           decimal.Zero,
	}
	for _, line := range lines {
		if !line.IsLive() {
			continue
		}
		qty := decimal.NewFromInt(int64(line.Quantity))
		totals.Subtotal = totals.Subtotal.Add(line.Price.Mul(qty))
		totals.SurchargeAmount = totals.SurchargeAmount.Add(line.SurchargeAmount.Mul(qty))
		totals.DiscountAmount = totals.DiscountAmount.Add(line.DiscountAmount.Mul(qty))
		totals.Total = totals.Total.Add(line.FinalPrice.Mul(qty))
	}
	totals.Subtotal = totals.Subtotal.Round(2)
	totals.SurchargeAmount = totals.SurchargeAmount.Round(2)
	totals.DiscountAmount = totals.DiscountAmount.Round(2)
	totals.Total = totals.Total.Round(2)
	return totals
}

func countLive(lines []models.OrderDish) int {
	live := 0
	for _, line := range lines {
		if line.IsLive() {
			live++
		}
	}
	return live
}

func allLiveReady(lines []models.OrderDish) bool {
	live := 0
	for _, line := range lines {
		if !line.IsLive() {
			continue
		}
		live++
		if !line.Status.IsKitchenDone() {
			return false
		}
	}
	return live > 0
}
