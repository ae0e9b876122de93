package tax

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// BreakdownLine explains one component of the total tax.
type BreakdownLine struct {
	Label string `json:"item"`
	Tax   Money  `json:"tax"`
}

// Result is the outcome of one calculation. Every amount is rounded to cents.
type Result struct {
	ItemTotal     Money           `json:"item_total"`
	DiscountTotal Money           `json:"discount_total"`
	ShippingCost  Money           `json:"shipping_cost"`
	ShippingTax   Money           `json:"shipping_tax"`
	TotalTax      Money           `json:"total_tax"`
	TotalAmount   Money           `json:"total_amount"`
	Breakdown     []BreakdownLine `json:"tax_breakdown"`
}

// Calculate computes the tax breakdown and total for a validated cart.
//
// Each tax line is rounded to cents before it is added to the total tax, and
// the final amount is rounded once after all additions and subtractions.
func Calculate(cart Cart) Result {
	strategy := Resolve(cart.policy, cart.jurisdiction)
	cond := strategy.Condition
	perItem := sumByItem(len(cart.items), cart.discounts)

	itemTotal := decimal.Zero
	discountTotal := decimal.Zero
	totalTax := decimal.Zero
	breakdown := make([]BreakdownLine, 0, len(cart.items)+1)

	for i, item := range cart.items {
		label := fmt.Sprintf("Item %d", i+1)
		itemDiscount := perItem[i]
		itemTotal = itemTotal.Add(item.Price)
		discountTotal = discountTotal.Add(itemDiscount)

		base := item.Price
		if cond.discountedBase() {
			base = base.Sub(itemDiscount)
		}
		rates := strategy.ItemRates(item)
		for _, r := range rates {
			t := taxLine(base, r.Rate)
			totalTax = totalTax.Add(t)
			breakdown = append(breakdown, BreakdownLine{Label: lineLabel(label, r.Name), Tax: Money{t}})
		}

		if cond.taxesDiscounts() && itemDiscount.IsPositive() {
			for _, r := range rates {
				t := taxLine(itemDiscount, r.Rate)
				totalTax = totalTax.Add(t)
				breakdown = append(breakdown, BreakdownLine{Label: lineLabel(label+" Discount", r.Name), Tax: Money{t}})
			}
		}
	}

	shippingCost := cart.shipping.Cost
	shippingTax := decimal.Zero
	if cart.shipping.Taxable && shippingCost.IsPositive() {
		for _, r := range strategy.ShippingRates(cart.shipping) {
			t := taxLine(shippingCost, r.Rate)
			shippingTax = shippingTax.Add(t)
			breakdown = append(breakdown, BreakdownLine{Label: lineLabel("Shipping", r.Name), Tax: Money{t}})
		}
		totalTax = totalTax.Add(shippingTax)
	}

	var total decimal.Decimal
	if cond.foldsDiscounts() {
		itemTotal = itemTotal.Sub(discountTotal)
		total = itemTotal.Add(totalTax).Add(shippingCost)
	} else {
		total = itemTotal.Add(totalTax).Add(shippingCost).Sub(discountTotal)
	}

	return Result{
		ItemTotal:     NewMoney(itemTotal),
		DiscountTotal: NewMoney(discountTotal),
		ShippingCost:  NewMoney(shippingCost),
		ShippingTax:   NewMoney(shippingTax),
		TotalTax:      NewMoney(totalTax),
		TotalAmount:   NewMoney(total),
		Breakdown:     breakdown,
	}
}

func lineLabel(base, taxName string) string {
	if taxName == "" {
		return base
	}
	return base + ": " + taxName
}

// Rounded returns r with every amount re-rounded to cents. A Result built by
// Calculate is unchanged by it.
func (r Result) Rounded() Result {
	out := Result{
		ItemTotal:     NewMoney(r.ItemTotal.Decimal),
		DiscountTotal: NewMoney(r.DiscountTotal.Decimal),
		ShippingCost:  NewMoney(r.ShippingCost.Decimal),
		ShippingTax:   NewMoney(r.ShippingTax.Decimal),
		TotalTax:      NewMoney(r.TotalTax.Decimal),
		TotalAmount:   NewMoney(r.TotalAmount.Decimal),
		Breakdown:     make([]BreakdownLine, len(r.Breakdown)),
	}
	for i, line := range r.Breakdown {
		out.Breakdown[i] = BreakdownLine{Label: line.Label, Tax: NewMoney(line.Tax.Decimal)}
	}
	return out
}
