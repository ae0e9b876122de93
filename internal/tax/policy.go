package tax

import (
	"github.com/shopspring/decimal"
)

// Policy holds the two independent discount switches. Every combination is valid.
type Policy struct {
	// DiscountsBeforeTax taxes price minus item discounts instead of price.
	DiscountsBeforeTax bool
	// DiscountsTaxable reports a separate tax line on each item's discounts.
	DiscountsTaxable bool
}

// Condition is one of the four computation branches selected by a Policy.
type Condition int

const (
	// ConditionA taxes full prices and the discounts; discounts come off the total.
	ConditionA Condition = iota + 1
	// ConditionB taxes discounted prices and the discounts; discounts come off the total.
	ConditionB
	// ConditionC taxes full prices only; discounts come off the total.
	ConditionC
	// ConditionD taxes discounted prices only; discounts are folded into the item total.
	ConditionD
)

func (c Condition) String() string {
	switch c {
	case ConditionA:
		return "A"
	case ConditionB:
		return "B"
	case ConditionC:
		return "C"
	case ConditionD:
		return "D"
	default:
		return "?"
	}
}

// Condition selects the computation branch for p.
func (p Policy) Condition() Condition {
	switch {
	case !p.DiscountsBeforeTax && p.DiscountsTaxable:
		return ConditionA
	case p.DiscountsBeforeTax && p.DiscountsTaxable:
		return ConditionB
	case !p.DiscountsBeforeTax && !p.DiscountsTaxable:
		return ConditionC
	default:
		return ConditionD
	}
}

// discountedBase reports whether item tax is charged on price minus discounts.
func (c Condition) discountedBase() bool {
	switch c {
	case ConditionB, ConditionD:
		return true
	case ConditionA, ConditionC:
		return false
	}
	panic("tax: unknown condition " + c.String())
}

// taxesDiscounts reports whether discounts produce their own tax lines.
func (c Condition) taxesDiscounts() bool {
	switch c {
	case ConditionA, ConditionB:
		return true
	case ConditionC, ConditionD:
		return false
	}
	panic("tax: unknown condition " + c.String())
}

// foldsDiscounts reports whether discounts reduce the reported item total
// rather than being subtracted from the final amount.
func (c Condition) foldsDiscounts() bool {
	switch c {
	case ConditionD:
		return true
	case ConditionA, ConditionB, ConditionC:
		return false
	}
	panic("tax: unknown condition " + c.String())
}

// AppliedRate is one rate charged on a base. Name is empty for single-rate
// jurisdictions and the tax type (GST, PST...) for Canada.
type AppliedRate struct {
	Name string
	Rate decimal.Decimal
}

// Strategy is the resolved behavior for one calculation.
type Strategy struct {
	Condition     Condition
	ItemRates     func(LineItem) []AppliedRate
	ShippingRates func(Shipping) []AppliedRate
}

// Resolve picks the condition for policy and the rate source for j. It does
// no arithmetic.
func Resolve(policy Policy, j Jurisdiction) Strategy {
	s := Strategy{Condition: policy.Condition()}
	switch j.kind {
	case KindCanada:
		types := make([]AppliedRate, 0, len(j.taxTypes))
		for _, t := range j.taxTypes {
			types = append(types, AppliedRate{Name: t.Name, Rate: t.Rate})
		}
		s.ItemRates = func(LineItem) []AppliedRate { return types }
		s.ShippingRates = func(Shipping) []AppliedRate { return types }
	case KindVAT:
		vat := []AppliedRate{{Rate: j.vatRate}}
		s.ItemRates = func(LineItem) []AppliedRate { return vat }
		s.ShippingRates = shippingOwnRate
	default:
		s.ItemRates = func(item LineItem) []AppliedRate { return []AppliedRate{{Rate: item.TaxRate}} }
		s.ShippingRates = shippingOwnRate
	}
	return s
}

func shippingOwnRate(s Shipping) []AppliedRate {
	return []AppliedRate{{Rate: s.Rate}}
}
