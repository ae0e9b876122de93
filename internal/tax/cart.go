package tax

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	hundred      = decimal.NewFromInt(100)
	errRateRange = errors.New("must be between 0 and 100")
)

// LineItem is one priced cart row. TaxRate is a percentage and is only read
// by the US variant.
type LineItem struct {
	Price   decimal.Decimal
	TaxRate decimal.Decimal
}

// Discount reduces one line item. TargetItem is 1-based.
type Discount struct {
	Amount     decimal.Decimal
	TargetItem int
}

// Shipping is the cart's shipping charge. Rate is a percentage used when
// Taxable is set; Canadian carts use the province taxes instead.
type Shipping struct {
	Cost    decimal.Decimal
	Taxable bool
	Rate    decimal.Decimal
}

// ItemInput is a raw cart row. Discount is an item-local discount, the only
// form Canadian carts use; it becomes a Discount targeting this row.
type ItemInput struct {
	Price    decimal.Decimal
	TaxRate  decimal.Decimal
	Discount decimal.Decimal
}

// DiscountInput is a raw discount referencing a 1-based item index.
type DiscountInput struct {
	Amount decimal.Decimal
	Item   int
}

// CartInput is the unvalidated request for one calculation.
type CartInput struct {
	Items        []ItemInput
	Discounts    []DiscountInput
	Shipping     Shipping
	Policy       Policy
	Jurisdiction Jurisdiction
}

// Cart is a validated, immutable calculation request. Construct it with NewCart.
type Cart struct {
	items        []LineItem
	discounts    []Discount
	shipping     Shipping
	policy       Policy
	jurisdiction Jurisdiction
}

// NewCart validates in and returns the normalized cart. All problems are
// reported together as ValidationErrors.
func NewCart(in CartInput) (Cart, error) {
	var errs ValidationErrors

	in.Jurisdiction.validate(&errs)

	hasShipping := in.Shipping.Cost.IsPositive()
	if len(in.Items) == 0 && !hasShipping {
		errs.add("items", "cart is empty")
	}

	items := make([]LineItem, 0, len(in.Items))
	var discounts []Discount
	for i, row := range in.Items {
		field := fmt.Sprintf("items[%d]", i+1)
		checkAmount(&errs, field+".price", row.Price)
		if in.Jurisdiction.Kind() == KindUS {
			checkRate(&errs, field+".tax_rate", row.TaxRate)
		}
		checkAmount(&errs, field+".discount", row.Discount)
		items = append(items, LineItem{Price: row.Price, TaxRate: row.TaxRate})
		if row.Discount.IsPositive() {
			discounts = append(discounts, Discount{Amount: row.Discount, TargetItem: i + 1})
		}
	}

	for i, d := range in.Discounts {
		field := fmt.Sprintf("discounts[%d]", i+1)
		if in.Jurisdiction.Kind() == KindCanada {
			errs.add(field, "targeted discounts are not accepted for canada; use items[N].discount")
			continue
		}
		checkAmount(&errs, field+".amount", d.Amount)
		if d.Item < 1 || d.Item > len(items) {
			errs.add(field+".item", "references item %d but the cart has %d item(s)", d.Item, len(items))
			continue
		}
		discounts = append(discounts, Discount{Amount: d.Amount, TargetItem: d.Item})
	}

	checkAmount(&errs, "shipping.cost", in.Shipping.Cost)
	if in.Shipping.Taxable && in.Jurisdiction.Kind() != KindCanada {
		checkRate(&errs, "shipping.rate", in.Shipping.Rate)
	}

	if len(errs) == 0 {
		perItem := sumByItem(len(items), discounts)
		for i, total := range perItem {
			if total.GreaterThan(items[i].Price) {
				errs.add(fmt.Sprintf("items[%d].discount", i+1), "discounts %s exceed price %s", total.String(), items[i].Price.String())
			}
		}
	}

	if err := errs.err(); err != nil {
		return Cart{}, err
	}
	return Cart{
		items:        items,
		discounts:    discounts,
		shipping:     in.Shipping,
		policy:       in.Policy,
		jurisdiction: in.Jurisdiction,
	}, nil
}

func checkAmount(errs *ValidationErrors, field string, d decimal.Decimal) {
	if d.IsNegative() {
		errs.add(field, "must not be negative")
		return
	}
	if err := CheckInputRange(d); err != nil {
		errs.add(field, "%s", err)
		return
	}
	if !withinInputPrecision(d) {
		errs.add(field, "must have at most %d decimal places", inputPlaces)
	}
}

func checkRate(errs *ValidationErrors, field string, d decimal.Decimal) {
	if d.IsNegative() {
		errs.add(field, "%s", errRateRange)
		return
	}
	if err := CheckInputRange(d); err != nil {
		if errors.Is(err, errTooLarge) {
			err = errRateRange
		}
		errs.add(field, "%s", err)
		return
	}
	if d.GreaterThan(hundred) {
		errs.add(field, "%s", errRateRange)
		return
	}
	if !withinInputPrecision(d) {
		errs.add(field, "must have at most %d decimal places", inputPlaces)
	}
}

func sumByItem(n int, discounts []Discount) []decimal.Decimal {
	out := make([]decimal.Decimal, n)
	for i := range out {
		out[i] = decimal.Zero
	}
	for _, d := range discounts {
		out[d.TargetItem-1] = out[d.TargetItem-1].Add(d.Amount)
	}
	return out
}

// Items returns a copy of the line items.
func (c Cart) Items() []LineItem {
	out := make([]LineItem, len(c.items))
	copy(out, c.items)
	return out
}

// Discounts returns a copy of the normalized discounts.
func (c Cart) Discounts() []Discount {
	out := make([]Discount, len(c.discounts))
	copy(out, c.discounts)
	return out
}

func (c Cart) Shipping() Shipping { return c.shipping }

func (c Cart) Policy() Policy { return c.policy }

func (c Cart) Jurisdiction() Jurisdiction { return c.jurisdiction }

// Fingerprint is a stable digest of everything that affects the result.
// Numerically equal inputs produce the same fingerprint.
func (c Cart) Fingerprint() string {
	var b strings.Builder
	fmt.Fprintf(&b, "k=%s;p=%t,%t;", c.jurisdiction.kind, c.policy.DiscountsBeforeTax, c.policy.DiscountsTaxable)
	switch c.jurisdiction.kind {
	case KindVAT:
		fmt.Fprintf(&b, "vat=%s;", canonical(c.jurisdiction.vatRate))
	case KindCanada:
		fmt.Fprintf(&b, "prov=%s;", c.jurisdiction.province)
		for _, t := range c.jurisdiction.taxTypes {
			fmt.Fprintf(&b, "%s=%s,", t.Name, canonical(t.Rate))
		}
		b.WriteString(";")
	}
	for _, it := range c.items {
		fmt.Fprintf(&b, "i=%s@%s;", canonical(it.Price), canonical(it.TaxRate))
	}
	for _, d := range c.discounts {
		fmt.Fprintf(&b, "d=%s>%d;", canonical(d.Amount), d.TargetItem)
	}
	fmt.Fprintf(&b, "s=%s,%t,%s", canonical(c.shipping.Cost), c.shipping.Taxable, canonical(c.shipping.Rate))
	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

func canonical(d decimal.Decimal) string {
	return d.StringFixed(inputPlaces)
}
