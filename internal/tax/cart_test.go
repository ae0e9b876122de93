package tax

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCartRejectsInvalidInput(t *testing.T) {
	tests := []struct {
		name  string
		in    CartInput
		field string
	}{
		{
			name: "dangling discount target",
			in: CartInput{
				Items:        []ItemInput{{Price: dec("10"), TaxRate: dec("5")}, {Price: dec("20"), TaxRate: dec("5")}},
				Discounts:    []DiscountInput{{Amount: dec("1"), Item: 5}},
				Jurisdiction: USFlat(),
			},
			field: "discounts[1].item",
		},
		{
			name: "missing discount target",
			in: CartInput{
				Items:        []ItemInput{{Price: dec("10"), TaxRate: dec("5")}},
				Discounts:    []DiscountInput{{Amount: dec("1")}},
				Jurisdiction: USFlat(),
			},
			field: "discounts[1].item",
		},
		{
			name:  "empty cart",
			in:    CartInput{Jurisdiction: USFlat()},
			field: "items",
		},
		{
			name: "negative price",
			in: CartInput{
				Items:        []ItemInput{{Price: dec("-1"), TaxRate: dec("5")}},
				Jurisdiction: USFlat(),
			},
			field: "items[1].price",
		},
		{
			name: "rate above 100",
			in: CartInput{
				Items:        []ItemInput{{Price: dec("1"), TaxRate: dec("100.01")}},
				Jurisdiction: USFlat(),
			},
			field: "items[1].tax_rate",
		},
		{
			name: "negative discount",
			in: CartInput{
				Items:        []ItemInput{{Price: dec("10"), TaxRate: dec("5")}},
				Discounts:    []DiscountInput{{Amount: dec("-2"), Item: 1}},
				Jurisdiction: USFlat(),
			},
			field: "discounts[1].amount",
		},
		{
			name: "negative shipping",
			in: CartInput{
				Items:        []ItemInput{{Price: dec("10"), TaxRate: dec("5")}},
				Shipping:     Shipping{Cost: dec("-5")},
				Jurisdiction: USFlat(),
			},
			field: "shipping.cost",
		},
		{
			name: "taxable shipping rate out of range",
			in: CartInput{
				Items:        []ItemInput{{Price: dec("10"), TaxRate: dec("5")}},
				Shipping:     Shipping{Cost: dec("5"), Taxable: true, Rate: dec("101")},
				Jurisdiction: USFlat(),
			},
			field: "shipping.rate",
		},
		{
			name: "too many decimal places",
			in: CartInput{
				Items:        []ItemInput{{Price: dec("10.00001"), TaxRate: dec("5")}},
				Jurisdiction: USFlat(),
			},
			field: "items[1].price",
		},
		{
			name: "discounts exceed price",
			in: CartInput{
				Items:        []ItemInput{{Price: dec("10"), TaxRate: dec("5"), Discount: dec("6")}},
				Discounts:    []DiscountInput{{Amount: dec("5"), Item: 1}},
				Jurisdiction: USFlat(),
			},
			field: "items[1].discount",
		},
		{
			name: "vat rate out of range",
			in: CartInput{
				Items:        []ItemInput{{Price: dec("10")}},
				Jurisdiction: VATSingleRate(dec("120")),
			},
			field: "vat_rate",
		},
		{
			name: "canada without tax types",
			in: CartInput{
				Items:        []ItemInput{{Price: dec("10")}},
				Jurisdiction: CanadaProvincial("ON", nil),
			},
			field: "province",
		},
		{
			name: "canada targeted discount",
			in: CartInput{
				Items:        []ItemInput{{Price: dec("10")}},
				Discounts:    []DiscountInput{{Amount: dec("1"), Item: 1}},
				Jurisdiction: CanadaProvincial("ON", []TaxType{{Name: "HST", Rate: dec("13")}}),
			},
			field: "discounts[1]",
		},
		{
			name: "unset jurisdiction",
			in: CartInput{
				Items: []ItemInput{{Price: dec("10")}},
			},
			field: "jurisdiction",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewCart(tc.in)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrValidation))

			var verrs ValidationErrors
			require.True(t, errors.As(err, &verrs))
			assert.Contains(t, verrs.Fields(), tc.field)

			var single *ValidationError
			require.True(t, errors.As(err, &single))
			assert.NotEmpty(t, single.Reason)
		})
	}
}

func TestNewCartCollectsEveryProblem(t *testing.T) {
	_, err := NewCart(CartInput{
		Items:        []ItemInput{{Price: dec("-1"), TaxRate: dec("200")}},
		Discounts:    []DiscountInput{{Amount: dec("1"), Item: 3}},
		Jurisdiction: USFlat(),
	})

	var verrs ValidationErrors
	require.True(t, errors.As(err, &verrs))
	assert.Equal(t, map[string]string{
		"items[1].price":    "must not be negative",
		"items[1].tax_rate": "must be between 0 and 100",
		"discounts[1].item": "references item 3 but the cart has 1 item(s)",
	}, verrs.Fields())
}

func TestNewCartAllowsShippingOnlyCart(t *testing.T) {
	cart, err := NewCart(CartInput{
		Shipping:     Shipping{Cost: dec("50"), Taxable: true, Rate: dec("5")},
		Jurisdiction: USFlat(),
	})
	require.NoError(t, err)
	assert.Empty(t, cart.Items())
}

func TestNewCartNormalizesItemLocalDiscounts(t *testing.T) {
	cart, err := NewCart(CartInput{
		Items: []ItemInput{
			{Price: dec("10"), Discount: dec("1")},
			{Price: dec("20")},
			{Price: dec("30"), Discount: dec("3")},
		},
		Jurisdiction: CanadaProvincial("ab", []TaxType{{Name: "GST", Rate: dec("5")}}),
	})
	require.NoError(t, err)

	discounts := cart.Discounts()
	require.Len(t, discounts, 2)
	assert.Equal(t, 1, discounts[0].TargetItem)
	assert.Equal(t, 3, discounts[1].TargetItem)
	assert.Equal(t, "AB", cart.Jurisdiction().Province())
}

func TestCartIsImmutable(t *testing.T) {
	cart := mustCart(t, CartInput{
		Items:        []ItemInput{{Price: dec("10"), TaxRate: dec("5")}},
		Jurisdiction: USFlat(),
	})
	items := cart.Items()
	items[0].Price = dec("999")

	assert.Equal(t, "10", cart.Items()[0].Price.String())
}

func TestFingerprintIgnoresNumericFormatting(t *testing.T) {
	a := mustCart(t, CartInput{
		Items:        []ItemInput{{Price: dec("10"), TaxRate: dec("5")}},
		Jurisdiction: USFlat(),
	})
	b := mustCart(t, CartInput{
		Items:        []ItemInput{{Price: dec("10.00"), TaxRate: dec("5.0")}},
		Jurisdiction: USFlat(),
	})
	c := mustCart(t, CartInput{
		Items:        []ItemInput{{Price: dec("10.00"), TaxRate: dec("5.0")}},
		Policy:       Policy{DiscountsTaxable: true},
		Jurisdiction: USFlat(),
	})

	assert.Equal(t, a.Fingerprint(), b.Fingerprint())
	assert.NotEqual(t, a.Fingerprint(), c.Fingerprint())
}

func TestNewCartRejectsExtremeExponentsQuickly(t *testing.T) {
	parse := func(raw string) decimal.Decimal {
		var d decimal.Decimal
		require.NoError(t, json.Unmarshal([]byte(raw), &d))
		return d
	}

	tests := []struct {
		name   string
		in     CartInput
		field  string
		reason string
	}{
		{
			name:   "tiny price",
			in:     CartInput{Items: []ItemInput{{Price: parse("1e-4000000")}}, Jurisdiction: USFlat()},
			field:  "items[1].price",
			reason: "must have at most 4 decimal places",
		},
		{
			name:   "huge price",
			in:     CartInput{Items: []ItemInput{{Price: parse("1e4000000")}}, Jurisdiction: USFlat()},
			field:  "items[1].price",
			reason: "is too large",
		},
		{
			name:   "huge coefficient",
			in:     CartInput{Items: []ItemInput{{Price: parse("1234567890123.5")}}, Jurisdiction: USFlat()},
			field:  "items[1].price",
			reason: "is too large",
		},
		{
			name:   "tiny item rate",
			in:     CartInput{Items: []ItemInput{{Price: dec("1"), TaxRate: parse("5e-4000000")}}, Jurisdiction: USFlat()},
			field:  "items[1].tax_rate",
			reason: "must have at most 4 decimal places",
		},
		{
			name:   "huge vat rate",
			in:     CartInput{Items: []ItemInput{{Price: dec("1")}}, Jurisdiction: VATSingleRate(parse("1e4000000"))},
			field:  "vat_rate",
			reason: "must be between 0 and 100",
		},
		{
			name: "tiny shipping cost",
			in: CartInput{
				Items:        []ItemInput{{Price: dec("1")}},
				Shipping:     Shipping{Cost: parse("3e-4000000")},
				Jurisdiction: USFlat(),
			},
			field:  "shipping.cost",
			reason: "must have at most 4 decimal places",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			start := time.Now()
			_, err := NewCart(tc.in)
			elapsed := time.Since(start)

			var verrs ValidationErrors
			require.True(t, errors.As(err, &verrs))
			assert.Equal(t, tc.reason, verrs.Fields()[tc.field])
			assert.Less(t, elapsed, 50*time.Millisecond)
		})
	}
}

func TestNewCartAcceptsTrailingZerosAndLargePrices(t *testing.T) {
	_, err := NewCart(CartInput{
		Items:        []ItemInput{{Price: dec("999999999999.9999"), TaxRate: dec("7.250000")}},
		Jurisdiction: USFlat(),
	})
	require.NoError(t, err)
}
