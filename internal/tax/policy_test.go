package tax

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPolicyConditionIsExhaustive(t *testing.T) {
	seen := map[Condition]Policy{}
	for _, p := range allPolicies() {
		c := p.Condition()
		_, dup := seen[c]
		require.False(t, dup, "condition %s selected twice", c)
		seen[c] = p
	}
	assert.Len(t, seen, 4)
	assert.Equal(t, Policy{DiscountsBeforeTax: false, DiscountsTaxable: true}, seen[ConditionA])
	assert.Equal(t, Policy{DiscountsBeforeTax: true, DiscountsTaxable: true}, seen[ConditionB])
	assert.Equal(t, Policy{DiscountsBeforeTax: false, DiscountsTaxable: false}, seen[ConditionC])
	assert.Equal(t, Policy{DiscountsBeforeTax: true, DiscountsTaxable: false}, seen[ConditionD])
}

func TestResolveRateSources(t *testing.T) {
	item := LineItem{Price: dec("10"), TaxRate: dec("8.25")}
	ship := Shipping{Cost: dec("5"), Taxable: true, Rate: dec("3")}

	us := Resolve(Policy{}, USFlat())
	require.Len(t, us.ItemRates(item), 1)
	assert.Equal(t, "8.25", us.ItemRates(item)[0].Rate.String())
	assert.Equal(t, "3", us.ShippingRates(ship)[0].Rate.String())

	vat := Resolve(Policy{}, VATSingleRate(dec("21")))
	assert.Equal(t, "21", vat.ItemRates(item)[0].Rate.String())
	assert.Equal(t, "3", vat.ShippingRates(ship)[0].Rate.String())

	ca := Resolve(Policy{DiscountsBeforeTax: true}, CanadaProvincial("SK", []TaxType{
		{Name: "GST", Rate: dec("5")},
		{Name: "PST", Rate: dec("6")},
	}))
	assert.Equal(t, ConditionD, ca.Condition)
	names := []string{}
	for _, r := range ca.ItemRates(item) {
		names = append(names, r.Name)
	}
	assert.Equal(t, []string{"GST", "PST"}, names)
	assert.Len(t, ca.ShippingRates(ship), 2)
}

func TestParseKind(t *testing.T) {
	for input, want := range map[string]Kind{"us": KindUS, "CA": KindCanada, " vat ": KindVAT} {
		got, err := ParseKind(input)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseKind("mars")
	assert.Error(t, err)
}
