package taxhttp

import (
	"github.com/shopspring/decimal"

	"github.com/iamxdv30/TheOmnitool-sub000/internal/tax"
)

// CalculateRequest is the cart payload accepted by every calculate route.
type CalculateRequest struct {
	Items              []ItemRequest     `json:"items" validate:"max=500,dive"`
	Discounts          []DiscountRequest `json:"discounts" validate:"max=500,dive"`
	Shipping           ShippingRequest   `json:"shipping"`
	DiscountsBeforeTax bool              `json:"discounts_before_tax"`
	DiscountsTaxable   bool              `json:"discounts_taxable"`
	Province           string            `json:"province,omitempty" validate:"omitempty,len=2,alpha"`
	VATRate            *decimal.Decimal  `json:"vat_rate,omitempty"`
}

// ItemRequest is one cart row. Discount is an item-local discount.
type ItemRequest struct {
	Price    decimal.Decimal `json:"price"`
	TaxRate  decimal.Decimal `json:"tax_rate"`
	Discount decimal.Decimal `json:"discount"`
}

// DiscountRequest targets the 1-based item index Item.
type DiscountRequest struct {
	Amount decimal.Decimal `json:"amount"`
	Item   int             `json:"item" validate:"gte=0"`
}

type ShippingRequest struct {
	Cost    decimal.Decimal `json:"cost"`
	Taxable bool            `json:"taxable"`
	Rate    decimal.Decimal `json:"rate"`
}

type provinceResponse struct {
	Code  string            `json:"code"`
	Name  string            `json:"name"`
	Taxes []taxTypeResponse `json:"taxes"`
}

type taxTypeResponse struct {
	Name string          `json:"name"`
	Rate decimal.Decimal `json:"rate"`
}

// CartInput resolves the jurisdiction for kind and converts req into the
// engine's input. Canadian rates come from provinces.
func (req CalculateRequest) CartInput(kind tax.Kind, provinces *tax.ProvinceTable) (tax.CartInput, error) {
	var j tax.Jurisdiction
	switch kind {
	case tax.KindCanada:
		var err error
		if j, err = provinces.Jurisdiction(req.Province); err != nil {
			return tax.CartInput{}, err
		}
	case tax.KindVAT:
		if req.VATRate == nil {
			return tax.CartInput{}, &tax.ValidationError{Field: "vat_rate", Reason: "is required"}
		}
		j = tax.VATSingleRate(*req.VATRate)
	default:
		j = tax.USFlat()
	}

	in := tax.CartInput{
		Items:     make([]tax.ItemInput, 0, len(req.Items)),
		Discounts: make([]tax.DiscountInput, 0, len(req.Discounts)),
		Shipping: tax.Shipping{
			Cost:    req.Shipping.Cost,
			Taxable: req.Shipping.Taxable,
			Rate:    req.Shipping.Rate,
		},
		Policy: tax.Policy{
			DiscountsBeforeTax: req.DiscountsBeforeTax,
			DiscountsTaxable:   req.DiscountsTaxable,
		},
		Jurisdiction: j,
	}
	for _, it := range req.Items {
		in.Items = append(in.Items, tax.ItemInput{Price: it.Price, TaxRate: it.TaxRate, Discount: it.Discount})
	}
	for _, d := range req.Discounts {
		in.Discounts = append(in.Discounts, tax.DiscountInput{Amount: d.Amount, Item: d.Item})
	}
	return in, nil
}
