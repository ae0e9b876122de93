package tax

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Kind tags the jurisdiction variant of a calculation.
type Kind int

const (
	// KindUS charges each line item at its own rate.
	KindUS Kind = iota + 1
	// KindCanada applies every tax type of a province to each item and to shipping.
	KindCanada
	// KindVAT applies one rate to the whole cart.
	KindVAT
)

func (k Kind) String() string {
	switch k {
	case KindUS:
		return "us"
	case KindCanada:
		return "canada"
	case KindVAT:
		return "vat"
	default:
		return "unknown"
	}
}

// ParseKind maps the names used in URLs and the CLI to a Kind.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "us", "usa", "us_flat":
		return KindUS, nil
	case "canada", "ca":
		return KindCanada, nil
	case "vat", "eu":
		return KindVAT, nil
	default:
		return 0, fmt.Errorf("tax: unknown jurisdiction %q", s)
	}
}

// TaxType is one named tax levied by a province, e.g. GST at 5%.
type TaxType struct {
	Name string
	Rate decimal.Decimal
}

// Jurisdiction selects the rate structure of a calculation. Build it with
// USFlat, VATSingleRate or CanadaProvincial.
type Jurisdiction struct {
	kind     Kind
	vatRate  decimal.Decimal
	province string
	taxTypes []TaxType
}

// USFlat returns the jurisdiction where every item carries its own rate.
func USFlat() Jurisdiction {
	return Jurisdiction{kind: KindUS}
}

// VATSingleRate returns the jurisdiction applying rate percent to every item.
func VATSingleRate(rate decimal.Decimal) Jurisdiction {
	return Jurisdiction{kind: KindVAT, vatRate: rate}
}

// CanadaProvincial returns the jurisdiction for province with its tax types.
func CanadaProvincial(province string, types []TaxType) Jurisdiction {
	copied := make([]TaxType, len(types))
	copy(copied, types)
	return Jurisdiction{kind: KindCanada, province: strings.ToUpper(strings.TrimSpace(province)), taxTypes: copied}
}

func (j Jurisdiction) Kind() Kind { return j.kind }

func (j Jurisdiction) VATRate() decimal.Decimal { return j.vatRate }

func (j Jurisdiction) Province() string { return j.province }

// TaxTypes returns a copy of the configured Canadian tax types.
func (j Jurisdiction) TaxTypes() []TaxType {
	out := make([]TaxType, len(j.taxTypes))
	copy(out, j.taxTypes)
	return out
}

func (j Jurisdiction) validate(errs *ValidationErrors) {
	switch j.kind {
	case KindUS:
	case KindVAT:
		checkRate(errs, "vat_rate", j.vatRate)
	case KindCanada:
		if j.province == "" {
			errs.add("province", "is required")
		}
		if len(j.taxTypes) == 0 {
			errs.add("province", "has no tax types configured")
		}
		for i, t := range j.taxTypes {
			if strings.TrimSpace(t.Name) == "" {
				errs.add(fmt.Sprintf("province.taxes[%d].name", i+1), "is required")
			}
			checkRate(errs, fmt.Sprintf("province.taxes[%d].rate", i+1), t.Rate)
		}
	default:
		errs.add("jurisdiction", "is not supported")
	}
}
