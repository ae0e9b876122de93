package taxhttp

import (
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/iamxdv30/TheOmnitool-sub000/internal/platform/httpx"
	"github.com/iamxdv30/TheOmnitool-sub000/internal/tax"
)

var (
	itemPriceField    = regexp.MustCompile(`^item_price_(\d+)$`)
	discountItemField = regexp.MustCompile(`^discount_(?:amount|item)_(\d+)$`)
)

// formError reports form fields that could not be parsed.
type formError map[string]string

func (e formError) Error() string {
	keys := make([]string, 0, len(e))
	for k := range e {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return "taxhttp: invalid form fields: " + strings.Join(keys, ", ")
}

func (e formError) Fields() map[string]string { return e }

// parseForm reads the classic calculator form. Rows are numbered by the
// browser and may have gaps once rows are removed; they are compacted in
// ascending order and discount_item_N values follow the renumbering.
func parseForm(r *http.Request) (CalculateRequest, error) {
	if err := r.ParseForm(); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return CalculateRequest{}, fmt.Errorf("%w: limit %d bytes", httpx.ErrBodyTooLarge, tooLarge.Limit)
		}
		return CalculateRequest{}, formError{"form": err.Error()}
	}
	errs := formError{}
	var req CalculateRequest

	rows := rowNumbers(r, itemPriceField)
	position := make(map[int]int, len(rows))
	for i, row := range rows {
		position[row] = i + 1
		req.Items = append(req.Items, ItemRequest{
			Price:    formDecimal(r, fmt.Sprintf("item_price_%d", row), errs),
			TaxRate:  formDecimal(r, fmt.Sprintf("tax_rate_%d", row), errs),
			Discount: formDecimal(r, fmt.Sprintf("item_discount_%d", row), errs),
		})
	}

	for _, n := range rowNumbers(r, discountItemField) {
		amountField := fmt.Sprintf("discount_amount_%d", n)
		itemField := fmt.Sprintf("discount_item_%d", n)
		d := DiscountRequest{Amount: formDecimal(r, amountField, errs)}
		raw := strings.TrimSpace(r.PostFormValue(itemField))
		if raw != "" {
			row, err := strconv.Atoi(raw)
			if err != nil {
				errs[itemField] = "must be an item number"
			} else if pos, ok := position[row]; ok {
				d.Item = pos
			} else {
				errs[itemField] = fmt.Sprintf("references item %d which is not in the cart", row)
			}
		}
		req.Discounts = append(req.Discounts, d)
	}

	req.Shipping = ShippingRequest{
		Cost:    formDecimal(r, "shipping_cost", errs),
		Taxable: formBool(r, "shipping_taxable"),
		Rate:    formDecimal(r, "shipping_tax_rate", errs),
	}
	req.DiscountsBeforeTax = formBool(r, "discounts_before_tax")
	req.DiscountsTaxable = formBool(r, "discounts_taxable")
	req.Province = strings.TrimSpace(r.PostFormValue("province"))
	if raw := strings.TrimSpace(r.PostFormValue("vat_rate")); raw != "" {
		rate := formDecimal(r, "vat_rate", errs)
		req.VATRate = &rate
	}

	if len(errs) > 0 {
		return CalculateRequest{}, errs
	}
	return req, nil
}

func rowNumbers(r *http.Request, pattern *regexp.Regexp) []int {
	seen := map[int]struct{}{}
	for key := range r.PostForm {
		m := pattern.FindStringSubmatch(key)
		if m == nil {
			continue
		}
		if n, err := strconv.Atoi(m[1]); err == nil {
			seen[n] = struct{}{}
		}
	}
	rows := make([]int, 0, len(seen))
	for n := range seen {
		rows = append(rows, n)
	}
	sort.Ints(rows)
	return rows
}

func formDecimal(r *http.Request, field string, errs formError) decimal.Decimal {
	raw := strings.TrimSpace(r.PostFormValue(field))
	if raw == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		errs[field] = "must be a number"
		return decimal.Zero
	}
	if err := tax.CheckInputRange(d); err != nil {
		errs[field] = err.Error()
		return decimal.Zero
	}
	return d
}

func formBool(r *http.Request, field string) bool {
	switch strings.ToLower(strings.TrimSpace(r.PostFormValue(field))) {
	case "1", "on", "true", "yes":
		return true
	default:
		return false
	}
}
