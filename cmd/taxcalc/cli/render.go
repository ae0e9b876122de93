package cli

import (
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/iamxdv30/TheOmnitool-sub000/internal/tax"
)

// Render writes a human readable breakdown with amounts formatted for tag.
func Render(w io.Writer, tag language.Tag, res tax.Result) error {
	p := message.NewPrinter(tag)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', tabwriter.AlignRight)

	row := func(label string, m tax.Money) {
		p.Fprintf(tw, "%s\t%s\t\n", label, formatMoney(p, m))
	}

	for _, line := range res.Breakdown {
		row(line.Label, line.Tax)
	}
	p.Fprintf(tw, "\t\t\n")
	row("Items", res.ItemTotal)
	row("Discounts", res.DiscountTotal)
	row("Shipping", res.ShippingCost)
	row("Shipping tax", res.ShippingTax)
	row("Total tax", res.TotalTax)
	row("Total", res.TotalAmount)
	return tw.Flush()
}

// formatMoney groups the integer digits for the printer's locale and keeps
// the cents exactly as the decimal holds them.
func formatMoney(p *message.Printer, m tax.Money) string {
	s := m.StringFixed(2)
	sign := ""
	if rest, ok := strings.CutPrefix(s, "-"); ok {
		sign, s = "-", rest
	}
	whole, cents, _ := strings.Cut(s, ".")
	if n, err := strconv.ParseUint(whole, 10, 64); err == nil {
		whole = p.Sprintf("%d", n)
	}
	return sign + whole + decimalSeparator(p) + cents
}

func decimalSeparator(p *message.Printer) string {
	if sep := strings.Trim(p.Sprintf("%.1f", 1.5), "15"); sep != "" {
		return sep
	}
	return "."
}

// RenderProvinces writes one line per province with its tax rates.
func RenderProvinces(w io.Writer, table *tax.ProvinceTable) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, p := range table.All() {
		rates := ""
		for i, t := range p.Taxes {
			if i > 0 {
				rates += " + "
			}
			rates += t.Name + " " + t.Rate.String() + "%"
		}
		if _, err := io.WriteString(tw, p.Code+"\t"+p.Name+"\t"+rates+"\n"); err != nil {
			return err
		}
	}
	return tw.Flush()
}
