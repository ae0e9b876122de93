package tax

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Province is a Canadian province or territory with the taxes it levies.
type Province struct {
	Code  string    `json:"code"`
	Name  string    `json:"name"`
	Taxes []TaxType `json:"-"`
}

// ProvinceTable is a read-only lookup of provinces by two-letter code.
type ProvinceTable struct {
	byCode map[string]Province
}

var defaultProvinces = []Province{
	{Code: "AB", Name: "Alberta", Taxes: rates("GST", "5")},
	{Code: "BC", Name: "British Columbia", Taxes: rates("GST", "5", "PST", "7")},
	{Code: "MB", Name: "Manitoba", Taxes: rates("GST", "5", "PST", "7")},
	{Code: "NB", Name: "New Brunswick", Taxes: rates("HST", "15")},
	{Code: "NL", Name: "Newfoundland and Labrador", Taxes: rates("HST", "15")},
	{Code: "NS", Name: "Nova Scotia", Taxes: rates("HST", "15")},
	{Code: "NT", Name: "Northwest Territories", Taxes: rates("GST", "5")},
	{Code: "NU", Name: "Nunavut", Taxes: rates("GST", "5")},
	{Code: "ON", Name: "Ontario", Taxes: rates("HST", "13")},
	{Code: "PE", Name: "Prince Edward Island", Taxes: rates("HST", "15")},
	{Code: "QC", Name: "Quebec", Taxes: rates("GST", "5", "QST", "9.975")},
	{Code: "SK", Name: "Saskatchewan", Taxes: rates("GST", "5", "PST", "6")},
	{Code: "YT", Name: "Yukon", Taxes: rates("GST", "5")},
}

func rates(pairs ...string) []TaxType {
	out := make([]TaxType, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, TaxType{Name: pairs[i], Rate: decimal.RequireFromString(pairs[i+1])})
	}
	return out
}

// DefaultProvinces returns the built-in province table.
func DefaultProvinces() *ProvinceTable {
	t, err := NewProvinceTable(defaultProvinces)
	if err != nil {
		panic(err)
	}
	return t
}

// NewProvinceTable validates provinces and indexes them by code.
func NewProvinceTable(provinces []Province) (*ProvinceTable, error) {
	if len(provinces) == 0 {
		return nil, errors.New("tax: province table is empty")
	}
	table := &ProvinceTable{byCode: make(map[string]Province, len(provinces))}
	for _, p := range provinces {
		code := strings.ToUpper(strings.TrimSpace(p.Code))
		if code == "" {
			return nil, errors.New("tax: province code is required")
		}
		if _, dup := table.byCode[code]; dup {
			return nil, fmt.Errorf("tax: duplicate province %s", code)
		}
		var errs ValidationErrors
		CanadaProvincial(code, p.Taxes).validate(&errs)
		if err := errs.err(); err != nil {
			return nil, fmt.Errorf("tax: province %s: %w", code, err)
		}
		p.Code = code
		p.Taxes = CanadaProvincial(code, p.Taxes).TaxTypes()
		table.byCode[code] = p
	}
	return table, nil
}

type provinceFile struct {
	Provinces []struct {
		Code  string `yaml:"code"`
		Name  string `yaml:"name"`
		Taxes []struct {
			Name string `yaml:"name"`
			Rate string `yaml:"rate"`
		} `yaml:"taxes"`
	} `yaml:"provinces"`
}

// LoadProvinces reads a YAML province table:
//
//	provinces:
//	  - code: ON
//	    name: Ontario
//	    taxes:
//	      - name: HST
//	        rate: "13"
func LoadProvinces(r io.Reader) (*ProvinceTable, error) {
	var file provinceFile
	if err := yaml.NewDecoder(r).Decode(&file); err != nil {
		return nil, fmt.Errorf("tax: decode provinces: %w", err)
	}
	provinces := make([]Province, 0, len(file.Provinces))
	for _, p := range file.Provinces {
		prov := Province{Code: p.Code, Name: p.Name}
		for _, t := range p.Taxes {
			rate, err := decimal.NewFromString(strings.TrimSpace(t.Rate))
			if err != nil {
				return nil, fmt.Errorf("tax: province %s: rate %q: %w", p.Code, t.Rate, err)
			}
			if err := CheckInputRange(rate); err != nil {
				return nil, fmt.Errorf("tax: province %s: rate %q %w", p.Code, t.Rate, err)
			}
			prov.Taxes = append(prov.Taxes, TaxType{Name: strings.ToUpper(strings.TrimSpace(t.Name)), Rate: rate})
		}
		provinces = append(provinces, prov)
	}
	return NewProvinceTable(provinces)
}

// Lookup returns the province for code, ignoring case.
func (t *ProvinceTable) Lookup(code string) (Province, bool) {
	if t == nil {
		return Province{}, false
	}
	p, ok := t.byCode[strings.ToUpper(strings.TrimSpace(code))]
	return p, ok
}

// Jurisdiction returns the Canadian jurisdiction for code, or a
// ValidationError when the code is unknown.
func (t *ProvinceTable) Jurisdiction(code string) (Jurisdiction, error) {
	p, ok := t.Lookup(code)
	if !ok {
		return Jurisdiction{}, &ValidationError{Field: "province", Reason: fmt.Sprintf("unknown province %q", code)}
	}
	return CanadaProvincial(p.Code, p.Taxes), nil
}

// All returns the provinces sorted by code.
func (t *ProvinceTable) All() []Province {
	if t == nil {
		return nil
	}
	out := make([]Province, 0, len(t.byCode))
	for _, p := range t.byCode {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}
