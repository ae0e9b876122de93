// Package cli implements the taxcalc command line tool.
package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"

	"github.com/iamxdv30/TheOmnitool-sub000/internal/tax"
	taxhttp "github.com/iamxdv30/TheOmnitool-sub000/internal/tax/http"
)

// NewRootCommand builds the taxcalc command tree.
func NewRootCommand(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	var provincesFile string

	root := &cobra.Command{
		Use:           "taxcalc",
		Short:         "Compute cart tax breakdowns",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.PersistentFlags().StringVar(&provincesFile, "provinces", "", "YAML file overriding the Canadian province rates")

	loadTable := func() (*tax.ProvinceTable, error) {
		if provincesFile == "" {
			return tax.DefaultProvinces(), nil
		}
		f, err := os.Open(provincesFile)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return tax.LoadProvinces(f)
	}

	for _, kind := range []tax.Kind{tax.KindUS, tax.KindCanada, tax.KindVAT} {
		root.AddCommand(newCalculateCommand(kind, loadTable))
	}
	root.AddCommand(newProvincesCommand(loadTable))
	root.AddCommand(newCacheCommand())

	root.SetFlagErrorFunc(func(c *cobra.Command, err error) error {
		fmt.Fprintln(stderr, err)
		return err
	})
	return root
}

func newCalculateCommand(kind tax.Kind, loadTable func() (*tax.ProvinceTable, error)) *cobra.Command {
	var (
		file    string
		asJSON  bool
		langTag string
	)
	cmd := &cobra.Command{
		Use:   kind.String(),
		Short: fmt.Sprintf("Calculate a %s cart read from --file or stdin", kind),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			provinces, err := loadTable()
			if err != nil {
				return report(cmd, err)
			}
			req, err := readRequest(cmd.InOrStdin(), file)
			if err != nil {
				return report(cmd, err)
			}
			in, err := req.CartInput(kind, provinces)
			if err != nil {
				return report(cmd, err)
			}
			res, err := tax.NewService(nil, nil, nil).Calculate(cmd.Context(), in)
			if err != nil {
				return report(cmd, err)
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(res)
			}
			tag, err := language.Parse(langTag)
			if err != nil {
				return report(cmd, fmt.Errorf("invalid --lang: %w", err))
			}
			return Render(cmd.OutOrStdout(), tag, res)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "-", "cart JSON file, - for stdin")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the result as JSON")
	cmd.Flags().StringVar(&langTag, "lang", "en", "language used to format amounts")
	return cmd
}

func newProvincesCommand(loadTable func() (*tax.ProvinceTable, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "provinces",
		Short: "List the Canadian province tax table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			table, err := loadTable()
			if err != nil {
				return report(cmd, err)
			}
			return RenderProvinces(cmd.OutOrStdout(), table)
		},
	}
}

func readRequest(stdin io.Reader, file string) (taxhttp.CalculateRequest, error) {
	src := stdin
	if file != "" && file != "-" {
		f, err := os.Open(file)
		if err != nil {
			return taxhttp.CalculateRequest{}, err
		}
		defer f.Close()
		src = f
	}
	var req taxhttp.CalculateRequest
	dec := json.NewDecoder(src)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		return taxhttp.CalculateRequest{}, fmt.Errorf("decode cart: %w", err)
	}
	return req, nil
}

// report prints err to stderr, listing each invalid field for validation
// failures, and returns it so cobra exits non-zero.
func report(cmd *cobra.Command, err error) error {
	var verrs tax.ValidationErrors
	var single *tax.ValidationError
	switch {
	case errors.As(err, &verrs):
		for _, e := range verrs {
			fmt.Fprintf(cmd.ErrOrStderr(), "invalid %s: %s\n", e.Field, e.Reason)
		}
	case errors.As(err, &single):
		fmt.Fprintf(cmd.ErrOrStderr(), "invalid %s: %s\n", single.Field, single.Reason)
	default:
		fmt.Fprintln(cmd.ErrOrStderr(), "error:", err)
	}
	return err
}
