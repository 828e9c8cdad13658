package cli

import (
	"fmt"

	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"regie/internal/domain/charges"
	"regie/internal/domain/compensation"
)

type calcOptions struct {
	project   string
	period    string
	amounts   []string
	ratesFile string
}

func newCalcCommand() *cobra.Command {
	opts := &calcOptions{}
	cmd := &cobra.Command{
		Use:   "calc",
		Short: "Calculate social charges for ad-hoc gross amounts",
		Example: `  regie calc --project tour-2024 --period 2024-01 --amount 1000 --amount 500
  regie calc --project tour-2024 --period 2025-03 --amount 1200 --rates rates.toml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := runCalc(opts)
			if err != nil {
				return err
			}
			out, err := json.MarshalIndent(result, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}
	cmd.Flags().StringVar(&opts.project, "project", "", "project id")
	cmd.Flags().StringVar(&opts.period, "period", "", "period label, YYYY-MM")
	cmd.Flags().StringArrayVar(&opts.amounts, "amount", nil, "gross amount of one compensation record (repeatable)")
	cmd.Flags().StringVar(&opts.ratesFile, "rates", "", "rate book file (.toml, .yaml)")
	return cmd
}

func runCalc(opts *calcOptions) (charges.Result, error) {
	book := charges.DefaultRateBook()
	if opts.ratesFile != "" {
		loaded, err := charges.LoadRateBook(opts.ratesFile)
		if err != nil {
			return charges.Result{}, err
		}
		book = loaded
	}

	records := make([]compensation.Record, 0, len(opts.amounts))
	for _, raw := range opts.amounts {
		amount, err := decimal.NewFromString(raw)
		if err != nil {
			return charges.Result{}, fmt.Errorf("invalid amount %q: %w", raw, err)
		}
		if amount.IsNegative() {
			return charges.Result{}, fmt.Errorf("invalid amount %q: must not be negative", raw)
		}
		records = append(records, compensation.Record{ProjectID: opts.project, TotalAmount: amount})
	}

	result, ok := charges.Calculate(records, opts.project, opts.period, book.ForPeriod(opts.period))
	if !ok {
		return charges.Result{}, charges.ErrMissingInput
	}
	return result, nil
}
