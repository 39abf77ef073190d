package main

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"dealbridge-billing/internal/pricing"
)

func newQuoteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "quote",
		Short: "Price amounts with the built-in rules",
		Long: `Run the pricing rules locally. Configured scouting bands and
coupons stored in the database are not consulted.`,
	}
	cmd.AddCommand(newQuotePriceCmd(), newQuoteScoutingCmd(), newQuoteAdvisorCmd())
	return cmd
}

func newQuotePriceCmd() *cobra.Command {
	var (
		unit, discountValue string
		quantity            int
		discountType        string
	)

	cmd := &cobra.Command{
		Use:   "price",
		Short: "Price a subscription",
		Long: `Price a subscription of --quantity startups at --unit each.

Examples:
  billingctl quote price --unit 100 --quantity 3
  billingctl quote price --unit 100 --quantity 3 --discount-type percentage --discount 50`,
		RunE: func(cmd *cobra.Command, args []string) error {
			unitPrice, err := decimal.NewFromString(unit)
			if err != nil {
				return fmt.Errorf("invalid --unit: %w", err)
			}

			var d *pricing.Discount
			if discountType != "" {
				value, err := decimal.NewFromString(discountValue)
				if err != nil {
					return fmt.Errorf("invalid --discount: %w", err)
				}
				d = &pricing.Discount{Type: pricing.DiscountType(strings.ToLower(discountType)), Value: value}
				if err := d.Validate(); err != nil {
					return err
				}
			}

			total, err := pricing.SubscriptionPrice(unitPrice, quantity, d)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Total: %s\n", total.StringFixed(2))
			return nil
		},
	}
	cmd.Flags().StringVar(&unit, "unit", "", "unit price per startup")
	cmd.Flags().IntVar(&quantity, "quantity", 1, "number of startups")
	cmd.Flags().StringVar(&discountType, "discount-type", "", "percentage or fixed")
	cmd.Flags().StringVar(&discountValue, "discount", "0", "discount value")
	_ = cmd.MarkFlagRequired("unit")
	return cmd
}

func newQuoteScoutingCmd() *cobra.Command {
	var role, amount string

	cmd := &cobra.Command{
		Use:   "scouting",
		Short: "Quote a scouting fee from the default bands",
		RunE: func(cmd *cobra.Command, args []string) error {
			r := pricing.Role(role)
			if !r.Valid() {
				return pricing.ErrInvalidRole
			}
			value, err := decimal.NewFromString(amount)
			if err != nil {
				return fmt.Errorf("invalid --amount: %w", err)
			}

			fee, band, err := pricing.BandedScoutingFee(value, pricing.DefaultBands(r))
			if err != nil {
				return err
			}
			upper := "unbounded"
			if !band.Unbounded() {
				upper = band.Max.String()
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Band: [%s, %s) %s %s\n", band.Min.String(), upper, band.Value.String(), band.FeeType)
			fmt.Fprintf(out, "Fee: %s\n", fee.StringFixed(2))
			return nil
		},
	}
	cmd.Flags().StringVar(&role, "role", "Investor", "Investor or Startup")
	cmd.Flags().StringVar(&amount, "amount", "", "deal amount")
	_ = cmd.MarkFlagRequired("amount")
	return cmd
}

func newQuoteAdvisorCmd() *cobra.Command {
	var (
		fee                   string
		investorIn, startupIn bool
	)

	cmd := &cobra.Command{
		Use:   "advisor",
		Short: "Quote an advisor scouting fee",
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := decimal.NewFromString(fee)
			if err != nil {
				return fmt.Errorf("invalid --fee: %w", err)
			}
			if value.IsNegative() {
				return fmt.Errorf("--fee must not be negative")
			}
			out := pricing.AdvisorScoutingFee(value, investorIn, startupIn)
			fmt.Fprintf(cmd.OutOrStdout(), "Fee: %s\n", out.StringFixed(2))
			return nil
		},
	}
	cmd.Flags().StringVar(&fee, "fee", "", "advisory fee")
	cmd.Flags().BoolVar(&investorIn, "investor-in-network", false, "investor already in the advisor's network")
	cmd.Flags().BoolVar(&startupIn, "startup-in-network", false, "startup already in the advisor's network")
	_ = cmd.MarkFlagRequired("fee")
	return cmd
}
