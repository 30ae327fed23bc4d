package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/viralforge/partner-portal/internal/application"
	"github.com/viralforge/partner-portal/internal/domain"
)

func newStatementCmd(env *commandEnv) *cobra.Command {
	var (
		partnerID string
		from      string
		to        string
		asOf      string
	)
	cmd := &cobra.Command{
		Use:   "statement",
		Short: "Recompute a partner's commission statement",
		Example: `  portalctl statement --partner 9f1c... --from 2026-01 --to 2026-03
  portalctl statement --partner 9f1c... --as-of 2026-02-15T00:00:00Z -o json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			query := application.StatementQuery{PartnerID: partnerID, From: from, To: to}
			if asOf != "" {
				t, err := time.Parse(time.RFC3339, asOf)
				if err != nil {
					return fmt.Errorf("--as-of must be RFC3339: %w", err)
				}
				query.AsOf = &t
			}
			return env.run(cmd, func(ctx context.Context, backend Backend) error {
				result, err := backend.Service().GetStatement(ctx, operatorActor(), query)
				if err != nil {
					return err
				}
				if env.flags.output == outputJSON {
					return writeJSON(cmd.OutOrStdout(), result)
				}
				renderStatement(cmd.OutOrStdout(), result)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&partnerID, "partner", "p", "", "Partner id (required)")
	cmd.Flags().StringVar(&from, "from", "", "First period to include, YYYY-MM")
	cmd.Flags().StringVar(&to, "to", "", "Last period to include, YYYY-MM")
	cmd.Flags().StringVar(&asOf, "as-of", "", "Project the statement as it stood at this RFC3339 instant")
	_ = cmd.MarkFlagRequired("partner")
	return cmd
}

func newReportCmd(env *commandEnv) *cobra.Command {
	var period string
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Commission per active partner for one period",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return env.run(cmd, func(ctx context.Context, backend Backend) error {
				report, err := backend.Service().CommissionReport(ctx, operatorActor(), period)
				if err != nil {
					return err
				}
				if env.flags.output == outputJSON {
					return writeJSON(cmd.OutOrStdout(), report)
				}
				renderReport(cmd.OutOrStdout(), report)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&period, "period", domain.PeriodOf(time.Now()).String(), "Period, YYYY-MM")
	return cmd
}

func newCloseMonthCmd(env *commandEnv) *cobra.Command {
	var period string
	cmd := &cobra.Command{
		Use:   "close-month",
		Short: "Freeze commission payouts for a finished period",
		Long: `Snapshots each partner's commission for the period into payout records.
Re-running for a closed period keeps the existing payouts.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return env.run(cmd, func(ctx context.Context, backend Backend) error {
				result, err := backend.Service().CloseMonth(ctx, operatorActor(), period)
				if err != nil {
					return err
				}
				if env.flags.output == outputJSON {
					return writeJSON(cmd.OutOrStdout(), result)
				}
				renderCloseMonth(cmd.OutOrStdout(), result)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&period, "period", domain.PeriodOf(time.Now()).Prev().String(), "Period to close, YYYY-MM")
	return cmd
}

func newStockCmd(env *commandEnv) *cobra.Command {
	var partnerID string
	cmd := &cobra.Command{
		Use:   "stock",
		Short: "Show kit stock held by a partner, or the warehouse when no partner is given",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return env.run(cmd, func(ctx context.Context, backend Backend) error {
				svc := backend.Service()
				if partnerID == "" {
					kits, err := svc.ListKits(ctx, operatorActor())
					if err != nil {
						return err
					}
					if env.flags.output == outputJSON {
						return writeJSON(cmd.OutOrStdout(), kits)
					}
					renderKits(cmd.OutOrStdout(), kits)
					return nil
				}
				stock, err := svc.ListPartnerStock(ctx, operatorActor(), partnerID)
				if err != nil {
					return err
				}
				if env.flags.output == outputJSON {
					return writeJSON(cmd.OutOrStdout(), stock)
				}
				renderStock(cmd.OutOrStdout(), stock)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&partnerID, "partner", "p", "", "Partner id")
	return cmd
}

func newMigrateCmd(env *commandEnv) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the embedded database schema",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return env.run(cmd, func(ctx context.Context, backend Backend) error {
				names, err := backend.Migrate(ctx)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(names) == 0 {
					fmt.Fprintln(out, "nothing to migrate")
					return nil
				}
				for _, name := range names {
					fmt.Fprintln(out, "applied "+name)
				}
				fmt.Fprintf(out, "%d migration(s) applied\n", len(names))
				return nil
			})
		},
	}
}
