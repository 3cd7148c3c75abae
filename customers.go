package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"redforge/models"
	"redforge/services"
	"redforge/store"
)

func customersCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "customers",
		Short: "Inspect or seed the customer store",
	}
	cmd.AddCommand(customersListCmd(v))
	cmd.AddCommand(customersAddCmd(v))
	return cmd
}

func customersListCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Print every stored customer record as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, log, customers, err := setup(cmd.Context(), v)
			if err != nil {
				return err
			}
			defer func() { _ = customers.Close() }()

			res := customers.List(cmd.Context())
			if res.Status == store.ReadCorrupt || res.Status == store.ReadFailed {
				log.Warn("customer store unreadable", zap.Stringer("status", res.Status), zap.Error(res.Err))
			}

			out, err := json.MarshalIndent(models.CustomersResponse{
				Customers: res.Records,
				Count:     len(res.Records),
			}, "", "  ")
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return err
		},
	}
}

func customersAddCmd(v *viper.Viper) *cobra.Command {
	var email, tier string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Append a test customer record",
		RunE: func(cmd *cobra.Command, args []string) error {
			normalized, ok := services.NormalizeTier(tier)
			if !ok {
				return fmt.Errorf("invalid tier %q: must be starter, pro or enterprise", tier)
			}

			_, log, customers, err := setup(cmd.Context(), v)
			if err != nil {
				return err
			}
			defer func() { _ = customers.Close() }()

			record := models.CustomerRecord{
				Email:  email,
				Tier:   normalized,
				Status: models.StatusActive,
				Source: models.SourceTest,
			}
			if err := customers.Append(cmd.Context(), record); err != nil {
				return err
			}

			log.Info("test customer added", zap.String("email", email), zap.String("tier", normalized))
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "customer email")
	cmd.Flags().StringVar(&tier, "tier", services.DefaultTier, "customer tier")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}
