package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var companyCmd = &cobra.Command{
	Use:   "company",
	Short: "Manage companies",
}

var companyCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a company with all document counters at zero",
	Example: `  salesctl company create --name "Muster AG"
  salesctl company create --name "Muster GmbH" --currency EUR`,
	RunE: runCompanyCreate,
}

func init() {
	rootCmd.AddCommand(companyCmd)
	companyCmd.AddCommand(companyCreateCmd)

	companyCreateCmd.Flags().String("name", "", "Company name (required)")
	companyCreateCmd.Flags().String("currency", "CHF", "ISO 4217 currency code")
	_ = companyCreateCmd.MarkFlagRequired("name")
}

func runCompanyCreate(cmd *cobra.Command, args []string) error {
	name, _ := cmd.Flags().GetString("name")
	currency, _ := cmd.Flags().GetString("currency")

	env, err := openEnvironment(cmd.Context())
	if err != nil {
		return err
	}
	defer env.Close()

	svc, err := env.appService(cmd.Context())
	if err != nil {
		return err
	}
	c, err := svc.CreateCompany(cmd.Context(), name, currency)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created company %d %q (%s)\n", c.ID, c.Name, c.Currency)
	return nil
}
