package cli

import (
	"fmt"
	"text/tabwriter"

	"invoicehub/internal/billing"
	"invoicehub/internal/service"

	"github.com/spf13/cobra"
)

var taxCmd = &cobra.Command{
	Use:   "tax",
	Short: "Tax presets",
}

var taxCountriesCmd = &cobra.Command{
	Use:   "countries [code]",
	Short: "List the advisory tax preset per country",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runTaxCountries,
}

func init() {
	taxCmd.AddCommand(taxCountriesCmd)
	rootCmd.AddCommand(taxCmd)
}

func runTaxCountries(cmd *cobra.Command, args []string) error {
	taxService := service.NewTaxService()

	presets := taxService.CountryDefaults()
	if len(args) == 1 {
		preset, err := taxService.CountryDefault(args[0])
		if err != nil {
			return fmt.Errorf("country %q: %w", args[0], err)
		}
		presets = []billing.CountryTaxDefault{preset}
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "CODE\tCOUNTRY\tTYPE\tRATE")
	for _, p := range presets {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s%%\n", p.Code, p.Name, p.Type, p.Rate.String())
	}
	return w.Flush()
}
