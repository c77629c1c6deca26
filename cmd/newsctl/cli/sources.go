package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List configured feed sources",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "NAME\tFORMAT\tLANGUAGE\tENDPOINT")
		for _, s := range cfg.Sources {
			lang := s.Language
			if lang == "" {
				lang = "-"
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", s.Name, s.Format, lang, s.Endpoint)
		}
		return tw.Flush()
	},
}
