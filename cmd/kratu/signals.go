package main

import (
	"encoding/json"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ZanzyTHEbar/kratu/internal/kratu"
	"github.com/ZanzyTHEbar/kratu/internal/source"
	"github.com/ZanzyTHEbar/kratu/internal/types"
)

func newSignalsCmd(root *rootOptions) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "signals",
		Short: "List signal definitions",
		Long: `List the signal definitions widgets are built with: the formatter, the
weight calculation and the header events bound to each signal.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			build, err := source.Build(root.manifest)
			if err != nil {
				return err
			}
			reg, err := build(kratu.New().Capabilities())
			if err != nil {
				return err
			}
			resp := types.NewSignalsResponse(reg)

			if output == "json" {
				data, err := json.MarshalIndent(resp, "", "  ")
				if err != nil {
					return err
				}
				return write(cmd.OutOrStdout(), string(data))
			}

			rows := make([][]string, 0, len(resp.Signals))
			for _, info := range resp.Signals {
				weighted := "no"
				if info.Weighted {
					weighted = "yes"
				}
				rows = append(rows, []string{
					info.Name,
					orDash(info.Format),
					orDash(info.CalculateWeight),
					orDash(strings.Join(info.Events, ", ")),
					weighted,
				})
			}
			out := titleStyle.Render("Signals") + "\n" +
				renderTable([]string{"Signal", "Format", "Calculation", "Header events", "Weighted"}, rows, nil)
			return write(cmd.OutOrStdout(), out)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "table", "Output format: table, json")
	return cmd
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
