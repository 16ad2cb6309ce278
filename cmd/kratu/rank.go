package main

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cast"
	"github.com/spf13/cobra"

	apperrors "github.com/ZanzyTHEbar/kratu/internal/errors"
	"github.com/ZanzyTHEbar/kratu/internal/kratu"
	"github.com/ZanzyTHEbar/kratu/internal/source"
	"github.com/ZanzyTHEbar/kratu/internal/widget"
)

type rankOptions struct {
	data    string
	disable []string
	weights map[string]string
	output  string
	top     int
}

func newRankCmd(root *rootOptions) *cobra.Command {
	opts := &rankOptions{}

	cmd := &cobra.Command{
		Use:   "rank",
		Short: "Score and rank a dataset",
		Long: `Score every entity of a dataset and print them ranked, highest score first.

Example usage:
  kratu rank                                   # Rank the built-in spaceships
  kratu rank --disable cost --weight engineSize=2
  kratu rank --data ships.yaml --manifest ships.hcl --output json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRank(cmd, root, opts)
		},
	}

	cmd.Flags().StringVar(&opts.data, "data", "", "Dataset file, JSON or YAML (default: built-in spaceships)")
	cmd.Flags().StringSliceVar(&opts.disable, "disable", nil, "Signals excluded from scoring")
	cmd.Flags().StringToStringVar(&opts.weights, "weight", nil, "Signal weights, e.g. cost=2,engineSize=0.5")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "table", "Output format: table, json")
	cmd.Flags().IntVar(&opts.top, "top", 0, "Only print the first N entities")
	return cmd
}

func parseWeights(raw map[string]string) (map[string]float64, error) {
	weights := make(map[string]float64, len(raw))
	for name, value := range raw {
		w, err := cast.ToFloat64E(value)
		if err != nil {
			return nil, apperrors.NewValidationError(fmt.Sprintf("weight for %s is not a number", name), value)
		}
		weights[name] = w
	}
	return weights, nil
}

func runRank(cmd *cobra.Command, root *rootOptions, opts *rankOptions) error {
	if opts.top < 0 {
		return apperrors.NewValidationError("--top must not be negative", opts.top)
	}
	weights, err := parseWeights(opts.weights)
	if err != nil {
		return err
	}

	build, err := source.Build(root.manifest)
	if err != nil {
		return err
	}
	name, entities, err := source.Dataset(opts.data)
	if err != nil {
		return err
	}

	w, err := widget.New(kratu.New(), build)
	if err != nil {
		return err
	}
	w.ID, w.Dataset = "cli", name
	w.Load(entities)
	if err := w.Configure(opts.disable, weights); err != nil {
		return err
	}

	ranking, err := w.Rank()
	if err != nil {
		return err
	}
	if opts.top > 0 && opts.top < len(ranking.Rows) {
		ranking.Rows = ranking.Rows[:opts.top]
	}

	switch opts.output {
	case "json":
		data, err := json.MarshalIndent(ranking, "", "  ")
		if err != nil {
			return err
		}
		return write(cmd.OutOrStdout(), string(data))
	case "table":
		return write(cmd.OutOrStdout(), rankingTable(name, ranking))
	default:
		return apperrors.NewValidationError(fmt.Sprintf("unknown output format %q", opts.output))
	}
}

// rankingTable shows each weighted signal's contribution. Disabled signals
// are dimmed and shown as "-".
func rankingTable(dataset string, ranking *widget.Ranking) string {
	headers := []string{"#", "Entity", "Score"}
	var weighted []widget.Column
	muted := make(map[int]bool)
	for _, col := range ranking.Columns {
		if !col.Weighted {
			continue
		}
		if col.Disabled {
			muted[len(headers)] = true
		}
		headers = append(headers, fmt.Sprintf("%s (%s)", col.Title, strconv.FormatFloat(col.Weight, 'g', -1, 64)))
		weighted = append(weighted, col)
	}

	rows := make([][]string, 0, len(ranking.Rows))
	for _, r := range ranking.Rows {
		row := []string{strconv.Itoa(r.Rank), r.Entity, fmt.Sprintf("%.2f", r.Score)}
		for _, col := range weighted {
			v, ok := r.Weights[col.Key]
			if !ok {
				row = append(row, "-")
				continue
			}
			row = append(row, fmt.Sprintf("%.2f", v))
		}
		rows = append(rows, row)
	}

	title := titleStyle.Render(fmt.Sprintf("Ranking: %s", dataset))
	return title + "\n" + renderTable(headers, rows, muted)
}
