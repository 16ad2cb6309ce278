package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"

	apperrors "github.com/ZanzyTHEbar/kratu/internal/errors"
	"github.com/ZanzyTHEbar/kratu/internal/kratu"
	"github.com/ZanzyTHEbar/kratu/internal/source"
	"github.com/ZanzyTHEbar/kratu/internal/widget"
)

type cellsOptions struct {
	data   string
	lang   string
	output string
}

func newCellsCmd(root *rootOptions) *cobra.Command {
	opts := &cellsOptions{}

	cmd := &cobra.Command{
		Use:   "cells <entity>",
		Short: "Show the formatted cells of one entity",
		Long: `Format every signal of one entity the way a table cell would show it.

Example usage:
  kratu cells "Millennium Falcon"
  kratu cells "Millennium Falcon" --lang de --output json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCells(cmd, root, opts, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.data, "data", "", "Dataset file, JSON or YAML (default: built-in spaceships)")
	cmd.Flags().StringVar(&opts.lang, "lang", "en", "Language tag for number formatting, e.g. en, de, fr")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "table", "Output format: table, json")
	return cmd
}

func runCells(cmd *cobra.Command, root *rootOptions, opts *cellsOptions, entity string) error {
	tag, err := language.Parse(opts.lang)
	if err != nil {
		return apperrors.NewValidationError(fmt.Sprintf("unknown language %q", opts.lang), err.Error())
	}

	build, err := source.Build(root.manifest)
	if err != nil {
		return err
	}
	name, entities, err := source.Dataset(opts.data)
	if err != nil {
		return err
	}

	w, err := widget.New(kratu.New(kratu.WithLanguage(tag)), build)
	if err != nil {
		return err
	}
	w.ID, w.Dataset = "cli", name
	w.Load(entities)

	names := w.Registry().Names()
	cells := make([]*widget.Cell, 0, len(names))
	for _, signal := range names {
		cell, err := w.FormatCell(entity, signal)
		if err != nil {
			return err
		}
		cells = append(cells, cell)
	}

	switch opts.output {
	case "json":
		data, err := json.MarshalIndent(cells, "", "  ")
		if err != nil {
			return err
		}
		return write(cmd.OutOrStdout(), string(data))
	case "table":
		rows := make([][]string, 0, len(cells))
		for _, c := range cells {
			rows = append(rows, []string{c.Signal, orDash(c.HTML), orDash(strings.Join(c.Classes, " "))})
		}
		title := titleStyle.Render(fmt.Sprintf("Cells: %s", entity))
		return write(cmd.OutOrStdout(), title+"\n"+renderTable([]string{"Signal", "HTML", "Classes"}, rows, nil))
	default:
		return apperrors.NewValidationError(fmt.Sprintf("unknown output format %q", opts.output))
	}
}
