package main

import (
	"io"

	"github.com/arnavshah/weekly-score-api/internal/config"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newParamsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "params",
		Short: "Print the effective score params as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			paramsPath, _ := cmd.Flags().GetString("params")
			return runParams(cmd.OutOrStdout(), paramsPath)
		},
	}
}

func runParams(out io.Writer, paramsPath string) error {
	params, err := config.LoadParams(paramsPath)
	if err != nil {
		return err
	}
	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)
	if err := enc.Encode(params); err != nil {
		return err
	}
	return enc.Close()
}
