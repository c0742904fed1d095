package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/dshills/statecore/internal/attrs"
	"github.com/dshills/statecore/internal/source"
)

func newDiffCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "diff BASE CANDIDATE",
		Short: "Print the attributes of CANDIDATE that differ from BASE",
		Example: "  statecore diff prod.yaml staging.yaml\n" +
			"  statecore diff --format json a.conf b.conf",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := source.ParseFormat(format)
			if err != nil {
				return fmt.Errorf("--format %q: %w", format, err)
			}
			return runDiff(cmd.OutOrStdout(), args[0], args[1], f)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "", "Format of both files (toml, yaml, json); detected by extension when empty")
	return cmd
}

// runDiff writes the changed attributes as YAML, or "no changes".
func runDiff(out io.Writer, basePath, candidatePath string, format source.Format) error {
	base, err := source.LoadAs(basePath, format)
	if err != nil {
		return err
	}
	candidate, err := source.LoadAs(candidatePath, format)
	if err != nil {
		return err
	}

	store, err := attrs.New(base)
	if err != nil {
		return err
	}

	changed, ok := store.ChangedAttributesFrom(candidate)
	if !ok {
		_, err := fmt.Fprintln(out, "no changes")
		return err
	}

	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)
	if err := enc.Encode(changed); err != nil {
		return err
	}
	return enc.Close()
}
