package main

import (
	"fmt"
	"io"

	"github.com/JonMunkholm/csvlint/internal/profile"
	"github.com/spf13/cobra"
)

func newProfileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Work with column profiles",
	}
	cmd.AddCommand(newProfileCheckCmd())
	return cmd
}

func newProfileCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check [files...]",
		Short: "Check that profile documents are well formed",
		Args:  atLeastOneArg,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProfileCheck(cmd.OutOrStdout(), args)
		},
	}
}

func runProfileCheck(w io.Writer, paths []string) error {
	bad := 0
	for _, path := range paths {
		p, err := profile.LoadFile(path)
		if err != nil {
			bad++
			fmt.Fprintf(w, "FAIL %s\n  %v\n", path, err)
			continue
		}
		fmt.Fprintf(w, "ok   %s: %s\n", path, p)
		for _, name := range p.ColumnNames() {
			col, _ := p.Column(name)
			req := ""
			if col.Required {
				req = " (required)"
			}
			fmt.Fprintf(w, "     %d. %s %s%s\n", col.Ordinal, col.Name, col.Type, req)
		}
	}
	if bad > 0 {
		return withCode(exitFindings, fmt.Errorf("%d of %d profiles are invalid", bad, len(paths)))
	}
	return nil
}
