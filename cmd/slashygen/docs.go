package main

import (
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/keshon/slashy/internal/docs"
	"github.com/keshon/slashy/internal/generator"
)

var docsOut string

var docsCmd = &cobra.Command{
	Use:   "docs [packages]",
	Short: "Print a Markdown overview of subcommands and their checks",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd, args)
		if err != nil {
			return err
		}
		results, err := generator.New(cfg, nil).Describe(cmd.Context(), cfg.Packages)
		if err != nil {
			return err
		}

		var w io.Writer = cmd.OutOrStdout()
		if docsOut != "" {
			f, err := os.Create(docsOut)
			if err != nil {
				return err
			}
			defer f.Close()
			w = f
		}
		wd, _ := os.Getwd()
		return docs.Write(w, wd, results)
	},
}

func init() {
	docsCmd.Flags().StringVarP(&docsOut, "output", "o", "", "write to file instead of stdout")
}
