package main

import (
	"log"

	"github.com/spf13/cobra"
)

var force bool

var generateCmd = &cobra.Command{
	Use:   "generate [packages]",
	Short: "Write guarded outputs for every input file",
	Long: `Generate finds files constrained by the input tag in the given packages
(default from slashy.hcl, or "."), and writes <name>_slashy.go and
<name>_slashy_testprofile.go next to each one. A pattern ending in /...
includes subdirectories.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		g, done, err := newGenerator(cmd, args)
		if err != nil {
			return err
		}
		defer done()
		g.Force = force

		results, err := g.Run(cmd.Context(), g.Config.Packages)
		written, skipped := 0, 0
		for _, r := range results {
			if r.Skipped {
				skipped++
				continue
			}
			written++
			log.Printf("[INFO] %s: %d subcommand(s)", r.Input, len(r.Subcommands))
		}
		log.Printf("[INFO] Generated %d file(s), %d unchanged", written, skipped)
		return err
	},
}

func init() {
	generateCmd.Flags().BoolVarP(&force, "force", "f", false, "regenerate inputs the cache reports unchanged")
}
