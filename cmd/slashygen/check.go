package main

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/keshon/slashy/internal/generator"
)

var checkCmd = &cobra.Command{
	Use:   "check [packages]",
	Short: "Fail if generated outputs are missing or out of date",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd, args)
		if err != nil {
			return err
		}
		g := generator.New(cfg, nil)

		stale, err := g.Check(cmd.Context(), cfg.Packages)
		if err != nil {
			return err
		}
		for _, p := range stale {
			log.Printf("[ERR] %s is out of date", p)
		}
		if len(stale) > 0 {
			return fmt.Errorf("%d generated file(s) out of date; run %s generate", len(stale), cmd.Root().Name())
		}
		log.Printf("[INFO] Generated files are up to date")
		return nil
	},
}
