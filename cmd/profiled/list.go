package main

import (
	"easyprofile/internal/ports"
	"fmt"
	"slices"

	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the ids of every stored profile",
	RunE: func(cmd *cobra.Command, _ []string) error {
		lister, ok := store.(ports.ProfileLister)
		if !ok {
			return fmt.Errorf("%s backend cannot list profiles", cfg.Backend)
		}
		ids, err := lister.ListProfiles(cmd.Context())
		if err != nil {
			return err
		}
		slices.Sort(ids)
		for _, id := range ids {
			fmt.Fprintln(cmd.OutOrStdout(), id)
		}
		return nil
	},
}
