// Copyright (C) 2026, Erynoa Project Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/erynoa/core/config"
)

func resolvePreset(name string) (config.Parameters, error) {
	switch name {
	case "mainnet", "default", "":
		return config.Default(), nil
	case "testnet":
		return config.Testnet(), nil
	case "local":
		return config.Local(), nil
	default:
		return config.Parameters{}, fmt.Errorf("erynoad: unknown preset %q (want mainnet, testnet, or local)", name)
	}
}

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect configuration presets",
	}
	cmd.AddCommand(configShowCmd())
	return cmd
}

func configShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <preset>",
		Short: "Print a named configuration preset (mainnet, testnet, local) as JSON",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := "mainnet"
			if len(args) == 1 {
				name = args[0]
			}
			params, err := resolvePreset(name)
			if err != nil {
				return err
			}
			if err := params.Valid(); err != nil {
				return fmt.Errorf("erynoad: preset %q failed validation: %w", name, err)
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(params)
		},
	}
}
