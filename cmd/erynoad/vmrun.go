// Copyright (C) 2026, Erynoa Project Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/erynoa/core/execctx"
	"github.com/erynoa/core/vm"
	"github.com/luxfi/log"
)

func vmCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vm",
		Short: "Execution VM (C4) tooling",
	}
	cmd.AddCommand(vmRunCmd())
	return cmd
}

func vmRunCmd() *cobra.Command {
	var gas uint64
	var realm, caller, preset string

	cmd := &cobra.Command{
		Use:   "run <bytecode.json>",
		Short: "Execute a compiled policy program against a stub host",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("erynoad: reading %s: %w", args[0], err)
			}
			var program vm.Program
			if err := json.Unmarshal(raw, &program); err != nil {
				return fmt.Errorf("erynoad: parsing %s: %w", args[0], err)
			}

			params, err := resolvePreset(preset)
			if err != nil {
				return err
			}

			ctx := execctx.New(gas, realm, caller)
			host := vm.NewStubHost()
			logger := log.New("erynoad.vm")
			m := vm.New([]vm.Instruction(program), host, ctx, params.VM, logger)

			result, err := m.Run()
			if err != nil {
				return fmt.Errorf("erynoad: run failed: %w", err)
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(struct {
				Value   vm.Value `json:"value"`
				GasUsed uint64   `json:"gas_used"`
				Logs    []string `json:"logs"`
			}{Value: result.Value, GasUsed: result.GasUsed, Logs: result.Logs})
		},
	}

	cmd.Flags().Uint64Var(&gas, "gas", 100000, "gas budget for the run")
	cmd.Flags().StringVar(&realm, "realm", "", "realm ID attributed to the run")
	cmd.Flags().StringVar(&caller, "caller", "erynoad-cli", "caller DID attributed to the run")
	cmd.Flags().StringVar(&preset, "preset", "mainnet", "configuration preset supplying VM parameters")
	return cmd
}
