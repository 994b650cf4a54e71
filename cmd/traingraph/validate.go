// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/born-ml/traingraph/trainer"
)

var validateCmd = &cobra.Command{
	Use:   "validate <schema.yaml>",
	Short: "Check a model schema file for consistency",
	Long:  `Loads a YAML schema file and reports malformed entries, duplicate names, or conflicting loss declarations.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := runValidate(args[0]); err != nil {
			fmt.Printf("Validation failed: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(path string) error {
	desc, err := trainer.LoadDescriptor(path)
	if err != nil {
		return err
	}

	fmt.Printf("Schema is valid: %d inputs, %d outputs", len(desc.Inputs), len(desc.Outputs))
	if loss := desc.LossOutput(); loss != nil {
		fmt.Printf(" (loss output %q)", loss.Name)
	}
	fmt.Println()
	return nil
}
