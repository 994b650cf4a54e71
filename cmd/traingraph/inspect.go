// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/born-ml/traingraph/onnx"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <model.onnx>",
	Short: "Print summary information about an exported graph",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := runInspect(args[0]); err != nil {
			fmt.Printf("Inspect failed: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}

func runInspect(path string) error {
	info, err := onnx.GetModelInfo(path)
	if err != nil {
		return fmt.Errorf("failed to read model: %w", err)
	}

	fmt.Printf("Model:        %s\n", path)
	fmt.Printf("Producer:     %s %s\n", info.ProducerName, info.ProducerVersion)
	fmt.Printf("IR version:   %d\n", info.IRVersion)
	fmt.Printf("Opset:        %d\n", info.OpsetVersion)
	fmt.Printf("Nodes:        %d\n", info.NodeCount)
	fmt.Printf("Initializers: %d\n", info.WeightCount)
	fmt.Printf("Inputs:       %v\n", info.InputNames)
	fmt.Printf("Outputs:      %v\n", info.OutputNames)
	return nil
}
