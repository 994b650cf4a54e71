// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

const version = "0.1.0"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of traingraph",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("traingraph version %s\n", version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
