package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"gcodeview/pkg/kinematics"
)

var timeCmd = &cobra.Command{
	Use:   "time [file]",
	Short: "Estimate execution time for a G-code file",
	Long: `Estimate how long the machine needs to run the program, using
trapezoidal velocity profiles under the configured machine limits.
Reports total time and a per-tool breakdown.`,
	Args: cobra.ExactArgs(1),
	Run:  runTime,
}

func init() {
	rootCmd.AddCommand(timeCmd)
}

func runTime(cmd *cobra.Command, args []string) {
	filename := args[0]

	profile, err := loadProfile()
	if err != nil {
		fatalf("loading machine profile: %v", err)
	}
	estimator, err := kinematics.NewEstimator(kinematics.LimitsFromProfile(profile))
	if err != nil {
		fatalf("invalid machine limits: %v", err)
	}

	result := parseFile(filename)
	report := estimator.Estimate(result.Segments)

	fmt.Println("Time Estimate")
	fmt.Println("=============")
	fmt.Printf("File: %s\n\n", filename)
	fmt.Printf("Total: %s (%.1f seconds, %d segments)\n",
		kinematics.FormatDuration(report.TotalSeconds),
		report.TotalSeconds, len(result.Segments))

	if len(report.ToolSeconds) > 0 {
		fmt.Println("\nPer tool:")
		tools := make([]int, 0, len(report.ToolSeconds))
		for tool := range report.ToolSeconds {
			tools = append(tools, tool)
		}
		sort.Ints(tools)
		for _, tool := range tools {
			fmt.Printf("  %s: %s\n",
				result.Tools.NameFor(tool),
				kinematics.FormatDuration(report.ToolSeconds[tool]))
		}
	}
}
