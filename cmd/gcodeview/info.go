package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"gcodeview/pkg/gcode"
)

var infoCmd = &cobra.Command{
	Use:   "info [file]",
	Short: "Display information about a G-code file",
	Long:  "Show line and segment counts, toolpath bounds, and the tools the program uses.",
	Args:  cobra.ExactArgs(1),
	Run:   runInfo,
}

func init() {
	rootCmd.AddCommand(infoCmd)
}

func parseFile(filename string) *gcode.Result {
	f, err := os.Open(filename)
	if err != nil {
		fatalf("opening G-code file: %v", err)
	}
	defer f.Close()

	parser := gcode.NewParser()
	result, err := parser.Parse(f)
	if err != nil {
		fatalf("reading G-code file: %v", err)
	}
	return result
}

func runInfo(cmd *cobra.Command, args []string) {
	filename := args[0]
	result := parseFile(filename)

	fmt.Println("G-code File Information")
	fmt.Println("=======================")
	fmt.Printf("File: %s\n\n", filename)

	rapids, cuts := 0, 0
	for _, seg := range result.Segments {
		if seg.Kind == gcode.Rapid {
			rapids++
		} else {
			cuts++
		}
	}

	fmt.Println("Program Statistics:")
	fmt.Printf("  Lines: %d\n", result.Lines)
	fmt.Printf("  Segments: %d (%d rapid, %d cut)\n", len(result.Segments), rapids, cuts)
	if result.Recovered > 0 {
		fmt.Printf("  Recovered errors: %d\n", result.Recovered)
	}
	fmt.Println()

	if !result.Bounds.IsEmpty() {
		b := result.Bounds
		fmt.Println("Toolpath Bounds:")
		fmt.Printf("  Min: (%.3f, %.3f, %.3f)\n", b.Min.X, b.Min.Y, b.Min.Z)
		fmt.Printf("  Max: (%.3f, %.3f, %.3f)\n", b.Max.X, b.Max.Y, b.Max.Z)
		size := b.Size()
		fmt.Printf("  Size: %.3f x %.3f x %.3f\n\n", size.X, size.Y, size.Z)
	}

	entries := result.Tools.Entries()
	if len(entries) > 0 {
		fmt.Println("Tools:")
		for _, e := range entries {
			if e.Color != "" {
				fmt.Printf("  %d: %s (%s)\n", e.Number, e.Name, e.Color)
			} else {
				fmt.Printf("  %d: %s\n", e.Number, e.Name)
			}
		}
	}
}
