package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"gcodeview/pkg/config"
	"gcodeview/pkg/log"
)

var (
	machineConfigPath string
	logFilePath       string
	verbose           bool
)

var rootCmd = &cobra.Command{
	Use:   "gcodeview",
	Short: "Analyze G-code toolpaths and estimate machining time",
	Long: `gcodeview interprets a G-code file into motion segments, reports its
toolpath bounds and tool usage, and estimates execution time under
configurable machine limits. It can also serve the analyzed document over
HTTP/WebSocket for viewer frontends.`,
	Version:           "1.0.0",
	PersistentPreRunE: setupLogging,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&machineConfigPath, "machine", "",
		"machine profile config file (ini format)")
	rootCmd.PersistentFlags().StringVar(&logFilePath, "logfile", "",
		"write logs to this file with rotation instead of stderr")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"enable debug logging")
}

func setupLogging(cmd *cobra.Command, args []string) error {
	// Configure the shared default logger; component loggers derived via
	// GetLogger inherit these settings.
	logger := log.Default()
	log.ConfigureFromEnv(logger)

	if verbose {
		logger.SetLevel(log.DEBUG)
	}
	if logFilePath != "" {
		w, err := log.NewRotatingFileWriter(log.RotationConfig{
			Filename: logFilePath,
			Compress: true,
		})
		if err != nil {
			return fmt.Errorf("opening log file: %w", err)
		}
		logger.SetWriter(w)
		logger.SetColorize(false)
	}
	return nil
}

// loadProfile resolves the machine profile from the --machine flag,
// falling back to the built-in defaults.
func loadProfile() (config.MachineProfile, error) {
	return config.LoadMachineProfile(machineConfigPath)
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
