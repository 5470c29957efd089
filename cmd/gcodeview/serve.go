package main

import (
	"os"

	"github.com/spf13/cobra"

	"gcodeview/pkg/kinematics"
	"gcodeview/pkg/server"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve [file]",
	Short: "Serve an analyzed G-code document over HTTP and WebSocket",
	Long: `Start the viewer backend. When a file argument is given it is loaded
as the initial document; further documents can be uploaded through the
API. Playback state is broadcast to WebSocket clients.`,
	Args: cobra.MaximumNArgs(1),
	Run:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8911", "HTTP listen address")
}

func runServe(cmd *cobra.Command, args []string) {
	profile, err := loadProfile()
	if err != nil {
		fatalf("loading machine profile: %v", err)
	}
	limits := kinematics.LimitsFromProfile(profile)

	srv, err := server.New(server.Config{
		Addr:         serveAddr,
		Limits:       limits,
		FallbackRate: profile.FallbackRate,
	})
	if err != nil {
		fatalf("invalid machine limits: %v", err)
	}

	if len(args) == 1 {
		filename := args[0]
		f, err := os.Open(filename)
		if err != nil {
			fatalf("opening G-code file: %v", err)
		}
		est, err := kinematics.NewEstimator(limits)
		if err != nil {
			fatalf("invalid machine limits: %v", err)
		}
		doc, err := server.LoadDocument(filename, f, est, profile.FallbackRate)
		f.Close()
		if err != nil {
			fatalf("loading G-code file: %v", err)
		}
		srv.Load(doc)
	}

	if err := srv.Start(); err != nil {
		fatalf("server: %v", err)
	}
}
