package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var cfgFile string

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "tripradar",
		Short:        "Rank Tunisian destinations and places for a traveller's profile",
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./config.yaml)")

	root.AddCommand(seedCmd())
	root.AddCommand(recommendCmd())
	root.AddCommand(placesCmd())
	root.AddCommand(scoreCmd())
	root.AddCommand(serveCmd())
	root.AddCommand(runCmd())

	return root
}

func seedCmd() *cobra.Command {
	var (
		force bool
		file  string
	)

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load the destination catalog into the database",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(cmd.Context(), file, force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "upsert even when the catalog is not empty")
	cmd.Flags().StringVar(&file, "file", "", "catalog YAML file (default: built-in catalog)")
	return cmd
}

func recommendCmd() *cobra.Command {
	var (
		profileID  string
		limit      int
		images     bool
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "recommend",
		Short: "Rank catalog destinations for a saved profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRecommend(cmd.Context(), profileID, limit, images, jsonOutput)
		},
	}

	cmd.Flags().StringVar(&profileID, "profile", "", "saved profile id (empty scores neutrally)")
	cmd.Flags().IntVar(&limit, "limit", 0, "max results (default: from config)")
	cmd.Flags().BoolVar(&images, "images", false, "attach Unsplash images")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	return cmd
}

func placesCmd() *cobra.Command {
	var (
		profileID  string
		limit      int
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "places",
		Short: "Rank live places around a saved profile's regions",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlaces(cmd.Context(), profileID, limit, jsonOutput)
		},
	}

	cmd.Flags().StringVar(&profileID, "profile", "", "saved profile id")
	cmd.Flags().IntVar(&limit, "limit", 0, "max results (default: from config)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	return cmd
}

func scoreCmd() *cobra.Command {
	var (
		profileFile string
		catalogFile string
		limit       int
		jsonOutput  bool
	)

	cmd := &cobra.Command{
		Use:   "score",
		Short: "Score a catalog file against a profile file without a database",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScore(profileFile, catalogFile, limit, jsonOutput)
		},
	}

	cmd.Flags().StringVar(&profileFile, "profile", "", "profile file (.json or .yaml)")
	cmd.Flags().StringVar(&catalogFile, "catalog", "", "catalog YAML file (default: built-in catalog)")
	cmd.Flags().IntVar(&limit, "limit", 10, "max results")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	_ = cmd.MarkFlagRequired("profile")
	return cmd
}

func serveCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), port)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "server port (default: from config)")
	return cmd
}

func runCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start daemon with scheduler and HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDaemon(cmd.Context(), port)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "server port (default: from config)")
	return cmd
}
