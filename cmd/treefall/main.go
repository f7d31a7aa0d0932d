package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/ton731/urban-resilience-simulator/internal/server"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "treefall",
		Short: "Urban resilience simulator: road networks under tree-collapse disasters",
	}

	rootCmd.AddCommand(generateCmd())
	rootCmd.AddCommand(validateCmd())
	rootCmd.AddCommand(simulateCmd())
	rootCmd.AddCommand(routeCmd())
	rootCmd.AddCommand(serveCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func generateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "generate [scenario.yaml]",
		Short: "Synthesize a city world and emit it as JSON",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return runGenerate(scenarioArg(args))
		},
	}
}

func validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [scenario.yaml]",
		Short: "Validate a scenario without generating anything",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return runValidate(scenarioArg(args))
		},
	}
}

func simulateCmd() *cobra.Command {
	var intensity float64
	var seed int64

	cmd := &cobra.Command{
		Use:   "simulate [scenario.yaml]",
		Short: "Generate a world, run a disaster, and report the damage",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return runSimulate(scenarioArg(args), intensity, seed)
		},
	}

	cmd.Flags().Float64Var(&intensity, "intensity", 0, "override disaster intensity (1-10)")
	cmd.Flags().Int64Var(&seed, "seed", 0, "override disaster random seed")
	return cmd
}

func routeCmd() *cobra.Command {
	var from, to, vehicle string
	var withDisaster bool

	cmd := &cobra.Command{
		Use:   "route [scenario.yaml]",
		Short: "Route a vehicle between two map points",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return runRoute(scenarioArg(args), from, to, vehicle, withDisaster)
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "start point as x,y in meters")
	cmd.Flags().StringVar(&to, "to", "", "end point as x,y in meters")
	cmd.Flags().StringVar(&vehicle, "vehicle", "car", "vehicle class to route")
	cmd.Flags().BoolVar(&withDisaster, "disaster", false, "run the disaster first and route under obstructions")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

func serveCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE: func(_ *cobra.Command, _ []string) error {
			return server.New(port).Start()
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 8000, "HTTP server port")
	return cmd
}

func scenarioArg(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return ""
}
