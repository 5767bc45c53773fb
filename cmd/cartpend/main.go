package main

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	logLevel   string
	configFile string
	preset     string
	overrides  flagOverrides
)

// main is the entry point for the cartpend CLI; it registers commands and
// flags and executes the root command. It exits with status 1 on error.
func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "cartpend",
		Short:         "closed-loop control of a cart and inverted pendulum",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, err := logrus.ParseLevel(logLevel)
			if err != nil {
				return err
			}
			logrus.SetLevel(level)
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&logLevel, "log", "warn", "log level (trace, debug, info, warn, error, fatal, panic)")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (yaml)")
	rootCmd.PersistentFlags().StringVar(&preset, "preset", "", "use preset configuration")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run a simulation and print a report",
		RunE:  runSimulation,
	}
	addSimFlags(runCmd, &overrides)
	runCmd.Flags().StringSlice("chart", []string{"angle", "position"}, "series to chart (position, velocity, angle, omega, force, energy)")
	runCmd.Flags().String("save-config", "", "write the resolved config to this path")
	runCmd.Flags().String("frame", "", "write an SVG of the final frame to this path")

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "run simulation with live visualization",
		RunE:  runLive,
	}
	addSimFlags(liveCmd, &overrides)
	liveCmd.Flags().Float64("push", 50, "force of an arrow-key push (N)")
	liveCmd.Flags().String("theme", "cyberpunk", "color theme")

	plotCmd := &cobra.Command{
		Use:   "plot",
		Short: "run a simulation and write PNG plots",
		RunE:  plotRun,
	}
	addSimFlags(plotCmd, &overrides)
	plotCmd.Flags().String("out", "plots", "output directory")
	plotCmd.Flags().StringSlice("series", []string{"angle", "position", "force"}, "series to plot")

	sweepCmd := &cobra.Command{
		Use:   "sweep [param] [values...]",
		Short: "run one simulation per parameter value in parallel",
		Args:  cobra.MinimumNArgs(2),
		RunE:  sweepParam,
	}
	addSimFlags(sweepCmd, &overrides)
	sweepCmd.Flags().String("plot", "", "write an overlay PNG of the pole angle to this path")

	compareCmd := &cobra.Command{
		Use:   "compare [integrator1] [integrator2] ...",
		Short: "compare integrators on the same configuration",
		Args:  cobra.MinimumNArgs(1),
		RunE:  compareIntegrators,
	}
	addSimFlags(compareCmd, &overrides)

	analyzeCmd := &cobra.Command{
		Use:   "analyze",
		Short: "characterise a run: step response, phase portrait and Lyapunov exponent",
		RunE:  analyzeRun,
	}
	addSimFlags(analyzeCmd, &overrides)
	analyzeCmd.Flags().Float64("band", 0.02, "settling band around the setpoint")
	analyzeCmd.Flags().Float64("perturbation", 1e-6, "initial angle offset for the Lyapunov estimate")
	analyzeCmd.Flags().Bool("phase", true, "print the phase portrait")
	analyzeCmd.Flags().String("svg", "", "write the phase portrait as SVG to this path")

	scenarioCmd := &cobra.Command{
		Use:   "scenario [file]",
		Short: "run a scripted sequence of phases from a YAML file",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}
	addSimFlags(scenarioCmd, &overrides)
	scenarioCmd.Flags().String("chart", "angle", "series to chart per phase")

	monteCarloCmd := &cobra.Command{
		Use:   "montecarlo",
		Short: "check robustness over randomly perturbed initial conditions",
		RunE:  runMonteCarlo,
	}
	addSimFlags(monteCarloCmd, &overrides)
	monteCarloCmd.Flags().Int("trials", 20, "number of trials")
	monteCarloCmd.Flags().Int64("seed", 0, "random seed (0 uses the clock)")
	monteCarloCmd.Flags().Float64("angle-spread", 0.1, "max initial angle offset (rad)")
	monteCarloCmd.Flags().Float64("position-spread", 0.5, "max initial position offset (m)")
	monteCarloCmd.Flags().Float64("threshold", 0.05, "max final |angle| counted as stable (rad)")

	benchCmd := &cobra.Command{
		Use:   "bench",
		Short: "benchmark steppers",
		RunE:  benchSteppers,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		RunE:  listPresets,
	}

	rootCmd.AddCommand(runCmd, liveCmd, plotCmd, sweepCmd, compareCmd, analyzeCmd, scenarioCmd, monteCarloCmd, benchCmd, presetsCmd)
	return rootCmd
}
