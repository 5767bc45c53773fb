package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/san-kum/cartpend/internal/analysis"
	"github.com/san-kum/cartpend/internal/automation"
	"github.com/san-kum/cartpend/internal/config"
	"github.com/san-kum/cartpend/internal/control"
	"github.com/san-kum/cartpend/internal/dynamo"
	"github.com/san-kum/cartpend/internal/integrators"
	"github.com/san-kum/cartpend/internal/metrics"
	"github.com/san-kum/cartpend/internal/physics"
	"github.com/san-kum/cartpend/internal/report"
	"github.com/san-kum/cartpend/internal/sim"
	"github.com/san-kum/cartpend/internal/viz"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// simulate runs cfg once with the standard metrics.
func simulate(ctx context.Context, cfg *config.Config) (*sim.Result, error) {
	plant, err := cfg.NewPlant()
	if err != nil {
		return nil, err
	}
	ctrl, err := cfg.BuildController()
	if err != nil {
		return nil, err
	}
	stepper, err := cfg.NewStepper()
	if err != nil {
		return nil, err
	}

	s := sim.New(stepper)
	for _, m := range metrics.Standard() {
		s.AddMetric(m)
	}
	return s.Run(ctx, plant, ctrl, cfg.SimConfig())
}

func lookupSeries(keys []string) ([]report.Series, error) {
	out := make([]report.Series, 0, len(keys))
	for _, k := range keys {
		s, ok := report.SeriesByName(k)
		if !ok {
			return nil, fmt.Errorf("unknown series %q", k)
		}
		out = append(out, s)
	}
	return out, nil
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	charts, _ := cmd.Flags().GetStringSlice("chart")
	series, err := lookupSeries(charts)
	if err != nil {
		return err
	}

	if path, _ := cmd.Flags().GetString("save-config"); path != "" {
		if err := config.Save(path, cfg); err != nil {
			return err
		}
		logrus.Infof("config written to %s", path)
	}

	fmt.Printf("running %s controller, %d steps of %gs (%s)...\n", cfg.Controller, cfg.Steps, cfg.Dt, cfg.Integrator)
	start := time.Now()

	result, err := simulate(cmd.Context(), cfg)
	if result != nil && len(result.States) > 1 {
		for _, s := range series {
			fmt.Println(report.Chart(result, s, 80, 10))
			fmt.Println()
		}
	}
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n\n", time.Since(start))
	fmt.Print(report.Summary(result))

	if path, _ := cmd.Flags().GetString("frame"); path != "" {
		svg := viz.FrameSVG(result.Final(), 60, 20, viz.GetTheme(""))
		if err := os.WriteFile(path, []byte(svg), 0o644); err != nil {
			return err
		}
		logrus.Infof("frame written to %s", path)
	}
	return nil
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	plant, err := cfg.NewPlant()
	if err != nil {
		return err
	}
	stepper, err := cfg.NewStepper()
	if err != nil {
		return err
	}

	if _, err := cfg.BuildController(); err != nil {
		return err
	}

	push, _ := cmd.Flags().GetFloat64("push")
	theme, _ := cmd.Flags().GetString("theme")

	title := cfg.Controller
	if preset != "" {
		title = preset
	}

	return viz.Run(viz.Options{
		Title: title,
		Plant: plant,
		NewController: func() sim.Controller {
			ctrl, _ := cfg.BuildController()
			return ctrl
		},
		Stepper: stepper,
		Dt:      cfg.Dt,
		Push:    push,
		Theme:   theme,
	})
}

func plotRun(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	outDir, _ := cmd.Flags().GetString("out")
	keys, _ := cmd.Flags().GetStringSlice("series")
	series, err := lookupSeries(keys)
	if err != nil {
		return err
	}

	result, err := simulate(cmd.Context(), cfg)
	if err != nil {
		return err
	}

	for _, s := range series {
		path := filepath.Join(outDir, s.Key+".png")
		if err := report.SavePNG(result, s, path); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", path)
	}
	return nil
}

var sweepParams = map[string]func(*config.Config, float64){
	"kp":          func(c *config.Config, v float64) { c.PID.Kp = v },
	"ki":          func(c *config.Config, v float64) { c.PID.Ki = v },
	"kd":          func(c *config.Config, v float64) { c.PID.Kd = v },
	"setpoint":    func(c *config.Config, v float64) { c.PID.Setpoint = v },
	"upper":       func(c *config.Config, v float64) { c.PID.Lower, c.PID.Upper = -v, v },
	"angle":       func(c *config.Config, v float64) { c.Plant.Angle = v },
	"position":    func(c *config.Config, v float64) { c.Plant.Position = v },
	"disturbance": func(c *config.Config, v float64) { c.Plant.Disturbance = v },
	"bob_mass":    func(c *config.Config, v float64) { c.Plant.PendulumMass = v },
	"length":      func(c *config.Config, v float64) { c.Plant.Length = v },
}

func sweepCases(base *config.Config, param string, values []string) ([]sim.Case, error) {
	set, ok := sweepParams[param]
	if !ok {
		names := make([]string, 0, len(sweepParams))
		for k := range sweepParams {
			names = append(names, k)
		}
		sort.Strings(names)
		return nil, fmt.Errorf("unknown sweep parameter %q (available: %s)", param, strings.Join(names, ", "))
	}

	cases := make([]sim.Case, 0, len(values))
	for _, raw := range values {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("value %q: %w", raw, err)
		}
		cfg := base.Clone()
		set(cfg, v)
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("%s=%s: %w", param, raw, err)
		}
		plant, err := cfg.NewPlant()
		if err != nil {
			return nil, err
		}

		cases = append(cases, sim.Case{
			Name:  fmt.Sprintf("%s=%s", param, raw),
			Plant: plant,
			Controller: func() sim.Controller {
				ctrl, _ := cfg.BuildController()
				return ctrl
			},
			Stepper: func() dynamo.Stepper {
				s, _ := cfg.NewStepper()
				return s
			},
			Metrics: metrics.Standard,
		})
	}
	return cases, nil
}

func sweepParam(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	cases, err := sweepCases(cfg, args[0], args[1:])
	if err != nil {
		return err
	}

	outcomes := sim.Sweep(cmd.Context(), cases, cfg.SimConfig())

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "CASE\tFINAL θ\tFINAL x\tSTABILITY\tEFFORT\tWARNINGS\tERROR")
	runs := make(map[string]*sim.Result)
	for _, o := range outcomes {
		errText := "-"
		if o.Err != nil {
			errText = o.Err.Error()
		}
		if o.Result == nil {
			fmt.Fprintf(w, "%s\t-\t-\t-\t-\t-\t%s\n", o.Name, errText)
			continue
		}
		final := o.Result.Final()
		fmt.Fprintf(w, "%s\t%.5f\t%.3f\t%.3f\t%.3f\t%d\t%s\n",
			o.Name, final.Angle, final.Position,
			o.Result.Metrics["stability"], o.Result.Metrics["control_effort"],
			o.Result.Warnings, errText)
		if o.Err == nil {
			runs[o.Name] = o.Result
		}
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if path, _ := cmd.Flags().GetString("plot"); path != "" && len(runs) > 0 {
		if err := report.SaveComparePNG(runs, report.Angle, path); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", path)
	}
	return nil
}

func compareIntegrators(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	fmt.Printf("comparing integrators (dt=%.4f, steps=%d)\n\n", cfg.Dt, cfg.Steps)
	fmt.Printf("%-12s  %-12s  %-12s  %-12s  %-12s\n", "integrator", "final_angle", "final_pos", "energy_drift", "time_ms")
	fmt.Println(strings.Repeat("-", 66))

	for _, name := range args {
		c := cfg.Clone()
		c.Integrator = name
		if _, err := integrators.Get(name); err != nil {
			fmt.Printf("%-12s  error: %v\n", name, err)
			continue
		}

		start := time.Now()
		result, err := simulate(cmd.Context(), c)
		elapsed := time.Since(start)
		if err != nil {
			fmt.Printf("%-12s  error: %v\n", name, err)
			continue
		}

		final := result.Final()
		fmt.Printf("%-12s  %12.6f  %12.6f  %12.2e  %12.2f\n", name, final.Angle, final.Position, result.EnergyDrift, float64(elapsed.Microseconds())/1000)
	}
	return nil
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	band, _ := cmd.Flags().GetFloat64("band")
	eps, _ := cmd.Flags().GetFloat64("perturbation")
	showPhase, _ := cmd.Flags().GetBool("phase")

	signal, setpoint, err := cfg.Objective()
	if err != nil {
		return err
	}

	res, err := simulate(cmd.Context(), cfg)
	if err != nil {
		return err
	}

	resp := analysis.StepResponse(res, signal, setpoint, band)
	fmt.Printf("initial:        %.5f (setpoint %.5f)\n", resp.Initial, setpoint)
	fmt.Printf("peak error:     %.5f at t=%.2fs\n", resp.Peak, resp.PeakTime)
	fmt.Printf("overshoot:      %.1f%%\n", resp.Overshoot*100)
	if resp.Settled {
		fmt.Printf("settling time:  %.2fs (band %g)\n", resp.SettlingTime, band)
	} else {
		fmt.Printf("settling time:  not settled (band %g)\n", band)
	}
	fmt.Printf("final error:    %.3g\n", resp.SteadyStateError)

	plant, err := cfg.NewPlant()
	if err != nil {
		return err
	}
	stepper, err := cfg.NewStepper()
	if err != nil {
		return err
	}
	newController := func() sim.Controller {
		ctrl, _ := cfg.BuildController()
		return ctrl
	}
	lambda, err := analysis.LyapunovExponent(plant, newController, stepper, cfg.Dt, cfg.Steps, eps)
	if err != nil {
		return err
	}
	fmt.Printf("lyapunov:       %.4f /s\n", lambda)

	portrait := analysis.Phase(res)
	if showPhase {
		fmt.Println()
		fmt.Println("phase portrait (angle vs omega)")
		fmt.Print(portrait.ASCII(60, 20))
	}
	if path, _ := cmd.Flags().GetString("svg"); path != "" {
		if err := os.WriteFile(path, []byte(portrait.SVG(600, 400, "#00ffff")), 0o644); err != nil {
			return err
		}
		logrus.Infof("phase portrait written to %s", path)
	}
	return nil
}

func runScenario(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	chart, _ := cmd.Flags().GetString("chart")
	series, ok := report.SeriesByName(chart)
	if !ok {
		return fmt.Errorf("unknown series %q", chart)
	}

	scenario, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}

	plant, err := cfg.NewPlant()
	if err != nil {
		return err
	}
	ctrl, err := cfg.BuildController()
	if err != nil {
		return err
	}
	stepper, err := cfg.NewStepper()
	if err != nil {
		return err
	}

	s := sim.New(stepper)
	for _, m := range metrics.Standard() {
		s.AddMetric(m)
	}

	if scenario.Description != "" {
		fmt.Println(scenario.Description)
	}
	phases, err := automation.RunScenario(cmd.Context(), scenario, s, plant, ctrl, cfg.Dt)
	for _, ph := range phases {
		fmt.Printf("\n== %s ==\n", ph.Name)
		if len(ph.Result.States) > 1 {
			fmt.Println(report.Chart(ph.Result, series, 80, 8))
		}
		fmt.Print(report.Summary(ph.Result))
	}
	return err
}

func runMonteCarlo(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	var mc automation.MonteCarloConfig
	mc.Trials, _ = cmd.Flags().GetInt("trials")
	mc.Seed, _ = cmd.Flags().GetInt64("seed")
	mc.AngleSpread, _ = cmd.Flags().GetFloat64("angle-spread")
	mc.PositionSpread, _ = cmd.Flags().GetFloat64("position-spread")
	mc.Threshold, _ = cmd.Flags().GetFloat64("threshold")

	base, err := cfg.NewPlant()
	if err != nil {
		return err
	}
	if _, err := cfg.BuildController(); err != nil {
		return err
	}
	if _, err := cfg.NewStepper(); err != nil {
		return err
	}
	newController := func() sim.Controller {
		ctrl, _ := cfg.BuildController()
		return ctrl
	}
	newStepper := func() dynamo.Stepper {
		st, _ := cfg.NewStepper()
		return st
	}

	trials, err := automation.RunMonteCarlo(cmd.Context(), mc, base, newController, newStepper, cfg.SimConfig())
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TRIAL\tθ0\tx0\tFINAL θ\tFINAL x\tSTABLE")
	for _, t := range trials {
		status := "yes"
		if !t.Stable {
			status = "no"
			if t.Err != nil {
				status = "error: " + t.Err.Error()
			}
		}
		fmt.Fprintf(w, "%d\t%.4f\t%.3f\t%.5f\t%.3f\t%s\n",
			t.ID, t.Initial.Angle, t.Initial.Position, physics.WrapAngle(t.Final.Angle), t.Final.Position, status)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	stable, unstable := automation.MonteCarloStats(trials)
	fmt.Printf("\n%d stable, %d unstable (%.0f%%)\n", stable, unstable, 100*float64(stable)/float64(len(trials)))
	return nil
}

func benchSteppers(cmd *cobra.Command, args []string) error {
	plant, err := physics.New(physics.WithAngle(0.1))
	if err != nil {
		return err
	}

	dts := []float64{0.001, 0.01, 0.1}
	const duration = 5.0

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "INTEGRATOR\tDT\tSTEPS\tTIME\tSTEPS/SEC")

	for _, name := range integrators.Names() {
		for _, dt := range dts {
			stepper, err := integrators.Get(name)
			if err != nil {
				return err
			}
			steps := int(math.Round(duration / dt))

			start := time.Now()
			_, err = sim.New(stepper).Run(cmd.Context(), plant, control.NewNone(), sim.Config{Dt: dt, Steps: steps})
			elapsed := time.Since(start)
			if err != nil {
				fmt.Fprintf(w, "%s\t%.4fs\t%d\t-\terror: %v\n", name, dt, steps, err)
				continue
			}

			fmt.Fprintf(w, "%s\t%.4fs\t%d\t%v\t%.0f\n", name, dt, steps, elapsed, float64(steps)/elapsed.Seconds())
		}
	}
	return w.Flush()
}

func listPresets(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PRESET\tCONTROLLER\tθ0\tx0\tDT\tSTEPS")
	for _, name := range config.ListPresets() {
		p := config.GetPreset(name)
		fmt.Fprintf(w, "%s\t%s\t%.3f\t%.2f\t%g\t%d\n", name, p.Controller, p.Plant.Angle, p.Plant.Position, p.Dt, p.Steps)
	}
	return w.Flush()
}
