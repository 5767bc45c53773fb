package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/san-kum/cartpend/internal/config"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) error {
	t.Helper()
	root := newRootCmd()
	root.SetArgs(args)
	root.SetOut(os.Stderr)
	return root.Execute()
}

func TestResolveConfigLayers(t *testing.T) {
	root := newRootCmd()
	require.NoError(t, root.ParseFlags([]string{"--preset", "track"}))
	runCmd, _, err := root.Find([]string{"run"})
	require.NoError(t, err)
	require.NoError(t, runCmd.ParseFlags([]string{"--kp", "3", "--steps", "20"}))

	cfg, err := resolveConfig(runCmd)
	require.NoError(t, err)

	assert.Equal(t, 3.0, cfg.PID.Kp)
	assert.Equal(t, 20, cfg.Steps)
	// untouched flags keep the preset's values
	assert.Equal(t, 0.01, cfg.Plant.Angle)
	assert.Equal(t, 0.0, cfg.Plant.Position)
	assert.Equal(t, config.DefaultKd, cfg.PID.Kd)
}

func TestResolveConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	cfg := config.GetPreset("recentre")
	cfg.Steps = 7
	require.NoError(t, config.Save(path, cfg))

	root := newRootCmd()
	require.NoError(t, root.ParseFlags([]string{"--config", path}))
	runCmd, _, err := root.Find([]string{"run"})
	require.NoError(t, err)

	got, err := resolveConfig(runCmd)
	require.NoError(t, err)
	assert.Equal(t, cfg, got)
}

func TestResolveConfigRejects(t *testing.T) {
	assert.Error(t, execute(t, "run", "--preset", "nope"))
	assert.Error(t, execute(t, "run", "--dt", "-1"))
	assert.Error(t, execute(t, "run", "--controller", "mpc"))
	assert.Error(t, execute(t, "run", "--chart", "jerk", "--steps", "2"))
	assert.Error(t, execute(t, "run", "--log", "loud"))
}

func TestRunCommand(t *testing.T) {
	saved := filepath.Join(t.TempDir(), "resolved.yaml")
	frame := filepath.Join(t.TempDir(), "frame.svg")
	require.NoError(t, execute(t, "run", "--preset", "balance", "--steps", "25", "--save-config", saved, "--frame", frame))

	svg, err := os.ReadFile(frame)
	require.NoError(t, err)
	assert.Contains(t, string(svg), "<svg")

	cfg, err := config.Load(saved)
	require.NoError(t, err)
	assert.Equal(t, 25, cfg.Steps)
	assert.Equal(t, config.SignalAngle, cfg.PID.Signal)
}

func TestPlotCommand(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, execute(t, "plot", "--steps", "20", "--out", dir, "--series", "angle,force"))

	for _, name := range []string{"angle.png", "force.png"} {
		_, err := os.Stat(filepath.Join(dir, name))
		assert.NoError(t, err, name)
	}
}

func TestSweepCases(t *testing.T) {
	cases, err := sweepCases(config.DefaultConfig(), "kp", []string{"1", "2.5"})
	require.NoError(t, err)
	require.Len(t, cases, 2)
	assert.Equal(t, "kp=2.5", cases[1].Name)
	assert.NotNil(t, cases[1].Controller())
	assert.NotNil(t, cases[1].Stepper())

	_, err = sweepCases(config.DefaultConfig(), "mass", []string{"1"})
	assert.Error(t, err)
	_, err = sweepCases(config.DefaultConfig(), "kp", []string{"x"})
	assert.Error(t, err)
	_, err = sweepCases(config.DefaultConfig(), "length", []string{"-1"})
	assert.Error(t, err)
}

func TestSweepCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sweep.png")
	require.NoError(t, execute(t, "sweep", "angle", "0.01", "0.05", "--preset", "recentre", "--steps", "20", "--plot", path))

	_, err := os.Stat(path)
	assert.NoError(t, err)
}

func TestCompareAndPresets(t *testing.T) {
	require.NoError(t, execute(t, "compare", "dopri", "rk4", "verlet", "--steps", "10"))
	require.NoError(t, execute(t, "presets"))
}

func TestAnalyzeCommand(t *testing.T) {
	phase := filepath.Join(t.TempDir(), "phase.svg")
	require.NoError(t, execute(t, "analyze", "--preset", "recentre", "--steps", "50", "--svg", phase))
	_, err := os.Stat(phase)
	assert.NoError(t, err)

	require.NoError(t, execute(t, "analyze", "--steps", "20", "--phase=false"))
	assert.Error(t, execute(t, "analyze", "--steps", "20", "--perturbation", "0"))
}

func TestScenarioCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "s.yaml")
	body := "name: tap\nphases:\n  - steps: 10\n  - steps: 10\n    kick: 0.1\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	require.NoError(t, execute(t, "scenario", path, "--preset", "balance"))
	assert.Error(t, execute(t, "scenario", path, "--chart", "jerk"))
	assert.Error(t, execute(t, "scenario", filepath.Join(t.TempDir(), "missing.yaml")))
}

func TestMonteCarloCommand(t *testing.T) {
	require.NoError(t, execute(t, "montecarlo", "--preset", "recentre", "--trials", "3", "--seed", "5", "--steps", "20"))
	assert.Error(t, execute(t, "montecarlo", "--trials", "0"))
}

func TestMain(m *testing.M) {
	logrus.SetLevel(logrus.ErrorLevel)
	os.Exit(m.Run())
}
