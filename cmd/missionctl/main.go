// Command missionctl is the orchestration kernel's CLI: it starts, resumes,
// inspects, and steers the single active Plan (spec.md §3), grounded on the
// teacher's root main.go (cli.NewStandardCommand + cmd.GetJobsCommand
// wiring) and its flat cmd/ package layout (plan.go, plan_status.go,
// jobs.go, tmux.go).
package main

import (
	"fmt"
	"os"

	"github.com/nigel-dev/missionctl/internal/adapter"
	"github.com/nigel-dev/missionctl/internal/config"
	"github.com/nigel-dev/missionctl/internal/logging"
	"github.com/nigel-dev/missionctl/internal/monitor"
	"github.com/nigel-dev/missionctl/internal/orchestrator"
	"github.com/nigel-dev/missionctl/internal/store"
)

// kernel bundles the wired dependencies every subcommand needs, assembled
// once in main() instead of each command re-deriving them (spec.md §6).
type kernel struct {
	cfg  *config.Config
	log  logging.Logger
	st   *store.Store
	orch *orchestrator.Orchestrator
}

func buildKernel() (*kernel, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	log := logging.New("missionctl", os.Stderr)

	st, err := store.New(config.DataDir())
	if err != nil {
		return nil, fmt.Errorf("open state store: %w", err)
	}

	mux := adapter.NewTmux()
	git := adapter.NewExecGit()
	vcs := adapter.NewGH()
	launcher := adapter.NewCLIAgentLauncher(os.Getenv("MISSIONCTL_AGENT_BINARY"))
	chatHost := adapter.NewFakeChatHost()

	mon := monitor.New(mux, log, monitor.Config{
		PollInterval:  cfg.PollInterval,
		IdleThreshold: cfg.IdleThreshold,
		Permission:    monitor.NewStaticPermissionPolicy(cfg.DefaultPermissionPolicy),
	})

	orch := orchestrator.New(st, git, mux, vcs, launcher, chatHost, mon, cfg, log)

	return &kernel{cfg: cfg, log: log, st: st, orch: orch}, nil
}

func main() {
	k, err := buildKernel()
	if err != nil {
		fmt.Fprintln(os.Stderr, "missionctl:", err)
		os.Exit(1)
	}

	root := newRootCmd(k)
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
