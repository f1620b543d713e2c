// abmrun drives the wealth-exchange demo model (package wealth) to
// completion, publishing each step's collected total wealth over a
// telemetry websocket the way the teacher's main.go stands up a server
// alongside its training loop. Flags and config-file wiring mirror the
// teacher's own init()/flag.Parse()/FromYaml shape.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"abm/collect"
	"abm/config"
	"abm/persist"
	"abm/telemetry"
	"abm/wealth"
)

var (
	configPath *string
	numAgents  *int
	steps      *int
	seed       *int64
	addr       *string
	checkpoint *string
)

func init() {
	configPath = flag.String("config", "", "path to a run config yaml (optional; flags below are used as defaults)")
	numAgents = flag.Int("agents", 100, "number of agents in the population")
	steps = flag.Int("steps", 10, "number of steps to run")
	seed = flag.Int64("seed", 1, "model RNG seed")
	addr = flag.String("addr", ":8080", "telemetry server listen address")
	checkpoint = flag.String("checkpoint", "", "path to write a final gob checkpoint (optional)")
	flag.Parse()
}

// tickTotal is the raw per-tick value pushed through the telemetry
// pipeline before it's converted to an Event.
type tickTotal struct {
	tick  int
	total float64
}

func loadRunConfig() (*config.RunConfig, error) {
	if *configPath == "" {
		return &config.RunConfig{NumAgents: *numAgents, Seed: *seed, Steps: *steps}, nil
	}
	cfg, err := config.FromYaml(*configPath)
	if err != nil {
		return nil, err
	}
	if cfg.NumAgents == 0 {
		cfg.NumAgents = *numAgents
	}
	if cfg.Seed == 0 {
		cfg.Seed = *seed
	}
	if cfg.Steps == 0 {
		cfg.Steps = *steps
	}
	return cfg, nil
}

func runApp() error {
	cfg, err := loadRunConfig()
	if err != nil {
		return err
	}

	appCtx, appCancel := context.WithCancel(context.Background())
	defer appCancel()
	runCtx, cancel, err := cfg.WithRunDeadline(appCtx)
	if err != nil {
		return err
	}
	defer cancel()

	startingWealth := cfg.GetHyperParamOrDefault("startingWealth", 10)
	m, err := wealth.NewModel(cfg.NumAgents, startingWealth, cfg.Seed)
	if err != nil {
		return err
	}

	collector, err := collect.NewAgentCollector([]collect.AdataSpec{
		{Accessor: wealth.WealthAccessor, Aggregator: &collect.Sum},
	})
	if err != nil {
		return err
	}
	frame := collect.NewFrame(collector.Columns(false))

	hub := telemetry.NewHub()
	defer hub.Close()
	srv := telemetry.NewServer(*addr, hub)
	go func() {
		if err := srv.Serve(); err != nil {
			fmt.Fprintln(os.Stderr, err)
		}
	}()

	// Every collected tick is pushed through a telemetry.Pipeline rather than
	// published to the Hub directly, so additional sinks (a CSV writer, a
	// running-total accumulator) can be added later without touching the
	// step loop below.
	updates := make(chan tickTotal)
	pipelineDone := make(chan struct{})
	defer close(pipelineDone)
	pipeline := telemetry.NewPipeline[tickTotal, telemetry.Event]().
		WithSource(updates, func(t tickTotal) telemetry.Event {
			return telemetry.Event{Tick: t.tick, Kind: "collect", Payload: t.total}
		}).
		WithDone(pipelineDone).
		AddSink(telemetry.HubSinkBuilder(hub))
	if _, err := pipeline.Build(); err != nil {
		return err
	}

	before := wealth.TotalWealth(m)
	if err := collector.Collect(frame, m.Time(), m.Agents(), nil, false); err != nil {
		return err
	}
	updates <- tickTotal{tick: m.Time(), total: before}

	for i := 0; i < cfg.Steps; i++ {
		select {
		case <-runCtx.Done():
			return runCtx.Err()
		default:
		}
		m.Step()
		if err := collector.Collect(frame, m.Time(), m.Agents(), nil, false); err != nil {
			return err
		}
		updates <- tickTotal{tick: m.Time(), total: wealth.TotalWealth(m)}
	}

	after := wealth.TotalWealth(m)
	fmt.Printf("ran %d steps over %d agents; total wealth %.2f -> %.2f\n", cfg.Steps, cfg.NumAgents, before, after)

	if *checkpoint != "" {
		persist.RegisterVariant(&wealth.Agent{})
		f, err := os.Create(*checkpoint)
		if err != nil {
			return err
		}
		defer f.Close()
		snap := persist.Snapshot{
			Time:       m.Time(),
			MaxID:      uint64(m.MaxID()),
			Properties: m.Properties(),
			Agents:     m.Agents(),
		}
		if err := persist.Save(f, snap); err != nil {
			return err
		}
	}

	return nil
}

func main() {
	if err := runApp(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
