package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	pollexec "github.com/pollexec/go-poll-executor"
	"github.com/pollexec/go-poll-executor/core"
	obs "github.com/pollexec/go-poll-executor/observability/prometheus"
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "pollexec-demo",
		Usage: "spawn periodic tasks on the cooperative executor and watch them fire",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "tasks",
				Usage: "number of periodic tasks to spawn",
				Value: 9,
			},
			&cli.DurationFlag{
				Name:  "base-period",
				Usage: "period of the first task; task i runs at i*base-period",
				Value: 500 * time.Millisecond,
			},
			&cli.DurationFlag{
				Name:  "duration",
				Usage: "how long to run before reporting and exiting (0 = run forever)",
				Value: 0,
			},
			&cli.StringFlag{
				Name:  "metrics-addr",
				Usage: "listen address for the Prometheus /metrics endpoint (empty = disabled)",
			},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	numTasks := c.Int("tasks")
	basePeriod := c.Duration("base-period")
	duration := c.Duration("duration")
	metricsAddr := c.String("metrics-addr")

	if numTasks < 1 {
		return fmt.Errorf("tasks must be >= 1, got %d", numTasks)
	}
	if basePeriod <= 0 {
		return fmt.Errorf("base-period must be positive, got %v", basePeriod)
	}

	execConfig := core.DefaultExecutorConfig()
	timerConfig := core.DefaultTimerConfig()

	if metricsAddr != "" {
		reg := prom.NewRegistry()
		exporter, err := obs.NewMetricsExporter("pollexec", reg, obs.ExporterOptions{})
		if err != nil {
			return fmt.Errorf("create metrics exporter: %w", err)
		}
		execConfig.Metrics = exporter
		timerConfig.Metrics = exporter

		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		go func() {
			if err := http.ListenAndServe(metricsAddr, mux); err != nil {
				fmt.Fprintf(os.Stderr, "metrics endpoint failed: %v\n", err)
			}
		}()
		fmt.Printf("metrics at http://%s/metrics\n", metricsAddr)
	}

	rt := pollexec.NewWithConfig(execConfig, timerConfig)
	rt.Start()
	defer rt.StopTimer()

	logger := core.NewDefaultLogger()
	tasks := make([]*pollexec.Periodic, 0, numTasks)
	for i := 1; i <= numTasks; i++ {
		task := core.NewPeriodic(fmt.Sprintf("task-%d", i), time.Duration(i)*basePeriod, rt.Timer())
		task.SetLogger(logger)
		rt.Spawn(task)
		tasks = append(tasks, task)
	}
	fmt.Printf("spawned %d periodic tasks, base period %v\n", numTasks, basePeriod)

	if duration == 0 {
		select {} // run until process termination
	}

	time.Sleep(duration)
	fmt.Printf("\nafter %v:\n", duration)
	for _, task := range tasks {
		fmt.Printf("  %-10s %d ticks\n", task.Name(), task.Ticks())
	}
	return nil
}
