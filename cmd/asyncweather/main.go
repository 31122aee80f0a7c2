package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"

	"github.com/aristath/asyncweather/internal/config"
	"github.com/aristath/asyncweather/internal/events"
	"github.com/aristath/asyncweather/internal/orchestrator"
	"github.com/aristath/asyncweather/internal/persistence"
	"github.com/aristath/asyncweather/internal/scheduler"
	"github.com/aristath/asyncweather/internal/tui"
	"github.com/aristath/asyncweather/internal/weather"
)

const usage = `Usage: asyncweather <command> [flags]

Commands:
  group     run delayed operations with fail-fast cancellation
  weather   print current weather for a list of cities
  history   list stored group runs or weather reports

Run "asyncweather <command> -h" for command flags.
`

var errUsage = errors.New("invalid usage")

func main() {
	// Create signal-aware context for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadDefault()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	if err := run(ctx, cfg, os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		if !errors.Is(err, errUsage) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

// run dispatches a subcommand. Output goes to stdout; warnings go through the log package.
func run(ctx context.Context, cfg *config.Config, args []string, stdout io.Writer) error {
	if len(args) == 0 {
		fmt.Fprint(os.Stderr, usage)
		return errUsage
	}

	switch args[0] {
	case "group":
		return runGroup(ctx, cfg, args[1:], stdout)
	case "weather":
		return runWeather(ctx, cfg, args[1:], stdout)
	case "history":
		return runHistory(ctx, cfg, args[1:], stdout)
	case "help", "-h", "--help":
		fmt.Fprint(stdout, usage)
		return nil
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", args[0], usage)
		return errUsage
	}
}

func runGroup(ctx context.Context, cfg *config.Config, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("group", flag.ContinueOnError)
	durations := fs.String("durations", joinFloats(cfg.Group.Durations), "comma separated operation durations, in units")
	forbidden := fs.Float64("forbidden", cfg.Group.Forbidden, "duration that raises the failure signal")
	unit := fs.Duration("unit", time.Duration(cfg.Group.Unit), "length of one duration unit")
	grace := fs.Float64("grace", cfg.Group.GraceDelay, "units to pause after the outcome is decided")
	virtual := fs.Bool("virtual", false, "run on a virtual clock (no real waiting)")
	interactive := fs.Bool("interactive", false, "edit group settings in a form before running")
	useTUI := fs.Bool("tui", false, "show a live view of the run")
	noStore := fs.Bool("no-store", false, "do not record the run in the history database")
	if err := fs.Parse(args); err != nil {
		return err
	}

	values, err := tui.ParseDurations(*durations)
	if err != nil {
		return err
	}
	groupCfg := config.GroupConfig{
		Durations:  values,
		Forbidden:  *forbidden,
		Unit:       config.Duration(*unit),
		GraceDelay: *grace,
	}
	if *interactive {
		if err := tui.PromptGroup(&groupCfg); err != nil {
			return fmt.Errorf("group settings form: %w", err)
		}
	}

	bus := events.NewEventBus()
	defer bus.Close()

	var clock scheduler.Clock = scheduler.RealClock{}
	if *virtual {
		clock = scheduler.NewVirtualClock(time.Now())
	}

	logger := log.New(stdout, "", 0)
	if *useTUI {
		logger = log.New(io.Discard, "", 0)
	}

	group := orchestrator.NewGroup(orchestrator.Config{
		Forbidden:  groupCfg.Forbidden,
		Unit:       time.Duration(groupCfg.Unit),
		GraceDelay: groupCfg.GraceDelay,
		Clock:      clock,
		Bus:        bus,
		Logger:     logger,
	})

	var outcome orchestrator.Outcome
	if *useTUI {
		outcome, err = runWithTUI(ctx, bus, func() orchestrator.Outcome {
			return group.Run(ctx, groupCfg.Durations)
		})
		if err != nil {
			return err
		}
	} else {
		outcome = group.Run(ctx, groupCfg.Durations)
	}

	printOutcome(stdout, outcome)

	if !*noStore {
		record := persistence.RunRecord{
			ID:        uuid.NewString(),
			Durations: groupCfg.Durations,
			Forbidden: groupCfg.Forbidden,
			Unit:      time.Duration(groupCfg.Unit),
			Outcome:   outcome,
			CreatedAt: time.Now(),
		}
		if err := withStore(ctx, cfg, func(store persistence.Store) error {
			return store.SaveRun(ctx, record)
		}); err != nil {
			log.Printf("WARNING: run not saved: %v", err)
		} else {
			fmt.Fprintf(stdout, "Saved run %s\n", record.ID)
		}
	}

	return nil
}

// runWithTUI runs fn while a live view follows the bus. The view stays open
// after fn returns until the user quits or ctx ends.
func runWithTUI(ctx context.Context, bus *events.EventBus, fn func() orchestrator.Outcome) (orchestrator.Outcome, error) {
	p := tea.NewProgram(tui.New(bus), tea.WithAltScreen(), tea.WithContext(ctx))

	errChan := make(chan error, 1)
	go func() {
		_, err := p.Run()
		errChan <- err
	}()

	outcome := fn()

	select {
	case err := <-errChan:
		if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
			return outcome, fmt.Errorf("tui: %w", err)
		}
	case <-ctx.Done():
		p.Quit()
		select {
		case <-errChan:
		case <-time.After(10 * time.Second):
			log.Println("Shutdown timeout exceeded, forcing exit")
		}
	}

	return outcome, nil
}

func runWeather(ctx context.Context, cfg *config.Config, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("weather", flag.ContinueOnError)
	var cities cityList
	fs.Var(&cities, "city", "city to report on (repeatable, default from config)")
	provider := fs.String("provider", cfg.Weather.Provider, "weather provider: accuweather or static")
	interactive := fs.Bool("interactive", false, "enter cities in a form")
	noStore := fs.Bool("no-store", false, "do not record reports in the history database")
	if err := fs.Parse(args); err != nil {
		return err
	}

	list := []string(cities)
	if len(list) == 0 {
		list = cfg.Weather.Cities
	}
	if *interactive {
		var err error
		if list, err = tui.PromptCities(list); err != nil {
			return fmt.Errorf("city form: %w", err)
		}
	}

	clientCfg := cfg.ClientConfig()
	clientCfg.Type = *provider
	client, err := weather.New(clientCfg)
	if err != nil {
		return fmt.Errorf("creating weather client: %w", err)
	}

	bot := weather.NewBot(client, weather.WithConcurrency(cfg.Weather.Concurrency))
	for _, city := range list {
		bot.AddCity(city)
	}

	reports := bot.Reports(ctx)
	fmt.Fprintln(stdout, weather.RenderTable(reports))

	if !*noStore {
		if err := withStore(ctx, cfg, func(store persistence.Store) error {
			return store.SaveReports(ctx, reports)
		}); err != nil {
			log.Printf("WARNING: reports not saved: %v", err)
		}
	}

	return nil
}

func runHistory(ctx context.Context, cfg *config.Config, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("history", flag.ContinueOnError)
	runs := fs.Bool("runs", false, "list group runs instead of weather reports")
	city := fs.String("city", "", "only show reports for this city")
	limit := fs.Int("limit", 10, "maximum entries to show (0 for all)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	return withStore(ctx, cfg, func(store persistence.Store) error {
		if *runs {
			records, err := store.ListRuns(ctx, *limit)
			if err != nil {
				return err
			}
			if len(records) == 0 {
				fmt.Fprintln(stdout, "No runs recorded.")
			}
			for _, r := range records {
				printRun(stdout, r)
			}
			return nil
		}

		reports, err := store.ListReports(ctx, *city, *limit)
		if err != nil {
			return err
		}
		fmt.Fprintln(stdout, weather.RenderTable(reports))
		return nil
	})
}

func withStore(ctx context.Context, cfg *config.Config, fn func(persistence.Store) error) error {
	path, err := config.ExpandPath(cfg.Store.Path)
	if err != nil {
		return err
	}
	store, err := persistence.NewSQLiteStore(ctx, path)
	if err != nil {
		return fmt.Errorf("opening history at %s: %w", path, err)
	}
	defer store.Close()

	return fn(store)
}

func printOutcome(w io.Writer, out orchestrator.Outcome) {
	if out.Failed() {
		fmt.Fprintf(w, "Failed: %v\n", out.Cause)
	} else {
		fmt.Fprintf(w, "Results: %s\n", joinFloats(out.Results))
	}
	for _, op := range out.Operations {
		fmt.Fprintf(w, "  #%d  %-6g %s\n", op.Index, op.Duration, op.Status)
	}
	fmt.Fprintf(w, "Elapsed: %v\n", out.Elapsed)
}

func printRun(w io.Writer, r persistence.RunRecord) {
	status := "ok"
	if r.Outcome.Failed() {
		status = "failed: " + r.Outcome.Cause.Error()
	}
	fmt.Fprintf(w, "%s  %s  durations=[%s] forbidden=%g  %s (%v)\n",
		r.ID, r.CreatedAt.Local().Format(time.DateTime), joinFloats(r.Durations), r.Forbidden, status, r.Outcome.Elapsed)
}

func joinFloats(values []float64) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = fmt.Sprintf("%g", v)
	}
	return strings.Join(parts, ",")
}

// cityList is a repeatable -city flag.
type cityList []string

func (c *cityList) String() string {
	return strings.Join(*c, ",")
}

func (c *cityList) Set(v string) error {
	v = strings.TrimSpace(v)
	if v == "" {
		return errors.New("city must not be empty")
	}
	*c = append(*c, v)
	return nil
}
