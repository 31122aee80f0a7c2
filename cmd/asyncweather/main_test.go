package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aristath/asyncweather/internal/config"
	"github.com/aristath/asyncweather/internal/weather"
)

// testConfig points the store at a temp dir and uses the static weather provider.
func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Store.Path = filepath.Join(t.TempDir(), "history.db")
	cfg.Weather.Provider = "static"
	cfg.Weather.Static = map[string]weather.Conditions{
		"Almere":  {TemperatureC: 14.2, HumidityPct: 77, Description: "Partly sunny"},
		"Kharkiv": {TemperatureC: -3, HumidityPct: 90, Description: "Snow"},
	}
	return cfg
}

func runCLI(t *testing.T, cfg *config.Config, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	if err := run(context.Background(), cfg, args, &out); err != nil {
		t.Fatalf("run %v failed: %v\noutput:\n%s", args, err, out.String())
	}
	return out.String()
}

func TestGroupCommand_ForbiddenScenario(t *testing.T) {
	cfg := testConfig(t)

	out := runCLI(t, cfg, "group", "-virtual", "-durations", "2,5,7", "-forbidden", "5")

	for _, want := range []string{
		"task 2\n",
		"slept for 2 units\n",
		"Fatal error: 5 is forbidden\n",
		"cancelling task 7\n",
		"task 7 cancelled\n",
		"Failed: 5 is forbidden\n",
		"#2  7      cancelled",
		"Elapsed: 10s\n",
		"Saved run ",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "slept for 7 units") {
		t.Errorf("cancelled operation must not complete:\n%s", out)
	}

	history := runCLI(t, cfg, "history", "-runs")
	if !strings.Contains(history, "failed: 5 is forbidden") || !strings.Contains(history, "durations=[2,5,7]") {
		t.Errorf("history missing run:\n%s", history)
	}
}

func TestGroupCommand_AllComplete(t *testing.T) {
	cfg := testConfig(t)

	out := runCLI(t, cfg, "group", "-virtual", "-durations", "1,2,3", "-forbidden", "99", "-no-store")

	if !strings.Contains(out, "Results: 1,2,3\n") {
		t.Errorf("expected results line:\n%s", out)
	}
	if !strings.Contains(out, "Elapsed: 8s\n") {
		t.Errorf("expected 3 units plus grace:\n%s", out)
	}
	if strings.Contains(out, "Saved run") {
		t.Errorf("-no-store should skip persistence:\n%s", out)
	}

	history := runCLI(t, cfg, "history", "-runs")
	if !strings.Contains(history, "No runs recorded.") {
		t.Errorf("expected empty history:\n%s", history)
	}
}

func TestGroupCommand_InvalidDurations(t *testing.T) {
	cfg := testConfig(t)
	var out bytes.Buffer

	if err := run(context.Background(), cfg, []string{"group", "-durations", "2,soon"}, &out); err == nil {
		t.Fatal("expected parse error")
	}

	out.Reset()
	if err := run(context.Background(), cfg, []string{"group", "-virtual", "-no-store", "-durations", "-1"}, &out); err != nil {
		t.Fatalf("negative durations are reported in the outcome, got error %v", err)
	}
	if !strings.Contains(out.String(), "Failed: operation 0 (-1)") {
		t.Errorf("expected invalid duration outcome:\n%s", out.String())
	}
}

func TestWeatherCommand(t *testing.T) {
	cfg := testConfig(t)

	out := runCLI(t, cfg, "weather", "-city", "Almere", "-city", "Atlantis", "-city", "Almere")

	for _, want := range []string{"City", "Almere", "14.2", "Partly sunny", "Atlantis", weather.NoData} {
		if !strings.Contains(out, want) {
			t.Errorf("table missing %q:\n%s", want, out)
		}
	}
	if n := strings.Count(out, "Almere"); n != 1 {
		t.Errorf("duplicate city should be reported once, found %d times:\n%s", n, out)
	}

	history := runCLI(t, cfg, "history", "-city", "Almere")
	if !strings.Contains(history, "Partly sunny") || strings.Contains(history, "Atlantis") {
		t.Errorf("unexpected city history:\n%s", history)
	}
}

func TestWeatherCommand_DefaultCities(t *testing.T) {
	cfg := testConfig(t)

	out := runCLI(t, cfg, "weather", "-no-store")
	for _, city := range cfg.Weather.Cities {
		if !strings.Contains(out, city) {
			t.Errorf("table missing default city %q:\n%s", city, out)
		}
	}
}

func TestWeatherCommand_UnknownProvider(t *testing.T) {
	cfg := testConfig(t)
	var out bytes.Buffer
	err := run(context.Background(), cfg, []string{"weather", "-provider", "metoffice"}, &out)
	if err == nil || !strings.Contains(err.Error(), "unknown weather provider") {
		t.Fatalf("expected provider error, got %v", err)
	}
}

func TestHistoryCommand(t *testing.T) {
	cfg := testConfig(t)

	runCLI(t, cfg, "group", "-virtual", "-durations", "1", "-forbidden", "99")
	runCLI(t, cfg, "group", "-virtual", "-durations", "2,3", "-forbidden", "3")
	runCLI(t, cfg, "weather", "-city", "Almere")
	runCLI(t, cfg, "weather", "-city", "Kharkiv")

	t.Run("runs newest first", func(t *testing.T) {
		out := runCLI(t, cfg, "history", "-runs")
		older := strings.Index(out, "durations=[1] ")
		newer := strings.Index(out, "durations=[2,3] ")
		if older < 0 || newer < 0 {
			t.Fatalf("expected both runs:\n%s", out)
		}
		if newer > older {
			t.Errorf("newest run should be listed first:\n%s", out)
		}
		if !strings.Contains(out, "failed: 3 is forbidden") || !strings.Contains(out, " ok (6s)") {
			t.Errorf("expected run statuses:\n%s", out)
		}
	})

	t.Run("runs limit", func(t *testing.T) {
		out := runCLI(t, cfg, "history", "-runs", "-limit", "1")
		if !strings.Contains(out, "durations=[2,3]") || strings.Contains(out, "durations=[1]") {
			t.Errorf("expected only the newest run:\n%s", out)
		}
	})

	t.Run("reports newest first", func(t *testing.T) {
		out := runCLI(t, cfg, "history")
		almere := strings.Index(out, "Almere")
		kharkiv := strings.Index(out, "Kharkiv")
		if almere < 0 || kharkiv < 0 {
			t.Fatalf("expected both cities:\n%s", out)
		}
		if kharkiv > almere {
			t.Errorf("newest report should be listed first:\n%s", out)
		}
	})

	t.Run("reports city filter", func(t *testing.T) {
		out := runCLI(t, cfg, "history", "-city", "Kharkiv")
		if !strings.Contains(out, "Snow") || strings.Contains(out, "Almere") {
			t.Errorf("expected only Kharkiv reports:\n%s", out)
		}
	})

	t.Run("reports limit", func(t *testing.T) {
		out := runCLI(t, cfg, "history", "-limit", "1")
		if !strings.Contains(out, "Kharkiv") || strings.Contains(out, "Almere") {
			t.Errorf("expected only the newest report:\n%s", out)
		}
	})

	t.Run("bad flag", func(t *testing.T) {
		var out bytes.Buffer
		if err := run(context.Background(), cfg, []string{"history", "-limit", "many"}, &out); err == nil {
			t.Error("expected flag parse error")
		}
	})
}

func TestRun_Usage(t *testing.T) {
	cfg := testConfig(t)
	var out bytes.Buffer

	if err := run(context.Background(), cfg, nil, &out); !errors.Is(err, errUsage) {
		t.Errorf("no args: expected errUsage, got %v", err)
	}
	if err := run(context.Background(), cfg, []string{"forecast"}, &out); !errors.Is(err, errUsage) {
		t.Errorf("unknown command: expected errUsage, got %v", err)
	}
	if err := run(context.Background(), cfg, []string{"group", "-h"}, &out); !errors.Is(err, flag.ErrHelp) {
		t.Errorf("-h: expected flag.ErrHelp, got %v", err)
	}
}

func TestCityList(t *testing.T) {
	var c cityList
	for _, v := range []string{"Almere", " New York "} {
		if err := c.Set(v); err != nil {
			t.Fatalf("Set(%q) failed: %v", v, err)
		}
	}
	if err := c.Set("  "); err == nil {
		t.Error("blank city should be rejected")
	}
	if got := c.String(); got != "Almere,New York" {
		t.Errorf("String() = %q", got)
	}
}
