package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/couchcryptid/quake-feed-service/internal/adapter/usgs"
	"github.com/couchcryptid/quake-feed-service/internal/domain"
	"github.com/couchcryptid/quake-feed-service/internal/observability"
	"github.com/couchcryptid/quake-feed-service/internal/pipeline"
)

// fetchJSON is the JSON output structure for the fetch command.
type fetchJSON struct {
	State     string                   `json:"state"`
	Settings  domain.FilterSettings    `json:"settings"`
	Records   []domain.PresentedRecord `json:"records"`
	Error     string                   `json:"error,omitempty"`
	ErrorKind string                   `json:"error_kind,omitempty"`
	Retryable bool                     `json:"retryable,omitempty"`
	FetchedAt string                   `json:"fetched_at"`
}

// Execute implements the go-flags Commander interface for FetchCommand.
func (c *FetchCommand) Execute(_ []string) error {
	cfg, err := loadConfig(c.globals)
	if err != nil {
		return err
	}
	if c.Endpoint != "" {
		cfg.Endpoint = c.Endpoint
	}

	logger := observability.NewStderrLogger(cfg)
	metrics := observability.NewMetrics()

	client := usgs.NewClient(cfg.ConnectTimeout, cfg.ReadTimeout, metrics, logger)
	var probe pipeline.ConnectivityChecker
	if cfg.ConnectivityCheck {
		probe = usgs.NewDialProbe(cfg.Endpoint, cfg.ConnectTimeout, logger)
	}
	p := pipeline.New(client, probe, nil, logger, metrics)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	return c.run(ctx, p, cfg.Endpoint, cfg.DefaultFilter)
}

// run executes one fetch against runner (for testing).
func (c *FetchCommand) run(ctx context.Context, runner pipeline.Runner, endpoint string, defaults domain.FilterSettings) error {
	settings := domain.FilterSettings{
		MinMagnitude: c.MinMagnitude,
		OrderBy:      c.OrderBy,
		ResultLimit:  c.Limit,
	}.WithDefaults(defaults)
	if err := settings.Validate(); err != nil {
		return err
	}

	records, err := runner.Run(ctx, endpoint, settings)

	if c.globals != nil && c.globals.JSON {
		if perr := printFetchJSON(settings, records, err); perr != nil {
			return perr
		}
		return err
	}
	if err != nil {
		return fmt.Errorf("fetch earthquakes: %w", err)
	}
	printFetchHuman(records)
	return nil
}

func printFetchHuman(records []domain.PresentedRecord) {
	if len(records) == 0 {
		fmt.Println("No earthquakes match the current filters.")
		return
	}
	for _, r := range records {
		fmt.Printf("%5s  %s\n", r.FormattedMagnitude, r.PrimaryLocation)
		fmt.Printf("       %s · %s %s · %s\n", r.LocationOffset, r.FormattedDate, r.FormattedTime, r.Severity)
		fmt.Printf("       %s\n", r.DetailURL)
	}
	fmt.Printf("\n%d earthquake(s)\n", len(records))
}

func printFetchJSON(settings domain.FilterSettings, records []domain.PresentedRecord, runErr error) error {
	out := fetchJSON{
		State:     pipeline.StateResults,
		Settings:  settings,
		Records:   records,
		FetchedAt: time.Now().UTC().Format(time.RFC3339),
	}
	if out.Records == nil {
		out.Records = []domain.PresentedRecord{}
	}
	switch {
	case runErr != nil:
		out.State = pipeline.StateError
		out.Error = runErr.Error()
		out.Retryable = true
		var fe *domain.FetchError
		if errors.As(runErr, &fe) {
			out.ErrorKind = fe.Kind.String()
			out.Retryable = fe.Retryable()
		}
	case len(records) == 0:
		out.State = pipeline.StateEmpty
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
