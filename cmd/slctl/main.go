// main.go - Admin control tool for searchlens
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"reflect"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"searchlens/internal"
	"searchlens/internal/config"
	"searchlens/internal/dashboard"
	"searchlens/internal/dataset"
	"searchlens/internal/insights"
	"searchlens/internal/loads"
	"searchlens/internal/logging"
	"searchlens/internal/seeder"
	"searchlens/internal/timeframe"
)

const (
	defaultShutdownTimeout = 30 * time.Second
)

// Command defines the interface for all command implementations
type Command interface {
	// Name returns the command name
	Name() string
	// Description returns the command description
	Description() string
	// Execute runs the command with the given app and args
	Execute(ctx context.Context, app *internal.Application, args []string) error
}

// The set of available commands
var commands = []Command{
	&MigrateCommand{},
	&SeedCommand{},
	&ReloadCommand{},
	&SummaryCommand{},
	&InsightsCommand{},
	&AskCommand{},
	&FilesCommand{},
	&LoadsCommand{},
	&HelpCommand{},
}

func main() {
	flag.Parse()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sig := <-sigChan
		log.Printf("Received signal: %v, initiating cleanup...", sig)
		cancel()
	}()

	cmdName, args := parseArgs()

	cmd := findCommand(cmdName)
	if cmd == nil {
		showUsageAndExit()
	}

	// Logs go to stderr so stdout stays machine readable.
	cfg := config.GetConfig()
	logger := slog.New(logging.NewHandler(os.Stderr, cfg))
	app, err := internal.NewAppWithLogger(cfg, logger, nil)
	if err != nil {
		log.Printf("Warning: Failed to initialize app: %v", err)
		log.Println("Proceeding with limited functionality...")
	}

	defer func() {
		if app != nil {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), defaultShutdownTimeout)
			defer cancel()
			if err := app.Shutdown(shutdownCtx); err != nil {
				log.Printf("Warning: Cleanup error: %v", err)
			}
		}
	}()

	if err := cmd.Execute(ctx, app, args); err != nil {
		log.Fatalf("Command failed: %v", err)
	}
}

// MigrateCommand runs database migrations
type MigrateCommand struct{}

func (c *MigrateCommand) Name() string        { return "migrate" }
func (c *MigrateCommand) Description() string { return "Runs database migrations" }

func (c *MigrateCommand) Execute(ctx context.Context, app *internal.Application, args []string) error {
	if app == nil {
		return fmt.Errorf("app initialization failed, cannot run migrations")
	}

	log.Println("Running database migrations...")
	if err := app.DBManager.MigrateDatabase(); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	log.Println("Migrations completed successfully")
	return nil
}

// SeedCommand writes generated sample exports
type SeedCommand struct{}

func (c *SeedCommand) Name() string { return "seed" }
func (c *SeedCommand) Description() string {
	return "Writes sample exports to [dir] (defaults to the data directory)"
}

func (c *SeedCommand) Execute(ctx context.Context, app *internal.Application, args []string) error {
	fs := flag.NewFlagSet("seed", flag.ContinueOnError)
	days := fs.Int("days", seeder.DefaultDays, "number of days to generate")
	seed := fs.Uint64("seed", 0, "random seed (random when 0)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	dir := fs.Arg(0)
	if dir == "" {
		if app == nil {
			return fmt.Errorf("unable to initialise app, pass a directory")
		}
		dir = app.Config.DataDirectory
	}

	var logger *slog.Logger
	if app != nil {
		logger = app.Logger
	}
	se := seeder.NewSeeder(logger, *days)
	if *seed != 0 {
		se.Seed = *seed
	}
	if err := se.Run(ctx, dir); err != nil {
		return err
	}
	return out.render(map[string]any{"directory": dir, "days": *days}, func(tw *tabwriter.Writer) {
		fmt.Fprintf(tw, "Directory\t%s\n", dir)
		fmt.Fprintf(tw, "Days\t%d\n", *days)
	})
}

// ReloadCommand loads the data source and records the attempt
type ReloadCommand struct{}

func (c *ReloadCommand) Name() string        { return "reload" }
func (c *ReloadCommand) Description() string { return "Loads the data source and prints the snapshot" }

func (c *ReloadCommand) Execute(ctx context.Context, app *internal.Application, args []string) error {
	snap, err := loadData(ctx, app)
	if err != nil {
		return err
	}
	return out.render(snap, func(tw *tabwriter.Writer) {
		fmt.Fprintf(tw, "Snapshot\t%s\n", snap.ID)
		fmt.Fprintf(tw, "Loaded at\t%s\n", snap.LoadedAt.Format(time.RFC3339))
		for _, kind := range dataset.Kinds {
			meta := snap.Metadata[kind]
			fmt.Fprintf(tw, "%s\t%d rows from %s\n", kind, meta.RecordCount, meta.Source)
		}
		fmt.Fprintf(tw, "joined\t%d rows\n", len(snap.Joined))
	})
}

// SummaryCommand prints the dashboard figures
type SummaryCommand struct{}

func (c *SummaryCommand) Name() string        { return "summary" }
func (c *SummaryCommand) Description() string { return "Prints the dashboard summary [-from] [-to]" }

func (c *SummaryCommand) Execute(ctx context.Context, app *internal.Application, args []string) error {
	q, _, err := parseQueryArgs("summary", args)
	if err != nil {
		return err
	}
	if _, err := loadData(ctx, app); err != nil {
		return err
	}
	d, err := app.Service.Dashboard(q)
	if err != nil {
		return err
	}
	return out.render(d, func(tw *tabwriter.Writer) {
		fmt.Fprintf(tw, "Visits\t%d\t%+.1f%%\n", d.TotalVisits, d.Trends.Visits.Change)
		fmt.Fprintf(tw, "Orders\t%d\t%+.1f%%\n", d.TotalOrders, d.Trends.Orders.Change)
		fmt.Fprintf(tw, "Revenue\t%.2f\t%+.1f%%\n", d.TotalRevenue, d.Trends.Revenue.Change)
		fmt.Fprintf(tw, "Conversion rate\t%.2f%%\t%+.1f%%\n", d.AvgConversionRate, d.Trends.ConversionRate.Change)
		fmt.Fprintf(tw, "Clicks\t%d\n", d.TotalClicks)
		fmt.Fprintf(tw, "Impressions\t%d\n", d.TotalImpressions)
		fmt.Fprintf(tw, "CTR\t%.2f%%\n", d.AvgCTR*100)
		fmt.Fprintf(tw, "Avg position\t%.1f\n", d.AvgPosition)
		fmt.Fprintf(tw, "Pages\t%d\n", d.TotalPages)
		fmt.Fprintf(tw, "Queries\t%d\n", d.TotalQueries)
		fmt.Fprintf(tw, "Days since update\t%d\n", d.Freshness.DaysSinceUpdate)
	})
}

// InsightsCommand prints one insight or all of them
type InsightsCommand struct{}

func (c *InsightsCommand) Name() string { return "insights" }
func (c *InsightsCommand) Description() string {
	return "Prints all insights or the named one [-from] [-to] [name]"
}

func (c *InsightsCommand) Execute(ctx context.Context, app *internal.Application, args []string) error {
	q, rest, err := parseQueryArgs("insights", args)
	if err != nil {
		return err
	}
	if len(rest) > 0 && !insights.IsKnown(rest[0]) {
		return fmt.Errorf("%w: %q (known: %s)", insights.ErrUnknownInsight, rest[0], strings.Join(insights.Names, ", "))
	}
	if _, err := loadData(ctx, app); err != nil {
		return err
	}

	if len(rest) > 0 {
		v, err := app.Service.Insight(rest[0], q)
		if err != nil {
			return err
		}
		return out.render(v, nil)
	}

	report, err := app.Service.Insights(q)
	if err != nil {
		return err
	}
	return out.render(report, func(tw *tabwriter.Writer) {
		fmt.Fprintln(tw, "INSIGHT\tITEMS")
		for _, name := range insights.Names {
			v, err := app.Service.Insight(name, q)
			if err != nil {
				continue
			}
			fmt.Fprintf(tw, "%s\t%s\n", name, itemCount(v))
		}
	})
}

// AskCommand answers a plain-language question
type AskCommand struct{}

func (c *AskCommand) Name() string        { return "ask" }
func (c *AskCommand) Description() string { return "Answers a question about the data <question>" }

func (c *AskCommand) Execute(ctx context.Context, app *internal.Application, args []string) error {
	q, rest, err := parseQueryArgs("ask", args)
	if err != nil {
		return err
	}
	question := strings.Join(rest, " ")
	if strings.TrimSpace(question) == "" {
		return fmt.Errorf("usage: %s <question>", c.Name())
	}
	if _, err := loadData(ctx, app); err != nil {
		return err
	}

	views, err := app.Service.Reader()
	if err != nil {
		return err
	}
	answer, err := app.Assistant.Ask(question, views, q)
	if err != nil {
		return err
	}
	return out.render(answer, func(tw *tabwriter.Writer) {
		for _, line := range answer.Insights {
			fmt.Fprintln(tw, line)
		}
	})
}

// FilesCommand lists the CSV files of the data directory
type FilesCommand struct{}

func (c *FilesCommand) Name() string        { return "files" }
func (c *FilesCommand) Description() string { return "Lists the CSV files in the data directory" }

func (c *FilesCommand) Execute(ctx context.Context, app *internal.Application, args []string) error {
	if app == nil {
		return fmt.Errorf("unable to initialise app")
	}
	if app.Config.DataSource != config.FileSource {
		return fmt.Errorf("files requires the %s data source, configured: %s", config.FileSource, app.Config.DataSource)
	}
	files, err := dataset.ListCSVFiles(app.Config.DataDirectory)
	if err != nil {
		return err
	}
	return out.render(files, func(tw *tabwriter.Writer) {
		for _, f := range files {
			fmt.Fprintln(tw, f)
		}
	})
}

// LoadsCommand prints the recent load history
type LoadsCommand struct{}

func (c *LoadsCommand) Name() string        { return "loads" }
func (c *LoadsCommand) Description() string { return "Prints the recent load history [-limit]" }

func (c *LoadsCommand) Execute(ctx context.Context, app *internal.Application, args []string) error {
	fs := flag.NewFlagSet("loads", flag.ContinueOnError)
	limit := fs.Int("limit", 20, "number of records")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if app == nil {
		return fmt.Errorf("unable to initialise app")
	}

	records, err := loads.RecentLoads(app.DBManager.GetConnection(), *limit)
	if err != nil {
		return err
	}
	return out.render(records, func(tw *tabwriter.Writer) {
		fmt.Fprintln(tw, "WHEN\tTRIGGER\tSTATUS\tANALYTICS\tSEARCH\tJOINED\tDURATION")
		for _, r := range records {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%d\t%dms\n",
				r.CreatedAt.Format(time.RFC3339), r.Trigger, r.Status,
				r.AnalyticsRows, r.SearchRows, r.JoinedRows, r.DurationMs)
		}
	})
}

// HelpCommand implements a command to show usage information
type HelpCommand struct{}

func (c *HelpCommand) Name() string        { return "help" }
func (c *HelpCommand) Description() string { return "Shows usage information" }

func (c *HelpCommand) Execute(ctx context.Context, app *internal.Application, args []string) error {
	printUsage()
	return nil
}

// Helper functions

// loadData applies the stored brand keywords and loads a fresh snapshot.
func loadData(ctx context.Context, app *internal.Application) (*dataset.Snapshot, error) {
	if app == nil {
		return nil, errors.New("unable to initialise app")
	}
	if err := app.DBManager.MigrateDatabase(); err != nil {
		return nil, fmt.Errorf("migration failed: %w", err)
	}
	if err := app.ApplyBrandKeywords(); err != nil {
		return nil, err
	}
	return app.Reloader.Reload(ctx, loads.TriggerCommand)
}

// parseQueryArgs reads the -from and -to flags and returns the remaining
// arguments.
func parseQueryArgs(name string, args []string) (dashboard.Query, []string, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	from := fs.String("from", "", "first day (YYYY-MM-DD)")
	to := fs.String("to", "", "last day (YYYY-MM-DD)")
	if err := fs.Parse(args); err != nil {
		return dashboard.Query{}, nil, err
	}
	r, err := timeframe.ParseRange(*from, *to)
	if err != nil {
		return dashboard.Query{}, nil, err
	}
	return dashboard.Query{Range: r}, fs.Args(), nil
}

// itemCount describes the size of an insight result.
func itemCount(v any) string {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Slice {
		return fmt.Sprint(rv.Len())
	}
	return "-"
}

// parseArgs parses the command name and arguments
func parseArgs() (string, []string) {
	args := flag.Args()
	if len(args) == 0 {
		return "help", []string{}
	}
	return args[0], args[1:]
}

// findCommand finds a command by name
func findCommand(name string) Command {
	for _, cmd := range commands {
		if cmd.Name() == name {
			return cmd
		}
	}
	return nil
}

func printUsage() {
	fmt.Fprintln(out.w, "Usage: slctl [command] [args...]")
	fmt.Fprintln(out.w, "Available commands:")
	for _, cmd := range commands {
		fmt.Fprintf(out.w, "  %s: %s\n", cmd.Name(), cmd.Description())
	}
}

// showUsageAndExit shows usage information and exits
func showUsageAndExit() {
	printUsage()
	os.Exit(1)
}
