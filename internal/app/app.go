package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"

	"ipdnb/internal/app/version"
	"ipdnb/internal/blocker"
	"ipdnb/internal/config"
	"ipdnb/internal/database"
	"ipdnb/internal/geolite"
	"ipdnb/internal/iplocate"
	"ipdnb/internal/support"
)

var errUsage = errors.New("usage: ipdnb [-dry-run] [-list] [-version] <file>...")

func Run() error {
	if err := godotenv.Load(); err != nil {
		log.Warn("No .env file found. Falling back to system environment variables.")
	}

	return run(context.Background(), os.Args[1:], os.Stdout)
}

func run(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("ipdnb", flag.ContinueOnError)
	dryRunFlag := fs.Bool("dry-run", false, "Evaluate and report blocks without writing them to the store")
	listFlag := fs.Bool("list", false, "Print the stored block records and exit")
	versionFlag := fs.Bool("version", false, "Print the build version and exit")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *versionFlag {
		fmt.Fprintln(out, version.Get())
		return nil
	}

	settings, err := config.Load()
	if err != nil {
		return err
	}
	log.SetLevel(settings.Level())

	if !*listFlag && fs.NArg() == 0 {
		return errUsage
	}

	store, err := openStore(settings)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Warn("error closing block store", "error", err)
		}
	}()

	if *listFlag {
		return printRecords(ctx, store, out)
	}

	if err := settings.Validate(); err != nil {
		return err
	}

	lookuper, closeLookuper, err := buildLookuper(ctx, settings)
	if err != nil {
		return err
	}
	defer closeLookuper()

	policy := blocker.Policy{
		DeniedCountries: settings.Policy.BlockedCountries,
		BlockTor:        settings.Policy.BlockTor,
	}
	engine := blocker.NewEngine(store, lookuper, policy,
		blocker.WithNotifier(blocker.NewConsoleNotifier(out)),
		blocker.WithDryRun(*dryRunFlag),
	)

	reports, err := engine.ProcessFiles(ctx, fs.Args())
	for _, report := range reports {
		log.Info("File processed",
			"path", report.Path,
			"candidates", report.Candidates,
			"blocked", report.Blocked,
			"allowed", report.Allowed,
			"skipped", report.Skipped,
		)
	}
	return err
}

func openStore(settings config.Settings) (*database.BlockStore, error) {
	dialector, err := database.NewDialector(settings.Store.Driver, settings.Store.Path, settings.Store.DSN)
	if err != nil {
		return nil, err
	}
	single := !strings.EqualFold(settings.Store.Driver, database.DriverPostgres)
	return database.Open(database.WithDialector(dialector), database.WithSingleConn(single))
}

// buildLookuper assembles the configured provider, wrapped in the Redis cache
// when REDIS_URL is set. The returned func releases whatever was opened.
func buildLookuper(ctx context.Context, settings config.Settings) (blocker.Lookuper, func(), error) {
	var (
		base    iplocate.Lookuper
		closers []func() error
	)

	switch strings.ToLower(settings.Lookup.Provider) {
	case config.ProviderGeoLite:
		geo, err := geolite.Open(settings.Lookup.GeoLiteCountryDB)
		if err != nil {
			return nil, nil, err
		}
		base = geo
		closers = append(closers, geo.Close)
	default:
		opts := []iplocate.Option{
			iplocate.WithBaseURL(settings.Lookup.BaseURL),
		}
		if settings.Lookup.Proxy != "" {
			hc, err := iplocate.NewProxiedHTTPClient(settings.Lookup.Proxy)
			if err != nil {
				return nil, nil, err
			}
			opts = append(opts, iplocate.WithHTTPClient(hc))
		}
		if !settings.Lookup.Timeout.IsZero() {
			opts = append(opts, iplocate.WithTimeout(settings.Lookup.Timeout.Duration()))
		}

		client, err := iplocate.NewClient(settings.Lookup.APIKey, opts...)
		if err != nil {
			return nil, nil, err
		}
		base = client
	}

	lookuper := base
	if settings.RedisURL != "" {
		redisClient, err := support.NewRedisClient(ctx, settings.RedisURL)
		if err != nil {
			log.Warn("Lookup cache disabled", "error", err)
		} else {
			lookuper = iplocate.NewCachedLookuper(base, redisClient, settings.Lookup.CacheTTL.Duration())
			closers = append(closers, redisClient.Close)
		}
	}

	closeAll := func() {
		for _, closeFn := range closers {
			if err := closeFn(); err != nil {
				log.Warn("error closing lookup provider", "error", err)
			}
		}
	}
	return lookuper, closeAll, nil
}

func printRecords(ctx context.Context, store *database.BlockStore, out io.Writer) error {
	records, err := store.List(ctx)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "IP\tCOUNTRY\tTOR\tBLOCKED AT")
	for _, record := range records {
		fmt.Fprintf(w, "%s\t%s\t%t\t%s\n", record.IP, record.Country, record.IsTor, record.BlockedAt.Format("2006-01-02 15:04:05"))
	}
	return w.Flush()
}
