package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"

	"github.com/Skotchmaster/robotech_store/internal/catalog"
	"github.com/Skotchmaster/robotech_store/internal/repo"
	"github.com/Skotchmaster/robotech_store/internal/search"
	"github.com/Skotchmaster/robotech_store/internal/service"
	"github.com/Skotchmaster/robotech_store/pkg/config"
	pkgdb "github.com/Skotchmaster/robotech_store/pkg/db"
	"github.com/Skotchmaster/robotech_store/pkg/logging"
)

const (
	FormatText = "text"
	FormatJSON = "json"
)

var ValidFormats = []string{FormatText, FormatJSON}

type RootOptions struct {
	Format      string
	Verbose     bool
	DatabaseURL string
	SQLitePath  string
	ESURL       string
	ESUser      string
	ESPassword  string
	ESIndex     string
}

// env is what a command needs once the backend is open.
type env struct {
	Store  *pkgdb.Store
	Repo   *repo.GormRepo
	Schema *service.SchemaService
	Cart   *service.CartService
	Out    *Formatter
	Logger *slog.Logger
}

func NewRootCommand(cfg config.Config) *cobra.Command {
	opts := &RootOptions{
		DatabaseURL: cfg.DatabaseURL,
		SQLitePath:  cfg.SQLitePath,
		ESURL:       cfg.ESURL,
		ESUser:      cfg.ESUser,
		ESPassword:  cfg.ESPassword,
		ESIndex:     cfg.ESIndex,
	}
	if !cfg.PrimaryEnabled() {
		opts.DatabaseURL = ""
	}

	cmd := &cobra.Command{
		Use:           "storectl",
		Short:         "Operator commands for the robotech store catalog",
		Long:          "Reset, seed, verify and inspect the store database against the embedded catalog.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return nil
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&opts.Format, "format", FormatText, "output format (json|text)")
	pf.BoolVarP(&opts.Verbose, "verbose", "v", false, "log progress to stderr")
	pf.StringVar(&opts.DatabaseURL, "database-url", opts.DatabaseURL, "PostgreSQL DSN; empty uses the SQLite file")
	pf.StringVar(&opts.SQLitePath, "sqlite", opts.SQLitePath, "SQLite fallback file")
	pf.StringVar(&opts.ESURL, "es-url", opts.ESURL, "Elasticsearch URL for reindex")
	pf.StringVar(&opts.ESIndex, "es-index", opts.ESIndex, "Elasticsearch index")

	cmd.AddCommand(
		newResetCommand(opts),
		newSeedCommand(opts),
		newVerifyCommand(opts),
		newSummaryCommand(opts),
		newListCommand(opts),
		newClearCartCommand(opts),
		newReindexCommand(opts),
	)
	return cmd
}

func (o *RootOptions) logger(cmd *cobra.Command) *slog.Logger {
	level := "warn"
	if o.Verbose {
		level = "info"
	}
	return logging.NewWithWriter(cmd.ErrOrStderr(), level)
}

// run opens the backend, builds the services and hands them to fn.
func (o *RootOptions) run(cmd *cobra.Command, fn func(ctx context.Context, e *env) error) error {
	l := o.logger(cmd)
	ctx := logging.IntoContext(cmd.Context(), l)
	out := &Formatter{Format: o.Format, Writer: cmd.OutOrStdout()}

	cat, err := catalog.Load()
	if err != nil {
		return o.report(out, WrapExitError(ExitCommandError, "load catalog", err))
	}

	st, err := pkgdb.Open(ctx, pkgdb.Options{
		PrimaryDSN:   o.DatabaseURL,
		FallbackPath: o.SQLitePath,
		Logger:       l,
	})
	if err != nil {
		return o.report(out, WrapExitError(ExitCommandError, "open database", err))
	}
	defer st.Close()

	r := repo.New(st)
	e := &env{
		Store:  st,
		Repo:   r,
		Schema: &service.SchemaService{Repo: r, Catalog: cat},
		Cart:   &service.CartService{Repo: r},
		Out:    out,
		Logger: l,
	}
	return o.report(out, fn(ctx, e))
}

func (o *RootOptions) report(out *Formatter, err error) error {
	if err != nil {
		out.Fail(err)
	}
	return err
}

func (o *RootOptions) indexer(ctx context.Context) (*search.Client, error) {
	if o.ESURL == "" {
		return nil, NewExitError(ExitCommandError, "elasticsearch is not configured: set ES_URL or --es-url")
	}
	c, err := search.NewClient(ctx, search.Config{URL: o.ESURL, User: o.ESUser, Password: o.ESPassword, Index: o.ESIndex})
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "connect elasticsearch", err)
	}
	return c, nil
}

func fprintf(w io.Writer, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}
