package cli

import (
	"context"
	"errors"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Skotchmaster/robotech_store/internal/catalog"
	"github.com/Skotchmaster/robotech_store/internal/repo"
	"github.com/Skotchmaster/robotech_store/internal/service"
)

type seedResult struct {
	Backend  string `json:"backend"`
	Version  string `json:"version"`
	Inserted int    `json:"inserted"`
	Failed   []int  `json:"failed"`
	Removed  int64  `json:"removed"`
}

func newSeedResult(e *env, version string, r repo.SeedReport) seedResult {
	failed := make([]int, 0, len(r.Failed))
	for _, f := range r.Failed {
		failed = append(failed, f.ProductID)
	}
	return seedResult{Backend: e.Store.Backend(), Version: version, Inserted: r.Inserted, Failed: failed, Removed: r.Removed}
}

func seedExit(err error) error {
	switch {
	case errors.Is(err, service.ErrEmptyCatalog), errors.Is(err, service.ErrNothingSeeded):
		return WrapExitError(ExitFailure, "seed failed", err)
	default:
		return WrapExitError(ExitCommandError, "seed failed", err)
	}
}

func emitSeed(e *env, res seedResult) error {
	return e.Out.Emit(res, func(w io.Writer) {
		fprintf(w, "catalog %s on %s: %d inserted, %d failed, %d removed\n",
			res.Version, res.Backend, res.Inserted, len(res.Failed), res.Removed)
		for _, id := range res.Failed {
			fprintf(w, "  failed product %d\n", id)
		}
	})
}

func newResetCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Drop every table and reload the catalog (destroys carts and orders)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.run(cmd, func(ctx context.Context, e *env) error {
				report, err := e.Schema.Reset(ctx)
				if err != nil {
					return seedExit(err)
				}
				return emitSeed(e, newSeedResult(e, e.Schema.Catalog.Version(), report))
			})
		},
	}
}

func newSeedCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Upsert the catalog by product id, keeping carts and orders",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.run(cmd, func(ctx context.Context, e *env) error {
				report, err := e.Schema.Seed(ctx)
				if err != nil {
					return seedExit(err)
				}
				return emitSeed(e, newSeedResult(e, e.Schema.Catalog.Version(), report))
			})
		},
	}
}

func newVerifyCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Compare stored products with the catalog; exits 1 on drift",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.run(cmd, func(ctx context.Context, e *env) error {
				drift, err := e.Schema.Verify(ctx)
				if err != nil {
					return WrapExitError(ExitCommandError, "verify", err)
				}
				if err := e.Out.Emit(drift, func(w io.Writer) {
					if drift.Clean() {
						fprintf(w, "catalog %s matches %s\n", e.Schema.Catalog.Version(), e.Store.Backend())
						return
					}
					for _, id := range drift.Missing {
						fprintf(w, "missing    %d\n", id)
					}
					for _, id := range drift.Unexpected {
						fprintf(w, "unexpected %d\n", id)
					}
					for _, c := range drift.Changed {
						fprintf(w, "changed    %d %s: want %q, got %q\n", c.ID, c.Field, c.Want, c.Got)
					}
				}); err != nil {
					return err
				}
				if !drift.Clean() {
					return NewExitError(ExitFailure, "catalog drift detected")
				}
				return nil
			})
		},
	}
}

func newSummaryCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Per-category counts, featured count and stock value of stored products",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.run(cmd, func(ctx context.Context, e *env) error {
				s, err := e.Schema.Summary(ctx)
				if err != nil {
					return WrapExitError(ExitCommandError, "summary", err)
				}
				return e.Out.Emit(s, func(w io.Writer) {
					tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
					fprintf(tw, "CATEGORY\tPRODUCTS\n")
					for _, c := range s.Categories {
						fprintf(tw, "%s\t%d\n", c.Category, c.Count)
					}
					_ = tw.Flush()
					fprintf(w, "total %d, featured %d, stock value %s\n", s.Total, s.Featured, s.StockValue.StringFixed(2))
				})
			})
		},
	}
}

func newListCommand(opts *RootOptions) *cobra.Command {
	var category string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored products by id",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.run(cmd, func(ctx context.Context, e *env) error {
				if category == catalog.AllCategories {
					category = ""
				}
				products, err := e.Schema.List(ctx, category)
				if err != nil {
					return WrapExitError(ExitCommandError, "list", err)
				}
				return e.Out.Emit(products, func(w io.Writer) {
					tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
					fprintf(tw, "ID\tNAME\tCATEGORY\tPRICE\tSTOCK\tFEATURED\n")
					for _, p := range products {
						fprintf(tw, "%d\t%s\t%s\t%s\t%d\t%t\n", p.ID, p.Name, p.Category, p.Price.StringFixed(2), p.StockQuantity, p.IsFeatured)
					}
					_ = tw.Flush()
				})
			})
		},
	}
	cmd.Flags().StringVarP(&category, "category", "c", "", "only this category")
	return cmd
}

func newClearCartCommand(opts *RootOptions) *cobra.Command {
	var userID string
	cmd := &cobra.Command{
		Use:   "clear-cart",
		Short: "Empty the cart of one user, or of everyone",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.run(cmd, func(ctx context.Context, e *env) error {
				var (
					n   int64
					err error
				)
				if userID == "" {
					n, err = e.Cart.ClearAll(ctx)
				} else {
					n, err = e.Cart.Clear(ctx, userID)
				}
				if err != nil {
					return WrapExitError(ExitCommandError, "clear cart", err)
				}
				left, err := e.Repo.CountCartRows(ctx, userID)
				if err != nil {
					return WrapExitError(ExitCommandError, "count cart rows", err)
				}
				res := map[string]int64{"removed": n, "remaining": left}
				return e.Out.Emit(res, func(w io.Writer) {
					fprintf(w, "removed %d cart rows, %d remaining\n", n, left)
				})
			})
		},
	}
	cmd.Flags().StringVarP(&userID, "user", "u", "", "user id; empty clears every cart")
	return cmd
}

func newReindexCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "reindex",
		Short: "Push stored products to Elasticsearch",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.run(cmd, func(ctx context.Context, e *env) error {
				idx, err := opts.indexer(ctx)
				if err != nil {
					return err
				}
				e.Schema.Indexer = idx
				n, err := e.Schema.Reindex(ctx)
				if err != nil {
					return WrapExitError(ExitCommandError, "reindex", err)
				}
				res := map[string]any{"index": idx.Index(), "documents": n}
				return e.Out.Emit(res, func(w io.Writer) {
					fprintf(w, "indexed %d products into %s\n", n, idx.Index())
				})
			})
		},
	}
}
