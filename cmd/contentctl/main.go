// Command contentctl validates, exports and seeds academy content.
//
//	contentctl validate [dir]
//	contentctl export -o modules.xlsx [-dir content]
//	contentctl seed [-database-url URL] [-cache-url URL] [-dir content]
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/p-n-ai/f1-academy/internal/content"
	"github.com/p-n-ai/f1-academy/internal/platform/cache"
	"github.com/p-n-ai/f1-academy/internal/platform/database"
)

const usage = `usage: contentctl <command> [flags]

commands:
  validate [dir]    check module files (embedded content when dir is omitted)
  export            write the modules and question bank to an XLSX workbook
  seed              store the content set in PostgreSQL
`

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})))
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return 2
	}

	var err error
	switch args[0] {
	case "validate":
		err = runValidate(ctx, args[1:], stdout, stderr)
	case "export":
		err = runExport(ctx, args[1:], stdout, stderr)
	case "seed":
		err = runSeed(ctx, args[1:], stdout, stderr)
	case "help", "-h", "--help":
		fmt.Fprint(stdout, usage)
		return 0
	default:
		fmt.Fprintf(stderr, "unknown command %q\n\n%s", args[0], usage)
		return 2
	}

	switch {
	case err == nil:
		return 0
	case errors.Is(err, flag.ErrHelp):
		return 0
	case errors.Is(err, errUsage):
		return 2
	default:
		fmt.Fprintln(stderr, "error:", err)
		return 1
	}
}

var errUsage = errors.New("usage")

func newFlagSet(name string, stderr io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	return fs
}

func parse(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return err
		}
		return errUsage
	}
	return nil
}

// source returns the directory source, or the embedded content set when dir
// is empty.
func source(dir string) *content.FSSource {
	if dir == "" {
		return content.NewEmbeddedSource()
	}
	return content.NewDirSource(dir)
}

func runValidate(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := newFlagSet("validate", stderr)
	if err := parse(fs, args); err != nil {
		return err
	}
	if fs.NArg() > 1 {
		fmt.Fprintln(stderr, "validate takes at most one directory")
		return errUsage
	}

	src := source(fs.Arg(0))
	catalog, err := src.Load(ctx)
	if err != nil {
		return err
	}

	ready := 0
	for _, e := range catalog.Entries() {
		if !e.Module.ComingSoon {
			ready++
		}
	}
	fmt.Fprintf(stdout, "%s: %d modules OK (%d coming soon)\n", src.Name, catalog.Len(), catalog.Len()-ready)
	return nil
}

func runExport(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := newFlagSet("export", stderr)
	out := fs.String("o", "modules.xlsx", "output workbook path")
	dir := fs.String("dir", "", "content directory (default: embedded content)")
	if err := parse(fs, args); err != nil {
		return err
	}

	catalog, err := source(*dir).Load(ctx)
	if err != nil {
		return err
	}

	f, err := os.Create(*out)
	if err != nil {
		return fmt.Errorf("creating %s: %w", *out, err)
	}
	if err := content.ExportXLSX(catalog, f); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", *out, err)
	}
	fmt.Fprintf(stdout, "wrote %d modules to %s\n", catalog.Len(), *out)
	return nil
}

func runSeed(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := newFlagSet("seed", stderr)
	url := fs.String("database-url", os.Getenv("ACADEMY_DATABASE_URL"), "PostgreSQL connection URL")
	cacheURL := fs.String("cache-url", os.Getenv("ACADEMY_CACHE_URL"), "Redis URL of the catalog cache to clear after seeding")
	dir := fs.String("dir", "", "content directory (default: embedded content)")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *url == "" {
		fmt.Fprintln(stderr, "seed needs -database-url or ACADEMY_DATABASE_URL")
		return errUsage
	}
	if *cacheURL != "" {
		if _, err := cache.ParseURL(*cacheURL); err != nil {
			return err
		}
	}

	catalog, err := source(*dir).Load(ctx)
	if err != nil {
		return err
	}

	db, err := database.New(ctx, *url, 2, 1)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		return err
	}
	store, err := content.NewPostgresSource(db.Pool)
	if err != nil {
		return err
	}
	if err := store.Save(ctx, catalog); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "seeded %d modules\n", catalog.Len())

	if *cacheURL == "" {
		return nil
	}
	return clearCachedCatalog(ctx, *cacheURL, stdout)
}

// clearCachedCatalog drops the cached catalog so servers reading through the
// cache pick up the seeded content on their next load.
func clearCachedCatalog(ctx context.Context, url string, stdout io.Writer) error {
	kv, err := cache.New(ctx, url)
	if err != nil {
		return err
	}
	defer func() { _ = kv.Close() }()

	if err := kv.Delete(ctx, content.CacheKey); err != nil {
		return fmt.Errorf("clearing cached catalog: %w", err)
	}
	fmt.Fprintf(stdout, "cleared cache key %s\n", content.CacheKey)
	return nil
}
