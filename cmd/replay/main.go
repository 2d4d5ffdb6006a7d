// Command replay re-runs recorded discount function invocations.
//
// Each input file holds gzip-compressed JSON lines, one host input document
// per line. Every record is evaluated twice and the two results must match
// byte for byte. With -out, results are written next to each other as
// <name>.out.jsonl.gz.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"

	"github.com/go-faster/errors"

	"github.com/xenking/volume-discount/internal/domain/shop"
	"github.com/xenking/volume-discount/internal/storage/postgres"
)

func main() {
	var (
		opts        options
		databaseURL string
		shopID      string
		namespace   string
		key         string
	)

	flag.StringVar(&opts.outDir, "out", "", "directory for result files; results are discarded when empty")
	flag.IntVar(&opts.jobs, "jobs", runtime.GOMAXPROCS(0), "files replayed concurrently")
	flag.StringVar(&shopID, "shop", "", "replace each record's configuration with this shop's stored rules")
	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL URL of the metafield store (or DATABASE_URL env); used with -shop")
	flag.StringVar(&namespace, "namespace", shop.DefaultNamespace, "metafield namespace of the rules; used with -shop")
	flag.StringVar(&key, "key", shop.DefaultKey, "metafield key of the rules; used with -shop")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] FILE...\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if shopID != "" {
		if databaseURL == "" {
			databaseURL = os.Getenv("DATABASE_URL")
		}
		cfg, err := loadShopConfig(ctx, databaseURL, shop.MetafieldKey{ShopID: shopID, Namespace: namespace, Key: key})
		if err != nil {
			slog.Error("load shop configuration failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
		opts.override = true
		opts.config = cfg
	}

	summaries, err := replayAll(ctx, flag.Args(), opts)
	for _, s := range summaries {
		s.log()
	}
	if err != nil {
		slog.Error("replay failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("replay completed successfully", slog.Int("files", len(summaries)))
}

func loadShopConfig(ctx context.Context, databaseURL string, key shop.MetafieldKey) (*string, error) {
	if databaseURL == "" {
		return nil, errors.New("database URL is required with -shop: set --database-url or DATABASE_URL")
	}

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return nil, errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	cfg, err := shop.ConfigText(ctx, postgres.NewMetafieldRepository(pool), key)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		slog.Warn("shop has no stored rules, replaying without configuration", slog.String("shop", key.ShopID))
	}
	return cfg, nil
}
