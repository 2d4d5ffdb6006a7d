// Command discount-function evaluates one host input document read from
// stdin and writes the result document to stdout. Logs go to stderr.
package main

import (
	"context"
	"io"
	"os"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/xenking/volume-discount/internal/domain/discount"
	"github.com/xenking/volume-discount/internal/wire"
)

func main() {
	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	if os.Getenv("DISCOUNT_DEBUG") != "" {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	lg, err := cfg.Build()
	if err != nil {
		panic(err)
	}
	defer func() { _ = lg.Sync() }()

	ctx := zctx.Base(context.Background(), lg)
	if err := run(ctx, os.Stdin, os.Stdout); err != nil {
		lg.Error("Discount function failed", zap.Error(err))
		_ = lg.Sync()
		os.Exit(1)
	}
}

func run(ctx context.Context, stdin io.Reader, stdout io.Writer) error {
	data, err := io.ReadAll(stdin)
	if err != nil {
		return errors.Wrap(err, "read input")
	}

	in, err := wire.DecodeInput(data)
	if err != nil {
		return err
	}

	if _, err := stdout.Write(wire.EncodeResult(discount.Run(ctx, in))); err != nil {
		return errors.Wrap(err, "write output")
	}
	return nil
}
