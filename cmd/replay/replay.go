package main

import (
	"bufio"
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	pgzip "github.com/klauspost/pgzip"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/volume-discount/internal/domain/discount"
	"github.com/xenking/volume-discount/internal/wire"
)

// maxRecordSize bounds a single JSON line.
const maxRecordSize = 8 << 20

type options struct {
	outDir string
	jobs   int
	// override replaces every record's configuration with config.
	override bool
	config   *string
}

// summary collects per-file replay statistics.
type summary struct {
	file      string
	records   int
	invalid   int
	discounts int
	outcomes  map[discount.Outcome]int
}

func (s summary) log() {
	slog.Info("file replayed",
		slog.String("file", s.file),
		slog.Int("records", s.records),
		slog.Int("invalid", s.invalid),
		slog.Int("discounts", s.discounts),
		slog.Int("evaluated", s.outcomes[discount.OutcomeEvaluated]),
		slog.Int("no_config", s.outcomes[discount.OutcomeNoConfig]),
		slog.Int("malformed_config", s.outcomes[discount.OutcomeMalformedConfig]),
	)
}

// replayAll replays files concurrently. Summaries are returned in argument
// order for every file that completed.
func replayAll(ctx context.Context, files []string, opts options) ([]summary, error) {
	results := make([]*summary, len(files))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(opts.jobs, 1))
	for i, f := range files {
		g.Go(func() error {
			s, err := replayFile(ctx, f, opts)
			if err != nil {
				return errors.Wrapf(err, "replay %s", f)
			}
			results[i] = &s
			return nil
		})
	}
	err := g.Wait()

	var out []summary
	for _, s := range results {
		if s != nil {
			out = append(out, *s)
		}
	}
	return out, err
}

// outputPath maps in.jsonl.gz (or in.gz) to DIR/in.out.jsonl.gz.
func outputPath(dir, input string) string {
	name := filepath.Base(input)
	name = strings.TrimSuffix(name, ".gz")
	name = strings.TrimSuffix(name, ".jsonl")
	return filepath.Join(dir, name+".out.jsonl.gz")
}

func replayFile(ctx context.Context, path string, opts options) (_ summary, rerr error) {
	s := summary{file: path, outcomes: map[discount.Outcome]int{}}

	f, err := os.Open(path)
	if err != nil {
		return s, errors.Wrap(err, "open")
	}
	defer func() { _ = f.Close() }()

	gz, err := pgzip.NewReader(f)
	if err != nil {
		return s, errors.Wrap(err, "create gzip reader")
	}
	defer func() { _ = gz.Close() }()

	var out *bufio.Writer
	if opts.outDir != "" {
		of, err := os.Create(outputPath(opts.outDir, path))
		if err != nil {
			return s, errors.Wrap(err, "create output")
		}
		gzw := pgzip.NewWriter(of)
		out = bufio.NewWriter(gzw)
		defer func() {
			if err := out.Flush(); err != nil && rerr == nil {
				rerr = errors.Wrap(err, "flush output")
			}
			if err := gzw.Close(); err != nil && rerr == nil {
				rerr = errors.Wrap(err, "close gzip writer")
			}
			if err := of.Close(); err != nil && rerr == nil {
				rerr = errors.Wrap(err, "close output")
			}
		}()
	}

	scanner := bufio.NewScanner(gz)
	scanner.Buffer(make([]byte, 0, 64<<10), maxRecordSize)
	for line := 1; scanner.Scan(); line++ {
		if err := ctx.Err(); err != nil {
			return s, err
		}
		record := bytes.TrimSpace(scanner.Bytes())
		if len(record) == 0 {
			continue
		}
		s.records++

		result, err := replayRecord(ctx, record, opts, &s)
		if err != nil {
			if !errors.Is(err, wire.ErrInvalidInput) {
				return s, errors.Wrapf(err, "line %d", line)
			}
			s.invalid++
			slog.Warn("invalid record", slog.String("file", path), slog.Int("line", line), slog.String("error", err.Error()))
			result = encodeRecordError(err)
		}

		if out != nil {
			if _, err := out.Write(result); err != nil {
				return s, errors.Wrap(err, "write output")
			}
			if err := out.WriteByte('\n'); err != nil {
				return s, errors.Wrap(err, "write output")
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return s, errors.Wrap(err, "scan")
	}

	return s, nil
}

// replayRecord evaluates one record twice and returns the encoded result.
func replayRecord(ctx context.Context, record []byte, opts options, s *summary) ([]byte, error) {
	in, err := wire.DecodeInput(record)
	if err != nil {
		return nil, err
	}
	if opts.override {
		in.Config = opts.config
	}

	res, outcome := discount.Evaluate(ctx, in)
	first := wire.EncodeResult(res)
	second := wire.EncodeResult(discount.Run(ctx, in))
	if !bytes.Equal(first, second) {
		return nil, errors.Errorf("idempotence violation: %s != %s", first, second)
	}

	s.outcomes[outcome]++
	s.discounts += len(res.Discounts)
	return first, nil
}

func encodeRecordError(err error) []byte {
	e := jx.GetEncoder()
	defer jx.PutEncoder(e)

	e.ObjStart()
	e.FieldStart("error")
	e.Str(err.Error())
	e.ObjEnd()
	return append([]byte(nil), e.Bytes()...)
}
