// Package handler exposes the discount engine over HTTP.
package handler

import (
	"context"
	"io"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/xenking/volume-discount/internal/domain/discount"
	"github.com/xenking/volume-discount/internal/domain/shop"
	"github.com/xenking/volume-discount/internal/wire"
)

const (
	instrumentationName = "github.com/xenking/volume-discount/internal/handler"
	defaultMaxBodyBytes = 1 << 20
)

// Config holds non-dependency configuration for the Handler.
type Config struct {
	// Namespace and Key locate the rule configuration among shop metafields.
	Namespace string
	Key       string
	// MaxBodyBytes caps the size of an input document. Defaults to 1 MiB.
	MaxBodyBytes int64
}

// Handler runs the discount engine for host requests.
type Handler struct {
	cfg        Config
	metafields shop.Repository

	tracer      trace.Tracer
	invocations metric.Int64Counter
	applied     metric.Int64Counter
}

// New constructs a Handler. metafields may be nil, in which case only the
// document-scoped route is registered.
func New(
	cfg Config,
	metafields shop.Repository,
	tp trace.TracerProvider,
	mp metric.MeterProvider,
) (*Handler, error) {
	if cfg.Namespace == "" {
		cfg.Namespace = shop.DefaultNamespace
	}
	if cfg.Key == "" {
		cfg.Key = shop.DefaultKey
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = defaultMaxBodyBytes
	}

	meter := mp.Meter(instrumentationName)
	invocations, err := meter.Int64Counter("discount.invocations",
		metric.WithDescription("Discount engine invocations by outcome"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create invocations counter")
	}
	applied, err := meter.Int64Counter("discount.applied",
		metric.WithDescription("Discounts returned to the host"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create applied counter")
	}

	return &Handler{
		cfg:         cfg,
		metafields:  metafields,
		tracer:      tp.Tracer(instrumentationName),
		invocations: invocations,
		applied:     applied,
	}, nil
}

// Register mounts the handler's routes on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/discounts/run", h.Run)
	if h.metafields != nil {
		mux.HandleFunc("POST /api/shops/{shopID}/discounts/run", h.RunForShop)
	}
}

// Run evaluates the input document in the request body, using the rule
// configuration embedded in it.
func (h *Handler) Run(w http.ResponseWriter, r *http.Request) {
	in, ok := h.readInput(w, r)
	if !ok {
		return
	}
	h.evaluate(r.Context(), w, in)
}

// RunForShop evaluates the cart in the request body against the rule
// configuration stored for the shop in the path. Any configuration carried
// in the body is ignored.
func (h *Handler) RunForShop(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	shopID := r.PathValue("shopID")

	in, ok := h.readInput(w, r)
	if !ok {
		return
	}

	cfg, err := shop.ConfigText(ctx, h.metafields, shop.MetafieldKey{
		ShopID:    shopID,
		Namespace: h.cfg.Namespace,
		Key:       h.cfg.Key,
	})
	if err != nil {
		zctx.From(ctx).Error("Failed to load discount configuration",
			zap.String("shop_id", shopID),
			zap.Error(err),
		)
		writeError(w, http.StatusInternalServerError, "failed to load discount configuration")
		return
	}
	in.Config = cfg

	h.evaluate(ctx, w, in)
}

func (h *Handler) readInput(w http.ResponseWriter, r *http.Request) (discount.Input, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.cfg.MaxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return discount.Input{}, false
		}
		writeError(w, http.StatusBadRequest, "failed to read request body")
		return discount.Input{}, false
	}

	in, err := wire.DecodeInput(body)
	if err != nil {
		zctx.From(r.Context()).Debug("Rejected input document", zap.Error(err))
		writeError(w, http.StatusBadRequest, wire.ErrInvalidInput.Error())
		return discount.Input{}, false
	}
	return in, true
}

func (h *Handler) evaluate(ctx context.Context, w http.ResponseWriter, in discount.Input) {
	ctx, span := h.tracer.Start(ctx, "discount.Evaluate",
		trace.WithAttributes(attribute.Int("cart.lines", len(in.Lines))),
	)
	defer span.End()

	res, outcome := discount.Evaluate(ctx, in)

	span.SetAttributes(
		attribute.String("discount.outcome", outcome.String()),
		attribute.Int("discount.applied", len(res.Discounts)),
	)
	if outcome == discount.OutcomeMalformedConfig {
		span.SetStatus(codes.Error, "malformed discount configuration")
	}
	h.invocations.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome.String())))
	h.applied.Add(ctx, int64(len(res.Discounts)))

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(wire.EncodeResult(res))
}

// writeError responds with {"code":status,"message":msg}.
func writeError(w http.ResponseWriter, status int, msg string) {
	e := jx.GetEncoder()
	defer jx.PutEncoder(e)

	e.ObjStart()
	e.FieldStart("code")
	e.Int(status)
	e.FieldStart("message")
	e.Str(msg)
	e.ObjEnd()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(e.Bytes())
}
