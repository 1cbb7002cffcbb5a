// © Copyright 2025-2026, Query.Farm LLC - https://query.farm
// SPDX-License-Identifier: Apache-2.0

// Package starrowotel provides OpenTelemetry instrumentation for starrow
// sessions. It implements the [starrow.CallHook] interface to add metrics
// and optional tracing around arrow module builtin calls.
//
// Usage:
//
//	hook := starrowotel.NewHook(starrowotel.DefaultConfig())
//	sess := starrow.NewSession(starrow.WithCallHook(hook))
package starrowotel

import (
	"context"
	"time"

	"github.com/Query-farm/starrow/starrow"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "starrow"

// Config configures OpenTelemetry instrumentation for a starrow session.
type Config struct {
	// TracerProvider supplies the tracer. Defaults to otel.GetTracerProvider().
	TracerProvider trace.TracerProvider
	// MeterProvider supplies the meter. Defaults to otel.GetMeterProvider().
	MeterProvider metric.MeterProvider
	// EnableTracing enables span creation per builtin call. Default false:
	// builtin calls are fine-grained, so spans are opt-in.
	EnableTracing bool
	// EnableMetrics enables counter and histogram recording. Default true.
	EnableMetrics bool
	// CustomAttributes are added to every measurement and span.
	CustomAttributes []attribute.KeyValue
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		EnableMetrics: true,
	}
}

// NewHook creates a CallHook recording OpenTelemetry metrics and optional
// spans for every arrow module builtin call.
func NewHook(cfg Config) starrow.CallHook {
	if cfg.TracerProvider == nil {
		cfg.TracerProvider = otel.GetTracerProvider()
	}
	if cfg.MeterProvider == nil {
		cfg.MeterProvider = otel.GetMeterProvider()
	}

	h := &otelHook{
		cfg:    cfg,
		tracer: cfg.TracerProvider.Tracer(instrumentationName),
	}

	if cfg.EnableMetrics {
		meter := cfg.MeterProvider.Meter(instrumentationName)
		h.callCounter, _ = meter.Int64Counter("starrow.calls",
			metric.WithUnit("{call}"),
			metric.WithDescription("Number of arrow module builtin calls"),
		)
		h.durationHistogram, _ = meter.Float64Histogram("starrow.call.duration",
			metric.WithUnit("s"),
			metric.WithDescription("Duration of arrow module builtin calls"),
		)
	}
	return h
}

// otelHook implements starrow.CallHook.
type otelHook struct {
	cfg               Config
	tracer            trace.Tracer
	callCounter       metric.Int64Counter
	durationHistogram metric.Float64Histogram
}

// callToken is the HookToken returned by OnCallStart.
type callToken struct {
	span      trace.Span
	startTime time.Time
}

func (h *otelHook) OnCallStart(info starrow.CallInfo) starrow.HookToken {
	token := &callToken{startTime: time.Now()}
	if h.cfg.EnableTracing {
		attrs := []attribute.KeyValue{
			attribute.String("starrow.module", info.Module),
			attribute.String("starrow.builtin", info.Builtin),
		}
		attrs = append(attrs, h.cfg.CustomAttributes...)
		_, span := h.tracer.Start(context.Background(), info.Module+"."+info.Builtin,
			trace.WithSpanKind(trace.SpanKindInternal),
			trace.WithAttributes(attrs...),
		)
		token.span = span
	}
	return token
}

func (h *otelHook) OnCallEnd(token starrow.HookToken, info starrow.CallInfo, err error) {
	t, ok := token.(*callToken)
	if !ok {
		return
	}

	duration := time.Since(t.startTime)

	status := "ok"
	if err != nil {
		status = "error"
	}

	if h.cfg.EnableMetrics {
		attrs := []attribute.KeyValue{
			attribute.String("starrow.module", info.Module),
			attribute.String("starrow.builtin", info.Builtin),
			attribute.String("status", status),
		}
		attrs = append(attrs, h.cfg.CustomAttributes...)
		metricAttrs := metric.WithAttributes(attrs...)
		if h.callCounter != nil {
			h.callCounter.Add(context.Background(), 1, metricAttrs)
		}
		if h.durationHistogram != nil {
			h.durationHistogram.Record(context.Background(), duration.Seconds(), metricAttrs)
		}
	}

	if t.span != nil {
		if err != nil {
			t.span.SetStatus(codes.Error, err.Error())
			t.span.RecordError(err)
		} else {
			t.span.SetStatus(codes.Ok, "")
		}
		t.span.End()
	}
}
