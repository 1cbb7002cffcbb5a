// © Copyright 2025-2026, Query.Farm LLC - https://query.farm
// SPDX-License-Identifier: Apache-2.0

// Command starrow runs Starlark scripts with the arrow module predeclared,
// evaluates single expressions, and inspects Arrow IPC files.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/Query-farm/starrow/starrow"
	starrowotel "github.com/Query-farm/starrow/starrow/otel"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.starlark.net/starlark"
)

func main() {
	root := &cobra.Command{
		Use:           "starrow",
		Short:         "Starlark scripting for Apache Arrow data",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().Bool("otel", false, "emit OpenTelemetry metrics and traces to stdout")
	root.PersistentFlags().Uint64("max-steps", 0, "Starlark computation step limit (0 = default)")
	root.PersistentFlags().Duration("timeout", 0, "execution timeout (0 = default, negative = none)")
	addCommands(root)

	if err := root.Execute(); err != nil {
		slog.Error("starrow failed", "err", err)
		os.Exit(1)
	}
}

func addCommands(root *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "run script.star",
		Short: "Run a Starlark script with the arrow module predeclared",
		Args:  cobra.ExactArgs(1),
		RunE:  runScript,
	}
	root.AddCommand(cmd)

	cmd = &cobra.Command{
		Use:   "eval expression",
		Short: "Evaluate a Starlark expression and print the result",
		Args:  cobra.ExactArgs(1),
		RunE:  evalExpr,
	}
	root.AddCommand(cmd)

	cmd = &cobra.Command{
		Use:   "inspect file.arrows",
		Short: "Print the schema and shape of an Arrow IPC file (zstd detected)",
		Args:  cobra.ExactArgs(1),
		RunE:  inspectFile,
	}
	root.AddCommand(cmd)
}

// newSession builds a session honoring the persistent flags, returning the
// session and a cleanup function.
func newSession(cmd *cobra.Command) (*starrow.Session, func(), error) {
	useOtel, _ := cmd.Flags().GetBool("otel")

	shutdown := func() {}
	opts := []starrow.SessionOption{}
	if useOtel {
		stop, err := setupOtel()
		if err != nil {
			return nil, nil, fmt.Errorf("setting up OpenTelemetry: %w", err)
		}
		shutdown = stop
		opts = append(opts, starrow.WithCallHook(starrowotel.NewHook(starrowotel.DefaultConfig())))
	}

	sess := starrow.NewSession(opts...)
	cleanup := func() {
		sess.Close()
		shutdown()
	}
	return sess, cleanup, nil
}

func runOptions(cmd *cobra.Command) *starrow.RunOptions {
	maxSteps, _ := cmd.Flags().GetUint64("max-steps")
	timeout, _ := cmd.Flags().GetDuration("timeout")
	return &starrow.RunOptions{
		MaxSteps: maxSteps,
		Timeout:  timeout,
		Print:    func(_ *starlark.Thread, msg string) { fmt.Println(msg) },
	}
}

func runScript(cmd *cobra.Command, args []string) error {
	sess, cleanup, err := newSession(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	_, err = sess.Run(args[0], nil, runOptions(cmd))
	return err
}

func evalExpr(cmd *cobra.Command, args []string) error {
	sess, cleanup, err := newSession(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	v, err := sess.Eval(args[0], runOptions(cmd))
	if err != nil {
		return err
	}
	fmt.Println(v.String())
	return nil
}

func inspectFile(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	tbl, err := starrow.ReadTable(f)
	if err != nil {
		return err
	}
	defer tbl.Release()

	fmt.Printf("schema:\n%s\n", tbl.Schema())
	fmt.Printf("columns: %d\n", tbl.NumCols())
	fmt.Printf("rows: %d\n", tbl.NumRows())
	return nil
}

// setupOtel installs stdout exporters for traces and metrics and returns a
// shutdown function that flushes both.
func setupOtel() (func(), error) {
	traceExp, err := stdouttrace.New()
	if err != nil {
		return nil, err
	}
	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(traceExp))
	otel.SetTracerProvider(tp)

	metricExp, err := stdoutmetric.New()
	if err != nil {
		return nil, err
	}
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(
		sdkmetric.NewPeriodicReader(metricExp, sdkmetric.WithInterval(5*time.Second)),
	))
	otel.SetMeterProvider(mp)

	return func() {
		ctx := context.Background()
		if err := tp.Shutdown(ctx); err != nil {
			slog.Error("trace provider shutdown", "err", err)
		}
		if err := mp.Shutdown(ctx); err != nil {
			slog.Error("meter provider shutdown", "err", err)
		}
	}, nil
}
