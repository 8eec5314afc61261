/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * Licensed under the Apache License, Version 2.0
 */

package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"floorplanner/internal/advisor"
	"floorplanner/internal/config"
	"floorplanner/internal/domain"
	"floorplanner/internal/editor"
	"floorplanner/internal/export"
	"floorplanner/internal/server"
	"floorplanner/internal/ui"
)

// parseArgs lets flags and positional arguments mix in any order.
func parseArgs(fs *flag.FlagSet, args []string) ([]string, error) {
	var pos []string
	for {
		if err := fs.Parse(args); err != nil {
			return nil, fmt.Errorf("%w: %w", errUsage, err)
		}
		if fs.NArg() == 0 {
			return pos, nil
		}
		pos = append(pos, fs.Arg(0))
		args = fs.Args()[1:]
	}
}

func flagSet(e *env, name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(e.out)
	return fs
}

func wantArgs(pos []string, n int, cmd string) error {
	if len(pos) != n {
		return fmt.Errorf("%w: %s takes %d argument(s), got %d", errUsage, cmd, n, len(pos))
	}
	return nil
}

func cmdNew(e *env, args []string) error {
	fs := flagSet(e, "new")
	room := fs.Bool("room", false, "add a default 400x300 room")
	pos, err := parseArgs(fs, args)
	if err != nil {
		return err
	}
	if err := wantArgs(pos, 1, "new"); err != nil {
		return err
	}
	path, _ := filepath.Abs(pos[0])
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists", path)
	}
	if *room {
		if _, err := e.ed.AddRoom(); err != nil {
			return err
		}
	}
	e.log.Info("new plan", slog.String("path", path), slog.Bool("room", *room))
	if err := e.ed.SaveAs(path); err != nil {
		return err
	}
	fmt.Fprintln(e.out, "Created plan at", path)
	return nil
}

func (e *env) open(path string) error {
	abs, _ := filepath.Abs(path)
	if err := e.ed.Open(abs); err != nil {
		return err
	}
	if e.ed.Handle().Recovered {
		fmt.Fprintln(e.out, "Warning: plan file was damaged, loaded the latest backup")
	}
	return nil
}

func cmdInfo(e *env, args []string) error {
	pos, err := parseArgs(flagSet(e, "info"), args)
	if err != nil {
		return err
	}
	if err := wantArgs(pos, 1, "info"); err != nil {
		return err
	}
	if err := e.open(pos[0]); err != nil {
		return err
	}
	items := e.ed.Store.Items()
	fmt.Fprintf(e.out, "Plan: %s\n", e.ed.Path())
	fmt.Fprintf(e.out, "Items: %d\n", len(items))
	counts := map[domain.Kind]int{}
	for _, it := range items {
		counts[it.Kind()]++
	}
	for _, k := range []domain.Kind{domain.KindRoom, domain.KindFurniture, domain.KindSurface, domain.KindMeasurement, domain.KindAnnotation} {
		if counts[k] > 0 {
			fmt.Fprintf(e.out, "  %s: %d\n", k, counts[k])
		}
	}
	if s := e.ed.Store.Scale(); s.Calibrated() {
		fmt.Fprintf(e.out, "Scale: 1 m = %.1f px\n", s.Pixels/s.Meters)
	} else {
		fmt.Fprintln(e.out, "Scale: not calibrated")
	}
	if e.ed.Store.Background() != "" {
		fmt.Fprintln(e.out, "Background: set")
	}
	fmt.Fprintln(e.out, "Layers (top first):")
	for _, row := range e.ed.Layers() {
		mark := "x"
		if !row.Visible {
			mark = " "
		}
		fmt.Fprintf(e.out, "  [%s] %s (%s)\n", mark, row.Label, row.Kind)
	}
	return nil
}

func cmdExport(e *env, args []string) error {
	fs := flagSet(e, "export")
	format := fs.String("format", "", "svg, png, pdf or json; defaults to the output extension")
	scale := fs.Float64("scale", 0, "output units per plan pixel")
	margin := fs.Float64("margin", 0, "margin around the drawing in plan pixels")
	title := fs.String("title", "", "document title")
	pos, err := parseArgs(fs, args)
	if err != nil {
		return err
	}
	if err := wantArgs(pos, 2, "export"); err != nil {
		return err
	}
	if err := e.open(pos[0]); err != nil {
		return err
	}
	out := pos[1]
	f := strings.ToLower(strings.TrimSpace(*format))
	if f == "json" || (f == "" && strings.EqualFold(filepath.Ext(out), ".json")) {
		w, err := os.Create(out)
		if err != nil {
			return err
		}
		if err := e.ed.Export(w); err != nil {
			_ = w.Close()
			return err
		}
		if err := w.Close(); err != nil {
			return err
		}
		fmt.Fprintln(e.out, "Exported", out)
		return nil
	}
	var ef export.Format
	if f != "" {
		if ef, err = export.ParseFormat(f); err != nil {
			return err
		}
	}
	opt := export.Options{Scale: *scale, Margin: *margin, Title: *title}
	if err := e.ed.ExportImage(out, ef, opt); err != nil {
		return err
	}
	fmt.Fprintln(e.out, "Exported", out)
	return nil
}

func cmdBatch(e *env, args []string) error {
	fs := flagSet(e, "batch")
	preset := fs.String("preset", string(export.PresetWeb), "web or print")
	formats := fs.String("formats", "", "comma separated formats; empty uses the preset defaults")
	name := fs.String("name", "", "file name without extension; defaults to the plan name")
	pos, err := parseArgs(fs, args)
	if err != nil {
		return err
	}
	if err := wantArgs(pos, 2, "batch"); err != nil {
		return err
	}
	if err := e.open(pos[0]); err != nil {
		return err
	}
	p := export.PresetName(strings.ToLower(*preset))
	if p != export.PresetWeb && p != export.PresetPrint {
		return fmt.Errorf("unknown preset %q", *preset)
	}
	opt := export.BatchOptions{Preset: p, OutDir: pos[1], Name: *name}
	if opt.Name == "" {
		opt.Name = strings.TrimSuffix(filepath.Base(pos[0]), filepath.Ext(pos[0]))
	}
	for _, f := range strings.Split(*formats, ",") {
		if f = strings.TrimSpace(f); f != "" {
			opt.Formats = append(opt.Formats, f)
		}
	}
	written, err := export.BatchExport(e.ed.ExportScene(), opt)
	for _, w := range written {
		fmt.Fprintln(e.out, "Exported", w)
	}
	return err
}

// await waits for the request just started and prints its outcome.
func (e *env) await() (editor.Notification, error) {
	ctx, cancel := context.WithTimeout(context.Background(), e.cfg.Advisor.Timeout()+5*time.Second)
	defer cancel()
	n, err := e.ed.Wait(ctx)
	if err != nil {
		return n, err
	}
	if n.Result.Err != nil {
		return n, fmt.Errorf("%s: %w", strings.TrimSuffix(n.Message, "."), n.Result.Err)
	}
	fmt.Fprintln(e.out, n.Title)
	fmt.Fprintln(e.out, advisor.Describe(n.Result))
	return n, nil
}

func cmdSuggest(e *env, args []string) error {
	fs := flagSet(e, "suggest")
	apply := fs.Bool("apply", false, "move the furniture and save the plan")
	pos, err := parseArgs(fs, args)
	if err != nil {
		return err
	}
	if err := wantArgs(pos, 1, "suggest"); err != nil {
		return err
	}
	if err := e.open(pos[0]); err != nil {
		return err
	}
	if err := e.ed.SuggestLayout(); err != nil {
		return err
	}
	n, err := e.await()
	if err != nil {
		return err
	}
	if !*apply {
		return nil
	}
	moved := e.ed.ApplyLayout(n.Result.Layout)
	if err := e.ed.Save(); err != nil {
		return err
	}
	fmt.Fprintf(e.out, "Moved %d furniture pieces and saved %s\n", moved, e.ed.Path())
	return nil
}

func cmdEvaluate(e *env, args []string) error {
	fs := flagSet(e, "evaluate")
	description := fs.String("description", "", "how the furniture is arranged; defaults to the furniture list")
	preferences := fs.String("preferences", "", "what matters to you, e.g. cozy or lots of light")
	pos, err := parseArgs(fs, args)
	if err != nil {
		return err
	}
	if err := wantArgs(pos, 1, "evaluate"); err != nil {
		return err
	}
	if err := e.open(pos[0]); err != nil {
		return err
	}
	if err := e.ed.Evaluate(*description, *preferences); err != nil {
		return err
	}
	_, err = e.await()
	return err
}

func cmdServe(e *env, args []string) error {
	fs := flagSet(e, "serve")
	addr := fs.String("addr", e.cfg.Server.Addr, "listen address")
	metrics := fs.Bool("metrics", e.cfg.Server.EnableMetrics, "expose /metrics")
	pos, err := parseArgs(fs, args)
	if err != nil {
		return err
	}
	if err := wantArgs(pos, 0, "serve"); err != nil {
		return err
	}
	// the service answers for the http mode itself, so it needs a model behind it
	ac := e.cfg.Advisor
	if ac.Mode == config.AdvisorHTTP {
		ac.Mode = config.AdvisorOpenAI
	}
	srv := server.New(server.Config{
		Addr:           *addr,
		EnableMetrics:  *metrics,
		AccessLog:      e.cfg.Server.AccessLog,
		JWTSecret:      e.secrets.JWTSecret,
		RequestTimeout: e.cfg.Advisor.Timeout(),
	}, backendFor(ac, e.secrets))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	fmt.Fprintf(e.out, "Advisor service listening on %s\n", *addr)
	return srv.Run(ctx)
}

var secretKeys = map[string]string{
	"openai":  config.KeyOpenAI,
	"advisor": config.KeyAdvisor,
	"jwt":     config.KeyJWTSecret,
}

func cmdKey(e *env, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("%w: key needs an action and a name", errUsage)
	}
	action, name := args[0], strings.ToLower(args[1])
	key, ok := secretKeys[name]
	if !ok {
		return fmt.Errorf("%w: unknown secret %q", errUsage, name)
	}
	switch action {
	case "set":
		var value string
		if len(args) > 2 {
			value = args[2]
		} else if e.in != nil {
			fmt.Fprintf(e.out, "Enter %s secret: ", name)
			line, err := bufio.NewReader(e.in).ReadString('\n')
			if err != nil && err != io.EOF {
				return err
			}
			value = strings.TrimSpace(line)
		}
		if err := config.SetSecret(key, value); err != nil {
			return err
		}
		fmt.Fprintf(e.out, "Stored %s secret in the keychain\n", name)
		return nil
	case "forget":
		if err := config.ForgetSecret(key); err != nil {
			return err
		}
		fmt.Fprintf(e.out, "Removed %s secret\n", name)
		return nil
	}
	return fmt.Errorf("%w: unknown key action %q", errUsage, action)
}

func cmdUI(e *env, args []string) error {
	var path string
	if len(args) > 0 {
		path, _ = filepath.Abs(args[0])
	}
	return ui.Run(ui.Options{
		ProjectPath: path,
		Config:      e.cfg,
		Advisor:     backendFor(e.cfg.Advisor, e.secrets),
		Telemetry:   e.ed.Telemetry(),
	})
}
