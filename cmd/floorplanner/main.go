/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"floorplanner/internal/advisor"
	"floorplanner/internal/config"
	"floorplanner/internal/crash"
	"floorplanner/internal/editor"
	applog "floorplanner/internal/log"
	"floorplanner/internal/telemetry"
	"floorplanner/internal/version"
)

func usage(w io.Writer) {
	fmt.Fprintln(w, "Floor Planner")
	fmt.Fprintf(w, "Version: %s\n", version.String())
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  floorplanner version|-v|--version                 Show version")
	fmt.Fprintln(w, "  floorplanner new <plan.json> [-room]              Create an empty plan, optionally with one room")
	fmt.Fprintln(w, "  floorplanner info <plan.json>                     Print a summary of the plan")
	fmt.Fprintln(w, "  floorplanner export <plan.json> <out> [flags]     Export to .svg, .png, .pdf or .json")
	fmt.Fprintln(w, "  floorplanner batch <plan.json> <dir> [flags]      Export with the web or print preset")
	fmt.Fprintln(w, "  floorplanner suggest <plan.json> [-apply]         Ask the AI advisor for a furniture layout")
	fmt.Fprintln(w, "  floorplanner evaluate <plan.json> [flags]         Ask the AI advisor to review the arrangement")
	fmt.Fprintln(w, "  floorplanner serve [-addr host:port]              Run the advisor HTTP service")
	fmt.Fprintln(w, "  floorplanner key set|forget <openai|advisor|jwt>  Manage secrets in the OS keychain")
	fmt.Fprintln(w, "  floorplanner ui [<plan.json>]                     Launch desktop UI (build with -tags fyne for full UI)")
}

var errUsage = errors.New("usage")

// env is what every command runs against.
type env struct {
	cfg     config.AppConfig
	secrets config.Secrets
	ed      *editor.Editor
	out     io.Writer
	// in feeds secret values to "key set" when none is given on the command line.
	in  io.Reader
	log *slog.Logger
}

func main() {
	cfg, secrets, cfgErr := config.Load()
	if cfgErr != nil {
		cfg = config.Defaults()
	}
	applog.Init(applog.Options{Level: cfg.Logging.Level, Format: cfg.Logging.Format, AddSource: cfg.Logging.Source, File: cfg.Logging.File})
	l := applog.WithComponent("cli")
	if cfgErr != nil {
		l.Warn("config not loaded, using defaults", slog.Any("err", cfgErr))
	}
	telemetry.SetDefault(telemetry.New(telemetry.FromEnv(cfg.General.TelemetryOptIn)))

	e := newEnv(cfg, secrets, os.Stdout)
	e.in = os.Stdin
	l.Debug("start", slog.Int("args", len(os.Args)))
	code := func() int {
		defer crash.Recover(e.ed.Handle())
		err := run(e, os.Args[1:])
		switch {
		case err == nil:
			return 0
		case errors.Is(err, errUsage):
			usage(os.Stdout)
			return 2
		default:
			l.Error("command failed", slog.Any("err", err))
			fmt.Println("Error:", err)
			return 1
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	telemetry.Default().Flush(ctx)
	cancel()
	telemetry.Default().Close()
	os.Exit(code)
}

func newEnv(cfg config.AppConfig, secrets config.Secrets, out io.Writer) *env {
	opts := editor.FromConfig(cfg.Editor)
	opts.Advisor = backendFor(cfg.Advisor, secrets)
	opts.AdvisorTimeout = cfg.Advisor.Timeout()
	opts.Telemetry = telemetry.Default()
	return &env{cfg: cfg, secrets: secrets, ed: editor.New(opts), out: out, log: applog.WithComponent("cli")}
}

// backendFor picks the advisor the editor talks to.
func backendFor(c config.AdvisorConfig, s config.Secrets) advisor.Advisor {
	switch c.Mode {
	case config.AdvisorOff:
		return advisor.Disabled{}
	case config.AdvisorHTTP:
		return advisor.NewHTTPClient(c.BaseURL, s.AdvisorToken, c.Timeout())
	}
	return advisor.NewOpenAI(advisor.OpenAIOptions{APIKey: s.OpenAIKey, Model: c.Model})
}

func run(e *env, args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	cmd, rest := args[0], args[1:]
	switch cmd {
	case "version", "--version", "-v":
		fmt.Fprintln(e.out, "Floor Planner")
		fmt.Fprintln(e.out, version.String())
		return nil
	case "new":
		return cmdNew(e, rest)
	case "info":
		return cmdInfo(e, rest)
	case "export":
		return cmdExport(e, rest)
	case "batch":
		return cmdBatch(e, rest)
	case "suggest":
		return cmdSuggest(e, rest)
	case "evaluate":
		return cmdEvaluate(e, rest)
	case "serve":
		return cmdServe(e, rest)
	case "key":
		return cmdKey(e, rest)
	case "ui":
		return cmdUI(e, rest)
	case "help", "-h", "--help":
		usage(e.out)
		return nil
	}
	return fmt.Errorf("%w: unknown command %q", errUsage, cmd)
}
