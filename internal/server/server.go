/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package server exposes the advisor flows over HTTP so that thin clients
// (or an editor without an API key) can reach the model through one host.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/golang-jwt/jwt/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"floorplanner/internal/advisor"
	applog "floorplanner/internal/log"
	"floorplanner/internal/version"
)

type Config struct {
	Addr          string
	EnableMetrics bool
	AccessLog     bool
	// JWTSecret enables HS256 bearer auth on /api routes when non-empty.
	JWTSecret      string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	RequestTimeout time.Duration
}

func (c Config) withDefaults() Config {
	if c.Addr == "" {
		c.Addr = "127.0.0.1:8787"
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = 10 * time.Second
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = 90 * time.Second
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = 60 * time.Second
	}
	return c
}

type Server struct {
	app     *fiber.App
	cfg     Config
	advisor advisor.Advisor
	log     *slog.Logger
}

func New(cfg Config, adv advisor.Advisor) *Server {
	cfg = cfg.withDefaults()
	if adv == nil {
		adv = advisor.Disabled{}
	}
	s := &Server{cfg: cfg, advisor: adv, log: applog.WithComponent("server")}

	app := fiber.New(fiber.Config{
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		AppName:      "Floor Planner Advisor",
	})

	// ============================================================
	// Global Middleware
	// ============================================================

	app.Use(recover.New())
	if cfg.AccessLog {
		app.Use(logger.New(logger.Config{
			Format:     "[${time}] ${status} - ${latency} ${method} ${path}\n",
			TimeFormat: "15:04:05",
			TimeZone:   "Local",
		}))
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowHeaders: []string{"Origin", "Content-Type", "Authorization"},
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
	}))

	// ============================================================
	// Health & Info
	// ============================================================

	app.Get("/health/live", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "alive"})
	})
	app.Get("/health/ready", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ready"})
	})
	app.Get("/version", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{"version": version.String()})
	})
	if cfg.EnableMetrics {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
	}

	// ============================================================
	// Advisor Routes
	// ============================================================

	api := app.Group("/api")
	if cfg.JWTSecret != "" {
		api.Use(s.requireBearer)
	}
	api.Post(strings.TrimPrefix(advisor.PathSuggestLayout, "/api"), s.suggestLayout)
	api.Post(strings.TrimPrefix(advisor.PathEvaluateArrangement, "/api"), s.evaluateArrangement)

	s.app = app
	return s
}

// App exposes the fiber app, mainly for app.Test in tests.
func (s *Server) App() *fiber.App { return s.app }

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errc := make(chan error, 1)
	go func() {
		s.log.Info("advisor service listening", slog.String("addr", s.cfg.Addr))
		errc <- s.app.Listen(s.cfg.Addr, fiber.ListenConfig{DisableStartupMessage: true})
	}()
	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.app.ShutdownWithContext(sctx)
	}
}

func (s *Server) requireBearer(c fiber.Ctx) error {
	raw := c.Get("Authorization")
	tokenString, ok := strings.CutPrefix(raw, "Bearer ")
	if !ok || tokenString == "" {
		return c.Status(http.StatusUnauthorized).JSON(fiber.Map{"error": "missing bearer token"})
	}
	_, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(s.cfg.JWTSecret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return c.Status(http.StatusUnauthorized).JSON(fiber.Map{"error": "invalid token"})
	}
	return c.Next()
}

// decode reads a JSON body into dest and validates it.
func decode(c fiber.Ctx, dest any) error {
	if len(c.Body()) == 0 {
		return errors.New("empty body")
	}
	if err := json.Unmarshal(c.Body(), dest); err != nil {
		return errors.New("invalid json")
	}
	return advisor.Validate(dest)
}

func (s *Server) fail(c fiber.Ctx, flow advisor.Flow, err error) error {
	status := http.StatusBadGateway
	if errors.Is(err, advisor.ErrDisabled) {
		status = http.StatusServiceUnavailable
	}
	requestsTotal.WithLabelValues(string(flow), "error").Inc()
	s.log.Warn("advisor request failed", slog.String("flow", string(flow)), slog.Any("err", err))
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}

func (s *Server) suggestLayout(c fiber.Ctx) error {
	var req advisor.LayoutRequest
	if err := decode(c, &req); err != nil {
		requestsTotal.WithLabelValues(string(advisor.FlowSuggestLayout), "invalid").Inc()
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	ctx, cancel := context.WithTimeout(c.Context(), s.cfg.RequestTimeout)
	defer cancel()
	began := time.Now()
	out, err := s.advisor.SuggestLayout(ctx, req)
	requestDuration.WithLabelValues(string(advisor.FlowSuggestLayout)).Observe(time.Since(began).Seconds())
	if err != nil {
		return s.fail(c, advisor.FlowSuggestLayout, err)
	}
	requestsTotal.WithLabelValues(string(advisor.FlowSuggestLayout), "ok").Inc()
	return c.JSON(out)
}

func (s *Server) evaluateArrangement(c fiber.Ctx) error {
	var req advisor.EvaluationRequest
	if err := decode(c, &req); err != nil {
		requestsTotal.WithLabelValues(string(advisor.FlowEvaluate), "invalid").Inc()
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	ctx, cancel := context.WithTimeout(c.Context(), s.cfg.RequestTimeout)
	defer cancel()
	began := time.Now()
	out, err := s.advisor.Evaluate(ctx, req)
	requestDuration.WithLabelValues(string(advisor.FlowEvaluate)).Observe(time.Since(began).Seconds())
	if err != nil {
		return s.fail(c, advisor.FlowEvaluate, err)
	}
	requestsTotal.WithLabelValues(string(advisor.FlowEvaluate), "ok").Inc()
	return c.JSON(out)
}
