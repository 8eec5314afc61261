/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * Licensed under the Apache License, Version 2.0
 */

package ui

import (
	"floorplanner/internal/advisor"
	"floorplanner/internal/config"
	"floorplanner/internal/telemetry"
)

// Options configure the desktop window. Zero values fall back to defaults.
type Options struct {
	// ProjectPath is opened on start when set.
	ProjectPath string
	Config      config.AppConfig
	Advisor     advisor.Advisor
	Telemetry   *telemetry.Client
}
