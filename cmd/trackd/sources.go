package main

import (
	"github.com/rs/zerolog"

	"github.com/clearhours/trackd/internal/activity"
	"github.com/clearhours/trackd/internal/config"
)

// registerSources assembles the activity connectors for this deployment.
// The open-source build ships without platform connectors; forks add their
// Gmail/Calendar/Drive clients here behind the activity.Source interface.
func registerSources(cfg *config.Config, logger zerolog.Logger) []activity.Source {
	var sources []activity.Source
	return sources
}
