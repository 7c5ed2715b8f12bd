package driving

import "github.com/custodia-labs/eolscan/internal/core/domain"

// SettingsService manages application settings.
type SettingsService interface {
	// Engine returns the engine, cache and orchestrator settings.
	Engine() domain.EngineSettings

	// Sources returns the lookup source settings.
	Sources() domain.SourceSettings

	// Set validates and persists a single setting by key.
	Set(key, value string) error

	// Keys lists every recognised setting key.
	Keys() []string
}
