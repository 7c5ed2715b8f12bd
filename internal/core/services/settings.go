package services

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/eolscan/internal/core/domain"
	"github.com/custodia-labs/eolscan/internal/core/ports/driven"
	"github.com/custodia-labs/eolscan/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyMaxQueries    = "engine.max_concurrent_queries"
	keyMaxCalls      = "engine.max_concurrent_calls"
	keySourceTimeout = "engine.source_timeout"
	keyQueryDeadline = "engine.query_deadline"
	keyCacheTTL      = "cache.ttl"
	keyNegativeTTL   = "cache.negative_ttl"
	keyCacheCapacity = "cache.capacity"
	keyCachePersist  = "cache.persist"
	keyEOLBaseURL    = "sources.endoflife.base_url"
	keyEOLRate       = "sources.endoflife.rate"
	keyGitHubToken   = "sources.github.token"
	keyGitHubRepos   = "sources.github.repos"
	keyLocalPath     = "sources.local.path"
	keyDisabled      = "sources.disabled"
)

type settingKind int

const (
	kindInt settingKind = iota
	kindFloat
	kindBool
	kindDuration
	kindString
	kindList
)

var settingKinds = map[string]settingKind{
	keyMaxQueries:    kindInt,
	keyMaxCalls:      kindInt,
	keySourceTimeout: kindDuration,
	keyQueryDeadline: kindDuration,
	keyCacheTTL:      kindDuration,
	keyNegativeTTL:   kindDuration,
	keyCacheCapacity: kindInt,
	keyCachePersist:  kindBool,
	keyEOLBaseURL:    kindString,
	keyEOLRate:       kindFloat,
	keyGitHubToken:   kindString,
	keyGitHubRepos:   kindList,
	keyLocalPath:     kindString,
	keyDisabled:      kindList,
}

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore) *SettingsService {
	return &SettingsService{configStore: configStore}
}

// Engine returns engine settings with defaults for anything unset.
func (s *SettingsService) Engine() domain.EngineSettings {
	defaults := domain.DefaultEngineSettings()
	return domain.EngineSettings{
		MaxConcurrentQueries: s.getInt(keyMaxQueries, defaults.MaxConcurrentQueries),
		MaxConcurrentCalls:   s.getInt(keyMaxCalls, defaults.MaxConcurrentCalls),
		SourceTimeout:        s.getDuration(keySourceTimeout, defaults.SourceTimeout),
		QueryDeadline:        s.getDuration(keyQueryDeadline, defaults.QueryDeadline),
		CacheTTL:             s.getDuration(keyCacheTTL, defaults.CacheTTL),
		NegativeCacheTTL:     s.getDuration(keyNegativeTTL, defaults.NegativeCacheTTL),
		CacheCapacity:        s.getInt(keyCacheCapacity, defaults.CacheCapacity),
		PersistCache:         s.getBool(keyCachePersist, defaults.PersistCache),
	}
}

// Sources returns lookup source settings with defaults for anything unset.
func (s *SettingsService) Sources() domain.SourceSettings {
	settings := domain.DefaultSourceSettings()
	settings.EndOfLifeBaseURL = s.getString(keyEOLBaseURL, settings.EndOfLifeBaseURL)
	if rate := s.configStore.GetFloat(keyEOLRate); rate > 0 {
		settings.EndOfLifeRate = rate
	}
	settings.GitHubToken = s.configStore.GetString(keyGitHubToken)
	settings.LocalPath = s.configStore.GetString(keyLocalPath)
	settings.Disabled = s.configStore.GetStringSlice(keyDisabled)

	for _, pair := range s.configStore.GetStringSlice(keyGitHubRepos) {
		product, repo, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		product = strings.ToLower(strings.TrimSpace(product))
		repo = strings.TrimSpace(repo)
		if product != "" && strings.Count(repo, "/") == 1 {
			settings.GitHubRepos[product] = repo
		}
	}
	return settings
}

// Set validates and persists a single setting.
func (s *SettingsService) Set(key, value string) error {
	kind, ok := settingKinds[key]
	if !ok {
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}

	var v any
	switch kind {
	case kindInt:
		n, err := strconv.Atoi(value)
		if err != nil || n <= 0 {
			return fmt.Errorf("%w: %s must be a positive integer", domain.ErrInvalidInput, key)
		}
		v = int64(n)
	case kindFloat:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil || f <= 0 {
			return fmt.Errorf("%w: %s must be a positive number", domain.ErrInvalidInput, key)
		}
		v = f
	case kindBool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%w: %s must be true or false", domain.ErrInvalidInput, key)
		}
		v = b
	case kindDuration:
		d, err := time.ParseDuration(value)
		if err != nil || d <= 0 {
			return fmt.Errorf("%w: %s must be a positive duration", domain.ErrInvalidInput, key)
		}
		v = value
	case kindList:
		var items []string
		for _, item := range strings.Split(value, ",") {
			if item = strings.TrimSpace(item); item != "" {
				items = append(items, item)
			}
		}
		v = items
	default:
		v = value
	}

	return s.configStore.Set(key, v)
}

// Keys lists every recognised setting key, sorted.
func (s *SettingsService) Keys() []string {
	keys := make([]string, 0, len(settingKinds))
	for k := range settingKinds {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (s *SettingsService) getString(key, defaultVal string) string {
	if val := s.configStore.GetString(key); val != "" {
		return val
	}
	return defaultVal
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	if val := s.configStore.GetInt(key); val > 0 {
		return val
	}
	return defaultVal
}

func (s *SettingsService) getBool(key string, defaultVal bool) bool {
	if _, ok := s.configStore.Get(key); !ok {
		return defaultVal
	}
	return s.configStore.GetBool(key)
}

func (s *SettingsService) getDuration(key string, defaultVal time.Duration) time.Duration {
	if val := s.configStore.GetDuration(key); val > 0 {
		return val
	}
	return defaultVal
}
