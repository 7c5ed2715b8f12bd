package sources

import (
	"context"
	"errors"
	"fmt"

	"github.com/custodia-labs/eolscan/internal/core/domain"
	"github.com/custodia-labs/eolscan/internal/core/ports/driven"
	"github.com/custodia-labs/eolscan/internal/logger"
	"github.com/custodia-labs/eolscan/internal/sources/endoflife"
	"github.com/custodia-labs/eolscan/internal/sources/github"
	"github.com/custodia-labs/eolscan/internal/sources/local"
	"github.com/custodia-labs/eolscan/internal/sources/microsoft"
)

// Builtin creates every configured lookup source, in registration order:
// local overrides, the vendor and product-family specialists, then the
// generic endoflife.date fallback. Sources listed in settings.Disabled are
// skipped. On error, sources already created are closed.
func Builtin(ctx context.Context, settings domain.SourceSettings) ([]driven.LookupSource, error) {
	var out []driven.LookupSource
	add := func(s driven.LookupSource) {
		if settings.IsDisabled(s.ID()) {
			logger.Debug("Source %s disabled by configuration", s.ID())
			if c, ok := s.(driven.Closer); ok {
				_ = c.Close()
			}
			return
		}
		out = append(out, s)
	}
	fail := func(err error) ([]driven.LookupSource, error) {
		return nil, errors.Join(err, closeAll(out))
	}

	if settings.LocalPath != "" && !settings.IsDisabled(local.SourceID) {
		s, err := local.New(settings.LocalPath)
		if err != nil {
			return fail(fmt.Errorf("local overrides: %w", err))
		}
		add(s)
	}

	ms, err := microsoft.New()
	if err != nil {
		return fail(fmt.Errorf("microsoft lifecycle table: %w", err))
	}
	add(ms)

	eol := endoflife.NewClient(settings.EndOfLifeBaseURL, settings.EndOfLifeRate)
	add(endoflife.NewDistroSource(eol))
	add(endoflife.NewRuntimeSource(eol))

	if len(settings.GitHubRepos) > 0 {
		client, err := github.NewClient(ctx, settings.GitHubToken)
		if err != nil {
			return fail(fmt.Errorf("github client: %w", err))
		}
		gs, err := github.New(client, settings.GitHubRepos)
		if err != nil {
			return fail(fmt.Errorf("github source: %w", err))
		}
		add(gs)
	}

	add(endoflife.NewGenericSource(eol))

	if len(out) == 0 {
		return nil, domain.ErrNoSources
	}
	return out, nil
}

func closeAll(sources []driven.LookupSource) error {
	var errs []error
	for _, s := range sources {
		if c, ok := s.(driven.Closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}
