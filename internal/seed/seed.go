package seed

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/yigit/exchangeintake/internal/pkg/catalog"
	"github.com/yigit/exchangeintake/internal/pkg/eligibility"
)

// WarmCatalog loads the first catalog snapshot so the first student request
// does not wait on the download. Failures are logged; the provider retries on demand.
func WarmCatalog(ctx context.Context, provider catalog.Provider, lgr zerolog.Logger) {
	lgr.Info().Msg("Warming course catalog...")

	rows, err := provider.Snapshot(ctx)
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to warm catalog, proceeding anyway...")
		return
	}

	info := provider.Info()
	event := lgr.Info()
	if info.Fallback {
		event = lgr.Warn()
	}
	event.
		Str("source", info.Source).
		Int("rows", len(rows)).
		Int("countries", len(eligibility.Countries(rows))).
		Bool("fallback", info.Fallback).
		Msg("Catalog ready")
}
