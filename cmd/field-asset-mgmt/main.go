package main

import (
	"context"
	"runtime/debug"
	"strings"

	"github.com/diwise/service-chassis/pkg/infrastructure/env"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/logging"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/awcwater/field-asset-mgmt/internal/pkg/application/plantstore"
	"github.com/awcwater/field-asset-mgmt/internal/pkg/infrastructure/pagecache"
	"github.com/awcwater/field-asset-mgmt/internal/pkg/infrastructure/storage"
	"github.com/awcwater/field-asset-mgmt/pkg/client"
	"github.com/awcwater/field-asset-mgmt/pkg/types"
)

const serviceName = "field-asset-mgmt"

const defaultPageSize = 20

func main() {
	serviceVersion := version()

	logger := newLogger(serviceName, serviceVersion)
	logger.Info().Msg("starting up ...")

	ctx := logging.NewContextWithLogger(context.Background(), logger)

	apiURL := env.GetVariableOrDefault(logger, "FIELD_ASSET_API_URL", "http://localhost:8080")
	snapshotPath := env.GetVariableOrDefault(logger, "FIELD_ASSET_SNAPSHOT_PATH", "field-asset-snapshots.db")

	c := client.New(apiURL)

	snapshots, err := storage.New(storage.NewSQLiteConnector(snapshotPath))
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open snapshot store")
	}

	plants := plantstore.New(c, snapshots)

	err = plants.Refresh(ctx)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load plant data")
	}

	if plants.Source() != plantstore.SourceServer {
		logger.Warn().Err(plants.Err()).Msgf("running on %s data", plants.Source())
	}

	stations := pagecache.New(
		func(s types.StationSummary) string { return s.ID },
		func(ctx context.Context, key pagecache.Key) (types.Page[types.StationSummary], error) {
			return c.ListStations(ctx, key.Filter, key.Page, defaultPageSize)
		},
	)

	err = stations.Refresh(ctx, pagecache.Key{Kind: "stations", Page: 0})
	if err != nil {
		logger.Warn().Err(err).Msg("failed to prefetch stations")
	}

	logger.Info().Msgf("ready with %d plants", len(plants.Plants()))
}

func newLogger(serviceName, serviceVersion string) zerolog.Logger {
	logger := log.With().Str("service", strings.ToLower(serviceName)).Str("version", serviceVersion).Logger()
	return logger
}

func version() string {
	buildInfo, ok := debug.ReadBuildInfo()
	if !ok {
		return "unknown"
	}

	buildSettings := buildInfo.Settings
	infoMap := map[string]string{}
	for _, s := range buildSettings {
		infoMap[s.Key] = s.Value
	}

	sha := infoMap["vcs.revision"]
	if infoMap["vcs.modified"] == "true" {
		sha += "+"
	}

	return sha
}
