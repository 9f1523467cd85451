// Package storage persists the most recent plant collection to local disk
// so the application can come back up with data when the backend is
// unreachable.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/logging"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/awcwater/field-asset-mgmt/pkg/types"
)

const plantsKey = "plants"

var ErrNoSnapshot = errors.New("no snapshot stored")

type ConnectorFunc func() (*gorm.DB, error)

func NewSQLiteConnector(filePath string) ConnectorFunc {
	return func() (*gorm.DB, error) {
		db, err := gorm.Open(sqlite.Open(filePath), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})

		if err == nil {
			sqldb, _ := db.DB()
			sqldb.SetMaxOpenConns(1)
		}

		return db, err
	}
}

type SnapshotStore interface {
	Save(ctx context.Context, plants []types.Plant) error
	Load(ctx context.Context) ([]types.Plant, error)
}

type snapshot struct {
	Key       string `gorm:"primarykey"`
	Data      []byte
	UpdatedAt time.Time
}

type store struct {
	db *gorm.DB
}

func New(connect ConnectorFunc) (SnapshotStore, error) {
	impl, err := connect()
	if err != nil {
		return nil, err
	}

	err = impl.AutoMigrate(&snapshot{})
	if err != nil {
		return nil, err
	}

	return &store{db: impl}, nil
}

// Save replaces the stored collection wholesale. Partial updates are
// never written, so a load always yields a collection that was complete at
// some point in time.
func (s *store) Save(ctx context.Context, plants []types.Plant) error {
	data, err := json.Marshal(plants)
	if err != nil {
		return fmt.Errorf("failed to marshal plants: %w", err)
	}

	row := snapshot{Key: plantsKey, Data: data, UpdatedAt: time.Now().UTC()}

	result := s.db.WithContext(ctx).Save(&row)
	if result.Error != nil {
		return fmt.Errorf("failed to store snapshot: %w", result.Error)
	}

	log := logging.GetFromContext(ctx)
	log.Debug().Msgf("stored plant snapshot (%d bytes)", len(data))

	return nil
}

func (s *store) Load(ctx context.Context) ([]types.Plant, error) {
	var row snapshot

	result := s.db.WithContext(ctx).First(&row, "key = ?", plantsKey)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrNoSnapshot
		}
		return nil, fmt.Errorf("failed to read snapshot: %w", result.Error)
	}

	var plants []types.Plant
	err := json.Unmarshal(row.Data, &plants)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal stored plants: %w", err)
	}

	return plants, nil
}
