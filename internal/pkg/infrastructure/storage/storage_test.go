package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/matryer/is"

	"github.com/awcwater/field-asset-mgmt/pkg/types"
)

func newTempStore(t *testing.T) SnapshotStore {
	t.Helper()

	s, err := New(NewSQLiteConnector(filepath.Join(t.TempDir(), "snapshots.db")))
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestLoadWithoutSaveReturnsErrNoSnapshot(t *testing.T) {
	is := is.New(t)
	s := newTempStore(t)

	_, err := s.Load(context.Background())
	is.True(errors.Is(err, ErrNoSnapshot))
}

func TestSaveThenLoadRoundTrip(t *testing.T) {
	is := is.New(t)
	s := newTempStore(t)

	plants := []types.Plant{
		{
			ID:   "ULL",
			Name: "Ullrich WTP",
			Devices: []types.Device{
				{ID: "PT-0102", Name: "Basin 1 Pressure", Type: "transmitter"},
			},
		},
		{ID: "SAR", Name: "South Austin Regional"},
	}

	ctx := context.Background()
	is.NoErr(s.Save(ctx, plants))

	loaded, err := s.Load(ctx)
	is.NoErr(err)
	is.Equal(loaded, plants)
}

func TestSaveReplacesPreviousSnapshot(t *testing.T) {
	is := is.New(t)
	s := newTempStore(t)

	ctx := context.Background()
	is.NoErr(s.Save(ctx, []types.Plant{{ID: "ULL", Name: "Ullrich WTP"}, {ID: "SAR", Name: "South Austin Regional"}}))
	is.NoErr(s.Save(ctx, []types.Plant{{ID: "ULL", Name: "Ullrich WTP"}}))

	loaded, err := s.Load(ctx)
	is.NoErr(err)
	is.Equal(len(loaded), 1)
}

func TestSnapshotSurvivesReopen(t *testing.T) {
	is := is.New(t)

	dbPath := filepath.Join(t.TempDir(), "snapshots.db")

	s, err := New(NewSQLiteConnector(dbPath))
	is.NoErr(err)

	ctx := context.Background()
	is.NoErr(s.Save(ctx, []types.Plant{{ID: "ULL-REMOTE", Name: "Ullrich Remote Facility"}}))

	reopened, err := New(NewSQLiteConnector(dbPath))
	is.NoErr(err)

	loaded, err := reopened.Load(ctx)
	is.NoErr(err)
	is.Equal(loaded[0].ID, "ULL-REMOTE")
}
