package plantstore

import (
	"context"
	"errors"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/matryer/is"

	"github.com/awcwater/field-asset-mgmt/internal/pkg/infrastructure/storage"
	"github.com/awcwater/field-asset-mgmt/pkg/types"
)

type fakeAPI struct {
	calls atomic.Int32

	plants  []types.Plant
	devices map[string][]types.Device

	failAll    bool
	lastDevice types.Device
	lastTags   []string
}

func (f *fakeAPI) bump() error {
	f.calls.Add(1)
	if f.failAll {
		return errors.New("backend unavailable")
	}
	return nil
}

func (f *fakeAPI) ListPlants(ctx context.Context) ([]types.Plant, error) {
	if err := f.bump(); err != nil {
		return nil, err
	}
	return f.plants, nil
}

func (f *fakeAPI) ListDevices(ctx context.Context, plantID string) ([]types.Device, error) {
	if err := f.bump(); err != nil {
		return nil, err
	}
	return f.devices[plantID], nil
}

func (f *fakeAPI) CreatePlant(ctx context.Context, plant types.Plant) error  { return f.bump() }
func (f *fakeAPI) UpdatePlant(ctx context.Context, plant types.Plant) error  { return f.bump() }
func (f *fakeAPI) DeletePlant(ctx context.Context, plantID string) error     { return f.bump() }
func (f *fakeAPI) DeleteDevice(ctx context.Context, p, d string) error       { return f.bump() }
func (f *fakeAPI) RemoveTag(ctx context.Context, p, d, tag string) error {
	return f.bump()
}

func (f *fakeAPI) CreateDevice(ctx context.Context, plantID string, device types.Device) error {
	f.lastDevice = device
	return f.bump()
}

func (f *fakeAPI) UpdateDevice(ctx context.Context, plantID string, device types.Device) error {
	f.lastDevice = device
	return f.bump()
}

func (f *fakeAPI) ReplaceTags(ctx context.Context, p, d string, tags []string) error {
	f.lastTags = tags
	return f.bump()
}

func (f *fakeAPI) AddTags(ctx context.Context, p, d string, tags []string) error {
	f.lastTags = tags
	return f.bump()
}

func newTestStore(t *testing.T, api *fakeAPI) *Store {
	t.Helper()

	snapshots, err := storage.New(storage.NewSQLiteConnector(filepath.Join(t.TempDir(), "snapshots.db")))
	if err != nil {
		t.Fatal(err)
	}

	return New(api, snapshots)
}

func TestRefreshAssemblesPlantsWithTheirDevices(t *testing.T) {
	is := is.New(t)
	api := &fakeAPI{
		plants: []types.Plant{{ID: "ULL", Name: "Ullrich WTP"}, {ID: "SAR", Name: "South Austin Regional"}},
		devices: map[string][]types.Device{
			"ULL": {{ID: "PT-0102", Name: "Raw Water Pressure Transmitter"}},
		},
	}
	store := newTestStore(t, api)

	is.NoErr(store.Refresh(context.Background()))
	is.Equal(store.Source(), SourceServer)
	is.NoErr(store.Err())

	plant, ok := store.Plant("ULL")
	is.True(ok)
	is.Equal(len(plant.Devices), 1)
	is.Equal(plant.Devices[0].ID, "PT-0102")
}

func TestRefreshFallsBackToSeedWhenNothingStored(t *testing.T) {
	is := is.New(t)
	api := &fakeAPI{failAll: true}
	store := newTestStore(t, api)

	is.NoErr(store.Refresh(context.Background()))
	is.Equal(store.Source(), SourceSeed)
	is.True(store.Err() != nil)

	plant, ok := store.Plant("ULL")
	is.True(ok)
	is.Equal(plant.Name, "Ullrich WTP")
	is.Equal(len(plant.Devices), 2)
}

func TestRefreshPrefersSnapshotOverSeed(t *testing.T) {
	is := is.New(t)
	api := &fakeAPI{
		plants: []types.Plant{{ID: "CUSTOM", Name: "Custom Plant"}},
	}
	store := newTestStore(t, api)

	// a successful refresh persists a snapshot
	is.NoErr(store.Refresh(context.Background()))

	api.failAll = true
	is.NoErr(store.Refresh(context.Background()))

	is.Equal(store.Source(), SourceSnapshot)
	_, ok := store.Plant("CUSTOM")
	is.True(ok)
}

func TestAddPlantDuplicateFailsBeforeAnyNetworkCall(t *testing.T) {
	is := is.New(t)
	api := &fakeAPI{plants: []types.Plant{{ID: "ULL", Name: "Ullrich WTP"}}}
	store := newTestStore(t, api)
	is.NoErr(store.Refresh(context.Background()))

	before := api.calls.Load()
	err := store.AddPlant(context.Background(), types.Plant{ID: "ULL", Name: "Duplicate"})
	is.True(errors.Is(err, ErrDuplicateID))
	is.Equal(api.calls.Load(), before)
}

func TestDeletePlantServerErrorLeavesStateUnchanged(t *testing.T) {
	is := is.New(t)
	api := &fakeAPI{plants: []types.Plant{{ID: "ULL", Name: "Ullrich WTP"}}}
	store := newTestStore(t, api)
	is.NoErr(store.Refresh(context.Background()))

	api.failAll = true
	err := store.DeletePlant(context.Background(), "ULL")
	is.True(err != nil)

	_, ok := store.Plant("ULL")
	is.True(ok)
}

func TestUpdateDeviceMergesPatchAndKeepsID(t *testing.T) {
	is := is.New(t)
	api := &fakeAPI{
		plants: []types.Plant{{ID: "ULL", Name: "Ullrich WTP"}},
		devices: map[string][]types.Device{
			"ULL": {{
				ID:     "PT-0102",
				Name:   "Raw Water Pressure Transmitter",
				Type:   "transmitter",
				System: "raw-water",
				Tags:   []string{"pressure"},
			}},
		},
	}
	store := newTestStore(t, api)
	is.NoErr(store.Refresh(context.Background()))

	name := "Basin 1 Pressure"
	err := store.UpdateDevice(context.Background(), "ULL", "PT-0102", DevicePatch{Name: &name})
	is.NoErr(err)

	// the full merged record went over the wire, id untouched
	is.Equal(api.lastDevice.ID, "PT-0102")
	is.Equal(api.lastDevice.Name, "Basin 1 Pressure")
	is.Equal(api.lastDevice.Type, "transmitter")
	is.Equal(api.lastDevice.System, "raw-water")
	is.Equal(api.lastDevice.Tags, []string{"pressure"})

	plant, _ := store.Plant("ULL")
	is.Equal(plant.Devices[0].Name, "Basin 1 Pressure")
}

func TestUpdateMissingDeviceSendsPatchOnlyRecord(t *testing.T) {
	is := is.New(t)
	api := &fakeAPI{plants: []types.Plant{{ID: "ULL", Name: "Ullrich WTP"}}}
	store := newTestStore(t, api)
	is.NoErr(store.Refresh(context.Background()))

	// no current record to merge onto: the update still goes out, carrying
	// just the patch fields, and it is the server's call to accept or
	// reject it
	name := "Basin 1 Pressure"
	is.NoErr(store.UpdateDevice(context.Background(), "ULL", "PT-9999", DevicePatch{Name: &name}))
	is.Equal(api.lastDevice.ID, "PT-9999")
	is.Equal(api.lastDevice.Name, "Basin 1 Pressure")
	is.Equal(api.lastDevice.Type, "")
}

func TestTagOperations(t *testing.T) {
	is := is.New(t)
	api := &fakeAPI{
		plants: []types.Plant{{ID: "ULL", Name: "Ullrich WTP"}},
		devices: map[string][]types.Device{
			"ULL": {{ID: "PT-0102", Tags: []string{"pressure"}}},
		},
	}
	store := newTestStore(t, api)
	is.NoErr(store.Refresh(context.Background()))

	ctx := context.Background()

	is.NoErr(store.AddTags(ctx, "ULL", "PT-0102", []string{"intake", "pressure"}))
	plant, _ := store.Plant("ULL")
	is.Equal(plant.Devices[0].Tags, []string{"pressure", "intake"})

	is.NoErr(store.RemoveTag(ctx, "ULL", "PT-0102", "pressure"))
	plant, _ = store.Plant("ULL")
	is.Equal(plant.Devices[0].Tags, []string{"intake"})

	is.NoErr(store.ReplaceTags(ctx, "ULL", "PT-0102", []string{"valve", "valve", "spare"}))
	is.Equal(api.lastTags, []string{"valve", "spare"})
}

func TestSeedDataParses(t *testing.T) {
	is := is.New(t)

	plants, err := SeedPlants()
	is.NoErr(err)
	is.Equal(len(plants), 3)
	is.Equal(plants[0].ID, "ULL")
	is.Equal(plants[0].Devices[0].Scan.QR, "ULL-PT-0102")
}
