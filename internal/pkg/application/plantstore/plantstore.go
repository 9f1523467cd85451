// Package plantstore holds the in-memory collection of plants and their
// devices, keeps it in sync with the backend, and falls back to a stored
// snapshot or the built-in seed data when the backend is unreachable.
package plantstore

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/logging"
	"github.com/samber/lo"

	"github.com/awcwater/field-asset-mgmt/internal/pkg/infrastructure/storage"
	"github.com/awcwater/field-asset-mgmt/pkg/types"
)

var (
	ErrDuplicateID = errors.New("id already exists")
	ErrNotFound    = errors.New("not found")
)

// PlantAPI is the slice of the backend client the store depends on.
type PlantAPI interface {
	ListPlants(ctx context.Context) ([]types.Plant, error)
	ListDevices(ctx context.Context, plantID string) ([]types.Device, error)

	CreatePlant(ctx context.Context, plant types.Plant) error
	UpdatePlant(ctx context.Context, plant types.Plant) error
	DeletePlant(ctx context.Context, plantID string) error

	CreateDevice(ctx context.Context, plantID string, device types.Device) error
	UpdateDevice(ctx context.Context, plantID string, device types.Device) error
	DeleteDevice(ctx context.Context, plantID, deviceID string) error

	ReplaceTags(ctx context.Context, plantID, deviceID string, tags []string) error
	AddTags(ctx context.Context, plantID, deviceID string, tags []string) error
	RemoveTag(ctx context.Context, plantID, deviceID, tag string) error
}

// Source reports where the current collection came from.
type Source string

const (
	SourceNone     Source = ""
	SourceServer   Source = "server"
	SourceSnapshot Source = "snapshot"
	SourceSeed     Source = "seed"
)

type Store struct {
	mu      sync.RWMutex
	plants  []types.Plant
	source  Source
	lastErr error

	api       PlantAPI
	snapshots storage.SnapshotStore
}

func New(api PlantAPI, snapshots storage.SnapshotStore) *Store {
	return &Store{
		api:       api,
		snapshots: snapshots,
	}
}

// Plants returns a copy of the current collection. Callers can hold on to
// the result without racing later mutations.
func (s *Store) Plants() []types.Plant {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return clonePlants(s.plants)
}

func (s *Store) Plant(id string) (types.Plant, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, p := range s.plants {
		if p.ID == id {
			return clonePlant(p), true
		}
	}
	return types.Plant{}, false
}

// Source reports whether the collection reflects live server data, a
// stored snapshot or the built-in seed.
func (s *Store) Source() Source {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.source
}

// Err returns the cause recorded when the latest refresh had to
// fall back, or nil after a clean refresh.
func (s *Store) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.lastErr
}

// Refresh pulls the full collection from the backend, fetching each
// plant's devices concurrently. If anything fails the store falls back to
// the latest stored snapshot, then to the seed data, and records the
// cause; the store is always left with a usable collection.
func (s *Store) Refresh(ctx context.Context) error {
	log := logging.GetFromContext(ctx)

	plants, err := s.api.ListPlants(ctx)
	if err != nil {
		return s.fallback(ctx, fmt.Errorf("failed to fetch plants: %w", err))
	}

	var wg sync.WaitGroup
	errs := make([]error, len(plants))

	for i := range plants {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()

			devices, err := s.api.ListDevices(ctx, plants[i].ID)
			if err != nil {
				errs[i] = fmt.Errorf("failed to fetch devices for plant %s: %w", plants[i].ID, err)
				return
			}
			plants[i].Devices = devices
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return s.fallback(ctx, err)
		}
	}

	s.mu.Lock()
	s.plants = plants
	s.source = SourceServer
	s.lastErr = nil
	s.mu.Unlock()

	log.Info().Msgf("refreshed %d plants from server", len(plants))

	return s.persist(ctx)
}

func (s *Store) fallback(ctx context.Context, cause error) error {
	log := logging.GetFromContext(ctx)

	plants, err := s.snapshots.Load(ctx)
	source := SourceSnapshot

	if err != nil {
		if !errors.Is(err, storage.ErrNoSnapshot) {
			log.Error().Err(err).Msg("failed to load snapshot")
		}

		plants, err = SeedPlants()
		if err != nil {
			return err
		}
		source = SourceSeed
	}

	s.mu.Lock()
	s.plants = plants
	s.source = source
	s.lastErr = cause
	s.mu.Unlock()

	log.Warn().Err(cause).Msgf("backend unavailable, using %s data (%d plants)", source, len(plants))

	return nil
}

// AddPlant creates a plant on the server and, once confirmed, adds it to
// the local collection. A duplicate id fails fast before any network call.
func (s *Store) AddPlant(ctx context.Context, plant types.Plant) error {
	s.mu.RLock()
	for _, p := range s.plants {
		if p.ID == plant.ID {
			s.mu.RUnlock()
			return fmt.Errorf("plant %s: %w", plant.ID, ErrDuplicateID)
		}
	}
	s.mu.RUnlock()

	err := s.api.CreatePlant(ctx, plant)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.plants = append(s.plants, clonePlant(plant))
	s.mu.Unlock()

	return s.persist(ctx)
}

func (s *Store) UpdatePlant(ctx context.Context, plant types.Plant) error {
	err := s.api.UpdatePlant(ctx, plant)
	if err != nil {
		return err
	}

	s.mu.Lock()
	for i := range s.plants {
		if s.plants[i].ID == plant.ID {
			plant.Devices = s.plants[i].Devices
			s.plants[i] = plant
			break
		}
	}
	s.mu.Unlock()

	return s.persist(ctx)
}

func (s *Store) DeletePlant(ctx context.Context, plantID string) error {
	err := s.api.DeletePlant(ctx, plantID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.plants = lo.Reject(s.plants, func(p types.Plant, _ int) bool {
		return p.ID == plantID
	})
	s.mu.Unlock()

	return s.persist(ctx)
}

// AddDevice creates a device on the server and adds it to its plant. The
// device id must be unique within the plant.
func (s *Store) AddDevice(ctx context.Context, plantID string, device types.Device) error {
	s.mu.RLock()
	idx, _, err := s.findDevice(plantID, device.ID)
	s.mu.RUnlock()

	if err == nil {
		return fmt.Errorf("device %s: %w", device.ID, ErrDuplicateID)
	}
	if idx < 0 {
		return err
	}

	err = s.api.CreateDevice(ctx, plantID, device)
	if err != nil {
		return err
	}

	s.mu.Lock()
	for i := range s.plants {
		if s.plants[i].ID == plantID {
			s.plants[i].Devices = append(s.plants[i].Devices, device)
			break
		}
	}
	s.mu.Unlock()

	return s.persist(ctx)
}

// DevicePatch carries the fields an update may change. Nil fields keep
// their current value; the device id is never part of a patch.
type DevicePatch struct {
	Name   *string
	Type   *string
	System *string
	Area   *types.Area
	Loc    *types.Location
	Scan   *types.ScanInfo
	Tags   *[]string
	Docs   *[]types.Doc
}

// UpdateDevice merges the patch onto the current device record and sends
// the complete merged device to the server, so unknown fields on the
// server side are never blanked by a sparse update. When no current
// record exists for the id, the merge carries only the patch fields and
// the server decides whether that is a complete device.
func (s *Store) UpdateDevice(ctx context.Context, plantID, deviceID string, patch DevicePatch) error {
	s.mu.RLock()
	_, current, _ := s.findDevice(plantID, deviceID)
	s.mu.RUnlock()

	merged := current
	if patch.Name != nil {
		merged.Name = *patch.Name
	}
	if patch.Type != nil {
		merged.Type = *patch.Type
	}
	if patch.System != nil {
		merged.System = *patch.System
	}
	if patch.Area != nil {
		merged.Area = *patch.Area
	}
	if patch.Loc != nil {
		merged.Loc = *patch.Loc
	}
	if patch.Scan != nil {
		merged.Scan = patch.Scan
	}
	if patch.Tags != nil {
		merged.Tags = *patch.Tags
	}
	if patch.Docs != nil {
		merged.Docs = *patch.Docs
	}
	merged.ID = deviceID

	err := s.api.UpdateDevice(ctx, plantID, merged)
	if err != nil {
		return err
	}

	s.replaceDevice(plantID, merged)

	return s.persist(ctx)
}

func (s *Store) DeleteDevice(ctx context.Context, plantID, deviceID string) error {
	err := s.api.DeleteDevice(ctx, plantID, deviceID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	for i := range s.plants {
		if s.plants[i].ID == plantID {
			s.plants[i].Devices = lo.Reject(s.plants[i].Devices, func(d types.Device, _ int) bool {
				return d.ID == deviceID
			})
			break
		}
	}
	s.mu.Unlock()

	return s.persist(ctx)
}

// ReplaceTags overwrites a device's tag set.
func (s *Store) ReplaceTags(ctx context.Context, plantID, deviceID string, tags []string) error {
	s.mu.RLock()
	_, current, err := s.findDevice(plantID, deviceID)
	s.mu.RUnlock()

	if err != nil {
		return err
	}

	tags = lo.Uniq(tags)

	err = s.api.ReplaceTags(ctx, plantID, deviceID, tags)
	if err != nil {
		return err
	}

	current.Tags = tags
	s.replaceDevice(plantID, current)

	return s.persist(ctx)
}

// AddTags appends tags to a device, dropping duplicates.
func (s *Store) AddTags(ctx context.Context, plantID, deviceID string, tags []string) error {
	s.mu.RLock()
	_, current, err := s.findDevice(plantID, deviceID)
	s.mu.RUnlock()

	if err != nil {
		return err
	}

	err = s.api.AddTags(ctx, plantID, deviceID, tags)
	if err != nil {
		return err
	}

	current.Tags = lo.Uniq(append(current.Tags, tags...))
	s.replaceDevice(plantID, current)

	return s.persist(ctx)
}

func (s *Store) RemoveTag(ctx context.Context, plantID, deviceID, tag string) error {
	s.mu.RLock()
	_, current, err := s.findDevice(plantID, deviceID)
	s.mu.RUnlock()

	if err != nil {
		return err
	}

	err = s.api.RemoveTag(ctx, plantID, deviceID, tag)
	if err != nil {
		return err
	}

	current.Tags = lo.Without(current.Tags, tag)
	s.replaceDevice(plantID, current)

	return s.persist(ctx)
}

// persist writes the full collection synchronously so the snapshot on
// disk always reflects the last confirmed state.
func (s *Store) persist(ctx context.Context) error {
	s.mu.RLock()
	plants := clonePlants(s.plants)
	s.mu.RUnlock()

	err := s.snapshots.Save(ctx, plants)
	if err != nil {
		return fmt.Errorf("failed to persist plants: %w", err)
	}

	return nil
}

func (s *Store) findDevice(plantID, deviceID string) (plantIdx int, device types.Device, err error) {
	for i, p := range s.plants {
		if p.ID != plantID {
			continue
		}
		for _, d := range p.Devices {
			if d.ID == deviceID {
				return i, d, nil
			}
		}
		return i, types.Device{}, fmt.Errorf("device %s: %w", deviceID, ErrNotFound)
	}
	return -1, types.Device{}, fmt.Errorf("plant %s: %w", plantID, ErrNotFound)
}

func (s *Store) replaceDevice(plantID string, device types.Device) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.plants {
		if s.plants[i].ID != plantID {
			continue
		}
		for j := range s.plants[i].Devices {
			if s.plants[i].Devices[j].ID == device.ID {
				s.plants[i].Devices[j] = device
				return
			}
		}
	}
}

func clonePlants(plants []types.Plant) []types.Plant {
	return lo.Map(plants, func(p types.Plant, _ int) types.Plant {
		return clonePlant(p)
	})
}

func clonePlant(p types.Plant) types.Plant {
	p.Devices = append([]types.Device(nil), p.Devices...)
	return p
}
