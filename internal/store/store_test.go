package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bikeshare-backend/internal/model"
)

func station(number int, name string) model.Station {
	s := model.Station{
		Number:         number,
		Name:           name,
		Address:        name + " Street",
		Status:         model.StatusOpen,
		BikeStands:     10,
		AvailableBikes: 4,
		LastUpdate:     1700000000000,
	}
	s.Normalize()
	return s
}

func TestStore_Contract(t *testing.T) {
	ctx := context.Background()

	for name, s := range newStores(t) {
		t.Run(name, func(t *testing.T) {
			t.Run("empty store", func(t *testing.T) {
				all, err := s.LoadAll(ctx)
				require.NoError(t, err)
				assert.Empty(t, all)

				_, err = s.FindByNumber(ctx, 1)
				assert.ErrorIs(t, err, ErrNotFound)
			})

			t.Run("insert assigns an id", func(t *testing.T) {
				created, err := s.Insert(ctx, station(1, "One"))
				require.NoError(t, err)
				assert.NotEmpty(t, created.ID)

				found, err := s.FindByNumber(ctx, 1)
				require.NoError(t, err)
				assert.Equal(t, created.ID, found.ID)
				assert.Equal(t, "One", found.Name)
			})

			t.Run("duplicate number is rejected without side effects", func(t *testing.T) {
				_, err := s.Insert(ctx, station(1, "Impostor"))
				assert.ErrorIs(t, err, ErrDuplicateNumber)

				all, err := s.LoadAll(ctx)
				require.NoError(t, err)
				require.Len(t, all, 1)
				assert.Equal(t, "One", all[0].Name)
			})

			t.Run("replace keeps the id", func(t *testing.T) {
				before, err := s.FindByNumber(ctx, 1)
				require.NoError(t, err)

				next := station(1, "Renamed")
				next.ID = "client-supplied"
				replaced, err := s.ReplaceByNumber(ctx, 1, next)
				require.NoError(t, err)
				assert.Equal(t, before.ID, replaced.ID)

				after, err := s.FindByNumber(ctx, 1)
				require.NoError(t, err)
				assert.Equal(t, before.ID, after.ID)
				assert.Equal(t, "Renamed", after.Name)
			})

			t.Run("replace unknown number", func(t *testing.T) {
				_, err := s.ReplaceByNumber(ctx, 404, station(404, "Ghost"))
				assert.ErrorIs(t, err, ErrNotFound)
			})

			t.Run("upsert overwrites and inserts", func(t *testing.T) {
				all, err := s.LoadAll(ctx)
				require.NoError(t, err)
				require.Len(t, all, 1)

				all[0].AvailableBikes = 9
				all[0].Normalize()
				all = append(all, station(2, "Two"))
				require.NoError(t, s.UpsertAll(ctx, all))

				one, err := s.FindByNumber(ctx, 1)
				require.NoError(t, err)
				assert.Equal(t, 9, one.AvailableBikes)
				assert.Equal(t, all[0].ID, one.ID)

				two, err := s.FindByNumber(ctx, 2)
				require.NoError(t, err)
				assert.NotEmpty(t, two.ID)

				reloaded, err := s.LoadAll(ctx)
				require.NoError(t, err)
				assert.Len(t, reloaded, 2)
			})

			t.Run("upsert of nothing", func(t *testing.T) {
				assert.NoError(t, s.UpsertAll(ctx, nil))
			})
		})
	}
}

func TestStore_LoadAllReturnsSnapshot(t *testing.T) {
	ctx := context.Background()

	for name, s := range newStores(t) {
		t.Run(name, func(t *testing.T) {
			_, err := s.Insert(ctx, station(1, "One"))
			require.NoError(t, err)

			all, err := s.LoadAll(ctx)
			require.NoError(t, err)
			all[0].Name = "changed by caller"

			found, err := s.FindByNumber(ctx, 1)
			require.NoError(t, err)
			assert.Equal(t, "One", found.Name)
		})
	}
}

func TestStore_WritesNeverRegress(t *testing.T) {
	ctx := context.Background()

	for name, s := range newStores(t) {
		t.Run(name, func(t *testing.T) {
			_, err := s.Insert(ctx, station(1, "One"))
			require.NoError(t, err)

			stale, err := s.FindByNumber(ctx, 1)
			require.NoError(t, err)
			fresh, err := s.FindByNumber(ctx, 1)
			require.NoError(t, err)

			fresh.Name = "Fresh"
			fresh.LastUpdate += 5000
			_, err = s.ReplaceByNumber(ctx, 1, fresh)
			require.NoError(t, err)

			stale.Name = "Stale"
			_, err = s.ReplaceByNumber(ctx, 1, stale)
			assert.ErrorIs(t, err, ErrConcurrentUpdate, "replace from an old read is rejected")

			require.NoError(t, s.UpsertAll(ctx, []model.Station{stale}))
			stored, err := s.FindByNumber(ctx, 1)
			require.NoError(t, err)
			assert.Equal(t, "Fresh", stored.Name, "upsert from an old read is skipped")
			assert.Equal(t, fresh.LastUpdate, stored.LastUpdate)

			older := station(1, "Unversioned")
			replaced, err := s.ReplaceByNumber(ctx, 1, older)
			require.NoError(t, err)
			assert.Equal(t, fresh.LastUpdate, replaced.LastUpdate)

			older.ID = replaced.ID
			older.Name = "Upserted"
			require.NoError(t, s.UpsertAll(ctx, []model.Station{older}))
			stored, err = s.FindByNumber(ctx, 1)
			require.NoError(t, err)
			assert.Equal(t, "Upserted", stored.Name)
			assert.Equal(t, fresh.LastUpdate, stored.LastUpdate, "last_update keeps the later value")
		})
	}
}
