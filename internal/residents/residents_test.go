package residents

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hongminglow/jiahe-fees/internal/models"
	"github.com/hongminglow/jiahe-fees/internal/storage"
	"github.com/hongminglow/jiahe-fees/internal/storage/memory"
)

var keys = storage.NewKeys("jiahe_")

func TestOpenMaterializesCrossProduct(t *testing.T) {
	ctx := context.Background()
	kv := memory.New()

	dir, err := Open(ctx, kv, keys, zap.NewNop())
	require.NoError(t, err)

	list := dir.List()
	require.Len(t, list, len(AddressNumbers)*MaxFloor)
	assert.Equal(t, "13-1", list[0].ID)
	assert.Equal(t, "23-3-10", list[len(list)-1].ID)

	seen := map[string]bool{}
	for _, r := range list {
		require.False(t, seen[r.ID], "duplicate id %s", r.ID)
		seen[r.ID] = true
		assert.Equal(t, BuildID(r.AddressNumber, "", r.Floor), r.ID)
	}

	var stored []models.Resident
	require.NoError(t, storage.ReadJSON(ctx, kv, keys.Residents(), &stored))
	assert.Len(t, stored, len(list))
}

func TestOpenKeepsStoredResidents(t *testing.T) {
	ctx := context.Background()
	kv := memory.New()
	dir, err := Open(ctx, kv, keys, zap.NewNop())
	require.NoError(t, err)

	r, err := dir.Get("21-2-7")
	require.NoError(t, err)
	r.CarCount = 2
	_, err = dir.Stage(r)
	require.NoError(t, err)
	require.NoError(t, dir.Sync(ctx))

	reopened, err := Open(ctx, kv, keys, zap.NewNop())
	require.NoError(t, err)
	got, err := reopened.Get("21-2-7")
	require.NoError(t, err)
	assert.Equal(t, 2, got.CarCount)
}

func TestOpenRebuildsCorruptCache(t *testing.T) {
	ctx := context.Background()
	kv := memory.New()
	require.NoError(t, kv.Set(ctx, keys.Residents(), []byte("not json")))

	dir, err := Open(ctx, kv, keys, zap.NewNop())
	require.NoError(t, err)
	assert.Len(t, dir.List(), len(AddressNumbers)*MaxFloor)
}

func TestStageUnknownResident(t *testing.T) {
	dir, err := Open(context.Background(), memory.New(), keys, zap.NewNop())
	require.NoError(t, err)
	_, err = dir.Stage(models.Resident{ID: "99-1"})
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestStageRestore(t *testing.T) {
	dir, err := Open(context.Background(), memory.New(), keys, zap.NewNop())
	require.NoError(t, err)
	r, _ := dir.Get("13-5")
	r.MotorcycleCount = 4

	restore, err := dir.Stage(r)
	require.NoError(t, err)
	staged, _ := dir.Get("13-5")
	assert.Equal(t, 4, staged.MotorcycleCount)

	restore()
	back, _ := dir.Get("13-5")
	assert.Equal(t, 0, back.MotorcycleCount)
}

func TestBuildAndParseID(t *testing.T) {
	assert.Equal(t, "13-5", BuildID("13", "", 5))
	assert.Equal(t, "21-2-3", BuildID("21", "2", 3))

	num, floor, err := ParseID("21-2-3")
	require.NoError(t, err)
	assert.Equal(t, "21-2", num)
	assert.Equal(t, 3, floor)

	for _, bad := range []string{"", "13", "13-0", "13-11", "14-2", "13-x", "-5"} {
		_, _, err := ParseID(bad)
		assert.ErrorIs(t, err, ErrInvalidID, bad)
	}
}

func TestApplyPaymentDerivesTiers(t *testing.T) {
	r := models.Resident{ID: "13-5"}
	parking := models.ParkingConfig{
		Moto: models.ParkingUnits{SmallCount: 2, LargeCount: 1},
		Car:  models.ParkingUnits{SmallCount: 1},
	}
	out := ApplyPayment(r, parking, models.PaymentPeriods{})

	assert.Equal(t, 3, out.MotorcycleCount)
	assert.Equal(t, models.ParkingLarge, out.MotorcycleParking)
	assert.Equal(t, 1, out.CarCount)
	assert.Equal(t, models.ParkingSmall, out.CarParking)
	require.NotNil(t, out.LastParkingConfig)
	assert.Equal(t, parking, *out.LastParkingConfig)
}
