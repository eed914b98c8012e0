package preview

import (
	"context"
	"os"
	"testing"
	"time"

	"cmsadmin/internal/model"
	"cmsadmin/internal/spreadsheet"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func sampleReport() *spreadsheet.Report {
	name := "Batch 1"
	quota := 20
	status := model.ScheduleFullBooked
	return &spreadsheet.Report{
		Records: []model.ScheduleImport{{
			ScheduleName: &name,
			Quota:        &quota,
			Status:       &status,
			ScheduleDate: &model.CellDate{Time: time.Date(2025, 11, 15, 0, 0, 0, 0, time.UTC)},
		}},
		Mismatches: []spreadsheet.Mismatch{{Column: "B", Expected: "schedule_description", Found: "desc"}},
	}
}

func exercise(t *testing.T, store Store) {
	ctx := context.Background()
	p := New("user-1", "SCHEDULE_TEMPLATE.xlsx", spreadsheet.Standard, sampleReport())
	require.NotEmpty(t, p.ID)

	require.NoError(t, store.Save(ctx, p))

	got, err := store.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "user-1", got.Owner)
	assert.Equal(t, spreadsheet.Standard, got.Variant)
	require.Len(t, got.Records, 1)
	assert.Equal(t, "Batch 1", *got.Records[0].ScheduleName)
	assert.Equal(t, 20, *got.Records[0].Quota)
	assert.Equal(t, model.ScheduleFullBooked, *got.Records[0].Status)
	assert.Equal(t, "2025-11-15", got.Records[0].ScheduleDate.String())
	assert.Len(t, got.Mismatches, 1)

	require.NoError(t, store.Delete(ctx, p.ID))
	_, err = store.Get(ctx, p.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore(t *testing.T) {
	exercise(t, NewMemoryStore(8, time.Minute))
}

func TestMemoryStore_Expires(t *testing.T) {
	store := NewMemoryStore(8, 20*time.Millisecond)
	p := New("u", "f.xlsx", spreadsheet.Standard, &spreadsheet.Report{})
	require.NoError(t, store.Save(context.Background(), p))

	assert.Eventually(t, func() bool {
		_, err := store.Get(context.Background(), p.ID)
		return err == ErrNotFound
	}, time.Second, 10*time.Millisecond)
}

func TestNew_UniqueIDs(t *testing.T) {
	a := New("u", "f", spreadsheet.Standard, &spreadsheet.Report{})
	b := New("u", "f", spreadsheet.Standard, &spreadsheet.Report{})
	assert.NotEqual(t, a.ID, b.ID)
}

func TestRedisStore(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6380"
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	defer rdb.Close()
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		t.Skipf("Skipping test: Redis not available: %v", err)
	}

	store := NewRedisStore(rdb, time.Minute, zap.NewNop())
	exercise(t, store)

	p := New("u", "f.xlsx", spreadsheet.Standard, &spreadsheet.Report{})
	require.NoError(t, store.Save(context.Background(), p))
	ttl, err := rdb.TTL(context.Background(), keyPrefix+p.ID).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))
	store.Delete(context.Background(), p.ID)
}
