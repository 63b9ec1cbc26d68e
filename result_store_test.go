package couponsim

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/go-redis/redismock/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestReport(t *testing.T) *SimulationReport {
	t.Helper()

	p := ProbabilityVector{0.5, 0.25}
	sim := newTestSimulator(WithSeed(31), WithWorkers(2))
	hist, err := sim.Run(context.Background(), p, 200, 20)
	require.NoError(t, err)

	return NewSimulationReport(p, hist, sim, time.Now().Add(-time.Second))
}

func newTestStore(db *redis.Client) *RedisResultStore {
	return NewRedisResultStoreWithRetry(db, NewSilentLogger(), DefaultResultTTL, 2, time.Millisecond)
}

func TestNewSimulationReport(t *testing.T) {
	report := newTestReport(t)

	assert.NotEmpty(t, report.ID)
	assert.Equal(t, ProbabilityVector{0.5, 0.25}, report.Probabilities)
	assert.Equal(t, 200, report.Trials)
	assert.Equal(t, 20, report.MaxRuns)
	assert.Equal(t, uint64(31), report.Seed)
	assert.True(t, report.Seeded)
	assert.Equal(t, 2, report.Workers)
	assert.Len(t, report.Counts, 20)
	assert.False(t, report.FinishedAt.Before(report.StartedAt))
	require.NoError(t, report.Validate())

	hist := report.Histogram()
	hist.Counts[0] = 1000
	assert.NotEqual(t, int64(1000), report.Counts[0], "Histogram must return a copy")
}

func TestSimulationReportValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*SimulationReport)
		wantErr error
	}{
		{"valid", func(r *SimulationReport) {}, nil},
		{"empty_id", func(r *SimulationReport) { r.ID = "" }, ErrInvalidArguments},
		{"invalid_probabilities", func(r *SimulationReport) { r.Probabilities = nil }, ErrEmptyProbabilities},
		{"length_mismatch", func(r *SimulationReport) { r.Counts = r.Counts[:5] }, ErrReportCorrupted},
		{"negative_count", func(r *SimulationReport) { r.Counts[0] = -1 }, ErrReportCorrupted},
		{"trial_mismatch", func(r *SimulationReport) { r.Trials++ }, ErrReportCorrupted},
		{"capped_exceeds_last_bucket", func(r *SimulationReport) { r.Capped = r.Counts[len(r.Counts)-1] + 1 }, ErrReportCorrupted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report := newTestReport(t)
			tt.modify(report)

			err := report.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestSerializeReport(t *testing.T) {
	report := newTestReport(t)

	data, err := serializeReport(report)
	require.NoError(t, err)

	restored, err := deserializeReport(data)
	require.NoError(t, err)
	assert.Equal(t, report.ID, restored.ID)
	assert.Equal(t, report.Counts, restored.Counts)
	assert.Equal(t, report.Capped, restored.Capped)
	assert.Equal(t, report.Seed, restored.Seed)

	t.Run("nil_report", func(t *testing.T) {
		_, err := serializeReport(nil)
		assert.ErrorIs(t, err, ErrInvalidArguments)
	})

	t.Run("invalid_report", func(t *testing.T) {
		broken := *report
		broken.Trials = -1
		_, err := serializeReport(&broken)
		assert.ErrorIs(t, err, ErrReportCorrupted)
	})

	t.Run("empty_data", func(t *testing.T) {
		_, err := deserializeReport(nil)
		assert.ErrorIs(t, err, ErrDeserializationFailed)
	})

	t.Run("malformed_json", func(t *testing.T) {
		_, err := deserializeReport([]byte("{not json"))
		assert.ErrorIs(t, err, ErrDeserializationFailed)
	})

	t.Run("corrupted_histogram", func(t *testing.T) {
		broken := *report
		broken.Counts = []int64{1}
		raw, err := json.Marshal(&broken)
		require.NoError(t, err)

		_, err = deserializeReport(raw)
		assert.ErrorIs(t, err, ErrReportCorrupted)
	})
}

func TestResultKey(t *testing.T) {
	key := resultKey("20240101_120000_abcd")
	assert.Equal(t, "couponsim:result:20240101_120000_abcd", key)

	id, err := parseResultKey(key)
	require.NoError(t, err)
	assert.Equal(t, "20240101_120000_abcd", id)

	_, err = parseResultKey("other:prefix:x")
	assert.Error(t, err)
	_, err = parseResultKey(ResultKeyPrefix)
	assert.Error(t, err)
}

func TestRedisResultStore_Save(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		db, mock := redismock.NewClientMock()
		store := newTestStore(db)
		report := newTestReport(t)

		mock.Regexp().ExpectSet(resultKey(report.ID), `.*`, DefaultResultTTL).SetVal("OK")

		require.NoError(t, store.Save(ctx, report))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("retries_transient_errors", func(t *testing.T) {
		db, mock := redismock.NewClientMock()
		store := newTestStore(db)
		report := newTestReport(t)

		mock.Regexp().ExpectSet(resultKey(report.ID), `.*`, DefaultResultTTL).SetErr(errors.New("connection refused"))
		mock.Regexp().ExpectSet(resultKey(report.ID), `.*`, DefaultResultTTL).SetVal("OK")

		require.NoError(t, store.Save(ctx, report))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("gives_up_after_retries", func(t *testing.T) {
		db, mock := redismock.NewClientMock()
		store := newTestStore(db)
		monitor := NewPerformanceMonitor()
		store.SetMonitor(monitor)
		report := newTestReport(t)

		for range 3 {
			mock.Regexp().ExpectSet(resultKey(report.ID), `.*`, DefaultResultTTL).SetErr(errors.New("i/o timeout"))
		}

		err := store.Save(ctx, report)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrReportSaveFailure)
		assert.Equal(t, int64(3), monitor.GetMetrics().StoreErrors)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("non_retryable_error", func(t *testing.T) {
		db, mock := redismock.NewClientMock()
		store := newTestStore(db)
		report := newTestReport(t)

		mock.Regexp().ExpectSet(resultKey(report.ID), `.*`, DefaultResultTTL).SetErr(errors.New("OOM command not allowed"))

		err := store.Save(ctx, report)
		assert.ErrorIs(t, err, ErrReportSaveFailure)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("invalid_report", func(t *testing.T) {
		db, mock := redismock.NewClientMock()
		store := newTestStore(db)

		err := store.Save(ctx, &SimulationReport{})
		assert.Error(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestRedisResultStore_Load(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		db, mock := redismock.NewClientMock()
		store := newTestStore(db)
		report := newTestReport(t)

		data, err := serializeReport(report)
		require.NoError(t, err)
		mock.ExpectGet(resultKey(report.ID)).SetVal(string(data))

		loaded, err := store.Load(ctx, report.ID)
		require.NoError(t, err)
		assert.Equal(t, report.ID, loaded.ID)
		assert.Equal(t, report.Counts, loaded.Counts)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not_found", func(t *testing.T) {
		db, mock := redismock.NewClientMock()
		store := newTestStore(db)

		mock.ExpectGet(resultKey("missing")).RedisNil()

		_, err := store.Load(ctx, "missing")
		assert.ErrorIs(t, err, ErrReportNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("corrupted", func(t *testing.T) {
		db, mock := redismock.NewClientMock()
		store := newTestStore(db)

		mock.ExpectGet(resultKey("bad")).SetVal(`{"id":"bad"}`)

		_, err := store.Load(ctx, "bad")
		assert.ErrorIs(t, err, ErrReportCorrupted)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("empty_id", func(t *testing.T) {
		db, _ := redismock.NewClientMock()
		_, err := newTestStore(db).Load(ctx, "")
		assert.ErrorIs(t, err, ErrInvalidArguments)
	})

	t.Run("connection_error", func(t *testing.T) {
		db, mock := redismock.NewClientMock()
		store := newTestStore(db)

		for range 3 {
			mock.ExpectGet(resultKey("x")).SetErr(errors.New("dial tcp: connection refused"))
		}

		_, err := store.Load(ctx, "x")
		assert.ErrorIs(t, err, ErrReportLoadFailure)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestRedisResultStore_ListAndDelete(t *testing.T) {
	ctx := context.Background()

	t.Run("list", func(t *testing.T) {
		db, mock := redismock.NewClientMock()
		store := newTestStore(db)

		mock.ExpectKeys(ResultKeyPrefix + "*").SetVal([]string{
			resultKey("b"),
			resultKey("a"),
			ResultKeyPrefix,
		})

		ids, err := store.List(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b"}, ids)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("list_empty", func(t *testing.T) {
		db, mock := redismock.NewClientMock()
		store := newTestStore(db)

		mock.ExpectKeys(ResultKeyPrefix + "*").SetVal([]string{})

		ids, err := store.List(ctx)
		require.NoError(t, err)
		assert.Empty(t, ids)
	})

	t.Run("delete", func(t *testing.T) {
		db, mock := redismock.NewClientMock()
		store := newTestStore(db)

		mock.ExpectDel(resultKey("a")).SetVal(1)
		mock.ExpectDel(resultKey("gone")).SetVal(0)

		require.NoError(t, store.Delete(ctx, "a"))
		require.NoError(t, store.Delete(ctx, "gone"))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("delete_empty_id", func(t *testing.T) {
		db, _ := redismock.NewClientMock()
		assert.ErrorIs(t, newTestStore(db).Delete(ctx, ""), ErrInvalidArguments)
	})
}

func TestNewRedisResultStoreFromConfig(t *testing.T) {
	db, _ := redismock.NewClientMock()

	config := DefaultRedisConfig()
	config.ResultTTL = time.Hour
	config.RetryAttempts = 5

	store := NewRedisResultStoreFromConfig(db, config, nil)
	assert.Equal(t, time.Hour, store.ttl)
	assert.Equal(t, 5, store.retryAttempts)

	store = NewRedisResultStoreFromConfig(db, nil, nil)
	assert.Equal(t, DefaultResultTTL, store.ttl)
}
