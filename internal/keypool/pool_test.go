package keypool

import (
	"log/slog"
	"os"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"comment_analyzer/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestActive_PromotesInConfiguredOrder(t *testing.T) {
	p := New([]string{"key-a", "key-b", "key-c"}, testLogger())

	key, err := p.Active()
	require.NoError(t, err)
	assert.Equal(t, "key-a", key)

	// repeated calls stick to the promoted key
	key, err = p.Active()
	require.NoError(t, err)
	assert.Equal(t, "key-a", key)
}

func TestActive_RotatesOnQuotaExceeded(t *testing.T) {
	p := New([]string{"key-a", "key-b", "key-c"}, testLogger())

	key, err := p.Active()
	require.NoError(t, err)
	require.Equal(t, "key-a", key)

	p.ReportOutcome("key-a", OutcomeQuotaExceeded)

	key, err = p.Active()
	require.NoError(t, err)
	assert.Equal(t, "key-b", key, "rotation must pick the next key in list order")
}

func TestActive_AllExhausted(t *testing.T) {
	keys := []string{"key-a", "key-b", "key-c"}
	p := New(keys, testLogger())

	for range keys {
		key, err := p.Active()
		require.NoError(t, err)
		p.ReportOutcome(key, OutcomeQuotaExceeded)
	}

	_, err := p.Active()
	assert.ErrorIs(t, err, domain.ErrNoCredentials)
}

func TestReportOutcome_TransientKeepsState(t *testing.T) {
	p := New([]string{"key-a"}, testLogger())

	key, err := p.Active()
	require.NoError(t, err)

	p.ReportOutcome(key, OutcomeTransient)

	again, err := p.Active()
	require.NoError(t, err)
	assert.Equal(t, key, again)
}

func TestReportOutcome_SuccessNeverResurrectsExhausted(t *testing.T) {
	p := New([]string{"key-a", "key-b"}, testLogger())

	key, _ := p.Active()
	p.ReportOutcome(key, OutcomeQuotaExceeded)
	// a stale success from a concurrent session must not undo exhaustion
	p.ReportOutcome(key, OutcomeSuccess)

	next, err := p.Active()
	require.NoError(t, err)
	assert.Equal(t, "key-b", next)
}

func TestStatus_ReflectsCurrentState(t *testing.T) {
	p := New([]string{"key-a", "key-b", "key-c"}, testLogger())

	st := p.Status()
	assert.Equal(t, Status{Total: 3, Untested: 3}, st)

	key, _ := p.Active()
	p.ReportOutcome(key, OutcomeQuotaExceeded)
	key, _ = p.Active()
	p.ReportOutcome(key, OutcomeInvalid)
	_, _ = p.Active()

	st = p.Status()
	assert.Equal(t, 3, st.Total)
	assert.Equal(t, 1, st.Exhausted)
	assert.Equal(t, 1, st.Invalid)
	assert.Equal(t, 1, st.Active)
}

func TestResetEpoch_RevivesExhaustedOnly(t *testing.T) {
	p := New([]string{"key-a", "key-b"}, testLogger())

	key, _ := p.Active()
	p.ReportOutcome(key, OutcomeQuotaExceeded)
	key, _ = p.Active()
	p.ReportOutcome(key, OutcomeInvalid)

	_, err := p.Active()
	require.ErrorIs(t, err, domain.ErrNoCredentials)

	assert.Equal(t, 1, p.ResetEpoch())

	key, err = p.Active()
	require.NoError(t, err)
	assert.Equal(t, "key-a", key, "invalid keys stay out after an epoch reset")

	// idempotent
	assert.Equal(t, 0, p.ResetEpoch())
}

func TestNew_DropsEmptyAndDuplicateKeys(t *testing.T) {
	p := New([]string{"key-a", "", "  ", "key-a", "key-b"}, testLogger())
	assert.Equal(t, 2, p.Status().Total)
}

func TestActive_ConcurrentCallersAgreeOnOneKey(t *testing.T) {
	for iter := 0; iter < 500; iter++ {
		p := New([]string{"key-a", "key-b", "key-c", "key-d"}, testLogger())

		start := make(chan struct{})
		keys := make([]string, 8)
		errs := make([]error, 8)
		var wg sync.WaitGroup
		for i := range keys {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				<-start
				keys[i], errs[i] = p.Active()
			}(i)
		}
		close(start)
		wg.Wait()

		st := p.Status()
		require.LessOrEqual(t, st.Active, 1, "no two keys may be ACTIVE at once: %+v", st)
		for i, k := range keys {
			require.NoError(t, errs[i])
			require.Equal(t, "key-a", k, "concurrent callers must all receive the first key")
		}
	}
}

func TestPool_ConcurrentReporting(t *testing.T) {
	p := New([]string{"key-a", "key-b", "key-c", "key-d"}, testLogger())

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				key, err := p.Active()
				if err != nil {
					return
				}
				if j%7 == 0 {
					p.ReportOutcome(key, OutcomeQuotaExceeded)
				} else {
					p.ReportOutcome(key, OutcomeSuccess)
				}
			}
		}()
	}
	wg.Wait()

	st := p.Status()
	assert.Equal(t, 4, st.Total)
	assert.Equal(t, 4, st.Untested+st.Active+st.Exhausted+st.Invalid)
}
