package guard_test

import (
	"errors"
	"sync"
	"testing"

	"dispatch/internal/pkg/guard"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errLeaseNotConstructed = errors.New("Lease must be created via NewLease")

// lease mirrors how value objects in the domain embed the guard.
type lease struct {
	partnerID string
	seconds   int
	guard     guard.ConstructorGuard
}

func newLease(partnerID string, seconds int) (lease, error) {
	if partnerID == "" {
		return lease{}, errors.New("partnerID is required")
	}
	return lease{partnerID: partnerID, seconds: seconds, guard: guard.NewConstructorGuard()}, nil
}

func (l lease) Validate() error {
	return l.guard.Validate(errLeaseNotConstructed)
}

func TestConstructorGuard_Validate(t *testing.T) {
	tests := []struct {
		name     string
		guard    guard.ConstructorGuard
		given    error
		expected error
	}{
		{"constructed_with_custom_error", guard.NewConstructorGuard(), errLeaseNotConstructed, nil},
		{"constructed_with_nil_error", guard.NewConstructorGuard(), nil, nil},
		{"zero_value_with_custom_error", guard.ConstructorGuard{}, errLeaseNotConstructed, errLeaseNotConstructed},
		{"zero_value_with_nil_error", guard.ConstructorGuard{}, nil, guard.ErrDefaultConstructorGuard},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.guard.Validate(tt.given)

			if tt.expected == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tt.expected)
		})
	}
}

func TestConstructorGuard_EmbeddedInValueObject(t *testing.T) {
	t.Run("constructor_built_value_validates", func(t *testing.T) {
		l, err := newLease("partner-1", 30)

		require.NoError(t, err)
		require.NoError(t, l.Validate())
		assert.Equal(t, "partner-1", l.partnerID)
		assert.Equal(t, 30, l.seconds)
	})

	t.Run("zero_value_is_rejected", func(t *testing.T) {
		var l lease

		assert.ErrorIs(t, l.Validate(), errLeaseNotConstructed)
	})

	t.Run("struct_literal_bypassing_constructor_is_rejected", func(t *testing.T) {
		l := lease{partnerID: "partner-1", seconds: 30}

		assert.ErrorIs(t, l.Validate(), errLeaseNotConstructed)
	})

	t.Run("copies_keep_the_constructed_mark", func(t *testing.T) {
		l, err := newLease("partner-1", 30)
		require.NoError(t, err)

		cp := l
		cp.seconds = 60

		require.NoError(t, cp.Validate())
		assert.Equal(t, 30, l.seconds)
	})

	t.Run("failed_construction_returns_zero_value", func(t *testing.T) {
		l, err := newLease("", 30)

		require.Error(t, err)
		assert.ErrorIs(t, l.Validate(), errLeaseNotConstructed)
	})
}

func TestConstructorGuard_ConcurrentValidate(t *testing.T) {
	g := guard.NewConstructorGuard()

	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, g.Validate(errLeaseNotConstructed))
		}()
	}
	wg.Wait()
}
