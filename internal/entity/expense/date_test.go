package expense

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_OnScan_ShouldAcceptDriverRepresentations(t *testing.T) {
	want := NewDate(2025, time.January, 15)

	for _, src := range []any{
		"2025-01-15",
		[]byte("2025-01-15"),
		"2025-01-15 00:00:00+00:00",
		time.Date(2025, time.January, 15, 0, 0, 0, 0, time.UTC),
	} {
		var d Date
		require.NoError(t, d.Scan(src))
		assert.Equal(t, want, d)
	}

	var d Date
	assert.Error(t, d.Scan(42))
}

func Test_OnJSON_ShouldUseCalendarDate(t *testing.T) {
	raw, err := json.Marshal(NewDate(2025, time.July, 4))
	require.NoError(t, err)
	assert.Equal(t, `"2025-07-04"`, string(raw))

	var d Date
	require.NoError(t, json.Unmarshal([]byte(`"2024-02-29"`), &d))
	assert.Equal(t, NewDate(2024, time.February, 29), d)

	assert.Error(t, json.Unmarshal([]byte(`"2023-02-29"`), &d))
}

func Test_OnAddMonths_ShouldRollOverYears(t *testing.T) {
	feb := NewDate(2025, time.February, 1)

	assert.Equal(t, NewDate(2024, time.November, 1), feb.AddMonths(-3))
	assert.Equal(t, NewDate(2026, time.January, 1), feb.AddMonths(11))
}

func Test_OnValue_ShouldWriteISODate(t *testing.T) {
	v, err := NewDate(2025, time.March, 9).Value()
	require.NoError(t, err)
	assert.Equal(t, "2025-03-09", v)
}
