package timex

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDuration_UnmarshalJSON(t *testing.T) {
	var v struct {
		Interval Duration `json:"interval"`
	}

	require.NoError(t, json.Unmarshal([]byte(`{"interval":"90s"}`), &v))
	assert.Equal(t, 90*time.Second, v.Interval.Duration)

	require.NoError(t, json.Unmarshal([]byte(`{"interval":1000000000}`), &v))
	assert.Equal(t, time.Second, v.Interval.Duration)

	assert.Error(t, json.Unmarshal([]byte(`{"interval":"not-a-duration"}`), &v))
	assert.Error(t, json.Unmarshal([]byte(`{"interval":true}`), &v))
}

func TestDuration_MarshalJSON(t *testing.T) {
	d := Duration{Duration: 90 * time.Second}
	b, err := json.Marshal(d)
	require.NoError(t, err)
	assert.Equal(t, `"1m30s"`, string(b))
}
