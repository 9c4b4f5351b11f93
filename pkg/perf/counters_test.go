package perf

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestCounter_NamesRoundTrip(t *testing.T) {
	seen := map[string]bool{}
	for _, c := range All() {
		name := c.String()
		require.NotEmpty(t, name)
		require.False(t, seen[name], "duplicate name %q", name)
		seen[name] = true

		got, err := ParseCounter(name)
		require.NoError(t, err)
		assert.Equal(t, c, got)
	}
	assert.Len(t, seen, 12)
}

func TestCounter_Unknown(t *testing.T) {
	_, err := ParseCounter("LLC-load-misses")
	require.ErrorIs(t, err, ErrUnknownCounter)

	assert.False(t, Counter(-1).Valid())
	assert.False(t, numCounters.Valid())
	assert.Equal(t, "counter(99)", Counter(99).String())
}

func TestAll_Order(t *testing.T) {
	all := All()
	require.Len(t, all, int(numCounters))
	assert.Equal(t, CacheReferences, all[0])
	assert.Equal(t, FPScalarDP, all[len(all)-1])
}

func TestReadings_JSONKeys(t *testing.T) {
	r := Readings{Instructions: 1000, FPPackedSP: 4}
	b, err := json.Marshal(r)
	require.NoError(t, err)
	assert.JSONEq(t, `{"instructions":1000,"r534010":4}`, string(b))

	var back Readings
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Equal(t, r, back)
}

func TestCounter_YAML(t *testing.T) {
	var v struct {
		Counter Counter `yaml:"counter"`
	}
	require.NoError(t, yaml.Unmarshal([]byte("counter: r531010\n"), &v))
	assert.Equal(t, FPPackedDP, v.Counter)

	err := yaml.Unmarshal([]byte("counter: bogus\n"), &v)
	require.ErrorIs(t, err, ErrUnknownCounter)
}
