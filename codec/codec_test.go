package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type record struct {
	Op          string `json:"op" msgpack:"op"`
	CompletedAt int64  `json:"completed_at" msgpack:"completed_at"`
}

func TestNew(t *testing.T) {
	c, err := New("")
	require.NoError(t, err)
	assert.Equal(t, "json", c.Name())

	c, err = New("msgpack")
	require.NoError(t, err)
	assert.Equal(t, "msgpack", c.Name())

	_, err = New("protobuf")
	assert.ErrorIs(t, err, ErrUnsupportedCodec)
}

func TestRoundTrip(t *testing.T) {
	for _, name := range []string{"json", "msgpack"} {
		t.Run(name, func(t *testing.T) {
			c, err := New(name)
			require.NoError(t, err)

			in := record{Op: "compute_salary", CompletedAt: 1735689600}
			data, err := c.Marshal(in)
			require.NoError(t, err)

			var out record
			require.NoError(t, c.Unmarshal(data, &out))
			assert.Equal(t, in, out)
		})
	}
}
