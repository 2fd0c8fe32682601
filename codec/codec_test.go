package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type report struct {
	State    string  `json:"state"`
	Medoids  []int   `json:"medoids"`
	Cost     float64 `json:"cost"`
	Internal string  `json:"-"`
}

func TestCodecs(t *testing.T) {
	in := report{State: "converged", Medoids: []int{4, 17, 9}, Cost: 12.5, Internal: "dropped"}

	for _, name := range Names() {
		t.Run(name, func(t *testing.T) {
			c, ok := ByName(name)
			require.True(t, ok)
			assert.Equal(t, name, c.Name())

			data, err := c.Marshal(in)
			require.NoError(t, err)

			var out report
			require.NoError(t, c.Unmarshal(data, &out))
			assert.Equal(t, in.State, out.State)
			assert.Equal(t, in.Medoids, out.Medoids)
			assert.Equal(t, in.Cost, out.Cost)
			assert.Empty(t, out.Internal)
		})
	}
}

func TestJSONUsesTags(t *testing.T) {
	data := MustMarshal(GoJSON{}, report{State: "exhausted"})
	assert.Contains(t, string(data), `"state":"exhausted"`)
	assert.NotContains(t, string(data), "Internal")
}

func TestByNameUnknown(t *testing.T) {
	_, ok := ByName("xml")
	assert.False(t, ok)
	assert.Equal(t, "go-json", Default.Name())
}
