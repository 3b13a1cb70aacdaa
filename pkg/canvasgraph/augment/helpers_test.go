package augment_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/canvasgraph/pkg/canvasgraph"
)

func mustJSON(t *testing.T, p *canvasgraph.Pipeline) []byte {
	t.Helper()
	data, err := json.Marshal(p)
	require.NoError(t, err)
	return data
}
