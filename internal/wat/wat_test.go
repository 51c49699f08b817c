package wat

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	for _, name := range []string{"", "wasmtime", "wasmer"} {
		e, err := New(name)
		require.NoError(t, err)
		if name == "" {
			require.Equal(t, DefaultEncoder, e.Name())
		} else {
			require.Equal(t, name, e.Name())
		}
	}

	_, err := New("wabt")
	require.EqualError(t, err, `unknown text format encoder "wabt", expected one of [wasmer wasmtime]`)
}
