//go:build cgo

package wat

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncoder_Wat2Wasm(t *testing.T) {
	for _, name := range Names() {
		tc := name
		t.Run(tc, func(t *testing.T) {
			e, err := New(tc)
			require.NoError(t, err)

			b, err := e.Wat2Wasm("(module)")
			require.NoError(t, err)
			require.Equal(t, []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}, b)

			_, err = e.Wat2Wasm("(module")
			require.Error(t, err)
		})
	}
}
