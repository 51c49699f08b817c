package binary

import (
	"bytes"
	"fmt"

	"github.com/sunjito/wasmbin/internal/wasm"
)

// decodeConstantExpression reads any instruction sequence up to its end, keeping the bytes as read. Only the
// instructions themselves are checked, as for function bodies.
func decodeConstantExpression(r *bytes.Reader, features wasm.Features) (*wasm.ConstantExpression, error) {
	offset := r.Size() - int64(r.Len())
	if err := scanExpr(r, features); err != nil {
		return nil, fmt.Errorf("constant expression: %w", err)
	}

	data := make([]byte, r.Size()-int64(r.Len())-offset)
	if _, err := r.ReadAt(data, offset); err != nil {
		return nil, fmt.Errorf("error re-buffering ConstantExpression.Data: %w", err)
	}
	return &wasm.ConstantExpression{Data: data}, nil
}

// encodeConstantExpression writes the expression back as it was read.
func encodeConstantExpression(expr *wasm.ConstantExpression) []byte {
	return expr.Data
}
