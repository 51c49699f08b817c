// Package leb128 implements the LEB128 variable-length integer encoding used by the WebAssembly binary format.
//
// Decoders are strict: an encoding longer than ceil(N/7) bytes, or one whose final byte carries bits that do not fit
// in N bits, is rejected. Encoders always produce the minimal (canonical) form.
//
// See https://www.w3.org/TR/wasm-core-1/#integers%E2%91%A4
package leb128

import (
	"bytes"
	"errors"
	"fmt"
	"io"
)

var (
	// ErrRepresentationTooLong is returned when the continuation bit is set on the last allowed byte.
	ErrRepresentationTooLong = errors.New("integer representation too long")
	// ErrIntegerTooLarge is returned when the unused bits of the last byte are not a zero or sign extension.
	ErrIntegerTooLarge = errors.New("integer too large")
)

const (
	continuationBit = 0x80
	signBit         = 0x40
	payloadMask     = 0x7f
)

// EncodeInt32 encodes the signed value into a buffer in LEB128 format
//
// See https://en.wikipedia.org/wiki/LEB128#Encode_signed_integer
func EncodeInt32(value int32) []byte {
	return EncodeInt64(int64(value))
}

// EncodeInt64 encodes the signed value into a buffer in LEB128 format
//
// See https://en.wikipedia.org/wiki/LEB128#Encode_signed_integer
func EncodeInt64(value int64) (buf []byte) {
	for {
		// Take 7 remaining low-order bits from the value into b.
		b := uint8(value & payloadMask)
		// Extract the sign bit.
		s := uint8(value & signBit)
		value >>= 7

		// The encoding unsigned numbers is simpler as it only needs to check if the value is non-zero to tell if there
		// are more bits to encode. Signed is a little more complicated as you have to double-check the sign bit.
		// If either case, set the high-order bit to tell the reader there are more bytes in this int.
		if (value != -1 || s == 0) && (value != 0 || s != 0) {
			b |= continuationBit
		}

		// Append b into the buffer
		buf = append(buf, b)
		if b&continuationBit == 0 {
			break
		}
	}
	return buf
}

// EncodeUint32 encodes the value into a buffer in LEB128 format
//
// See https://en.wikipedia.org/wiki/LEB128#Encode_unsigned_integer
func EncodeUint32(value uint32) []byte {
	return EncodeUint64(uint64(value))
}

// EncodeUint64 encodes the value into a buffer in LEB128 format
//
// See https://en.wikipedia.org/wiki/LEB128#Encode_unsigned_integer
func EncodeUint64(value uint64) (buf []byte) {
	// This is effectively a do/while loop where we take 7 bits of the value and encode them until it is zero.
	for {
		// Take 7 remaining low-order bits from the value into b.
		b := uint8(value & payloadMask)
		value = value >> 7

		// If there are remaining bits, the value won't be zero: Set the high-order bit to tell the reader there are
		// more bytes in this uint.
		if value != 0 {
			b |= continuationBit
		}

		// Append b into the buffer
		buf = append(buf, b)
		if b&continuationBit == 0 {
			return buf
		}
	}
}

// LoadUint32 decodes a uint32 from the head of buf.
func LoadUint32(buf []byte) (ret uint32, bytesRead uint64, err error) {
	return DecodeUint32(bytes.NewReader(buf))
}

// LoadUint64 decodes a uint64 from the head of buf.
func LoadUint64(buf []byte) (ret uint64, bytesRead uint64, err error) {
	return DecodeUint64(bytes.NewReader(buf))
}

// LoadInt32 decodes an int32 from the head of buf.
func LoadInt32(buf []byte) (ret int32, bytesRead uint64, err error) {
	return DecodeInt32(bytes.NewReader(buf))
}

// LoadInt64 decodes an int64 from the head of buf.
func LoadInt64(buf []byte) (ret int64, bytesRead uint64, err error) {
	return DecodeInt64(bytes.NewReader(buf))
}

func DecodeUint32(r io.ByteReader) (ret uint32, bytesRead uint64, err error) {
	var v uint64
	v, bytesRead, err = decodeUnsigned(r, 32)
	return uint32(v), bytesRead, err
}

func DecodeUint64(r io.ByteReader) (ret uint64, bytesRead uint64, err error) {
	return decodeUnsigned(r, 64)
}

func DecodeInt32(r io.ByteReader) (ret int32, bytesRead uint64, err error) {
	var v int64
	v, bytesRead, err = decodeSigned(r, 32)
	return int32(v), bytesRead, err
}

// DecodeInt33AsInt64 decodes the signed 33-bit integer used for block type indices.
//
// See https://www.w3.org/TR/2022/WD-wasm-core-2-20220419/binary/instructions.html#control-instructions
func DecodeInt33AsInt64(r io.ByteReader) (ret int64, bytesRead uint64, err error) {
	return decodeSigned(r, 33)
}

func DecodeInt64(r io.ByteReader) (ret int64, bytesRead uint64, err error) {
	return decodeSigned(r, 64)
}

func decodeUnsigned(r io.ByteReader, size uint) (ret uint64, bytesRead uint64, err error) {
	maxBytes := uint64(size+6) / 7
	var shift uint
	for {
		b, err := r.ReadByte()
		if err != nil {
			return 0, 0, fmt.Errorf("readByte failed: %w", err)
		}
		bytesRead++

		if bytesRead == maxBytes {
			if b&continuationBit != 0 {
				return 0, 0, ErrRepresentationTooLong
			}
			if unused := size - shift; unused < 7 && b>>unused != 0 {
				return 0, 0, ErrIntegerTooLarge
			}
			return ret | uint64(b)<<shift, bytesRead, nil
		}

		ret |= uint64(b&payloadMask) << shift
		if b&continuationBit == 0 {
			return ret, bytesRead, nil
		}
		shift += 7
	}
}

func decodeSigned(r io.ByteReader, size uint) (ret int64, bytesRead uint64, err error) {
	maxBytes := uint64(size+6) / 7
	var shift uint
	for {
		b, err := r.ReadByte()
		if err != nil {
			return 0, 0, fmt.Errorf("readByte failed: %w", err)
		}
		bytesRead++

		if bytesRead == maxBytes {
			if b&continuationBit != 0 {
				return 0, 0, ErrRepresentationTooLong
			}
			// The bits above the last significant one must all repeat the sign.
			if valid := size - shift; valid < 7 {
				mask := byte(payloadMask) >> (valid - 1) << (valid - 1)
				if ext := b & mask; ext != 0 && ext != mask {
					return 0, 0, ErrIntegerTooLarge
				}
			}
		}

		ret |= int64(b&payloadMask) << shift
		shift += 7
		if b&continuationBit == 0 {
			if shift < 64 && b&signBit != 0 {
				ret |= -1 << shift
			}
			return ret, bytesRead, nil
		}
	}
}
