package frame

import (
	"encoding/binary"
	"encoding/json"
	"fmt"

	"github.com/arloliu/go-plantnet/process"
)

const (
	// HeaderSize is the size of the synthetic frame header in bytes.
	HeaderSize = 6
	// LengthFieldSize is the size of the payload length field in bytes.
	LengthFieldSize = 2
	// MinFrameSize is the size of an empty frame.
	MinFrameSize = HeaderSize + LengthFieldSize
	// MaxPayloadSize is the largest payload the length field can declare.
	MaxPayloadSize = 0xFFFF
)

// Header is the fixed tag written at the start of every frame.
var Header = [HeaderSize]byte{0x11, 0x22, 0x33, 0x44, 0x88, 0x92}

// Encode serializes v as compact JSON and wraps it in a frame.
func Encode(v any) ([]byte, error) {
	payload, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	return Pack(payload)
}

// EncodeSample wraps a sample in a frame.
func EncodeSample(s process.Sample) ([]byte, error) {
	return Encode(s)
}

// EncodeCommand wraps a command in a frame.
func EncodeCommand(cmd process.Command) ([]byte, error) {
	return Encode(cmd)
}

// Pack prefixes payload with the header and its big-endian length.
func Pack(payload []byte) ([]byte, error) {
	if len(payload) > MaxPayloadSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrPayloadTooLarge, len(payload))
	}

	buf := make([]byte, MinFrameSize+len(payload))
	copy(buf, Header[:])
	binary.BigEndian.PutUint16(buf[HeaderSize:], uint16(len(payload))) //nolint:gosec
	copy(buf[MinFrameSize:], payload)

	return buf, nil
}

// Unpack validates the frame layout and returns its payload.
// The returned slice aliases data.
func Unpack(data []byte) ([]byte, error) {
	if len(data) < MinFrameSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrFrameTooShort, len(data))
	}

	declared := int(binary.BigEndian.Uint16(data[HeaderSize:MinFrameSize]))
	payload := data[MinFrameSize:]
	if len(payload) != declared {
		return nil, fmt.Errorf("%w: declared %d, received %d", ErrLengthMismatch, declared, len(payload))
	}

	return payload, nil
}

// DecodeSample decodes a frame carrying a sample.
func DecodeSample(data []byte) (process.Sample, error) {
	var s process.Sample
	if err := decode(data, &s); err != nil {
		return nil, err
	}
	if s == nil {
		return nil, fmt.Errorf("%w: null sample", ErrPayloadDecode)
	}

	return s, nil
}

// DecodeCommand decodes a frame carrying a command.
func DecodeCommand(data []byte) (process.Command, error) {
	var cmd process.Command
	if err := decode(data, &cmd); err != nil {
		return process.Command{}, err
	}

	return cmd, nil
}

func decode(data []byte, out any) error {
	payload, err := Unpack(data)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("%w: %w", ErrPayloadDecode, err)
	}

	return nil
}
