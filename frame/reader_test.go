package frame

import (
	"bytes"
	"errors"
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func isTimeout(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func TestReader_ReadsBackToBackFrames(t *testing.T) {
	require := require.New(t)

	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	first := mustPack(t, []byte(`{"a":1}`))
	second := mustPack(t, []byte(`{"b":2}`))

	go func() {
		combined := append(append([]byte(nil), first...), second...)
		_, _ = server.Write(combined)
	}()

	r := NewReader(client)
	got, err := r.ReadFrame(time.Second)
	require.NoError(err)
	require.Equal(first, got)

	got, err = r.ReadFrame(time.Second)
	require.NoError(err)
	require.Equal(second, got)
	require.Zero(r.Buffered())
}

func TestReader_TimeoutKeepsPartialFrame(t *testing.T) {
	require := require.New(t)

	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	full := mustPack(t, []byte(`{"temp":25}`))
	split := 5

	go func() {
		_, _ = server.Write(full[:split])
	}()

	r := NewReader(client)
	_, err := r.ReadFrame(50 * time.Millisecond)
	require.True(isTimeout(err), "expected timeout, got %v", err)
	require.Equal(split, r.Buffered())

	go func() {
		_, _ = server.Write(full[split:])
	}()

	got, err := r.ReadFrame(time.Second)
	require.NoError(err)
	require.Equal(full, got)

	payload, err := Unpack(got)
	require.NoError(err)
	require.JSONEq(`{"temp":25}`, string(payload))
}

func TestReader_TimeoutWithoutData(t *testing.T) {
	require := require.New(t)

	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	r := NewReader(client)
	begin := time.Now()
	_, err := r.ReadFrame(30 * time.Millisecond)
	require.True(isTimeout(err))
	require.Less(time.Since(begin), time.Second)
}

// tcpPair returns both ends of a loopback TCP connection.
func tcpPair(t *testing.T) (client net.Conn, server net.Conn) {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	accepted := make(chan net.Conn, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			close(accepted)
			return
		}
		accepted <- conn
	}()

	client, err = net.Dial("tcp", ln.Addr().String())
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	server, ok := <-accepted
	require.True(t, ok, "no connection accepted")
	t.Cleanup(func() { _ = server.Close() })

	return client, server
}

func TestReader_PeerClose(t *testing.T) {
	t.Run("between frames", func(t *testing.T) {
		require := require.New(t)

		client, server := tcpPair(t)
		require.NoError(server.Close())

		_, err := NewReader(client).ReadFrame(time.Second)
		require.ErrorIs(err, io.EOF)
	})

	t.Run("mid frame", func(t *testing.T) {
		require := require.New(t)

		client, server := tcpPair(t)
		_, err := server.Write([]byte{0x11, 0x22, 0x33})
		require.NoError(err)
		require.NoError(server.Close())

		_, err = NewReader(client).ReadFrame(time.Second)
		require.ErrorIs(err, io.ErrUnexpectedEOF)
	})
}

func TestReader_ResyncsOnHeader(t *testing.T) {
	good := mustPack(t, []byte(`{"b":2}`))

	// declares 16 payload bytes but carries 4, so it swallows the start of the next frame
	overlong := append(append([]byte(nil), Header[:]...), 0x00, 0x10)
	overlong = append(overlong, "abcd"...)

	tests := []struct {
		description string
		stream      [][]byte
		bad         int // frames returned that fail to unpack or decode
		discarded   int
	}{
		{
			description: "garbage before a frame",
			stream:      [][]byte{[]byte("xyz"), good},
			discarded:   3,
		},
		{
			description: "frame with a foreign header",
			stream:      [][]byte{append([]byte{0, 0, 0, 0, 0, 0, 0x00, 0x04}, "abcd"...), good},
			discarded:   12,
		},
		{
			description: "frame with an overlong length field",
			stream:      [][]byte{overlong, good, good},
			bad:         1,
			discarded:   len(good) - (16 - 4),
		},
	}

	for _, tt := range tests {
		t.Run(tt.description, func(t *testing.T) {
			require := require.New(t)

			client, server := tcpPair(t)
			for _, chunk := range tt.stream {
				_, err := server.Write(chunk)
				require.NoError(err)
			}

			r := NewReader(client)
			bad, discarded := 0, 0
			for {
				f, err := r.ReadFrame(time.Second)
				var syncErr *SyncError
				if errors.As(err, &syncErr) {
					require.ErrorIs(err, ErrHeaderMismatch)
					discarded += syncErr.Discarded
					continue
				}
				require.NoError(err)

				if !bytes.Equal(f, good) {
					bad++
					continue
				}
				break
			}

			require.Equal(tt.bad, bad)
			require.Equal(tt.discarded, discarded)
		})
	}
}
