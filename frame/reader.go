package frame

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"net"
	"time"
)

const readChunkSize = 4096

// Reader reassembles frames from a stream connection.
//
// Bytes received before a read deadline expires are kept, so a timeout in the middle of a frame
// never desynchronizes the stream; the next ReadFrame call continues where the last one stopped.
//
// Every frame must start with Header. Bytes in front of the next Header are dropped and reported
// once as a *SyncError, so a frame with a wrong length field costs at most the frames it overlaps.
//
// Reader is not goroutine-safe. Only one ReadFrame call may be active at a time.
type Reader struct {
	conn      net.Conn
	buf       []byte
	chunk     []byte
	discarded int // bytes dropped since the last reported SyncError
}

// NewReader creates a Reader on conn.
func NewReader(conn net.Conn) *Reader {
	return &Reader{
		conn:  conn,
		chunk: make([]byte, readChunkSize),
	}
}

// ReadFrame returns the next complete frame, header included.
//
// A positive timeout bounds the whole call; on expiry the net.Error with Timeout() == true from the
// connection is returned. A zero timeout blocks until a frame is available. io.EOF is returned when
// the peer closes the connection between frames, io.ErrUnexpectedEOF when it closes mid-frame.
// A *SyncError wrapping ErrHeaderMismatch is returned once the stream is aligned on a Header again
// after bytes were dropped; the stream stays usable.
func (r *Reader) ReadFrame(timeout time.Duration) ([]byte, error) {
	deadline := time.Time{}
	if timeout > 0 {
		deadline = time.Now().Add(timeout)
	}
	if err := r.conn.SetReadDeadline(deadline); err != nil {
		return nil, err
	}

	for {
		r.discarded += r.sync()
		if r.discarded > 0 && len(r.buf) >= HeaderSize {
			err := &SyncError{Discarded: r.discarded}
			r.discarded = 0

			return nil, err
		}

		if f := r.next(); f != nil {
			return f, nil
		}

		n, err := r.conn.Read(r.chunk)
		if n > 0 {
			r.buf = append(r.buf, r.chunk[:n]...)
			continue
		}
		if err != nil {
			if errors.Is(err, io.EOF) && len(r.buf) > 0 {
				return nil, io.ErrUnexpectedEOF
			}
			return nil, err
		}
	}
}

// Buffered returns the number of bytes received but not yet returned as a frame.
func (r *Reader) Buffered() int { return len(r.buf) }

// sync drops leading bytes until the buffer starts with Header or with a prefix of it.
// It returns the number of bytes dropped.
func (r *Reader) sync() int {
	i := 0
	for ; i < len(r.buf); i++ {
		rest := r.buf[i:]
		n := min(len(rest), HeaderSize)
		if bytes.Equal(rest[:n], Header[:n]) {
			break
		}
	}
	if i > 0 {
		rest := copy(r.buf, r.buf[i:])
		r.buf = r.buf[:rest]
	}

	return i
}

// next pops a complete frame from the buffer, or returns nil.
func (r *Reader) next() []byte {
	if len(r.buf) < MinFrameSize {
		return nil
	}

	size := MinFrameSize + int(binary.BigEndian.Uint16(r.buf[HeaderSize:MinFrameSize]))
	if len(r.buf) < size {
		return nil
	}

	f := make([]byte, size)
	copy(f, r.buf[:size])

	rest := copy(r.buf, r.buf[size:])
	r.buf = r.buf[:rest]

	return f
}
