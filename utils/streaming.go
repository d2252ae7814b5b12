package utils

import (
	"bytes"
	"context"
	"io"
	"sync"
)

// bufPool reuses byte buffers to reduce GC pressure.
var bufPool = sync.Pool{
	New: func() interface{} { return new(bytes.Buffer) },
}

// AcquireBuffer returns a reset buffer from the pool.
func AcquireBuffer() *bytes.Buffer {
	b := bufPool.Get().(*bytes.Buffer)
	b.Reset()
	return b
}

// ReleaseBuffer returns b to the pool.  Callers must not use b after this call.
func ReleaseBuffer(b *bytes.Buffer) {
	// Cap large buffers to avoid pinning excessive memory.
	if b.Cap() > 8*1024*1024 {
		return
	}
	bufPool.Put(b)
}

// CloneBytes returns a copy of b that survives buffer reuse.
func CloneBytes(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

// DrainReader reads all bytes from r into a pooled buffer and returns it.
// Pass the buffer back with ReleaseBuffer once its bytes are copied out.
func DrainReader(ctx context.Context, r io.Reader, chunkSize int) (*bytes.Buffer, error) {
	if chunkSize <= 0 {
		chunkSize = 32 * 1024
	}
	buf := AcquireBuffer()
	chunk := make([]byte, chunkSize)
	for {
		if err := ctx.Err(); err != nil {
			ReleaseBuffer(buf)
			return nil, err
		}
		n, err := r.Read(chunk)
		if n > 0 {
			buf.Write(chunk[:n])
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			ReleaseBuffer(buf)
			return nil, err
		}
	}
	return buf, nil
}

// LimitedReader wraps r and returns an error when more than max bytes are read.
type LimitedReader struct {
	R   io.Reader
	Max int64
	n   int64
}

func (l *LimitedReader) Read(p []byte) (int, error) {
	if l.n >= l.Max && l.Max > 0 {
		return 0, io.ErrUnexpectedEOF
	}
	if l.Max > 0 {
		remain := l.Max - l.n
		if int64(len(p)) > remain {
			p = p[:remain]
		}
	}
	n, err := l.R.Read(p)
	l.n += int64(n)
	return n, err
}

// ChunkReader yields fixed-size chunks from an in-memory byte slice.  The
// streaming decoder uses it to feed partial input into the native engine
// without copying.
type ChunkReader struct {
	data      []byte
	chunkSize int
	off       int
}

// NewChunkReader creates a ChunkReader over data.
func NewChunkReader(data []byte, chunkSize int) *ChunkReader {
	if chunkSize <= 0 {
		chunkSize = 32 * 1024
	}
	return &ChunkReader{data: data, chunkSize: chunkSize}
}

// Next returns the next chunk, or nil when the input is exhausted.  The
// returned slice aliases the underlying data; it stays valid for the life of
// the ChunkReader.
func (c *ChunkReader) Next() []byte {
	if c.off >= len(c.data) {
		return nil
	}
	end := c.off + c.chunkSize
	if end > len(c.data) {
		end = len(c.data)
	}
	chunk := c.data[c.off:end]
	c.off = end
	return chunk
}

// Remaining reports how many bytes have not been yielded yet.
func (c *ChunkReader) Remaining() int { return len(c.data) - c.off }
