package request

const (
	// ChunkSize is the increment the response buffer grows by
	ChunkSize = 32 * 1024
)

// responseBuffer is the growable body buffer written by the transfer worker. The byte just past the
// logical end is always zero, so the capacity is always at least Len()+1
type responseBuffer struct {
	buf []byte
	n   int
}

func newResponseBuffer() *responseBuffer {
	return &responseBuffer{buf: make([]byte, ChunkSize)}
}

// Write appends p, growing the buffer by whole chunks. It always consumes all of p
func (b *responseBuffer) Write(p []byte) int {
	if need := b.n + len(p) + 1; need > len(b.buf) {
		chunks := (need - len(b.buf) + ChunkSize - 1) / ChunkSize
		nb := make([]byte, len(b.buf)+chunks*ChunkSize)
		copy(nb, b.buf[:b.n])
		b.buf = nb
	}
	copy(b.buf[b.n:], p)
	b.n += len(p)
	b.buf[b.n] = 0
	return len(p)
}

func (b *responseBuffer) Bytes() []byte {
	return b.buf[:b.n]
}

func (b *responseBuffer) Len() int {
	return b.n
}

func (b *responseBuffer) Cap() int {
	return len(b.buf)
}
