package request

import (
	"bytes"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResponseBufferGrowth(t *testing.T) {
	var (
		b        = newResponseBuffer()
		expected bytes.Buffer
		rng      = rand.New(rand.NewSource(1))
	)
	assert.Equal(t, ChunkSize, b.Cap())

	for i := 0; i < 200; i++ {
		chunk := make([]byte, rng.Intn(3*ChunkSize))
		rng.Read(chunk)

		assert.Equal(t, len(chunk), b.Write(chunk))
		expected.Write(chunk)

		assert.Equal(t, expected.Len(), b.Len())
		assert.Equal(t, 0, b.Cap()%ChunkSize, "capacity must be a whole number of chunks")
		assert.GreaterOrEqual(t, b.Cap(), b.Len()+1)
		assert.Equal(t, byte(0), b.buf[b.n], "sentinel")
	}
	assert.Equal(t, expected.Bytes(), b.Bytes())
}

func TestResponseBufferExactFit(t *testing.T) {
	b := newResponseBuffer()
	// filling the chunk completely leaves no room for the sentinel
	b.Write(make([]byte, ChunkSize))
	assert.Equal(t, 2*ChunkSize, b.Cap())
	assert.Equal(t, ChunkSize, b.Len())

	b = newResponseBuffer()
	b.Write(make([]byte, ChunkSize-1))
	assert.Equal(t, ChunkSize, b.Cap())

	b.Write(nil)
	assert.Equal(t, ChunkSize-1, b.Len())
	assert.Equal(t, ChunkSize, b.Cap())
}
