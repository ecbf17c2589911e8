package pool

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewByteBuffer(t *testing.T) {
	capacity := 1024
	bb := NewByteBuffer(capacity)

	require.NotNil(t, bb)
	require.NotNil(t, bb.B)
	assert.Equal(t, 0, len(bb.B), "new buffer should have zero length")
	assert.Equal(t, capacity, cap(bb.B), "new buffer should have specified capacity")
}

func TestByteBuffer_Writes(t *testing.T) {
	bb := NewByteBuffer(BufferDefaultSize)

	bb.WriteString("META")
	require.NoError(t, bb.WriteByte('&'))
	bb.MustWrite([]byte("tid=tbl_1"))

	assert.Equal(t, "META&tid=tbl_1", bb.String())
	assert.Equal(t, 14, bb.Len())
}

func TestByteBuffer_Reset(t *testing.T) {
	bb := NewByteBuffer(BufferDefaultSize)
	bb.WriteString("some data")
	originalCap := cap(bb.B)

	bb.Reset()

	assert.Equal(t, 0, bb.Len(), "Reset should clear the buffer length")
	assert.Equal(t, originalCap, cap(bb.B), "Reset should preserve capacity")
}

func TestByteBufferPool_GetPut(t *testing.T) {
	p := NewByteBufferPool(64, 128)

	bb := p.Get()
	require.NotNil(t, bb)
	bb.WriteString("hello")
	p.Put(bb)

	// reused buffers come back empty
	again := p.Get()
	require.Equal(t, 0, again.Len())
	p.Put(again)
}

func TestByteBufferPool_DropsOversized(t *testing.T) {
	p := NewByteBufferPool(16, 32)

	bb := p.Get()
	bb.MustWrite(make([]byte, 64))
	p.Put(bb)

	// the oversized buffer is discarded, not reset
	require.Equal(t, 64, bb.Len())

	p.Put(nil)
}

func TestDefaultPool_Concurrent(t *testing.T) {
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				bb := GetBuffer()
				bb.WriteString("row")
				if bb.String() != "row" {
					t.Errorf("unexpected buffer content %q", bb.String())
				}
				PutBuffer(bb)
			}
		}()
	}
	wg.Wait()
}
