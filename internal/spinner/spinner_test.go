package spinner

import (
	"bytes"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestStart_DrawsAndClears(t *testing.T) {
	var out syncBuffer
	stop := Start(&out, "Generating summary")

	assert.Eventually(t, func() bool {
		return strings.Contains(out.String(), "Generating summary (0s)")
	}, 2*time.Second, 10*time.Millisecond)

	stop()
	stop() // second call is a no-op

	got := out.String()
	assert.True(t, strings.HasSuffix(got, "\r"), "line is cleared on stop")
	assert.Contains(t, got, frames[0])
}

func TestStart_StopBeforeFirstFrame(t *testing.T) {
	var out syncBuffer
	Start(&out, "quick")()
	assert.Empty(t, out.String())
}

func TestEnabled(t *testing.T) {
	assert.False(t, Enabled(&bytes.Buffer{}))
}
