package cli

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newBlockedReader returns a reader that never produces input, plus a
// closer to release it.
func newBlockedReader() (io.Reader, func()) {
	r, w := io.Pipe()
	return r, func() { _ = w.Close() }
}

func TestReadLine_TrimsWhitespace(t *testing.T) {
	r := NewLineReader(strings.NewReader("  hello world  \n"))
	line, err := r.ReadLine(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "hello world", line)
}

func TestReadLine_EOF(t *testing.T) {
	r := NewLineReader(strings.NewReader(""))
	_, err := r.ReadLine(context.Background())
	assert.ErrorIs(t, err, io.EOF)
}

func TestReadLine_ContextCancellation(t *testing.T) {
	blocked, release := newBlockedReader()
	defer release()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := NewLineReader(blocked)
	_, err := r.ReadLine(ctx)
	assert.ErrorIs(t, err, ErrInputCancelled)
}

func TestNewLineReader_NilPanics(t *testing.T) {
	assert.Panics(t, func() { NewLineReader(nil) })
}
