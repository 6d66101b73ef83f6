package pcd

import (
	"bytes"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type event struct {
	op   string
	n    int
	code ErrorCode
}

type recordingObserver struct {
	mu     sync.Mutex
	opened int
	closed int
	events []event
}

func (o *recordingObserver) SessionOpened(string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.opened++
}

func (o *recordingObserver) SessionClosed(string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.closed++
}

func (o *recordingObserver) Operation(_ string, op string, n int, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	code := CodeOf(err)
	if err == io.EOF {
		code = "EOF"
	}
	o.events = append(o.events, event{op: op, n: n, code: code})
}

func TestObserver(t *testing.T) {
	obs := &recordingObserver{}
	dev := New(WithCapacity(8), WithObserver(obs))

	s := dev.Open()
	_, _ = s.Write([]byte("abcdef"))
	_, _ = s.WriteFrom(strings.NewReader("ghijk"), 5)
	_, _ = s.WriteFrom(strings.NewReader("z"), 1)
	_, _ = s.Seek(9, io.SeekStart)
	_, _ = s.Seek(0, io.SeekStart)
	_, _ = s.ReadTo(&bytes.Buffer{}, 3)
	_, _ = s.ReadN(10)
	_, _ = s.Read(make([]byte, 1))
	_, _ = s.ReadAt(make([]byte, 4), 2)
	require.NoError(t, s.Close())
	_, _ = s.Write([]byte("late"))
	assert.Error(t, s.Close())

	assert.Equal(t, 1, obs.opened)
	assert.Equal(t, 1, obs.closed)
	assert.Equal(t, []event{
		{op: "write", n: 6},
		{op: "write", n: 2},
		{op: "write", code: CodeOutOfSpace},
		{op: "seek", code: CodeInvalidArgument},
		{op: "seek"},
		{op: "read", n: 3},
		{op: "read", n: 5},
		{op: "read", code: "EOF"},
		{op: "readat", n: 4},
		{op: "write", code: CodeClosed},
	}, obs.events)
}

func TestNilObserver(t *testing.T) {
	dev := New(WithObserver(nil))
	s := dev.Open()
	_, err := s.Write([]byte("x"))
	require.NoError(t, err)
	require.NoError(t, s.Close())
}
