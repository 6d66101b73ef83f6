package metrics

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/input-output-hk/catalyst-forge-libs/pcd"
)

func TestStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "nil", err: nil, want: StatusOK},
		{name: "eof", err: io.EOF, want: StatusOK},
		{name: "out of space", err: pcd.ErrOutOfSpace, want: "OUT_OF_SPACE"},
		{name: "wrapped invalid argument", err: fmt.Errorf("seek: %w", pcd.ErrInvalidArgument), want: "INVALID_ARGUMENT"},
		{name: "closed", err: pcd.ErrClosed, want: "CLOSED"},
		{name: "other", err: io.ErrUnexpectedEOF, want: "UNKNOWN"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Status(tt.err))
		})
	}
}

func TestDeviceObserver(t *testing.T) {
	m := NewMetrics()
	dev := pcd.New(pcd.WithObserver(m))

	s := dev.Open()
	other := dev.Open()
	assert.Equal(t, 2.0, testutil.ToFloat64(m.SessionsActive.WithLabelValues("pcd")))

	_, err := s.Write([]byte("HelloWorld"))
	require.NoError(t, err)
	_, err = s.Seek(-5, io.SeekCurrent)
	require.NoError(t, err)
	_, err = s.ReadN(5)
	require.NoError(t, err)
	_, err = s.Seek(513, io.SeekStart)
	require.Error(t, err)

	_, err = s.Seek(0, io.SeekEnd)
	require.NoError(t, err)
	_, err = s.Write([]byte("x"))
	require.Error(t, err)
	_, err = s.Read(make([]byte, 1))
	require.ErrorIs(t, err, io.EOF)

	require.NoError(t, s.Close())
	assert.Error(t, s.Close())

	assert.Equal(t, 1.0, testutil.ToFloat64(m.SessionsActive.WithLabelValues("pcd")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.SessionsTotal.WithLabelValues("pcd")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.OperationsTotal.WithLabelValues("pcd", "write", StatusOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.OperationsTotal.WithLabelValues("pcd", "write", "OUT_OF_SPACE")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.OperationsTotal.WithLabelValues("pcd", "seek", StatusOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.OperationsTotal.WithLabelValues("pcd", "seek", "INVALID_ARGUMENT")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.OperationsTotal.WithLabelValues("pcd", "read", StatusOK)))
	assert.Equal(t, 10.0, testutil.ToFloat64(m.BytesTotal.WithLabelValues("pcd", "write")))
	assert.Equal(t, 5.0, testutil.ToFloat64(m.BytesTotal.WithLabelValues("pcd", "read")))

	require.NoError(t, other.Close())
	assert.Equal(t, 0.0, testutil.ToFloat64(m.SessionsActive.WithLabelValues("pcd")))
}

func TestExposition(t *testing.T) {
	m := NewMetrics()
	dev := pcd.New(pcd.WithName("scratch"), pcd.WithObserver(m))
	s := dev.Open()
	_, err := s.Write([]byte("abc"))
	require.NoError(t, err)

	t.Run("text", func(t *testing.T) {
		var out bytes.Buffer
		require.NoError(t, m.WriteText(&out))
		text := out.String()
		assert.Contains(t, text, `pcd_bytes_total{device="scratch",op="write"} 3`)
		assert.Contains(t, text, `pcd_sessions_active{device="scratch"} 1`)
		assert.Contains(t, text, "# HELP pcd_operations_total")
	})

	t.Run("handler", func(t *testing.T) {
		rec := httptest.NewRecorder()
		m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, strings.Contains(rec.Body.String(), "pcd_sessions_total"))
	})

	t.Run("registry", func(t *testing.T) {
		families, err := m.Registry().Gather()
		require.NoError(t, err)
		assert.Len(t, families, 4)
	})
}
