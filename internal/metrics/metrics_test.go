package metrics

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	m := New()

	m.AddTagsFound(3)
	m.IncrementOutcome("attached")
	m.IncrementOutcome("attached")
	m.IncrementOutcome("not_found")
	m.IncrementRun("ok")
	m.ObserveRemoteCall("get card", 20*time.Millisecond, nil)
	m.ObserveRemoteCall("get card", 30*time.Millisecond, errors.New("boom"))

	assert.Equal(t, 3.0, testutil.ToFloat64(m.TagsFound))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Attachments.WithLabelValues("attached")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Attachments.WithLabelValues("not_found")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Runs.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RemoteErrors.WithLabelValues("get card")))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.AddTagsFound(1)
	m.IncrementOutcome("attached")
	m.IncrementRun("ok")
	m.ObserveRemoteCall("list boards", time.Second, nil)
}

func TestNewRegistersEveryFamily(t *testing.T) {
	m := New()
	m.IncrementRun("ok")

	families, err := m.registry.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "trello_link_runs_total")
	assert.Equal(t, 1, testutil.CollectAndCount(m.Runs))
}

func TestWriteTextfile(t *testing.T) {
	m := New()
	m.IncrementRun("nothing_to_do")

	path := filepath.Join(t.TempDir(), "trello_link.prom")
	require.NoError(t, m.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `trello_link_runs_total{result="nothing_to_do"} 1`)
}
