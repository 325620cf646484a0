package metrics

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/obmalloy/compiler"
	"github.com/c360studio/obmalloy/model"
	"github.com/c360studio/obmalloy/vocabulary/obm"
)

func seqModel(t *testing.T) *model.Model {
	t.Helper()
	m := model.New("test")
	require.NoError(t, m.Add(&model.Class{Name: "P1"}))
	require.NoError(t, m.Add(&model.Class{Name: "P2"}))
	require.NoError(t, m.Add(&model.Class{
		Name: "Seq",
		Properties: []*model.Property{
			{Name: "p1", Type: "P1", Lower: 1, Upper: 1, Tags: []obm.Tag{obm.TagStep}},
			{Name: "p2", Type: "P2", Lower: 1, Upper: 1, Tags: []obm.Tag{obm.TagStep}},
		},
		Connectors: []*model.Connector{{
			Name: "s1",
			Ends: []model.ConnectorEnd{
				{Role: obm.RoleEarlierOccurrence, Path: []string{"p1"}},
				{Role: obm.RoleLaterOccurrence, Path: []string{"p2"}},
			},
		}},
	}))
	return m
}

func newCompiler(c *Collector) *compiler.Compiler {
	return compiler.New(
		compiler.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		compiler.WithObserver(c),
	)
}

func TestNewCollector(t *testing.T) {
	c := NewCollector()
	require.NotNil(t, c.Registry())
	assert.NotNil(t, c.CompilationsTotal)
	assert.NotNil(t, c.CompilationDuration)
	assert.NotNil(t, c.OutputsTotal)

	// Separate collectors do not share state
	other := NewCollector()
	c.CompilationsTotal.WithLabelValues(StatusOK).Inc()
	assert.Equal(t, 0.0, testutil.ToFloat64(other.CompilationsTotal.WithLabelValues(StatusOK)))
}

func TestObserveCompile(t *testing.T) {
	c := NewCollector()
	comp := newCompiler(c)
	m := seqModel(t)

	res, err := comp.Compile(m, "Seq")
	require.NoError(t, err)
	_, err = comp.Compile(m, "Missing")
	require.ErrorIs(t, err, compiler.ErrUnknownClass)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.CompilationsTotal.WithLabelValues(StatusOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.CompilationsTotal.WithLabelValues(StatusAborted)))
	assert.Equal(t, 0.0, testutil.ToFloat64(c.CompilationsTotal.WithLabelValues(StatusErrors)))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.MessagesTotal.WithLabelValues(string(compiler.SeverityError))))

	// Gauges keep the last successful run
	assert.Equal(t, float64(res.Signatures.Len()), testutil.ToFloat64(c.Signatures))
	assert.Equal(t, float64(res.Signatures.FactCount()), testutil.ToFloat64(c.Facts))
	assert.Equal(t, 1, testutil.CollectAndCount(c.CompilationDuration))
}

func TestObserveCompileWithErrors(t *testing.T) {
	m := seqModel(t)
	require.NoError(t, m.Add(&model.Class{
		Name:       "Broken",
		Connectors: []*model.Connector{{Name: "half", Ends: []model.ConnectorEnd{{Path: []string{"x"}}}}},
	}))

	c := NewCollector()
	res, err := newCompiler(c).Compile(m, "Broken")
	require.NoError(t, err)
	require.True(t, res.HasErrors())

	assert.Equal(t, 1.0, testutil.ToFloat64(c.CompilationsTotal.WithLabelValues(StatusErrors)))
}

func TestObserveOutput(t *testing.T) {
	c := NewCollector()
	c.ObserveOutput("alloy", nil)
	c.ObserveOutput("alloy", nil)
	c.ObserveOutput("json", errors.New("permission denied"))

	assert.Equal(t, 2.0, testutil.ToFloat64(c.OutputsTotal.WithLabelValues("alloy", StatusOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.OutputsTotal.WithLabelValues("json", "failed")))
}

func TestWriteToTextfile(t *testing.T) {
	c := NewCollector()
	c.ObserveCompile(nil, 10*time.Millisecond, errors.New("boom"))

	path := filepath.Join(t.TempDir(), "obmalloy.prom")
	require.NoError(t, c.WriteToTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `obmalloy_compilations_total{status="aborted"} 1`)
	assert.Contains(t, string(data), "obmalloy_compilation_duration_seconds_count 1")

	assert.Error(t, c.WriteToTextfile(""))
	assert.Error(t, c.WriteToTextfile(filepath.Join(t.TempDir(), "missing", "dir", "m.prom")))
}
