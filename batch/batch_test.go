package batch

import (
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/obmalloy/compiler"
	"github.com/c360studio/obmalloy/export"
	"github.com/c360studio/obmalloy/model"
	"github.com/c360studio/obmalloy/vocabulary/obm"
)

type recordingObserver struct {
	formats []string
	errs    []error
}

func (o *recordingObserver) ObserveOutput(format string, err error) {
	o.formats = append(o.formats, format)
	o.errs = append(o.errs, err)
}

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
	require.NoError(t, m.Add(&model.Class{
		Name:       "Broken",
		Connectors: []*model.Connector{{Name: "half", Ends: []model.ConnectorEnd{{Path: []string{"x"}}}}},
	}))
	return m
}

func newRunner(opts ...RunnerOption) *Runner {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	opts = append([]RunnerOption{
		WithLogger(logger),
		WithCompiler(compiler.New(compiler.WithLogger(logger))),
	}, opts...)
	return NewRunner(opts...)
}

func TestRunner_WritesAlloy(t *testing.T) {
	obs := &recordingObserver{}
	dest := filepath.Join(t.TempDir(), "out", "seq.als")

	out := newRunner(WithOutputObserver(obs)).Run(Request{
		Model:       seqModel(t),
		Class:       "Seq",
		Destination: dest,
		Module:      "seq",
	})

	require.True(t, out.OK, "%v", out.Messages)
	assert.True(t, strings.HasPrefix(out.Output, "module seq\n"))
	assert.Contains(t, out.Output, "fact {all x: Seq | bijectionFiltered[happensBefore, x.p1, x.p2]}")

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, out.Output, string(data))

	assert.Equal(t, []string{"alloy"}, obs.formats)
	assert.NoError(t, obs.errs[0])
}

func TestRunner_FormatFromExtension(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "seq.json")
	out := newRunner().Run(Request{Model: seqModel(t), Class: "Seq", Destination: dest})
	require.True(t, out.OK)

	var doc export.Document
	require.NoError(t, json.Unmarshal([]byte(out.Output), &doc))
	assert.Equal(t, "Seq", doc.Main)
	assert.Contains(t, doc.Leaves, "Seq")
}

func TestRunner_NoDestination(t *testing.T) {
	obs := &recordingObserver{}
	out := newRunner(WithOutputObserver(obs)).Run(Request{Model: seqModel(t), Class: "Seq"})
	require.True(t, out.OK)
	assert.Contains(t, out.Output, "sig Seq")
	assert.Empty(t, obs.formats)
}

func TestRunner_Failures(t *testing.T) {
	t.Run("unknown class", func(t *testing.T) {
		out := newRunner().Run(Request{Model: seqModel(t), Class: "Nope"})
		assert.False(t, out.OK)
		assert.Empty(t, out.Output)
		require.NotEmpty(t, out.Messages)
		assert.Equal(t, compiler.SeverityError, out.Messages[0].Severity)
	})

	t.Run("recorded errors keep the output", func(t *testing.T) {
		out := newRunner().Run(Request{Model: seqModel(t), Class: "Broken"})
		assert.False(t, out.OK)
		assert.Contains(t, out.Output, "sig Broken")
		assert.True(t, out.Result.HasErrors())
	})

	t.Run("destination not writable", func(t *testing.T) {
		obs := &recordingObserver{}
		blocker := filepath.Join(t.TempDir(), "blocker")
		require.NoError(t, os.WriteFile(blocker, nil, 0644))
		dest := filepath.Join(blocker, "seq.als")

		out := newRunner(WithOutputObserver(obs)).Run(Request{Model: seqModel(t), Class: "Seq", Destination: dest})
		assert.False(t, out.OK)
		require.NotEmpty(t, out.Messages)
		last := out.Messages[len(out.Messages)-1]
		assert.Equal(t, compiler.SeverityError, last.Severity)
		assert.Equal(t, dest, last.Subject)
		require.Len(t, obs.errs, 1)
		assert.Error(t, obs.errs[0])
	})

	t.Run("destination is a directory", func(t *testing.T) {
		dest := t.TempDir()
		out := newRunner().Run(Request{Model: seqModel(t), Class: "Seq", Destination: dest, Format: export.FormatAlloy})
		assert.False(t, out.OK)
	})

	t.Run("unsupported format", func(t *testing.T) {
		out := newRunner().Run(Request{Model: seqModel(t), Class: "Seq", Format: "xmi"})
		assert.False(t, out.OK)
		assert.Contains(t, out.Messages[len(out.Messages)-1].Text, "unsupported export format")
	})
}

func TestRun(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "seq.als")
	out := Run(seqModel(t), "Seq", dest)
	require.True(t, out.OK)
	_, err := os.Stat(dest)
	assert.NoError(t, err)
}
