package compiler_test

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/c360studio/obmalloy/compiler"
	"github.com/c360studio/obmalloy/export"
	"github.com/c360studio/obmalloy/model"
	"github.com/c360studio/obmalloy/vocabulary/obm"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newModel(t *testing.T, classes ...*model.Class) *model.Model {
	t.Helper()
	m := model.New("test")
	for _, c := range classes {
		require.NoError(t, m.Add(c))
	}
	return m
}

func compile(t *testing.T, m *model.Model, class string) *compiler.Result {
	t.Helper()
	res, err := compiler.New(compiler.WithLogger(quietLogger())).Compile(m, class)
	require.NoError(t, err)
	return res
}

func step(name, typ string, lower, upper int) *model.Property {
	return &model.Property{Name: name, Type: typ, Lower: lower, Upper: upper, Tags: []obm.Tag{obm.TagStep}}
}

func attr(name, typ string) *model.Property {
	return &model.Property{Name: name, Type: typ, Upper: model.Unbounded}
}

func succession(name, from, to string) *model.Connector {
	return &model.Connector{
		Name: name,
		Ends: []model.ConnectorEnd{
			{Role: obm.RoleEarlierOccurrence, Path: []string{from}},
			{Role: obm.RoleLaterOccurrence, Path: []string{to}},
		},
	}
}

func leaf(name string) *model.Class {
	return &model.Class{Name: name}
}

// factsOf renders the facts attached to a signature.
func factsOf(t *testing.T, res *compiler.Result, sig string) []string {
	t.Helper()
	s, ok := res.Signatures.Lookup(sig)
	require.True(t, ok, "signature %s", sig)
	out := make([]string, 0, len(s.Facts))
	for _, f := range s.Facts {
		out = append(out, export.Render(f.Formula))
	}
	return out
}

func messagesWith(res *compiler.Result, sev compiler.Severity) []compiler.Message {
	var out []compiler.Message
	for _, m := range res.Messages {
		if m.Severity == sev {
			out = append(out, m)
		}
	}
	return out
}
