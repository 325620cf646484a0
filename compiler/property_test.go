package compiler_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/c360studio/obmalloy/compiler"
	"github.com/c360studio/obmalloy/export"
	"github.com/c360studio/obmalloy/model"
	"github.com/c360studio/obmalloy/vocabulary/obm"
)

// chainModel builds a class with one step per lower bound, each typed by
// its own leaf class when distinct is set, connected in sequence.
func chainModel(lowers []int, distinct bool) *model.Model {
	m := model.New("chain")
	main := &model.Class{Name: "Chain"}
	for i, lower := range lowers {
		typ := "T"
		if distinct {
			typ = fmt.Sprintf("T%d", i)
		}
		if _, err := m.Lookup(typ); err != nil {
			_ = m.Add(&model.Class{Name: typ})
		}
		main.Properties = append(main.Properties, &model.Property{
			Name:  fmt.Sprintf("s%d", i),
			Type:  typ,
			Lower: lower,
			Upper: model.Unbounded,
			Tags:  []obm.Tag{obm.TagStep},
		})
		if i > 0 {
			main.Connectors = append(main.Connectors, succession(
				fmt.Sprintf("c%d", i), fmt.Sprintf("s%d", i-1), fmt.Sprintf("s%d", i)))
		}
	}
	_ = m.Add(main)
	return m
}

func render(res *compiler.Result) string {
	out, err := export.NewExporter(res.Signatures, export.WithMain(res.Main)).Export(export.FormatAlloy)
	if err != nil {
		return ""
	}
	return out
}

func TestCompilationProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50

	properties := gopter.NewProperties(parameters)
	c := compiler.New(compiler.WithLogger(quietLogger()))

	properties.Property("compiling twice yields identical output", prop.ForAll(
		func(lowers []int, distinct bool) bool {
			m := chainModel(lowers, distinct)
			first, err := c.Compile(m, "Chain")
			if err != nil {
				return false
			}
			second, err := c.Compile(m, "Chain")
			if err != nil {
				return false
			}
			return render(first) == render(second) && first.RunID != second.RunID
		},
		gen.SliceOfN(5, gen.IntRange(0, 3)),
		gen.Bool(),
	))

	properties.Property("every step field is closed over steps", prop.ForAll(
		func(lowers []int, distinct bool) bool {
			m := chainModel(lowers, distinct)
			res, err := c.Compile(m, "Chain")
			if err != nil {
				return false
			}
			sig, ok := res.Signatures.Lookup("Chain")
			if !ok {
				return false
			}
			names := make([]string, len(lowers))
			for i := range lowers {
				names[i] = fmt.Sprintf("x.s%d", i)
			}
			union := strings.Join(names, " + ")
			var in, back bool
			for _, f := range sig.Facts {
				switch export.Render(f.Formula) {
				case "all x: Chain | " + union + " in x.steps":
					in = true
				case "all x: Chain | x.steps in " + union:
					back = true
				}
			}
			return in && back
		},
		gen.SliceOfN(4, gen.IntRange(0, 2)).SuchThat(func(v []int) bool { return len(v) > 0 }),
		gen.Bool(),
	))

	properties.Property("one precedence fact per connector", prop.ForAll(
		func(lowers []int) bool {
			res, err := c.Compile(chainModel(lowers, true), "Chain")
			if err != nil {
				return false
			}
			sig, _ := res.Signatures.Lookup("Chain")
			n := 0
			for _, f := range sig.Facts {
				if strings.Contains(export.Render(f.Formula), "bijectionFiltered[happensBefore") {
					n++
				}
			}
			return n == len(lowers)-1
		},
		gen.SliceOfN(6, gen.IntRange(0, 2)).SuchThat(func(v []int) bool { return len(v) > 0 }),
	))

	properties.TestingRun(t)
}
