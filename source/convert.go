package source

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/c360studio/obmalloy/model"
	"github.com/c360studio/obmalloy/vocabulary/obm"
)

// ToClasses converts the document into model classes. Qualified names are
// Package::Name when the document declares a package.
func (d *Document) ToClasses() ([]*model.Class, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}

	out := make([]*model.Class, 0, len(d.Classes))
	for _, cd := range d.Classes {
		c, err := d.convertClass(cd)
		if err != nil {
			return nil, fmt.Errorf("%s: class %s: %w", d.Filename, cd.Name, err)
		}
		out = append(out, c)
	}
	return out, nil
}

func (d *Document) convertClass(cd ClassDoc) (*model.Class, error) {
	c := &model.Class{
		Name:          cd.Name,
		QualifiedName: cd.Name,
		Generals:      cd.Extends,
	}
	if d.Package != "" {
		c.QualifiedName = d.Package + "::" + cd.Name
	}

	for _, pd := range cd.Properties {
		p, err := convertProperty(pd, c)
		if err != nil {
			return nil, err
		}
		c.Properties = append(c.Properties, p)
	}
	for _, cnd := range cd.Connectors {
		conn, err := convertConnector(cnd, c)
		if err != nil {
			return nil, err
		}
		c.Connectors = append(c.Connectors, conn)
	}
	for _, od := range cd.OneOf {
		g, err := convertOneOf(od, c)
		if err != nil {
			return nil, err
		}
		c.OneOf = append(c.OneOf, g)
	}
	return c, nil
}

func convertProperty(pd PropertyDoc, owner *model.Class) (*model.Property, error) {
	lower, upper, err := ParseMultiplicity(pd.Multiplicity)
	if err != nil {
		return nil, fmt.Errorf("property %s: %w", pd.Name, err)
	}
	p := &model.Property{
		Name:      pd.Name,
		Type:      pd.Type,
		Lower:     lower,
		Upper:     upper,
		Redefines: pd.Redefines,
	}
	for _, s := range pd.Stereotypes {
		tag, ok := obm.ParseTag(s)
		if !ok {
			owner.Warnf("property %s: unknown stereotype %q ignored", pd.Name, s)
			continue
		}
		p.Tags = append(p.Tags, tag)
	}
	return p, nil
}

func convertConnector(cd ConnectorDoc, owner *model.Class) (*model.Connector, error) {
	conn := &model.Connector{
		Name:          cd.Name,
		SourceOutputs: cd.SourceOutputs,
		TargetInputs:  cd.TargetInputs,
		Redefines:     cd.Redefines,
	}
	for _, s := range cd.Stereotypes {
		st, ok := obm.ParseStereotype(s)
		if !ok {
			owner.Warnf("connector %s: unknown stereotype %q ignored", cd.Name, s)
			continue
		}
		conn.Stereotypes = append(conn.Stereotypes, st)
	}
	for _, e := range cd.Ends {
		end := model.ConnectorEnd{Role: e.Role}
		if e.Path != "" {
			end.Path = strings.Split(e.Path, ".")
		}
		conn.Ends = append(conn.Ends, end)
	}
	return conn, nil
}

// convertOneOf resolves connector.source and connector.target references to
// the index of the end carrying a role on that side. Without such a role,
// source is the first end and target the second.
func convertOneOf(od OneOfDoc, owner *model.Class) (*model.OneOfGroup, error) {
	g := &model.OneOfGroup{Name: od.Name}
	for _, ref := range od.Ends {
		i := strings.LastIndex(ref, ".")
		name, end := ref[:i], ref[i+1:]
		conn := owner.Connector(name)
		if conn == nil {
			return nil, fmt.Errorf("one-of %s: unknown connector %s", od.Name, name)
		}
		idx, err := endIndex(conn, end)
		if err != nil {
			return nil, fmt.Errorf("one-of %s: %w", od.Name, err)
		}
		g.Ends = append(g.Ends, model.EndRef{Connector: name, End: idx})
	}
	return g, nil
}

func endIndex(conn *model.Connector, end string) (int, error) {
	if n, err := strconv.Atoi(end); err == nil {
		if n >= len(conn.Ends) {
			return 0, fmt.Errorf("connector %s has no end %d", conn.Name, n)
		}
		return n, nil
	}

	side := obm.ParseSide(end)
	for i, e := range conn.Ends {
		if obm.RoleSide(e.Role) == side {
			return i, nil
		}
	}
	if side == obm.SideTarget {
		return 1, nil
	}
	return 0, nil
}
