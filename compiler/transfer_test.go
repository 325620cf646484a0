package compiler_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/obmalloy/model"
	"github.com/c360studio/obmalloy/signature"
	"github.com/c360studio/obmalloy/vocabulary/obm"
)

func itemFlow(name, src, tgt string, outputs, inputs []string) *model.Connector {
	return &model.Connector{
		Name:        name,
		Stereotypes: []obm.Stereotype{obm.StereotypeItemFlow},
		Ends: []model.ConnectorEnd{
			{Role: obm.RoleTransferSource, Path: []string{src}},
			{Role: obm.RoleTransferTarget, Path: []string{tgt}},
		},
		SourceOutputs: outputs,
		TargetInputs:  inputs,
	}
}

func orderModel(t *testing.T, owner *model.Class, extra ...*model.Class) *model.Model {
	t.Helper()
	classes := []*model.Class{
		{Name: "Order", Properties: []*model.Property{attr("number", "Integer")}},
		{Name: "Pay", Properties: []*model.Property{attr("number", "Integer")}},
		owner,
	}
	return newModel(t, append(classes, extra...)...)
}

func TestCompileTransfer(t *testing.T) {
	m := orderModel(t, &model.Class{
		Name:       "Purchase",
		Properties: []*model.Property{step("order", "Order", 1, 1), step("pay", "Pay", 1, 1)},
		Connectors: []*model.Connector{itemFlow("flow", "order", "pay", []string{"number"}, []string{"number"})},
	})

	res := compile(t, m, "Purchase")

	assert.Equal(t, prefixed("Purchase",
		"#x.order = 1",
		"#x.pay = 1",
		"bijectionFiltered[sources, x.transferOrderPay, x.order]",
		"bijectionFiltered[targets, x.transferOrderPay, x.pay]",
		"subsettingItemRuleForSources[x.transferOrderPay]",
		"subsettingItemRuleForTargets[x.transferOrderPay]",
		"x.transferOrderPay.items in x.transferOrderPay.sources.number",
		"x.transferOrderPay.sources.number in x.transferOrderPay.items",
		"x.transferOrderPay.items in x.transferOrderPay.targets.number",
		"x.transferOrderPay.targets.number in x.transferOrderPay.items",
		"x.order + x.pay + x.transferOrderPay in x.steps",
		"x.steps in x.order + x.pay + x.transferOrderPay",
	), factsOf(t, res, "Purchase"))

	assert.Equal(t, prefixed("Order",
		"no x.steps",
		"x.number in x.outputs",
		"x.outputs in x.number",
		"no x.inputs",
	), factsOf(t, res, "Order"))

	assert.Equal(t, prefixed("Pay",
		"no x.steps",
		"x.number in x.inputs",
		"x.inputs in x.number",
		"no x.outputs",
	), factsOf(t, res, "Pay"))

	purchase, ok := res.Signatures.Lookup("Purchase")
	require.True(t, ok)
	assert.Contains(t, purchase.Fields, signature.FieldDecl{Names: []string{"transferOrderPay"}, Type: "Transfer"})
	assert.False(t, res.HasErrors())
}

func TestCompileOrderedTransfer(t *testing.T) {
	conn := itemFlow("flow", "order", "pay", nil, nil)
	conn.Ends[0].Role = obm.RoleTransferBeforeSource
	conn.Ends[1].Role = obm.RoleTransferBeforeTarget

	m := orderModel(t, &model.Class{
		Name:       "Purchase",
		Properties: []*model.Property{step("order", "Order", 1, 1), step("pay", "Pay", 1, 1)},
		Connectors: []*model.Connector{conn},
	})

	res := compile(t, m, "Purchase")
	facts := factsOf(t, res, "Purchase")
	assert.Contains(t, facts, "all x: Purchase | isAfterSource[x.transferOrderPay]")
	assert.Contains(t, facts, "all x: Purchase | isBeforeTarget[x.transferOrderPay]")
	for _, f := range facts {
		assert.NotContains(t, f, ".items in")
	}

	purchase, _ := res.Signatures.Lookup("Purchase")
	assert.Contains(t, purchase.Fields, signature.FieldDecl{Names: []string{"transferOrderPay"}, Type: "TransferBefore"})
}

func TestTransferFieldCollision(t *testing.T) {
	m := orderModel(t, &model.Class{
		Name:       "Purchase",
		Properties: []*model.Property{step("order", "Order", 1, 1), step("pay", "Pay", 1, 1)},
		Connectors: []*model.Connector{
			itemFlow("first", "order", "pay", nil, nil),
			itemFlow("second", "order", "pay", nil, nil),
		},
	})

	res := compile(t, m, "Purchase")
	purchase, _ := res.Signatures.Lookup("Purchase")
	assert.Equal(t, []string{"order", "pay", "transferOrderPay", "transferOrderPay2"}, purchase.FieldNames())
	assert.Len(t, messagesWith(res, "warning"), 1)
	assert.Contains(t, factsOf(t, res, "Purchase"),
		"all x: Purchase | disj[x.transferOrderPay, x.transferOrderPay2]")
}

func TestTransferDeferredToLeaf(t *testing.T) {
	base := &model.Class{
		Name:       "Base",
		Properties: []*model.Property{step("order", "Order", 1, 1), step("pay", "Pay", 1, 1)},
		Connectors: []*model.Connector{itemFlow("flow", "order", "pay", []string{"number"}, nil)},
	}
	sub := &model.Class{Name: "Sub", Generals: []string{"Base"}}
	m := orderModel(t, base, sub)

	res := compile(t, m, "Sub")

	baseFacts := factsOf(t, res, "Base")
	assert.Contains(t, baseFacts, "all x: Base | bijectionFiltered[sources, x.transferOrderPay, x.order]")
	assert.Contains(t, baseFacts, "all x: Base | x.order + x.pay + x.transferOrderPay in x.steps")
	assert.NotContains(t, baseFacts, "all x: Base | x.steps in x.order + x.pay + x.transferOrderPay")
	for _, f := range baseFacts {
		assert.NotContains(t, f, "subsettingItemRule")
	}

	assert.Equal(t, prefixed("Sub",
		"subsettingItemRuleForSources[x.transferOrderPay]",
		"subsettingItemRuleForTargets[x.transferOrderPay]",
		"x.transferOrderPay.items in x.transferOrderPay.sources.number",
		"x.transferOrderPay.sources.number in x.transferOrderPay.items",
		"x.order + x.pay + x.transferOrderPay in x.steps",
		"x.steps in x.order + x.pay + x.transferOrderPay",
	), factsOf(t, res, "Sub"))
}

func TestTransferExclusionRule(t *testing.T) {
	m := newModel(t,
		&model.Class{Name: "Item", Properties: []*model.Property{attr("weight", "Real")}},
		&model.Class{Name: "Box", Properties: []*model.Property{attr("content", "Item")}},
		&model.Class{
			Name:       "Unpack",
			Properties: []*model.Property{step("box", "Box", 1, 1), step("item", "Item", 1, 1)},
			Connectors: []*model.Connector{itemFlow("flow", "box", "item", []string{"content"}, []string{"weight"})},
		},
	)

	res := compile(t, m, "Unpack")
	facts := factsOf(t, res, "Unpack")
	assert.Contains(t, facts, "all x: Unpack | x.transferBoxItem.items in x.transferBoxItem.targets.weight")
	for _, f := range facts {
		assert.NotContains(t, f, "sources.content")
	}
	for _, f := range factsOf(t, res, "Box") {
		assert.NotContains(t, f, "x.outputs")
	}
	assert.Len(t, messagesWith(res, "info"), 1)
}

func TestTransferUnknownItemProperty(t *testing.T) {
	m := orderModel(t, &model.Class{
		Name:       "Purchase",
		Properties: []*model.Property{step("order", "Order", 1, 1), step("pay", "Pay", 1, 1)},
		Connectors: []*model.Connector{itemFlow("flow", "order", "pay", []string{"missing"}, nil)},
	})

	res := compile(t, m, "Purchase")
	warnings := messagesWith(res, "warning")
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0].Text, "missing")
	for _, f := range factsOf(t, res, "Purchase") {
		assert.NotContains(t, f, "missing")
	}
}

func TestTransferSameType(t *testing.T) {
	m := newModel(t,
		&model.Class{Name: "Stage", Properties: []*model.Property{attr("val", "Integer")}},
		&model.Class{
			Name:       "Pipeline",
			Properties: []*model.Property{step("s1", "Stage", 1, 1), step("s2", "Stage", 1, 1)},
			Connectors: []*model.Connector{itemFlow("flow", "s1", "s2", []string{"val"}, []string{"val"})},
		},
	)

	res := compile(t, m, "Pipeline")
	assert.Equal(t, prefixed("Stage",
		"x.outputs = x.val",
		"x.inputs = x.val",
		"no x.steps",
	), factsOf(t, res, "Stage"))

	pipeline, _ := res.Signatures.Lookup("Pipeline")
	assert.Equal(t, signature.FieldDecl{Names: []string{"s1", "s2"}, Type: "Stage", Disjoint: true}, pipeline.Fields[0])
}

func TestTransferSameTypeUnionsFlows(t *testing.T) {
	m := newModel(t,
		&model.Class{Name: "Stage", Properties: []*model.Property{attr("a", "Integer"), attr("b", "Integer")}},
		&model.Class{
			Name: "Pipeline",
			Properties: []*model.Property{
				step("s1", "Stage", 1, 1),
				step("s2", "Stage", 1, 1),
				step("s3", "Stage", 1, 1),
			},
			Connectors: []*model.Connector{
				itemFlow("first", "s1", "s2", []string{"a"}, []string{"a"}),
				itemFlow("second", "s2", "s3", []string{"b"}, []string{"b"}),
			},
		},
	)

	res := compile(t, m, "Pipeline")
	facts := factsOf(t, res, "Stage")
	assert.Contains(t, facts, "all x: Stage | x.outputs = x.a + x.b")
	assert.Contains(t, facts, "all x: Stage | x.inputs = x.a + x.b")
	assert.NotContains(t, facts, "all x: Stage | x.outputs = x.a")
	assert.NotContains(t, facts, "all x: Stage | x.inputs = x.b")
}
