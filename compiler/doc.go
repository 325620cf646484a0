// Package compiler translates a behavior model class into Alloy signatures
// and facts.
//
// A compilation runs three stages over one Context:
//
//  1. the hierarchy walk creates a signature for the main class, its
//     ancestors and every reachable property type, declares fields and
//     cardinality facts, and records leaves and step properties;
//  2. the connector classifier visits classes children first, suppresses
//     connectors redefined by a subclass, and synthesizes precedence,
//     concurrency, binding, one-of and transfer facts;
//  3. the closure assembler ties step fields to the steps accessor and
//     propagates deferred transfer facts to leaves.
//
// Usage:
//
//	c := compiler.New(compiler.WithLogger(logger))
//	res, err := c.Compile(m, "Behaviors::Seq")
//	if err != nil {
//		for _, msg := range res.Messages {
//			fmt.Println(msg)
//		}
//	}
package compiler
