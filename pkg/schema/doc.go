// Package schema provides a type-safe validation system for configuration documents.
//
// It defines a small set of value kinds (string, int, float, bool, object) plus typed lists
// and lists of objects. A Schema maps dotted key paths to kinds, so a stage can state
// its minimal configuration requirements and reject a document before using it.
//
// Basic usage:
//
//	req := schema.Schema{
//	    "gcoder":               schema.Object(),
//	    "platform.temperature": schema.Float(),
//	    "extruders": schema.Each(schema.Schema{
//	        "fastFeedRate": schema.Float(),
//	    }),
//	}
//
//	if err := schema.Validate(req, doc); err != nil {
//	    for _, key := range schema.FailedKeys(err) {
//	        // "platform.temperature", "extruders[1].fastFeedRate", ...
//	    }
//	}
//
// Schemas serialize to a flat JSON map of key paths to kind names and can be parsed back:
//
//	{"platform.temperature": "float", "extruders": "[object]", "extruders[].fastFeedRate": "float"}
//
// This package has zero external dependencies beyond the Go standard library.
package schema
