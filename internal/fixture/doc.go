// Package fixture loads declarative plan descriptions from YAML or CUE
// documents and builds the corresponding relation trees. Fixtures drive the
// CLI encode command and conformance tests; they cover the commonly
// constructed shapes, not every corner of the model.
package fixture
