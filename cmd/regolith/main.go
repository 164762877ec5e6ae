// Regolith is a Rego policy engine runtime with a rule inventory.
//
// It loads Rego policies from files or directories, evaluates queries
// against them, and extracts per-rule metadata (name, description,
// source line span) from policy sources.
//
// Usage:
//
//	# Print the rule inventory for a policy directory
//	regolith rules ./policies
//
//	# Evaluate a query against a policy set
//	regolith eval --policy ./policies --input input.json "data.authz.allow"
//
//	# Start the policy server with hot reload and decision logging
//	regolith serve --config /etc/regolith/config.yaml
//
//	# Show version information
//	regolith version
package main

func main() {
	Execute()
}
