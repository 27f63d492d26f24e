// Package datafile parses experimentation configuration payloads into
// an immutable, indexed Project snapshot.
//
// A datafile describes experiments, mutual exclusion groups, audiences,
// feature flags and rollouts. Parse decodes the payload once — audience
// condition trees and traffic allocation tables included — and builds
// O(1) lookup indices by key and by id. The resulting Project is never
// mutated: it is safe to share across any number of concurrent decision
// calls, and a configuration reload publishes a whole new Project.
//
//	project, err := datafile.Parse(payload)
//	if err != nil {
//		// payload rejected
//	}
//	exp, ok := project.Experiment("checkout_test")
//
// All lookups are total: absence is an explicit boolean, never a panic
// or an error, so callers can degrade to "no decision" gracefully.
//
// LoadFile and ParseYAML additionally accept YAML datafiles for local
// development fixtures; both formats share the JSON semantics.
package datafile
