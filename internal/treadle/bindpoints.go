package treadle

import (
	"fmt"

	"github.com/hupe1980/spire-loom/internal/runreport"
)

// BindPointRegistry accumulates every bind-point name collectMethods
// produces (after addManagementPrefix, spec.md section 8 "bind-point
// names are globally unique across all Managements in a plan") across
// every task an Executor runs, and reports a collision the moment a
// second, different Management claims a name already owned by another.
// A single Management re-claiming its own name across multiple tasks
// (the normal case: one Management's methods get collected once per
// ring it is bound against) is not a collision.
type BindPointRegistry struct {
	owners map[string]string
}

// NewBindPointRegistry returns an empty registry ready for one weave run.
func NewBindPointRegistry() *BindPointRegistry {
	return &BindPointRegistry{owners: make(map[string]string)}
}

// Claim records name as belonging to managementName, returning a
// runreport.RunError (category "configuration") if a different
// Management already claimed it. Run continues regardless of the
// returned error (spec.md section 8 scenario 4: "detected and reported...
// generation proceeds") -- callers record it on the report and move on.
func (b *BindPointRegistry) Claim(name, managementName string) error {
	owner, ok := b.owners[name]
	if !ok {
		b.owners[name] = managementName
		return nil
	}

	if owner == managementName {
		return nil
	}

	return runreport.NewConfigurationError(fmt.Errorf(
		"bind point %q is claimed by both management %q and %q", name, owner, managementName))
}
