// Package decorator implements the decorator kernel: the pure metadata
// sink semantics of @reach, @crud.*, @link, @rust.Struct and
// @rust.{Mutex,Option,Arc,RwLock,i64,u64,string,bool,f64,Vec}
// (spec.md section 4.3). The kernel does not parse source itself -- Reed feeds
// it decorator applications in source order, and the kernel preserves
// the host's required timing: method-level CRUD decorators run before
// their class decorator and are queued until the class decorator
// flushes them (spec.md section 9 "Decorator timing").
package decorator

import (
	"strings"

	"github.com/hupe1980/spire-loom/internal/warp"
)

// CrudOptions carries the options argument of a parameterized
// @crud.<op>(options) decorator.
type CrudOptions struct {
	IsCollection bool
	IsSoftDelete bool
	Tags         []string
	Description  string
}

type pendingCrud struct {
	methodName string
	operation  warp.Operation
	options    CrudOptions
}

type pendingLink struct {
	structClass string
	fieldName   string
}

type pendingWrapper struct {
	fieldName string
	wrapper   string
}

// Kernel is process-local (per-run) state for the pending-decorator
// queue (spec.md section 5 "Shared resources" -- the pending-decorator queue
// is process-wide with a single writer: the current run). A fresh
// Kernel should be created per Reed run.
type Kernel struct {
	pendingCrud     []pendingCrud
	pendingLink     *pendingLink
	pendingWrappers []pendingWrapper
}

// New creates an empty decorator Kernel.
func New() *Kernel {
	return &Kernel{}
}

// QueueCrud records a @crud.<op>[(options)] application for methodName,
// to be consumed by the next @reach class decorator flush.
func (k *Kernel) QueueCrud(methodName string, op warp.Operation, opts CrudOptions) {
	k.pendingCrud = append(k.pendingCrud, pendingCrud{methodName: methodName, operation: op, options: opts})
}

// QueueLink records a @link(structField) application, to be consumed
// by the next @reach class decorator flush.
func (k *Kernel) QueueLink(structClass, fieldName string) {
	k.pendingLink = &pendingLink{structClass: structClass, fieldName: fieldName}
}

// QueueWrapper appends a @rust.{Mutex,Option,Arc,RwLock,...} wrapper
// for fieldName. Multiple wrappers stack in decoration order,
// outer-to-inner, per the resolved Open Question in spec.md section 9: a
// field decorated "@Mutex @Option" (Mutex applied first, textually
// outer) yields Wrappers == ["Mutex", "Option"], i.e. Mutex<Option<T>>.
func (k *Kernel) QueueWrapper(fieldName, wrapper string) {
	k.pendingWrappers = append(k.pendingWrappers, pendingWrapper{fieldName: fieldName, wrapper: wrapper})
}

// FlushForReach applies @reach(level) to className: it consumes every
// pending CRUD annotation queued since the last flush and attaches
// them, plus any pending link, to a new Management. This must be
// called before any later class's decorators are queued, or a later
// flush would wrongly inherit an earlier class's pending queue --
// ordering the caller (Reed) is responsible for preserving.
func (k *Kernel) FlushForReach(className string, level warp.Reach, sourceFile string) *warp.Management {
	mgmt := &warp.Management{
		Name:       className,
		Reach:      level,
		SourceFile: sourceFile,
	}

	for _, p := range k.pendingCrud {
		mgmt.Methods = append(mgmt.Methods, warp.MethodMetadata{
			Name:         p.methodName,
			Operation:    p.operation,
			IsCollection: p.options.IsCollection,
			IsSoftDelete: p.options.IsSoftDelete,
			Tags:         p.options.Tags,
			Description:  p.options.Description,
		})
	}

	k.pendingCrud = nil

	if k.pendingLink != nil {
		mgmt.Link = &warp.Link{
			StructClass: k.pendingLink.structClass,
			FieldName:   k.pendingLink.fieldName,
		}
		k.pendingLink = nil
	}

	return mgmt
}

// FlushForRustStruct applies @rust.Struct to className: it reads the
// accumulated field-level wrapper metadata queued via QueueWrapper and
// returns, per field, a StructField carrying the stacked wrapper
// chain -- the "ExternalLayer" value referenced in spec.md section 4.3.
func (k *Kernel) FlushForRustStruct(className string) map[string]warp.StructField {
	fields := make(map[string]warp.StructField)

	for _, w := range k.pendingWrappers {
		field := fields[w.fieldName]
		field.FieldName = w.fieldName
		field.StructClass = className
		field.Wrappers = append(field.Wrappers, w.wrapper)
		fields[w.fieldName] = field
	}

	k.pendingWrappers = nil

	return fields
}

// ParseCrudOperation maps a decorator name ("crud.create", "create",
// "Create") onto a warp.Operation, accepting both bare and
// parameterized forms (spec.md section 4.3 "@crud.<op>[(options)]").
func ParseCrudOperation(name string) (warp.Operation, bool) {
	trimmed := strings.ToLower(strings.TrimPrefix(name, "crud."))

	switch warp.Operation(trimmed) {
	case warp.OpCreate, warp.OpRead, warp.OpUpdate, warp.OpDelete, warp.OpList:
		return warp.Operation(trimmed), true
	default:
		return "", false
	}
}

// ParseReach maps a decorator argument ("Private", "Local", "Global")
// onto a warp.Reach level.
func ParseReach(level string) (warp.Reach, bool) {
	switch strings.ToLower(level) {
	case "private":
		return warp.ReachPrivate, true
	case "local":
		return warp.ReachLocal, true
	case "global":
		return warp.ReachGlobal, true
	default:
		return 0, false
	}
}
