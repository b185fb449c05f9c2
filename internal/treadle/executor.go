package treadle

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/hupe1980/spire-loom/internal/hookup"
	"github.com/hupe1980/spire-loom/internal/marker"
	"github.com/hupe1980/spire-loom/internal/metrics"
	"github.com/hupe1980/spire-loom/internal/registry"
	"github.com/hupe1980/spire-loom/internal/runreport"
	"github.com/hupe1980/spire-loom/internal/sley"
	"github.com/hupe1980/spire-loom/internal/template"
	"github.com/hupe1980/spire-loom/internal/warp"
)

// Executor runs GenerationTasks through the five phases spec.md section
// 4.6 names: validate, collect methods, build data, render outputs,
// hookup. It is constructed once per weave run and holds every piece of
// shared state a task needs to reach (the treadle Registry, template
// Source, block registry, and metrics/report sinks).
type Executor struct {
	WorkspaceRoot string

	Registry  *Registry
	Templates template.Source
	Blocks    *registry.Registry
	Metrics   *metrics.Metrics
	Report    *runreport.Report

	// BindPoints accumulates every post-prefix bind-point name collectMethods
	// produces across the whole run, detecting cross-Management collisions
	// (spec.md section 8 "bind-point names are globally unique").
	BindPoints *BindPointRegistry
}

// NewExecutor wires the collaborators a weave run already constructed
// (treadle registry, template source, block registry, metrics, report)
// into an Executor ready to run GenerationTasks.
func NewExecutor(workspaceRoot string, reg *Registry, templates template.Source, blocks *registry.Registry, m *metrics.Metrics, report *runreport.Report) *Executor {
	return &Executor{
		WorkspaceRoot: workspaceRoot,
		Registry:      reg,
		Templates:     templates,
		Blocks:        blocks,
		Metrics:       m,
		Report:        report,
		BindPoints:    NewBindPointRegistry(),
	}
}

// Run executes every task in order against managements, honoring
// ctx cancellation between tasks (spec.md section 5 "Cancellation and
// timeouts" -- the suspension points are per-task, not mid-task).
func (e *Executor) Run(ctx context.Context, tasks []*warp.GenerationTask, managements []*warp.Management) {
	for _, task := range tasks {
		select {
		case <-ctx.Done():
			e.Report.AddError(runreport.NewPlanningError(ctx.Err()))
			return
		default:
		}

		e.runTask(task, managements)
	}
}

// runTask runs one GenerationTask's five phases. Every failure is
// recorded on the report and categorized per spec.md section 7; a
// failed task never aborts the ones after it.
func (e *Executor) runTask(task *warp.GenerationTask, managements []*warp.Management) {
	def, ok := e.Registry.Lookup(task.Generator)
	if !ok {
		e.fail(runreport.NewPlanningError(fmt.Errorf(
			"no treadle registered for %q (%s->%s)", task.Generator, task.OuterType, task.InnerType)))
		return
	}

	// Phase 1: validate. Matrix-matched tasks are already pre-filtered
	// by BuildMatrix, but tie-up tasks (GenerationTask.IsTieup) name
	// their Generator directly and bypass the matrix entirely, so the
	// definition's own Matches must still be checked here (spec.md
	// section 4.6 phase 1: "If the task's node types do not occur in
	// the definition's matches, skip silently").
	if !def.matchesPair(task.OuterType, task.InnerType) {
		return
	}

	if def.Validate != nil && !def.Validate(task.Current, task.Previous) {
		return
	}

	core := resolveCoreRing(task.Previous)
	if core == nil {
		core = resolveCoreRing(task.Current)
	}

	if core == nil {
		e.fail(runreport.NewPlanningError(fmt.Errorf(
			"treadle %q: no CoreRing reachable from task %s->%s", def.Name, task.OuterType, task.InnerType)))
		return
	}

	baseCtx := baseTaskData(task, core)

	// Phase 2: collect methods.
	methods := e.collectMethods(def, core, managements)
	if def.TransformMethods != nil {
		methods = def.TransformMethods(methods, baseCtx)
	}

	helpers := newMethodHelpers(bindMethods(methods, managements, core, def.Methods.Filter))

	// Phase 3: build data.
	data := e.buildData(def, baseCtx, task, methods)
	data["byManagement"] = recordsByString(helpers.ByManagement())
	data["byCrud"] = recordsByCrud(helpers.ByCrud())

	// CRUD routing (spec.md section 4.5 "CRUD routing (OperationMux)"):
	// group the same collected methods by the ring each operation
	// actually targets. A core with no declared Routing still runs this
	// unchanged -- RouteOperation's no-routing case returns core itself,
	// so byRoute collapses to a single group and isHybridRouting is false.
	routing := sley.FromWarpRouting(core.Routing)
	data["byRoute"] = recordsByRing(sley.RouteOperations(methods, core, routing))
	data["routingAnalysis"] = recordsByOperation(sley.AnalyzeRouting(core, routing))
	data["isHybridRouting"] = sley.IsHybrid(routing)

	// Phase 4: render outputs.
	for _, output := range def.Outputs {
		if output.Condition != nil && !output.Condition(data) {
			continue
		}

		e.renderOutput(def, output, data)
	}

	// Phase 5: hookup.
	e.applyHookup(def, data, task, core)
}

// collectMethods runs phase 2's Management selection: every Management
// whose Link targets core's struct and whose Reach covers the
// Definition's filter contributes its methods, run through the
// Definition's own declared pipeline and then the mandatory
// addManagementPrefix(m.Name) step last, so the bind-point-uniqueness
// invariant (spec.md section 8 "after addManagementPrefix() in any
// plan") is checked against -- and survives as -- the final name a
// template sees, rather than being immediately overwritten by a
// pipeline translation like crudInterfaceMapping that also rewrites
// name.
func (e *Executor) collectMethods(def *Definition, core *warp.CoreRing, managements []*warp.Management) []warp.MethodMetadata {
	var collected []warp.MethodMetadata

	for _, m := range managements {
		if m.Link == nil || m.Link.StructClass != core.StructClassName {
			continue
		}

		if !m.Reach.Includes(def.Methods.Filter) {
			continue
		}

		methods := append([]warp.MethodMetadata(nil), m.Methods...)

		for _, translate := range def.Methods.Pipeline {
			methods = translate(methods)
		}

		methods = sley.AddManagementPrefix(m.Name)(methods)

		for _, method := range methods {
			if err := e.BindPoints.Claim(method.Name, m.Name); err != nil {
				e.fail(err)
			}
		}

		collected = append(collected, methods...)
	}

	return collected
}

// bindMethods re-derives each collected method's owning Management name
// for MethodHelpers.ByManagement, matching methods back to their
// Management by the same Link/Reach rule collectMethods applied. Method
// names are already prefixed by the time this runs, so matching is done
// positionally against a re-walk of the same Managements in the same
// order, not by name.
func bindMethods(methods []warp.MethodMetadata, managements []*warp.Management, core *warp.CoreRing, filter warp.Reach) []boundMethod {
	bound := make([]boundMethod, 0, len(methods))

	idx := 0

	for _, m := range managements {
		if m.Link == nil || m.Link.StructClass != core.StructClassName {
			continue
		}

		if !m.Reach.Includes(filter) {
			continue
		}

		count := len(m.Methods)
		for i := 0; i < count && idx < len(methods); i++ {
			bound = append(bound, boundMethod{MethodMetadata: methods[idx], managementName: m.Name})
			idx++
		}
	}

	for ; idx < len(methods); idx++ {
		bound = append(bound, boundMethod{MethodMetadata: methods[idx]})
	}

	return bound
}

// baseTaskData seeds the data record every task carries regardless of
// its Definition: the identifiers a generated file's path and a
// template's boilerplate both need (spec.md section 4.6 phase 3
// "Build data").
func baseTaskData(task *warp.GenerationTask, core *warp.CoreRing) map[string]interface{} {
	name := core.Name()
	if name == "" {
		name = core.StructClassName
	}

	return map[string]interface{}{
		"coreName":    name,
		"structClass": core.StructClassName,
		"packageName": core.Package.PackageName,
		"packageDir":  core.Package.PackagePath,
		"outerType":   task.OuterType,
		"innerType":   task.InnerType,
		"exportName":  task.ExportName,
		"treadle":     task.Generator,
	}
}

// buildData runs phase 3: baseCtx, then the task's tie-up Config (if
// any), then the Definition's own Data callback, then the collected
// methods -- each layer may override an earlier one's keys, in that
// order of increasing specificity.
func (e *Executor) buildData(def *Definition, baseCtx map[string]interface{}, task *warp.GenerationTask, methods []warp.MethodMetadata) map[string]interface{} {
	data := make(map[string]interface{}, len(baseCtx)+4)
	for k, v := range baseCtx {
		data[k] = v
	}

	for k, v := range task.Config {
		data[k] = v
	}

	if def.Data != nil {
		for k, v := range def.Data(data, task.Current, task.Previous) {
			data[k] = v
		}
	}

	names := make([]string, len(methods))
	for i, m := range methods {
		names[i] = m.Name
	}

	data["methods"] = methodRecords(methods)
	data["commandNames"] = names

	return data
}

// renderOutput resolves one Output's template and path, renders it
// against data, and writes the result into the target file as an
// idempotent marked block (spec.md section 4.1 "marker format",
// section 7 category 5 "rendering").
func (e *Executor) renderOutput(def *Definition, output Output, data map[string]interface{}) {
	if output.MethodTemplate != "" {
		blocks, err := e.renderMethodBlocks(output.MethodTemplate, data)
		if err != nil {
			e.fail(runreport.NewRenderingError(fmt.Errorf("%s: %w", output.MethodTemplate, err)))
			return
		}

		data = mergeData(data, map[string]interface{}{"methodBlocks": blocks})
	}

	src, err := e.Templates.Load(output.Template)
	if err != nil {
		e.fail(runreport.NewRenderingError(err))
		return
	}

	rendered, err := template.Render(src, data, renderFuncs())
	if err != nil {
		e.fail(runreport.NewRenderingError(fmt.Errorf("%s: %w", output.Template, err)))
		return
	}

	relPath := substitutePlaceholders(output.Path, data)
	absPath := filepath.Join(e.WorkspaceRoot, relPath)

	lang := markerLanguage(output.Language)
	identifier := strings.ToUpper(SnakeCaseName(def.Name))

	if err := e.writeGenerated(absPath, marker.New("generated", identifier, lang), rendered); err != nil {
		e.fail(runreport.NewRenderingError(fmt.Errorf("%s: %w", absPath, err)))
	}
}

// renderMethodBlocks renders methodTemplate once per entry in data's
// "methods" collection, with each entry bound under "method", and joins
// the results with newlines -- the template engine's substitute for a
// loop construct it deliberately doesn't have (definition.go's Output
// doc comment).
func (e *Executor) renderMethodBlocks(methodTemplate string, data map[string]interface{}) (string, error) {
	src, err := e.Templates.Load(methodTemplate)
	if err != nil {
		return "", err
	}

	methods, _ := data["methods"].([]interface{})

	blocks := make([]string, 0, len(methods))

	for _, m := range methods {
		record, ok := m.(map[string]interface{})
		if !ok {
			continue
		}

		rendered, err := template.Render(src, mergeData(data, map[string]interface{}{"method": record}), renderFuncs())
		if err != nil {
			return "", err
		}

		blocks = append(blocks, rendered)
	}

	return strings.Join(blocks, "\n"), nil
}

// mergeData returns a new map combining base with overlay, overlay
// entries winning on key collision, so callers never mutate a data
// record another phase still holds a reference to.
func mergeData(base, overlay map[string]interface{}) map[string]interface{} {
	merged := make(map[string]interface{}, len(base)+len(overlay))
	for k, v := range base {
		merged[k] = v
	}

	for k, v := range overlay {
		merged[k] = v
	}

	return merged
}

// writeGenerated idempotently writes inner as a marked block in the
// file at absPath, creating the file and its parent directories when
// absent, and records the outcome on the block registry and metrics
// (spec.md section 4.1 "write semantics", section 4.7 metrics counters).
func (e *Executor) writeGenerated(absPath string, m marker.Markers, inner string) error {
	if err := os.MkdirAll(filepath.Dir(absPath), 0o755); err != nil {
		return fmt.Errorf("creating directory for %s: %w", absPath, err)
	}

	existing, err := os.ReadFile(absPath)
	existed := err == nil

	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("reading %s: %w", absPath, err)
	}

	result := marker.Ensure(existing, m, inner, marker.InsertOptions{})

	if e.Blocks != nil {
		e.Blocks.MarkEmitted(registry.BlockRef{Path: absPath, Markers: m})
	}

	switch {
	case !existed:
		if err := os.WriteFile(absPath, result.Content, 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", absPath, err)
		}

		e.Report.RecordGenerated()
		e.Metrics.FilesGenerated.Inc()
	case result.Modified:
		logBlockDiff(absPath, existing, result.Content)

		if err := os.WriteFile(absPath, result.Content, 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", absPath, err)
		}

		e.Report.RecordModified()
		e.Metrics.FilesModified.Inc()
	default:
		e.Report.RecordUnchanged()
		e.Metrics.FilesUnchanged.Inc()
	}

	return nil
}

// logBlockDiff emits a debug-level unified diff of what a marker.Ensure
// rewrite changed, for operators auditing a weave with log-level=debug.
// Never itself an error path: a diff that fails to compute just isn't
// logged.
func logBlockDiff(path string, before, after []byte) {
	diff := difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(before)),
		B:        difflib.SplitLines(string(after)),
		FromFile: path + " (before)",
		ToFile:   path + " (after)",
		Context:  2,
	}

	unified, err := difflib.GetUnifiedDiffString(diff)
	if err != nil || unified == "" {
		return
	}

	slog.Default().Debug("rewrote marked block", slog.String("path", path), slog.String("diff", unified))
}

// applyHookup runs phase 5: a declarative Kind dispatches straight
// through internal/hookup, a Custom callback is invoked with the task's
// resolved data for patches the dispatcher cannot express (spec.md
// section 4.6 "hookup?").
func (e *Executor) applyHookup(def *Definition, data map[string]interface{}, task *warp.GenerationTask, core *warp.CoreRing) {
	if def.Hookup == nil {
		return
	}

	packageDir := filepath.Join(e.WorkspaceRoot, core.Package.PackagePath)

	var results []hookup.Result

	if def.Hookup.Custom != nil {
		results = def.Hookup.Custom(data, task.Current, task.Previous)
	} else {
		results = []hookup.Result{hookup.Apply(hookup.Spec{
			Path:   pathOrKindDefault(def.Hookup, data),
			Kind:   def.Hookup.Kind,
			Config: substitutePlaceholdersInConfig(def.Hookup.Config, data),
		}, hookup.Context{PackageDir: packageDir})}
	}

	for _, result := range results {
		if result.Status == hookup.StatusError {
			e.Metrics.HookupErrors.WithLabelValues(string(result.Kind)).Inc()
			e.fail(runreport.NewHookupError(fmt.Errorf("%s: %s", result.Path, result.Message)))
		}
	}
}

// pathOrKindDefault resolves the target path a declarative hookup
// clause patches: an explicit "path" config entry if present, otherwise
// a per-kind conventional default relative to the package directory.
func pathOrKindDefault(clause *HookupClause, data map[string]interface{}) string {
	if raw, ok := clause.Config["path"].(string); ok && raw != "" {
		return substitutePlaceholders(raw, data)
	}

	switch clause.Kind {
	case hookup.KindAndroidManifest:
		return "src/main/AndroidManifest.xml"
	case hookup.KindCargoToml:
		return "Cargo.toml"
	case hookup.KindGradle:
		return "build.gradle.kts"
	case hookup.KindRustModule:
		return "src/lib.rs"
	case hookup.KindTSIndex:
		return "src/index.ts"
	case hookup.KindViteConfig:
		return "vite.config.ts"
	default:
		return ""
	}
}

// substitutePlaceholdersInConfig resolves `{placeholder}` substitutions
// in every string-valued Config entry against data, so a Definition can
// author a static Config map whose values are nonetheless
// task-specific (e.g. a Rust module edit's modName or identifier).
// Non-string values (slices, bools, nested maps) pass through
// unchanged.
func substitutePlaceholdersInConfig(cfg map[string]interface{}, data map[string]interface{}) map[string]interface{} {
	if cfg == nil {
		return nil
	}

	resolved := make(map[string]interface{}, len(cfg))

	for k, v := range cfg {
		if s, ok := v.(string); ok {
			resolved[k] = substitutePlaceholders(s, data)
			continue
		}

		resolved[k] = v
	}

	return resolved
}

func (e *Executor) fail(err error) {
	e.Report.AddError(err)
	e.Metrics.TasksFailed.Inc()
}

// resolveCoreRing walks down a Layer chain (SpiralOut/Spiraler/
// MuxSpiraler) to the CoreRing it ultimately wraps, by identity rather
// than name (spec.md section 9 "Cyclic graphs" applies the same rule to
// traversal; this is the same walk, read instead of built).
func resolveCoreRing(l warp.Layer) *warp.CoreRing {
	switch v := l.(type) {
	case *warp.CoreRing:
		return v
	case *warp.SpiralOut:
		return resolveCoreRing(v.Inner)
	case *warp.Spiraler:
		return resolveCoreRing(v.InnerRing)
	case *warp.MuxSpiraler:
		for _, inner := range v.InnerRings {
			if core := resolveCoreRing(inner); core != nil {
				return core
			}
		}

		return nil
	default:
		return nil
	}
}

// markerLanguage maps an Output.Language tag to the marker package's
// comment dialect.
func markerLanguage(lang string) marker.Language {
	switch lang {
	case "rust":
		return marker.LangRust
	case "typescript":
		return marker.LangTypeScript
	case "kotlin":
		return marker.LangKotlin
	default:
		return marker.LangRust
	}
}

// substitutePlaceholders replaces every `{key}` occurrence in path with
// data[key]'s string form, leaving unresolved placeholders untouched so
// a misconfigured Definition fails loudly downstream (a missing file
// rather than a silently wrong one).
func substitutePlaceholders(path string, data map[string]interface{}) string {
	out := path

	for key, val := range data {
		placeholder := "{" + key + "}"
		if !strings.Contains(out, placeholder) {
			continue
		}

		out = strings.ReplaceAll(out, placeholder, fmt.Sprintf("%v", val))
	}

	return out
}

// renderFuncs is the FuncMap every built-in template renders against:
// the camelCase, pascalCase and snakeCase casing helpers. No type-map
// helper is registered, so templates cannot look up PrimitiveTypeMap.
func renderFuncs() template.FuncMap {
	return template.FuncMap{
		"camelCase":  template.CamelCase,
		"pascalCase": template.PascalCase,
		"snakeCase":  template.SnakeCase,
	}
}

// recordsByString converts a name-grouped method map into the nested
// map[string]interface{} shape Render's dotted-path lookups expect
// (e.g. "byManagement.deviceManager.0.name"), so a template can address
// one Management's bindings without the executor pre-joining text for
// every possible grouping.
func recordsByString(grouped map[string][]warp.MethodMetadata) map[string]interface{} {
	out := make(map[string]interface{}, len(grouped))

	for name, methods := range grouped {
		out[name] = methodRecords(methods)
	}

	return out
}

// recordsByCrud is recordsByString's counterpart for the byCrud()
// grouping, keyed by the operation's string tag (create/read/update/
// delete/list) rather than a warp.Operation.
func recordsByCrud(grouped map[warp.Operation][]warp.MethodMetadata) map[string]interface{} {
	out := make(map[string]interface{}, len(grouped))

	for op, methods := range grouped {
		out[string(op)] = methodRecords(methods)
	}

	return out
}

// recordsByRing is recordsByString's counterpart for RouteOperations'
// grouping, keyed by the target ring's sley.RingLabel rather than a
// Management name.
func recordsByRing(grouped map[warp.Layer][]warp.MethodMetadata) map[string]interface{} {
	out := make(map[string]interface{}, len(grouped))

	for ring, methods := range grouped {
		out[sley.RingLabel(ring)] = methodRecords(methods)
	}

	return out
}

// recordsByOperation converts AnalyzeRouting's operation-keyed
// description map into string-keyed template data.
func recordsByOperation(desc map[warp.Operation]string) map[string]interface{} {
	out := make(map[string]interface{}, len(desc))

	for op, d := range desc {
		out[string(op)] = d
	}

	return out
}

// methodRecords renders a method slice into template.MethodView.Record
// form, the same shape buildData uses for the top-level "methods" key.
func methodRecords(methods []warp.MethodMetadata) []interface{} {
	records := make([]interface{}, len(methods))

	for i, m := range methods {
		records[i] = template.NewMethodView(m, m.Name, nil).Record()
	}

	return records
}

// SnakeCaseName is an exported alias of template.SnakeCase used for
// deriving a marker identifier from a treadle's name, kept local to
// avoid every call site importing internal/template just for this.
func SnakeCaseName(s string) string {
	return template.SnakeCase(s)
}
