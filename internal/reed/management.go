package reed

import (
	"fmt"
	"sort"
	"strings"

	"github.com/hupe1980/spire-loom/internal/reed/decorator"
	"github.com/hupe1980/spire-loom/internal/warp"
)

// CollectResult is everything Reed's class-decorator pass extracts from
// a set of loom `.ts` files: Management classes (marked `@reach`) and
// the field-wrapper metadata of `@rust.Struct`-marked classes, keyed by
// struct class name for later merging into the matching CoreRing
// (spec.md section 4.3 "Management collection"). Warnings holds non-fatal
// per-file or per-class failures (spec.md section 7 taxonomy items 1
// "Configuration error" and 2 "Discovery error"): the failing file or
// class is skipped and collection continues, matching "Failure to
// import a module: per-file warning; the file is skipped."
type CollectResult struct {
	Managements  []*warp.Management
	StructFields map[string]map[string]warp.StructField
	Warnings     []error
}

// rustWrapperNames maps a `@rust.<Wrapper>` decorator's bare name to
// the wrapper identifier stacked on a StructField.
var rustWrapperNames = map[string]string{
	"mutex":  "Mutex",
	"option": "Option",
	"arc":    "Arc",
	"rwlock": "RwLock",
}

// CollectManagement walks the given loom source files -- path to file
// content, excluding WARP.ts, per spec.md section 4.3 -- in the supplied
// order and extracts Management classes and struct field metadata.
// Callers should pass files in a stable order (e.g. sorted by path);
// CollectManagement itself does not re-sort, since source order within
// a file matters for decorator queue flushing but cross-file order is
// only a determinism concern for the caller.
func CollectManagement(paths []string, files map[string][]byte) *CollectResult {
	k := decorator.New()
	result := &CollectResult{StructFields: map[string]map[string]warp.StructField{}}

	for _, path := range paths {
		content := files[path]

		tree, err := parseTS(content)
		if err != nil {
			result.Warnings = append(result.Warnings, fmt.Errorf("%s: discovery error: %w", path, err))
			continue
		}

		for _, cls := range classDeclarations(tree.RootNode(), content) {
			className := nodeText(childByField(cls.Node, "name"), content)

			if link, ok := findLinkDecorator(cls.Decorators); ok {
				k.QueueLink(link.structClass, link.fieldName)
			}

			switch {
			case hasDecorator(cls.Decorators, "reach"):
				mgmt, err := collectManagementClass(k, className, cls, path, content)
				if err != nil {
					result.Warnings = append(result.Warnings, err)
					continue
				}

				result.Managements = append(result.Managements, mgmt)
			case hasDecorator(cls.Decorators, "rust.struct"):
				collectStructClass(k, cls, content)
				result.StructFields[className] = k.FlushForRustStruct(className)
			}
		}

		tree.Close()
	}

	return result
}

func collectManagementClass(k *decorator.Kernel, className string, cls classWithDecorators, path string, content []byte) (*warp.Management, error) {
	for _, method := range methodDefinitions(cls.Node, content) {
		for _, dec := range method.Decorators {
			op, ok := decorator.ParseCrudOperation(dec.Name)
			if !ok {
				continue
			}

			opts, err := parseCrudOptions(dec.Args)
			if err != nil {
				return nil, fmt.Errorf("%s: method %s: %w", path, method.Name, err)
			}

			k.QueueCrud(method.Name, op, opts)
		}
	}

	reachLevel, err := reachLevelOf(cls.Decorators)
	if err != nil {
		return nil, fmt.Errorf("%s: class %s: %w", path, className, err)
	}

	mgmt := k.FlushForReach(className, reachLevel, path)

	if err := mgmt.ValidateUniqueMethodNames(); err != nil {
		return nil, err
	}

	return mgmt, nil
}

func collectStructClass(k *decorator.Kernel, cls classWithDecorators, content []byte) {
	for _, field := range fieldDefinitions(cls.Node, content) {
		for _, dec := range field.Decorators {
			wrapper, ok := rustWrapperNames[strings.ToLower(strings.TrimPrefix(strings.ToLower(dec.Name), "rust."))]
			if !ok {
				continue
			}

			k.QueueWrapper(field.Name, wrapper)
		}
	}
}

// reachLevelOf extracts and parses the `@reach(level)` argument. A bare
// `@reach` with no level is a configuration error (spec.md section 7 "missing
// reach").
func reachLevelOf(decorators []decoratorCall) (warp.Reach, error) {
	for _, dec := range decorators {
		if strings.ToLower(dec.Name) != "reach" {
			continue
		}

		if len(dec.Args) == 0 {
			return 0, &warp.ConfigError{Msg: "@reach requires a level argument"}
		}

		level := strings.Trim(dec.Args[0], `'"`+"`")

		r, ok := decorator.ParseReach(level)
		if !ok {
			return 0, &warp.ConfigError{Msg: fmt.Sprintf("@reach: unknown level %q", level)}
		}

		return r, nil
	}

	return 0, &warp.ConfigError{Msg: "class is missing @reach"}
}

type linkTarget struct {
	structClass string
	fieldName   string
}

// findLinkDecorator extracts `@link(structClass, fieldName)`.
func findLinkDecorator(decorators []decoratorCall) (linkTarget, bool) {
	for _, dec := range decorators {
		if strings.ToLower(dec.Name) != "link" {
			continue
		}

		if len(dec.Args) < 2 {
			continue
		}

		return linkTarget{
			structClass: strings.Trim(dec.Args[0], `'"`+"`"),
			fieldName:   strings.Trim(dec.Args[1], `'"`+"`"),
		}, true
	}

	return linkTarget{}, false
}

func hasDecorator(decorators []decoratorCall, name string) bool {
	for _, dec := range decorators {
		if strings.ToLower(dec.Name) == name {
			return true
		}
	}

	return false
}

// parseCrudOptions interprets a @crud.<op>(options) decorator's single
// object-literal argument, when present. A bare @crud.<op> with no
// argument yields the zero-value CrudOptions.
func parseCrudOptions(args []string) (decorator.CrudOptions, error) {
	var opts decorator.CrudOptions

	if len(args) == 0 {
		return opts, nil
	}

	value, err := parseLiteralExpr(args[0])
	if err != nil {
		return opts, err
	}

	obj, ok := value.(map[string]interface{})
	if !ok {
		return opts, &warp.ConfigError{Msg: "@crud.<op> options argument must be an object literal"}
	}

	if v, ok := obj["isCollection"].(bool); ok {
		opts.IsCollection = v
	}

	if v, ok := obj["isSoftDelete"].(bool); ok {
		opts.IsSoftDelete = v
	}

	if v, ok := obj["description"].(string); ok {
		opts.Description = v
	}

	if tags, ok := obj["tags"].([]interface{}); ok {
		for _, t := range tags {
			if s, ok := t.(string); ok {
				opts.Tags = append(opts.Tags, s)
			}
		}
	}

	return opts, nil
}

// SortedPaths returns the keys of files sorted lexically, a convenience
// for callers that don't otherwise impose a loading order on loom
// directory contents.
func SortedPaths(files map[string][]byte) []string {
	paths := make([]string, 0, len(files))
	for p := range files {
		paths = append(paths, p)
	}

	sort.Strings(paths)

	return paths
}
