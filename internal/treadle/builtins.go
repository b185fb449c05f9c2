package treadle

import (
	"fmt"

	"github.com/hupe1980/spire-loom/internal/heddles"
	"github.com/hupe1980/spire-loom/internal/hookup"
	"github.com/hupe1980/spire-loom/internal/sley"
	"github.com/hupe1980/spire-loom/internal/warp"
)

// Builtins returns the Definitions shipped with the loom itself, one
// per treadle tag spec.md section 4.6's naming contract names:
// "foregroundService", "direct", "plugin", "ddd", "app". These stand in
// for `<repo>/machinery/treadles/*.ts` -- see definition.go's package
// doc comment for why they are native Go values rather than parsed
// source.
func Builtins() []*Definition {
	return []*Definition{
		directTreadle(),
		foregroundServiceTreadle(),
		pluginTreadle(),
		dddTreadle(),
		appTreadle(),
	}
}

// directTreadle binds a core ring's Management methods straight onto
// its own struct impl, with no wrapping capability -- the baseline
// case: a plain SpiralOut (no spiraler identity) over any inner type.
func directTreadle() *Definition {
	return &Definition{
		Name:    "direct",
		Matches: []Match{{Current: "SpiralOut", Previous: heddles.AnyType}},
		Methods: MethodsSpec{
			Filter:   warp.ReachPrivate,
			Pipeline: []sley.Translation{sley.CrudInterfaceMapping()},
		},
		Outputs: []Output{
			{
				Template:       "rust/core_impl.ejs",
				MethodTemplate: "rust/core_method.ejs",
				Path:           "{packageDir}/src/{coreName}_impl.rs",
				Language:       "rust",
			},
		},
		Hookup: &HookupClause{
			Kind: hookup.KindRustModule,
			Config: map[string]interface{}{
				"editKind":   "mod",
				"identifier": "{coreName}",
				"modName":    "{coreName}_impl",
			},
		},
	}
}

// foregroundServiceTreadle wraps a core ring in an Android foreground
// service, exposing local- and global-reach methods to the service
// class (spec.md section 3 "Reach"); private-reach Managements are
// left out.
func foregroundServiceTreadle() *Definition {
	return &Definition{
		Name:    "foregroundService",
		Matches: []Match{{Current: "ForegroundServiceSpiraler", Previous: heddles.AnyType}},
		Methods: MethodsSpec{
			Filter: warp.ReachLocal,
			Pipeline: []sley.Translation{
				sley.CrudInterfaceMapping(),
			},
		},
		Outputs: []Output{
			{
				Template:       "kotlin/foreground_service.ejs",
				MethodTemplate: "kotlin/foreground_service_method.ejs",
				Path:           "{packageDir}/src/main/kotlin/{packageName}/{coreName}Service.kt",
				Language:       "kotlin",
			},
		},
		Hookup: &HookupClause{
			Kind: hookup.KindAndroidManifest,
			Config: map[string]interface{}{
				"scope":      "SERVICE",
				"identifier": "{coreName}",
				"xml":        `<service android:name=".{coreName}Service" android:exported="false" />`,
				"anchor":     "<application",
			},
		},
	}
}

// pluginTreadle wraps a core ring as a Tauri plugin, bridging its
// methods to TypeScript invoke() bindings.
func pluginTreadle() *Definition {
	return &Definition{
		Name:    "plugin",
		Matches: []Match{{Current: "PluginSpiraler", Previous: heddles.AnyType}},
		Methods: MethodsSpec{
			Filter: warp.ReachLocal,
			Pipeline: []sley.Translation{
				sley.CrudInterfaceMapping(),
			},
		},
		Outputs: []Output{
			{
				Template:       "rust/tauri_plugin.ejs",
				MethodTemplate: "rust/tauri_plugin_method.ejs",
				Path:           "{packageDir}/src-tauri/src/{coreName}_plugin.rs",
				Language:       "rust",
			},
			{
				Template:       "typescript/plugin_bindings.ejs",
				MethodTemplate: "typescript/plugin_bindings_method.ejs",
				Path:           "{packageDir}/src/bindings/{coreName}.ts",
				Language:       "typescript",
			},
		},
		Hookup: &HookupClause{
			Custom: func(data map[string]interface{}, current, previous warp.Layer) []hookup.Result {
				fnName := fmt.Sprintf("%s_plugin", data["coreName"])

				commands, _ := data["commandNames"].([]string)

				rustResult := hookup.Apply(hookup.Spec{
					Path: "src-tauri/src/lib.rs",
					Kind: hookup.KindRustModule,
					Config: map[string]interface{}{
						"editKind": "tauri-plugin",
						"fnName":   fnName,
						"commands": commands,
					},
				}, hookup.Context{})

				tsResult := hookup.Apply(hookup.Spec{
					Path: "src/bindings/index.ts",
					Kind: hookup.KindTSIndex,
					Config: map[string]interface{}{
						"kind":   "export-star",
						"source": fmt.Sprintf("./%s", data["coreName"]),
					},
				}, hookup.Context{})

				return []hookup.Result{rustResult, tsResult}
			},
		},
	}
}

// dddTreadle wraps a core ring behind a global-reach repository
// interface, the broadest reach level a Management may declare.
func dddTreadle() *Definition {
	return &Definition{
		Name:    "ddd",
		Matches: []Match{{Current: "DddSpiraler", Previous: heddles.AnyType}},
		Methods: MethodsSpec{
			Filter: warp.ReachGlobal,
			Pipeline: []sley.Translation{
				sley.CrudInterfaceMapping(),
			},
		},
		Outputs: []Output{
			{
				Template:       "typescript/repository.ejs",
				MethodTemplate: "typescript/repository_method.ejs",
				Path:           "{packageDir}/src/repositories/{coreName}Repository.ts",
				Language:       "typescript",
			},
		},
		Hookup: &HookupClause{
			Kind: hookup.KindTSIndex,
			Config: map[string]interface{}{
				"kind":       "export-star",
				"identifier": "{coreName}",
				"source":     "./repositories/{coreName}Repository",
			},
		},
	}
}

// appTreadle wires a SpiralMux aggregate (e.g. a Tauri app mux over
// Android and desktop platform rings) into the app's top-level entry
// point.
func appTreadle() *Definition {
	return &Definition{
		Name:    "app",
		Matches: []Match{{Current: "SpiralMux", Previous: heddles.AnyType}},
		Methods: MethodsSpec{
			Filter: warp.ReachGlobal,
		},
		Outputs: []Output{
			{
				Template: "rust/app_main.ejs",
				Path:     "{packageDir}/src-tauri/src/main.rs",
				Language: "rust",
			},
		},
		Hookup: &HookupClause{
			Kind: hookup.KindGradle,
			Config: map[string]interface{}{
				"editKind":   "task",
				"identifier": "{coreName}",
				"snippet":    "tasks.named(\"preBuild\") { dependsOn(\"cargoBuild_{coreName}\") }\n",
				"anchor":     "dependencies {",
			},
		},
	}
}
