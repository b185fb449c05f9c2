package template

import "github.com/hupe1980/spire-loom/internal/warp"

// ParamView is a rendered method parameter.
type ParamView struct {
	Name          string
	Type          string
	IsDataPayload bool
}

// LinkView mirrors warp.Link for template consumption.
type LinkView struct {
	StructClass string
	FieldName   string
	Wrappers    []string
}

// MethodView is the per-method shape templates see in the "methods"
// collection (spec.md section 6 "Template contract"): { name, implName,
// jsName, params[], returnType, isCollection, description, useResult?,
// link? }.
type MethodView struct {
	Name         string
	ImplName     string
	JSName       string
	Params       []ParamView
	ReturnType   string
	IsCollection bool
	Description  string
	UseResult    bool
	Link         *LinkView
}

// NewMethodView builds a MethodView from a sley-pipelined method. implName
// is the method's original, pre-pipeline name: translations such as
// sley.CrudInterfaceMapping overwrite Name with the canonical
// create/read/update/delete/list name, so callers must capture the source
// name before running the pipeline if templates need to call through to
// the original implementation.
func NewMethodView(m warp.MethodMetadata, implName string, link *warp.Link) MethodView {
	params := make([]ParamView, len(m.Params))
	for i, p := range m.Params {
		params[i] = ParamView{Name: p.Name, Type: p.Type, IsDataPayload: p.IsDataPayload}
	}

	view := MethodView{
		Name:         m.Name,
		ImplName:     implName,
		JSName:       CamelCase(implName),
		Params:       params,
		ReturnType:   m.ReturnType,
		IsCollection: m.IsCollection,
		Description:  m.Description,
		UseResult:    m.UseResult,
	}

	if link != nil {
		view.Link = &LinkView{
			StructClass: link.StructClass,
			FieldName:   link.FieldName,
			Wrappers:    append([]string(nil), link.Wrappers...),
		}
	}

	return view
}

// Record converts the view into the nested map[string]interface{} shape
// Render's dotted-path lookups expect (e.g. "method.link.fieldName").
func (v MethodView) Record() map[string]interface{} {
	params := make([]interface{}, len(v.Params))
	for i, p := range v.Params {
		params[i] = map[string]interface{}{
			"name":          p.Name,
			"type":          p.Type,
			"isDataPayload": p.IsDataPayload,
		}
	}

	rec := map[string]interface{}{
		"name":         v.Name,
		"implName":     v.ImplName,
		"jsName":       v.JSName,
		"params":       params,
		"returnType":   v.ReturnType,
		"isCollection": v.IsCollection,
		"description":  v.Description,
		"useResult":    v.UseResult,
	}

	if v.Link != nil {
		rec["link"] = map[string]interface{}{
			"structClass": v.Link.StructClass,
			"fieldName":   v.Link.FieldName,
			"wrappers":    v.Link.Wrappers,
		}
	}

	return rec
}
