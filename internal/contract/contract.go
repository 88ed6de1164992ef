// Package contract checks outgoing requests against the API description
// before they are sent, so malformed calls fail locally with a precise
// message instead of as a server error.
package contract

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
)

//go:embed openapi.yaml
var embedded []byte

// Validator validates requests against an OpenAPI document. Requests to
// paths the document does not describe pass unchecked.
type Validator struct {
	doc       *openapi3.T
	source    string
	templates []template
}

type template struct {
	path     string
	segments []string
	params   int
	item     *openapi3.PathItem
}

// Default returns a validator for the embedded API description.
func Default() (*Validator, error) {
	return Load(embedded, "embedded")
}

// LoadFile reads an OpenAPI document from disk.
func LoadFile(path string) (*Validator, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read OpenAPI document: %w", err)
	}
	return Load(data, path)
}

// Load parses and validates an OpenAPI document.
func Load(data []byte, source string) (*Validator, error) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(data)
	if err != nil {
		return nil, fmt.Errorf("failed to load OpenAPI document %s: %w", source, err)
	}
	if err := doc.Validate(context.Background()); err != nil {
		return nil, fmt.Errorf("invalid OpenAPI document %s: %w", source, err)
	}

	v := &Validator{doc: doc, source: source}
	for path, item := range doc.Paths.Map() {
		segments := splitPath(path)
		params := 0
		for _, s := range segments {
			if isParam(s) {
				params++
			}
		}
		if params > 0 {
			v.templates = append(v.templates, template{path: path, segments: segments, params: params, item: item})
		}
	}
	// Literal segments win over parameters.
	sort.Slice(v.templates, func(i, j int) bool {
		if v.templates[i].params != v.templates[j].params {
			return v.templates[i].params < v.templates[j].params
		}
		return v.templates[i].path < v.templates[j].path
	})
	return v, nil
}

// Source names where the document came from.
func (v *Validator) Source() string { return v.source }

// Violation lists everything wrong with one request.
type Violation struct {
	Method    string
	Path      string
	Operation string
	Problems  []string
}

func (e *Violation) Error() string {
	op := e.Operation
	if op == "" {
		op = e.Method + " " + e.Path
	}
	return fmt.Sprintf("request %s does not match the API contract: %s", op, strings.Join(e.Problems, "; "))
}

// ValidateRequest checks method, path parameters, query and JSON body.
func (v *Validator) ValidateRequest(_ context.Context, method, path string, query url.Values, body []byte) error {
	method = strings.ToUpper(method)
	item, pathParams, found := v.find(normalizePath(path))
	if !found {
		return nil
	}

	violation := &Violation{Method: method, Path: path}
	op := item.GetOperation(method)
	if op == nil {
		violation.Problems = append(violation.Problems, "method not allowed")
		return violation
	}
	violation.Operation = op.OperationID

	for _, p := range parameters(item, op) {
		switch p.In {
		case openapi3.ParameterInPath:
			if problem := checkValue(p, pathParams[p.Name], true); problem != "" {
				violation.Problems = append(violation.Problems, problem)
			}
		case openapi3.ParameterInQuery:
			values, ok := query[p.Name]
			if !ok || len(values) == 0 {
				if p.Required {
					violation.Problems = append(violation.Problems, fmt.Sprintf("query parameter %q is required", p.Name))
				}
				continue
			}
			for _, value := range values {
				if problem := checkValue(p, value, false); problem != "" {
					violation.Problems = append(violation.Problems, problem)
				}
			}
		}
	}

	if problem := checkBody(op, body); problem != "" {
		violation.Problems = append(violation.Problems, problem)
	}

	if len(violation.Problems) > 0 {
		return violation
	}
	return nil
}

// Endpoint is one documented operation.
type Endpoint struct {
	Method      string `json:"method" yaml:"method"`
	Path        string `json:"path" yaml:"path"`
	OperationID string `json:"operationId" yaml:"operationId"`
}

// Endpoints lists every documented operation ordered by path and method.
func (v *Validator) Endpoints() []Endpoint {
	var out []Endpoint
	for path, item := range v.doc.Paths.Map() {
		for method, op := range item.Operations() {
			out = append(out, Endpoint{Method: method, Path: path, OperationID: op.OperationID})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Path != out[j].Path {
			return out[i].Path < out[j].Path
		}
		return out[i].Method < out[j].Method
	})
	return out
}

func (v *Validator) find(path string) (*openapi3.PathItem, map[string]string, bool) {
	if item, ok := v.doc.Paths.Map()[path]; ok {
		return item, nil, true
	}

	segments := splitPath(path)
	for _, t := range v.templates {
		if len(t.segments) != len(segments) {
			continue
		}
		params := make(map[string]string, t.params)
		match := true
		for i, s := range t.segments {
			if isParam(s) {
				value, err := url.PathUnescape(segments[i])
				if err != nil {
					value = segments[i]
				}
				params[strings.Trim(s, "{}")] = value
				continue
			}
			if s != segments[i] {
				match = false
				break
			}
		}
		if match {
			return t.item, params, true
		}
	}
	return nil, nil, false
}

// parameters merges path-level and operation-level parameters; the
// operation's definition wins.
func parameters(item *openapi3.PathItem, op *openapi3.Operation) []*openapi3.Parameter {
	byKey := map[string]*openapi3.Parameter{}
	var order []string
	add := func(refs openapi3.Parameters) {
		for _, ref := range refs {
			if ref == nil || ref.Value == nil {
				continue
			}
			key := ref.Value.In + ":" + ref.Value.Name
			if _, seen := byKey[key]; !seen {
				order = append(order, key)
			}
			byKey[key] = ref.Value
		}
	}
	add(item.Parameters)
	add(op.Parameters)

	out := make([]*openapi3.Parameter, 0, len(order))
	for _, key := range order {
		out = append(out, byKey[key])
	}
	return out
}

func checkValue(p *openapi3.Parameter, raw string, inPath bool) string {
	where := "query"
	if inPath {
		where = "path"
	}
	if p.Schema == nil || p.Schema.Value == nil {
		return ""
	}
	schema := p.Schema.Value

	var value any = raw
	switch {
	case schema.Type.Is(openapi3.TypeInteger):
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return fmt.Sprintf("%s parameter %q must be an integer, got %q", where, p.Name, raw)
		}
		value = float64(n)
	case schema.Type.Is(openapi3.TypeNumber):
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return fmt.Sprintf("%s parameter %q must be a number, got %q", where, p.Name, raw)
		}
		value = f
	case schema.Type.Is(openapi3.TypeBoolean):
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return fmt.Sprintf("%s parameter %q must be a boolean, got %q", where, p.Name, raw)
		}
		value = b
	}

	if err := schema.VisitJSON(value); err != nil {
		return fmt.Sprintf("%s parameter %q: %s", where, p.Name, schemaMessage(err))
	}
	return ""
}

func checkBody(op *openapi3.Operation, body []byte) string {
	if op.RequestBody == nil || op.RequestBody.Value == nil {
		return ""
	}
	rb := op.RequestBody.Value
	if len(body) == 0 || string(body) == "null" {
		if rb.Required {
			return "request body is required"
		}
		return ""
	}

	media := rb.Content.Get("application/json")
	if media == nil || media.Schema == nil || media.Schema.Value == nil {
		return ""
	}
	var decoded any
	if err := json.Unmarshal(body, &decoded); err != nil {
		return fmt.Sprintf("request body is not valid JSON: %v", err)
	}
	if err := media.Schema.Value.VisitJSON(decoded); err != nil {
		return "request body: " + schemaMessage(err)
	}
	return ""
}

// schemaMessage keeps the first line of a kin-openapi error; the rest
// repeats the schema and the value.
func schemaMessage(err error) string {
	var se *openapi3.SchemaError
	if errors.As(err, &se) {
		if field := strings.Join(se.JSONPointer(), "."); field != "" {
			return fmt.Sprintf("%s: %s", field, se.Reason)
		}
		return se.Reason
	}
	msg, _, _ := strings.Cut(err.Error(), "\n")
	return msg
}

func splitPath(path string) []string {
	return strings.Split(strings.Trim(path, "/"), "/")
}

func isParam(segment string) bool {
	return strings.HasPrefix(segment, "{") && strings.HasSuffix(segment, "}")
}

func normalizePath(path string) string {
	if idx := strings.Index(path, "?"); idx != -1 {
		path = path[:idx]
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if len(path) > 1 && strings.HasSuffix(path, "/") {
		path = path[:len(path)-1]
	}
	return path
}
