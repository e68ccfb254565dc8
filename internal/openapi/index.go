// Package openapi loads the OpenAPI document of the read API and indexes its
// operations by operationId and by method and path.
package openapi

import (
	"context"
	_ "embed"
	"fmt"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
)

//go:embed api.yaml
var apiSpec []byte

// IndexedOperation holds a resolved OpenAPI operation with its context.
type IndexedOperation struct {
	OperationID  string
	Method       string
	PathTemplate string
	Parameters   []*openapi3.Parameter
	Responses    *openapi3.Responses
}

// Parameter returns the named parameter of the operation.
func (op IndexedOperation) Parameter(in, name string) (*openapi3.Parameter, bool) {
	for _, p := range op.Parameters {
		if p.In == in && p.Name == name {
			return p, true
		}
	}
	return nil, false
}

// Index is an in-memory index of the operations of one document.
type Index struct {
	doc        *openapi3.T
	operations map[string]IndexedOperation // key: operationID
	byRoute    map[string]string           // "METHOD path" → operationID
}

// Load parses and validates the embedded API document.
func Load() (*Index, error) {
	return LoadData(apiSpec)
}

// LoadData parses and validates an OpenAPI document.
func LoadData(data []byte) (*Index, error) {
	loader := openapi3.NewLoader()
	loader.IsExternalRefsAllowed = false

	doc, err := loader.LoadFromData(data)
	if err != nil {
		return nil, fmt.Errorf("openapi: loading document: %w", err)
	}
	if err := doc.Validate(context.Background()); err != nil {
		return nil, fmt.Errorf("openapi: validating document: %w", err)
	}

	idx := &Index{
		doc:        doc,
		operations: make(map[string]IndexedOperation),
		byRoute:    make(map[string]string),
	}
	for path, pathItem := range doc.Paths.Map() {
		for method, op := range pathItem.Operations() {
			if op.OperationID == "" {
				continue
			}

			// Merge path-level and operation-level parameters.
			params := make([]*openapi3.Parameter, 0)
			for _, ref := range pathItem.Parameters {
				if ref.Value != nil {
					params = append(params, ref.Value)
				}
			}
			for _, ref := range op.Parameters {
				if ref.Value != nil {
					params = append(params, ref.Value)
				}
			}

			if _, dup := idx.operations[op.OperationID]; dup {
				return nil, fmt.Errorf("openapi: duplicate operationId %q", op.OperationID)
			}
			idx.operations[op.OperationID] = IndexedOperation{
				OperationID:  op.OperationID,
				Method:       method,
				PathTemplate: path,
				Parameters:   params,
				Responses:    op.Responses,
			}
			idx.byRoute[routeKey(method, path)] = op.OperationID
		}
	}
	return idx, nil
}

func routeKey(method, path string) string {
	return strings.ToUpper(method) + " " + path
}

// GetOperation returns the operation with the given id.
func (idx *Index) GetOperation(operationID string) (IndexedOperation, bool) {
	op, ok := idx.operations[operationID]
	return op, ok
}

// Lookup returns the operation served at method and path template.
func (idx *Index) Lookup(method, pathTemplate string) (IndexedOperation, bool) {
	id, ok := idx.byRoute[routeKey(method, pathTemplate)]
	if !ok {
		return IndexedOperation{}, false
	}
	return idx.operations[id], true
}

// AllOperationIDs returns every operation id, sorted.
func (idx *Index) AllOperationIDs() []string {
	ids := make([]string, 0, len(idx.operations))
	for id := range idx.operations {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// MarshalJSON renders the document as JSON.
func (idx *Index) MarshalJSON() ([]byte, error) {
	return idx.doc.MarshalJSON()
}
