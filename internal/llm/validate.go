package llm

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// Schema is the JSON shape a structured request asks for.
type Schema struct {
	// Name identifies the schema to providers, e.g. "cloud-quiz".
	Name        string
	Description string
	Definition  map[string]any
}

// compiledSchemas caches compiled definitions per *Schema.
var compiledSchemas sync.Map

// Validate checks raw against the schema. A malformed or non-conforming
// document is reported as an *Error of KindInvalidResponse.
func (s *Schema) Validate(raw json.RawMessage) error {
	compiled, err := s.compile()
	if err != nil {
		return err
	}

	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return &Error{Kind: KindInvalidResponse, Content: raw, Err: fmt.Errorf("reply is not JSON: %w", err)}
	}
	if err := compiled.Validate(doc); err != nil {
		return &Error{Kind: KindInvalidResponse, Content: raw, Err: err}
	}
	return nil
}

func (s *Schema) compile() (*jsonschema.Schema, error) {
	if c, ok := compiledSchemas.Load(s); ok {
		return c.(*jsonschema.Schema), nil
	}

	b, err := json.Marshal(s.Definition)
	if err != nil {
		return nil, fmt.Errorf("schema %s: %w", s.Name, err)
	}
	def, err := jsonschema.UnmarshalJSON(bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("schema %s: %w", s.Name, err)
	}

	url := "mem://" + s.Name + ".json"
	c := jsonschema.NewCompiler()
	if err := c.AddResource(url, def); err != nil {
		return nil, fmt.Errorf("schema %s: %w", s.Name, err)
	}
	compiled, err := c.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("schema %s: %w", s.Name, err)
	}

	compiledSchemas.Store(s, compiled)
	return compiled, nil
}
