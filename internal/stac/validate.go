package stac

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"canelevation/internal/logger"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ErrValidation is returned when a document does not satisfy its schemas.
var ErrValidation = errors.New("stac: validation failed")

// Core schema URIs by document type.
var coreSchemas = map[string]string{
	"Collection": "https://schemas.stacspec.org/v" + Version + "/collection-spec/json-schema/collection.json",
	"Feature":    "https://schemas.stacspec.org/v" + Version + "/item-spec/json-schema/item.json",
}

// Validator checks documents against the STAC core schema and the schema
// of every extension they declare. Compiled schemas are cached for the
// lifetime of the validator.
type Validator struct {
	client *http.Client
	log    *logger.Logger

	mu      sync.Mutex
	schemas map[string]*jsonschema.Schema
}

// NewValidator creates a validator that fetches schemas with client.
func NewValidator(client *http.Client, log *logger.Logger) *Validator {
	if client == nil {
		client = http.DefaultClient
	}
	if log == nil {
		log = logger.Discard()
	}
	return &Validator{
		client:  client,
		log:     log,
		schemas: make(map[string]*jsonschema.Schema),
	}
}

// Validate checks an encoded Collection or Item.
func (v *Validator) Validate(ctx context.Context, doc []byte) error {
	dec := json.NewDecoder(bytes.NewReader(doc))
	dec.UseNumber()
	var instance any
	if err := dec.Decode(&instance); err != nil {
		return fmt.Errorf("%w: decode document: %v", ErrValidation, err)
	}

	obj, ok := instance.(map[string]any)
	if !ok {
		return fmt.Errorf("%w: document is not an object", ErrValidation)
	}
	docType, _ := obj["type"].(string)
	core, ok := coreSchemas[docType]
	if !ok {
		return fmt.Errorf("%w: unsupported type %q", ErrValidation, docType)
	}

	uris := []string{core}
	if exts, ok := obj["stac_extensions"].([]any); ok {
		for _, e := range exts {
			if s, ok := e.(string); ok {
				uris = append(uris, s)
			}
		}
	}

	for _, uri := range uris {
		schema, err := v.schema(ctx, uri)
		if err != nil {
			return err
		}
		if err := schema.Validate(instance); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrValidation, uri, err)
		}
		v.log.Debug("schema satisfied", "schema", uri)
	}
	return nil
}

func (v *Validator) schema(ctx context.Context, uri string) (*jsonschema.Schema, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if s, ok := v.schemas[uri]; ok {
		return s, nil
	}

	compiler := jsonschema.NewCompiler()
	compiler.LoadURL = func(s string) (io.ReadCloser, error) {
		if strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://") {
			return v.fetch(ctx, s)
		}
		return jsonschema.LoadURL(s)
	}

	s, err := compiler.Compile(uri)
	if err != nil {
		return nil, fmt.Errorf("stac: compile schema %s: %w", uri, err)
	}
	v.schemas[uri] = s
	return s, nil
}

func (v *Validator) fetch(ctx context.Context, uri string) (io.ReadCloser, error) {
	v.log.Debug("fetching schema", "url", uri)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, err
	}
	resp, err := v.client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("%s returned %s", uri, resp.Status)
	}
	return resp.Body, nil
}
