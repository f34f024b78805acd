package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"

	"github.com/go-playground/validator/v10"
	"github.com/google/jsonschema-go/jsonschema"

	"github.com/leofalp/radar/core/parse"
	"github.com/leofalp/radar/providers/ai"
)

// ErrValidation marks model output that could not be turned into a value
// matching the requested schema. Extraction never returns a best-effort guess.
var ErrValidation = errors.New("structured output failed validation")

// validate is shared; validator.Validate caches struct metadata and is safe for concurrent use.
var validate = validator.New(validator.WithRequiredStructEnabled())

// Extractor performs structured extraction into T. The JSON schema is inferred
// once from T (json tags name properties, jsonschema tags describe them, fields
// without omitempty are required) and sent as the input schema of a tool the
// model is forced to call.
//
// Example:
//
//	type Topics struct {
//	    UserTopics []string `json:"user_topics" jsonschema:"topics to research" validate:"dive,required"`
//	}
//
//	extractor, _ := client.NewExtractor[Topics](c, "record_topics", "Record the topics")
//	topics, err := extractor.Extract(ctx, systemPrompt, userPrompt)
type Extractor[T any] struct {
	client      *Client
	toolName    string
	description string
	schema      *jsonschema.Schema
	resolved    *jsonschema.Resolved
}

// NewExtractor infers and resolves the schema for T. It fails when T cannot be
// described by a JSON schema or is not an object type.
func NewExtractor[T any](c *Client, toolName, description string) (*Extractor[T], error) {
	if c == nil {
		return nil, errors.New("client: extractor needs a client")
	}
	if toolName == "" {
		return nil, errors.New("client: extractor needs a tool name")
	}

	schema, err := jsonschema.For[T](nil)
	if err != nil {
		return nil, fmt.Errorf("client: infer schema: %w", err)
	}
	if schema.Type != "object" {
		return nil, fmt.Errorf("client: extraction target %T must be a struct, schema type is %q", *new(T), schema.Type)
	}
	resolved, err := schema.Resolve(nil)
	if err != nil {
		return nil, fmt.Errorf("client: resolve schema: %w", err)
	}

	return &Extractor[T]{
		client:      c,
		toolName:    toolName,
		description: description,
		schema:      schema,
		resolved:    resolved,
	}, nil
}

// Schema returns the inferred JSON schema.
func (e *Extractor[T]) Schema() *jsonschema.Schema {
	return e.schema
}

// Extract asks the model for a T and validates the answer three ways: the raw
// output must decode (after jsonrepair), the decoded instance must satisfy
// the JSON schema, and the resulting struct must pass its validate tags. Any
// failure wraps ErrValidation.
func (e *Extractor[T]) Extract(ctx context.Context, systemPrompt, userPrompt string) (T, error) {
	var zero T
	if userPrompt == "" {
		return zero, errors.New("client: user prompt must not be empty")
	}

	request := e.client.newRequest(systemPrompt, userPrompt)
	request.Tools = []ai.ToolDescription{{
		Name:        e.toolName,
		Description: e.description,
		Parameters:  e.schema,
	}}
	request.ToolChoiceForced = e.toolName

	response, err := e.client.send(ctx, request)
	if err != nil {
		return zero, err
	}
	return e.decode(response)
}

// decode turns a response into a validated T.
func (e *Extractor[T]) decode(response *ai.ChatResponse) (T, error) {
	var zero T
	if response == nil {
		return zero, fmt.Errorf("%w: empty response", ErrValidation)
	}

	raw := response.Content
	if call := response.FindToolCall(e.toolName); call != nil {
		raw = call.Function.Arguments
	}
	if raw == "" {
		return zero, fmt.Errorf("%w: model produced no output for %s", ErrValidation, e.toolName)
	}

	instance, err := parse.ParseStringAs[map[string]any](raw)
	if err != nil {
		return zero, fmt.Errorf("%w: %w", ErrValidation, err)
	}
	if err = e.resolved.Validate(instance); err != nil {
		return zero, fmt.Errorf("%w: schema: %w", ErrValidation, err)
	}

	encoded, err := json.Marshal(instance)
	if err != nil {
		return zero, fmt.Errorf("%w: %w", ErrValidation, err)
	}
	var value T
	if err = json.Unmarshal(encoded, &value); err != nil {
		return zero, fmt.Errorf("%w: decode: %w", ErrValidation, err)
	}

	if isStruct(value) {
		if err = validate.Struct(value); err != nil {
			return zero, fmt.Errorf("%w: %w", ErrValidation, err)
		}
	}
	return value, nil
}

func isStruct(value any) bool {
	kind := reflect.TypeOf(value)
	for kind != nil && kind.Kind() == reflect.Pointer {
		kind = kind.Elem()
	}
	return kind != nil && kind.Kind() == reflect.Struct
}
