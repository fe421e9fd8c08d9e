package node

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ErrInvalidOutput 模型输出无法解析或不符合约定结构
var ErrInvalidOutput = errors.New("invalid llm output")

// OutputSchema 已编译的输出 JSON Schema
type OutputSchema struct {
	name     string
	raw      map[string]any
	compiled *jsonschema.Schema
}

// MustCompileSchema 编译 schema，失败时 panic（仅用于包级常量）
func MustCompileSchema(name string, raw map[string]any) *OutputSchema {
	s, err := CompileSchema(name, raw)
	if err != nil {
		panic(err)
	}
	return s
}

// CompileSchema 编译 schema
func CompileSchema(name string, raw map[string]any) (*OutputSchema, error) {
	b, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal schema %s: %w", name, err)
	}
	compiler := jsonschema.NewCompiler()
	url := name + ".json"
	if err := compiler.AddResource(url, bytes.NewReader(b)); err != nil {
		return nil, fmt.Errorf("failed to load schema %s: %w", name, err)
	}
	compiled, err := compiler.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema %s: %w", name, err)
	}
	return &OutputSchema{name: name, raw: raw, compiled: compiled}, nil
}

// Name schema 名称
func (s *OutputSchema) Name() string {
	return s.name
}

// Raw 原始 schema，用于 response_format
func (s *OutputSchema) Raw() map[string]any {
	return s.raw
}

// Decode 从模型输出中截取 JSON，校验后解码到 out
func (s *OutputSchema) Decode(content string, out any) error {
	raw := ExtractJSONObject(content)
	if raw == "" {
		return fmt.Errorf("%w: empty content", ErrInvalidOutput)
	}

	var doc any
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidOutput, s.name, err)
	}
	if err := s.compiled.Validate(doc); err != nil {
		return fmt.Errorf("%w: %s does not match schema: %v", ErrInvalidOutput, s.name, err)
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidOutput, s.name, err)
	}
	return nil
}
