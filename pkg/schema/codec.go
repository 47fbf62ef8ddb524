package schema

import (
	"bytes"
	"encoding/json"

	"gopkg.in/yaml.v3"
)

// Decode parses a YAML or JSON document. It performs no structural checks;
// call IsStructurallyValid for that.
func Decode(data []byte) (*Document, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, NewError(ErrCodeDecode, "document is empty")
	}
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, NewError(ErrCodeDecode, "failed to parse document").WithCause(err)
	}
	return &doc, nil
}

// EncodeYAML serializes the document as YAML.
func EncodeYAML(doc *Document) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return nil, NewError(ErrCodeDecode, "failed to encode document").WithCause(err)
	}
	if err := enc.Close(); err != nil {
		return nil, NewError(ErrCodeDecode, "failed to encode document").WithCause(err)
	}
	return buf.Bytes(), nil
}

// EncodeJSON serializes the document as indented JSON.
func EncodeJSON(doc *Document) ([]byte, error) {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, NewError(ErrCodeDecode, "failed to encode document").WithCause(err)
	}
	return data, nil
}
