package db

import (
	"encoding/json"
	"fmt"

	"github.com/go-viper/mapstructure/v2"
)

// toDocument flattens a tagged model into a Document through its json tags.
func toDocument(v interface{}) (Document, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode record: %w", err)
	}
	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("encode record: %w", err)
	}
	return doc, nil
}

// fromDocument decodes a Document into a model using its mapstructure tags.
// Weak typing absorbs the numeric shapes drivers return (int64, float64).
func fromDocument(doc Document, out interface{}) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
		Squash:           true,
	})
	if err != nil {
		return fmt.Errorf("create decoder: %w", err)
	}
	if err := decoder.Decode(map[string]interface{}(doc)); err != nil {
		return fmt.Errorf("decode record %s: %w", doc.ID(), err)
	}
	return nil
}
