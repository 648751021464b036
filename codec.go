/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package recordgateway

import (
	"encoding/json"
	"fmt"
	"reflect"
	"time"

	"github.com/go-openapi/strfmt"
	"github.com/mitchellh/mapstructure"
	"github.com/suparena/recordgateway/storagemodels"
)

var (
	dateTimeType = reflect.TypeOf(strfmt.DateTime{})
	timeType     = reflect.TypeOf(time.Time{})
)

// dateTimeHook converts strings and time values into strfmt.DateTime.
func dateTimeHook(from, to reflect.Type, data any) (any, error) {
	if to != dateTimeType {
		return data, nil
	}
	switch v := data.(type) {
	case string:
		return strfmt.ParseDateTime(v)
	case time.Time:
		return strfmt.DateTime(v), nil
	}
	return data, nil
}

// timePassthroughHook keeps time values intact when the target is time.Time.
func timePassthroughHook(from, to reflect.Type, data any) (any, error) {
	if to == timeType && from == dateTimeType {
		return time.Time(data.(strfmt.DateTime)), nil
	}
	return data, nil
}

// decodeDocument maps a raw engine document onto T using its json tags.
// Unknown fields are ignored; relation payloads stay available through the raw document.
func decodeDocument[T any](raw storagemodels.Document) (T, error) {
	var out T
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		Result:           &out,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			dateTimeHook,
			timePassthroughHook,
			mapstructure.StringToTimeHookFunc(time.RFC3339),
		),
	})
	if err != nil {
		return out, err
	}
	if err := decoder.Decode(map[string]any(raw)); err != nil {
		return out, fmt.Errorf("decode document: %w", err)
	}
	return out, nil
}

// encodeDocument renders item as a raw document following its json tags.
func encodeDocument[T any](item T) (storagemodels.Document, error) {
	b, err := json.Marshal(item)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	doc := storagemodels.Document{}
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	return doc, nil
}
