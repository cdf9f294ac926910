// Package jsonx is the JSON adapter used for analyzer definitions.
//
// All structured analyzer configs go through one frozen json-iterator config so
// that parsing is strict (no trailing bytes, raw messages validated) and
// rendering is deterministic (no HTML escaping, sorted map keys).
package jsonx

import (
	jsoniter "github.com/json-iterator/go"
)

// Kind is the JSON type of a top-level value.
type Kind = jsoniter.ValueType

const (
	Invalid = jsoniter.InvalidValue
	String  = jsoniter.StringValue
	Number  = jsoniter.NumberValue
	Null    = jsoniter.NilValue
	Bool    = jsoniter.BoolValue
	Array   = jsoniter.ArrayValue
	Object  = jsoniter.ObjectValue
)

// RawMessage is a raw encoded JSON value.
type RawMessage = jsoniter.RawMessage

var jsonAdapter = jsoniter.Config{
	EscapeHTML:             false,
	SortMapKeys:            true,
	ValidateJsonRawMessage: true,
	UseNumber:              true,
}.Froze()

// Marshal renders v as compact JSON.
func Marshal(v interface{}) ([]byte, error) {
	return jsonAdapter.Marshal(v)
}

// Unmarshal parses data into v. Trailing bytes after the value are an error.
func Unmarshal(data []byte, v interface{}) error {
	return jsonAdapter.Unmarshal(data, v)
}

// KindOf reports the type of the first value in data without decoding it.
func KindOf(data []byte) Kind {
	iter := jsonAdapter.BorrowIterator(data)
	defer jsonAdapter.ReturnIterator(iter)
	return iter.WhatIsNext()
}

// Fields decodes a JSON object into its raw members. Non-objects are an error.
func Fields(data []byte) (map[string]RawMessage, error) {
	var fields map[string]RawMessage
	if err := jsonAdapter.Unmarshal(data, &fields); err != nil {
		return nil, err
	}
	return fields, nil
}
