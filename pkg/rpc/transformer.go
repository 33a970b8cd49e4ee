package rpc

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// Transformer converts values to and from their wire representation.
type Transformer interface {
	Serialize(v interface{}) (json.RawMessage, error)
	Deserialize(data json.RawMessage, out interface{}) error
}

// SuperJSON wraps values in {"json": ..., "meta": {"values": ...}} and
// annotates time.Time values as "Date" so the remote side can restore them.
type SuperJSON struct{}

var _ Transformer = SuperJSON{}

type superJSONEnvelope struct {
	JSON json.RawMessage `json:"json"`
	Meta *superJSONMeta  `json:"meta,omitempty"`
}

type superJSONMeta struct {
	Values json.RawMessage `json:"values,omitempty"`
}

const dateAnnotation = "Date"

var timeType = reflect.TypeOf(time.Time{})

func (SuperJSON) Serialize(v interface{}) (json.RawMessage, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}

	envelope := superJSONEnvelope{JSON: data}

	value := reflect.ValueOf(v)
	if isTime(value) {
		envelope.Meta = &superJSONMeta{Values: json.RawMessage(`["Date"]`)}
	} else {
		annotations := map[string][]string{}
		collectDatePaths(value, nil, annotations)

		if len(annotations) > 0 {
			values, err := json.Marshal(annotations)
			if err != nil {
				return nil, err
			}

			envelope.Meta = &superJSONMeta{Values: values}
		}
	}

	return json.Marshal(envelope)
}

func (SuperJSON) Deserialize(data json.RawMessage, out interface{}) error {
	var envelope superJSONEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		return fmt.Errorf("%w: %s", ErrMalformedPayload, err)
	}

	if envelope.Meta != nil && len(envelope.Meta.Values) > 0 {
		if err := checkAnnotations(envelope.Meta.Values); err != nil {
			return err
		}
	}

	if out == nil || len(envelope.JSON) == 0 {
		return nil
	}

	return json.Unmarshal(envelope.JSON, out)
}

// JSON is a pass-through transformer for peers that do not use envelopes.
type JSON struct{}

var _ Transformer = JSON{}

func (JSON) Serialize(v interface{}) (json.RawMessage, error) {
	return json.Marshal(v)
}

func (JSON) Deserialize(data json.RawMessage, out interface{}) error {
	if out == nil || len(data) == 0 {
		return nil
	}

	return json.Unmarshal(data, out)
}

func checkAnnotations(raw json.RawMessage) error {
	var root []string
	if err := json.Unmarshal(raw, &root); err == nil {
		return checkAnnotation(root)
	}

	var values map[string][]string
	if err := json.Unmarshal(raw, &values); err != nil {
		return fmt.Errorf("%w: %s", ErrMalformedPayload, err)
	}

	for _, annotation := range values {
		if err := checkAnnotation(annotation); err != nil {
			return err
		}
	}

	return nil
}

func checkAnnotation(annotation []string) error {
	if len(annotation) == 0 {
		return nil
	}

	switch annotation[0] {
	case dateAnnotation, "undefined":
		return nil
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedAnnotation, annotation[0])
	}
}

func collectDatePaths(value reflect.Value, path []string, out map[string][]string) {
	if !value.IsValid() {
		return
	}

	if isTime(value) {
		out[strings.Join(path, ".")] = []string{dateAnnotation}
		return
	}

	switch value.Kind() {
	case reflect.Ptr, reflect.Interface:
		if value.IsNil() {
			return
		}
		collectDatePaths(value.Elem(), path, out)

	case reflect.Struct:
		valueType := value.Type()
		for i := 0; i < valueType.NumField(); i++ {
			field := valueType.Field(i)
			if field.PkgPath != "" && !field.Anonymous {
				continue
			}

			name, omitEmpty, skip := jsonFieldName(field)
			if skip {
				continue
			}

			fieldValue := value.Field(i)
			if omitEmpty && fieldValue.IsZero() {
				continue
			}

			if field.Anonymous && name == "" {
				collectDatePaths(fieldValue, path, out)
				continue
			}

			if name == "" {
				name = field.Name
			}

			collectDatePaths(fieldValue, appendPath(path, name), out)
		}

	case reflect.Map:
		if value.Type().Key().Kind() != reflect.String {
			return
		}

		iter := value.MapRange()
		for iter.Next() {
			collectDatePaths(iter.Value(), appendPath(path, iter.Key().String()), out)
		}

	case reflect.Slice, reflect.Array:
		if value.Type().Elem().Kind() == reflect.Uint8 {
			return
		}

		for i := 0; i < value.Len(); i++ {
			collectDatePaths(value.Index(i), appendPath(path, strconv.Itoa(i)), out)
		}
	}
}

func isTime(value reflect.Value) bool {
	for value.IsValid() && (value.Kind() == reflect.Ptr || value.Kind() == reflect.Interface) {
		if value.IsNil() {
			return false
		}
		value = value.Elem()
	}

	return value.IsValid() && value.Type() == timeType
}

// jsonFieldName mirrors encoding/json tag handling closely enough to
// address the same keys the encoder writes.
func jsonFieldName(field reflect.StructField) (name string, omitEmpty bool, skip bool) {
	tag := field.Tag.Get("json")
	if tag == "-" {
		return "", false, true
	}

	parts := strings.Split(tag, ",")
	name = parts[0]
	for _, option := range parts[1:] {
		if option == "omitempty" {
			omitEmpty = true
		}
	}

	if field.Anonymous && name == "" {
		fieldType := field.Type
		if fieldType.Kind() == reflect.Ptr {
			fieldType = fieldType.Elem()
		}

		if fieldType.Kind() != reflect.Struct || fieldType == timeType {
			name = field.Name
		}
	}

	if field.PkgPath != "" && name == "" && !field.Anonymous {
		return "", false, true
	}

	return name, omitEmpty, false
}

func appendPath(path []string, key string) []string {
	key = strings.ReplaceAll(key, `\`, `\\`)
	key = strings.ReplaceAll(key, ".", `\.`)

	next := make([]string, len(path), len(path)+1)
	copy(next, path)
	return append(next, key)
}

var (
	ErrMalformedPayload      = errors.New("malformed rpc payload")
	ErrUnsupportedAnnotation = errors.New("unsupported value annotation")
)
