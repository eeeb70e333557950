/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

package packagejson

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// Object is a read-only JSON object that remembers key order. Export maps
// depend on it: conditions are matched in the order the package lists them.
type Object struct {
	keys   []string
	values map[string]any
}

// NewObject creates an Object from ordered keys and their values.
func NewObject(keys []string, values map[string]any) Object {
	return Object{keys: keys, values: values}
}

// Len returns the number of keys.
func (o Object) Len() int {
	return len(o.keys)
}

// Keys returns the keys in document order.
func (o Object) Keys() []string {
	return o.keys
}

// Get returns the value of key.
func (o Object) Get(key string) (any, bool) {
	v, ok := o.values[key]
	return v, ok
}

// decodeOrdered decodes any JSON value, producing Object for objects so
// nested key order survives.
func decodeOrdered(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	t, err := dec.Token()
	if err != nil {
		return nil, err
	}
	value, err := decodeToken(t, dec)
	if err != nil {
		return nil, err
	}
	if t, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("unexpected trailing token %v", t)
	}
	return value, nil
}

func decodeToken(t json.Token, dec *json.Decoder) (any, error) {
	delim, ok := t.(json.Delim)
	if !ok {
		return t, nil
	}
	switch delim {
	case '{':
		obj := Object{values: make(map[string]any)}
		for dec.More() {
			kt, err := dec.Token()
			if err != nil {
				return nil, err
			}
			key, ok := kt.(string)
			if !ok {
				return nil, fmt.Errorf("object key must be a string, got %T", kt)
			}
			vt, err := dec.Token()
			if err != nil {
				return nil, err
			}
			value, err := decodeToken(vt, dec)
			if err != nil {
				return nil, err
			}
			if _, dup := obj.values[key]; !dup {
				obj.keys = append(obj.keys, key)
			}
			obj.values[key] = value
		}
		if _, err := dec.Token(); err != nil {
			return nil, err
		}
		return obj, nil
	case '[':
		arr := make([]any, 0)
		for dec.More() {
			vt, err := dec.Token()
			if err != nil {
				return nil, err
			}
			value, err := decodeToken(vt, dec)
			if err != nil {
				return nil, err
			}
			arr = append(arr, value)
		}
		if _, err := dec.Token(); err != nil {
			return nil, err
		}
		return arr, nil
	}
	return nil, fmt.Errorf("unexpected delimiter %q", delim)
}
