// Copyright 2026 PingCAP, Inc.
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"encoding/json"
	"reflect"
	"strings"

	"github.com/pingcap/sqlast/lib/util/errors"
)

type output struct {
	Component  string
	Version    string
	Parameters []field
}

type field struct {
	Name          string `json:"key"`
	Type          string `json:"type"`
	DefaultValue  any    `json:"default_value"`
	HotReloadable bool   `json:"hot_reloadable"`
}

// ConfigInfo lists every config item with its default value, for deployment tools.
func ConfigInfo(format, version string) (string, error) {
	if !strings.EqualFold(format, "json") {
		return "", errors.New("only support json format")
	}
	fields, err := collectFields(reflect.ValueOf(*NewConfig()), "", false)
	if err != nil {
		return "", err
	}
	bytes, err := json.MarshalIndent(output{
		Component:  "sqlast server",
		Version:    version,
		Parameters: fields,
	}, "", "    ")
	return string(bytes), errors.WithStack(err)
}

func collectFields(v reflect.Value, name string, reloadable bool) ([]field, error) {
	switch v.Kind() {
	case reflect.Bool:
		return []field{{Name: name, Type: "bool", DefaultValue: v.Bool(), HotReloadable: reloadable}}, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return []field{{Name: name, Type: "int", DefaultValue: v.Int(), HotReloadable: reloadable}}, nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return []field{{Name: name, Type: "int", DefaultValue: v.Uint(), HotReloadable: reloadable}}, nil
	case reflect.String:
		return []field{{Name: name, Type: "string", DefaultValue: v.String(), HotReloadable: reloadable}}, nil
	case reflect.Struct:
		typ := v.Type()
		fields := make([]field, 0, typ.NumField())
		for i := 0; i < typ.NumField(); i++ {
			f := typ.Field(i)
			key := strings.Split(f.Tag.Get("toml"), ",")[0]
			switch {
			case key == "-":
				continue
			case key == "":
				// inlined struct
				key = name
			case name != "":
				key = name + "." + key
			}
			res, err := collectFields(v.Field(i), key, reloadable || f.Tag.Get("reloadable") == "true")
			if err != nil {
				return nil, err
			}
			fields = append(fields, res...)
		}
		return fields, nil
	default:
		return nil, errors.Errorf("unsupported type %s", v.Kind().String())
	}
}
