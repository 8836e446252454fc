// Copyright 2026 PingCAP, Inc.
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"math"

	"github.com/pingcap/sqlast/lib/util/errors"
	"google.golang.org/protobuf/encoding/protowire"
)

// wireMessage is a message that encodes itself in the protobuf wire format
// described by sql_parser.proto.
type wireMessage interface {
	appendWire(b []byte) []byte
	consumeWire(b []byte) error
}

// wireCodec is the server's gRPC codec. It speaks the same bytes as the
// default proto codec, so stubs generated from sql_parser.proto can call it.
type wireCodec struct{}

func (wireCodec) Marshal(v any) ([]byte, error) {
	m, ok := v.(wireMessage)
	if !ok {
		return nil, errors.Errorf("cannot encode %T", v)
	}
	return m.appendWire(nil), nil
}

func (wireCodec) Unmarshal(data []byte, v any) error {
	m, ok := v.(wireMessage)
	if !ok {
		return errors.Errorf("cannot decode into %T", v)
	}
	return m.consumeWire(data)
}

func (wireCodec) Name() string {
	return "proto"
}

// Proto3 leaves scalar fields holding the zero value off the wire.

func appendString(b []byte, num protowire.Number, v string) []byte {
	if v == "" {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, v)
}

func appendBool(b []byte, num protowire.Number, v bool) []byte {
	if !v {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, protowire.EncodeBool(v))
}

func appendDouble(b []byte, num protowire.Number, v float64) []byte {
	if v == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.Fixed64Type)
	return protowire.AppendFixed64(b, math.Float64bits(v))
}

func appendMessage(b []byte, num protowire.Number, m wireMessage) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, m.appendWire(nil))
}

// consumeFields walks the fields in b. field returns how many bytes of the
// value it consumed, or 0 to skip a field it does not know.
func consumeFields(b []byte, field func(num protowire.Number, typ protowire.Type, v []byte) (int, error)) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]
		n, err := field(num, typ, b)
		if err != nil {
			return err
		}
		if n == 0 {
			n = protowire.ConsumeFieldValue(num, typ, b)
		}
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]
	}
	return nil
}

func consumeString(typ protowire.Type, b []byte, dst *string) int {
	if typ != protowire.BytesType {
		return 0
	}
	v, n := protowire.ConsumeString(b)
	if n > 0 {
		*dst = v
	}
	return n
}

func consumeBool(typ protowire.Type, b []byte, dst *bool) int {
	if typ != protowire.VarintType {
		return 0
	}
	v, n := protowire.ConsumeVarint(b)
	if n > 0 {
		*dst = protowire.DecodeBool(v)
	}
	return n
}

func consumeDouble(typ protowire.Type, b []byte, dst *float64) int {
	if typ != protowire.Fixed64Type {
		return 0
	}
	v, n := protowire.ConsumeFixed64(b)
	if n > 0 {
		*dst = math.Float64frombits(v)
	}
	return n
}

func consumeUint32(typ protowire.Type, b []byte, dst **uint32) int {
	if typ != protowire.VarintType {
		return 0
	}
	v, n := protowire.ConsumeVarint(b)
	if n > 0 {
		u := uint32(v)
		*dst = &u
	}
	return n
}

func consumeMessage(typ protowire.Type, b []byte, m wireMessage) (int, error) {
	if typ != protowire.BytesType {
		return 0, nil
	}
	v, n := protowire.ConsumeBytes(b)
	if n < 0 {
		return n, nil
	}
	return n, m.consumeWire(v)
}

func (m *ParseSQLRequest) appendWire(b []byte) []byte {
	b = appendString(b, 1, m.SQL)
	b = appendString(b, 2, m.Dialect)
	return appendBool(b, 3, m.NoCache)
}

func (m *ParseSQLRequest) consumeWire(b []byte) error {
	return consumeFields(b, func(num protowire.Number, typ protowire.Type, v []byte) (int, error) {
		switch num {
		case 1:
			return consumeString(typ, v, &m.SQL), nil
		case 2:
			return consumeString(typ, v, &m.Dialect), nil
		case 3:
			return consumeBool(typ, v, &m.NoCache), nil
		}
		return 0, nil
	})
}

func (m *ParseSQLSuccess) appendWire(b []byte) []byte {
	b = appendString(b, 1, m.ASTJSON)
	b = appendBool(b, 2, m.Cached)
	return appendDouble(b, 3, m.ElapsedMs)
}

func (m *ParseSQLSuccess) consumeWire(b []byte) error {
	return consumeFields(b, func(num protowire.Number, typ protowire.Type, v []byte) (int, error) {
		switch num {
		case 1:
			return consumeString(typ, v, &m.ASTJSON), nil
		case 2:
			return consumeBool(typ, v, &m.Cached), nil
		case 3:
			return consumeDouble(typ, v, &m.ElapsedMs), nil
		}
		return 0, nil
	})
}

// On the wire RequestError is ParseSqlError or FingerprintError.
func (m *RequestError) appendWire(b []byte) []byte {
	b = appendString(b, 1, m.ErrorMessage)
	return appendDouble(b, 2, m.ElapsedMs)
}

func (m *RequestError) consumeWire(b []byte) error {
	return consumeFields(b, func(num protowire.Number, typ protowire.Type, v []byte) (int, error) {
		switch num {
		case 1:
			return consumeString(typ, v, &m.ErrorMessage), nil
		case 2:
			return consumeDouble(typ, v, &m.ElapsedMs), nil
		}
		return 0, nil
	})
}

func (m *ParseSQLResponse) appendWire(b []byte) []byte {
	switch {
	case m.Success != nil:
		b = appendMessage(b, 1, m.Success)
	case m.Error != nil:
		b = appendMessage(b, 2, m.Error)
	}
	return b
}

// The last member of a oneof on the wire wins.
func (m *ParseSQLResponse) consumeWire(b []byte) error {
	return consumeFields(b, func(num protowire.Number, typ protowire.Type, v []byte) (int, error) {
		switch num {
		case 1:
			m.Success, m.Error = new(ParseSQLSuccess), nil
			return consumeMessage(typ, v, m.Success)
		case 2:
			m.Success, m.Error = nil, new(RequestError)
			return consumeMessage(typ, v, m.Error)
		}
		return 0, nil
	})
}

func (m *FingerprintSQLRequest) appendWire(b []byte) []byte {
	b = appendString(b, 1, m.SQL)
	b = appendString(b, 2, m.Dialect)
	if m.MaxInValues != nil {
		// explicit presence: 0 is sent too
		b = protowire.AppendTag(b, 3, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(*m.MaxInValues))
	}
	return b
}

func (m *FingerprintSQLRequest) consumeWire(b []byte) error {
	return consumeFields(b, func(num protowire.Number, typ protowire.Type, v []byte) (int, error) {
		switch num {
		case 1:
			return consumeString(typ, v, &m.SQL), nil
		case 2:
			return consumeString(typ, v, &m.Dialect), nil
		case 3:
			return consumeUint32(typ, v, &m.MaxInValues), nil
		}
		return 0, nil
	})
}

func (m *FingerprintSQLSuccess) appendWire(b []byte) []byte {
	b = appendString(b, 1, m.Fingerprint)
	b = appendDouble(b, 2, m.ElapsedMs)
	return appendString(b, 3, m.Digest)
}

func (m *FingerprintSQLSuccess) consumeWire(b []byte) error {
	return consumeFields(b, func(num protowire.Number, typ protowire.Type, v []byte) (int, error) {
		switch num {
		case 1:
			return consumeString(typ, v, &m.Fingerprint), nil
		case 2:
			return consumeDouble(typ, v, &m.ElapsedMs), nil
		case 3:
			return consumeString(typ, v, &m.Digest), nil
		}
		return 0, nil
	})
}

func (m *FingerprintSQLResponse) appendWire(b []byte) []byte {
	switch {
	case m.Success != nil:
		b = appendMessage(b, 1, m.Success)
	case m.Error != nil:
		b = appendMessage(b, 2, m.Error)
	}
	return b
}

func (m *FingerprintSQLResponse) consumeWire(b []byte) error {
	return consumeFields(b, func(num protowire.Number, typ protowire.Type, v []byte) (int, error) {
		switch num {
		case 1:
			m.Success, m.Error = new(FingerprintSQLSuccess), nil
			return consumeMessage(typ, v, m.Success)
		case 2:
			m.Success, m.Error = nil, new(RequestError)
			return consumeMessage(typ, v, m.Error)
		}
		return 0, nil
	})
}

func (m *HealthCheckRequest) appendWire(b []byte) []byte {
	return b
}

func (m *HealthCheckRequest) consumeWire(b []byte) error {
	return consumeFields(b, func(protowire.Number, protowire.Type, []byte) (int, error) {
		return 0, nil
	})
}

func (m *HealthCheckResponse) appendWire(b []byte) []byte {
	b = appendString(b, 1, m.Status)
	return appendString(b, 2, m.Version)
}

func (m *HealthCheckResponse) consumeWire(b []byte) error {
	return consumeFields(b, func(num protowire.Number, typ protowire.Type, v []byte) (int, error) {
		switch num {
		case 1:
			return consumeString(typ, v, &m.Status), nil
		case 2:
			return consumeString(typ, v, &m.Version), nil
		}
		return 0, nil
	})
}
