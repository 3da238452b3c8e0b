//
// Copyright (c) 2022, NVIDIA CORPORATION. All rights reserved.
//
// See LICENSE.txt for license information
//

package tracefile

import (
	"encoding/binary"
	"fmt"
	"reflect"
)

// maxSliceLen bounds the length of arrays read from a record so that a
// corrupted length does not trigger a huge allocation
const maxSliceLen = 1 << 24

// The payload of a record is the sequence of the fields of the call, in
// declaration order: signed integers are zig-zag varints, unsigned integers
// varints, booleans one byte, strings and slices a varint length followed by
// the elements, pointers a presence byte followed by the value.

func encodeValue(buf []byte, v reflect.Value) ([]byte, error) {
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return binary.AppendVarint(buf, v.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return binary.AppendUvarint(buf, v.Uint()), nil
	case reflect.Bool:
		if v.Bool() {
			return append(buf, 1), nil
		}
		return append(buf, 0), nil
	case reflect.String:
		buf = binary.AppendUvarint(buf, uint64(v.Len()))
		return append(buf, v.String()...), nil
	case reflect.Slice:
		buf = binary.AppendUvarint(buf, uint64(v.Len()))
		var err error
		for i := 0; i < v.Len(); i++ {
			buf, err = encodeValue(buf, v.Index(i))
			if err != nil {
				return buf, err
			}
		}
		return buf, nil
	case reflect.Ptr:
		if v.IsNil() {
			return append(buf, 0), nil
		}
		buf = append(buf, 1)
		return encodeValue(buf, v.Elem())
	case reflect.Struct:
		var err error
		for i := 0; i < v.NumField(); i++ {
			buf, err = encodeValue(buf, v.Field(i))
			if err != nil {
				return buf, err
			}
		}
		return buf, nil
	}
	return buf, fmt.Errorf("unsupported field kind %s", v.Kind())
}

type decoder struct {
	data []byte
	pos  int
}

func (d *decoder) varint() (int64, error) {
	val, n := binary.Varint(d.data[d.pos:])
	if n <= 0 {
		return 0, fmt.Errorf("invalid varint at offset %d", d.pos)
	}
	d.pos += n
	return val, nil
}

func (d *decoder) uvarint() (uint64, error) {
	val, n := binary.Uvarint(d.data[d.pos:])
	if n <= 0 {
		return 0, fmt.Errorf("invalid uvarint at offset %d", d.pos)
	}
	d.pos += n
	return val, nil
}

func (d *decoder) byte() (byte, error) {
	if d.pos >= len(d.data) {
		return 0, fmt.Errorf("unexpected end of record at offset %d", d.pos)
	}
	b := d.data[d.pos]
	d.pos++
	return b, nil
}

func (d *decoder) length() (int, error) {
	l, err := d.uvarint()
	if err != nil {
		return 0, err
	}
	if l > maxSliceLen || l > uint64(len(d.data)) {
		return 0, fmt.Errorf("length %d exceeds record size", l)
	}
	return int(l), nil
}

func (d *decoder) decodeValue(v reflect.Value) error {
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		val, err := d.varint()
		if err != nil {
			return err
		}
		v.SetInt(val)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		val, err := d.uvarint()
		if err != nil {
			return err
		}
		v.SetUint(val)
	case reflect.Bool:
		b, err := d.byte()
		if err != nil {
			return err
		}
		v.SetBool(b != 0)
	case reflect.String:
		l, err := d.length()
		if err != nil {
			return err
		}
		if d.pos+l > len(d.data) {
			return fmt.Errorf("string of %d bytes exceeds record", l)
		}
		v.SetString(string(d.data[d.pos : d.pos+l]))
		d.pos += l
	case reflect.Slice:
		l, err := d.length()
		if err != nil {
			return err
		}
		if l == 0 {
			return nil
		}
		s := reflect.MakeSlice(v.Type(), l, l)
		for i := 0; i < l; i++ {
			err = d.decodeValue(s.Index(i))
			if err != nil {
				return err
			}
		}
		v.Set(s)
	case reflect.Ptr:
		b, err := d.byte()
		if err != nil {
			return err
		}
		if b == 0 {
			return nil
		}
		p := reflect.New(v.Type().Elem())
		err = d.decodeValue(p.Elem())
		if err != nil {
			return err
		}
		v.Set(p)
	case reflect.Struct:
		for i := 0; i < v.NumField(); i++ {
			err := d.decodeValue(v.Field(i))
			if err != nil {
				return err
			}
		}
	default:
		return fmt.Errorf("unsupported field kind %s", v.Kind())
	}
	return nil
}

func encodePayload(env Envelope, call Call) ([]byte, error) {
	buf, err := encodeValue(nil, reflect.ValueOf(env))
	if err != nil {
		return nil, err
	}
	return encodeValue(buf, reflect.ValueOf(call).Elem())
}

func decodePayload(data []byte, env *Envelope, call Call) error {
	d := &decoder{data: data}
	err := d.decodeValue(reflect.ValueOf(env).Elem())
	if err != nil {
		return fmt.Errorf("invalid envelope: %w", err)
	}
	err = d.decodeValue(reflect.ValueOf(call).Elem())
	if err != nil {
		return fmt.Errorf("invalid %s arguments: %w", call.Op(), err)
	}
	if d.pos != len(data) {
		return fmt.Errorf("%d trailing bytes in %s record", len(data)-d.pos, call.Op())
	}
	return nil
}
