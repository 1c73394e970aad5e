// Copyright © 2025 Prabhjot Singh Sethi, All Rights reserved
// Author: Prabhjot Singh Sethi <prabhjot.sethi@gmail.com>

package relay

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/valyala/fastjson"
)

const (
	fieldAPIURL = "apiUrl"
	fieldAPIKey = "apiKey"
)

var (
	// errMissingParams marks the only failure reported to the caller as 400.
	errMissingParams = errors.New("apiUrl and apiKey are required")
	errNullBody      = errors.New("inbound body is null")
)

// target is the outbound call described by one inbound body.
type target struct {
	url     string
	apiKey  string
	payload []byte
}

// parseInbound validates body and splits it into the target URL, the
// credential and the remaining payload. Duplicate keys collapse to their last
// value at the position of their first occurrence; number literals are kept as
// received.
func parseInbound(p *fastjson.Parser, body []byte) (target, error) {
	if err := fastjson.ValidateBytes(body); err != nil {
		return target{}, fmt.Errorf("parse inbound body: %w", err)
	}
	parsed, err := p.ParseBytes(body)
	if err != nil {
		return target{}, fmt.Errorf("parse inbound body: %w", err)
	}

	switch parsed.Type() {
	case fastjson.TypeNull:
		return target{}, errNullBody
	case fastjson.TypeObject:
	default:
		// Arrays and scalars carry no fields at all.
		return target{}, errMissingParams
	}

	var a fastjson.Arena
	v := dedupeKeys(&a, parsed)
	obj, err := v.Object()
	if err != nil {
		return target{}, fmt.Errorf("read inbound object: %w", err)
	}

	urlVal := obj.Get(fieldAPIURL)
	keyVal := obj.Get(fieldAPIKey)
	if !truthy(urlVal) || !truthy(keyVal) {
		return target{}, errMissingParams
	}

	t := target{
		url:    jsString(urlVal),
		apiKey: jsString(keyVal),
	}

	obj.Del(fieldAPIURL)
	obj.Del(fieldAPIKey)
	t.payload = v.MarshalTo(nil)

	return t, nil
}

// compactJSON validates an upstream body and re-encodes it without
// insignificant whitespace or duplicate keys.
func compactJSON(p *fastjson.Parser, body []byte) ([]byte, error) {
	if err := fastjson.ValidateBytes(body); err != nil {
		return nil, fmt.Errorf("parse upstream body: %w", err)
	}
	v, err := p.ParseBytes(body)
	if err != nil {
		return nil, fmt.Errorf("parse upstream body: %w", err)
	}
	var a fastjson.Arena
	return dedupeKeys(&a, v).MarshalTo(nil), nil
}

// errorBody renders {"error": msg}.
func errorBody(msg string) []byte {
	var a fastjson.Arena
	obj := a.NewObject()
	obj.Set("error", a.NewString(msg))
	return obj.MarshalTo(nil)
}

// dedupeKeys rebuilds objects the way JSON.parse sees them: each key keeps
// the slot of its first occurrence and the value of its last. Scalars are
// returned untouched.
func dedupeKeys(a *fastjson.Arena, v *fastjson.Value) *fastjson.Value {
	switch v.Type() {
	case fastjson.TypeObject:
		out := a.NewObject()
		v.GetObject().Visit(func(k []byte, child *fastjson.Value) {
			// Set replaces the first entry with the same key.
			out.Set(string(k), dedupeKeys(a, child))
		})
		return out
	case fastjson.TypeArray:
		out := a.NewArray()
		for i, item := range v.GetArray() {
			out.SetArrayItem(i, dedupeKeys(a, item))
		}
		return out
	default:
		return v
	}
}

// truthy applies JavaScript truthiness to a JSON value; nil means absent.
func truthy(v *fastjson.Value) bool {
	if v == nil {
		return false
	}
	switch v.Type() {
	case fastjson.TypeNull, fastjson.TypeFalse:
		return false
	case fastjson.TypeString:
		s, err := v.StringBytes()
		return err == nil && len(s) > 0
	case fastjson.TypeNumber:
		f, err := v.Float64()
		return err == nil && f != 0 && !math.IsNaN(f)
	default:
		return true
	}
}

// jsString converts a JSON value to text the way JavaScript's String() does,
// which is what a template literal applies to apiUrl and apiKey.
func jsString(v *fastjson.Value) string {
	switch v.Type() {
	case fastjson.TypeString:
		return string(v.GetStringBytes())
	case fastjson.TypeNumber:
		return jsNumber(v.GetFloat64())
	case fastjson.TypeTrue:
		return "true"
	case fastjson.TypeFalse:
		return "false"
	case fastjson.TypeNull:
		return "null"
	case fastjson.TypeArray:
		items := v.GetArray()
		parts := make([]string, len(items))
		for i, item := range items {
			// Array.prototype.join renders null as the empty string.
			if item.Type() != fastjson.TypeNull {
				parts[i] = jsString(item)
			}
		}
		return strings.Join(parts, ",")
	default:
		return "[object Object]"
	}
}

// jsNumber formats f like Number.prototype.toString: plain decimal for
// magnitudes in [1e-6, 1e21), shortest exponent form otherwise.
func jsNumber(f float64) string {
	switch {
	case f == 0:
		return "0"
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	}

	abs := math.Abs(f)
	if abs >= 1e-6 && abs < 1e21 {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}

	s := strconv.FormatFloat(f, 'e', -1, 64)
	mantissa, exp, _ := strings.Cut(s, "e")
	n, err := strconv.Atoi(exp)
	if err != nil {
		return s
	}
	if n < 0 {
		return mantissa + "e" + strconv.Itoa(n)
	}
	return mantissa + "e+" + strconv.Itoa(n)
}
