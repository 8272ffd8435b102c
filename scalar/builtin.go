package scalar

import (
	"encoding/json"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// Builtins returns one instance of every converter in this package.
func Builtins() []Converter {
	return []Converter{URL{}, DateTime{}, UUID{}, Long{}, JSON{}}
}

// URL converts absolute URL strings to *url.URL.
// nil parses and serializes to nil. Relative references are rejected.
type URL struct{}

// Name returns "sling/url".
func (URL) Name() string { return "sling/url" }

// Description describes the scalar for schema documentation.
func (URL) Description() string { return "An absolute URL, serialized as a string." }

// ParseValue accepts an absolute URL string.
func (c URL) ParseValue(input interface{}) (interface{}, error) {
	switch v := input.(type) {
	case nil:
		return nil, nil
	case string:
		u, err := url.Parse(v)
		if err != nil {
			return nil, ParseError(c.Name(), input, "%v", err)
		}
		if !u.IsAbs() {
			return nil, ParseError(c.Name(), input, "%q is not an absolute URL", v)
		}
		return u, nil
	}
	return nil, ParseError(c.Name(), input, "expected a string")
}

// Serialize accepts *url.URL, url.URL or an absolute URL string.
func (c URL) Serialize(value interface{}) (interface{}, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case *url.URL:
		if v == nil {
			return nil, nil
		}
		return v.String(), nil
	case url.URL:
		return v.String(), nil
	case string:
		if _, err := c.ParseValue(v); err != nil {
			return nil, SerializeError(c.Name(), value, "%q is not an absolute URL", v)
		}
		return v, nil
	}
	return nil, SerializeError(c.Name(), value, "expected a URL")
}

// DateTime converts RFC 3339 strings to time.Time.
// nil parses and serializes to nil. Parsed times are in UTC, so a round trip
// keeps the instant but not the original location or monotonic reading.
type DateTime struct{}

// Name returns "sling/datetime".
func (DateTime) Name() string { return "sling/datetime" }

// Description describes the scalar for schema documentation.
func (DateTime) Description() string {
	return "A point in time, serialized as an RFC 3339 string with optional fractional seconds."
}

// ParseValue accepts an RFC 3339 string and returns a UTC time.Time.
func (c DateTime) ParseValue(input interface{}) (interface{}, error) {
	switch v := input.(type) {
	case nil:
		return nil, nil
	case string:
		t, err := time.Parse(time.RFC3339Nano, v)
		if err != nil {
			return nil, ParseError(c.Name(), input, "%v", err)
		}
		return t.UTC(), nil
	}
	return nil, ParseError(c.Name(), input, "expected a string")
}

// Serialize accepts time.Time or *time.Time.
func (c DateTime) Serialize(value interface{}) (interface{}, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case time.Time:
		return v.UTC().Format(time.RFC3339Nano), nil
	case *time.Time:
		if v == nil {
			return nil, nil
		}
		return v.UTC().Format(time.RFC3339Nano), nil
	}
	return nil, SerializeError(c.Name(), value, "expected a time.Time")
}

// UUID converts canonical UUID strings to uuid.UUID.
// nil parses and serializes to nil. Parsing also accepts the urn:uuid: and
// braced forms; serializing always yields the canonical form.
type UUID struct{}

// Name returns "sling/uuid".
func (UUID) Name() string { return "sling/uuid" }

// Description describes the scalar for schema documentation.
func (UUID) Description() string { return "A UUID, serialized in its canonical string form." }

// ParseValue accepts any string form uuid.Parse understands.
func (c UUID) ParseValue(input interface{}) (interface{}, error) {
	switch v := input.(type) {
	case nil:
		return nil, nil
	case string:
		id, err := uuid.Parse(v)
		if err != nil {
			return nil, ParseError(c.Name(), input, "%v", err)
		}
		return id, nil
	}
	return nil, ParseError(c.Name(), input, "expected a string")
}

// Serialize accepts uuid.UUID or a raw [16]byte.
func (c UUID) Serialize(value interface{}) (interface{}, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case uuid.UUID:
		return v.String(), nil
	case [16]byte:
		return uuid.UUID(v).String(), nil
	}
	return nil, SerializeError(c.Name(), value, "expected a uuid.UUID")
}

// Long converts integral numbers to int64.
// nil parses and serializes to nil. Input may be any Go integer, an integral
// float64, a json.Number or a decimal string; fractions and values outside
// the int64 range are rejected. JSON clients holding values beyond 2^53 in a
// double lose precision before the value reaches ParseValue.
type Long struct{}

// Name returns "sling/long".
func (Long) Name() string { return "sling/long" }

// Description describes the scalar for schema documentation.
func (Long) Description() string { return "A 64-bit signed integer." }

// ParseValue accepts integers, integral float64, json.Number and decimal strings.
func (c Long) ParseValue(input interface{}) (interface{}, error) {
	switch v := input.(type) {
	case nil:
		return nil, nil
	case int:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case int64:
		return v, nil
	case float64:
		n, err := floatToInt64(v)
		if err != nil {
			return nil, ParseError(c.Name(), input, "%v", err)
		}
		return n, nil
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return nil, ParseError(c.Name(), input, "%v", err)
		}
		return n, nil
	case string:
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, ParseError(c.Name(), input, "%v", err)
		}
		return n, nil
	}
	return nil, ParseError(c.Name(), input, "expected a number")
}

// Serialize accepts every Go integer type, integral floats and json.Number.
func (c Long) Serialize(value interface{}) (interface{}, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case int:
		return int64(v), nil
	case int8:
		return int64(v), nil
	case int16:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case int64:
		return v, nil
	case uint8:
		return int64(v), nil
	case uint16:
		return int64(v), nil
	case uint32:
		return int64(v), nil
	case uint:
		if uint64(v) > math.MaxInt64 {
			return nil, SerializeError(c.Name(), value, "%d is out of range", v)
		}
		return int64(v), nil
	case uint64:
		if v > math.MaxInt64 {
			return nil, SerializeError(c.Name(), value, "%d is out of range", v)
		}
		return int64(v), nil
	case float32:
		n, err := floatToInt64(float64(v))
		if err != nil {
			return nil, SerializeError(c.Name(), value, "%v", err)
		}
		return n, nil
	case float64:
		n, err := floatToInt64(v)
		if err != nil {
			return nil, SerializeError(c.Name(), value, "%v", err)
		}
		return n, nil
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return nil, SerializeError(c.Name(), value, "%v", err)
		}
		return n, nil
	}
	return nil, SerializeError(c.Name(), value, "expected an integer")
}

// floatToInt64 converts f when it holds an integer within the int64 range.
func floatToInt64(f float64) (int64, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, fmt.Errorf("%v is not an integer", f)
	}
	if f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, fmt.Errorf("%v is out of range", f)
	}
	return int64(f), nil
}

// JSON passes arbitrary JSON objects through.
// nil parses and serializes to nil. Strings are decoded as JSON documents.
// Serialized values are normalised through encoding/json, so all numbers come
// back as float64 and struct values come back as maps.
type JSON struct{}

// Name returns "sling/json".
func (JSON) Name() string { return "sling/json" }

// Description describes the scalar for schema documentation.
func (JSON) Description() string { return "An arbitrary JSON object." }

// ParseValue accepts an object or a string holding a JSON object.
func (c JSON) ParseValue(input interface{}) (interface{}, error) {
	switch v := input.(type) {
	case nil:
		return nil, nil
	case map[string]interface{}:
		return v, nil
	case string:
		var out map[string]interface{}
		if err := json.Unmarshal([]byte(v), &out); err != nil {
			return nil, ParseError(c.Name(), input, "%v", err)
		}
		if out == nil {
			return nil, nil
		}
		return out, nil
	}
	return nil, ParseError(c.Name(), input, "expected an object")
}

// Serialize accepts anything encoding/json encodes to an object.
func (c JSON) Serialize(value interface{}) (interface{}, error) {
	if value == nil {
		return nil, nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return nil, SerializeError(c.Name(), value, "%v", err)
	}
	var out interface{}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, SerializeError(c.Name(), value, "%v", err)
	}
	if _, ok := out.(map[string]interface{}); !ok {
		return nil, SerializeError(c.Name(), value, "expected an object")
	}
	return out, nil
}
