package config

import (
	"bytes"
	"encoding/json"
)

// MarshalJSON emits the configuration as a deterministic JSON object:
// every present key mapped to its serialized string form, vector options
// to ordered arrays of strings. String-typed scalars emit the raw string;
// every other scalar emits its canonical serialized form. Keys appear in
// the engine's iteration order (sorted).
func (c *Config) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range c.Keys() {
		if i > 0 {
			buf.WriteByte(',')
		}
		writeJSONString(&buf, key)
		buf.WriteByte(':')
		v := c.values[key]
		if v.Type.Vector() {
			buf.WriteByte('[')
			for j, elem := range v.List {
				if j > 0 {
					buf.WriteByte(',')
				}
				writeJSONString(&buf, elem)
			}
			buf.WriteByte(']')
		} else {
			writeJSONString(&buf, v.Scalar)
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func writeJSONString(buf *bytes.Buffer, s string) {
	b, _ := json.Marshal(s)
	buf.Write(b)
}
