package models

import (
	"bytes"
	"encoding/json"
	"strconv"

	"github.com/pkg/errors"
)

const bufferType = "Buffer"

// Media is a binary blob stored inline with its MIME type.
type Media struct {
	Data        []byte `bson:"data" json:"data"`
	ContentType string `bson:"contentType" json:"contentType"`
}

// nodeBuffer is the JSON form of a Node.js Buffer, which is what the web
// client decodes image bytes from.
type nodeBuffer struct {
	Type string `json:"type"`
	Data []int  `json:"data"`
}

// MarshalJSON writes the bytes as {"type":"Buffer","data":[...]}. Without
// bytes the data key is left out so the client renders no image.
func (m Media) MarshalJSON() ([]byte, error) {
	contentType, err := json.Marshal(m.ContentType)
	if err != nil {
		return nil, err
	}

	var b bytes.Buffer
	b.Grow(len(m.Data)*4 + len(contentType) + 64)
	b.WriteByte('{')
	if len(m.Data) > 0 {
		b.WriteString(`"data":{"type":"` + bufferType + `","data":[`)
		num := make([]byte, 0, 3)
		for i, v := range m.Data {
			if i > 0 {
				b.WriteByte(',')
			}
			b.Write(strconv.AppendUint(num[:0], uint64(v), 10))
		}
		b.WriteString(`]},`)
	}
	b.WriteString(`"contentType":`)
	b.Write(contentType)
	b.WriteByte('}')
	return b.Bytes(), nil
}

// UnmarshalJSON accepts the Buffer form written by MarshalJSON.
func (m *Media) UnmarshalJSON(data []byte) error {
	var raw struct {
		Data        *nodeBuffer `json:"data"`
		ContentType string      `json:"contentType"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return errors.Wrap(err, "decode media")
	}

	m.ContentType = raw.ContentType
	m.Data = nil
	if raw.Data == nil {
		return nil
	}
	if raw.Data.Type != bufferType {
		return errors.Errorf("decode media: unexpected buffer type %q", raw.Data.Type)
	}
	m.Data = make([]byte, len(raw.Data.Data))
	for i, v := range raw.Data.Data {
		if v < 0 || v > 255 {
			return errors.Errorf("decode media: byte %d out of range", v)
		}
		m.Data[i] = byte(v)
	}
	return nil
}
