package storage

import (
	"bytes"
	"encoding/gob"

	"github.com/uhyunpark/ome/pkg/audit"
)

func encodeRecord(r audit.Record) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(r); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeRecord(b []byte) (audit.Record, error) {
	var r audit.Record
	err := gob.NewDecoder(bytes.NewReader(b)).Decode(&r)
	return r, err
}
