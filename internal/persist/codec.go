package persist

import (
	"bytes"
	"easyprofile/internal/types"
	"encoding/base64"

	"github.com/goccy/go-json"
	"github.com/klauspost/compress/zstd"
)

var enc, _ = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedFastest))
var dec, _ = zstd.NewReader(nil)

// Export encodes the snapshot as JSON, compresses and base64-url encodes it.
func Export(snap types.Snapshot) (string, error) {
	s, err := json.Marshal(snap)
	if err != nil {
		return "", err
	}
	b := enc.EncodeAll(s, make([]byte, 0, len(s)))
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// Import reverses Export. Numbers are kept as json.Number so large integers survive.
func Import(in string) (types.Snapshot, error) {
	b, err := base64.RawURLEncoding.DecodeString(in)
	if err != nil {
		return types.Snapshot{}, types.Err(types.ErrDecode, err, "base64")
	}
	out, err := dec.DecodeAll(b, nil)
	if err != nil {
		return types.Snapshot{}, types.Err(types.ErrDecode, err, "zstd")
	}
	d := json.NewDecoder(bytes.NewReader(out))
	d.UseNumber()
	var snap types.Snapshot
	if err := d.Decode(&snap); err != nil {
		return types.Snapshot{}, types.Err(types.ErrDecode, err, "json")
	}
	return snap, nil
}
