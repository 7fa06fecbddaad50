package promptkit

import (
	"bytes"

	base2048 "github.com/Milly/go-base2048"
	"github.com/keith-turner/ecoji/v2"
)

// DebugArtifactEncoding selects the codec used to attach a candidate's
// full raw reasoning transcript to a judge prompt for replay/audit.
// Callers pass it to EncodeDebugArtifact; no command-line flag sets it.
type DebugArtifactEncoding string

const (
	EncodingBase2048 DebugArtifactEncoding = "base2048"
	EncodingEcoji    DebugArtifactEncoding = "ecoji"
)

// DebugArtifact wraps a model's raw reasoning transcript, dense-encoded
// so it survives concatenation into a larger judge prompt untouched by
// control characters or partial-Unicode noise the raw text might carry.
type DebugArtifact struct {
	ModelID  string
	Encoding DebugArtifactEncoding
	Encoded  string
}

// EncodeDebugArtifact encodes raw transcript text for modelID under the
// requested codec. Ecoji gives a human-legible, word-like token stream;
// base2048 gives a denser encoding at the cost of readability.
func EncodeDebugArtifact(modelID, raw string, encoding DebugArtifactEncoding) DebugArtifact {
	var encoded string
	switch encoding {
	case EncodingEcoji:
		encoded = ecojiEncode([]byte(raw))
	default:
		encoded = base2048.DefaultEncoding.EncodeToString([]byte(raw))
	}
	return DebugArtifact{ModelID: modelID, Encoding: encoding, Encoded: encoded}
}

func ecojiEncode(data []byte) string {
	var out bytes.Buffer
	r := bytes.NewReader(data)
	_ = ecoji.EncodeV2(r, &out, 0)
	return out.String()
}
