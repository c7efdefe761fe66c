package wire

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/andybalholm/brotli"
)

// Profile names a fixed (serialize, compress) pairing. Both peers must use
// the matching profile; the parameters are part of the wire contract.
type Profile uint8

const (
	// ClientToServer carries no compression: client CPU is precious and the
	// payloads are small.
	ClientToServer Profile = iota
	// ServerToClient compresses at quality 8 with a 16-bit window, the
	// highest setting that does not regress latency on the server.
	ServerToClient
	// DataResource compresses bulk database snapshots at maximum ratio;
	// the output is computed once and cached, so CPU cost is amortized.
	DataResource
	// Feed is the raw uncompressed stream handed to downstream consumers.
	Feed
)

type profileParams struct {
	name     string
	compress bool
	quality  int
	window   int
}

var profileTable = [...]profileParams{
	ClientToServer: {name: "clientToServer"},
	ServerToClient: {name: "serverToClient", compress: true, quality: 8, window: 16},
	DataResource:   {name: "dataResource", compress: true, quality: 11, window: 24},
	Feed:           {name: "feed"},
}

func (p Profile) String() string {
	if int(p) < len(profileTable) {
		return profileTable[p].name
	}
	return "invalid"
}

// ErrTruncated marks a payload that ended before the compressed stream did;
// more input was needed but none is available.
var ErrTruncated = errors.New("wire: truncated payload")

// ErrCorrupt marks a payload that is not a valid stream at all. No partial
// output is ever returned.
var ErrCorrupt = errors.New("wire: corrupt payload")

// Compress applies the profile's compression step. Compressed output opens
// with a uvarint of the original length, so Decompress can prove the stream
// arrived whole; the brotli stream itself cannot, since a cut between blocks
// just ends cleanly. Profiles without compression return the input unchanged.
func (p Profile) Compress(data []byte) ([]byte, error) {
	params := profileTable[p]
	if !params.compress {
		return data, nil
	}
	var buf bytes.Buffer
	buf.Write(binary.AppendUvarint(nil, uint64(len(data))))
	w := brotli.NewWriterOptions(&buf, brotli.WriterOptions{
		Quality: params.quality,
		LGWin:   params.window,
	})
	if _, err := w.Write(data); err != nil {
		return nil, fmt.Errorf("wire: compress %s: %w", p, err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("wire: compress %s: %w", p, err)
	}
	return buf.Bytes(), nil
}

// Decompress inverts the matching profile's Compress. Truncated input is
// reported distinctly from invalid input; neither yields partial output.
func (p Profile) Decompress(data []byte) ([]byte, error) {
	params := profileTable[p]
	if !params.compress {
		return data, nil
	}
	declared, n := binary.Uvarint(data)
	if n == 0 {
		return nil, fmt.Errorf("%w: %s: length header cut short", ErrTruncated, p)
	}
	if n < 0 {
		return nil, fmt.Errorf("%w: %s: malformed length header", ErrCorrupt, p)
	}
	out, err := io.ReadAll(brotli.NewReader(bytes.NewReader(data[n:])))
	if err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("%w: %s", ErrTruncated, p)
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrCorrupt, p, err)
	}
	if uint64(len(out)) < declared {
		return nil, fmt.Errorf("%w: %s: %d of %d bytes", ErrTruncated, p, len(out), declared)
	}
	if uint64(len(out)) > declared {
		return nil, fmt.Errorf("%w: %s: stream exceeds declared length", ErrCorrupt, p)
	}
	return out, nil
}
