package png

import (
	"bytes"
	"encoding/binary"
	"errors"
	"runtime"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func minimalImage(t *testing.T, extra ...Chunk) []byte {
	t.Helper()
	chunks := []Chunk{{Name: ChunkIHDR, Data: make([]byte, 13)}}
	chunks = append(chunks, extra...)
	chunks = append(chunks, Chunk{Name: ChunkIEND, Data: []byte{}})

	var buf bytes.Buffer
	if err := Encode(&buf, chunks); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	return buf.Bytes()
}

func TestDecodeRoundTrip(t *testing.T) {
	text := TextChunk("workflow", `{"nodes":[]}`)
	data := minimalImage(t, text)

	chunks, err := DecodeBytes(data)
	if err != nil {
		t.Fatalf("DecodeBytes: %v", err)
	}

	var names []string
	for _, c := range chunks {
		names = append(names, c.Name)
	}
	if diff := cmp.Diff([]string{"IHDR", "tEXt", "IEND"}, names); diff != "" {
		t.Errorf("chunk names mismatch (-want +got):\n%s", diff)
	}
	if got := string(chunks[1].Data); got != "workflow\x00{\"nodes\":[]}" {
		t.Errorf("tEXt data = %q", got)
	}
}

func TestDecodeStopsAtIEND(t *testing.T) {
	data := minimalImage(t)
	data = append(data, []byte("trailing garbage")...)

	chunks, err := DecodeBytes(data)
	if err != nil {
		t.Fatalf("DecodeBytes: %v", err)
	}
	if len(chunks) != 2 {
		t.Errorf("got %d chunks, want 2", len(chunks))
	}
}

func TestDecodeErrors(t *testing.T) {
	valid := minimalImage(t, TextChunk("a", "b"))

	corrupt := bytes.Clone(valid)
	// Flip a byte inside the tEXt payload (after signature + IHDR chunk + tEXt header).
	corrupt[len(Signature)+25+8] ^= 0xff

	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"empty", nil, ErrInvalidSignature},
		{"not png", []byte("GIF89a....."), ErrInvalidSignature},
		{"signature only", Signature, ErrTruncated},
		{"truncated", valid[:len(valid)-6], ErrTruncated},
		{"crc mismatch", corrupt, ErrCRCMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeBytes(tt.data)
			if !errors.Is(err, tt.want) {
				t.Errorf("DecodeBytes() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestEncodeRejectsBadName(t *testing.T) {
	var buf bytes.Buffer
	if err := Encode(&buf, []Chunk{{Name: "toolong"}}); err == nil {
		t.Error("Encode should reject chunk names that are not 4 bytes")
	}
}

func TestDecodeForgedLengthDoesNotAllocate(t *testing.T) {
	data := bytes.Clone(Signature)
	data = binary.BigEndian.AppendUint32(data, maxChunkLength)
	data = append(data, ChunkText...)

	var before, after runtime.MemStats
	runtime.ReadMemStats(&before)
	_, err := DecodeBytes(data)
	runtime.ReadMemStats(&after)

	if !errors.Is(err, ErrTruncated) {
		t.Fatalf("DecodeBytes() error = %v, want %v", err, ErrTruncated)
	}
	if grown := after.TotalAlloc - before.TotalAlloc; grown > 1<<20 {
		t.Errorf("decoding a %d-byte input allocated %d bytes", len(data), grown)
	}
}
