// Package png splits a PNG file into its raw chunks.
//
// The standard library's image/png decoder discards ancillary chunks such as
// tEXt and iTXt, which is where generation tools store workflow metadata. This
// package reads the chunk stream directly and leaves interpretation of the
// payloads to callers.
//
// # Usage
//
//	chunks, err := png.Decode(f)
//	if err != nil {
//	    return err
//	}
//	for _, c := range chunks {
//	    fmt.Println(c.Name, len(c.Data))
//	}
package png

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
)

// Signature is the 8-byte header every PNG file starts with.
var Signature = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

// Chunk names recognized by callers in this module.
const (
	ChunkText  = "tEXt"
	ChunkIText = "iTXt"
	ChunkIHDR  = "IHDR"
	ChunkIEND  = "IEND"
)

// maxChunkLength is the largest length the PNG specification allows (2^31-1).
const maxChunkLength = 1<<31 - 1

var (
	// ErrInvalidSignature is returned when the input does not start with [Signature].
	ErrInvalidSignature = errors.New("invalid PNG signature")

	// ErrCRCMismatch is returned when a chunk's stored CRC does not match its contents.
	ErrCRCMismatch = errors.New("chunk CRC mismatch")

	// ErrTruncated is returned when the stream ends inside a chunk or before IEND.
	ErrTruncated = errors.New("truncated PNG stream")

	// ErrChunkTooLarge is returned when a chunk declares a length above 2^31-1.
	ErrChunkTooLarge = errors.New("chunk length exceeds limit")
)

// Chunk is a single named block of a PNG stream. Data excludes the length,
// type and CRC fields.
type Chunk struct {
	Name string
	Data []byte
}

// Decode reads every chunk from r up to and including IEND.
//
// CRCs are verified. A stream that ends before IEND returns [ErrTruncated].
func Decode(r io.Reader) ([]Chunk, error) {
	sig := make([]byte, len(Signature))
	if _, err := io.ReadFull(r, sig); err != nil {
		return nil, ErrInvalidSignature
	}
	if !bytes.Equal(sig, Signature) {
		return nil, ErrInvalidSignature
	}

	var chunks []Chunk
	var header [8]byte
	for {
		if _, err := io.ReadFull(r, header[:]); err != nil {
			return nil, fmt.Errorf("chunk header: %w", ErrTruncated)
		}
		length := binary.BigEndian.Uint32(header[:4])
		name := string(header[4:8])
		if length > maxChunkLength {
			return nil, fmt.Errorf("chunk %s: %w", name, ErrChunkTooLarge)
		}

		// The declared length is untrusted, so the buffer grows only with
		// bytes actually read.
		var payload bytes.Buffer
		if _, err := io.CopyN(&payload, r, int64(length)); err != nil {
			return nil, fmt.Errorf("chunk %s: %w", name, ErrTruncated)
		}
		data := payload.Bytes()

		var crcBuf [4]byte
		if _, err := io.ReadFull(r, crcBuf[:]); err != nil {
			return nil, fmt.Errorf("chunk %s: %w", name, ErrTruncated)
		}
		if binary.BigEndian.Uint32(crcBuf[:]) != checksum(header[4:8], data) {
			return nil, fmt.Errorf("chunk %s: %w", name, ErrCRCMismatch)
		}

		chunks = append(chunks, Chunk{Name: name, Data: data})
		if name == ChunkIEND {
			return chunks, nil
		}
	}
}

// DecodeBytes is a convenience wrapper around [Decode] for in-memory images.
func DecodeBytes(data []byte) ([]Chunk, error) {
	return Decode(bytes.NewReader(data))
}

// Encode writes the signature followed by chunks, computing each CRC.
// It does not validate chunk ordering or names.
func Encode(w io.Writer, chunks []Chunk) error {
	if _, err := w.Write(Signature); err != nil {
		return err
	}
	for _, c := range chunks {
		if len(c.Name) != 4 {
			return fmt.Errorf("chunk name %q: must be 4 bytes", c.Name)
		}
		var header [8]byte
		binary.BigEndian.PutUint32(header[:4], uint32(len(c.Data)))
		copy(header[4:], c.Name)
		if _, err := w.Write(header[:]); err != nil {
			return err
		}
		if _, err := w.Write(c.Data); err != nil {
			return err
		}
		var crcBuf [4]byte
		binary.BigEndian.PutUint32(crcBuf[:], checksum(header[4:8], c.Data))
		if _, err := w.Write(crcBuf[:]); err != nil {
			return err
		}
	}
	return nil
}

// TextChunk builds a tEXt chunk holding keyword, a NUL separator and text.
func TextChunk(keyword, text string) Chunk {
	data := make([]byte, 0, len(keyword)+1+len(text))
	data = append(data, keyword...)
	data = append(data, 0)
	data = append(data, text...)
	return Chunk{Name: ChunkText, Data: data}
}

func checksum(name, data []byte) uint32 {
	h := crc32.NewIEEE()
	h.Write(name)
	h.Write(data)
	return h.Sum32()
}
