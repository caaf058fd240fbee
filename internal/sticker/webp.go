package sticker

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
)

const (
	vp8xFlagAnimation = 0x02
	vp8xFlagXMP       = 0x04
	vp8xFlagEXIF      = 0x08
	vp8xFlagAlpha     = 0x10
)

// exifHeader is a little-endian TIFF header with one IFD entry (tag 0x5741,
// type UNDEFINED) whose value starts at offset 22, right after the header.
var exifHeader = []byte{
	0x49, 0x49, 0x2A, 0x00, 0x08, 0x00, 0x00, 0x00,
	0x01, 0x00, 0x41, 0x57, 0x07, 0x00,
	0x00, 0x00, 0x00, 0x00, // payload length, filled in
	0x16, 0x00, 0x00, 0x00,
}

type packInfo struct {
	PackID    string   `json:"sticker-pack-id"`
	Name      string   `json:"sticker-pack-name"`
	Publisher string   `json:"sticker-pack-publisher"`
	Emojis    []string `json:"emojis"`
}

type chunk struct {
	fourCC string
	data   []byte
}

var errNotWebP = errors.New("not a RIFF WEBP file")

// Embed returns a copy of data with meta stored in its EXIF chunk. Any
// existing EXIF chunk is replaced.
func Embed(data []byte, meta Metadata, packID string) ([]byte, error) {
	chunks, err := parseChunks(data)
	if err != nil {
		return nil, err
	}
	if len(chunks) == 0 {
		return nil, errors.New("webp has no chunks")
	}

	if chunks[0].fourCC != "VP8X" {
		header, err := extendedHeader(chunks[0])
		if err != nil {
			return nil, err
		}
		chunks = append([]chunk{header}, chunks...)
	}

	exif, err := exifPayload(meta, packID)
	if err != nil {
		return nil, err
	}

	out := make([]chunk, 0, len(chunks)+1)
	var xmp *chunk
	for i := range chunks {
		switch chunks[i].fourCC {
		case "EXIF":
			continue
		case "XMP ":
			xmp = &chunks[i]
			continue
		}
		out = append(out, chunks[i])
	}
	out = append(out, chunk{fourCC: "EXIF", data: exif})
	if xmp != nil {
		out = append(out, *xmp)
	}

	header := append([]byte(nil), out[0].data...)
	header[0] |= vp8xFlagEXIF
	if xmp != nil {
		header[0] |= vp8xFlagXMP
	}
	out[0].data = header

	return writeChunks(out), nil
}

// ReadMetadata extracts sticker metadata from a WebP EXIF chunk.
func ReadMetadata(data []byte) (Metadata, bool, error) {
	chunks, err := parseChunks(data)
	if err != nil {
		return Metadata{}, false, err
	}
	for _, c := range chunks {
		if c.fourCC != "EXIF" {
			continue
		}
		if len(c.data) < len(exifHeader) {
			return Metadata{}, false, errors.New("exif chunk too short")
		}
		size := binary.LittleEndian.Uint32(c.data[14:18])
		payload := c.data[len(exifHeader):]
		if int(size) <= len(payload) {
			payload = payload[:size]
		}
		var info packInfo
		if err := json.Unmarshal(payload, &info); err != nil {
			return Metadata{}, false, fmt.Errorf("decode sticker exif: %w", err)
		}
		return Metadata{Name: info.Name, Author: info.Publisher}, true, nil
	}
	return Metadata{}, false, nil
}

// IsAnimated reports whether the WebP carries the VP8X animation flag.
func IsAnimated(data []byte) bool {
	chunks, err := parseChunks(data)
	if err != nil || len(chunks) == 0 || chunks[0].fourCC != "VP8X" || len(chunks[0].data) == 0 {
		return false
	}
	return chunks[0].data[0]&vp8xFlagAnimation != 0
}

func exifPayload(meta Metadata, packID string) ([]byte, error) {
	body, err := json.Marshal(packInfo{
		PackID:    packID,
		Name:      meta.Name,
		Publisher: meta.Author,
		Emojis:    []string{""},
	})
	if err != nil {
		return nil, fmt.Errorf("encode sticker exif: %w", err)
	}
	buf := make([]byte, 0, len(exifHeader)+len(body))
	buf = append(buf, exifHeader...)
	binary.LittleEndian.PutUint32(buf[14:18], uint32(len(body)))
	return append(buf, body...), nil
}

// extendedHeader builds a VP8X chunk for a simple-format image chunk.
func extendedHeader(image chunk) (chunk, error) {
	var width, height int
	var flags byte
	switch image.fourCC {
	case "VP8 ":
		// frame tag (3) + start code 9d 01 2a + 14-bit width + 14-bit height
		if len(image.data) < 10 || !bytes.Equal(image.data[3:6], []byte{0x9d, 0x01, 0x2a}) {
			return chunk{}, errors.New("malformed VP8 frame header")
		}
		width = int(binary.LittleEndian.Uint16(image.data[6:8]) & 0x3fff)
		height = int(binary.LittleEndian.Uint16(image.data[8:10]) & 0x3fff)
	case "VP8L":
		// signature 0x2f + 14-bit width-1 + 14-bit height-1 + alpha bit
		if len(image.data) < 5 || image.data[0] != 0x2f {
			return chunk{}, errors.New("malformed VP8L header")
		}
		bits := binary.LittleEndian.Uint32(image.data[1:5])
		width = int(bits&0x3fff) + 1
		height = int((bits>>14)&0x3fff) + 1
		if bits>>28&1 == 1 {
			flags |= vp8xFlagAlpha
		}
	default:
		return chunk{}, fmt.Errorf("unexpected first chunk %q", image.fourCC)
	}
	if width <= 0 || height <= 0 {
		return chunk{}, errors.New("invalid webp dimensions")
	}
	data := make([]byte, 10)
	data[0] = flags
	putUint24(data[4:7], uint32(width-1))
	putUint24(data[7:10], uint32(height-1))
	return chunk{fourCC: "VP8X", data: data}, nil
}

func parseChunks(data []byte) ([]chunk, error) {
	if len(data) < 12 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WEBP" {
		return nil, errNotWebP
	}
	riffEnd := 8 + int(binary.LittleEndian.Uint32(data[4:8]))
	if riffEnd > len(data) {
		riffEnd = len(data)
	}
	var chunks []chunk
	for offset := 12; offset+8 <= riffEnd; {
		fourCC := string(data[offset : offset+4])
		size := int(binary.LittleEndian.Uint32(data[offset+4 : offset+8]))
		start := offset + 8
		end := start + size
		if size < 0 || end > riffEnd {
			return nil, fmt.Errorf("chunk %q overruns file", fourCC)
		}
		chunks = append(chunks, chunk{fourCC: fourCC, data: data[start:end]})
		offset = end + size%2
	}
	return chunks, nil
}

func writeChunks(chunks []chunk) []byte {
	var body bytes.Buffer
	body.WriteString("WEBP")
	for _, c := range chunks {
		body.WriteString(c.fourCC)
		var size [4]byte
		binary.LittleEndian.PutUint32(size[:], uint32(len(c.data)))
		body.Write(size[:])
		body.Write(c.data)
		if len(c.data)%2 == 1 {
			body.WriteByte(0)
		}
	}
	out := make([]byte, 0, body.Len()+8)
	out = append(out, "RIFF"...)
	out = binary.LittleEndian.AppendUint32(out, uint32(body.Len()))
	return append(out, body.Bytes()...)
}

func putUint24(dst []byte, v uint32) {
	dst[0] = byte(v)
	dst[1] = byte(v >> 8)
	dst[2] = byte(v >> 16)
}
