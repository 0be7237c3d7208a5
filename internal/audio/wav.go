package audio

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// Format describes raw PCM audio: the three parameters a recognizer needs
// to reinterpret headerless frame data.
type Format struct {
	SampleRate    int
	BitsPerSample int
	Channels      int
}

// BytesPerSecond returns the PCM byte rate for this format.
func (f Format) BytesPerSecond() int {
	return f.SampleRate * f.Channels * f.BitsPerSample / 8
}

// wavHeader is the canonical 44-byte RIFF/WAVE header written by Encode.
type wavHeader struct {
	ChunkID       [4]byte // "RIFF"
	ChunkSize     uint32  // file size - 8 bytes
	Format        [4]byte // "WAVE"
	Subchunk1ID   [4]byte // "fmt "
	Subchunk1Size uint32  // 16 for PCM
	AudioFormat   uint16  // 1 for PCM
	NumChannels   uint16
	SampleRate    uint32
	ByteRate      uint32 // SampleRate * NumChannels * BitsPerSample / 8
	BlockAlign    uint16 // NumChannels * BitsPerSample / 8
	BitsPerSample uint16
	Subchunk2ID   [4]byte // "data"
	Subchunk2Size uint32  // number of bytes in the data chunk
}

// Decode parses a WAV container and returns its format descriptor together
// with the raw PCM frames (header stripped). It walks the RIFF subchunks, so
// containers with extra chunks between "fmt " and "data" (browser recorders
// like to insert LIST chunks) are handled.
func Decode(data []byte) (Format, []byte, error) {
	if len(data) < 12 {
		return Format{}, nil, fmt.Errorf("WAV data too short: need at least 12 bytes, got %d", len(data))
	}

	if string(data[0:4]) != "RIFF" {
		return Format{}, nil, fmt.Errorf("invalid WAV file: missing RIFF header")
	}
	if string(data[8:12]) != "WAVE" {
		return Format{}, nil, fmt.Errorf("invalid WAV file: missing WAVE format")
	}

	var (
		format   Format
		haveFmt  bool
		frames   []byte
		haveData bool
	)

	// Walk subchunks: each is an 8-byte header (ID + size) followed by size
	// bytes of payload, padded to an even boundary.
	offset := 12
	for offset+8 <= len(data) {
		chunkID := string(data[offset : offset+4])
		chunkSize := int(binary.LittleEndian.Uint32(data[offset+4 : offset+8]))
		body := offset + 8

		if chunkSize < 0 || body+chunkSize > len(data) {
			return Format{}, nil, fmt.Errorf("invalid WAV file: chunk %q overruns file", chunkID)
		}

		switch chunkID {
		case "fmt ":
			if chunkSize < 16 {
				return Format{}, nil, fmt.Errorf("invalid WAV file: fmt chunk too short (%d bytes)", chunkSize)
			}
			audioFormat := binary.LittleEndian.Uint16(data[body : body+2])
			if audioFormat != 1 {
				return Format{}, nil, fmt.Errorf("unsupported audio format: %d (only PCM is supported)", audioFormat)
			}
			format = Format{
				Channels:      int(binary.LittleEndian.Uint16(data[body+2 : body+4])),
				SampleRate:    int(binary.LittleEndian.Uint32(data[body+4 : body+8])),
				BitsPerSample: int(binary.LittleEndian.Uint16(data[body+14 : body+16])),
			}
			if format.SampleRate <= 0 || format.Channels <= 0 || format.BitsPerSample <= 0 {
				return Format{}, nil, fmt.Errorf("invalid WAV file: zero-valued fmt fields")
			}
			haveFmt = true
		case "data":
			frames = data[body : body+chunkSize]
			haveData = true
		}

		if haveFmt && haveData {
			break
		}
		offset = body + chunkSize
		if chunkSize%2 == 1 {
			offset++ // chunks are word-aligned
		}
	}

	if !haveFmt {
		return Format{}, nil, fmt.Errorf("invalid WAV file: missing fmt chunk")
	}
	if !haveData {
		return Format{}, nil, fmt.Errorf("invalid WAV file: missing data chunk")
	}

	return format, frames, nil
}

// Encode wraps raw PCM frames into a WAV container with a canonical 44-byte
// header describing the given format.
func Encode(frames []byte, format Format) ([]byte, error) {
	if format.SampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive, got %d", format.SampleRate)
	}
	if format.Channels <= 0 {
		return nil, fmt.Errorf("channel count must be positive, got %d", format.Channels)
	}
	if format.BitsPerSample <= 0 || format.BitsPerSample%8 != 0 {
		return nil, fmt.Errorf("bits per sample must be a positive multiple of 8, got %d", format.BitsPerSample)
	}

	dataSize := uint32(len(frames))
	header := wavHeader{
		ChunkID:       [4]byte{'R', 'I', 'F', 'F'},
		ChunkSize:     36 + dataSize,
		Format:        [4]byte{'W', 'A', 'V', 'E'},
		Subchunk1ID:   [4]byte{'f', 'm', 't', ' '},
		Subchunk1Size: 16,
		AudioFormat:   1, // PCM
		NumChannels:   uint16(format.Channels),
		SampleRate:    uint32(format.SampleRate),
		ByteRate:      uint32(format.BytesPerSecond()),
		BlockAlign:    uint16(format.Channels * format.BitsPerSample / 8),
		BitsPerSample: uint16(format.BitsPerSample),
		Subchunk2ID:   [4]byte{'d', 'a', 't', 'a'},
		Subchunk2Size: dataSize,
	}

	buf := bytes.NewBuffer(make([]byte, 0, 44+len(frames)))
	if err := binary.Write(buf, binary.LittleEndian, header); err != nil {
		return nil, fmt.Errorf("failed to write WAV header: %w", err)
	}
	buf.Write(frames)

	return buf.Bytes(), nil
}

// Duration calculates the playing time of a WAV container in seconds.
func Duration(data []byte) (float64, error) {
	format, frames, err := Decode(data)
	if err != nil {
		return 0, err
	}
	return float64(len(frames)) / float64(format.BytesPerSecond()), nil
}
