package audio

import (
	"bytes"
	"encoding/binary"
	"math"
	"testing"
)

// sineFrames generates 16-bit mono PCM frames with a 440Hz tone.
func sineFrames(sampleRate int, seconds float64) []byte {
	numSamples := int(float64(sampleRate) * seconds)
	buf := bytes.NewBuffer(make([]byte, 0, numSamples*2))
	for i := 0; i < numSamples; i++ {
		ts := float64(i) / float64(sampleRate)
		sample := int16(16383.0 * math.Sin(2*math.Pi*440.0*ts))
		binary.Write(buf, binary.LittleEndian, sample)
	}
	return buf.Bytes()
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	tests := []struct {
		name   string
		format Format
	}{
		{"mono 16kHz 16-bit", Format{SampleRate: 16000, BitsPerSample: 16, Channels: 1}},
		{"mono 24kHz 16-bit", Format{SampleRate: 24000, BitsPerSample: 16, Channels: 1}},
		{"stereo 44.1kHz 16-bit", Format{SampleRate: 44100, BitsPerSample: 16, Channels: 2}},
		{"mono 8kHz 8-bit", Format{SampleRate: 8000, BitsPerSample: 8, Channels: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frames := sineFrames(tt.format.SampleRate, 0.1)

			wavData, err := Encode(frames, tt.format)
			if err != nil {
				t.Fatalf("Encode failed: %v", err)
			}

			if len(wavData) != 44+len(frames) {
				t.Errorf("Expected WAV size %d, got %d", 44+len(frames), len(wavData))
			}

			format, decoded, err := Decode(wavData)
			if err != nil {
				t.Fatalf("Decode failed: %v", err)
			}

			if format != tt.format {
				t.Errorf("Expected format %+v, got %+v", tt.format, format)
			}

			if !bytes.Equal(decoded, frames) {
				t.Errorf("Decoded frames differ from input (%d vs %d bytes)", len(decoded), len(frames))
			}
		})
	}
}

func TestDecodeSkipsExtraChunks(t *testing.T) {
	format := Format{SampleRate: 16000, BitsPerSample: 16, Channels: 1}
	frames := sineFrames(format.SampleRate, 0.05)

	wavData, err := Encode(frames, format)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	// Splice a LIST chunk between "fmt " and "data", the way browser
	// recorders do.
	list := []byte("LIST")
	list = append(list, 4, 0, 0, 0)
	list = append(list, 'I', 'N', 'F', 'O')

	spliced := make([]byte, 0, len(wavData)+len(list))
	spliced = append(spliced, wavData[:36]...)
	spliced = append(spliced, list...)
	spliced = append(spliced, wavData[36:]...)
	binary.LittleEndian.PutUint32(spliced[4:8], uint32(len(spliced)-8))

	got, decoded, err := Decode(spliced)
	if err != nil {
		t.Fatalf("Decode failed on spliced WAV: %v", err)
	}
	if got != format {
		t.Errorf("Expected format %+v, got %+v", format, got)
	}
	if !bytes.Equal(decoded, frames) {
		t.Error("Decoded frames differ after chunk splice")
	}
}

func TestDecodeRejectsMalformed(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"too short", []byte("RIFF")},
		{"not RIFF", bytes.Repeat([]byte{0x42}, 64)},
		{"RIFF but not WAVE", append([]byte("RIFF\x00\x00\x00\x00JUNK"), make([]byte, 52)...)},
		{"missing data chunk", func() []byte {
			format := Format{SampleRate: 8000, BitsPerSample: 16, Channels: 1}
			wavData, _ := Encode([]byte{0, 0}, format)
			copy(wavData[36:40], "xxxx")
			return wavData
		}()},
		{"data chunk overrun", func() []byte {
			format := Format{SampleRate: 8000, BitsPerSample: 16, Channels: 1}
			wavData, _ := Encode([]byte{0, 0, 0, 0}, format)
			binary.LittleEndian.PutUint32(wavData[40:44], 9999)
			return wavData
		}()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := Decode(tt.data); err == nil {
				t.Error("Expected error for malformed WAV input")
			}
		})
	}
}

func TestDuration(t *testing.T) {
	format := Format{SampleRate: 16000, BitsPerSample: 16, Channels: 1}
	frames := sineFrames(format.SampleRate, 0.5)

	wavData, err := Encode(frames, format)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	duration, err := Duration(wavData)
	if err != nil {
		t.Fatalf("Duration failed: %v", err)
	}

	if math.Abs(duration-0.5) > 0.001 {
		t.Errorf("Expected duration 0.5, got %.3f", duration)
	}
}
