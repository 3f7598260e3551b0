package tts

import (
	"encoding/binary"
	"errors"
	"time"
)

// WAVInfo holds the fields of a RIFF/WAVE header needed to locate and
// measure the audio payload.
type WAVInfo struct {
	// DataOffset is the byte offset of the first PCM sample.
	DataOffset int

	// DataSize is the byte length of the data chunk as declared, clamped to
	// the bytes actually present.
	DataSize int

	SampleRate    int
	Channels      int
	BitsPerSample int
}

// Duration returns the playback length of the data chunk. Zero when the
// header did not carry enough format information.
func (w WAVInfo) Duration() time.Duration {
	frame := w.Channels * w.BitsPerSample / 8
	if frame <= 0 || w.SampleRate <= 0 {
		return 0
	}
	frames := w.DataSize / frame
	return time.Duration(frames) * time.Second / time.Duration(w.SampleRate)
}

// ParseWAV walks the RIFF chunks of wav and returns the format and location
// of the data chunk.
func ParseWAV(wav []byte) (WAVInfo, error) {
	if len(wav) < 12 {
		return WAVInfo{}, errors.New("tts: WAV too short to be a valid RIFF file")
	}
	if string(wav[0:4]) != "RIFF" {
		return WAVInfo{}, errors.New("tts: WAV missing RIFF header")
	}
	if string(wav[8:12]) != "WAVE" {
		return WAVInfo{}, errors.New("tts: WAV missing WAVE identifier")
	}

	var info WAVInfo
	offset := 12
	for offset+8 <= len(wav) {
		chunkID := string(wav[offset : offset+4])
		chunkSize := int(binary.LittleEndian.Uint32(wav[offset+4 : offset+8]))

		switch chunkID {
		case "fmt ":
			if chunkSize >= 16 && offset+8+16 <= len(wav) {
				f := wav[offset+8:]
				info.Channels = int(binary.LittleEndian.Uint16(f[2:4]))
				info.SampleRate = int(binary.LittleEndian.Uint32(f[4:8]))
				info.BitsPerSample = int(binary.LittleEndian.Uint16(f[14:16]))
			}
		case "data":
			info.DataOffset = offset + 8
			info.DataSize = min(chunkSize, len(wav)-info.DataOffset)
			return info, nil
		}

		// Chunks are word-aligned.
		offset += 8 + chunkSize
		if chunkSize%2 != 0 {
			offset++
		}
	}
	return WAVInfo{}, errors.New("tts: WAV missing data chunk")
}

// BuildWAV wraps 16-bit PCM samples in a minimal RIFF/WAVE header. Used by
// mocks and tests that need a well-formed file.
func BuildWAV(pcm []byte, sampleRate, channels int) []byte {
	le := binary.LittleEndian
	buf := make([]byte, 44, 44+len(pcm))
	copy(buf[0:4], "RIFF")
	le.PutUint32(buf[4:8], uint32(36+len(pcm)))
	copy(buf[8:12], "WAVE")
	copy(buf[12:16], "fmt ")
	le.PutUint32(buf[16:20], 16)
	le.PutUint16(buf[20:22], 1) // PCM
	le.PutUint16(buf[22:24], uint16(channels))
	le.PutUint32(buf[24:28], uint32(sampleRate))
	le.PutUint32(buf[28:32], uint32(sampleRate*channels*2))
	le.PutUint16(buf[32:34], uint16(channels*2))
	le.PutUint16(buf[34:36], 16)
	copy(buf[36:40], "data")
	le.PutUint32(buf[40:44], uint32(len(pcm)))
	return append(buf, pcm...)
}
