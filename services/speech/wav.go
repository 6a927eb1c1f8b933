package speech

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

const (
	MaxDurationSeconds = 60              // 1 minute maximum
	MaxFileSize        = 5 * 1024 * 1024 // 5MB (conservative buffer)
	AllowedExtension   = ".wav"

	pcmFormat = 1
)

type waveHeader struct {
	RiffTag       [4]byte
	FileSize      uint32
	WaveTag       [4]byte
	FmtTag        [4]byte
	FmtSize       uint32
	AudioFormat   uint16
	NumChannels   uint16
	SampleRate    uint32
	ByteRate      uint32
	BlockAlign    uint16
	BitsPerSample uint16
	DataTag       [4]byte
	DataSize      uint32
}

func parseWaveHeader(data []byte) (*waveHeader, error) {
	if len(data) < 44 {
		return nil, errors.New("invalid WAV header length")
	}

	var header waveHeader
	buf := bytes.NewReader(data)
	if err := binary.Read(buf, binary.LittleEndian, &header); err != nil {
		return nil, err
	}
	return &header, nil
}

// ValidateWAV checks that the payload is mono 16-bit PCM WAV within the
// duration cap, returning its sample rate.
func ValidateWAV(data []byte) (sampleRate uint32, err error) {
	header, err := parseWaveHeader(data)
	if err != nil {
		return 0, err
	}
	if string(header.RiffTag[:]) != "RIFF" || string(header.WaveTag[:]) != "WAVE" {
		return 0, errors.New("not a WAV file")
	}
	if header.AudioFormat != pcmFormat {
		return 0, fmt.Errorf("unsupported audio format %d, expected PCM", header.AudioFormat)
	}
	if header.NumChannels != 1 {
		return 0, fmt.Errorf("expected mono audio, got %d channels", header.NumChannels)
	}
	if header.BitsPerSample != 16 {
		return 0, fmt.Errorf("expected 16-bit samples, got %d", header.BitsPerSample)
	}
	if header.ByteRate > 0 {
		seconds := header.DataSize / header.ByteRate
		if seconds > MaxDurationSeconds {
			return 0, fmt.Errorf("audio exceeds %d second limit", MaxDurationSeconds)
		}
	}
	return header.SampleRate, nil
}
