package tts

import (
	"bytes"
	"encoding/binary"
)

// PCM format returned by the speech API: 16-bit mono at 24kHz.
const (
	sampleRate  = 24000
	numChannels = 1
	sampleWidth = 2
)

// wrapWAV frames raw PCM samples in a RIFF/WAVE container.
func wrapWAV(pcm []byte) []byte {
	var buf bytes.Buffer
	byteRate := sampleRate * numChannels * sampleWidth
	blockAlign := numChannels * sampleWidth

	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, uint32(36+len(pcm)))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(16))
	binary.Write(&buf, binary.LittleEndian, uint16(1)) // PCM
	binary.Write(&buf, binary.LittleEndian, uint16(numChannels))
	binary.Write(&buf, binary.LittleEndian, uint32(sampleRate))
	binary.Write(&buf, binary.LittleEndian, uint32(byteRate))
	binary.Write(&buf, binary.LittleEndian, uint16(blockAlign))
	binary.Write(&buf, binary.LittleEndian, uint16(8*sampleWidth))

	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, uint32(len(pcm)))
	buf.Write(pcm)
	return buf.Bytes()
}

// pcmDuration returns the playback length in seconds of raw PCM samples.
func pcmDuration(pcm []byte) float64 {
	numSamples := len(pcm) / (sampleWidth * numChannels)
	return float64(numSamples) / float64(sampleRate)
}
