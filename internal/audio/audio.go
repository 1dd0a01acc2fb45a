// Package audio provides microphone capture and speaker playback for the
// live session. Input is 16kHz signed 16-bit little-endian mono, output is
// 24kHz in the same sample format; both rates are fixed by the model.
package audio

const (
	// SendSampleRate is the microphone capture rate expected by the model.
	SendSampleRate = 16000
	// ReceiveSampleRate is the rate of synthesized audio from the model.
	ReceiveSampleRate = 24000
	// Channels is mono on both directions.
	Channels = 1
	// ChunkSamples is the number of samples per microphone read.
	ChunkSamples = 1024
	// ChunkBytes is ChunkSamples in s16le bytes.
	ChunkBytes = ChunkSamples * 2
)
