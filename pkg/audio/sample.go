package audio

import "encoding/binary"

// SampleRate is the nominal output rate of the cores, in stereo frames per second.
const SampleRate = 48000

// queueSeconds is how much audio a fresh consumer queue holds without growing.
const queueSeconds = 20

// Sample is one stereo pair of signed 16-bit PCM.
type Sample struct {
	Left, Right int16
}

// Samples is a list of interleaved stereo pairs.
type Samples []Sample

// Bytes encodes the samples as little-endian L,R int16 pairs.
func (s Samples) Bytes() []byte {
	out := make([]byte, len(s)*4)
	for i, v := range s {
		binary.LittleEndian.PutUint16(out[i*4:], uint16(v.Left))
		binary.LittleEndian.PutUint16(out[i*4+2:], uint16(v.Right))
	}
	return out
}

// PCM returns the samples as an interleaved int16 slice.
func (s Samples) PCM() []int16 {
	out := make([]int16, len(s)*2)
	for i, v := range s {
		out[i*2], out[i*2+1] = v.Left, v.Right
	}
	return out
}

// SamplesFromBytes decodes little-endian L,R pairs,
// a trailing incomplete pair is ignored.
func SamplesFromBytes(b []byte) Samples {
	out := make(Samples, len(b)/4)
	for i := range out {
		out[i] = Sample{
			Left:  int16(binary.LittleEndian.Uint16(b[i*4:])),
			Right: int16(binary.LittleEndian.Uint16(b[i*4+2:])),
		}
	}
	return out
}
