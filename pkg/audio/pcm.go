// Package audio provides PCM helpers shared by the voice transport and the
// playback pipeline: sample/byte conversion, channel downmixing, linear
// resampling and 20 ms framing.
package audio

import (
	"bytes"
	"encoding/binary"
)

// Discord voice format constants.
const (
	SampleRate = 48_000 // Hz
	Channels   = 2      // interleaved stereo
	FrameSize  = 960    // samples per channel (20 ms)

	// FrameSamples is the interleaved sample count of one 20 ms frame.
	FrameSamples = FrameSize * Channels
)

// PCMInt16ToLE converts int16 samples to raw little-endian bytes.
func PCMInt16ToLE(samples []int16) []byte {
	var buf bytes.Buffer
	_ = binary.Write(&buf, binary.LittleEndian, samples)
	return buf.Bytes()
}

// LEToPCMInt16 converts raw little-endian bytes back to int16 samples.
func LEToPCMInt16(b []byte) []int16 {
	out := make([]int16, len(b)/2)
	_ = binary.Read(bytes.NewReader(b), binary.LittleEndian, &out)
	return out
}

// DownmixStereo averages interleaved stereo samples into mono.
func DownmixStereo(samples []int16) []int16 {
	mono := make([]int16, len(samples)/2)
	for i := range mono {
		l := int(samples[2*i])
		r := int(samples[2*i+1])
		mono[i] = int16((l + r) / 2)
	}
	return mono
}

// ResampleLinear resamples a single-channel signal from one rate to another
// using linear interpolation. It returns the input unchanged when the rates
// match.
func ResampleLinear(samples []int16, from, to int) []int16 {
	if from == to || len(samples) == 0 {
		return samples
	}

	outLen := int(int64(len(samples)) * int64(to) / int64(from))
	if outLen == 0 {
		return nil
	}

	out := make([]int16, outLen)
	ratio := float64(from) / float64(to)
	for i := range out {
		pos := float64(i) * ratio
		idx := int(pos)
		if idx >= len(samples)-1 {
			out[i] = samples[len(samples)-1]
			continue
		}
		frac := pos - float64(idx)
		a := float64(samples[idx])
		b := float64(samples[idx+1])
		out[i] = int16(a + (b-a)*frac)
	}
	return out
}

// ResampleStereo resamples interleaved stereo by deinterleaving, resampling
// each channel and reinterleaving.
func ResampleStereo(samples []int16, from, to int) []int16 {
	if from == to {
		return samples
	}

	left := make([]int16, len(samples)/2)
	right := make([]int16, len(samples)/2)
	for i := range left {
		left[i] = samples[2*i]
		right[i] = samples[2*i+1]
	}

	left = ResampleLinear(left, from, to)
	right = ResampleLinear(right, from, to)

	out := make([]int16, 2*len(left))
	for i := range left {
		out[2*i] = left[i]
		out[2*i+1] = right[i]
	}
	return out
}

// Frames splits interleaved samples into frames of frameSamples each. The
// final frame is zero-padded to a full frame so encoders always see a
// complete 20 ms window.
func Frames(samples []int16, frameSamples int) [][]int16 {
	if len(samples) == 0 {
		return nil
	}

	var frames [][]int16
	for off := 0; off < len(samples); off += frameSamples {
		end := off + frameSamples
		if end > len(samples) {
			frame := make([]int16, frameSamples)
			copy(frame, samples[off:])
			frames = append(frames, frame)
			break
		}
		frames = append(frames, samples[off:end])
	}
	return frames
}
