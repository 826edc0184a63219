// SPDX-License-Identifier: EPL-2.0

package audio

// FoldStereo16 averages interleaved 16-bit stereo PCM in src into mono PCM in
// dst and returns the number of bytes written. Some decoders (go-mp3) always
// emit two channels even for mono material; this collapses them back.
//
// len(src) must be a multiple of 4 and dst must hold len(src)/2 bytes.
func FoldStereo16(dst, src []byte) (int, error) {
	if len(src)%4 != 0 {
		return 0, ErrInvalidDstSize
	}
	frames := len(src) / 4
	if len(dst) < frames*2 {
		return 0, ErrInvalidDstSize
	}

	for f := 0; f < frames; f++ {
		idx := f << 2 // f * 4
		l := int32(int16(uint16(src[idx]) | uint16(src[idx+1])<<8))
		r := int32(int16(uint16(src[idx+2]) | uint16(src[idx+3])<<8))
		avg := int16((l + r) / 2)
		dst[f*2] = byte(avg)
		dst[f*2+1] = byte(uint16(avg) >> 8)
	}

	return frames * 2, nil
}
