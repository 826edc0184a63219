// SPDX-License-Identifier: EPL-2.0

// Package audio holds the PCM primitives shared by sources and producers.
//
//   - Format describes a PCM stream; only mono 16-bit PCM is carried.
//   - Frame is one chunk of a source's shared feed.
//   - Producer is the capability set a source needs from a microphone,
//     a file reader or an application stream: Start, Stop, Read, Close.
//   - Decoder and Registry map a file extension to a PCM decoder.
//
// # Producers
//
// A Producer is owned by exactly one source. The source calls Start once,
// reads from it while running and calls Stop once:
//
//	if err := p.Start(ctx); err != nil {
//	    return err
//	}
//	buf := make([]byte, p.Format().BytesFor(20*time.Millisecond))
//	for {
//	    n, err := p.Read(buf)
//	    if err == io.EOF {
//	        break
//	    }
//	    ...
//	}
//	p.Stop(ctx)
//
// # Format Registry
//
//	registry := audio.NewRegistry()
//	registry.Register("wav", wav.Decoder{})
//	decoder, _ := registry.Get(".wav")
//
// Keys are case-insensitive and a leading dot is ignored, so file
// extensions can be used directly.
//
// # Sample Format
//
// PCM is little-endian signed 16-bit. Decoders that produce float32 samples
// in [-1, 1] convert with utils.Float32ToInt16.
package audio
