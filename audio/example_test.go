// SPDX-License-Identifier: EPL-2.0

package audio_test

import (
	"fmt"
	"io"
	"time"

	"github.com/chousg/cognitive-services-speech-sdk/audio"
)

type nopDecoder struct{}

func (nopDecoder) Decode(r io.Reader) (audio.PCMReader, error) { return nil, nil }

// Example_registry shows decoder lookup by file extension.
func Example_registry() {
	registry := audio.NewRegistry()
	registry.Register("wav", nopDecoder{})

	_, ok := registry.Get(".WAV")
	fmt.Println("wav registered:", ok)

	_, ok = registry.Get("flac")
	fmt.Println("flac registered:", ok)
	// Output:
	// wav registered: true
	// flac registered: false
}

// Example_format shows frame sizing for the default format.
func Example_format() {
	f := audio.DefaultFormat

	fmt.Println(f)
	fmt.Println("bytes per 20ms:", f.BytesFor(20*time.Millisecond))
	fmt.Println("valid:", f.Validate() == nil)
	// Output:
	// 16000Hz/16bit/1ch
	// bytes per 20ms: 640
	// valid: true
}
