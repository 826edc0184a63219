// SPDX-License-Identifier: EPL-2.0

package wav_test

import (
	"bytes"
	"fmt"
	"io"

	"github.com/chousg/cognitive-services-speech-sdk/formats/wav"
	"github.com/chousg/cognitive-services-speech-sdk/internal/audiotest"
)

// Example_decode demonstrates decoding a mono PCM16 WAV file.
func Example_decode() {
	data := audiotest.WAV(16000, 1, 16, []int16{100, 200, 300, 400, 500})

	src, err := wav.Decoder{}.Decode(bytes.NewReader(data))
	if err != nil {
		fmt.Printf("error: %v\n", err)
		return
	}
	defer src.Close()

	fmt.Println("format:", src.Format())

	pcm, _ := io.ReadAll(io.LimitReader(readerFunc(src.Read), 1<<20))
	fmt.Println("bytes:", len(pcm))
	// Output:
	// format: 16000Hz/16bit/1ch
	// bytes: 10
}

type readerFunc func([]byte) (int, error)

func (f readerFunc) Read(p []byte) (int, error) { return f(p) }
