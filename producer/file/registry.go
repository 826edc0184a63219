// SPDX-License-Identifier: EPL-2.0

package file

import (
	"fmt"

	"github.com/chousg/cognitive-services-speech-sdk/audio"
	"github.com/chousg/cognitive-services-speech-sdk/formats/aiff"
	"github.com/chousg/cognitive-services-speech-sdk/formats/mp3"
	"github.com/chousg/cognitive-services-speech-sdk/formats/vorbis"
	"github.com/chousg/cognitive-services-speech-sdk/formats/wav"
)

// DefaultExtensions are the file extensions with a built-in decoder.
var DefaultExtensions = []string{"wav", "aiff", "aif", "mp3", "ogg"}

var decoders = map[string]audio.Decoder{
	"wav":  wav.Decoder{},
	"aiff": aiff.Decoder{},
	"aif":  aiff.Decoder{},
	"mp3":  mp3.Decoder{},
	"ogg":  vorbis.Decoder{},
	"oga":  vorbis.Decoder{},
}

// NewRegistry returns a registry holding the built-in decoders for exts.
// With no arguments DefaultExtensions are registered.
func NewRegistry(exts ...string) (*audio.Registry, error) {
	if len(exts) == 0 {
		exts = DefaultExtensions
	}

	r := audio.NewRegistry()
	for _, ext := range exts {
		d, ok := decoders[normalizeExt(ext)]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownExtension, ext)
		}
		r.Register(ext, d)
	}
	return r, nil
}
