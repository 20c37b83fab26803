package assemble

import (
	"os"
	"time"

	mp3 "github.com/hajimehoshi/go-mp3"
)

// clipDuration decodes an MP3 clip and reports its playback duration.
//
// go-mp3 always decodes to 16-bit stereo, so the PCM stream holds 4 bytes
// per sample frame.
func clipDuration(path string) (time.Duration, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	decoder, err := mp3.NewDecoder(f)
	if err != nil {
		return 0, err
	}

	frames := decoder.Length() / 4
	if decoder.SampleRate() <= 0 {
		return 0, nil
	}
	seconds := float64(frames) / float64(decoder.SampleRate())
	return time.Duration(seconds * float64(time.Second)), nil
}
