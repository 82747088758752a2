package api

import (
	"errors"
	"regexp"
)

// ErrInvalidVideoURL is returned when no 11-character video id can be
// extracted from the given URL.
var ErrInvalidVideoURL = errors.New("invalid youtube video url")

var bareVideoID = regexp.MustCompile(`^[a-zA-Z0-9_-]{11}$`)

var videoIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?:v=|/)([a-zA-Z0-9_-]{11})`),
	regexp.MustCompile(`youtu\.be/([a-zA-Z0-9_-]{11})`),
	regexp.MustCompile(`youtube\.com/embed/([a-zA-Z0-9_-]{11})`),
}

// ParseVideoID extracts the video id from watch, short and embed URL forms.
// A bare 11-character id is accepted as-is.
func ParseVideoID(raw string) (string, error) {
	if bareVideoID.MatchString(raw) {
		return raw, nil
	}
	for _, p := range videoIDPatterns {
		if m := p.FindStringSubmatch(raw); m != nil {
			return m[1], nil
		}
	}
	return "", ErrInvalidVideoURL
}
