package variant

import (
	"errors"
	"regexp"
)

// ErrInvalidColor is returned for colours outside the accepted notation.
var ErrInvalidColor = errors.New("invalid colour")

// colorPattern accepts #RRGGBB[AA], 0xRRGGBB[AA] or a plain colour name such
// as "white" or "AliceBlue". Nothing else may reach an ffmpeg filter string.
var colorPattern = regexp.MustCompile(`^(?:(?:#|0[xX])[0-9A-Fa-f]{6}(?:[0-9A-Fa-f]{2})?|[A-Za-z]{3,32})$`)

// ValidColor reports whether c is an accepted colour value.
func ValidColor(c string) bool {
	return colorPattern.MatchString(c)
}
