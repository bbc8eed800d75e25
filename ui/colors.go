package ui

import (
	"fmt"
	"hash/fnv"

	"git.sr.ht/~rockorager/vaxis"
)

var ColorDefault vaxis.Color
var ColorRed = vaxis.IndexColor(9)
var ColorGreen = vaxis.IndexColor(2)
var ColorGray = vaxis.IndexColor(8)

type ColorSchemeType int

type ColorScheme struct {
	Type   ColorSchemeType
	Others vaxis.Color
	Self   vaxis.Color
}

const (
	ColorSchemeBase ColorSchemeType = iota
	ColorSchemeExtended
	ColorSchemeFixed
)

// Names are colored with mIRC color codes so that the colors survive in
// printed text. See baseCodes and hexCodes for the corresponding colors.
var nickCodes = map[ColorSchemeType][]int{
	// base 16 colors, excluding black, white and grays.
	ColorSchemeBase: {2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13},
	// saturated colors of the extended range, at two lightness levels.
	ColorSchemeExtended: {
		40, 41, 42, 43, 44, 45, 46, 47, 48, 49, 50, 51,
		52, 53, 54, 55, 56, 57, 58, 59, 60, 61, 62, 63,
	},
}

// IdentCode returns the two-digit mIRC color code of a name.
func IdentCode(scheme ColorScheme, ident string) string {
	h := fnv.New32()
	_, _ = h.Write([]byte(ident))
	c, ok := nickCodes[scheme.Type]
	if !ok {
		c = nickCodes[ColorSchemeBase]
	}
	return fmt.Sprintf("%02d", c[int(h.Sum32()%uint32(len(c)))])
}

func IdentColor(scheme ColorScheme, ident string, self bool) vaxis.Color {
	if scheme.Type == ColorSchemeFixed {
		if self {
			return scheme.Self
		}
		return scheme.Others
	}
	color, _ := parseColorNumber(IdentCode(scheme, ident))
	return color
}

func IdentString(scheme ColorScheme, ident string, self bool) StyledString {
	return ColorString(ident, IdentColor(scheme, ident, self))
}
