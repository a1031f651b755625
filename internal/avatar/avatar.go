package avatar

import (
	"crypto/sha256"
	"fmt"
	"net/url"
	"strings"
)

const (
	// DefaultSeed is used whenever a caller supplies an empty seed.
	DefaultSeed = "default-user"

	defaultSizeClass = "h-24 w-24"
	styleSuffix      = "rounded-full object-cover border-2 border-border shadow-lg"

	gridSize = 5
	cellSize = 16
)

var palette = []string{
	"#e53935",
	"#8e24aa",
	"#3949ab",
	"#039be5",
	"#00897b",
	"#7cb342",
	"#fb8c00",
	"#6d4c41",
}

var backgrounds = []string{
	"#f5f0e8",
	"#eef2f7",
	"#f0f7ee",
	"#f7eef5",
}

// Generate maps a seed string to SVG markup. The mapping is a pure function:
// identical seeds always produce byte-identical markup.
func Generate(seed string) string {
	trimmed := strings.TrimSpace(seed)
	if trimmed == "" {
		trimmed = DefaultSeed
	}
	digest := sha256.Sum256([]byte(trimmed))

	foreground := palette[int(digest[0])%len(palette)]
	background := backgrounds[int(digest[1])%len(backgrounds)]

	var markup strings.Builder
	side := gridSize * cellSize
	fmt.Fprintf(&markup, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %d %d">`, side, side)
	fmt.Fprintf(&markup, `<rect width="%d" height="%d" fill="%s"/>`, side, side, background)

	// Symmetric grid: the right two columns mirror the left two.
	half := gridSize/2 + 1
	for row := 0; row < gridSize; row++ {
		for col := 0; col < half; col++ {
			bit := digest[2+row*half+col]
			if bit%2 != 0 {
				continue
			}
			fmt.Fprintf(&markup, `<rect x="%d" y="%d" width="%d" height="%d" fill="%s"/>`,
				col*cellSize, row*cellSize, cellSize, cellSize, foreground)
			if mirror := gridSize - 1 - col; mirror != col {
				fmt.Fprintf(&markup, `<rect x="%d" y="%d" width="%d" height="%d" fill="%s"/>`,
					mirror*cellSize, row*cellSize, cellSize, cellSize, foreground)
			}
		}
	}
	markup.WriteString(`</svg>`)
	return markup.String()
}

// DataURL wraps the generated SVG as an inline data URI usable as an image source.
func DataURL(seed string) string {
	return "data:image/svg+xml," + url.PathEscape(Generate(seed))
}

// PropsUser carries the user fields relevant to avatar display.
type PropsUser struct {
	ID              string
	Username        string
	FullName        string
	Email           string
	ProfileImageURL string
}

// Props is a display-ready bundle for rendering a user's avatar.
type Props struct {
	Src   string `json:"src"`
	Alt   string `json:"alt"`
	Class string `json:"class"`
}

// NewProps resolves the display name and image source for a user. A stored
// profile image wins over the generated avatar; every field has a literal
// fallback so the bundle is always renderable.
func NewProps(user PropsUser, sizeClass string) Props {
	if strings.TrimSpace(sizeClass) == "" {
		sizeClass = defaultSizeClass
	}

	displayName := user.FullName
	if displayName == "" {
		displayName = user.Username
	}
	if displayName == "" {
		displayName = "User"
	}

	src := user.ProfileImageURL
	if src == "" {
		seed := user.Username
		if seed == "" {
			seed = user.Email
		}
		if seed == "" {
			seed = user.ID
		}
		if seed == "" {
			seed = "default"
		}
		src = DataURL(seed)
	}

	return Props{
		Src:   src,
		Alt:   displayName + "'s avatar",
		Class: sizeClass + " " + styleSuffix,
	}
}
