package engine

import (
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
)

var systemFonts = map[string][]string{
	"windows": {`C:\Windows\Fonts\arial.ttf`, `C:\Windows\Fonts\segoeui.ttf`},
	"darwin":  {"/System/Library/Fonts/Helvetica.ttc", "/Library/Fonts/Arial.ttf"},
	"linux": {
		"/usr/share/fonts/truetype/liberation/LiberationSans-Regular.ttf",
		"/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf",
		"/usr/share/fonts/TTF/DejaVuSans.ttf",
	},
}

// FontSearchPaths lists the fonts tried when none is configured: every
// font file in dir, by name, then the usual system fonts of goos.
func FontSearchPaths(dir, goos string) []string {
	var paths []string
	entries, _ := os.ReadDir(dir)
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".ttf", ".ttc", ".otf":
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	sys, ok := systemFonts[goos]
	if !ok {
		sys = systemFonts["linux"]
	}
	return append(paths, slices.Clone(sys)...)
}

// FindFont returns the first existing font of FontSearchPaths("fonts",
// runtime.GOOS), or "" and the paths tried.
func FindFont() (string, []string) {
	tried := FontSearchPaths("fonts", runtime.GOOS)
	for _, p := range tried {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return "", tried
}
