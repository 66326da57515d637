package text

import "golang.org/x/text/width"

// defaultCharWidth is the advance assumed for runes missing from the table.
const defaultCharWidth = 8.5

// charWidths holds advances at 14px for a semibold sans-serif.
var charWidths = map[rune]float64{
	'i': 4, 'l': 4, 'I': 4, '1': 6, ' ': 4,
	'a': 8, 'c': 7, 'e': 8, 'm': 12, 'n': 8, 'o': 8, 'r': 5, 's': 7, 'u': 8,
	'v': 7, 'w': 11, 'x': 7, 'z': 7,
	'A': 10, 'B': 9, 'C': 9, 'D': 10, 'E': 8, 'F': 7, 'G': 10, 'H': 10, 'J': 6,
	'K': 9, 'L': 7, 'M': 12, 'N': 10, 'O': 10, 'P': 8, 'Q': 10, 'R': 9, 'S': 8,
	'T': 8, 'U': 10, 'V': 9, 'W': 14, 'X': 9, 'Y': 8, 'Z': 8,
	'(': 5, ')': 5, '-': 5, '_': 7, '.': 3, ',': 3, ':': 3, ';': 3,
}

// EstimateWidth returns the fallback width of s at the given pixel size.
// East Asian wide and fullwidth runes count as one em.
func EstimateWidth(s string, size float64) float64 {
	if size <= 0 {
		size = DefaultFontSize
	}
	scale := size / DefaultFontSize
	total := 0.0
	for _, r := range s {
		total += runeWidth(r, size, scale)
	}
	return total
}

func runeWidth(r rune, size, scale float64) float64 {
	if w, ok := charWidths[r]; ok {
		return w * scale
	}
	switch width.LookupRune(r).Kind() {
	case width.EastAsianWide, width.EastAsianFullwidth:
		return size
	}
	return defaultCharWidth * scale
}
