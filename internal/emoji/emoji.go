// Package emoji detects emoji in message text against a fixed set of
// Unicode code-point ranges. The ranges are domain constants: changing them
// changes the meaning of the has_emoji/emoji_count columns across datasets.
package emoji

// Intervals are inclusive. The first range subsumes the enclosed-character
// and dingbat blocks; the rest cover the emoticon, symbol and transport
// blocks above it.
var ranges = [...][2]rune{
	{0x24C2, 0x1F251},
	{0x1F300, 0x1F5FF},
	{0x1F600, 0x1F64F},
	{0x1F680, 0x1F6FF},
}

func isEmoji(r rune) bool {
	for _, rg := range ranges {
		if r >= rg[0] && r <= rg[1] {
			return true
		}
	}
	return false
}

// Contains reports whether s holds at least one emoji rune.
func Contains(s string) bool {
	for _, r := range s {
		if isEmoji(r) {
			return true
		}
	}
	return false
}

// Count returns the number of maximal emoji runs in s. Adjacent emoji runes
// count as one, so "Hello 😀 world" counts 1 and so does "😀😀".
func Count(s string) int {
	count := 0
	inRun := false
	for _, r := range s {
		switch {
		case isEmoji(r) && !inRun:
			count++
			inRun = true
		case !isEmoji(r):
			inRun = false
		}
	}
	return count
}
