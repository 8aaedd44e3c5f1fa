package extract

import (
	"strings"
	"unicode"
)

// usableQualityThreshold is the score above which a PDF text layer is
// considered real content rather than the garbage a scanned PDF yields.
const usableQualityThreshold = 0.5

// EvaluateTextQuality scores extracted text in [0,1]. Scanned PDFs tend to
// produce empty or corrupted text layers; a low score triggers the OCR
// fallback.
func EvaluateTextQuality(text string) float64 {
	text = strings.TrimSpace(text)
	if len(text) == 0 {
		return 0.0
	}
	if len(text) < 10 {
		return 0.1
	}

	var alphanumeric, printable, corrupted int

	runes := []rune(text)
	for _, r := range runes {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9'):
			alphanumeric++
			printable++
		case r == ' ' || r == '\n' || r == '\t':
			printable++
		case r == '�':
			corrupted++
		case r >= 32 && r <= 126:
			printable++
		case unicode.IsLetter(r) || unicode.IsSpace(r) || unicode.IsPunct(r):
			printable++
		default:
			corrupted++
		}
	}

	total := float64(len(runes))
	alphanumericRatio := float64(alphanumeric) / total
	printableRatio := float64(printable) / total
	corruptedRatio := float64(corrupted) / total

	score := printableRatio * 0.4
	if alphanumericRatio >= 0.3 {
		score += 0.3
	} else {
		score += alphanumericRatio
	}
	score -= corruptedRatio * 2.0
	if len(text) > 100 {
		score += 0.1
	}
	if strings.Contains(text, " ") {
		score += 0.1
	}

	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

func countWords(text string) int {
	return len(strings.Fields(text))
}
