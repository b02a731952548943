package parser

import "regexp"

// Math notation handling is deliberately heuristic: it pattern-matches the
// common cases found in school exam documents rather than parsing LaTeX.

var mathPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\$\$[^$]+\$\$`),                // display math
	regexp.MustCompile(`\$[^$\n]+\$`),                  // inline math
	regexp.MustCompile(`\\frac\{[^}]*\}\{[^}]*\}`),     // fractions
	regexp.MustCompile(`\\[a-zA-Z]+\{[^}]*\}`),         // LaTeX command with braces
	regexp.MustCompile(`[\^_]\{[^}]+\}`),               // braced super/subscripts
	regexp.MustCompile(`[√∛∜∫∮∑∏±×÷≤≥≠≈∞∂∇∈∉⊂⊃∪∩⇒⇔∀∃]`), // Unicode math symbols
	regexp.MustCompile(`[α-ωΑ-Ω]`),                     // Greek letters
}

var (
	inlineDelimRe   = regexp.MustCompile(`\\\((.+?)\\\)`)
	displayDelimRe  = regexp.MustCompile(`\\\[(.+?)\\\]`)
	bareExponentRe  = regexp.MustCompile(`\^(\d+)`)
	bareSubscriptRe = regexp.MustCompile(`([A-Za-zα-ωΑ-Ω])_(\d+)`)
)

// DetectMath reports whether text contains LaTeX or Unicode math notation.
func DetectMath(text string) bool {
	for _, re := range mathPatterns {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

// NormalizeMath canonicalizes alternate LaTeX delimiters (\(..\) to $..$,
// \[..\] to $$..$$) and wraps bare exponent/subscript shorthand in braces
// (x^2 to x^{2}, a_1 to a_{1}).
func NormalizeMath(text string) string {
	text = inlineDelimRe.ReplaceAllString(text, `$$${1}$$`)
	text = displayDelimRe.ReplaceAllString(text, `$$$$${1}$$$$`)
	text = bareExponentRe.ReplaceAllString(text, `^{${1}}`)
	text = bareSubscriptRe.ReplaceAllString(text, `${1}_{${2}}`)
	return text
}
