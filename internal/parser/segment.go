package parser

import (
	"regexp"
	"strings"
)

// Line matchers, tested in fixed precedence order: question header first,
// then image reference, option, answer, and finally continuation. The order
// is an invariant of the segmenter, not an accident.
var (
	questionHeaderRe = regexp.MustCompile(`(?i)^(?:(?:câu|question|q)\s*)?(\d+)\s*[.:)]\s*(.+)$`)
	imageRefRe       = regexp.MustCompile(`(?i)^\[\s*(?:image|hình|ảnh)\s*\d*\s*\]$|<img[^>]*>`)
	optionRe         = regexp.MustCompile(`^([A-Da-d])\s*[.:)]\s*(.+)$`)
	answerRe         = regexp.MustCompile(`(?i)^(?:correct\s+answer|answer|đáp\s*án|dap\s*an|trả\s*lời|tra\s*loi)\s*[.:]?\s*([A-Da-d])\b`)
)

// draft accumulates one question during the scan. Exactly one draft is open
// at a time; it closes when the next header line appears or input ends.
type draft struct {
	text    string
	options []string
	answer  int // 0-based option index, -1 until an answer line matches
	images  []string
	hasMath bool
}

func (d *draft) record() Question {
	q := Question{
		QuestionText: NormalizeMath(strings.TrimSpace(d.text)),
		QuestionType: TypeEssay,
		Options:      make([]string, 0, len(d.options)),
		Explanation:  "",
		HasMath:      d.hasMath,
	}
	for _, opt := range d.options {
		q.Options = append(q.Options, NormalizeMath(opt))
	}
	if len(d.options) > 0 {
		q.QuestionType = TypeMultipleChoice
	}
	if d.answer >= 0 {
		q.CorrectAnswer = d.answer
	}
	// When no answer line matched, CorrectAnswer stays 0, which cannot be
	// told apart from "option A is correct". Known limitation, kept as-is.
	if len(d.images) > 0 {
		q.ImageURL = &d.images[0]
	}
	return q
}

// Segment converts extracted plain text plus the document's image URL list
// into ordered question records. It never fails; text with no recognizable
// questions yields an empty slice.
//
// Image references are matched to extractedImages positionally: the Nth
// reference line in the document consumes the Nth extracted URL, regardless
// of the numbers written inside the brackets.
func Segment(rawText string, extractedImages []string) []Question {
	questions := []Question{}
	var open *draft
	imagesUsed := 0

	flush := func() {
		if open != nil {
			questions = append(questions, open.record())
			open = nil
		}
	}

	for _, line := range strings.Split(rawText, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if m := questionHeaderRe.FindStringSubmatch(line); m != nil {
			flush()
			text := strings.TrimSpace(m[2])
			open = &draft{text: text, answer: -1, hasMath: DetectMath(text)}
			continue
		}
		if open == nil {
			continue
		}

		if imageRefRe.MatchString(line) {
			if imagesUsed < len(extractedImages) {
				open.images = append(open.images, extractedImages[imagesUsed])
				imagesUsed++
			}
			continue
		}
		if m := optionRe.FindStringSubmatch(line); m != nil {
			// Option order follows line order; the letter only identifies
			// the line as an option, it is never used as an index.
			opt := strings.TrimSpace(m[2])
			open.options = append(open.options, opt)
			open.hasMath = open.hasMath || DetectMath(opt)
			continue
		}
		if m := answerRe.FindStringSubmatch(line); m != nil {
			open.answer = int(strings.ToUpper(m[1])[0] - 'A')
			continue
		}

		// Continuation lines extend the stem only until options begin;
		// anything else after the first option is dropped.
		if len(open.options) == 0 {
			open.text += " " + line
			open.hasMath = open.hasMath || DetectMath(line)
		}
	}

	flush()
	return questions
}
