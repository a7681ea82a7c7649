package recovery

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/hpn/hpn-prompt-enhancer/internal/domain"
	"github.com/tidwall/gjson"
)

// Canned improvement texts for the lower-confidence strategies.
const (
	FieldLevelImprovement   = "Prompt enhanced with improved clarity and structure"
	LongestQuoteImprovement = "Enhanced prompt with improved structure and clarity"
	TerminalUnparsed        = "Unable to parse the enhanced response automatically. The AI may have provided a response in an unexpected format."
	TerminalAdvice          = "Please try again with a shorter prompt, or check the server logs for details."
)

// longestQuoteRatio is how long the adopted quote must be relative to the original prompt.
const longestQuoteRatio = 0.8

var (
	fencedBlockPattern  = regexp.MustCompile("(?i)```(?:json)?\\s*(\\{[\\s\\S]*?\\})\\s*```")
	enhancedFieldRegex  = regexp.MustCompile(`"enhancedPrompt"\s*:\s*"((?:[^"\\]|\\.)*)"`)
	improvementsRegion  = regexp.MustCompile(`"improvements"\s*:\s*\[([\s\S]*?)\]`)
	quotedStringPattern = regexp.MustCompile(`"((?:[^"\\]|\\.)*)"`)

	unescaper = strings.NewReplacer(`\\`, `\`, `\"`, `"`, `\n`, "\n", `\t`, "\t")
)

// WholeText succeeds when the entire reply is a JSON object carrying both fields.
func WholeText(raw, _ string) (domain.EnhancementResult, bool) {
	return decodeCandidate(raw)
}

// FencedBlock looks for a markdown code fence, optionally tagged json,
// wrapping an object with both fields.
func FencedBlock(raw, _ string) (domain.EnhancementResult, bool) {
	for _, m := range fencedBlockPattern.FindAllStringSubmatch(raw, -1) {
		if res, ok := decodeCandidate(m[1]); ok {
			return res, true
		}
	}
	return domain.EnhancementResult{}, false
}

// FirstObject decodes the first balanced brace-delimited substring.
func FirstObject(raw, _ string) (domain.EnhancementResult, bool) {
	candidate, ok := firstBalancedObject(raw)
	if !ok {
		return domain.EnhancementResult{}, false
	}
	return decodeCandidate(candidate)
}

// FieldLevel pulls the fields out by pattern when the surrounding text is
// not valid JSON, e.g. trailing commas or a truncated object.
func FieldLevel(raw, _ string) (domain.EnhancementResult, bool) {
	m := enhancedFieldRegex.FindStringSubmatch(raw)
	if m == nil {
		return domain.EnhancementResult{}, false
	}
	enhanced := unescape(m[1])
	if enhanced == "" {
		return domain.EnhancementResult{}, false
	}

	var improvements []string
	if region := improvementsRegion.FindStringSubmatch(raw); region != nil {
		for _, q := range quotedStringPattern.FindAllStringSubmatch(region[1], -1) {
			if s := unescape(q[1]); s != "" {
				improvements = append(improvements, s)
			}
		}
	}
	if len(improvements) == 0 {
		improvements = []string{FieldLevelImprovement}
	}

	return domain.EnhancementResult{
		EnhancedPrompt: enhanced,
		Improvements:   improvements,
	}, true
}

// LongestQuote adopts the longest quoted substring, provided it is not
// meaningfully shorter than the original prompt.
func LongestQuote(raw, original string) (domain.EnhancementResult, bool) {
	matches := quotedStringPattern.FindAllStringSubmatch(raw, -1)
	if len(matches) == 0 {
		return domain.EnhancementResult{}, false
	}

	longest := matches[0]
	for _, m := range matches[1:] {
		if utf8.RuneCountInString(m[0]) >= utf8.RuneCountInString(longest[0]) {
			longest = m
		}
	}

	candidate := unescape(longest[1])
	threshold := float64(utf8.RuneCountInString(original)) * longestQuoteRatio
	if float64(utf8.RuneCountInString(candidate)) <= threshold {
		return domain.EnhancementResult{}, false
	}

	return domain.EnhancementResult{
		EnhancedPrompt: candidate,
		Improvements:   []string{LongestQuoteImprovement},
	}, true
}

// Terminal always succeeds and hands the original prompt back.
func Terminal(_, original string) (domain.EnhancementResult, bool) {
	return domain.EnhancementResult{
		EnhancedPrompt: original,
		Improvements:   []string{TerminalUnparsed, TerminalAdvice},
	}, true
}

// decodeCandidate accepts s only if it is a JSON object whose enhancedPrompt
// is a non-empty string and whose improvements is an array.
func decodeCandidate(s string) (domain.EnhancementResult, bool) {
	if !gjson.Valid(s) {
		return domain.EnhancementResult{}, false
	}
	root := gjson.Parse(s)
	if !root.IsObject() {
		return domain.EnhancementResult{}, false
	}

	prompt := root.Get("enhancedPrompt")
	if prompt.Type != gjson.String || prompt.Str == "" {
		return domain.EnhancementResult{}, false
	}

	list := root.Get("improvements")
	if !list.IsArray() {
		return domain.EnhancementResult{}, false
	}

	improvements := make([]string, 0)
	list.ForEach(func(_, item gjson.Result) bool {
		improvements = append(improvements, item.String())
		return true
	})

	return domain.EnhancementResult{
		EnhancedPrompt: prompt.Str,
		Improvements:   improvements,
	}, true
}

// firstBalancedObject returns the substring from the first '{' to its
// matching '}', skipping braces inside string literals.
func firstBalancedObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}

func unescape(s string) string {
	return unescaper.Replace(s)
}
