package detect

import (
	"strings"

	regexp "github.com/wasilibs/go-re2"
)

// inlineCodeRe matches single and double backtick code spans.
var inlineCodeRe = regexp.MustCompile("``([^`]+)``|`([^`]+)`")

// codeLine is one line of code found in a text.
type codeLine struct {
	index  int    // 0-based line index in the scanned text
	code   string // the code itself
	source string // the full text line, used for excerpts
}

// codeBlock is a fenced block or a single inline code span.
type codeBlock []codeLine

// splitLines splits text into lines without their terminators.
func splitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.Split(text, "\n")
}

// fence reports whether line opens or closes a fenced code block, returning
// the fence character and run length.
func fence(line string) (byte, int, string) {
	trimmed := strings.TrimLeft(line, " ")
	if len(line)-len(trimmed) > 3 || len(trimmed) < 3 {
		return 0, 0, ""
	}
	c := trimmed[0]
	if c != '`' && c != '~' {
		return 0, 0, ""
	}
	n := 0
	for n < len(trimmed) && trimmed[n] == c {
		n++
	}
	if n < 3 {
		return 0, 0, ""
	}
	return c, n, trimmed[n:]
}

// fencedLines marks every line that belongs to a fenced code block,
// delimiters included. An unclosed fence runs to the end of the text.
func fencedLines(lines []string) []bool {
	marks := make([]bool, len(lines))
	var open byte
	var openLen int
	for i, line := range lines {
		c, n, rest := fence(line)
		switch {
		case open == 0 && c != 0:
			open, openLen = c, n
			marks[i] = true
		case open != 0:
			marks[i] = true
			if c == open && n >= openLen && strings.TrimSpace(rest) == "" {
				open = 0
			}
		}
	}
	return marks
}

// codeBlocks collects fenced blocks and inline code spans from lines. Fence
// delimiter lines are not part of a block; an unclosed fence runs to the end
// of the text.
func codeBlocks(lines []string) []codeBlock {
	var blocks []codeBlock
	var current codeBlock
	var open byte
	var openLen int
	for i, line := range lines {
		c, n, rest := fence(line)
		if open == 0 {
			if c != 0 {
				open, openLen = c, n
				current = nil
				continue
			}
			for _, m := range inlineCodeRe.FindAllStringSubmatch(line, -1) {
				code := m[1]
				if code == "" {
					code = m[2]
				}
				blocks = append(blocks, codeBlock{{index: i, code: code, source: line}})
			}
			continue
		}
		if c == open && n >= openLen && strings.TrimSpace(rest) == "" {
			if len(current) > 0 {
				blocks = append(blocks, current)
			}
			open, current = 0, nil
			continue
		}
		current = append(current, codeLine{index: i, code: line, source: line})
	}
	if open != 0 && len(current) > 0 {
		blocks = append(blocks, current)
	}
	return blocks
}

// stripInlineCode blanks inline code spans so prose-only rules skip them.
func stripInlineCode(line string) string {
	return inlineCodeRe.ReplaceAllStringFunc(line, func(s string) string {
		return strings.Repeat(" ", len(s))
	})
}
