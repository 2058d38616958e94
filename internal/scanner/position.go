package scanner

import (
	"sort"
	"strings"
)

// lineIndex maps byte offsets to 1-based line and column numbers.
type lineIndex struct {
	src    string
	starts []int
}

func newLineIndex(src string) *lineIndex {
	starts := []int{0}
	for i := 0; i < len(src); i++ {
		if src[i] == '\n' {
			starts = append(starts, i+1)
		}
	}
	return &lineIndex{src: src, starts: starts}
}

func (li *lineIndex) position(offset int) (line, col int) {
	i := sort.Search(len(li.starts), func(i int) bool { return li.starts[i] > offset }) - 1
	return i + 1, offset - li.starts[i] + 1
}

// text returns the content of a 1-based line without its terminator.
func (li *lineIndex) text(line int) string {
	if line < 1 || line > len(li.starts) {
		return ""
	}
	start := li.starts[line-1]
	end := len(li.src)
	if line < len(li.starts) {
		end = li.starts[line] - 1
	}
	return strings.TrimRight(li.src[start:end], "\r")
}

// Position converts a byte offset in text to a 1-based line and column.
func Position(text string, offset int) (line, col int) {
	if offset < 0 {
		offset = 0
	}
	if offset > len(text) {
		offset = len(text)
	}
	return newLineIndex(text).position(offset)
}

// LineAt returns the 1-based line of text without its terminator.
func LineAt(text string, line int) string {
	return newLineIndex(text).text(line)
}
