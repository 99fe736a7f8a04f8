package dataset

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"unicode/utf8"
)

// maxLineBytes bounds a single input line. Participation lines for prolific
// people can be long, so this is well above bufio's 64K default.
const maxLineBytes = 16 * 1024 * 1024

// scanLines calls fn for every line of path with the line terminator
// removed. lineNo is 1-based.
func scanLines(path string, fn func(lineNo int, line string)) error {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return notFound(path, err)
		}
		return ioFailure(path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		raw := scanner.Bytes()
		if !utf8.Valid(raw) {
			return ioFailure(path, fmt.Errorf("line %d: invalid UTF-8", lineNo))
		}
		fn(lineNo, strings.TrimRight(string(raw), "\r\n"))
	}
	if err := scanner.Err(); err != nil {
		return ioFailure(path, fmt.Errorf("after line %d: %w", lineNo, err))
	}
	return nil
}
