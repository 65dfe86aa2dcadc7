package source

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// Pointers have the form "file:///path/to/file#linenum".

// LocalPtrInfo contains parsed information from a local file pointer.
type LocalPtrInfo struct {
	FilePath string
	LineNum  int
}

// MakeLocalPtr creates a local file pointer from a file path and line number.
func MakeLocalPtr(filepath string, lineNum int) string {
	return fmt.Sprintf("file://%s#%d", filepath, lineNum)
}

// ParseLocalPtr extracts file path and line number from a local pointer.
// Bare "path#line" strings are accepted too, since that is what the text
// output prints.
func ParseLocalPtr(ptr string) (LocalPtrInfo, bool) {
	if !strings.HasPrefix(ptr, "file://") {
		if !strings.Contains(ptr, "://") && strings.Contains(ptr, "#") {
			ptr = "file://" + ptr
		} else {
			return LocalPtrInfo{}, false
		}
	}

	idx := strings.LastIndex(ptr, "#")
	if idx < 0 {
		return LocalPtrInfo{}, false
	}
	path, frag := ptr[len("file://"):idx], ptr[idx+1:]

	// Paths may arrive percent-encoded when copied out of a browser.
	if unescaped, err := url.PathUnescape(path); err == nil {
		path = unescaped
	}
	if path == "" {
		return LocalPtrInfo{}, false
	}

	lineNum, err := strconv.Atoi(frag)
	if err != nil || lineNum < 1 {
		return LocalPtrInfo{}, false
	}

	return LocalPtrInfo{
		FilePath: path,
		LineNum:  lineNum,
	}, true
}
