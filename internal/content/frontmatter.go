package content

import (
	"regexp"

	"gopkg.in/yaml.v3"

	ierr "github.com/davidgrier/inkwell/internal/errors"
)

// frontMatterPattern matches a leading front-matter block:
//
//	---
//	key: value
//	---
var frontMatterPattern = regexp.MustCompile(`(?s)\A---\r?\n(.*?)\r?\n---\r?\n?`)

// SplitFrontMatter separates the front-matter block from the body text.
// A document without a front-matter block yields an empty block and the
// full content as body; whether that is acceptable is decided later by
// the normalizer (a missing title fails the document, not the run).
func SplitFrontMatter(raw []byte) (block []byte, body string) {
	m := frontMatterPattern.FindSubmatchIndex(raw)
	if m == nil {
		return nil, string(raw)
	}
	return raw[m[2]:m[3]], string(raw[m[1]:])
}

// ParseFrontMatter parses the raw front-matter block into FrontMatter.
// An unparseable block is a document-level error.
func ParseFrontMatter(path string, block []byte) (FrontMatter, error) {
	var fm FrontMatter
	if len(block) == 0 {
		return fm, nil
	}
	if err := yaml.Unmarshal(block, &fm); err != nil {
		return FrontMatter{}, ierr.DocumentError(ierr.ErrCodeDocBadFront, path, err)
	}
	return fm, nil
}
