// Package remap rewrites tags according to a rule file.
//
// The rule file is a Markdown document whose YAML front matter carries the
// rules, so it can double as human-readable documentation:
//
//	---
//	tagmap:
//	  - tag: js
//	    replace: JavaScript
//	  - tag: KI
//	    replace: Künstliche Intelligenz
//	    casesensitive: true
//	---
//	# Tag remapping
package remap

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

type Rule struct {
	Tag           string `yaml:"tag"`
	Replace       string `yaml:"replace"`
	CaseSensitive bool   `yaml:"casesensitive"`
}

func (r Rule) matches(tag string) bool {
	if r.CaseSensitive {
		return tag == r.Tag
	}

	return strings.EqualFold(tag, r.Tag)
}

// Rules is an ordered rule list, the first matching rule wins.
type Rules []Rule

type frontMatter struct {
	TagMap Rules `yaml:"tagmap"`
}

var delimiter = []byte("---")

// Parse reads the rules out of a document's front matter. A document
// without front matter has no rules.
func Parse(doc []byte) (Rules, error) {
	doc = bytes.TrimPrefix(doc, []byte{0xEF, 0xBB, 0xBF})
	lines := bytes.SplitAfter(doc, []byte("\n"))
	if len(lines) == 0 || !bytes.Equal(bytes.TrimSpace(lines[0]), delimiter) {
		return Rules{}, nil
	}

	var matter bytes.Buffer
	closed := false
	for _, line := range lines[1:] {
		if bytes.Equal(bytes.TrimSpace(line), delimiter) {
			closed = true
			break
		}
		matter.Write(line)
	}
	if !closed {
		return nil, fmt.Errorf("error parsing tag map: front matter is not terminated")
	}

	var fm frontMatter
	if err := yaml.Unmarshal(matter.Bytes(), &fm); err != nil {
		return nil, fmt.Errorf("error parsing tag map: %w", err)
	}
	if fm.TagMap == nil {
		return Rules{}, nil
	}

	return fm.TagMap, nil
}

// Load parses the rule file at path. An empty path means no rules.
func Load(path string) (Rules, error) {
	if path == "" {
		return Rules{}, nil
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading tag map: %w", err)
	}

	return Parse(b)
}

// Apply returns the replacement for tag, or tag itself when no rule
// matches. A replacement may be empty, which drops the tag.
func (rs Rules) Apply(tag string) string {
	for _, r := range rs {
		if r.matches(tag) {
			return r.Replace
		}
	}

	return tag
}

// ApplyAll remaps every tag, dropping those that end up empty.
func (rs Rules) ApplyAll(tags []string) []string {
	ret := make([]string, 0, len(tags))
	for _, t := range tags {
		if t = strings.TrimSpace(rs.Apply(strings.TrimSpace(t))); t != "" {
			ret = append(ret, t)
		}
	}

	return ret
}
