package podcast

import (
	"regexp"
	"slices"
	"strconv"
	"strings"
)

// Match types understood by [IsMatch].
const (
	MatchString                = "string"
	MatchStringCaseInsensitive = "string_caseinsensitive"
	MatchInteger               = "integer"
	MatchInt                   = "int"
	MatchRegex                 = "regex"
	MatchContains              = "contains"
	MatchContainsCaseSensitive = "contains_casesensitive"
)

// fieldValue holds exactly one of the three shapes a field can take.
type fieldValue struct {
	str   *string
	num   *int
	list  []string
	isSet bool
}

func strVal(s string) fieldValue {
	return fieldValue{str: &s, isSet: true}
}

func ptrVal(s *string) fieldValue {
	if s == nil {
		return fieldValue{}
	}
	return strVal(*s)
}

func numVal(n int) fieldValue {
	return fieldValue{num: &n, isSet: true}
}

// field resolves a field name to the episode's value. Unknown names and
// unset values come back unset.
func (e Episode) field(name string) fieldValue {
	switch strings.ToLower(name) {
	case "guid":
		return strVal(e.GUID)
	case "title":
		return strVal(e.Title)
	case "description":
		return strVal(e.Description)
	case "link":
		return strVal(e.Link)
	case "cover", "image":
		return strVal(e.CoverURL)
	case "subtitle":
		return ptrVal(e.Subtitle)
	case "summary":
		return ptrVal(e.Summary)
	case "author":
		return ptrVal(e.Author)
	case "explicit":
		return ptrVal(e.Explicit)
	case "shownotes", "content":
		return ptrVal(e.Shownotes)
	case "episodetype", "type":
		return ptrVal(e.EpisodeType)
	case "episode", "number":
		if !e.HasNumber() {
			return fieldValue{}
		}
		return numVal(e.EpisodeNumber)
	case "season":
		if !e.HasSeason() {
			return fieldValue{}
		}
		return numVal(e.Season)
	case "duration":
		return numVal(e.DurationSeconds)
	case "tags", "keywords":
		if len(e.Tags) == 0 {
			return fieldValue{}
		}
		return fieldValue{list: e.Tags, isSet: true}
	}

	return fieldValue{}
}

// IsMatch reports whether the episode's field matches pattern under
// matchType. Unset fields and unknown match types never match.
func IsMatch(e Episode, matchType, field, pattern string) bool {
	v := e.field(field)
	if !v.isSet || matchType == "" {
		return false
	}

	switch matchType {
	case MatchString:
		return v.text() == pattern
	case MatchStringCaseInsensitive:
		return strings.EqualFold(v.text(), pattern)
	case MatchInteger, MatchInt:
		want, err := strconv.Atoi(strings.TrimSpace(pattern))
		if err != nil {
			return false
		}
		if v.num != nil {
			return *v.num == want
		}
		got, err := strconv.Atoi(strings.TrimSpace(v.text()))
		return err == nil && got == want
	case MatchRegex:
		re, err := compilePattern(pattern)
		if err != nil {
			return false
		}
		if v.list != nil {
			return slices.ContainsFunc(v.list, re.MatchString)
		}
		return re.MatchString(v.text())
	case MatchContains:
		if v.list != nil {
			return slices.ContainsFunc(v.list, func(s string) bool { return strings.EqualFold(s, pattern) })
		}
		return strings.Contains(strings.ToLower(v.text()), strings.ToLower(pattern))
	case MatchContainsCaseSensitive:
		if v.list != nil {
			return slices.Contains(v.list, pattern)
		}
		return strings.Contains(v.text(), pattern)
	}

	return false
}

func (v fieldValue) text() string {
	switch {
	case v.str != nil:
		return *v.str
	case v.num != nil:
		return strconv.Itoa(*v.num)
	default:
		return strings.Join(v.list, ", ")
	}
}

var delimitedPattern = regexp.MustCompile(`^([/!#~])(.*)([/!#~])([a-zA-Z]*)$`)

// compilePattern accepts plain Go syntax or a delimited "/expr/flags" form.
func compilePattern(pattern string) (*regexp.Regexp, error) {
	m := delimitedPattern.FindStringSubmatch(pattern)
	if m == nil || m[1] != m[3] {
		return regexp.Compile(pattern)
	}

	var flags strings.Builder
	for _, f := range m[4] {
		switch f {
		case 'i', 'm', 's', 'U':
			flags.WriteRune(f)
		}
	}
	expr := m[2]
	if flags.Len() > 0 {
		expr = "(?" + flags.String() + ")" + expr
	}

	return regexp.Compile(expr)
}

// FilterEpisodes returns the episodes matching pattern, keeping feed order.
//
// Filtering on "episode" treats episodes without a number specially: they
// match when their position counted from the oldest episode, starting at
// zero, equals the pattern. The store numbers them the same way.
func FilterEpisodes(episodes []Episode, matchType, field, pattern string) []Episode {
	ret := []Episode{}
	isEpisodeField := strings.EqualFold(field, "episode")
	for idx, e := range episodes {
		if isEpisodeField && !e.HasNumber() {
			pos, err := strconv.Atoi(strings.TrimSpace(pattern))
			if err == nil && PositionalNumber(idx, len(episodes)) == pos {
				ret = append(ret, e)
			}
			continue
		}
		if IsMatch(e, matchType, field, pattern) {
			ret = append(ret, e)
		}
	}

	return ret
}

// PositionalNumber is the number an unnumbered episode at feed index idx
// stands for: the oldest of total episodes is 0.
func PositionalNumber(idx, total int) int {
	return total - 1 - idx
}

// EpisodeByGUID returns the first episode with the given guid.
func EpisodeByGUID(episodes []Episode, guid string) (Episode, bool) {
	found := FilterEpisodes(episodes, MatchString, "guid", guid)
	if len(found) == 0 {
		return Episode{}, false
	}

	return found[0], true
}

// EpisodeByNumber returns the first episode with the given number, using
// the positional rule for unnumbered episodes.
func EpisodeByNumber(episodes []Episode, number int) (Episode, bool) {
	found := FilterEpisodes(episodes, MatchInteger, "episode", strconv.Itoa(number))
	if len(found) == 0 {
		return Episode{}, false
	}

	return found[0], true
}

// LatestEpisode is the first episode in feed order.
func LatestEpisode(episodes []Episode) (Episode, bool) {
	if len(episodes) == 0 {
		return Episode{}, false
	}

	return episodes[0], true
}

// TotalDuration sums the episodes' durations in seconds.
func TotalDuration(episodes []Episode) int {
	total := 0
	for _, e := range episodes {
		total += e.DurationSeconds
	}

	return total
}
