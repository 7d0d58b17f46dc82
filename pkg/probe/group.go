package probe

import (
	"errors"
	"fmt"
	"iter"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// Filename grammar: span_probe_G_SSSSS.ext
const (
	filePrefix  = "span_probe"
	groupOffset = 11
	stepOffset  = 13
	stepDigits  = 5
	extOffset   = stepOffset + stepDigits
)

// Groups lists the probe group ids the solver writes.
var Groups = [...]int{1, 2, 3}

var (
	// ErrFilename is matched by every FilenameError.
	ErrFilename = errors.New("malformed probe filename")
	// ErrUnknownGroup is matched by every UnknownGroupError.
	ErrUnknownGroup = errors.New("unknown probe group")
)

// FilenameError reports a name that does not follow the probe filename grammar.
type FilenameError struct {
	Path   string
	Reason string
}

func (e *FilenameError) Error() string {
	return fmt.Sprintf("malformed probe filename %q: %s", e.Path, e.Reason)
}

// Is reports whether target is ErrFilename.
func (e *FilenameError) Is(target error) bool { return target == ErrFilename }

// UnknownGroupError reports a well-formed name carrying a group id the
// decoder has no slot for.
type UnknownGroupError struct {
	Group int
	Path  string
}

func (e *UnknownGroupError) Error() string {
	return fmt.Sprintf("probe group %d of %q is not one of 1, 2, 3", e.Group, e.Path)
}

// Is reports whether target is ErrUnknownGroup.
func (e *UnknownGroupError) Is(target error) bool { return target == ErrUnknownGroup }

// Info is the metadata carried by a probe filename.
type Info struct {
	Path  string
	Step  int
	Group int
}

// IsProbeFile reports whether a directory entry looks like a probe file.
func IsProbeFile(name string) bool {
	return strings.Contains(filepath.Base(name), filePrefix)
}

// ParseInfo extracts the group and step ids from a probe file path.
// Only the base name is inspected.
func ParseInfo(path string) (Info, error) {
	base := filepath.Base(path)
	fail := func(reason string) (Info, error) {
		return Info{}, &FilenameError{Path: path, Reason: reason}
	}

	switch {
	case !strings.HasPrefix(base, filePrefix):
		return fail("missing " + filePrefix + " prefix")
	case len(base) < extOffset+2:
		return fail("name too short")
	case base[groupOffset-1] != '_' || base[stepOffset-1] != '_':
		return fail("expected '_' separators around the group id")
	case base[extOffset] != '.':
		return fail("expected '.' after the step id")
	}

	g := base[groupOffset]
	if g < '0' || g > '9' {
		return fail(fmt.Sprintf("group id %q is not a digit", g))
	}

	digits := base[stepOffset:extOffset]
	for i := 0; i < len(digits); i++ {
		if digits[i] < '0' || digits[i] > '9' {
			return fail(fmt.Sprintf("step id %q is not %d decimal digits", digits, stepDigits))
		}
	}
	step, err := strconv.Atoi(digits)
	if err != nil {
		return fail(err.Error())
	}

	info := Info{Path: path, Step: step, Group: int(g - '0')}
	if info.Group < Groups[0] || info.Group > Groups[len(Groups)-1] {
		return Info{}, &UnknownGroupError{Group: info.Group, Path: path}
	}

	return info, nil
}

// Grouping holds probe files per group, each ordered by step.
type Grouping struct {
	One   []Info
	Two   []Info
	Three []Info
}

// Group parses every path and sorts the files of each group by ascending
// step. Files sharing a step within a group have no defined relative order.
// The first unparseable path fails the whole grouping.
func Group(paths iter.Seq[string]) (*Grouping, error) {
	g := &Grouping{}
	for p := range paths {
		info, err := ParseInfo(p)
		if err != nil {
			return nil, err
		}
		slot := g.slot(info.Group)
		*slot = append(*slot, info)
	}

	for _, id := range Groups {
		infos := *g.slot(id)
		sort.Slice(infos, func(a, b int) bool { return infos[a].Step < infos[b].Step })
	}

	return g, nil
}

func (g *Grouping) slot(id int) *[]Info {
	switch id {
	case 1:
		return &g.One
	case 2:
		return &g.Two
	case 3:
		return &g.Three
	}
	return nil
}

// Get returns the files of group id, or nil for an unknown id.
func (g *Grouping) Get(id int) []Info {
	if s := g.slot(id); s != nil {
		return *s
	}
	return nil
}

// Paths returns the file paths of group id in step order.
func (g *Grouping) Paths(id int) []string {
	infos := g.Get(id)
	out := make([]string, len(infos))
	for i, info := range infos {
		out[i] = info.Path
	}
	return out
}

// Len returns the total number of grouped files.
func (g *Grouping) Len() int {
	return len(g.One) + len(g.Two) + len(g.Three)
}

// Filter returns a new grouping holding the files keep accepts, in the same
// order. An error from keep aborts the filter.
func (g *Grouping) Filter(keep func(Info) (bool, error)) (*Grouping, error) {
	out := &Grouping{}
	for _, id := range Groups {
		dst := out.slot(id)
		for _, info := range g.Get(id) {
			ok, err := keep(info)
			if err != nil {
				return nil, fmt.Errorf("filtering %s: %w", info.Path, err)
			}
			if ok {
				*dst = append(*dst, info)
			}
		}
	}
	return out, nil
}
