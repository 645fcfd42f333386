// Package report assembles the vtb follow summary handed to the render service.
package report

import (
	"fmt"

	"github.com/tartampluch/go-ddcheck/internal/bilibili"
	"github.com/tartampluch/go-ddcheck/internal/config"
	"github.com/tartampluch/go-ddcheck/internal/vtb"
)

// Report is the template payload. JSON keys follow the render template.
type Report struct {
	Name         string  `json:"name"`
	UID          int64   `json:"uid"`
	AvatarURL    string  `json:"face"`
	FanCount     int64   `json:"fans"`
	FollowCount  int64   `json:"follows"`
	Percent      string  `json:"percent"`
	Matches      []Match `json:"vtbs"`
	PageSizeHint int     `json:"p"`
}

// Match is one followed vtb.
type Match struct {
	Name  string `json:"name"`
	UID   int64  `json:"uid"`
	Medal Badge  `json:"medal"`
}

// Badge is the display form of a medal. The zero Badge encodes as {}.
type Badge struct {
	Name        string `json:"name,omitempty"`
	Level       int    `json:"level,omitempty"`
	ColorBorder string `json:"color_border,omitempty"`
	ColorStart  string `json:"color_start,omitempty"`
	ColorEnd    string `json:"color_end,omitempty"`
}

// IsZero reports whether the user wears no medal for this vtb.
func (b Badge) IsZero() bool {
	return b == Badge{}
}

// Build intersects the profile's follows with the vtb list and attaches medals.
// Medals are matched by owner display name; on duplicate names the last one wins.
func Build(p bilibili.Profile, list vtb.List, medals []bilibili.Medal) Report {
	medalByName := make(map[string]bilibili.Medal, len(medals))
	for _, m := range medals {
		medalByName[m.OwnerName] = m
	}

	matches := make([]Match, 0)
	for _, e := range dedupe(list) {
		if !p.Follows(e.ID) {
			continue
		}
		match := Match{Name: e.Name, UID: e.ID}
		if m, ok := medalByName[e.Name]; ok {
			match.Medal = badge(m)
		}
		matches = append(matches, match)
	}

	return Report{
		Name:         p.Name,
		UID:          p.ID,
		AvatarURL:    p.AvatarURL,
		FanCount:     p.FanCount,
		FollowCount:  p.FollowCount,
		Percent:      FormatPercent(len(matches), p.FollowCount),
		Matches:      matches,
		PageSizeHint: PageSizeHint(len(matches)),
	}
}

// dedupe indexes the list by id: an id keeps the position of its first
// occurrence and the value of its last one.
func dedupe(list vtb.List) vtb.List {
	pos := make(map[int64]int, len(list))
	out := make(vtb.List, 0, len(list))
	for _, e := range list {
		if i, ok := pos[e.ID]; ok {
			out[i] = e
			continue
		}
		pos[e.ID] = len(out)
		out = append(out, e)
	}
	return out
}

func badge(m bilibili.Medal) Badge {
	return Badge{
		Name:        m.Name,
		Level:       m.Level,
		ColorBorder: FormatColor(m.ColorBorder),
		ColorStart:  FormatColor(m.ColorStart),
		ColorEnd:    FormatColor(m.ColorEnd),
	}
}

// FormatPercent renders "X.XX% (matches/follows)". Zero follows yields 0.00.
func FormatPercent(matches int, follows int64) string {
	percent := 0.0
	if follows != 0 {
		percent = float64(matches) / float64(follows) * 100
	}
	return fmt.Sprintf(config.PercentFormat, percent, matches, follows)
}

// PageSizeHint spreads matches evenly over the fewest pages holding at most
// config.PageCapacity items each. Zero matches yield 0.
func PageSizeHint(matches int) int {
	if matches <= 0 {
		return 0
	}
	pages := ceilDiv(matches, config.PageCapacity)
	return ceilDiv(matches, pages)
}

// FormatColor renders a 24-bit RGB integer as #RRGGBB.
func FormatColor(rgb int) string {
	return fmt.Sprintf(config.ColorFormat, rgb)
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}
