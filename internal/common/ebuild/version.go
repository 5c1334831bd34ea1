package ebuild

import (
	"regexp"
	"strconv"
	"strings"
)

// Release-cycle ordering of version suffixes; unsuffixed releases sit at
// zero, patch releases above.
var suffixRank = map[string]int{
	"alpha": -4,
	"beta":  -3,
	"pre":   -2,
	"rc":    -1,
	"":      0,
	"p":     1,
}

var (
	suffixRegex   = regexp.MustCompile(`_([a-z]+)(\d*)`)
	revisionRegex = regexp.MustCompile(`-r(\d+)$`)
)

// parsed holds the comparable components of one version string
type parsed struct {
	nums      []int
	suffix    string
	suffixNum int
	revision  int
}

func parseVersion(v string) parsed {
	var p parsed

	if m := revisionRegex.FindStringSubmatch(v); m != nil {
		p.revision, _ = strconv.Atoi(m[1])
		v = revisionRegex.ReplaceAllString(v, "")
	}

	if m := suffixRegex.FindStringSubmatch(v); m != nil {
		p.suffix = m[1]
		if m[2] != "" {
			p.suffixNum, _ = strconv.Atoi(m[2])
		}
		v = suffixRegex.ReplaceAllString(v, "")
	}

	parts := strings.Split(v, ".")
	p.nums = make([]int, len(parts))
	for i, part := range parts {
		// Trailing letters ("1.0b") do not affect the numeric component.
		numStr := strings.TrimRight(part, "abcdefghijklmnopqrstuvwxyz")
		if numStr != "" {
			p.nums[i], _ = strconv.Atoi(numStr)
		}
	}

	return p
}

func compareNums(a, b []int) int {
	n := len(a)
	if len(b) > n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		var av, bv int
		if i < len(a) {
			av = a[i]
		}
		if i < len(b) {
			bv = b[i]
		}
		if av != bv {
			if av < bv {
				return -1
			}
			return 1
		}
	}
	return 0
}

// CompareVersions orders two Gentoo-style version strings.
// Returns -1 when v1 is older, 0 when equal, 1 when newer.
func CompareVersions(v1, v2 string) int {
	p1 := parseVersion(v1)
	p2 := parseVersion(v2)

	if cmp := compareNums(p1.nums, p2.nums); cmp != 0 {
		return cmp
	}
	if r1, r2 := suffixRank[p1.suffix], suffixRank[p2.suffix]; r1 != r2 {
		if r1 < r2 {
			return -1
		}
		return 1
	}
	if p1.suffixNum != p2.suffixNum {
		if p1.suffixNum < p2.suffixNum {
			return -1
		}
		return 1
	}
	if p1.revision != p2.revision {
		if p1.revision < p2.revision {
			return -1
		}
		return 1
	}
	return 0
}

// LatestVersion returns the newest version in versions, skipping live
// ebuilds. Empty when versions contains only live ebuilds or nothing.
func LatestVersion(versions []string) string {
	latest := ""
	for _, v := range versions {
		if IsLive(v) {
			continue
		}
		if latest == "" || CompareVersions(v, latest) > 0 {
			latest = v
		}
	}
	return latest
}
