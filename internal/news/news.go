// Package news tracks Gentoo repository news items: enumeration through
// eselect, bodies from the repository metadata tree, and a local read-state
// that survives content refreshes.
package news

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/portscope/portscope/internal/common/logger"
	"github.com/portscope/portscope/internal/common/run"
	"github.com/portscope/portscope/internal/eix"
	"github.com/portscope/portscope/internal/state"
)

// listLineRegex matches one eselect news list line:
// "N  2024-05-23  Change of ACCEPT_LICENSE default".
// The leading N marks unread; read items start with whitespace.
var listLineRegex = regexp.MustCompile(`^(N?)\s+(\d{4}-\d{2}-\d{2})\s+(.+)$`)

// Item is one news item
type Item struct {
	// Index is the 1-based position in eselect's listing, used to address
	// the item in eselect commands
	Index int    `json:"index"`
	Date  string `json:"date"`
	Title string `json:"title"`
	// Read joins eselect's marker with the local read-state
	Read bool `json:"read"`

	Author             string `json:"author,omitempty"`
	Posted             string `json:"posted,omitempty"`
	Revision           string `json:"revision,omitempty"`
	FormatVersion      string `json:"format_version,omitempty"`
	DisplayIfInstalled string `json:"display_if_installed,omitempty"`
	Content            string `json:"content,omitempty"`
}

// ID returns the stable identity of the item, independent of its index,
// so read marks survive list reordering and content refreshes.
func (i Item) ID() string {
	slug := strings.ToLower(i.Title)
	slug = strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			return r
		}
		return '-'
	}, slug)
	slug = strings.Trim(regexp.MustCompile(`-+`).ReplaceAllString(slug, "-"), "-")
	return i.Date + "-" + slug
}

// Tracker enumerates news and manages read-state
type Tracker struct {
	runner run.Runner
	state  *state.Store
	eix    *eix.Client
}

// NewTracker creates a Tracker
func NewTracker(runner run.Runner, stateStore *state.Store, eixClient *eix.Client) *Tracker {
	return &Tracker{runner: runner, state: stateStore, eix: eixClient}
}

// List returns all news items with bodies loaded from the repository tree.
// Items whose body file cannot be found keep their listing data only.
func (t *Tracker) List(ctx context.Context) ([]Item, error) {
	res, err := t.runner.Run(ctx, run.Request{
		Argv:    []string{"eselect", "--colour=no", "--brief", "news", "list"},
		Capture: true,
	})
	if err != nil {
		return nil, fmt.Errorf("eselect news list failed: %w", err)
	}

	newsDir := filepath.Join(t.eix.RepoPath(ctx), "metadata", "news")

	var items []Item
	index := 0
	for _, line := range strings.Split(res.Stdout, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		index++

		m := listLineRegex.FindStringSubmatch(line)
		if m == nil {
			logger.Debug("unparseable news listing line: %q", line)
			continue
		}

		item := Item{
			Index: index,
			Date:  m[2],
			Title: strings.TrimSpace(m[3]),
			Read:  m[1] != "N",
		}
		if t.state.IsNewsRead(item.ID()) {
			item.Read = true
		}

		t.loadBody(&item, newsDir)
		items = append(items, item)
	}

	return items, nil
}

// loadBody fills the item from its news file under
// <repo>/metadata/news/<date>-*/<date>-*.txt when one exists.
func (t *Tracker) loadBody(item *Item, newsDir string) {
	matches, err := filepath.Glob(filepath.Join(newsDir, item.Date+"-*", item.Date+"-*.txt"))
	if err != nil || len(matches) == 0 {
		return
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		logger.Debug("news body unreadable at %s: %v", matches[0], err)
		return
	}

	headers, content := parseNewsFile(string(data))
	item.Author = headers["author"]
	item.Posted = headers["posted"]
	item.Revision = headers["revision"]
	item.FormatVersion = headers["news-item-format"]
	item.DisplayIfInstalled = headers["display-if-installed"]
	item.Content = content
}

// parseNewsFile splits a news file into its header fields and body. Headers
// run until the first blank line, one "Key: value" per line.
func parseNewsFile(text string) (map[string]string, string) {
	headers := make(map[string]string)
	lines := strings.Split(text, "\n")

	bodyStart := len(lines)
	for i, line := range lines {
		if strings.TrimSpace(line) == "" {
			bodyStart = i + 1
			break
		}
		key, value, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		headers[strings.ToLower(strings.TrimSpace(key))] = strings.TrimSpace(value)
	}

	body := ""
	if bodyStart < len(lines) {
		body = strings.TrimSpace(strings.Join(lines[bodyStart:], "\n"))
	}
	return headers, body
}

// MarkRead marks one item read, both in eselect and locally. A failing
// eselect call does not lose the local mark.
func (t *Tracker) MarkRead(ctx context.Context, item Item) error {
	if _, err := t.runner.Run(ctx, run.Request{
		Argv:    []string{"eselect", "news", "read", "--quiet", strconv.Itoa(item.Index)},
		Capture: true,
	}); err != nil {
		logger.Warn("eselect news read failed: %v", err)
	}
	return t.state.MarkNewsRead(item.ID())
}

// MarkAllRead marks every listed item read. Idempotent.
func (t *Tracker) MarkAllRead(ctx context.Context, items []Item) error {
	if _, err := t.runner.Run(ctx, run.Request{
		Argv:    []string{"eselect", "news", "read", "--quiet", "all"},
		Capture: true,
	}); err != nil {
		logger.Warn("eselect news read all failed: %v", err)
	}

	ids := make([]string, len(items))
	for i, item := range items {
		ids[i] = item.ID()
	}
	return t.state.MarkAllNewsRead(ids)
}

// Purge drops read items from eselect and forgets the local read marks
func (t *Tracker) Purge(ctx context.Context) error {
	if _, err := t.runner.Run(ctx, run.Request{
		Argv:    []string{"eselect", "news", "purge"},
		Capture: true,
	}); err != nil {
		return fmt.Errorf("eselect news purge failed: %w", err)
	}
	return t.state.PurgeNewsRead()
}
