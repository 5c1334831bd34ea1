// Package overlay manages ebuild repositories beyond the main tree: the
// public catalog, local enablement, syncing and package counting.
package overlay

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// ErrCatalogUnavailable is returned when the catalog could not be fetched
// or parsed
var ErrCatalogUnavailable = errors.New("overlay catalog unavailable")

// Repository is one catalog entry from repositories.xml
type Repository struct {
	Name        string   `xml:"name" json:"name"`
	Description string   `xml:"-" json:"description,omitempty"`
	Homepage    string   `xml:"homepage" json:"homepage,omitempty"`
	Owner       Owner    `xml:"owner" json:"owner"`
	Sources     []Source `xml:"source" json:"sources,omitempty"`
	Feeds       []string `xml:"feed" json:"feeds,omitempty"`
	// Quality is "core" or "experimental"
	Quality string `xml:"quality,attr" json:"quality,omitempty"`
	// Status is "official" or "unofficial"
	Status string `xml:"status,attr" json:"status,omitempty"`

	// Descriptions carries all language variants; Description holds the
	// English one after normalization
	Descriptions []description `xml:"description" json:"-"`
}

type description struct {
	Lang string `xml:"lang,attr"`
	Text string `xml:",chardata"`
}

// Owner identifies who maintains a repository
type Owner struct {
	Type  string `xml:"type,attr" json:"type,omitempty"`
	Name  string `xml:"name" json:"name,omitempty"`
	Email string `xml:"email" json:"email,omitempty"`
}

// Source is one sync location of a repository
type Source struct {
	// Type is the VCS kind: git, mercurial, rsync or svn
	Type string `xml:"type,attr" json:"type,omitempty"`
	URL  string `xml:",chardata" json:"url"`
}

type catalogDocument struct {
	XMLName      xml.Name     `xml:"repositories"`
	Repositories []Repository `xml:"repo"`
}

// parseCatalog decodes a repositories.xml document and resolves the
// English description for each entry, falling back to the first variant.
func parseCatalog(r io.Reader) ([]Repository, error) {
	var doc catalogDocument
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCatalogUnavailable, err)
	}

	for i := range doc.Repositories {
		repo := &doc.Repositories[i]
		for _, d := range repo.Descriptions {
			if d.Lang == "en" || d.Lang == "" {
				repo.Description = d.Text
				break
			}
		}
		if repo.Description == "" && len(repo.Descriptions) > 0 {
			repo.Description = repo.Descriptions[0].Text
		}
		repo.Descriptions = nil
	}

	return doc.Repositories, nil
}

// fetchCatalog downloads and parses the catalog from url
func fetchCatalog(ctx context.Context, client *RetryableHTTPClient, url string) ([]Repository, error) {
	resp, err := client.GetWithContext(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCatalogUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d from %s", ErrCatalogUnavailable, resp.StatusCode, url)
	}

	return parseCatalog(resp.Body)
}
