package eix

import (
	"fmt"
	"strings"

	"github.com/antchfx/xmlquery"
)

// parseSearchOutput turns eix --xml output into package records.
//
// A document that does not parse at all is an error; within a parseable
// document, degraded records are kept and tagged rather than dropped.
func parseSearchOutput(xml string) ([]Package, error) {
	doc, err := xmlquery.Parse(strings.NewReader(xml))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnparseable, err)
	}

	var packages []Package
	for _, catNode := range xmlquery.Find(doc, "//category") {
		category := catNode.SelectAttr("name")
		for _, pkgNode := range xmlquery.Find(catNode, "package") {
			packages = append(packages, parsePackage(pkgNode, category))
		}
	}

	return packages, nil
}

func parsePackage(node *xmlquery.Node, category string) Package {
	pkg := Package{
		Category: category,
		Name:     node.SelectAttr("name"),
	}

	if pkg.Category == "" {
		pkg.Missing = append(pkg.Missing, "category")
	}
	if pkg.Name == "" {
		pkg.Missing = append(pkg.Missing, "name")
	}
	// Without an identity the rest of the record cannot be attributed.
	if pkg.Category == "" || pkg.Name == "" {
		pkg.Completeness = Unparseable
		return pkg
	}

	if n := xmlquery.FindOne(node, "description"); n != nil {
		pkg.Description = strings.TrimSpace(n.InnerText())
	} else {
		pkg.Missing = append(pkg.Missing, "description")
	}

	if n := xmlquery.FindOne(node, "homepage"); n != nil {
		pkg.Homepage = strings.TrimSpace(n.InnerText())
	} else {
		pkg.Missing = append(pkg.Missing, "homepage")
	}

	if n := xmlquery.FindOne(node, "licenses"); n != nil {
		pkg.Licenses = strings.Fields(n.InnerText())
	} else {
		pkg.Missing = append(pkg.Missing, "licenses")
	}

	versionNodes := xmlquery.Find(node, "version")
	if len(versionNodes) == 0 {
		pkg.Missing = append(pkg.Missing, "versions")
	}
	for _, vn := range versionNodes {
		version, missing := parseVersion(vn)
		pkg.Versions = append(pkg.Versions, version)
		pkg.Missing = append(pkg.Missing, missing...)
	}

	if len(pkg.Missing) > 0 {
		pkg.Completeness = Partial
	}

	return pkg
}

func parseVersion(node *xmlquery.Node) (Version, []string) {
	v := Version{
		ID:         node.SelectAttr("id"),
		EAPI:       node.SelectAttr("EAPI"),
		Repository: node.SelectAttr("repository"),
		Slot:       node.SelectAttr("slot"),
		Virtual:    node.SelectAttr("virtual") == "1",
		Installed:  node.SelectAttr("installed") == "1",
		SrcURI:     node.SelectAttr("srcURI"),
	}

	var missing []string
	if v.ID == "" {
		missing = append(missing, "version id")
	}

	for _, iuseNode := range xmlquery.Find(node, "iuse") {
		flags := strings.Fields(iuseNode.InnerText())
		v.IUse = append(v.IUse, flags...)
		if iuseNode.SelectAttr("default") == "1" {
			v.IUseDefault = append(v.IUseDefault, flags...)
		}
	}

	if n := xmlquery.FindOne(node, "required_use"); n != nil {
		v.RequiredUse = strings.TrimSpace(n.InnerText())
	}

	v.Depend = childText(node, "depend")
	v.RDepend = childText(node, "rdepend")
	v.BDepend = childText(node, "bdepend")
	v.PDepend = childText(node, "pdepend")
	v.IDepend = childText(node, "idepend")

	v.Masks = attrValues(node, "mask", "type")
	v.Unmasks = attrValues(node, "unmask", "type")
	v.Properties = attrValues(node, "properties", "flag")
	v.Restricts = attrValues(node, "restrict", "flag")

	for _, useNode := range xmlquery.Find(node, "use") {
		flags := strings.Fields(useNode.InnerText())
		switch useNode.SelectAttr("enabled") {
		case "1":
			v.UseEnabled = append(v.UseEnabled, flags...)
		case "0":
			v.UseDisabled = append(v.UseDisabled, flags...)
		}
	}

	return v, missing
}

func childText(node *xmlquery.Node, name string) string {
	if n := xmlquery.FindOne(node, name); n != nil {
		return strings.TrimSpace(n.InnerText())
	}
	return ""
}

func attrValues(node *xmlquery.Node, element, attr string) []string {
	var values []string
	for _, n := range xmlquery.Find(node, element) {
		if v := n.SelectAttr(attr); v != "" {
			values = append(values, v)
		}
	}
	return values
}
