package glsa

import (
	"fmt"
	"strings"

	"github.com/antchfx/xmlquery"
)

// parseAdvisory parses one GLSA XML document
func parseAdvisory(id, xml string) (Advisory, error) {
	doc, err := xmlquery.Parse(strings.NewReader(xml))
	if err != nil {
		return Advisory{}, fmt.Errorf("invalid advisory document: %w", err)
	}

	root := xmlquery.FindOne(doc, "//glsa")
	if root == nil {
		return Advisory{}, fmt.Errorf("document has no glsa element")
	}

	adv := Advisory{
		ID:          id,
		Title:       nodeText(root, "title"),
		Synopsis:    nodeText(root, "synopsis"),
		Product:     nodeText(root, "product"),
		Announced:   nodeText(root, "announced"),
		Revised:     nodeText(root, "revised"),
		Access:      nodeText(root, "access"),
		Background:  nodeText(root, "background/p"),
		Description: nodeText(root, "description/p"),
		Impact:      nodeText(root, "impact/p"),
		Workaround:  nodeText(root, "workaround/p"),
	}

	if n := xmlquery.FindOne(root, "revised"); n != nil {
		adv.RevisionCount = n.SelectAttr("count")
	}
	if n := xmlquery.FindOne(root, "impact"); n != nil {
		adv.ImpactType = n.SelectAttr("type")
	}
	if adv.ImpactType == "" {
		adv.ImpactType = "normal"
	}

	for _, n := range xmlquery.Find(root, "bug") {
		if bug := strings.TrimSpace(n.InnerText()); bug != "" {
			adv.Bugs = append(adv.Bugs, bug)
		}
	}

	for _, n := range xmlquery.Find(root, "references/uri") {
		if link := n.SelectAttr("link"); link != "" {
			adv.References = append(adv.References, link)
		} else if text := strings.TrimSpace(n.InnerText()); text != "" {
			adv.References = append(adv.References, text)
		}
	}

	adv.Affected = parseAffected(root)
	adv.Resolutions = parseResolutions(root)

	return adv, nil
}

func nodeText(root *xmlquery.Node, path string) string {
	if n := xmlquery.FindOne(root, path); n != nil {
		return strings.Join(strings.Fields(n.InnerText()), " ")
	}
	return ""
}

func parseAffected(root *xmlquery.Node) []AffectedPackage {
	var packages []AffectedPackage
	for _, pkgNode := range xmlquery.Find(root, "affected/package") {
		pkg := AffectedPackage{
			Name: pkgNode.SelectAttr("name"),
			Auto: pkgNode.SelectAttr("auto"),
			Arch: pkgNode.SelectAttr("arch"),
		}
		if pkg.Auto == "" {
			pkg.Auto = "yes"
		}
		if pkg.Arch == "" {
			pkg.Arch = "*"
		}

		for _, n := range xmlquery.Find(pkgNode, "unaffected") {
			pkg.Unaffected = append(pkg.Unaffected, parseRange(n))
		}
		for _, n := range xmlquery.Find(pkgNode, "vulnerable") {
			pkg.Vulnerable = append(pkg.Vulnerable, parseRange(n))
		}

		packages = append(packages, pkg)
	}
	return packages
}

func parseRange(n *xmlquery.Node) Range {
	return Range{
		Range: n.SelectAttr("range"),
		Slot:  n.SelectAttr("slot"),
		Value: strings.TrimSpace(n.InnerText()),
	}
}

// parseResolutions walks the resolution element in document order, pairing
// each paragraph with the code blocks that follow it.
func parseResolutions(root *xmlquery.Node) []Resolution {
	resNode := xmlquery.FindOne(root, "resolution")
	if resNode == nil {
		return nil
	}

	var resolutions []Resolution
	var current Resolution

	flush := func() {
		if current.Text != "" || current.Code != "" {
			resolutions = append(resolutions, current)
			current = Resolution{}
		}
	}

	for child := resNode.FirstChild; child != nil; child = child.NextSibling {
		if child.Type != xmlquery.ElementNode {
			continue
		}
		switch child.Data {
		case "p":
			flush()
			current.Text = strings.Join(strings.Fields(child.InnerText()), " ")
		case "code":
			if current.Code != "" {
				current.Code += "\n"
			}
			current.Code += dedent(child.InnerText())
		}
	}
	flush()

	return resolutions
}

// dedent strips the common leading indentation of a code block
func dedent(code string) string {
	lines := strings.Split(strings.Trim(code, "\n"), "\n")

	minIndent := -1
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		indent := len(line) - len(strings.TrimLeft(line, " \t"))
		if minIndent < 0 || indent < minIndent {
			minIndent = indent
		}
	}
	if minIndent <= 0 {
		return strings.TrimSpace(strings.Join(lines, "\n"))
	}

	for i, line := range lines {
		if len(line) >= minIndent {
			lines[i] = line[minIndent:]
		}
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
