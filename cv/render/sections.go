package render

import (
	"fmt"
	"regexp"
	"strings"
)

var tokenPattern = regexp.MustCompile(`\{\{\s*([#/]?)([A-Za-z0-9_]+)\s*\}\}`)

// bindings maps the root of each cloned section item to the values of the
// item it was cloned for.
type bindings map[*xmlNode]map[string]string

func sectionStartMarker(name string) string { return "{{#" + name + "}}" }
func sectionEndMarker(name string) string   { return "{{/" + name + "}}" }

type unbalancedSectionError struct {
	name   string
	reason string
}

func (e *unbalancedSectionError) Error() string {
	return fmt.Sprintf("section %s: %s", e.name, e.reason)
}

// expandSections expands every occurrence of each section in root.
func expandSections(root *xmlNode, sections []Section, scoped bindings) error {
	for _, section := range sections {
		for {
			found, err := expandSection(root, section, scoped)
			if err != nil {
				return err
			}
			if !found {
				break
			}
		}
	}
	return nil
}

// expandSection expands the first occurrence of section. A section whose
// start marker sits inside a table row repeats that row; otherwise it repeats
// the sibling block between the marker paragraphs.
func expandSection(root *xmlNode, section Section, scoped bindings) (bool, error) {
	startMarker := sectionStartMarker(section.Name)
	endMarker := sectionEndMarker(section.Name)

	path := findPath(root, func(n *xmlNode) bool {
		return isParagraph(n) && strings.Contains(paragraphText(n), startMarker)
	})
	if path == nil {
		orphan := findPath(root, func(n *xmlNode) bool {
			return isParagraph(n) && strings.Contains(paragraphText(n), endMarker)
		})
		if orphan != nil {
			return false, &unbalancedSectionError{name: section.Name, reason: "end marker without start marker"}
		}
		return false, nil
	}
	if len(path) < 2 {
		return false, &unbalancedSectionError{name: section.Name, reason: "marker outside document body"}
	}

	for i := len(path) - 2; i > 0; i-- {
		if isTableRow(path[i]) {
			return true, expandRowSection(path[i-1], path[i], section, scoped)
		}
	}
	return true, expandBlockSection(path[len(path)-2], path[len(path)-1], section, scoped)
}

func expandRowSection(parent, row *xmlNode, section Section, scoped bindings) error {
	startMarker := sectionStartMarker(section.Name)
	endMarker := sectionEndMarker(section.Name)
	if !strings.Contains(textContent(row), endMarker) {
		return &unbalancedSectionError{name: section.Name, reason: "end marker not in the same table row"}
	}

	template := cloneNode(row)
	stripMarkers(template, startMarker, endMarker)

	rendered := make([]*xmlNode, 0, len(section.Items))
	for _, values := range section.Items {
		item := cloneNode(template)
		scoped[item] = values
		rendered = append(rendered, item)
	}

	idx := indexOfChild(parent, row)
	parent.Children = spliceChildren(parent.Children, idx, idx, rendered)
	return nil
}

func expandBlockSection(container, startPara *xmlNode, section Section, scoped bindings) error {
	startMarker := sectionStartMarker(section.Name)
	endMarker := sectionEndMarker(section.Name)

	startIdx := indexOfChild(container, startPara)
	endIdx := -1
	for idx := startIdx; idx < len(container.Children); idx++ {
		child := container.Children[idx]
		if isParagraph(child) && strings.Contains(paragraphText(child), endMarker) {
			endIdx = idx
			break
		}
	}
	if endIdx == -1 {
		return &unbalancedSectionError{name: section.Name, reason: "end marker not found after start marker"}
	}

	var template []*xmlNode
	var prefix, suffix []*xmlNode
	if startIdx == endIdx {
		single := cloneNode(startPara)
		stripMarkers(single, startMarker, endMarker)
		template = []*xmlNode{single}
	} else {
		for _, inner := range container.Children[startIdx+1 : endIdx] {
			if strings.Contains(textContent(inner), startMarker) {
				return &unbalancedSectionError{name: section.Name, reason: "nested section"}
			}
		}
		template = cloneNodes(container.Children[startIdx+1 : endIdx])
		if kept := keepUnlessBlank(container.Children[startIdx], startMarker, endMarker); kept != nil {
			prefix = append(prefix, kept)
		}
		if kept := keepUnlessBlank(container.Children[endIdx], startMarker, endMarker); kept != nil {
			suffix = append(suffix, kept)
		}
	}

	rendered := make([]*xmlNode, 0, len(prefix)+len(suffix)+len(section.Items)*len(template))
	rendered = append(rendered, prefix...)
	for _, values := range section.Items {
		for _, node := range cloneNodes(template) {
			scoped[node] = values
			rendered = append(rendered, node)
		}
	}
	rendered = append(rendered, suffix...)

	container.Children = spliceChildren(container.Children, startIdx, endIdx, rendered)
	return nil
}

// keepUnlessBlank strips markers from a marker paragraph and returns it, or
// nil when nothing but whitespace remains.
func keepUnlessBlank(para *xmlNode, markers ...string) *xmlNode {
	stripMarkers(para, markers...)
	if strings.TrimSpace(paragraphText(para)) == "" {
		return nil
	}
	return para
}

func stripMarkers(node *xmlNode, markers ...string) {
	quoted := make([]string, 0, len(markers))
	for _, marker := range markers {
		quoted = append(quoted, regexp.QuoteMeta(marker))
	}
	pattern := regexp.MustCompile(strings.Join(quoted, "|"))
	walkXML(node, func(n *xmlNode) bool {
		if isParagraph(n) {
			rewriteParagraph(n, pattern, func(string) string { return "" })
		}
		return true
	})
}

// spliceChildren replaces children[from..to] inclusive with replacement.
func spliceChildren(children []*xmlNode, from, to int, replacement []*xmlNode) []*xmlNode {
	out := make([]*xmlNode, 0, len(children)-(to-from+1)+len(replacement))
	out = append(out, children[:from]...)
	out = append(out, replacement...)
	out = append(out, children[to+1:]...)
	return out
}

// substituteTokens replaces every placeholder in the paragraphs below node in
// a single pass. Values inserted here are never scanned again, so a value
// that looks like a placeholder is written literally.
func substituteTokens(node *xmlNode, values map[string]string, scoped bindings) {
	if node == nil || node.IsText {
		return
	}
	if itemValues, ok := scoped[node]; ok {
		values = overlay(values, itemValues)
	}
	if isParagraph(node) {
		current := values
		rewriteParagraph(node, tokenPattern, func(match string) string {
			return resolveToken(match, current)
		})
	}
	for _, child := range node.Children {
		substituteTokens(child, values, scoped)
	}
}

func resolveToken(match string, values map[string]string) string {
	groups := tokenPattern.FindStringSubmatch(match)
	if len(groups) != 3 || groups[1] != "" {
		return ""
	}
	return values[groups[2]]
}

func overlay(base, top map[string]string) map[string]string {
	out := make(map[string]string, len(base)+len(top))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range top {
		out[k] = v
	}
	return out
}
