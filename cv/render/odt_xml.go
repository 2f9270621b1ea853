package render

import (
	"bytes"
	"encoding/xml"
	"errors"
	"io"
	"regexp"
	"strings"
)

const (
	officeNamespace = "urn:oasis:names:tc:opendocument:xmlns:office:1.0"
	textNamespace   = "urn:oasis:names:tc:opendocument:xmlns:text:1.0"
	tableNamespace  = "urn:oasis:names:tc:opendocument:xmlns:table:1.0"
)

type xmlNode struct {
	Name     xml.Name
	Attr     []xml.Attr
	Children []*xmlNode
	Text     string
	IsText   bool
}

var xmlHeaderPattern = regexp.MustCompile(`(?s)^\s*(<\?xml[^>]+\?>)`)

// xmlPart is a parsed XML entry of the document container. The root start
// and end tags are kept verbatim so namespace declarations survive encoding.
type xmlPart struct {
	header    string
	rootStart string
	rootEnd   string
	root      *xmlNode
}

func parseXMLPart(xmlText string) (*xmlPart, error) {
	rootStart, rootEnd, err := extractRootTags(xmlText)
	if err != nil {
		return nil, err
	}
	root, header, err := parseXMLDocument(xmlText)
	if err != nil {
		return nil, err
	}
	return &xmlPart{header: header, rootStart: rootStart, rootEnd: rootEnd, root: root}, nil
}

func parseXMLDocument(xmlText string) (*xmlNode, string, error) {
	header := ""
	if match := xmlHeaderPattern.FindStringSubmatch(xmlText); len(match) > 0 {
		header = match[1]
		xmlText = strings.TrimSpace(xmlText[len(match[0]):])
	}

	decoder := xml.NewDecoder(strings.NewReader(xmlText))
	var stack []*xmlNode
	var root *xmlNode

	for {
		token, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, "", err
		}

		switch t := token.(type) {
		case xml.StartElement:
			node := &xmlNode{Name: t.Name, Attr: t.Attr}
			if len(stack) == 0 {
				if root != nil {
					return nil, "", errors.New("multiple root elements")
				}
				root = node
			} else {
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, node)
			}
			stack = append(stack, node)
		case xml.EndElement:
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		case xml.CharData:
			if len(stack) == 0 {
				continue
			}
			text := string([]byte(t))
			if text == "" {
				continue
			}
			parent := stack[len(stack)-1]
			parent.Children = append(parent.Children, &xmlNode{IsText: true, Text: text})
		}
	}

	if root == nil {
		return nil, "", errors.New("xml part has no root element")
	}

	return root, header, nil
}

func (p *xmlPart) encode() (string, error) {
	var buf bytes.Buffer
	if p.header != "" {
		buf.WriteString(p.header)
		if !strings.HasSuffix(p.header, "\n") {
			buf.WriteByte('\n')
		}
	}

	clone := cloneNode(p.root)
	normalizeXMLNSAttrs(clone)
	applyPrefixMap(clone, prefixMapFromRoot(p.root))

	buf.WriteString(p.rootStart)
	encoder := xml.NewEncoder(&buf)
	for _, child := range clone.Children {
		if err := encodeXMLNode(encoder, child); err != nil {
			return "", err
		}
	}
	if err := encoder.Flush(); err != nil {
		return "", err
	}
	buf.WriteString(p.rootEnd)
	return buf.String(), nil
}

func encodeXMLNode(encoder *xml.Encoder, node *xmlNode) error {
	if node.IsText {
		return encoder.EncodeToken(xml.CharData([]byte(node.Text)))
	}
	start := xml.StartElement{Name: node.Name, Attr: node.Attr}
	if err := encoder.EncodeToken(start); err != nil {
		return err
	}
	for _, child := range node.Children {
		if err := encodeXMLNode(encoder, child); err != nil {
			return err
		}
	}
	return encoder.EncodeToken(start.End())
}

// checkWellFormed decodes xmlText fully and reports the first syntax error.
func checkWellFormed(xmlText string) error {
	decoder := xml.NewDecoder(strings.NewReader(xmlText))
	for {
		_, err := decoder.Token()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

func isElementNS(node *xmlNode, space, local string) bool {
	if node == nil || node.IsText {
		return false
	}
	return node.Name.Local == local && node.Name.Space == space
}

// isParagraph reports text:p and text:h, the ODF elements holding inline text.
func isParagraph(node *xmlNode) bool {
	return isElementNS(node, textNamespace, "p") || isElementNS(node, textNamespace, "h")
}

func isTableRow(node *xmlNode) bool {
	return isElementNS(node, tableNamespace, "table-row")
}

// paragraphTextNodes returns the text nodes belonging to p in document order,
// skipping text owned by nested paragraphs.
func paragraphTextNodes(p *xmlNode) []*xmlNode {
	var out []*xmlNode
	var collect func(n *xmlNode)
	collect = func(n *xmlNode) {
		for _, child := range n.Children {
			if child.IsText {
				out = append(out, child)
				continue
			}
			if isParagraph(child) {
				continue
			}
			collect(child)
		}
	}
	collect(p)
	return out
}

func paragraphText(p *xmlNode) string {
	var builder strings.Builder
	for _, node := range paragraphTextNodes(p) {
		builder.WriteString(node.Text)
	}
	return builder.String()
}

// textContent returns all descendant text of node.
func textContent(node *xmlNode) string {
	if node == nil {
		return ""
	}
	if node.IsText {
		return node.Text
	}
	var builder strings.Builder
	walkXML(node, func(n *xmlNode) bool {
		if n.IsText {
			builder.WriteString(n.Text)
		}
		return true
	})
	return builder.String()
}

// rewriteParagraph applies rewrite to the text of p. Matches that sit inside a
// single text node are rewritten in place to keep inline formatting; matches
// split across spans collapse the paragraph text into its first text node.
func rewriteParagraph(p *xmlNode, pattern *regexp.Regexp, rewrite func(string) string) {
	nodes := paragraphTextNodes(p)
	if len(nodes) == 0 {
		return
	}
	var builder strings.Builder
	local := 0
	for _, node := range nodes {
		builder.WriteString(node.Text)
		local += len(pattern.FindAllStringIndex(node.Text, -1))
	}
	combined := builder.String()
	total := len(pattern.FindAllStringIndex(combined, -1))
	if total == 0 {
		return
	}

	if local == total {
		for _, node := range nodes {
			node.Text = pattern.ReplaceAllStringFunc(node.Text, rewrite)
		}
		return
	}

	nodes[0].Text = pattern.ReplaceAllStringFunc(combined, rewrite)
	for i := 1; i < len(nodes); i++ {
		nodes[i].Text = ""
	}
}

// findPath returns the chain of nodes from root to the first node matching
// match in document order, or nil.
func findPath(root *xmlNode, match func(*xmlNode) bool) []*xmlNode {
	if root == nil || root.IsText {
		return nil
	}
	if match(root) {
		return []*xmlNode{root}
	}
	for _, child := range root.Children {
		if path := findPath(child, match); path != nil {
			return append([]*xmlNode{root}, path...)
		}
	}
	return nil
}

func indexOfChild(parent *xmlNode, child *xmlNode) int {
	for idx, candidate := range parent.Children {
		if candidate == child {
			return idx
		}
	}
	return -1
}

func cloneNode(node *xmlNode) *xmlNode {
	if node == nil {
		return nil
	}
	cloned := &xmlNode{
		Name:   node.Name,
		Attr:   append([]xml.Attr(nil), node.Attr...),
		Text:   node.Text,
		IsText: node.IsText,
	}
	if len(node.Children) > 0 {
		cloned.Children = make([]*xmlNode, 0, len(node.Children))
		for _, child := range node.Children {
			cloned.Children = append(cloned.Children, cloneNode(child))
		}
	}
	return cloned
}

func cloneNodes(nodes []*xmlNode) []*xmlNode {
	if len(nodes) == 0 {
		return nil
	}
	out := make([]*xmlNode, 0, len(nodes))
	for _, node := range nodes {
		out = append(out, cloneNode(node))
	}
	return out
}

func walkXML(node *xmlNode, visit func(*xmlNode) bool) bool {
	if node == nil {
		return true
	}
	if !visit(node) {
		return false
	}
	for _, child := range node.Children {
		if !walkXML(child, visit) {
			return false
		}
	}
	return true
}

func prefixMapFromRoot(root *xmlNode) map[string]string {
	if root == nil {
		return nil
	}
	out := make(map[string]string)
	for _, attr := range root.Attr {
		if attr.Name.Space == "xmlns" {
			out[attr.Value] = attr.Name.Local
			continue
		}
		if attr.Name.Space == "" && attr.Name.Local == "xmlns" {
			out[attr.Value] = ""
		}
	}
	return out
}

func applyPrefixMap(node *xmlNode, prefixes map[string]string) {
	if node == nil || len(prefixes) == 0 {
		return
	}
	if !node.IsText {
		if prefix, ok := prefixes[node.Name.Space]; ok && prefix != "" {
			node.Name.Local = prefix + ":" + node.Name.Local
			node.Name.Space = ""
		}
		for i, attr := range node.Attr {
			if isNamespaceDecl(attr) {
				continue
			}
			if prefix, ok := prefixes[attr.Name.Space]; ok && prefix != "" {
				attr.Name.Local = prefix + ":" + attr.Name.Local
				attr.Name.Space = ""
				node.Attr[i] = attr
			}
		}
	}
	for _, child := range node.Children {
		applyPrefixMap(child, prefixes)
	}
}

func isNamespaceDecl(attr xml.Attr) bool {
	return attr.Name.Space == "xmlns" ||
		(attr.Name.Space == "" && attr.Name.Local == "xmlns") ||
		(attr.Name.Space == "" && strings.HasPrefix(attr.Name.Local, "xmlns:"))
}

func normalizeXMLNSAttrs(node *xmlNode) {
	if node == nil {
		return
	}
	if !node.IsText {
		for i, attr := range node.Attr {
			if attr.Name.Space != "xmlns" {
				continue
			}
			attr.Name.Space = ""
			if attr.Name.Local == "" {
				attr.Name.Local = "xmlns"
			} else {
				attr.Name.Local = "xmlns:" + attr.Name.Local
			}
			node.Attr[i] = attr
		}
	}
	for _, child := range node.Children {
		normalizeXMLNSAttrs(child)
	}
}

func extractRootTags(xmlText string) (string, string, error) {
	startIdx, endIdx, name, err := findRootStartTag(xmlText)
	if err != nil {
		return "", "", err
	}
	rootStart := xmlText[startIdx : endIdx+1]
	if strings.HasSuffix(rootStart, "/>") {
		return "", "", errors.New("root element is empty")
	}
	endTag := "</" + name + ">"
	endPos := strings.LastIndex(xmlText, endTag)
	if endPos == -1 {
		return "", "", errors.New("root end tag not found")
	}
	return rootStart, xmlText[endPos : endPos+len(endTag)], nil
}

func findRootStartTag(xmlText string) (int, int, string, error) {
	i := 0
	for i < len(xmlText) {
		idx := strings.IndexByte(xmlText[i:], '<')
		if idx == -1 {
			return 0, 0, "", errors.New("root start tag not found")
		}
		i += idx
		if strings.HasPrefix(xmlText[i:], "<?") {
			end := strings.Index(xmlText[i:], "?>")
			if end == -1 {
				return 0, 0, "", errors.New("xml header not terminated")
			}
			i += end + 2
			continue
		}
		if strings.HasPrefix(xmlText[i:], "<!--") {
			end := strings.Index(xmlText[i:], "-->")
			if end == -1 {
				return 0, 0, "", errors.New("xml comment not terminated")
			}
			i += end + 3
			continue
		}
		if strings.HasPrefix(xmlText[i:], "<!") {
			end := strings.IndexByte(xmlText[i:], '>')
			if end == -1 {
				return 0, 0, "", errors.New("doctype not terminated")
			}
			i += end + 1
			continue
		}
		break
	}
	if i >= len(xmlText) {
		return 0, 0, "", errors.New("root start tag not found")
	}
	start := i
	inQuote := byte(0)
	for i = start + 1; i < len(xmlText); i++ {
		c := xmlText[i]
		if inQuote != 0 {
			if c == inQuote {
				inQuote = 0
			}
			continue
		}
		if c == '"' || c == '\'' {
			inQuote = c
			continue
		}
		if c == '>' {
			name := rootTagName(xmlText[start+1 : i])
			if name == "" {
				return 0, 0, "", errors.New("root tag name missing")
			}
			return start, i, name, nil
		}
	}
	return 0, 0, "", errors.New("root start tag not terminated")
}

func rootTagName(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw[0] == '/' {
		return ""
	}
	end := len(raw)
	for i := 0; i < len(raw); i++ {
		if raw[i] == ' ' || raw[i] == '\t' || raw[i] == '\n' || raw[i] == '\r' || raw[i] == '/' {
			end = i
			break
		}
	}
	return raw[:end]
}
