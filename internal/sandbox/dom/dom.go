package dom

import (
	"strconv"
	"strings"
)

// Document is a lightweight element tree standing in for the page document.
// It is not safe for concurrent use; drive it from the host loop.
type Document struct {
	root *Element
	body *Element
	seq  int
}

// Element represents a node in the document tree
type Element struct {
	TagName     string
	ID          string
	ClassName   string
	TextContent string
	Attributes  map[string]string
	Style       map[string]string
	Children    []*Element
	Parent      *Element

	// ClientWidth and ClientHeight are the laid-out dimensions of the element.
	ClientWidth  int
	ClientHeight int

	// Canvas is set on render surfaces.
	Canvas *Canvas

	doc *Document
}

// NewDocument creates a document with an empty body.
func NewDocument() *Document {
	d := &Document{}
	d.root = d.CreateElement("html")
	d.body = d.CreateElement("body")
	d.root.AppendChild(d.body)
	return d
}

// Body returns the document body.
func (d *Document) Body() *Element {
	return d.body
}

// CreateElement creates a detached element owned by this document.
func (d *Document) CreateElement(tag string) *Element {
	return &Element{
		TagName:    strings.ToLower(tag),
		Attributes: make(map[string]string),
		Style:      make(map[string]string),
		doc:        d,
	}
}

// CreateMount creates a sized container attached to the body.
func (d *Document) CreateMount(id string, width, height int) *Element {
	el := d.CreateElement("div")
	el.ID = id
	el.ClientWidth = width
	el.ClientHeight = height
	d.body.AppendChild(el)
	return el
}

// NextID returns a document-unique identifier with the given prefix.
func (d *Document) NextID(prefix string) string {
	d.seq++
	return prefix + "-" + strconv.Itoa(d.seq)
}

// GetElementByID finds an attached element by id.
func (d *Document) GetElementByID(id string) *Element {
	if id == "" {
		return nil
	}
	return findByID(d.root, id)
}

// Query finds elements by selector (simplified)
func (d *Document) Query(selector string) []*Element {
	return d.root.Query(selector)
}

// Query finds descendants matching a simplified selector: #id, .class or tag.
func (e *Element) Query(selector string) []*Element {
	selector = strings.TrimSpace(selector)
	switch {
	case selector == "":
		return nil
	case strings.HasPrefix(selector, "#"):
		if elem := findByID(e, strings.TrimPrefix(selector, "#")); elem != nil {
			return []*Element{elem}
		}
		return nil
	case strings.HasPrefix(selector, "."):
		return findByClass(e, strings.TrimPrefix(selector, "."))
	default:
		return findByTag(e, selector)
	}
}

// QuerySelector returns the first descendant matching selector or nil.
func (e *Element) QuerySelector(selector string) *Element {
	if found := e.Query(selector); len(found) > 0 {
		return found[0]
	}
	return nil
}

// Attached reports whether the element is reachable from its document root.
func (e *Element) Attached() bool {
	if e.doc == nil {
		return false
	}
	for n := e; n != nil; n = n.Parent {
		if n == e.doc.root {
			return true
		}
	}
	return false
}

// Document returns the owning document.
func (e *Element) Document() *Document {
	return e.doc
}

// GetAttribute retrieves attribute value
func (e *Element) GetAttribute(name string) string {
	return e.Attributes[name]
}

// SetAttribute sets attribute value
func (e *Element) SetAttribute(name, value string) {
	e.Attributes[name] = value
}

// AppendChild adds a child element, detaching it from any previous parent.
func (e *Element) AppendChild(child *Element) {
	if child == nil || child == e {
		return
	}
	child.Remove()
	child.Parent = e
	e.Children = append(e.Children, child)
}

// Remove removes element from parent
func (e *Element) Remove() {
	if e.Parent == nil {
		return
	}
	children := e.Parent.Children[:0]
	for _, child := range e.Parent.Children {
		if child != e {
			children = append(children, child)
		}
	}
	e.Parent.Children = children
	e.Parent = nil
}

// Clear detaches every child, the equivalent of assigning an empty innerHTML.
func (e *Element) Clear() {
	for _, child := range append([]*Element(nil), e.Children...) {
		child.Remove()
	}
	e.TextContent = ""
}

// Contains reports whether other is a descendant of e.
func (e *Element) Contains(other *Element) bool {
	for n := other; n != nil; n = n.Parent {
		if n == e {
			return true
		}
	}
	return false
}

func findByID(elem *Element, id string) *Element {
	if elem.ID == id {
		return elem
	}
	for _, child := range elem.Children {
		if found := findByID(child, id); found != nil {
			return found
		}
	}
	return nil
}

func findByClass(elem *Element, class string) []*Element {
	var result []*Element
	for _, c := range strings.Fields(elem.ClassName) {
		if c == class {
			result = append(result, elem)
			break
		}
	}
	for _, child := range elem.Children {
		result = append(result, findByClass(child, class)...)
	}
	return result
}

func findByTag(elem *Element, tag string) []*Element {
	var result []*Element
	if strings.EqualFold(elem.TagName, tag) {
		result = append(result, elem)
	}
	for _, child := range elem.Children {
		result = append(result, findByTag(child, tag)...)
	}
	return result
}
