package host

import (
	"strconv"
	"strings"

	"github.com/dop251/goja"

	"github.com/GriffinCanCode/sketchbox/internal/sandbox/dom"
)

// Redirect maps an element id (or "body") to a substitute element. It returns
// nil to fall through to the document.
type Redirect func(id string) *dom.Element

// NewDocumentObject builds a document object for script. redirect may be nil.
func (r *Realm) NewDocumentObject(redirect Redirect) *goja.Object {
	document := r.vm.NewObject()
	lookup := func(id string) *dom.Element {
		if redirect != nil {
			if el := redirect(id); el != nil {
				return el
			}
		}
		return r.doc.GetElementByID(id)
	}

	_ = document.Set("getElementById", func(call goja.FunctionCall) goja.Value {
		return r.WrapElement(lookup(call.Argument(0).String()))
	})
	_ = document.Set("querySelector", func(call goja.FunctionCall) goja.Value {
		sel := strings.TrimSpace(call.Argument(0).String())
		if strings.HasPrefix(sel, "#") {
			return r.WrapElement(lookup(sel[1:]))
		}
		if sel == "body" {
			return r.WrapElement(r.body(redirect))
		}
		return r.WrapElement(r.doc.Body().QuerySelector(sel))
	})
	_ = document.Set("querySelectorAll", func(call goja.FunctionCall) goja.Value {
		return r.wrapList(r.doc.Query(call.Argument(0).String()))
	})
	_ = document.Set("getElementsByClassName", func(call goja.FunctionCall) goja.Value {
		return r.wrapList(r.doc.Query("." + call.Argument(0).String()))
	})
	_ = document.Set("getElementsByTagName", func(call goja.FunctionCall) goja.Value {
		return r.wrapList(r.doc.Query(call.Argument(0).String()))
	})
	createElement := func(tag string) goja.Value {
		if strings.EqualFold(tag, "canvas") {
			return r.WrapElement(r.doc.NewCanvasElement(300, 150, ""))
		}
		return r.WrapElement(r.doc.CreateElement(tag))
	}
	_ = document.Set("createElement", func(call goja.FunctionCall) goja.Value {
		return createElement(call.Argument(0).String())
	})
	_ = document.Set("createElementNS", func(call goja.FunctionCall) goja.Value {
		return createElement(call.Argument(1).String())
	})
	_ = document.Set("addEventListener", noop)
	_ = document.Set("removeEventListener", noop)
	r.accessor(document, "body", func() goja.Value { return r.WrapElement(r.body(redirect)) })
	return document
}

func (r *Realm) body(redirect Redirect) *dom.Element {
	if redirect != nil {
		if el := redirect("body"); el != nil {
			return el
		}
	}
	return r.doc.Body()
}

func (r *Realm) wrapList(elements []*dom.Element) goja.Value {
	items := make([]interface{}, len(elements))
	for i, el := range elements {
		items[i] = r.WrapElement(el)
	}
	return r.vm.NewArray(items...)
}

// WrapElement returns the script proxy for el, or null.
func (r *Realm) WrapElement(el *dom.Element) goja.Value {
	if el == nil {
		return goja.Null()
	}
	if obj, ok := r.elements[el]; ok {
		return obj
	}
	obj := r.newElementProxy(el)
	r.elements[el] = obj
	r.proxies[obj] = el
	return obj
}

// UnwrapElement returns the element behind a proxy created by WrapElement.
func (r *Realm) UnwrapElement(v goja.Value) *dom.Element {
	obj, ok := v.(*goja.Object)
	if !ok {
		return nil
	}
	return r.proxies[obj]
}

// Forget drops the cached proxy of el and its descendants.
func (r *Realm) Forget(el *dom.Element) {
	if obj, ok := r.elements[el]; ok {
		delete(r.proxies, obj)
		delete(r.elements, el)
	}
	for _, child := range el.Children {
		r.Forget(child)
	}
}

func noop(goja.FunctionCall) goja.Value { return goja.Undefined() }

// newElementProxy creates a proxy for DOM element
func (r *Realm) newElementProxy(el *dom.Element) *goja.Object {
	obj := r.vm.NewObject()
	prop := func(name string, get func() goja.Value, set func(goja.Value)) {
		getter := r.vm.ToValue(func(goja.FunctionCall) goja.Value { return get() })
		var setter goja.Value
		if set != nil {
			setter = r.vm.ToValue(func(call goja.FunctionCall) goja.Value {
				set(call.Argument(0))
				return goja.Undefined()
			})
		}
		_ = obj.DefineAccessorProperty(name, getter, setter, goja.FLAG_TRUE, goja.FLAG_TRUE)
	}
	str := func(s string) goja.Value { return r.vm.ToValue(s) }

	prop("tagName", func() goja.Value { return str(strings.ToUpper(el.TagName)) }, nil)
	prop("nodeName", func() goja.Value { return str(strings.ToUpper(el.TagName)) }, nil)
	prop("id", func() goja.Value { return str(el.ID) }, func(v goja.Value) { el.ID = v.String() })
	prop("className", func() goja.Value { return str(el.ClassName) }, func(v goja.Value) { el.ClassName = v.String() })
	prop("textContent", func() goja.Value { return str(el.TextContent) }, func(v goja.Value) { el.TextContent = v.String() })
	prop("innerText", func() goja.Value { return str(el.TextContent) }, func(v goja.Value) { el.TextContent = v.String() })
	prop("innerHTML", func() goja.Value { return str("") }, func(v goja.Value) {
		el.Clear()
		el.TextContent = v.String()
	})
	prop("clientWidth", func() goja.Value { return r.vm.ToValue(el.ClientWidth) }, nil)
	prop("clientHeight", func() goja.Value { return r.vm.ToValue(el.ClientHeight) }, nil)
	prop("offsetWidth", func() goja.Value { return r.vm.ToValue(el.ClientWidth) }, nil)
	prop("offsetHeight", func() goja.Value { return r.vm.ToValue(el.ClientHeight) }, nil)
	prop("parentNode", func() goja.Value { return r.WrapElement(el.Parent) }, nil)
	prop("parentElement", func() goja.Value { return r.WrapElement(el.Parent) }, nil)
	prop("children", func() goja.Value { return r.wrapList(el.Children) }, nil)
	prop("childNodes", func() goja.Value { return r.wrapList(el.Children) }, nil)
	prop("firstChild", func() goja.Value {
		if len(el.Children) == 0 {
			return goja.Null()
		}
		return r.WrapElement(el.Children[0])
	}, nil)
	prop("style", func() goja.Value { return r.vm.NewDynamicObject(&styleObject{vm: r.vm, el: el}) }, nil)

	if el.Canvas != nil {
		prop("width", func() goja.Value { return r.vm.ToValue(el.Canvas.Width) }, func(v goja.Value) {
			resizeCanvasElement(el, int(v.ToInteger()), el.Canvas.Height)
		})
		prop("height", func() goja.Value { return r.vm.ToValue(el.Canvas.Height) }, func(v goja.Value) {
			resizeCanvasElement(el, el.Canvas.Width, int(v.ToInteger()))
		})
		_ = obj.Set("getContext", func(call goja.FunctionCall) goja.Value {
			return r.canvasContext(el, call.Argument(0).String())
		})
	}

	_ = obj.Set("appendChild", func(call goja.FunctionCall) goja.Value {
		if child := r.UnwrapElement(call.Argument(0)); child != nil {
			el.AppendChild(child)
		}
		return call.Argument(0)
	})
	_ = obj.Set("removeChild", func(call goja.FunctionCall) goja.Value {
		if child := r.UnwrapElement(call.Argument(0)); child != nil && child.Parent == el {
			child.Remove()
		}
		return call.Argument(0)
	})
	_ = obj.Set("remove", func(goja.FunctionCall) goja.Value {
		el.Remove()
		return goja.Undefined()
	})
	_ = obj.Set("contains", func(call goja.FunctionCall) goja.Value {
		return r.vm.ToValue(el.Contains(r.UnwrapElement(call.Argument(0))))
	})
	_ = obj.Set("getAttribute", func(call goja.FunctionCall) goja.Value {
		v, ok := el.Attributes[call.Argument(0).String()]
		if !ok {
			return goja.Null()
		}
		return str(v)
	})
	_ = obj.Set("setAttribute", func(call goja.FunctionCall) goja.Value {
		name, value := call.Argument(0).String(), call.Argument(1).String()
		if name == "id" {
			el.ID = value
		}
		el.SetAttribute(name, value)
		return goja.Undefined()
	})
	_ = obj.Set("querySelector", func(call goja.FunctionCall) goja.Value {
		return r.WrapElement(el.QuerySelector(call.Argument(0).String()))
	})
	_ = obj.Set("getBoundingClientRect", func(goja.FunctionCall) goja.Value {
		rect := r.vm.NewObject()
		w, h := el.ClientWidth, el.ClientHeight
		for k, v := range map[string]int{"x": 0, "y": 0, "left": 0, "top": 0, "width": w, "height": h, "right": w, "bottom": h} {
			_ = rect.Set(k, v)
		}
		return rect
	})
	_ = obj.Set("addEventListener", noop)
	_ = obj.Set("removeEventListener", noop)
	_ = obj.Set("focus", noop)
	_ = obj.Set("setPointerCapture", noop)
	_ = obj.Set("releasePointerCapture", noop)
	return obj
}

func resizeCanvasElement(el *dom.Element, width, height int) {
	el.Canvas.Resize(width, height)
	el.ClientWidth, el.ClientHeight = width, height
	el.SetAttribute("width", strconv.Itoa(width))
	el.SetAttribute("height", strconv.Itoa(height))
}

// canvasContext returns a recording 2d context for canvases created by script.
func (r *Realm) canvasContext(el *dom.Element, kind string) goja.Value {
	if kind != "2d" {
		return goja.Null()
	}
	ctx := r.vm.NewObject()
	_ = ctx.Set("canvas", r.WrapElement(el))
	ops := []string{
		"fillRect", "strokeRect", "clearRect", "beginPath", "closePath", "moveTo", "lineTo",
		"arc", "ellipse", "rect", "fill", "stroke", "fillText", "strokeText", "save", "restore",
		"translate", "rotate", "scale", "setTransform", "resetTransform", "drawImage",
		"quadraticCurveTo", "bezierCurveTo",
	}
	for _, op := range ops {
		op := op
		_ = ctx.Set(op, func(call goja.FunctionCall) goja.Value {
			args := make([]float64, 0, len(call.Arguments))
			for _, a := range call.Arguments {
				args = append(args, a.ToFloat())
			}
			el.Canvas.Record(dom.Command{Op: op, Args: args})
			return goja.Undefined()
		})
	}
	_ = ctx.Set("measureText", func(call goja.FunctionCall) goja.Value {
		m := r.vm.NewObject()
		_ = m.Set("width", float64(len(call.Argument(0).String()))*6)
		return m
	})
	return ctx
}

// styleObject exposes Element.Style as a live script object.
type styleObject struct {
	vm *goja.Runtime
	el *dom.Element
}

func (s *styleObject) Get(key string) goja.Value {
	if key == "setProperty" {
		return s.vm.ToValue(func(call goja.FunctionCall) goja.Value {
			s.el.Style[call.Argument(0).String()] = call.Argument(1).String()
			return goja.Undefined()
		})
	}
	if key == "cssText" {
		return s.vm.ToValue("")
	}
	return s.vm.ToValue(s.el.Style[key])
}

func (s *styleObject) Set(key string, val goja.Value) bool {
	s.el.Style[key] = val.String()
	return true
}

func (s *styleObject) Has(key string) bool {
	_, ok := s.el.Style[key]
	return ok
}

func (s *styleObject) Delete(key string) bool {
	delete(s.el.Style, key)
	return true
}

func (s *styleObject) Keys() []string {
	keys := make([]string, 0, len(s.el.Style))
	for k := range s.el.Style {
		keys = append(keys, k)
	}
	return keys
}
