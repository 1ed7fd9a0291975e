package ui

import "github.com/rivo/tview"

// Component is a page of the TUI. Start runs when the page is shown and Stop
// when it is popped.
type Component interface {
	Name() string
	Start()
	Stop()
}

// Pages is a stack of components over tview.Pages. Modals are drawn on top of
// the stack without changing it.
type Pages struct {
	*tview.Pages
	components map[string]Component
	stack      []string
	modals     map[string]bool
	onChange   func(top Component, titles []string)
}

// NewPages creates an empty page stack.
func NewPages() *Pages {
	return &Pages{
		Pages:      tview.NewPages(),
		components: make(map[string]Component),
		modals:     make(map[string]bool),
	}
}

// Add registers a component under name without showing it.
func (p *Pages) Add(name string, c Component, item tview.Primitive) {
	p.components[name] = c
	p.AddPage(name, item, true, false)
}

// SetOnChange sets a callback that fires when the stack changes.
func (p *Pages) SetOnChange(fn func(top Component, titles []string)) {
	p.onChange = fn
}

// Push shows name on top of the stack and starts it.
func (p *Pages) Push(name string) {
	if cur := p.Current(); cur != "" {
		p.HidePage(cur)
	}
	p.stack = append(p.stack, name)
	p.ShowPage(name)
	p.raiseModals()
	if c := p.components[name]; c != nil {
		c.Start()
	}
	p.notify()
}

// Pop stops the top page and shows the previous one. The last page is never
// popped. Returns the popped name or empty.
func (p *Pages) Pop() string {
	if len(p.stack) < 2 {
		return ""
	}
	top := p.stack[len(p.stack)-1]
	p.HidePage(top)
	if c := p.components[top]; c != nil {
		c.Stop()
	}
	p.stack = p.stack[:len(p.stack)-1]
	p.ShowPage(p.Current())
	p.raiseModals()
	p.notify()
	return top
}

// Reset stops every page and shows only name.
func (p *Pages) Reset(name string) {
	for i := len(p.stack) - 1; i >= 0; i-- {
		p.HidePage(p.stack[i])
		if c := p.components[p.stack[i]]; c != nil {
			c.Stop()
		}
	}
	p.stack = nil
	p.Push(name)
}

// Current returns the name of the top page.
func (p *Pages) Current() string {
	if len(p.stack) == 0 {
		return ""
	}
	return p.stack[len(p.stack)-1]
}

// Depth returns the current stack depth.
func (p *Pages) Depth() int {
	return len(p.stack)
}

// ShowModal draws item over the current page.
func (p *Pages) ShowModal(name string, item tview.Primitive) {
	p.modals[name] = true
	p.AddPage(name, item, true, true)
}

// HideModal removes a modal shown by ShowModal.
func (p *Pages) HideModal(name string) {
	if !p.modals[name] {
		return
	}
	delete(p.modals, name)
	p.RemovePage(name)
}

// ModalOpen reports whether any modal is shown.
func (p *Pages) ModalOpen() bool {
	return len(p.modals) > 0
}

func (p *Pages) raiseModals() {
	for name := range p.modals {
		p.SendToFront(name)
	}
}

func (p *Pages) notify() {
	if p.onChange == nil {
		return
	}
	titles := make([]string, 0, len(p.stack))
	for _, name := range p.stack {
		if c := p.components[name]; c != nil {
			titles = append(titles, c.Name())
		} else {
			titles = append(titles, name)
		}
	}
	p.onChange(p.components[p.Current()], titles)
}
