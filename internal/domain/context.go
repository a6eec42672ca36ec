package domain

import (
	"math"

	"github.com/google/uuid"
)

// Context is an ordered window of entries, oldest first, ending at
// FinalIndex in the owner's sample sequence.
type Context struct {
	ownerID    uuid.UUID
	info       InfoType
	entries    []ContextEntry
	finalIndex int
}

func NewContext(ownerID uuid.UUID, info InfoType) *Context {
	return &Context{ownerID: ownerID, info: info}
}

func (c *Context) OwnerID() uuid.UUID { return c.ownerID }
func (c *Context) Info() InfoType     { return c.info }
func (c *Context) FinalIndex() int    { return c.finalIndex }
func (c *Context) Size() int          { return len(c.entries) }
func (c *Context) IsEmpty() bool      { return len(c.entries) == 0 }

func (c *Context) SetFinalIndex(idx int) {
	c.finalIndex = idx
}

func (c *Context) WithFinalIndex(idx int) *Context {
	c.finalIndex = idx
	return c
}

// Append adds entries at the end. Empty entries are added too, but reported
// through a *MissingInformationError.
func (c *Context) Append(entries ...ContextEntry) error {
	var missing []ContextEntry
	for _, e := range entries {
		if e.IsEmpty() {
			missing = append(missing, e)
		}
		c.entries = append(c.entries, e)
	}
	if len(missing) > 0 {
		return &MissingInformationError{Info: c.info, Entries: missing}
	}
	return nil
}

func (c *Context) AppendForce(entries ...ContextEntry) {
	c.entries = append(c.entries, entries...)
}

func (c *Context) PushFront(e ContextEntry) {
	c.entries = append(c.entries, ContextEntry{})
	copy(c.entries[1:], c.entries)
	c.entries[0] = e
}

// IsValid reports whether the context has no empty entry.
func (c *Context) IsValid() bool {
	for _, e := range c.entries {
		if e.IsEmpty() {
			return false
		}
	}
	return true
}

func (c *Context) Entries() []ContextEntry {
	out := make([]ContextEntry, len(c.entries))
	copy(out, c.entries)
	return out
}

func (c *Context) Entry(i int) ContextEntry {
	return c.entries[i]
}

func (c *Context) Last() (ContextEntry, bool) {
	if len(c.entries) == 0 {
		return ContextEntry{}, false
	}
	return c.entries[len(c.entries)-1], true
}

func (c *Context) LastValue() float64 {
	e, ok := c.Last()
	if !ok {
		return math.NaN()
	}
	return e.Value
}

func (c *Context) Values() []float64 {
	out := make([]float64, len(c.entries))
	for i, e := range c.entries {
		out[i] = e.Value
	}
	return out
}

func (c *Context) EstimatedCount() int {
	n := 0
	for _, e := range c.entries {
		if e.Estimated {
			n++
		}
	}
	return n
}

// LastDelta is the difference between the last two values, NaN when the
// context has fewer than two entries.
func (c *Context) LastDelta() float64 {
	n := len(c.entries)
	if n < 2 {
		return math.NaN()
	}
	return c.entries[n-1].Value - c.entries[n-2].Value
}

func (c *Context) Clone() *Context {
	return &Context{
		ownerID:    c.ownerID,
		info:       c.info,
		entries:    c.Entries(),
		finalIndex: c.finalIndex,
	}
}

func (c *Context) Equal(o *Context) bool {
	if c == o {
		return true
	}
	if c == nil || o == nil {
		return false
	}
	if c.info != o.info || c.finalIndex != o.finalIndex || len(c.entries) != len(o.entries) {
		return false
	}
	for i := range c.entries {
		a, b := c.entries[i], o.entries[i]
		if a.Info != b.Info {
			return false
		}
		if a.Value != b.Value && !(math.IsNaN(a.Value) && math.IsNaN(b.Value)) {
			return false
		}
	}
	return true
}

// Trend returns the context of successive differences.
func (c *Context) Trend() *Context {
	t := &Context{ownerID: c.ownerID, info: c.info, finalIndex: c.finalIndex}
	for i := 1; i < len(c.entries); i++ {
		e := c.entries[i]
		e.Value = e.Value - c.entries[i-1].Value
		e.Estimated = e.Estimated || c.entries[i-1].Estimated
		t.entries = append(t.entries, e)
	}
	return t
}

// MovingAverage smooths the context with a trailing window of the given width.
func (c *Context) MovingAverage(width int) *Context {
	if width < 1 {
		width = 1
	}
	m := &Context{ownerID: c.ownerID, info: c.info, finalIndex: c.finalIndex}
	sum := 0.0
	for i, e := range c.entries {
		sum += e.Value
		if i >= width {
			sum -= c.entries[i-width].Value
		}
		n := width
		if i+1 < width {
			n = i + 1
		}
		e.Value = sum / float64(n)
		m.entries = append(m.entries, e)
	}
	return m
}

// Descriptor summarizes the value range of the non-empty entries per info type.
func (c *Context) Descriptor() Descriptor {
	d := Descriptor{}
	for _, e := range c.entries {
		if e.IsEmpty() {
			continue
		}
		r, ok := d[e.Info]
		if !ok {
			d[e.Info] = Range{Min: e.Value, Max: e.Value}
			continue
		}
		r.Min = math.Min(r.Min, e.Value)
		r.Max = math.Max(r.Max, e.Value)
		d[e.Info] = r
	}
	return d
}
