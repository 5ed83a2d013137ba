package logic

// Filter debounces the sensor with a fixed-size ring of recent samples.
//
// Confirmation is strict: every slot must hold Detected. A single
// NotDetected sample anywhere in the window blocks confirmation until it is
// overwritten. Not safe for concurrent use; the detection task owns it.
type Filter struct {
	buf    []Sample
	cursor int
}

// NewFilter creates a cleared filter with the given window size.
// Sizes below one are treated as one.
func NewFilter(size int) *Filter {
	if size < 1 {
		size = 1
	}
	return &Filter{buf: make([]Sample, size)}
}

// Sample stores the normalised raw reading at the cursor and advances it.
func (f *Filter) Sample(raw bool) {
	f.buf[f.cursor] = FromRaw(raw)
	f.cursor = (f.cursor + 1) % len(f.buf)
}

// Confirmed reports whether every slot in the window holds Detected.
func (f *Filter) Confirmed() bool {
	for _, s := range f.buf {
		if s == NotDetected {
			return false
		}
	}
	return true
}

// Clear resets every slot to NotDetected and the cursor to zero.
func (f *Filter) Clear() {
	for i := range f.buf {
		f.buf[i] = NotDetected
	}
	f.cursor = 0
}

// Size returns the window size.
func (f *Filter) Size() int {
	return len(f.buf)
}

// Cursor returns the next write position.
func (f *Filter) Cursor() int {
	return f.cursor
}

// Window returns a copy of the slots in storage order.
func (f *Filter) Window() []Sample {
	out := make([]Sample, len(f.buf))
	copy(out, f.buf)
	return out
}
