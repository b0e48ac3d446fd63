package line

// LineBufferSize is the capacity of the line buffer.
const LineBufferSize = 128

// Result indicates the result after consuming one byte.
type Result struct {
	// Line is set when a terminator completes a line. It aliases the
	// internal buffer and is valid until the next call to Push.
	Line     []byte
	Complete bool
	Err      error
}

// Handler is called by Feed.
type Handler interface {
	HandleLine(line []byte)
	HandleError(err error)
}

// HandlerFuncs is the func form of Handler. Nil funcs are skipped.
type HandlerFuncs struct {
	Line  func([]byte)
	Error func(error)
}

// HandleLine implements Handler.
func (h HandlerFuncs) HandleLine(line []byte) {
	if h.Line != nil {
		h.Line(line)
	}
}

// HandleError implements Handler.
func (h HandlerFuncs) HandleError(err error) {
	if h.Error != nil {
		h.Error(err)
	}
}

// Assembler accumulates bytes into lines.
type Assembler struct {
	buf        [LineBufferSize]byte
	count      int
	discarding bool
}

// Len returns the number of buffered bytes.
func (a *Assembler) Len() int {
	return a.count
}

// Reset drops buffered bytes.
func (a *Assembler) Reset() {
	a.count, a.discarding = 0, false
}

// Push consumes one byte.
func (a *Assembler) Push(b byte) (r Result) {
	if b == '\r' || b == '\n' {
		if a.discarding {
			a.discarding = false
			return
		}
		r.Line, r.Complete = a.buf[:a.count], true
		a.count = 0
		return
	}
	if a.discarding {
		return
	}
	if a.count >= LineBufferSize {
		a.count, a.discarding = 0, true
		r.Err = ErrBufferOverflow
		return
	}
	a.buf[a.count] = b
	a.count++
	return
}

// Feed consumes bytes and notifies h for every completed line and error.
func (a *Assembler) Feed(p []byte, h Handler) {
	for _, b := range p {
		r := a.Push(b)
		switch {
		case r.Err != nil:
			h.HandleError(r.Err)
		case r.Complete:
			h.HandleLine(r.Line)
		}
	}
}
