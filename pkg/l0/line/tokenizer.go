package line

// FieldCount is the number of readings on every line.
const FieldCount = 5

const fieldSep = '\t'

// Fields holds the raw tokens of a line in wire order.
type Fields [FieldCount][]byte

// Split splits a line into FieldCount tokens at tab separators.
// The tokens alias the line.
func Split(line []byte) (fields Fields, err error) {
	if len(line) < 2 || line[0] == fieldSep {
		return fields, ErrTooShort
	}
	seps, start := 0, 0
	for i, b := range line {
		if b != fieldSep {
			continue
		}
		if seps >= FieldCount-1 {
			return fields, ErrFieldCountMismatch
		}
		fields[seps] = line[start:i]
		seps++
		start = i + 1
	}
	if seps != FieldCount-1 {
		return fields, ErrFieldCountMismatch
	}
	fields[seps] = line[start:]
	return
}

// Decode decodes all tokens in order and passes each value to fn as soon
// as it's decoded. It stops at the first token failing to decode and
// returns a *FieldError.
func (f *Fields) Decode(fn func(index int, value int32)) error {
	for i, token := range f {
		num, err := DecodeMilli(token)
		if err != nil {
			return &FieldError{Index: i, Token: append([]byte(nil), token...), Err: err}
		}
		fn(i, num)
	}
	return nil
}
