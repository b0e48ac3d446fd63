package line

const (
	// MaxIntegerDigits is the max length of the integer part of a token.
	MaxIntegerDigits = 4
	// FractionDigits is the number of fractional digits kept, which makes
	// decoded values milli-scaled.
	FractionDigits = 3
)

// DecodeMilli decodes a decimal token like "-42.125" into a milli-scaled
// integer (-42125).
//
// The sign is taken from the leading character of the token, a second sign
// is ErrNotDecimal. The remainder
// must contain exactly one decimal point with at least one character before
// it. Fractional digits beyond FractionDigits are truncated, never rounded,
// and missing ones are treated as zeros.
func DecodeMilli(token []byte) (int32, error) {
	neg := false
	if len(token) > 0 {
		switch token[0] {
		case '-':
			neg = true
			token = token[1:]
		case '+':
			token = token[1:]
		}
	}
	if len(token) > 0 && (token[0] == '-' || token[0] == '+') {
		return 0, ErrNotDecimal
	}

	dot := -1
	for i, b := range token {
		if b == '.' {
			if dot >= 0 {
				return 0, ErrNotDecimal
			}
			dot = i
		}
	}
	if dot <= 0 {
		return 0, ErrNotDecimal
	}
	if dot > MaxIntegerDigits {
		return 0, ErrTokenTooLong
	}

	var frac [FractionDigits]byte
	n := copy(frac[:], token[dot+1:])
	for ; n < FractionDigits; n++ {
		frac[n] = '0'
	}

	num := scanDigits(token[:dot])*1000 + scanDigits(frac[:])
	if neg {
		num = -num
	}
	return num, nil
}

// scanDigits accumulates leading ASCII digits.
func scanDigits(s []byte) (num int32) {
	for _, b := range s {
		d := b - '0'
		if d > 9 {
			break
		}
		num = num*10 + int32(d)
	}
	return
}
