package line

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecodeMilli(t *testing.T) {
	testCases := []struct {
		token  string
		expect int32
		err    error
	}{
		{"3.128", 3128, nil},
		{"42.12", 42120, nil},
		{"8.9132", 8913, nil},
		{"8.9999", 8999, nil},
		{"5.", 5000, nil},
		{"1234.5", 1234500, nil},
		{"9999.999", 9999999, nil},
		{"0.001", 1, nil},
		{"-3.5", -3500, nil},
		{"-0.25", -250, nil},
		{"+2.25", 2250, nil},
		{"-1234.567", -1234567, nil},
		{"12a.5", 12500, nil},
		{".5", 0, ErrNotDecimal},
		{"-.5", 0, ErrNotDecimal},
		{"5", 0, ErrNotDecimal},
		{"", 0, ErrNotDecimal},
		{"-", 0, ErrNotDecimal},
		{"1.2.3", 0, ErrNotDecimal},
		{"--5.0", 0, ErrNotDecimal},
		{"+-5.0", 0, ErrNotDecimal},
		{"-+5.0", 0, ErrNotDecimal},
		{"++5.0", 0, ErrNotDecimal},
		{"12345.6", 0, ErrTokenTooLong},
		{"-12345.6", 0, ErrTokenTooLong},
	}

	for _, tc := range testCases {
		t.Run(tc.token, func(t *testing.T) {
			num, err := DecodeMilli([]byte(tc.token))
			if tc.err != nil {
				require.Equal(t, tc.err, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.expect, num)
		})
	}
}

func TestDecodeMilliFormula(t *testing.T) {
	fracs := []string{"", "0", "5", "05", "123", "1239", "98765"}
	for _, sign := range []string{"", "+", "-"} {
		for _, intPart := range []int{0, 7, 42, 999, 1000, 9999} {
			for _, frac := range fracs {
				token := fmt.Sprintf("%s%d.%s", sign, intPart, frac)
				norm := (frac + "000")[:3]
				var fracNum int32
				for _, c := range norm {
					fracNum = fracNum*10 + int32(c-'0')
				}
				expect := int32(intPart)*1000 + fracNum
				if sign == "-" {
					expect = -expect
				}
				num, err := DecodeMilli([]byte(token))
				require.NoErrorf(t, err, "token %q", token)
				require.Equalf(t, expect, num, "token %q", token)
			}
		}
	}
}
