package httprange

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================================
// Resolution Tests
// ============================================================================

func TestParse_Scenarios(t *testing.T) {
	const total = 1000

	tests := []struct {
		name         string
		header       string
		first, last  int64
		contentRange string
	}{
		{"Bounded", "bytes=0-499", 0, 499, "0-499/1000"},
		{"Suffix", "bytes=-500", 500, 999, "500-999/1000"},
		{"OpenEnded", "bytes=900-", 900, 999, "900-999/1000"},
		{"LastClamped", "bytes=0-1999", 0, 999, "0-999/1000"},
		{"SuffixClamped", "bytes=-5000", 0, 999, "0-999/1000"},
		{"SingleByte", "bytes=999-999", 999, 999, "999-999/1000"},
		{"WholeBySuffix", "bytes=-1000", 0, 999, "0-999/1000"},
		{"SurroundingWhitespace", "  bytes= 10-20 ", 10, 20, "10-20/1000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			set, err := Parse(tt.header, total)
			require.NoError(t, err)
			require.Len(t, set.Ranges, 1)
			assert.False(t, set.IsMultipart())

			r := set.Ranges[0]
			assert.Equal(t, tt.first, r.First)
			assert.Equal(t, tt.last, r.Last)
			assert.Equal(t, int64(total), r.Total)
			assert.Equal(t, tt.contentRange, r.ContentRange())
			assert.Equal(t, tt.last-tt.first+1, r.BytesToRead())
		})
	}
}

func TestParse_Properties(t *testing.T) {
	lengths := []int64{1, 2, 7, 100, 1000, 4096}

	t.Run("BoundedWithinLength", func(t *testing.T) {
		for _, l := range lengths {
			for _, a := range []int64{0, l / 3, l - 1} {
				for _, b := range []int64{a, (a + l - 1) / 2, l - 1} {
					if b < a {
						continue
					}
					set, err := Parse(fmt.Sprintf("bytes=%d-%d", a, b), l)
					require.NoError(t, err)
					r := set.Ranges[0]
					assert.Equal(t, a, r.First)
					assert.Equal(t, b, r.Last)
					assert.Equal(t, fmt.Sprintf("%d-%d/%d", a, b, l), r.ContentRange())
					assert.Equal(t, b-a+1, r.BytesToRead())
				}
			}
		}
	})

	t.Run("SuffixWithinLength", func(t *testing.T) {
		for _, l := range lengths {
			for _, k := range []int64{1, (l + 1) / 2, l} {
				set, err := Parse(fmt.Sprintf("bytes=-%d", k), l)
				require.NoError(t, err)
				assert.Equal(t, l-k, set.Ranges[0].First)
				assert.Equal(t, l-1, set.Ranges[0].Last)
			}
		}
	})

	t.Run("SuffixBeyondLengthClamps", func(t *testing.T) {
		for _, l := range lengths {
			set, err := Parse(fmt.Sprintf("bytes=-%d", l+1), l)
			require.NoError(t, err)
			assert.Equal(t, int64(0), set.Ranges[0].First)
			assert.Equal(t, l-1, set.Ranges[0].Last)
		}
	})

	t.Run("OpenEndedWithinLength", func(t *testing.T) {
		for _, l := range lengths {
			for _, a := range []int64{0, l / 2, l - 1} {
				set, err := Parse(fmt.Sprintf("bytes=%d-", a), l)
				require.NoError(t, err)
				assert.Equal(t, a, set.Ranges[0].First)
				assert.Equal(t, l-1, set.Ranges[0].Last)
			}
		}
	})

	t.Run("Idempotent", func(t *testing.T) {
		for _, h := range []string{"bytes=0-10", "bytes=-3", "bytes=5-", "bytes=0-1,4-5", "bytes=x"} {
			s1, err1 := Parse(h, 100)
			s2, err2 := Parse(h, 100)
			assert.Equal(t, s1, s2)
			assert.Equal(t, err1, err2)
		}
	})
}

// ============================================================================
// Rejection Tests
// ============================================================================

func TestParse_Malformed(t *testing.T) {
	tests := []struct {
		name   string
		header string
		spec   string
	}{
		{"NotBytes", "abc", ""},
		{"OtherUnit", "items=0-5", ""},
		{"UppercaseUnit", "BYTES=0-5", ""},
		{"EmptyAfterUnit", "bytes=", ""},
		{"GarbageSpec", "bytes=abc", "abc"},
		{"ZeroSuffix", "bytes=-0", "-0"},
		{"ZeroSuffixPadded", "bytes=-000", "-000"},
		{"DashOnly", "bytes=-", "-"},
		{"NoDash", "bytes=100", "100"},
		{"NegativeFirst", "bytes=-5-10", "-5-10"},
		{"SignedFirst", "bytes=+5-10", "+5-10"},
		{"HexDigits", "bytes=0x10-20", "0x10-20"},
		{"InnerSpace", "bytes=1 0-20", "1 0-20"},
		{"EmptyToken", "bytes=0-5,", ""},
		{"Overflow", "bytes=0-99999999999999999999", "0-99999999999999999999"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.header, 1000)
			require.Error(t, err)

			var malformed *MalformedRangeError
			require.ErrorAs(t, err, &malformed)
			assert.Equal(t, tt.spec, malformed.Spec)
			assert.True(t, IsMalformed(err))
			assert.False(t, IsUnsatisfiable(err))
			assert.True(t, IsRangeError(err))
		})
	}

	t.Run("EmptyTokenNamesPosition", func(t *testing.T) {
		tests := []struct {
			header string
			msg    string
		}{
			{"bytes=0-1,", "empty range spec at position 2"},
			{"bytes=0-1,,2-3", "empty range spec at position 2"},
			{"bytes=,0-1", "empty range spec at position 1"},
		}
		for _, tt := range tests {
			_, err := Parse(tt.header, 1000)
			var malformed *MalformedRangeError
			require.ErrorAs(t, err, &malformed, tt.header)
			assert.Equal(t, tt.msg, malformed.Reason)
			assert.Contains(t, err.Error(), tt.msg)
		}
	})

	t.Run("ZeroSuffixRegardlessOfLength", func(t *testing.T) {
		for _, l := range []int64{0, 1, 10, 1 << 40} {
			_, err := Parse("bytes=-0", l)
			assert.True(t, IsMalformed(err), "length %d", l)
		}
	})
}

func TestParse_Unsatisfiable(t *testing.T) {
	tests := []struct {
		name   string
		header string
		total  int64
		first  int64
		last   int64
	}{
		{"FirstBeyondEnd", "bytes=1000-", 1000, 1000, 999},
		{"FirstBeyondEndBounded", "bytes=1500-1600", 1000, 1500, 999},
		{"Inverted", "bytes=500-100", 1000, 500, 100},
		{"EmptyContent", "bytes=0-", 0, 0, -1},
		{"EmptyContentSuffix", "bytes=-10", 0, 0, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.header, tt.total)

			var unsat *UnsatisfiableRangeError
			require.ErrorAs(t, err, &unsat)
			assert.Equal(t, tt.first, unsat.First)
			assert.Equal(t, tt.last, unsat.Last)
			assert.Equal(t, tt.total, unsat.Total)
			assert.Contains(t, err.Error(), "length")
		})
	}
}

func TestRangeSet_Multipart(t *testing.T) {
	set, err := Parse("bytes=0-100, 200-300", 1000)
	require.NoError(t, err)
	require.Len(t, set.Ranges, 2)
	assert.True(t, set.IsMultipart())
	assert.Equal(t, "200-300/1000", set.Ranges[1].ContentRange())

	_, err = set.Single()
	var unsat *UnsatisfiableRangeError
	require.ErrorAs(t, err, &unsat)
	assert.Equal(t, ReasonMultipart, unsat.Reason)
}

func TestByteRange_HeaderValue(t *testing.T) {
	r := ByteRange{First: 0, Last: 499, Total: 1000}
	assert.Equal(t, "bytes 0-499/1000", r.HeaderValue())
	assert.Equal(t, "0-499/1000", r.String())
}

func TestUnsatisfiedContentRange(t *testing.T) {
	assert.Equal(t, "bytes */1000", UnsatisfiedContentRange(1000))
	assert.Equal(t, "bytes */0", UnsatisfiedContentRange(0))
}
