package ecs

import (
	"math/bits"
	"strconv"
	"strings"
)

const (
	maskWords   = 4
	bitsPerWord = 64

	// MaxComponentKinds is the widest kind range a Mask can describe.
	MaxComponentKinds = maskWords * bitsPerWord
)

// Mask is a presence bitset over component kinds. Bit k set means kind k is
// attached (on an entity) or required (in a query).
type Mask [maskWords]uint64

// BuildMask ORs together the bit of every given kind. Duplicates are
// idempotent and no kinds yields the zero mask, which matches every entity.
// Kinds beyond MaxComponentKinds are ignored.
func BuildMask(kinds ...Kind) Mask {
	var m Mask
	for _, k := range kinds {
		m = m.With(k)
	}
	return m
}

// With returns a copy of m with kind k set.
func (m Mask) With(k Kind) Mask {
	if int(k) >= MaxComponentKinds {
		return m
	}
	m[k/bitsPerWord] |= 1 << (k % bitsPerWord)
	return m
}

// Without returns a copy of m with kind k cleared.
func (m Mask) Without(k Kind) Mask {
	if int(k) >= MaxComponentKinds {
		return m
	}
	m[k/bitsPerWord] &^= 1 << (k % bitsPerWord)
	return m
}

// Has reports whether kind k is set.
func (m Mask) Has(k Kind) bool {
	if int(k) >= MaxComponentKinds {
		return false
	}
	return m[k/bitsPerWord]&(1<<(k%bitsPerWord)) != 0
}

// Contains reports whether every bit of sub is also set in m.
func (m Mask) Contains(sub Mask) bool {
	return m[0]&sub[0] == sub[0] &&
		m[1]&sub[1] == sub[1] &&
		m[2]&sub[2] == sub[2] &&
		m[3]&sub[3] == sub[3]
}

// IsZero reports whether no bit is set.
func (m Mask) IsZero() bool {
	return m[0]|m[1]|m[2]|m[3] == 0
}

// Count returns the number of set bits.
func (m Mask) Count() int {
	n := 0
	for _, w := range m {
		n += bits.OnesCount64(w)
	}
	return n
}

// Kinds returns the set kinds in ascending order.
func (m Mask) Kinds() []Kind {
	kinds := make([]Kind, 0, m.Count())
	for wordIdx, word := range m {
		for word != 0 {
			bit := bits.TrailingZeros64(word)
			kinds = append(kinds, Kind(wordIdx*bitsPerWord+bit))
			word &^= 1 << bit
		}
	}
	return kinds
}

// highest returns the highest set kind, or -1 for the zero mask.
func (m Mask) highest() int {
	for i := maskWords - 1; i >= 0; i-- {
		if m[i] != 0 {
			return i*bitsPerWord + bitsPerWord - 1 - bits.LeadingZeros64(m[i])
		}
	}
	return -1
}

func (m Mask) String() string {
	var sb strings.Builder
	sb.WriteByte('{')
	for i, k := range m.Kinds() {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.Itoa(int(k)))
	}
	sb.WriteByte('}')
	return sb.String()
}
