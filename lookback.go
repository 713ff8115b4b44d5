package gbx

import "strconv"

// Lookback string encoding constants.
const (
	idVersion   uint32 = 3
	idEmpty     uint32 = 0xFFFFFFFF
	idFlagMask  uint32 = 0xC0000000
	idLiteral   uint32 = 0x40000000
	idIndexMask uint32 = 0x3FFFFFFF
)

// Id is a lookback string: either a name (written once per pass, then
// referenced by index) or a numeric collection id.
type Id struct {
	name    string
	number  uint32
	numeric bool
}

// IdName returns an Id for a string.
func IdName(s string) Id {
	return Id{name: s}
}

// IdNumber returns a numeric collection Id. The top two bits of n must be
// clear.
func IdNumber(n uint32) Id {
	return Id{number: n, numeric: true}
}

// Name returns the string value of the Id, or the collection name if it is
// numeric.
func (id Id) Name() string {
	if id.numeric {
		if s, ok := collectionNames[id.number]; ok {
			return s
		}
		return strconv.FormatUint(uint64(id.number), 10)
	}
	return id.name
}

// Number returns the numeric value of the Id, if it is numeric.
func (id Id) Number() (uint32, bool) {
	return id.number, id.numeric
}

// IsNumber checks if the Id is a numeric collection id.
func (id Id) IsNumber() bool {
	return id.numeric
}

func (id Id) String() string {
	return id.Name()
}

// known numeric collection ids
var collectionNames = map[uint32]string{
	0:  "Desert",
	1:  "Snow",
	2:  "Rally",
	3:  "Island",
	4:  "Bay",
	5:  "Coast",
	11: "Canyon",
	26: "Stadium",
}

// Ident is a name/collection/author triple identifying a game resource.
type Ident struct {
	Id         Id
	Collection Id
	Author     Id
}

// lookback is the string interning table for one read or write pass.
type lookback struct {
	initialized bool
	strings     []string
	index       map[string]uint32 // writer only, 1-based
}

func (l *lookback) lookup(i uint32) (string, bool) {
	if i == 0 || int(i) > len(l.strings) {
		return "", false
	}
	return l.strings[i-1], true
}

func (l *lookback) intern(s string) uint32 {
	l.strings = append(l.strings, s)
	i := uint32(len(l.strings))
	if l.index != nil {
		if _, ok := l.index[s]; !ok {
			l.index[s] = i
		}
	}
	return i
}
