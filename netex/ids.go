package netex

import "strings"

const localSuffix = ":LOC"

// ShortLineID derives the short identifier of a line reference, for example
// "FR1:Line:C01742:LOC", "STIF:Line::C01742:" and "C01742" all yield "C01742".
func ShortLineID(ref string) string {
	s := strings.TrimSuffix(ref, localSuffix)
	s = strings.TrimRight(s, ":")
	if i := strings.LastIndexByte(s, ':'); i >= 0 {
		return s[i+1:]
	}
	return s
}
