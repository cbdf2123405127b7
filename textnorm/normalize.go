// Package textnorm builds the canonical keys used to match stop names and ids.
package textnorm

import (
	"strings"

	"github.com/mozillazg/go-unidecode"
	"golang.org/x/text/unicode/norm"
)

var stripper = strings.NewReplacer(" ", "", "-", "")

// Normalize lowercases s, transliterates it to plain ASCII and drops spaces and hyphens.
// The same function must build both the stored keys and the query key.
func Normalize(s string) string {
	if s == "" {
		return ""
	}
	folded := unidecode.Unidecode(norm.NFKC.String(s))
	return stripper.Replace(strings.ToLower(folded))
}
