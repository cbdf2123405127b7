package netex

import (
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html/charset"

	"github.com/theoremus-urban-solutions/siri-departures/fetch"
)

// TokenReader is a pull iterator over XML tokens. *xml.Decoder satisfies it.
type TokenReader interface {
	Token() (xml.Token, error)
}

// tokenHandler consumes one token at a time.
type tokenHandler interface {
	handle(tok xml.Token)
}

// NewDecoder returns a decoder that understands the usual non-UTF-8 charsets.
func NewDecoder(r io.Reader) *xml.Decoder {
	d := xml.NewDecoder(r)
	d.CharsetReader = charset.NewReaderLabel
	return d
}

func drive(src TokenReader, h tokenHandler) error {
	for {
		tok, err := src.Token()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("%w: %v", fetch.ErrParse, err)
		}
		h.handle(tok)
	}
}

// local strips any namespace prefix left in the element name.
func local(n xml.Name) string {
	if i := strings.LastIndexByte(n.Local, ':'); i >= 0 {
		return n.Local[i+1:]
	}
	return n.Local
}

func attr(se xml.StartElement, name string) string {
	for _, a := range se.Attr {
		if local(a.Name) == name {
			return a.Value
		}
	}
	return ""
}
