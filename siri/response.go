package siri

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"

	"golang.org/x/net/html/charset"

	"github.com/theoremus-urban-solutions/siri-departures/fetch"
)

// DecodeServiceDelivery parses a SIRI response and returns its first ServiceDelivery.
// A document that is not a SIRI envelope, or has no ServiceDelivery or only an empty one,
// is a protocol error; malformed XML is a parse error.
func DecodeServiceDelivery(data []byte) (*ServiceDelivery, error) {
	d := xml.NewDecoder(bytes.NewReader(data))
	d.CharsetReader = charset.NewReaderLabel

	var env Envelope
	if err := d.Decode(&env); err != nil {
		var unexpected xml.UnmarshalError
		switch {
		case errors.Is(err, io.EOF):
			return nil, fmt.Errorf("%w: empty response", fetch.ErrProtocol)
		case errors.As(err, &unexpected):
			return nil, fmt.Errorf("%w: no Siri envelope: %v", fetch.ErrProtocol, err)
		default:
			return nil, fmt.Errorf("%w: %v", fetch.ErrParse, err)
		}
	}
	if len(env.ServiceDelivery) == 0 || env.ServiceDelivery[0].Empty() {
		return nil, fmt.Errorf("%w: no ServiceDelivery in response", fetch.ErrProtocol)
	}
	return &env.ServiceDelivery[0], nil
}
