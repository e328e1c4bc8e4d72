package atacmatutils

import (
	"bytes"
	"errors"
	"math"
)

/*ErrMalformedCoordinate a coordinate field is not an unsigned 32 bit integer */
var ErrMalformedCoordinate = errors.New("malformed coordinate")

const fragmentFields = 4

// parseCoord parse an unsigned decimal coordinate, surrounding spaces allowed
func parseCoord(field []byte) (uint32, error) {
	field = bytes.TrimSpace(field)

	if len(field) == 0 {
		return 0, ErrMalformedCoordinate
	}

	var value uint64

	for _, c := range field {
		if c < '0' || c > '9' {
			return 0, ErrMalformedCoordinate
		}

		value = value*10 + uint64(c-'0')

		if value > math.MaxUint32 {
			return 0, ErrMalformedCoordinate
		}
	}

	return uint32(value), nil
}

// splitFragment cut the first four tab separated fields of line into fields.
// It returns false when the line holds less than four fields
func splitFragment(line []byte, fields *[fragmentFields][]byte) bool {
	for i := 0; i < fragmentFields-1; i++ {
		tab := bytes.IndexByte(line, '\t')

		if tab < 0 {
			return false
		}

		fields[i] = line[:tab]
		line = line[tab+1:]
	}

	if tab := bytes.IndexByte(line, '\t'); tab >= 0 {
		line = line[:tab]
	}

	fields[fragmentFields-1] = line

	return true
}
