package der

import "errors"

var (
	errTruncated       = errors.New("truncated input")
	errUnexpectedTag   = errors.New("unexpected tag")
	errBadLength       = errors.New("invalid length encoding")
	errTrailing        = errors.New("trailing bytes")
	errEmptyInteger    = errors.New("empty integer")
	errIntegerTooLarge = errors.New("integer exceeds width")
)

// maxLengthBytes limita la forma larga: nada de lo que decodificamos supera 64KiB.
const maxLengthBytes = 2

// readTLV lee un registro con el tag esperado y devuelve su contenido y el resto.
func readTLV(in []byte, tag byte) (content, rest []byte, err error) {
	if len(in) < 2 {
		return nil, nil, errTruncated
	}
	if in[0] != tag {
		return nil, nil, errUnexpectedTag
	}
	n, hdr, err := readLength(in[1:])
	if err != nil {
		return nil, nil, err
	}
	body := in[1+hdr:]
	if n > len(body) {
		return nil, nil, errTruncated
	}
	return body[:n], body[n:], nil
}

// readLength decodifica una longitud DER; devuelve el valor y cuántos bytes ocupó.
func readLength(in []byte) (n, size int, err error) {
	if len(in) == 0 {
		return 0, 0, errTruncated
	}
	first := in[0]
	if first < 0x80 {
		return int(first), 1, nil
	}
	count := int(first & 0x7f)
	if count == 0 || count > maxLengthBytes {
		return 0, 0, errBadLength
	}
	if len(in) < 1+count {
		return 0, 0, errTruncated
	}
	if in[1] == 0x00 {
		// DER exige la codificación mínima
		return 0, 0, errBadLength
	}
	for _, b := range in[1 : 1+count] {
		n = n<<8 | int(b)
	}
	if n < 0x80 {
		return 0, 0, errBadLength
	}
	return n, 1 + count, nil
}
