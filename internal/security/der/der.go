// Package der implementa el subconjunto mínimo de ASN.1/DER que necesitan las
// claves RSA y las firmas ECDSA: TLV con longitud corta/larga, INTEGER con
// relleno de signo, SEQUENCE y BIT STRING.
//
// No es un parser ASN.1 general. Todas las funciones operan sobre slices con
// chequeo explícito de límites y devuelven sigerr.DecodingFailed ante cualquier
// entrada malformada.
package der

import (
	"github.com/dropDatabas3/sigverify/internal/security/sigerr"
)

// Tags universales soportados.
const (
	TagInteger   byte = 0x02
	TagBitString byte = 0x03
	TagNull      byte = 0x05
	TagOID       byte = 0x06
	TagSequence  byte = 0x30
)

// rsaEncryptionOID es el contenido del OID 1.2.840.113549.1.1.1.
var rsaEncryptionOID = []byte{0x2a, 0x86, 0x48, 0x86, 0xf7, 0x0d, 0x01, 0x01, 0x01}

// RSAAlgorithmIdentifier devuelve SEQUENCE { OID rsaEncryption, NULL }.
// Siempre son los mismos 15 bytes: 30 0d 06 09 2a864886f70d010101 05 00.
func RSAAlgorithmIdentifier() []byte {
	payload := EncodeTLV(TagOID, rsaEncryptionOID)
	payload = append(payload, TagNull, 0x00)
	return EncodeSequence(payload)
}

// EncodeLength codifica una longitud DER.
// Forma corta para n < 0x80; forma larga (0x80|bytes, big-endian) en otro caso.
func EncodeLength(n int) []byte {
	if n < 0x80 {
		return []byte{byte(n)}
	}
	var be []byte
	for v := n; v > 0; v >>= 8 {
		be = append([]byte{byte(v)}, be...)
	}
	return append([]byte{0x80 | byte(len(be))}, be...)
}

// EncodeTLV emite tag ‖ longitud ‖ payload.
func EncodeTLV(tag byte, payload []byte) []byte {
	l := EncodeLength(len(payload))
	out := make([]byte, 0, 1+len(l)+len(payload))
	out = append(out, tag)
	out = append(out, l...)
	return append(out, payload...)
}

// EncodeSequence envuelve payload en un SEQUENCE.
func EncodeSequence(payload []byte) []byte {
	return EncodeTLV(TagSequence, payload)
}

// EncodeInteger codifica b (big-endian sin signo) como INTEGER.
// Antepone 0x00 sólo si el bit alto del primer byte está encendido; los ceros
// iniciales que ya traiga b se conservan tal cual. Un slice vacío codifica el
// valor cero (un único byte 0x00).
func EncodeInteger(b []byte) []byte {
	if len(b) == 0 {
		return EncodeTLV(TagInteger, []byte{0x00})
	}
	if b[0] >= 0x80 {
		padded := make([]byte, 0, len(b)+1)
		padded = append(padded, 0x00)
		padded = append(padded, b...)
		return EncodeTLV(TagInteger, padded)
	}
	return EncodeTLV(TagInteger, b)
}

// EncodeBitString envuelve payload en un BIT STRING con 0 bits sin usar.
func EncodeBitString(payload []byte) []byte {
	content := make([]byte, 0, len(payload)+1)
	content = append(content, 0x00)
	content = append(content, payload...)
	return EncodeTLV(TagBitString, content)
}

// DecodeIntegerPair recorre SEQUENCE { INTEGER r, INTEGER s } y devuelve r y s
// normalizados a width bytes: se quita el 0x00 de signo de un entero de width+1
// bytes y se rellena a la izquierda con ceros los más cortos.
func DecodeIntegerPair(in []byte, width int) (r, s []byte, err error) {
	const op = "der.DecodeIntegerPair"

	seq, rest, err := readTLV(in, TagSequence)
	if err != nil {
		return nil, nil, sigerr.E(sigerr.DecodingFailed, op, err)
	}
	if len(rest) != 0 {
		return nil, nil, sigerr.E(sigerr.DecodingFailed, op, errTrailing)
	}

	rRaw, seq, err := readTLV(seq, TagInteger)
	if err != nil {
		return nil, nil, sigerr.E(sigerr.DecodingFailed, op, err)
	}
	sRaw, seq, err := readTLV(seq, TagInteger)
	if err != nil {
		return nil, nil, sigerr.E(sigerr.DecodingFailed, op, err)
	}
	if len(seq) != 0 {
		return nil, nil, sigerr.E(sigerr.DecodingFailed, op, errTrailing)
	}

	if r, err = fixedWidth(rRaw, width); err != nil {
		return nil, nil, sigerr.E(sigerr.DecodingFailed, op, err)
	}
	if s, err = fixedWidth(sRaw, width); err != nil {
		return nil, nil, sigerr.E(sigerr.DecodingFailed, op, err)
	}
	return r, s, nil
}

// fixedWidth ajusta el contenido de un INTEGER a width bytes.
func fixedWidth(v []byte, width int) ([]byte, error) {
	if len(v) == 0 {
		return nil, errEmptyInteger
	}
	if len(v) == width+1 {
		if v[0] != 0x00 {
			return nil, errIntegerTooLarge
		}
		v = v[1:]
	}
	if len(v) > width {
		return nil, errIntegerTooLarge
	}
	out := make([]byte, width)
	copy(out[width-len(v):], v)
	return out, nil
}
