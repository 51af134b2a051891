package fp16

// mapSeq applies f to every element of in, keeping order and length.
func mapSeq[T, U any](in []T, f func(T) U) []U {
	out := make([]U, len(in))
	for i, v := range in {
		out[i] = f(v)
	}
	return out
}

// EncodeBatch encodes each value of in.
func EncodeBatch(in []float64) []uint16 { return mapSeq(in, Encode) }

// DecodeBatch decodes each pattern of in.
func DecodeBatch(in []uint16) []float64 { return mapSeq(in, Decode) }

// ToHexBatch formats each pattern of in.
func ToHexBatch(in []uint16) []string { return mapSeq(in, ToHex) }

// FromHexBatch parses every token or none. The first invalid token is reported
// as a *BatchError carrying its index.
func FromHexBatch(tokens []string) ([]uint16, error) {
	out := make([]uint16, len(tokens))
	for i, tok := range tokens {
		h, err := FromHex(tok)
		if err != nil {
			return nil, &BatchError{Index: i, Err: err}
		}
		out[i] = h
	}
	return out, nil
}

// EncodeHex encodes f and formats the result.
func EncodeHex(f float64) string { return ToHex(Encode(f)) }

// DecodeHex parses token and decodes the pattern.
func DecodeHex(token string) (float64, error) {
	h, err := FromHex(token)
	if err != nil {
		return 0, err
	}
	return Decode(h), nil
}
