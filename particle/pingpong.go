package particle

// KeyPingPong double-buffers the (morton key, original index) pairs the radix
// sort ping-pongs between. Src is the pair the current pass reads, Dst the
// pair it writes; Flip swaps the roles after each pass.
type KeyPingPong struct {
	keys    [2][]uint32
	indices [2][]uint32
	current int
}

// NewKeyPingPong allocates both buffer pairs for count particles.
func NewKeyPingPong(count int) *KeyPingPong {
	return &KeyPingPong{
		keys:    [2][]uint32{make([]uint32, count), make([]uint32, count)},
		indices: [2][]uint32{make([]uint32, count), make([]uint32, count)},
	}
}

// Flip swaps the source and destination buffer pairs.
func (p *KeyPingPong) Flip() {
	p.current = (p.current + 1) % 2
}

// Keys returns the current source key buffer.
func (p *KeyPingPong) Keys() []uint32 {
	return p.keys[p.current]
}

// Indices returns the current source index buffer.
func (p *KeyPingPong) Indices() []uint32 {
	return p.indices[p.current]
}

// DstKeys returns the destination key buffer for the current pass.
func (p *KeyPingPong) DstKeys() []uint32 {
	return p.keys[(p.current+1)%2]
}

// DstIndices returns the destination index buffer for the current pass.
func (p *KeyPingPong) DstIndices() []uint32 {
	return p.indices[(p.current+1)%2]
}
