package bank

// Block is a dense row-major matrix of sampled features, the output of a
// windowed sample. Rows that received no feature stay zero. Blocks are
// ephemeral values owned by the caller; the store never retains them.
type Block struct {
	rows     int
	channels int
	data     []float32
}

// NewBlock allocates a zero-filled block of rows x channels.
func NewBlock(rows, channels int) *Block {
	return &Block{
		rows:     rows,
		channels: channels,
		data:     make([]float32, rows*channels),
	}
}

// Rows returns the number of rows.
func (b *Block) Rows() int { return b.rows }

// Channels returns the number of columns.
func (b *Block) Channels() int { return b.channels }

// Row returns row i as a slice aliasing the block's storage.
func (b *Block) Row(i int) []float32 {
	return b.data[i*b.channels : (i+1)*b.channels]
}

// SetRow copies v into row i. Shorter vectors leave the tail zero; longer
// vectors are truncated to the block's channel count.
func (b *Block) SetRow(i int, v Vector) {
	copy(b.Row(i), v)
}

// Data returns the backing slice, row-major. Useful for handing the block to
// tensor libraries without a copy.
func (b *Block) Data() []float32 { return b.data }

// IsZero reports whether every value in the block is zero.
func (b *Block) IsZero() bool {
	for _, v := range b.data {
		if v != 0 {
			return false
		}
	}
	return true
}
