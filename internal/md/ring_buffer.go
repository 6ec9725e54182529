package md

// CandleBuffer keeps the most recent candles up to a fixed size.
type CandleBuffer struct {
	values []Candle
	size   int
	index  int
	filled bool
}

func NewCandleBuffer(size int) *CandleBuffer {
	if size <= 0 {
		size = 1
	}
	return &CandleBuffer{
		values: make([]Candle, size),
		size:   size,
	}
}

func (r *CandleBuffer) Add(candle Candle) {
	r.values[r.index] = candle
	r.index = (r.index + 1) % r.size
	if r.index == 0 {
		r.filled = true
	}
}

func (r *CandleBuffer) Len() int {
	if r.filled {
		return r.size
	}
	return r.index
}

// Values returns the buffered candles oldest first.
func (r *CandleBuffer) Values() []Candle {
	length := r.Len()
	result := make([]Candle, 0, length)
	if length == 0 {
		return result
	}
	if r.filled {
		result = append(result, r.values[r.index:]...)
	}
	result = append(result, r.values[:r.index]...)
	return result
}
