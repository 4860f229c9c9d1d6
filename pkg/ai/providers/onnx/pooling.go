package aionnx

import (
	"fmt"
	"math"
)

// meanPool averages the hidden states of attended tokens. Shapes: [1, dims] is returned as is,
// [1, seq, dims] is pooled over seq.
func meanPool(data []float32, shape []int64, mask []int64, dims int) ([]float32, error) {
	switch len(shape) {
	case 2:
		if len(data) < dims {
			return nil, fmt.Errorf("output dimension mismatch: got %d, expected %d", len(data), dims)
		}
		out := make([]float32, dims)
		copy(out, data[:dims])
		return out, nil
	case 3:
		if shape[0] != 1 {
			return nil, fmt.Errorf("expected batch size 1, got %d", shape[0])
		}
		seq, hidden := int(shape[1]), int(shape[2])
		if hidden != dims {
			return nil, fmt.Errorf("hidden size mismatch: got %d, expected %d", hidden, dims)
		}
		out := make([]float32, dims)
		var attended float32
		for i := 0; i < seq && i < len(mask); i++ {
			if mask[i] == 0 {
				continue
			}
			attended++
			row := data[i*hidden : (i+1)*hidden]
			for j, v := range row {
				out[j] += v
			}
		}
		if attended > 0 {
			for j := range out {
				out[j] /= attended
			}
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unexpected output shape: %v", shape)
	}
}

func normalize(vec []float32) []float32 {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	if sum == 0 {
		return vec
	}
	norm := float32(math.Sqrt(sum))
	out := make([]float32, len(vec))
	for i, v := range vec {
		out[i] = v / norm
	}
	return out
}
