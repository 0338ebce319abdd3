package onnx

import (
	"math"

	"github.com/m-mizutani/goerr/v2"
)

// pool turns model output into one unit-length sentence vector. Output of
// shape [1, dims] is already pooled; [1, seq, dims] is mean-pooled over
// the tokens whose mask is 1.
func pool(data []float32, shape []int64, mask []int64, dims int) ([]float32, error) {
	embedding := make([]float32, dims)

	switch len(shape) {
	case 2:
		if len(data) < dims {
			return nil, goerr.New("output dimension mismatch", goerr.V("got", len(data)), goerr.V("want", dims))
		}
		copy(embedding, data[:dims])

	case 3:
		if shape[0] != 1 {
			return nil, goerr.New("unexpected batch size", goerr.V("batch", shape[0]))
		}
		seqLen, hidden := int(shape[1]), int(shape[2])
		if hidden != dims {
			return nil, goerr.New("hidden size mismatch", goerr.V("got", hidden), goerr.V("want", dims))
		}
		if len(data) < seqLen*hidden || len(mask) < seqLen {
			return nil, goerr.New("output shorter than its shape", goerr.V("shape", shape))
		}

		attended := 0
		for i := 0; i < seqLen; i++ {
			if mask[i] == 0 {
				continue
			}
			attended++
			row := data[i*hidden : (i+1)*hidden]
			for j, v := range row {
				embedding[j] += v
			}
		}
		if attended == 0 {
			return nil, goerr.New("no attended tokens")
		}
		for j := range embedding {
			embedding[j] /= float32(attended)
		}

	default:
		return nil, goerr.New("unexpected output shape", goerr.V("shape", shape))
	}

	return normalize(embedding), nil
}

// normalize scales vec to unit length in place.
func normalize(vec []float32) []float32 {
	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		return vec
	}
	scale := float32(1 / math.Sqrt(norm))
	for i := range vec {
		vec[i] *= scale
	}
	return vec
}
