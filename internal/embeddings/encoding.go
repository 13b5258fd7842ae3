package embeddings

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// EmbeddingToBytes packs a vector as little-endian float32s for BLOB storage.
func EmbeddingToBytes(embedding []float32) []byte {
	buf := new(bytes.Buffer)
	for _, v := range embedding {
		_ = binary.Write(buf, binary.LittleEndian, v)
	}
	return buf.Bytes()
}

func BytesToEmbedding(data []byte) ([]float32, error) {
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("invalid embedding data length %d", len(data))
	}

	embedding := make([]float32, len(data)/4)
	buf := bytes.NewReader(data)
	for i := range embedding {
		if err := binary.Read(buf, binary.LittleEndian, &embedding[i]); err != nil {
			return nil, err
		}
	}
	return embedding, nil
}
