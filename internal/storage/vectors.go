package storage

import (
	"encoding/binary"
	"fmt"
	"math"
	"strings"
)

// vectorQueryChunk bounds the number of host parameters per lookup query.
const vectorQueryChunk = 500

// GetVectors returns the stored vectors of model for the given tokens.
// Tokens without a stored vector are absent from the result.
func (d *DB) GetVectors(model string, tokens []string) (map[string][]float32, error) {
	out := make(map[string][]float32, len(tokens))
	for start := 0; start < len(tokens); start += vectorQueryChunk {
		end := min(start+vectorQueryChunk, len(tokens))
		chunk := tokens[start:end]

		args := make([]interface{}, 0, len(chunk)+1)
		args = append(args, model)
		for _, t := range chunk {
			args = append(args, t)
		}
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(chunk)), ",")

		rows, err := d.db.Query(`SELECT token, vector FROM token_vectors
			WHERE model = ? AND token IN (`+placeholders+`)`, args...)
		if err != nil {
			return nil, fmt.Errorf("querying token vectors: %w", err)
		}
		for rows.Next() {
			var token string
			var blob []byte
			if err := rows.Scan(&token, &blob); err != nil {
				rows.Close()
				return nil, fmt.Errorf("scanning token vector: %w", err)
			}
			vec, err := decodeVector(blob)
			if err != nil {
				rows.Close()
				return nil, fmt.Errorf("decoding vector for %q: %w", token, err)
			}
			out[token] = vec
		}
		err = rows.Err()
		rows.Close()
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// PutVectors stores vectors of model, replacing existing entries.
func (d *DB) PutVectors(model string, vectors map[string][]float32) error {
	if len(vectors) == 0 {
		return nil
	}
	tx, err := d.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT OR REPLACE INTO token_vectors (model, token, vector) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing vector insert: %w", err)
	}
	defer stmt.Close()

	for token, vec := range vectors {
		if _, err := stmt.Exec(model, token, encodeVector(vec)); err != nil {
			return fmt.Errorf("inserting vector for %q: %w", token, err)
		}
	}
	return tx.Commit()
}

// CountVectors returns the number of stored vectors of model.
func (d *DB) CountVectors(model string) (int, error) {
	var count int
	err := d.db.QueryRow("SELECT COUNT(*) FROM token_vectors WHERE model = ?", model).Scan(&count)
	return count, err
}

// ClearVectors removes all stored vectors of model.
func (d *DB) ClearVectors(model string) error {
	_, err := d.db.Exec("DELETE FROM token_vectors WHERE model = ?", model)
	return err
}

// encodeVector packs a vector as little-endian float32 values.
func encodeVector(vec []float32) []byte {
	buf := make([]byte, 4*len(vec))
	for i, f := range vec {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(f))
	}
	return buf
}

func decodeVector(blob []byte) ([]float32, error) {
	if len(blob)%4 != 0 {
		return nil, fmt.Errorf("blob length %d is not a multiple of 4", len(blob))
	}
	vec := make([]float32, len(blob)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(blob[4*i:]))
	}
	return vec, nil
}
