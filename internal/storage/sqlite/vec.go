package sqlite

import (
	"fmt"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
)

// Registers sqlite-vec as an auto extension for every connection opened by
// the sqlite3 driver.
func init() {
	sqlite_vec.Auto()
}

// serializeVector converts a float32 slice to the compact BLOB format
// sqlite-vec functions accept.
func serializeVector(vec []float32) ([]byte, error) {
	blob, err := sqlite_vec.SerializeFloat32(vec)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize vector: %w", err)
	}
	return blob, nil
}
