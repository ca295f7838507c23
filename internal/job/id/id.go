// Package id provides unique identifier generation for render jobs.
package id

import (
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Generate creates a new unique render ID.
// Format: render-<timestamp>-<random>
// Example: render-1701432000-a1b2c3d4
func Generate() string {
	u := uuid.New()
	return fmt.Sprintf("render-%d-%s", time.Now().Unix(), hex.EncodeToString(u[:4]))
}
