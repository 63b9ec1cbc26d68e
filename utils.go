package couponsim

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

// ReportIDLength is the number of random bytes in a report ID
const ReportIDLength = 8

// calculateOptimalBatchSize determines how many trials a worker claims at a time
func calculateOptimalBatchSize(totalCount int) int {
	// Small batches keep workers balanced and progress fine-grained,
	// large batches keep the shared counter cold.
	if totalCount <= 100 {
		return 1
	} else if totalCount <= 10000 {
		return 16
	} else if totalCount <= 1000000 {
		return 256
	} else {
		return 1024
	}
}

// NewReportID generates a unique report ID using timestamp and random bytes
func NewReportID() string {
	// Use current timestamp as prefix for time-based ordering
	timestamp := time.Now().Format("20060102_150405")

	randomBytes := make([]byte, ReportIDLength)
	if _, err := rand.Read(randomBytes); err != nil {
		// Fallback to timestamp-based ID if random generation fails
		return fmt.Sprintf("%s_%d", timestamp, time.Now().UnixNano()%1000000)
	}

	return fmt.Sprintf("%s_%s", timestamp, hex.EncodeToString(randomBytes))
}
