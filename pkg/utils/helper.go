package utils

import (
	"fmt"
	"math/rand/v2"
	"strconv"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// ParseInt converts string to a positive int with default value
func ParseInt(value string, defaultValue int) int {
	if value == "" {
		return defaultValue
	}

	result, err := strconv.Atoi(value)
	if err != nil || result < 1 {
		return defaultValue
	}

	return result
}

// GenerateBookingReference creates a human readable booking reference.
// Format: ATL-YYYYMMDD-HHMMSS-NNNN
func GenerateBookingReference(now time.Time) string {
	return fmt.Sprintf("ATL-%s-%s-%04d",
		now.Format("20060102"),
		now.Format("150405"),
		rand.IntN(10000),
	)
}

func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

func CheckPasswordHash(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
