// Package idgen generates task identifiers of the form YYYYMMDD-<hash>.
package idgen

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"
	"time"
)

// DefaultLength is the number of base36 characters after the date prefix.
const DefaultLength = 6

// MinLength and MaxLength bound the hash part; anything outside falls back
// to DefaultLength.
const (
	MinLength = 3
	MaxLength = 8
)

// base36Alphabet is the character set for base36 encoding (0-9, a-z).
const base36Alphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// EncodeBase36 converts a byte slice to a base36 string of specified length.
func EncodeBase36(data []byte, length int) string {
	num := new(big.Int).SetBytes(data)
	base := big.NewInt(36)
	mod := new(big.Int)

	chars := make([]byte, 0, length)
	for num.Sign() > 0 {
		num.DivMod(num, base, mod)
		chars = append(chars, base36Alphabet[mod.Int64()])
	}
	for i, j := 0, len(chars)-1; i < j; i, j = i+1, j-1 {
		chars[i], chars[j] = chars[j], chars[i]
	}

	str := string(chars)
	if len(str) < length {
		str = strings.Repeat("0", length-len(str)) + str
	}
	// keep least significant digits
	if len(str) > length {
		str = str[len(str)-length:]
	}
	return str
}

// GenerateTaskID derives an id from the task's content and creation time.
// The nonce is bumped by callers to step past collisions.
func GenerateTaskID(title, project string, created time.Time, length, nonce int) string {
	return taskID(title, project, created, length, nonce, "")
}

func taskID(title, project string, created time.Time, length, nonce int, salt string) string {
	if length < MinLength || length > MaxLength {
		length = DefaultLength
	}
	content := fmt.Sprintf("%s|%s|%d|%d", title, project, created.UnixNano(), nonce)
	if salt != "" {
		content += "|" + salt
	}
	hash := sha256.Sum256([]byte(content))

	// ceil(length * log2(36) / 8) bytes carries enough entropy for length chars
	numBytes := (length*517 + 799) / 800
	return created.UTC().Format("20060102") + "-" + EncodeBase36(hash[:numBytes], length)
}

// Generate returns the first id not rejected by exists, trying up to
// maxAttempts nonces. Each call mixes in random bytes, so identical
// title, project and timestamp still yield different ids across calls and
// processes.
func Generate(title, project string, created time.Time, length int, exists func(string) bool) (string, error) {
	const maxAttempts = 32
	salt := randomSalt()
	for nonce := 0; nonce < maxAttempts; nonce++ {
		id := taskID(title, project, created, length, nonce, salt)
		if exists == nil || !exists(id) {
			return id, nil
		}
	}
	return "", fmt.Errorf("failed to generate unique id for %q after %d attempts", title, maxAttempts)
}

func randomSalt() string {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return fmt.Sprintf("%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(b[:])
}
