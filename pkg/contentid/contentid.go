// Package contentid generates the short public identifiers shown for meetings,
// transcripts and summaries in CLI output and the read API.
//
// ID Format: <kind:2>-<base62_ts:4><base62_rand:4>, 11 characters in total.
//
//   - mt = meeting
//   - tr = transcript
//   - sm = summary
package contentid

import (
	"crypto/rand"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Kind is the two-letter prefix of an identifier.
type Kind string

const (
	KindMeeting    Kind = "mt"
	KindTranscript Kind = "tr"
	KindSummary    Kind = "sm"
)

const (
	idLength       = 11
	base62Alphabet = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"
	// base62Max is 62^4; the timestamp part wraps roughly every 171 days.
	base62Max = 62 * 62 * 62 * 62
)

var (
	ErrInvalidFormat = errors.New("invalid content ID format")
	ErrInvalidKind   = errors.New("invalid content kind")
)

// Kinds returns every known kind.
func Kinds() []Kind {
	return []Kind{KindMeeting, KindTranscript, KindSummary}
}

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	switch k {
	case KindMeeting, KindTranscript, KindSummary:
		return true
	}
	return false
}

// New returns a fresh identifier of the given kind.
// Panics if kind is not one of the Kind constants.
func New(kind Kind) string {
	if !kind.Valid() {
		panic(fmt.Sprintf("contentid: invalid kind: %q", kind))
	}
	ts := encodeBase62(uint64(time.Now().UnixMicro()) % base62Max)
	return string(kind) + "-" + ts + randomBase62(4)
}

// NewMeeting returns a fresh meeting identifier.
func NewMeeting() string { return New(KindMeeting) }

// NewTranscript returns a fresh transcript identifier.
func NewTranscript() string { return New(KindTranscript) }

// NewSummary returns a fresh summary identifier.
func NewSummary() string { return New(KindSummary) }

// Parse validates id and returns its kind.
func Parse(id string) (Kind, error) {
	if len(id) != idLength {
		return "", fmt.Errorf("%w: expected %d characters, got %d", ErrInvalidFormat, idLength, len(id))
	}
	if id[2] != '-' {
		return "", fmt.Errorf("%w: missing dash at position 2", ErrInvalidFormat)
	}
	kind := Kind(id[:2])
	if !kind.Valid() {
		return "", fmt.Errorf("%w: unknown kind %q", ErrInvalidKind, id[:2])
	}
	if !isBase62(id[3:]) {
		return "", fmt.Errorf("%w: suffix contains invalid characters", ErrInvalidFormat)
	}
	return kind, nil
}

// Is reports whether id is a valid identifier of the given kind. Callers use it
// to decide whether a CLI or URL argument is a short ID or a UUID.
func Is(id string, kind Kind) bool {
	k, err := Parse(id)
	return err == nil && k == kind
}

func encodeBase62(n uint64) string {
	var out [4]byte
	for i := 3; i >= 0; i-- {
		out[i] = base62Alphabet[n%62]
		n /= 62
	}
	return string(out[:])
}

// randomBase62 uses rejection sampling so every symbol is equally likely.
func randomBase62(length int) string {
	const maxUnbiased = 248 // 4*62

	var sb strings.Builder
	sb.Grow(length)
	buf := make([]byte, length*2)
	for sb.Len() < length {
		if _, err := rand.Read(buf); err != nil {
			sb.WriteByte(base62Alphabet[0])
			continue
		}
		for _, b := range buf {
			if b < maxUnbiased && sb.Len() < length {
				sb.WriteByte(base62Alphabet[b%62])
			}
		}
	}
	return sb.String()
}

func isBase62(s string) bool {
	for _, c := range s {
		if !strings.ContainsRune(base62Alphabet, c) {
			return false
		}
	}
	return true
}
