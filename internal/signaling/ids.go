package signaling

import (
	"crypto/rand"
	"fmt"
	"log"
	"math/big"
	"strings"

	"github.com/google/uuid"
)

// IDFormat selects how room identifiers are rendered.
type IDFormat string

const (
	// IDFormatUUID is a full random UUID.
	IDFormatUUID IDFormat = "uuid"
	// IDFormatShort is a 6 character uppercase alphanumeric code.
	IDFormatShort IDFormat = "short"
	// IDFormatWords is four hyphen-joined words, e.g. "teal-merry-otter-comet".
	IDFormatWords IDFormat = "words"
)

const (
	shortIDLength   = 6
	shortIDAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// ParseIDFormat validates a configured format name.
func ParseIDFormat(s string) (IDFormat, error) {
	switch f := IDFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case IDFormatUUID, IDFormatShort, IDFormatWords:
		return f, nil
	case "":
		return IDFormatUUID, nil
	default:
		return "", fmt.Errorf("unknown room id format %q", s)
	}
}

// Generator returns the room ID generator for the format.
func (f IDFormat) Generator() func() string {
	switch f {
	case IDFormatShort:
		return newShortID
	case IDFormatWords:
		return newWordsID
	default:
		return uuid.NewString
	}
}

// NewChannelID returns the identifier used to attribute relayed candidates
// to the connection they came from. It is unique per channel.
func NewChannelID() string {
	return uuid.NewString()
}

func newShortID() string {
	var b strings.Builder
	b.Grow(shortIDLength)
	for i := 0; i < shortIDLength; i++ {
		b.WriteByte(shortIDAlphabet[randomIndex(len(shortIDAlphabet))])
	}
	return b.String()
}

// newWordsID picks one word from each pool, in a random pool order.
func newWordsID() string {
	order := make([]int, len(wordPools))
	for i := range order {
		order[i] = i
	}
	for i := len(order) - 1; i > 0; i-- {
		j := randomIndex(i + 1)
		order[i], order[j] = order[j], order[i]
	}

	words := make([]string, len(order))
	for i, pool := range order {
		list := wordPools[pool]
		words[i] = list[randomIndex(len(list))]
	}
	return strings.Join(words, "-")
}

// randomIndex returns a cryptographically secure random index in [0, max).
func randomIndex(max int) int {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(max)))
	if err != nil {
		log.Panic("failed to generate random index: ", err)
	}
	return int(n.Int64())
}
