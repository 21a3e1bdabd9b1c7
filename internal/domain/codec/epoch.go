// Package codec converts ranking state to and from the plain text blobs the
// chat platform stores: channel topics, ranking posts, private submission
// records and control identifiers. Everything here is pure.
package codec

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/okian/palmares/internal/domain/epoch"
)

// EncodeEpoch renders the topic text "<epochId>:<sequence>".
func EncodeEpoch(c epoch.Counter) string {
	return c.ID + ":" + strconv.FormatUint(c.Sequence, 10)
}

// DecodeEpoch parses a topic strictly.
func DecodeEpoch(topic string) (epoch.Counter, error) {
	id, seq, ok := strings.Cut(topic, ":")
	if !ok || !ValidToken(id) {
		return epoch.Counter{}, fmt.Errorf("%w: %q", ErrMalformedTopic, topic)
	}
	n, err := strconv.ParseUint(seq, 10, 64)
	if err != nil {
		return epoch.Counter{}, fmt.Errorf("%w: %q: %w", ErrMalformedTopic, topic, err)
	}
	return epoch.Counter{ID: id, Sequence: n}, nil
}

// ParseEpochOrDefault is the recovery policy for channel topics: anything
// DecodeEpoch rejects, including an empty topic, becomes a fresh epoch
// fallbackID with sequence 0.
func ParseEpochOrDefault(topic, fallbackID string) epoch.Counter {
	c, err := DecodeEpoch(topic)
	if err != nil {
		return epoch.Reset(fallbackID)
	}
	return c
}

// ValidToken accepts ids that can be embedded in ":"-separated texts.
func ValidToken(s string) bool {
	return s != "" && !strings.ContainsAny(s, ": \t\r\n")
}
