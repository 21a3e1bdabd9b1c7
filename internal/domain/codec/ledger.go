package codec

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/okian/palmares/internal/domain/ledger"
)

// Ranking post layout. The entry list always starts right after the
// header, whatever the number of entries.
const (
	headerLines = 3

	titleMarker = "] Classement **"
	titleSuffix = "**"
	scalePrefix = "> **Barème** : "
	countPrefix = "> **Notes** : "
	entryPrefix = "**"
	entrySep    = "** - "
)

// EncodeLedger renders a ranking post body.
func EncodeLedger(l *ledger.Ledger) string {
	h := l.Header()
	lines := make([]string, 0, headerLines+len(l.Entries))
	lines = append(lines,
		"["+strconv.FormatUint(h.Sequence, 10)+titleMarker+h.Title+titleSuffix,
		scalePrefix+FormatScale(h.Scale),
		countPrefix+strconv.Itoa(h.Count),
	)
	for _, e := range l.Entries {
		lines = append(lines, fmt.Sprintf("**%2d** - %s", e.Position, e.Grade.Text))
	}
	return strings.Join(lines, "\n")
}

// DecodeLedger parses a ranking post body. A body that does not carry the
// full header is rejected; it is never read as an empty ranking.
func DecodeLedger(body string) (*ledger.Ledger, error) {
	lines := strings.Split(body, "\n")
	if len(lines) < headerLines {
		return nil, fmt.Errorf("%w: %d lines, need %d", ErrMalformedLedger, len(lines), headerLines)
	}

	seq, title, err := decodeTitleLine(lines[0])
	if err != nil {
		return nil, err
	}

	rawScale, ok := strings.CutPrefix(lines[1], scalePrefix)
	if !ok {
		return nil, fmt.Errorf("%w: scale line %q", ErrMalformedLedger, lines[1])
	}
	scale, err := strconv.ParseFloat(rawScale, 64)
	if err != nil || !validScale(scale) {
		return nil, fmt.Errorf("%w: scale %q", ErrMalformedLedger, rawScale)
	}

	rawCount, ok := strings.CutPrefix(lines[2], countPrefix)
	if !ok {
		return nil, fmt.Errorf("%w: count line %q", ErrMalformedLedger, lines[2])
	}
	count, err := strconv.Atoi(rawCount)
	if err != nil || count != len(lines)-headerLines {
		return nil, fmt.Errorf("%w: count %q for %d entries", ErrMalformedLedger, rawCount, len(lines)-headerLines)
	}

	l := &ledger.Ledger{
		Sequence: seq,
		Title:    title,
		Scale:    scale,
		Entries:  make([]ledger.Entry, 0, count),
	}
	for i, line := range lines[headerLines:] {
		e, err := decodeEntry(line, i+1)
		if err != nil {
			return nil, err
		}
		l.Entries = append(l.Entries, e)
	}
	return l, nil
}

func decodeTitleLine(line string) (uint64, string, error) {
	rest, ok := strings.CutPrefix(line, "[")
	if !ok {
		return 0, "", fmt.Errorf("%w: title line %q", ErrMalformedLedger, line)
	}
	rawSeq, title, ok := strings.Cut(rest, titleMarker)
	if !ok || !strings.HasSuffix(title, titleSuffix) {
		return 0, "", fmt.Errorf("%w: title line %q", ErrMalformedLedger, line)
	}
	seq, err := strconv.ParseUint(rawSeq, 10, 64)
	if err != nil {
		return 0, "", fmt.Errorf("%w: sequence %q", ErrMalformedLedger, rawSeq)
	}
	return seq, strings.TrimSuffix(title, titleSuffix), nil
}

func decodeEntry(line string, want int) (ledger.Entry, error) {
	rest, ok := strings.CutPrefix(line, entryPrefix)
	if !ok {
		return ledger.Entry{}, fmt.Errorf("%w: entry %q", ErrMalformedLedger, line)
	}
	rawPos, text, ok := strings.Cut(rest, entrySep)
	if !ok {
		return ledger.Entry{}, fmt.Errorf("%w: entry %q", ErrMalformedLedger, line)
	}
	pos, err := strconv.Atoi(strings.TrimSpace(rawPos))
	if err != nil || pos != want {
		return ledger.Entry{}, fmt.Errorf("%w: entry %q at position %d", ErrMalformedLedger, line, want)
	}
	g, err := ledger.ParseGrade(text)
	if err != nil || g.Text != text {
		return ledger.Entry{}, fmt.Errorf("%w: grade %q", ErrMalformedLedger, text)
	}
	return ledger.Entry{Position: pos, Grade: g}, nil
}

func validScale(scale float64) bool {
	return scale > 0 && !math.IsInf(scale, 1)
}

// FormatScale renders a scale without trailing zeros.
func FormatScale(scale float64) string {
	return strconv.FormatFloat(scale, 'f', -1, 64)
}
