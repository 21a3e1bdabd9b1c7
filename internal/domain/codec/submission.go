package codec

import (
	"math/big"
	"strings"

	"github.com/okian/palmares/internal/domain/tracker"
)

const maskPrefix = "0x"

// EncodeSubmission renders a private submission record "<epochId>:0x<hex>".
func EncodeSubmission(r tracker.Record) string {
	return r.EpochID + ":" + encodeMask(r.Mask)
}

// DecodeSubmission recognizes a submission record. Messages not written by
// the bot, or not shaped like a record, are simply not records.
func DecodeSubmission(body string, authorIsBot bool) (tracker.Record, bool) {
	if !authorIsBot {
		return tracker.Record{}, false
	}
	id, rawMask, ok := strings.Cut(body, ":")
	if !ok || !ValidToken(id) {
		return tracker.Record{}, false
	}
	mask, ok := decodeMask(rawMask)
	if !ok {
		return tracker.Record{}, false
	}
	return tracker.Record{EpochID: id, Mask: mask}, true
}

func encodeMask(mask *big.Int) string {
	if mask == nil {
		return maskPrefix + "0"
	}
	return maskPrefix + mask.Text(16)
}

func decodeMask(s string) (*big.Int, bool) {
	hex, ok := strings.CutPrefix(s, maskPrefix)
	if !ok || hex == "" || strings.ContainsAny(hex, "+-_") {
		return nil, false
	}
	mask, ok := new(big.Int).SetString(hex, 16)
	if !ok {
		return nil, false
	}
	return mask, true
}
