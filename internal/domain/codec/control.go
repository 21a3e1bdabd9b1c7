package codec

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"
)

// ControlKind tells which interaction a control identifier belongs to.
type ControlKind int

// Control kinds.
const (
	KindSubmit ControlKind = iota + 1
	KindConfirm
	KindAdmin
)

func (k ControlKind) String() string {
	switch k {
	case KindSubmit:
		return "submit"
	case KindConfirm:
		return "confirm"
	case KindAdmin:
		return "admin"
	default:
		return "unknown"
	}
}

// Control is the operation context carried in an interactive component's
// identifier.
type Control interface {
	Kind() ControlKind
	Encode() string
}

// SubmitControl is attached to a ranking post: "<epochId>:<sequence>:<scale>".
type SubmitControl struct {
	EpochID  string
	Sequence uint64
	Scale    float64
}

func (SubmitControl) Kind() ControlKind { return KindSubmit }

func (c SubmitControl) Encode() string {
	return c.EpochID + ":" + strconv.FormatUint(c.Sequence, 10) + ":" + FormatScale(c.Scale)
}

// ConfirmControl is attached to the grade prompt shown after a submit
// press: "<priorMessageId>:<epochId>:0x<mask>". PriorMessageID is empty when
// the user has no record yet.
type ConfirmControl struct {
	PriorMessageID string
	EpochID        string
	Mask           *big.Int
}

func (ConfirmControl) Kind() ControlKind { return KindConfirm }

func (c ConfirmControl) Encode() string {
	return c.PriorMessageID + ":" + c.EpochID + ":" + encodeMask(c.Mask)
}

// AdminOp is the admin action selected on a ranking post.
type AdminOp string

// Admin actions.
const (
	AdminAdd    AdminOp = "add_grade"
	AdminRemove AdminOp = "remove_grade"
)

// AdminControl targets a ranking post: "add_grade:<messageId>".
type AdminControl struct {
	Op        AdminOp
	MessageID string
}

func (AdminControl) Kind() ControlKind { return KindAdmin }

func (c AdminControl) Encode() string {
	return string(c.Op) + ":" + c.MessageID
}

// ParseControl decodes any control identifier.
func ParseControl(s string) (Control, error) {
	parts := strings.Split(s, ":")
	switch len(parts) {
	case 2:
		op := AdminOp(parts[0])
		if (op != AdminAdd && op != AdminRemove) || !ValidToken(parts[1]) {
			break
		}
		return AdminControl{Op: op, MessageID: parts[1]}, nil
	case 3:
		if strings.HasPrefix(parts[2], maskPrefix) {
			return parseConfirm(parts)
		}
		return parseSubmit(parts)
	}
	return nil, fmt.Errorf("%w: %q", ErrMalformedControl, s)
}

// ParseSubmitControl decodes s and requires a submit control.
func ParseSubmitControl(s string) (SubmitControl, error) {
	c, err := ParseControl(s)
	if err != nil {
		return SubmitControl{}, err
	}
	sc, ok := c.(SubmitControl)
	if !ok {
		return SubmitControl{}, fmt.Errorf("%w: %s control where submit expected", ErrMalformedControl, c.Kind())
	}
	return sc, nil
}

// ParseConfirmControl decodes s and requires a confirm control.
func ParseConfirmControl(s string) (ConfirmControl, error) {
	c, err := ParseControl(s)
	if err != nil {
		return ConfirmControl{}, err
	}
	cc, ok := c.(ConfirmControl)
	if !ok {
		return ConfirmControl{}, fmt.Errorf("%w: %s control where confirm expected", ErrMalformedControl, c.Kind())
	}
	return cc, nil
}

func parseSubmit(parts []string) (Control, error) {
	if !ValidToken(parts[0]) {
		return nil, fmt.Errorf("%w: epoch %q", ErrMalformedControl, parts[0])
	}
	seq, err := strconv.ParseUint(parts[1], 10, 64)
	if err != nil || seq == 0 {
		return nil, fmt.Errorf("%w: sequence %q", ErrMalformedControl, parts[1])
	}
	scale, err := strconv.ParseFloat(parts[2], 64)
	if err != nil || !validScale(scale) {
		return nil, fmt.Errorf("%w: scale %q", ErrMalformedControl, parts[2])
	}
	return SubmitControl{EpochID: parts[0], Sequence: seq, Scale: scale}, nil
}

func parseConfirm(parts []string) (Control, error) {
	if parts[0] != "" && !ValidToken(parts[0]) {
		return nil, fmt.Errorf("%w: message %q", ErrMalformedControl, parts[0])
	}
	if !ValidToken(parts[1]) {
		return nil, fmt.Errorf("%w: epoch %q", ErrMalformedControl, parts[1])
	}
	mask, ok := decodeMask(parts[2])
	if !ok {
		return nil, fmt.Errorf("%w: mask %q", ErrMalformedControl, parts[2])
	}
	return ConfirmControl{PriorMessageID: parts[0], EpochID: parts[1], Mask: mask}, nil
}
