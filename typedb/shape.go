package typedb

import (
	"fmt"
	"sort"

	"github.com/wippyai/tysh/errors"
)

// VariantPart describes how an Enum selects its active variant.
type VariantPart struct {
	Shape VariantShape
}

// VariantShape is one of ShapeZero, ShapeOne or *ShapeMany.
type VariantShape interface {
	// VariantCount is the number of variants the shape carries.
	VariantCount() int
	isShape()
}

// Variant wraps the member holding one variant's payload.
type Variant struct {
	Member Member
}

// ShapeZero is an uninhabited sum type.
type ShapeZero struct{}

// ShapeOne is a sum type with exactly one variant and no discriminant.
type ShapeOne struct {
	Variant Variant
}

// Arm is one entry of a discriminated variant list. A nil Value is the
// default arm, matching every discriminant value not listed explicitly.
type Arm struct {
	Value   *uint64
	Variant Variant
}

// IsDefault reports whether the arm is the fallback arm.
func (a Arm) IsDefault() bool {
	return a.Value == nil
}

// ShapeMany is a sum type whose variants are selected by a discriminant member.
type ShapeMany struct {
	Discriminant Member
	arms         []Arm
}

// NewShapeMany validates arms and returns them ordered: explicit values
// ascending, then the default arm if any. At most one default arm is allowed
// and explicit values must be distinct.
func NewShapeMany(discriminant Member, arms []Arm) (*ShapeMany, error) {
	ordered := make([]Arm, 0, len(arms))
	var fallback *Arm
	seen := make(map[uint64]struct{}, len(arms))

	for i := range arms {
		arm := arms[i]
		if arm.IsDefault() {
			if fallback != nil {
				return nil, errors.Inconsistent(errors.PhaseDecode, "", "variant part has more than one default arm")
			}
			fallback = &arm
			continue
		}
		if _, dup := seen[*arm.Value]; dup {
			return nil, errors.Inconsistent(errors.PhaseDecode, "",
				fmt.Sprintf("discriminant value %d used by more than one variant", *arm.Value))
		}
		seen[*arm.Value] = struct{}{}
		ordered = append(ordered, arm)
	}

	sort.SliceStable(ordered, func(i, j int) bool {
		return *ordered[i].Value < *ordered[j].Value
	})
	if fallback != nil {
		ordered = append(ordered, *fallback)
	}
	return &ShapeMany{Discriminant: discriminant, arms: ordered}, nil
}

// Arms returns the arms, explicit values first in ascending order and the
// default arm last. The returned slice must not be modified.
func (s *ShapeMany) Arms() []Arm {
	return s.arms
}

// Default returns the default arm, if present.
func (s *ShapeMany) Default() (Arm, bool) {
	if n := len(s.arms); n > 0 && s.arms[n-1].IsDefault() {
		return s.arms[n-1], true
	}
	return Arm{}, false
}

func (ShapeZero) VariantCount() int { return 0 }
func (ShapeOne) VariantCount() int { return 1 }
func (s *ShapeMany) VariantCount() int { return len(s.arms) }

func (ShapeZero) isShape() {}
func (ShapeOne) isShape() {}
func (*ShapeMany) isShape() {}
