package enums

import "fmt"

// CheckoutStep tracks the position of a draft in the checkout sequence.
type CheckoutStep string

const (
	CheckoutStepInformation  CheckoutStep = "information"
	CheckoutStepShipping     CheckoutStep = "shipping"
	CheckoutStepPayment      CheckoutStep = "payment"
	CheckoutStepConfirmation CheckoutStep = "confirmation"
)

var validCheckoutSteps = []CheckoutStep{
	CheckoutStepInformation,
	CheckoutStepShipping,
	CheckoutStepPayment,
	CheckoutStepConfirmation,
}

// String implements fmt.Stringer.
func (c CheckoutStep) String() string {
	return string(c)
}

// IsValid reports whether the value is a known CheckoutStep.
func (c CheckoutStep) IsValid() bool {
	for _, candidate := range validCheckoutSteps {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseCheckoutStep converts raw input into a CheckoutStep.
func ParseCheckoutStep(value string) (CheckoutStep, error) {
	for _, candidate := range validCheckoutSteps {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid checkout step %q", value)
}

// Prev returns the step reached by a back transition. Information and
// confirmation have no predecessor.
func (c CheckoutStep) Prev() (CheckoutStep, bool) {
	switch c {
	case CheckoutStepShipping:
		return CheckoutStepInformation, true
	case CheckoutStepPayment:
		return CheckoutStepShipping, true
	default:
		return "", false
	}
}

// Next returns the step reached by a successful submit.
func (c CheckoutStep) Next() (CheckoutStep, bool) {
	switch c {
	case CheckoutStepInformation:
		return CheckoutStepShipping, true
	case CheckoutStepShipping:
		return CheckoutStepPayment, true
	case CheckoutStepPayment:
		return CheckoutStepConfirmation, true
	default:
		return "", false
	}
}
