package enums

import "fmt"

// AddressKind distinguishes a customer's default shipping and billing addresses.
type AddressKind string

const (
	AddressKindShipping AddressKind = "shipping"
	AddressKindBilling  AddressKind = "billing"
)

var validAddressKinds = []AddressKind{
	AddressKindShipping,
	AddressKindBilling,
}

// String implements fmt.Stringer.
func (k AddressKind) String() string {
	return string(k)
}

// IsValid reports whether the value is a known AddressKind.
func (k AddressKind) IsValid() bool {
	for _, candidate := range validAddressKinds {
		if candidate == k {
			return true
		}
	}
	return false
}

// ParseAddressKind converts raw input into an AddressKind.
func ParseAddressKind(value string) (AddressKind, error) {
	for _, candidate := range validAddressKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid address kind %q", value)
}
