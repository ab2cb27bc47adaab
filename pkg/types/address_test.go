package types

import (
	"testing"
)

func TestAddressValueScanRoundTrip(t *testing.T) {
	line2 := "Apt 4"
	addr := Address{
		FirstName:  "Ada",
		LastName:   "Lovelace",
		Line1:      "1 Analytical Way",
		Line2:      &line2,
		City:       "London",
		State:      "LDN",
		PostalCode: "N1 9GU",
		Country:    "GB",
	}

	value, err := addr.Value()
	if err != nil {
		t.Fatalf("value: %v", err)
	}

	var got Address
	if err := got.Scan([]byte(value.(string))); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if got.FirstName != "Ada" || got.City != "London" {
		t.Fatalf("unexpected address %+v", got)
	}
	if got.Line2 == nil || *got.Line2 != "Apt 4" {
		t.Fatalf("expected line2 to survive, got %v", got.Line2)
	}
}

func TestAddressScanNil(t *testing.T) {
	addr := Address{City: "stale"}
	if err := addr.Scan(nil); err != nil {
		t.Fatalf("scan nil: %v", err)
	}
	if addr.City != "" {
		t.Fatalf("expected zero address, got %+v", addr)
	}
}

func TestAddressScanRejectsUnsupportedType(t *testing.T) {
	var addr Address
	if err := addr.Scan(42); err == nil {
		t.Fatal("expected error for int input")
	}
}

func TestAddressNormalize(t *testing.T) {
	blank := "   "
	addr := Address{
		FirstName: "  Grace ",
		Country:   " us ",
		Line2:     &blank,
	}.Normalize()

	if addr.FirstName != "Grace" {
		t.Fatalf("expected trimmed first name, got %q", addr.FirstName)
	}
	if addr.Country != "US" {
		t.Fatalf("expected upper-cased country, got %q", addr.Country)
	}
	if addr.Line2 != nil {
		t.Fatalf("expected blank line2 to be dropped, got %q", *addr.Line2)
	}
}
