package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"

	pgconnv1 "github.com/jackc/pgconn"
	"github.com/jackc/pgx/v5/pgconn"
)

func TestMetadataForKnownCodes(t *testing.T) {
	tests := []struct {
		code      Code
		status    int
		retryable bool
		detailsOK bool
	}{
		{code: CodeValidation, status: http.StatusBadRequest, detailsOK: true},
		{code: CodeEmptyCart, status: http.StatusBadRequest},
		{code: CodeNotFound, status: http.StatusNotFound},
		{code: CodeConflict, status: http.StatusConflict},
		{code: CodeInsufficientStock, status: http.StatusConflict, detailsOK: true},
		{code: CodeOrderNumberCollision, status: http.StatusServiceUnavailable, retryable: true},
		{code: CodePersistence, status: http.StatusServiceUnavailable, retryable: true},
		{code: CodeInternal, status: http.StatusInternalServerError, retryable: true},
		{code: CodeDependency, status: http.StatusServiceUnavailable, retryable: true, detailsOK: true},
	}

	for _, tt := range tests {
		meta := MetadataFor(tt.code)
		if meta.HTTPStatus != tt.status {
			t.Fatalf("code %s expected status %d got %d", tt.code, tt.status, meta.HTTPStatus)
		}
		if meta.Retryable != tt.retryable {
			t.Fatalf("code %s expected retryable %v got %v", tt.code, tt.retryable, meta.Retryable)
		}
		if meta.DetailsAllowed != tt.detailsOK {
			t.Fatalf("code %s expected details allowed %v got %v", tt.code, tt.detailsOK, meta.DetailsAllowed)
		}
		if meta.PublicMessage == "" {
			t.Fatalf("code %s missing public message", tt.code)
		}
	}
}

func TestMetadataForUnknownCodeDefaultsToInternal(t *testing.T) {
	meta := MetadataFor("SOMETHING_UNKNOWN")
	if meta.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("expected internal status, got %d", meta.HTTPStatus)
	}
}

func TestWrapPreservesCauseAndCode(t *testing.T) {
	cause := stdErrors.New("connection refused")
	err := fmt.Errorf("commit: %w", Wrap(CodePersistence, cause, "insert order"))

	if !stdErrors.Is(err, cause) {
		t.Fatal("expected wrapped cause to be reachable")
	}
	if CodeOf(err) != CodePersistence {
		t.Fatalf("expected persistence code, got %s", CodeOf(err))
	}
	if !IsCode(err, CodePersistence) || IsCode(err, CodeValidation) {
		t.Fatal("IsCode mismatch")
	}
	if CodeOf(stdErrors.New("plain")) != CodeInternal {
		t.Fatal("plain errors should map to internal")
	}
}

func TestPublicMessageHidesInternalDetail(t *testing.T) {
	persistence := New(CodePersistence, "pq: relation orders does not exist")
	if persistence.PublicMessage() != MetadataFor(CodePersistence).PublicMessage {
		t.Fatalf("expected generic message, got %q", persistence.PublicMessage())
	}

	stock := New(CodeInsufficientStock, "2 item(s) short").WithDetails([]string{"a", "b"})
	if stock.PublicMessage() != "2 item(s) short" {
		t.Fatalf("expected specific message, got %q", stock.PublicMessage())
	}
	if details, ok := stock.Details().([]string); !ok || len(details) != 2 {
		t.Fatalf("unexpected details %#v", stock.Details())
	}
}

func TestDumpExtractsPostgresFields(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23505", ConstraintName: "ux_orders_order_number", TableName: "orders"}
	err := Wrap(CodePersistence, pgErr, "insert order")

	dump := Dump(err)
	if dump.Code != CodePersistence {
		t.Fatalf("unexpected code %s", dump.Code)
	}
	if dump.PGCode != "23505" || dump.PGConstraint != "ux_orders_order_number" || dump.PGTable != "orders" {
		t.Fatalf("unexpected pg fields %+v", dump)
	}
	if len(dump.Chain) != 2 {
		t.Fatalf("expected two chain entries, got %d", len(dump.Chain))
	}
}

func TestPostgresAcceptsLegacyPgconn(t *testing.T) {
	legacy := &pgconnv1.PgError{Code: "40001", Message: "could not serialize access"}
	fields, ok := Postgres(Wrap(CodePersistence, legacy, "commit"))
	if !ok {
		t.Fatalf("expected legacy pgconn error to be recognized")
	}
	if fields.Code != "40001" || fields.Message != "could not serialize access" {
		t.Fatalf("unexpected fields %+v", fields)
	}
	if _, ok := Postgres(New(CodeInternal, "plain")); ok {
		t.Fatalf("plain error should not be treated as postgres")
	}
}
