package db

import (
	"errors"
	"testing"
)

func TestIsUniqueViolation(t *testing.T) {
	t.Parallel()

	dup := errors.New(`ERROR: duplicate key value violates unique constraint "ux_users_email" (SQLSTATE 23505)`)

	if !IsUniqueViolation(dup, "ux_users_email") {
		t.Fatalf("expected match on named constraint")
	}
	if IsUniqueViolation(dup, "ux_categories_name") {
		t.Fatalf("different constraint must not match")
	}
	if !IsUniqueViolation(dup, "") {
		t.Fatalf("empty constraint should match any duplicate key error")
	}
	if IsUniqueViolation(errors.New("connection refused"), "ux_users_email") {
		t.Fatalf("unrelated error must not match")
	}
	if IsUniqueViolation(nil, "ux_users_email") {
		t.Fatalf("nil error must not match")
	}
}
