// Package testutil provides go-cmp helpers shared by the package tests.
package testutil

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// CmpError compares a got error against a want error by message.
func CmpError(t *testing.T, funcString string, wantErr, err error, opts ...cmp.Option) {
	t.Helper()

	if wantErr == nil && err != nil {
		t.Errorf("%s returned error (%v) when shouldn't have", funcString, err)
	}
	if wantErr != nil {
		if err == nil {
			t.Errorf("%s returned no error when should have returned %v", funcString, wantErr)
		} else if diff := cmp.Diff(wantErr.Error(), err.Error(), opts...); diff != "" {
			t.Errorf("%s returned unexpected error (-want, +got):\n%s", funcString, diff)
		}
	}
}

// Cmp diffs want against got.
func Cmp[T any](t *testing.T, prefix string, want, got T, opts ...cmp.Option) {
	t.Helper()

	if diff := cmp.Diff(want, got, opts...); diff != "" {
		t.Errorf("%s (-want, +got):\n%s", prefix, diff)
	}
}

// CmpPanic runs f and verifies it panics with the provided value.
func CmpPanic[T any](t *testing.T, funcString string, f func() T, want interface{}, opts ...cmp.Option) T {
	t.Helper()

	defer func() {
		t.Helper()
		Cmp(t, fmt.Sprintf("%s panicked with incorrect value", funcString), want, recover(), opts...)
	}()

	return f()
}
