package operator

import (
	"testing"
)

func TestParseInt(t *testing.T) {
	for _, test := range []struct {
		s       string
		want    int
		wantErr bool
	}{
		{s: "0", want: 0},
		{s: "-17", want: -17},
		{s: "1_000_000", want: 1000000},
		{s: "_1", wantErr: true},
		{s: "1_", wantErr: true},
		{s: "twelve", wantErr: true},
	} {
		t.Run(test.s, func(t *testing.T) {
			got, err := ParseInt(test.s)
			if test.wantErr != (err != nil) {
				t.Fatalf("ParseInt(%q) returned error %v; wantErr=%v", test.s, err, test.wantErr)
			}
			if err == nil && got != test.want {
				t.Errorf("ParseInt(%q) returned %d; want %d", test.s, got, test.want)
			}
		})
	}
}

func TestParseComplex(t *testing.T) {
	got, err := ParseComplex("3+4i")
	if err != nil {
		t.Fatalf("ParseComplex(3+4i) returned error: %v", err)
	}
	if got != complex(3, 4) {
		t.Errorf("ParseComplex(3+4i) returned %v; want (3+4i)", got)
	}
}

func TestParseBool(t *testing.T) {
	for _, test := range []struct {
		s    string
		want bool
	}{
		{s: "true", want: true},
		{s: "1", want: true},
		{s: "false"},
		{s: "0"},
	} {
		got, err := ParseBool(test.s)
		if err != nil {
			t.Fatalf("ParseBool(%q) returned error: %v", test.s, err)
		}
		if got != test.want {
			t.Errorf("ParseBool(%q) returned %v; want %v", test.s, got, test.want)
		}
	}
}
