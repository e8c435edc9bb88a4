package core

import (
	"encoding/json"
	"testing"
)

func TestParseDecimalToCents(t *testing.T) {
	cases := []struct {
		in  string
		out int64
		ok  bool
	}{
		{"1", 100, true},
		{"1.0", 100, true},
		{"1.23", 123, true},
		{"1,23", 123, true},
		{"0.01", 1, true},
		{"1.005", 101, true}, // half-up rounding
		{" 2.50 ", 250, true},
		{"5000", 500000, true},
		{"-1", 0, false},
		{"0", 0, false},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseDecimalToCents(tc.in)
		if tc.ok {
			if err != nil || got != tc.out {
				t.Fatalf("%q expected %d, got %d (err=%v)", tc.in, tc.out, got, err)
			}
		} else {
			if err == nil {
				t.Fatalf("%q expected error", tc.in)
			}
		}
	}
}

func TestMoneyValidate(t *testing.T) {
	if err := (Money{Cents: 1}).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := (Money{Cents: 0}).Validate(); err == nil {
		t.Fatalf("expected error for zero")
	}
}

func TestMoneyJSON(t *testing.T) {
	b, err := json.Marshal(struct {
		A Money `json:"a"`
		B Money `json:"b"`
	}{A: Cents(1030000), B: Cents(-5)})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != `{"a":10300.00,"b":-0.05}` {
		t.Fatalf("unexpected json: %s", b)
	}

	var got struct {
		A Money `json:"a"`
		B Money `json:"b"`
		C Money `json:"c"`
	}
	if err := json.Unmarshal([]byte(`{"a":5000,"b":"600.50","c":0.125}`), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.A.Cents != 500000 || got.B.Cents != 60050 || got.C.Cents != 13 {
		t.Fatalf("unexpected values: %+v", got)
	}
}

func TestMoneyString(t *testing.T) {
	if s := Cents(560000).String(); s != "5600.00" {
		t.Fatalf("got %q", s)
	}
	if s := Cents(5).Add(Cents(10)).Sub(Cents(20)).String(); s != "-0.05" {
		t.Fatalf("got %q", s)
	}
}
