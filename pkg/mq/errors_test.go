package mq

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"
)

func TestIsPermanent(t *testing.T) {
	var v struct{ N int }
	syntaxErr := json.Unmarshal([]byte("{"), &v)
	typeErr := json.Unmarshal([]byte(`{"N":"x"}`), &v)

	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"plain", errors.New("db down"), false},
		{"marked", Permanent(errors.New("bad note")), true},
		{"wrapped marked", fmt.Errorf("handle: %w", Permanent(errors.New("bad note"))), true},
		{"json syntax", syntaxErr, true},
		{"json type", typeErr, true},
	}
	for _, tc := range cases {
		if got := IsPermanent(tc.err); got != tc.want {
			t.Errorf("%s: IsPermanent = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestPermanent_Nil(t *testing.T) {
	if Permanent(nil) != nil {
		t.Fatalf("Permanent(nil) should be nil")
	}
}
