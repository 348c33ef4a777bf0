package errcode

import (
	"errors"
	"testing"
)

func TestOf(t *testing.T) {
	cause := errors.New("port closed")
	cases := []struct {
		name string
		err  error
		want Code
	}{
		{"nil", nil, OK},
		{"bare code", MalformedCommand, MalformedCommand},
		{"wrapped", Wrap(NotConnected, "send", cause), NotConnected},
		{"foreign", cause, Error},
	}
	for _, tc := range cases {
		if got := Of(tc.err); got != tc.want {
			t.Errorf("%s: Of() = %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestEUnwrapAndMessage(t *testing.T) {
	cause := errors.New("eof")
	err := Wrap(UnknownPort, "serial.open", cause)
	if !errors.Is(err, cause) {
		t.Fatal("expected wrapped cause to be reachable")
	}
	if got, want := err.Error(), "serial.open: unknown_port: eof"; got != want {
		t.Fatalf("Error() = %q, want %q", got, want)
	}
	if Wrap(Error, "x", nil) != nil {
		t.Fatal("Wrap(nil) should be nil")
	}
}
