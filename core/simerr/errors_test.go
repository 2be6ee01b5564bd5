package simerr

import (
	"errors"
	"testing"
)

func TestWrappersKeepCategory(t *testing.T) {
	if err := Invalidf("electrode %q", "bogus"); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected invalid argument, got %v", err)
	}
	if err := Domainf("sigma=%g", -1.0); !errors.Is(err, ErrDomain) {
		t.Fatalf("expected domain error, got %v", err)
	}
}

func TestModuleErrorUnwrap(t *testing.T) {
	cause := Domainf("sigma")
	err := error(&ModuleError{Module: "ohmic", Tick: 7, Err: cause})
	if !errors.Is(err, ErrDomain) {
		t.Fatalf("cause not reachable: %v", err)
	}
	var me *ModuleError
	if !errors.As(err, &me) || me.Module != "ohmic" || me.Tick != 7 {
		t.Fatalf("unexpected module error %#v", me)
	}
	if got := err.Error(); got != "module ohmic failed at tick 7: sigma: numerical domain error" {
		t.Fatalf("unexpected message %q", got)
	}
}
