package util

import (
	"os"
	"testing"
)

func TestInvalidPort(t *testing.T) {
	portString, err := ValidPort("8000")
	if err != nil {
		t.Fatalf("Should not have errored on valid string: %v", err)
	}
	if portString != ":8000" {
		t.Fatalf("Expected portstring be :8000 instead of %s", portString)
	}
	_, err = ValidPort("80a")
	if err == nil {
		t.Fatalf("Expected error on invalid port")
	}
}

func TestRequireEnv(t *testing.T) {
	os.Setenv("REQUIRE_ENV_SET_VAR", "value")
	defer os.Unsetenv("REQUIRE_ENV_SET_VAR")
	os.Unsetenv("REQUIRE_ENV_UNSET_VAR")

	varErrs := Errors{}
	if got := RequireEnv("REQUIRE_ENV_SET_VAR", &varErrs); got != "value" {
		t.Errorf("Expected RequireEnv to return value, got %s", got)
	}
	if len(varErrs) != 0 {
		t.Errorf("Did not expect errors for a set variable: %v", varErrs)
	}
	RequireEnv("REQUIRE_ENV_UNSET_VAR", &varErrs)
	if len(varErrs) != 1 {
		t.Fatalf("Expected one error for an unset variable, got %v", varErrs)
	}
}
