package validation

import (
	"testing"

	"github.com/go-playground/validator/v10"
)

func TestValidCGPA(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"3.5", true},
		{"0", true},
		{"4.0", true},
		{" 2.75 ", true},
		{"4.01", false},
		{"-0.1", false},
		{"abc", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := ValidCGPA(tt.in); got != tt.want {
			t.Errorf("ValidCGPA(%q): expected %v, got %v", tt.in, tt.want, got)
		}
	}
}

func TestValidCourseCode(t *testing.T) {
	for _, code := range []string{"CS101", "cs 101", "MATH-201"} {
		if !ValidCourseCode(code) {
			t.Errorf("Expected %q to be valid", code)
		}
	}
	for _, code := range []string{"", "  ", "CS101; DROP", "-CS"} {
		if ValidCourseCode(code) {
			t.Errorf("Expected %q to be invalid", code)
		}
	}
}

func TestStringValidationCountsRunes(t *testing.T) {
	if !NewStringValidation("Zürich").WithMaxLength(6).Validate() {
		t.Error("Expected 6-rune name to pass a 6 character limit")
	}
}

func TestRegisterRules(t *testing.T) {
	v := validator.New()
	if err := RegisterRules(v); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	type form struct {
		CGPA string `validate:"omitempty,cgpa"`
		Code string `validate:"required,coursecode"`
	}

	if err := v.Struct(form{CGPA: "3.2", Code: "CS101"}); err != nil {
		t.Errorf("Expected valid form, got %v", err)
	}
	if err := v.Struct(form{Code: "CS101"}); err != nil {
		t.Errorf("Expected empty CGPA to pass, got %v", err)
	}
	if err := v.Struct(form{CGPA: "5", Code: "CS101"}); err == nil {
		t.Error("Expected CGPA 5 to fail")
	}
	if err := v.Struct(form{CGPA: "3", Code: "!!"}); err == nil {
		t.Error("Expected bad course code to fail")
	}
}
