package validation

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validation rule limits
var (
	// Course code: letters, digits, spaces and dashes
	CourseCodePattern = `^[A-Za-z0-9][A-Za-z0-9 \-]*$`

	CGPAMin = 0.0
	CGPAMax = 4.0

	NameMaxLength      = 100
	StatementMaxLength = 2000
	MaxCourses         = 30
)

// CompiledPatterns caches compiled regex patterns
var CompiledPatterns = struct {
	CourseCode *regexp.Regexp
}{
	CourseCode: regexp.MustCompile(CourseCodePattern),
}

// StringValidation checks a single string value
type StringValidation struct {
	Value    string
	MinLen   int
	MaxLen   int
	Required bool
	Pattern  *regexp.Regexp
}

// NewStringValidation creates a new string validation
func NewStringValidation(value string) *StringValidation {
	return &StringValidation{
		Value:    value,
		Required: true,
	}
}

// WithMinLength sets minimum length
func (v *StringValidation) WithMinLength(min int) *StringValidation {
	v.MinLen = min
	return v
}

// WithMaxLength sets maximum length
func (v *StringValidation) WithMaxLength(max int) *StringValidation {
	v.MaxLen = max
	return v
}

// WithPattern sets regex pattern
func (v *StringValidation) WithPattern(pattern *regexp.Regexp) *StringValidation {
	v.Pattern = pattern
	return v
}

// WithRequired sets if field is required
func (v *StringValidation) WithRequired(required bool) *StringValidation {
	v.Required = required
	return v
}

// Validate performs validation; lengths count runes
func (v *StringValidation) Validate() bool {
	value := strings.TrimSpace(v.Value)
	if v.Required && value == "" {
		return false
	}
	if !v.Required && value == "" {
		return true
	}

	n := len([]rune(value))
	if v.MinLen > 0 && n < v.MinLen {
		return false
	}
	if v.MaxLen > 0 && n > v.MaxLen {
		return false
	}

	if v.Pattern != nil && !v.Pattern.MatchString(value) {
		return false
	}

	return true
}

// DecimalValidation checks a decimal number carried as text
type DecimalValidation struct {
	Value    string
	Min      float64
	Max      float64
	Required bool
}

// NewDecimalValidation creates a new decimal validation
func NewDecimalValidation(value string) *DecimalValidation {
	return &DecimalValidation{
		Value:    value,
		Required: true,
	}
}

// WithRange sets the inclusive bounds
func (v *DecimalValidation) WithRange(min, max float64) *DecimalValidation {
	v.Min = min
	v.Max = max
	return v
}

// WithRequired sets if field is required
func (v *DecimalValidation) WithRequired(required bool) *DecimalValidation {
	v.Required = required
	return v
}

// Validate performs validation
func (v *DecimalValidation) Validate() bool {
	value := strings.TrimSpace(v.Value)
	if value == "" {
		return !v.Required
	}

	num, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return false
	}
	return num >= v.Min && num <= v.Max
}

// ValidCGPA reports whether s is a grade point average between 0.0 and 4.0
func ValidCGPA(s string) bool {
	return NewDecimalValidation(s).WithRange(CGPAMin, CGPAMax).Validate()
}

// ValidCourseCode reports whether s looks like a course code
func ValidCourseCode(s string) bool {
	return NewStringValidation(s).WithMaxLength(20).WithPattern(CompiledPatterns.CourseCode).Validate()
}

// RegisterRules adds the intake-specific tags to a validator:
// "cgpa" for grade point averages and "coursecode" for course codes.
// Empty values pass both tags; combine with "required" where needed.
func RegisterRules(v *validator.Validate) error {
	if err := v.RegisterValidation("cgpa", func(fl validator.FieldLevel) bool {
		return NewDecimalValidation(fl.Field().String()).
			WithRange(CGPAMin, CGPAMax).
			WithRequired(false).
			Validate()
	}); err != nil {
		return err
	}

	return v.RegisterValidation("coursecode", func(fl validator.FieldLevel) bool {
		return NewStringValidation(fl.Field().String()).
			WithMaxLength(20).
			WithPattern(CompiledPatterns.CourseCode).
			WithRequired(false).
			Validate()
	})
}
