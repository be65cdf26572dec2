package auth

import (
	"bufio"
	_ "embed"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/agext/levenshtein"
	"github.com/hashicorp/go-multierror"

	"github.com/phrazzld/service-scaffold/internal/config"
	"github.com/phrazzld/service-scaffold/internal/domain"
)

//go:embed common-passwords.txt
var commonPasswordList string

// Registered password validator names.
const (
	ValidatorUserAttributeSimilarity = "user_attribute_similarity"
	ValidatorMinimumLength           = "minimum_length"
	ValidatorCommon                  = "common"
	ValidatorNumeric                 = "numeric"
)

const (
	defaultMaxSimilarity = 0.7
	defaultMinLength     = 8
)

// PasswordValidator checks one rule against a candidate password.
type PasswordValidator interface {
	// Validate returns an error describing why password is unacceptable for user.
	// user may be nil when no account exists yet.
	Validate(password string, user *domain.User) error
	// HelpText describes the rule for display next to a password field.
	HelpText() string
}

// NewPasswordValidators builds the configured validator chain in order.
func NewPasswordValidators(cfgs []config.PasswordValidatorConfig) ([]PasswordValidator, error) {
	validators := make([]PasswordValidator, 0, len(cfgs))
	for _, c := range cfgs {
		switch c.Name {
		case ValidatorUserAttributeSimilarity:
			validators = append(validators, &UserAttributeSimilarityValidator{
				Attributes:    stringsOption(c.Options, "attributes", []string{"username", "email"}),
				MaxSimilarity: floatOption(c.Options, "max_similarity", defaultMaxSimilarity),
			})
		case ValidatorMinimumLength:
			validators = append(validators, &MinimumLengthValidator{
				MinLength: intOption(c.Options, "min_length", defaultMinLength),
			})
		case ValidatorCommon:
			validators = append(validators, NewCommonPasswordValidator())
		case ValidatorNumeric:
			validators = append(validators, &NumericPasswordValidator{})
		default:
			return nil, fmt.Errorf("%w: %q", ErrUnknownValidator, c.Name)
		}
	}
	return validators, nil
}

// ValidatePassword runs every validator and returns all failures at once,
// wrapped in ErrPasswordRejected. A nil result means the password is accepted.
func ValidatePassword(password string, user *domain.User, validators []PasswordValidator) error {
	var result *multierror.Error
	for _, v := range validators {
		if err := v.Validate(password, user); err != nil {
			result = multierror.Append(result, err)
		}
	}
	if result == nil {
		return nil
	}
	result.ErrorFormat = func(errs []error) string {
		msgs := make([]string, len(errs))
		for i, e := range errs {
			msgs[i] = e.Error()
		}
		return strings.Join(msgs, "; ")
	}
	return fmt.Errorf("%w: %w", ErrPasswordRejected, result)
}

// HelpTexts collects the help text of every validator.
func HelpTexts(validators []PasswordValidator) []string {
	out := make([]string, len(validators))
	for i, v := range validators {
		out[i] = v.HelpText()
	}
	return out
}

// UserAttributeSimilarityValidator rejects passwords too close to the user's
// own attributes, comparing against each attribute and each of its words.
type UserAttributeSimilarityValidator struct {
	Attributes    []string
	MaxSimilarity float64
}

var wordSplit = regexp.MustCompile(`\W+`)

func (v *UserAttributeSimilarityValidator) Validate(password string, user *domain.User) error {
	if user == nil {
		return nil
	}
	lower := strings.ToLower(password)
	attrs := user.Attributes()
	for _, name := range v.Attributes {
		value := strings.ToLower(attrs[name])
		if value == "" {
			continue
		}
		parts := append(wordSplit.Split(value, -1), value)
		for _, part := range parts {
			if part == "" {
				continue
			}
			if levenshtein.Similarity(lower, part, nil) >= v.MaxSimilarity {
				return fmt.Errorf("the password is too similar to the %s", name)
			}
		}
	}
	return nil
}

func (v *UserAttributeSimilarityValidator) HelpText() string {
	return "Your password can't be too similar to your other personal information."
}

// MinimumLengthValidator rejects passwords shorter than MinLength characters.
type MinimumLengthValidator struct {
	MinLength int
}

func (v *MinimumLengthValidator) Validate(password string, _ *domain.User) error {
	if len([]rune(password)) < v.MinLength {
		return fmt.Errorf("this password is too short, it must contain at least %d characters", v.MinLength)
	}
	return nil
}

func (v *MinimumLengthValidator) HelpText() string {
	return fmt.Sprintf("Your password must contain at least %d characters.", v.MinLength)
}

// CommonPasswordValidator rejects passwords found in a list of common passwords.
type CommonPasswordValidator struct {
	passwords map[string]struct{}
}

// NewCommonPasswordValidator loads the embedded common password list.
func NewCommonPasswordValidator() *CommonPasswordValidator {
	v := &CommonPasswordValidator{passwords: make(map[string]struct{})}
	scanner := bufio.NewScanner(strings.NewReader(commonPasswordList))
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			v.passwords[strings.ToLower(line)] = struct{}{}
		}
	}
	return v
}

func (v *CommonPasswordValidator) Validate(password string, _ *domain.User) error {
	if _, ok := v.passwords[strings.ToLower(strings.TrimSpace(password))]; ok {
		return errors.New("this password is too common")
	}
	return nil
}

func (v *CommonPasswordValidator) HelpText() string {
	return "Your password can't be a commonly used password."
}

// NumericPasswordValidator rejects passwords made only of digits.
type NumericPasswordValidator struct{}

func (v *NumericPasswordValidator) Validate(password string, _ *domain.User) error {
	if password == "" {
		return nil
	}
	for _, r := range password {
		if !unicode.IsDigit(r) {
			return nil
		}
	}
	return errors.New("this password is entirely numeric")
}

func (v *NumericPasswordValidator) HelpText() string {
	return "Your password can't be entirely numeric."
}

func floatOption(opts map[string]any, key string, def float64) float64 {
	switch v := opts[key].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	}
	return def
}

func intOption(opts map[string]any, key string, def int) int {
	switch v := opts[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return def
}

func stringsOption(opts map[string]any, key string, def []string) []string {
	if v, ok := opts[key].([]string); ok {
		return v
	}
	return def
}
