package prompt

import (
	"errors"
	"fmt"

	"github.com/manifoldco/promptui"
)

// ErrPasswordMismatch reports that the confirmation entry differed.
var ErrPasswordMismatch = errors.New("passwords do not match")

// Password reads a masked password.
func Password(label string) (string, error) {
	p := promptui.Prompt{Label: label, Mask: '*'}
	got, err := p.Run()
	return got, wrapError(err)
}

// minLengthValidator rejects entries shorter than n characters.
func minLengthValidator(n int) promptui.ValidateFunc {
	return func(input string) error {
		if len(input) < n {
			return fmt.Errorf("password must be at least %d characters", n)
		}
		return nil
	}
}

// PasswordWithValidation reads a masked password of at least minLength
// characters, re-prompting until the input is long enough.
func PasswordWithValidation(label string, minLength int) (string, error) {
	p := promptui.Prompt{
		Label:    label,
		Mask:     '*',
		Validate: minLengthValidator(minLength),
	}
	got, err := p.Run()
	return got, wrapError(err)
}

// PasswordWithConfirmation reads a password twice and requires both
// entries to match.
func PasswordWithConfirmation(label, confirmLabel string, minLength int) (string, error) {
	first, err := PasswordWithValidation(label, minLength)
	if err != nil {
		return "", err
	}

	second, err := Password(confirmLabel)
	if err != nil {
		return "", err
	}

	if first != second {
		return "", ErrPasswordMismatch
	}
	return first, nil
}
