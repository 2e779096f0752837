package models

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/dmitrijs2005/questboard/internal/common"
)

// Profile is the public part of a user, stored at users/{ID}.
type Profile struct {
	ID             string `json:"id,omitempty"`
	Name           string `json:"name"`
	Bio            string `json:"bio,omitempty"`
	ProfilePicture string `json:"profilePicture,omitempty"`
	FirstName      string `json:"firstName,omitempty"`
	LastName       string `json:"lastName,omitempty"`
	Birthday       string `json:"bday,omitempty"`
	PhoneNumber    string `json:"phoneNumber,omitempty"`
	Email          string `json:"email,omitempty"`
}

// DisplayName falls back to the id when a profile has no name yet.
func (p Profile) DisplayName() string {
	if p.Name != "" {
		return p.Name
	}
	return p.ID
}

// Public drops the contact details only the owner may see.
func (p Profile) Public() Profile {
	p.Birthday, p.PhoneNumber, p.Email = "", "", ""
	return p
}

// ProfileEdit is the settings form. Picture is an opaque reference kept
// exactly as given.
type ProfileEdit struct {
	Name           string `json:"name"`
	Bio            string `json:"bio"`
	ProfilePicture string `json:"profilePicture"`
}

func (e ProfileEdit) Validate() error {
	if strings.TrimSpace(e.Name) == "" {
		return fmt.Errorf("%w: name cannot be empty", common.ErrValidation)
	}
	return nil
}

// Registration is the sign-up form.
type Registration struct {
	FirstName       string `json:"firstName"`
	LastName        string `json:"lastName"`
	Birthday        string `json:"bday"`
	PhoneNumber     string `json:"phoneNumber"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

// MinAge is the youngest a user may register at.
const MinAge = 18

var (
	phoneRe    = regexp.MustCompile(`^\d{11}$`)
	passwordRe = regexp.MustCompile(`^[A-Za-z\d]{6,}$`)
	letterRe   = regexp.MustCompile(`[A-Za-z]`)
	digitRe    = regexp.MustCompile(`\d`)
)

// Validate reports every failing field at once, joined. emailDomain limits
// which addresses may register; now is used for the age check.
func (r Registration) Validate(emailDomain string, now time.Time) error {
	var errs []error
	fail := func(msg string) {
		errs = append(errs, fmt.Errorf("%w: %s", common.ErrValidation, msg))
	}

	if r.FirstName == "" || r.LastName == "" || r.Birthday == "" || r.PhoneNumber == "" ||
		r.Email == "" || r.Password == "" || r.ConfirmPassword == "" {
		fail("please fill in all fields")
	}
	if r.Password != r.ConfirmPassword {
		fail("passwords do not match")
	}
	emailRe := regexp.MustCompile(`^[a-zA-Z0-9._-]+@` + regexp.QuoteMeta(emailDomain) + `$`)
	if !emailRe.MatchString(r.Email) {
		fail("please enter a valid " + emailDomain + " email")
	}
	if !phoneRe.MatchString(r.PhoneNumber) {
		fail("please enter a valid phone number")
	}
	if !passwordRe.MatchString(r.Password) || !letterRe.MatchString(r.Password) || !digitRe.MatchString(r.Password) {
		fail("password should be at least 6 characters long and contain both letters and numbers")
	}
	if !oldEnough(r.Birthday, now) {
		fail(fmt.Sprintf("birthday must be a valid date (YYYY-MM-DD) and you must be at least %d years old", MinAge))
	}

	return errors.Join(errs...)
}

// DisplayName is the name a newly registered user is shown under.
func (r Registration) DisplayName() string {
	return strings.TrimSpace(r.FirstName + " " + r.LastName)
}

func oldEnough(birthday string, now time.Time) bool {
	born, err := time.Parse(DateLayout, birthday)
	if err != nil {
		return false
	}
	age := now.Year() - born.Year()
	if now.Month() < born.Month() || (now.Month() == born.Month() && now.Day() < born.Day()) {
		age--
	}
	return age >= MinAge
}
