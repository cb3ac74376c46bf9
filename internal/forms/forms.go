// internal/forms/forms.go
package forms

import (
	"strings"

	"github.com/varchas/website/internal/catalog"
)

// Credentials is the first step of account signup.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Confirm  string `json:"confirm"`
}

func (c Credentials) Validate() Errors {
	errs := Errors{}
	errs.Set("email", ValidateEmail(c.Email))
	errs.Set("password", ValidatePassword(c.Password))
	errs.Set("confirm", ValidateConfirm(c.Password, c.Confirm))
	return errs
}

type Login struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (l Login) Validate() Errors {
	errs := Errors{}
	errs.Set("email", ValidateEmail(l.Email))
	if l.Password == "" {
		errs.Set("password", "Password is required")
	}
	return errs
}

// Profile is the second signup step, sent to /account/updateInfo/.
type Profile struct {
	Email                 string `json:"email"`
	FirstName             string `json:"first_name"`
	LastName              string `json:"last_name"`
	Phone                 string `json:"phone"`
	Gender                string `json:"gender"`
	College               string `json:"college"`
	State                 string `json:"state"`
	AccommodationRequired string `json:"accommodation_required"`
	AccountHolderName     string `json:"account_holder_name"`
	IFSCCode              string `json:"ifsc_code"`
	BankAccountNumber     string `json:"bank_account_number"`
}

func (p Profile) Validate(c *catalog.Catalog) Errors {
	errs := Errors{}
	errs.Set("email", ValidateEmail(p.Email))
	errs.Set("first_name", ValidateGivenName(p.FirstName))
	errs.Set("last_name", ValidateGivenName(p.LastName))
	errs.Set("phone", ValidatePhone(p.Phone))
	errs.Set("gender", ValidateGender(p.Gender))
	errs.Set("college", ValidateRequired(p.College))
	errs.Set("account_holder_name", ValidateRequired(p.AccountHolderName))
	errs.Set("ifsc_code", ValidateIFSC(p.IFSCCode))
	errs.Set("bank_account_number", ValidateBankAccount(p.BankAccountNumber))
	errs.Set("accommodation_required", ValidateAccommodation(p.AccommodationRequired))
	switch {
	case strings.TrimSpace(p.State) == "":
		errs.Set("state", "Please select a state")
	case c != nil && !c.HasState(p.State):
		errs.Set("state", "Please select a state")
	}
	return errs
}

// Normalized returns the profile in the shape the backend stores.
func (p Profile) Normalized() Profile {
	p.Gender = strings.ToUpper(strings.TrimSpace(p.Gender))
	p.IFSCCode = strings.ToUpper(strings.TrimSpace(p.IFSCCode))
	if p.AccommodationRequired == "" {
		p.AccommodationRequired = "N"
	}
	return p
}

type Referee struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
	Sport string `json:"sport"`
}

func (r Referee) Validate(c *catalog.Catalog) Errors {
	errs := Errors{}
	errs.Set("name", ValidatePersonName(r.Name))
	errs.Set("email", ValidateEmail(r.Email))
	errs.Set("phone", ValidatePhone(r.Phone))
	if strings.TrimSpace(r.Sport) == "" || (c != nil && !c.IsRefereeSport(r.Sport)) {
		errs.Set("sport", "Please select a sport")
	}
	return errs
}

// TeamPreRegistration is the landing page "register team" tab.
type TeamPreRegistration struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	College string `json:"college"`
	Phone   string `json:"phone"`
	Sport   string `json:"sport"`
	Size    int    `json:"size"`
}

func (t TeamPreRegistration) Validate(c *catalog.Catalog) Errors {
	errs := Errors{}
	errs.Set("name", ValidateRequired(t.Name))
	errs.Set("email", ValidateEmail(t.Email))
	errs.Set("college", ValidateRequired(t.College))
	errs.Set("phone", ValidatePhone(t.Phone))
	if strings.TrimSpace(t.Sport) == "" || (c != nil && !c.IsPreRegistrationSport(t.Sport)) {
		errs.Set("sport", "Please select a sport")
	}
	if t.Size < 1 {
		errs.Set("size", "Size must be at least 1")
	}
	return errs
}

// ContingentPreRegistration is the landing page "register contingent" tab.
type ContingentPreRegistration struct {
	Leader  string   `json:"name"`
	Email   string   `json:"email"`
	College string   `json:"college"`
	Phone   string   `json:"phone"`
	Sports  []string `json:"sports"`
	Size    int      `json:"size"`
}

func (p ContingentPreRegistration) Validate(c *catalog.Catalog) Errors {
	errs := Errors{}
	errs.Set("name", ValidateRequired(p.Leader))
	errs.Set("email", ValidateEmail(p.Email))
	errs.Set("college", ValidateRequired(p.College))
	errs.Set("phone", ValidatePhone(p.Phone))
	if len(p.Sports) == 0 {
		errs.Set("sports", "Select at least one sport")
	}
	for _, sport := range p.Sports {
		if c != nil && !c.IsPreRegistrationSport(sport) {
			errs.Set("sports", "Unknown sport: "+sport)
			break
		}
	}
	if p.Size < 1 {
		errs.Set("size", "Size must be at least 1")
	}
	return errs
}
