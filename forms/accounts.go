package forms

import "strings"

type RegisterForm struct {
	Username  string `form:"username" validate:"required,max=150,username"`
	Email     string `form:"email" validate:"required,max=254,email"`
	Password1 string `form:"password1" validate:"required"`
	Password2 string `form:"password2" validate:"required"`
}

// CleanRegistration validates a sign-up form. Whether the username is still
// free is left to the caller, which owns the database.
func CleanRegistration(form RegisterForm) (RegisterForm, Errors) {
	form.Username = strings.TrimSpace(form.Username)
	form.Email = strings.TrimSpace(form.Email)

	errs := check(form, nil)
	if form.Password1 == "" || form.Password2 == "" {
		return form, errs
	}

	if form.Password1 != form.Password2 {
		errs.Add("password2", KindMismatch, "The two password fields didn't match.")
		return form, errs
	}

	for _, msg := range ValidatePassword(form.Password2, form.Username, form.Email) {
		errs.Add("password2", KindWeakPassword, msg)
	}
	return form, errs
}

// Redisplay drops the passwords so they are never echoed back into a page.
func (f RegisterForm) Redisplay() RegisterForm {
	f.Password1 = ""
	f.Password2 = ""
	return f
}

type LoginForm struct {
	Username string `form:"username" validate:"required"`
	Password string `form:"password" validate:"required"`
}

// InvalidLogin is the only message shown for a failed login, whether or not
// the username exists.
const InvalidLogin = "Please enter a correct username and password. Note that both fields may be case-sensitive."

func CleanLogin(form LoginForm) (LoginForm, Errors) {
	form.Username = strings.TrimSpace(form.Username)
	return form, check(form, nil)
}

// LoginFailed builds the errors for rejected credentials.
func LoginFailed() Errors {
	return Errors{{Field: NonField, Kind: KindAuth, Message: InvalidLogin}}
}
