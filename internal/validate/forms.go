package validate

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var forms = newFormValidator()

func newFormValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("webemail", func(fl validator.FieldLevel) bool {
		return emailPattern.MatchString(strings.TrimSpace(fl.Field().String()))
	})
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		if name := f.Tag.Get("field"); name != "" {
			return name
		}
		return strings.ToLower(f.Name)
	})
	return v
}

// FieldError names the offending form field and the message shown under it.
type FieldError struct {
	Field   string
	Message string
}

// Errors keeps form order so the first entry is the field that takes focus.
type Errors []FieldError

func (e Errors) Valid() bool { return len(e) == 0 }

func (e Errors) FirstField() string {
	if len(e) == 0 {
		return ""
	}
	return e[0].Field
}

func (e Errors) For(field string) string {
	for _, fe := range e {
		if fe.Field == field {
			return fe.Message
		}
	}
	return ""
}

func (e Errors) Map() map[string]string {
	out := make(map[string]string, len(e))
	for _, fe := range e {
		out[fe.Field] = fe.Message
	}
	return out
}

type LoginForm struct {
	Email    string `field:"email" label:"Email address" validate:"required,webemail"`
	Password string `field:"password" label:"Password" validate:"required,min=8" msg_min:"Password must be at least 8 characters long"`
}

type SignupForm struct {
	FirstName string `field:"first_name" label:"First name" validate:"required,max=100"`
	LastName  string `field:"last_name" label:"Last name" validate:"required,max=100"`
	Email     string `field:"email" label:"Email address" validate:"required,webemail"`
	Password  string `field:"password" label:"Password" validate:"required,min=8" msg_min:"Password must be at least 8 characters long"`
}

type ForgotForm struct {
	Email string `field:"email" label:"Email address" validate:"required,webemail"`
}

type ResetForm struct {
	Password string `field:"password" label:"Password" validate:"required,min=8" msg_min:"Password must be at least 8 characters long"`
	Confirm  string `field:"confirm" validate:"required,eqfield=Password" msg_required:"Please confirm your password"`
}

type ProfileForm struct {
	FirstName string `field:"first_name" label:"First name" validate:"required,max=100"`
	LastName  string `field:"last_name" label:"Last name" validate:"required,max=100"`
	Email     string `field:"email" label:"Email address" validate:"required,webemail" msg_required:"Please enter a valid email address"`
}

type PasswordChangeForm struct {
	Current string `field:"current_password" validate:"required" msg_required:"Current password is required"`
	New     string `field:"new_password" validate:"required,min=8" msg_required:"New password must be at least 8 characters" msg_min:"New password must be at least 8 characters"`
	Confirm string `field:"confirm_password" validate:"eqfield=New"`
}

func Login(f LoginForm) Errors {
	f.Email = strings.TrimSpace(f.Email)
	return check(f)
}

func Signup(f SignupForm) Errors {
	f.FirstName = strings.TrimSpace(f.FirstName)
	f.LastName = strings.TrimSpace(f.LastName)
	f.Email = strings.TrimSpace(f.Email)
	return check(f)
}

func Forgot(f ForgotForm) Errors {
	f.Email = strings.TrimSpace(f.Email)
	return check(f)
}

func Reset(f ResetForm) Errors {
	return check(f)
}

func Profile(f ProfileForm) Errors {
	f.FirstName = strings.TrimSpace(f.FirstName)
	f.LastName = strings.TrimSpace(f.LastName)
	f.Email = strings.TrimSpace(f.Email)
	return check(f)
}

func PasswordChange(f PasswordChangeForm) Errors {
	return check(f)
}

func check(form any) Errors {
	err := forms.Struct(form)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return Errors{{Field: "form", Message: err.Error()}}
	}
	t := reflect.TypeOf(form)
	out := make(Errors, 0, len(verrs))
	for _, fe := range verrs {
		sf, _ := t.FieldByName(fe.StructField())
		out = append(out, FieldError{Field: fe.Field(), Message: fieldMessage(sf, fe)})
	}
	return out
}

func fieldMessage(sf reflect.StructField, fe validator.FieldError) string {
	if msg := sf.Tag.Get("msg_" + fe.Tag()); msg != "" {
		return msg
	}
	label := sf.Tag.Get("label")
	if label == "" {
		label = fe.Field()
	}
	switch fe.Tag() {
	case "required":
		return label + " is required"
	case "max":
		return fmt.Sprintf("%s too long (max %s characters)", label, fe.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", label, fe.Param())
	case "webemail":
		return "Please enter a valid email address"
	case "eqfield":
		return "Passwords do not match"
	default:
		return label + " is invalid"
	}
}
