// Package form drives the sign-in and sign-up forms: which fields they
// show, how their values are validated and how a submission moves through
// its states.
package form

// Kind is the input type rendered for a field.
type Kind string

const (
	KindText     Kind = "text"
	KindEmail    Kind = "email"
	KindNumber   Kind = "number"
	KindPassword Kind = "password"
	KindImage    Kind = "image"
)

// Type selects one of the two auth forms.
type Type string

const (
	SignIn Type = "SIGN_IN"
	SignUp Type = "SIGN_UP"
)

// Field declares one form input.
type Field struct {
	Name     string `json:"name"`
	Label    string `json:"label"`
	Kind     Kind   `json:"kind"`
	Required bool   `json:"required"`
}

// Placeholder is the hint text shown in an empty input.
func (f Field) Placeholder() string {
	return "Enter " + f.Label
}

// Labels maps field names to display labels.
var Labels = map[string]string{
	"fullName":       "Full name",
	"email":          "Email",
	"universityId":   "University ID Number",
	"password":       "Password",
	"universityCard": "Upload University ID Card",
}

func field(name string, kind Kind) Field {
	return Field{Name: name, Label: Labels[name], Kind: kind, Required: true}
}

// Fields returns the ordered inputs of a form.
func Fields(t Type) []Field {
	if t == SignIn {
		return []Field{
			field("email", KindEmail),
			field("password", KindPassword),
		}
	}
	return []Field{
		field("fullName", KindText),
		field("email", KindEmail),
		field("universityId", KindNumber),
		field("password", KindPassword),
		field("universityCard", KindImage),
	}
}

// Copy is the static text around a form.
type Copy struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Submit      string `json:"submit"`
	AltPrompt   string `json:"altPrompt"`
	AltLabel    string `json:"altLabel"`
	AltHref     string `json:"altHref"`
	Success     string `json:"-"`
	Failure     string `json:"-"`
}

// CopyFor returns the text of a form.
func CopyFor(t Type) Copy {
	if t == SignIn {
		return Copy{
			Title:       "Welcome Back to BookWise",
			Description: "Access the vast collection of resources and stay updated",
			Submit:      "Sign In",
			AltPrompt:   "New to BookWise? ",
			AltLabel:    "Create an Account",
			AltHref:     "/sign-up",
			Success:     "You have successfully signed in.",
			Failure:     "Error signing in",
		}
	}
	return Copy{
		Title:       "Create your Library Account",
		Description: "Please complete all fields and upload a valid university ID to gain access to the library",
		Submit:      "Sign Up",
		AltPrompt:   "Already have an account? ",
		AltLabel:    "Sign In",
		AltHref:     "/sign-in",
		Success:     "You have successfully signed up.",
		Failure:     "Error signing up",
	}
}
