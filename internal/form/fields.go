package form

import "github.com/haguru/kakashi/internal/models"

// Option is one choice of a select field.
type Option struct {
	Value string
	Label string
}

// Field describes one input of a rendered form.
type Field struct {
	Name     string
	Label    string
	Type     string
	Required bool
	Options  []Option
}

// IsSelect reports whether the field renders as a select.
func (f Field) IsSelect() bool {
	return len(f.Options) > 0
}

// SignupFields are the inputs of the signup view, in display order.
var SignupFields = []Field{
	{Name: "username", Label: "Username", Type: "text", Required: true},
	{Name: "email", Label: "Email", Type: "email", Required: true},
	{Name: "password", Label: "Password", Type: "password", Required: true},
	{Name: "role", Label: "Role", Type: "select", Required: true, Options: roleOptions()},
}

// LoginFields are the inputs of the login view.
var LoginFields = []Field{
	{Name: "username", Label: "Username", Type: "text", Required: true},
	{Name: "password", Label: "Password", Type: "password", Required: true},
}

func roleOptions() []Option {
	options := make([]Option, 0, len(models.Roles))
	for _, role := range models.Roles {
		options = append(options, Option{Value: role.String(), Label: roleLabel(role)})
	}
	return options
}

func roleLabel(role models.Role) string {
	switch role {
	case models.RoleAdmin:
		return "Admin"
	case models.RoleAccountant:
		return "Accountant"
	default:
		return role.String()
	}
}

// labelFor returns the display label of a field name, falling back to the name.
func labelFor(fields []Field, name string) string {
	for _, f := range fields {
		if f.Name == name {
			return f.Label
		}
	}
	return name
}
