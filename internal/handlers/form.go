package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// FormField describes one input of the rendered signup form.
type FormField struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Title       string `json:"title,omitempty"`
	Placeholder string `json:"placeholder,omitempty"`
	Required    bool   `json:"required"`
}

// FormSchema is the document a frontend uses to render the form.
type FormSchema struct {
	Fields      []FormField `json:"fields"`
	ButtonLabel string      `json:"button_label"`
}

type FormHandler struct {
	config FormConfig
}

func NewFormHandler(config FormConfig) *FormHandler {
	return &FormHandler{config: config}
}

// HandleForm answers the form schema derived from the operator's
// configuration: which name fields appear, whether they are required, and
// whether titles render as placeholders.
func (h *FormHandler) HandleForm(c *gin.Context) {
	schema := FormSchema{
		ButtonLabel: h.config.ButtonLabel,
	}
	if schema.ButtonLabel == "" {
		schema.ButtonLabel = "Sign Up"
	}

	if h.config.ShowFirstName {
		schema.Fields = append(schema.Fields, h.field("first_name", "text", "First Name", h.config.RequireFirstName))
	}
	if h.config.ShowLastName {
		schema.Fields = append(schema.Fields, h.field("last_name", "text", "Last Name", h.config.RequireLastName))
	}
	schema.Fields = append(schema.Fields, h.field("email", "email", "Email Address", true))

	c.JSON(http.StatusOK, schema)
}

func (h *FormHandler) field(name, kind, title string, required bool) FormField {
	f := FormField{
		Name:     name,
		Type:     kind,
		Required: required,
	}
	if h.config.UsePlaceholders {
		f.Placeholder = title
	} else {
		f.Title = title
	}
	return f
}
