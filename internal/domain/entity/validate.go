package entity

import "github.com/go-playground/validator/v10"

// Shared validator for records crossing the REST/WS boundary. Payloads
// are duck-typed on the wire; required fields are checked here instead
// of assumed present.
var validate = validator.New()
