package attendance

import (
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/mahudhurio/core"
)

var (
	pinRequiredTag  = "pinrequired"
	pinRequiredText = "a PIN is required when require_pin is set"
)

func init() {
	core.Validate.RegisterStructValidation(newSessionStructValidation, NewSession{})
	core.RegisterCustomTranslation(pinRequiredTag, pinRequiredText)
}

// newSessionStructValidation enforces the creation invariant: a session with
// require_pin set must carry a non-empty PIN.
func newSessionStructValidation(sl validator.StructLevel) {
	if ns, ok := sl.Current().Interface().(NewSession); ok {
		if ns.RequirePIN && ns.PIN == "" {
			sl.ReportError(ns.PIN, "pin", "PIN", pinRequiredTag, "")
		}
	}
}
