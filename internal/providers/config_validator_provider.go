package providers

import (
	"regexp"

	"github.com/gookit/validate"

	"tracer/internal/structures"
)

var unixPathRe = regexp.MustCompile(`^[^\x00\\]+$`)

type CnfValidator struct {
	conf *structures.Config
}

func NewCnfValidator(conf *structures.Config) *CnfValidator {
	return &CnfValidator{conf: conf}
}

func (c *CnfValidator) Validate() error {
	v := validate.Struct(c.conf)
	v.AddValidator("unixPath", func(val interface{}) bool {
		s, ok := val.(string)
		return ok && unixPathRe.MatchString(s)
	})
	v.AddMessages(map[string]string{
		"unixPath": "{field} must be a valid unix path",
	})
	if !v.Validate() {
		return v.Errors
	}
	return nil
}
