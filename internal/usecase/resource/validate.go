package resource

import (
	"errors"
	"reflect"
	"regexp"
	"strings"

	"github.com/andreyxaxa/Resource-Service/internal/entity"
	"github.com/andreyxaxa/Resource-Service/pkg/types/errs"
	"github.com/go-playground/validator/v10"
)

var (
	yearPattern     = regexp.MustCompile(`^(19|20)\d{2}$`)
	durationPattern = regexp.MustCompile(`^\d{2}:[0-5]\d$`)
)

// field -> tag -> message
var metadataMessages = map[string]map[string]string{
	"name": {
		"required": "Song name is required",
		"max":      "Name must be between 1 and 100 characters",
	},
	"artist": {
		"required": "Artist name is required",
		"max":      "Artist must be between 1 and 100 characters",
	},
	"album": {
		"required": "Album name is required",
		"max":      "Album must be between 1 and 100 characters",
	},
	"year": {
		"required": "Year is required",
		"year":     "Year must be between 1900 and 2099",
	},
	"duration": {
		"required": "Duration is required",
		"duration": "Duration must be in mm:ss format with leading zeros",
	},
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}

		return name
	})

	_ = v.RegisterValidation("year", func(fl validator.FieldLevel) bool {
		return yearPattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("duration", func(fl validator.FieldLevel) bool {
		return durationPattern.MatchString(fl.Field().String())
	})

	return v
}

// validateMetadata trims the fields in place and checks them.
func (uc *ResourceUseCase) validateMetadata(md *entity.SongMetadata) error {
	md.Name = strings.TrimSpace(md.Name)
	md.Artist = strings.TrimSpace(md.Artist)
	md.Album = strings.TrimSpace(md.Album)
	md.Year = strings.TrimSpace(md.Year)
	md.Duration = strings.TrimSpace(md.Duration)

	err := uc.validate.Struct(md)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	details := make(map[string]string, len(fieldErrs))
	for _, fe := range fieldErrs {
		msg, ok := metadataMessages[fe.Field()][fe.Tag()]
		if !ok {
			msg = fe.Error()
		}
		details[fe.Field()] = msg
	}

	return &errs.InputError{
		Kind:    errs.ErrInvalidMetadata,
		Message: "Validation error",
		Details: details,
	}
}
