package validator

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validator instance
var validate *validator.Validate

func init() {
	validate = validator.New()

	// Use JSON tag names in error messages
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	registerCustomValidations()
}

func registerCustomValidations() {
	// Listing type validation
	validate.RegisterValidation("listing_type", oneOfString("direct_sale", "auction", "timed_break"))

	// Card condition validation
	validate.RegisterValidation("condition", oneOfString("NM", "LP", "MP", "HP", "DMG", ""))

	// Grading company validation
	validate.RegisterValidation("grading_company", oneOfString("PSA", "BGS", "CGC", "ACE", ""))

	// Sealed product type validation
	validate.RegisterValidation("sealed_type", oneOfString("booster_box", "elite_trainer_box", "tin", "collection_box", "blister", ""))

	// Role validation (identity collaborator roles)
	validate.RegisterValidation("role", oneOfString("collector", "seller", "breaker", "admin"))

	// Sort option validation
	validate.RegisterValidation("sort_option", oneOfString("newest", "price_asc", "price_desc", "ending_soon", "most_bids", ""))
}

func oneOfString(allowed ...string) validator.Func {
	return func(fl validator.FieldLevel) bool {
		v := fl.Field().String()
		for _, a := range allowed {
			if v == a {
				return true
			}
		}
		return false
	}
}

// Validate validates a struct and returns a map of field errors
func Validate(s interface{}) map[string]string {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	errors := make(map[string]string)
	for _, err := range err.(validator.ValidationErrors) {
		field := err.Field()
		switch err.Tag() {
		case "required":
			errors[field] = "This field is required"
		case "min":
			errors[field] = "Value is too short (min: " + err.Param() + ")"
		case "max":
			errors[field] = "Value is too long (max: " + err.Param() + ")"
		case "gte":
			errors[field] = "Value must be at least " + err.Param()
		case "lte":
			errors[field] = "Value must be at most " + err.Param()
		case "gt":
			errors[field] = "Value must be greater than " + err.Param()
		case "url":
			errors[field] = "Invalid URL format"
		case "listing_type":
			errors[field] = "Invalid listing type. Must be: direct_sale, auction, or timed_break"
		case "condition":
			errors[field] = "Invalid condition. Must be: NM, LP, MP, HP, or DMG"
		case "grading_company":
			errors[field] = "Invalid grading company. Must be: PSA, BGS, CGC, or ACE"
		case "sealed_type":
			errors[field] = "Invalid sealed product type"
		case "role":
			errors[field] = "Invalid role. Must be: collector, seller, breaker, or admin"
		case "sort_option":
			errors[field] = "Invalid sort option"
		default:
			errors[field] = "Invalid value"
		}
	}

	return errors
}

// ValidateVar validates a single variable
func ValidateVar(field interface{}, tag string) error {
	return validate.Var(field, tag)
}
