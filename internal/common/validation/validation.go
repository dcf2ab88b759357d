package validation

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

const (
	// Максимальные длины для различных полей
	MaxRibbonTextLength = 24
	MaxGiftNameLength   = 128
	MaxUsernameLength   = 32

	DefaultGiftName = "New Gift"

	// DefaultGiftDescription is shown for gifts without a description.
	DefaultGiftDescription = "This gift will soon be available for upgrade, sale or minting as an NFT."
)

// RibbonColors допустимые цвета ленты
var RibbonColors = map[string]struct{}{
	"blue":   {},
	"green":  {},
	"orange": {},
	"red":    {},
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// Validator returns the shared validator instance with custom tags registered.
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		_ = validate.RegisterValidation("ribbon_color", func(fl validator.FieldLevel) bool {
			v := fl.Field().String()
			if v == "" {
				return true
			}
			_, ok := RibbonColors[v]
			return ok
		})
	})
	return validate
}

// Struct validates a struct using `validate` tags.
func Struct(s interface{}) error {
	return Validator().Struct(s)
}

// NormalizeRibbonText обрезает пробелы и длину; пустая строка превращается в nil
func NormalizeRibbonText(text *string) *string {
	if text == nil {
		return nil
	}
	t := strings.TrimSpace(*text)
	if r := []rune(t); len(r) > MaxRibbonTextLength {
		t = string(r[:MaxRibbonTextLength])
	}
	if t == "" {
		return nil
	}
	return &t
}

// NormalizeRibbonColor maps anything outside the allowed set to nil.
func NormalizeRibbonColor(color *string) *string {
	if color == nil {
		return nil
	}
	c := strings.ToLower(strings.TrimSpace(*color))
	if _, ok := RibbonColors[c]; !ok {
		return nil
	}
	return &c
}

// NormalizeDescription убирает неразрывные пробелы и строковые "null"/"undefined"
func NormalizeDescription(desc *string) string {
	if desc == nil {
		return ""
	}
	cleaned := strings.TrimSpace(strings.ReplaceAll(*desc, "\u00a0", " "))
	switch strings.ToLower(cleaned) {
	case "null", "undefined":
		return ""
	}
	return cleaned
}

// DescriptionOrDefault returns the default text for an empty description.
func DescriptionOrDefault(desc *string) string {
	if desc == nil || strings.TrimSpace(*desc) == "" {
		return DefaultGiftDescription
	}
	return *desc
}

// NormalizeGiftName возвращает имя по умолчанию для пустого значения
func NormalizeGiftName(name *string) string {
	if name == nil {
		return DefaultGiftName
	}
	n := strings.TrimSpace(*name)
	if n == "" {
		return DefaultGiftName
	}
	if r := []rune(n); len(r) > MaxGiftNameLength {
		n = string(r[:MaxGiftNameLength])
	}
	return n
}

// ValidatePositiveInt проверяет, что число положительное
func ValidatePositiveInt(value int64, fieldName string) error {
	if value <= 0 {
		return fmt.Errorf("%s must be positive", fieldName)
	}
	return nil
}

// ValidateNonNegativeInt проверяет, что число неотрицательное
func ValidateNonNegativeInt(value int64, fieldName string) error {
	if value < 0 {
		return fmt.Errorf("%s cannot be negative", fieldName)
	}
	return nil
}

// CoerceAmount applies the admin-form rule: missing or non-positive amounts become 1.
func CoerceAmount(amount int64) int64 {
	if amount < 1 {
		return 1
	}
	return amount
}

// FlexInt принимает в JSON как число, так и строку с числом ("42").
// Пустая строка и null дают 0.
type FlexInt int64

func (f *FlexInt) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" {
		*f = 0
		return nil
	}
	if unq, err := strconv.Unquote(s); err == nil {
		s = strings.TrimSpace(unq)
	}
	if s == "" {
		*f = 0
		return nil
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid integer value %q", s)
	}
	*f = FlexInt(v)
	return nil
}

func (f FlexInt) Int64() int64 {
	return int64(f)
}
