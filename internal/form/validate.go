package form

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kgkhs001/BrighamWomensApp/internal/model"
	"github.com/kgkhs001/BrighamWomensApp/internal/utils"
)

// 数量字段允许的范围
const (
	MinQuantity = 0
	MaxQuantity = 100
)

// dateLayouts 表单日期可接受的格式
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02T15:04",
	time.RFC3339,
}

// Languages 口译服务支持的语言
var Languages = []string{
	"Arabic", "Bengali", "French", "German", "Greek", "Gujarati", "Hindi", "Italian",
	"Japanese", "Korean", "Lao", "Marathi", "Polish", "Portuguese", "Punjabi", "Russian",
	"Spanish", "Tagalog", "Tamil", "Turkish", "Mandarin", "Urdu", "Vietnamese", "Yoruba",
}

// validationMessages 校验标签对应的提示语
var validationMessages = map[string]string{
	"required":         "is required",
	"required_without": "is required when %s is empty",
	"oneof":            "must be one of: %s",
	"quantity":         fmt.Sprintf("must be an integer between %d and %d", MinQuantity, MaxQuantity),
	"formdate":         "must be a date (YYYY-MM-DD)",
	"priority":         "must be one of: Low, Medium, High, Emergency",
	"status":           "must be one of: Unassigned, Assigned, InProgress, Closed",
	"language":         "is not a supported language",
	"safetext":         "contains forbidden characters",
	"max":              "must be at most %s characters",
}

var validate *validator.Validate

func init() {
	validate = validator.New()

	// 错误字段名使用 json 标签
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	// Quantity 缺失时返回 nil，非整数映射为越界值
	validate.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		q, ok := field.Interface().(Quantity)
		if !ok || !q.Present {
			return nil
		}
		if q.Invalid {
			return MinQuantity - 1
		}
		return q.Value
	}, Quantity{})

	_ = validate.RegisterValidation("quantity", validateQuantity)
	_ = validate.RegisterValidation("formdate", validateFormDate)
	_ = validate.RegisterValidation("priority", validatePriority)
	_ = validate.RegisterValidation("status", validateStatus)
	_ = validate.RegisterValidation("language", validateLanguage)
	_ = validate.RegisterValidation("safetext", validateSafeText)
}

func validateQuantity(fl validator.FieldLevel) bool {
	field := fl.Field()
	switch field.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		v := field.Int()
		return v >= MinQuantity && v <= MaxQuantity
	}
	return false
}

func validateFormDate(fl validator.FieldLevel) bool {
	_, err := ParseDate(fl.Field().String())
	return err == nil
}

func validatePriority(fl validator.FieldLevel) bool {
	return model.Priority(fl.Field().String()).Valid()
}

func validateStatus(fl validator.FieldLevel) bool {
	return model.Status(fl.Field().String()).Valid()
}

func validateLanguage(fl validator.FieldLevel) bool {
	lang := fl.Field().String()
	for _, l := range Languages {
		if l == lang {
			return true
		}
	}
	return false
}

func validateSafeText(fl validator.FieldLevel) bool {
	return !utils.ContainsDangerousChars(fl.Field().String())
}

// ParseDate 按支持的格式解析表单日期
func ParseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", value)
}

// FieldError 单个字段的校验错误
type FieldError struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

// ValidationError 表单校验失败，包含全部字段错误
type ValidationError struct {
	Fields []FieldError `json:"fields"`
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+" "+f.Message)
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

// Invalid 构造单字段校验错误
func Invalid(field, rule, message string) *ValidationError {
	return &ValidationError{Fields: []FieldError{{Field: field, Rule: rule, Message: message}}}
}

// Validate 校验表单结构体，失败时返回 *ValidationError
func Validate(f interface{}) error {
	err := validate.Struct(f)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err
	}

	result := &ValidationError{Fields: make([]FieldError, 0, len(validationErrors))}
	for _, fe := range validationErrors {
		rule := fe.Tag()
		// 缺失的 Quantity 没有可校验的值
		if rule == "quantity" && fe.Value() == nil {
			rule = "required"
		}
		result.Fields = append(result.Fields, FieldError{
			Field:   fe.Field(),
			Rule:    rule,
			Message: formatMessage(rule, fe.Param()),
		})
	}
	return result
}

func formatMessage(rule, param string) string {
	msg, ok := validationMessages[rule]
	if !ok {
		return "is invalid"
	}
	if !strings.Contains(msg, "%s") {
		return msg
	}
	switch rule {
	case "oneof":
		param = strings.Join(splitOneOf(param), ", ")
	case "required_without":
		// 参数是 Go 字段名，转换为 json 名称
		if param != "" {
			param = strings.ToLower(param[:1]) + param[1:]
		}
	}
	return fmt.Sprintf(msg, param)
}

// splitOneOf 拆分 oneof 参数，支持单引号包裹的带空格取值
func splitOneOf(param string) []string {
	if !strings.Contains(param, "'") {
		return strings.Fields(param)
	}
	var values []string
	for _, part := range strings.Split(param, "'") {
		if part = strings.TrimSpace(part); part != "" {
			values = append(values, part)
		}
	}
	return values
}
