// Package validation はフォーム入力の検証と、フィールド別エラーメッセージへの変換を提供する。
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/hitoshi/glowderm/internal/model"
)

// Messages は "フィールド名.タグ" からユーザー向けメッセージへの対応表。
type Messages map[string]string

// Form は検証対象のフォーム。
type Form interface {
	// FormName はメトリクスやログに使うフォーム名を返す。
	FormName() string
	// Messages は検証タグごとのエラーメッセージを返す。
	Messages() Messages
}

// normalizer は検証前に入力を整形するフォームが実装する。
type normalizer interface {
	Normalize()
}

// Validator はvalidator/v10をラップし、検証失敗をAPIErrorに変換する。
type Validator struct {
	v *validator.Validate
}

// New はValidatorを生成する。フィールド名にはjsonタグ名を使用する。
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &Validator{v: v}
}

// Validate はフォームを検証する。
// 検証に失敗した場合はフィールドごとの最初のエラーを持つVALIDATION_FAILEDのAPIErrorを返す。
// formはポインタで渡すこと。Normalizeを実装している場合は検証前に呼び出す。
func (v *Validator) Validate(form Form) error {
	if n, ok := form.(normalizer); ok {
		n.Normalize()
	}

	err := v.v.Struct(form)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("failed to validate %s form: %w", form.FormName(), err)
	}

	messages := form.Messages()
	fieldErrors := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		field := fe.Field()
		if _, exists := fieldErrors[field]; exists {
			continue
		}
		fieldErrors[field] = messageFor(messages, field, fe.Tag())
	}

	return model.NewValidationError(fieldErrors)
}

func messageFor(messages Messages, field, tag string) string {
	if msg, ok := messages[field+"."+tag]; ok {
		return msg
	}
	if msg, ok := messages[field]; ok {
		return msg
	}
	return fmt.Sprintf("%s is invalid", field)
}
