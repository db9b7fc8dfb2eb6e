package i18n

import (
	"strings"
	"sync"

	"golang.org/x/text/language"
)

// Message codes used by the built-in rules.
const (
	CodeRequired            = "required"
	CodeMin                 = "min"
	CodeMax                 = "max"
	CodeMinNotNumber        = "min_not_number"
	CodeMaxNotNumber        = "max_not_number"
	CodeMinLength           = "min_length"
	CodeMaxLength           = "max_length"
	CodeMinItems            = "min_items"
	CodeMaxItems            = "max_items"
	CodePattern             = "pattern"
	CodeNoSpecialCharacters = "no_special_characters"
	CodePhoneNumber         = "phone_number"
	CodeWholeNumber         = "whole_number"
	CodeEmail               = "email"
	CodeMinDate             = "min_date"
	CodeMaxDate             = "max_date"
	CodeMinTime             = "min_time"
	CodeMaxTime             = "max_time"
	CodeInvalidText         = "invalid_text"
	CodeInvalidParameter    = "invalid_parameter"
	CodeInvalidDate         = "invalid_date"
	CodeInvalidTime         = "invalid_time"
	CodeLongitudeMax        = "longitude_max"
	CodeLongitudeMin        = "longitude_min"
	CodeLatitudeMax         = "latitude_max"
	CodeLatitudeMin         = "latitude_min"
)

// Translator retrieves localized messages for rule codes.
// data carries the values substituted into "{name}" placeholders (for example,
// "min" or "max").
type Translator interface {
	Message(code string, data map[string]string) string
}

var catalogs = map[string]map[string]string{
	"en": {
		CodeRequired:            "This field is required!",
		CodeMin:                 "Value cannot be less than {min}",
		CodeMax:                 "Value cannot be greater than {max}",
		CodeMinNotNumber:        "Min value only supports numbers",
		CodeMaxNotNumber:        "Max value only supports numbers",
		CodeMinLength:           "Value cannot be shorter than {min} characters",
		CodeMaxLength:           "Value cannot be longer than {max} characters",
		CodeMinItems:            "Please select at least {min} option{plural}!",
		CodeMaxItems:            "Please select less than {max} option{plural}!",
		CodePattern:             "Input is invalid",
		CodeNoSpecialCharacters: "No special characters allowed",
		CodePhoneNumber:         "Not a valid phone number",
		CodeWholeNumber:         "Input must be a whole number",
		CodeEmail:               "Please enter a valid email address!",
		CodeMinDate:             "Date cannot be before {min}",
		CodeMaxDate:             "Date cannot be after {max}",
		CodeMinTime:             "Time cannot be before {min}",
		CodeMaxTime:             "Time cannot be after {max}",
		CodeInvalidText:         "Invalid text",
		CodeInvalidParameter:    "Invalid parameter",
		CodeInvalidDate:         "Invalid date",
		CodeInvalidTime:         "Invalid time",
		CodeLongitudeMax:        "Longitude cannot be greater than 180",
		CodeLongitudeMin:        "Longitude cannot be less than -180",
		CodeLatitudeMax:         "Latitude cannot be greater than 90",
		CodeLatitudeMin:         "Latitude cannot be less than -90",
	},
	"ja": {
		CodeRequired:            "必須項目です",
		CodeMin:                 "{min} 以上の値を入力してください",
		CodeMax:                 "{max} 以下の値を入力してください",
		CodeMinNotNumber:        "最小値は数値のみ対応しています",
		CodeMaxNotNumber:        "最大値は数値のみ対応しています",
		CodeMinLength:           "{min} 文字以上で入力してください",
		CodeMaxLength:           "{max} 文字以内で入力してください",
		CodeMinItems:            "{min} 件以上選択してください",
		CodeMaxItems:            "{max} 件未満で選択してください",
		CodePattern:             "入力が不正です",
		CodeNoSpecialCharacters: "記号は使用できません",
		CodePhoneNumber:         "電話番号が不正です",
		CodeWholeNumber:         "整数を入力してください",
		CodeEmail:               "有効なメールアドレスを入力してください",
		CodeMinDate:             "{min} より前の日付は指定できません",
		CodeMaxDate:             "{max} より後の日付は指定できません",
		CodeMinTime:             "{min} より前の時刻は指定できません",
		CodeMaxTime:             "{max} より後の時刻は指定できません",
		CodeInvalidText:         "テキストが不正です",
		CodeInvalidParameter:    "パラメータが不正です",
		CodeInvalidDate:         "日付が不正です",
		CodeInvalidTime:         "時刻が不正です",
		CodeLongitudeMax:        "経度は 180 以下で入力してください",
		CodeLongitudeMin:        "経度は -180 以上で入力してください",
		CodeLatitudeMax:         "緯度は 90 以下で入力してください",
		CodeLatitudeMin:         "緯度は -90 以上で入力してください",
	},
}

// dictTranslator is the built-in dictionary-based Translator.
type dictTranslator struct{ lang string }

func (t dictTranslator) Message(code string, data map[string]string) string {
	msg, ok := catalogs[t.lang][code]
	if !ok {
		// fall back to English, then to the bare code
		if msg, ok = catalogs["en"][code]; !ok {
			return code
		}
	}
	return Substitute(msg, data)
}

// Substitute replaces "{key}" placeholders in msg with values from data.
// Unknown placeholders are left untouched.
func Substitute(msg string, data map[string]string) string {
	if len(data) == 0 || !strings.Contains(msg, "{") {
		return msg
	}
	pairs := make([]string, 0, len(data)*2)
	for k, v := range data {
		pairs = append(pairs, "{"+k+"}", v)
	}
	return strings.NewReplacer(pairs...).Replace(msg)
}

var (
	mu                sync.RWMutex
	currentTranslator Translator = dictTranslator{lang: "en"}
)

// supported lists the catalog languages; the first one is the fallback.
var (
	supported = []language.Tag{language.English, language.Japanese}
	matcher   = language.NewMatcher(supported)
)

// SetLanguage switches the built-in Translator language. lang is a BCP 47
// tag ("ja", "ja-JP", "en-GB"); tags without a catalog fall back to English.
func SetLanguage(lang string) {
	mu.Lock()
	currentTranslator = dictTranslator{lang: matchLanguage(lang)}
	mu.Unlock()
}

// Language returns the catalog language in use, or "" when a custom
// Translator is installed.
func Language() string {
	mu.RLock()
	defer mu.RUnlock()
	if d, ok := currentTranslator.(dictTranslator); ok {
		return d.lang
	}
	return ""
}

func matchLanguage(lang string) string {
	tag, err := language.Parse(strings.TrimSpace(lang))
	if err != nil {
		return "en"
	}
	_, idx, conf := matcher.Match(tag)
	if conf == language.No {
		return "en"
	}
	base, _ := supported[idx].Base()
	return base.String()
}

// SetTranslator replaces the Translator implementation (not limited to the
// dictionary version).
func SetTranslator(tr Translator) {
	if tr == nil {
		tr = dictTranslator{lang: "en"}
	}
	mu.Lock()
	currentTranslator = tr
	mu.Unlock()
}

// T fetches a message for the given code using the current Translator.
func T(code string, data map[string]string) string {
	mu.RLock()
	tr := currentTranslator
	mu.RUnlock()
	return tr.Message(code, data)
}
