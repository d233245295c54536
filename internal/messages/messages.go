// Package messages localizes failure reasons for API clients.
package messages

import (
	"golang.org/x/text/language"
)

var (
	supported = []language.Tag{language.Korean, language.English}
	matcher   = language.NewMatcher(supported)
)

var catalog = map[language.Tag]map[string]string{
	language.Korean: {
		"invalid_input":       "입력값을 확인해주세요.",
		"forbidden":           "권한이 없습니다.",
		"not_found":           "요청한 항목을 찾을 수 없습니다.",
		"conflict":            "이미 사용 중인 값입니다.",
		"invalid_credentials": "이메일 또는 비밀번호가 일치하지 않습니다.",
		"email_not_confirmed": "이메일 인증이 완료되지 않았습니다. 메일함을 확인해주세요.",
		"rate_limited":        "시도 횟수가 너무 많습니다. 잠시 후 다시 시도해주세요.",
		"user_not_found":      "가입되지 않은 이메일입니다.",
		"already_registered":  "이미 가입된 이메일입니다.",
		"storage_unavailable": "파일 저장소를 사용할 수 없습니다.",
		"ai_unavailable":      "AI 추천을 불러오지 못했습니다. 잠시 후 다시 시도해주세요.",
		"unauthenticated":     "로그인이 필요합니다.",
		"internal":            "알 수 없는 오류가 발생했습니다.",
	},
	language.English: {
		"invalid_input":       "Please check your input.",
		"forbidden":           "You do not have permission to do that.",
		"not_found":           "The requested item was not found.",
		"conflict":            "That value is already in use.",
		"invalid_credentials": "Email or password is incorrect.",
		"email_not_confirmed": "Your email is not confirmed yet. Please check your inbox.",
		"rate_limited":        "Too many attempts. Please try again later.",
		"user_not_found":      "No account uses that email.",
		"already_registered":  "That email is already registered.",
		"storage_unavailable": "File storage is not available.",
		"ai_unavailable":      "Could not load an AI recommendation. Please try again later.",
		"unauthenticated":     "Please sign in first.",
		"internal":            "Something went wrong.",
	},
}

// Match picks the supported language for an Accept-Language header. Korean
// is the default.
func Match(acceptLanguage string) language.Tag {
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return language.Korean
	}
	_, index, confidence := matcher.Match(tags...)
	if confidence == language.No {
		return language.Korean
	}
	return supported[index]
}

// For returns the message for reason in the header's language, falling back
// to the generic message.
func For(acceptLanguage, reason string) string {
	messages := catalog[Match(acceptLanguage)]
	if message, ok := messages[reason]; ok {
		return message
	}
	return messages["internal"]
}
