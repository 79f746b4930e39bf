package respond

import "regexp"

var (
	// apikey=..., api-key: ..., api_key="..."
	keyParamPattern = regexp.MustCompile(`(?i)(api[-_]?key["']?\s*[=:]\s*["']?)[^&\s"']+`)
	// X-Api-Key style header dumps
	keyHeaderPattern = regexp.MustCompile(`(?i)(x-api-key:\s*)\S+`)
	// credentials embedded in URLs
	userinfoPattern = regexp.MustCompile(`://([^:/@\s]+):([^@/\s]+)@`)
)

// SanitizeError returns the error message with credentials masked.
func SanitizeError(err error) string {
	if err == nil {
		return ""
	}
	return Sanitize(err.Error())
}

// Sanitize masks API keys and URL credentials in msg.
func Sanitize(msg string) string {
	msg = keyHeaderPattern.ReplaceAllString(msg, "${1}****")
	msg = keyParamPattern.ReplaceAllString(msg, "${1}****")
	return userinfoPattern.ReplaceAllString(msg, "://$1:****@")
}
