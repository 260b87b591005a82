package translate

import "strings"

// LangName returns the English name of a language for use in prompts.
// Unknown codes are passed through unchanged so the model still receives
// something usable.
func LangName(code string) string {
	names := map[string]string{
		"cs": "Czech",
		"da": "Danish",
		"de": "German",
		"el": "Greek",
		"en": "English",
		"es": "Spanish",
		"fi": "Finnish",
		"fr": "French",
		"hu": "Hungarian",
		"it": "Italian",
		"ja": "Japanese",
		"ko": "Korean",
		"nl": "Dutch",
		"pl": "Polish",
		"pt": "Portuguese",
		"ro": "Romanian",
		"ru": "Russian",
		"sk": "Slovak",
		"sv": "Swedish",
		"tr": "Turkish",
		"uk": "Ukrainian",
	}
	regional := map[string]string{
		"pt_BR": "Brazilian Portuguese",
		"zh_CN": "Chinese (Simplified)",
		"zh_TW": "Chinese (Traditional)",
	}

	if name, ok := regional[code]; ok {
		return name
	}
	if name, ok := names[code]; ok {
		return name
	}
	// TS files usually carry full locale codes like ru_RU; fall back to the
	// base language.
	if base, _, found := strings.Cut(code, "_"); found {
		if name, ok := names[base]; ok {
			return name
		}
	}
	return code
}
