// Package i18n localizes tstrans's own user interface.
//
// It wraps the gotext library behind small T() and N() helpers. The
// translation catalogs are embedded in the binary via //go:embed and loaded
// once at startup through Init(). When no catalog matches the detected
// language the helpers pass the original string through unchanged.
package i18n

import (
	"embed"
	"os"
	"strings"

	"github.com/leonelquinteros/gotext"
)

// locales embeds the translation catalogs.
// Directory structure: locales/{lang}/LC_MESSAGES/tstrans.po
//
//go:embed all:locales
var locales embed.FS

// domain is the gettext domain name for tstrans.
const domain = "tstrans"

// po is the gotext locale object used for translations.
var po *gotext.Locale

// Init initializes the i18n system. If lang is empty, it auto-detects from
// the environment variables LANGUAGE, LC_ALL, LC_MESSAGES, LANG (in that
// order, matching GNU gettext behavior). Call once at program startup.
func Init(lang string) {
	if lang == "" {
		lang = detectLanguage()
	}

	po = gotext.NewLocaleFSWithPath(lang, locales, "locales")
	po.AddDomain(domain)
	po.SetDomain(domain)
}

// T translates a string, returning the original when no translation exists.
func T(msgid string) string {
	if po == nil {
		return msgid
	}
	return po.Get(msgid)
}

// N translates a string with plural forms.
func N(singular, plural string, n int) string {
	if po == nil {
		if n == 1 {
			return singular
		}
		return plural
	}
	return po.GetN(singular, plural, n)
}

// detectLanguage reads environment variables to determine the user's
// preferred language, following GNU gettext conventions.
func detectLanguage() string {
	for _, env := range []string{"LANGUAGE", "LC_ALL", "LC_MESSAGES", "LANG"} {
		val := os.Getenv(env)
		if val == "" {
			continue
		}
		// LANGUAGE can be a colon-separated list; take the first entry.
		if env == "LANGUAGE" {
			val, _, _ = strings.Cut(val, ":")
		}
		// Strip encoding suffix (e.g. "ru_RU.UTF-8" -> "ru_RU").
		val, _, _ = strings.Cut(val, ".")
		// "C" and "POSIX" mean no translation.
		if val == "C" || val == "POSIX" || val == "" {
			continue
		}
		return val
	}
	return "en"
}
