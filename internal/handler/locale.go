package handler

import (
	"golang.org/x/text/language"

	"github.com/mmeshcher/starquest/internal/model"
)

var (
	supportedTags = []language.Tag{language.English, language.SimplifiedChinese}
	localeMatcher = language.NewMatcher(supportedTags)
)

// resolveLocale выбирает локаль интерфейса по заголовку Accept-Language.
func resolveLocale(acceptLanguage string) string {
	_, idx := language.MatchStrings(localeMatcher, acceptLanguage)
	if supportedTags[idx] == language.SimplifiedChinese {
		return model.LocaleZhCN
	}
	return model.LocaleEN
}
