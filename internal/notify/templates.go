package notify

import (
	"fmt"
	"html"

	"github.com/mmeshcher/starquest/internal/model"
)

type inviteText struct {
	subject string
	body    string
	button  string
}

var inviteTexts = map[string]inviteText{
	model.LocaleEN: {
		subject: "%s invited you to StarQuest",
		body:    "%s has invited you to help manage quests and rewards on StarQuest.",
		button:  "Accept invitation",
	},
	model.LocaleZhCN: {
		subject: "%s 邀请您加入 StarQuest",
		body:    "%s 邀请您一起在 StarQuest 上管理任务和奖励。",
		button:  "接受邀请",
	},
}

// InviteEmail собирает письмо-приглашение в семью на языке locale. Неизвестная локаль заменяется английской.
func InviteEmail(locale, to, inviter, link string) Email {
	t, ok := inviteTexts[locale]
	if !ok {
		t = inviteTexts[model.LocaleEN]
	}

	body := fmt.Sprintf(t.body, html.EscapeString(inviter))

	return Email{
		To:      []string{to},
		Subject: fmt.Sprintf(t.subject, inviter),
		HTML: fmt.Sprintf(`<p>%s</p><p><a href="%s">%s</a></p>`,
			body, html.EscapeString(link), t.button),
		Text: fmt.Sprintf(t.body, inviter) + "\n\n" + link,
	}
}
